package visits

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/Team-synvo/jb-ai/internal/format"
)

const (
	// DisplayError is shown in place of the total whenever the counter cannot be reached.
	DisplayError = "Error"
	// DisplayPending is shown before the first total arrives.
	DisplayPending = "…"

	markerFile             = "visited"
	DefaultRefreshInterval = 30 * time.Second
)

// Counter is the pair of counter calls a Tracker needs. Both Client and Service satisfy it.
type Counter interface {
	Record(ctx context.Context) (int64, error)
	Total(ctx context.Context) (int64, error)
}

// Tracker counts this installation once, then keeps a displayable total fresh.
type Tracker struct {
	counter  Counter
	marker   string
	lang     language.Tag
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	total  int64
	loaded bool
	err    error
}

// TrackerOption customises a Tracker.
type TrackerOption func(*Tracker)

// WithRefreshInterval overrides the refresh cadence.
func WithRefreshInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithLanguage selects the number format for Display.
func WithLanguage(tag language.Tag) TrackerOption {
	return func(t *Tracker) {
		t.lang = tag
	}
}

// WithTrackerLogger sets the tracker logger.
func WithTrackerLogger(logger *zap.Logger) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker stores its first-visit marker under stateDir.
func NewTracker(counter Counter, stateDir string, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		counter:  counter,
		marker:   filepath.Join(stateDir, markerFile),
		lang:     language.English,
		interval: DefaultRefreshInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Interval is the refresh cadence callers should schedule Refresh on.
func (t *Tracker) Interval() time.Duration { return t.interval }

// Init records a visit the first time it runs for this state directory, then loads the total.
// Failures leave the tracker in the error display state.
func (t *Tracker) Init(ctx context.Context) error {
	if _, err := os.Stat(t.marker); errors.Is(err, fs.ErrNotExist) {
		if _, err := t.counter.Record(ctx); err != nil {
			t.fail(err)
			return err
		}
		if err := writeMarker(t.marker); err != nil {
			t.logger.Warn("visits: unable to persist first-visit marker", zap.String("path", t.marker), zap.Error(err))
		}
	}
	return t.Refresh(ctx)
}

// Refresh reloads the total.
func (t *Tracker) Refresh(ctx context.Context) error {
	total, err := t.counter.Total(ctx)
	if err != nil {
		t.fail(err)
		return err
	}
	t.mu.Lock()
	t.total, t.loaded, t.err = total, true, nil
	t.mu.Unlock()
	return nil
}

func (t *Tracker) fail(err error) {
	t.logger.Warn("visits: counter unavailable", zap.Error(err))
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}

// Display renders the total with locale digit grouping, or DisplayError after a failure.
func (t *Tracker) Display() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.err != nil:
		return DisplayError
	case !t.loaded:
		return DisplayPending
	}
	return format.Count(t.lang, t.total)
}

func writeMarker(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%s\n", time.Now().UTC().Format(time.RFC3339))), 0o644)
}
