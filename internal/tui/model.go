// Package tui is the terminal browser for the catalog. It drives the same visibility engine as
// the web page: the search box feeds SetQuery and the filter pills feed SetActiveFilter.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Team-synvo/jb-ai/internal/catalog"
	"github.com/Team-synvo/jb-ai/internal/visibility"
)

// noticeFadeDelay is how long a status notice stays in the footer.
const noticeFadeDelay = 2 * time.Second

// visitsTimeout bounds a single counter round trip.
const visitsTimeout = 10 * time.Second

// Tracker keeps the footer's visitor total. *visits.Tracker satisfies it.
type Tracker interface {
	Init(ctx context.Context) error
	Refresh(ctx context.Context) error
	Display() string
	Interval() time.Duration
}

// Focus identifies which region receives keystrokes.
type Focus int

const (
	// FocusList routes navigation keys to the card list.
	FocusList Focus = iota
	// FocusSearch routes keystrokes to the search input.
	FocusSearch
)

// visitsMsg reports that a tracker call finished. The tracker holds the result.
type visitsMsg struct{}

// visitsTickMsg schedules the next total refresh.
type visitsTickMsg struct{}

// copiedMsg reports the outcome of a clipboard write.
type copiedMsg struct {
	name string
	err  error
}

// noticeFadeMsg clears the notice it was scheduled for. A newer notice survives an older fade.
type noticeFadeMsg struct {
	seq int
}

// App is the bubbletea model.
type App struct {
	catalog  *catalog.Catalog
	engine   *visibility.Engine
	filters  []visibility.Filter
	decision visibility.RenderDecision

	keys  KeyMap
	help  help.Model
	input textinput.Model
	focus Focus

	cursor   int
	expanded map[string]bool

	tracker   Tracker
	clipboard func(string) error

	notice    string
	noticeSeq int

	width int
}

// Option customises an App.
type Option func(*App)

// WithTracker shows the visitor total in the footer.
func WithTracker(t Tracker) Option {
	return func(a *App) {
		a.tracker = t
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(a *App) {
		if write != nil {
			a.clipboard = write
		}
	}
}

// WithKeyMap replaces the default bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(a *App) {
		a.keys = keys
	}
}

// New builds the browser over cat in its initial state: filter all, empty query.
func New(cat *catalog.Catalog, opts ...Option) App {
	input := textinput.New()
	input.Placeholder = "Search scripts"
	input.Prompt = "/ "
	input.CharLimit = 120

	engine := cat.NewEngine()
	a := App{
		catalog:   cat,
		engine:    engine,
		filters:   engine.Filters(),
		decision:  engine.Decision(),
		keys:      DefaultKeyMap,
		help:      help.New(),
		input:     input,
		expanded:  make(map[string]bool),
		clipboard: clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&a)
		}
	}
	return a
}

// Init starts the visit tracker when one is configured.
func (a App) Init() tea.Cmd {
	if a.tracker == nil {
		return nil
	}
	return a.trackVisit()
}

func (a App) trackVisit() tea.Cmd {
	tracker := a.tracker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), visitsTimeout)
		defer cancel()
		_ = tracker.Init(ctx)
		return visitsMsg{}
	}
}

func (a App) refreshVisits() tea.Cmd {
	tracker := a.tracker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), visitsTimeout)
		defer cancel()
		_ = tracker.Refresh(ctx)
		return visitsMsg{}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.help.Width = msg.Width
		return a, nil

	case visitsMsg:
		if a.tracker == nil {
			return a, nil
		}
		return a, tea.Tick(a.tracker.Interval(), func(time.Time) tea.Msg { return visitsTickMsg{} })

	case visitsTickMsg:
		if a.tracker == nil {
			return a, nil
		}
		return a, a.refreshVisits()

	case copiedMsg:
		if msg.err != nil {
			return a.setNotice(fmt.Sprintf("Copy failed: %v", msg.err))
		}
		return a.setNotice(fmt.Sprintf("Copied %s", msg.name))

	case noticeFadeMsg:
		if msg.seq == a.noticeSeq {
			a.notice = ""
		}
		return a, nil

	case tea.KeyMsg:
		if a.focus == FocusSearch {
			return a.updateSearch(msg)
		}
		return a.updateList(msg)
	}
	return a, nil
}

func (a App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Search):
		a.focus = FocusSearch
		return a, a.input.Focus()
	case key.Matches(msg, a.keys.NextFilter):
		return a.cycleFilter(1)
	case key.Matches(msg, a.keys.PrevFilter):
		return a.cycleFilter(-1)
	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1)
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1)
	case key.Matches(msg, a.keys.Toggle):
		if it, ok := a.selected(); ok {
			a.expanded[it.ID] = !a.expanded[it.ID]
		}
	case key.Matches(msg, a.keys.Copy):
		return a.copySelected()
	}
	return a, nil
}

func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return a, tea.Quit
	case key.Matches(msg, a.keys.SearchLeave):
		a.focus = FocusList
		a.input.Blur()
		return a, nil
	case key.Matches(msg, a.keys.NextFilter):
		return a.cycleFilter(1)
	case key.Matches(msg, a.keys.PrevFilter):
		return a.cycleFilter(-1)
	case msg.Type == tea.KeyUp:
		a.moveCursor(-1)
		return a, nil
	case msg.Type == tea.KeyDown:
		a.moveCursor(1)
		return a, nil
	}

	before := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if a.input.Value() != before {
		a.decision = a.engine.SetQuery(a.input.Value())
		a.clampCursor()
	}
	return a, cmd
}

// cycleFilter activates the pill step places away from the current one. The engine clears the
// query on every filter change, so the input is cleared to match.
func (a App) cycleFilter(step int) (tea.Model, tea.Cmd) {
	if len(a.filters) == 0 {
		return a, nil
	}
	current := 0
	for i, f := range a.filters {
		if f == a.decision.ActiveFilter {
			current = i
			break
		}
	}
	next := a.filters[(current+step+len(a.filters))%len(a.filters)]

	decision, err := a.engine.SetActiveFilter(next)
	if err != nil {
		return a.setNotice(err.Error())
	}
	a.decision = decision
	a.input.SetValue("")
	a.cursor = 0
	return a, nil
}

func (a App) copySelected() (tea.Model, tea.Cmd) {
	it, ok := a.selected()
	if !ok || it.Code == "" {
		return a.setNotice("Nothing to copy")
	}
	write, name, code := a.clipboard, it.Name, it.Code
	return a, func() tea.Msg {
		return copiedMsg{name: name, err: write(code)}
	}
}

func (a App) setNotice(text string) (tea.Model, tea.Cmd) {
	a.noticeSeq++
	a.notice = text
	seq := a.noticeSeq
	return a, tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg { return noticeFadeMsg{seq: seq} })
}

// cards lists the visible cards in display order.
func (a App) cards() []catalog.Item {
	var out []catalog.Item
	for _, s := range a.catalog.Sections {
		if !a.decision.SectionVisible(visibility.SectionID(s.ID)) {
			continue
		}
		for _, it := range s.Items {
			if a.decision.ItemVisible(visibility.ItemID(it.ID)) {
				out = append(out, it)
			}
		}
	}
	return out
}

func (a App) selected() (catalog.Item, bool) {
	cards := a.cards()
	if a.cursor < 0 || a.cursor >= len(cards) {
		return catalog.Item{}, false
	}
	return cards[a.cursor], true
}

func (a *App) moveCursor(delta int) {
	a.cursor += delta
	a.clampCursor()
}

func (a *App) clampCursor() {
	n := len(a.cards())
	switch {
	case n == 0:
		a.cursor = 0
	case a.cursor >= n:
		a.cursor = n - 1
	case a.cursor < 0:
		a.cursor = 0
	}
}

// Cursor is the index of the selected card among the visible ones.
func (a App) Cursor() int { return a.cursor }

// Focus reports which region has keyboard focus.
func (a App) Focus() Focus { return a.focus }

// Query is the current search input text.
func (a App) Query() string { return a.input.Value() }

// Decision is the engine's latest render decision.
func (a App) Decision() visibility.RenderDecision { return a.decision }

// Selected returns the card under the cursor.
func (a App) Selected() (catalog.Item, bool) { return a.selected() }

// Expanded reports whether a card's instructions are shown.
func (a App) Expanded(id string) bool { return a.expanded[id] }

// Notice is the transient footer message.
func (a App) Notice() string { return a.notice }
