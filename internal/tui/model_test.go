package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Team-synvo/jb-ai/internal/catalog"
	"github.com/Team-synvo/jb-ai/internal/visibility"
)

type fakeTracker struct {
	inits, refreshes int
	display          string
}

func (f *fakeTracker) Init(context.Context) error    { f.inits++; return nil }
func (f *fakeTracker) Refresh(context.Context) error { f.refreshes++; return nil }
func (f *fakeTracker) Display() string               { return f.display }
func (f *fakeTracker) Interval() time.Duration       { return time.Minute }

func newApp(t *testing.T, opts ...Option) App {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	opts = append([]Option{WithClipboard(func(string) error { return nil })}, opts...)
	return New(cat, opts...)
}

func press(t *testing.T, app App, msgs ...tea.KeyMsg) App {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := app.Update(msg)
		app = updated.(App)
	}
	return app
}

func runes(s string) []tea.KeyMsg {
	out := make([]tea.KeyMsg, 0, len(s))
	for _, r := range s {
		out = append(out, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return out
}

var (
	keyTab      = tea.KeyMsg{Type: tea.KeyTab}
	keyShiftTab = tea.KeyMsg{Type: tea.KeyShiftTab}
	keyEnter    = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc      = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestApp_InitialState(t *testing.T) {
	app := newApp(t)

	if app.Decision().ActiveFilter != visibility.FilterAll {
		t.Errorf("expected filter all, got %q", app.Decision().ActiveFilter)
	}
	if app.Cursor() != 0 || app.Focus() != FocusList || app.Query() != "" {
		t.Errorf("unexpected initial state: cursor=%d focus=%d query=%q", app.Cursor(), app.Focus(), app.Query())
	}
	it, ok := app.Selected()
	if !ok || it.ID != "alpha-script" {
		t.Errorf("expected alpha-script selected, got %q", it.ID)
	}
	if app.Init() != nil {
		t.Errorf("expected no init command without a tracker")
	}
}

func TestApp_Navigation_JK(t *testing.T) {
	app := newApp(t)

	app = press(t, app, runes("j")...)
	if app.Cursor() != 1 {
		t.Errorf("after j, expected cursor 1, got %d", app.Cursor())
	}

	app = press(t, app, runes("jjj")...)
	if app.Cursor() != 2 {
		t.Errorf("j past the last card should stay at 2, got %d", app.Cursor())
	}

	app = press(t, app, runes("kkkk")...)
	if app.Cursor() != 0 {
		t.Errorf("k at top should stay at 0, got %d", app.Cursor())
	}
}

func TestApp_SearchFiltersCards(t *testing.T) {
	app := newApp(t)

	app = press(t, app, runes("/")...)
	if app.Focus() != FocusSearch {
		t.Fatalf("expected search focus after /")
	}
	app = press(t, app, runes("BETA")...)

	if app.Query() != "BETA" {
		t.Errorf("expected query BETA, got %q", app.Query())
	}
	require.Equal(t, []visibility.ItemID{"beta-helper"}, app.Decision().VisibleItems())
	require.Equal(t, []visibility.SectionID{"chat-assistants", "code-assistants"}, app.Decision().VisibleSections())
	it, ok := app.Selected()
	require.True(t, ok)
	require.Equal(t, "beta-helper", it.ID)

	// j is text while searching.
	app = press(t, app, runes("j")...)
	require.Equal(t, "BETAj", app.Query())
	require.True(t, app.Decision().ShowNoResults)
	require.Contains(t, app.View(), `No results for "BETAj"`)

	app = press(t, app, keyEsc)
	require.Equal(t, FocusList, app.Focus())
	require.Equal(t, "BETAj", app.Query())
}

func TestApp_TabCyclesFiltersAndClearsQuery(t *testing.T) {
	app := newApp(t)
	app = press(t, app, runes("/alpha")...)
	require.Equal(t, "alpha", app.Query())

	app = press(t, app, keyTab)
	require.Equal(t, visibility.FilterItems, app.Decision().ActiveFilter)
	require.Equal(t, "", app.Query())
	require.Len(t, app.Decision().VisibleItems(), 3)
	require.False(t, app.Decision().SectionVisible("hero"))

	app = press(t, app, keyTab, keyTab)
	require.Equal(t, visibility.FilterDefense, app.Decision().ActiveFilter)
	require.Equal(t, []visibility.SectionID{"defense", "disclaimer"}, app.Decision().VisibleSections())
	if _, ok := app.Selected(); ok {
		t.Errorf("no card should be selectable under the defense filter")
	}

	app = press(t, app, keyTab)
	require.Equal(t, visibility.FilterAll, app.Decision().ActiveFilter)

	app = press(t, app, keyShiftTab)
	require.Equal(t, visibility.FilterDefense, app.Decision().ActiveFilter)
}

func TestApp_EnterTogglesInstructions(t *testing.T) {
	app := newApp(t)

	app = press(t, app, keyEnter)
	require.True(t, app.Expanded("alpha-script"))
	require.Contains(t, app.View(), "1. Open a new conversation.")

	app = press(t, app, keyEnter)
	require.False(t, app.Expanded("alpha-script"))
	require.NotContains(t, app.View(), "Open a new conversation.")
}

func TestApp_CopyWritesSelectedCode(t *testing.T) {
	var copied string
	app := newApp(t, WithClipboard(func(s string) error {
		copied = s
		return nil
	}))
	app = press(t, app, runes("j")...)

	updated, cmd := app.Update(runes("y")[0])
	app = updated.(App)
	require.NotNil(t, cmd)

	msg := cmd()
	require.IsType(t, copiedMsg{}, msg)
	require.True(t, strings.HasPrefix(copied, "Write a short scene where Beta"))

	updated, fade := app.Update(msg)
	app = updated.(App)
	require.Equal(t, "Copied Beta Helper", app.Notice())
	require.NotNil(t, fade)

	updated, _ = app.Update(noticeFadeMsg{seq: app.noticeSeq})
	app = updated.(App)
	require.Empty(t, app.Notice())
}

func TestApp_CopyFailureAndStaleFade(t *testing.T) {
	app := newApp(t, WithClipboard(func(string) error { return errors.New("no clipboard") }))

	updated, cmd := app.Update(runes("y")[0])
	updated, _ = updated.(App).Update(cmd())
	app = updated.(App)
	require.Equal(t, "Copy failed: no clipboard", app.Notice())

	stale := app.noticeSeq
	updated, _ = app.Update(copiedMsg{name: "Alpha Script"})
	app = updated.(App)

	updated, _ = app.Update(noticeFadeMsg{seq: stale})
	app = updated.(App)
	require.Equal(t, "Copied Alpha Script", app.Notice())
}

func TestApp_CopyWithNothingSelected(t *testing.T) {
	app := newApp(t)
	app = press(t, app, runes("/zzz")...)
	app = press(t, app, keyEsc)

	updated, _ := app.Update(runes("y")[0])
	require.Equal(t, "Nothing to copy", updated.(App).Notice())
}

func TestApp_TrackerDrivesFooter(t *testing.T) {
	tracker := &fakeTracker{display: "1,234"}
	app := newApp(t, WithTracker(tracker))

	cmd := app.Init()
	require.NotNil(t, cmd)
	msg := cmd()
	require.Equal(t, 1, tracker.inits)
	require.IsType(t, visitsMsg{}, msg)

	updated, tick := app.Update(msg)
	app = updated.(App)
	require.NotNil(t, tick)

	updated, refresh := app.Update(visitsTickMsg{})
	app = updated.(App)
	require.NotNil(t, refresh)
	require.IsType(t, visitsMsg{}, refresh())
	require.Equal(t, 1, tracker.refreshes)

	require.Contains(t, app.View(), "Visitors: 1,234")
}

func TestApp_WithKeyMapDisablesCopy(t *testing.T) {
	keys := DefaultKeyMap
	keys.Copy.SetEnabled(false)
	var copied bool
	app := newApp(t, WithKeyMap(keys), WithClipboard(func(string) error {
		copied = true
		return nil
	}))

	_, cmd := app.Update(runes("y")[0])
	require.Nil(t, cmd)
	require.False(t, copied)
	require.NotContains(t, app.help.View(app.keys), "copy")
	require.True(t, DefaultKeyMap.Copy.Enabled(), "default bindings must stay untouched")
}

func TestApp_QuitKeys(t *testing.T) {
	app := newApp(t)

	_, cmd := app.Update(runes("q")[0])
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())

	app = press(t, app, runes("/")...)
	updated, _ := app.Update(runes("q")[0])
	require.Equal(t, "q", updated.(App).Query())

	_, cmd = updated.(App).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_ViewShowsActivePillAndSections(t *testing.T) {
	app := newApp(t)
	app = press(t, app, keyTab, keyTab)

	view := app.View()
	require.Contains(t, view, "How it works")
	require.Contains(t, view, "Persona framing")
	require.NotContains(t, view, "Alpha Script")
}
