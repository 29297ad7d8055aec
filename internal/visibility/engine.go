package visibility

import (
	"fmt"
	"strings"
)

type indexedItem struct {
	id    ItemID
	label string
}

// Engine computes RenderDecisions for a fixed set of items and sections.
type Engine struct {
	items    []indexedItem
	sections []Section
	rules    map[Filter]Rule
	filters  []Filter

	state    FilterState
	rawQuery string
	visible  map[ItemID]bool
}

// Option customises an Engine.
type Option func(*Engine)

// WithRule registers or replaces the rule for filter. New filters are appended after the
// built-in pills in registration order.
func WithRule(filter Filter, rule Rule) Option {
	return func(e *Engine) {
		filter = Filter(strings.ToLower(strings.TrimSpace(string(filter))))
		if filter == "" {
			return
		}
		if _, exists := e.rules[filter]; !exists {
			e.filters = append(e.filters, filter)
		}
		e.rules[filter] = rule
	}
}

// New builds an engine in the default state: empty query, filter "all", every item visible.
func New(items []Item, sections []Section, opts ...Option) *Engine {
	e := &Engine{
		items:    make([]indexedItem, 0, len(items)),
		sections: make([]Section, 0, len(sections)),
		rules:    DefaultRules(),
		filters:  builtinFilters(),
		state:    FilterState{ActiveFilter: FilterAll},
		visible:  make(map[ItemID]bool, len(items)),
	}
	for _, it := range items {
		e.items = append(e.items, indexedItem{id: it.ID, label: Normalize(it.Label)})
		e.visible[it.ID] = true
	}
	for _, s := range sections {
		if s.Tag == "" {
			s.Tag = string(s.ID)
		}
		e.sections = append(e.sections, s)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// ParseFilter validates raw against the filters registered on e. Unknown identifiers are
// rejected; nothing is coerced to FilterAll.
func (e *Engine) ParseFilter(raw string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := e.rules[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, raw)
	}
	return f, nil
}

// Filters returns the registered filters in pill order.
func (e *Engine) Filters() []Filter {
	out := make([]Filter, len(e.filters))
	copy(out, e.filters)
	return out
}

// State returns the current FilterState.
func (e *Engine) State() FilterState { return e.state }

// SetQuery applies a search query and returns the resulting decision. Every string is valid.
func (e *Engine) SetQuery(text string) RenderDecision {
	q := Normalize(text)
	e.state.Query = q
	e.rawQuery = ""
	if q != "" {
		e.rawQuery = text
	}
	for _, it := range e.items {
		e.visible[it.id] = q == "" || strings.Contains(it.label, q)
	}
	return e.Decision()
}

// SetActiveFilter switches the pill filter. It clears the query and resets every item to
// visible. An unregistered filter returns ErrUnknownFilter and leaves the state untouched.
func (e *Engine) SetActiveFilter(filter Filter) (RenderDecision, error) {
	if _, ok := e.rules[filter]; !ok {
		return RenderDecision{}, fmt.Errorf("%w: %q", ErrUnknownFilter, filter)
	}
	e.state = FilterState{ActiveFilter: filter}
	e.rawQuery = ""
	for _, it := range e.items {
		e.visible[it.id] = true
	}
	return e.Decision(), nil
}

// Decision recomputes the RenderDecision for the current state without mutating it.
func (e *Engine) Decision() RenderDecision {
	rule := e.rules[e.state.ActiveFilter]
	searching := e.state.Query != ""

	d := RenderDecision{
		ActiveFilter:      e.state.ActiveFilter,
		ItemVisibility:    make(map[ItemID]bool, len(e.items)),
		SectionVisibility: make(map[SectionID]bool, len(e.sections)),
		EchoedQuery:       e.rawQuery,
	}

	anyVisible := false
	for _, it := range e.items {
		v := e.visible[it.id]
		d.ItemVisibility[it.id] = v
		anyVisible = anyVisible || v
	}
	for _, s := range e.sections {
		v := rule.shows(s)
		if searching && s.Category != CategoryItems {
			v = false
		}
		d.SectionVisibility[s.ID] = v
	}
	d.ShowNoResults = searching && !anyVisible
	return d
}
