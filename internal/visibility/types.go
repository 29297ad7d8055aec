package visibility

import (
	"errors"
	"sort"
)

// ErrUnknownFilter is returned when a filter identifier is not registered on the engine.
var ErrUnknownFilter = errors.New("visibility: unknown filter")

// Filter identifies a pill in the page navigation.
type Filter string

const (
	FilterAll           Filter = "all"
	FilterItems         Filter = "items"
	FilterDocumentation Filter = "documentation"
	FilterDefense       Filter = "defense"
)

// Category groups sections. Separators and the disclaimer are modelled as sections too.
type Category string

const (
	CategoryGeneral       Category = "general"
	CategoryItems         Category = "items"
	CategoryDocumentation Category = "documentation"
	CategoryDefense       Category = "defense"
	CategorySeparator     Category = "separator"
	CategoryDisclaimer    Category = "disclaimer"
)

// Well-known section tags used by the default rules.
const (
	TagHowItWorks = "how-it-works"
	TagDefense    = "defense"
)

type (
	ItemID    string
	SectionID string
)

// Item is a searchable card.
type Item struct {
	ID    ItemID
	Label string
}

// Section is a page region. Tag defaults to the ID when empty.
type Section struct {
	ID       SectionID
	Tag      string
	Category Category
}

// FilterState is the engine's only mutable state.
type FilterState struct {
	// Query is trimmed and lowercased; "" means no text filter.
	Query        string
	ActiveFilter Filter
}

// RenderDecision is the complete visibility outcome for one FilterState.
type RenderDecision struct {
	ActiveFilter      Filter             `json:"activeFilter"`
	ItemVisibility    map[ItemID]bool    `json:"items"`
	SectionVisibility map[SectionID]bool `json:"sections"`
	ShowNoResults     bool               `json:"showNoResults"`
	EchoedQuery       string             `json:"echoedQuery"`
}

// ItemVisible reports the flag for id; unknown ids are not visible.
func (d RenderDecision) ItemVisible(id ItemID) bool { return d.ItemVisibility[id] }

// SectionVisible reports the flag for id; unknown ids are not visible.
func (d RenderDecision) SectionVisible(id SectionID) bool { return d.SectionVisibility[id] }

// VisibleItems returns the visible item ids in lexical order.
func (d RenderDecision) VisibleItems() []ItemID {
	out := make([]ItemID, 0, len(d.ItemVisibility))
	for id, ok := range d.ItemVisibility {
		if ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// VisibleSections returns the visible section ids in lexical order.
func (d RenderDecision) VisibleSections() []SectionID {
	out := make([]SectionID, 0, len(d.SectionVisibility))
	for id, ok := range d.SectionVisibility {
		if ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Rule lists the sections a filter shows. A section is shown when its category is listed
// or its tag is listed. ShowAll overrides both.
type Rule struct {
	ShowAll    bool
	Categories []Category
	Tags       []string
}

func (r Rule) shows(s Section) bool {
	if r.ShowAll {
		return true
	}
	for _, c := range r.Categories {
		if c == s.Category {
			return true
		}
	}
	for _, t := range r.Tags {
		if t == s.Tag {
			return true
		}
	}
	return false
}

// DefaultRules returns the built-in pill table.
//
// The defense pill keeps the disclaimer visible while documentation hides it.
func DefaultRules() map[Filter]Rule {
	return map[Filter]Rule{
		FilterAll:           {ShowAll: true},
		FilterItems:         {Categories: []Category{CategoryItems}},
		FilterDocumentation: {Tags: []string{TagHowItWorks}},
		FilterDefense:       {Tags: []string{TagDefense}, Categories: []Category{CategoryDisclaimer}},
	}
}

func builtinFilters() []Filter {
	return []Filter{FilterAll, FilterItems, FilterDocumentation, FilterDefense}
}
