package catalog

import "github.com/Team-synvo/jb-ai/internal/visibility"

// EngineInput projects the catalog into the engine's item and section tuples plus one rule
// option per configured extra filter.
func (c *Catalog) EngineInput() ([]visibility.Item, []visibility.Section, []visibility.Option) {
	var (
		items    []visibility.Item
		sections = make([]visibility.Section, 0, len(c.Sections))
		opts     = make([]visibility.Option, 0, len(c.Filters))
	)
	for _, s := range c.Sections {
		sections = append(sections, visibility.Section{
			ID:       visibility.SectionID(s.ID),
			Tag:      s.Tag,
			Category: s.Category,
		})
		for _, it := range s.Items {
			items = append(items, visibility.Item{ID: visibility.ItemID(it.ID), Label: it.Name})
		}
	}
	for _, def := range c.Filters {
		opts = append(opts, visibility.WithRule(visibility.Filter(def.ID), visibility.Rule{
			Categories: def.Categories,
			Tags:       def.Tags,
		}))
	}
	return items, sections, opts
}

// NewEngine builds a fresh engine over the catalog.
func (c *Catalog) NewEngine() *visibility.Engine {
	items, sections, opts := c.EngineInput()
	return visibility.New(items, sections, opts...)
}
