package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/Team-synvo/jb-ai/internal/visibility"
)

// ErrInvalidCatalog wraps every validation failure reported by Parse.
var ErrInvalidCatalog = errors.New("catalog: invalid")

// Catalog is the full page content: sections in display order, each optionally holding cards.
type Catalog struct {
	Title    string
	Tagline  string
	Sections []Section
	Filters  []FilterDef
}

// Section is a page region. BodyHTML is the sanitized rendering of Body.
type Section struct {
	ID       string
	Tag      string
	Title    string
	Category visibility.Category
	Body     string
	BodyHTML string
	Items    []Item
}

// Item is a searchable card with a copyable code block.
type Item struct {
	ID           string
	Name         string
	Summary      string
	Badge        string
	Code         string
	Instructions []string
}

// FilterDef declares an extra pill on top of the built-in ones.
type FilterDef struct {
	ID         string
	Label      string
	Categories []visibility.Category
	Tags       []string
}

type catalogDocument struct {
	Title    string            `yaml:"title"`
	Tagline  string            `yaml:"tagline"`
	Sections []sectionDocument `yaml:"sections"`
	Filters  []filterDocument  `yaml:"filters"`
}

type sectionDocument struct {
	ID       string         `yaml:"id"`
	Tag      string         `yaml:"tag"`
	Title    string         `yaml:"title"`
	Category string         `yaml:"category"`
	Body     string         `yaml:"body"`
	Items    []itemDocument `yaml:"items"`
}

type itemDocument struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Summary      string   `yaml:"summary"`
	Badge        string   `yaml:"badge"`
	Code         string   `yaml:"code"`
	Instructions []string `yaml:"instructions"`
}

type filterDocument struct {
	ID         string   `yaml:"id"`
	Label      string   `yaml:"label"`
	Categories []string `yaml:"categories"`
	Tags       []string `yaml:"tags"`
}

var knownCategories = map[visibility.Category]struct{}{
	visibility.CategoryGeneral:       {},
	visibility.CategoryItems:         {},
	visibility.CategoryDocumentation: {},
	visibility.CategoryDefense:       {},
	visibility.CategorySeparator:     {},
	visibility.CategoryDisclaimer:    {},
}

var builtinLabels = map[visibility.Filter]string{
	visibility.FilterAll:           "All",
	visibility.FilterItems:         "Scripts",
	visibility.FilterDocumentation: "How it works",
	visibility.FilterDefense:       "Defense",
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes a YAML catalog, fills defaults, validates ids, and renders section bodies.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}

	cat := &Catalog{
		Title:    strings.TrimSpace(doc.Title),
		Tagline:  strings.TrimSpace(doc.Tagline),
		Sections: make([]Section, 0, len(doc.Sections)),
	}

	sectionIDs := make(map[string]struct{}, len(doc.Sections))
	itemIDs := make(map[string]struct{})
	for i, sd := range doc.Sections {
		id := strings.TrimSpace(sd.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: section %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := sectionIDs[id]; dup {
			return nil, fmt.Errorf("%w: duplicate section id %q", ErrInvalidCatalog, id)
		}
		sectionIDs[id] = struct{}{}

		category := visibility.Category(strings.ToLower(strings.TrimSpace(sd.Category)))
		if category == "" {
			category = visibility.CategoryGeneral
		}
		if _, ok := knownCategories[category]; !ok {
			return nil, fmt.Errorf("%w: section %q has unknown category %q", ErrInvalidCatalog, id, sd.Category)
		}

		html, err := renderMarkdown(sd.Body)
		if err != nil {
			return nil, fmt.Errorf("catalog: render section %q: %w", id, err)
		}

		section := Section{
			ID:       id,
			Tag:      strings.TrimSpace(sd.Tag),
			Title:    strings.TrimSpace(sd.Title),
			Category: category,
			Body:     sd.Body,
			BodyHTML: html,
		}
		if section.Tag == "" {
			section.Tag = id
		}

		for _, itd := range sd.Items {
			item := Item{
				ID:           strings.TrimSpace(itd.ID),
				Name:         strings.TrimSpace(itd.Name),
				Summary:      strings.TrimSpace(itd.Summary),
				Badge:        strings.TrimSpace(itd.Badge),
				Code:         strings.TrimRight(itd.Code, "\n"),
				Instructions: itd.Instructions,
			}
			if item.Name == "" {
				return nil, fmt.Errorf("%w: section %q has an item without a name", ErrInvalidCatalog, id)
			}
			if item.ID == "" {
				item.ID = Slugify(item.Name)
			}
			if _, dup := itemIDs[item.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate item id %q", ErrInvalidCatalog, item.ID)
			}
			itemIDs[item.ID] = struct{}{}
			section.Items = append(section.Items, item)
		}
		cat.Sections = append(cat.Sections, section)
	}

	for _, fd := range doc.Filters {
		def, err := parseFilter(fd)
		if err != nil {
			return nil, err
		}
		cat.Filters = append(cat.Filters, def)
	}
	return cat, nil
}

func parseFilter(fd filterDocument) (FilterDef, error) {
	id := strings.ToLower(strings.TrimSpace(fd.ID))
	if id == "" {
		return FilterDef{}, fmt.Errorf("%w: filter without id", ErrInvalidCatalog)
	}
	if _, builtin := builtinLabels[visibility.Filter(id)]; builtin {
		return FilterDef{}, fmt.Errorf("%w: filter %q redefines a built-in pill", ErrInvalidCatalog, id)
	}
	def := FilterDef{ID: id, Label: strings.TrimSpace(fd.Label), Tags: fd.Tags}
	if def.Label == "" {
		def.Label = fd.ID
	}
	for _, c := range fd.Categories {
		category := visibility.Category(strings.ToLower(strings.TrimSpace(c)))
		if _, ok := knownCategories[category]; !ok {
			return FilterDef{}, fmt.Errorf("%w: filter %q has unknown category %q", ErrInvalidCatalog, id, c)
		}
		def.Categories = append(def.Categories, category)
	}
	return def, nil
}

// Items returns every card in display order.
func (c *Catalog) Items() []Item {
	var out []Item
	for _, s := range c.Sections {
		out = append(out, s.Items...)
	}
	return out
}

// Item looks up a card by id.
func (c *Catalog) Item(id string) (Item, bool) {
	for _, s := range c.Sections {
		for _, it := range s.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return Item{}, false
}

// FilterLabel returns the pill caption for f.
func (c *Catalog) FilterLabel(f visibility.Filter) string {
	if label, ok := builtinLabels[f]; ok {
		return label
	}
	for _, def := range c.Filters {
		if def.ID == string(f) {
			return def.Label
		}
	}
	return string(f)
}

// Slugify lowercases name and joins its letter and digit runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
