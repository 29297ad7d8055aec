package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Team-synvo/jb-ai/internal/visibility"
)

const sampleCatalog = `
title: Sample
sections:
  - id: hero
    title: Welcome
    body: "Hello **world** <script>alert(1)</script>"
  - id: tools
    category: Items
    items:
      - name: Alpha Script
        code: |
          echo alpha
      - id: custom-beta
        name: Beta Helper
  - id: how-it-works
    category: documentation
    body: "[docs](https://example.com)"
  - id: defense
    category: defense
  - id: disclaimer
    category: disclaimer
filters:
  - id: Guides
    label: Guides
    categories: [general]
    tags: [how-it-works]
`

func TestParseFillsDefaults(t *testing.T) {
	cat, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	require.Equal(t, "Sample", cat.Title)
	require.Len(t, cat.Sections, 5)
	require.Equal(t, visibility.CategoryGeneral, cat.Sections[0].Category)
	require.Equal(t, visibility.CategoryItems, cat.Sections[1].Category)
	require.Equal(t, "hero", cat.Sections[0].Tag)

	items := cat.Items()
	require.Len(t, items, 2)
	require.Equal(t, "alpha-script", items[0].ID)
	require.Equal(t, "echo alpha", items[0].Code)
	require.Equal(t, "custom-beta", items[1].ID)

	item, ok := cat.Item("custom-beta")
	require.True(t, ok)
	require.Equal(t, "Beta Helper", item.Name)

	require.Equal(t, []FilterDef{{
		ID:         "guides",
		Label:      "Guides",
		Categories: []visibility.Category{visibility.CategoryGeneral},
		Tags:       []string{"how-it-works"},
	}}, cat.Filters)
	require.Equal(t, "Guides", cat.FilterLabel("guides"))
	require.Equal(t, "Scripts", cat.FilterLabel(visibility.FilterItems))
}

func TestParseRendersAndSanitizesMarkdown(t *testing.T) {
	cat, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	hero := cat.Sections[0].BodyHTML
	require.Contains(t, hero, "<strong>world</strong>")
	require.NotContains(t, hero, "<script")

	docs := cat.Sections[2].BodyHTML
	require.Contains(t, docs, `href="https://example.com"`)
	require.Contains(t, docs, `rel="nofollow"`)
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := map[string]string{
		"missing section id": "sections:\n  - title: x\n",
		"duplicate section":  "sections:\n  - id: a\n  - id: a\n",
		"unknown category":   "sections:\n  - id: a\n    category: sidebar\n",
		"duplicate item":     "sections:\n  - id: a\n    items:\n      - name: X\n      - name: x\n",
		"unnamed item":       "sections:\n  - id: a\n    items:\n      - id: z\n",
		"builtin filter":     "filters:\n  - id: all\n",
		"filter category":    "filters:\n  - id: extra\n    categories: [sidebar]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.True(t, errors.Is(err, ErrInvalidCatalog), "got %v", err)
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("sections: [unterminated"))
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "decode yaml"))
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	cat, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Sample", cat.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultCatalogDrivesEngine(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, cat.Items())

	engine := cat.NewEngine()
	d := engine.SetQuery("beta")
	require.Equal(t, []visibility.ItemID{"beta-helper"}, d.VisibleItems())
	require.True(t, d.SectionVisible("chat-assistants"))
	require.False(t, d.SectionVisible("how-it-works"))

	d, err = engine.SetActiveFilter(visibility.FilterDocumentation)
	require.NoError(t, err)
	require.Equal(t, []visibility.SectionID{"how-it-works"}, d.VisibleSections())

	d, err = engine.SetActiveFilter(visibility.FilterDefense)
	require.NoError(t, err)
	require.Equal(t, []visibility.SectionID{"defense", "disclaimer"}, d.VisibleSections())
}

func TestEngineInputRegistersExtraFilters(t *testing.T) {
	cat, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	items, sections, opts := cat.EngineInput()
	require.Len(t, items, 2)
	require.Len(t, sections, 5)
	require.Len(t, opts, 1)

	engine := visibility.New(items, sections, opts...)
	d, err := engine.SetActiveFilter("guides")
	require.NoError(t, err)
	require.Equal(t, []visibility.SectionID{"hero", "how-it-works"}, d.VisibleSections())
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Alpha Script":     "alpha-script",
		"  Beta -- Helper": "beta-helper",
		"GPT-4 (v2)":       "gpt-4-v2",
		"!!!":              "",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
