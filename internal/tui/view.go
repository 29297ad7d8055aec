package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Team-synvo/jb-ai/internal/visibility"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	taglineStyle  = lipgloss.NewStyle().Faint(true)
	pillStyle     = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activePill    = pillStyle.Reverse(true).Bold(true)
	sectionStyle  = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
	bodyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	summaryStyle  = lipgloss.NewStyle().Faint(true).PaddingLeft(4)
	codeStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1).MarginLeft(4)
	stepStyle     = lipgloss.NewStyle().PaddingLeft(4)
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).MarginTop(1)
	separatorRule = lipgloss.NewStyle().Faint(true)
	footerStyle   = lipgloss.NewStyle().MarginTop(1).Faint(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// View implements tea.Model.
func (a App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(a.catalog.Title))
	if a.catalog.Tagline != "" {
		b.WriteString("\n" + taglineStyle.Render(a.catalog.Tagline))
	}
	b.WriteString("\n\n" + a.pillsView() + "\n")
	b.WriteString(a.input.View() + "\n")

	selected, hasSelected := a.selected()
	for _, s := range a.catalog.Sections {
		if !a.decision.SectionVisible(visibility.SectionID(s.ID)) {
			continue
		}
		if s.Category == visibility.CategorySeparator {
			b.WriteString("\n" + separatorRule.Render(strings.Repeat("─", a.ruleWidth())) + "\n")
			continue
		}
		if s.Title != "" {
			b.WriteString(sectionStyle.Render(s.Title) + "\n")
		}
		if body := strings.TrimSpace(s.Body); body != "" {
			b.WriteString(a.wrap(bodyStyle).Render(body) + "\n")
		}
		for _, it := range s.Items {
			if !a.decision.ItemVisible(visibility.ItemID(it.ID)) {
				continue
			}
			line := "  " + it.Name
			if it.Badge != "" {
				line += " " + badgeStyle.Render("["+it.Badge+"]")
			}
			if hasSelected && selected.ID == it.ID && a.focus == FocusList {
				line = cursorStyle.Render(line)
			}
			b.WriteString(line + "\n")
			if it.Summary != "" {
				b.WriteString(summaryStyle.Render(it.Summary) + "\n")
			}
			if a.expanded[it.ID] {
				b.WriteString(codeStyle.Render(strings.TrimRight(it.Code, "\n")) + "\n")
				for i, step := range it.Instructions {
					b.WriteString(stepStyle.Render(fmt.Sprintf("%d. %s", i+1, step)) + "\n")
				}
			}
		}
	}

	if a.decision.ShowNoResults {
		b.WriteString(emptyStyle.Render(fmt.Sprintf("No results for %q", a.decision.EchoedQuery)) + "\n")
	}

	b.WriteString(footerStyle.Render(a.footer()))
	return b.String()
}

func (a App) pillsView() string {
	pills := make([]string, 0, len(a.filters))
	for _, f := range a.filters {
		label := a.catalog.FilterLabel(f)
		if f == a.decision.ActiveFilter {
			pills = append(pills, activePill.Render(label))
			continue
		}
		pills = append(pills, pillStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, pills...)
}

func (a App) footer() string {
	var parts []string
	if a.tracker != nil {
		parts = append(parts, "Visitors: "+a.tracker.Display())
	}
	if a.notice != "" {
		parts = append(parts, noticeStyle.Render(a.notice))
	} else {
		parts = append(parts, a.help.View(a.keys))
	}
	return strings.Join(parts, "  ·  ")
}

func (a App) wrap(style lipgloss.Style) lipgloss.Style {
	if a.width > 0 {
		return style.Width(a.width)
	}
	return style
}

func (a App) ruleWidth() int {
	if a.width > 0 {
		return a.width
	}
	return 40
}
