package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/snapnote/snapnote-tui/internal/models"
	"github.com/snapnote/snapnote-tui/internal/ui/components"
	"github.com/snapnote/snapnote-tui/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.loading && !m.loaded {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if m.total == 0 {
		return m.renderEmpty()
	}

	var sections []string
	sections = append(sections,
		m.renderHeader(),
		m.renderActivityChart(),
		m.renderRecentList(),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render("No extractions recorded yet."),
		styles.HelpStyle.Render("Finished extractions will appear here."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("History")
	subtitle := styles.HelpStyle.Render(
		fmt.Sprintf("%d extractions recorded", m.total),
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderActivityChart() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Daily Activity"), "")

	if len(m.daily) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No daily data available"))
	} else {
		data := make([]float64, len(m.daily))
		for i, d := range m.daily {
			data[i] = float64(d.Count)
		}

		chartWidth := max(cardWidth-12, 30)
		chart := components.RenderLineChart(data, chartWidth, 6,
			fmt.Sprintf("Extractions per day, last %d days", len(m.daily)))

		for _, line := range strings.Split(chart, "\n") {
			rows = append(rows, "  "+line)
		}
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderRecentList() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Recent Extractions"), "")

	if len(m.records) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No extractions yet"))
	}

	for _, rec := range m.records {
		rows = append(rows, m.renderRecord(rec, cardWidth-4))
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderRecord(rec models.ExtractionRecord, width int) string {
	marker := styles.SuccessTextStyle.Render("●")
	detail := fmt.Sprintf("%d chars in %dms", rec.CharCount, rec.DurationMs)
	if rec.Status != "succeeded" {
		marker = styles.ErrorTextStyle.Render("●")
		detail = rec.Error
		if detail == "" {
			detail = "failed"
		}
	}

	name := rec.ImageName
	if len(name) > 30 {
		name = name[:27] + "..."
	}

	if maxDetail := width - 50; maxDetail > 10 && len(detail) > maxDetail {
		detail = detail[:maxDetail-3] + "..."
	}

	return fmt.Sprintf("  %s %s  %s  %s",
		marker,
		styles.HelpStyle.Render(rec.Timestamp.Format("Jan 02 15:04")),
		lipgloss.NewStyle().Bold(true).Render(name),
		styles.HelpStyle.Render(detail),
	)
}
