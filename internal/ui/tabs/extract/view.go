package extract

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/snapnote/snapnote-tui/internal/models"
	"github.com/snapnote/snapnote-tui/internal/ui/styles"
)

// View renders the extract tab.
func (m *Model) View() string {
	if m.keyPanel.Open() {
		return styles.CenterBoth(m.keyPanel.View(), m.width, m.height)
	}

	if m.picking {
		return m.renderPicker()
	}

	var sections []string
	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderQuota())

	if m.job == nil {
		sections = append(sections, m.renderEmpty())
	} else {
		sections = append(sections, m.renderJob())
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("snapNote")
	subtitle := styles.HelpStyle.Render("Extract text from images")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderQuota renders the account's usage standing. The three shapes match
// the three states: unmetered, metered, unknown.
func (m *Model) renderQuota() string {
	sess := m.state.GetSession()
	if !sess.SignedIn() {
		return styles.WarningTextStyle.Render("Not signed in. Run snapnote-login to authenticate.") + "\n"
	}

	usage := m.state.GetUsage()
	if usage == nil {
		return styles.HelpStyle.Render("Usage: unknown") + "\n"
	}

	if usage.HasCustomKey {
		return styles.UnmeteredStyle.Render("✓ Personal API key active — unlimited usage") + "\n"
	}

	label := fmt.Sprintf("Free uses left: %d", usage.RemainingUses)
	return styles.GetQuotaStyle(usage.RemainingUses).Render(label) + "\n"
}

func (m *Model) renderEmpty() string {
	rows := []string{
		styles.CardTitleStyle.Render("No image selected"),
		"",
		styles.HelpStyle.Render("Press o to choose a PNG, JPEG, or GIF file."),
	}

	cardWidth := max(m.width-6, 40)
	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderPicker() string {
	header := styles.TitleStyle.Render("Select an image")
	hint := styles.HelpStyle.Render("enter: select   esc: cancel")

	return styles.DocStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", m.picker.View(), "", hint),
	)
}

func (m *Model) renderJob() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, m.renderImageInfo())

	switch m.job.Status {
	case models.JobIdle:
		rows = append(rows, "")
		rows = append(rows, styles.HelpStyle.Render("enter: extract text   x: clear   o: pick another image"))

	case models.JobUploading, models.JobAwaitingResult:
		rows = append(rows, "")
		rows = append(rows, m.spinner.ViewWithLabel())
		rows = append(rows, "")
		rows = append(rows, m.uploadBar.View(m.job.Progress, cardWidth-6))

	case models.JobSucceeded:
		rows = append(rows, "")
		rows = append(rows, m.renderResult())

	case models.JobFailed:
		rows = append(rows, "")
		rows = append(rows, m.renderFailure())
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderImageInfo() string {
	name := lipgloss.NewStyle().Bold(true).Render(m.job.ImageName)

	meta := ""
	if p := m.job.Preview; p != nil {
		if p.Width > 0 {
			meta = fmt.Sprintf("%dx%d %s, %s", p.Width, p.Height, p.Format, humanSize(p.ByteSize))
		} else {
			meta = humanSize(p.ByteSize)
		}
	}

	header := fmt.Sprintf("%s  %s", name, styles.HelpStyle.Render(meta))

	if p := m.job.Preview; p != nil && p.Thumbnail != "" && m.job.Status != models.JobSucceeded {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", p.Thumbnail)
	}

	return header
}

func (m *Model) renderResult() string {
	var rows []string

	rows = append(rows, styles.SuccessTextStyle.Render("Extracted text"))
	rows = append(rows, "")
	rows = append(rows, m.textView.View())
	rows = append(rows, "")

	copyHint := "c: copy"
	if m.copied {
		copyHint = styles.SuccessTextStyle.Render("✓ Copied!")
	}
	rows = append(rows, styles.HelpStyle.Render(
		fmt.Sprintf("%s   s: save to file   o: new image   ↑/↓: scroll", copyHint),
	))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderFailure() string {
	var rows []string

	if m.job.FailReason == models.FailureQuotaExceeded {
		rows = append(rows, styles.ErrorTextStyle.Render("Free usage limit reached"))
		rows = append(rows, styles.HelpStyle.Render("Press a to add your own API key and keep extracting."))
	} else {
		rows = append(rows, styles.ErrorTextStyle.Render("Extraction failed"))
		rows = append(rows, styles.HelpStyle.Render(trimForDisplay(m.job.ErrMessage, 120)))
		rows = append(rows, "")
		rows = append(rows, styles.HelpStyle.Render("enter: retry   x: clear   o: pick another image"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
