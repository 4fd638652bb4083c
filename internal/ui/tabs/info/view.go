package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/snapnote/snapnote-tui/internal/ui/styles"
	"github.com/snapnote/snapnote-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderSessionCard())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Session, configuration, and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	if w > 80 {
		w = 80
	}
	return w
}

// renderSessionCard renders the signed-in account details.
func (m *Model) renderSessionCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Session"))
	rows = append(rows, "")

	sess := m.state.GetSession()
	if !sess.SignedIn() {
		rows = append(rows, styles.HelpStyle.Render("Not signed in."))
		rows = append(rows, styles.HelpStyle.Render("Run snapnote-login; this app picks the session up automatically."))
	} else {
		rows = append(rows, m.renderRow("Account", sess.DisplayName()))
		if sess.Email != "" && sess.Email != sess.DisplayName() {
			rows = append(rows, m.renderRow("Email", sess.Email))
		}
		if !sess.IssuedAt.IsZero() {
			rows = append(rows, m.renderRow("Signed in", sess.IssuedAt.Format("Jan 2, 2006 15:04")))
		}

		if usage := m.state.GetUsage(); usage != nil {
			if usage.HasCustomKey {
				rows = append(rows, m.renderRow("Usage", "unmetered (personal API key)"))
			} else {
				rows = append(rows, m.renderRow("Free uses left", fmt.Sprintf("%d", usage.RemainingUses)))
			}
			rows = append(rows, m.renderRow("Total calls", fmt.Sprintf("%d", usage.APIUsageCount)))
		}
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigCard renders the configuration paths card.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, m.renderRow("Backend", m.config.APIBaseURL))
		rows = append(rows, m.renderRow("Session File", m.config.SessionPath))
		rows = append(rows, m.renderRow("Database", m.config.DatabasePath))
		rows = append(rows, m.renderRow("Downloads", m.config.DownloadDir))
		rows = append(rows, m.renderRow("Timeout", m.config.RequestTimeout.String()))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("Press 'c' to copy the session path"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(16).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About snapNote"))
	rows = append(rows, "")

	rows = append(rows, m.renderRow("Version", version.GetVersion()))
	rows = append(rows, m.renderRow("Commit", version.GetCommit()))
	rows = append(rows, m.renderRow("Built", version.GetDate()))
	rows = append(rows, m.renderRow("Go", runtime.Version()))
	rows = append(rows, m.renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
