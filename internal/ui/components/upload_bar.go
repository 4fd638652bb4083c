package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/snapnote/snapnote-tui/internal/ui/styles"
)

// UploadBar renders extraction progress: 0-50 while the image uploads,
// 50-100 while the backend response streams back.
type UploadBar struct {
	progress progress.Model
}

// NewUploadBar creates a new upload progress bar with gradient colors.
func NewUploadBar() UploadBar {
	p := progress.New(
		progress.WithScaledGradient("#5fafff", "#51cf66"),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return UploadBar{progress: p}
}

// SetWidth sets the progress bar width.
func (u *UploadBar) SetWidth(width int) {
	u.progress.Width = width
}

// View renders the bar at the given percentage with a phase label.
func (u UploadBar) View(percent float64, width int) string {
	barWidth := width - 20
	if barWidth < 10 {
		barWidth = 10
	}
	u.progress.Width = barWidth

	bar := u.progress.ViewAs(percent / 100)

	phase := "uploading"
	if percent >= 50 {
		phase = "extracting"
	}

	label := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(11).
		Render(phase)

	percentStr := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(5).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))

	return lipgloss.JoinHorizontal(lipgloss.Center, label, " ", bar, " ", percentStr)
}
