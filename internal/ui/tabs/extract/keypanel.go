package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/snapnote/snapnote-tui/internal/models"
	"github.com/snapnote/snapnote-tui/internal/services"
	"github.com/snapnote/snapnote-tui/internal/ui/styles"
)

// panelAutoCloseDelay is how long a success message stays up before the
// panel closes on its own.
const panelAutoCloseDelay = 2 * time.Second

type panelState int

const (
	panelClosed panelState = iota
	panelEditing
	panelSaving
	panelConfirmRemove
	panelRemoving
)

type (
	// keySaveResultMsg is the outcome of storing the credential.
	keySaveResultMsg struct {
		seq int
		err error
	}

	// keyRemoveResultMsg is the outcome of removing the stored credential.
	keyRemoveResultMsg struct {
		seq int
		err error
	}

	// panelAutoCloseMsg closes the panel after a success message has been shown.
	panelAutoCloseMsg struct {
		seq int
	}
)

// KeyPanel is the modal for managing the personal API credential: a pasted
// service-account JSON document. The raw document goes straight to the
// backend and is never logged or persisted locally.
type KeyPanel struct {
	mgr *services.Manager

	state   panelState
	input   textarea.Model
	hasKey  bool
	session *models.Session

	errMsg  string
	infoMsg string

	// seq guards delayed and asynchronous outcomes: any close or reopen
	// bumps it, so results of an abandoned interaction are ignored.
	seq int

	width  int
	height int
}

// NewKeyPanel creates a closed credential panel.
func NewKeyPanel(mgr *services.Manager) *KeyPanel {
	ta := textarea.New()
	ta.Placeholder = "Paste your service account JSON here..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(60)
	ta.SetHeight(8)

	return &KeyPanel{
		mgr:   mgr,
		input: ta,
	}
}

// Open reports whether the panel is visible.
func (p *KeyPanel) Open() bool {
	return p.state != panelClosed
}

// OpenWith shows the panel. hasKey controls whether removal is offered.
func (p *KeyPanel) OpenWith(hasKey bool, sess *models.Session) tea.Cmd {
	if !sess.SignedIn() {
		return notifyError("Sign in required to manage the API key")
	}

	p.seq++
	p.state = panelEditing
	p.hasKey = hasKey
	p.session = sess
	p.errMsg = ""
	p.infoMsg = ""
	p.input.Reset()
	p.input.Focus()

	return textarea.Blink
}

// Close hides the panel immediately, whatever state it was in. A save or
// removal already sent to the backend still completes; only its UI outcome
// is dropped.
func (p *KeyPanel) Close() {
	p.seq++
	p.state = panelClosed
	p.input.Blur()
	p.input.Reset()
	p.errMsg = ""
	p.infoMsg = ""
}

// HandleKey processes a key press while the panel is open.
func (p *KeyPanel) HandleKey(msg tea.KeyMsg) tea.Cmd {
	switch p.state {
	case panelEditing:
		return p.handleEditingKey(msg)
	case panelConfirmRemove:
		return p.handleConfirmKey(msg)
	case panelSaving, panelRemoving:
		// A request is outstanding; the panel stays put until it settles.
		return nil
	}
	return nil
}

func (p *KeyPanel) handleEditingKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		p.Close()
		return nil

	case "ctrl+s":
		return p.save()

	case "ctrl+d":
		if p.hasKey {
			p.state = panelConfirmRemove
			p.errMsg = ""
		}
		return nil
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *KeyPanel) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		return p.remove()
	case "n", "N", "esc":
		p.state = panelEditing
		return nil
	}
	return nil
}

// save validates the pasted document locally and ships it to the backend.
// A malformed document never leaves the machine and the input is preserved
// for correction.
func (p *KeyPanel) save() tea.Cmd {
	doc := strings.TrimSpace(p.input.Value())
	if doc == "" {
		p.errMsg = "Paste a service account JSON document first"
		return nil
	}
	if !json.Valid([]byte(doc)) {
		p.errMsg = "Invalid JSON. Check the pasted document and try again."
		return nil
	}

	p.state = panelSaving
	p.errMsg = ""
	seq := p.seq
	token := p.session.Token
	client := p.mgr.API()

	return func() tea.Msg {
		return keySaveResultMsg{seq: seq, err: client.SaveAPIKey(context.Background(), token, doc)}
	}
}

func (p *KeyPanel) remove() tea.Cmd {
	p.state = panelRemoving
	p.errMsg = ""
	seq := p.seq
	token := p.session.Token
	client := p.mgr.API()

	return func() tea.Msg {
		return keyRemoveResultMsg{seq: seq, err: client.ClearAPIKey(context.Background(), token)}
	}
}

// Update handles the asynchronous panel outcomes.
func (p *KeyPanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case keySaveResultMsg:
		return p.handleSaveResult(msg)
	case keyRemoveResultMsg:
		return p.handleRemoveResult(msg)
	case panelAutoCloseMsg:
		if msg.seq == p.seq && p.state == panelEditing {
			p.Close()
		}
	}
	return nil
}

func (p *KeyPanel) handleSaveResult(msg keySaveResultMsg) tea.Cmd {
	if msg.seq != p.seq || p.state != panelSaving {
		return nil
	}

	if msg.err != nil {
		p.state = panelEditing
		p.errMsg = fmt.Sprintf("Save failed: %v", msg.err)
		return nil
	}

	p.state = panelEditing
	p.hasKey = true
	p.infoMsg = "API key saved. Usage is now unmetered."
	p.input.Reset()

	return tea.Batch(p.refreshQuota(), p.scheduleAutoClose())
}

func (p *KeyPanel) handleRemoveResult(msg keyRemoveResultMsg) tea.Cmd {
	if msg.seq != p.seq || p.state != panelRemoving {
		return nil
	}

	if msg.err != nil {
		p.state = panelConfirmRemove
		p.errMsg = fmt.Sprintf("Remove failed: %v", msg.err)
		return nil
	}

	p.state = panelEditing
	p.hasKey = false
	p.infoMsg = "API key removed. Back on the free allowance."

	return tea.Batch(p.refreshQuota(), p.scheduleAutoClose())
}

// refreshQuota resyncs the usage stats after a credential mutation; the
// metered flag and the remaining count both may have flipped.
func (p *KeyPanel) refreshQuota() tea.Cmd {
	p.mgr.Quota().Invalidate()

	sess := p.session
	tracker := p.mgr.Quota()
	return func() tea.Msg {
		_, _ = tracker.Fetch(context.Background(), sess)
		return nil
	}
}

func (p *KeyPanel) scheduleAutoClose() tea.Cmd {
	seq := p.seq
	return tea.Tick(panelAutoCloseDelay, func(_ time.Time) tea.Msg {
		return panelAutoCloseMsg{seq: seq}
	})
}

// SetSize sets the available size for the panel.
func (p *KeyPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.SetWidth(min(max(width-20, 40), 72))
}

// View renders the panel.
func (p *KeyPanel) View() string {
	var lines []string

	lines = append(lines, styles.CardTitleStyle.Render("Personal API Key"))

	switch p.state {
	case panelConfirmRemove:
		lines = append(lines, "")
		lines = append(lines, styles.WarningTextStyle.Render("Remove the stored API key?"))
		lines = append(lines, styles.HelpStyle.Render("Extractions will count against the free allowance again."))
		lines = append(lines, "")
		lines = append(lines, styles.HelpStyle.Render("y: remove   n/esc: keep"))

	case panelRemoving:
		lines = append(lines, "")
		lines = append(lines, styles.InfoTextStyle.Render("Removing API key..."))

	case panelSaving:
		lines = append(lines, "")
		lines = append(lines, p.input.View())
		lines = append(lines, "")
		lines = append(lines, styles.InfoTextStyle.Render("Saving API key..."))

	default:
		if p.hasKey {
			lines = append(lines, styles.SuccessTextStyle.Render("A personal key is active. Paste a new one to replace it."))
		} else {
			lines = append(lines, styles.HelpStyle.Render("Paste a Google Cloud service account JSON document."))
		}
		lines = append(lines, "")
		lines = append(lines, p.input.View())
		lines = append(lines, "")

		hints := "ctrl+s: save   esc: close"
		if p.hasKey {
			hints = "ctrl+s: save   ctrl+d: remove   esc: close"
		}
		lines = append(lines, styles.HelpStyle.Render(hints))
	}

	if p.errMsg != "" {
		lines = append(lines, "")
		lines = append(lines, styles.ErrorTextStyle.Render(p.errMsg))
	}
	if p.infoMsg != "" {
		lines = append(lines, "")
		lines = append(lines, styles.SuccessTextStyle.Render(p.infoMsg))
	}

	return styles.ModalContentStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
