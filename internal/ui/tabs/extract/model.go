// Package extract implements the image-to-text tab: image selection, the
// extraction round trip with live progress, and the result actions.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/snapnote/snapnote-tui/internal/api"
	"github.com/snapnote/snapnote-tui/internal/app"
	"github.com/snapnote/snapnote-tui/internal/config"
	"github.com/snapnote/snapnote-tui/internal/export"
	"github.com/snapnote/snapnote-tui/internal/models"
	"github.com/snapnote/snapnote-tui/internal/services"
	"github.com/snapnote/snapnote-tui/internal/ui/components"
)

const (
	// maxImageBytes caps uploads before any network activity.
	maxImageBytes = 10 << 20

	// copiedFlashDuration is how long the "Copied!" indicator shows.
	copiedFlashDuration = 2 * time.Second
)

var acceptedExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

type (
	// imageSelectedMsg carries a loaded image, or the load failure.
	imageSelectedMsg struct {
		path    string
		data    []byte
		preview *models.ImagePreview
		err     error
	}

	// extractEventMsg is one event from the extraction goroutine. Progress
	// events carry only a percentage; the final event has done set and
	// either a result or an error.
	extractEventMsg struct {
		jobID    int64
		progress float64
		result   *api.ExtractResult
		err      error
		done     bool
	}

	// copyResultMsg is the outcome of a clipboard write.
	copyResultMsg struct {
		jobID int64
		err   error
	}

	// copiedExpiredMsg reverts the "Copied!" indicator.
	copiedExpiredMsg struct {
		seq int
	}

	// saveResultMsg is the outcome of saving the transcript to disk.
	saveResultMsg struct {
		path string
		err  error
	}
)

// keyMap defines the key bindings specific to the extract tab.
type keyMap struct {
	Open   key.Binding
	Submit key.Binding
	Copy   key.Binding
	Save   key.Binding
	Clear  key.Binding
	APIKey key.Binding
	Up     key.Binding
	Down   key.Binding
	Escape key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Open:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open image")),
		Submit: key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "extract text")),
		Copy:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy text")),
		Save:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save to file")),
		Clear:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear image")),
		APIKey: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "api key")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
		Escape: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// Model represents the extract tab state.
type Model struct {
	state *app.AppState
	mgr   *services.Manager
	cfg   *config.Config

	keys      keyMap
	spinner   components.LoadingSpinner
	uploadBar components.UploadBar
	textView  viewport.Model

	picker  filepicker.Model
	picking bool

	keyPanel *KeyPanel

	job       *models.ExtractionJob
	jobSeq    int64
	events    chan extractEventMsg
	cancel    context.CancelFunc
	requestID string

	copied    bool
	copiedSeq int

	width  int
	height int
}

// New creates a new extract tab model.
func New(state *app.AppState, mgr *services.Manager, cfg *config.Config) *Model {
	return &Model{
		state:     state,
		mgr:       mgr,
		cfg:       cfg,
		keys:      defaultKeyMap(),
		spinner:   components.NewSpinner("Extracting text..."),
		uploadBar: components.NewUploadBar(),
		textView:  viewport.New(0, 0),
		keyPanel:  NewKeyPanel(mgr),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// CapturingInput reports whether the tab has taken over the keyboard.
func (m *Model) CapturingInput() bool {
	return m.picking || m.keyPanel.Open()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case imageSelectedMsg:
		cmds = append(cmds, m.handleImageSelected(msg))

	case extractEventMsg:
		cmds = append(cmds, m.handleExtractEvent(msg))

	case copyResultMsg:
		cmds = append(cmds, m.handleCopyResult(msg))

	case copiedExpiredMsg:
		if msg.seq == m.copiedSeq {
			m.copied = false
		}

	case saveResultMsg:
		cmds = append(cmds, m.handleSaveResult(msg))

	case keySaveResultMsg, keyRemoveResultMsg, panelAutoCloseMsg:
		cmds = append(cmds, m.keyPanel.Update(msg))

	case app.SessionChangedMsg:
		if msg.Session == nil {
			m.handleSignedOut()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	default:
		if m.picking {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.keyPanel.Open() {
		return m.keyPanel.HandleKey(msg)
	}

	if m.picking {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Open):
		return m.openPicker()

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Copy):
		return m.copyText()

	case key.Matches(msg, m.keys.Save):
		return m.saveText()

	case key.Matches(msg, m.keys.Clear):
		m.clearJob()
		return nil

	case key.Matches(msg, m.keys.APIKey):
		return m.openKeyPanel()

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.textView, cmd = m.textView.Update(msg)
		return cmd
	}

	return nil
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Escape) {
		m.picking = false
		return nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if selected, path := m.picker.DidSelectFile(msg); selected {
		m.picking = false
		return tea.Batch(cmd, loadImageCmd(path))
	}
	if disabled, path := m.picker.DidSelectDisabledFile(msg); disabled {
		return tea.Batch(cmd, func() tea.Msg {
			return imageSelectedMsg{path: path, err: fmt.Errorf("%s is not a supported image", filepath.Base(path))}
		})
	}

	return cmd
}

// openPicker starts file selection. The current job, settled or not, stays
// on screen until a file is actually chosen.
func (m *Model) openPicker() tea.Cmd {
	picker := filepicker.New()
	picker.AllowedTypes = acceptedExtensions
	picker.DirAllowed = false
	picker.FileAllowed = true
	picker.Height = max(m.height-8, 5)

	if home, err := os.UserHomeDir(); err == nil {
		picker.CurrentDirectory = home
	}

	m.picker = picker
	m.picking = true

	return m.picker.Init()
}

// loadImageCmd reads the chosen file and derives its preview off the Update loop.
func loadImageCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return imageSelectedMsg{path: path, err: fmt.Errorf("failed to read image: %w", err)}
		}
		if len(data) > maxImageBytes {
			return imageSelectedMsg{path: path, err: fmt.Errorf("%s exceeds the %d MB limit", filepath.Base(path), maxImageBytes>>20)}
		}
		return imageSelectedMsg{
			path:    path,
			data:    data,
			preview: components.BuildPreview(data),
		}
	}
}

// handleImageSelected replaces the current job with a fresh idle one. An
// in-flight extraction for the old image is cancelled and its result dropped.
func (m *Model) handleImageSelected(msg imageSelectedMsg) tea.Cmd {
	if msg.err != nil {
		return notifyError(msg.err.Error())
	}

	m.dropInFlight()

	m.jobSeq++
	m.job = &models.ExtractionJob{
		ID:        m.jobSeq,
		ImagePath: msg.path,
		ImageName: filepath.Base(msg.path),
		Data:      msg.data,
		Preview:   msg.preview,
		Status:    models.JobIdle,
	}
	m.copied = false
	m.textView.SetContent("")

	return nil
}

// submit starts the extraction round trip. Duplicate submissions while a
// request is outstanding are ignored.
func (m *Model) submit() tea.Cmd {
	if m.job == nil {
		return notifyError("Select an image first")
	}
	if m.job.Status.InFlight() {
		return nil
	}

	sess := m.state.GetSession()
	if !sess.SignedIn() {
		return notifyError("Sign in required. Run snapnote-login to authenticate.")
	}

	if usage := m.state.GetUsage(); usage != nil && usage.Metered() && usage.RemainingUses == 0 {
		return tea.Batch(
			notifyWarning("Free usage limit reached. Add your own API key to continue."),
			m.openKeyPanel(),
		)
	}

	m.job.Status = models.JobUploading
	m.job.Progress = 0
	m.job.ExtractedText = ""
	m.job.FailReason = models.FailureNone
	m.job.ErrMessage = ""
	m.job.StartedAt = time.Now()
	m.requestID = uuid.NewString()
	m.copied = false

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	ch := make(chan extractEventMsg, 16)
	m.events = ch

	go runExtract(ctx, m.mgr.API(), sess.Token, m.job.ID, m.job.ImageName, m.job.Data, ch)

	return tea.Batch(waitExtractCmd(ch), m.spinner.Tick())
}

// runExtract performs the blocking network call. Progress sends are
// non-blocking so a slow Update loop only coarsens the bar; the final event
// is buffered and the channel is closed after it.
func runExtract(ctx context.Context, client *api.Client, token string, jobID int64, name string, data []byte, ch chan<- extractEventMsg) {
	onProgress := func(pct float64) {
		select {
		case ch <- extractEventMsg{jobID: jobID, progress: pct}:
		default:
		}
	}

	result, err := client.ExtractText(ctx, token, name, data, onProgress)
	ch <- extractEventMsg{jobID: jobID, result: result, err: err, done: true}
	close(ch)
}

// waitExtractCmd receives the next extraction event. It is re-issued after
// every event until the channel closes.
func waitExtractCmd(ch <-chan extractEventMsg) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

func (m *Model) handleExtractEvent(msg extractEventMsg) tea.Cmd {
	// Events from a replaced job are drained but never applied.
	if m.job == nil || msg.jobID != m.job.ID {
		if !msg.done && m.events != nil {
			return waitExtractCmd(m.events)
		}
		return nil
	}

	if !msg.done {
		m.job.Progress = msg.progress
		if msg.progress >= 50 {
			m.job.Status = models.JobAwaitingResult
		}
		return waitExtractCmd(m.events)
	}

	m.events = nil
	m.cancel = nil

	if msg.err != nil {
		return m.finishFailed(msg.err)
	}
	return m.finishSucceeded(msg.result)
}

func (m *Model) finishSucceeded(result *api.ExtractResult) tea.Cmd {
	m.job.Status = models.JobSucceeded
	m.job.Progress = 100
	m.job.ExtractedText = result.Text
	m.textView.SetContent(result.Text)
	m.textView.GotoTop()

	serverRemaining := -1
	if result.HasRemaining {
		serverRemaining = result.RemainingUses
	}
	m.mgr.Quota().ApplyOptimisticSuccess(serverRemaining)

	m.recordHistory("succeeded", "")
	m.mgr.NotifyExtractionDone(m.job.ImageName, true)

	return notifySuccess(fmt.Sprintf("Extracted %d characters from %s", len(result.Text), m.job.ImageName))
}

func (m *Model) finishFailed(err error) tea.Cmd {
	m.job.Status = models.JobFailed

	switch {
	case errors.Is(err, api.ErrQuotaExceeded):
		m.job.FailReason = models.FailureQuotaExceeded
		m.job.ErrMessage = "Free usage limit reached"
	case errors.Is(err, api.ErrUnauthorized):
		m.job.FailReason = models.FailureGeneric
		m.job.ErrMessage = "Session rejected. Sign in again."
	default:
		m.job.FailReason = models.FailureGeneric
		m.job.ErrMessage = err.Error()
	}

	m.recordHistory("failed", m.job.ErrMessage)
	m.mgr.NotifyExtractionDone(m.job.ImageName, false)

	if m.job.FailReason == models.FailureQuotaExceeded {
		// The server is authoritative; resync the local counter too.
		return tea.Batch(
			notifyWarning("Free usage limit reached. Add your own API key to continue."),
			m.openKeyPanel(),
			func() tea.Msg { return app.RefreshQuotaMsg{} },
		)
	}

	return notifyError(fmt.Sprintf("Extraction failed: %s", m.job.ErrMessage))
}

func (m *Model) recordHistory(status, errText string) {
	rec := &models.ExtractionRecord{
		RequestID:  m.requestID,
		ImageName:  m.job.ImageName,
		ByteSize:   int64(len(m.job.Data)),
		CharCount:  len(m.job.ExtractedText),
		DurationMs: time.Since(m.job.StartedAt).Milliseconds(),
		Status:     status,
		Error:      errText,
	}
	m.mgr.RecordExtraction(rec)
}

func (m *Model) copyText() tea.Cmd {
	if m.job == nil || m.job.Status != models.JobSucceeded {
		return nil
	}

	jobID := m.job.ID
	text := m.job.ExtractedText
	return func() tea.Msg {
		return copyResultMsg{jobID: jobID, err: export.CopyToClipboard(text)}
	}
}

func (m *Model) handleCopyResult(msg copyResultMsg) tea.Cmd {
	if m.job == nil || msg.jobID != m.job.ID {
		return nil
	}
	if msg.err != nil {
		return notifyError(msg.err.Error())
	}

	m.copied = true
	m.copiedSeq++
	seq := m.copiedSeq

	return tea.Tick(copiedFlashDuration, func(_ time.Time) tea.Msg {
		return copiedExpiredMsg{seq: seq}
	})
}

func (m *Model) saveText() tea.Cmd {
	if m.job == nil || m.job.Status != models.JobSucceeded {
		return nil
	}

	text := m.job.ExtractedText
	dir := m.cfg.DownloadDir
	return func() tea.Msg {
		path, err := export.SaveTranscript(text, dir, export.DefaultFilename)
		return saveResultMsg{path: path, err: err}
	}
}

func (m *Model) handleSaveResult(msg saveResultMsg) tea.Cmd {
	if msg.err != nil {
		return notifyError(fmt.Sprintf("Save failed: %v", msg.err))
	}
	return notifySuccess(fmt.Sprintf("Saved to %s", msg.path))
}

// clearJob discards the selected image and any settled result. An in-flight
// request is cancelled and its completion dropped.
func (m *Model) clearJob() {
	m.dropInFlight()
	m.job = nil
	m.copied = false
	m.textView.SetContent("")
}

// dropInFlight cancels the outstanding request, if any, and drains its
// channel so the goroutine's final send never blocks.
func (m *Model) dropInFlight() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.events != nil {
		go func(ch <-chan extractEventMsg) {
			for range ch {
			}
		}(m.events)
		m.events = nil
	}
}

// handleSignedOut resets everything account-scoped: the job, the picker,
// and the credential panel.
func (m *Model) handleSignedOut() {
	m.dropInFlight()
	m.job = nil
	m.copied = false
	m.picking = false
	m.textView.SetContent("")
	m.keyPanel.Close()
}

func (m *Model) openKeyPanel() tea.Cmd {
	usage := m.state.GetUsage()
	return m.keyPanel.OpenWith(usage != nil && usage.HasCustomKey, m.state.GetSession())
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.textView.Width = max(width-8, 20)
	m.textView.Height = max(height-16, 4)
	m.uploadBar.SetWidth(max(width-30, 20))
	m.keyPanel.SetSize(width, height)
	if m.picking {
		m.picker.Height = max(height-8, 5)
	}
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Open,
		m.keys.Submit,
		m.keys.Copy,
		m.keys.Save,
		m.keys.APIKey,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Open, m.keys.Submit, m.keys.Clear},
		{m.keys.Copy, m.keys.Save},
		{m.keys.APIKey, m.keys.Up, m.keys.Down},
	}
}

func notifySuccess(message string) tea.Cmd {
	return func() tea.Msg {
		return app.AddNotificationMsg{
			Type:     app.NotificationSuccess,
			Message:  message,
			Duration: app.DefaultNotificationDuration,
		}
	}
}

func notifyError(message string) tea.Cmd {
	return func() tea.Msg {
		return app.AddNotificationMsg{
			Type:     app.NotificationError,
			Message:  message,
			Duration: app.LongNotificationDuration,
		}
	}
}

func notifyWarning(message string) tea.Cmd {
	return func() tea.Msg {
		return app.AddNotificationMsg{
			Type:     app.NotificationWarning,
			Message:  message,
			Duration: app.DefaultNotificationDuration,
		}
	}
}

func trimForDisplay(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
