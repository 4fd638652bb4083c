package extract

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/snapnote/snapnote-tui/internal/app"
	"github.com/snapnote/snapnote-tui/internal/config"
	"github.com/snapnote/snapnote-tui/internal/models"
	"github.com/snapnote/snapnote-tui/internal/services"
)

type mockRoundTripper struct {
	fn    func(*http.Request) (*http.Response, error)
	calls int
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.calls++
	return m.fn(req)
}

func jsonResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode:    code,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Header:        http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestModel(t *testing.T, rt *mockRoundTripper) (*Model, *app.AppState) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		APIBaseURL:     "http://backend.test",
		SessionPath:    filepath.Join(dir, "session.json"),
		DatabasePath:   filepath.Join(dir, "history.db"),
		DownloadDir:    dir,
		RequestTimeout: 5 * time.Second,
	}

	mgr, err := services.NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	mgr.API().SetTransport(rt)

	state := app.NewAppState()
	m := New(state, mgr, cfg)
	m.SetSize(100, 40)
	return m, state
}

func signIn(state *app.AppState) {
	state.SetSession(&models.Session{Token: "tok", Email: "a@example.com"})
}

func selectImage(m *Model) {
	m.Update(imageSelectedMsg{
		path:    "/tmp/note.png",
		data:    []byte("fake image bytes"),
		preview: &models.ImagePreview{ByteSize: 16},
	})
}

// runJob drives the extraction loop to completion the way the program's
// Update cycle would, feeding every channel event back into the model.
func runJob(t *testing.T, m *Model) {
	t.Helper()

	if m.events == nil {
		t.Fatal("no extraction in flight")
	}
	ch := m.events
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			m.Update(event)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for extraction events")
		}
	}
}

func TestSubmit_RequiresImage(t *testing.T) {
	rt := &mockRoundTripper{}
	m, state := newTestModel(t, rt)
	signIn(state)

	cmd := m.submit()
	if cmd == nil {
		t.Fatal("expected a notification command")
	}
	notif, ok := cmd().(app.AddNotificationMsg)
	if !ok || notif.Type != app.NotificationError {
		t.Fatalf("msg = %+v, want an error notification", notif)
	}
	if rt.calls != 0 {
		t.Errorf("network calls = %d, want 0", rt.calls)
	}
}

func TestSubmit_RequiresSession(t *testing.T) {
	rt := &mockRoundTripper{}
	m, _ := newTestModel(t, rt)
	selectImage(m)

	cmd := m.submit()
	if cmd == nil {
		t.Fatal("expected a notification command")
	}
	notif, ok := cmd().(app.AddNotificationMsg)
	if !ok || !strings.Contains(notif.Message, "Sign in required") {
		t.Fatalf("msg = %+v, want a sign-in notification", notif)
	}
	if rt.calls != 0 {
		t.Errorf("network calls = %d, want 0", rt.calls)
	}
}

func TestSubmit_ExhaustedQuotaOpensKeyPanel(t *testing.T) {
	rt := &mockRoundTripper{}
	m, state := newTestModel(t, rt)
	signIn(state)
	state.SetUsage(&models.UsageStats{RemainingUses: 0})
	selectImage(m)

	cmd := m.submit()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if !m.keyPanel.Open() {
		t.Error("key panel should open when the free allowance is spent")
	}
	if m.job.Status != models.JobIdle {
		t.Errorf("job status = %v, want idle (no request started)", m.job.Status)
	}
	if rt.calls != 0 {
		t.Errorf("network calls = %d, want 0", rt.calls)
	}
}

func TestSubmit_DuplicateIgnored(t *testing.T) {
	rt := &mockRoundTripper{}
	m, state := newTestModel(t, rt)
	signIn(state)
	selectImage(m)
	m.job.Status = models.JobUploading

	if cmd := m.submit(); cmd != nil {
		t.Error("submit while in flight must be a no-op")
	}
	if rt.calls != 0 {
		t.Errorf("network calls = %d, want 0", rt.calls)
	}
}

func TestSubmit_Success(t *testing.T) {
	rt := &mockRoundTripper{fn: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"text":"Hello World","remaining_uses":4}`), nil
	}}
	m, state := newTestModel(t, rt)
	signIn(state)
	state.SetUsage(&models.UsageStats{RemainingUses: 5})
	selectImage(m)

	if cmd := m.submit(); cmd == nil {
		t.Fatal("submit should return a command")
	}
	if m.job.Status != models.JobUploading {
		t.Errorf("status = %v, want uploading", m.job.Status)
	}

	runJob(t, m)

	if m.job.Status != models.JobSucceeded {
		t.Fatalf("status = %v, want succeeded (err: %s)", m.job.Status, m.job.ErrMessage)
	}
	if m.job.ExtractedText != "Hello World" {
		t.Errorf("text = %q, want Hello World", m.job.ExtractedText)
	}
	if rt.calls != 1 {
		t.Errorf("network calls = %d, want 1", rt.calls)
	}

	count, err := m.mgr.DB().CountExtractions()
	if err != nil {
		t.Fatalf("CountExtractions error: %v", err)
	}
	if count != 1 {
		t.Errorf("history count = %d, want 1", count)
	}
}

func TestSubmit_QuotaExceededFailure(t *testing.T) {
	rt := &mockRoundTripper{fn: func(*http.Request) (*http.Response, error) {
		return jsonResponse(403, `{"error":"free usage exhausted"}`), nil
	}}
	m, state := newTestModel(t, rt)
	signIn(state)
	selectImage(m)

	if cmd := m.submit(); cmd == nil {
		t.Fatal("submit should return a command")
	}
	runJob(t, m)

	if m.job.Status != models.JobFailed {
		t.Fatalf("status = %v, want failed", m.job.Status)
	}
	if m.job.FailReason != models.FailureQuotaExceeded {
		t.Errorf("fail reason = %v, want quota exceeded", m.job.FailReason)
	}
	if !m.keyPanel.Open() {
		t.Error("key panel should open after a quota rejection")
	}
}

func TestHandleImageSelected_Error(t *testing.T) {
	rt := &mockRoundTripper{}
	m, _ := newTestModel(t, rt)

	_, cmd := m.Update(imageSelectedMsg{path: "/tmp/big.png", err: io.ErrUnexpectedEOF})
	if cmd == nil {
		t.Fatal("expected a notification command")
	}
	if m.job != nil {
		t.Error("a failed load must not replace the job")
	}
}

func TestHandleImageSelected_ReplacesJob(t *testing.T) {
	rt := &mockRoundTripper{}
	m, _ := newTestModel(t, rt)

	selectImage(m)
	firstID := m.job.ID

	m.Update(imageSelectedMsg{path: "/tmp/other.png", data: []byte("x"), preview: &models.ImagePreview{ByteSize: 1}})
	if m.job.ID == firstID {
		t.Error("selecting a new image must produce a fresh job")
	}
	if m.job.ImageName != "other.png" {
		t.Errorf("image name = %s, want other.png", m.job.ImageName)
	}
}

func TestStaleExtractEventIgnored(t *testing.T) {
	rt := &mockRoundTripper{}
	m, _ := newTestModel(t, rt)
	selectImage(m)

	m.Update(extractEventMsg{jobID: m.job.ID - 1, progress: 75})
	if m.job.Progress != 0 {
		t.Errorf("progress = %v, want 0 (stale event must not apply)", m.job.Progress)
	}
	if m.job.Status != models.JobIdle {
		t.Errorf("status = %v, want idle", m.job.Status)
	}
}

func TestCopiedFlash_SeqGuard(t *testing.T) {
	rt := &mockRoundTripper{}
	m, _ := newTestModel(t, rt)
	selectImage(m)
	m.job.Status = models.JobSucceeded
	m.job.ExtractedText = "text"

	m.Update(copyResultMsg{jobID: m.job.ID})
	if !m.copied {
		t.Fatal("copied flag should be set")
	}

	m.Update(copiedExpiredMsg{seq: m.copiedSeq - 1})
	if !m.copied {
		t.Error("stale expiry must not clear the flag")
	}

	m.Update(copiedExpiredMsg{seq: m.copiedSeq})
	if m.copied {
		t.Error("matching expiry should clear the flag")
	}
}

func TestSignOut_ResetsTab(t *testing.T) {
	rt := &mockRoundTripper{}
	m, state := newTestModel(t, rt)
	signIn(state)
	selectImage(m)
	m.keyPanel.OpenWith(false, state.GetSession())

	m.Update(app.SessionChangedMsg{Session: nil})

	if m.job != nil {
		t.Error("job should be dropped on sign-out")
	}
	if m.keyPanel.Open() {
		t.Error("key panel should close on sign-out")
	}
	if m.CapturingInput() {
		t.Error("tab should release the keyboard on sign-out")
	}
}

func TestClearJob(t *testing.T) {
	rt := &mockRoundTripper{}
	m, _ := newTestModel(t, rt)
	selectImage(m)

	m.clearJob()
	if m.job != nil {
		t.Error("clearJob should discard the job")
	}
}

func TestTrimForDisplay(t *testing.T) {
	if got := trimForDisplay("  short  ", 20); got != "short" {
		t.Errorf("got %q, want short", got)
	}
	long := strings.Repeat("a", 50)
	got := trimForDisplay(long, 20)
	if len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Errorf("got %q, want 20 chars ending in ...", got)
	}
}
