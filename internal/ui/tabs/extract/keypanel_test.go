package extract

import (
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/snapnote/snapnote-tui/internal/app"
)

func ctrlKey(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func openPanel(t *testing.T, rt *mockRoundTripper, hasKey bool) *KeyPanel {
	t.Helper()
	m, state := newTestModel(t, rt)
	signIn(state)
	m.keyPanel.OpenWith(hasKey, state.GetSession())
	if !m.keyPanel.Open() {
		t.Fatal("panel should be open")
	}
	return m.keyPanel
}

func TestKeyPanel_OpenRequiresSession(t *testing.T) {
	rt := &mockRoundTripper{}
	m, _ := newTestModel(t, rt)

	cmd := m.keyPanel.OpenWith(false, nil)
	if m.keyPanel.Open() {
		t.Error("panel must not open without a session")
	}
	notif, ok := cmd().(app.AddNotificationMsg)
	if !ok || notif.Type != app.NotificationError {
		t.Fatalf("msg = %+v, want an error notification", notif)
	}
}

func TestKeyPanel_SaveEmpty(t *testing.T) {
	rt := &mockRoundTripper{}
	panel := openPanel(t, rt, false)

	if cmd := panel.HandleKey(ctrlKey(tea.KeyCtrlS)); cmd != nil {
		t.Error("empty save must not produce a command")
	}
	if panel.errMsg == "" {
		t.Error("empty save should surface an error")
	}
	if rt.calls != 0 {
		t.Errorf("network calls = %d, want 0", rt.calls)
	}
}

func TestKeyPanel_SaveMalformedJSON(t *testing.T) {
	rt := &mockRoundTripper{}
	panel := openPanel(t, rt, false)
	panel.input.SetValue(`{"type": "service_account"`)

	if cmd := panel.HandleKey(ctrlKey(tea.KeyCtrlS)); cmd != nil {
		t.Error("malformed save must not produce a command")
	}
	if panel.state != panelEditing {
		t.Errorf("state = %d, want editing", panel.state)
	}
	if panel.errMsg == "" {
		t.Error("malformed save should surface an error")
	}
	if panel.input.Value() == "" {
		t.Error("pasted input must be preserved for correction")
	}
	if rt.calls != 0 {
		t.Errorf("network calls = %d, want 0 (document must not leave the machine)", rt.calls)
	}
}

func TestKeyPanel_SaveSuccess(t *testing.T) {
	rt := &mockRoundTripper{fn: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success":true}`), nil
	}}
	panel := openPanel(t, rt, false)
	panel.input.SetValue(`{"type":"service_account","project_id":"p"}`)

	cmd := panel.HandleKey(ctrlKey(tea.KeyCtrlS))
	if cmd == nil {
		t.Fatal("valid save should produce a command")
	}
	if panel.state != panelSaving {
		t.Errorf("state = %d, want saving", panel.state)
	}

	result, ok := cmd().(keySaveResultMsg)
	if !ok {
		t.Fatalf("msg = %T, want keySaveResultMsg", cmd())
	}
	if result.err != nil {
		t.Fatalf("save error: %v", result.err)
	}

	panel.Update(result)
	if panel.state != panelEditing {
		t.Errorf("state = %d, want editing after success", panel.state)
	}
	if !panel.hasKey {
		t.Error("hasKey should flip after a save")
	}
	if panel.infoMsg == "" {
		t.Error("success should show a confirmation")
	}
}

func TestKeyPanel_SaveFailureKeepsPanel(t *testing.T) {
	rt := &mockRoundTripper{fn: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success":false,"message":"bad key"}`), nil
	}}
	panel := openPanel(t, rt, false)
	panel.input.SetValue(`{"type":"service_account"}`)

	cmd := panel.HandleKey(ctrlKey(tea.KeyCtrlS))
	result := cmd().(keySaveResultMsg)
	if result.err == nil {
		t.Fatal("refused save should carry an error")
	}

	panel.Update(result)
	if panel.state != panelEditing {
		t.Errorf("state = %d, want editing for retry", panel.state)
	}
	if panel.hasKey {
		t.Error("hasKey must not flip on failure")
	}
	if panel.errMsg == "" {
		t.Error("failure should surface an error")
	}
}

func TestKeyPanel_StaleSaveResultIgnored(t *testing.T) {
	rt := &mockRoundTripper{fn: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success":true}`), nil
	}}
	panel := openPanel(t, rt, false)
	panel.input.SetValue(`{"type":"service_account"}`)

	cmd := panel.HandleKey(ctrlKey(tea.KeyCtrlS))
	result := cmd().(keySaveResultMsg)

	// Panel closed before the result arrives
	panel.Close()
	panel.Update(result)

	if panel.Open() {
		t.Error("stale save result must not reopen the panel")
	}
}

func TestKeyPanel_EscCloses(t *testing.T) {
	rt := &mockRoundTripper{}
	panel := openPanel(t, rt, false)

	panel.HandleKey(ctrlKey(tea.KeyEsc))
	if panel.Open() {
		t.Error("esc should close the panel")
	}
}

func TestKeyPanel_RemoveConfirmReversible(t *testing.T) {
	rt := &mockRoundTripper{}
	panel := openPanel(t, rt, true)

	panel.HandleKey(ctrlKey(tea.KeyCtrlD))
	if panel.state != panelConfirmRemove {
		t.Fatalf("state = %d, want confirm", panel.state)
	}

	panel.HandleKey(runeKey('n'))
	if panel.state != panelEditing {
		t.Errorf("state = %d, want editing after declining", panel.state)
	}
	if rt.calls != 0 {
		t.Errorf("network calls = %d, want 0", rt.calls)
	}
}

func TestKeyPanel_RemoveWithoutKey(t *testing.T) {
	rt := &mockRoundTripper{}
	panel := openPanel(t, rt, false)

	panel.HandleKey(ctrlKey(tea.KeyCtrlD))
	if panel.state != panelEditing {
		t.Error("ctrl+d without a stored key must be a no-op")
	}
}

func TestKeyPanel_RemoveSuccess(t *testing.T) {
	rt := &mockRoundTripper{fn: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success":true}`), nil
	}}
	panel := openPanel(t, rt, true)

	panel.HandleKey(ctrlKey(tea.KeyCtrlD))
	cmd := panel.HandleKey(runeKey('y'))
	if cmd == nil {
		t.Fatal("confirming removal should produce a command")
	}
	if panel.state != panelRemoving {
		t.Errorf("state = %d, want removing", panel.state)
	}

	result := cmd().(keyRemoveResultMsg)
	panel.Update(result)

	if panel.hasKey {
		t.Error("hasKey should clear after removal")
	}
	if panel.state != panelEditing {
		t.Errorf("state = %d, want editing", panel.state)
	}
}

func TestKeyPanel_AutoClose(t *testing.T) {
	rt := &mockRoundTripper{fn: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success":true}`), nil
	}}
	panel := openPanel(t, rt, false)
	panel.input.SetValue(`{"type":"service_account"}`)

	cmd := panel.HandleKey(ctrlKey(tea.KeyCtrlS))
	panel.Update(cmd().(keySaveResultMsg))

	// A stale timer from an earlier interaction fires first
	panel.Update(panelAutoCloseMsg{seq: panel.seq - 1})
	if !panel.Open() {
		t.Error("stale auto-close must be ignored")
	}

	panel.Update(panelAutoCloseMsg{seq: panel.seq})
	if panel.Open() {
		t.Error("auto-close should close the panel")
	}
}

func TestKeyPanel_ReopenResetsState(t *testing.T) {
	rt := &mockRoundTripper{}
	m, state := newTestModel(t, rt)
	signIn(state)

	m.keyPanel.OpenWith(false, state.GetSession())
	m.keyPanel.input.SetValue("draft")
	m.keyPanel.errMsg = "old error"
	m.keyPanel.Close()

	m.keyPanel.OpenWith(false, state.GetSession())
	if m.keyPanel.input.Value() != "" {
		t.Error("reopening should clear the previous draft")
	}
	if m.keyPanel.errMsg != "" {
		t.Error("reopening should clear the previous error")
	}
}
