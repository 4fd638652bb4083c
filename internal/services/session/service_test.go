package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSessionFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write session file: %v", err)
	}
}

func TestNew_MissingFileIsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	svc, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer func() { _ = svc.Close() }()

	if svc.SignedIn() {
		t.Error("missing session file should mean signed out")
	}
	if svc.Get() != nil {
		t.Error("Get should return nil when signed out")
	}
}

func TestNew_LoadsExistingSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSessionFile(t, path, `{"token":"tok-123","email":"a@example.com","name":"Ada"}`)

	svc, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer func() { _ = svc.Close() }()

	sess := svc.Get()
	if sess == nil {
		t.Fatal("Get returned nil for a valid session file")
	}
	if sess.Token != "tok-123" || sess.Email != "a@example.com" {
		t.Errorf("session = %+v", sess)
	}
}

func TestNew_CorruptFileIsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSessionFile(t, path, "{not json")

	svc, err := New(path)
	if err != nil {
		t.Fatalf("New should tolerate a corrupt file, got: %v", err)
	}
	defer func() { _ = svc.Close() }()

	if svc.SignedIn() {
		t.Error("corrupt session file should mean signed out")
	}
}

func TestNew_EmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New with empty path should fail")
	}
}

func TestSignOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSessionFile(t, path, `{"token":"tok-123","email":"a@example.com"}`)

	svc, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer func() { _ = svc.Close() }()

	if err := svc.SignOut(); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}
	if svc.SignedIn() {
		t.Error("should be signed out immediately after SignOut")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file should be removed")
	}

	select {
	case event := <-svc.Events():
		if event.Type != EventSignedOut {
			t.Errorf("event type = %d, want EventSignedOut", event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sign-out event")
	}
}

func TestSignOut_AlreadySignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	svc, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer func() { _ = svc.Close() }()

	if err := svc.SignOut(); err != nil {
		t.Fatalf("SignOut on a missing file should succeed, got: %v", err)
	}

	select {
	case event := <-svc.Events():
		t.Errorf("no event expected, got %+v", event)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_PicksUpSignIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	svc, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer func() { _ = svc.Close() }()

	writeSessionFile(t, path, `{"token":"tok-456","email":"b@example.com"}`)

	select {
	case event := <-svc.Events():
		if event.Type != EventSignedIn {
			t.Fatalf("event type = %d, want EventSignedIn", event.Type)
		}
		if event.Session == nil || event.Session.Token != "tok-456" {
			t.Errorf("event session = %+v", event.Session)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sign-in event")
	}

	if !svc.SignedIn() {
		t.Error("service should report signed in after the file appears")
	}
}

func TestClose_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	svc, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := svc.Close(); err != nil {
		t.Errorf("first Close error: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
}
