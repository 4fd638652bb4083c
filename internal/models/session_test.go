package models

import "testing"

func TestSession_SignedIn(t *testing.T) {
	var nilSession *Session
	if nilSession.SignedIn() {
		t.Error("nil session should not be signed in")
	}
	if (&Session{}).SignedIn() {
		t.Error("session without a token should not be signed in")
	}
	if !(&Session{Token: "tok"}).SignedIn() {
		t.Error("session with a token should be signed in")
	}
}

func TestSession_DisplayName(t *testing.T) {
	var nilSession *Session
	if got := nilSession.DisplayName(); got != "" {
		t.Errorf("DisplayName on nil = %q, want empty", got)
	}

	s := &Session{Token: "tok", Email: "a@example.com", Name: "Ada"}
	if got := s.DisplayName(); got != "Ada" {
		t.Errorf("DisplayName = %q, want Ada", got)
	}

	s.Name = ""
	if got := s.DisplayName(); got != "a@example.com" {
		t.Errorf("DisplayName = %q, want a@example.com", got)
	}
}
