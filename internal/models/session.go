// Package models defines data structures and domain types.
package models

import "time"

// Session identifies the signed-in account. It is read from the session file
// maintained by the external sign-in helper; the bearer token inside it is
// treated as opaque.
type Session struct {
	Token    string    `json:"token"`
	Email    string    `json:"email,omitempty"`
	Name     string    `json:"name,omitempty"`
	IssuedAt time.Time `json:"issuedAt,omitempty"`
}

// SignedIn reports whether the session carries a usable bearer token.
func (s *Session) SignedIn() bool {
	return s != nil && s.Token != ""
}

// DisplayName returns the best available name for the account.
func (s *Session) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.Name != "" {
		return s.Name
	}
	if s.Email != "" {
		return s.Email
	}
	return "signed in"
}
