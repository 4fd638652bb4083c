package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrQuotaExceeded is the backend's distinguished refusal meaning the
	// free allowance is spent. Callers route it to the API key panel rather
	// than a plain error message.
	ErrQuotaExceeded = errors.New("free usage limit reached")

	// ErrUnauthorized means the bearer token was rejected.
	ErrUnauthorized = errors.New("bearer token rejected")
)

// statusError maps non-200 responses onto the error taxonomy. The 403 status
// is the quota-exhaustion signal and must stay distinguishable from generic
// failures.
func statusError(code int, body []byte) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusForbidden:
		return ErrQuotaExceeded
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("backend error (status %d): %s", code, truncateBody(body))
	}
}

func truncateBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
