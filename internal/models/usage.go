package models

import "time"

// UsageStats is the account's usage standing as reported by the backend.
// RemainingUses is not authoritative while HasCustomKey is set: a custom
// service-account key makes the account unmetered.
type UsageStats struct {
	RemainingUses int       `json:"remaining_uses"`
	HasCustomKey  bool      `json:"has_custom_key"`
	APIUsageCount int       `json:"api_usage_count"`
	FetchedAt     time.Time `json:"-"`
}

// AfterSuccess returns the stats as they should read immediately after a
// successful extraction, without waiting for a server round trip. The call
// count always increments; the free-use counter only decrements for metered
// accounts and never goes below zero.
func (s UsageStats) AfterSuccess() UsageStats {
	next := s
	next.APIUsageCount++
	if !s.HasCustomKey && next.RemainingUses > 0 {
		next.RemainingUses--
	}
	if next.RemainingUses < 0 {
		next.RemainingUses = 0
	}
	return next
}

// Metered reports whether extractions consume the free allowance.
func (s UsageStats) Metered() bool {
	return !s.HasCustomKey
}
