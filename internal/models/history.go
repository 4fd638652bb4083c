package models

import "time"

// ExtractionRecord is a locally persisted row describing one finished
// extraction attempt (DB model).
type ExtractionRecord struct {
	ID         int64
	RequestID  string
	Timestamp  time.Time
	ImageName  string
	ByteSize   int64
	CharCount  int
	DurationMs int64
	Status     string
	Error      string
}

// DailyCount is one bucket of the history activity chart.
type DailyCount struct {
	Day   time.Time
	Count int
}
