package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/snapnote/snapnote-tui/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestInsertExtraction_RoundTrip(t *testing.T) {
	database := newTestDB(t)

	rec := &models.ExtractionRecord{
		RequestID:  "req-1",
		Timestamp:  time.Date(2026, 8, 30, 10, 30, 0, 0, time.Local),
		ImageName:  "note.png",
		ByteSize:   2048,
		CharCount:  120,
		DurationMs: 850,
		Status:     "succeeded",
	}
	if err := database.InsertExtraction(rec); err != nil {
		t.Fatalf("InsertExtraction error: %v", err)
	}
	if rec.ID == 0 {
		t.Error("InsertExtraction should set the record ID")
	}

	records, err := database.GetRecentExtractions(10)
	if err != nil {
		t.Fatalf("GetRecentExtractions error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	got := records[0]
	if got.RequestID != "req-1" || got.ImageName != "note.png" {
		t.Errorf("record = %+v", got)
	}
	if got.ByteSize != 2048 || got.CharCount != 120 || got.DurationMs != 850 {
		t.Errorf("numeric fields = %+v", got)
	}
	if got.Status != "succeeded" || got.Error != "" {
		t.Errorf("status/error = %q/%q", got.Status, got.Error)
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, rec.Timestamp)
	}
}

func TestInsertExtraction_FailedWithError(t *testing.T) {
	database := newTestDB(t)

	rec := &models.ExtractionRecord{
		RequestID: "req-2",
		ImageName: "note.jpg",
		Status:    "failed",
		Error:     "free usage exhausted",
	}
	if err := database.InsertExtraction(rec); err != nil {
		t.Fatalf("InsertExtraction error: %v", err)
	}

	records, err := database.GetRecentExtractions(10)
	if err != nil {
		t.Fatalf("GetRecentExtractions error: %v", err)
	}
	if records[0].Error != "free usage exhausted" {
		t.Errorf("error = %q, want free usage exhausted", records[0].Error)
	}
	if records[0].Timestamp.IsZero() {
		t.Error("zero timestamp should be replaced with the insert time")
	}
}

func TestGetRecentExtractions_OrderAndLimit(t *testing.T) {
	database := newTestDB(t)

	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		rec := &models.ExtractionRecord{
			RequestID: "req",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			ImageName: string(rune('a'+i)) + ".png",
			Status:    "succeeded",
		}
		if err := database.InsertExtraction(rec); err != nil {
			t.Fatalf("InsertExtraction error: %v", err)
		}
	}

	records, err := database.GetRecentExtractions(3)
	if err != nil {
		t.Fatalf("GetRecentExtractions error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	if records[0].ImageName != "e.png" || records[2].ImageName != "c.png" {
		t.Errorf("ordering wrong: got %s .. %s, want e.png .. c.png",
			records[0].ImageName, records[2].ImageName)
	}
}

func TestGetDailyCounts_FillsGaps(t *testing.T) {
	database := newTestDB(t)

	now := time.Now()
	for _, daysAgo := range []int{0, 0, 2} {
		rec := &models.ExtractionRecord{
			RequestID: "req",
			Timestamp: now.AddDate(0, 0, -daysAgo),
			ImageName: "note.png",
			Status:    "succeeded",
		}
		if err := database.InsertExtraction(rec); err != nil {
			t.Fatalf("InsertExtraction error: %v", err)
		}
	}

	counts, err := database.GetDailyCounts(7)
	if err != nil {
		t.Fatalf("GetDailyCounts error: %v", err)
	}
	if len(counts) != 7 {
		t.Fatalf("len(counts) = %d, want 7 (one point per day)", len(counts))
	}

	if got := counts[6].Count; got != 2 {
		t.Errorf("today's count = %d, want 2", got)
	}
	if got := counts[4].Count; got != 1 {
		t.Errorf("count two days ago = %d, want 1", got)
	}
	if got := counts[5].Count; got != 0 {
		t.Errorf("count yesterday = %d, want 0", got)
	}
	for i := 1; i < len(counts); i++ {
		if !counts[i].Day.After(counts[i-1].Day) {
			t.Error("days must be ordered oldest first")
		}
	}
}

func TestCountExtractions(t *testing.T) {
	database := newTestDB(t)

	count, err := database.CountExtractions()
	if err != nil {
		t.Fatalf("CountExtractions error: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	for i := 0; i < 3; i++ {
		rec := &models.ExtractionRecord{RequestID: "req", ImageName: "n.png", Status: "succeeded"}
		if err := database.InsertExtraction(rec); err != nil {
			t.Fatalf("InsertExtraction error: %v", err)
		}
	}

	count, err = database.CountExtractions()
	if err != nil {
		t.Fatalf("CountExtractions error: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}
