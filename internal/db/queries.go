package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/snapnote/snapnote-tui/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// InsertExtraction records a finished extraction attempt.
func (db *DB) InsertExtraction(rec *models.ExtractionRecord) error {
	query := `
		INSERT INTO extractions (
			request_id, timestamp, image_name, byte_size, char_count,
			duration_ms, status, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	timestamp := rec.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		rec.RequestID,
		timestamp.Format(timeLayout),
		rec.ImageName,
		rec.ByteSize,
		rec.CharCount,
		rec.DurationMs,
		rec.Status,
		nullString(rec.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to insert extraction: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		rec.ID = id
	}

	return nil
}

// GetRecentExtractions returns the most recent extraction records.
func (db *DB) GetRecentExtractions(limit int) ([]models.ExtractionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, request_id, timestamp, image_name, byte_size, char_count,
			   duration_ms, status, error
		FROM extractions
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query extractions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.ExtractionRecord
	for rows.Next() {
		var rec models.ExtractionRecord
		var ts string
		var errStr sql.NullString

		if err := rows.Scan(&rec.ID, &rec.RequestID, &ts, &rec.ImageName,
			&rec.ByteSize, &rec.CharCount, &rec.DurationMs, &rec.Status, &errStr); err != nil {
			return nil, fmt.Errorf("failed to scan extraction: %w", err)
		}

		rec.Timestamp, _ = time.ParseInLocation(timeLayout, ts, time.Local)
		rec.Error = errStr.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetDailyCounts returns per-day extraction counts for the last n days,
// including empty days, oldest first.
func (db *DB) GetDailyCounts(days int) ([]models.DailyCount, error) {
	if days <= 0 {
		days = 14
	}

	since := time.Now().AddDate(0, 0, -(days - 1))
	startOfDay := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.Local)

	query := `
		SELECT substr(timestamp, 1, 10) AS day, COUNT(*)
		FROM extractions
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := db.QueryContext(context.Background(), query, startOfDay.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Fill gaps so the chart has a point per day.
	result := make([]models.DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := startOfDay.AddDate(0, 0, i)
		result = append(result, models.DailyCount{
			Day:   day,
			Count: counts[day.Format("2006-01-02")],
		})
	}

	return result, nil
}

// CountExtractions returns the total number of recorded extractions.
func (db *DB) CountExtractions() (int, error) {
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM extractions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count extractions: %w", err)
	}
	return count, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
