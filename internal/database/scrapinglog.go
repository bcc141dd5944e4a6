package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"madkalender/internal/models"
)

// InsertScrapingLog records one scrape attempt.
func (db *DB) InsertScrapingLog(ctx context.Context, entry *models.ScrapingLog) error {
	var errMsg sql.NullString
	if entry.ErrorMessage != "" {
		errMsg = sql.NullString{String: entry.ErrorMessage, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO scraping_logs (timestamp, request_successful, parsing_successful, new_menu_items_count, error_message, duration_ms, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp, entry.RequestSuccessful, entry.ParsingSuccessful,
		entry.NewMenuItemsCount, errMsg, entry.Duration.Milliseconds(), entry.Source)
	if err != nil {
		return fmt.Errorf("insert scraping log: %w", err)
	}
	return nil
}

// RecentScrapingLogs returns the most recent attempts, newest first.
func (db *DB) RecentScrapingLogs(ctx context.Context, limit int) ([]models.ScrapingLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, timestamp, request_successful, parsing_successful, new_menu_items_count, error_message, duration_ms, source
		FROM scraping_logs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scraping logs: %w", err)
	}
	defer rows.Close()

	var logs []models.ScrapingLog
	for rows.Next() {
		var l models.ScrapingLog
		var errMsg sql.NullString
		var durationMs int64
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.RequestSuccessful, &l.ParsingSuccessful,
			&l.NewMenuItemsCount, &errMsg, &durationMs, &l.Source); err != nil {
			return nil, err
		}
		l.ErrorMessage = errMsg.String
		l.Duration = time.Duration(durationMs) * time.Millisecond
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
