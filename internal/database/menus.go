package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"madkalender/internal/models"
)

const menuEntryColumns = `e.id, e.date, e.day_name, e.menu_items, e.main_dish, e.details,
	e.menu_type_id, t.name, e.created_at, e.updated_at`

// MenusForDateRange returns entries with dates in [start, end] inclusive,
// ordered by date ascending. Comparison is date-only on both bounds.
func (db *DB) MenusForDateRange(ctx context.Context, start, end time.Time) ([]models.MenuEntry, error) {
	query := `SELECT ` + menuEntryColumns + `
		FROM menu_entries e
		JOIN menu_types t ON t.id = e.menu_type_id
		WHERE e.date >= ? AND e.date <= ?
		ORDER BY e.date ASC`

	rows, err := db.QueryContext(ctx, query, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("query menus: %w", err)
	}
	defer rows.Close()
	return scanMenuEntries(rows)
}

// MenusForDateRangeByType is MenusForDateRange filtered to one menu type.
func (db *DB) MenusForDateRangeByType(ctx context.Context, start, end time.Time, menuTypeID int64) ([]models.MenuEntry, error) {
	query := `SELECT ` + menuEntryColumns + `
		FROM menu_entries e
		JOIN menu_types t ON t.id = e.menu_type_id
		WHERE e.date >= ? AND e.date <= ? AND e.menu_type_id = ?
		ORDER BY e.date ASC`

	rows, err := db.QueryContext(ctx, query, formatDate(start), formatDate(end), menuTypeID)
	if err != nil {
		return nil, fmt.Errorf("query menus by type: %w", err)
	}
	defer rows.Close()
	return scanMenuEntries(rows)
}

// MenuForDate returns some entry for the date when several menu types have
// one. Legacy single-menu-type compatibility; callers that care about the
// type use MenuForDateByType.
func (db *DB) MenuForDate(ctx context.Context, date time.Time) (*models.MenuEntry, error) {
	query := `SELECT ` + menuEntryColumns + `
		FROM menu_entries e
		JOIN menu_types t ON t.id = e.menu_type_id
		WHERE e.date = ?
		ORDER BY e.id ASC LIMIT 1`
	return db.queryMenuEntry(ctx, query, formatDate(date))
}

// MenuForDateByType returns the entry for one (date, menu type) pair.
func (db *DB) MenuForDateByType(ctx context.Context, date time.Time, menuTypeID int64) (*models.MenuEntry, error) {
	query := `SELECT ` + menuEntryColumns + `
		FROM menu_entries e
		JOIN menu_types t ON t.id = e.menu_type_id
		WHERE e.date = ? AND e.menu_type_id = ?
		LIMIT 1`
	return db.queryMenuEntry(ctx, query, formatDate(date), menuTypeID)
}

// SaveMenus upserts entries keyed on (date, menu_type_id). Existing rows get
// their content fields overwritten and updated_at bumped; created_at is
// preserved. Safe to call repeatedly with overlapping data.
func (db *DB) SaveMenus(ctx context.Context, entries []models.MenuEntry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save menus: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO menu_entries (date, day_name, menu_items, main_dish, details, menu_type_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, menu_type_id) DO UPDATE SET
			day_name = excluded.day_name,
			menu_items = excluded.menu_items,
			main_dish = excluded.main_dish,
			details = excluded.details,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare save menus: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range entries {
		e := &entries[i]
		if _, err := stmt.ExecContext(ctx, formatDate(e.Date), e.DayName, e.MenuItems,
			e.MainDish, e.Details, e.MenuTypeID, now, now); err != nil {
			return fmt.Errorf("save menu for %s: %w", formatDate(e.Date), err)
		}
	}

	return tx.Commit()
}

// LastUpdateTime returns max(updated_at) across all entries, or nil when the
// cache is empty. This is the cache-freshness signal.
func (db *DB) LastUpdateTime(ctx context.Context) (*time.Time, error) {
	var updatedAt time.Time
	err := db.QueryRowContext(ctx,
		`SELECT updated_at FROM menu_entries ORDER BY updated_at DESC LIMIT 1`).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last update time: %w", err)
	}
	return &updatedAt, nil
}

// Preview holds the today/tomorrow entries for one menu type.
type Preview struct {
	Today    *models.MenuEntry
	Tomorrow *models.MenuEntry
}

// MenuPreviews returns today/tomorrow entries for every active menu type in
// one pass. Types without entries are present with nil fields.
func (db *DB) MenuPreviews(ctx context.Context, today, tomorrow time.Time) (map[int64]Preview, error) {
	query := `SELECT ` + menuEntryColumns + `
		FROM menu_entries e
		JOIN menu_types t ON t.id = e.menu_type_id
		WHERE t.is_active = 1 AND (e.date = ? OR e.date = ?)`

	rows, err := db.QueryContext(ctx, query, formatDate(today), formatDate(tomorrow))
	if err != nil {
		return nil, fmt.Errorf("query menu previews: %w", err)
	}
	defer rows.Close()

	entries, err := scanMenuEntries(rows)
	if err != nil {
		return nil, err
	}

	result := make(map[int64]Preview)
	todayKey := formatDate(today)
	for i := range entries {
		e := entries[i]
		p := result[e.MenuTypeID]
		if formatDate(e.Date) == todayKey {
			p.Today = &e
		} else {
			p.Tomorrow = &e
		}
		result[e.MenuTypeID] = p
	}

	menuTypes, err := db.ActiveMenuTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, mt := range menuTypes {
		if _, ok := result[mt.ID]; !ok {
			result[mt.ID] = Preview{}
		}
	}

	return result, nil
}

func (db *DB) queryMenuEntry(ctx context.Context, query string, args ...any) (*models.MenuEntry, error) {
	row := db.QueryRowContext(ctx, query, args...)
	entry, err := scanMenuEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query menu entry: %w", err)
	}
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenuEntry(row rowScanner) (*models.MenuEntry, error) {
	var e models.MenuEntry
	var dateStr string
	if err := row.Scan(&e.ID, &dateStr, &e.DayName, &e.MenuItems, &e.MainDish, &e.Details,
		&e.MenuTypeID, &e.MenuTypeName, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse entry date %q: %w", dateStr, err)
	}
	e.Date = date
	return &e, nil
}

func scanMenuEntries(rows *sql.Rows) ([]models.MenuEntry, error) {
	var entries []models.MenuEntry
	for rows.Next() {
		entry, err := scanMenuEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}
