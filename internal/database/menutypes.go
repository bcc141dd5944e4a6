package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"madkalender/internal/models"
	"madkalender/internal/textutil"
)

// GetOrCreateMenuType resolves a menu type by the slug of name, creating it on
// first encounter and reactivating it if a scrape rediscovers a soft-deleted
// one.
func (db *DB) GetOrCreateMenuType(ctx context.Context, name string) (*models.MenuType, error) {
	slug := textutil.Slug(name)

	existing, err := db.menuTypeBySlug(ctx, slug, false)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if !existing.IsActive {
			now := time.Now().UTC()
			if _, err := db.ExecContext(ctx,
				`UPDATE menu_types SET is_active = 1, updated_at = ? WHERE id = ?`, now, existing.ID); err != nil {
				return nil, fmt.Errorf("reactivate menu type: %w", err)
			}
			existing.IsActive = true
			existing.UpdatedAt = now
		}
		return existing, nil
	}

	now := time.Now().UTC()
	res, err := db.ExecContext(ctx,
		`INSERT INTO menu_types (name, slug, is_active, created_at, updated_at) VALUES (?, ?, 1, ?, ?)`,
		name, slug, now, now)
	if err != nil {
		return nil, fmt.Errorf("create menu type %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("menu type id: %w", err)
	}

	return &models.MenuType{
		ID:        id,
		Name:      name,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ActiveMenuTypes returns all active menu types ordered by name.
func (db *DB) ActiveMenuTypes(ctx context.Context) ([]models.MenuType, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, slug, is_active, created_at, updated_at
		 FROM menu_types WHERE is_active = 1 ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query menu types: %w", err)
	}
	defer rows.Close()

	var menuTypes []models.MenuType
	for rows.Next() {
		var mt models.MenuType
		if err := rows.Scan(&mt.ID, &mt.Name, &mt.Slug, &mt.IsActive, &mt.CreatedAt, &mt.UpdatedAt); err != nil {
			return nil, err
		}
		menuTypes = append(menuTypes, mt)
	}
	return menuTypes, rows.Err()
}

// MenuTypeBySlug returns the active menu type with the given slug, or
// ErrNotFound.
func (db *DB) MenuTypeBySlug(ctx context.Context, slug string) (*models.MenuType, error) {
	return db.menuTypeBySlug(ctx, slug, true)
}

// MenuTypeByID returns the menu type with the given id, or ErrNotFound.
func (db *DB) MenuTypeByID(ctx context.Context, id int64) (*models.MenuType, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, name, slug, is_active, created_at, updated_at FROM menu_types WHERE id = ?`, id)
	return scanMenuType(row)
}

func (db *DB) menuTypeBySlug(ctx context.Context, slug string, activeOnly bool) (*models.MenuType, error) {
	query := `SELECT id, name, slug, is_active, created_at, updated_at FROM menu_types WHERE slug = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	return scanMenuType(db.QueryRowContext(ctx, query, slug))
}

func scanMenuType(row *sql.Row) (*models.MenuType, error) {
	var mt models.MenuType
	err := row.Scan(&mt.ID, &mt.Name, &mt.Slug, &mt.IsActive, &mt.CreatedAt, &mt.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan menu type: %w", err)
	}
	return &mt, nil
}
