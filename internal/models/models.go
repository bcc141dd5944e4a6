package models

import (
	"strings"
	"time"
)

// MenuDay is the transient, in-memory view of one menu type on one date.
// It is produced by the extractor or rebuilt from a cached MenuEntry; it is
// never persisted directly.
type MenuDay struct {
	DayName   string    `json:"day_name"`
	Date      time.Time `json:"date"` // date-only, time component always midnight
	MenuItems []string  `json:"menu_items"`
	MainDish  string    `json:"main_dish"`
	Details   string    `json:"details"`
	MenuType  string    `json:"menu_type"` // human-readable label, e.g. "Det velkendte"
}

// MenuType is a named variant of the daily offering. Soft-deleted via
// IsActive, never hard-deleted; reactivated when rediscovered by a scrape.
type MenuType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MenuEntry is the persisted row for one (date, menu type) pair.
// Unique on (Date, MenuTypeID) - the idempotency key for upserts.
type MenuEntry struct {
	ID           int64     `json:"id"`
	Date         time.Time `json:"date"` // date-only
	DayName      string    `json:"day_name"`
	MenuItems    string    `json:"menu_items"` // newline-joined raw "label: text" pairs
	MainDish     string    `json:"main_dish"`
	Details      string    `json:"details"`
	MenuTypeID   int64     `json:"menu_type_id"`
	MenuTypeName string    `json:"menu_type_name,omitempty"` // joined from menu_types
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScrapingLog records the outcome of a single scrape attempt.
type ScrapingLog struct {
	ID                int64         `json:"id"`
	Timestamp         time.Time     `json:"timestamp"`
	RequestSuccessful bool          `json:"request_successful"`
	ParsingSuccessful bool          `json:"parsing_successful"`
	NewMenuItemsCount int           `json:"new_menu_items_count"`
	ErrorMessage      string        `json:"error_message,omitempty"`
	Duration          time.Duration `json:"duration"`
	Source            string        `json:"source"` // "Background", "Manual", "API"
}

// ToMenuDay rebuilds the transient view from a cached entry.
func (e *MenuEntry) ToMenuDay() MenuDay {
	var items []string
	for _, line := range strings.Split(e.MenuItems, "\n") {
		if line != "" {
			items = append(items, line)
		}
	}
	name := e.MenuTypeName
	if name == "" {
		name = "Det velkendte"
	}
	return MenuDay{
		DayName:   e.DayName,
		Date:      e.Date,
		MenuItems: items,
		MainDish:  e.MainDish,
		Details:   e.Details,
		MenuType:  name,
	}
}
