package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madkalender/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGetOrCreateMenuType(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mt, err := db.GetOrCreateMenuType(ctx, "Det Grønne Køkken")
	require.NoError(t, err)
	assert.Equal(t, "Det Grønne Køkken", mt.Name)
	assert.Equal(t, "det-groenne-koekken", mt.Slug)
	assert.True(t, mt.IsActive)

	again, err := db.GetOrCreateMenuType(ctx, "Det Grønne Køkken")
	require.NoError(t, err)
	assert.Equal(t, mt.ID, again.ID)

	menuTypes, err := db.ActiveMenuTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, menuTypes, 1)
}

func TestGetOrCreateMenuTypeReactivates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mt, err := db.GetOrCreateMenuType(ctx, "Det velkendte")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `UPDATE menu_types SET is_active = 0 WHERE id = ?`, mt.ID)
	require.NoError(t, err)

	_, err = db.MenuTypeBySlug(ctx, mt.Slug)
	assert.ErrorIs(t, err, ErrNotFound)

	revived, err := db.GetOrCreateMenuType(ctx, "Det velkendte")
	require.NoError(t, err)
	assert.Equal(t, mt.ID, revived.ID)
	assert.True(t, revived.IsActive)

	found, err := db.MenuTypeBySlug(ctx, mt.Slug)
	require.NoError(t, err)
	assert.Equal(t, mt.ID, found.ID)
}

func TestMenuTypeBySlugUnknown(t *testing.T) {
	db := newTestDB(t)
	_, err := db.MenuTypeBySlug(context.Background(), "no-such-type")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveMenusUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mt, err := db.GetOrCreateMenuType(ctx, "Det velkendte")
	require.NoError(t, err)

	entry := models.MenuEntry{
		Date:       date(2025, 7, 28),
		DayName:    "Mandag",
		MenuItems:  "Varm ret med tilbehør: Boller i karry",
		MainDish:   "Boller i karry",
		MenuTypeID: mt.ID,
	}
	require.NoError(t, db.SaveMenus(ctx, []models.MenuEntry{entry}))

	first, err := db.MenuForDateByType(ctx, entry.Date, mt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Boller i karry", first.MainDish)
	assert.Equal(t, "Det velkendte", first.MenuTypeName)

	// Same (date, menu type) with new content overwrites in place.
	entry.MainDish = "Stegt flæsk"
	entry.MenuItems = "Varm ret med tilbehør: Stegt flæsk"
	require.NoError(t, db.SaveMenus(ctx, []models.MenuEntry{entry}))

	second, err := db.MenuForDateByType(ctx, entry.Date, mt.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Stegt flæsk", second.MainDish)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_entries`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSaveMenusSeparateRowsPerMenuType(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	classic, err := db.GetOrCreateMenuType(ctx, "Det velkendte")
	require.NoError(t, err)
	green, err := db.GetOrCreateMenuType(ctx, "Den Grønne")
	require.NoError(t, err)

	day := date(2025, 7, 28)
	require.NoError(t, db.SaveMenus(ctx, []models.MenuEntry{
		{Date: day, DayName: "Mandag", MainDish: "Boller i karry", MenuTypeID: classic.ID},
		{Date: day, DayName: "Mandag", MainDish: "Linsebolognese", MenuTypeID: green.ID},
	}))

	entries, err := db.MenusForDateRange(ctx, day, day)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	byType, err := db.MenusForDateRangeByType(ctx, day, day, green.ID)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "Linsebolognese", byType[0].MainDish)

	// The legacy single-match lookup picks the oldest row deterministically.
	legacy, err := db.MenuForDate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "Boller i karry", legacy.MainDish)
}

func TestMenusForDateRangeBoundsInclusive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mt, err := db.GetOrCreateMenuType(ctx, "Det velkendte")
	require.NoError(t, err)

	var entries []models.MenuEntry
	for d := 28; d <= 31; d++ {
		entries = append(entries, models.MenuEntry{
			Date: date(2025, 7, d), DayName: "Dag", MenuTypeID: mt.ID,
		})
	}
	require.NoError(t, db.SaveMenus(ctx, entries))

	got, err := db.MenusForDateRange(ctx, date(2025, 7, 29), date(2025, 7, 30))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, date(2025, 7, 29), got[0].Date)
	assert.Equal(t, date(2025, 7, 30), got[1].Date)
}

func TestLastUpdateTime(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	lastUpdate, err := db.LastUpdateTime(ctx)
	require.NoError(t, err)
	assert.Nil(t, lastUpdate)

	mt, err := db.GetOrCreateMenuType(ctx, "Det velkendte")
	require.NoError(t, err)
	require.NoError(t, db.SaveMenus(ctx, []models.MenuEntry{
		{Date: date(2025, 7, 28), DayName: "Mandag", MenuTypeID: mt.ID},
	}))

	lastUpdate, err = db.LastUpdateTime(ctx)
	require.NoError(t, err)
	require.NotNil(t, lastUpdate)
	assert.WithinDuration(t, time.Now().UTC(), *lastUpdate, time.Minute)
}

func TestMenuPreviews(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mt, err := db.GetOrCreateMenuType(ctx, "Det velkendte")
	require.NoError(t, err)
	empty, err := db.GetOrCreateMenuType(ctx, "Den Grønne")
	require.NoError(t, err)

	today := date(2025, 7, 28)
	tomorrow := date(2025, 7, 29)
	require.NoError(t, db.SaveMenus(ctx, []models.MenuEntry{
		{Date: today, DayName: "Mandag", MainDish: "Boller i karry", MenuTypeID: mt.ID},
		{Date: tomorrow, DayName: "Tirsdag", MainDish: "Stegt flæsk", MenuTypeID: mt.ID},
	}))

	previews, err := db.MenuPreviews(ctx, today, tomorrow)
	require.NoError(t, err)
	require.Contains(t, previews, mt.ID)
	require.Contains(t, previews, empty.ID)

	p := previews[mt.ID]
	require.NotNil(t, p.Today)
	require.NotNil(t, p.Tomorrow)
	assert.Equal(t, "Boller i karry", p.Today.MainDish)
	assert.Equal(t, "Stegt flæsk", p.Tomorrow.MainDish)

	assert.Nil(t, previews[empty.ID].Today)
	assert.Nil(t, previews[empty.ID].Tomorrow)
}

func TestScrapingLogs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertScrapingLog(ctx, &models.ScrapingLog{
		Timestamp:         time.Date(2025, 7, 28, 10, 0, 0, 0, time.UTC),
		RequestSuccessful: true,
		ParsingSuccessful: true,
		NewMenuItemsCount: 40,
		Duration:          1200 * time.Millisecond,
		Source:            "Background",
	}))
	require.NoError(t, db.InsertScrapingLog(ctx, &models.ScrapingLog{
		Timestamp:         time.Date(2025, 7, 28, 16, 0, 0, 0, time.UTC),
		RequestSuccessful: false,
		ErrorMessage:      "connection refused",
		Source:            "Manual",
	}))

	logs, err := db.RecentScrapingLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, "Manual", logs[0].Source)
	assert.Equal(t, "connection refused", logs[0].ErrorMessage)
	assert.False(t, logs[0].RequestSuccessful)

	assert.Equal(t, "Background", logs[1].Source)
	assert.Equal(t, 40, logs[1].NewMenuItemsCount)
	assert.Equal(t, 1200*time.Millisecond, logs[1].Duration)
	assert.Empty(t, logs[1].ErrorMessage)
}
