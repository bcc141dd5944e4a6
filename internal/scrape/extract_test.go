package scrape

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDates(t *testing.T) {
	html := `
	<html><body>
		<h5 class="week-menu-day__header-heading">mandag 28 jul, 2025</h5>
		<h5 class="week-menu-day__header-heading">tirsdag 29 jul, 2025</h5>
		<h5 class="week-menu-day__header-heading">onsdag 30 xyz, 2025</h5>
		<h5 class="week-menu-day__header-heading">torsdag 30 feb, 2025</h5>
		<h5 class="week-menu-day__header-heading">l&#248;rdag 2 aug, 2025</h5>
		<h5 class="week-menu-day__header-heading">garbage</h5>
		<h5 class="week-menu-day__header-heading">fredag 1 aug, 2025</h5>
	</body></html>`

	doc, err := ParseDocument(html)
	require.NoError(t, err)

	dates := ExtractDates(doc)
	require.Len(t, dates, 3)

	assert.Equal(t, "Mandag", dates[0].DayName)
	assert.Equal(t, time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC), dates[0].Date)
	assert.Equal(t, "Tirsdag", dates[1].DayName)
	assert.Equal(t, time.Date(2025, 7, 29, 0, 0, 0, 0, time.UTC), dates[1].Date)
	assert.Equal(t, "Fredag", dates[2].DayName)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), dates[2].Date)
}

func TestExtractDatesEmptyDocument(t *testing.T) {
	doc, err := ParseDocument("<html><body><p>nothing here</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, ExtractDates(doc))
}

func TestSplitMainDishAndDetails(t *testing.T) {
	longNoPeriod := strings.Repeat("abcde fghij ", 12) // 144 runes, no period
	unbroken := strings.Repeat("x", 120)

	tests := []struct {
		name     string
		input    string
		mainDish string
		details  string
	}{
		{
			name:     "first sentence under ceiling",
			input:    "Boller i karry. Serveres med ris og mangochutney.",
			mainDish: "Boller i karry.",
			details:  "Serveres med ris og mangochutney.",
		},
		{
			name:     "sentence split keeps remainder as details",
			input:    "Grillet kyllingebryst med ratatouille. Serveres med kartofler og grøntsager og andre ting som gør teksten lang nok til at udløse algoritmen.",
			mainDish: "Grillet kyllingebryst med ratatouille.",
			details:  "Serveres med kartofler og grøntsager og andre ting som gør teksten lang nok til at udløse algoritmen.",
		},
		{
			name:     "short text without period passes through",
			input:    "Dagens suppe med brød",
			mainDish: "Dagens suppe med brød",
			details:  "",
		},
		{
			name:     "allergens stripped from both halves",
			input:    "Kylling (gluten, laktose) i karry. Med ris (sulfit) og salat.",
			mainDish: "Kylling i karry.",
			details:  "Med ris og salat.",
		},
		{
			name:     "no period cuts at word boundary near 100",
			input:    longNoPeriod,
			mainDish: strings.TrimSpace(longNoPeriod[:95]) + "...",
			details:  strings.TrimSpace(longNoPeriod[95:]),
		},
		{
			name:     "no space forces hard cut at 100",
			input:    unbroken,
			mainDish: unbroken[:100] + "...",
			details:  unbroken[100:],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mainDish, details := SplitMainDishAndDetails(tt.input)
			assert.Equal(t, tt.mainDish, mainDish)
			assert.Equal(t, tt.details, details)
		})
	}
}

const menuFixture = `
<html><body>
	<h5 class="week-menu-day__header-heading">mandag 28 jul, 2025</h5>
	<h5 class="week-menu-day__header-heading">tirsdag 29 jul, 2025</h5>

	<div data-tab-content="Det velkendte">
		<div class="menu-recipe-display">
			<h4 class="menu-recipe-display__title">Varm ret med tilbeh&#248;r</h4>
			<p class="menu-recipe-display__description">Boller i karry. Serveres med ris og mangochutney.</p>
		</div>
		<div class="menu-recipe-display">
			<h4 class="menu-recipe-display__title">Salat</h4>
			<p class="menu-recipe-display__description">Gr&#248;n salat med feta</p>
		</div>
	</div>
	<div data-tab-content="Det velkendte">
		<div class="menu-recipe-display">
			<h4 class="menu-recipe-display__title">Salat</h4>
			<p class="menu-recipe-display__description">Bagte r&#248;dbeder med rucola</p>
		</div>
	</div>

	<div data-tab-content="Den Gr&amp;#248;nne">
		<div class="menu-recipe-display">
			<h4 class="menu-recipe-display__title">Dagens gr&#248;nt</h4>
			<p class="menu-recipe-display__description">Linsebolognese med pasta</p>
		</div>
	</div>
	<div data-tab-content="Den Gr&amp;#248;nne"></div>
</body></html>`

func TestExtractMenus(t *testing.T) {
	doc, err := ParseDocument(menuFixture)
	require.NoError(t, err)

	menuDays := ExtractMenus(doc)
	require.Len(t, menuDays, 3)

	monday := menuDays[0]
	assert.Equal(t, "Det velkendte", monday.MenuType)
	assert.Equal(t, "Mandag", monday.DayName)
	assert.Equal(t, time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC), monday.Date)
	require.Len(t, monday.MenuItems, 2)
	assert.Equal(t, "Varm ret med tilbehør: Boller i karry. Serveres med ris og mangochutney.", monday.MenuItems[0])
	assert.Equal(t, "Boller i karry.", monday.MainDish)
	assert.Equal(t, "Serveres med ris og mangochutney.", monday.Details)

	tuesday := menuDays[1]
	assert.Equal(t, "Det velkendte", tuesday.MenuType)
	assert.Equal(t, "Tirsdag", tuesday.DayName)
	// No hot dish, so the main dish falls back to the first item's content.
	assert.Equal(t, "Bagte rødbeder med rucola", tuesday.MainDish)
	assert.Empty(t, tuesday.Details)

	// The double-encoded tab label decodes; its empty second day emits nothing.
	green := menuDays[2]
	assert.Equal(t, "Den Grønne", green.MenuType)
	assert.Equal(t, "Mandag", green.DayName)
	assert.Equal(t, "Linsebolognese med pasta", green.MainDish)
}

func TestExtractMenusHotDishFirstMatchWins(t *testing.T) {
	html := `
	<html><body>
		<h5 class="week-menu-day__header-heading">mandag 28 jul, 2025</h5>
		<div data-tab-content="Det velkendte">
			<div class="menu-recipe-display">
				<h4 class="menu-recipe-display__title">Varm ret med tilbeh&#248;r</h4>
				<p class="menu-recipe-display__description">Stegt flæsk med persillesovs.</p>
			</div>
			<div class="menu-recipe-display">
				<h4 class="menu-recipe-display__title">Varm ret med tilbeh&#248;r (halal)</h4>
				<p class="menu-recipe-display__description">Kylling med persillesovs.</p>
			</div>
		</div>
	</body></html>`

	doc, err := ParseDocument(html)
	require.NoError(t, err)

	menuDays := ExtractMenus(doc)
	require.Len(t, menuDays, 1)
	assert.Equal(t, "Stegt flæsk med persillesovs.", menuDays[0].MainDish)
	assert.Len(t, menuDays[0].MenuItems, 2)
}

func TestExtractMenusTwoFullWeeks(t *testing.T) {
	weekdays := []string{"mandag", "tirsdag", "onsdag", "torsdag", "fredag"}
	headers := []string{
		"mandag 28 jul, 2025", "tirsdag 29 jul, 2025", "onsdag 30 jul, 2025",
		"torsdag 31 jul, 2025", "fredag 1 aug, 2025",
		"mandag 4 aug, 2025", "tirsdag 5 aug, 2025", "onsdag 6 aug, 2025",
		"torsdag 7 aug, 2025", "fredag 8 aug, 2025",
	}
	menuTypes := []string{
		"Det velkendte", "Den Grønne", "Det grønne køkken", "Vegetar",
		"Halal", "Salatbaren", "Suppekøkkenet", "Det søde",
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	for _, h := range headers {
		b.WriteString(`<h5 class="week-menu-day__header-heading">` + h + `</h5>`)
	}
	for _, mt := range menuTypes {
		for i := range headers {
			b.WriteString(`<div data-tab-content="` + mt + `">`)
			b.WriteString(`<div class="menu-recipe-display">`)
			b.WriteString(`<h4 class="menu-recipe-display__title">Varm ret med tilbeh&#248;r</h4>`)
			b.WriteString(`<p class="menu-recipe-display__description">Ret nummer ` + strconv.Itoa(i) + ` fra ` + mt + `.</p>`)
			b.WriteString(`</div></div>`)
		}
	}
	b.WriteString("</body></html>")

	doc, err := ParseDocument(b.String())
	require.NoError(t, err)

	menuDays := ExtractMenus(doc)
	require.Len(t, menuDays, 80)

	seen := make(map[string]struct{})
	for _, day := range menuDays {
		assert.NotEmpty(t, day.MainDish)
		assert.Contains(t, weekdays, strings.ToLower(day.DayName))
		key := day.Date.Format("2006-01-02") + "/" + day.MenuType
		_, dup := seen[key]
		assert.False(t, dup, "duplicate pair %s", key)
		seen[key] = struct{}{}
	}
}

func TestExtractMenusNoDates(t *testing.T) {
	html := `<html><body><div data-tab-content="Det velkendte"></div></body></html>`
	doc, err := ParseDocument(html)
	require.NoError(t, err)
	assert.Empty(t, ExtractMenus(doc))
}
