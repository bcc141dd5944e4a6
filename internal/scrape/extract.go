package scrape

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"madkalender/internal/models"
	"madkalender/internal/textutil"
)

// HotDishLabel marks the recipe section that carries the authoritative main
// dish for a day. Matched case-insensitively as a substring of the recipe
// title.
const HotDishLabel = "Varm ret med tilbehør"

const (
	dayHeaderSelector    = "h5[class*='week-menu-day__header-heading']"
	tabContentAttr       = "data-tab-content"
	recipeSelector       = "div[class*='menu-recipe-display']"
	recipeTitleSelector  = "h4[class*='menu-recipe-display__title']"
	recipeDescSelector   = "p[class*='menu-recipe-display__description']"
	sentenceCeilingRunes = 150
	fallbackCutRunes     = 100
)

var firstSentenceRe = regexp.MustCompile(`^([^.]*\.)`)

// DayDate is one parsed "weekday + date" header.
type DayDate struct {
	DayName string
	Date    time.Time
}

// ExtractDates parses the week-menu day headers ("mandag 28 jul, 2025") into
// an ordered list of weekday dates. Malformed headers are skipped, never
// fatal; the list may span two calendar weeks (up to 10 entries).
func ExtractDates(doc *goquery.Document) []DayDate {
	var dates []DayDate

	doc.Find(dayHeaderSelector).Each(func(_ int, sel *goquery.Selection) {
		headerText := strings.TrimSpace(sel.Text())
		if headerText == "" {
			return
		}

		parts := strings.Fields(headerText)
		if len(parts) < 4 {
			return
		}

		dayName := textutil.CapitalizeFirst(parts[0])
		day, err := strconv.Atoi(parts[1])
		if err != nil {
			return
		}
		monthName := strings.ReplaceAll(parts[2], ",", "")
		year, err := strconv.Atoi(parts[3])
		if err != nil {
			return
		}

		month := textutil.ParseDanishMonth(monthName)
		if month <= 0 {
			return
		}

		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes overflow (Feb 30 -> Mar 2); treat that as an
		// unconstructible date and skip the header.
		if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
			return
		}

		if textutil.IsWeekday(dayName) {
			dates = append(dates, DayDate{DayName: dayName, Date: date})
		}
	})

	return dates
}

// ExtractMenus walks every menu-type tab in the document and produces one
// MenuDay per (date, menu type) pair that had at least one extracted item.
// An absent or unexpected document structure yields an empty result, not an
// error.
func ExtractMenus(doc *goquery.Document) []models.MenuDay {
	var menuDays []models.MenuDay

	dates := ExtractDates(doc)
	if len(dates) == 0 {
		return menuDays
	}

	labels := discoverMenuTypes(doc)
	for _, label := range labels {
		blocks := findBlocksByLabel(doc, label)
		dayIndex := 0

		blocks.EachWithBreak(func(_ int, block *goquery.Selection) bool {
			if dayIndex >= len(dates) {
				return false
			}
			day := dates[dayIndex]
			dayIndex++

			items, mainDish, details := extractDayContent(block)
			if len(items) == 0 {
				// A tab may cover fewer days than the header list spans;
				// emit nothing rather than an empty placeholder.
				return true
			}

			if mainDish == "" {
				mainDish = textutil.ExtractMainDishFromFirstItem(items[0])
			}

			menuDays = append(menuDays, models.MenuDay{
				DayName:   day.DayName,
				Date:      day.Date,
				MenuItems: items,
				MainDish:  mainDish,
				Details:   details,
				MenuType:  label,
			})
			return true
		})
	}

	return menuDays
}

// discoverMenuTypes collects the distinct menu-type labels present in the
// document, decoding HTML entities since the markup sometimes double-encodes
// them ("Den Gr&#248;nne").
func discoverMenuTypes(doc *goquery.Document) []string {
	var labels []string
	seen := make(map[string]struct{})

	doc.Find("div[" + tabContentAttr + "]").Each(func(_ int, sel *goquery.Selection) {
		raw, _ := sel.Attr(tabContentAttr)
		if raw == "" {
			return
		}
		label := textutil.DecodeEntities(raw)
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	})

	return labels
}

// findBlocksByLabel re-locates the content blocks for a label. The source is
// inconsistent about attribute encoding, so the lookup tries both the decoded
// label and its HTML-entity form.
func findBlocksByLabel(doc *goquery.Document, label string) *goquery.Selection {
	candidates := []string{label, textutil.EncodeEntities(label)}

	return doc.Find("div[" + tabContentAttr + "]").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		raw, _ := sel.Attr(tabContentAttr)
		for _, c := range candidates {
			if raw == c {
				return true
			}
		}
		return false
	})
}

// extractDayContent pulls the titled recipe segments out of one day block.
// It returns the raw "title: description" items plus the authoritative main
// dish / details pair when a hot-dish section was present.
func extractDayContent(block *goquery.Selection) (items []string, mainDish, details string) {
	foundHotDish := false

	block.Find(recipeSelector).Each(func(_ int, recipe *goquery.Selection) {
		title := textutil.CollapseWhitespace(recipe.Find(recipeTitleSelector).First().Text())
		if title == "" {
			return
		}

		description := recipe.Find(recipeDescSelector).First().Text()
		plainText := textutil.CollapseWhitespace(textutil.DecodeEntities(description))
		if plainText == "" {
			return
		}

		items = append(items, title+": "+plainText)

		// Later hot-dish recipes must not overwrite an already-found split.
		if !foundHotDish && strings.Contains(strings.ToLower(title), strings.ToLower(HotDishLabel)) {
			mainDish, details = SplitMainDishAndDetails(plainText)
			foundHotDish = true
		}
	})

	return items, mainDish, details
}

// SplitMainDishAndDetails divides a cleaned hot-dish description into a short
// display dish and the remainder. The first sentence wins when it stays under
// 150 characters; otherwise the text is cut at a word boundary near 100
// characters. Allergen parentheticals are stripped from both halves.
func SplitMainDishAndDetails(plainText string) (string, string) {
	var mainDish, details string

	if m := firstSentenceRe.FindString(plainText); m != "" && len([]rune(m)) < sentenceCeilingRunes {
		mainDish = strings.TrimSpace(m)
		details = strings.TrimSpace(plainText[len(m):])
	} else if runes := []rune(plainText); len(runes) > fallbackCutRunes {
		cutPoint := lastSpaceAtOrBefore(runes, fallbackCutRunes)
		if cutPoint > 50 {
			mainDish = strings.TrimSpace(string(runes[:cutPoint])) + "..."
			details = strings.TrimSpace(string(runes[cutPoint:]))
		} else {
			mainDish = string(runes[:fallbackCutRunes]) + "..."
			details = strings.TrimSpace(string(runes[fallbackCutRunes:]))
		}
	} else {
		mainDish = plainText
		details = ""
	}

	return textutil.StripAllergens(mainDish), textutil.StripAllergens(details)
}

// lastSpaceAtOrBefore returns the index of the last space at or before pos,
// or -1 if there is none.
func lastSpaceAtOrBefore(runes []rune, pos int) int {
	if pos > len(runes)-1 {
		pos = len(runes) - 1
	}
	for i := pos; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// ParseDocument parses raw HTML into a queryable document.
func ParseDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
