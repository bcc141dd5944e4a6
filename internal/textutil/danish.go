package textutil

import "strings"

// The five weekday names the menu page uses. Saturday and Sunday never carry
// menus and are filtered out during date extraction.
var weekdays = []string{"Mandag", "Tirsdag", "Onsdag", "Torsdag", "Fredag"}

var danishMonths = map[string]int{
	"jan": 1,
	"feb": 2,
	"mar": 3,
	"apr": 4,
	"maj": 5,
	"jun": 6,
	"jul": 7,
	"aug": 8,
	"sep": 9,
	"okt": 10,
	"nov": 11,
	"dec": 12,
}

// ParseDanishMonth maps a three-letter Danish month abbreviation to 1-12.
// Unrecognized input returns 0.
func ParseDanishMonth(monthName string) int {
	return danishMonths[strings.ToLower(monthName)]
}

// IsWeekday reports whether dayName is one of the five recognized Danish
// weekday names, case-insensitively.
func IsWeekday(dayName string) bool {
	for _, d := range weekdays {
		if strings.EqualFold(d, dayName) {
			return true
		}
	}
	return false
}
