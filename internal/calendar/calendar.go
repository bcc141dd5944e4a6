// Package calendar renders menu data as iCalendar feeds and owns the
// display-title sanitation used by feeds and previews.
package calendar

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"madkalender/internal/models"
	"madkalender/internal/textutil"
)

var copenhagen = loadCopenhagen()

func loadCopenhagen() *time.Location {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Generate serializes menu days into an ICS calendar. Lunch events run
// 12:00-13:00 Copenhagen time; UIDs are deterministic per (date, menu type)
// so repeated feeds update in place in subscribers. An empty day list yields
// a single placeholder event rather than an empty calendar.
func Generate(menuDays []models.MenuDay, menuTypeName string, includeAlarms bool) string {
	calendarName := "Meyers Menu Calendar"
	if menuTypeName != "" {
		calendarName += " - " + menuTypeName
	}

	cal := ics.NewCalendar()
	cal.SetProductId(calendarName)
	cal.SetVersion("2.0")
	cal.SetXWRCalName(calendarName)
	cal.SetXWRTimezone("Europe/Copenhagen")

	if len(menuDays) == 0 {
		addEvent(cal, eventData{
			uid:         "test-event",
			date:        time.Now().In(copenhagen),
			summary:     "No menu found - Test Event",
			description: "Unable to scrape menu from Meyers website",
		}, includeAlarms)
		return cal.Serialize()
	}

	for _, day := range menuDays {
		var summary, description string
		if day.MainDish != "" {
			summary = SanitizeTitle(day.MainDish)
			if day.Details != "" {
				description = FormatDescription(day.Details)
			} else {
				description = FormatDescription(strings.Join(day.MenuItems, ", "))
			}
		} else {
			summary = "Meyers Menu - " + day.DayName
			description = FormatDescription(strings.Join(day.MenuItems, ", "))
		}

		addEvent(cal, eventData{
			uid:         EventUID(day.Date, day.MenuType),
			date:        day.Date,
			summary:     summary,
			description: description,
		}, includeAlarms)
	}

	return cal.Serialize()
}

// EventUID builds the stable per-event identifier from the uniqueness key the
// cache guarantees: date plus menu-type slug.
func EventUID(date time.Time, menuType string) string {
	if menuType == "" {
		return "meyers-menu-" + date.Format("2006-01-02")
	}
	return "meyers-menu-" + date.Format("2006-01-02") + "-" + textutil.Slug(menuType)
}

type eventData struct {
	uid         string
	date        time.Time
	summary     string
	description string
}

func addEvent(cal *ics.Calendar, data eventData, includeAlarms bool) {
	start := time.Date(data.date.Year(), data.date.Month(), data.date.Day(), 12, 0, 0, 0, copenhagen)
	end := start.Add(time.Hour)

	event := cal.AddEvent(data.uid)
	event.SetDtStampTime(time.Now().UTC())
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(data.summary)
	if data.description != "" {
		event.SetDescription(data.description)
	}

	if includeAlarms {
		alarm := event.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger("-PT5M")
		alarm.SetProperty(ics.ComponentPropertyDescription, data.summary)
	}
}
