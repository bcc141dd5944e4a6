package server

import (
	"strconv"
	"strings"
	"time"
)

// Custom calendar configs encode one menu type per weekday as a compact
// string, e.g. "M1T2W3R4F5" (R is Thursday). Only the five weekdays are
// addressable; IDs may have any number of digits.

var weekdayLetters = []struct {
	letter  byte
	weekday time.Weekday
}{
	{'M', time.Monday},
	{'T', time.Tuesday},
	{'W', time.Wednesday},
	{'R', time.Thursday},
	{'F', time.Friday},
}

// DecodeCustomConfig parses a custom config string into a weekday to
// menu-type-id mapping. Malformed input returns nil: this is bad caller
// input, never defaulted.
func DecodeCustomConfig(config string) map[time.Weekday]int64 {
	if config == "" {
		return nil
	}

	result := make(map[time.Weekday]int64)
	i := 0
	for i < len(config) {
		weekday, ok := weekdayForLetter(config[i])
		if !ok {
			return nil
		}
		i++

		start := i
		for i < len(config) && config[i] >= '0' && config[i] <= '9' {
			i++
		}
		if i == start {
			return nil
		}

		id, err := strconv.ParseInt(config[start:i], 10, 64)
		if err != nil {
			return nil
		}
		result[weekday] = id
	}

	return result
}

// EncodeCustomConfig renders a mapping in fixed weekday order, skipping
// weekdays without an assignment.
func EncodeCustomConfig(mapping map[time.Weekday]int64) string {
	var b strings.Builder
	for _, wl := range weekdayLetters {
		if id, ok := mapping[wl.weekday]; ok {
			b.WriteByte(wl.letter)
			b.WriteString(strconv.FormatInt(id, 10))
		}
	}
	return b.String()
}

func weekdayForLetter(letter byte) (time.Weekday, bool) {
	for _, wl := range weekdayLetters {
		if wl.letter == letter {
			return wl.weekday, true
		}
	}
	return 0, false
}
