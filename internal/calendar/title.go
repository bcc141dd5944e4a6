package calendar

import (
	"regexp"
	"strings"

	"madkalender/internal/textutil"
)

const maxTitleLength = 80

// sectionMarkers separate the hot dish from the appended side sections in a
// raw main-dish string. Only the first segment is a title.
var sectionMarkers = []string{", Delikatesser:", ", Dagens salater:", ", Brød:"}

// boilerplatePrefixes are stripped from the front of a title, in order,
// first match only. The encoded variant appears because the source sometimes
// double-encodes.
var boilerplatePrefixes = []string{
	"Varm ret med tilbehør:",
	"Varm ret med tilbeh&#248;r:",
	"Alm./Halal:",
	"Alm.:",
	"Halal:",
}

var (
	sentenceBreakRe  = regexp.MustCompile(`(\. )([A-ZÆØÅ])`)
	multipleSpacesRe = regexp.MustCompile(` +`)
)

// SanitizeTitle turns a raw main-dish string into a short display title:
// decode entities, keep only the text before the first side-section marker,
// strip one boilerplate prefix (never down to emptiness), trim stray leading
// punctuation, and bound the length at 80 characters preferring sentence and
// word boundaries.
func SanitizeTitle(title string) string {
	if title == "" {
		return title
	}

	cleanTitle := textutil.DecodeEntities(title)

	mainSection := firstSection(cleanTitle)
	mainSection = stripBoilerplatePrefix(mainSection)
	mainSection = strings.TrimSpace(mainSection)

	for strings.HasPrefix(mainSection, ",") || strings.HasPrefix(mainSection, ":") {
		mainSection = strings.TrimSpace(mainSection[1:])
	}

	return truncateTitle(mainSection)
}

// firstSection returns the first non-empty segment once the string is split
// on the known side-section markers.
func firstSection(s string) string {
	segments := []string{s}
	for _, marker := range sectionMarkers {
		var next []string
		for _, seg := range segments {
			next = append(next, strings.Split(seg, marker)...)
		}
		segments = next
	}
	for _, seg := range segments {
		if seg != "" {
			return seg
		}
	}
	return ""
}

// stripBoilerplatePrefix removes the first matching prefix, but only when
// actual content remains after it.
func stripBoilerplatePrefix(s string) string {
	lower := strings.ToLower(s)
	for _, prefix := range boilerplatePrefixes {
		if !strings.HasPrefix(lower, strings.ToLower(prefix)) {
			continue
		}
		remaining := strings.TrimSpace(s[len(prefix):])
		if remaining != "" {
			return remaining
		}
		break
	}
	return s
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= maxTitleLength {
		return s
	}

	firstSentence := strings.SplitN(s, ".", 2)[0]
	fsLen := len([]rune(firstSentence))
	if fsLen >= 20 && fsLen < maxTitleLength && fsLen < len(runes) {
		// Append an ellipsis only when content beyond the bare period is
		// actually discarded.
		remaining := strings.TrimSpace(s[len(firstSentence):])
		if len([]rune(remaining)) > 1 {
			return strings.TrimSpace(firstSentence) + "..."
		}
		return strings.TrimSpace(firstSentence)
	}

	breakPoint := lastSpaceAtOrBefore(runes, maxTitleLength)
	if breakPoint > 40 {
		return strings.TrimSpace(string(runes[:breakPoint])) + "..."
	}
	return strings.TrimSpace(string(runes[:maxTitleLength])) + "..."
}

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

// FormatDescription reshapes a raw details string for calendar event bodies:
// side sections get their own paragraphs, pipes and sentence boundaries
// become line breaks.
func FormatDescription(description string) string {
	if description == "" {
		return description
	}

	formatted := textutil.DecodeEntities(description)

	formatted = strings.ReplaceAll(formatted, ", Delikatesser:", "\n\nDelikatesser:")
	formatted = strings.ReplaceAll(formatted, ", Dagens salater:", "\n\nDagens salater:")
	formatted = strings.ReplaceAll(formatted, ", Brød:", "\n\nBrød:")
	formatted = strings.ReplaceAll(formatted, " | ", "\n")

	formatted = sentenceBreakRe.ReplaceAllString(formatted, "$1\n$2")
	formatted = multipleSpacesRe.ReplaceAllString(formatted, " ")

	return strings.TrimLeft(formatted, "\n ")
}
