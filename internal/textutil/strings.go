package textutil

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	allergenRe   = regexp.MustCompile(`\([^)]*\)\s*`)
)

// DecodeEntities resolves HTML entities like "Den Gr&#248;nne" -> "Den Grønne".
func DecodeEntities(s string) string {
	return html.UnescapeString(s)
}

// EncodeEntities renders non-ASCII runes and markup characters as HTML
// entities, e.g. "tilbehør" -> "tilbeh&#248;r". The source markup is
// inconsistent about encoding its attribute values, so lookups try both the
// decoded and this re-encoded form.
func EncodeEntities(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case r == '"':
			b.WriteString("&quot;")
		case r > 0x7e:
			fmt.Fprintf(&b, "&#%d;", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseWhitespace folds runs of whitespace (including newlines) into a
// single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// StripAllergens removes parenthetical allergen annotations together with any
// trailing whitespace, e.g. "Kylling (gluten, laktose) med ris" -> "Kylling med ris".
func StripAllergens(s string) string {
	return strings.TrimSpace(allergenRe.ReplaceAllString(s, ""))
}

// CapitalizeFirst uppercases the first rune and lowercases the rest,
// "mandag" -> "Mandag".
func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ExtractMainDishFromFirstItem derives a display dish from a raw
// "label: text" item: the part after the first colon, truncated to 100
// characters with an ellipsis. Items without a colon pass through unchanged.
func ExtractMainDishFromFirstItem(firstItem string) string {
	colonIndex := strings.Index(firstItem, ":")
	if colonIndex <= 0 || colonIndex >= len(firstItem)-1 {
		return firstItem
	}

	content := strings.TrimSpace(firstItem[colonIndex+1:])
	if runes := []rune(content); len(runes) > 100 {
		content = strings.TrimSpace(string(runes[:100])) + "..."
	}
	return content
}
