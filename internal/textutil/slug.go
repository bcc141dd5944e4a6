package textutil

import (
	"regexp"
	"strings"
)

var (
	danishReplacer = strings.NewReplacer(
		"ø", "oe",
		"å", "aa",
		"æ", "ae",
		"é", "e",
		"ü", "u",
	)
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9\-]`)
	multipleHyphensRe = regexp.MustCompile(`-+`)
)

// Slug derives a URL-safe identifier from a menu type name. Danish characters
// get fixed substitutions (ø→oe, å→aa, æ→ae), everything else non-alphanumeric
// becomes a hyphen. Pure and deterministic: the same name always yields the
// same slug, and a slug maps to itself.
func Slug(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	slug := danishReplacer.Replace(strings.ToLower(name))
	slug = nonAlphanumericRe.ReplaceAllString(slug, "-")
	slug = multipleHyphensRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
