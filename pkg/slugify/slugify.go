package slugify

import (
	"strconv"
	"strings"
	"unicode"
)

// Slugify lowercases the input and collapses every run of non-alphanumeric
// characters into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	prevHyphen := true // swallow leading separators
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevHyphen = false
			continue
		}
		if !prevHyphen {
			b.WriteByte('-')
			prevHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Unique derives a slug from base and, if the exists predicate reports it
// taken, appends -1, -2, ... until a free slug is found. The predicate is
// injected so the loop is testable without a live store.
func Unique(base string, exists func(slug string) bool) string {
	slug := Slugify(base)
	if slug == "" {
		slug = "n-a"
	}
	if !exists(slug) {
		return slug
	}
	for i := 1; ; i++ {
		candidate := slug + "-" + strconv.Itoa(i)
		if !exists(candidate) {
			return candidate
		}
	}
}
