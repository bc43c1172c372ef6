package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Registered/trademark marks show up in upstream brand names ("Lipitor®").
	trademarkRe = regexp.MustCompile(`[®™©]`)
	// Separators users type between words of a drug name.
	separatorRe = regexp.MustCompile(`[\s_]+`)
)

// RemoveDiacritics strips combining marks after NFD decomposition, so "Pérez"
// becomes "Perez".
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// NormalizeDrugName returns the comparison form of a drug name: trimmed,
// lowercased, diacritics and trademark marks removed, inner whitespace
// collapsed to single spaces.
func NormalizeDrugName(name string) string {
	n := trademarkRe.ReplaceAllString(name, "")
	n = RemoveDiacritics(n)
	n = strings.ToLower(n)
	n = separatorRe.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// DisplayDrugName trims and collapses whitespace but keeps the caller's casing.
// Upstream name lookups are case-sensitive on some paths, so this is what
// gets sent over the wire.
func DisplayDrugName(name string) string {
	return strings.Join(strings.Fields(trademarkRe.ReplaceAllString(name, "")), " ")
}
