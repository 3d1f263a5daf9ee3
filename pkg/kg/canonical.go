package kg

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var spaceRun = regexp.MustCompile(`\s+`)

// CanonicalKey is the ingestion-side identity of an entity name:
// lowercase with underscores. Keys in storage always use this form.
func CanonicalKey(name string) string {
	if name == "" {
		return ""
	}
	return spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// QueryKey is the query-side normalization: diacritics stripped, then
// uppercased with underscores. It intentionally differs from CanonicalKey;
// callers lowercase the result before a canonical-key lookup so the two
// schemes meet on the stored form.
func QueryKey(name string) string {
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		stripped = name
	}
	return spaceRun.ReplaceAllString(strings.ToUpper(strings.TrimSpace(stripped)), "_")
}

// RelationHash normalizes one (subject, predicate, object) triple into the
// dedup key used per document: an entity object contributes its canonical
// key, free text contributes its lowercased form.
func RelationHash(subjectKey, predicate, objectKeyOrText string) string {
	return subjectKey + "|" + strings.ToLower(strings.TrimSpace(predicate)) + "|" + objectKeyOrText
}
