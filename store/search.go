package store

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips diacritics so "Doliprane Bébé" matches "bebe".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases text and removes diacritical marks, producing the canonical
// form stored in search_text and used for query matching.
func Fold(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// SearchText derives the folded free-text index value from a record document:
// every top-level string field, folded and space-joined in field order.
func SearchText(doc []byte) string {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return ""
	}

	fields := make([]string, 0, len(m))
	for field, value := range m {
		if _, ok := value.(string); ok {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, Fold(m[field].(string)))
	}
	return strings.Join(parts, " ")
}

// escapeLike escapes LIKE wildcards in a user query.
func escapeLike(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, "%", `\%`)
	q = strings.ReplaceAll(q, "_", `\_`)
	return q
}
