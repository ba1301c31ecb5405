package entities

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SortSpec is a parsed "field,direction" sort directive.
type SortSpec struct {
	Field string
	Desc  bool
}

// ParseSort parses a "field,direction" query value. An empty value yields the
// zero spec, which means "keep the fetched order".
func ParseSort(raw string) SortSpec {
	if raw == "" {
		return SortSpec{}
	}
	field, dir, _ := strings.Cut(raw, ",")
	return SortSpec{
		Field: strings.TrimSpace(field),
		Desc:  strings.EqualFold(strings.TrimSpace(dir), "desc"),
	}
}

// IsZero reports whether no sort was requested.
func (s SortSpec) IsZero() bool { return s.Field == "" }

// String renders the spec back into its wire form.
func (s SortSpec) String() string {
	if s.IsZero() {
		return ""
	}
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return s.Field + "," + dir
}

// SortRecords stably sorts records in place by the JSON field named in spec.
// Missing and null values order first ascending; numbers compare numerically,
// everything else by its string form. Descending is the exact reverse, with
// ties keeping their incoming order either way.
func SortRecords[T Record](recs []T, spec SortSpec) {
	if spec.IsZero() || len(recs) < 2 {
		return
	}
	keys := make([]any, len(recs))
	for i, r := range recs {
		keys[i] = fieldValue(r, spec.Field)
	}
	idx := make([]int, len(recs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if spec.Desc {
			return lessValue(keys[idx[b]], keys[idx[a]])
		}
		return lessValue(keys[idx[a]], keys[idx[b]])
	})
	out := make([]T, len(recs))
	for i, j := range idx {
		out[i] = recs[j]
	}
	copy(recs, out)
}

// fieldValue extracts one top-level JSON field from a record by round-tripping
// it through the wire codec, so the sort sees exactly what callers see.
func fieldValue(rec Record, field string) any {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m[field]
}

func lessValue(a, b any) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
