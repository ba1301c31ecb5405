package client

import "github.com/hmpharma/pharmacy-api/entities"

// IndexByID indexes a candidate list by identifier. Records without an
// identifier are skipped; duplicate identifiers keep the last occurrence.
func IndexByID[T entities.Record](list []T) map[int64]T {
	index := make(map[int64]T, len(list))
	for _, rec := range list {
		if id := rec.GetID(); id != nil {
			index[*id] = rec
		}
	}
	return index
}

// Resolve looks a reference identifier up in a previously fetched candidate
// index. A nil id means no association. This is the read-side join between an
// entity's reference field and the referenced type's list, kept independent
// of any network concern.
func Resolve[T entities.Record](id *int64, index map[int64]T) (T, bool) {
	var zero T
	if id == nil {
		return zero, false
	}
	rec, ok := index[*id]
	if !ok {
		return zero, false
	}
	return rec, true
}
