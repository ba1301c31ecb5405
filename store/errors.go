package store

import "errors"

// ErrNotFound keeps storage-level 404s consistent across every resource store.
var ErrNotFound = errors.New("record not found")
