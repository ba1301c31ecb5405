package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hmpharma/pharmacy-api/entities"
)

// Clean prepares a record for the wire: null fields are stripped so only
// asserted values are transmitted, and dropID removes the identifier for
// creates (the backend assigns it). Returns the encoded JSON body.
func Clean(rec entities.Record, dropID bool) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	for field, value := range m {
		if value == nil {
			delete(m, field)
		}
	}
	if dropID {
		delete(m, "id")
	}

	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cleaned record: %w", err)
	}
	return body, nil
}

func urlQueryEscape(v string) string {
	return url.QueryEscape(v)
}
