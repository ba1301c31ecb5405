package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
)

// decodeJSON parses a request body. Unknown fields are tolerated (the wire
// format carries client bookkeeping at times), but an empty body is not.
func decodeJSON(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(data, v)
}
