package dbtypes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONDocument is an opaque JSON value stored in a jsonb column (text in SQLite).
type JSONDocument json.RawMessage

// NewJSONDocument marshals v into a document.
func NewJSONDocument(v any) (JSONDocument, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("JSONDocument: marshal: %w", err)
	}
	return JSONDocument(b), nil
}

func (d *JSONDocument) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case string:
		*d = JSONDocument(v)
	case []byte:
		*d = append(JSONDocument(nil), v...)
	default:
		return fmt.Errorf("JSONDocument: unsupported Scan type %T", src)
	}
	if !json.Valid(*d) {
		return fmt.Errorf("JSONDocument: invalid json %q", string(*d))
	}
	return nil
}

func (d JSONDocument) Value() (driver.Value, error) {
	if len(bytes.TrimSpace(d)) == 0 {
		return "null", nil
	}
	return string(d), nil
}

// Decode unmarshals the document into dest. Empty documents leave dest untouched.
func (d JSONDocument) Decode(dest any) error {
	trimmed := bytes.TrimSpace(d)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, dest)
}

func (d JSONDocument) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(d)) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}
