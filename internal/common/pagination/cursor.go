// Package pagination implements the opaque cursor used by the
// articles listing endpoint (§6.1 GET /articles): base64(JSON) of a
// bookmark map, as the GLOSSARY's "Cursor" entry documents.
package pagination

import (
	"encoding/base64"
	"encoding/json"
)

// Encode serializes values to a URL-safe base64 string. A nil or
// empty map still yields a decodable cursor ("{}").
func Encode(values map[string]any) string {
	if values == nil {
		values = map[string]any{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode reverses Encode. An empty cursor, or one that fails to
// base64-decode or JSON-unmarshal, yields a nil map rather than an
// error — callers treat a nil map as "start from the beginning".
func Decode(cursor string) map[string]any {
	if cursor == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}

// String reads a string field out of a decoded cursor, returning ""
// if absent or of the wrong type.
func String(values map[string]any, key string) string {
	if values == nil {
		return ""
	}
	v, ok := values[key].(string)
	if !ok {
		return ""
	}
	return v
}

// Float reads a numeric field out of a decoded cursor (JSON numbers
// decode as float64), returning 0 if absent or of the wrong type.
func Float(values map[string]any, key string) float64 {
	if values == nil {
		return 0
	}
	v, ok := values[key].(float64)
	if !ok {
		return 0
	}
	return v
}
