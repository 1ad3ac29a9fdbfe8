// models/models.go - shared helpers for JSON-encoded list columns
package models

import "encoding/json"

// DecodeStringList parses a JSON-encoded list column. Malformed or empty
// values decode to an empty list rather than an error; these columns are
// caches and a stale or broken value must never fail a read path.
func DecodeStringList(s string) []string {
	if s == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return []string{}
	}
	return out
}

// EncodeStringList serializes a list for storage in a text column.
func EncodeStringList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}
