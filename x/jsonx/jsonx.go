// Package jsonx decodes bus payloads into typed values.
package jsonx

import "encoding/json"

// Decode converts a bus payload (raw bytes, a string, a typed value or
// a decoded map) into dst.
func Decode[T any](src any, dst *T) error {
	switch v := src.(type) {
	case T:
		*dst = v
		return nil
	case *T:
		if v != nil {
			*dst = *v
			return nil
		}
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
