// Package codec serializes store values and classifies decode failures.
//
// A Codec turns values into bytes and back. Decode layers a classification on
// top: the bytes either decode into the current type, or they are structured
// data of another shape (a migration candidate), or they are not structured
// data at all.
package codec

import (
	"encoding/json"
	"errors"
)

// ErrCorrupt is returned when stored bytes are not valid structured data.
var ErrCorrupt = errors.New("corrupt data")

// Options controls encoding and decoding.
type Options struct {
	// IgnoreUnknownFields accepts stored objects carrying members the target
	// type does not declare. When false such members are a schema mismatch.
	IgnoreUnknownFields bool
	// EncodeDefaults writes zero-valued object members. When false they are
	// omitted from the output.
	EncodeDefaults bool
}

// DefaultOptions returns the options stores use unless told otherwise.
func DefaultOptions() Options {
	return Options{IgnoreUnknownFields: true, EncodeDefaults: true}
}

// Codec encodes and decodes values for storage.
type Codec interface {
	// Name returns the codec identifier used for diagnostics.
	Name() string
	// FieldTag is the struct tag naming object members, e.g. "json".
	FieldTag() string
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v (must be a pointer).
	Unmarshal(data []byte, v any) error
	// UnmarshalRaw deserializes data into a schema-agnostic tree of
	// map[string]any, []any and scalars.
	UnmarshalRaw(data []byte) (any, error)
}

// Default returns a JSON codec with DefaultOptions.
func Default() Codec {
	return JSON{Options: DefaultOptions()}
}

// pruneDefaults removes zero-valued members from every object in the tree.
func pruneDefaults(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			e = pruneDefaults(e)
			if isZero(e) {
				delete(t, k)
			} else {
				t[k] = e
			}
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = pruneDefaults(e)
		}
		return t
	default:
		return v
	}
}

func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case uint64:
		return t == 0
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
