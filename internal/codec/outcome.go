package codec

import (
	"fmt"
	"reflect"
)

// Kind tags the result of Decode.
type Kind int

const (
	// Decoded means the bytes matched the current type.
	Decoded Kind = iota
	// Mismatch means the bytes are structured data of another shape.
	Mismatch
	// Fatal means the bytes are not structured data.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Decoded:
		return "decoded"
	case Mismatch:
		return "mismatch"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the tagged result of Decode.
//
// Value is set for Decoded. Raw is set for Mismatch. Err is set for Mismatch
// (the reason) and Fatal (wrapping ErrCorrupt).
type Outcome[T any] struct {
	Kind  Kind
	Value T
	Raw   any
	Err   error
}

// Decode classifies data as a T.
//
// The bytes are first parsed as a raw tree; failure there is Fatal. Then they
// are decoded as T; a type error, an unknown member in strict mode or a
// missing required member is a Mismatch carrying the raw tree.
func Decode[T any](c Codec, data []byte) Outcome[T] {
	raw, err := c.UnmarshalRaw(data)
	if err != nil {
		return Outcome[T]{Kind: Fatal, Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
	}
	var v T
	if err := c.Unmarshal(data, &v); err != nil {
		return Outcome[T]{Kind: Mismatch, Raw: raw, Err: err}
	}
	if err := checkRequired(schemaFor(reflect.TypeFor[T](), c.FieldTag()), raw); err != nil {
		return Outcome[T]{Kind: Mismatch, Raw: raw, Err: err}
	}
	return Outcome[T]{Kind: Decoded, Value: v}
}
