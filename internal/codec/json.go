package codec

import (
	"bytes"
	"encoding/json"
)

// JSON is the codec using encoding/json.
type JSON struct {
	Options
}

// Name returns "json".
func (JSON) Name() string { return "json" }

// FieldTag returns "json".
func (JSON) FieldTag() string { return "json" }

// Marshal serializes v to JSON bytes.
func (j JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || j.EncodeDefaults {
		return data, err
	}
	// Round-trip through a tree to drop zero members. UseNumber keeps large
	// integers intact.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return json.Marshal(pruneDefaults(raw))
}

// Unmarshal deserializes JSON bytes into v.
func (j JSON) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if !j.IgnoreUnknownFields {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(v)
}

// UnmarshalRaw deserializes JSON bytes into a tree. Numbers are float64.
func (JSON) UnmarshalRaw(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
