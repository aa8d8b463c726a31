package codec

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// YAML is the codec using gopkg.in/yaml.v3, for stores meant to be edited by
// hand.
type YAML struct {
	Options
}

// Name returns "yaml".
func (YAML) Name() string { return "yaml" }

// FieldTag returns "yaml".
func (YAML) FieldTag() string { return "yaml" }

// Marshal serializes v to YAML bytes.
func (y YAML) Marshal(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil || y.EncodeDefaults {
		return data, err
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return yaml.Marshal(pruneDefaults(raw))
}

// Unmarshal deserializes YAML bytes into v. An empty document leaves v
// untouched.
func (y YAML) Unmarshal(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(!y.IgnoreUnknownFields)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// UnmarshalRaw deserializes YAML bytes into a tree.
func (YAML) UnmarshalRaw(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
