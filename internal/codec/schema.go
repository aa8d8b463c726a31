// Detects stored objects lacking members the current type requires.

package codec

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
)

type schemaKey struct {
	t   reflect.Type
	tag string
}

var schemas sync.Map // schemaKey -> *jsonschema.Schema

// schemaFor reflects the JSON Schema of t, naming members after tag.
//
// It returns nil for types that are not structs: only objects have required
// members. Fields without omitempty are required, following the reflector's
// rules.
func schemaFor(t reflect.Type, tag string) *jsonschema.Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	key := schemaKey{t: t, tag: tag}
	if s, ok := schemas.Load(key); ok {
		return s.(*jsonschema.Schema)
	}
	r := jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
		FieldNameTag:              tag,
	}
	s, _ := schemas.LoadOrStore(key, r.ReflectFromType(t))
	return s.(*jsonschema.Schema)
}

// checkRequired walks raw alongside s and reports the first required member
// that is absent.
//
// A top-level null stands for an object with no members. Nested nulls are
// legitimate values for pointer fields and are not inspected.
func checkRequired(s *jsonschema.Schema, raw any) error {
	if s == nil {
		return nil
	}
	if raw == nil {
		if len(s.Required) != 0 {
			return fmt.Errorf("missing required field %q", s.Required[0])
		}
		return nil
	}
	return walkRequired(s, raw, "")
}

func walkRequired(s *jsonschema.Schema, raw any, path string) error {
	if s == nil {
		return nil
	}
	switch v := raw.(type) {
	case map[string]any:
		for _, name := range s.Required {
			if _, ok := v[name]; !ok {
				return fmt.Errorf("missing required field %q", path+name)
			}
		}
		if s.Properties != nil && s.Properties.Len() != 0 {
			for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
				if e, ok := v[pair.Key]; ok {
					if err := walkRequired(pair.Value, e, path+pair.Key+"."); err != nil {
						return err
					}
				}
			}
			return nil
		}
		// Go maps reflect as additionalProperties.
		for k, e := range v {
			if err := walkRequired(s.AdditionalProperties, e, path+k+"."); err != nil {
				return err
			}
		}
	case []any:
		for i, e := range v {
			if err := walkRequired(s.Items, e, fmt.Sprintf("%s%d.", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}
