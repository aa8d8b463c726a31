package codec

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type inner struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`
}

type prefs struct {
	Count  int      `json:"count" yaml:"count"`
	Label  string   `json:"label" yaml:"label"`
	Tags   []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Server *inner   `json:"server,omitempty" yaml:"server,omitempty"`
}

func TestDecode(t *testing.T) {
	jsonCodec := JSON{Options: DefaultOptions()}
	strictJSON := JSON{}
	yamlCodec := YAML{Options: DefaultOptions()}
	strictYAML := YAML{}

	tests := []struct {
		name     string
		codec    Codec
		data     string
		wantKind Kind
		want     prefs
	}{
		{"json match", jsonCodec, `{"count":5,"label":"a"}`, Decoded, prefs{Count: 5, Label: "a"}},
		{"json nested match", jsonCodec, `{"count":1,"label":"b","server":{"host":"h"}}`, Decoded, prefs{Count: 1, Label: "b", Server: &inner{Host: "h"}}},
		{"json unknown ignored", jsonCodec, `{"count":5,"label":"a","extra":true}`, Decoded, prefs{Count: 5, Label: "a"}},
		{"json unknown strict", strictJSON, `{"count":5,"label":"a","extra":true}`, Mismatch, prefs{}},
		{"json missing required", jsonCodec, `{"count":5}`, Mismatch, prefs{}},
		{"json missing nested required", jsonCodec, `{"count":5,"label":"a","server":{"port":80}}`, Mismatch, prefs{}},
		{"json type mismatch", jsonCodec, `{"count":"five","label":"a"}`, Mismatch, prefs{}},
		{"json array", jsonCodec, `[1,2]`, Mismatch, prefs{}},
		{"json null", jsonCodec, `null`, Mismatch, prefs{}},
		{"json syntax", jsonCodec, `{"count":`, Fatal, prefs{}},
		{"json empty", jsonCodec, ``, Fatal, prefs{}},
		{"json trailing garbage", jsonCodec, `{"count":5,"label":"a"} }`, Fatal, prefs{}},
		{"yaml match", yamlCodec, "count: 5\nlabel: a\n", Decoded, prefs{Count: 5, Label: "a"}},
		{"yaml unknown ignored", yamlCodec, "count: 5\nlabel: a\nextra: true\n", Decoded, prefs{Count: 5, Label: "a"}},
		{"yaml unknown strict", strictYAML, "count: 5\nlabel: a\nextra: true\n", Mismatch, prefs{}},
		{"yaml missing required", yamlCodec, "count: 5\n", Mismatch, prefs{}},
		{"yaml type mismatch", yamlCodec, "count: [1]\nlabel: a\n", Mismatch, prefs{}},
		{"yaml syntax", yamlCodec, "count: [1\n", Fatal, prefs{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Decode[prefs](tt.codec, []byte(tt.data))
			if out.Kind != tt.wantKind {
				t.Fatalf("Decode() kind = %v (err %v), want %v", out.Kind, out.Err, tt.wantKind)
			}
			switch out.Kind {
			case Decoded:
				if !reflect.DeepEqual(out.Value, tt.want) {
					t.Errorf("Decode() value = %+v, want %+v", out.Value, tt.want)
				}
			case Mismatch:
				if out.Err == nil {
					t.Error("Decode() mismatch without a reason")
				}
			case Fatal:
				if !errors.Is(out.Err, ErrCorrupt) {
					t.Errorf("Decode() err = %v, want ErrCorrupt", out.Err)
				}
			}
		})
	}
}

func TestDecodeMismatchRaw(t *testing.T) {
	out := Decode[prefs](Default(), []byte(`{"count":3,"old":"x"}`))
	if out.Kind != Mismatch {
		t.Fatalf("Decode() kind = %v, want mismatch", out.Kind)
	}
	want := map[string]any{"count": float64(3), "old": "x"}
	if !reflect.DeepEqual(out.Raw, want) {
		t.Errorf("Decode() raw = %#v, want %#v", out.Raw, want)
	}
	if !strings.Contains(out.Err.Error(), `"label"`) {
		t.Errorf("Decode() err = %v, want mention of label", out.Err)
	}
}

func TestDecodeScalar(t *testing.T) {
	t.Run("int", func(t *testing.T) {
		out := Decode[int](Default(), []byte("3"))
		if out.Kind != Decoded || out.Value != 3 {
			t.Errorf("Decode() = %v %d, want decoded 3", out.Kind, out.Value)
		}
	})
	t.Run("int from string", func(t *testing.T) {
		out := Decode[int](Default(), []byte(`"3"`))
		if out.Kind != Mismatch {
			t.Errorf("Decode() kind = %v, want mismatch", out.Kind)
		}
	})
	t.Run("map", func(t *testing.T) {
		out := Decode[map[string]any](Default(), []byte(`{"a":1}`))
		if out.Kind != Decoded || out.Value["a"] != float64(1) {
			t.Errorf("Decode() = %v %v, want decoded", out.Kind, out.Value)
		}
	})
}

func TestMarshal(t *testing.T) {
	v := prefs{Count: 0, Label: "x"}
	tests := []struct {
		name  string
		codec Codec
		want  string
	}{
		{"json defaults", JSON{Options: DefaultOptions()}, `{"count":0,"label":"x"}`},
		{"json no defaults", JSON{Options: Options{IgnoreUnknownFields: true}}, `{"label":"x"}`},
		{"yaml defaults", YAML{Options: DefaultOptions()}, "count: 0\nlabel: x\n"},
		{"yaml no defaults", YAML{}, "label: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.codec.Marshal(v)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("large integers survive pruning", func(t *testing.T) {
		got, err := JSON{}.Marshal(map[string]any{"id": uint64(1) << 60, "zero": 0})
		if err != nil {
			t.Fatal(err)
		}
		if want := `{"id":1152921504606846976}`; string(got) != want {
			t.Errorf("Marshal() = %s, want %s", got, want)
		}
	})

	t.Run("scalars are kept", func(t *testing.T) {
		got, err := JSON{}.Marshal(0)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "0" {
			t.Errorf("Marshal(0) = %s, want 0", got)
		}
	})
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{Decoded: "decoded", Mismatch: "mismatch", Fatal: "fatal", Kind(9): "Kind(9)"} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
