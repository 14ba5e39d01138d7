package domain

import (
	"encoding/json"
	"testing"
)

func TestValueUnmarshalKinds(t *testing.T) {
	cases := []struct {
		raw  string
		kind ValueKind
	}{
		{`null`, KindNull},
		{`"qualified"`, KindString},
		{`42.5`, KindNumber},
		{`true`, KindBool},
		{`["hot","priority"]`, KindList},
	}

	for _, tc := range cases {
		var v Value
		if err := json.Unmarshal([]byte(tc.raw), &v); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if v.Kind() != tc.kind {
			t.Fatalf("kind of %s = %d, want %d", tc.raw, v.Kind(), tc.kind)
		}

		out, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", tc.raw, err)
		}
		var back Value
		if err := json.Unmarshal(out, &back); err != nil {
			t.Fatalf("re-unmarshal %s: %v", out, err)
		}
		if back.Kind() != tc.kind {
			t.Fatalf("round-trip of %s changed kind to %d", tc.raw, back.Kind())
		}
	}
}

func TestValueUnmarshalRejectsObjects(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"nested":"object"}`), &v); err == nil {
		t.Fatal("expected error for object value")
	}
}

func TestValueNumericCoercion(t *testing.T) {
	if n, ok := StringValue("250").AsNumber(); !ok || n != 250 {
		t.Fatalf("numeric string coercion = (%f, %v)", n, ok)
	}
	if _, ok := StringValue("abc").AsNumber(); ok {
		t.Fatal("non-numeric string should not coerce")
	}
	if _, ok := BoolValue(true).AsNumber(); ok {
		t.Fatal("bool should not coerce to number")
	}
	if _, ok := ListValue([]string{"1"}).AsNumber(); ok {
		t.Fatal("list should not coerce to number")
	}
}

func TestValueStringRepresentation(t *testing.T) {
	if got := NumberValue(12.5).AsString(); got != "12.5" {
		t.Fatalf("number string = %q", got)
	}
	if got := ListValue([]string{"a", "b"}).AsString(); got != "a,b" {
		t.Fatalf("list string = %q", got)
	}
	if got := (Value{}).AsString(); got != "" {
		t.Fatalf("null string = %q", got)
	}
}
