package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the tagged condition value type.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

// Value is the loosely-typed condition operand (string | number | bool |
// string list) represented as a small tagged type instead of an untyped blob.
// The zero Value is null.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []string
}

func StringValue(s string) Value     { return Value{kind: KindString, str: s} }
func NumberValue(n float64) Value    { return Value{kind: KindNumber, num: n} }
func BoolValue(b bool) Value         { return Value{kind: KindBool, b: b} }
func ListValue(items []string) Value { return Value{kind: KindList, list: items} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }

// AsNumber coerces the value to a float64. Strings parse via strconv; bools
// and lists do not coerce.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// AsString returns the canonical string representation of the value.
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// AsList returns the value as a string list when it is one.
func (v Value) AsList() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsBool returns the value as a bool when it is one.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// MarshalJSON writes the natural JSON form for each kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		return json.Marshal(v.list)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON accepts null, string, number, bool or an array of strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Value{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = StringValue(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = ListValue(list)
		return nil
	}

	return fmt.Errorf("unsupported condition value: %s", trimmed)
}
