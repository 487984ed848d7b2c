package characteristic

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type of a characteristic value.
type Kind int

// Value kinds.
const (
	KindBool Kind = iota + 1
	KindInt
	KindString
)

// String returns the kind's name as stored in the database.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "bool":
		return KindBool, nil
	case "int":
		return KindInt, nil
	case "string":
		return KindString, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidValue, s)
	}
}

// Value is a tagged bool, int or string. The zero Value has no kind and
// matches no entry.
type Value struct {
	kind Kind
	b    bool
	i    int
	s    string
}

// BoolValue returns a bool Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue returns an int Value.
func IntValue(i int) Value { return Value{kind: KindInt, i: i} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the bool payload; false for other kinds.
func (v Value) Bool() bool { return v.kind == KindBool && v.b }

// Int returns the int payload; 0 for other kinds.
func (v Value) Int() int {
	if v.kind != KindInt {
		return 0
	}
	return v.i
}

// Str returns the string payload; "" for other kinds.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// IsValid reports whether v has a kind.
func (v Value) IsValid() bool { return v.kind != 0 }

// Equal reports whether v and o have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindString:
		return v.s == o.s
	default:
		return true
	}
}

// String formats the value as text: "true"/"false", decimal, or the raw
// string. Parse reverses it.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.Itoa(v.i)
	case KindString:
		return v.s
	default:
		return "<invalid>"
	}
}

// Parse reads text as a value of kind. Bools also accept ON/OFF and 1/0,
// case-insensitively.
func Parse(kind Kind, text string) (Value, error) {
	switch kind {
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "true", "on", "1":
			return BoolValue(true), nil
		case "false", "off", "0":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("%w: %q is not a bool", ErrInvalidValue, text)
	case KindInt:
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an int", ErrInvalidValue, text)
		}
		return IntValue(n), nil
	case KindString:
		return StringValue(text), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidValue, kind)
	}
}
