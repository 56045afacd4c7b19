package tileprop

import (
	"fmt"
	"math"
	"strconv"
)

// Type is the declared type of a tile property.
type Type uint8

const (
	TypeString Type = iota
	TypeBool
	TypeInt
	TypeFloat
)

var typeNames = [...]string{
	TypeString: "string",
	TypeBool:   "bool",
	TypeInt:    "int",
	TypeFloat:  "float",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType maps a type tag to a Type. An empty tag is a string, matching
// how Tiled writes untyped properties.
func ParseType(tag string) (Type, error) {
	switch tag {
	case "", "string":
		return TypeString, nil
	case "bool":
		return TypeBool, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownType, tag)
}

// MarshalText lets Type appear directly in YAML and TOML documents.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Value is a decoded, typed property value. The zero Value is the empty string.
type Value struct {
	typ Type
	b   bool
	i   int64
	f   float64
	s   string
}

func BoolValue(b bool) Value { return Value{typ: TypeBool, b: b} }

func IntValue(i int64) Value { return Value{typ: TypeInt, i: i} }

func FloatValue(f float64) Value { return Value{typ: TypeFloat, f: f} }

func StringValue(s string) Value { return Value{typ: TypeString, s: s} }

func (v Value) Type() Type { return v.typ }

func (v Value) Bool() (bool, bool) { return v.b, v.typ == TypeBool }

func (v Value) Int() (int64, bool) { return v.i, v.typ == TypeInt }

func (v Value) Float() (float64, bool) { return v.f, v.typ == TypeFloat }

// Text returns the string payload; ok is false for non-string values.
func (v Value) Text() (string, bool) { return v.s, v.typ == TypeString }

// Widen converts v to type t when no information is lost. Only the identity
// and int -> float conversions are allowed.
func (v Value) Widen(t Type) (Value, bool) {
	if v.typ == t {
		return v, true
	}
	if v.typ == TypeInt && t == TypeFloat {
		f := float64(v.i)
		if math.Abs(f) > 1<<53 || int64(f) != v.i {
			return Value{}, false
		}
		return FloatValue(f), true
	}
	return Value{}, false
}

// Equal reports whether both values have the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeBool:
		return v.b == o.b
	case TypeInt:
		return v.i == o.i
	case TypeFloat:
		return v.f == o.f
	default:
		return v.s == o.s
	}
}

// String renders the value in the same notation Decode accepts.
func (v Value) String() string {
	switch v.typ {
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return v.s
	}
}
