package tileprop

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidBool  = errors.New("invalid bool")
	ErrInvalidInt   = errors.New("invalid int")
	ErrInvalidFloat = errors.New("invalid float")
	ErrUnknownType  = errors.New("unknown type")
)

// DecodeError reports a property whose raw value does not parse as its
// declared type. Reason is one of the Err* sentinels above.
type DecodeError struct {
	Name   string
	Type   string
	Raw    string
	Reason error
}

func (e *DecodeError) Error() string {
	if errors.Is(e.Reason, ErrUnknownType) {
		return fmt.Sprintf("property %q: %v %q", e.Name, ErrUnknownType, e.Type)
	}
	return fmt.Sprintf("property %q: %v %q", e.Name, e.Reason, e.Raw)
}

func (e *DecodeError) Unwrap() error { return e.Reason }

// Decode parses raw as a value of type t. It has no side effects and always
// returns either a value or a *DecodeError.
func Decode(name string, t Type, raw string) (Value, error) {
	fail := func(reason error) (Value, error) {
		return Value{}, &DecodeError{Name: name, Type: t.String(), Raw: raw, Reason: reason}
	}
	switch t {
	case TypeString:
		return StringValue(raw), nil
	case TypeBool:
		switch raw {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		}
		return fail(ErrInvalidBool)
	case TypeInt:
		if !isInteger(raw) {
			return fail(ErrInvalidInt)
		}
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fail(ErrInvalidInt)
		}
		return IntValue(i), nil
	case TypeFloat:
		if !isDecimal(raw) {
			return fail(ErrInvalidFloat)
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fail(ErrInvalidFloat)
		}
		return FloatValue(f), nil
	}
	return fail(ErrUnknownType)
}

// DecodeProperty resolves the property's type tag and decodes its value.
func DecodeProperty(p Property) (Value, error) {
	t, err := ParseType(p.Type)
	if err != nil {
		return Value{}, &DecodeError{Name: p.Name, Type: p.Type, Raw: p.Value, Reason: ErrUnknownType}
	}
	return Decode(p.Name, t, p.Value)
}

// isInteger accepts an optional leading '-' followed by one or more ASCII digits.
func isInteger(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	return digits(s) == len(s) && len(s) > 0
}

// isDecimal accepts [+-]digits[.digits]. Exponents, hex floats, inf and nan
// are rejected even though strconv would take them.
func isDecimal(s string) bool {
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	n := digits(s)
	if n == 0 {
		return false
	}
	s = s[n:]
	if s == "" {
		return true
	}
	if s[0] != '.' {
		return false
	}
	s = s[1:]
	return len(s) > 0 && digits(s) == len(s)
}

func digits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
