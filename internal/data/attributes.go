package data

import (
	"strconv"
)

type ValueKind int

const (
	KindNumber ValueKind = iota
	KindText
	KindBool
)

// Typed scalar attribute value
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
	Bool   bool
}

func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// Interface returns the value as a plain go value, ready to be json encoded
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindBool:
		return v.Bool
	default:
		return v.Text
	}
}

// AsNumber converts the value to a float, parsing text values when possible
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindText:
		f, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

// Attributes is an insertion ordered map of named values
type Attributes struct {
	names  []string
	values map[string]Value
}

func NewAttributes() *Attributes {
	return &Attributes{
		names:  make([]string, 0),
		values: make(map[string]Value),
	}
}

// Set adds or replaces a value. Replacing keeps the original position.
func (a *Attributes) Set(name string, value Value) *Attributes {
	if _, ok := a.values[name]; !ok {
		a.names = append(a.names, name)
	}
	a.values[name] = value
	return a
}

func (a *Attributes) Get(name string) (Value, bool) {
	if a == nil {
		return Value{}, false
	}
	v, ok := a.values[name]
	return v, ok
}

// Resolve returns the value of the first alias present, in the order given
func (a *Attributes) Resolve(aliases ...string) (Value, string, bool) {
	for _, name := range aliases {
		if v, ok := a.Get(name); ok {
			return v, name, true
		}
	}
	return Value{}, "", false
}

// ResolveNumber is Resolve restricted to values convertible to a number
func (a *Attributes) ResolveNumber(aliases ...string) (float64, bool) {
	for _, name := range aliases {
		if v, ok := a.Get(name); ok {
			if f, ok := v.AsNumber(); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// Names returns the attribute names in insertion order
func (a *Attributes) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, len(a.names))
	copy(names, a.names)
	return names
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.names)
}
