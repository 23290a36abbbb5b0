// Package dataset holds the in-memory columnar tables of the telemetry
// database and the self-describing file format they are stored in.
package dataset

import (
	"math"
	"strconv"
)

// Kind is the scalar type of a column.
type Kind uint8

const (
	Int   Kind = iota + 1 // signed 64-bit integer
	Float                 // 64-bit float
	Text                  // UTF-8 text
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Text:
		return "string"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single scalar cell.
// The zero Value has no kind and renders as an empty string.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func IntValue(v int64) Value     { return Value{kind: Int, i: v} }
func FloatValue(v float64) Value { return Value{kind: Float, f: v} }
func TextValue(v string) Value   { return Value{kind: Text, s: v} }

func (v Value) Kind() Kind { return v.kind }

// Int returns the integer value, converting floats by truncation.
// Text values yield 0.
func (v Value) Int() int64 {
	switch v.kind {
	case Int:
		return v.i
	case Float:
		return int64(v.f)
	}
	return 0
}

// Float returns the float value, converting integers.
// Text values yield 0.
func (v Value) Float() float64 {
	switch v.kind {
	case Int:
		return float64(v.i)
	case Float:
		return v.f
	}
	return 0
}

// Text returns the text value. Numeric values are formatted.
func (v Value) Text() string {
	if v.kind == Text {
		return v.s
	}
	return v.String()
}

// Any returns the value as int64, float64 or string.
func (v Value) Any() any {
	switch v.kind {
	case Int:
		return v.i
	case Float:
		return v.f
	case Text:
		return v.s
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Text:
		return v.s
	}
	return ""
}

// Equal reports whether both values have the same kind and content.
// Floats compare by bit pattern, so a NaN cell equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind == Float && o.kind == Float {
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	}
	return v == o
}
