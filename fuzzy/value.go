// Package fuzzy implements the fuzzy rule inference engine: membership
// sampling, rule forest assembly, set operations and centre-of-gravity
// defuzzification.
package fuzzy

import "strconv"

// Value is a crisp or membership value that may be undefined.
// The zero Value is undefined.
type Value struct {
	V  float64
	OK bool
}

// Undefined is the "no value" marker: input not set, no rule fired, or
// nothing strong enough to decide.
var Undefined = Value{}

// Some wraps a defined value.
func Some(v float64) Value {
	return Value{V: v, OK: true}
}

// Get returns the value and whether it is defined.
func (v Value) Get() (float64, bool) {
	return v.V, v.OK
}

// Or returns the value if defined, otherwise def.
func (v Value) Or(def float64) float64 {
	if v.OK {
		return v.V
	}
	return def
}

func (v Value) String() string {
	if !v.OK {
		return "undefined"
	}
	return strconv.FormatFloat(v.V, 'g', 6, 64)
}
