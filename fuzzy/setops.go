package fuzzy

import (
	"fmt"
	"strings"
)

// Policy decides how an aggregate treats undefined children.
type Policy uint8

const (
	// SkipUndefined ignores undefined children; the aggregate is undefined
	// only when every child is.
	SkipUndefined Policy = iota
	// StrictUndefined makes any undefined child undefine the aggregate.
	StrictUndefined
)

func (p Policy) String() string {
	if p == StrictUndefined {
		return "strict"
	}
	return "skip"
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "skip", "":
		*p = SkipUndefined
	case "strict":
		*p = StrictUndefined
	default:
		return fmt.Errorf("unknown undefined policy %q", b)
	}
	return nil
}

// Mode selects a set-operation strategy.
type Mode uint8

const (
	ModeMinMax Mode = iota
	ModeProductSum
)

func (m Mode) String() string {
	if m == ModeProductSum {
		return "product_sum"
	}
	return "min_max"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "min_max", "minmax", "":
		*m = ModeMinMax
	case "product_sum", "productsum":
		*m = ModeProductSum
	default:
		return fmt.Errorf("unknown set operation mode %q", b)
	}
	return nil
}

// EvalFunc evaluates the child at the given position of a children list.
type EvalFunc func(child int) Value

// SetOperations is a union/intersection strategy. Aggregates fold over
// children in list order.
type SetOperations interface {
	Mode() Mode
	Union(children int, eval EvalFunc, p Policy) Value
	Intersection(children int, eval EvalFunc, p Policy) Value
	// UnionSamples combines src into dst point-wise. Both must have the
	// same length.
	UnionSamples(dst, src []float64)
}

// Operations returns the strategy for m.
func Operations(m Mode) SetOperations {
	if m == ModeProductSum {
		return ProductSum{}
	}
	return MinMax{}
}

// MinMax is the Zadeh strategy: union is max, intersection is min.
type MinMax struct{}

func (MinMax) Mode() Mode { return ModeMinMax }

func (MinMax) Union(n int, eval EvalFunc, p Policy) Value {
	return fold(n, eval, p, func(a, b float64) float64 {
		if b > a {
			return b
		}
		return a
	})
}

func (MinMax) Intersection(n int, eval EvalFunc, p Policy) Value {
	return fold(n, eval, p, func(a, b float64) float64 {
		if b < a {
			return b
		}
		return a
	})
}

func (MinMax) UnionSamples(dst, src []float64) {
	for i, y := range src {
		if y > dst[i] {
			dst[i] = y
		}
	}
}

// ProductSum is the algebraic strategy: union is a+b-ab, intersection
// is ab.
type ProductSum struct{}

func (ProductSum) Mode() Mode { return ModeProductSum }

func (ProductSum) Union(n int, eval EvalFunc, p Policy) Value {
	return fold(n, eval, p, probSum)
}

func (ProductSum) Intersection(n int, eval EvalFunc, p Policy) Value {
	return fold(n, eval, p, func(a, b float64) float64 { return a * b })
}

func (ProductSum) UnionSamples(dst, src []float64) {
	for i, y := range src {
		dst[i] = probSum(dst[i], y)
	}
}

func probSum(a, b float64) float64 {
	return a + b - a*b
}

// fold combines defined children left to right. Under StrictUndefined
// the first undefined child ends the fold.
func fold(n int, eval EvalFunc, p Policy, op func(a, b float64) float64) Value {
	acc := Undefined
	for i := 0; i < n; i++ {
		v := eval(i)
		if !v.OK {
			if p == StrictUndefined {
				return Undefined
			}
			continue
		}
		if !acc.OK {
			acc = v
			continue
		}
		acc.V = op(acc.V, v.V)
	}
	return acc
}
