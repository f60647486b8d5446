package fuzzy

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Variable is a named scalar domain. Identity is the GUID; a variable is
// replaced as a whole, never patched.
type Variable struct {
	GUID  uuid.UUID `yaml:"guid" json:"guid"`
	Name  string    `yaml:"name" json:"name"`
	Lower float64   `yaml:"lower" json:"lower"`
	Upper float64   `yaml:"upper" json:"upper"`
}

// NewVariable creates a variable with a fresh GUID.
func NewVariable(name string, lower, upper float64) Variable {
	return Variable{GUID: uuid.New(), Name: name, Lower: lower, Upper: upper}
}

// Validate checks the bounds invariant.
func (v Variable) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("variable %s: empty name", v.GUID)
	}
	if !(v.Lower < v.Upper) {
		return fmt.Errorf("variable %q [%g, %g]: %w", v.Name, v.Lower, v.Upper, ErrInvalidBounds)
	}
	return nil
}

// Contains reports whether x lies inside the closed domain.
func (v Variable) Contains(x float64) bool {
	return x >= v.Lower && x <= v.Upper
}

// Index maps a crisp value to the nearest of n evenly spaced samples.
func (v Variable) Index(x float64, n int) int {
	i := int(math.Round((x - v.Lower) / (v.Upper - v.Lower) * float64(n-1)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
