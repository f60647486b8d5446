package fuzzy

import (
	"fmt"

	"github.com/google/uuid"
)

// VariableValue is a named fuzzy set over a variable. Samples is derived
// from Curve and is rebuilt by Resample after every edit.
type VariableValue struct {
	GUID         uuid.UUID `yaml:"guid" json:"guid"`
	Name         string    `yaml:"name" json:"name"`
	VariableGUID uuid.UUID `yaml:"variable" json:"variable"`
	Curve        Curve     `yaml:"curve" json:"curve"`

	Samples Sample `yaml:"-" json:"-"`
}

// NewValue creates a fuzzy set for v with the given curve and samples it
// at the default resolution.
func NewValue(v Variable, name string, curve Curve) VariableValue {
	vv := VariableValue{
		GUID:         uuid.New(),
		Name:         name,
		VariableGUID: v.GUID,
		Curve:        curve.Sorted(),
	}
	vv.Resample(v, DefaultSampleCount)
	return vv
}

// NewTriangle creates a triangular fuzzy set rising from left to a peak
// of 1 at peak and falling back to 0 at right. Feet outside v's domain
// are clipped by the curve's end hold.
func NewTriangle(v Variable, name string, left, peak, right float64) VariableValue {
	var c Curve
	if left < peak {
		c = append(c, Linear(left, 0))
	}
	c = append(c, Linear(peak, 1))
	if right > peak {
		c = append(c, Linear(right, 0))
	}
	return NewValue(v, name, c)
}

// NewTrapezoid creates a fuzzy set with a flat top between b and c.
func NewTrapezoid(v Variable, name string, a, b, c, d float64) VariableValue {
	var curve Curve
	if a < b {
		curve = append(curve, Linear(a, 0))
	}
	curve = append(curve, Linear(b, 1), Linear(c, 1))
	if d > c {
		curve = append(curve, Linear(d, 0))
	}
	return NewValue(v, name, curve)
}

// Resample rebuilds Samples with n points over v's domain.
func (vv *VariableValue) Resample(v Variable, n int) {
	vv.Samples = vv.Curve.Discretise(v, n)
}

// Repair enforces that the curve carries explicit keys at both bounds of
// v and resamples it.
func (vv *VariableValue) Repair(v Variable, n int) {
	vv.Curve = vv.Curve.RepairBounds(v)
	vv.Resample(v, n)
}

// Membership returns the sampled membership of crisp value x.
func (vv VariableValue) Membership(v Variable, x float64) float64 {
	n := vv.Samples.Len()
	if n == 0 {
		return 0
	}
	return clamp01(vv.Samples.Y[v.Index(x, n)])
}

// Validate checks that the value refers to v.
func (vv VariableValue) Validate(v Variable) error {
	if vv.Name == "" {
		return fmt.Errorf("value %s: empty name", vv.GUID)
	}
	if vv.VariableGUID != v.GUID {
		return fmt.Errorf("value %q: %w", vv.Name, ErrUnknownVariable)
	}
	return nil
}
