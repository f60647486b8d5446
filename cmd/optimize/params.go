// Package main provides CMA-ES optimization for flock motion and
// perception parameters.
package main

import (
	"github.com/pthm-cable/fuzzyflock/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Perception
			{Name: "perception_radius", Path: "agents.perception_radius", Min: 4, Max: 30},
			{Name: "horizontal_fov", Path: "agents.horizontal_fov", Min: 90, Max: 360},
			{Name: "vertical_fov", Path: "agents.vertical_fov", Min: 60, Max: 360},
			// Motion
			{Name: "max_speed", Path: "agents.max_speed", Min: 2, Max: 20},
			{Name: "turn_rate", Path: "agents.turn_rate", Min: 0.5, Max: 6},
			{Name: "accel", Path: "agents.accel", Min: 0.2, Max: 4},
			{Name: "wander_strength", Path: "agents.wander_strength", Min: 0, Max: 2},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes parameter values into cfg and recomputes its
// derived fields. Order must match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	c := pv.Clamp(values)

	cfg.Agents.PerceptionRadius = c[0]
	cfg.Agents.HorizontalFOV = c[1]
	cfg.Agents.VerticalFOV = c[2]
	cfg.Agents.MaxSpeed = c[3]
	cfg.Agents.TurnRate = c[4]
	cfg.Agents.Accel = c[5]
	cfg.Agents.WanderStrength = c[6]

	return cfg.Refresh()
}

// ExtractFromConfig reads the current parameter values from cfg, clamped
// to the search bounds.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return pv.Clamp([]float64{
		cfg.Agents.PerceptionRadius,
		cfg.Agents.HorizontalFOV,
		cfg.Agents.VerticalFOV,
		cfg.Agents.MaxSpeed,
		cfg.Agents.TurnRate,
		cfg.Agents.Accel,
		cfg.Agents.WanderStrength,
	})
}
