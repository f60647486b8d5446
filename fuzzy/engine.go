package fuzzy

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Engine is one agent's inference state: crisp values, the enabled drive
// set and the forest assembled from it. The Library behind it is shared.
// An Engine is not safe for concurrent use.
type Engine struct {
	lib      *Library
	ops      SetOperations
	policy   Policy
	parallel int
	logger   *slog.Logger

	enabled map[string]bool
	forest  *Forest

	crisp    []Value
	strength []Value
	agg      map[*libVar][]float64
	touched  []*libVar
}

// EngineOption configures NewEngine.
type EngineOption func(*Engine)

// WithMode selects the set-operation strategy.
func WithMode(m Mode) EngineOption {
	return func(e *Engine) { e.ops = Operations(m) }
}

// WithOperations installs a custom set-operation strategy.
func WithOperations(ops SetOperations) EngineOption {
	return func(e *Engine) { e.ops = ops }
}

// WithPolicy selects how aggregates treat undefined children.
func WithPolicy(p Policy) EngineOption {
	return func(e *Engine) { e.policy = p }
}

// WithParallelRoots evaluates up to n roots concurrently in StepContext.
func WithParallelRoots(n int) EngineOption {
	return func(e *Engine) { e.parallel = n }
}

// WithLogger sets the logger used for rebuild events.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithDisabledDrives starts the engine with the named drives off,
// regardless of the model's flags.
func WithDisabledDrives(names ...string) EngineOption {
	return func(e *Engine) {
		for _, n := range names {
			e.enabled[n] = false
		}
	}
}

// WithDriveFlags overrides the model's flags for the drives named in
// flags. Names the model does not define are ignored.
func WithDriveFlags(flags map[string]bool) EngineOption {
	return func(e *Engine) {
		for n, on := range flags {
			if _, ok := e.enabled[n]; ok {
				e.enabled[n] = on
			}
		}
	}
}

// NewEngine creates an engine over lib with the model's drive flags and
// assembles its forest.
func NewEngine(lib *Library, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		lib:     lib,
		ops:     MinMax{},
		logger:  slog.Default(),
		enabled: make(map[string]bool, len(lib.drives)),
		crisp:   make([]Value, len(lib.order)),
		agg:     make(map[*libVar][]float64, len(lib.outputs)),
	}
	for _, d := range lib.model.Drives {
		e.enabled[d.Name] = d.Enabled
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Rebuild(); err != nil {
		return nil, err
	}
	return e, nil
}

// Library returns the shared library.
func (e *Engine) Library() *Library { return e.lib }

// Forest returns the current forest.
func (e *Engine) Forest() *Forest { return e.forest }

// Mode returns the active set-operation mode.
func (e *Engine) Mode() Mode { return e.ops.Mode() }

// SetValue sets the crisp value of a variable. Unknown names and values
// outside the variable's bounds are rejected without mutation.
func (e *Engine) SetValue(name string, x float64) bool {
	lv, ok := e.lib.byName[name]
	if !ok || !lv.Contains(x) {
		return false
	}
	e.crisp[lv.slot] = Some(x)
	return true
}

// ClearValue makes a variable undefined.
func (e *Engine) ClearValue(name string) bool {
	lv, ok := e.lib.byName[name]
	if !ok {
		return false
	}
	e.crisp[lv.slot] = Undefined
	return true
}

// GetValue returns the current crisp value of a variable.
func (e *Engine) GetValue(name string) Value {
	lv, ok := e.lib.byName[name]
	if !ok {
		return Undefined
	}
	return e.crisp[lv.slot]
}

// Reset clears every crisp value.
func (e *Engine) Reset() {
	for i := range e.crisp {
		e.crisp[i] = Undefined
	}
}

// DriveEnabled reports whether the named drive is enabled.
func (e *Engine) DriveEnabled(name string) bool {
	return e.enabled[name]
}

// SetDriveEnabled toggles a drive and rebuilds the forest. On failure the
// flag and the previous forest are kept.
func (e *Engine) SetDriveEnabled(name string, enabled bool) error {
	if _, ok := e.lib.drives[name]; !ok {
		return fmt.Errorf("drive %q: %w", name, ErrUnknownDrive)
	}
	prev := e.enabled[name]
	if prev == enabled {
		return nil
	}
	e.enabled[name] = enabled
	if err := e.Rebuild(); err != nil {
		e.enabled[name] = prev
		return err
	}
	return nil
}

// Rebuild reassembles the forest from the enabled drives.
func (e *Engine) Rebuild() error {
	drives := make([]*Drive, 0, len(e.enabled))
	for i := range e.lib.model.Drives {
		d := &e.lib.model.Drives[i]
		if e.enabled[d.Name] {
			drives = append(drives, d)
		}
	}
	f, err := Assemble(e.lib, drives)
	if err != nil {
		return fmt.Errorf("assemble forest: %w", err)
	}
	e.forest = f
	e.strength = make([]Value, len(f.Roots))
	e.logger.Debug("forest rebuilt",
		"drives", f.Drives(),
		"roots", len(f.Roots),
		"nodes", len(f.Nodes),
		"orphans", f.Orphans,
	)
	return nil
}

// Step runs one inference tick. Every output is cleared before
// defuzzification, so an output no rule fired for reads back undefined.
func (e *Engine) Step() {
	for i, r := range e.forest.Roots {
		e.strength[i] = e.evalRoot(r)
	}
	e.defuzzify()
}

// StepContext is Step with root evaluation spread over goroutines when
// parallel roots are enabled. Aggregation stays in root order.
func (e *Engine) StepContext(ctx context.Context) error {
	if e.parallel <= 1 || len(e.forest.Roots) < 2 {
		e.Step()
		return ctx.Err()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)
	for i, r := range e.forest.Roots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.strength[i] = e.evalRoot(r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	e.defuzzify()
	return nil
}

func (e *Engine) evalRoot(r int) Value {
	return e.forest.Evaluate(r, e.crisp, e.ops, e.policy)
}

func (e *Engine) defuzzify() {
	for _, lv := range e.lib.outputs {
		e.crisp[lv.slot] = Undefined
	}
	e.touched = e.touched[:0]
	mode := e.ops.Mode()
	for i, r := range e.forest.Roots {
		v := e.strength[i]
		if !v.OK {
			continue
		}
		val := e.forest.Nodes[r].Value
		table := e.lib.table(val, mode, v.V)
		lv := val.variable
		if e.isTouched(lv) {
			e.ops.UnionSamples(e.agg[lv], table)
			continue
		}
		dst := e.agg[lv]
		if len(dst) != len(table) {
			dst = make([]float64, len(table))
			e.agg[lv] = dst
		}
		copy(dst, table)
		e.touched = append(e.touched, lv)
	}
	for _, lv := range e.touched {
		e.crisp[lv.slot] = CenterOfGravity(lv.grid, e.agg[lv])
	}
}

func (e *Engine) isTouched(lv *libVar) bool {
	for _, t := range e.touched {
		if t == lv {
			return true
		}
	}
	return false
}

// CenterOfGravity returns sum(x*y)/sum(y), or Undefined when the total
// membership is zero.
func CenterOfGravity(x, y []float64) Value {
	sy := floats.Sum(y)
	if sy == 0 {
		return Undefined
	}
	return Some(floats.Dot(x, y) / sy)
}
