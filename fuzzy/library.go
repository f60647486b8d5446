package fuzzy

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// DefaultBuckets is the number of firing-strength buckets, step 0.01.
const DefaultBuckets = 101

// Library is the read-only, shareable half of the engine: variables,
// fuzzy sets and the precomputed defuzzification tables. Engines built
// on the same Library share it without locking.
type Library struct {
	model   *Model
	samples int
	buckets int

	vars    map[uuid.UUID]*libVar
	byName  map[string]*libVar
	values  map[uuid.UUID]*libValue
	drives  map[string]*Drive
	order   []*libVar
	outputs []*libVar
}

type libVar struct {
	Variable
	output bool
	slot   int
	// grid holds the sample x positions shared by every value of the
	// variable.
	grid []float64
}

type libValue struct {
	VariableValue
	variable *libVar
	// clamp[b][i] = min(y_i, b/(buckets-1)); scale[b][i] = y_i * b/(buckets-1).
	clamp [][]float64
	scale [][]float64
}

// LibraryOption configures NewLibrary.
type LibraryOption func(*Library)

// WithSampleCount overrides the curve resolution.
func WithSampleCount(n int) LibraryOption {
	return func(l *Library) {
		if n >= 2 {
			l.samples = n
		}
	}
}

// WithBuckets overrides the firing-strength quantisation.
func WithBuckets(n int) LibraryOption {
	return func(l *Library) {
		if n >= 2 {
			l.buckets = n
		}
	}
}

// NewLibrary validates m, resamples every fuzzy set and builds the
// bucket tables. m is not retained for mutation; callers editing the
// model build a new Library.
func NewLibrary(m *Model, opts ...LibraryOption) (*Library, error) {
	l := &Library{
		model:   m,
		samples: DefaultSampleCount,
		buckets: DefaultBuckets,
		vars:    make(map[uuid.UUID]*libVar),
		byName:  make(map[string]*libVar),
		values:  make(map[uuid.UUID]*libValue),
		drives:  make(map[string]*Drive),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	addVar := func(v Variable, output bool) {
		lv := &libVar{Variable: v, output: output, slot: len(l.order)}
		lv.grid = Curve(nil).Discretise(v, l.samples).X
		l.vars[v.GUID] = lv
		l.byName[v.Name] = lv
		l.order = append(l.order, lv)
		if output {
			l.outputs = append(l.outputs, lv)
		}
	}
	for _, v := range m.Inputs {
		addVar(v, false)
	}
	for _, v := range m.Outputs {
		addVar(v, true)
	}

	for _, vv := range m.Values {
		lv := l.vars[vv.VariableGUID]
		val := &libValue{VariableValue: vv, variable: lv}
		val.Curve = vv.Curve.Sorted()
		val.Resample(lv.Variable, l.samples)
		if lv.output {
			val.clamp, val.scale = bucketTables(val.Samples.Y, l.buckets)
		}
		l.values[vv.GUID] = val
	}

	for i := range m.Drives {
		d := &m.Drives[i]
		l.drives[d.Name] = d
	}
	return l, nil
}

func bucketTables(y []float64, buckets int) (clamp, scale [][]float64) {
	clamp = make([][]float64, buckets)
	scale = make([][]float64, buckets)
	for b := 0; b < buckets; b++ {
		s := float64(b) / float64(buckets-1)
		c := make([]float64, len(y))
		p := make([]float64, len(y))
		for i, yi := range y {
			c[i] = math.Min(yi, s)
			p[i] = yi * s
		}
		clamp[b] = c
		scale[b] = p
	}
	return clamp, scale
}

// bucket quantises a firing strength to a table index.
func (l *Library) bucket(v float64) int {
	b := int(math.Round(clamp01(v) * float64(l.buckets-1)))
	if b < 0 {
		return 0
	}
	if b >= l.buckets {
		return l.buckets - 1
	}
	return b
}

// table returns the precomputed sample heights of value at strength v.
func (l *Library) table(value *libValue, mode Mode, v float64) []float64 {
	b := l.bucket(v)
	if mode == ModeProductSum {
		return value.scale[b]
	}
	return value.clamp[b]
}

// SampleCount returns the curve resolution.
func (l *Library) SampleCount() int { return l.samples }

// Buckets returns the firing-strength quantisation.
func (l *Library) Buckets() int { return l.buckets }

// Model returns the model the library was built from.
func (l *Library) Model() *Model { return l.model }

// Variable looks up a variable by name.
func (l *Library) Variable(name string) (Variable, bool) {
	lv, ok := l.byName[name]
	if !ok {
		return Variable{}, false
	}
	return lv.Variable, true
}

// IsOutput reports whether name is an output variable.
func (l *Library) IsOutput(name string) bool {
	lv, ok := l.byName[name]
	return ok && lv.output
}

// Value returns a fuzzy set with its samples.
func (l *Library) Value(id uuid.UUID) (VariableValue, bool) {
	v, ok := l.values[id]
	if !ok {
		return VariableValue{}, false
	}
	return v.VariableValue, true
}

// Drive returns the drive with the given name.
func (l *Library) Drive(name string) (*Drive, bool) {
	d, ok := l.drives[name]
	return d, ok
}

// DriveNames lists drives in model order.
func (l *Library) DriveNames() []string {
	names := make([]string, 0, len(l.model.Drives))
	for _, d := range l.model.Drives {
		names = append(names, d.Name)
	}
	return names
}

// OutputNames lists output variables in model order.
func (l *Library) OutputNames() []string {
	names := make([]string, len(l.outputs))
	for i, v := range l.outputs {
		names[i] = v.Name
	}
	return names
}

// InputNames lists input variables in model order.
func (l *Library) InputNames() []string {
	names := make([]string, 0, len(l.order)-len(l.outputs))
	for _, v := range l.order {
		if !v.output {
			names = append(names, v.Name)
		}
	}
	return names
}

func (l *Library) lookupValue(id uuid.UUID) (*libValue, error) {
	v, ok := l.values[id]
	if !ok {
		return nil, fmt.Errorf("value %s: %w", id, ErrUnknownValue)
	}
	return v, nil
}
