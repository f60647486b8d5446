package fuzzy

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Model is the authored rule set: variables, their fuzzy sets and the
// drives. It is the unit loaded from and saved to a model file.
type Model struct {
	Name    string          `yaml:"name,omitempty" json:"name,omitempty"`
	Inputs  []Variable      `yaml:"inputs" json:"inputs"`
	Outputs []Variable      `yaml:"outputs" json:"outputs"`
	Values  []VariableValue `yaml:"values" json:"values"`
	Drives  []Drive         `yaml:"drives" json:"drives"`
}

// LoadModel reads and parses a model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	m, err := ParseModel(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseModel checks data against the model schema, decodes it, validates
// references and samples every curve.
func ParseModel(data []byte) (*Model, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}
	var m Model
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.Resample(DefaultSampleCount)
	return &m, nil
}

// Marshal encodes the model as YAML.
func (m *Model) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the model to path.
func (m *Model) Save(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks bounds, unique names and GUIDs, and that every value
// and graph node refers to a known variable and value.
func (m *Model) Validate() error {
	guids := make(map[uuid.UUID]string)
	claim := func(id uuid.UUID, what string) error {
		if id == uuid.Nil {
			return fmt.Errorf("%s: missing guid", what)
		}
		if prev, ok := guids[id]; ok {
			return fmt.Errorf("%s and %s share %s: %w", prev, what, id, ErrDuplicateGUID)
		}
		guids[id] = what
		return nil
	}

	vars := make(map[uuid.UUID]Variable)
	names := make(map[string]bool)
	for _, group := range [][]Variable{m.Inputs, m.Outputs} {
		for _, v := range group {
			if err := v.Validate(); err != nil {
				return err
			}
			if err := claim(v.GUID, "variable "+v.Name); err != nil {
				return err
			}
			if names[v.Name] {
				return fmt.Errorf("variable name %q used twice", v.Name)
			}
			names[v.Name] = true
			vars[v.GUID] = v
		}
	}

	values := make(map[uuid.UUID]VariableValue)
	for _, vv := range m.Values {
		v, ok := vars[vv.VariableGUID]
		if !ok {
			return fmt.Errorf("value %q: variable %s: %w", vv.Name, vv.VariableGUID, ErrUnknownVariable)
		}
		if err := vv.Validate(v); err != nil {
			return err
		}
		if err := claim(vv.GUID, "value "+vv.Name); err != nil {
			return err
		}
		values[vv.GUID] = vv
	}

	driveNames := make(map[string]bool)
	for _, d := range m.Drives {
		if d.Name == "" || driveNames[d.Name] {
			return fmt.Errorf("drive name %q empty or used twice", d.Name)
		}
		driveNames[d.Name] = true
		if err := claim(d.GUID, "drive "+d.Name); err != nil {
			return err
		}
		for _, n := range d.Nodes {
			if err := claim(n.GUID, "node in "+d.Name); err != nil {
				return err
			}
			if !n.IsGraph() {
				continue
			}
			if _, ok := vars[n.VariableGUID]; !ok {
				return &AssemblyError{Drive: d.Name, Node: n.GUID, Err: ErrUnknownVariable}
			}
			vv, ok := values[n.ValueGUID]
			if !ok || vv.VariableGUID != n.VariableGUID {
				return &AssemblyError{Drive: d.Name, Node: n.GUID, Err: ErrUnknownValue}
			}
		}
	}
	return nil
}

// Resample rebuilds the samples of every value at resolution n.
func (m *Model) Resample(n int) {
	vars := m.variables()
	for i := range m.Values {
		vv := &m.Values[i]
		vv.Resample(vars[vv.VariableGUID], n)
	}
}

func (m *Model) variables() map[uuid.UUID]Variable {
	vars := make(map[uuid.UUID]Variable, len(m.Inputs)+len(m.Outputs))
	for _, v := range m.Inputs {
		vars[v.GUID] = v
	}
	for _, v := range m.Outputs {
		vars[v.GUID] = v
	}
	return vars
}

// VariableByName finds an input or output variable.
func (m *Model) VariableByName(name string) (Variable, bool) {
	for _, group := range [][]Variable{m.Inputs, m.Outputs} {
		for _, v := range group {
			if v.Name == name {
				return v, true
			}
		}
	}
	return Variable{}, false
}

// ValueByName finds a fuzzy set of the named variable.
func (m *Model) ValueByName(variable, value string) (VariableValue, bool) {
	v, ok := m.VariableByName(variable)
	if !ok {
		return VariableValue{}, false
	}
	for _, vv := range m.Values {
		if vv.VariableGUID == v.GUID && vv.Name == value {
			return vv, true
		}
	}
	return VariableValue{}, false
}

// Drive finds a drive by name.
func (m *Model) Drive(name string) (*Drive, bool) {
	for i := range m.Drives {
		if m.Drives[i].Name == name {
			return &m.Drives[i], true
		}
	}
	return nil, false
}

// AddDrive appends d to the model and returns the stored copy.
func (m *Model) AddDrive(d *Drive) *Drive {
	m.Drives = append(m.Drives, *d)
	return &m.Drives[len(m.Drives)-1]
}

// ReplaceVariable swaps the variable with the same GUID for v. When the
// bounds change every fuzzy set of the variable is repaired so its curve
// covers the new domain.
func (m *Model) ReplaceVariable(v Variable) error {
	if err := v.Validate(); err != nil {
		return err
	}
	var old *Variable
	for _, group := range []*[]Variable{&m.Inputs, &m.Outputs} {
		for i := range *group {
			if (*group)[i].GUID == v.GUID {
				old = &(*group)[i]
			}
		}
	}
	if old == nil {
		return fmt.Errorf("variable %s: %w", v.GUID, ErrUnknownVariable)
	}
	boundsChanged := old.Lower != v.Lower || old.Upper != v.Upper
	*old = v
	for i := range m.Values {
		vv := &m.Values[i]
		if vv.VariableGUID != v.GUID {
			continue
		}
		if boundsChanged {
			vv.Repair(v, DefaultSampleCount)
		} else {
			vv.Resample(v, DefaultSampleCount)
		}
	}
	return nil
}

// ReplaceValue swaps the fuzzy set with the same GUID and resamples it.
func (m *Model) ReplaceValue(vv VariableValue) error {
	v, ok := m.variables()[vv.VariableGUID]
	if !ok {
		return fmt.Errorf("value %q: %w", vv.Name, ErrUnknownVariable)
	}
	for i := range m.Values {
		if m.Values[i].GUID == vv.GUID {
			vv.Curve = vv.Curve.Sorted()
			vv.Resample(v, DefaultSampleCount)
			m.Values[i] = vv
			return nil
		}
	}
	return fmt.Errorf("value %s: %w", vv.GUID, ErrUnknownValue)
}

// ConnectedComponents counts the weakly connected components of the
// named drive.
func (m *Model) ConnectedComponents(drive string) (int, error) {
	d, ok := m.Drive(drive)
	if !ok {
		return 0, fmt.Errorf("drive %q: %w", drive, ErrUnknownDrive)
	}
	return d.ConnectedComponents(), nil
}
