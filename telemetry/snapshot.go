package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the simulation state needed to restart a run.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`
	Tick    int32 `json:"tick"`

	Model  string          `json:"model"` // model name
	Drives map[string]bool `json:"drives"`

	Agents []AgentState `json:"agents"`
}

// AgentState holds one agent's kinematic and steering state.
type AgentState struct {
	ID        uint32  `json:"id"`
	Pos       Vec     `json:"pos"`
	Vel       Vec     `json:"vel"`
	Dir       Vec     `json:"dir"`
	Turn      float64 `json:"turn"`
	Throttle  float64 `json:"throttle"`
	NoiseSeed float64 `json:"noise_seed"`
}

// Vec is the JSON form of r3.Vec.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// VecOf converts an r3.Vec.
func VecOf(v r3.Vec) Vec { return Vec{X: v.X, Y: v.Y, Z: v.Z} }

// R3 converts back to r3.Vec.
func (v Vec) R3() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
