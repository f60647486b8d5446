package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		RNGSeed: 42,
		Tick:    1000,
		Model:   "flocking",
		Drives:  map[string]bool{"avoid": true, "cruise": false},
		Agents: []AgentState{
			{
				ID:        1,
				Pos:       Vec{X: 150, Y: 20, Z: 250},
				Vel:       Vec{X: 0.5, Z: -0.3},
				Dir:       Vec{X: 0.857, Z: -0.514},
				Turn:      -0.25,
				Throttle:  0.8,
				NoiseSeed: 17.5,
			},
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_1000.json" {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, snapshot) {
		t.Errorf("loaded snapshot = %+v, want %+v", loaded, snapshot)
	}
}

func TestSnapshotVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	data, _ := json.Marshal(Snapshot{Version: SnapshotVersion + 1})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadSnapshot(path)
	if err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("LoadSnapshot error = %v, want version mismatch", err)
	}
}

func TestVecConversion(t *testing.T) {
	v := r3.Vec{X: 1.5, Y: -2, Z: 3.25}
	if got := VecOf(v).R3(); got != v {
		t.Errorf("round trip = %v, want %v", got, v)
	}
}
