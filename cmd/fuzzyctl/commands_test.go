package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/fuzzyflock/fuzzy"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeExample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flock.yaml")
	_, err := execute(t, "example", "-o", path, "--radius", "10", "--max-speed", "5")
	require.NoError(t, err)
	return path
}

func TestExampleStdoutParses(t *testing.T) {
	out, err := execute(t, "example")
	require.NoError(t, err)

	m, err := fuzzy.ParseModel([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "flocking", m.Name)
	assert.Len(t, m.Drives, 3)
}

func TestValidate(t *testing.T) {
	path := writeExample(t)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `model "flocking": 4 inputs, 2 outputs`)
	assert.Contains(t, out, "drive avoid")
	assert.Contains(t, out, "drive cruise       3 component(s)")
	assert.Contains(t, out, "forest:")
}

func TestValidateRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inputs: 12\n"), 0o644))

	_, err := execute(t, "validate", path)
	assert.Error(t, err)
}

func TestForestDisable(t *testing.T) {
	path := writeExample(t)

	all, err := execute(t, "forest", path)
	require.NoError(t, err)
	some, err := execute(t, "forest", path, "--disable", "avoid,cohesion")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(all, "accumulator "))
	assert.Less(t, strings.Count(some, "\n"), strings.Count(all, "\n"))
	assert.NotContains(t, some, fuzzy.VarNearestBearing)
}

func TestForestUnknownDrive(t *testing.T) {
	path := writeExample(t)

	_, err := execute(t, "forest", path, "--disable", "nope")
	assert.ErrorIs(t, err, fuzzy.ErrUnknownDrive)
}

func TestEval(t *testing.T) {
	path := writeExample(t)

	out, err := execute(t, "eval", path, "speed=0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "in  speed              0.5")
	assert.Contains(t, out, "in  neighbor_count     undefined")

	var throttle string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "out throttle") {
			throttle = strings.TrimSpace(strings.TrimPrefix(line, "out throttle"))
		}
	}
	require.NotEmpty(t, throttle)
	assert.NotEqual(t, "undefined", throttle)
}

func TestEvalRejectsBadAssignments(t *testing.T) {
	path := writeExample(t)

	_, err := execute(t, "eval", path, "speed")
	assert.Error(t, err)
	_, err = execute(t, "eval", path, "speed=fast")
	assert.Error(t, err)
	_, err = execute(t, "eval", path, "altitude=1")
	assert.Error(t, err)
	_, err = execute(t, "eval", path, "speed=99")
	assert.Error(t, err)
}

func TestModeFlag(t *testing.T) {
	path := writeExample(t)

	_, err := execute(t, "--mode", "product_sum", "--policy", "strict", "eval", path, "speed=1")
	assert.NoError(t, err)
	_, err = execute(t, "--mode", "max", "validate", path)
	assert.Error(t, err)
}

func TestParseAssignment(t *testing.T) {
	name, x, err := parseAssignment("speed=2.5")
	require.NoError(t, err)
	assert.Equal(t, "speed", name)
	assert.InDelta(t, 2.5, x, 1e-12)

	_, _, err = parseAssignment("=1")
	assert.Error(t, err)
}
