package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenarioSpec_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	content := `
grid:
  bandwidth_mhz: 10
  num_frames: 5
  cp_type: normal
buffer:
  global_max_bytes: 1000000
  per_ue_max_bytes: 200000
  default_ttl_ms: 1000
policy:
  scheduler: proportional_fair
pf:
  alpha: 0.2
  avg_floor: 0.000001
seed: 42
mobility: random_waypoint
channel: umi
traffic: on_off
ues:
  - id: 1
    x: 10
    y: -5
  - id: 2
    x: 0
    y: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	spec, err := LoadScenarioSpec(path)
	require.NoError(t, err)

	assert.Equal(t, 10.0, spec.Grid.BandwidthMHz)
	assert.Equal(t, 5, spec.Grid.NumFrames)
	assert.Equal(t, "proportional_fair", spec.Policy.Scheduler)
	assert.Equal(t, int64(42), spec.Seed)
	assert.Equal(t, "random_waypoint", spec.Mobility)
	assert.Equal(t, "umi", spec.Channel)
	assert.Len(t, spec.UEs, 2)
	assert.Equal(t, 10.0, spec.UEs[0].X)
}

func TestLoadScenarioSpec_MissingFileErrors(t *testing.T) {
	_, err := LoadScenarioSpec(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadScenarioSpec_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid:\n  bandwidth_mhz: 10\nbogus_field: true\n"), 0o644))

	_, err := LoadScenarioSpec(path)
	assert.Error(t, err)
}

func TestParseUEIDs_FromFlagWhenNoScenarioUEs(t *testing.T) {
	prev := ueIDsFlag
	defer func() { ueIDsFlag = prev }()
	ueIDsFlag = "3,4,5"

	ids, err := parseUEIDs(&ScenarioSpec{})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, ids)
}

func TestParseUEIDs_PrefersScenarioUEs(t *testing.T) {
	spec := &ScenarioSpec{UEs: []UEScenario{{ID: 7}, {ID: 8}}}
	ids, err := parseUEIDs(spec)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, ids)
}

func TestParseUEIDs_RejectsInvalidID(t *testing.T) {
	prev := ueIDsFlag
	defer func() { ueIDsFlag = prev }()
	ueIDsFlag = "1,not-a-number"

	_, err := parseUEIDs(&ScenarioSpec{})
	assert.Error(t, err)
}
