package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridConfig_Validate_UnsupportedBandwidth(t *testing.T) {
	c := GridConfig{BandwidthMHz: 7, NumFrames: 1}
	err := c.Validate()
	assert.Error(t, err)
}

func TestGridConfig_Validate_BadFrameCount(t *testing.T) {
	c := GridConfig{BandwidthMHz: 10, NumFrames: 0}
	err := c.Validate()
	assert.Error(t, err)
}

func TestGridConfig_Validate_BadCPType(t *testing.T) {
	c := GridConfig{BandwidthMHz: 10, NumFrames: 1, CPType: "weird"}
	assert.Error(t, c.Validate())
}

func TestGridConfig_Validate_OK(t *testing.T) {
	c := GridConfig{BandwidthMHz: 20, NumFrames: 5, CPType: "normal"}
	assert.NoError(t, c.Validate())
}

func TestBufferConfig_Validate_PerUEExceedsGlobal(t *testing.T) {
	c := BufferConfig{GlobalMaxBytes: 1000, PerUEMaxBytes: 2000}
	assert.Error(t, c.Validate())
}

func TestBufferConfig_Validate_Negative(t *testing.T) {
	assert.Error(t, (&BufferConfig{GlobalMaxBytes: -1}).Validate())
	assert.Error(t, (&BufferConfig{GlobalMaxBytes: 10, PerUEMaxBytes: -1}).Validate())
	assert.Error(t, (&BufferConfig{GlobalMaxBytes: 10, PerUEMaxBytes: 5, DefaultTTLMs: -1}).Validate())
}

func TestBufferConfig_Validate_OK(t *testing.T) {
	c := BufferConfig{GlobalMaxBytes: 1_000_000, PerUEMaxBytes: 500_000, DefaultTTLMs: 1000}
	assert.NoError(t, c.Validate())
}

func TestDefaultPFConfig(t *testing.T) {
	c := DefaultPFConfig()
	assert.Equal(t, 0.2, c.Alpha)
	assert.Equal(t, 1e-6, c.AvgFloor)
	assert.NoError(t, c.Validate())
}

func TestPFConfig_Validate_BadAlpha(t *testing.T) {
	assert.Error(t, (&PFConfig{Alpha: 0, AvgFloor: 1e-6}).Validate())
	assert.Error(t, (&PFConfig{Alpha: 1.5, AvgFloor: 1e-6}).Validate())
}

func TestPFConfig_Validate_BadFloor(t *testing.T) {
	assert.Error(t, (&PFConfig{Alpha: 0.2, AvgFloor: 0}).Validate())
}

func TestSimulationConfig_Validate_UnknownScheduler(t *testing.T) {
	c := SimulationConfig{
		Grid:   GridConfig{BandwidthMHz: 10, NumFrames: 1},
		Buffer: BufferConfig{GlobalMaxBytes: 1000, PerUEMaxBytes: 1000},
		Policy: PolicyConfig{Scheduler: "nonexistent"},
		PF:     DefaultPFConfig(),
	}
	assert.Error(t, c.Validate())
}

func TestSimulationConfig_Validate_OK(t *testing.T) {
	c := SimulationConfig{
		Grid:   GridConfig{BandwidthMHz: 10, NumFrames: 1},
		Buffer: BufferConfig{GlobalMaxBytes: 1000, PerUEMaxBytes: 1000},
		Policy: PolicyConfig{Scheduler: "round_robin"},
		PF:     DefaultPFConfig(),
	}
	assert.NoError(t, c.Validate())
}
