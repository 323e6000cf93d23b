package sim

import "fmt"

// GridConfig groups resource-grid construction parameters.
type GridConfig struct {
	BandwidthMHz float64 `yaml:"bandwidth_mhz" json:"bandwidth_mhz"` // one of {1.4, 3, 5, 10, 15, 20}
	NumFrames    int     `yaml:"num_frames" json:"num_frames"`       // simulation horizon in 10ms frames, >= 1
	CPType       string  `yaml:"cp_type" json:"cp_type"`             // "normal" (default) or "extended"; only normal affects bits_per_rb here
}

// Validate checks GridConfig for construction-time errors.
func (c *GridConfig) Validate() error {
	if _, ok := rbPerSlotByBandwidth[c.BandwidthMHz]; !ok {
		return fmt.Errorf("ConfigurationError: bandwidth %vMHz not in whitelist", c.BandwidthMHz)
	}
	if c.NumFrames < 1 {
		return fmt.Errorf("ConfigurationError: NumFrames must be >= 1, got %d", c.NumFrames)
	}
	if c.CPType != "" && c.CPType != "normal" && c.CPType != "extended" {
		return fmt.Errorf("ConfigurationError: CPType must be \"normal\" or \"extended\", got %q", c.CPType)
	}
	return nil
}

// BufferConfig groups per-UE/global downlink buffer capacity parameters.
type BufferConfig struct {
	GlobalMaxBytes int64 `yaml:"global_max_bytes" json:"global_max_bytes"` // cap across all UEs served by one BaseStation
	PerUEMaxBytes  int64 `yaml:"per_ue_max_bytes" json:"per_ue_max_bytes"` // cap per UE; must be <= GlobalMaxBytes
	DefaultTTLMs   int64 `yaml:"default_ttl_ms" json:"default_ttl_ms"`    // default packet TTL when not otherwise specified
}

// Validate checks BufferConfig invariants: byte counts are non-negative and
// the per-UE cap never exceeds the cap shared across all UEs.
func (c *BufferConfig) Validate() error {
	if c.GlobalMaxBytes < 0 {
		return fmt.Errorf("ConfigurationError: GlobalMaxBytes must be >= 0, got %d", c.GlobalMaxBytes)
	}
	if c.PerUEMaxBytes < 0 {
		return fmt.Errorf("ConfigurationError: PerUEMaxBytes must be >= 0, got %d", c.PerUEMaxBytes)
	}
	if c.PerUEMaxBytes > c.GlobalMaxBytes {
		return fmt.Errorf("ConfigurationError: PerUEMaxBytes (%d) must be <= GlobalMaxBytes (%d)", c.PerUEMaxBytes, c.GlobalMaxBytes)
	}
	if c.DefaultTTLMs < 0 {
		return fmt.Errorf("ConfigurationError: DefaultTTLMs must be >= 0, got %d", c.DefaultTTLMs)
	}
	return nil
}

// PFConfig groups Proportional-Fair tuning parameters.
type PFConfig struct {
	Alpha    float64 `yaml:"alpha" json:"alpha"`         // EMA smoothing factor, default 0.2
	AvgFloor float64 `yaml:"avg_floor" json:"avg_floor"` // floor applied to average throughput, default 1e-6
}

// DefaultPFConfig returns the conventional PF tuning (alpha=0.2, floor=1e-6).
func DefaultPFConfig() PFConfig {
	return PFConfig{Alpha: 0.2, AvgFloor: 1e-6}
}

// Validate checks PFConfig for sane ranges.
func (c *PFConfig) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("ConfigurationError: Alpha must be in (0,1], got %v", c.Alpha)
	}
	if c.AvgFloor <= 0 {
		return fmt.Errorf("ConfigurationError: AvgFloor must be > 0, got %v", c.AvgFloor)
	}
	return nil
}

// PolicyConfig groups scheduling policy selection.
type PolicyConfig struct {
	Scheduler string `yaml:"scheduler" json:"scheduler"` // "round_robin" (default), "best_cqi", "proportional_fair", or a plugin-hosted name
}

// SimulationConfig groups everything needed to construct a Simulator.
type SimulationConfig struct {
	Grid   GridConfig   `yaml:"grid" json:"grid"`
	Buffer BufferConfig `yaml:"buffer" json:"buffer"`
	Policy PolicyConfig `yaml:"policy" json:"policy"`
	PF     PFConfig     `yaml:"pf" json:"pf"`
	Seed   int64        `yaml:"seed" json:"seed"`
}

// Validate runs every sub-config's Validate and reports the first failure.
func (c *SimulationConfig) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if err := c.Buffer.Validate(); err != nil {
		return err
	}
	if err := c.PF.Validate(); err != nil {
		return err
	}
	if !IsValidPolicy(c.Policy.Scheduler) {
		return fmt.Errorf("ConfigurationError: unknown scheduler %q", c.Policy.Scheduler)
	}
	return nil
}
