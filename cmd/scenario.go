package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/ltemacsim/ltemacsim/sim"
)

// UEScenario describes one UE's starting position and optional per-UE
// traffic override within a scenario file.
type UEScenario struct {
	ID           int     `yaml:"id"`
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	Traffic      string  `yaml:"traffic"`
	PacketRate   float64 `yaml:"packet_rate_per_sec"`
	MinSizeBytes int     `yaml:"min_packet_bytes"`
	MaxSizeBytes int     `yaml:"max_packet_bytes"`
}

// ScenarioSpec is the YAML-loadable shape of a full run configuration:
// CLI flags set defaults, a --config file overrides them wholesale.
type ScenarioSpec struct {
	Grid   sim.GridConfig   `yaml:"grid"`
	Buffer sim.BufferConfig `yaml:"buffer"`
	Policy sim.PolicyConfig `yaml:"policy"`
	PF     sim.PFConfig     `yaml:"pf"`
	Seed   int64            `yaml:"seed"`

	Mobility         string  `yaml:"mobility"`
	Channel          string  `yaml:"channel"`
	Traffic          string  `yaml:"traffic"`
	PacketRatePerSec float64 `yaml:"packet_rate_per_sec"`
	MinPacketBytes   int     `yaml:"min_packet_bytes"`
	MaxPacketBytes   int     `yaml:"max_packet_bytes"`

	UEs []UEScenario `yaml:"ues"`
}

// LoadScenarioSpec reads and strictly decodes a scenario YAML file from
// path, rejecting unknown fields.
func LoadScenarioSpec(path string) (*ScenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario spec: %w", err)
	}
	var spec ScenarioSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing scenario spec: %w", err)
	}
	return &spec, nil
}
