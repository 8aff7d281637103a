package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/budgettrain/budget"
	"github.com/inference-sim/budgettrain/budget/harness"
	"github.com/inference-sim/budgettrain/budget/synthetic"
)

// Preset describes one modality in defaults.yaml: how the controller is tuned
// and what the simulated dataset costs to train on.
type Preset struct {
	Controller     budget.Config          `yaml:"controller"`
	Session        harness.SessionConfig  `yaml:"session"`
	Workload       synthetic.WorkloadSpec `yaml:"workload"`
	EpochsPerSlice int                    `yaml:"epochs_per_slice"` // passes over the train split offered to one slice
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version string            `yaml:"version"`
	Presets map[string]Preset `yaml:"presets"`
}

// loadDefaultsConfig parses defaults.yaml into a Config struct.
// Unknown keys are errors so that typos in a preset do not go unnoticed.
func loadDefaultsConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading defaults file: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing defaults YAML: %w", err)
	}
	return cfg, nil
}

// PresetNames returns the configured modalities in sorted order.
func (c Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPreset returns the named preset after validating every section of it.
func (c Config) GetPreset(modality string) (Preset, error) {
	p, ok := c.Presets[modality]
	if !ok {
		return Preset{}, fmt.Errorf("unknown modality %q (available: %v)", modality, c.PresetNames())
	}
	if err := p.Controller.Validate(); err != nil {
		return Preset{}, fmt.Errorf("preset %s: %w", modality, err)
	}
	if err := p.Workload.Validate(); err != nil {
		return Preset{}, fmt.Errorf("preset %s: workload: %w", modality, err)
	}
	if p.EpochsPerSlice <= 0 {
		return Preset{}, fmt.Errorf("preset %s: epochs_per_slice must be positive, got %d", modality, p.EpochsPerSlice)
	}
	return p, nil
}
