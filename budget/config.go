package budget

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config groups the controller parameters.
type Config struct {
	TimeScaleSeconds    float64 `yaml:"time_scale_seconds"`    // T0 of the time transform
	TotalBudgetSeconds  float64 `yaml:"total_budget_seconds"`  // Tmax of the time transform
	ValidationInterval  float64 `yaml:"validation_interval"`   // normalized delta between validation checks, in (0, 1)
	SafetyMarginSeconds float64 `yaml:"safety_margin_seconds"` // budget reserved below which no validation starts
	HistoryWindow       int     `yaml:"history_window"`        // validation durations kept for cost estimates
}

// DefaultConfig returns the parameters used by the competition submission:
// a 1200s budget warped with a 60s time scale, a check every 1/50 of
// normalized time and a three minute safety margin.
func DefaultConfig() Config {
	return Config{
		TimeScaleSeconds:    60,
		TotalBudgetSeconds:  1200,
		ValidationInterval:  1.0 / 50,
		SafetyMarginSeconds: 180,
		HistoryWindow:       8,
	}
}

// Validate checks that all fields are usable. Errors wrap ErrConfiguration.
func (c Config) Validate() error {
	if err := validateFinitePositive("time_scale_seconds", c.TimeScaleSeconds); err != nil {
		return err
	}
	if err := validateFinitePositive("total_budget_seconds", c.TotalBudgetSeconds); err != nil {
		return err
	}
	if err := validateFinitePositive("validation_interval", c.ValidationInterval); err != nil {
		return err
	}
	if c.ValidationInterval >= 1 {
		return configErrorf("validation_interval must be below 1, got %g", c.ValidationInterval)
	}
	if math.IsNaN(c.SafetyMarginSeconds) || math.IsInf(c.SafetyMarginSeconds, 0) {
		return configErrorf("safety_margin_seconds must be a finite number, got %f", c.SafetyMarginSeconds)
	}
	if c.SafetyMarginSeconds < 0 {
		return configErrorf("safety_margin_seconds must be non-negative, got %g", c.SafetyMarginSeconds)
	}
	if c.HistoryWindow < 1 {
		return configErrorf("history_window must be at least 1, got %d", c.HistoryWindow)
	}
	return nil
}

// LoadConfig reads a controller config from YAML. Fields missing from the
// file keep their DefaultConfig values. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading controller config: %w", err)
	}
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing controller config: %v", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyOverrides sets fields from string key/value pairs, as handed over by a
// hyperparameter search. Keys use the YAML field names. Values are parsed into
// the field's type and the result is validated; malformed values, unknown keys
// and invalid results all wrap ErrConfiguration. Keys are applied in sorted
// order so errors are deterministic.
func (c *Config) ApplyOverrides(overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := *c
	for _, key := range keys {
		raw := strings.TrimSpace(overrides[key])
		var err error
		switch key {
		case "time_scale_seconds":
			next.TimeScaleSeconds, err = ParseFloat(key, raw)
		case "total_budget_seconds":
			next.TotalBudgetSeconds, err = ParseFloat(key, raw)
		case "validation_interval":
			next.ValidationInterval, err = ParseFloat(key, raw)
		case "safety_margin_seconds":
			next.SafetyMarginSeconds, err = ParseFloat(key, raw)
		case "history_window":
			next.HistoryWindow, err = ParseInt(key, raw)
		default:
			err = configErrorf("unknown override %q", key)
		}
		if err != nil {
			return err
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ParseFloat parses a finite float override value.
func ParseFloat(key, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, configErrorf("%s: expected a finite number, got %q", key, raw)
	}
	return v, nil
}

// ParseInt parses a base-10 integer override value.
func ParseInt(key, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, configErrorf("%s: expected an integer, got %q", key, raw)
	}
	return v, nil
}

// ParseBool accepts exactly "true"/"false" and their capitalized forms "True"/"False".
// Anything else, including "1" or "yes", is rejected.
func ParseBool(key, raw string) (bool, error) {
	switch raw {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	}
	return false, configErrorf("%s: expected True or False, got %q", key, raw)
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return configErrorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return configErrorf("%s must be positive, got %g", name, val)
	}
	return nil
}
