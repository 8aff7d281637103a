package budget

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Checkpoint is a resumable snapshot of a controller: its clock origin, the
// time elapsed since it, training progress and validation history. Done is not stored: resuming
// always starts a new controller lifetime.
type Checkpoint struct {
	SessionID           string    `yaml:"session_id"`
	Started             bool      `yaml:"started"`
	Start               time.Time `yaml:"start,omitempty"`
	ElapsedSeconds      float64   `yaml:"elapsed_seconds"` // since Start, when the snapshot was taken
	Invocations         int       `yaml:"invocations"`
	LastValidationError float64   `yaml:"last_validation_error"`
	ValidationDurations []float64 `yaml:"validation_durations"`
}

// Checkpoint snapshots the controller.
func (c *Controller) Checkpoint() Checkpoint {
	return Checkpoint{
		SessionID:           c.id,
		Started:             c.started,
		Start:               c.start,
		ElapsedSeconds:      c.Elapsed(),
		Invocations:         c.state.Invocations,
		LastValidationError: c.state.LastValidationError,
		ValidationDurations: c.history.Durations(),
	}
}

// Resume creates a new controller lifetime from cp. The clock origin, best
// validation error, invocation count and history carry over; Done starts false.
// The clock passed in must not read earlier than cp.Start plus cp.ElapsedSeconds,
// otherwise the resumed elapsed time goes backwards.
// Durations beyond cfg.HistoryWindow keep only the most recent ones.
func Resume(cfg Config, cp Checkpoint, opts ...Option) (*Controller, error) {
	if err := cp.validate(); err != nil {
		return nil, err
	}
	if cp.SessionID != "" {
		opts = append([]Option{WithSessionID(cp.SessionID)}, opts...)
	}
	c, err := NewController(cfg, opts...)
	if err != nil {
		return nil, err
	}
	c.started = cp.Started
	c.start = cp.Start
	c.state.Invocations = cp.Invocations
	c.state.LastValidationError = cp.LastValidationError
	for _, d := range cp.ValidationDurations {
		c.history.Record(d)
	}
	if cp.Started {
		c.phase = PhaseTraining
	}
	return c, nil
}

func (cp Checkpoint) validate() error {
	if cp.Invocations < 0 {
		return configErrorf("checkpoint invocations must be non-negative, got %d", cp.Invocations)
	}
	if math.IsNaN(cp.ElapsedSeconds) || math.IsInf(cp.ElapsedSeconds, 0) || cp.ElapsedSeconds < 0 {
		return configErrorf("checkpoint elapsed_seconds must be a finite non-negative number, got %f", cp.ElapsedSeconds)
	}
	if math.IsNaN(cp.LastValidationError) {
		return configErrorf("checkpoint last_validation_error must be a number")
	}
	for i, d := range cp.ValidationDurations {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return configErrorf("checkpoint validation_durations[%d] must be a finite non-negative number, got %f", i, d)
		}
	}
	return nil
}

// SaveCheckpoint writes cp to path as YAML.
func SaveCheckpoint(path string, cp Checkpoint) error {
	data, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a YAML checkpoint. Unknown keys are rejected.
func LoadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("reading checkpoint: %w", err)
	}
	var cp Checkpoint
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cp); err != nil {
		return Checkpoint{}, fmt.Errorf("parsing checkpoint: %w", err)
	}
	if err := cp.validate(); err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}
