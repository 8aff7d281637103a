// Package synthetic provides deterministic stand-ins for the collaborators of
// the training controller: a finite batch source, a trainer and evaluator that
// follow a seeded learning curve, an inference pass, and a manual clock that
// every one of them advances by its simulated cost.
package synthetic

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/inference-sim/budgettrain/budget"
)

// WorkloadSpec describes a simulated dataset and its compute costs.
type WorkloadSpec struct {
	Examples          int           `yaml:"examples"`
	Features          int           `yaml:"features"`
	Classes           int           `yaml:"classes"`
	Multilabel        bool          `yaml:"multilabel"`
	BatchSize         int           `yaml:"batch_size"`
	Splits            []float64     `yaml:"splits"`             // [train, validation] proportions
	StepSeconds       float64       `yaml:"step_seconds"`       // cost of one full-size optimization step
	StepJitter        float64       `yaml:"step_jitter"`        // relative +/- jitter on step cost, in [0, 1)
	ValidationSeconds float64       `yaml:"validation_seconds"` // cost of scoring one validation batch
	PredictSeconds    float64       `yaml:"predict_seconds"`    // cost of one inference pass over the test set
	Curve             LearningCurve `yaml:"curve"`
}

// Validate checks that the spec can drive a simulation.
func (s WorkloadSpec) Validate() error {
	if s.Examples <= 0 {
		return fmt.Errorf("examples must be positive, got %d", s.Examples)
	}
	if s.Features <= 0 {
		return fmt.Errorf("features must be positive, got %d", s.Features)
	}
	if s.Classes < 2 {
		return fmt.Errorf("classes must be at least 2, got %d", s.Classes)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", s.BatchSize)
	}
	for _, f := range []struct {
		name string
		val  float64
	}{
		{"step_seconds", s.StepSeconds},
		{"validation_seconds", s.ValidationSeconds},
		{"predict_seconds", s.PredictSeconds},
		{"curve.initial", s.Curve.Initial},
		{"curve.floor", s.Curve.Floor},
		{"curve.tau", s.Curve.Tau},
		{"curve.noise", s.Curve.Noise},
	} {
		if math.IsNaN(f.val) || math.IsInf(f.val, 0) || f.val < 0 {
			return fmt.Errorf("%s must be a finite non-negative number, got %f", f.name, f.val)
		}
	}
	if s.StepSeconds == 0 {
		return fmt.Errorf("step_seconds must be positive")
	}
	if s.StepJitter < 0 || s.StepJitter >= 1 {
		return fmt.Errorf("step_jitter must be in [0, 1), got %f", s.StepJitter)
	}
	if s.Curve.Floor > s.Curve.Initial {
		return fmt.Errorf("curve.floor (%f) must not exceed curve.initial (%f)", s.Curve.Floor, s.Curve.Initial)
	}
	return nil
}

// ApplyOverrides sets fields from key=value strings such as a hyperparameter
// search hands over, e.g. multilabel=True. Keys use the YAML field names;
// curve and split settings are not overridable. Values go through the
// controller's strict parsers and the result is validated before anything is
// changed. Errors wrap budget.ErrConfiguration.
func (s *WorkloadSpec) ApplyOverrides(overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := *s
	for _, key := range keys {
		raw := strings.TrimSpace(overrides[key])
		var err error
		switch key {
		case "examples":
			next.Examples, err = budget.ParseInt(key, raw)
		case "features":
			next.Features, err = budget.ParseInt(key, raw)
		case "classes":
			next.Classes, err = budget.ParseInt(key, raw)
		case "batch_size":
			next.BatchSize, err = budget.ParseInt(key, raw)
		case "multilabel":
			next.Multilabel, err = budget.ParseBool(key, raw)
		case "step_seconds":
			next.StepSeconds, err = budget.ParseFloat(key, raw)
		case "step_jitter":
			next.StepJitter, err = budget.ParseFloat(key, raw)
		case "validation_seconds":
			next.ValidationSeconds, err = budget.ParseFloat(key, raw)
		case "predict_seconds":
			next.PredictSeconds, err = budget.ParseFloat(key, raw)
		default:
			err = fmt.Errorf("%w: unknown workload override %q", budget.ErrConfiguration, key)
		}
		if err != nil {
			return err
		}
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %v", budget.ErrConfiguration, err)
	}
	*s = next
	return nil
}

// Model is the simulated network shared by the trainer, evaluator and
// predictor. Its quality depends only on how many steps it has taken.
type Model struct {
	spec  WorkloadSpec
	clock *ManualClock
	rng   *PartitionedRNG
	steps int
}

// NewModel validates spec and creates an untrained model on clock.
func NewModel(spec WorkloadSpec, clock *ManualClock, seed int64) (*Model, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload: %w", err)
	}
	return &Model{spec: spec, clock: clock, rng: NewPartitionedRNG(seed)}, nil
}

// Steps returns the number of optimization steps taken so far.
func (m *Model) Steps() int { return m.steps }

// Spec returns the workload spec.
func (m *Model) Spec() WorkloadSpec { return m.spec }

// Trainer returns a trainer that steps this model.
func (m *Model) Trainer() *Trainer { return &Trainer{model: m} }

// Evaluator returns an evaluator that scores this model on validationCount examples.
// The pass error is the mean per-batch error, so it stays comparable across splits.
func (m *Model) Evaluator(validationCount int) budget.Evaluator {
	batches := numBatches(validationCount, m.spec.BatchSize)
	rng := m.rng.ForSubsystem(SubsystemEvaluator)
	return budget.StreamEvaluator{
		Open: func() (budget.DataSource, error) {
			return m.NewSource(validationCount), nil
		},
		Score: func(b budget.Batch) (float64, error) {
			m.clock.AdvanceSeconds(m.spec.ValidationSeconds)
			return m.spec.Curve.Sample(m.steps, rng) / float64(batches), nil
		},
	}
}

// Predict simulates an inference pass over the test set and returns the
// score it would earn, 1 - error, clamped to [0, 1].
func (m *Model) Predict() (float64, error) {
	m.clock.AdvanceSeconds(m.spec.PredictSeconds)
	e := m.spec.Curve.Sample(m.steps, m.rng.ForSubsystem(SubsystemPredictor))
	return max(0, min(1, 1-e)), nil
}

// NewSource creates a single-pass source over count random examples.
func (m *Model) NewSource(count int) *Source {
	return &Source{
		spec:      m.spec,
		remaining: max(count, 0),
		rng:       m.rng.ForSubsystem(SubsystemData),
	}
}

// Trainer advances the model by one step per batch.
type Trainer struct {
	model *Model
}

// Step charges the step cost, scaled by the batch fill and jittered, to the
// clock and returns the training loss on the model's curve.
func (t *Trainer) Step(b budget.Batch) (float64, error) {
	m := t.model
	if b.Len() == 0 {
		return 0, fmt.Errorf("empty batch at step %d", m.steps+1)
	}
	cost := m.spec.StepSeconds * float64(b.Len()) / float64(m.spec.BatchSize)
	if m.spec.StepJitter > 0 {
		jitter := m.rng.ForSubsystem(SubsystemStepTiming).Float64()*2 - 1
		cost *= 1 + jitter*m.spec.StepJitter
	}
	m.clock.AdvanceSeconds(cost)
	loss := m.spec.Curve.Sample(m.steps, m.rng.ForSubsystem(SubsystemTrainer))
	m.steps++
	return loss, nil
}

// Source yields random batches until its example count is used up.
type Source struct {
	spec      WorkloadSpec
	remaining int
	rng       *rand.Rand
}

func (s *Source) Next() (budget.Batch, error) {
	if s.remaining == 0 {
		return budget.Batch{}, io.EOF
	}
	n := min(s.remaining, s.spec.BatchSize)
	s.remaining -= n
	b := budget.Batch{
		Inputs: make([][]float64, n),
		Labels: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		x := make([]float64, s.spec.Features)
		for j := range x {
			x[j] = s.rng.NormFloat64()
		}
		y := make([]float64, s.spec.Classes)
		if s.spec.Multilabel {
			for j := range y {
				if s.rng.Float64() < 0.5 {
					y[j] = 1
				}
			}
		} else {
			y[s.rng.Intn(s.spec.Classes)] = 1
		}
		b.Inputs[i], b.Labels[i] = x, y
	}
	return b, nil
}

func numBatches(count, batchSize int) int {
	return max(1, (count+batchSize-1)/batchSize)
}
