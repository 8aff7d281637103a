package budget

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/budgettrain/budget/trace"
)

// Phase is the controller's position in its lifecycle:
//
//	Fresh → Training ⇄ Validating → Stopped
type Phase int

const (
	PhaseFresh Phase = iota
	PhaseTraining
	PhaseValidating
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseFresh:
		return "fresh"
	case PhaseTraining:
		return "training"
	case PhaseValidating:
		return "validating"
	case PhaseStopped:
		return "stopped"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// StopReason explains why a slice returned.
type StopReason string

const (
	StopNone      StopReason = ""          // slice aborted by an error
	StopExhausted StopReason = "exhausted" // data source ran out of batches
	StopImproved  StopReason = "improved"  // validation error improved
	StopBudget    StopReason = "budget"    // not enough budget left for another validation pass
)

// State is the controller's training state. Done is terminal for a controller.
type State struct {
	Invocations         int
	LastValidationError float64
	Done                bool
}

// SliceReport describes the most recent slice.
type SliceReport struct {
	Invocation   int
	Steps        int
	Checks       int
	Reason       StopReason
	Done         bool
	MeanLoss     float64
	StartSeconds float64 // elapsed since the clock origin when the slice began
	Duration     time.Duration
}

// Controller decides, within each slice, how long to train, when to validate
// and when to stop. It owns its clock origin, state and validation history.
//
// Thread-safety: NOT thread-safe. Slices must be invoked sequentially.
type Controller struct {
	cfg     Config
	warp    TimeTransform
	clock   Clock
	log     *logrus.Entry
	trace   *trace.SessionTrace
	id      string
	start   time.Time
	started bool
	state   State
	phase   Phase
	history *ValidationHistory
	last    SliceReport
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock, e.g. with a simulated one.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger routes controller logs to the given entry.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Controller) { c.log = log }
}

// WithTrace records slice outcomes and validation decisions into st.
func WithTrace(st *trace.SessionTrace) Option {
	return func(c *Controller) { c.trace = st }
}

// WithSessionID sets the identifier stamped on logs, trace records and checkpoints.
func WithSessionID(id string) Option {
	return func(c *Controller) { c.id = id }
}

// NewController validates cfg and returns a controller in PhaseFresh.
func NewController(cfg Config, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	warp, err := NewTimeTransform(cfg.TimeScaleSeconds, cfg.TotalBudgetSeconds)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:     cfg,
		warp:    warp,
		clock:   WallClock{},
		state:   State{LastValidationError: math.Inf(1)},
		phase:   PhaseFresh,
		history: NewValidationHistory(cfg.HistoryWindow),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.id == "" {
		c.id = uuid.New().String()
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	c.log = c.log.WithField("session", c.id)
	return c, nil
}

// State returns a copy of the training state.
func (c *Controller) State() State { return c.state }

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase { return c.phase }

// Done reports whether the controller has stopped for good.
func (c *Controller) Done() bool { return c.state.Done }

// LastSlice returns the report of the most recent slice.
func (c *Controller) LastSlice() SliceReport { return c.last }

// History returns the validation duration history.
func (c *Controller) History() *ValidationHistory { return c.history }

// Transform returns the time transform built from the config.
func (c *Controller) Transform() TimeTransform { return c.warp }

// SessionID returns the identifier stamped on logs and trace records.
func (c *Controller) SessionID() string { return c.id }

// Elapsed returns seconds since the clock origin, 0 before the first slice.
func (c *Controller) Elapsed() float64 {
	if !c.started {
		return 0
	}
	return c.clock.Now().Sub(c.start).Seconds()
}

// RunTrainingSlice trains on src until the data runs out, a validation check
// improves on the best error so far, or the remaining budget can no longer
// cover a validation pass plus the safety margin. It returns true when the
// caller must stop invoking it.
//
// Invoking it again after it returned true fails with ErrProtocolViolation
// and runs no optimization step. Trainer and evaluator errors are returned as
// *TrainingFailure and *EvaluationFailure and abort the slice.
func (c *Controller) RunTrainingSlice(src DataSource, tr Trainer, ev Evaluator, remainingSeconds float64) (bool, error) {
	if c.state.Done {
		return true, fmt.Errorf("%w: training slice invoked after the controller stopped", ErrProtocolViolation)
	}
	if math.IsNaN(remainingSeconds) || remainingSeconds < 0 {
		return false, fmt.Errorf("%w: remaining budget must be non-negative, got %g", ErrProtocolViolation, remainingSeconds)
	}

	sliceStart := c.clock.Now()
	if !c.started {
		c.start = sliceStart
		c.started = true
	}
	c.state.Invocations++
	c.phase = PhaseTraining

	report := SliceReport{
		Invocation:   c.state.Invocations,
		StartSeconds: sliceStart.Sub(c.start).Seconds(),
	}
	log := c.log.WithField("slice", report.Invocation)
	log.Infof("slice started: remaining=%.1fs elapsed=%.1fs", remainingSeconds, report.StartSeconds)

	anchor := c.warp.ToNormalized(report.StartSeconds)
	lossSum := 0.0

	for {
		batch, err := src.Next()
		if errors.Is(err, io.EOF) {
			return c.finish(log, &report, StopExhausted, lossSum, sliceStart), nil
		}
		if err != nil {
			return c.abort(&report, lossSum, sliceStart, fmt.Errorf("reading training batch: %w", err))
		}

		loss, err := tr.Step(batch)
		if err != nil {
			return c.abort(&report, lossSum, sliceStart, &TrainingFailure{Step: report.Steps + 1, Err: err})
		}
		report.Steps++
		lossSum += loss
		log.Debugf("step %d: loss=%.6f", report.Steps, loss)

		now := c.clock.Now()
		elapsed := now.Sub(c.start).Seconds()
		normalized := c.warp.ToNormalized(elapsed)
		if normalized-anchor <= c.cfg.ValidationInterval {
			continue
		}

		report.Checks++
		estimate := c.history.EstimateCost()
		left := remainingSeconds - now.Sub(sliceStart).Seconds()
		check := trace.CheckRecord{
			SessionID:        c.id,
			Invocation:       report.Invocation,
			Check:            report.Checks,
			ElapsedSeconds:   elapsed,
			Normalized:       normalized,
			RemainingSeconds: left,
			EstimatedCost:    estimate,
		}
		if left-estimate < c.cfg.SafetyMarginSeconds {
			check.Skipped = true
			c.trace.RecordCheck(check)
			log.Infof("validation skipped: remaining=%.1fs estimate=%.1fs margin=%.1fs",
				left, estimate, c.cfg.SafetyMarginSeconds)
			c.state.Done = true
			return c.finish(log, &report, StopBudget, lossSum, sliceStart), nil
		}

		improved, err := c.validate(ev, &check)
		c.trace.RecordCheck(check)
		if err != nil {
			return c.abort(&report, lossSum, sliceStart, &EvaluationFailure{Check: report.Checks, Err: err})
		}
		log.Infof("validation %d: error=%.6f best=%.6f took=%.2fs",
			report.Checks, check.Error, c.state.LastValidationError, check.DurationSeconds)
		if improved {
			c.state.Done = true
			return c.finish(log, &report, StopImproved, lossSum, sliceStart), nil
		}
		anchor = c.warp.ToNormalized(c.Elapsed())
		log.Debug("back to training")
	}
}

// validate runs one evaluator pass, records its duration and applies the
// greedy stopping rule: any strict improvement over the best error stops.
func (c *Controller) validate(ev Evaluator, check *trace.CheckRecord) (bool, error) {
	c.phase = PhaseValidating
	begin := c.clock.Now()
	e, err := ev.Evaluate()
	took := c.clock.Now().Sub(begin).Seconds()
	c.phase = PhaseTraining
	if err != nil {
		return false, err
	}
	c.history.Record(took)

	check.Error = e
	check.DurationSeconds = took
	if e < c.state.LastValidationError {
		c.state.LastValidationError = e
		check.Improved = true
	}
	return check.Improved, nil
}

func (c *Controller) finish(log *logrus.Entry, report *SliceReport, reason StopReason, lossSum float64, sliceStart time.Time) bool {
	c.complete(report, reason, lossSum, sliceStart)
	log.WithField("reason", reason).Infof("slice finished: steps=%d checks=%d done=%v took=%s",
		report.Steps, report.Checks, report.Done, report.Duration)
	return report.Done
}

func (c *Controller) abort(report *SliceReport, lossSum float64, sliceStart time.Time, err error) (bool, error) {
	c.complete(report, StopNone, lossSum, sliceStart)
	return false, err
}

func (c *Controller) complete(report *SliceReport, reason StopReason, lossSum float64, sliceStart time.Time) {
	report.Reason = reason
	report.Done = c.state.Done
	report.Duration = c.clock.Now().Sub(sliceStart)
	if report.Steps > 0 {
		report.MeanLoss = lossSum / float64(report.Steps)
	}
	if c.state.Done {
		c.phase = PhaseStopped
	} else {
		c.phase = PhaseTraining
	}
	c.last = *report
	c.trace.RecordSlice(trace.SliceRecord{
		SessionID:       c.id,
		Invocation:      report.Invocation,
		Steps:           report.Steps,
		Checks:          report.Checks,
		Reason:          string(reason),
		Done:            report.Done,
		MeanLoss:        report.MeanLoss,
		StartSeconds:    report.StartSeconds,
		DurationSeconds: report.Duration.Seconds(),
	})
}
