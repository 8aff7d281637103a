// Package harness runs the competition ingestion loop around a budget.Controller:
// train a slice, deliver predictions, and repeat until the controller gives up
// on the budget or the time runs out.
package harness

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/budgettrain/budget"
	"github.com/inference-sim/budgettrain/budget/trace"
)

// Predictor runs the inference path over the test set and returns the score
// the delivered predictions earn.
type Predictor interface {
	Predict() (score float64, err error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func() (float64, error)

func (f PredictorFunc) Predict() (float64, error) { return f() }

// Collaborators are the harness-owned pieces a session drives. NewSource is
// called once per round so every slice sees a fresh pass over the data.
type Collaborators struct {
	NewSource func() (budget.DataSource, error)
	Trainer   budget.Trainer
	Evaluator budget.Evaluator
	Predictor Predictor
}

// SessionConfig bounds a session.
type SessionConfig struct {
	TotalBudgetSeconds float64 `yaml:"total_budget_seconds"`
	MaxRounds          int     `yaml:"max_rounds"` // 0 = unlimited
}

// EndReason explains why a session ended.
type EndReason string

const (
	EndBudgetGuard EndReason = "budget_guard" // controller refused another validation pass
	EndBudgetSpent EndReason = "budget_spent" // wall-clock budget exhausted
	EndMaxRounds   EndReason = "max_rounds"
	EndNoProgress  EndReason = "no_progress" // a slice ran no steps and did not stop
)

// Report summarizes a finished session.
type Report struct {
	SessionID           string
	Rounds              int
	TotalSteps          int
	Predictions         int
	FinalScore          float64
	BestValidationError float64
	Reason              EndReason
	ElapsedSeconds      float64
	Checkpoint          budget.Checkpoint
}

// Session owns the controller across rounds. Resuming after an improved stop
// starts a new controller lifetime from the previous one's checkpoint.
type Session struct {
	cfg     SessionConfig
	ctrlCfg budget.Config
	clock   budget.Clock
	log     *logrus.Entry
	trace   *trace.SessionTrace
	id      string
	resume  *budget.Checkpoint
}

// Option customizes a Session.
type Option func(*Session)

// WithClock replaces the wall clock.
func WithClock(clock budget.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithLogger routes session and controller logs to log.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) { s.log = log }
}

// WithTrace records slices, checks and predictions into st.
func WithTrace(st *trace.SessionTrace) Option {
	return func(s *Session) { s.trace = st }
}

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithCheckpoint continues from a saved controller checkpoint instead of a fresh controller.
func WithCheckpoint(cp budget.Checkpoint) Option {
	return func(s *Session) { s.resume = &cp }
}

// NewSession validates both configs.
func NewSession(cfg SessionConfig, ctrlCfg budget.Config, opts ...Option) (*Session, error) {
	if math.IsNaN(cfg.TotalBudgetSeconds) || math.IsInf(cfg.TotalBudgetSeconds, 0) || cfg.TotalBudgetSeconds <= 0 {
		return nil, fmt.Errorf("%w: total_budget_seconds must be a positive finite number, got %f",
			budget.ErrConfiguration, cfg.TotalBudgetSeconds)
	}
	if cfg.MaxRounds < 0 {
		return nil, fmt.Errorf("%w: max_rounds must be non-negative, got %d", budget.ErrConfiguration, cfg.MaxRounds)
	}
	if err := ctrlCfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{cfg: cfg, ctrlCfg: ctrlCfg, clock: budget.WallClock{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		if s.resume != nil && s.resume.SessionID != "" {
			s.id = s.resume.SessionID
		} else {
			s.id = uuid.New().String()
		}
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) controllerOptions() []budget.Option {
	return []budget.Option{
		budget.WithClock(s.clock),
		budget.WithLogger(s.log),
		budget.WithTrace(s.trace),
		budget.WithSessionID(s.id),
	}
}

// Run drives rounds until the session ends. Every round trains one slice and
// then delivers predictions, as long as budget remains to do so. Collaborator
// failures end the session with an error; the report covers the rounds that
// completed.
func (s *Session) Run(c Collaborators) (*Report, error) {
	if c.NewSource == nil || c.Trainer == nil || c.Evaluator == nil || c.Predictor == nil {
		return nil, errors.New("session requires a source factory, trainer, evaluator and predictor")
	}

	var ctrl *budget.Controller
	var err error
	if s.resume != nil {
		ctrl, err = budget.Resume(s.ctrlCfg, *s.resume, s.controllerOptions()...)
	} else {
		ctrl, err = budget.NewController(s.ctrlCfg, s.controllerOptions()...)
	}
	if err != nil {
		return nil, err
	}

	origin := s.clock.Now()
	remaining := func() float64 {
		return s.cfg.TotalBudgetSeconds - s.clock.Now().Sub(origin).Seconds()
	}
	report := &Report{SessionID: s.id, BestValidationError: math.Inf(1)}
	log := s.log.WithField("session", s.id)
	defer func() {
		report.ElapsedSeconds = s.clock.Now().Sub(origin).Seconds()
		report.BestValidationError = ctrl.State().LastValidationError
		report.Checkpoint = ctrl.Checkpoint()
	}()

	for {
		if s.cfg.MaxRounds > 0 && report.Rounds >= s.cfg.MaxRounds {
			report.Reason = EndMaxRounds
			break
		}
		left := remaining()
		if left <= 0 {
			report.Reason = EndBudgetSpent
			break
		}
		report.Rounds++

		src, err := c.NewSource()
		if err != nil {
			return report, fmt.Errorf("round %d: opening training data: %w", report.Rounds, err)
		}
		done, err := ctrl.RunTrainingSlice(src, c.Trainer, c.Evaluator, left)
		slice := ctrl.LastSlice()
		report.TotalSteps += slice.Steps
		if err != nil {
			return report, fmt.Errorf("round %d: %w", report.Rounds, err)
		}

		if remaining() <= 0 {
			log.Warnf("round %d: budget spent before predictions could be delivered", report.Rounds)
			report.Reason = EndBudgetSpent
			break
		}
		if err := s.predict(c.Predictor, ctrl, report, origin); err != nil {
			return report, fmt.Errorf("round %d: %w", report.Rounds, err)
		}

		switch {
		case slice.Reason == budget.StopBudget:
			report.Reason = EndBudgetGuard
			return report, nil
		case done:
			ctrl, err = budget.Resume(s.ctrlCfg, ctrl.Checkpoint(), s.controllerOptions()...)
			if err != nil {
				return report, fmt.Errorf("round %d: resuming controller: %w", report.Rounds, err)
			}
		case slice.Steps == 0:
			log.Warnf("round %d: slice ran no steps; stopping", report.Rounds)
			report.Reason = EndNoProgress
			return report, nil
		}
	}
	return report, nil
}

func (s *Session) predict(p Predictor, ctrl *budget.Controller, report *Report, origin time.Time) error {
	begin := s.clock.Now()
	score, err := p.Predict()
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	end := s.clock.Now()
	elapsed := end.Sub(origin).Seconds()
	report.Predictions++
	report.FinalScore = score
	s.trace.RecordPrediction(trace.PredictionRecord{
		SessionID:       s.id,
		Round:           report.Rounds,
		ElapsedSeconds:  elapsed,
		Normalized:      ctrl.Transform().ToNormalized(elapsed),
		Score:           score,
		DurationSeconds: end.Sub(begin).Seconds(),
	})
	s.log.WithField("session", s.id).Infof("round %d: predictions delivered at %.1fs, score=%.4f",
		report.Rounds, elapsed, score)
	return nil
}
