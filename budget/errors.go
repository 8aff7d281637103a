package budget

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid controller or override parameters.
	// Always returned wrapped with the offending field.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrProtocolViolation is returned when the caller breaks the slice contract,
	// e.g. invoking RunTrainingSlice after it already reported done.
	ErrProtocolViolation = errors.New("protocol violation")
)

// TrainingFailure wraps an error raised by Trainer.Step. It is fatal to the slice.
type TrainingFailure struct {
	Step int // 1-based step index within the slice
	Err  error
}

func (e *TrainingFailure) Error() string {
	return fmt.Sprintf("training step %d failed: %v", e.Step, e.Err)
}

func (e *TrainingFailure) Unwrap() error { return e.Err }

// EvaluationFailure wraps an error raised by Evaluator.Evaluate. It is fatal to the slice.
type EvaluationFailure struct {
	Check int // 1-based validation check index within the slice
	Err   error
}

func (e *EvaluationFailure) Error() string {
	return fmt.Sprintf("validation check %d failed: %v", e.Check, e.Err)
}

func (e *EvaluationFailure) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
