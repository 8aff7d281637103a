package budget

import "time"

// Batch is one mini-batch of examples. Each label row is an output vector
// (one-hot for multiclass, multi-hot for multilabel datasets).
type Batch struct {
	Inputs [][]float64
	Labels [][]float64
}

// Len returns the number of examples in the batch.
func (b Batch) Len() int { return len(b.Inputs) }

// DataSource yields batches for a single pass. Next returns io.EOF once the
// pass is exhausted; any other error is fatal to the caller.
type DataSource interface {
	Next() (Batch, error)
}

// Trainer performs one optimization step on a batch and returns the loss.
type Trainer interface {
	Step(batch Batch) (loss float64, err error)
}

// Evaluator runs one full pass over its validation stream and returns a
// scalar error, lower is better.
type Evaluator interface {
	Evaluate() (float64, error)
}

// Clock supplies wall-clock time.
type Clock interface {
	Now() time.Time
}

// WallClock reads the system clock.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }
