package budget

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// StreamEvaluator adapts a restartable validation stream and a per-batch
// scorer into an Evaluator. The pass error is the sum of the batch errors.
// An empty stream yields +Inf, which never counts as an improvement.
type StreamEvaluator struct {
	Open  func() (DataSource, error)
	Score func(Batch) (float64, error)
}

func (se StreamEvaluator) Evaluate() (float64, error) {
	stream, err := se.Open()
	if err != nil {
		return 0, fmt.Errorf("opening validation stream: %w", err)
	}
	total, batches := 0.0, 0
	for {
		batch, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading validation batch %d: %w", batches+1, err)
		}
		e, err := se.Score(batch)
		if err != nil {
			return 0, fmt.Errorf("scoring validation batch %d: %w", batches+1, err)
		}
		total += e
		batches++
	}
	if batches == 0 {
		return math.Inf(1), nil
	}
	return total, nil
}
