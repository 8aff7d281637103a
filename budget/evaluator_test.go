package budget

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamEvaluator_SumsBatchErrors(t *testing.T) {
	opened := 0
	ev := StreamEvaluator{
		Open: func() (DataSource, error) {
			opened++
			return newSliceSource(Batch{Inputs: [][]float64{{1}}}, Batch{Inputs: [][]float64{{2}, {3}}}), nil
		},
		Score: func(b Batch) (float64, error) { return float64(b.Len()) * 0.25, nil },
	}

	e, err := ev.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, 0.75, e)

	// every pass restarts the stream
	_, err = ev.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, 2, opened)
}

func TestStreamEvaluator_EmptyStream_Infinite(t *testing.T) {
	ev := StreamEvaluator{
		Open:  func() (DataSource, error) { return newSliceSource(), nil },
		Score: func(Batch) (float64, error) { return 1, nil },
	}
	e, err := ev.Evaluate()
	require.NoError(t, err)
	assert.True(t, math.IsInf(e, 1))
}

func TestStreamEvaluator_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		ev   StreamEvaluator
	}{
		{"open", StreamEvaluator{
			Open:  func() (DataSource, error) { return nil, boom },
			Score: func(Batch) (float64, error) { return 0, nil },
		}},
		{"read", StreamEvaluator{
			Open:  func() (DataSource, error) { return &countingSource{err: boom}, nil },
			Score: func(Batch) (float64, error) { return 0, nil },
		}},
		{"score", StreamEvaluator{
			Open:  func() (DataSource, error) { return newSliceSource(Batch{}), nil },
			Score: func(Batch) (float64, error) { return 0, boom },
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.ev.Evaluate()
			assert.True(t, errors.Is(err, boom), "got %v", err)
		})
	}
}
