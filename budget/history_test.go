package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inference-sim/budgettrain/budget/internal/testutil"
)

func TestValidationHistory_Empty_ZeroCost(t *testing.T) {
	h := NewValidationHistory(4)
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0.0, h.EstimateCost())
}

func TestValidationHistory_SingleValue_CostIsValue(t *testing.T) {
	h := NewValidationHistory(4)
	h.Record(12.5)
	testutil.AssertFloat64Equal(t, "cost", 12.5, h.EstimateCost(), 1e-12)
}

func TestValidationHistory_MeanPlusPopulationStdDev(t *testing.T) {
	// GIVEN durations 1 and 3 (mean 2, population stddev 1)
	h := NewValidationHistory(4)
	h.Record(1)
	h.Record(3)

	// THEN the estimate is mean + stddev = 3
	testutil.AssertFloat64Equal(t, "cost", 3, h.EstimateCost(), 1e-12)
}

func TestValidationHistory_DropsOldestBeyondWindow(t *testing.T) {
	// GIVEN a window of 3
	h := NewValidationHistory(3)

	// WHEN 5 durations are recorded
	for _, d := range []float64{1, 2, 3, 4, 5} {
		h.Record(d)
	}

	// THEN only the last 3 remain, oldest first
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{3, 4, 5}, h.Durations())
}

func TestValidationHistory_WindowBelowOne_TreatedAsOne(t *testing.T) {
	h := NewValidationHistory(0)
	h.Record(7)
	h.Record(9)
	assert.Equal(t, 1, h.Window())
	assert.Equal(t, []float64{9}, h.Durations())
}

func TestValidationHistory_DurationsIsCopy(t *testing.T) {
	h := NewValidationHistory(2)
	h.Record(1)
	d := h.Durations()
	d[0] = 100
	assert.Equal(t, []float64{1}, h.Durations())
}
