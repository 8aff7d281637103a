package budget

import "math"

// TimeTransform maps elapsed seconds onto normalized progress in [0, 1] and back.
// Progress grows logarithmically so early seconds weigh more than late ones:
//
//	n(t) = ln(1 + t/T0) / ln(1 + Tmax/T0)
type TimeTransform struct {
	timeScale float64 // T0, seconds
	total     float64 // Tmax, seconds
	denom     float64 // ln(1 + Tmax/T0)
}

// NewTimeTransform builds a transform for the given time scale and total budget.
// Both values must be positive and finite.
func NewTimeTransform(timeScale, total float64) (TimeTransform, error) {
	if err := validateFinitePositive("time_scale_seconds", timeScale); err != nil {
		return TimeTransform{}, err
	}
	if err := validateFinitePositive("total_budget_seconds", total); err != nil {
		return TimeTransform{}, err
	}
	return TimeTransform{
		timeScale: timeScale,
		total:     total,
		denom:     math.Log1p(total / timeScale),
	}, nil
}

// ToNormalized converts absolute elapsed seconds to normalized progress.
// ToNormalized(0) == 0 and ToNormalized(Tmax) == 1.
func (tt TimeTransform) ToNormalized(seconds float64) float64 {
	return math.Log1p(seconds/tt.timeScale) / tt.denom
}

// ToAbsolute is the exact inverse of ToNormalized.
func (tt TimeTransform) ToAbsolute(normalized float64) float64 {
	return tt.timeScale * math.Expm1(normalized*tt.denom)
}

// TimeScale returns T0 in seconds.
func (tt TimeTransform) TimeScale() float64 { return tt.timeScale }

// Total returns Tmax in seconds.
func (tt TimeTransform) Total() float64 { return tt.total }
