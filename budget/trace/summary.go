package trace

import "math"

// TraceSummary aggregates statistics from a SessionTrace.
type TraceSummary struct {
	Slices         int
	TotalSteps     int
	Checks         int
	SkippedChecks  int
	Improvements   int
	Predictions    int
	BestError      float64        // +Inf until a check completes
	FinalScore     float64
	ALC            float64        // area under the score curve in normalized time
	StopReasons    map[string]int // slice stop reason → count
	ValidationTime float64        // seconds spent in completed validation passes
}

// Summarize computes aggregate statistics from a SessionTrace.
// Safe for nil or empty traces: counts are zero and BestError stays +Inf.
func Summarize(st *SessionTrace) *TraceSummary {
	summary := &TraceSummary{
		BestError:   math.Inf(1),
		StopReasons: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.Slices = len(st.Slices)
	for _, s := range st.Slices {
		summary.TotalSteps += s.Steps
		summary.StopReasons[s.Reason]++
	}

	for _, c := range st.Checks {
		if c.Skipped {
			summary.SkippedChecks++
			continue
		}
		summary.Checks++
		summary.ValidationTime += c.DurationSeconds
		if c.Improved {
			summary.Improvements++
		}
		if c.Error < summary.BestError {
			summary.BestError = c.Error
		}
	}

	summary.Predictions = len(st.Predictions)
	if summary.Predictions > 0 {
		summary.FinalScore = st.Predictions[summary.Predictions-1].Score
	}
	summary.ALC = AreaUnderCurve(st.Predictions)

	return summary
}

// AreaUnderCurve integrates the step function defined by the prediction
// scores over normalized time, up to 1. The score is zero before the first
// prediction and each score holds until the next prediction. Records must be
// in delivery order; normalized times are clamped to [0, 1].
func AreaUnderCurve(preds []PredictionRecord) float64 {
	area := 0.0
	for i, p := range preds {
		from := clamp01(p.Normalized)
		to := 1.0
		if i+1 < len(preds) {
			to = clamp01(preds[i+1].Normalized)
		}
		if to > from {
			area += p.Score * (to - from)
		}
	}
	return area
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
