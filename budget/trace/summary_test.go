package trace

import (
	"math"
	"testing"
)

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.Slices != 0 || summary.Checks != 0 || summary.ALC != 0 {
		t.Error("expected zero values for nil trace")
	}
	if summary.StopReasons == nil {
		t.Error("expected non-nil stop reasons map")
	}
	if !math.IsInf(summary.BestError, 1) {
		t.Errorf("expected +Inf best error without checks, got %v", summary.BestError)
	}
}

func TestSummarize_OnlySkippedChecks_BestErrorUnset(t *testing.T) {
	// GIVEN a trace whose only check was skipped by the budget guard
	st := NewSessionTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordCheck(CheckRecord{Check: 1, Skipped: true})

	// WHEN summarized
	summary := Summarize(st)

	// THEN no error value is reported as best
	if summary.Checks != 0 || summary.SkippedChecks != 1 {
		t.Errorf("expected 0 checks and 1 skipped, got %d and %d", summary.Checks, summary.SkippedChecks)
	}
	if !math.IsInf(summary.BestError, 1) {
		t.Errorf("expected +Inf best error, got %v", summary.BestError)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with slices, completed and skipped checks
	st := NewSessionTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordSlice(SliceRecord{Invocation: 1, Steps: 10, Reason: "improved"})
	st.RecordSlice(SliceRecord{Invocation: 2, Steps: 5, Reason: "exhausted"})
	st.RecordSlice(SliceRecord{Invocation: 3, Steps: 7, Reason: "budget"})
	st.RecordCheck(CheckRecord{Check: 1, Error: 0.6, Improved: true, DurationSeconds: 2})
	st.RecordCheck(CheckRecord{Check: 1, Error: 0.7, DurationSeconds: 3})
	st.RecordCheck(CheckRecord{Check: 1, Skipped: true})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.Slices != 3 {
		t.Errorf("expected 3 slices, got %d", summary.Slices)
	}
	if summary.TotalSteps != 22 {
		t.Errorf("expected 22 steps, got %d", summary.TotalSteps)
	}
	if summary.Checks != 2 || summary.SkippedChecks != 1 {
		t.Errorf("expected 2 checks and 1 skipped, got %d and %d", summary.Checks, summary.SkippedChecks)
	}
	if summary.Improvements != 1 {
		t.Errorf("expected 1 improvement, got %d", summary.Improvements)
	}
	if summary.BestError != 0.6 {
		t.Errorf("expected best error 0.6, got %v", summary.BestError)
	}
	if summary.ValidationTime != 5 {
		t.Errorf("expected 5s validation time, got %v", summary.ValidationTime)
	}
	if summary.StopReasons["budget"] != 1 || summary.StopReasons["improved"] != 1 {
		t.Errorf("unexpected stop reasons %v", summary.StopReasons)
	}
}

func TestAreaUnderCurve_StepFunction(t *testing.T) {
	// GIVEN predictions at normalized 0.2 (score 0.5) and 0.6 (score 0.8)
	preds := []PredictionRecord{
		{Round: 1, Normalized: 0.2, Score: 0.5},
		{Round: 2, Normalized: 0.6, Score: 0.8},
	}

	// THEN area = 0.5*(0.6-0.2) + 0.8*(1-0.6) = 0.52
	got := AreaUnderCurve(preds)
	if math.Abs(got-0.52) > 1e-12 {
		t.Errorf("expected ALC 0.52, got %v", got)
	}
}

func TestAreaUnderCurve_ClampsNormalizedTime(t *testing.T) {
	preds := []PredictionRecord{
		{Normalized: -0.1, Score: 1},
		{Normalized: 1.3, Score: 1},
	}
	if got := AreaUnderCurve(preds); math.Abs(got-1) > 1e-12 {
		t.Errorf("expected ALC 1, got %v", got)
	}
}

func TestAreaUnderCurve_Empty(t *testing.T) {
	if got := AreaUnderCurve(nil); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestSummarize_FinalScoreAndALC(t *testing.T) {
	st := NewSessionTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordPrediction(PredictionRecord{Round: 1, Normalized: 0.5, Score: 0.4})
	st.RecordPrediction(PredictionRecord{Round: 2, Normalized: 0.75, Score: 0.6})

	summary := Summarize(st)
	if summary.Predictions != 2 || summary.FinalScore != 0.6 {
		t.Errorf("expected 2 predictions with final score 0.6, got %d and %v", summary.Predictions, summary.FinalScore)
	}
	want := 0.4*0.25 + 0.6*0.25
	if math.Abs(summary.ALC-want) > 1e-12 {
		t.Errorf("expected ALC %v, got %v", want, summary.ALC)
	}
}
