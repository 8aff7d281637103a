// Package trace provides decision-trace recording for training session analysis.
// This package has no dependencies on budget/ or its other sub-packages; it stores pure data types.
package trace

// SliceRecord captures the outcome of one training slice.
type SliceRecord struct {
	SessionID       string  `yaml:"session_id"`
	Invocation      int     `yaml:"invocation"`
	Steps           int     `yaml:"steps"`
	Checks          int     `yaml:"checks"`
	Reason          string  `yaml:"reason"`
	Done            bool    `yaml:"done"`
	MeanLoss        float64 `yaml:"mean_loss"`
	StartSeconds    float64 `yaml:"start_seconds"` // elapsed since the session clock origin
	DurationSeconds float64 `yaml:"duration_seconds"`
}

// CheckRecord captures a single validation decision. Skipped checks were
// refused by the budget guard and carry no error value.
type CheckRecord struct {
	SessionID        string  `yaml:"session_id"`
	Invocation       int     `yaml:"invocation"`
	Check            int     `yaml:"check"`
	ElapsedSeconds   float64 `yaml:"elapsed_seconds"`
	Normalized       float64 `yaml:"normalized"`
	RemainingSeconds float64 `yaml:"remaining_seconds"`
	EstimatedCost    float64 `yaml:"estimated_cost"`
	Skipped          bool    `yaml:"skipped"`
	Error            float64 `yaml:"error,omitempty"`
	Improved         bool    `yaml:"improved"`
	DurationSeconds  float64 `yaml:"duration_seconds,omitempty"`
}

// PredictionRecord captures one inference pass and the score it earned.
type PredictionRecord struct {
	SessionID       string  `yaml:"session_id"`
	Round           int     `yaml:"round"`
	ElapsedSeconds  float64 `yaml:"elapsed_seconds"` // when the predictions were delivered
	Normalized      float64 `yaml:"normalized"`
	Score           float64 `yaml:"score"`
	DurationSeconds float64 `yaml:"duration_seconds"`
}
