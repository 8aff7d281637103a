package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every slice outcome, validation check and prediction.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level     TraceLevel `yaml:"level"`
	SessionID string     `yaml:"session_id"`
}

// SessionTrace collects decision records during one training session.
// A nil *SessionTrace is valid and records nothing.
type SessionTrace struct {
	Config      TraceConfig        `yaml:"config"`
	Slices      []SliceRecord      `yaml:"slices"`
	Checks      []CheckRecord      `yaml:"checks"`
	Predictions []PredictionRecord `yaml:"predictions"`
}

// NewSessionTrace creates a SessionTrace ready for recording.
func NewSessionTrace(config TraceConfig) *SessionTrace {
	return &SessionTrace{
		Config:      config,
		Slices:      make([]SliceRecord, 0),
		Checks:      make([]CheckRecord, 0),
		Predictions: make([]PredictionRecord, 0),
	}
}

func (st *SessionTrace) enabled() bool {
	return st != nil && st.Config.Level == TraceLevelDecisions
}

// RecordSlice appends a slice outcome record.
func (st *SessionTrace) RecordSlice(record SliceRecord) {
	if st.enabled() {
		st.Slices = append(st.Slices, record)
	}
}

// RecordCheck appends a validation check record, including skipped checks.
func (st *SessionTrace) RecordCheck(record CheckRecord) {
	if st.enabled() {
		st.Checks = append(st.Checks, record)
	}
}

// RecordPrediction appends an inference pass record.
func (st *SessionTrace) RecordPrediction(record PredictionRecord) {
	if st.enabled() {
		st.Predictions = append(st.Predictions, record)
	}
}
