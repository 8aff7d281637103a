package budget

import "gonum.org/v1/gonum/stat"

// ValidationHistory keeps the durations of the most recent validation
// passes, in seconds, oldest first. Capacity is fixed at construction.
type ValidationHistory struct {
	window    int
	durations []float64
}

// NewValidationHistory creates an empty history holding at most window durations.
// A window below 1 is treated as 1.
func NewValidationHistory(window int) *ValidationHistory {
	window = max(window, 1)
	return &ValidationHistory{
		window:    window,
		durations: make([]float64, 0, window),
	}
}

// Record appends a duration, dropping the oldest one when the window is full.
func (h *ValidationHistory) Record(seconds float64) {
	if len(h.durations) == h.window {
		copy(h.durations, h.durations[1:])
		h.durations[len(h.durations)-1] = seconds
		return
	}
	h.durations = append(h.durations, seconds)
}

// Len returns the number of recorded durations.
func (h *ValidationHistory) Len() int { return len(h.durations) }

// Window returns the capacity.
func (h *ValidationHistory) Window() int { return h.window }

// Durations returns a copy of the recorded durations, oldest first.
func (h *ValidationHistory) Durations() []float64 {
	return append([]float64(nil), h.durations...)
}

// EstimateCost predicts the duration of the next validation pass as
// mean + population standard deviation of the history; 0 when empty.
func (h *ValidationHistory) EstimateCost() float64 {
	if len(h.durations) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(h.durations, nil)
	return mean + std
}
