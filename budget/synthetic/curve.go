package synthetic

import (
	"math"
	"math/rand"
)

// LearningCurve models validation error as an exponential decay in the
// number of optimization steps, plus Gaussian noise:
//
//	err(s) = Floor + (Initial - Floor) * exp(-s / Tau) + N(0, Noise)
type LearningCurve struct {
	Initial float64 `yaml:"initial"`
	Floor   float64 `yaml:"floor"`
	Tau     float64 `yaml:"tau"` // steps per e-fold of improvement
	Noise   float64 `yaml:"noise"`
}

// At returns the noiseless error after steps.
func (lc LearningCurve) At(steps int) float64 {
	if lc.Tau <= 0 {
		return lc.Floor
	}
	return lc.Floor + (lc.Initial-lc.Floor)*math.Exp(-float64(steps)/lc.Tau)
}

// Sample returns the error after steps with noise drawn from rng, clamped at 0.
func (lc LearningCurve) Sample(steps int, rng *rand.Rand) float64 {
	v := lc.At(steps)
	if lc.Noise > 0 {
		v += rng.NormFloat64() * lc.Noise
	}
	return max(v, 0)
}
