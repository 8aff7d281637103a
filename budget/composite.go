package budget

import (
	"errors"
	"fmt"
)

// CompositeTrainer forwards every step to each of its members and reports
// the mean loss. Members are stepped in order; the first error aborts the step.
type CompositeTrainer struct {
	members []Trainer
}

// NewCompositeTrainer wraps the given trainers.
func NewCompositeTrainer(members ...Trainer) *CompositeTrainer {
	return &CompositeTrainer{members: members}
}

// Members returns the wrapped trainers.
func (ct *CompositeTrainer) Members() []Trainer { return ct.members }

func (ct *CompositeTrainer) Step(batch Batch) (float64, error) {
	if len(ct.members) == 0 {
		return 0, errors.New("composite trainer has no members")
	}
	sum := 0.0
	for i, m := range ct.members {
		loss, err := m.Step(batch)
		if err != nil {
			return 0, fmt.Errorf("member %d: %w", i, err)
		}
		sum += loss
	}
	return sum / float64(len(ct.members)), nil
}
