package budget

import (
	"io"
	"time"
)

// fakeClock only moves when a collaborator advances it.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(seconds float64) {
	c.now = c.now.Add(time.Duration(seconds * float64(time.Second)))
}

// countingSource serves n single-example batches; n < 0 never runs out.
type countingSource struct {
	n      int
	served int
	err    error // returned instead of a batch once set
}

func (s *countingSource) Next() (Batch, error) {
	if s.err != nil {
		return Batch{}, s.err
	}
	if s.n >= 0 && s.served >= s.n {
		return Batch{}, io.EOF
	}
	s.served++
	return Batch{Inputs: [][]float64{{float64(s.served)}}, Labels: [][]float64{{1}}}, nil
}

// timedTrainer charges stepSeconds to the clock per step.
type timedTrainer struct {
	clock       *fakeClock
	stepSeconds float64
	loss        float64
	steps       int
	failAt      int // 1-based step that fails; 0 never fails
	err         error
}

func (t *timedTrainer) Step(Batch) (float64, error) {
	if t.failAt > 0 && t.steps+1 == t.failAt {
		return 0, t.err
	}
	t.clock.advance(t.stepSeconds)
	t.steps++
	return t.loss, nil
}

// scriptedEvaluator returns errs in order, repeating the last one, and
// charges seconds (or durations[i] when set) to the clock per pass.
type scriptedEvaluator struct {
	clock     *fakeClock
	seconds   float64
	durations []float64
	errs      []float64
	calls     int
	err       error
	onCall    func() // runs before the pass is charged
}

func (e *scriptedEvaluator) Evaluate() (float64, error) {
	if e.onCall != nil {
		e.onCall()
	}
	if e.err != nil {
		return 0, e.err
	}
	i := e.calls
	e.calls++
	d := e.seconds
	if i < len(e.durations) {
		d = e.durations[i]
	}
	e.clock.advance(d)
	if len(e.errs) == 0 {
		return 0, nil
	}
	return e.errs[min(i, len(e.errs)-1)], nil
}

func newTestController(clock *fakeClock, opts ...Option) *Controller {
	c, err := NewController(DefaultConfig(), append([]Option{WithClock(clock)}, opts...)...)
	if err != nil {
		panic(err)
	}
	return c
}

// sliceSource serves a fixed list of batches once.
type sliceSource struct {
	batches []Batch
	next    int
}

func newSliceSource(batches ...Batch) *sliceSource {
	return &sliceSource{batches: batches}
}

func (s *sliceSource) Next() (Batch, error) {
	if s.next >= len(s.batches) {
		return Batch{}, io.EOF
	}
	b := s.batches[s.next]
	s.next++
	return b, nil
}
