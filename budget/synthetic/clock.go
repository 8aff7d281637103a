package synthetic

import "time"

// ManualClock is a simulated clock that only moves when advanced.
// The zero value starts at the Unix epoch.
type ManualClock struct {
	now time.Time
}

// NewManualClock starts a clock at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

func (c *ManualClock) Now() time.Time {
	if c.now.IsZero() {
		c.now = time.Unix(0, 0)
	}
	return c.now
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (c *ManualClock) Advance(d time.Duration) {
	if d > 0 {
		c.now = c.Now().Add(d)
	}
}

// AdvanceSeconds moves the clock forward by s seconds.
func (c *ManualClock) AdvanceSeconds(s float64) {
	c.Advance(time.Duration(s * float64(time.Second)))
}

// Since returns seconds elapsed since t.
func (c *ManualClock) Since(t time.Time) float64 {
	return c.Now().Sub(t).Seconds()
}
