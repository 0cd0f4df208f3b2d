package components

// Timer is a repeating countdown measured in seconds.
type Timer struct {
	Duration float32
	Elapsed  float32
}

// NewTimer returns a timer that fires every d seconds.
func NewTimer(d float32) Timer {
	return Timer{Duration: d}
}

// Tick advances the timer and reports whether it fired. A tick spanning
// several periods fires once and keeps the remainder.
func (t *Timer) Tick(dt float32) bool {
	if t.Duration <= 0 {
		return true
	}
	t.Elapsed += dt
	if t.Elapsed < t.Duration {
		return false
	}
	for t.Elapsed >= t.Duration {
		t.Elapsed -= t.Duration
	}
	return true
}

// Remaining returns the seconds until the next fire.
func (t Timer) Remaining() float32 {
	return t.Duration - t.Elapsed
}
