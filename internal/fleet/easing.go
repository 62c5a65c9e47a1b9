package fleet

import (
	"math"
	"time"
)

// EaseOutCubic maps progress t in [0,1] onto 1-(1-t)^3. Values outside the
// range are clamped.
func EaseOutCubic(t float64) float64 {
	if math.IsNaN(t) || t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	inv := 1 - t
	return 1 - inv*inv*inv
}

// Counter animates a number from From to To over Duration with cubic ease-out.
// It is a pure function of elapsed time; the caller samples it from whatever
// frame loop it runs.
type Counter struct {
	From     float64
	To       float64
	Duration time.Duration
}

// At returns the counter value after elapsed time
func (c Counter) At(elapsed time.Duration) float64 {
	if c.Duration <= 0 || elapsed >= c.Duration {
		return c.To
	}
	if elapsed <= 0 {
		return c.From
	}
	p := EaseOutCubic(float64(elapsed) / float64(c.Duration))
	return c.From + (c.To-c.From)*p
}

// Done reports whether the animation has finished at elapsed
func (c Counter) Done(elapsed time.Duration) bool {
	return elapsed >= c.Duration
}
