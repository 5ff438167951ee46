package judge

import (
	"math"
	"time"
)

const (
	// DefaultOffset seeds the dynamic input offset at every attempt
	// start until real samples arrive.
	DefaultOffset = 70 * time.Millisecond

	// Raw errors outside (clampLow, clampHigh) are treated as noise
	// and never recorded.
	clampLow  = -20 * time.Millisecond
	clampHigh = 150 * time.Millisecond
)

// Calibrator estimates the player's systematic input latency as the
// cumulative mean of every accepted raw hit error this attempt, or
// stays pinned to a fixed offset when locked.
type Calibrator struct {
	errors []time.Duration
	sum    time.Duration
	offset time.Duration
	fixed  time.Duration
	locked bool
}

func NewCalibrator(fixed time.Duration, locked bool) *Calibrator {
	c := &Calibrator{fixed: fixed, locked: locked, offset: DefaultOffset}
	if locked {
		c.offset = fixed
	}
	return c
}

// Record feeds one raw error into the estimator. Out-of-clamp samples
// are dropped silently and the offset is left untouched.
func (c *Calibrator) Record(raw time.Duration) bool {
	if raw <= clampLow || raw >= clampHigh {
		return false
	}
	c.errors = append(c.errors, raw)
	c.sum += raw
	if !c.locked {
		c.offset = c.sum / time.Duration(len(c.errors))
	}
	return true
}

func (c *Calibrator) Offset() time.Duration {
	return c.offset
}

func (c *Calibrator) Count() int {
	return len(c.errors)
}

func (c *Calibrator) Mean() time.Duration {
	if len(c.errors) == 0 {
		return 0
	}
	return c.sum / time.Duration(len(c.errors))
}

// Stdev of the recorded raw errors in milliseconds.
func (c *Calibrator) Stdev() float64 {
	n := len(c.errors)
	if n < 2 {
		return 0
	}
	mean := float64(c.sum) / float64(n)
	var sq float64
	for _, e := range c.errors {
		xi := float64(e) - mean
		sq += xi * xi
	}
	return math.Sqrt(sq/float64(n-1)) / float64(time.Millisecond)
}
