// Package units holds the shared scalar types of the simulation:
// discrete time in milliseconds and the geometric tolerances used by
// the lane model. Every package that talks about simulation time goes
// through this package so that step arithmetic stays integral.
package units

import (
	"fmt"
	"math"
	"time"
)

// Time is a simulation timestamp or duration in milliseconds.
type Time int64

const (
	// Millisecond is the base resolution of simulation time.
	Millisecond Time = 1
	// Second is one simulated second.
	Second Time = 1000

	// PositionEps is the tolerance for "at the end of a lane" checks,
	// in meters.
	PositionEps = 0.1
)

// FromSeconds converts a duration in simulated seconds to Time,
// rounding to the nearest millisecond.
func FromSeconds(s float64) Time {
	return Time(math.Round(s * 1000))
}

// FromDuration converts a wall-clock duration to simulated Time.
func FromDuration(d time.Duration) Time {
	return Time(d.Milliseconds())
}

// Seconds returns t expressed in simulated seconds.
func (t Time) Seconds() float64 {
	return float64(t) / 1000
}

// Steps returns how many steps of the given length fit into t,
// rounding up so that a partial step still counts.
func (t Time) Steps(stepLength Time) int64 {
	if stepLength <= 0 {
		return 0
	}
	return int64((t + stepLength - 1) / stepLength)
}

func (t Time) String() string {
	return fmt.Sprintf("%.3fs", t.Seconds())
}
