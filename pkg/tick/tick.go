// Package tick provides the engine time unit and tween machinery.
//
// The engine counts time in ticks: 60 ticks make one second regardless
// of the display refresh rate.
package tick

import "time"

// TicksPerSecond is the fixed engine tick rate.
const TicksPerSecond = 60.0

// Ticks is a duration or instant measured in engine ticks.
type Ticks float32

const (
	Zero Ticks = 0
	One  Ticks = 1
)

// FromSeconds converts wall-clock seconds to ticks.
func FromSeconds(seconds float32) Ticks {
	return Ticks(seconds * TicksPerSecond)
}

// FromDuration converts a time.Duration to ticks.
func FromDuration(d time.Duration) Ticks {
	return FromSeconds(float32(d.Seconds()))
}

// FromMillis converts scenario milli-units (1000 = 1 second) to ticks.
func FromMillis(ms int32) Ticks {
	return FromSeconds(float32(ms) * 0.001)
}

// Seconds returns the tick count as wall-clock seconds.
func (t Ticks) Seconds() float32 {
	return float32(t) / TicksPerSecond
}

// Duration returns the tick count as a time.Duration.
func (t Ticks) Duration() time.Duration {
	return time.Duration(float64(t.Seconds()) * float64(time.Second))
}
