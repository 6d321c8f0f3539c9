package layer

import (
	"github.com/DCNick3/shin-sub001/pkg/tick"
)

// slideDirection is the direction a slideInterpolator moves in.
type slideDirection int

const (
	slideDecreasing slideDirection = iota
	slideIncreasing
)

func (d slideDirection) delta() float32 {
	if d == slideIncreasing {
		return 1
	}
	return -1
}

// slideInterpolator animates the messagebox slide-in and its opacity,
// clamped to [0, 1].
type slideInterpolator struct {
	direction slideDirection
	value     float32
}

const slideRatePerTick = 0.1

func newSlideInterpolator(value float32, direction slideDirection) slideInterpolator {
	return slideInterpolator{direction: direction, value: value}
}

func (s *slideInterpolator) SetDirection(d slideDirection) { s.direction = d }
func (s *slideInterpolator) SetValue(v float32)            { s.value = v }
func (s *slideInterpolator) Direction() slideDirection     { return s.direction }
func (s *slideInterpolator) Value() float32                { return s.value }

func (s *slideInterpolator) Update(dt tick.Ticks) float32 {
	s.value += float32(dt) * slideRatePerTick * s.direction.delta()
	if s.value < 0 {
		s.value = 0
	}
	if s.value > 1 {
		s.value = 1
	}
	return s.value
}

// IsFullyAt reports whether the interpolator moves towards direction
// and has arrived.
func (s *slideInterpolator) IsFullyAt(direction slideDirection) bool {
	if s.direction != direction {
		return false
	}
	if direction == slideIncreasing {
		return s.value >= 1
	}
	return s.value <= 0
}

// heightInterpolator moves the messagebox height towards its target at
// a fixed rate.
type heightInterpolator struct {
	target float32
	value  float32
}

const heightRatePerTick = 18.0

func newHeightInterpolator(value float32) heightInterpolator {
	return heightInterpolator{target: value, value: value}
}

func (h *heightInterpolator) SetTarget(target float32) { h.target = target }
func (h *heightInterpolator) SetValue(value float32)   { h.value = value }

// SetMinTarget raises the target to at least target.
func (h *heightInterpolator) SetMinTarget(target float32) {
	if target > h.target {
		h.target = target
	}
}

func (h *heightInterpolator) Update(dt tick.Ticks) {
	delta := float32(dt) * heightRatePerTick
	switch {
	case h.target < h.value:
		h.value -= delta
		if h.value < h.target {
			h.value = h.target
		}
	case h.target > h.value:
		h.value += delta
		if h.value > h.target {
			h.value = h.target
		}
	}
}

func (h *heightInterpolator) IsInterpolating() bool { return h.value != h.target }
func (h *heightInterpolator) Value() float32        { return h.value }

// countdown tracks a delay in seconds.
type countdown struct {
	timeLeft float32
}

func newCountdown(timeLeft float32) countdown {
	return countdown{timeLeft: timeLeft}
}

func (c *countdown) SetTimeLeft(t float32) { c.timeLeft = t }
func (c *countdown) IsDone() bool          { return c.timeLeft <= 0 }

func (c *countdown) Update(dt tick.Ticks) bool {
	if c.timeLeft > 0 {
		c.timeLeft -= dt.Seconds()
	}
	return c.IsDone()
}
