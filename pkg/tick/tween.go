package tick

// Tween describes one interpolation: how long it takes and its easing.
type Tween struct {
	Duration Ticks
	Easing   Easing
}

// Immediate is a zero-duration tween; the value jumps to the target.
func Immediate() Tween {
	return Tween{Duration: 0, Easing: EaseLinear{}}
}

// Linear tweens to the target over the given duration without easing.
func Linear(duration Ticks) Tween {
	return Tween{Duration: duration, Easing: EaseLinear{}}
}

// Value interpolates between from and to at time t into the tween.
func (tw Tween) Value(from, to float32, t Ticks) float32 {
	if tw.Duration <= 0 {
		return to
	}
	progress := float32(t) / float32(tw.Duration)
	if progress >= 1 {
		return to
	}
	if progress < 0 {
		progress = 0
	}
	easing := tw.Easing
	if easing == nil {
		easing = EaseLinear{}
	}
	f := easing.Ease(progress)
	return from + (to-from)*f
}
