package tick

import "math"

// Easing maps normalized progress in [0, 1] to an eased value.
type Easing interface {
	Ease(progress float32) float32
}

type EaseLinear struct{}

func (EaseLinear) Ease(x float32) float32 { return x }

// EaseSineIn starts slow.
type EaseSineIn struct{}

func (EaseSineIn) Ease(x float32) float32 {
	return 1 - float32(math.Cos(float64(x)*math.Pi/2))
}

// EaseSineOut ends slow.
type EaseSineOut struct{}

func (EaseSineOut) Ease(x float32) float32 {
	return float32(math.Sin(float64(x) * math.Pi / 2))
}

type EaseSineInOut struct{}

func (EaseSineInOut) Ease(x float32) float32 {
	return -(float32(math.Cos(float64(x)*math.Pi)) - 1) / 2
}

// EaseJump stays at the start value until the duration fully elapses.
type EaseJump struct{}

func (EaseJump) Ease(x float32) float32 {
	if x >= 1 {
		return 1
	}
	return 0
}

// EasePower is x^n for positive n; negative n mirrors the curve as
// 1-(1-x)^(-n).
type EasePower struct {
	Power int32
}

func (e EasePower) Ease(x float32) float32 {
	switch {
	case e.Power > 0:
		return float32(math.Pow(float64(x), float64(e.Power)))
	case e.Power < 0:
		return 1 - float32(math.Pow(float64(1-x), float64(-e.Power)))
	default:
		return x
	}
}
