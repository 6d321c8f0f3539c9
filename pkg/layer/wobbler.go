package layer

import (
	"log/slog"
	"math"

	"github.com/DCNick3/shin-sub001/pkg/tick"
)

// WobbleMode selects the waveform of a wobbler.
type WobbleMode int32

const (
	WobbleDisabled WobbleMode = iota
	// Jumps to a random position every period.
	WobbleRandom
	// Triangular wave: 0 to 1 over the first quarter, 1 to -1 over the
	// middle half, -1 back to 0 over the last quarter.
	WobbleTriangular
	// Jumps between -1 for the first half and 1 for the second.
	WobbleSquare
	WobbleSine
	WobbleCosine
	WobbleAbsSine
	// Goes from 0 to 1 each period, then jumps back.
	WobbleSawtooth
	// Goes from 1 to 0 each period.
	WobbleInvSawtooth
)

// wobbleRand hashes a period index and seed into [-1, 1]. The
// multiplier and increment are the engine's shared LCG constants.
func wobbleRand(period int32, seed int32) float32 {
	state := uint32(period)*0x343fd + uint32(seed) + 0x269ec3
	state = state*0x343fd + 0x269ec3
	return float32(state>>8&0xffff)/32767.5 - 1
}

// Wobbler oscillates a property around its bias with one of the
// waveforms above. Time is measured in periods.
type Wobbler struct {
	mode   WobbleMode
	seed   int32
	period tick.Ticks
	time   float32

	warnedMode int32
}

// Active reports whether the wobbler contributes a value.
func (w *Wobbler) Active() bool {
	return w.mode != WobbleDisabled && w.period > 0
}

// Value returns the current waveform sample, 0 when inactive.
func (w *Wobbler) Value() float32 {
	v, _ := w.ValueOpt()
	return v
}

// ValueOpt returns the waveform sample and whether the wobbler is
// active.
func (w *Wobbler) ValueOpt() (float32, bool) {
	if !w.Active() {
		return 0, false
	}

	t := float32(math.Mod(float64(w.time), 1))
	switch w.mode {
	case WobbleRandom:
		return wobbleRand(int32(w.time-t), w.seed), true
	case WobbleTriangular:
		switch {
		case t < 0.25:
			return t * 4, true
		case t < 0.75:
			return 2 - t*4, true
		default:
			return t*4 - 4, true
		}
	case WobbleSquare:
		if t < 0.5 {
			return -1, true
		}
		return 1, true
	case WobbleSine:
		return float32(math.Sin(float64(t) * 2 * math.Pi)), true
	case WobbleCosine:
		return float32(math.Cos(float64(t) * 2 * math.Pi)), true
	case WobbleAbsSine:
		return float32(math.Abs(math.Sin(float64(t) * 2 * math.Pi))), true
	case WobbleSawtooth:
		return t, true
	case WobbleInvSawtooth:
		return 1 - t, true
	default:
		return 0, false
	}
}

// Update advances the wobbler. Changing the mode or period resets the
// phase.
func (w *Wobbler) Update(dt tick.Ticks, modeValue float32, period tick.Ticks) {
	modeInt := int32(modeValue)
	mode := WobbleMode(modeInt)
	if mode < WobbleDisabled || mode > WobbleInvSawtooth {
		if w.warnedMode != modeInt {
			slog.Warn("invalid wobble mode", "mode", modeInt)
			w.warnedMode = modeInt
		}
		mode = WobbleDisabled
	}

	if mode != w.mode || period != w.period {
		w.mode = mode
		w.period = period
		w.time = 0
	}

	if !w.Active() {
		return
	}

	time := w.time + float32(dt/w.period)
	timeInt := float32(math.Floor(float64(time)))
	timeFrac := time - timeInt
	if timeFrac < 0 {
		timeFrac += 1
	}

	// keep the integral part bounded so precision does not degrade
	timeInt = float32(math.Mod(float64(timeInt), 1000))
	if timeInt < 0 {
		timeInt += 1000
	}

	w.time = timeInt + timeFrac
}
