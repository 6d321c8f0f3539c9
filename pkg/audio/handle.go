package audio

import (
	"math"

	eaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// Handle is the game-thread side of a playing sound. Commands go over
// the ring buffer; state comes back through atomics, so nothing here
// blocks on the audio thread.
type Handle struct {
	ring   *commandRing
	shared *sharedState
	player *eaudio.Player
}

func (h *Handle) push(c command) {
	if err := h.ring.push(c); err != nil {
		logger.GetLogger().Warn("audio command dropped", "error", err)
	}
}

func (h *Handle) SetVolume(volume float32, tween tick.Tween) {
	h.push(command{kind: cmdSetVolume, target: volume, tween: tween})
}

func (h *Handle) SetPanning(panning float32, tween tick.Tween) {
	h.push(command{kind: cmdSetPanning, target: panning, tween: tween})
}

// Stop fades the sound out over the tween and lets it drain to
// silence before it is torn down.
func (h *Handle) Stop(fade tick.Tween) {
	h.push(command{kind: cmdStop, tween: fade})
}

func (h *Handle) WaitStatus() vm.AudioWaitStatus {
	return vm.AudioWaitStatus(h.shared.waitStatus.Load())
}

// PositionMillis is the source position currently being heard, in
// milliseconds.
func (h *Handle) PositionMillis() uint32 {
	return h.shared.positionMillis.Load()
}

// Amplitude is the peak level of the last processing block, used for
// lipsync.
func (h *Handle) Amplitude() float32 {
	return math.Float32frombits(h.shared.amplitude.Load())
}

// Finished reports whether the sound has stopped and fully drained.
func (h *Handle) Finished() bool {
	return h.shared.finished.Load()
}

// Close releases the output player. The handle must not be used
// afterwards.
func (h *Handle) Close() {
	if h.player != nil {
		h.player.Close()
		h.player = nil
	}
}
