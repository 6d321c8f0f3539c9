// Package audio plays NXA sounds through Ebitengine's audio context.
// Each sound renders itself as an io.Reader producing interleaved
// little-endian int16 stereo; the game thread talks to it through a
// lock-free command ring and a set of shared atomics.
package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync/atomic"

	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// OutputSampleRate is the rate every sound is resampled to for the
// output device.
const OutputSampleRate = 48000

const (
	// int16 left + int16 right.
	bytesPerOutputFrame = 4

	ticksPerOutputSample   = tick.TicksPerSecond / OutputSampleRate
	secondsPerOutputSample = 1.0 / OutputSampleRate
)

// Source produces stereo samples at its own rate. *nxa.SampleSource
// implements it.
type Source interface {
	SampleRate() uint32
	ReadSample() (nxa.Sample, bool)
	SeekSamples(position uint32) error
	Position() uint32
}

// Settings is the fixed part of a sound's configuration, applied once
// at creation. Everything else changes through the handle.
type Settings struct {
	// Repeat makes the sound seek back to LoopStart on EOF instead of
	// stopping.
	Repeat    bool
	LoopStart uint32
	FadeIn    tick.Tween
	Volume    float32
	Panning   float32
}

type playbackState int32

const (
	playbackPlaying playbackState = iota
	playbackStopping
	playbackStopped
)

// sharedState is written on the audio thread and read on the game
// thread.
type sharedState struct {
	waitStatus     atomic.Int32
	positionMillis atomic.Uint32
	amplitude      atomic.Uint32
	finished       atomic.Bool
}

// Sound is the audio-thread side of one playing sound. It owns the
// source, the resampler and the tweeners; the game thread only ever
// sees the Handle.
type Sound struct {
	source    Source
	repeat    bool
	loopStart uint32

	resampler          resampler
	fractionalPosition float64
	reachedEOF         bool

	state      playbackState
	volume     tick.Tweener
	panning    tick.Tweener
	volumeFade tick.Tweener

	ring   *commandRing
	shared *sharedState
}

// NewSound creates a sound that starts playing from the source's
// current position, fading in from silence.
func NewSound(source Source, settings Settings) *Sound {
	s := &Sound{
		source:     source,
		repeat:     settings.Repeat,
		loopStart:  settings.LoopStart,
		state:      playbackPlaying,
		volume:     tick.NewTweener(settings.Volume),
		panning:    tick.NewTweener(settings.Panning),
		volumeFade: tick.NewTweener(0),
		ring:       &commandRing{},
		shared:     &sharedState{},
	}
	s.volumeFade.EnqueueNow(1, settings.FadeIn)
	s.shared.waitStatus.Store(int32(s.waitStatus()))
	return s
}

// Handle returns the game-thread control surface for this sound.
func (s *Sound) Handle() *Handle {
	return &Handle{ring: s.ring, shared: s.shared}
}

func (s *Sound) applyCommand(c command) {
	// EnqueueNow rather than Enqueue: a new command should not wait for
	// previous audio changes to finish.
	switch c.kind {
	case cmdSetVolume:
		s.volume.EnqueueNow(c.target, c.tween)
	case cmdSetPanning:
		s.panning.EnqueueNow(c.target, c.tween)
	case cmdStop:
		s.volumeFade.EnqueueNow(0, c.tween)
		s.state = playbackStopping
	}
}

// pushFrameToResampler feeds the next source sample into the history,
// wrapping to the loop start on EOF when repeating. Once the sound is
// stopped it feeds silence instead so the history drains.
func (s *Sound) pushFrameToResampler() {
	var frame audioFrame
	if s.state != playbackStopped {
		sample, ok := s.source.ReadSample()
		if !ok && s.repeat {
			if err := s.source.SeekSamples(s.loopStart); err == nil {
				sample, ok = s.source.ReadSample()
			}
		}
		if ok {
			frame = audioFrame{left: sample[0], right: sample[1]}
		} else {
			s.reachedEOF = true
		}
	}
	s.resampler.push(frame, s.source.Position())
}

func (s *Sound) nextResampledFrame() audioFrame {
	out := s.resampler.get(s.fractionalPosition)
	s.fractionalPosition += secondsPerOutputSample * float64(s.source.SampleRate())
	for s.fractionalPosition >= 1 {
		s.fractionalPosition--
		s.pushFrameToResampler()
	}
	return out
}

// processFrame produces one output sample pair, advancing the tweeners
// by the per-sample time step.
func (s *Sound) processFrame() (float32, float32) {
	dt := tick.Ticks(ticksPerOutputSample)
	s.volume.Update(dt)
	s.panning.Update(dt)
	s.volumeFade.Update(dt)

	if s.state == playbackStopping && s.volumeFade.IsIdle() {
		s.state = playbackStopped
	}

	f := s.nextResampledFrame()
	if s.reachedEOF {
		s.state = playbackStopped
	}

	gain := s.volumeFade.Value() * s.volume.Value()
	left := f.left * gain
	right := f.right * gain

	if pan := s.panning.Value(); pan != 0 {
		// equal-power law, pan mapped from [-1, 1] to [0, 1]
		p := float64(pan+1) / 2
		left *= float32(math.Sqrt(1-p) * math.Sqrt2)
		right *= float32(math.Sqrt(p) * math.Sqrt2)
	}
	return left, right
}

func (s *Sound) finished() bool {
	return s.state == playbackStopped && s.resampler.outputtingSilence()
}

func (s *Sound) waitStatus() vm.AudioWaitStatus {
	var status vm.AudioWaitStatus
	if s.state != playbackStopped {
		status |= vm.AudioStatusPlaying
	}
	if !s.volumeFade.IsIdle() {
		status |= vm.AudioStatusFading
	}
	if !s.volume.IsIdle() {
		status |= vm.AudioStatusVolumeTweening
	}
	if !s.panning.IsIdle() {
		status |= vm.AudioStatusPanningTweening
	}
	return status
}

func (s *Sound) publish(peak float32) {
	s.shared.waitStatus.Store(int32(s.waitStatus()))
	if rate := s.source.SampleRate(); rate != 0 {
		samples := uint64(s.resampler.currentFrameIndex())
		s.shared.positionMillis.Store(uint32(samples * 1000 / uint64(rate)))
	}
	s.shared.amplitude.Store(math.Float32bits(peak))
}

// Read implements io.Reader for the output device. One call is one
// processing block: pending commands are drained first, then samples
// are rendered. Read returns io.EOF once the sound has stopped and the
// resampler has drained, which lets the player shut down.
func (s *Sound) Read(p []byte) (int, error) {
	if s.finished() {
		s.publish(0)
		s.shared.finished.Store(true)
		return 0, io.EOF
	}

	for {
		c, ok := s.ring.pop()
		if !ok {
			break
		}
		s.applyCommand(c)
	}

	frameCount := len(p) / bytesPerOutputFrame
	var peak float32
	for i := range frameCount {
		left, right := s.processFrame()
		peak = max(peak, absf(left), absf(right))
		l := int16(clampf(left, -1, 1) * 32767)
		r := int16(clampf(right, -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*bytesPerOutputFrame:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*bytesPerOutputFrame+2:], uint16(r))
	}

	s.publish(peak)
	return frameCount * bytesPerOutputFrame, nil
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampf(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
