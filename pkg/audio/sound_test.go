package audio

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// sliceSource serves a fixed slice of samples at a fixed rate.
type sliceSource struct {
	rate    uint32
	samples []nxa.Sample
	pos     int
	seeks   []uint32
}

func (s *sliceSource) SampleRate() uint32 { return s.rate }

func (s *sliceSource) ReadSample() (nxa.Sample, bool) {
	if s.pos >= len(s.samples) {
		return nxa.Sample{}, false
	}
	out := s.samples[s.pos]
	s.pos++
	return out, true
}

func (s *sliceSource) SeekSamples(position uint32) error {
	s.seeks = append(s.seeks, position)
	s.pos = int(position)
	return nil
}

func (s *sliceSource) Position() uint32 { return uint32(s.pos) }

func constantSource(value float32, length int) *sliceSource {
	samples := make([]nxa.Sample, length)
	for i := range samples {
		samples[i] = nxa.Sample{value, value}
	}
	return &sliceSource{rate: OutputSampleRate, samples: samples}
}

// readStereo renders n output frames and decodes them back to int16.
func readStereo(t *testing.T, s *Sound, n int) (left, right []int16) {
	t.Helper()
	buf := make([]byte, n*bytesPerOutputFrame)
	got, err := s.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != len(buf) {
		t.Fatalf("Read returned %d bytes, want %d", got, len(buf))
	}
	for i := 0; i < n; i++ {
		left = append(left, int16(binary.LittleEndian.Uint16(buf[i*4:])))
		right = append(right, int16(binary.LittleEndian.Uint16(buf[i*4+2:])))
	}
	return left, right
}

func TestSoundPlaysSamples(t *testing.T) {
	s := NewSound(constantSource(0.5, 1000), Settings{
		FadeIn: tick.Immediate(),
		Volume: 1,
	})

	left, right := readStereo(t, s, 8)
	// the resampler history introduces three frames of latency
	for i := 0; i < 3; i++ {
		if left[i] != 0 {
			t.Errorf("frame %d = %d before the history filled", i, left[i])
		}
	}
	want := int16(float32(0.5) * 32767)
	for i := 3; i < 8; i++ {
		if left[i] != want || right[i] != want {
			t.Errorf("frame %d = %d/%d, want %d", i, left[i], right[i], want)
		}
	}

	h := s.Handle()
	if st := h.WaitStatus(); st&vm.AudioStatusPlaying == 0 {
		t.Errorf("status = %v, want playing", st)
	}
	if amp := h.Amplitude(); amp < 0.49 || amp > 0.51 {
		t.Errorf("amplitude = %v, want about 0.5", amp)
	}
}

func TestSoundVolumeCommand(t *testing.T) {
	s := NewSound(constantSource(0.5, 1000), Settings{
		FadeIn: tick.Immediate(),
		Volume: 1,
	})
	h := s.Handle()
	h.SetVolume(0.5, tick.Immediate())

	left, _ := readStereo(t, s, 16)
	want := int16(float32(0.25) * 32767)
	if left[10] != want {
		t.Errorf("frame 10 = %d, want %d", left[10], want)
	}
}

func TestSoundVolumeTweenStatus(t *testing.T) {
	s := NewSound(constantSource(0.5, 100000), Settings{
		FadeIn: tick.Immediate(),
		Volume: 1,
	})
	h := s.Handle()
	h.SetVolume(0, tick.Linear(tick.FromSeconds(10)))

	readStereo(t, s, 16)
	if st := h.WaitStatus(); st&vm.AudioStatusVolumeTweening == 0 {
		t.Errorf("status = %v, want a volume tween in flight", st)
	}
}

func TestSoundPanLaw(t *testing.T) {
	cases := []struct {
		name    string
		panning float32
		left    int16
		right   int16
	}{
		// full deflection boosts the loud side by sqrt(2), clamped
		{"full-right", 1, 0, 32767},
		{"full-left", -1, 32767, 0},
		{"center", 0, 32767, 32767},
	}
	for _, tc := range cases {
		s := NewSound(constantSource(1, 1000), Settings{
			FadeIn:  tick.Immediate(),
			Volume:  1,
			Panning: tc.panning,
		})
		left, right := readStereo(t, s, 8)
		if left[5] != tc.left || right[5] != tc.right {
			t.Errorf("%s: frame 5 = %d/%d, want %d/%d",
				tc.name, left[5], right[5], tc.left, tc.right)
		}
	}
}

func TestSoundLoops(t *testing.T) {
	source := constantSource(0.5, 10)
	s := NewSound(source, Settings{
		Repeat:    true,
		LoopStart: 4,
		FadeIn:    tick.Immediate(),
		Volume:    1,
	})

	readStereo(t, s, 64)
	if len(source.seeks) == 0 {
		t.Fatal("repeating sound never sought back")
	}
	for _, pos := range source.seeks {
		if pos != 4 {
			t.Errorf("seek to %d, want the loop start", pos)
		}
	}
	if st := s.Handle().WaitStatus(); st&vm.AudioStatusPlaying == 0 {
		t.Error("looping sound stopped")
	}
}

func TestSoundStopsAtEOF(t *testing.T) {
	s := NewSound(constantSource(0.5, 10), Settings{
		FadeIn: tick.Immediate(),
		Volume: 1,
	})
	h := s.Handle()

	readStereo(t, s, 64)
	if st := h.WaitStatus(); st&vm.AudioStatusPlaying != 0 {
		t.Error("still playing past the end of the source")
	}

	buf := make([]byte, 64)
	if _, err := s.Read(buf); err != io.EOF {
		t.Errorf("Read after drain: %v, want io.EOF", err)
	}
	if !h.Finished() {
		t.Error("drained sound not finished")
	}
}

func TestSoundFadeOutStops(t *testing.T) {
	s := NewSound(constantSource(0.5, 1000000), Settings{
		Repeat: true,
		FadeIn: tick.Immediate(),
		Volume: 1,
	})
	h := s.Handle()

	readStereo(t, s, 16)
	if st := h.WaitStatus(); st&vm.AudioStatusPlaying == 0 {
		t.Fatalf("status before stop = %v", st)
	}

	h.Stop(tick.Linear(6))
	readStereo(t, s, 16)
	if st := h.WaitStatus(); st&vm.AudioStatusFading == 0 {
		t.Fatalf("status during fade = %v, want fading", st)
	}

	// 6 ticks is 4800 output samples; read well past that
	readStereo(t, s, 4800)
	readStereo(t, s, 4800)
	if st := h.WaitStatus(); st&vm.AudioStatusPlaying != 0 {
		t.Fatal("still playing after the fade ran out")
	}

	buf := make([]byte, 64)
	sawEOF := false
	for i := 0; i < 10; i++ {
		if _, err := s.Read(buf); err == io.EOF {
			sawEOF = true
			break
		}
	}
	if !sawEOF {
		t.Error("faded-out sound never drained to EOF")
	}
	if !h.Finished() {
		t.Error("faded-out sound not finished")
	}
}

func TestSoundPositionMillis(t *testing.T) {
	s := NewSound(constantSource(0.5, 100000), Settings{
		FadeIn: tick.Immediate(),
		Volume: 1,
	})
	h := s.Handle()

	readStereo(t, s, 4800)
	ms := h.PositionMillis()
	if ms < 90 || ms > 110 {
		t.Errorf("position = %dms, want about 100ms", ms)
	}
}

func TestHandleDropsCommandsWhenFull(t *testing.T) {
	s := NewSound(constantSource(0.5, 1000), Settings{
		FadeIn: tick.Immediate(),
		Volume: 1,
	})
	h := s.Handle()
	for i := 0; i < commandBufferCapacity+4; i++ {
		h.SetVolume(float32(i), tick.Immediate())
	}
	if pending := s.ring.tail.Load() - s.ring.head.Load(); pending != commandBufferCapacity {
		t.Errorf("pending commands = %d, want the ring capacity", pending)
	}
	// the sound keeps working after the overflow
	readStereo(t, s, 8)
}
