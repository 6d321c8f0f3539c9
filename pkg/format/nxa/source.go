package nxa

import "fmt"

// Sample is one stereo sample; mono sources duplicate the channel.
type Sample [2]float32

// Buffer collects decoded samples of one frame.
type Buffer struct {
	data []Sample
}

// NewBuffer preallocates space for capacity samples.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]Sample, 0, capacity)}
}

func (b *Buffer) Clear()          { b.data = b.data[:0] }
func (b *Buffer) Len() int        { return len(b.data) }
func (b *Buffer) Push(s Sample)   { b.data = append(b.data, s) }
func (b *Buffer) At(i int) Sample { return b.data[i] }

// FrameSource produces decoded audio one frame at a time.
type FrameSource interface {
	// MaxFrameSize sizes the sample buffer.
	MaxFrameSize() int
	SampleRate() uint32
	// PreSkip is the number of samples to drop at the start of the
	// stream.
	PreSkip() uint32
	// PreRoll is the number of samples to re-decode after a seek so
	// the decoder converges.
	PreRoll() uint32
	// ReadFrame decodes the next frame into the buffer, returning
	// false at the end of the stream.
	ReadFrame(dst *Buffer) bool
	// SeekSamples positions the source at the frame containing the
	// raw sample position and returns the in-frame offset the caller
	// must skip. The position does not account for pre-skip.
	SeekSamples(position uint32) (uint32, error)
	// CurrentSamplePosition is the raw position of the first sample
	// of the next frame.
	CurrentSamplePosition() uint32
}

// bufferReader walks a Buffer, tracking how much is consumed.
type bufferReader struct {
	buffer   *Buffer
	position uint32
}

func (r *bufferReader) clear() {
	r.buffer.Clear()
	r.position = 0
}

func (r *bufferReader) remaining() uint32 {
	return uint32(r.buffer.Len()) - r.position
}

// skip consumes up to count samples and returns how many are still
// owed.
func (r *bufferReader) skip(count uint32) uint32 {
	remaining := r.remaining()
	if remaining >= count {
		r.position += count
		return 0
	}
	r.position = uint32(r.buffer.Len())
	return count - remaining
}

func (r *bufferReader) read() (Sample, bool) {
	if int(r.position) >= r.buffer.Len() {
		return Sample{}, false
	}
	s := r.buffer.At(int(r.position))
	r.position++
	return s, true
}

// SampleSource adapts a FrameSource to sample-by-sample reads,
// handling pre-skip and pre-roll transparently.
type SampleSource struct {
	source   FrameSource
	reader   bufferReader
	skipLeft uint32
}

// NewSampleSource wraps a frame source, positioned at the first
// audible sample.
func NewSampleSource(source FrameSource) *SampleSource {
	return &SampleSource{
		source:   source,
		reader:   bufferReader{buffer: NewBuffer(source.MaxFrameSize())},
		skipLeft: source.PreSkip(),
	}
}

func (s *SampleSource) SampleRate() uint32 {
	return s.source.SampleRate()
}

// SeekSamples seeks to an audible sample position: passing 0 seeks to
// the first sample after the pre-skip.
func (s *SampleSource) SeekSamples(position uint32) error {
	s.reader.clear()

	rawPosition := position + s.source.PreSkip()
	preRoll := min(s.source.PreRoll(), rawPosition)

	inFrame, err := s.source.SeekSamples(rawPosition - preRoll)
	if err != nil {
		return fmt.Errorf("seeking audio source: %w", err)
	}
	s.skipLeft = s.reader.skip(inFrame + preRoll)
	return nil
}

// ReadSample returns the next sample, or false at the end of the
// stream.
func (s *SampleSource) ReadSample() (Sample, bool) {
	for {
		if s.skipLeft > 0 {
			s.skipLeft = s.reader.skip(s.skipLeft)
		}
		if sample, ok := s.reader.read(); ok {
			return sample, true
		}
		s.reader.clear()
		if !s.source.ReadFrame(s.reader.buffer) {
			return Sample{}, false
		}
	}
}

// Position is the audible position of the next sample to be read.
func (s *SampleSource) Position() uint32 {
	return s.source.CurrentSamplePosition() + s.skipLeft - s.reader.remaining() - s.source.PreSkip()
}

// Inner exposes the wrapped frame source.
func (s *SampleSource) Inner() FrameSource {
	return s.source
}
