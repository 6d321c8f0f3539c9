// Package video plays movies: demuxed H.264 packets go to an external
// decoder process, decoded frames come back over bounded channels and
// are presented against the audio clock.
package video

// FrameTiming places one decoded frame on the track timeline. Times
// are in track time-base units, not ticks.
type FrameTiming struct {
	FrameNumber uint32
	StartTime   uint64
	Duration    uint32
}

// Nv12Frame is one decoded frame: a full-resolution luma plane and a
// half-resolution interleaved chroma plane, both tightly packed.
type Nv12Frame struct {
	Width  uint32
	Height uint32
	Luma   []byte
	Chroma []byte
}

// Decoder produces decoded frames in display order.
type Decoder interface {
	// ReadFrame returns the next frame with its timing, or a nil frame
	// at the end of the stream.
	ReadFrame() (FrameTiming, *Nv12Frame, error)
	// FrameSize reports the coded frame size. It may block until the
	// decoder has seen the stream header.
	FrameSize() (width, height uint32, err error)
	Close() error
}

// PacketSource supplies the demuxed video bitstream in Annex B form,
// one sample at a time with its timing. The demuxer behind it is
// external; the player only relies on this contract.
type PacketSource interface {
	// TimeBase is the number of track time units per second.
	TimeBase() uint32
	// NextPacket returns the next sample, or io.EOF after the last one.
	NextPacket() (FrameTiming, []byte, error)
}
