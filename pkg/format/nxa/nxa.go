// Package nxa reads the NXA audio container: Opus packets stored
// back-to-back with fixed frame size, plus loop points in samples.
package nxa

import (
	"encoding/binary"
	"fmt"
)

const (
	magic   = "NXA1"
	version = 2

	// The info block is padded so frame data starts 16-byte aligned.
	dataOffset = 48
)

// AudioInfo is the stream metadata that would normally live in Opus
// headers.
type AudioInfo struct {
	// Sample rate in Hz.
	SampleRate uint32
	// 1 or 2.
	ChannelCount uint16
	// Size of every stored frame in bytes.
	FrameSize uint16
	// Samples decoded from one frame.
	FrameSamples uint16
	// Encoder delay to drop from the start of the stream.
	PreSkip uint16
	// Total samples in the file.
	NumSamples uint32
	// Loop points in samples. LoopEnd coincides with the end of the
	// file.
	LoopStart uint32
	LoopEnd   uint32
}

// File is a parsed but not yet decoded NXA file.
type File struct {
	Info AudioInfo
	// Concatenated Opus packets, FrameSize bytes each.
	Data []byte
}

// Parse reads the NXA header. Frame data is referenced, not copied.
func Parse(data []byte) (*File, error) {
	if len(data) < dataOffset || string(data[:4]) != magic {
		return nil, fmt.Errorf("not an NXA file")
	}
	le := binary.LittleEndian
	if v := le.Uint32(data[4:]); v != version {
		return nil, fmt.Errorf("unsupported NXA version %d", v)
	}
	if size := le.Uint32(data[8:]); size != uint32(len(data)) {
		return nil, fmt.Errorf("NXA size mismatch: header says %d, got %d", size, len(data))
	}

	info := AudioInfo{
		SampleRate:   le.Uint32(data[12:]),
		ChannelCount: le.Uint16(data[16:]),
		FrameSize:    le.Uint16(data[18:]),
		FrameSamples: le.Uint16(data[20:]),
		PreSkip:      le.Uint16(data[22:]),
		NumSamples:   le.Uint32(data[24:]),
		LoopStart:    le.Uint32(data[28:]),
		LoopEnd:      le.Uint32(data[32:]),
	}
	if info.ChannelCount != 1 && info.ChannelCount != 2 {
		return nil, fmt.Errorf("unsupported channel count %d", info.ChannelCount)
	}
	if info.FrameSize == 0 || info.FrameSamples == 0 {
		return nil, fmt.Errorf("NXA header has zero frame geometry")
	}
	if info.LoopEnd != info.NumSamples {
		return nil, fmt.Errorf("NXA loop end %d does not match sample count %d", info.LoopEnd, info.NumSamples)
	}

	return &File{Info: info, Data: data[dataOffset:]}, nil
}

// FrameReader iterates over the stored Opus packets.
type FrameReader struct {
	file *File
	pos  int
}

// NewFrameReader starts at the first frame.
func NewFrameReader(f *File) *FrameReader {
	return &FrameReader{file: f}
}

// FramePosition is the index of the next frame.
func (r *FrameReader) FramePosition() int {
	return r.pos / int(r.file.Info.FrameSize)
}

// SeekFrames positions the reader at a frame index.
func (r *FrameReader) SeekFrames(frame int) {
	r.pos = frame * int(r.file.Info.FrameSize)
}

// HasNext reports whether another frame is available.
func (r *FrameReader) HasNext() bool {
	return r.pos < len(r.file.Data)
}

// NextFrame returns the next packet, or false at the end of the file.
func (r *FrameReader) NextFrame() ([]byte, bool) {
	if r.pos >= len(r.file.Data) {
		return nil, false
	}
	size := int(r.file.Info.FrameSize)
	frame := r.file.Data[r.pos : r.pos+size]
	r.pos += size
	return frame, true
}
