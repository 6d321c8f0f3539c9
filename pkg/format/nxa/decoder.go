package nxa

import (
	"fmt"

	"github.com/pion/opus"
)

// RFC 7845 recommends 3840 samples (80ms) of pre-roll after seeking.
const preRoll = 3840

// Decoder decodes an NXA file's Opus packets into samples. It
// implements FrameSource.
type Decoder struct {
	frames *FrameReader
	info   AudioInfo
	dec    opus.Decoder
	pcm    []float32
	err    error
}

// NewDecoder prepares a decoder for a parsed file.
func NewDecoder(f *File) *Decoder {
	return &Decoder{
		frames: NewFrameReader(f),
		info:   f.Info,
		dec:    opus.NewDecoder(),
		pcm:    make([]float32, int(f.Info.FrameSamples)*int(f.Info.ChannelCount)),
	}
}

func (d *Decoder) MaxFrameSize() int  { return int(d.info.FrameSamples) }
func (d *Decoder) SampleRate() uint32 { return d.info.SampleRate }
func (d *Decoder) PreSkip() uint32    { return uint32(d.info.PreSkip) }
func (d *Decoder) PreRoll() uint32    { return preRoll }
func (d *Decoder) Info() AudioInfo    { return d.info }

// Err reports a decode failure after ReadFrame returned false.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) ReadFrame(dst *Buffer) bool {
	if d.err != nil {
		return false
	}
	packet, ok := d.frames.NextFrame()
	if !ok {
		return false
	}
	if _, _, err := d.dec.DecodeFloat32(packet, d.pcm); err != nil {
		d.err = fmt.Errorf("decoding opus frame %d: %w", d.frames.FramePosition()-1, err)
		return false
	}

	switch d.info.ChannelCount {
	case 1:
		for _, s := range d.pcm[:d.info.FrameSamples] {
			dst.Push(Sample{s, s})
		}
	case 2:
		for i := 0; i < int(d.info.FrameSamples); i++ {
			dst.Push(Sample{d.pcm[i*2], d.pcm[i*2+1]})
		}
	}
	return true
}

func (d *Decoder) SeekSamples(position uint32) (uint32, error) {
	if position > d.info.NumSamples {
		return 0, fmt.Errorf("seek position %d out of bounds (%d samples)", position, d.info.NumSamples)
	}
	frameSamples := uint32(d.info.FrameSamples)
	d.frames.SeekFrames(int(position / frameSamples))
	// The decoder carries inter-frame state; start fresh after a
	// discontinuity.
	d.dec = opus.NewDecoder()
	d.err = nil
	return position % frameSamples, nil
}

func (d *Decoder) CurrentSamplePosition() uint32 {
	return uint32(d.frames.FramePosition()) * uint32(d.info.FrameSamples)
}
