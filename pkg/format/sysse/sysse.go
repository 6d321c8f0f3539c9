// Package sysse reads the SYSE archive of built-in system sounds. Each
// sound is an ADPCM stream in an ADP1 container.
package sysse

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
)

const (
	archiveMagic = "SYSE"
	soundMagic   = "ADP1"

	entrySize       = 24
	soundHeaderSize = 16

	blocksPerFrame = 80
)

// Sound is a parsed but not yet decoded system sound.
type Sound struct {
	channelCount uint16
	sampleRate   uint32
	sampleCount  uint32
	data         []byte
}

func (s *Sound) ChannelCount() uint16 { return s.channelCount }
func (s *Sound) SampleRate() uint32   { return s.sampleRate }
func (s *Sound) SampleCount() uint32  { return s.sampleCount }

func parseSound(data []byte) (*Sound, error) {
	if len(data) < soundHeaderSize || string(data[:4]) != soundMagic {
		return nil, fmt.Errorf("not an ADP1 sound")
	}
	le := binary.LittleEndian
	if size := le.Uint32(data[4:]); size != uint32(len(data)) {
		return nil, fmt.Errorf("ADP1 size mismatch: header says %d, got %d", size, len(data))
	}
	channelCount := le.Uint16(data[8:])
	if channelCount != 1 && channelCount != 2 {
		return nil, fmt.Errorf("unsupported channel count %d", channelCount)
	}

	return &Sound{
		channelCount: channelCount,
		sampleRate:   uint32(le.Uint16(data[10:])),
		sampleCount:  le.Uint32(data[12:]),
		data:         data[soundHeaderSize:],
	}, nil
}

// Decode prepares a frame source reading the sound from the start.
func (s *Sound) Decode() *SoundDecoder {
	return &SoundDecoder{
		kernel:     newKernel(s.data, s.channelCount),
		sampleRate: s.sampleRate,
		remaining:  s.sampleCount,
	}
}

// SoundDecoder streams decoded ADPCM blocks. It implements
// nxa.FrameSource.
type SoundDecoder struct {
	kernel     *kernel
	reachedEOF bool
	sampleRate uint32
	position   uint32
	remaining  uint32
}

func (d *SoundDecoder) MaxFrameSize() int  { return blocksPerFrame * BlockSize }
func (d *SoundDecoder) SampleRate() uint32 { return d.sampleRate }
func (d *SoundDecoder) PreSkip() uint32    { return 0 }
func (d *SoundDecoder) PreRoll() uint32    { return 0 }

func (d *SoundDecoder) ReadFrame(dst *nxa.Buffer) bool {
	if d.reachedEOF {
		return false
	}

	wroteAnything := false
	for i := 0; i < blocksPerFrame; i++ {
		block, ok := d.kernel.decodeBlock()
		if !ok {
			d.reachedEOF = true
			break
		}
		wroteAnything = true

		// The last block may run past the declared sample count.
		n := uint32(BlockSize)
		if n >= d.remaining {
			n = d.remaining
			d.reachedEOF = true
		}
		for _, sample := range block[:n] {
			dst.Push(sample)
		}
		d.position += n
		d.remaining -= n
		if d.reachedEOF {
			break
		}
	}
	return wroteAnything
}

func (d *SoundDecoder) SeekSamples(position uint32) (uint32, error) {
	return 0, fmt.Errorf("system sounds do not support seeking")
}

func (d *SoundDecoder) CurrentSamplePosition() uint32 {
	return d.position
}

// SysSe is the full set of named system sounds.
type SysSe struct {
	Sounds map[string]*Sound
}

// Decode reads a SYSE archive.
func Decode(data []byte) (*SysSe, error) {
	if len(data) < 12 || string(data[:4]) != archiveMagic {
		return nil, fmt.Errorf("not a SYSE archive")
	}
	le := binary.LittleEndian
	if size := le.Uint32(data[4:]); size != uint32(len(data)) {
		return nil, fmt.Errorf("SYSE size mismatch: header says %d, got %d", size, len(data))
	}
	entryCount := int(le.Uint32(data[8:]))
	if len(data) < 12+entryCount*entrySize {
		return nil, fmt.Errorf("SYSE entry table out of bounds")
	}

	sounds := make(map[string]*Sound, entryCount)
	for i := 0; i < entryCount; i++ {
		entry := data[12+i*entrySize:]
		name := string(bytes.TrimRight(entry[:16], "\x00"))
		offset := le.Uint32(entry[16:])
		size := le.Uint32(entry[20:])
		if uint64(offset)+uint64(size) > uint64(len(data)) {
			return nil, fmt.Errorf("sound %q out of bounds", name)
		}
		sound, err := parseSound(data[offset : offset+size])
		if err != nil {
			return nil, fmt.Errorf("reading sound %q: %w", name, err)
		}
		sounds[name] = sound
	}

	return &SysSe{Sounds: sounds}, nil
}
