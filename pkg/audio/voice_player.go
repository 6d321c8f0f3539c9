package audio

import (
	"strings"

	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// Voice play flags carried by the VOICEPLAY command.
const (
	VoiceFlagLipsync int32 = 1 << iota
	VoiceFlagCharacterMuting
)

// VoicePlayer plays the voice clips referenced from message text. It
// satisfies the voice hook of the message layer.
type VoicePlayer struct {
	manager *Manager
	load    func(path string) (*nxa.File, error)
	current *Handle
	lipsync bool
}

// NewVoicePlayer creates a voice player; load resolves an asset path
// to a parsed NXA file, typically the asset server's LoadAudio.
func NewVoicePlayer(manager *Manager, load func(path string) (*nxa.File, error)) *VoicePlayer {
	return &VoicePlayer{manager: manager, load: load}
}

func (p *VoicePlayer) handle() *Handle {
	if p.current != nil && p.current.Finished() {
		p.current = nil
	}
	return p.current
}

// Play starts a voice clip, replacing whatever clip is still playing.
// The filename comes from message text and maps to /voice/<name>.nxa.
// segmentStart and segmentDuration are in milliseconds; the duration is
// advisory, the clip plays to its end.
func (p *VoicePlayer) Play(filename string, volume float32, lipsync bool, segmentStart, segmentDuration int32) bool {
	log := logger.GetLogger()

	if old := p.handle(); old != nil {
		old.Stop(replaceTween())
		p.current = nil
	}

	path := "/voice/" + strings.ToLower(filename) + ".nxa"
	file, err := p.load(path)
	if err != nil {
		log.Warn("loading voice clip", "path", path, "error", err)
		return false
	}

	source := nxa.NewSampleSource(nxa.NewDecoder(file))
	if segmentStart > 0 {
		samples := uint64(segmentStart) * uint64(file.Info.SampleRate) / 1000
		if err := source.SeekSamples(uint32(samples)); err != nil {
			log.Warn("seeking voice clip", "path", path, "error", err)
		}
	}

	handle, err := p.manager.Play(NewSound(source, Settings{
		FadeIn: tick.Immediate(),
		Volume: volume,
	}))
	if err != nil {
		log.Error("playing voice clip", "path", path, "error", err)
		return false
	}
	p.current = handle
	p.lipsync = lipsync
	return true
}

func (p *VoicePlayer) Stop() {
	if h := p.handle(); h != nil {
		h.Stop(replaceTween())
		p.current = nil
	}
}

func (p *VoicePlayer) WaitStatus() vm.AudioWaitStatus {
	if h := p.handle(); h != nil {
		return h.WaitStatus()
	}
	return 0
}

// Amplitude is the current level of the playing clip, or zero when
// lipsync was not requested for it.
func (p *VoicePlayer) Amplitude() float32 {
	if !p.lipsync {
		return 0
	}
	if h := p.handle(); h != nil {
		return h.Amplitude()
	}
	return 0
}
