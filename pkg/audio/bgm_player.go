package audio

import (
	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// replaceTween is the short fade applied when a new sound displaces one
// that is still playing.
func replaceTween() tick.Tween {
	return tick.Linear(tick.FromMillis(15))
}

// BgmPlayer plays the single background music track.
type BgmPlayer struct {
	manager *Manager
	current *Handle
}

func NewBgmPlayer(manager *Manager) *BgmPlayer {
	return &BgmPlayer{manager: manager}
}

func (p *BgmPlayer) handle() *Handle {
	if p.current != nil && p.current.Finished() {
		p.current = nil
	}
	return p.current
}

// Play starts a new BGM track. Repeat loops the track from its stored
// loop point.
func (p *BgmPlayer) Play(file *nxa.File, repeat bool, volume float32, fadeIn tick.Tween) {
	if old := p.handle(); old != nil {
		logger.GetLogger().Warn("starting BGM while another one is playing")
		old.Stop(replaceTween())
	}
	handle, err := p.manager.PlayFile(file, Settings{
		Repeat:    repeat,
		LoopStart: file.Info.LoopStart,
		FadeIn:    fadeIn,
		Volume:    volume,
	})
	if err != nil {
		logger.GetLogger().Error("playing BGM", "error", err)
		return
	}
	p.current = handle
}

func (p *BgmPlayer) SetVolume(volume float32, tween tick.Tween) {
	if h := p.handle(); h != nil {
		h.SetVolume(volume, tween)
	} else {
		logger.GetLogger().Warn("setting BGM volume, but no BGM is playing")
	}
}

func (p *BgmPlayer) Stop(fadeOut tick.Tween) {
	if h := p.handle(); h != nil {
		h.Stop(fadeOut)
		p.current = nil
	} else {
		logger.GetLogger().Warn("stopping BGM, but no BGM is playing")
	}
}

func (p *BgmPlayer) WaitStatus() vm.AudioWaitStatus {
	if h := p.handle(); h != nil {
		return h.WaitStatus()
	}
	return 0
}

// PositionMillis is the playback position of the current track, for
// beat-synchronized waits.
func (p *BgmPlayer) PositionMillis() uint32 {
	if h := p.handle(); h != nil {
		return h.PositionMillis()
	}
	return 0
}
