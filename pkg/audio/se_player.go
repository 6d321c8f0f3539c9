package audio

import (
	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// SeSlotCount is the number of independent sound-effect channels the
// script can address.
const SeSlotCount = 32

// SePlayer plays sound effects in numbered slots.
type SePlayer struct {
	manager *Manager
	slots   [SeSlotCount]*Handle
}

func NewSePlayer(manager *Manager) *SePlayer {
	return &SePlayer{manager: manager}
}

func (p *SePlayer) slot(slot int32) *Handle {
	if slot < 0 || slot >= SeSlotCount {
		return nil
	}
	if h := p.slots[slot]; h != nil && !h.Finished() {
		return h
	}
	p.slots[slot] = nil
	return nil
}

func (p *SePlayer) Play(slot int32, file *nxa.File, repeat bool, volume, panning float32, fadeIn tick.Tween) {
	if slot < 0 || slot >= SeSlotCount {
		logger.GetLogger().Warn("SE slot out of range", "slot", slot)
		return
	}
	if old := p.slot(slot); old != nil {
		old.Stop(replaceTween())
	}
	handle, err := p.manager.PlayFile(file, Settings{
		Repeat:    repeat,
		LoopStart: file.Info.LoopStart,
		FadeIn:    fadeIn,
		Volume:    volume,
		Panning:   panning,
	})
	if err != nil {
		logger.GetLogger().Error("playing SE", "slot", slot, "error", err)
		return
	}
	p.slots[slot] = handle
}

func (p *SePlayer) SetVolume(slot int32, volume float32, tween tick.Tween) {
	if h := p.slot(slot); h != nil {
		h.SetVolume(volume, tween)
	} else {
		logger.GetLogger().Warn("setting SE volume, but no SE is playing", "slot", slot)
	}
}

func (p *SePlayer) SetPanning(slot int32, panning float32, tween tick.Tween) {
	if h := p.slot(slot); h != nil {
		h.SetPanning(panning, tween)
	} else {
		logger.GetLogger().Warn("setting SE panning, but no SE is playing", "slot", slot)
	}
}

func (p *SePlayer) Stop(slot int32, fadeOut tick.Tween) {
	if h := p.slot(slot); h != nil {
		h.Stop(fadeOut)
		p.slots[slot] = nil
	} else {
		logger.GetLogger().Warn("stopping SE, but no SE is playing", "slot", slot)
	}
}

func (p *SePlayer) StopAll(fadeOut tick.Tween) {
	for i := range p.slots {
		if h := p.slot(int32(i)); h != nil {
			h.Stop(fadeOut)
			p.slots[i] = nil
		}
	}
}

// WaitStatus reports the status of one slot. An empty slot reads as
// zero, which never blocks a wait.
func (p *SePlayer) WaitStatus(slot int32) vm.AudioWaitStatus {
	if h := p.slot(slot); h != nil {
		return h.WaitStatus()
	}
	return 0
}
