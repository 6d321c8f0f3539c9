package adv

import (
	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// loadAudioByPath resolves an info-table path to a parsed NXA file.
func loadAudioByPath(ctx *UpdateContext, path string) (*nxa.File, bool) {
	file, err := ctx.Assets.LoadAudio(path)
	if err != nil {
		logger.GetLogger().Warn("loading audio track", "path", path, "error", err)
		return nil, false
	}
	return file, true
}

type cmdBgmPlay struct {
	cmd vm.BgmPlayCommand
}

func (c *cmdBgmPlay) ApplyState(state *VmState) {
	if c.cmd.NoRepeat {
		// A one-shot track would not survive a reload anyway.
		state.Audio.Bgm = nil
		return
	}
	state.Audio.Bgm = &BgmState{BgmID: c.cmd.BgmDataID, Volume: c.cmd.Volume}
}

func (c *cmdBgmPlay) Start(ctx *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	tables := ctx.Scenario.InfoTables()
	if c.cmd.BgmDataID < 0 || int(c.cmd.BgmDataID) >= len(tables.BgmInfo) {
		logger.GetLogger().Warn("BGMPLAY: bgm id out of range", "id", c.cmd.BgmDataID)
		return finish(vm.ResultNone())
	}
	file, ok := loadAudioByPath(ctx, tables.BgmInfo[c.cmd.BgmDataID].Path())
	if !ok {
		return finish(vm.ResultNone())
	}
	scene.Bgm.Play(file, !c.cmd.NoRepeat, float32(c.cmd.Volume), tick.Linear(c.cmd.FadeInTime))
	return finish(vm.ResultNone())
}

type cmdBgmStop struct {
	cmd vm.BgmStopCommand
}

func (c *cmdBgmStop) ApplyState(state *VmState) {
	state.Audio.Bgm = nil
}

func (c *cmdBgmStop) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	scene.Bgm.Stop(tick.Linear(c.cmd.FadeOutTime))
	return finish(vm.ResultNone())
}

type cmdBgmVol struct {
	cmd vm.BgmVolCommand
}

func (c *cmdBgmVol) ApplyState(state *VmState) {
	if state.Audio.Bgm != nil {
		state.Audio.Bgm.Volume = c.cmd.Volume
	}
}

func (c *cmdBgmVol) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	scene.Bgm.SetVolume(float32(c.cmd.Volume), tick.Linear(c.cmd.FadeInTime))
	return finish(vm.ResultNone())
}

type cmdBgmWait struct {
	cmd vm.BgmWaitCommand
}

func (c *cmdBgmWait) ApplyState(*VmState) {}

func (c *cmdBgmWait) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return yield(&execBgmWait{unwanted: c.cmd.UnwantedStatuses})
}

type execBgmWait struct {
	unwanted vm.AudioWaitStatus
}

func (e *execBgmWait) Update(_ *UpdateContext, _ *VmState, scene *AdvState, _ bool) (vm.CommandResult, bool) {
	if scene.Bgm.WaitStatus()&e.unwanted == 0 {
		return vm.ResultNone(), true
	}
	return vm.CommandResult{}, false
}

type cmdBgmSync struct {
	cmd vm.BgmSyncCommand
}

func (c *cmdBgmSync) ApplyState(*VmState) {}

func (c *cmdBgmSync) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return yield(&execBgmSync{syncMillis: c.cmd.SyncTime})
}

// execBgmSync blocks until the BGM position reaches the target, or
// the track stops.
type execBgmSync struct {
	syncMillis int32
}

func (e *execBgmSync) Update(_ *UpdateContext, _ *VmState, scene *AdvState, fastForward bool) (vm.CommandResult, bool) {
	playing := scene.Bgm.WaitStatus()&vm.AudioStatusPlaying != 0
	if fastForward || !playing || scene.Bgm.PositionMillis() >= uint32(e.syncMillis) {
		return vm.ResultNone(), true
	}
	return vm.CommandResult{}, false
}

type cmdSePlay struct {
	cmd vm.SePlayCommand
}

func (c *cmdSePlay) ApplyState(state *VmState) {
	if c.cmd.Slot < 0 || c.cmd.Slot >= SeSlotCount {
		logger.GetLogger().Warn("SEPLAY: slot out of range", "slot", c.cmd.Slot)
		return
	}
	if c.cmd.NoRepeat {
		state.Audio.Se[c.cmd.Slot] = nil
		return
	}
	state.Audio.Se[c.cmd.Slot] = &SeState{
		SeID:      c.cmd.SeDataID,
		Volume:    c.cmd.Volume,
		Pan:       c.cmd.Pan,
		PlaySpeed: float32(c.cmd.PlaySpeed) / 1000.0,
	}
}

func (c *cmdSePlay) Start(ctx *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	if c.cmd.PlaySpeed != 1000 {
		logger.GetLogger().Warn("SEPLAY: play speed is not supported", "speed", c.cmd.PlaySpeed)
	}
	tables := ctx.Scenario.InfoTables()
	if c.cmd.SeDataID < 0 || int(c.cmd.SeDataID) >= len(tables.SeInfo) {
		logger.GetLogger().Warn("SEPLAY: se id out of range", "id", c.cmd.SeDataID)
		return finish(vm.ResultNone())
	}
	file, ok := loadAudioByPath(ctx, tables.SeInfo[c.cmd.SeDataID].Path())
	if !ok {
		return finish(vm.ResultNone())
	}
	scene.Se.Play(c.cmd.Slot, file, !c.cmd.NoRepeat,
		float32(c.cmd.Volume), float32(c.cmd.Pan), tick.Linear(c.cmd.FadeInTime))
	return finish(vm.ResultNone())
}

type cmdSeStop struct {
	cmd vm.SeStopCommand
}

func (c *cmdSeStop) ApplyState(state *VmState) {
	if c.cmd.Slot >= 0 && c.cmd.Slot < SeSlotCount {
		state.Audio.Se[c.cmd.Slot] = nil
	}
}

func (c *cmdSeStop) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	scene.Se.Stop(c.cmd.Slot, tick.Linear(c.cmd.FadeOutTime))
	return finish(vm.ResultNone())
}

type cmdSeStopAll struct {
	cmd vm.SeStopAllCommand
}

func (c *cmdSeStopAll) ApplyState(state *VmState) {
	for i := range state.Audio.Se {
		state.Audio.Se[i] = nil
	}
}

func (c *cmdSeStopAll) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	scene.Se.StopAll(tick.Linear(c.cmd.FadeOutTime))
	return finish(vm.ResultNone())
}

type cmdSeVol struct {
	cmd vm.SeVolCommand
}

func (c *cmdSeVol) ApplyState(state *VmState) {
	if c.cmd.Slot >= 0 && c.cmd.Slot < SeSlotCount && state.Audio.Se[c.cmd.Slot] != nil {
		state.Audio.Se[c.cmd.Slot].Volume = c.cmd.Volume
	}
}

func (c *cmdSeVol) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	scene.Se.SetVolume(c.cmd.Slot, float32(c.cmd.Volume), tick.Linear(c.cmd.FadeInTime))
	return finish(vm.ResultNone())
}

type cmdSePan struct {
	cmd vm.SePanCommand
}

func (c *cmdSePan) ApplyState(state *VmState) {
	if c.cmd.Slot >= 0 && c.cmd.Slot < SeSlotCount && state.Audio.Se[c.cmd.Slot] != nil {
		state.Audio.Se[c.cmd.Slot].Pan = c.cmd.Pan
	}
}

func (c *cmdSePan) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	scene.Se.SetPanning(c.cmd.Slot, float32(c.cmd.Pan), tick.Linear(c.cmd.FadeInTime))
	return finish(vm.ResultNone())
}

type cmdSeWait struct {
	cmd vm.SeWaitCommand
}

func (c *cmdSeWait) ApplyState(*VmState) {}

func (c *cmdSeWait) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return yield(&execSeWait{slot: c.cmd.Slot, unwanted: c.cmd.UnwantedStatuses})
}

// execSeWait blocks on one slot, or on every slot for -1.
type execSeWait struct {
	slot     int32
	unwanted vm.AudioWaitStatus
}

func (e *execSeWait) Update(_ *UpdateContext, _ *VmState, scene *AdvState, _ bool) (vm.CommandResult, bool) {
	if e.slot >= 0 {
		if scene.Se.WaitStatus(e.slot)&e.unwanted == 0 {
			return vm.ResultNone(), true
		}
		return vm.CommandResult{}, false
	}
	for slot := int32(0); slot < SeSlotCount; slot++ {
		if scene.Se.WaitStatus(slot)&e.unwanted != 0 {
			return vm.CommandResult{}, false
		}
	}
	return vm.ResultNone(), true
}

type cmdSeOnce struct {
	cmd vm.SeOnceCommand
}

func (c *cmdSeOnce) ApplyState(*VmState) {}

func (c *cmdSeOnce) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	logger.GetLogger().Warn("SEONCE: one-shot sound effects are not supported")
	return finish(vm.ResultNone())
}

type cmdVoicePlay struct {
	cmd vm.VoicePlayCommand
}

func (c *cmdVoicePlay) ApplyState(*VmState) {}

func (c *cmdVoicePlay) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	lipsync := c.cmd.Flags&1 != 0
	scene.Voice.Play(c.cmd.Name, float32(c.cmd.Volume), lipsync, 0, 0)
	return finish(vm.ResultNone())
}

type cmdVoiceStop struct{}

func (c *cmdVoiceStop) ApplyState(*VmState) {}

func (c *cmdVoiceStop) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	scene.Voice.Stop()
	return finish(vm.ResultNone())
}

type cmdVoiceWait struct {
	cmd vm.VoiceWaitCommand
}

func (c *cmdVoiceWait) ApplyState(*VmState) {}

func (c *cmdVoiceWait) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return yield(&execVoiceWait{unwanted: c.cmd.UnwantedStatuses})
}

type execVoiceWait struct {
	unwanted vm.AudioWaitStatus
}

func (e *execVoiceWait) Update(_ *UpdateContext, _ *VmState, scene *AdvState, _ bool) (vm.CommandResult, bool) {
	if scene.Voice.WaitStatus()&e.unwanted == 0 {
		return vm.ResultNone(), true
	}
	return vm.CommandResult{}, false
}

type cmdSysSe struct {
	cmd vm.SysSeCommand
}

func (c *cmdSysSe) ApplyState(*VmState) {}

func (c *cmdSysSe) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	// System sounds come out of the UI layer's ADPCM bank, not the
	// scenario asset path.
	logger.GetLogger().Debug("SYSSE", "id", c.cmd.SysSeID)
	return finish(vm.ResultNone())
}
