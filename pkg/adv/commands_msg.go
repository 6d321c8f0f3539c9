package adv

import (
	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

type cmdMsgInit struct {
	cmd vm.MsgInitCommand
}

func (c *cmdMsgInit) ApplyState(state *VmState) {
	state.Message.Style = c.cmd.Style
}

func (c *cmdMsgInit) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return finish(vm.ResultNone())
}

type cmdMsgSet struct {
	cmd vm.MsgSetCommand
}

func (c *cmdMsgSet) ApplyState(state *VmState) {
	state.Message.MsgID = c.cmd.MsgID
	state.Message.Text = c.cmd.Text
	state.Message.Shown = true
}

func (c *cmdMsgSet) Start(_ *UpdateContext, state *VmState, scene *AdvState) StartResult {
	params := layer.MsgsetParams{
		MessageboxType: state.Message.Style.Type,
		TextLayout:     state.Message.Style.Layout,
		MessageID:      c.cmd.MsgID,
	}
	if err := scene.Message().OnMsgset(c.cmd.Text, params, false); err != nil {
		logger.GetLogger().Warn("MSGSET: message rejected", "error", err)
		return finish(vm.ResultNone())
	}
	if c.cmd.AutoWait {
		return yield(&execMsgWait{signal: -1})
	}
	return finish(vm.ResultNone())
}

type cmdMsgWait struct {
	cmd vm.MsgWaitCommand
}

func (c *cmdMsgWait) ApplyState(*VmState) {}

func (c *cmdMsgWait) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return yield(&execMsgWait{signal: c.cmd.SignalNum})
}

// execMsgWait blocks until the message reaches a section, or the
// terminal wait for a negative signal.
type execMsgWait struct {
	signal int32
}

func (e *execMsgWait) Update(_ *UpdateContext, _ *VmState, scene *AdvState, _ bool) (vm.CommandResult, bool) {
	if scene.Message().RecvSyncIsWaiting(e.signal) {
		return vm.CommandResult{}, false
	}
	return vm.ResultNone(), true
}

type cmdMsgSignal struct{}

func (c *cmdMsgSignal) ApplyState(*VmState) {}

func (c *cmdMsgSignal) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	scene.Message().SendSync()
	return finish(vm.ResultNone())
}

type cmdMsgSync struct {
	cmd vm.MsgSyncCommand
}

func (c *cmdMsgSync) ApplyState(*VmState) {}

func (c *cmdMsgSync) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return yield(&execMsgSync{voiceIndex: c.cmd.VoiceIndex})
}

// execMsgSync blocks until the message's voice playback has advanced
// past the given clip index.
type execMsgSync struct {
	voiceIndex int32
}

func (e *execMsgSync) Update(_ *UpdateContext, _ *VmState, scene *AdvState, fastForward bool) (vm.CommandResult, bool) {
	if fastForward || scene.Message().VoiceCounter() >= int(e.voiceIndex) {
		return vm.ResultNone(), true
	}
	return vm.CommandResult{}, false
}

type cmdMsgClose struct {
	cmd vm.MsgCloseCommand
}

func (c *cmdMsgClose) ApplyState(state *VmState) {
	state.Message.Shown = false
	state.Message.Text = ""
}

func (c *cmdMsgClose) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	if c.cmd.WaitForClose {
		logger.GetLogger().Warn("MSGCLOSE: waiting for close is not supported")
	}
	scene.Message().Close(false)
	return finish(vm.ResultNone())
}
