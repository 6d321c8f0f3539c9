package app

import (
	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// Null audio sinks for headless runs. They report an idle status, so
// every audio wait completes on its first poll.

type nullBgm struct{}

func (nullBgm) Play(*nxa.File, bool, float32, tick.Tween) {}
func (nullBgm) SetVolume(float32, tick.Tween)             {}
func (nullBgm) Stop(tick.Tween)                           {}
func (nullBgm) WaitStatus() vm.AudioWaitStatus            { return 0 }
func (nullBgm) PositionMillis() uint32                    { return 0 }

type nullSe struct{}

func (nullSe) Play(int32, *nxa.File, bool, float32, float32, tick.Tween) {}
func (nullSe) SetVolume(int32, float32, tick.Tween)                      {}
func (nullSe) SetPanning(int32, float32, tick.Tween)                     {}
func (nullSe) Stop(int32, tick.Tween)                                    {}
func (nullSe) StopAll(tick.Tween)                                        {}
func (nullSe) WaitStatus(int32) vm.AudioWaitStatus                       { return 0 }

type nullVoice struct{}

func (nullVoice) Play(string, float32, bool, int32, int32) bool { return false }
func (nullVoice) Stop()                                         {}
func (nullVoice) WaitStatus() vm.AudioWaitStatus                { return 0 }
