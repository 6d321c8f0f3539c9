// Package adv drives the scenario: it runs the VM until a command is
// yielded, applies the command's declarative effect to the VM-visible
// state, then executes it against the scene graph, audio players and
// asset server. Commands that need game ticks yield an executing
// command the game loop polls until completion.
package adv

import (
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// PersistSlotCount is the size of the persistent storage SGET/SSET
// address.
const PersistSlotCount = 0x100

// Persist is the persistent cell file shared between playthroughs.
type Persist struct {
	cells [PersistSlotCount]int32
}

// Get reads a slot, returning 0 for an out-of-range address.
func (p *Persist) Get(slot int32) int32 {
	if slot < 0 || slot >= PersistSlotCount {
		logger.GetLogger().Warn("persist slot out of range", "slot", slot)
		return 0
	}
	return p.cells[slot]
}

// Set writes a slot, ignoring an out-of-range address.
func (p *Persist) Set(slot int32, value int32) {
	if slot < 0 || slot >= PersistSlotCount {
		logger.GetLogger().Warn("persist slot out of range", "slot", slot)
		return
	}
	p.cells[slot] = value
}

// Raw exposes the cells for the savedata codec.
func (p *Persist) Raw() *[PersistSlotCount]int32 { return &p.cells }

// SaveInfo is the four-level save description set by SAVEINFO,
// from broadest (chapter) to narrowest (scene).
type SaveInfo struct {
	Levels [4]string
}

// Set stores one description level.
func (s *SaveInfo) Set(level int32, info string) {
	if level < 0 || level >= int32(len(s.Levels)) {
		logger.GetLogger().Warn("save info level out of range", "level", level)
		return
	}
	s.Levels[level] = info
}

// MessageState tracks the messagebox as the VM sees it.
type MessageState struct {
	Style vm.MessageboxStyle
	Shown bool
	MsgID uint32
	Text  string
}

// BgmState is the resumable BGM playback state. A track started with
// no-repeat is not recorded; it would not survive a reload anyway.
type BgmState struct {
	BgmID  int32
	Volume vm.Volume
}

// SeState is the resumable state of one sound effect slot.
type SeState struct {
	SeID      int32
	Volume    vm.Volume
	Pan       vm.Pan
	PlaySpeed float32
}

// SeSlotCount is the number of independent sound effect channels.
const SeSlotCount = 32

// AudioState is the resumable audio playback state.
type AudioState struct {
	Bgm *BgmState
	Se  [SeSlotCount]*SeState
}

// VmState is everything the scenario's commands have declared so far:
// the part of the runtime that goes into a save file and can rebuild
// the scene on load. Commands mutate it in their apply phase, before
// any scene or IO work happens.
type VmState struct {
	SaveInfo SaveInfo
	Message  MessageState
	Persist  Persist
	Audio    AudioState
	Layers   *LayersState
}

func NewVmState() *VmState {
	return &VmState{Layers: NewLayersState()}
}
