package scenario

import (
	"bytes"
	"fmt"
	"io"

	"github.com/DCNick3/shin-sub001/pkg/format/sjis"
)

// Command is an instruction that yields control to the engine. The
// fields here are the encoded forms; the VM resolves NumberSpec
// operands against its memory before handing the command over.
type Command interface {
	isCommand()
}

// BitmaskNumberArray is eight optional numbers. A leading mask byte
// selects the present entries, LSB first; absent entries read as the
// constant zero.
type BitmaskNumberArray [8]NumberSpec

func readBitmaskNumberArray(r *Reader) (BitmaskNumberArray, error) {
	var arr BitmaskNumberArray
	mask, err := r.U8()
	if err != nil {
		return arr, err
	}
	for i := range arr {
		if mask&1 != 0 {
			if arr[i], err = ReadNumberSpec(r); err != nil {
				return arr, err
			}
		}
		mask >>= 1
	}
	return arr, nil
}

// readStringArray reads the compact string array used by SELECT: a u16
// byte size followed by null-terminated strings, the end marked by an
// empty one.
func readStringArray(r *Reader) ([]string, error) {
	size, err := r.U16()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading string array: %w", err)
	}
	var res []string
	for len(buf) > 0 {
		end := bytes.IndexByte(buf, 0)
		if end < 0 {
			return nil, fmt.Errorf("unterminated string in string array")
		}
		if end == 0 {
			break
		}
		s, err := sjis.Decode(buf[:end])
		if err != nil {
			return nil, err
		}
		res = append(res, s)
		buf = buf[end+1:]
	}
	return res, nil
}

func readU8Bool(r *Reader) (bool, error) {
	v, err := r.U8()
	return v != 0, err
}

// readMessageID reads the 24-bit message identifier of MSGSET.
func readMessageID(r *Reader) (uint32, error) {
	b0, err0 := r.U8()
	b1, err1 := r.U8()
	b2, err2 := r.U8()
	if err := firstErr(err0, err1, err2); err != nil {
		return 0, err
	}
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16, nil
}

// Exit shuts the VM down when Arg1 is zero; otherwise it is a NOP.
type Exit struct {
	Arg1 uint8
	Arg2 NumberSpec
}

// SGet reads a persistent storage slot into Dest.
type SGet struct {
	Dest       Register
	SlotNumber NumberSpec
}

// SSet writes a persistent storage slot.
type SSet struct {
	SlotNumber NumberSpec
	Value      NumberSpec
}

// Wait delays execution for WaitAmount ticks.
type Wait struct {
	AllowInterrupt bool
	WaitAmount     NumberSpec
}

// MsgInit sets the messagebox style.
type MsgInit struct {
	MessageboxStyle NumberSpec
}

// MsgSet shows a message. Text carries inline layouter commands.
type MsgSet struct {
	MsgID    uint32
	AutoWait bool
	Text     string
}

// MsgWait blocks until the message reaches the given section, or
// finishes fully for -1.
type MsgWait struct {
	SignalNum NumberSpec
}

// MsgSignal signals the message @y wait.
type MsgSignal struct{}

// MsgSync synchronizes with a point in the playing voice.
type MsgSync struct {
	VoiceIndex NumberSpec
	SyncTime   NumberSpec
}

// MsgClose closes the messagebox.
type MsgClose struct {
	WaitForClose bool
}

// Select shows a choice menu and stores the picked variant in Dest.
type Select struct {
	ChoiceSetBase        uint16
	ChoiceIndex          uint16
	Dest                 Register
	ChoiceVisibilityMask NumberSpec
	ChoiceTitle          string
	Variants             []string
}

// Wipe runs a fullscreen transition.
type Wipe struct {
	Arg1     NumberSpec
	Arg2     NumberSpec
	WipeTime NumberSpec
	Params   BitmaskNumberArray
}

// WipeWait blocks until the running wipe finishes.
type WipeWait struct{}

// BgmPlay starts a BGM track by scenario data id.
type BgmPlay struct {
	BgmDataID  NumberSpec
	FadeInTime NumberSpec
	NoRepeat   NumberSpec
	Volume     NumberSpec
}

// BgmStop stops the current BGM track.
type BgmStop struct {
	FadeOutTime NumberSpec
}

// BgmVol changes the BGM volume.
type BgmVol struct {
	Volume     NumberSpec
	FadeInTime NumberSpec
}

// BgmWait blocks until the BGM clears the given statuses.
type BgmWait struct {
	UnwantedStatuses NumberSpec
}

// BgmSync blocks until the BGM reaches the given time.
type BgmSync struct {
	SyncTime NumberSpec
}

// SePlay starts a sound effect in a slot.
type SePlay struct {
	SeSlot     NumberSpec
	SeDataID   NumberSpec
	FadeInTime NumberSpec
	NoRepeat   NumberSpec
	Volume     NumberSpec
	Pan        NumberSpec
	PlaySpeed  NumberSpec
}

// SeStop stops the sound effect in a slot.
type SeStop struct {
	SeSlot      NumberSpec
	FadeOutTime NumberSpec
}

// SeStopAll stops every sound effect slot.
type SeStopAll struct {
	FadeOutTime NumberSpec
}

// SeVol changes a slot's volume.
type SeVol struct {
	SeSlot     NumberSpec
	Volume     NumberSpec
	FadeInTime NumberSpec
}

// SePan changes a slot's pan.
type SePan struct {
	SeSlot     NumberSpec
	Pan        NumberSpec
	FadeInTime NumberSpec
}

// SeWait blocks until a slot clears the given statuses.
type SeWait struct {
	SeSlot           NumberSpec
	UnwantedStatuses NumberSpec
}

// SeOnce plays a one-shot sound effect without a slot.
type SeOnce struct {
	Arg1 NumberSpec
	Arg2 NumberSpec
	Arg3 NumberSpec
	Arg4 NumberSpec
	Arg5 NumberSpec
}

// VoicePlay plays a voice file by name.
type VoicePlay struct {
	Name   string
	Volume NumberSpec
	Flags  NumberSpec
}

// VoiceStop stops the playing voice.
type VoiceStop struct{}

// VoiceWait blocks until the voice clears the given statuses.
type VoiceWait struct {
	UnwantedStatuses NumberSpec
}

// SysSe plays a system sound effect.
type SysSe struct {
	SysSeID NumberSpec
	Volume  NumberSpec
}

// SaveInfo sets the save description at the given level.
type SaveInfo struct {
	Level NumberSpec
	Info  string
}

// AutoSave saves the game to the autosave slot.
type AutoSave struct{}

// EvBegin enters event (CG) mode.
type EvBegin struct {
	Arg NumberSpec
}

// EvEnd leaves event mode.
type EvEnd struct{}

// ResumeSet records the current position as the resume point.
type ResumeSet struct{}

// Resume jumps to the recorded resume point.
type Resume struct{}

// Syscall invokes an engine-specific function.
type Syscall struct {
	CallID   NumberSpec
	Argument NumberSpec
}

// Trophy grants an achievement.
type Trophy struct {
	TrophyID NumberSpec
}

// Unlock unlocks CG, BGM or movie gallery entries.
type Unlock struct {
	UnlockType    uint8
	UnlockIndices []NumberSpec
}

// LayerInit resets a layer's properties to their initial values.
type LayerInit struct {
	LayerID NumberSpec
}

// LayerLoad loads a user layer. The meaning of Params depends on the
// layer type.
type LayerLoad struct {
	LayerID   NumberSpec
	LayerType NumberSpec
	Flags     NumberSpec
	Params    BitmaskNumberArray
}

// LayerUnload unloads a user layer.
type LayerUnload struct {
	LayerID   NumberSpec
	DelayTime NumberSpec
}

// LayerCtrl changes a layer property, possibly through a transition.
// Params is (target value, duration, flags, easing parameter).
type LayerCtrl struct {
	LayerID    NumberSpec
	PropertyID NumberSpec
	Params     BitmaskNumberArray
}

// LayerWait blocks until the listed property transitions finish.
type LayerWait struct {
	LayerID        NumberSpec
	WaitProperties []NumberSpec
}

// LayerSwap exchanges two layers.
type LayerSwap struct {
	Arg1 NumberSpec
	Arg2 NumberSpec
}

// LayerSelect selects a range of layers for batch operations.
type LayerSelect struct {
	SelectionStartID NumberSpec
	SelectionEndID   NumberSpec
}

// MovieWait blocks until a movie layer reaches the target status.
type MovieWait struct {
	LayerID      NumberSpec
	TargetStatus NumberSpec
}

// TransSet configures a plane transition.
type TransSet struct {
	Arg1   NumberSpec
	Arg2   NumberSpec
	Arg3   NumberSpec
	Params BitmaskNumberArray
}

// TransWait blocks until the plane transition finishes.
type TransWait struct {
	Arg NumberSpec
}

// PageBack snapshots the current page for the transition source.
type PageBack struct{}

// PlaneSelect selects the plane targeted by layer commands.
type PlaneSelect struct {
	PlaneID NumberSpec
}

// PlaneClear unloads every layer of the selected plane.
type PlaneClear struct{}

// MaskLoad loads a transition mask.
type MaskLoad struct {
	MaskDataID NumberSpec
	MaskFlags  NumberSpec
	Transition NumberSpec
}

// MaskUnload unloads the transition mask.
type MaskUnload struct{}

// Chars unlocks a character screen entry.
type Chars struct {
	Arg1 NumberSpec
	Arg2 NumberSpec
}

// TipsGet unlocks TIPS entries.
type TipsGet struct {
	TipIDs []NumberSpec
}

// Quiz shows a quiz prompt and stores the answer in Dest.
type Quiz struct {
	Dest Register
	Arg  NumberSpec
}

// ShowChars shows the characters menu.
type ShowChars struct{}

// NotifySet shows a notification of the given type.
type NotifySet struct {
	Arg NumberSpec
}

// DebugOut prints a printf-style message to the debug console.
type DebugOut struct {
	Format string
	Args   []NumberSpec
}

func (Exit) isCommand()        {}
func (SGet) isCommand()        {}
func (SSet) isCommand()        {}
func (Wait) isCommand()        {}
func (MsgInit) isCommand()     {}
func (MsgSet) isCommand()      {}
func (MsgWait) isCommand()     {}
func (MsgSignal) isCommand()   {}
func (MsgSync) isCommand()     {}
func (MsgClose) isCommand()    {}
func (Select) isCommand()      {}
func (Wipe) isCommand()        {}
func (WipeWait) isCommand()    {}
func (BgmPlay) isCommand()     {}
func (BgmStop) isCommand()     {}
func (BgmVol) isCommand()      {}
func (BgmWait) isCommand()     {}
func (BgmSync) isCommand()     {}
func (SePlay) isCommand()      {}
func (SeStop) isCommand()      {}
func (SeStopAll) isCommand()   {}
func (SeVol) isCommand()       {}
func (SePan) isCommand()       {}
func (SeWait) isCommand()      {}
func (SeOnce) isCommand()      {}
func (VoicePlay) isCommand()   {}
func (VoiceStop) isCommand()   {}
func (VoiceWait) isCommand()   {}
func (SysSe) isCommand()       {}
func (SaveInfo) isCommand()    {}
func (AutoSave) isCommand()    {}
func (EvBegin) isCommand()     {}
func (EvEnd) isCommand()       {}
func (ResumeSet) isCommand()   {}
func (Resume) isCommand()      {}
func (Syscall) isCommand()     {}
func (Trophy) isCommand()      {}
func (Unlock) isCommand()      {}
func (LayerInit) isCommand()   {}
func (LayerLoad) isCommand()   {}
func (LayerUnload) isCommand() {}
func (LayerCtrl) isCommand()   {}
func (LayerWait) isCommand()   {}
func (LayerSwap) isCommand()   {}
func (LayerSelect) isCommand() {}
func (MovieWait) isCommand()   {}
func (MaskLoad) isCommand()    {}
func (MaskUnload) isCommand()  {}
func (TransSet) isCommand()    {}
func (TransWait) isCommand()   {}
func (PageBack) isCommand()    {}
func (PlaneSelect) isCommand() {}
func (PlaneClear) isCommand()  {}
func (Chars) isCommand()       {}
func (TipsGet) isCommand()     {}
func (Quiz) isCommand()        {}
func (ShowChars) isCommand()   {}
func (NotifySet) isCommand()   {}
func (DebugOut) isCommand()    {}

func readCommand(r *Reader, opcode uint8) (Command, error) {
	// Helpers returning through named fields keep the table readable.
	spec := func() (NumberSpec, error) { return ReadNumberSpec(r) }

	switch opcode {
	case 0x00:
		arg1, err := r.U8()
		if err != nil {
			return nil, err
		}
		arg2, err := spec()
		if err != nil {
			return nil, err
		}
		return Exit{Arg1: arg1, Arg2: arg2}, nil
	case 0x81:
		dest, err := readRegister(r)
		if err != nil {
			return nil, err
		}
		slot, err := spec()
		if err != nil {
			return nil, err
		}
		return SGet{Dest: dest, SlotNumber: slot}, nil
	case 0x82:
		slot, err := spec()
		if err != nil {
			return nil, err
		}
		value, err := spec()
		if err != nil {
			return nil, err
		}
		return SSet{SlotNumber: slot, Value: value}, nil
	case 0x83:
		allowInterrupt, err := readU8Bool(r)
		if err != nil {
			return nil, err
		}
		amount, err := spec()
		if err != nil {
			return nil, err
		}
		return Wait{AllowInterrupt: allowInterrupt, WaitAmount: amount}, nil
	case 0x85:
		style, err := spec()
		if err != nil {
			return nil, err
		}
		return MsgInit{MessageboxStyle: style}, nil
	case 0x86:
		msgID, err := readMessageID(r)
		if err != nil {
			return nil, err
		}
		autoWait, err := readU8Bool(r)
		if err != nil {
			return nil, err
		}
		text, err := sjis.ReadU16FixupString(r)
		if err != nil {
			return nil, err
		}
		return MsgSet{MsgID: msgID, AutoWait: autoWait, Text: text}, nil
	case 0x87:
		signal, err := spec()
		if err != nil {
			return nil, err
		}
		return MsgWait{SignalNum: signal}, nil
	case 0x88:
		return MsgSignal{}, nil
	case 0x89:
		voiceIndex, err := spec()
		if err != nil {
			return nil, err
		}
		syncTime, err := spec()
		if err != nil {
			return nil, err
		}
		return MsgSync{VoiceIndex: voiceIndex, SyncTime: syncTime}, nil
	case 0x8a:
		wait, err := readU8Bool(r)
		if err != nil {
			return nil, err
		}
		return MsgClose{WaitForClose: wait}, nil
	case 0x8d:
		base, err := r.U16()
		if err != nil {
			return nil, err
		}
		index, err := r.U16()
		if err != nil {
			return nil, err
		}
		dest, err := readRegister(r)
		if err != nil {
			return nil, err
		}
		mask, err := spec()
		if err != nil {
			return nil, err
		}
		title, err := sjis.ReadU16String(r)
		if err != nil {
			return nil, err
		}
		variants, err := readStringArray(r)
		if err != nil {
			return nil, err
		}
		return Select{
			ChoiceSetBase:        base,
			ChoiceIndex:          index,
			Dest:                 dest,
			ChoiceVisibilityMask: mask,
			ChoiceTitle:          title,
			Variants:             variants,
		}, nil
	case 0x8e:
		arg1, err := spec()
		if err != nil {
			return nil, err
		}
		arg2, err := spec()
		if err != nil {
			return nil, err
		}
		wipeTime, err := spec()
		if err != nil {
			return nil, err
		}
		params, err := readBitmaskNumberArray(r)
		if err != nil {
			return nil, err
		}
		return Wipe{Arg1: arg1, Arg2: arg2, WipeTime: wipeTime, Params: params}, nil
	case 0x8f:
		return WipeWait{}, nil
	case 0x90:
		var c BgmPlay
		var err error
		if c.BgmDataID, err = spec(); err != nil {
			return nil, err
		}
		if c.FadeInTime, err = spec(); err != nil {
			return nil, err
		}
		if c.NoRepeat, err = spec(); err != nil {
			return nil, err
		}
		if c.Volume, err = spec(); err != nil {
			return nil, err
		}
		return c, nil
	case 0x91:
		fadeOut, err := spec()
		if err != nil {
			return nil, err
		}
		return BgmStop{FadeOutTime: fadeOut}, nil
	case 0x92:
		volume, err := spec()
		if err != nil {
			return nil, err
		}
		fadeIn, err := spec()
		if err != nil {
			return nil, err
		}
		return BgmVol{Volume: volume, FadeInTime: fadeIn}, nil
	case 0x93:
		statuses, err := spec()
		if err != nil {
			return nil, err
		}
		return BgmWait{UnwantedStatuses: statuses}, nil
	case 0x94:
		syncTime, err := spec()
		if err != nil {
			return nil, err
		}
		return BgmSync{SyncTime: syncTime}, nil
	case 0x95:
		var c SePlay
		var err error
		if c.SeSlot, err = spec(); err != nil {
			return nil, err
		}
		if c.SeDataID, err = spec(); err != nil {
			return nil, err
		}
		if c.FadeInTime, err = spec(); err != nil {
			return nil, err
		}
		if c.NoRepeat, err = spec(); err != nil {
			return nil, err
		}
		if c.Volume, err = spec(); err != nil {
			return nil, err
		}
		if c.Pan, err = spec(); err != nil {
			return nil, err
		}
		if c.PlaySpeed, err = spec(); err != nil {
			return nil, err
		}
		return c, nil
	case 0x96:
		slot, err := spec()
		if err != nil {
			return nil, err
		}
		fadeOut, err := spec()
		if err != nil {
			return nil, err
		}
		return SeStop{SeSlot: slot, FadeOutTime: fadeOut}, nil
	case 0x97:
		fadeOut, err := spec()
		if err != nil {
			return nil, err
		}
		return SeStopAll{FadeOutTime: fadeOut}, nil
	case 0x98:
		var c SeVol
		var err error
		if c.SeSlot, err = spec(); err != nil {
			return nil, err
		}
		if c.Volume, err = spec(); err != nil {
			return nil, err
		}
		if c.FadeInTime, err = spec(); err != nil {
			return nil, err
		}
		return c, nil
	case 0x99:
		var c SePan
		var err error
		if c.SeSlot, err = spec(); err != nil {
			return nil, err
		}
		if c.Pan, err = spec(); err != nil {
			return nil, err
		}
		if c.FadeInTime, err = spec(); err != nil {
			return nil, err
		}
		return c, nil
	case 0x9a:
		slot, err := spec()
		if err != nil {
			return nil, err
		}
		statuses, err := spec()
		if err != nil {
			return nil, err
		}
		return SeWait{SeSlot: slot, UnwantedStatuses: statuses}, nil
	case 0x9b:
		var c SeOnce
		var err error
		if c.Arg1, err = spec(); err != nil {
			return nil, err
		}
		if c.Arg2, err = spec(); err != nil {
			return nil, err
		}
		if c.Arg3, err = spec(); err != nil {
			return nil, err
		}
		if c.Arg4, err = spec(); err != nil {
			return nil, err
		}
		if c.Arg5, err = spec(); err != nil {
			return nil, err
		}
		return c, nil
	case 0x9c:
		name, err := sjis.ReadU16String(r)
		if err != nil {
			return nil, err
		}
		volume, err := spec()
		if err != nil {
			return nil, err
		}
		flags, err := spec()
		if err != nil {
			return nil, err
		}
		return VoicePlay{Name: name, Volume: volume, Flags: flags}, nil
	case 0x9d:
		return VoiceStop{}, nil
	case 0x9e:
		statuses, err := spec()
		if err != nil {
			return nil, err
		}
		return VoiceWait{UnwantedStatuses: statuses}, nil
	case 0x9f:
		id, err := spec()
		if err != nil {
			return nil, err
		}
		volume, err := spec()
		if err != nil {
			return nil, err
		}
		return SysSe{SysSeID: id, Volume: volume}, nil
	case 0xa0:
		level, err := spec()
		if err != nil {
			return nil, err
		}
		info, err := sjis.ReadU16FixupString(r)
		if err != nil {
			return nil, err
		}
		return SaveInfo{Level: level, Info: info}, nil
	case 0xa1:
		return AutoSave{}, nil
	case 0xa2:
		arg, err := spec()
		if err != nil {
			return nil, err
		}
		return EvBegin{Arg: arg}, nil
	case 0xa3:
		return EvEnd{}, nil
	case 0xa4:
		return ResumeSet{}, nil
	case 0xa5:
		return Resume{}, nil
	case 0xa6:
		callID, err := spec()
		if err != nil {
			return nil, err
		}
		argument, err := spec()
		if err != nil {
			return nil, err
		}
		return Syscall{CallID: callID, Argument: argument}, nil
	case 0xb0:
		id, err := spec()
		if err != nil {
			return nil, err
		}
		return Trophy{TrophyID: id}, nil
	case 0xb1:
		unlockType, err := r.U8()
		if err != nil {
			return nil, err
		}
		indices, err := readNumberListU8(r)
		if err != nil {
			return nil, err
		}
		return Unlock{UnlockType: unlockType, UnlockIndices: indices}, nil
	case 0xc0:
		layerID, err := spec()
		if err != nil {
			return nil, err
		}
		return LayerInit{LayerID: layerID}, nil
	case 0xc1:
		var c LayerLoad
		var err error
		if c.LayerID, err = spec(); err != nil {
			return nil, err
		}
		if c.LayerType, err = spec(); err != nil {
			return nil, err
		}
		if c.Flags, err = spec(); err != nil {
			return nil, err
		}
		if c.Params, err = readBitmaskNumberArray(r); err != nil {
			return nil, err
		}
		return c, nil
	case 0xc2:
		layerID, err := spec()
		if err != nil {
			return nil, err
		}
		delay, err := spec()
		if err != nil {
			return nil, err
		}
		return LayerUnload{LayerID: layerID, DelayTime: delay}, nil
	case 0xc3:
		var c LayerCtrl
		var err error
		if c.LayerID, err = spec(); err != nil {
			return nil, err
		}
		if c.PropertyID, err = spec(); err != nil {
			return nil, err
		}
		if c.Params, err = readBitmaskNumberArray(r); err != nil {
			return nil, err
		}
		return c, nil
	case 0xc4:
		layerID, err := spec()
		if err != nil {
			return nil, err
		}
		props, err := readNumberListU8(r)
		if err != nil {
			return nil, err
		}
		return LayerWait{LayerID: layerID, WaitProperties: props}, nil
	case 0xc5:
		arg1, err := spec()
		if err != nil {
			return nil, err
		}
		arg2, err := spec()
		if err != nil {
			return nil, err
		}
		return LayerSwap{Arg1: arg1, Arg2: arg2}, nil
	case 0xc6:
		start, err := spec()
		if err != nil {
			return nil, err
		}
		end, err := spec()
		if err != nil {
			return nil, err
		}
		return LayerSelect{SelectionStartID: start, SelectionEndID: end}, nil
	case 0xc7:
		layerID, err := spec()
		if err != nil {
			return nil, err
		}
		status, err := spec()
		if err != nil {
			return nil, err
		}
		return MovieWait{LayerID: layerID, TargetStatus: status}, nil
	case 0xc9:
		var c TransSet
		var err error
		if c.Arg1, err = spec(); err != nil {
			return nil, err
		}
		if c.Arg2, err = spec(); err != nil {
			return nil, err
		}
		if c.Arg3, err = spec(); err != nil {
			return nil, err
		}
		if c.Params, err = readBitmaskNumberArray(r); err != nil {
			return nil, err
		}
		return c, nil
	case 0xca:
		arg, err := spec()
		if err != nil {
			return nil, err
		}
		return TransWait{Arg: arg}, nil
	case 0xcb:
		return PageBack{}, nil
	case 0xcc:
		planeID, err := spec()
		if err != nil {
			return nil, err
		}
		return PlaneSelect{PlaneID: planeID}, nil
	case 0xcd:
		return PlaneClear{}, nil
	case 0xce:
		var c MaskLoad
		var err error
		if c.MaskDataID, err = spec(); err != nil {
			return nil, err
		}
		if c.MaskFlags, err = spec(); err != nil {
			return nil, err
		}
		if c.Transition, err = spec(); err != nil {
			return nil, err
		}
		return c, nil
	case 0xcf:
		return MaskUnload{}, nil
	case 0xe0:
		arg1, err := spec()
		if err != nil {
			return nil, err
		}
		arg2, err := spec()
		if err != nil {
			return nil, err
		}
		return Chars{Arg1: arg1, Arg2: arg2}, nil
	case 0xe1:
		ids, err := readNumberListU8(r)
		if err != nil {
			return nil, err
		}
		return TipsGet{TipIDs: ids}, nil
	case 0xe2:
		dest, err := readRegister(r)
		if err != nil {
			return nil, err
		}
		arg, err := spec()
		if err != nil {
			return nil, err
		}
		return Quiz{Dest: dest, Arg: arg}, nil
	case 0xe3:
		return ShowChars{}, nil
	case 0xe4:
		arg, err := spec()
		if err != nil {
			return nil, err
		}
		return NotifySet{Arg: arg}, nil
	case 0xff:
		format, err := sjis.ReadU16String(r)
		if err != nil {
			return nil, err
		}
		args, err := readNumberListU8(r)
		if err != nil {
			return nil, err
		}
		return DebugOut{Format: format, Args: args}, nil
	}
	return nil, fmt.Errorf("unknown opcode")
}
