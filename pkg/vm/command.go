package vm

import (
	"fmt"

	"github.com/DCNick3/shin-sub001/pkg/format/scenario"
	"github.com/DCNick3/shin-sub001/pkg/tick"
)

// Command is a scenario command with every operand resolved against
// the VM state, ready for the engine to execute.
//
// Most commands carry no feedback; SGET, SELECT and QUIZ report their
// result back through CommandResult.
type Command interface {
	isRuntimeCommand()
}

// CommandResult is what the engine hands back to the scripter after
// executing a command.
type CommandResult struct {
	writeMemory bool
	register    scenario.Register
	value       int32
}

// ResultNone continues execution without any writeback.
func ResultNone() CommandResult {
	return CommandResult{}
}

// ResultWrite stores a command's result into a register before the
// next instruction runs.
func ResultWrite(r scenario.Register, value int32) CommandResult {
	return CommandResult{writeMemory: true, register: r, value: value}
}

// ExitCommand shuts the VM down when Arg1 is zero.
type ExitCommand struct {
	Arg1 uint8
	Arg2 int32
}

// SGetCommand reads a persistent storage slot; the engine answers with
// ResultWrite(Dest, value).
type SGetCommand struct {
	Dest       scenario.Register
	SlotNumber int32
}

// SSetCommand writes a persistent storage slot.
type SSetCommand struct {
	SlotNumber int32
	Value      int32
}

// WaitCommand delays execution.
type WaitCommand struct {
	AllowInterrupt bool
	WaitAmount     tick.Ticks
}

// MsgInitCommand sets the messagebox style.
type MsgInitCommand struct {
	Style MessageboxStyle
}

// MsgSetCommand shows a message.
type MsgSetCommand struct {
	MsgID    uint32
	AutoWait bool
	Text     string
}

// MsgWaitCommand waits for a message section, -1 for the whole message.
type MsgWaitCommand struct {
	SignalNum int32
}

// MsgSignalCommand signals the message @y wait.
type MsgSignalCommand struct{}

// MsgSyncCommand synchronizes with the playing voice.
type MsgSyncCommand struct {
	VoiceIndex int32
	SyncTime   int32
}

// MsgCloseCommand closes the messagebox.
type MsgCloseCommand struct {
	WaitForClose bool
}

// SelectCommand shows a choice menu; the engine answers with
// ResultWrite(Dest, selected index).
type SelectCommand struct {
	ChoiceSetBase  uint16
	ChoiceIndex    uint16
	Dest           scenario.Register
	VisibilityMask int32
	Title          string
	Variants       []string
}

// WipeCommand runs a fullscreen transition.
type WipeCommand struct {
	Arg1     int32
	Arg2     int32
	WipeTime tick.Ticks
	Params   [8]int32
}

// WipeWaitCommand waits for the wipe to finish.
type WipeWaitCommand struct{}

// BgmPlayCommand starts a BGM track.
type BgmPlayCommand struct {
	BgmDataID  int32
	FadeInTime tick.Ticks
	NoRepeat   bool
	Volume     Volume
}

// BgmStopCommand stops the BGM.
type BgmStopCommand struct {
	FadeOutTime tick.Ticks
}

// BgmVolCommand fades the BGM volume.
type BgmVolCommand struct {
	Volume     Volume
	FadeInTime tick.Ticks
}

// BgmWaitCommand waits for BGM statuses to clear.
type BgmWaitCommand struct {
	UnwantedStatuses AudioWaitStatus
}

// BgmSyncCommand waits for the BGM to reach a time.
type BgmSyncCommand struct {
	SyncTime int32
}

// SePlayCommand starts a sound effect in a slot.
type SePlayCommand struct {
	Slot       int32
	SeDataID   int32
	FadeInTime tick.Ticks
	NoRepeat   bool
	Volume     Volume
	Pan        Pan
	PlaySpeed  int32
}

// SeStopCommand stops one sound effect slot.
type SeStopCommand struct {
	Slot        int32
	FadeOutTime tick.Ticks
}

// SeStopAllCommand stops every sound effect slot.
type SeStopAllCommand struct {
	FadeOutTime tick.Ticks
}

// SeVolCommand fades one slot's volume.
type SeVolCommand struct {
	Slot       int32
	Volume     Volume
	FadeInTime tick.Ticks
}

// SePanCommand fades one slot's pan.
type SePanCommand struct {
	Slot       int32
	Pan        Pan
	FadeInTime tick.Ticks
}

// SeWaitCommand waits for slot statuses to clear. Slot -1 addresses
// every slot.
type SeWaitCommand struct {
	Slot             int32
	UnwantedStatuses AudioWaitStatus
}

// SeOnceCommand plays a one-shot sound effect.
type SeOnceCommand struct {
	Arg1, Arg2, Arg3, Arg4, Arg5 int32
}

// VoicePlayCommand plays a voice file.
type VoicePlayCommand struct {
	Name   string
	Volume Volume
	Flags  int32
}

// VoiceStopCommand stops the voice.
type VoiceStopCommand struct{}

// VoiceWaitCommand waits for voice statuses to clear.
type VoiceWaitCommand struct {
	UnwantedStatuses AudioWaitStatus
}

// SysSeCommand plays a system sound effect.
type SysSeCommand struct {
	SysSeID int32
	Volume  Volume
}

// SaveInfoCommand sets the save description at a level.
type SaveInfoCommand struct {
	Level int32
	Info  string
}

// AutoSaveCommand saves to the autosave slot.
type AutoSaveCommand struct{}

// EvBeginCommand enters event mode.
type EvBeginCommand struct {
	Arg int32
}

// EvEndCommand leaves event mode.
type EvEndCommand struct{}

// ResumeSetCommand records the resume point.
type ResumeSetCommand struct{}

// ResumeCommand jumps to the resume point.
type ResumeCommand struct{}

// SyscallCommand invokes an engine-specific function.
type SyscallCommand struct {
	CallID   int32
	Argument int32
}

// TrophyCommand grants an achievement.
type TrophyCommand struct {
	TrophyID int32
}

// UnlockCommand unlocks gallery entries.
type UnlockCommand struct {
	UnlockType    uint8
	UnlockIndices []int32
}

// LayerInitCommand resets layer properties.
type LayerInitCommand struct {
	LayerID VLayerID
}

// LayerLoadCommand loads a user layer.
type LayerLoadCommand struct {
	LayerID   VLayerID
	LayerType LayerType
	Flags     LayerLoadFlags
	Params    [8]int32
}

// LayerUnloadCommand unloads a user layer.
type LayerUnloadCommand struct {
	LayerID   VLayerID
	DelayTime tick.Ticks
}

// LayerCtrlCommand changes a layer property. The packed params are
// (target value, duration, flags, easing parameter).
type LayerCtrlCommand struct {
	LayerID    VLayerID
	PropertyID int32
	Target     int32
	Time       tick.Ticks
	Flags      LayerCtrlFlags
	EasingArg  int32
}

// LayerWaitCommand waits for layer property transitions.
type LayerWaitCommand struct {
	LayerID        VLayerID
	WaitProperties []int32
}

// LayerSwapCommand exchanges two layers.
type LayerSwapCommand struct {
	Arg1 int32
	Arg2 int32
}

// LayerSelectCommand selects a layer range for batch operations.
type LayerSelectCommand struct {
	SelectionStart LayerID
	SelectionEnd   LayerID
}

// MovieWaitCommand waits for a movie layer status.
type MovieWaitCommand struct {
	LayerID      LayerID
	TargetStatus int32
}

// TransSetCommand configures a plane transition.
type TransSetCommand struct {
	Arg1, Arg2, Arg3 int32
	Params           [8]int32
}

// TransWaitCommand waits for the plane transition.
type TransWaitCommand struct {
	Arg int32
}

// PageBackCommand snapshots the page for the transition source.
type PageBackCommand struct{}

// PlaneSelectCommand selects the target plane.
type PlaneSelectCommand struct {
	PlaneID int32
}

// PlaneClearCommand unloads the selected plane's layers.
type PlaneClearCommand struct{}

// MaskLoadCommand loads a transition mask.
type MaskLoadCommand struct {
	MaskDataID int32
	Flags      MaskFlags
	Transition bool
}

// MaskUnloadCommand unloads the transition mask.
type MaskUnloadCommand struct{}

// CharsCommand unlocks a character screen entry.
type CharsCommand struct {
	Arg1 int32
	Arg2 int32
}

// TipsGetCommand unlocks TIPS entries.
type TipsGetCommand struct {
	TipIDs []int32
}

// QuizCommand shows a quiz; the engine answers with ResultWrite(Dest,
// answer).
type QuizCommand struct {
	Dest scenario.Register
	Arg  int32
}

// ShowCharsCommand shows the characters menu.
type ShowCharsCommand struct{}

// NotifySetCommand shows a notification.
type NotifySetCommand struct {
	Arg int32
}

// DebugOutCommand prints a formatted debug message.
type DebugOutCommand struct {
	Format string
	Args   []int32
}

func (ExitCommand) isRuntimeCommand()        {}
func (SGetCommand) isRuntimeCommand()        {}
func (SSetCommand) isRuntimeCommand()        {}
func (WaitCommand) isRuntimeCommand()        {}
func (MsgInitCommand) isRuntimeCommand()     {}
func (MsgSetCommand) isRuntimeCommand()      {}
func (MsgWaitCommand) isRuntimeCommand()     {}
func (MsgSignalCommand) isRuntimeCommand()   {}
func (MsgSyncCommand) isRuntimeCommand()     {}
func (MsgCloseCommand) isRuntimeCommand()    {}
func (SelectCommand) isRuntimeCommand()      {}
func (WipeCommand) isRuntimeCommand()        {}
func (WipeWaitCommand) isRuntimeCommand()    {}
func (BgmPlayCommand) isRuntimeCommand()     {}
func (BgmStopCommand) isRuntimeCommand()     {}
func (BgmVolCommand) isRuntimeCommand()      {}
func (BgmWaitCommand) isRuntimeCommand()     {}
func (BgmSyncCommand) isRuntimeCommand()     {}
func (SePlayCommand) isRuntimeCommand()      {}
func (SeStopCommand) isRuntimeCommand()      {}
func (SeStopAllCommand) isRuntimeCommand()   {}
func (SeVolCommand) isRuntimeCommand()       {}
func (SePanCommand) isRuntimeCommand()       {}
func (SeWaitCommand) isRuntimeCommand()      {}
func (SeOnceCommand) isRuntimeCommand()      {}
func (VoicePlayCommand) isRuntimeCommand()   {}
func (VoiceStopCommand) isRuntimeCommand()   {}
func (VoiceWaitCommand) isRuntimeCommand()   {}
func (SysSeCommand) isRuntimeCommand()       {}
func (SaveInfoCommand) isRuntimeCommand()    {}
func (AutoSaveCommand) isRuntimeCommand()    {}
func (EvBeginCommand) isRuntimeCommand()     {}
func (EvEndCommand) isRuntimeCommand()       {}
func (ResumeSetCommand) isRuntimeCommand()   {}
func (ResumeCommand) isRuntimeCommand()      {}
func (SyscallCommand) isRuntimeCommand()     {}
func (TrophyCommand) isRuntimeCommand()      {}
func (UnlockCommand) isRuntimeCommand()      {}
func (LayerInitCommand) isRuntimeCommand()   {}
func (LayerLoadCommand) isRuntimeCommand()   {}
func (LayerUnloadCommand) isRuntimeCommand() {}
func (LayerCtrlCommand) isRuntimeCommand()   {}
func (LayerWaitCommand) isRuntimeCommand()   {}
func (LayerSwapCommand) isRuntimeCommand()   {}
func (LayerSelectCommand) isRuntimeCommand() {}
func (MovieWaitCommand) isRuntimeCommand()   {}
func (TransSetCommand) isRuntimeCommand()    {}
func (TransWaitCommand) isRuntimeCommand()   {}
func (PageBackCommand) isRuntimeCommand()    {}
func (PlaneSelectCommand) isRuntimeCommand() {}
func (PlaneClearCommand) isRuntimeCommand()  {}
func (MaskLoadCommand) isRuntimeCommand()    {}
func (MaskUnloadCommand) isRuntimeCommand()  {}
func (CharsCommand) isRuntimeCommand()       {}
func (TipsGetCommand) isRuntimeCommand()     {}
func (QuizCommand) isRuntimeCommand()        {}
func (ShowCharsCommand) isRuntimeCommand()   {}
func (NotifySetCommand) isRuntimeCommand()   {}
func (DebugOutCommand) isRuntimeCommand()    {}

func (ctx *Context) numbers(specs []scenario.NumberSpec) []int32 {
	values := make([]int32, len(specs))
	for i, spec := range specs {
		values[i] = ctx.Number(spec)
	}
	return values
}

func (ctx *Context) numberArray(arr scenario.BitmaskNumberArray) [8]int32 {
	var values [8]int32
	for i, spec := range arr {
		values[i] = ctx.Number(spec)
	}
	return values
}

func (ctx *Context) vlayer(spec scenario.NumberSpec) (VLayerID, error) {
	return NewVLayerID(ctx.Number(spec))
}

// ResolveCommand converts an encoded command into its runtime form by
// reading every operand from the context.
func (ctx *Context) ResolveCommand(cmd scenario.Command) (Command, error) {
	switch c := cmd.(type) {
	case scenario.Exit:
		return ExitCommand{Arg1: c.Arg1, Arg2: ctx.Number(c.Arg2)}, nil
	case scenario.SGet:
		return SGetCommand{Dest: c.Dest, SlotNumber: ctx.Number(c.SlotNumber)}, nil
	case scenario.SSet:
		return SSetCommand{SlotNumber: ctx.Number(c.SlotNumber), Value: ctx.Number(c.Value)}, nil
	case scenario.Wait:
		return WaitCommand{
			AllowInterrupt: c.AllowInterrupt,
			WaitAmount:     TicksFromNumber(ctx.Number(c.WaitAmount)),
		}, nil
	case scenario.MsgInit:
		return MsgInitCommand{Style: MessageboxStyleFromNumber(ctx.Number(c.MessageboxStyle))}, nil
	case scenario.MsgSet:
		return MsgSetCommand{MsgID: c.MsgID, AutoWait: c.AutoWait, Text: c.Text}, nil
	case scenario.MsgWait:
		return MsgWaitCommand{SignalNum: ctx.Number(c.SignalNum)}, nil
	case scenario.MsgSignal:
		return MsgSignalCommand{}, nil
	case scenario.MsgSync:
		return MsgSyncCommand{VoiceIndex: ctx.Number(c.VoiceIndex), SyncTime: ctx.Number(c.SyncTime)}, nil
	case scenario.MsgClose:
		return MsgCloseCommand{WaitForClose: c.WaitForClose}, nil
	case scenario.Select:
		return SelectCommand{
			ChoiceSetBase:  c.ChoiceSetBase,
			ChoiceIndex:    c.ChoiceIndex,
			Dest:           c.Dest,
			VisibilityMask: ctx.Number(c.ChoiceVisibilityMask),
			Title:          c.ChoiceTitle,
			Variants:       c.Variants,
		}, nil
	case scenario.Wipe:
		return WipeCommand{
			Arg1:     ctx.Number(c.Arg1),
			Arg2:     ctx.Number(c.Arg2),
			WipeTime: TicksFromNumber(ctx.Number(c.WipeTime)),
			Params:   ctx.numberArray(c.Params),
		}, nil
	case scenario.WipeWait:
		return WipeWaitCommand{}, nil
	case scenario.BgmPlay:
		return BgmPlayCommand{
			BgmDataID:  ctx.Number(c.BgmDataID),
			FadeInTime: TicksFromNumber(ctx.Number(c.FadeInTime)),
			NoRepeat:   ctx.Number(c.NoRepeat) != 0,
			Volume:     VolumeFromNumber(ctx.Number(c.Volume)),
		}, nil
	case scenario.BgmStop:
		return BgmStopCommand{FadeOutTime: TicksFromNumber(ctx.Number(c.FadeOutTime))}, nil
	case scenario.BgmVol:
		return BgmVolCommand{
			Volume:     VolumeFromNumber(ctx.Number(c.Volume)),
			FadeInTime: TicksFromNumber(ctx.Number(c.FadeInTime)),
		}, nil
	case scenario.BgmWait:
		return BgmWaitCommand{UnwantedStatuses: AudioWaitStatus(ctx.Number(c.UnwantedStatuses))}, nil
	case scenario.BgmSync:
		return BgmSyncCommand{SyncTime: ctx.Number(c.SyncTime)}, nil
	case scenario.SePlay:
		return SePlayCommand{
			Slot:       ctx.Number(c.SeSlot),
			SeDataID:   ctx.Number(c.SeDataID),
			FadeInTime: TicksFromNumber(ctx.Number(c.FadeInTime)),
			NoRepeat:   ctx.Number(c.NoRepeat) != 0,
			Volume:     VolumeFromNumber(ctx.Number(c.Volume)),
			Pan:        PanFromNumber(ctx.Number(c.Pan)),
			PlaySpeed:  ctx.Number(c.PlaySpeed),
		}, nil
	case scenario.SeStop:
		return SeStopCommand{
			Slot:        ctx.Number(c.SeSlot),
			FadeOutTime: TicksFromNumber(ctx.Number(c.FadeOutTime)),
		}, nil
	case scenario.SeStopAll:
		return SeStopAllCommand{FadeOutTime: TicksFromNumber(ctx.Number(c.FadeOutTime))}, nil
	case scenario.SeVol:
		return SeVolCommand{
			Slot:       ctx.Number(c.SeSlot),
			Volume:     VolumeFromNumber(ctx.Number(c.Volume)),
			FadeInTime: TicksFromNumber(ctx.Number(c.FadeInTime)),
		}, nil
	case scenario.SePan:
		return SePanCommand{
			Slot:       ctx.Number(c.SeSlot),
			Pan:        PanFromNumber(ctx.Number(c.Pan)),
			FadeInTime: TicksFromNumber(ctx.Number(c.FadeInTime)),
		}, nil
	case scenario.SeWait:
		return SeWaitCommand{
			Slot:             ctx.Number(c.SeSlot),
			UnwantedStatuses: AudioWaitStatus(ctx.Number(c.UnwantedStatuses)),
		}, nil
	case scenario.SeOnce:
		return SeOnceCommand{
			Arg1: ctx.Number(c.Arg1),
			Arg2: ctx.Number(c.Arg2),
			Arg3: ctx.Number(c.Arg3),
			Arg4: ctx.Number(c.Arg4),
			Arg5: ctx.Number(c.Arg5),
		}, nil
	case scenario.VoicePlay:
		return VoicePlayCommand{
			Name:   c.Name,
			Volume: VolumeFromNumber(ctx.Number(c.Volume)),
			Flags:  ctx.Number(c.Flags),
		}, nil
	case scenario.VoiceStop:
		return VoiceStopCommand{}, nil
	case scenario.VoiceWait:
		return VoiceWaitCommand{UnwantedStatuses: AudioWaitStatus(ctx.Number(c.UnwantedStatuses))}, nil
	case scenario.SysSe:
		return SysSeCommand{
			SysSeID: ctx.Number(c.SysSeID),
			Volume:  VolumeFromNumber(ctx.Number(c.Volume)),
		}, nil
	case scenario.SaveInfo:
		return SaveInfoCommand{Level: ctx.Number(c.Level), Info: c.Info}, nil
	case scenario.AutoSave:
		return AutoSaveCommand{}, nil
	case scenario.EvBegin:
		return EvBeginCommand{Arg: ctx.Number(c.Arg)}, nil
	case scenario.EvEnd:
		return EvEndCommand{}, nil
	case scenario.ResumeSet:
		return ResumeSetCommand{}, nil
	case scenario.Resume:
		return ResumeCommand{}, nil
	case scenario.Syscall:
		return SyscallCommand{CallID: ctx.Number(c.CallID), Argument: ctx.Number(c.Argument)}, nil
	case scenario.Trophy:
		return TrophyCommand{TrophyID: ctx.Number(c.TrophyID)}, nil
	case scenario.Unlock:
		return UnlockCommand{UnlockType: c.UnlockType, UnlockIndices: ctx.numbers(c.UnlockIndices)}, nil
	case scenario.LayerInit:
		id, err := ctx.vlayer(c.LayerID)
		if err != nil {
			return nil, err
		}
		return LayerInitCommand{LayerID: id}, nil
	case scenario.LayerLoad:
		id, err := ctx.vlayer(c.LayerID)
		if err != nil {
			return nil, err
		}
		return LayerLoadCommand{
			LayerID:   id,
			LayerType: LayerType(ctx.Number(c.LayerType)),
			Flags:     LayerLoadFlags(ctx.Number(c.Flags)),
			Params:    ctx.numberArray(c.Params),
		}, nil
	case scenario.LayerUnload:
		id, err := ctx.vlayer(c.LayerID)
		if err != nil {
			return nil, err
		}
		return LayerUnloadCommand{
			LayerID:   id,
			DelayTime: TicksFromNumber(ctx.Number(c.DelayTime)),
		}, nil
	case scenario.LayerCtrl:
		id, err := ctx.vlayer(c.LayerID)
		if err != nil {
			return nil, err
		}
		params := ctx.numberArray(c.Params)
		return LayerCtrlCommand{
			LayerID:    id,
			PropertyID: ctx.Number(c.PropertyID),
			Target:     params[0],
			Time:       TicksFromNumber(params[1]),
			Flags:      LayerCtrlFlags(params[2]),
			EasingArg:  params[3],
		}, nil
	case scenario.LayerWait:
		id, err := ctx.vlayer(c.LayerID)
		if err != nil {
			return nil, err
		}
		return LayerWaitCommand{LayerID: id, WaitProperties: ctx.numbers(c.WaitProperties)}, nil
	case scenario.LayerSwap:
		return LayerSwapCommand{Arg1: ctx.Number(c.Arg1), Arg2: ctx.Number(c.Arg2)}, nil
	case scenario.LayerSelect:
		start := ctx.Number(c.SelectionStartID)
		end := ctx.Number(c.SelectionEndID)
		if start < 0 || start >= LayerCount || end < 0 || end >= LayerCount {
			return nil, fmt.Errorf("layer selection out of range: %d..%d", start, end)
		}
		return LayerSelectCommand{SelectionStart: LayerID(start), SelectionEnd: LayerID(end)}, nil
	case scenario.MovieWait:
		id := ctx.Number(c.LayerID)
		if id < 0 || id >= LayerCount {
			return nil, fmt.Errorf("movie layer id out of range: %d", id)
		}
		return MovieWaitCommand{LayerID: LayerID(id), TargetStatus: ctx.Number(c.TargetStatus)}, nil
	case scenario.TransSet:
		return TransSetCommand{
			Arg1:   ctx.Number(c.Arg1),
			Arg2:   ctx.Number(c.Arg2),
			Arg3:   ctx.Number(c.Arg3),
			Params: ctx.numberArray(c.Params),
		}, nil
	case scenario.TransWait:
		return TransWaitCommand{Arg: ctx.Number(c.Arg)}, nil
	case scenario.PageBack:
		return PageBackCommand{}, nil
	case scenario.PlaneSelect:
		return PlaneSelectCommand{PlaneID: ctx.Number(c.PlaneID)}, nil
	case scenario.PlaneClear:
		return PlaneClearCommand{}, nil
	case scenario.MaskLoad:
		return MaskLoadCommand{
			MaskDataID: ctx.Number(c.MaskDataID),
			Flags:      MaskFlags(ctx.Number(c.MaskFlags)),
			Transition: ctx.Number(c.Transition) != 0,
		}, nil
	case scenario.MaskUnload:
		return MaskUnloadCommand{}, nil
	case scenario.Chars:
		return CharsCommand{Arg1: ctx.Number(c.Arg1), Arg2: ctx.Number(c.Arg2)}, nil
	case scenario.TipsGet:
		return TipsGetCommand{TipIDs: ctx.numbers(c.TipIDs)}, nil
	case scenario.Quiz:
		return QuizCommand{Dest: c.Dest, Arg: ctx.Number(c.Arg)}, nil
	case scenario.ShowChars:
		return ShowCharsCommand{}, nil
	case scenario.NotifySet:
		return NotifySetCommand{Arg: ctx.Number(c.Arg)}, nil
	case scenario.DebugOut:
		return DebugOutCommand{Format: c.Format, Args: ctx.numbers(c.Args)}, nil
	}
	return nil, fmt.Errorf("unhandled command type %T", cmd)
}
