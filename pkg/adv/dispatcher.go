package adv

import (
	"fmt"

	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// ExecutingCommand is a yielded command that needs game ticks. Update
// is polled once per tick and reports completion with the result the
// VM resumes with.
type ExecutingCommand interface {
	Update(ctx *UpdateContext, state *VmState, scene *AdvState, fastForward bool) (vm.CommandResult, bool)
}

// StartResult is the outcome of starting a command: finished with a
// result, yielded for polling, or a VM shutdown.
type StartResult struct {
	result    vm.CommandResult
	executing ExecutingCommand
	exit      bool
}

func finish(result vm.CommandResult) StartResult { return StartResult{result: result} }
func yield(c ExecutingCommand) StartResult       { return StartResult{executing: c} }
func exitResult() StartResult                    { return StartResult{exit: true} }

// Executing returns the yielded command, nil when the start finished
// synchronously.
func (r StartResult) Executing() ExecutingCommand { return r.executing }

// Exit reports a VM shutdown.
func (r StartResult) Exit() bool { return r.exit }

// Result returns the synchronous completion result.
func (r StartResult) Result() vm.CommandResult { return r.result }

// Startable is a command going through the two execution phases.
// ApplyState mutates only the VM-visible state and never touches the
// scene or IO; Start acts on the scene and decides whether the
// command needs ticks. State computed during apply (affected layer
// lists, pageback edges) carries over to start on the wrapper.
type Startable interface {
	ApplyState(state *VmState)
	Start(ctx *UpdateContext, state *VmState, scene *AdvState) StartResult
}

// NewStartable wraps a decoded command for dispatch.
func NewStartable(command vm.Command) (Startable, error) {
	switch c := command.(type) {
	case vm.ExitCommand:
		return &cmdExit{cmd: c}, nil
	case vm.SGetCommand:
		return &cmdSGet{cmd: c}, nil
	case vm.SSetCommand:
		return &cmdSSet{cmd: c}, nil
	case vm.WaitCommand:
		return &cmdWait{cmd: c}, nil

	case vm.MsgInitCommand:
		return &cmdMsgInit{cmd: c}, nil
	case vm.MsgSetCommand:
		return &cmdMsgSet{cmd: c}, nil
	case vm.MsgWaitCommand:
		return &cmdMsgWait{cmd: c}, nil
	case vm.MsgSignalCommand:
		return &cmdMsgSignal{}, nil
	case vm.MsgSyncCommand:
		return &cmdMsgSync{cmd: c}, nil
	case vm.MsgCloseCommand:
		return &cmdMsgClose{cmd: c}, nil
	case vm.SelectCommand:
		return &cmdSelect{cmd: c}, nil

	case vm.WipeCommand:
		return &cmdWipe{cmd: c}, nil
	case vm.WipeWaitCommand:
		return &cmdWipeWait{}, nil
	case vm.PageBackCommand:
		return &cmdPageBack{}, nil
	case vm.TransSetCommand:
		return &cmdTransSet{}, nil
	case vm.TransWaitCommand:
		return &cmdTransWait{}, nil

	case vm.BgmPlayCommand:
		return &cmdBgmPlay{cmd: c}, nil
	case vm.BgmStopCommand:
		return &cmdBgmStop{cmd: c}, nil
	case vm.BgmVolCommand:
		return &cmdBgmVol{cmd: c}, nil
	case vm.BgmWaitCommand:
		return &cmdBgmWait{cmd: c}, nil
	case vm.BgmSyncCommand:
		return &cmdBgmSync{cmd: c}, nil
	case vm.SePlayCommand:
		return &cmdSePlay{cmd: c}, nil
	case vm.SeStopCommand:
		return &cmdSeStop{cmd: c}, nil
	case vm.SeStopAllCommand:
		return &cmdSeStopAll{cmd: c}, nil
	case vm.SeVolCommand:
		return &cmdSeVol{cmd: c}, nil
	case vm.SePanCommand:
		return &cmdSePan{cmd: c}, nil
	case vm.SeWaitCommand:
		return &cmdSeWait{cmd: c}, nil
	case vm.SeOnceCommand:
		return &cmdSeOnce{cmd: c}, nil
	case vm.VoicePlayCommand:
		return &cmdVoicePlay{cmd: c}, nil
	case vm.VoiceStopCommand:
		return &cmdVoiceStop{}, nil
	case vm.VoiceWaitCommand:
		return &cmdVoiceWait{cmd: c}, nil
	case vm.SysSeCommand:
		return &cmdSysSe{cmd: c}, nil

	case vm.SaveInfoCommand:
		return &cmdSaveInfo{cmd: c}, nil
	case vm.AutoSaveCommand:
		return &cmdAutoSave{}, nil
	case vm.EvBeginCommand:
		return &cmdEvBegin{cmd: c}, nil
	case vm.EvEndCommand:
		return &cmdEvEnd{}, nil
	case vm.ResumeSetCommand:
		return &cmdNop{name: "RESUMESET"}, nil
	case vm.ResumeCommand:
		return &cmdNop{name: "RESUME"}, nil
	case vm.SyscallCommand:
		return &cmdNop{name: "SYSCALL"}, nil
	case vm.TrophyCommand:
		return &cmdNop{name: "TROPHY"}, nil
	case vm.UnlockCommand:
		return &cmdNop{name: "UNLOCK"}, nil

	case vm.LayerInitCommand:
		return &cmdLayerInit{cmd: c}, nil
	case vm.LayerLoadCommand:
		return &cmdLayerLoad{cmd: c}, nil
	case vm.LayerUnloadCommand:
		return &cmdLayerUnload{cmd: c}, nil
	case vm.LayerCtrlCommand:
		return &cmdLayerCtrl{cmd: c}, nil
	case vm.LayerWaitCommand:
		return &cmdLayerWait{cmd: c}, nil
	case vm.LayerSwapCommand:
		return &cmdLayerSwap{cmd: c}, nil
	case vm.LayerSelectCommand:
		return &cmdLayerSelect{cmd: c}, nil
	case vm.MovieWaitCommand:
		return &cmdMovieWait{cmd: c}, nil
	case vm.PlaneSelectCommand:
		return &cmdPlaneSelect{cmd: c}, nil
	case vm.PlaneClearCommand:
		return &cmdPlaneClear{}, nil
	case vm.MaskLoadCommand:
		return &cmdMaskLoad{cmd: c}, nil
	case vm.MaskUnloadCommand:
		return &cmdMaskUnload{}, nil

	case vm.CharsCommand:
		return &cmdNop{name: "CHARS"}, nil
	case vm.TipsGetCommand:
		return &cmdNop{name: "TIPSGET"}, nil
	case vm.QuizCommand:
		return &cmdQuiz{cmd: c}, nil
	case vm.ShowCharsCommand:
		return &cmdNop{name: "SHOWCHARS"}, nil
	case vm.NotifySetCommand:
		return &cmdNop{name: "NOTIFYSET"}, nil
	case vm.DebugOutCommand:
		return &cmdDebugOut{cmd: c}, nil

	default:
		return nil, fmt.Errorf("adv: no handler for command %T", command)
	}
}
