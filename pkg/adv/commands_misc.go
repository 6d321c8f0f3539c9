package adv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

type cmdExit struct {
	cmd vm.ExitCommand
}

func (c *cmdExit) ApplyState(*VmState) {}

func (c *cmdExit) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	logger.GetLogger().Info("scenario requested exit", "arg", c.cmd.Arg2)
	return exitResult()
}

type cmdSGet struct {
	cmd vm.SGetCommand
}

func (c *cmdSGet) ApplyState(*VmState) {}

func (c *cmdSGet) Start(_ *UpdateContext, state *VmState, _ *AdvState) StartResult {
	return finish(vm.ResultWrite(c.cmd.Dest, state.Persist.Get(c.cmd.SlotNumber)))
}

type cmdSSet struct {
	cmd vm.SSetCommand
}

func (c *cmdSSet) ApplyState(state *VmState) {
	state.Persist.Set(c.cmd.SlotNumber, c.cmd.Value)
}

func (c *cmdSSet) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return finish(vm.ResultNone())
}

type cmdWait struct {
	cmd vm.WaitCommand
}

func (c *cmdWait) ApplyState(*VmState) {}

func (c *cmdWait) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	if c.cmd.AllowInterrupt {
		logger.GetLogger().Warn("WAIT: interruptible waits are not supported")
	}
	return yield(&execWait{left: c.cmd.WaitAmount})
}

type execWait struct {
	left tick.Ticks
}

func (e *execWait) Update(ctx *UpdateContext, _ *VmState, _ *AdvState, fastForward bool) (vm.CommandResult, bool) {
	e.left -= ctx.Delta
	if e.left <= 0 || fastForward {
		return vm.ResultNone(), true
	}
	return vm.CommandResult{}, false
}

type cmdSaveInfo struct {
	cmd vm.SaveInfoCommand
}

func (c *cmdSaveInfo) ApplyState(state *VmState) {
	state.SaveInfo.Set(c.cmd.Level, c.cmd.Info)
}

func (c *cmdSaveInfo) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return finish(vm.ResultNone())
}

type cmdAutoSave struct{}

func (c *cmdAutoSave) ApplyState(*VmState) {}

func (c *cmdAutoSave) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	logger.GetLogger().Debug("AUTOSAVE")
	return finish(vm.ResultNone())
}

type cmdEvBegin struct {
	cmd vm.EvBeginCommand
}

func (c *cmdEvBegin) ApplyState(*VmState) {}

func (c *cmdEvBegin) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	logger.GetLogger().Debug("EVBEGIN", "arg", c.cmd.Arg)
	return finish(vm.ResultNone())
}

type cmdEvEnd struct{}

func (c *cmdEvEnd) ApplyState(*VmState) {}

func (c *cmdEvEnd) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	logger.GetLogger().Debug("EVEND")
	return finish(vm.ResultNone())
}

// cmdNop acknowledges commands whose effect lives outside the ADV
// runtime (galleries, trophies, system menus).
type cmdNop struct {
	name string
}

func (c *cmdNop) ApplyState(*VmState) {}

func (c *cmdNop) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	logger.GetLogger().Debug("ignoring command", "command", c.name)
	return finish(vm.ResultNone())
}

type cmdSelect struct {
	cmd vm.SelectCommand
}

func (c *cmdSelect) ApplyState(*VmState) {}

func (c *cmdSelect) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	logger.GetLogger().Warn("SELECT: choice menus are not wired, answering 0",
		"title", c.cmd.Title, "variants", len(c.cmd.Variants))
	return finish(vm.ResultWrite(c.cmd.Dest, 0))
}

type cmdQuiz struct {
	cmd vm.QuizCommand
}

func (c *cmdQuiz) ApplyState(*VmState) {}

func (c *cmdQuiz) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	logger.GetLogger().Warn("QUIZ: quizzes are not wired, answering 0")
	return finish(vm.ResultWrite(c.cmd.Dest, 0))
}

type cmdDebugOut struct {
	cmd vm.DebugOutCommand
}

func (c *cmdDebugOut) ApplyState(*VmState) {}

func (c *cmdDebugOut) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	logger.GetLogger().Debug("DEBUGOUT", "message", formatDebugOut(c.cmd.Format, c.cmd.Args))
	return finish(vm.ResultNone())
}

// formatDebugOut renders the printf-subset the scenario compiler
// emits: %d and %i take the next argument, %% is a literal percent.
func formatDebugOut(format string, args []int32) string {
	var b strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			b.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case '%':
			b.WriteByte('%')
		case 'd', 'i':
			if next < len(args) {
				b.WriteString(strconv.FormatInt(int64(args[next]), 10))
				next++
			} else {
				b.WriteString("<missing>")
			}
		default:
			fmt.Fprintf(&b, "%%%c", format[i])
		}
	}
	return b.String()
}
