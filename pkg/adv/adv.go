package adv

import (
	"errors"

	"github.com/DCNick3/shin-sub001/pkg/format/scenario"
	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// Adv runs a scenario. Each tick it polls the command that currently
// owns the frame, then advances the VM until the next command yields
// or the scenario exits.
type Adv struct {
	scripter *vm.Scripter
	state    *VmState
	scene    *AdvState

	current ExecutingCommand
	pending vm.CommandResult
	exited  bool
}

func NewAdv(s *scenario.Scenario, initVal int32, randomSeed uint32,
	state *VmState, scene *AdvState) *Adv {

	return &Adv{
		scripter: vm.NewScripter(s, initVal, randomSeed),
		state:    state,
		scene:    scene,
		pending:  vm.ResultNone(),
	}
}

func (a *Adv) State() *VmState  { return a.state }
func (a *Adv) Scene() *AdvState { return a.scene }

// Position is the address of the last executed scenario instruction.
func (a *Adv) Position() scenario.CodeAddress {
	return a.scripter.Position()
}

// Exited reports whether the scenario has run to completion.
func (a *Adv) Exited() bool { return a.exited }

// Update runs one tick of scenario execution and animates the layer
// tree. It reports false once the scenario has exited.
func (a *Adv) Update(ctx *UpdateContext, fastForward bool) (bool, error) {
	running, err := a.runCommands(ctx, fastForward)

	a.scene.Root.Update(&layer.UpdateContext{
		Delta:                ctx.Delta,
		AreAnimationsAllowed: a.scene.AllowRunningAnimations,
	})
	return running, err
}

func (a *Adv) runCommands(ctx *UpdateContext, fastForward bool) (bool, error) {
	if a.exited {
		return false, nil
	}
	if a.current != nil {
		result, done := a.current.Update(ctx, a.state, a.scene, fastForward)
		if !done {
			return true, nil
		}
		a.current = nil
		a.pending = result
	}
	for {
		command, err := a.scripter.RunToCommand(a.pending)
		if err != nil {
			return false, err
		}
		startable, err := NewStartable(command)
		if err != nil {
			logger.GetLogger().Warn("skipping command", "error", err)
			a.pending = vm.ResultNone()
			continue
		}
		startable.ApplyState(a.state)
		result := startable.Start(ctx, a.state, a.scene)
		switch {
		case result.Exit():
			a.exited = true
			return false, nil
		case result.Executing() != nil:
			a.current = result.Executing()
			return true, nil
		default:
			a.pending = result.Result()
		}
	}
}

// FastForward snaps all pending animations and transitions to their
// end state, used when skipping read text.
func (a *Adv) FastForward() {
	a.scene.Root.FastForward()
}

// RunToExit drives the scenario to completion without rendering,
// simulating one tick per frame. Waits and animations still consume
// simulated time. Used by headless scenario tests and the trace tool.
func (a *Adv) RunToExit(ctx *UpdateContext, maxFrames int) error {
	frame := *ctx
	frame.Delta = 1
	for i := 0; i < maxFrames; i++ {
		running, err := a.Update(&frame, true)
		if err != nil {
			return err
		}
		if !running {
			return nil
		}
	}
	return errors.New("adv: scenario did not exit within the frame budget")
}
