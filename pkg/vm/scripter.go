package vm

import (
	"fmt"

	"github.com/DCNick3/shin-sub001/pkg/format/scenario"
)

// Scripter drives scenario execution. It owns the VM context and the
// instruction reader; engine commands suspend it until the engine
// reports back through Run.
type Scripter struct {
	scenario *scenario.Scenario
	ctx      *Context
	reader   *scenario.Reader
	// Address of the instruction being executed, for diagnostics and
	// resume points.
	position scenario.CodeAddress
}

// NewScripter starts a scripter at the scenario entrypoint.
func NewScripter(s *scenario.Scenario, initVal int32, randomSeed uint32) *Scripter {
	return &Scripter{
		scenario: s,
		ctx:      NewContext(initVal, randomSeed),
		reader:   s.InstructionReader(s.Entrypoint()),
		position: s.Entrypoint(),
	}
}

// Context exposes the VM state, mostly for save/load and tests.
func (s *Scripter) Context() *Context {
	return s.ctx
}

// Position is the address of the last executed instruction.
func (s *Scripter) Position() scenario.CodeAddress {
	return s.position
}

// RunToCommand applies the previous command's result and executes
// instructions until the next engine command.
func (s *Scripter) RunToCommand(prev CommandResult) (Command, error) {
	if prev.writeMemory {
		s.ctx.SetMemory(prev.register, prev.value)
	}
	for {
		pc := s.reader.Position()
		instr, err := scenario.ReadInstruction(s.reader)
		if err != nil {
			return nil, fmt.Errorf("scripter at %v: %w", pc, err)
		}
		cmd, err := s.runInstruction(pc, instr)
		if err != nil {
			return nil, fmt.Errorf("scripter at %v: %w", pc, err)
		}
		if cmd != nil {
			return cmd, nil
		}
	}
}

func evaluateUnaryOperation(kind scenario.UnaryOperationKind, source int32) (int32, error) {
	switch kind {
	case scenario.UnaryZero:
		return 0, nil
	case scenario.UnaryNot16:
		return source ^ 0xffff, nil
	case scenario.UnaryNegate:
		return -source, nil
	case scenario.UnaryAbs:
		if source < 0 {
			return -source, nil
		}
		return source, nil
	}
	return 0, fmt.Errorf("unhandled unary operation %d", kind)
}

func (s *Scripter) runInstruction(pc scenario.CodeAddress, instr scenario.Instruction) (Command, error) {
	s.ctx.UpdatePRNG()
	s.position = pc

	switch i := instr.(type) {
	case scenario.Uo:
		v, err := evaluateUnaryOperation(i.Kind, s.ctx.Number(i.Source))
		if err != nil {
			return nil, err
		}
		s.ctx.SetMemory(i.Destination, v)
	case scenario.Bo:
		v := evaluateBinaryOperation(i.Kind, s.ctx.Number(i.Left), s.ctx.Number(i.Right))
		s.ctx.SetMemory(i.Destination, v)
	case scenario.Exp:
		v, err := s.ctx.EvaluateExpression(i.Expression)
		if err != nil {
			return nil, err
		}
		s.ctx.SetMemory(i.Destination, v)
	case scenario.Gt:
		index := s.ctx.Number(i.Index)
		var v int32
		if index >= 0 && int(index) < len(i.Table) {
			v = s.ctx.Number(i.Table[index])
		}
		s.ctx.SetMemory(i.Destination, v)
	case scenario.Jc:
		if computeJumpCondition(i.Cond, i.IsNegated, s.ctx.Number(i.Left), s.ctx.Number(i.Right)) {
			return nil, s.reader.Seek(i.Target)
		}
	case scenario.J:
		return nil, s.reader.Seek(i.Target)
	case scenario.Gosub:
		s.ctx.pushCode(s.reader.Position())
		return nil, s.reader.Seek(i.Target)
	case scenario.Retsub:
		addr, err := s.ctx.popCode()
		if err != nil {
			return nil, err
		}
		return nil, s.reader.Seek(addr)
	case scenario.Jt:
		index := s.ctx.Number(i.Index)
		if index >= 0 && int(index) < len(i.Table) {
			return nil, s.reader.Seek(i.Table[index])
		}
	case scenario.Rnd:
		v := s.ctx.RunPRNG(s.ctx.Number(i.Min), s.ctx.Number(i.Max))
		s.ctx.SetMemory(i.Destination, v)
	case scenario.Push:
		// Plain values spill onto the call stack next to return
		// addresses.
		for _, spec := range i.Values {
			s.ctx.pushCode(scenario.CodeAddress(s.ctx.Number(spec)))
		}
	case scenario.Pop:
		for j := len(i.Destinations) - 1; j >= 0; j-- {
			addr, err := s.ctx.popCode()
			if err != nil {
				return nil, err
			}
			s.ctx.SetMemory(i.Destinations[j], int32(addr))
		}
	case scenario.Call:
		s.ctx.pushCode(s.reader.Position())
		s.ctx.pushArgumentFrame(s.ctx.numbers(i.Args))
		return nil, s.reader.Seek(i.Target)
	case scenario.Return:
		if err := s.ctx.popArgumentFrame(); err != nil {
			return nil, err
		}
		addr, err := s.ctx.popCode()
		if err != nil {
			return nil, err
		}
		return nil, s.reader.Seek(addr)
	case scenario.CommandInstruction:
		return s.ctx.ResolveCommand(i.Command)
	default:
		return nil, fmt.Errorf("unhandled instruction %T", instr)
	}
	return nil, nil
}
