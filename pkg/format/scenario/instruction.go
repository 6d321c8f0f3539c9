package scenario

import "fmt"

// UnaryOperationKind selects the function computed by an Uo instruction.
type UnaryOperationKind uint8

const (
	UnaryZero UnaryOperationKind = iota
	UnaryNot16
	UnaryNegate
	UnaryAbs
)

// BinaryOperationKind selects the function computed by a Bo instruction.
type BinaryOperationKind uint8

const (
	BinaryMovRight BinaryOperationKind = iota
	BinaryZero
	BinaryAdd
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryModulo
	BinaryBitwiseAnd
	BinaryBitwiseOr
	BinaryBitwiseXor
	BinaryLeftShift
	BinaryRightShift
	BinaryMultiplyReal
	BinaryDivideReal
	BinaryATan2
	BinarySetBit
	BinaryClearBit
	BinaryACursedOperation
)

// ConditionKind compares two numbers for a conditional jump.
type ConditionKind uint8

const (
	CondEqual ConditionKind = iota
	CondNotEqual
	CondGreaterOrEqual
	CondGreater
	CondLessOrEqual
	CondLess
	CondBitwiseAndNotZero
	CondBitSet
)

// Instruction is one decoded scenario instruction. Commands, which
// yield control to the engine, are wrapped in CommandInstruction.
type Instruction interface {
	isInstruction()
}

// Uo computes a unary function of Source into Destination.
type Uo struct {
	Kind        UnaryOperationKind
	Destination Register
	Source      NumberSpec
}

// Bo computes a binary function of Left and Right into Destination.
type Bo struct {
	Kind        BinaryOperationKind
	Destination Register
	Left        NumberSpec
	Right       NumberSpec
}

// Exp evaluates an RPN expression into Destination.
type Exp struct {
	Destination Register
	Expression  Expression
}

// Gt indexes into an inline table, writing the selected number to
// Destination. An out-of-range index is ignored.
type Gt struct {
	Destination Register
	Index       NumberSpec
	Table       []NumberSpec
}

// Jc jumps to Target if the comparison of Left and Right holds.
type Jc struct {
	Cond      ConditionKind
	IsNegated bool
	Left      NumberSpec
	Right     NumberSpec
	Target    CodeAddress
}

// J is an unconditional jump.
type J struct {
	Target CodeAddress
}

// Gosub calls a subroutine without passing arguments.
type Gosub struct {
	Target CodeAddress
}

// Retsub returns from a Gosub call.
type Retsub struct{}

// Jt jumps via a table indexed by Index. An out-of-range index falls
// through.
type Jt struct {
	Index NumberSpec
	Table []CodeAddress
}

// Rnd stores a uniform random number in [Min, Max] into Destination.
type Rnd struct {
	Destination Register
	Min         NumberSpec
	Max         NumberSpec
}

// Push saves values onto the call stack.
type Push struct {
	Values []NumberSpec
}

// Pop restores values from the call stack in reverse order of Push.
type Pop struct {
	Destinations []Register
}

// Call calls a subroutine passing arguments through the argument stack.
type Call struct {
	Target CodeAddress
	Args   []NumberSpec
}

// Return returns from a Call.
type Return struct{}

// CommandInstruction wraps an engine command embedded in the code.
type CommandInstruction struct {
	Command Command
}

func (Uo) isInstruction()                 {}
func (Bo) isInstruction()                 {}
func (Exp) isInstruction()                {}
func (Gt) isInstruction()                 {}
func (Jc) isInstruction()                 {}
func (J) isInstruction()                  {}
func (Gosub) isInstruction()              {}
func (Retsub) isInstruction()             {}
func (Jt) isInstruction()                 {}
func (Rnd) isInstruction()                {}
func (Push) isInstruction()               {}
func (Pop) isInstruction()                {}
func (Call) isInstruction()               {}
func (Return) isInstruction()             {}
func (CommandInstruction) isInstruction() {}

func readRegister(r *Reader) (Register, error) {
	v, err := r.U16()
	if err != nil {
		return 0, fmt.Errorf("reading register: %w", err)
	}
	reg := Register(v)
	if reg.Index() > registerMax {
		return 0, fmt.Errorf("register address out of range: 0x%04x", v)
	}
	return reg, nil
}

// Operations with the 0x80 bit set in the type byte carry an explicit
// first operand; otherwise the destination register doubles as it.
func readUo(r *Reader) (Uo, error) {
	t, err := r.U8()
	if err != nil {
		return Uo{}, err
	}
	kind := UnaryOperationKind(t & 0x7f)
	if kind > UnaryAbs {
		return Uo{}, fmt.Errorf("unknown unary operation type: %d", kind)
	}
	dest, err := readRegister(r)
	if err != nil {
		return Uo{}, err
	}
	source := RegisterSpec(dest)
	if t&0x80 != 0 {
		source, err = ReadNumberSpec(r)
		if err != nil {
			return Uo{}, err
		}
	}
	return Uo{Kind: kind, Destination: dest, Source: source}, nil
}

func readBo(r *Reader) (Bo, error) {
	t, err := r.U8()
	if err != nil {
		return Bo{}, err
	}
	kind := BinaryOperationKind(t & 0x7f)
	if kind > BinaryACursedOperation {
		return Bo{}, fmt.Errorf("unknown binary operation type: %d", kind)
	}
	dest, err := readRegister(r)
	if err != nil {
		return Bo{}, err
	}
	left := RegisterSpec(dest)
	if t&0x80 != 0 {
		left, err = ReadNumberSpec(r)
		if err != nil {
			return Bo{}, err
		}
	}
	right, err := ReadNumberSpec(r)
	if err != nil {
		return Bo{}, err
	}
	return Bo{Kind: kind, Destination: dest, Left: left, Right: right}, nil
}

// readPaddedSpec reads a NumberSpec padded out to four bytes.
func readPaddedSpec(r *Reader) (NumberSpec, error) {
	start := r.Position()
	spec, err := ReadNumberSpec(r)
	if err != nil {
		return NumberSpec{}, err
	}
	used := int(r.Position() - start)
	if used > 4 {
		return NumberSpec{}, fmt.Errorf("padded number spec too long: %d bytes", used)
	}
	if err := r.skip(4 - used); err != nil {
		return NumberSpec{}, err
	}
	return spec, nil
}

func readNumberListU8(r *Reader) ([]NumberSpec, error) {
	count, err := r.U8()
	if err != nil {
		return nil, err
	}
	list := make([]NumberSpec, count)
	for i := range list {
		if list[i], err = ReadNumberSpec(r); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ReadInstruction decodes the instruction at the cursor.
func ReadInstruction(r *Reader) (Instruction, error) {
	at := r.Position()
	opcode, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("reading opcode at %s: %w", at, err)
	}

	instr, err := readInstructionBody(r, opcode)
	if err != nil {
		return nil, fmt.Errorf("decoding instruction 0x%02x at %s: %w", opcode, at, err)
	}
	return instr, nil
}

func readInstructionBody(r *Reader, opcode uint8) (Instruction, error) {
	switch opcode {
	case 0x40:
		return readUo(r)
	case 0x41:
		return readBo(r)
	case 0x42:
		dest, err := readRegister(r)
		if err != nil {
			return nil, err
		}
		expr, err := readExpression(r)
		if err != nil {
			return nil, err
		}
		return Exp{Destination: dest, Expression: expr}, nil
	case 0x44:
		dest, err := readRegister(r)
		if err != nil {
			return nil, err
		}
		index, err := ReadNumberSpec(r)
		if err != nil {
			return nil, err
		}
		count, err := r.U16()
		if err != nil {
			return nil, err
		}
		table := make([]NumberSpec, count)
		for i := range table {
			if table[i], err = readPaddedSpec(r); err != nil {
				return nil, err
			}
		}
		return Gt{Destination: dest, Index: index, Table: table}, nil
	case 0x46:
		t, err := r.U8()
		if err != nil {
			return nil, err
		}
		cond := ConditionKind(t & 0x7f)
		if cond > CondBitSet {
			return nil, fmt.Errorf("unknown jump condition type: %d", cond)
		}
		left, err := ReadNumberSpec(r)
		if err != nil {
			return nil, err
		}
		right, err := ReadNumberSpec(r)
		if err != nil {
			return nil, err
		}
		target, err := r.address()
		if err != nil {
			return nil, err
		}
		return Jc{Cond: cond, IsNegated: t&0x80 != 0, Left: left, Right: right, Target: target}, nil
	case 0x47:
		target, err := r.address()
		if err != nil {
			return nil, err
		}
		return J{Target: target}, nil
	case 0x48:
		target, err := r.address()
		if err != nil {
			return nil, err
		}
		return Gosub{Target: target}, nil
	case 0x49:
		return Retsub{}, nil
	case 0x4a:
		index, err := ReadNumberSpec(r)
		if err != nil {
			return nil, err
		}
		count, err := r.U16()
		if err != nil {
			return nil, err
		}
		table := make([]CodeAddress, count)
		for i := range table {
			if table[i], err = r.address(); err != nil {
				return nil, err
			}
		}
		return Jt{Index: index, Table: table}, nil
	case 0x4c:
		dest, err := readRegister(r)
		if err != nil {
			return nil, err
		}
		min, err := ReadNumberSpec(r)
		if err != nil {
			return nil, err
		}
		max, err := ReadNumberSpec(r)
		if err != nil {
			return nil, err
		}
		return Rnd{Destination: dest, Min: min, Max: max}, nil
	case 0x4d:
		values, err := readNumberListU8(r)
		if err != nil {
			return nil, err
		}
		return Push{Values: values}, nil
	case 0x4e:
		count, err := r.U8()
		if err != nil {
			return nil, err
		}
		dests := make([]Register, count)
		for i := range dests {
			if dests[i], err = readRegister(r); err != nil {
				return nil, err
			}
		}
		return Pop{Destinations: dests}, nil
	case 0x4f:
		target, err := r.address()
		if err != nil {
			return nil, err
		}
		args, err := readNumberListU8(r)
		if err != nil {
			return nil, err
		}
		return Call{Target: target, Args: args}, nil
	case 0x50:
		return Return{}, nil
	}

	cmd, err := readCommand(r, opcode)
	if err != nil {
		return nil, err
	}
	return CommandInstruction{Command: cmd}, nil
}
