package vm

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/DCNick3/shin-sub001/pkg/format/scenario"
)

const memorySize = 0x1000

// The scenario writes a few cells past the argument stack bottom, so
// the stack starts with some slack.
const argumentsStackSlack = 0x16

// Context is the full VM state: register memory, the call stack and
// the argument stack, plus the PRNG.
type Context struct {
	memory [memorySize]int32
	// Return addresses; push also spills plain values here.
	callStack []scenario.CodeAddress
	// Argument frames addressed through $aN registers.
	argumentsStack []int32
	prngState      uint32
}

// NewContext seeds a VM state. initVal lands in memory cell 0, which
// the scenario uses to dispatch episodes.
func NewContext(initVal int32, randomSeed uint32) *Context {
	ctx := &Context{
		argumentsStack: make([]int32, argumentsStackSlack),
		prngState:      randomSeed,
	}
	ctx.memory[0] = initVal
	return ctx
}

// GetMemory reads a register. Argument registers address the stack
// below the frame size word, so $a0 is the first argument.
func (ctx *Context) GetMemory(r scenario.Register) int32 {
	if r.IsArgument() {
		return ctx.argumentsStack[len(ctx.argumentsStack)-2-int(r.Index())]
	}
	return ctx.memory[r.Index()]
}

// SetMemory writes a register.
func (ctx *Context) SetMemory(r scenario.Register, v int32) {
	if r.IsArgument() {
		ctx.argumentsStack[len(ctx.argumentsStack)-2-int(r.Index())] = v
		return
	}
	ctx.memory[r.Index()] = v
}

// Number resolves a NumberSpec to its runtime value.
func (ctx *Context) Number(spec scenario.NumberSpec) int32 {
	if spec.IsRegister {
		return ctx.GetMemory(spec.Register)
	}
	return spec.Constant
}

func (ctx *Context) pushCode(addr scenario.CodeAddress) {
	ctx.callStack = append(ctx.callStack, addr)
}

func (ctx *Context) popCode() (scenario.CodeAddress, error) {
	if len(ctx.callStack) == 0 {
		return 0, fmt.Errorf("call stack underflow")
	}
	addr := ctx.callStack[len(ctx.callStack)-1]
	ctx.callStack = ctx.callStack[:len(ctx.callStack)-1]
	return addr, nil
}

// pushArgumentFrame pushes call arguments in reverse followed by the
// frame size, so $a0 addresses the first argument.
func (ctx *Context) pushArgumentFrame(args []int32) {
	for i := len(args) - 1; i >= 0; i-- {
		ctx.argumentsStack = append(ctx.argumentsStack, args[i])
	}
	ctx.argumentsStack = append(ctx.argumentsStack, int32(len(args)))
}

func (ctx *Context) popArgumentFrame() error {
	if len(ctx.argumentsStack) == 0 {
		return fmt.Errorf("argument stack underflow")
	}
	count := int(ctx.argumentsStack[len(ctx.argumentsStack)-1])
	if count < 0 || len(ctx.argumentsStack) < count+1 {
		return fmt.Errorf("corrupt argument stack frame: count %d with %d entries", count, len(ctx.argumentsStack))
	}
	ctx.argumentsStack = ctx.argumentsStack[:len(ctx.argumentsStack)-1-count]
	return nil
}

// Fixed-point helpers: scenario reals carry three decimal places,
// angles are turns (1000 is a full rotation).

func real(v int32) float32     { return float32(v) / 1000.0 }
func unreal(v float32) int32   { return int32(v * 1000.0) }
func angle(v int32) float64    { return float64(real(v)) * 2 * math.Pi }
func unangle(v float64) int32  { return unreal(float32(v / math.Pi / 2)) }
func unbool(v bool) int32 {
	if v {
		return -1
	}
	return 0
}

func evaluateBinaryOperation(kind scenario.BinaryOperationKind, left, right int32) int32 {
	switch kind {
	case scenario.BinaryMovRight:
		return right
	case scenario.BinaryZero:
		return 0
	case scenario.BinaryAdd:
		return left + right
	case scenario.BinarySubtract:
		return left - right
	case scenario.BinaryMultiply:
		return left * right
	case scenario.BinaryDivide:
		if right == 0 {
			return 0
		}
		return left / right
	case scenario.BinaryModulo:
		var div int32
		if right != 0 {
			div = left / right
		}
		return left - div*right
	case scenario.BinaryBitwiseAnd:
		return left & right
	case scenario.BinaryBitwiseOr:
		return left | right
	case scenario.BinaryBitwiseXor:
		return left ^ right
	case scenario.BinaryLeftShift:
		return left << (uint32(right) % 32)
	case scenario.BinaryRightShift:
		return left >> (uint32(right) % 32)
	case scenario.BinaryMultiplyReal:
		return unreal(real(left) * real(right))
	case scenario.BinaryDivideReal:
		return unreal(real(left) / real(right))
	case scenario.BinaryATan2:
		return unangle(math.Atan2(float64(real(left)), float64(real(right))))
	case scenario.BinarySetBit:
		return left | 1<<(uint32(right)%32)
	case scenario.BinaryClearBit:
		return left &^ (1 << (uint32(right) % 32))
	case scenario.BinaryACursedOperation:
		// ctz((0xffffffff << R) & L), with an empty mask giving 5.
		r := uint32(right) % 32
		l := left & (-1 << r)
		if l == 0 {
			l = 32
		}
		return int32(bits.TrailingZeros32(uint32(l)))
	}
	panic(fmt.Sprintf("unhandled binary operation %d", kind))
}

func computeJumpCondition(cond scenario.ConditionKind, negated bool, left, right int32) bool {
	var result bool
	switch cond {
	case scenario.CondEqual:
		result = left == right
	case scenario.CondNotEqual:
		result = left != right
	case scenario.CondGreaterOrEqual:
		result = left >= right
	case scenario.CondGreater:
		result = left > right
	case scenario.CondLessOrEqual:
		result = left <= right
	case scenario.CondLess:
		result = left < right
	case scenario.CondBitwiseAndNotZero:
		result = left&right != 0
	case scenario.CondBitSet:
		result = left&(1<<(uint32(right)%32)) != 0
	}
	return result != negated
}

// EvaluateExpression runs an RPN expression against the context. A
// well-formed expression leaves exactly one value.
func (ctx *Context) EvaluateExpression(expr scenario.Expression) (int32, error) {
	stack := make([]int32, 0, 16)
	push := func(v int32) { stack = append(stack, v) }
	pop := func() int32 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	need := func(n int) error {
		if len(stack) < n {
			return fmt.Errorf("expression stack underflow at %v", expr)
		}
		return nil
	}

	for _, term := range expr {
		arity := 2
		switch term.Op {
		case scenario.OpPush:
			arity = 0
		case scenario.OpNegate, scenario.OpBitwiseNot, scenario.OpAbs,
			scenario.OpCmpZero, scenario.OpCmpNotZero,
			scenario.OpSin, scenario.OpCos, scenario.OpTan:
			arity = 1
		case scenario.OpSelect:
			arity = 3
		}
		if err := need(arity); err != nil {
			return 0, err
		}

		switch term.Op {
		case scenario.OpPush:
			push(ctx.Number(term.Operand))
		case scenario.OpAdd:
			r, l := pop(), pop()
			push(l + r)
		case scenario.OpSubtract:
			r, l := pop(), pop()
			push(l - r)
		case scenario.OpMultiply:
			r, l := pop(), pop()
			push(l * r)
		case scenario.OpDivide:
			r, l := pop(), pop()
			if r == 0 {
				push(0)
			} else {
				push(l / r)
			}
		case scenario.OpModulo:
			r, l := pop(), pop()
			var div int32
			if r != 0 {
				div = l / r
			}
			push(l - div*r)
		case scenario.OpShiftLeft:
			r, l := pop(), pop()
			push(l << (uint32(r) % 32))
		case scenario.OpShiftRight:
			r, l := pop(), pop()
			push(l >> (uint32(r) % 32))
		case scenario.OpBitwiseAnd:
			r, l := pop(), pop()
			push(l & r)
		case scenario.OpBitwiseOr:
			r, l := pop(), pop()
			push(l | r)
		case scenario.OpBitwiseXor:
			r, l := pop(), pop()
			push(l ^ r)
		case scenario.OpNegate:
			push(-pop())
		case scenario.OpBitwiseNot:
			push(^pop())
		case scenario.OpAbs:
			v := pop()
			if v < 0 {
				v = -v
			}
			push(v)
		case scenario.OpCmpEqual:
			r, l := pop(), pop()
			push(unbool(l == r))
		case scenario.OpCmpNotEqual:
			r, l := pop(), pop()
			push(unbool(l != r))
		case scenario.OpCmpGreaterOrEqual:
			r, l := pop(), pop()
			push(unbool(l >= r))
		case scenario.OpCmpGreater:
			r, l := pop(), pop()
			push(unbool(l > r))
		case scenario.OpCmpLessOrEqual:
			r, l := pop(), pop()
			push(unbool(l <= r))
		case scenario.OpCmpLess:
			r, l := pop(), pop()
			push(unbool(l < r))
		case scenario.OpCmpZero:
			push(unbool(pop() == 0))
		case scenario.OpCmpNotZero:
			push(unbool(pop() != 0))
		case scenario.OpLogicalAnd:
			r, l := pop(), pop()
			push(unbool(l != 0 && r != 0))
		case scenario.OpLogicalOr:
			r, l := pop(), pop()
			push(unbool(l != 0 || r != 0))
		case scenario.OpSelect:
			cond, trueVal, falseVal := pop(), pop(), pop()
			if cond != 0 {
				push(trueVal)
			} else {
				push(falseVal)
			}
		case scenario.OpMultiplyReal:
			r, l := pop(), pop()
			push(l * r / 1000)
		case scenario.OpDivideReal:
			r, l := pop(), pop()
			if r == 0 {
				push(0)
			} else {
				push(l * 1000 / r)
			}
		case scenario.OpSin:
			push(unreal(float32(math.Sin(angle(pop())))))
		case scenario.OpCos:
			push(unreal(float32(math.Cos(angle(pop())))))
		case scenario.OpTan:
			push(unreal(float32(math.Tan(angle(pop())))))
		case scenario.OpMin:
			r, l := pop(), pop()
			push(min(l, r))
		case scenario.OpMax:
			r, l := pop(), pop()
			push(max(l, r))
		default:
			return 0, fmt.Errorf("unhandled expression op %v", term.Op)
		}
	}

	if len(stack) != 1 {
		return 0, fmt.Errorf("expression left %d values on the stack", len(stack))
	}
	return stack[0], nil
}

// UpdatePRNG advances the random state. The scripter calls this before
// each instruction.
func (ctx *Context) UpdatePRNG() {
	ctx.prngState = ctx.prngState*0x343fd + 0x269ec3
}

// PRNGState exposes the raw generator state.
func (ctx *Context) PRNGState() uint32 {
	return ctx.prngState
}

// RunPRNG derives a number in [a, b] from the current state without
// advancing it.
func (ctx *Context) RunPRNG(a, b int32) int32 {
	if a == b {
		return a
	}
	usefulState := int32(ctx.prngState >> 8 & 0xffff)
	intervalSize := b - a
	if intervalSize < 0 {
		intervalSize = -intervalSize
	}
	intervalSize++
	lowerBound := min(a, b)
	return lowerBound + (usefulState*intervalSize)>>16
}
