package scenario

import "fmt"

// ExpressionOp is a stack-machine operation inside an expression.
//
// The stack holds integers. Booleans are 0 for false and -1 for true;
// real numbers are fixed point with three decimal places; angles are
// real numbers of turns.
type ExpressionOp uint8

const (
	OpPush ExpressionOp = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpShiftLeft
	OpShiftRight
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpNegate
	OpBitwiseNot
	OpAbs
	OpCmpEqual
	OpCmpNotEqual
	OpCmpGreaterOrEqual
	OpCmpGreater
	OpCmpLessOrEqual
	OpCmpLess
	OpCmpZero
	OpCmpNotZero
	OpLogicalAnd
	OpLogicalOr
	OpSelect
	OpMultiplyReal
	OpDivideReal
	OpSin
	OpCos
	OpTan
	OpMin
	OpMax

	expressionEnd = 0xff
)

var expressionOpNames = [...]string{
	"push", "add", "sub", "mul", "div", "mod", "shl", "shr",
	"and", "or", "xor", "neg", "not", "abs",
	"ceq", "cne", "cge", "cgt", "cle", "clt", "cz", "cnz",
	"land", "lor", "select", "rmul", "rdiv", "sin", "cos", "tan",
	"min", "max",
}

func (op ExpressionOp) String() string {
	if int(op) < len(expressionOpNames) {
		return expressionOpNames[op]
	}
	return fmt.Sprintf("op(0x%02x)", uint8(op))
}

// ExpressionTerm is one operation, carrying an operand only for OpPush.
type ExpressionTerm struct {
	Op      ExpressionOp
	Operand NumberSpec
}

// Expression is a reverse polish notation program evaluated by the VM.
// A well-formed expression leaves exactly one value on the stack.
type Expression []ExpressionTerm

func readExpression(r *Reader) (Expression, error) {
	var expr Expression
	for {
		b, err := r.U8()
		if err != nil {
			return nil, fmt.Errorf("reading expression: %w", err)
		}
		if b == expressionEnd {
			return expr, nil
		}
		if b > uint8(OpMax) {
			return nil, fmt.Errorf("unknown expression op: 0x%02x", b)
		}
		term := ExpressionTerm{Op: ExpressionOp(b)}
		if term.Op == OpPush {
			term.Operand, err = ReadNumberSpec(r)
			if err != nil {
				return nil, err
			}
		}
		expr = append(expr, term)
	}
}
