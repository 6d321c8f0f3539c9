package scenario

import (
	"reflect"
	"testing"
)

func decodeOne(t *testing.T, code []byte) Instruction {
	t.Helper()
	r := NewReader(code, 0)
	instr, err := ReadInstruction(r)
	if err != nil {
		t.Fatalf("ReadInstruction: %v", err)
	}
	if r.Position() != CodeAddress(len(code)) {
		t.Fatalf("decoded %d bytes, want %d", r.Position(), len(code))
	}
	return instr
}

func TestDecodeUnaryImplicitSource(t *testing.T) {
	// uo Negate $v5 (no 0x80 bit: source is the destination)
	code := []byte{0x40, 0x02, 0x05, 0x00}
	instr := decodeOne(t, code)
	want := Uo{
		Kind:        UnaryNegate,
		Destination: mustRegular(t, 5),
		Source:      RegisterSpec(mustRegular(t, 5)),
	}
	if instr != want {
		t.Errorf("decoded %v, want %v", instr, want)
	}
}

func TestDecodeBinaryExplicitLeft(t *testing.T) {
	// bo Add $v1 <- 10 + $v2
	code := []byte{0x41, 0x82, 0x01, 0x00, 0x0a, 0xb2}
	instr := decodeOne(t, code)
	want := Bo{
		Kind:        BinaryAdd,
		Destination: mustRegular(t, 1),
		Left:        ConstSpec(10),
		Right:       RegisterSpec(mustRegular(t, 2)),
	}
	if instr != want {
		t.Errorf("decoded %v, want %v", instr, want)
	}
}

func TestDecodeExpression(t *testing.T) {
	// exp $v0 <- push 2, push 3, mul
	code := []byte{0x42, 0x00, 0x00, 0x00, 0x02, 0x00, 0x03, 0x03, 0xff}
	instr := decodeOne(t, code)
	want := Exp{
		Destination: mustRegular(t, 0),
		Expression: Expression{
			{Op: OpPush, Operand: ConstSpec(2)},
			{Op: OpPush, Operand: ConstSpec(3)},
			{Op: OpMultiply},
		},
	}
	if !reflect.DeepEqual(instr, want) {
		t.Errorf("decoded %v, want %v", instr, want)
	}
}

func TestDecodeGetTablePadding(t *testing.T) {
	// gt $v0 <- table[$v1] with entries padded to four bytes each
	code := []byte{
		0x44, 0x00, 0x00, 0xb1,
		0x02, 0x00, // two entries
		0x07, 0x00, 0x00, 0x00, // 7
		0x80, 0x40, 0x00, 0x00, // 64
	}
	instr := decodeOne(t, code)
	want := Gt{
		Destination: mustRegular(t, 0),
		Index:       RegisterSpec(mustRegular(t, 1)),
		Table:       []NumberSpec{ConstSpec(7), ConstSpec(64)},
	}
	if !reflect.DeepEqual(instr, want) {
		t.Errorf("decoded %v, want %v", instr, want)
	}
}

func TestDecodeJumpCond(t *testing.T) {
	// jc !($v0 < 5) -> 0x1234
	code := []byte{0x46, 0x85, 0xb0, 0x05, 0x34, 0x12, 0x00, 0x00}
	instr := decodeOne(t, code)
	want := Jc{
		Cond:      CondLess,
		IsNegated: true,
		Left:      RegisterSpec(mustRegular(t, 0)),
		Right:     ConstSpec(5),
		Target:    0x1234,
	}
	if instr != want {
		t.Errorf("decoded %v, want %v", instr, want)
	}
}

func TestDecodeJumpTable(t *testing.T) {
	code := []byte{
		0x4a, 0xb0,
		0x02, 0x00,
		0x10, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00,
	}
	instr := decodeOne(t, code)
	want := Jt{
		Index: RegisterSpec(mustRegular(t, 0)),
		Table: []CodeAddress{0x10, 0x20},
	}
	if !reflect.DeepEqual(instr, want) {
		t.Errorf("decoded %v, want %v", instr, want)
	}
}

func TestDecodeCallAndStack(t *testing.T) {
	instr := decodeOne(t, []byte{0x4f, 0x00, 0x01, 0x00, 0x00, 0x02, 0x01, 0x02})
	want := Call{
		Target: 0x100,
		Args:   []NumberSpec{ConstSpec(1), ConstSpec(2)},
	}
	if !reflect.DeepEqual(instr, want) {
		t.Errorf("decoded %v, want %v", instr, want)
	}

	instr = decodeOne(t, []byte{0x4d, 0x01, 0xb3})
	wantPush := Push{Values: []NumberSpec{RegisterSpec(mustRegular(t, 3))}}
	if !reflect.DeepEqual(instr, wantPush) {
		t.Errorf("decoded %v, want %v", instr, wantPush)
	}

	instr = decodeOne(t, []byte{0x4e, 0x01, 0x03, 0x00})
	wantPop := Pop{Destinations: []Register{mustRegular(t, 3)}}
	if !reflect.DeepEqual(instr, wantPop) {
		t.Errorf("decoded %v, want %v", instr, wantPop)
	}

	if _, ok := decodeOne(t, []byte{0x49}).(Retsub); !ok {
		t.Error("0x49 did not decode to Retsub")
	}
	if _, ok := decodeOne(t, []byte{0x50}).(Return); !ok {
		t.Error("0x50 did not decode to Return")
	}
}

func TestDecodeMsgSetCommand(t *testing.T) {
	// MSGSET id=0x030201 auto_wait=1 text="abc"
	code := []byte{
		0x86,
		0x01, 0x02, 0x03,
		0x01,
		0x04, 0x00, 'a', 'b', 'c', 0x00,
	}
	instr := decodeOne(t, code)
	ci, ok := instr.(CommandInstruction)
	if !ok {
		t.Fatalf("decoded %T, want CommandInstruction", instr)
	}
	want := MsgSet{MsgID: 0x030201, AutoWait: true, Text: "abc"}
	if ci.Command != want {
		t.Errorf("decoded %v, want %v", ci.Command, want)
	}
}

func TestDecodeSelectCommand(t *testing.T) {
	code := []byte{
		0x8d,
		0x01, 0x00, // choice_set_base
		0x02, 0x00, // choice_index
		0x07, 0x00, // dest $v7
		0x7f,       // visibility mask -1
		0x06, 0x00, 't', 'i', 't', 'l', 'e', 0x00, // title
		0x08, 0x00, // string array byte size
		'y', 'e', 's', 0x00, 'n', 'o', 0x00,
		0x00, // empty string terminates the array
	}

	instr := decodeOne(t, code)
	ci, ok := instr.(CommandInstruction)
	if !ok {
		t.Fatalf("decoded %T, want CommandInstruction", instr)
	}
	sel, ok := ci.Command.(Select)
	if !ok {
		t.Fatalf("decoded %T, want Select", ci.Command)
	}
	if sel.ChoiceTitle != "title" {
		t.Errorf("ChoiceTitle = %q, want title", sel.ChoiceTitle)
	}
	if !reflect.DeepEqual(sel.Variants, []string{"yes", "no"}) {
		t.Errorf("Variants = %v, want [yes no]", sel.Variants)
	}
}

func TestDecodeLayerCtrlBitmask(t *testing.T) {
	// LAYERCTRL layer=$v0 property=20, params mask selects the first
	// two entries only.
	code := []byte{
		0xc3, 0xb0, 0x14,
		0x03, 0x28, 0x3c,
	}
	instr := decodeOne(t, code)
	ci, ok := instr.(CommandInstruction)
	if !ok {
		t.Fatalf("decoded %T, want CommandInstruction", instr)
	}
	ctrl, ok := ci.Command.(LayerCtrl)
	if !ok {
		t.Fatalf("decoded %T, want LayerCtrl", ci.Command)
	}
	want := BitmaskNumberArray{
		ConstSpec(0x28), ConstSpec(0x3c),
		ConstSpec(0), ConstSpec(0), ConstSpec(0), ConstSpec(0), ConstSpec(0), ConstSpec(0),
	}
	if ctrl.Params != want {
		t.Errorf("Params = %v, want %v", ctrl.Params, want)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	if _, err := ReadInstruction(NewReader([]byte{0x4b}, 0)); err == nil {
		t.Error("opcode 0x4b decoded, want error")
	}
}
