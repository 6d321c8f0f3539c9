package scenario

import (
	"fmt"
)

// NumberSpec describes how to obtain a 32-bit signed number at runtime:
// either an inline constant or a register reference.
//
// The wire encoding is variable length. The first byte is TXXXXXXX:
// with T clear the remaining bits are a 7-bit signed constant, with T
// set the byte is 1PPPKKKK and P selects among wider constants (whose
// extra bytes follow big endian) and register references.
type NumberSpec struct {
	IsRegister bool
	Constant   int32
	Register   Register
}

// ConstSpec returns a constant NumberSpec.
func ConstSpec(value int32) NumberSpec {
	return NumberSpec{Constant: value}
}

// RegisterSpec returns a register-referencing NumberSpec.
func RegisterSpec(r Register) NumberSpec {
	return NumberSpec{IsRegister: true, Register: r}
}

func (s NumberSpec) String() string {
	if s.IsRegister {
		return s.Register.String()
	}
	return fmt.Sprintf("%d", s.Constant)
}

// signExtend interprets the low bits of v as a signed bits-wide number.
func signExtend(v int32, bits uint) int32 {
	shift := 32 - bits
	return v << shift >> shift
}

// ReadNumberSpec decodes one NumberSpec from r.
func ReadNumberSpec(r *Reader) (NumberSpec, error) {
	t, err := r.U8()
	if err != nil {
		return NumberSpec{}, fmt.Errorf("reading number spec: %w", err)
	}
	if t&0x80 == 0 {
		return ConstSpec(signExtend(int32(t), 7)), nil
	}

	p := (t & 0x70) >> 4
	k := int32(t & 0x0f)
	kSext := signExtend(k, 4)
	switch p {
	case 0:
		b, err := r.U8()
		if err != nil {
			return NumberSpec{}, fmt.Errorf("reading number spec: %w", err)
		}
		return ConstSpec(int32(b) | kSext<<8), nil
	case 1:
		b1, err1 := r.U8()
		b2, err2 := r.U8()
		if err := firstErr(err1, err2); err != nil {
			return NumberSpec{}, fmt.Errorf("reading number spec: %w", err)
		}
		return ConstSpec(int32(b2) | int32(b1)<<8 | kSext<<16), nil
	case 2:
		b1, err1 := r.U8()
		b2, err2 := r.U8()
		b3, err3 := r.U8()
		if err := firstErr(err1, err2, err3); err != nil {
			return NumberSpec{}, fmt.Errorf("reading number spec: %w", err)
		}
		return ConstSpec(int32(b3) | int32(b2)<<8 | int32(b1)<<16 | kSext<<24), nil
	case 3:
		reg, err := RegularRegister(uint16(k))
		if err != nil {
			return NumberSpec{}, err
		}
		return RegisterSpec(reg), nil
	case 4:
		b, err := r.U8()
		if err != nil {
			return NumberSpec{}, fmt.Errorf("reading number spec: %w", err)
		}
		reg, err := RegularRegister(uint16(b) | uint16(k)<<8)
		if err != nil {
			return NumberSpec{}, err
		}
		return RegisterSpec(reg), nil
	case 5:
		reg, err := ArgumentRegister(uint16(k))
		if err != nil {
			return NumberSpec{}, err
		}
		return RegisterSpec(reg), nil
	}
	return NumberSpec{}, fmt.Errorf("unknown number spec type: t=0x%02x, P=%d", t, p)
}

// Append encodes the spec in its shortest form and appends it to dst.
func (s NumberSpec) Append(dst []byte) ([]byte, error) {
	encT := func(p, k byte) byte { return 0x80 | p<<4 | k }

	if s.IsRegister {
		index := s.Register.Index()
		switch {
		case !s.Register.IsArgument() && index < 16:
			return append(dst, encT(3, byte(index))), nil
		case !s.Register.IsArgument():
			return append(dst, encT(4, byte(index>>8)), byte(index)), nil
		case index < 16:
			return append(dst, encT(5, byte(index))), nil
		}
		return nil, fmt.Errorf("argument register not encodable: %s", s.Register)
	}

	v := s.Constant
	switch {
	case v >= -0x40 && v <= 0x3f:
		return append(dst, byte(v)&0x7f), nil
	case v >= -0x800 && v <= 0x7ff:
		return append(dst, encT(0, byte(v>>8)&0xf), byte(v)), nil
	case v >= -0x80000 && v <= 0x7ffff:
		return append(dst, encT(1, byte(v>>16)&0xf), byte(v>>8), byte(v)), nil
	case v >= -0x8000000 && v <= 0x7ffffff:
		return append(dst, encT(2, byte(v>>24)&0xf), byte(v>>16), byte(v>>8), byte(v)), nil
	}
	return nil, fmt.Errorf("constant not encodable: %d", v)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
