package scenario

import (
	"fmt"
	"strconv"
	"strings"
)

// Register addresses a cell of VM memory. Values below 0x1000 name the
// regular registers ($vN); 0x1000 and above name argument registers
// ($aN) addressed relative to the top of the argument stack.
type Register uint16

const (
	argumentsStart Register = 0x1000
	registerMax             = 0xfff
)

// RegularRegister returns the register for $v<index>.
func RegularRegister(index uint16) (Register, error) {
	if index > registerMax {
		return 0, fmt.Errorf("regular register index out of range: %d", index)
	}
	return Register(index), nil
}

// ArgumentRegister returns the register for $a<index>.
func ArgumentRegister(index uint16) (Register, error) {
	if index > registerMax {
		return 0, fmt.Errorf("argument register index out of range: %d", index)
	}
	return argumentsStart + Register(index), nil
}

// IsArgument reports whether the register addresses the argument stack.
func (r Register) IsArgument() bool {
	return r >= argumentsStart
}

// Index returns the index within the register's bank.
func (r Register) Index() uint16 {
	if r.IsArgument() {
		return uint16(r - argumentsStart)
	}
	return uint16(r)
}

func (r Register) String() string {
	if r.IsArgument() {
		return fmt.Sprintf("$a%d", r.Index())
	}
	return fmt.Sprintf("$v%d", r.Index())
}

// ParseRegister parses the assembly notation $vN or $aN.
func ParseRegister(s string) (Register, error) {
	rest, ok := strings.CutPrefix(s, "$")
	if !ok || len(rest) < 2 {
		return 0, fmt.Errorf("invalid register notation %q", s)
	}
	index, err := strconv.ParseUint(rest[1:], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid register notation %q: %w", s, err)
	}
	switch rest[0] {
	case 'v':
		return RegularRegister(uint16(index))
	case 'a':
		return ArgumentRegister(uint16(index))
	}
	return 0, fmt.Errorf("invalid register notation %q", s)
}
