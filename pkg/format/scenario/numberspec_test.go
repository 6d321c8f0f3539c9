package scenario

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func mustRegular(t *testing.T, index uint16) Register {
	t.Helper()
	r, err := RegularRegister(index)
	if err != nil {
		t.Fatalf("RegularRegister(%d): %v", index, err)
	}
	return r
}

func mustArgument(t *testing.T, index uint16) Register {
	t.Helper()
	r, err := ArgumentRegister(index)
	if err != nil {
		t.Fatalf("ArgumentRegister(%d): %v", index, err)
	}
	return r
}

func TestNumberSpecEncodings(t *testing.T) {
	cases := []struct {
		spec  NumberSpec
		bytes []byte
	}{
		{ConstSpec(0), []byte{0x00}},
		{ConstSpec(-1), []byte{0x7f}},
		{ConstSpec(64), []byte{0x80, 0x40}},
		{ConstSpec(2048), []byte{0x90, 0x08, 0x00}},
		{ConstSpec(524288), []byte{0xa0, 0x08, 0x00, 0x00}},
	}
	for _, tc := range cases {
		got, err := tc.spec.Append(nil)
		if err != nil {
			t.Fatalf("Append(%v): %v", tc.spec, err)
		}
		if !bytes.Equal(got, tc.bytes) {
			t.Errorf("Append(%v) = %x, want %x", tc.spec, got, tc.bytes)
		}

		decoded, err := ReadNumberSpec(NewReader(tc.bytes, 0))
		if err != nil {
			t.Fatalf("ReadNumberSpec(%x): %v", tc.bytes, err)
		}
		if decoded != tc.spec {
			t.Errorf("ReadNumberSpec(%x) = %v, want %v", tc.bytes, decoded, tc.spec)
		}
	}
}

func TestNumberSpecRegisterEncodings(t *testing.T) {
	cases := []struct {
		spec  NumberSpec
		bytes []byte
	}{
		{RegisterSpec(mustRegular(t, 0)), []byte{0xb0}},
		{RegisterSpec(mustRegular(t, 16)), []byte{0xc0, 0x10}},
		{RegisterSpec(mustArgument(t, 0)), []byte{0xd0}},
	}
	for _, tc := range cases {
		got, err := tc.spec.Append(nil)
		if err != nil {
			t.Fatalf("Append(%v): %v", tc.spec, err)
		}
		if !bytes.Equal(got, tc.bytes) {
			t.Errorf("Append(%v) = %x, want %x", tc.spec, got, tc.bytes)
		}

		decoded, err := ReadNumberSpec(NewReader(tc.bytes, 0))
		if err != nil {
			t.Fatalf("ReadNumberSpec(%x): %v", tc.bytes, err)
		}
		if decoded != tc.spec {
			t.Errorf("ReadNumberSpec(%x) = %v, want %v", tc.bytes, decoded, tc.spec)
		}
	}
}

func TestNumberSpecRejectsUnknownType(t *testing.T) {
	for _, b := range []byte{0xe0, 0xf5} {
		if _, err := ReadNumberSpec(NewReader([]byte{b, 0, 0, 0}, 0)); err == nil {
			t.Errorf("ReadNumberSpec(0x%02x) succeeded, want error", b)
		}
	}
}

func TestNumberSpecRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("constants survive a round trip", prop.ForAll(
		func(v int32) bool {
			spec := ConstSpec(v)
			encoded, err := spec.Append(nil)
			if err != nil {
				// Constants outside the 28-bit range are not encodable.
				return v < -0x8000000 || v > 0x7ffffff
			}
			decoded, err := ReadNumberSpec(NewReader(encoded, 0))
			return err == nil && decoded == spec
		},
		gen.Int32(),
	))

	properties.Property("registers survive a round trip", prop.ForAll(
		func(index uint16, argument bool) bool {
			index %= 0x1000
			var reg Register
			var err error
			if argument {
				reg, err = ArgumentRegister(index)
			} else {
				reg, err = RegularRegister(index)
			}
			if err != nil {
				return false
			}
			spec := RegisterSpec(reg)
			encoded, err := spec.Append(nil)
			if err != nil {
				// Wide argument registers have no encoding.
				return argument && index >= 16
			}
			decoded, err := ReadNumberSpec(NewReader(encoded, 0))
			return err == nil && decoded == spec
		},
		gen.UInt16(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestRegisterNotation(t *testing.T) {
	cases := []struct {
		notation string
		register Register
	}{
		{"$v0", mustRegular(t, 0)},
		{"$v4095", mustRegular(t, 4095)},
		{"$a0", mustArgument(t, 0)},
		{"$a22", mustArgument(t, 22)},
	}
	for _, tc := range cases {
		if got := tc.register.String(); got != tc.notation {
			t.Errorf("String() = %q, want %q", got, tc.notation)
		}
		parsed, err := ParseRegister(tc.notation)
		if err != nil {
			t.Fatalf("ParseRegister(%q): %v", tc.notation, err)
		}
		if parsed != tc.register {
			t.Errorf("ParseRegister(%q) = %v, want %v", tc.notation, parsed, tc.register)
		}
	}

	for _, bad := range []string{"", "$", "$v", "$x0", "v0", "$v4096", "$a4096"} {
		if _, err := ParseRegister(bad); err == nil {
			t.Errorf("ParseRegister(%q) succeeded, want error", bad)
		}
	}
}
