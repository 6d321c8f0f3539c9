package sjis

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDecodeHiragana(t *testing.T) {
	data := []byte("\x82\xa0\x82\xa2\x82\xa4\x82\xa6\x82\xa8")
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "あいうえお" {
		t.Errorf("Decode = %q, want あいうえお", got)
	}
}

func TestDecodeStopsAtNull(t *testing.T) {
	got, err := Decode([]byte("abc\x00def"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "abc" {
		t.Errorf("Decode = %q, want abc", got)
	}
}

func TestDecodeHalfWidthKatakana(t *testing.T) {
	got, err := Decode([]byte{0xb1, 0xb2, 0xb3})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "アイウ" {
		t.Errorf("Decode = %q, want アイウ", got)
	}
}

func TestDecodeInvalidByte(t *testing.T) {
	if _, err := Decode([]byte{0x80}); !errors.Is(err, ErrInvalidByte) {
		t.Errorf("Decode(0x80) error = %v, want ErrInvalidByte", err)
	}
	if _, err := Decode([]byte{0x82}); !errors.Is(err, ErrInvalidByte) {
		t.Errorf("Decode(truncated pair) error = %v, want ErrInvalidByte", err)
	}
}

func TestEncodeUnmappable(t *testing.T) {
	if _, err := Encode("🎲"); !errors.Is(err, ErrUnmappable) {
		t.Errorf("Encode(non-BMP) error = %v, want ErrUnmappable", err)
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"Hello, world!",
		"あいうえお",
		"ｱｲｳｴｵ｡｢｣",
		"漢字とカタカナ混在",
		"ΑΒΓαβγ",
	}
	for _, s := range inputs {
		encoded, err := Encode(s)
		if err != nil {
			t.Fatalf("Encode(%q): %v", s, err)
		}
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(Encode(%q)): %v", s, err)
		}
		if decoded != s {
			t.Errorf("round trip %q -> %q", s, decoded)
		}
	}
}

func TestMeasureMatchesEncode(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("Measure equals encoded length", prop.ForAll(
		func(s string) bool {
			n, err := Measure(s)
			if err != nil {
				return true // unmappable input, nothing to compare
			}
			encoded, err := Encode(s)
			if err != nil {
				return false
			}
			return n == len(encoded)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestFixupRoundTrip(t *testing.T) {
	display := "「あいうえお、ん…」"
	encoded := EncodeFixup(display)
	if encoded == display {
		t.Fatal("EncodeFixup should shorten fixup-domain characters")
	}
	if got := DecodeFixup(encoded); got != display {
		t.Errorf("DecodeFixup(EncodeFixup(%q)) = %q", display, got)
	}
}

func TestU8StringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteU8String(&buf, "あいう"); err != nil {
		t.Fatalf("WriteU8String: %v", err)
	}
	got, err := ReadU8String(&buf)
	if err != nil {
		t.Fatalf("ReadU8String: %v", err)
	}
	if got != "あいう" {
		t.Errorf("round trip = %q, want あいう", got)
	}
}

func TestU16StringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteU16String(&buf, "Hello世界"); err != nil {
		t.Fatalf("WriteU16String: %v", err)
	}
	got, err := ReadU16String(&buf)
	if err != nil {
		t.Fatalf("ReadU16String: %v", err)
	}
	if got != "Hello世界" {
		t.Errorf("round trip = %q, want Hello世界", got)
	}
}
