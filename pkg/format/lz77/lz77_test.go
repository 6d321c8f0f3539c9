package lz77

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecompressHello(t *testing.T) {
	compressed := []byte{
		0b11000000,
		'H', 'E', 'L', 'L', 'O', ' ',
		0x30, 0x05, // back 6, copy 6
		0x80, 0x0b, // back 12, copy 11
	}
	got, err := Decompress(nil, compressed, 12)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	want := []byte("HELLO HELLO HELLO HELLO")
	if !bytes.Equal(got, want) {
		t.Errorf("Decompress = %q, want %q", got, want)
	}
}

func TestDecompressLiteralsOnly(t *testing.T) {
	compressed := []byte{0x00, 1, 2, 3, 4, 5, 6, 7, 8, 0x00, 9}
	got, err := Decompress(nil, compressed, 12)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if !bytes.Equal(got, want) {
		t.Errorf("Decompress = %v, want %v", got, want)
	}
}

func TestDecompressBadBackref(t *testing.T) {
	// Reference before the start of the output.
	compressed := []byte{0b00000001, 0x00, 0x10}
	if _, err := Decompress(nil, compressed, 12); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Decompress error = %v, want ErrCorrupt", err)
	}
}

func TestDecompressNarrowWindow(t *testing.T) {
	// Same reference semantics with a 10-bit offset field.
	compressed := []byte{
		0b00001000,
		'a', 'b', 'c',
		0x0c, 0x02, // len = (0xc02>>10)+3 = 6, offset = 3
		'!',
	}
	got, err := Decompress(nil, compressed, 10)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	want := []byte("abcabcabc!")
	if !bytes.Equal(got, want) {
		t.Errorf("Decompress = %q, want %q", got, want)
	}
}
