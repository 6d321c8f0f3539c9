package sjis

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Length-prefixed strings as stored in scenario files: a u8 or u16
// byte count covering the Shift-JIS payload and its null terminator.

// ReadU8String reads a string with a u8 length descriptor.
func ReadU8String(r io.Reader) (string, error) {
	var length uint8
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", fmt.Errorf("reading string length: %w", err)
	}
	return ReadString(r, int(length))
}

// ReadU16String reads a string with a u16 length descriptor.
func ReadU16String(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", fmt.Errorf("reading string length: %w", err)
	}
	return ReadString(r, int(length))
}

// ReadU8FixupString reads a u8-length string and undoes the fixup.
func ReadU8FixupString(r io.Reader) (string, error) {
	s, err := ReadU8String(r)
	if err != nil {
		return "", err
	}
	return DecodeFixup(s), nil
}

// ReadU16FixupString reads a u16-length string and undoes the fixup.
func ReadU16FixupString(r io.Reader) (string, error) {
	s, err := ReadU16String(r)
	if err != nil {
		return "", err
	}
	return DecodeFixup(s), nil
}

// WriteU8String writes a string with a u8 length descriptor and null
// terminator.
func WriteU8String(w io.Writer, s string) error {
	encoded, err := Encode(s)
	if err != nil {
		return err
	}
	if len(encoded)+1 > 0xff {
		return fmt.Errorf("sjis: string too long for u8 length: %d bytes", len(encoded)+1)
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(len(encoded)+1)); err != nil {
		return err
	}
	if _, err := w.Write(encoded); err != nil {
		return err
	}
	_, err = w.Write([]byte{0})
	return err
}

// WriteU16String writes a string with a u16 length descriptor and null
// terminator.
func WriteU16String(w io.Writer, s string) error {
	encoded, err := Encode(s)
	if err != nil {
		return err
	}
	if len(encoded)+1 > 0xffff {
		return fmt.Errorf("sjis: string too long for u16 length: %d bytes", len(encoded)+1)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(encoded)+1)); err != nil {
		return err
	}
	if _, err := w.Write(encoded); err != nil {
		return err
	}
	_, err = w.Write([]byte{0})
	return err
}
