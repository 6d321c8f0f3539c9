// Package sjis implements the Shift-JIS variant used by the engine's
// data files.
//
// Single-byte codes below 0x20 pass through, 0x20..0x7F are ASCII, and
// 0xA0..0xDF map to half-width katakana (0xA0 itself maps to a private
// use codepoint the original font carries a glyph for). Two-byte
// sequences follow the standard Shift-JIS layout and are converted
// through the x/text tables.
package sjis

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

var (
	// ErrInvalidByte reports a byte sequence with no mapping to text.
	ErrInvalidByte = errors.New("sjis: invalid byte sequence")
	// ErrUnmappable reports a rune that cannot be encoded.
	ErrUnmappable = errors.New("sjis: unmappable rune")
)

// katakanaGap is the codepoint used for the otherwise-unmapped lead
// byte 0xA0.
const katakanaGap = '\uf8f0'

func isLeadByte(c byte) bool {
	return (c >= 0x81 && c <= 0x9f) || (c >= 0xe0 && c <= 0xfc)
}

func decodePair(first, second byte) (rune, error) {
	if !(second >= 0x40 && second <= 0x7e || second >= 0x80 && second <= 0xfc) {
		return 0, fmt.Errorf("%w: 0x%02x 0x%02x", ErrInvalidByte, first, second)
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes([]byte{first, second})
	if err != nil {
		return 0, fmt.Errorf("%w: 0x%02x 0x%02x", ErrInvalidByte, first, second)
	}
	r, size := utf8.DecodeRune(decoded)
	if r == utf8.RuneError || size != len(decoded) {
		return 0, fmt.Errorf("%w: 0x%02x 0x%02x", ErrInvalidByte, first, second)
	}
	return r, nil
}

func decodeSingle(c byte) (rune, error) {
	switch {
	case c < 0x80:
		return rune(c), nil
	case c == 0xa0:
		return katakanaGap, nil
	case c > 0xa0 && c < 0xe0:
		return 0xff61 + rune(c-0xa1), nil
	default:
		return 0, fmt.Errorf("%w: 0x%02x", ErrInvalidByte, c)
	}
}

// Decode converts Shift-JIS bytes to a string, stopping at the first
// null byte.
func Decode(data []byte) (string, error) {
	out := make([]rune, 0, len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == 0 {
			break
		}
		if isLeadByte(c) {
			i++
			if i >= len(data) {
				return "", fmt.Errorf("%w: truncated double-byte char", ErrInvalidByte)
			}
			r, err := decodePair(c, data[i])
			if err != nil {
				return "", err
			}
			out = append(out, r)
			continue
		}
		r, err := decodeSingle(c)
		if err != nil {
			return "", err
		}
		out = append(out, r)
	}
	return string(out), nil
}

func encodeRune(r rune) ([]byte, error) {
	switch {
	case r < 0x80:
		return []byte{byte(r)}, nil
	case r == katakanaGap:
		return []byte{0xa0}, nil
	case r >= 0xff61 && r <= 0xff9f:
		return []byte{byte(0xa1 + (r - 0xff61))}, nil
	case r > 0xffff:
		return nil, fmt.Errorf("%w: %q", ErrUnmappable, r)
	}
	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(string(r)))
	if err != nil || len(encoded) != 2 || !isLeadByte(encoded[0]) {
		return nil, fmt.Errorf("%w: %q", ErrUnmappable, r)
	}
	return encoded, nil
}

// Encode converts a string to Shift-JIS bytes, without a terminator.
func Encode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, err := encodeRune(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// Measure returns the encoded byte length of s, without a terminator.
func Measure(s string) (int, error) {
	n := 0
	for _, r := range s {
		b, err := encodeRune(r)
		if err != nil {
			return 0, err
		}
		n += len(b)
	}
	return n, nil
}

// ReadString consumes exactly byteSize bytes from r and decodes them,
// stopping at the first null byte.
func ReadString(r io.Reader, byteSize int) (string, error) {
	buf := make([]byte, byteSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("reading sjis string: %w", err)
	}
	return Decode(buf)
}
