// Package lz77 implements the sliding-window compression used by the
// picture, mask and font formats.
//
// The stream is a sequence of groups: one map byte followed by eight
// entries, LSB first. A clear bit is a literal byte; a set bit is a
// big-endian u16 back-reference whose low offsetBits bits hold the
// distance minus one and whose high bits hold the length minus three.
package lz77

import (
	"errors"
	"fmt"
)

// ErrCorrupt reports a back-reference pointing before the output start.
var ErrCorrupt = errors.New("lz77: back-reference out of range")

// Decompress expands data into dst and returns the grown slice.
// offsetBits selects the window size: 12 for textures, 10 for glyphs.
func Decompress(dst, data []byte, offsetBits uint) ([]byte, error) {
	offsetMask := uint16(1)<<offsetBits - 1

	pos := 0
	for pos < len(data) {
		mapByte := data[pos]
		pos++
		for bit := 0; bit < 8 && pos < len(data); bit++ {
			if mapByte&(1<<bit) == 0 {
				dst = append(dst, data[pos])
				pos++
				continue
			}
			if pos+1 >= len(data) {
				return nil, fmt.Errorf("lz77: truncated back-reference at %d", pos)
			}
			spec := uint16(data[pos])<<8 | uint16(data[pos+1])
			pos += 2

			length := int(spec>>offsetBits) + 3
			offset := int(spec&offsetMask) + 1
			if offset > len(dst) {
				return nil, fmt.Errorf("%w: offset %d with %d bytes written", ErrCorrupt, offset, len(dst))
			}
			for i := 0; i < length; i++ {
				dst = append(dst, dst[len(dst)-offset])
			}
		}
	}
	return dst, nil
}
