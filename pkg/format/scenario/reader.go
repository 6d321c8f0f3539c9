package scenario

import (
	"encoding/binary"
	"fmt"
	"io"
)

// CodeAddress is a byte offset into the scenario file.
type CodeAddress uint32

func (a CodeAddress) String() string {
	return fmt.Sprintf("0x%08x", uint32(a))
}

// Reader is a cursor over scenario bytes. Instruction decoding reads
// through it sequentially; jumps reposition it.
type Reader struct {
	data []byte
	pos  int
}

// NewReader positions a cursor at offset within data.
func NewReader(data []byte, offset CodeAddress) *Reader {
	return &Reader{data: data, pos: int(offset)}
}

// Position returns the current cursor offset.
func (r *Reader) Position() CodeAddress {
	return CodeAddress(r.pos)
}

// Seek repositions the cursor.
func (r *Reader) Seek(offset CodeAddress) error {
	if int(offset) > len(r.data) {
		return fmt.Errorf("seek past end of scenario: %s", offset)
	}
	r.pos = int(offset)
	return nil
}

// Read implements io.Reader so string decoding helpers can consume the
// cursor directly.
func (r *Reader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *Reader) U8() (uint8, error) {
	if r.pos >= len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) U16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) address() (CodeAddress, error) {
	v, err := r.U32()
	return CodeAddress(v), err
}

// skip advances the cursor without reading, used for padded fields.
func (r *Reader) skip(n int) error {
	if r.pos+n > len(r.data) {
		return io.ErrUnexpectedEOF
	}
	r.pos += n
	return nil
}
