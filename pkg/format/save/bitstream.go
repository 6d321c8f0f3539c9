package save

import "fmt"

// The savedata payload is a big-endian bit stream: fields take only as
// many bits as they need and alignment is explicit.

type bitReader struct {
	data []byte
	pos  int
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (r *bitReader) readBits(count int) (uint32, error) {
	if r.pos+count > len(r.data)*8 {
		return 0, fmt.Errorf("bit stream ended %d bits early", r.pos+count-len(r.data)*8)
	}
	var v uint32
	for i := 0; i < count; i++ {
		bit := r.data[r.pos>>3] >> (7 - r.pos&7) & 1
		v = v<<1 | uint32(bit)
		r.pos++
	}
	return v, nil
}

func (r *bitReader) readBool() (bool, error) {
	v, err := r.readBits(1)
	return v != 0, err
}

func (r *bitReader) align() {
	r.pos = (r.pos + 7) &^ 7
}

type bitWriter struct {
	data []byte
	bits int
}

func (w *bitWriter) writeBits(v uint32, count int) {
	for i := count - 1; i >= 0; i-- {
		if w.bits%8 == 0 {
			w.data = append(w.data, 0)
		}
		bit := byte(v >> i & 1)
		w.data[w.bits>>3] |= bit << (7 - w.bits&7)
		w.bits++
	}
}

func (w *bitWriter) writeBool(v bool) {
	if v {
		w.writeBits(1, 1)
	} else {
		w.writeBits(0, 1)
	}
}

func (w *bitWriter) align() {
	w.bits = (w.bits + 7) &^ 7
	for len(w.data)*8 < w.bits {
		w.data = append(w.data, 0)
	}
}

func (w *bitWriter) bytes() []byte {
	return w.data
}
