package mask

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildMask(t *testing.T, width, height int, texels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w16 := func(v uint16) { binary.Write(&buf, binary.LittleEndian, v) }
	w32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString(magic)
	w32(version)
	w32(0) // file size, patched below
	w32(42)
	w16(uint16(width))
	w16(uint16(height))
	w32(0) // data offset, patched below
	w32(0) // data size, patched below
	w32(0) // vertices offset, patched below
	w32(0) // vertices size, patched below

	vertexOffset := uint32(buf.Len())
	// one black region quad, one white, no transparent
	w32(1)
	w32(16)
	w32(1)
	w32(8)
	w32(0)
	w32(0)
	w16(0)
	w16(0)
	w16(4)
	w16(4)
	w16(4)
	w16(0)
	w16(8)
	w16(4)
	vertexSize := uint32(buf.Len()) - vertexOffset

	dataOffset := uint32(buf.Len())
	w32(0) // uncompressed
	stride := (width + 0xf) &^ 0xf
	for y := 0; y < height; y++ {
		row := make([]byte, stride)
		copy(row, texels[y*width:(y+1)*width])
		buf.Write(row)
	}
	dataSize := uint32(buf.Len()) - dataOffset

	data := buf.Bytes()
	binary.LittleEndian.PutUint32(data[8:], uint32(len(data)))
	binary.LittleEndian.PutUint32(data[20:], dataOffset)
	binary.LittleEndian.PutUint32(data[24:], dataSize)
	binary.LittleEndian.PutUint32(data[28:], vertexOffset)
	binary.LittleEndian.PutUint32(data[32:], vertexSize)
	return data
}

func TestDecode(t *testing.T) {
	texels := []byte{
		0x00, 0x40,
		0x80, 0xff,
	}
	data := buildMask(t, 2, 2, texels)

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.ID != 42 {
		t.Errorf("ID = %d, want 42", m.ID)
	}
	if got := m.Texels.GrayAt(1, 1).Y; got != 0xff {
		t.Errorf("texel (1,1) = %#x, want 0xff", got)
	}
	if got := m.Texels.GrayAt(0, 1).Y; got != 0x80 {
		t.Errorf("texel (0,1) = %#x, want 0x80", got)
	}

	if len(m.Black.Vertices) != 1 || m.Black.Area != 16 {
		t.Errorf("black region = %+v, want one quad of area 16", m.Black)
	}
	if len(m.White.Vertices) != 1 || m.White.Area != 8 {
		t.Errorf("white region = %+v, want one quad of area 8", m.White)
	}
	if len(m.Transparent.Vertices) != 0 {
		t.Errorf("transparent region has %d quads, want 0", len(m.Transparent.Vertices))
	}
	if v := m.White.Vertices[0]; v.FromX != 4 || v.ToX != 8 {
		t.Errorf("white quad = %+v, want x range 4..8", v)
	}
}

func TestDecodeRejectsCorrupt(t *testing.T) {
	data := buildMask(t, 2, 2, make([]byte, 4))

	bad := append([]byte(nil), data...)
	copy(bad, "XXXX")
	if _, err := Decode(bad); err == nil {
		t.Error("Decode accepted a bad magic")
	}

	if _, err := Decode(data[:len(data)-1]); err == nil {
		t.Error("Decode accepted a size mismatch")
	}

	bad = append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(bad[24:], uint32(len(bad))) // data size past the end
	if _, err := Decode(bad); err == nil {
		t.Error("Decode accepted a texel block outside the file")
	}
}
