package picture

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"testing"
)

type picBuilder struct {
	buf bytes.Buffer
}

func (b *picBuilder) u16(v uint16) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *picBuilder) u32(v uint32) { binary.Write(&b.buf, binary.LittleEndian, v) }

// chunk assembles an uncompressed dict-encoded tile.
func buildChunk(inlineAlpha bool, width, height int, dict [][4]byte, indices, alpha []byte) []byte {
	var b picBuilder
	flags := uint16(flagDictEncoding)
	if inlineAlpha {
		flags |= flagInlineAlpha
	}
	b.u16(flags)
	b.u16(1) // one opaque vertex
	b.u16(0)
	b.u16(0) // no padding
	b.u16(0)
	b.u16(0)
	b.u16(uint16(width))
	b.u16(uint16(height))
	b.u16(0) // stored uncompressed
	b.u16(0)

	// opaque vertex covering the whole tile
	b.u16(0)
	b.u16(0)
	b.u16(uint16(width))
	b.u16(uint16(height))

	dictBytes := make([]byte, dictSize)
	for i, entry := range dict {
		copy(dictBytes[i*4:], entry[:])
	}
	b.buf.Write(dictBytes)
	b.buf.Write(indices)
	if !inlineAlpha {
		b.buf.Write(alpha)
	}
	return b.buf.Bytes()
}

func buildPicture(t *testing.T, width, height int, chunks []struct {
	x, y uint16
	data []byte
}) []byte {
	t.Helper()
	var b picBuilder
	b.buf.WriteString(magic)
	b.u32(version)
	b.u32(0) // file size, patched below
	b.u16(3) // origin
	b.u16(4)
	b.u16(uint16(width))
	b.u16(uint16(height))
	b.u32(0) // field_20
	b.u32(uint32(len(chunks)))
	b.u32(77) // picture id
	b.u32(0x1000)

	offset := headerSize + len(chunks)*chunkDescSize
	for _, c := range chunks {
		b.u16(c.x)
		b.u16(c.y)
		b.u32(uint32(offset))
		b.u32(uint32(len(c.data)))
		offset += len(c.data)
	}
	for _, c := range chunks {
		b.buf.Write(c.data)
	}

	data := b.buf.Bytes()
	binary.LittleEndian.PutUint32(data[8:], uint32(len(data)))
	return data
}

func TestDecodeInlineAlpha(t *testing.T) {
	// 2x2 tile: rows padded to four index bytes.
	dict := [][4]byte{
		{0xff, 0x00, 0x00, 0xff},
		{0x00, 0xff, 0x00, 0x80},
	}
	indices := []byte{
		0, 1, 0, 0,
		1, 0, 0, 0,
	}
	chunk := buildChunk(true, 2, 2, dict, indices, nil)
	data := buildPicture(t, 2, 2, []struct {
		x, y uint16
		data []byte
	}{{0, 0, chunk}})

	pic, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if pic.OriginX != 3 || pic.OriginY != 4 {
		t.Errorf("origin = (%d, %d), want (3, 4)", pic.OriginX, pic.OriginY)
	}
	if pic.PictureID != 77 {
		t.Errorf("PictureID = %d, want 77", pic.PictureID)
	}

	wantRed := color.NRGBA{0xff, 0x00, 0x00, 0xff}
	wantGreen := color.NRGBA{0x00, 0xff, 0x00, 0x80}
	if got := pic.Image.NRGBAAt(0, 0); got != wantRed {
		t.Errorf("pixel (0,0) = %v, want %v", got, wantRed)
	}
	if got := pic.Image.NRGBAAt(1, 0); got != wantGreen {
		t.Errorf("pixel (1,0) = %v, want %v", got, wantGreen)
	}
	if got := pic.Image.NRGBAAt(0, 1); got != wantGreen {
		t.Errorf("pixel (0,1) = %v, want %v", got, wantGreen)
	}
}

func TestDecodeSeparateAlpha(t *testing.T) {
	dict := [][4]byte{{0x10, 0x20, 0x30, 0xff}}
	indices := []byte{
		0, 0, 0, 0,
		0, 0, 0, 0,
	}
	alpha := []byte{
		0x11, 0x22, 0, 0,
		0x33, 0x44, 0, 0,
	}
	chunk := buildChunk(false, 2, 2, dict, indices, alpha)
	data := buildPicture(t, 2, 2, []struct {
		x, y uint16
		data []byte
	}{{0, 0, chunk}})

	pic, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := color.NRGBA{0x10, 0x20, 0x30, 0x44}
	if got := pic.Image.NRGBAAt(1, 1); got != want {
		t.Errorf("pixel (1,1) = %v, want %v", got, want)
	}
}

func TestDecodeChunkPlacement(t *testing.T) {
	dictA := [][4]byte{{0xaa, 0x00, 0x00, 0xff}}
	dictB := [][4]byte{{0x00, 0xbb, 0x00, 0xff}}
	indices := []byte{0, 0, 0, 0}
	chunkA := buildChunk(true, 1, 1, dictA, indices[:4], nil)
	chunkB := buildChunk(true, 1, 1, dictB, indices[:4], nil)
	data := buildPicture(t, 2, 1, []struct {
		x, y uint16
		data []byte
	}{{0, 0, chunkA}, {1, 0, chunkB}})

	pic, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := pic.Image.NRGBAAt(0, 0); got.R != 0xaa {
		t.Errorf("pixel (0,0) = %v, want chunk A", got)
	}
	if got := pic.Image.NRGBAAt(1, 0); got.G != 0xbb {
		t.Errorf("pixel (1,0) = %v, want chunk B", got)
	}
}

func TestDecodeChunkVertices(t *testing.T) {
	dict := [][4]byte{{0, 0, 0, 0xff}}
	chunk := buildChunk(true, 1, 1, dict, []byte{0, 0, 0, 0}, nil)
	decoded, err := DecodeChunk(chunk)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if len(decoded.OpaqueVertices) != 1 {
		t.Fatalf("OpaqueVertices count = %d, want 1", len(decoded.OpaqueVertices))
	}
	v := decoded.OpaqueVertices[0]
	if v.ToX != 1 || v.ToY != 1 {
		t.Errorf("vertex = %+v, want 1x1 quad", v)
	}
}

func TestDecodeEmptyChunk(t *testing.T) {
	chunk, err := DecodeChunk(nil)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if !chunk.Image.Rect.Empty() {
		t.Errorf("empty chunk decoded to %v", chunk.Image.Rect)
	}
}

func TestDecodeRejectsBadHeader(t *testing.T) {
	dict := [][4]byte{{0, 0, 0, 0xff}}
	chunk := buildChunk(true, 1, 1, dict, []byte{0, 0, 0, 0}, nil)
	data := buildPicture(t, 1, 1, []struct {
		x, y uint16
		data []byte
	}{{0, 0, chunk}})

	bad := append([]byte(nil), data...)
	copy(bad, "XXXX")
	if _, err := Decode(bad); err == nil {
		t.Error("Decode accepted a bad magic")
	}

	bad = append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(bad[4:], 99)
	if _, err := Decode(bad); err == nil {
		t.Error("Decode accepted an unknown version")
	}

	if _, err := Decode(data[:len(data)-1]); err == nil {
		t.Error("Decode accepted a file size mismatch")
	}
}
