package scenario

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/DCNick3/shin-sub001/pkg/format/sjis"
)

type snrBuilder struct {
	buf bytes.Buffer
}

func (b *snrBuilder) u8(v uint8)   { b.buf.WriteByte(v) }
func (b *snrBuilder) u16(v uint16) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *snrBuilder) u32(v uint32) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *snrBuilder) str(t *testing.T, s string) {
	t.Helper()
	if err := sjis.WriteU16String(&b.buf, s); err != nil {
		t.Fatalf("WriteU16String(%q): %v", s, err)
	}
}

// sized writes a sized table: byte size, element count, then body.
func (b *snrBuilder) sized(count uint32, body func()) uint32 {
	offset := uint32(b.buf.Len())
	sizeAt := b.buf.Len()
	b.u32(0)
	b.u32(count)
	start := b.buf.Len()
	body()
	size := uint32(b.buf.Len() - start)
	binary.LittleEndian.PutUint32(b.buf.Bytes()[sizeAt:], size)
	return offset
}

// simple writes a table without the byte size word.
func (b *snrBuilder) simple(count uint32, body func()) uint32 {
	offset := uint32(b.buf.Len())
	b.u32(count)
	body()
	return offset
}

func buildTestScenario(t *testing.T) []byte {
	var b snrBuilder
	b.buf.WriteString("SNR ")
	b.u32(0) // size, patched below
	for i := 0; i < 6; i++ {
		b.u32(0)
	}
	b.u32(0) // code offset, patched below
	pointersAt := b.buf.Len()
	for i := 0; i < 13; i++ {
		b.u32(0)
	}

	var offsets [13]uint32
	offsets[0] = b.sized(1, func() { b.str(t, "fademask") })
	offsets[1] = b.sized(2, func() {
		b.str(t, "BG001")
		b.u16(3)
		b.str(t, "BG002")
		b.u16(0xffff) // not in the gallery
	})
	offsets[2] = b.sized(1, func() {
		b.str(t, "Eriko")
		b.str(t, "smile")
		b.u16(2)
	})
	offsets[3] = b.sized(1, func() {
		b.str(t, "BGM01")
		b.str(t, "メインテーマ")
		b.u16(1)
	})
	offsets[4] = b.sized(1, func() { b.str(t, "Door") })
	offsets[5] = b.sized(1, func() {
		b.str(t, "OP")
		b.u16(1)
		b.u16(2)
		b.u16(3)
	})
	offsets[6] = b.sized(1, func() {
		b.str(t, "eri")
		b.u8(2)
		b.u8(1)
		b.u8(2)
	})
	offsets[7] = b.simple(0, func() {})
	offsets[8] = b.simple(0, func() {})
	offsets[9] = 0
	offsets[10] = 0
	offsets[11] = 0
	offsets[12] = b.sized(1, func() {
		b.u8(1)
		b.u16(7)
		b.str(t, "title")
		b.str(t, "content")
	})

	codeOffset := uint32(b.buf.Len())
	// j 0x0, then EXIT 0 0
	b.u8(0x47)
	b.u32(uint32(codeOffset))
	b.u8(0x00)
	b.u8(0x00)
	b.u8(0x00)

	data := b.buf.Bytes()
	binary.LittleEndian.PutUint32(data[4:], uint32(len(data)))
	binary.LittleEndian.PutUint32(data[32:], codeOffset)
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(data[pointersAt+i*4:], off)
	}
	return data
}

func TestScenarioParse(t *testing.T) {
	data := buildTestScenario(t)
	s, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tables := s.InfoTables()
	if len(tables.PictureInfo) != 2 {
		t.Fatalf("PictureInfo count = %d, want 2", len(tables.PictureInfo))
	}
	if got := tables.PictureInfo[0].Name; got != "BG001" {
		t.Errorf("PictureInfo[0].Name = %q, want BG001", got)
	}
	if got := tables.PictureInfo[1].LinkedCgID; got != -1 {
		t.Errorf("PictureInfo[1].LinkedCgID = %d, want -1", got)
	}
	if got := tables.BgmInfo[0].DisplayName; got != "メインテーマ" {
		t.Errorf("BgmInfo[0].DisplayName = %q", got)
	}
	if got := tables.BustupInfo[0].Emotion; got != "smile" {
		t.Errorf("BustupInfo[0].Emotion = %q, want smile", got)
	}
	if got := tables.VoiceMappingInfo[0].CharacterIDs; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("VoiceMappingInfo[0].CharacterIDs = %v, want [1 2]", got)
	}
	if got := tables.TipsInfo[0].Content; got != "content" {
		t.Errorf("TipsInfo[0].Content = %q, want content", got)
	}

	r := s.InstructionReader(s.Entrypoint())
	instr, err := ReadInstruction(r)
	if err != nil {
		t.Fatalf("ReadInstruction: %v", err)
	}
	if j, ok := instr.(J); !ok || j.Target != s.Entrypoint() {
		t.Errorf("entry instruction = %v, want jump to entrypoint", instr)
	}
}

func TestScenarioRejectsBadHeader(t *testing.T) {
	data := buildTestScenario(t)

	bad := append([]byte(nil), data...)
	copy(bad, "XXX ")
	if _, err := New(bad); err == nil {
		t.Error("New accepted a bad magic")
	}

	truncated := data[:len(data)-1]
	if _, err := New(truncated); err == nil {
		t.Error("New accepted a size mismatch")
	}
}

func TestAssetPaths(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{PictureInfoItem{Name: "BG001"}.Path(), "/picture/bg001.pic"},
		{BustupInfoItem{Name: "ErIKo"}.Path(), "/bustup/eriko.bup"},
		{BgmInfoItem{Name: "BGM01"}.Path(), "/bgm/bgm01.nxa"},
		{SeInfoItem{Name: "Door"}.Path(), "/se/door.nxa"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("Path = %q, want %q", tc.got, tc.want)
		}
	}
}
