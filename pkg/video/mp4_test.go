package video

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func u16be(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

func u32be(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func mp4box(boxType string, payload ...[]byte) []byte {
	var body []byte
	for _, p := range payload {
		body = append(body, p...)
	}
	out := make([]byte, 8+len(body))
	binary.BigEndian.PutUint32(out, uint32(8+len(body)))
	copy(out[4:8], boxType)
	copy(out[8:], body)
	return out
}

// fullbox prefixes a version and flags word.
func fullbox(boxType string, version byte, payload ...[]byte) []byte {
	return mp4box(boxType, append([][]byte{{version, 0, 0, 0}}, payload...)...)
}

func hdlrBox(handler string) []byte {
	return fullbox("hdlr", 0, u32be(0), []byte(handler), u32be(0), u32be(0), u32be(0), []byte{0})
}

func avcCBox(sps, pps []byte) []byte {
	payload := []byte{1, 0x64, 0x00, 0x1f, 0xff, 0xe1}
	payload = append(payload, u16be(uint16(len(sps)))...)
	payload = append(payload, sps...)
	payload = append(payload, 1)
	payload = append(payload, u16be(uint16(len(pps)))...)
	payload = append(payload, pps...)
	return mp4box("avcC", payload)
}

// buildTestMovie assembles a two-sample movie with one audio and one
// video track.
func buildTestMovie(t *testing.T) ([]byte, [][]byte) {
	t.Helper()

	sps := []byte{0x67, 0x64, 0x00, 0x1f}
	pps := []byte{0x68, 0xee, 0x3c}

	sample1 := append(u32be(2), 0x65, 0x11)
	sample2 := append(u32be(1), 0x41)
	sample2 = append(sample2, u32be(2)...)
	sample2 = append(sample2, 0x01, 0x02)

	ftyp := mp4box("ftyp", []byte("isom"), u32be(0x200), []byte("isomavc1"))
	mdat := mp4box("mdat", sample1, sample2)
	mdatPayload := uint32(len(ftyp) + 8)

	// creation, modification, timescale 1000, duration, language pair
	mdhd := fullbox("mdhd", 0,
		u32be(0), u32be(0), u32be(1000), u32be(80), u16be(0), u16be(0))

	stsd := fullbox("stsd", 0, u32be(1),
		mp4box("avc1", make([]byte, 78), avcCBox(sps, pps)))
	stts := fullbox("stts", 0, u32be(1), u32be(2), u32be(40))
	stsz := fullbox("stsz", 0, u32be(0), u32be(2),
		u32be(uint32(len(sample1))), u32be(uint32(len(sample2))))
	stsc := fullbox("stsc", 0, u32be(1), u32be(1), u32be(2), u32be(1))
	stco := fullbox("stco", 0, u32be(1), u32be(mdatPayload))

	soundTrak := mp4box("trak", mp4box("mdia", mdhd, hdlrBox("soun")))
	videoTrak := mp4box("trak", mp4box("mdia", mdhd, hdlrBox("vide"),
		mp4box("minf", mp4box("stbl", stsd, stts, stsz, stsc, stco))))
	moov := mp4box("moov", soundTrak, videoTrak)

	var file []byte
	file = append(file, ftyp...)
	file = append(file, mdat...)
	file = append(file, moov...)

	wantFirst := []byte{0, 0, 0, 1}
	wantFirst = append(wantFirst, sps...)
	wantFirst = append(wantFirst, 0, 0, 0, 1)
	wantFirst = append(wantFirst, pps...)
	wantFirst = append(wantFirst, 0, 0, 0, 1, 0x65, 0x11)

	wantSecond := []byte{0, 0, 0, 1, 0x41, 0, 0, 0, 1, 0x01, 0x02}

	return file, [][]byte{wantFirst, wantSecond}
}

func TestMp4PacketSource(t *testing.T) {
	file, want := buildTestMovie(t)

	src, err := NewMp4PacketSource(bytes.NewReader(file), int64(len(file)))
	if err != nil {
		t.Fatalf("NewMp4PacketSource failed: %v", err)
	}
	if src.TimeBase() != 1000 {
		t.Errorf("TimeBase = %d, want 1000", src.TimeBase())
	}

	timing, packet, err := src.NextPacket()
	if err != nil {
		t.Fatalf("first NextPacket failed: %v", err)
	}
	if !bytes.Equal(packet, want[0]) {
		t.Errorf("first packet = %x, want %x", packet, want[0])
	}
	if timing.FrameNumber != 0 || timing.StartTime != 0 || timing.Duration != 40 {
		t.Errorf("first timing = %+v, want frame 0 at 0 for 40", timing)
	}

	timing, packet, err = src.NextPacket()
	if err != nil {
		t.Fatalf("second NextPacket failed: %v", err)
	}
	if !bytes.Equal(packet, want[1]) {
		t.Errorf("second packet = %x, want %x", packet, want[1])
	}
	if timing.FrameNumber != 1 || timing.StartTime != 40 || timing.Duration != 40 {
		t.Errorf("second timing = %+v, want frame 1 at 40 for 40", timing)
	}

	if _, _, err := src.NextPacket(); err != io.EOF {
		t.Errorf("NextPacket after last sample = %v, want io.EOF", err)
	}
}

func TestMp4PacketSourceNoVideoTrack(t *testing.T) {
	mdhd := fullbox("mdhd", 0, u32be(0), u32be(0), u32be(1000), u32be(0), u16be(0), u16be(0))
	moov := mp4box("moov", mp4box("trak", mp4box("mdia", mdhd, hdlrBox("soun"))))

	if _, err := NewMp4PacketSource(bytes.NewReader(moov), int64(len(moov))); err == nil {
		t.Error("movie without a video track did not error")
	}
}

func TestMp4PacketSourceRejectsGarbage(t *testing.T) {
	junk := []byte{0, 0, 0, 3, 'x'}
	if _, err := NewMp4PacketSource(bytes.NewReader(junk), int64(len(junk))); err == nil {
		t.Error("corrupt stream did not error")
	}
}

func TestAppendAnnexBRejectsOverlongNal(t *testing.T) {
	sample := append(u32be(100), 0x65)
	if _, err := appendAnnexB(nil, sample, 4); err == nil {
		t.Error("NAL length past the sample end did not error")
	}
}
