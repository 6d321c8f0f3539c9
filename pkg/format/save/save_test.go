package save

import (
	"bytes"
	"encoding/hex"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDecodeOncePass(t *testing.T) {
	data, _ := hex.DecodeString("0123456789abcdef")
	decodeOnce(data, 0x1337)
	if got := hex.EncodeToString(data); got != "01235650b1e1c6a2" {
		t.Errorf("decodeOnce = %s, want 01235650b1e1c6a2", got)
	}
}

func TestObfuscationRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("deobfuscate inverts obfuscate", prop.ForAll(
		func(data []byte, key uint32) bool {
			decoded, err := Deobfuscate(Obfuscate(data, key), key)
			return err == nil && bytes.Equal(decoded, data)
		},
		gen.SliceOf(gen.UInt8()),
		gen.UInt32(),
	))

	properties.TestingRun(t)
}

func TestDeobfuscateDetectsCorruption(t *testing.T) {
	enc := Obfuscate([]byte("hello savedata"), GameKey)

	flipped := append([]byte(nil), enc...)
	flipped[3] ^= 0x40
	if _, err := Deobfuscate(flipped, GameKey); err == nil {
		t.Error("Deobfuscate accepted corrupted data")
	}
	if _, err := Deobfuscate(enc, GameKey+1); err == nil {
		t.Error("Deobfuscate accepted a wrong key")
	}
	if _, err := Deobfuscate(enc[:2], GameKey); err == nil {
		t.Error("Deobfuscate accepted a truncated file")
	}
}

func sampleSavedata() *Savedata {
	s := &Savedata{
		SaveMenuPosition: 42,
		PlaySeconds:      3600,
		PersistData:      NewPersistData([]int16{1, -2, 300}),
		SaveVectors: SaveVectors{
			SeenMessagesMask: []uint32{0xffff0000, 1},
			Vec2:             []uint32{7},
			Vec3:             []uint8{1, 2, 15},
			Vec4:             []uint32{},
			Vec5:             []uint32{0xdeadbeef},
			Vec6:             []uint32{},
		},
		Settings: Settings{
			BGMVolume:          90,
			SFXVolume:          91,
			VoiceVolume:        92,
			SystemVolume:       93,
			VoiceFocus:         true,
			MessageSpeed:       64,
			SkipSpeed:          127,
			MessageWindowAlpha: 80,
			ShowSongTitle:      true,
			V19:                0x12345678,
		},
		AutoSaveSlot: &GameData{
			DateTime: time.Date(2023, time.July, 14, 21, 30, 5, 0, time.UTC),
			Entry: GameDataEntry{
				ScenarioID:    -1,
				RandomSeed:    0xcafebabe,
				SavePosition:  0x1234,
				SelectionData: []uint8{0, 1, 1},
			},
		},
	}
	s.ManualSaveSlots[0] = &GameData{
		DateTime: time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC),
		Entry: GameDataEntry{
			ScenarioID:    0,
			RandomSeed:    1,
			SavePosition:  2,
			SelectionData: []uint8{},
		},
	}
	s.ManualSaveSlots[99] = s.ManualSaveSlots[0]
	return s
}

func TestSavedataRoundTrip(t *testing.T) {
	s := sampleSavedata()
	decoded, err := Decode(s.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, s) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", decoded, s)
	}
}

func TestSavedataCustomKey(t *testing.T) {
	s := sampleSavedata()
	key := KeyFromSeed("another game")
	enc := s.EncodeWithKey(key)

	if _, err := Decode(enc); err == nil {
		t.Error("Decode succeeded with the wrong key")
	}
	if _, err := DecodeWithKey(enc, key); err != nil {
		t.Errorf("DecodeWithKey: %v", err)
	}
}

func TestDecodeFreshSave(t *testing.T) {
	// a counter of zero marks a save file that was never written
	s, err := Decode(Obfuscate([]byte{0}, GameKey))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.AutoSaveSlot != nil || s.PlaySeconds != 0 {
		t.Errorf("fresh save = %+v, want empty", s)
	}
}

func TestDecodeRejectsBadCounter(t *testing.T) {
	if _, err := Decode(Obfuscate([]byte{2}, GameKey)); err == nil {
		t.Error("Decode accepted a counter above 1")
	}
}

func TestReadDateTimeRejectsInvalidDate(t *testing.T) {
	w := &bitWriter{}
	w.writeBits(2023, 12)
	w.writeBits(2, 4)
	w.writeBits(30, 5) // there is no February 30th
	w.writeBits(0, 5)
	w.writeBits(0, 6)
	w.writeBits(0, 6)

	if _, err := readDateTime(newBitReader(w.bytes())); err == nil {
		t.Error("readDateTime accepted February 30th")
	}
}

func TestPersistDataGrowth(t *testing.T) {
	var p PersistData
	if p.Get(5) != 0 {
		t.Error("Get on empty data is not zero")
	}
	p.Set(5, 123)
	if len(p.Values()) != 64 {
		t.Errorf("storage grew to %d, want 64", len(p.Values()))
	}
	p.Set(64, -5)
	if len(p.Values()) != 128 {
		t.Errorf("storage grew to %d, want 128", len(p.Values()))
	}
	if p.Get(5) != 123 || p.Get(64) != -5 {
		t.Errorf("values = %d, %d, want 123, -5", p.Get(5), p.Get(64))
	}
	if p.Get(-1) != 0 || p.Get(1000) != 0 {
		t.Error("out-of-range reads are not zero")
	}
}
