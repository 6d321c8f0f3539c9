package save

import (
	"fmt"
	"time"
)

// ManualSaveSlots is the number of manual save slots in a save file.
const ManualSaveSlots = 100

// Savedata is the full decoded contents of a save file.
type Savedata struct {
	SaveMenuPosition uint8
	PlaySeconds      uint32
	PersistData      PersistData
	SaveVectors      SaveVectors
	Settings         Settings
	AutoSaveSlot     *GameData
	ManualSaveSlots  [ManualSaveSlots]*GameData
}

// PersistData stores the persistent scenario variables. They are
// independent of the save slots, used for global progression.
type PersistData struct {
	values []int16
}

func NewPersistData(values []int16) PersistData {
	return PersistData{values: values}
}

func (p *PersistData) Values() []int16 { return p.values }

func (p *PersistData) Get(index int32) int32 {
	if index < 0 || int(index) >= len(p.values) {
		return 0
	}
	return int32(p.values[index])
}

func (p *PersistData) Set(index int32, value int32) {
	if int(index) >= len(p.values) {
		// grow in steps of 64
		grown := make([]int16, (int(index)+64)/64*64)
		copy(grown, p.values)
		p.values = grown
	}
	p.values[index] = int16(value)
}

// SaveVectors are the global unlock bitmaps.
type SaveVectors struct {
	SeenMessagesMask []uint32
	// seen choices?
	Vec2 []uint32
	// chosen variants?
	Vec3 []uint8
	// unlocked CGs
	Vec4 []uint32
	// unlocked BGMs
	Vec5 []uint32
	// unlocked tips?
	Vec6 []uint32
}

// Settings are the user-facing options. The numbered fields have not
// been identified yet.
type Settings struct {
	BGMVolume          uint8 // 0..=127
	SFXVolume          uint8
	VoiceVolume        uint8
	SystemVolume       uint8
	VoiceFocus         bool
	VoicePanapot       bool
	V6                 bool
	V7                 uint8
	V8                 uint8
	MessageSpeed       uint8
	SkipSpeed          uint8
	DisallowSkipUnread bool
	V12                bool
	MessageWindowAlpha uint8
	ShowRouteNavi      bool
	V15                bool
	ShowTouchEffect    bool
	ShowSceneTitle     bool
	ShowSongTitle      bool
	V19                uint32
}

// GameData is the minimal state needed to restore a save slot.
type GameData struct {
	DateTime time.Time
	Entry    GameDataEntry
}

type GameDataEntry struct {
	ScenarioID    int32
	RandomSeed    uint32
	SavePosition  uint32
	SelectionData []uint8
}

// Decode deobfuscates and parses a save file using the game key.
func Decode(data []byte) (*Savedata, error) {
	return DecodeWithKey(data, GameKey)
}

// DecodeWithKey deobfuscates and parses a save file.
func DecodeWithKey(data []byte, key uint32) (*Savedata, error) {
	payload, err := Deobfuscate(data, key)
	if err != nil {
		return nil, err
	}
	return decodePayload(payload)
}

// Encode packs and obfuscates a save file using the game key.
func (s *Savedata) Encode() []byte {
	return s.EncodeWithKey(GameKey)
}

// EncodeWithKey packs and obfuscates a save file.
func (s *Savedata) EncodeWithKey(key uint32) []byte {
	return Obfuscate(s.encodePayload(), key)
}

func decodePayload(payload []byte) (*Savedata, error) {
	r := newBitReader(payload)

	counter, err := r.readBits(8)
	if err != nil {
		return nil, err
	}
	switch {
	case counter == 0:
		// a never-written save file
		return &Savedata{}, nil
	case counter > 1:
		return nil, fmt.Errorf("unexpected savedata counter %d", counter)
	}

	var s Savedata
	menuPosition, err := r.readBits(7)
	if err != nil {
		return nil, err
	}
	s.SaveMenuPosition = uint8(menuPosition)
	if s.PlaySeconds, err = r.readBits(32); err != nil {
		return nil, err
	}
	r.align()

	if s.PersistData, err = readPersistData(r); err != nil {
		return nil, fmt.Errorf("reading persist data: %w", err)
	}
	if s.SaveVectors, err = readSaveVectors(r); err != nil {
		return nil, fmt.Errorf("reading save vectors: %w", err)
	}
	if s.Settings, err = readSettings(r); err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if s.AutoSaveSlot, err = readOptGameData(r); err != nil {
		return nil, fmt.Errorf("reading auto save slot: %w", err)
	}
	for i := range s.ManualSaveSlots {
		if s.ManualSaveSlots[i], err = readOptGameData(r); err != nil {
			return nil, fmt.Errorf("reading save slot %d: %w", i, err)
		}
	}
	return &s, nil
}

func (s *Savedata) encodePayload() []byte {
	w := &bitWriter{}
	w.writeBits(1, 8)
	w.writeBits(uint32(s.SaveMenuPosition), 7)
	w.writeBits(s.PlaySeconds, 32)
	w.align()

	writePersistData(w, s.PersistData)
	writeSaveVectors(w, s.SaveVectors)
	writeSettings(w, s.Settings)
	writeOptGameData(w, s.AutoSaveSlot)
	for _, slot := range s.ManualSaveSlots {
		writeOptGameData(w, slot)
	}
	return w.bytes()
}

func readPersistData(r *bitReader) (PersistData, error) {
	count, err := r.readBits(16)
	if err != nil {
		return PersistData{}, err
	}
	values := make([]int16, count)
	for i := range values {
		v, err := r.readBits(16)
		if err != nil {
			return PersistData{}, err
		}
		values[i] = int16(v)
	}
	return PersistData{values: values}, nil
}

func writePersistData(w *bitWriter, p PersistData) {
	w.writeBits(uint32(len(p.values)), 16)
	for _, v := range p.values {
		w.writeBits(uint32(uint16(v)), 16)
	}
}

func readUint32Vec(r *bitReader, elemBits int) ([]uint32, error) {
	count, err := r.readBits(16)
	if err != nil {
		return nil, err
	}
	values := make([]uint32, count)
	for i := range values {
		if values[i], err = r.readBits(elemBits); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func writeUint32Vec(w *bitWriter, values []uint32, elemBits int) {
	w.writeBits(uint32(len(values)), 16)
	for _, v := range values {
		w.writeBits(v, elemBits)
	}
}

func readSaveVectors(r *bitReader) (SaveVectors, error) {
	r.align()

	var v SaveVectors
	var err error
	if v.SeenMessagesMask, err = readUint32Vec(r, 32); err != nil {
		return v, err
	}
	if v.Vec2, err = readUint32Vec(r, 32); err != nil {
		return v, err
	}
	count, err := r.readBits(16)
	if err != nil {
		return v, err
	}
	v.Vec3 = make([]uint8, count)
	for i := range v.Vec3 {
		nibble, err := r.readBits(4)
		if err != nil {
			return v, err
		}
		v.Vec3[i] = uint8(nibble)
	}
	if v.Vec4, err = readUint32Vec(r, 32); err != nil {
		return v, err
	}
	if v.Vec5, err = readUint32Vec(r, 32); err != nil {
		return v, err
	}
	v.Vec6, err = readUint32Vec(r, 32)
	return v, err
}

func writeSaveVectors(w *bitWriter, v SaveVectors) {
	w.align()
	writeUint32Vec(w, v.SeenMessagesMask, 32)
	writeUint32Vec(w, v.Vec2, 32)
	w.writeBits(uint32(len(v.Vec3)), 16)
	for _, nibble := range v.Vec3 {
		w.writeBits(uint32(nibble), 4)
	}
	writeUint32Vec(w, v.Vec4, 32)
	writeUint32Vec(w, v.Vec5, 32)
	writeUint32Vec(w, v.Vec6, 32)
}

func readSettings(r *bitReader) (Settings, error) {
	var s Settings
	fields := []struct {
		bits int
		set  func(uint32)
	}{
		{7, func(v uint32) { s.BGMVolume = uint8(v) }},
		{7, func(v uint32) { s.SFXVolume = uint8(v) }},
		{7, func(v uint32) { s.VoiceVolume = uint8(v) }},
		{7, func(v uint32) { s.SystemVolume = uint8(v) }},
		{1, func(v uint32) { s.VoiceFocus = v != 0 }},
		{1, func(v uint32) { s.VoicePanapot = v != 0 }},
		{1, func(v uint32) { s.V6 = v != 0 }},
		{2, func(v uint32) { s.V7 = uint8(v) }},
		{2, func(v uint32) { s.V8 = uint8(v) }},
		{7, func(v uint32) { s.MessageSpeed = uint8(v) }},
		{7, func(v uint32) { s.SkipSpeed = uint8(v) }},
		{1, func(v uint32) { s.DisallowSkipUnread = v != 0 }},
		{1, func(v uint32) { s.V12 = v != 0 }},
		{7, func(v uint32) { s.MessageWindowAlpha = uint8(v) }},
		{1, func(v uint32) { s.ShowRouteNavi = v != 0 }},
		{1, func(v uint32) { s.V15 = v != 0 }},
		{1, func(v uint32) { s.ShowTouchEffect = v != 0 }},
		{1, func(v uint32) { s.ShowSceneTitle = v != 0 }},
		{1, func(v uint32) { s.ShowSongTitle = v != 0 }},
		{32, func(v uint32) { s.V19 = v }},
	}
	for _, f := range fields {
		v, err := r.readBits(f.bits)
		if err != nil {
			return s, err
		}
		f.set(v)
	}
	return s, nil
}

func writeSettings(w *bitWriter, s Settings) {
	w.writeBits(uint32(s.BGMVolume), 7)
	w.writeBits(uint32(s.SFXVolume), 7)
	w.writeBits(uint32(s.VoiceVolume), 7)
	w.writeBits(uint32(s.SystemVolume), 7)
	w.writeBool(s.VoiceFocus)
	w.writeBool(s.VoicePanapot)
	w.writeBool(s.V6)
	w.writeBits(uint32(s.V7), 2)
	w.writeBits(uint32(s.V8), 2)
	w.writeBits(uint32(s.MessageSpeed), 7)
	w.writeBits(uint32(s.SkipSpeed), 7)
	w.writeBool(s.DisallowSkipUnread)
	w.writeBool(s.V12)
	w.writeBits(uint32(s.MessageWindowAlpha), 7)
	w.writeBool(s.ShowRouteNavi)
	w.writeBool(s.V15)
	w.writeBool(s.ShowTouchEffect)
	w.writeBool(s.ShowSceneTitle)
	w.writeBool(s.ShowSongTitle)
	w.writeBits(s.V19, 32)
}

func readOptGameData(r *bitReader) (*GameData, error) {
	present, err := r.readBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return readGameData(r)
}

func writeOptGameData(w *bitWriter, g *GameData) {
	w.writeBool(g != nil)
	if g != nil {
		writeGameData(w, g)
	}
}

func readGameData(r *bitReader) (*GameData, error) {
	dateTime, err := readDateTime(r)
	if err != nil {
		return nil, err
	}
	extra, err := r.readBits(1)
	if err != nil {
		return nil, err
	}
	if extra != 0 {
		return nil, fmt.Errorf("unexpected save slot extra data")
	}

	var g GameData
	g.DateTime = dateTime
	scenarioID, err := r.readBits(32)
	if err != nil {
		return nil, err
	}
	g.Entry.ScenarioID = int32(scenarioID)
	if g.Entry.RandomSeed, err = r.readBits(32); err != nil {
		return nil, err
	}
	if g.Entry.SavePosition, err = r.readBits(32); err != nil {
		return nil, err
	}
	count, err := r.readBits(32)
	if err != nil {
		return nil, err
	}
	g.Entry.SelectionData = make([]uint8, count)
	for i := range g.Entry.SelectionData {
		v, err := r.readBits(8)
		if err != nil {
			return nil, err
		}
		g.Entry.SelectionData[i] = uint8(v)
	}
	return &g, nil
}

func writeGameData(w *bitWriter, g *GameData) {
	writeDateTime(w, g.DateTime)
	w.writeBits(0, 1)
	w.writeBits(uint32(g.Entry.ScenarioID), 32)
	w.writeBits(g.Entry.RandomSeed, 32)
	w.writeBits(g.Entry.SavePosition, 32)
	w.writeBits(uint32(len(g.Entry.SelectionData)), 32)
	for _, v := range g.Entry.SelectionData {
		w.writeBits(uint32(v), 8)
	}
}

// Timestamps are packed into 38 bits, from a 12-bit year down to a
// 6-bit second.
func readDateTime(r *bitReader) (time.Time, error) {
	year, err := r.readBits(12)
	if err != nil {
		return time.Time{}, err
	}
	month, err := r.readBits(4)
	if err != nil {
		return time.Time{}, err
	}
	day, err := r.readBits(5)
	if err != nil {
		return time.Time{}, err
	}
	hour, err := r.readBits(5)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := r.readBits(6)
	if err != nil {
		return time.Time{}, err
	}
	second, err := r.readBits(6)
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(int(year), time.Month(month), int(day),
		int(hour), int(minute), int(second), 0, time.UTC)
	// time.Date normalizes out-of-range components, a corrupt stream
	// does not round-trip
	if t.Year() != int(year) || t.Month() != time.Month(month) || t.Day() != int(day) {
		return time.Time{}, fmt.Errorf("invalid save timestamp %d-%d-%d", year, month, day)
	}
	return t, nil
}

func writeDateTime(w *bitWriter, t time.Time) {
	w.writeBits(uint32(t.Year()), 12)
	w.writeBits(uint32(t.Month()), 4)
	w.writeBits(uint32(t.Day()), 5)
	w.writeBits(uint32(t.Hour()), 5)
	w.writeBits(uint32(t.Minute()), 6)
	w.writeBits(uint32(t.Second()), 6)
}
