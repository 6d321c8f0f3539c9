package scenario

import (
	"fmt"
	"strings"

	"github.com/DCNick3/shin-sub001/pkg/format/sjis"
)

// The scenario header carries pointers to typed info tables mapping
// data ids used by commands to asset names.

// MaskInfoItem names a transition mask.
type MaskInfoItem struct {
	Name string
}

// Path returns the mask's location inside the ROM.
func (m MaskInfoItem) Path() string {
	return fmt.Sprintf("/mask/%s.msk", strings.ToLower(m.Name))
}

// PictureInfoItem names a background picture.
type PictureInfoItem struct {
	Name string
	// Unlock id of the picture in the CG gallery, -1 when not listed.
	LinkedCgID int16
}

// Path returns the picture's location inside the ROM.
func (p PictureInfoItem) Path() string {
	return fmt.Sprintf("/picture/%s.pic", strings.ToLower(p.Name))
}

// BustupInfoItem names a character sprite with an emotion.
type BustupInfoItem struct {
	Name    string
	Emotion string
	// Character id, presumably for lipsync.
	CharacterID uint16
}

// Path returns the bustup's location inside the ROM.
func (b BustupInfoItem) Path() string {
	return fmt.Sprintf("/bustup/%s.bup", strings.ToLower(b.Name))
}

// BgmInfoItem names a music track.
type BgmInfoItem struct {
	Name        string
	DisplayName string
	// Unlock id of the track in the music gallery.
	LinkedBgmID uint16
}

// Path returns the track's location inside the ROM.
func (b BgmInfoItem) Path() string {
	return fmt.Sprintf("/bgm/%s.nxa", strings.ToLower(b.Name))
}

// SeInfoItem names a sound effect.
type SeInfoItem struct {
	Name string
}

// Path returns the sound effect's location inside the ROM.
func (s SeInfoItem) Path() string {
	return fmt.Sprintf("/se/%s.nxa", strings.ToLower(s.Name))
}

// MovieInfoItem names a movie.
type MovieInfoItem struct {
	Name string
	Unk1 uint16
	Unk2 uint16
	Unk3 int16
}

// VoiceMappingInfoItem maps a voice file name prefix to character ids.
type VoiceMappingInfoItem struct {
	NamePrefix   string
	CharacterIDs []uint8
}

// Section64InfoItem is an unidentified table entry.
type Section64InfoItem struct {
	Unk1 string
	Unk2 []uint16
}

// Section68InfoItem is an unidentified table entry.
type Section68InfoItem struct {
	Unk1 uint16
	Unk2 uint16
	Unk3 uint16
}

// TipsInfoItem describes one TIPS gallery entry.
type TipsInfoItem struct {
	Unk1    uint8
	Unk2    uint16
	Title   string
	Content string
}

// InfoTables holds every table of the scenario header.
type InfoTables struct {
	MaskInfo         []MaskInfoItem
	PictureInfo      []PictureInfoItem
	BustupInfo       []BustupInfoItem
	BgmInfo          []BgmInfoItem
	SeInfo           []SeInfoItem
	MovieInfo        []MovieInfoItem
	VoiceMappingInfo []VoiceMappingInfoItem
	Section64Info    []Section64InfoItem
	Section68Info    []Section68InfoItem

	// Unparsed sections.
	Offset72 uint32
	Offset76 uint32
	Offset80 uint32

	TipsInfo []TipsInfoItem
}

// tableAt positions a fresh cursor at a table pointer and reads the
// element count, optionally skipping the byte-size word sized tables
// carry.
func tableAt(data []byte, offset uint32, sized bool) (*Reader, uint32, error) {
	r := NewReader(data, CodeAddress(offset))
	if sized {
		if _, err := r.U32(); err != nil {
			return nil, 0, err
		}
	}
	count, err := r.U32()
	if err != nil {
		return nil, 0, err
	}
	return r, count, nil
}

func readInfoTables(data []byte, r *Reader) (InfoTables, error) {
	var tables InfoTables

	// The header stores one u32 pointer per table, in declaration
	// order, with three not-yet-understood raw offsets interleaved.
	var offsets [13]uint32
	for i := range offsets {
		v, err := r.U32()
		if err != nil {
			return tables, fmt.Errorf("reading info table pointer %d: %w", i, err)
		}
		offsets[i] = v
	}
	tables.Offset72 = offsets[9]
	tables.Offset76 = offsets[10]
	tables.Offset80 = offsets[11]

	type loader struct {
		name   string
		offset uint32
		sized  bool
		read   func(*Reader, uint32) error
	}
	loaders := []loader{
		{"mask", offsets[0], true, func(r *Reader, n uint32) error {
			tables.MaskInfo = make([]MaskInfoItem, n)
			for i := range tables.MaskInfo {
				name, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				tables.MaskInfo[i] = MaskInfoItem{Name: name}
			}
			return nil
		}},
		{"picture", offsets[1], true, func(r *Reader, n uint32) error {
			tables.PictureInfo = make([]PictureInfoItem, n)
			for i := range tables.PictureInfo {
				name, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				id, err := r.U16()
				if err != nil {
					return err
				}
				tables.PictureInfo[i] = PictureInfoItem{Name: name, LinkedCgID: int16(id)}
			}
			return nil
		}},
		{"bustup", offsets[2], true, func(r *Reader, n uint32) error {
			tables.BustupInfo = make([]BustupInfoItem, n)
			for i := range tables.BustupInfo {
				name, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				emotion, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				charID, err := r.U16()
				if err != nil {
					return err
				}
				tables.BustupInfo[i] = BustupInfoItem{Name: name, Emotion: emotion, CharacterID: charID}
			}
			return nil
		}},
		{"bgm", offsets[3], true, func(r *Reader, n uint32) error {
			tables.BgmInfo = make([]BgmInfoItem, n)
			for i := range tables.BgmInfo {
				name, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				display, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				id, err := r.U16()
				if err != nil {
					return err
				}
				tables.BgmInfo[i] = BgmInfoItem{Name: name, DisplayName: display, LinkedBgmID: id}
			}
			return nil
		}},
		{"se", offsets[4], true, func(r *Reader, n uint32) error {
			tables.SeInfo = make([]SeInfoItem, n)
			for i := range tables.SeInfo {
				name, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				tables.SeInfo[i] = SeInfoItem{Name: name}
			}
			return nil
		}},
		{"movie", offsets[5], true, func(r *Reader, n uint32) error {
			tables.MovieInfo = make([]MovieInfoItem, n)
			for i := range tables.MovieInfo {
				name, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				u1, err1 := r.U16()
				u2, err2 := r.U16()
				u3, err3 := r.U16()
				if err := firstErr(err1, err2, err3); err != nil {
					return err
				}
				tables.MovieInfo[i] = MovieInfoItem{Name: name, Unk1: u1, Unk2: u2, Unk3: int16(u3)}
			}
			return nil
		}},
		{"voice mapping", offsets[6], true, func(r *Reader, n uint32) error {
			tables.VoiceMappingInfo = make([]VoiceMappingInfoItem, n)
			for i := range tables.VoiceMappingInfo {
				prefix, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				count, err := r.U8()
				if err != nil {
					return err
				}
				ids := make([]uint8, count)
				for j := range ids {
					if ids[j], err = r.U8(); err != nil {
						return err
					}
				}
				tables.VoiceMappingInfo[i] = VoiceMappingInfoItem{NamePrefix: prefix, CharacterIDs: ids}
			}
			return nil
		}},
		{"section64", offsets[7], false, func(r *Reader, n uint32) error {
			tables.Section64Info = make([]Section64InfoItem, n)
			for i := range tables.Section64Info {
				s, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				count, err := r.U16()
				if err != nil {
					return err
				}
				values := make([]uint16, count)
				for j := range values {
					if values[j], err = r.U16(); err != nil {
						return err
					}
				}
				tables.Section64Info[i] = Section64InfoItem{Unk1: s, Unk2: values}
			}
			return nil
		}},
		{"section68", offsets[8], false, func(r *Reader, n uint32) error {
			tables.Section68Info = make([]Section68InfoItem, n)
			for i := range tables.Section68Info {
				u1, err1 := r.U16()
				u2, err2 := r.U16()
				u3, err3 := r.U16()
				if err := firstErr(err1, err2, err3); err != nil {
					return err
				}
				tables.Section68Info[i] = Section68InfoItem{Unk1: u1, Unk2: u2, Unk3: u3}
			}
			return nil
		}},
		{"tips", offsets[12], true, func(r *Reader, n uint32) error {
			tables.TipsInfo = make([]TipsInfoItem, n)
			for i := range tables.TipsInfo {
				u1, err := r.U8()
				if err != nil {
					return err
				}
				u2, err := r.U16()
				if err != nil {
					return err
				}
				title, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				content, err := sjis.ReadU16String(r)
				if err != nil {
					return err
				}
				tables.TipsInfo[i] = TipsInfoItem{Unk1: u1, Unk2: u2, Title: title, Content: content}
			}
			return nil
		}},
	}

	for _, l := range loaders {
		tr, count, err := tableAt(data, l.offset, l.sized)
		if err != nil {
			return tables, fmt.Errorf("reading %s info table: %w", l.name, err)
		}
		if err := l.read(tr, count); err != nil {
			return tables, fmt.Errorf("reading %s info table: %w", l.name, err)
		}
	}
	return tables, nil
}
