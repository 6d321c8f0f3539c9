// Package font decodes the FNT4 bitmap font format. A font maps every
// BMP code point to a glyph; glyphs carry metrics and four mip levels
// of alpha coverage. Glyph bitmaps stay compressed until first use,
// since a typical session touches a small fraction of them.
package font

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/DCNick3/shin-sub001/pkg/format/lz77"
)

const (
	magic   = "FNT4"
	version = 1

	headerSize      = 16
	glyphHeaderSize = 10

	characterCount = 0x10000

	// MipLevels is the number of precomputed glyph bitmap scales.
	MipLevels = 4
)

// GlyphID identifies a glyph within one font. IDs are dense: shared
// glyph data gets a single id no matter how many characters map to it.
type GlyphID uint32

// GlyphInfo is the metrics of one glyph, in texture pixels.
// Terms follow the FreeType glyph conventions.
type GlyphInfo struct {
	// Pen-to-bitmap distances.
	BearingX int8
	BearingY int8
	// Pen movement after drawing.
	AdvanceWidth uint8
	// Bitmap extent without the power-of-two padding.
	ActualWidth  uint8
	ActualHeight uint8
	// Padded bitmap extent.
	TextureWidth  uint8
	TextureHeight uint8
}

// Glyph is a decompressed glyph: metrics plus MipLevels alpha bitmaps,
// level i at 1/2^i scale.
type Glyph struct {
	Info GlyphInfo
	Mips [MipLevels]*image.Gray
}

// LazyGlyph defers bitmap decompression until Decompress is called.
type LazyGlyph struct {
	Info       GlyphInfo
	compressed bool
	data       []byte
}

// Decompress decodes the four mip bitmaps.
func (g *LazyGlyph) Decompress() (*Glyph, error) {
	data := g.data
	if g.compressed {
		out, err := lz77.Decompress(nil, data, 10)
		if err != nil {
			return nil, fmt.Errorf("decompressing glyph: %w", err)
		}
		data = out
	}

	glyph := &Glyph{Info: g.Info}
	width := int(g.Info.TextureWidth)
	height := int(g.Info.TextureHeight)
	for level := 0; level < MipLevels; level++ {
		size := width * height
		if len(data) < size {
			return nil, fmt.Errorf("glyph mip %d truncated: %d bytes left, want %d", level, len(data), size)
		}
		img := image.NewGray(image.Rect(0, 0, width, height))
		copy(img.Pix, data[:size])
		data = data[size:]
		glyph.Mips[level] = img
		width /= 2
		height /= 2
	}
	return glyph, nil
}

// Font is a parsed FNT4 file with lazily decompressed glyphs.
type Font struct {
	ascent  uint16
	descent uint16
	// Character code point to dense glyph id.
	characters [characterCount]GlyphID
	glyphs     []*LazyGlyph
}

// Ascent is the distance between the baseline and the top of the font.
func (f *Font) Ascent() int { return int(f.ascent) }

// Descent is the distance between the baseline and the bottom of the
// font.
func (f *Font) Descent() int { return int(f.descent) }

// LineHeight is the total height of a text line.
func (f *Font) LineHeight() int { return int(f.ascent) + int(f.descent) }

// GlyphCount is the number of unique glyphs.
func (f *Font) GlyphCount() int { return len(f.glyphs) }

// GlyphIDFor maps a BMP code point to its glyph id.
func (f *Font) GlyphIDFor(character uint16) GlyphID {
	return f.characters[character]
}

// Glyph returns a glyph by id.
func (f *Font) Glyph(id GlyphID) (*LazyGlyph, error) {
	if int(id) >= len(f.glyphs) {
		return nil, fmt.Errorf("glyph id %d out of range", id)
	}
	return f.glyphs[id], nil
}

// GlyphFor returns the glyph for a BMP code point.
func (f *Font) GlyphFor(character uint16) *LazyGlyph {
	return f.glyphs[f.characters[character]]
}

func parseGlyph(data []byte, offset uint32) (*LazyGlyph, error) {
	if int(offset)+glyphHeaderSize > len(data) {
		return nil, fmt.Errorf("glyph header at %#x outside the file", offset)
	}
	h := data[offset:]
	if h[5] != 0 {
		return nil, fmt.Errorf("glyph at %#x: unused metric byte is %d", offset, h[5])
	}
	info := GlyphInfo{
		BearingX:      int8(h[0]),
		BearingY:      int8(h[1]),
		ActualWidth:   h[2],
		ActualHeight:  h[3],
		AdvanceWidth:  h[4],
		TextureWidth:  h[6],
		TextureHeight: h[7],
	}
	compressedSize := int(binary.LittleEndian.Uint16(h[8:]))

	dataStart := int(offset) + glyphHeaderSize
	size := compressedSize
	compressed := true
	if size == 0 {
		// Stored raw; all four mips follow, the first one dominating
		// the size.
		w, ht := int(info.TextureWidth), int(info.TextureHeight)
		for level := 0; level < MipLevels; level++ {
			size += w * ht
			w /= 2
			ht /= 2
		}
		compressed = false
	}
	if dataStart+size > len(data) {
		return nil, fmt.Errorf("glyph data at %#x outside the file", offset)
	}
	return &LazyGlyph{
		Info:       info,
		compressed: compressed,
		data:       data[dataStart : dataStart+size],
	}, nil
}

// Decode parses an FNT4 file. Glyph bitmaps are referenced, not
// copied, so data must stay alive as long as the font.
func Decode(data []byte) (*Font, error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return nil, fmt.Errorf("not an FNT4 file")
	}
	le := binary.LittleEndian
	if v := le.Uint32(data[4:]); v != version {
		return nil, fmt.Errorf("unsupported font version %d", v)
	}
	if size := le.Uint32(data[8:]); size != uint32(len(data)) {
		return nil, fmt.Errorf("font size mismatch: header says %d, got %d", size, len(data))
	}

	f := &Font{
		ascent:  le.Uint16(data[12:]),
		descent: le.Uint16(data[14:]),
	}

	if len(data) < headerSize+characterCount*4 {
		return nil, fmt.Errorf("font character table truncated")
	}

	// Characters sharing a glyph offset share a dense glyph id.
	glyphIDs := make(map[uint32]GlyphID)
	for c := 0; c < characterCount; c++ {
		offset := le.Uint32(data[headerSize+c*4:])
		id, seen := glyphIDs[offset]
		if !seen {
			id = GlyphID(len(f.glyphs))
			glyphIDs[offset] = id
			glyph, err := parseGlyph(data, offset)
			if err != nil {
				return nil, fmt.Errorf("character %#x: %w", c, err)
			}
			f.glyphs = append(f.glyphs, glyph)
		}
		f.characters[c] = id
	}
	return f, nil
}
