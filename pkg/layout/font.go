package layout

import "github.com/DCNick3/shin-sub001/pkg/format/font"

// FontMetrics is what the layouter needs from a font: vertical metrics
// and per-glyph advances. The full texture data stays untouched.
type FontMetrics interface {
	Ascent() int
	Descent() int
	GlyphInfo(codepoint rune) (font.GlyphInfo, bool)
}

// Metrics adapts a decoded font. Codepoints outside the BMP have no
// glyph table entry.
type Metrics struct {
	Font *font.Font
}

func (m Metrics) Ascent() int  { return m.Font.Ascent() }
func (m Metrics) Descent() int { return m.Font.Descent() }

func (m Metrics) GlyphInfo(codepoint rune) (font.GlyphInfo, bool) {
	if codepoint < 0 || codepoint > 0xffff {
		return font.GlyphInfo{}, false
	}
	return m.Font.GlyphFor(uint16(codepoint)).Info, true
}
