package layer

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/DCNick3/shin-sub001/pkg/format/font"
	"github.com/DCNick3/shin-sub001/pkg/layout"
	"github.com/DCNick3/shin-sub001/pkg/render"
)

// GpuGlyph is one glyph bitmap uploaded to the GPU.
type GpuGlyph struct {
	info    font.GlyphInfo
	texture *render.Texture
}

func (g *GpuGlyph) Info() font.GlyphInfo         { return g.info }
func (g *GpuGlyph) Source() render.TextureSource { return g.texture.Source() }

// GpuFont uploads glyphs on demand, cached by glyph id. Characters
// sharing glyph data share the texture.
type GpuFont struct {
	font   *font.Font
	device hal.Device
	queue  hal.Queue
	glyphs map[font.GlyphID]*GpuGlyph
	label  string
}

func NewGpuFont(device hal.Device, queue hal.Queue, f *font.Font, label string) *GpuFont {
	return &GpuFont{
		font:   f,
		device: device,
		queue:  queue,
		glyphs: make(map[font.GlyphID]*GpuGlyph),
		label:  label,
	}
}

// Metrics exposes the font to the text layouter.
func (f *GpuFont) Metrics() layout.FontMetrics {
	return layout.Metrics{Font: f.font}
}

// Glyph returns the uploaded glyph for a codepoint, uploading it on
// first use.
func (f *GpuFont) Glyph(codepoint rune) (*GpuGlyph, error) {
	if codepoint < 0 || codepoint > 0xffff {
		codepoint = '?'
	}
	id := f.font.GlyphIDFor(uint16(codepoint))
	if g, ok := f.glyphs[id]; ok {
		return g, nil
	}

	lazy, err := f.font.Glyph(id)
	if err != nil {
		return nil, err
	}
	glyph, err := lazy.Decompress()
	if err != nil {
		return nil, fmt.Errorf("glyph %#x: %w", codepoint, err)
	}

	mip := glyph.Mips[0]
	tex, err := render.NewTextureFromRGBA(f.device, f.queue,
		uint32(mip.Rect.Dx()), uint32(mip.Rect.Dy()),
		grayToRGBA(mip), fmt.Sprintf("%s/glyph%d", f.label, id))
	if err != nil {
		return nil, err
	}

	g := &GpuGlyph{info: glyph.Info, texture: tex}
	f.glyphs[id] = g
	return g, nil
}

// Destroy frees every uploaded glyph texture.
func (f *GpuFont) Destroy() {
	for _, g := range f.glyphs {
		g.texture.Destroy(f.device)
	}
	clear(f.glyphs)
}
