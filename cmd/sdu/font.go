package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"github.com/DCNick3/shin-sub001/pkg/fileutil"
	"github.com/DCNick3/shin-sub001/pkg/format/font"
)

func runFont(args []string) error {
	if len(args) < 3 || args[0] != "decode" {
		return fmt.Errorf("usage: font decode [--mips] <file.fnt> <output-dir>")
	}
	args = args[1:]
	withMips := false
	if args[0] == "--mips" {
		withMips = true
		args = args[1:]
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: font decode [--mips] <file.fnt> <output-dir>")
	}
	inPath, outDir := args[0], args[1]

	f, err := loadFont(inPath)
	if err != nil {
		return err
	}
	if err := fileutil.EnsureDir(outDir); err != nil {
		return err
	}

	fmt.Printf("%s: ascent %d descent %d, %d glyphs\n",
		inPath, f.Ascent(), f.Descent(), f.GlyphCount())

	for id := 0; id < f.GlyphCount(); id++ {
		lazy, err := f.Glyph(font.GlyphID(id))
		if err != nil {
			return fmt.Errorf("glyph %d: %w", id, err)
		}
		glyph, err := lazy.Decompress()
		if err != nil {
			return fmt.Errorf("glyph %d: %w", id, err)
		}

		var img image.Image = glyph.Mips[0]
		if withMips {
			img = mipStrip(glyph)
		}
		out, err := os.Create(filepath.Join(outDir, fmt.Sprintf("glyph_%04d.png", id)))
		if err != nil {
			return err
		}
		if err := png.Encode(out, img); err != nil {
			out.Close()
			return fmt.Errorf("glyph %d: %w", id, err)
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
	fmt.Printf("wrote %d glyph bitmaps to %s\n", f.GlyphCount(), outDir)
	return nil
}

// mipStrip lays the four mip bitmaps side by side, the smaller levels
// upscaled to the base size so filtering artifacts stand out.
func mipStrip(glyph *font.Glyph) image.Image {
	base := glyph.Mips[0].Bounds()
	strip := image.NewGray(image.Rect(0, 0, base.Dx()*font.MipLevels, base.Dy()))
	for level, mip := range glyph.Mips {
		cell := image.Rect(level*base.Dx(), 0, (level+1)*base.Dx(), base.Dy())
		xdraw.NearestNeighbor.Scale(strip, cell, mip, mip.Bounds(), xdraw.Src, nil)
	}
	return strip
}
