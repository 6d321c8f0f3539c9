package main

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/DCNick3/shin-sub001/pkg/fileutil"
	"github.com/DCNick3/shin-sub001/pkg/format/bustup"
	"github.com/DCNick3/shin-sub001/pkg/format/picture"
)

func runBustup(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: bustup decode|bake <file.bup> <output-dir>")
	}
	action, inPath, outDir := args[0], args[1], args[2]

	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	bup, err := bustup.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", inPath, err)
	}
	if err := fileutil.EnsureDir(outDir); err != nil {
		return err
	}

	switch action {
	case "decode":
		return bustupDecode(bup, outDir)
	case "bake":
		return bustupBake(bup, outDir)
	default:
		return fmt.Errorf("unknown bustup action %q", action)
	}
}

// bustupDecode writes the base image and every overlay chunk as
// separate files.
func bustupDecode(bup *bustup.Bustup, outDir string) error {
	if err := writePng(filepath.Join(outDir, "base.png"), bup.Image); err != nil {
		return err
	}
	type part struct {
		name  string
		chunk *picture.Chunk
	}
	written := 1
	for _, e := range bup.Expressions {
		parts := []part{
			{"face1", e.Face1},
			{"face2", e.Face2},
		}
		for i := range e.Mouths {
			parts = append(parts, part{fmt.Sprintf("mouth%d", i), &e.Mouths[i]})
		}
		for i := range e.Eyes {
			parts = append(parts, part{fmt.Sprintf("eyes%d", i), &e.Eyes[i]})
		}
		for _, p := range parts {
			if p.chunk == nil || p.chunk.Image == nil {
				continue
			}
			name := fmt.Sprintf("%s_%s.png", e.Name, p.name)
			if err := writePng(filepath.Join(outDir, name), p.chunk.Image); err != nil {
				return err
			}
			written++
		}
	}
	fmt.Printf("wrote %d images to %s\n", written, outDir)
	return nil
}

// bustupBake composites one full image per expression: base, both face
// layers, the first mouth and the first eyes variant.
func bustupBake(bup *bustup.Bustup, outDir string) error {
	for _, e := range bup.Expressions {
		baked := image.NewNRGBA(bup.Image.Bounds())
		draw.Draw(baked, baked.Bounds(), bup.Image, bup.Image.Bounds().Min, draw.Src)

		overlays := []*picture.Chunk{e.Face1, e.Face2}
		if len(e.Mouths) > 0 {
			overlays = append(overlays, &e.Mouths[0])
		}
		if len(e.Eyes) > 0 {
			overlays = append(overlays, &e.Eyes[0])
		}
		for _, chunk := range overlays {
			if chunk == nil || chunk.Image == nil {
				continue
			}
			at := image.Pt(chunk.OffsetX, chunk.OffsetY)
			draw.Draw(baked, chunk.Image.Rect.Add(at), chunk.Image, chunk.Image.Rect.Min, draw.Over)
		}

		if err := writePng(filepath.Join(outDir, e.Name+".png"), baked); err != nil {
			return err
		}
	}
	fmt.Printf("baked %d expressions to %s\n", len(bup.Expressions), outDir)
	return nil
}

func writePng(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
