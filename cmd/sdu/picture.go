package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/DCNick3/shin-sub001/pkg/format/picture"
)

func runPicture(args []string) error {
	if len(args) < 3 || args[0] != "decode" {
		return fmt.Errorf("usage: picture decode <file.pic> <output.png>")
	}
	inPath, outPath := args[1], args[2]

	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	pic, err := picture.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", inPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := png.Encode(out, pic.Image); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	bounds := pic.Image.Bounds()
	fmt.Printf("%s: %dx%d origin (%d, %d) id %d\n",
		outPath, bounds.Dx(), bounds.Dy(), pic.OriginX, pic.OriginY, pic.PictureID)
	return nil
}
