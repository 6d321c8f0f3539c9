// Command sdu inspects and extracts the game's data formats from the
// command line.
package main

import (
	"os"

	"github.com/DCNick3/shin-sub001/pkg/cli"
)

func main() {
	commands := []cli.Command{
		{
			Name:    "rom",
			Summary: "list or extract a ROM archive",
			Usage:   "list|extract <archive.rom> [output-dir]",
			Run:     runRom,
		},
		{
			Name:    "scenario",
			Summary: "inspect a scenario file",
			Usage:   "dump-info|trace|char-frequency|test-layouter <main.snr> ...",
			Run:     runScenario,
		},
		{
			Name:    "bustup",
			Summary: "decode or bake bustup sprites to PNG",
			Usage:   "decode|bake <file.bup> <output-dir>",
			Run:     runBustup,
		},
		{
			Name:    "picture",
			Summary: "decode a picture to PNG",
			Usage:   "decode <file.pic> <output.png>",
			Run:     runPicture,
		},
		{
			Name:    "font",
			Summary: "decode font glyphs to PNG",
			Usage:   "decode <file.fnt> <output-dir>",
			Run:     runFont,
		},
		{
			Name:    "savedata",
			Summary: "inspect a save file",
			Usage:   "inspect <save.bin>",
			Run:     runSavedata,
		},
	}
	os.Exit(cli.Dispatch("sdu", commands, os.Args[1:]))
}
