package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DCNick3/shin-sub001/pkg/fileutil"
	"github.com/DCNick3/shin-sub001/pkg/format/rom"
)

func runRom(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: rom list|extract <archive.rom> [output-dir]")
	}
	action, archivePath := args[0], args[1]

	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	archive, err := rom.Open(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", archivePath, err)
	}

	switch action {
	case "list":
		return romList(archive)
	case "extract":
		outDir := "."
		if len(args) > 2 {
			outDir = args[2]
		}
		return romExtract(archive, outDir)
	default:
		return fmt.Errorf("unknown rom action %q", action)
	}
}

func romList(archive *rom.Archive) error {
	return archive.Walk(func(path string, file *rom.File) error {
		fmt.Printf("%10d  %s\n", file.Size, path)
		return nil
	})
}

func romExtract(archive *rom.Archive, outDir string) error {
	count := 0
	err := archive.Walk(func(path string, file *rom.File) error {
		dest := filepath.Join(outDir, filepath.FromSlash(strings.TrimPrefix(path, "/")))
		if err := fileutil.EnsureDir(filepath.Dir(dest)); err != nil {
			return err
		}
		r, err := archive.Open(path)
		if err != nil {
			return err
		}
		out, err := os.Create(dest)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, r); err != nil {
			out.Close()
			return fmt.Errorf("extracting %s: %w", path, err)
		}
		if err := out.Close(); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("extracted %d files to %s\n", count, outDir)
	return nil
}
