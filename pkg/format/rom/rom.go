// Package rom reads the ROM2 archive container.
//
// The whole index is parsed up front into an in-memory tree; file
// bodies are then served with stateless ReadAt calls, so a single
// Archive may be shared by concurrent readers.
package rom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

const (
	magic                     = "ROM2"
	version                   = 0x10001
	headerSize                = 32
	directoryOffsetMultiplier = 16
)

// ErrNotFound reports a path absent from the archive index.
var ErrNotFound = errors.New("rom: entry not found")

// File is one archived file body.
type File struct {
	Name   string
	Offset int64
	Size   uint32
}

// Directory is one level of the archive index.
type Directory struct {
	Name    string
	Files   map[string]*File
	Subdirs map[string]*Directory
}

// Archive is a parsed ROM2 index over a random-access reader.
type Archive struct {
	r    io.ReaderAt
	root *Directory
}

// Open parses the archive index from r.
func Open(r io.ReaderAt) (*Archive, error) {
	var header [headerSize]byte
	if _, err := r.ReadAt(header[:], 0); err != nil {
		return nil, fmt.Errorf("reading rom header: %w", err)
	}
	if string(header[:4]) != magic {
		return nil, fmt.Errorf("rom: bad magic %q", header[:4])
	}
	ver := binary.LittleEndian.Uint32(header[4:])
	if ver != version {
		return nil, fmt.Errorf("rom: unknown version 0x%08x", ver)
	}
	indexLen := binary.LittleEndian.Uint32(header[8:])
	offsetMultiplier := binary.LittleEndian.Uint32(header[12:])

	index := make([]byte, indexLen)
	if _, err := r.ReadAt(index, headerSize); err != nil {
		return nil, fmt.Errorf("reading rom index: %w", err)
	}

	p := &indexParser{
		index:            index,
		offsetMultiplier: int64(offsetMultiplier),
	}
	root, err := p.directory("", 0)
	if err != nil {
		return nil, err
	}

	return &Archive{r: r, root: root}, nil
}

type indexParser struct {
	index            []byte
	offsetMultiplier int64
}

func (p *indexParser) directory(name string, offset int64) (*Directory, error) {
	if offset+4 > int64(len(p.index)) {
		return nil, fmt.Errorf("rom: directory offset 0x%x out of index", offset)
	}
	count := binary.LittleEndian.Uint32(p.index[offset:])
	dir := &Directory{
		Name:    name,
		Files:   make(map[string]*File),
		Subdirs: make(map[string]*Directory),
	}

	entryBase := offset + 4
	for i := int64(0); i < int64(count); i++ {
		pos := entryBase + i*12
		if pos+12 > int64(len(p.index)) {
			return nil, fmt.Errorf("rom: directory at 0x%x truncated", offset)
		}
		dirAndName := binary.LittleEndian.Uint32(p.index[pos:])
		dataOffset := binary.LittleEndian.Uint32(p.index[pos+4:])
		dataSize := binary.LittleEndian.Uint32(p.index[pos+8:])

		isDirectory := dirAndName>>31 != 0
		nameOffset := offset + int64(dirAndName&0x7fffffff)
		entryName, err := p.cString(nameOffset)
		if err != nil {
			return nil, err
		}
		if entryName == "." || entryName == ".." {
			continue
		}

		if isDirectory {
			sub, err := p.directory(entryName, int64(dataOffset)*directoryOffsetMultiplier)
			if err != nil {
				return nil, err
			}
			dir.Subdirs[entryName] = sub
		} else {
			dir.Files[entryName] = &File{
				Name:   entryName,
				Offset: int64(dataOffset) * p.offsetMultiplier,
				Size:   dataSize,
			}
		}
	}
	return dir, nil
}

func (p *indexParser) cString(offset int64) (string, error) {
	if offset < 0 || offset >= int64(len(p.index)) {
		return "", fmt.Errorf("rom: name offset 0x%x out of index", offset)
	}
	end := offset
	for end < int64(len(p.index)) && p.index[end] != 0 {
		end++
	}
	if end == int64(len(p.index)) {
		return "", errors.New("rom: unterminated entry name")
	}
	return string(p.index[offset:end]), nil
}

// Root returns the archive's root directory.
func (a *Archive) Root() *Directory {
	return a.root
}

// Find resolves a slash-separated path (with or without the leading
// slash) to a file entry.
func (a *Archive) Find(name string) (*File, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	dir := a.root
	parts := strings.Split(name, "/")
	for _, part := range parts[:len(parts)-1] {
		sub, ok := dir.Subdirs[part]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		dir = sub
	}
	file, ok := dir.Files[parts[len(parts)-1]]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return file, nil
}

// ReadFile reads a whole file body by path.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	file, err := a.Find(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, file.Size)
	if _, err := a.r.ReadAt(data, file.Offset); err != nil {
		return nil, fmt.Errorf("rom: reading %q: %w", name, err)
	}
	return data, nil
}

// Open returns a random-access reader over a file body.
func (a *Archive) Open(name string) (*io.SectionReader, error) {
	file, err := a.Find(name)
	if err != nil {
		return nil, err
	}
	return io.NewSectionReader(a.r, file.Offset, int64(file.Size)), nil
}

// Walk visits every file in the archive in sorted path order.
func (a *Archive) Walk(fn func(path string, file *File) error) error {
	return walkDir(a.root, "", fn)
}

func walkDir(dir *Directory, prefix string, fn func(string, *File) error) error {
	names := make([]string, 0, len(dir.Files))
	for name := range dir.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := fn(prefix+"/"+name, dir.Files[name]); err != nil {
			return err
		}
	}

	subNames := make([]string, 0, len(dir.Subdirs))
	for name := range dir.Subdirs {
		subNames = append(subNames, name)
	}
	sort.Strings(subNames)
	for _, name := range subNames {
		if err := walkDir(dir.Subdirs[name], prefix+"/"+name, fn); err != nil {
			return err
		}
	}
	return nil
}
