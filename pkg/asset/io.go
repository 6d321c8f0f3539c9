// Package asset loads game data files through a small IO abstraction
// and caches the decoded results. Paths are absolute, forward-slash and
// lowercase, like "/picture/title.pic".
package asset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/DCNick3/shin-sub001/pkg/fileutil"
	"github.com/DCNick3/shin-sub001/pkg/format/rom"
)

// NotFoundError reports a path that no IO backend could serve.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("asset not found: %s", e.Path)
}

// IO reads raw asset bytes by path.
type IO interface {
	// ReadFile returns the whole file. A missing path yields
	// *NotFoundError.
	ReadFile(path string) ([]byte, error)
	// Open returns a random-access view of the file. Used for large
	// assets that are streamed rather than decoded up front.
	Open(path string) (io.ReaderAt, int64, error)
	// Describe names the backend for logs.
	Describe() string
}

// normalizePath cleans a path to the canonical "/dir/file.ext" form.
func normalizePath(path string) string {
	path = strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// DirIO serves assets from a plain directory tree.
type DirIO struct {
	root string
}

// NewDirIO opens a directory backend. The directory must exist.
func NewDirIO(root string) (*DirIO, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open asset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open asset directory: %s is not a directory", root)
	}
	return &DirIO{root: root}, nil
}

// resolve maps an asset path to an on-disk path. Asset paths are
// lowercase but an extracted data tree may preserve the original
// casing, so a failed exact lookup falls back to a case-insensitive
// walk.
func (d *DirIO) resolve(path string) string {
	relative := strings.TrimPrefix(normalizePath(path), "/")
	exact := filepath.Join(d.root, filepath.FromSlash(relative))
	if _, err := os.Stat(exact); err == nil {
		return exact
	}
	if found, err := fileutil.ResolveCaseInsensitive(d.root, relative); err == nil {
		return found
	}
	return exact
}

func (d *DirIO) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(d.resolve(path))
	if err != nil {
		if errorIsNotExist(err) {
			return nil, &NotFoundError{Path: normalizePath(path)}
		}
		return nil, err
	}
	return data, nil
}

func (d *DirIO) Open(path string) (io.ReaderAt, int64, error) {
	f, err := os.Open(d.resolve(path))
	if err != nil {
		if errorIsNotExist(err) {
			return nil, 0, &NotFoundError{Path: normalizePath(path)}
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (d *DirIO) Describe() string {
	return "dir:" + d.root
}

func errorIsNotExist(err error) bool {
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	// Opening a file under a path component that is a regular file
	// yields ENOTDIR, which still means "not present" here.
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return strings.Contains(pe.Err.Error(), "not a directory")
	}
	return false
}

// RomIO serves assets out of a ROM2 archive.
type RomIO struct {
	archive *rom.Archive
	label   string
}

// NewRomIO opens a ROM archive file as an asset backend.
func NewRomIO(path string) (*RomIO, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rom: %w", err)
	}
	archive, err := rom.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open rom %s: %w", path, err)
	}
	return &RomIO{archive: archive, label: path}, nil
}

// NewRomIOFromReader wraps an already-open archive source.
func NewRomIOFromReader(r io.ReaderAt, label string) (*RomIO, error) {
	archive, err := rom.Open(r)
	if err != nil {
		return nil, fmt.Errorf("open rom %s: %w", label, err)
	}
	return &RomIO{archive: archive, label: label}, nil
}

func (r *RomIO) ReadFile(path string) ([]byte, error) {
	data, err := r.archive.ReadFile(normalizePath(path))
	if err != nil {
		if errors.Is(err, rom.ErrNotFound) {
			return nil, &NotFoundError{Path: normalizePath(path)}
		}
		return nil, err
	}
	return data, nil
}

func (r *RomIO) Open(path string) (io.ReaderAt, int64, error) {
	sr, err := r.archive.Open(normalizePath(path))
	if err != nil {
		if errors.Is(err, rom.ErrNotFound) {
			return nil, 0, &NotFoundError{Path: normalizePath(path)}
		}
		return nil, 0, err
	}
	return sr, sr.Size(), nil
}

func (r *RomIO) Describe() string {
	return "rom:" + r.label
}

// LayeredIO tries a list of backends in order and serves the first hit.
// Earlier layers shadow later ones, which is how patches override the
// base data archive.
type LayeredIO struct {
	layers []IO
}

// NewLayeredIO builds a layered backend. At least one layer is
// required.
func NewLayeredIO(layers ...IO) (*LayeredIO, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("layered asset io needs at least one layer")
	}
	return &LayeredIO{layers: layers}, nil
}

func (l *LayeredIO) ReadFile(path string) ([]byte, error) {
	for _, layer := range l.layers {
		data, err := layer.ReadFile(path)
		if err == nil {
			return data, nil
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}
	return nil, &NotFoundError{Path: normalizePath(path)}
}

func (l *LayeredIO) Open(path string) (io.ReaderAt, int64, error) {
	for _, layer := range l.layers {
		r, size, err := layer.Open(path)
		if err == nil {
			return r, size, nil
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			return nil, 0, err
		}
	}
	return nil, 0, &NotFoundError{Path: normalizePath(path)}
}

func (l *LayeredIO) Describe() string {
	parts := make([]string, len(l.layers))
	for i, layer := range l.layers {
		parts[i] = layer.Describe()
	}
	return "layered[" + strings.Join(parts, ", ") + "]"
}

// Layers returns the backends in lookup order.
func (l *LayeredIO) Layers() []IO {
	return l.layers
}
