// Package fileutil provides small file system helpers shared by the
// asset loader and the data tools.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive looks up a file name in a directory ignoring
// case. Asset paths are lowercase on the wire, but an extracted data
// tree may preserve the original casing.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}

// ResolveCaseInsensitive resolves every component of a relative path
// under root ignoring case, returning the on-disk path.
func ResolveCaseInsensitive(root, relative string) (string, error) {
	resolved := root
	components := strings.Split(filepath.ToSlash(relative), "/")
	for i, component := range components {
		if component == "" {
			continue
		}
		exact := filepath.Join(resolved, component)
		if _, err := os.Stat(exact); err == nil {
			resolved = exact
			continue
		}
		if i == len(components)-1 {
			found, err := FindFileCaseInsensitive(resolved, component)
			if err != nil {
				return "", err
			}
			resolved = found
			continue
		}
		found, err := findDirCaseInsensitive(resolved, component)
		if err != nil {
			return "", err
		}
		resolved = found
	}
	return resolved, nil
}

func findDirCaseInsensitive(dir, name string) (string, error) {
	searchName := strings.ToLower(name)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() && strings.ToLower(entry.Name()) == searchName {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("directory not found: %s (searched in %s)", name, dir)
}

// EnsureDir creates a directory and its parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and
// renames it into place, so a crash mid-write never leaves a truncated
// file. Used for save data.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
