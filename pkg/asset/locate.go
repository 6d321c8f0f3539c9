package asset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// AssetsEnvVar overrides the asset directory search when set.
const AssetsEnvVar = "SHIN_ASSETS"

// Locate finds the asset directory and opens it as a layered backend.
// Candidates are tried in order: the explicit directory (usually from
// the command line), the environment variable, an assets directory
// next to the executable, an assets directory under the working
// directory, and the per-user data directory.
func Locate(explicitDir string) (*LayeredIO, error) {
	var candidates []string
	if explicitDir != "" {
		candidates = append(candidates, explicitDir)
	}
	if env := os.Getenv(AssetsEnvVar); env != "" {
		candidates = append(candidates, env)
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "assets"))
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, "assets"))
	}
	if data, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(data, "shin", "assets"))
	}

	for _, dir := range candidates {
		io, err := OpenDirLayered(dir)
		if err == nil {
			slog.Info("assets located", "dir", dir, "backend", io.Describe())
			return io, nil
		}
		slog.Debug("asset candidate skipped", "dir", dir, "error", err)
	}
	return nil, fmt.Errorf("no asset directory found (tried %d candidates; set %s or pass a directory)",
		len(candidates), AssetsEnvVar)
}

// OpenDirLayered opens one asset directory as its layered backend. A
// patch directory or patch.rom shadows the base data directory or
// data.rom; at least one of the four sources must exist.
func OpenDirLayered(dir string) (*LayeredIO, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("asset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset directory: %s is not a directory", dir)
	}

	var layers []IO
	if d, err := NewDirIO(filepath.Join(dir, "patch")); err == nil {
		layers = append(layers, d)
	}
	if r, err := NewRomIO(filepath.Join(dir, "patch.rom")); err == nil {
		layers = append(layers, r)
	}
	if d, err := NewDirIO(filepath.Join(dir, "data")); err == nil {
		layers = append(layers, d)
	}
	if r, err := NewRomIO(filepath.Join(dir, "data.rom")); err == nil {
		layers = append(layers, r)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("no data.rom, data directory, patch.rom or patch directory under %s", dir)
	}
	return NewLayeredIO(layers...)
}
