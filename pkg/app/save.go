package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/DCNick3/shin-sub001/pkg/adv"
	"github.com/DCNick3/shin-sub001/pkg/fileutil"
	"github.com/DCNick3/shin-sub001/pkg/format/save"
)

// saveStore loads the save file at startup and writes it back on
// exit. A missing or corrupt file starts a fresh one; save data is
// never a reason to refuse to run the game.
type saveStore struct {
	path string
	data *save.Savedata
	log  *slog.Logger
}

func openSaveStore(log *slog.Logger) *saveStore {
	s := &saveStore{data: &save.Savedata{}, log: log}

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Warn("no user config directory, save data is disabled", "error", err)
		return s
	}
	s.path = filepath.Join(configDir, "shin", "save.bin")

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("reading save data failed, starting fresh", "error", err)
		}
		return s
	}
	data, err := save.Decode(raw)
	if err != nil {
		log.Warn("save data is corrupt, starting fresh", "error", err)
		return s
	}
	s.data = data
	log.Info("save data loaded", "path", s.path, "play_seconds", data.PlaySeconds)
	return s
}

// Seed copies the persistent cells into a fresh VM state.
func (s *saveStore) Seed(state *adv.VmState) {
	for i := int32(0); i < adv.PersistSlotCount; i++ {
		if v := s.data.PersistData.Get(i); v != 0 {
			state.Persist.Set(i, v)
		}
	}
}

// Store writes the persistent cells and the accumulated play time
// back to disk.
func (s *saveStore) Store(state *adv.VmState, played time.Duration) error {
	if s.path == "" {
		return nil
	}
	for i, v := range state.Persist.Raw() {
		s.data.PersistData.Set(int32(i), v)
	}
	s.data.PlaySeconds += uint32(played.Seconds())
	return fileutil.WriteFileAtomic(s.path, s.data.Encode(), 0o644)
}
