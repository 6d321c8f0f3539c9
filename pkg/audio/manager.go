package audio

import (
	"fmt"

	eaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
)

// Manager owns the process-wide audio context and turns sounds into
// playing handles. It belongs to the game thread.
type Manager struct {
	ctx  *eaudio.Context
	live []*Handle
}

func NewManager() *Manager {
	ctx := eaudio.CurrentContext()
	if ctx == nil {
		ctx = eaudio.NewContext(OutputSampleRate)
	}
	return &Manager{ctx: ctx}
}

// Play starts the sound on the output device and returns its handle.
func (m *Manager) Play(sound *Sound) (*Handle, error) {
	player, err := m.ctx.NewPlayer(sound)
	if err != nil {
		return nil, fmt.Errorf("creating audio player: %w", err)
	}
	handle := sound.Handle()
	handle.player = player
	player.Play()
	m.live = append(m.live, handle)
	return handle, nil
}

// PlayFile decodes an NXA file and plays it.
func (m *Manager) PlayFile(file *nxa.File, settings Settings) (*Handle, error) {
	source := nxa.NewSampleSource(nxa.NewDecoder(file))
	return m.Play(NewSound(source, settings))
}

// Update reaps sounds that have stopped and drained, releasing their
// players. Call once per frame.
func (m *Manager) Update() {
	kept := m.live[:0]
	for _, h := range m.live {
		if h.Finished() {
			h.Close()
		} else {
			kept = append(kept, h)
		}
	}
	for i := len(kept); i < len(m.live); i++ {
		m.live[i] = nil
	}
	m.live = kept
}
