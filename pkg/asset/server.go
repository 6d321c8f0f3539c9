package asset

import (
	"fmt"
	"io"
	"sync"
	"weak"

	"github.com/DCNick3/shin-sub001/pkg/format/bustup"
	"github.com/DCNick3/shin-sub001/pkg/format/font"
	"github.com/DCNick3/shin-sub001/pkg/format/mask"
	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
	"github.com/DCNick3/shin-sub001/pkg/format/picture"
	"github.com/DCNick3/shin-sub001/pkg/format/scenario"
	"github.com/DCNick3/shin-sub001/pkg/format/sysse"
)

// DecodeError wraps a decoder failure with the asset path.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode asset %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// typedCache holds weak references to decoded assets of one type. A
// decoded asset stays shared while anything still holds it; once all
// strong references are gone the entry falls out on the next lookup.
type typedCache[T any] struct {
	mu      sync.Mutex
	entries map[string]weak.Pointer[T]
}

func (c *typedCache[T]) load(srv *Server, path string, decode func([]byte) (*T, error)) (*T, error) {
	path = normalizePath(path)

	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[string]weak.Pointer[T])
	}
	if wp, ok := c.entries[path]; ok {
		if v := wp.Value(); v != nil {
			c.mu.Unlock()
			return v, nil
		}
		delete(c.entries, path)
	}
	c.mu.Unlock()

	data, err := srv.io.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := decode(data)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	c.mu.Lock()
	// Another goroutine may have decoded the same path concurrently;
	// prefer the already-published value so callers share one copy.
	if wp, ok := c.entries[path]; ok {
		if existing := wp.Value(); existing != nil {
			c.mu.Unlock()
			return existing, nil
		}
	}
	c.entries[path] = weak.Make(v)
	c.mu.Unlock()
	return v, nil
}

// Server decodes assets on demand and shares the results through
// per-type weak caches.
type Server struct {
	io IO

	pictures  typedCache[picture.Picture]
	bustups   typedCache[bustup.Skeleton]
	masks     typedCache[mask.Mask]
	fonts     typedCache[font.Font]
	scenarios typedCache[scenario.Scenario]
	sysSounds typedCache[sysse.SysSe]
}

// NewServer wraps an IO backend in a caching server.
func NewServer(io IO) *Server {
	return &Server{io: io}
}

// IO exposes the underlying backend for raw reads.
func (s *Server) IO() IO {
	return s.io
}

// ReadRaw fetches undecoded asset bytes.
func (s *Server) ReadRaw(path string) ([]byte, error) {
	return s.io.ReadFile(normalizePath(path))
}

// LoadPicture decodes a PIC4 file.
func (s *Server) LoadPicture(path string) (*picture.Picture, error) {
	return s.pictures.load(s, path, picture.Decode)
}

// LoadBustup parses a BUP skeleton. Block pixel data is decoded
// separately through a Cache so expressions can share blocks.
func (s *Server) LoadBustup(path string) (*bustup.Skeleton, error) {
	return s.bustups.load(s, path, bustup.Parse)
}

// LoadMask decodes an MSK4 transition mask.
func (s *Server) LoadMask(path string) (*mask.Mask, error) {
	return s.masks.load(s, path, mask.Decode)
}

// LoadFont decodes an FNT4 font. Glyphs inside stay lazy.
func (s *Server) LoadFont(path string) (*font.Font, error) {
	return s.fonts.load(s, path, font.Decode)
}

// LoadScenario parses an SNR scenario.
func (s *Server) LoadScenario(path string) (*scenario.Scenario, error) {
	return s.scenarios.load(s, path, scenario.New)
}

// LoadSysSe decodes the system sound effect container.
func (s *Server) LoadSysSe(path string) (*sysse.SysSe, error) {
	return s.sysSounds.load(s, path, sysse.Decode)
}

// LoadAudio parses an NXA file. Audio is not cached: a playing track
// owns its decoder state and tracks are rarely reopened while loaded.
func (s *Server) LoadAudio(path string) (*nxa.File, error) {
	path = normalizePath(path)
	data, err := s.io.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := nxa.Parse(data)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return f, nil
}

// OpenStream opens a large asset for random access without reading it
// whole, used for movie playback.
func (s *Server) OpenStream(path string) (io.ReaderAt, int64, error) {
	return s.io.Open(normalizePath(path))
}
