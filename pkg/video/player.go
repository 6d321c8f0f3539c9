package video

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/render"
	"github.com/DCNick3/shin-sub001/pkg/tick"
)

// BT.601 limited range, the colorspace console movies are encoded in.
var (
	movieColorBias = mgl32.Vec4{16.0 / 255.0, 0.5, 0.5, 0}

	movieColorTransform = [3]mgl32.Vec4{
		{1.164, 0, 1.596, 0},
		{1.164, -0.392, -0.813, 0},
		{1.164, 2.017, 0, 0},
	}
)

type pendingFrame struct {
	timing FrameTiming
	frame  *Nv12Frame
}

// VideoPlayer decodes and presents one movie. It implements the frame
// source contract of the movie layer: Update advances the clock and
// uploads the frame that is due, CurrentFrame hands the planes to the
// movie program.
type VideoPlayer struct {
	timer   *timer
	decoder Decoder

	luma   *render.Texture
	chroma *render.Texture
	width  uint32
	height uint32

	pending  *pendingFrame
	uploaded bool

	upload func(*Nv12Frame)
}

// NewVideoPlayer starts playback. audioClock is the handle of the
// movie's audio track when it has one; frame timing then follows the
// audio position instead of the game clock.
func NewVideoPlayer(device hal.Device, queue hal.Queue, decoder Decoder,
	timeBase uint32, audioClock positionSource) (*VideoPlayer, error) {

	width, height, err := decoder.FrameSize()
	if err != nil {
		return nil, fmt.Errorf("getting movie frame size: %w", err)
	}
	luma, err := render.NewTextureWithFormat(device, width, height,
		gputypes.TextureFormatR8Unorm, 1, "movie_luma")
	if err != nil {
		return nil, err
	}
	chroma, err := render.NewTextureWithFormat(device, (width+1)/2, (height+1)/2,
		gputypes.TextureFormatRG8Unorm, 2, "movie_chroma")
	if err != nil {
		luma.Destroy(device)
		return nil, err
	}

	p := &VideoPlayer{
		decoder: decoder,
		luma:    luma,
		chroma:  chroma,
		width:   width,
		height:  height,
	}
	p.upload = func(f *Nv12Frame) {
		p.luma.Write(queue, f.Luma)
		p.chroma.Write(queue, f.Chroma)
	}

	if audioClock != nil {
		p.timer = newAudioTiedTimer(timeBase, audioClock)
	} else {
		p.timer = newIndependentTimer(timeBase)
	}

	timing, frame, err := decoder.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("reading first movie frame: %w", err)
	}
	if frame != nil {
		p.pending = &pendingFrame{timing: timing, frame: frame}
	}
	return p, nil
}

// Update advances the presentation clock and uploads the latest frame
// whose start time has passed, dropping frames the clock ran over.
func (p *VideoPlayer) Update(delta tick.Ticks) {
	now := p.timer.Update(delta)

	skipped := 0
	for p.pending != nil {
		if p.pending.timing.StartTime > now {
			break
		}

		timing, frame, err := p.decoder.ReadFrame()
		if err != nil {
			logger.GetLogger().Error("reading movie frame, stopping playback", "error", err)
			frame = nil
		}
		var next *pendingFrame
		if frame != nil {
			next = &pendingFrame{timing: timing, frame: frame}
		}

		if next == nil || next.timing.StartTime > now {
			if skipped > 0 {
				logger.GetLogger().Warn("movie dropped frames", "count", skipped)
			}
			p.upload(p.pending.frame)
			p.uploaded = true
		} else {
			skipped++
		}
		p.pending = next
	}
}

// CurrentFrame returns the uploaded frame for the movie program.
func (p *VideoPlayer) CurrentFrame() (layer.MovieFrame, bool) {
	if !p.uploaded || p.luma == nil {
		return layer.MovieFrame{}, false
	}
	return layer.MovieFrame{
		Luma:           p.luma.Source(),
		Chroma:         p.chroma.Source(),
		Width:          float32(p.width),
		Height:         float32(p.height),
		ColorBias:      movieColorBias,
		ColorTransform: movieColorTransform,
	}, true
}

// IsFinished reports whether the last frame has been presented.
func (p *VideoPlayer) IsFinished() bool {
	return p.pending == nil
}

// Close shuts the decoder down and releases the plane textures.
func (p *VideoPlayer) Close(device hal.Device) {
	p.decoder.Close()
	if p.luma != nil {
		p.luma.Destroy(device)
		p.luma = nil
	}
	if p.chroma != nil {
		p.chroma.Destroy(device)
		p.chroma = nil
	}
}
