package app

import (
	"fmt"
	"strings"

	"github.com/gogpu/wgpu/hal"

	"github.com/DCNick3/shin-sub001/pkg/asset"
	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/video"
)

// movieOpener turns a movie name from the scenario header into a
// playing frame source: the mp4 is demuxed off the asset stream and
// the packets go through the external decoder.
type movieOpener struct {
	assets *asset.Server
	device hal.Device
	queue  hal.Queue
}

func (o *movieOpener) OpenMovie(name string) (layer.FrameSource, error) {
	path := fmt.Sprintf("/movie/%s.mp4", strings.ToLower(name))
	r, size, err := o.assets.OpenStream(path)
	if err != nil {
		return nil, fmt.Errorf("opening movie %s: %w", path, err)
	}

	source, err := video.NewMp4PacketSource(r, size)
	if err != nil {
		return nil, fmt.Errorf("demuxing movie %s: %w", path, err)
	}
	decoder, err := video.NewFfmpegDecoder(source)
	if err != nil {
		return nil, fmt.Errorf("decoding movie %s: %w", path, err)
	}

	player, err := video.NewVideoPlayer(o.device, o.queue, decoder, source.TimeBase(), nil)
	if err != nil {
		decoder.Close()
		return nil, fmt.Errorf("playing movie %s: %w", path, err)
	}
	return player, nil
}
