package video

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/DCNick3/shin-sub001/pkg/logger"
)

const (
	frameChannelCapacity = 60
	// Timings bypass the decoder process, which buffers several frames
	// internally, so this channel needs headroom or feeding would
	// deadlock against a full frame channel.
	timingChannelCapacity = 10
)

// FfmpegDecoder decodes H.264 by piping packets through an external
// ffmpeg process and parsing the y4m frames it emits back. Packet
// feeding and frame parsing run on their own goroutines; the game
// thread only receives from bounded channels.
type FfmpegDecoder struct {
	cmd     *exec.Cmd
	frames  chan *Nv12Frame
	timings chan FrameTiming
	quit    chan struct{}

	sizeReady chan struct{}
	width     uint32
	height    uint32

	closeOnce sync.Once
}

// NewFfmpegDecoder spawns ffmpeg and starts feeding it packets from
// the source.
func NewFfmpegDecoder(source PacketSource) (*FfmpegDecoder, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("locating ffmpeg binary: %w", err)
	}

	cmd := exec.Command(path,
		"-loglevel", "warning",
		"-f", "h264",
		"-flags", "low_delay",
		"-analyzeduration", "0",
		"-probesize", "32",
		"-i", "pipe:0",
		"-f", "yuv4mpegpipe",
		"pipe:1",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating ffmpeg stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating ffmpeg stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating ffmpeg stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawning ffmpeg: %w", err)
	}

	d := &FfmpegDecoder{
		cmd:       cmd,
		frames:    make(chan *Nv12Frame, frameChannelCapacity),
		timings:   make(chan FrameTiming, timingChannelCapacity),
		quit:      make(chan struct{}),
		sizeReady: make(chan struct{}),
	}

	go d.feedPackets(source, stdin)
	go d.parseFrames(stdout)
	go logStderr(stderr)

	return d, nil
}

// feedPackets streams samples into the decoder process and their
// timings around it.
func (d *FfmpegDecoder) feedPackets(source PacketSource, stdin io.WriteCloser) {
	defer stdin.Close()
	defer close(d.timings)

	log := logger.Component("video")
	for {
		timing, packet, err := source.NextPacket()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Error("reading movie packet", "error", err)
			return
		}
		select {
		case d.timings <- timing:
		case <-d.quit:
			return
		}
		if _, err := stdin.Write(packet); err != nil {
			log.Error("writing movie packet to decoder", "error", err)
			return
		}
	}
}

// parseFrames reads decoded y4m frames off the process stdout.
func (d *FfmpegDecoder) parseFrames(stdout io.Reader) {
	defer close(d.frames)

	log := logger.Component("video")
	decoder, err := newY4mDecoder(stdout)
	if err != nil {
		log.Error("parsing decoder output", "error", err)
		close(d.sizeReady)
		return
	}
	d.width = decoder.width
	d.height = decoder.height
	close(d.sizeReady)

	for {
		frame, err := decoder.readFrame()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Error("reading decoded movie frame", "error", err)
			return
		}
		select {
		case d.frames <- frame:
		case <-d.quit:
			return
		}
	}
}

func logStderr(stderr io.Reader) {
	log := logger.Component("video")
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		log.Debug("ffmpeg", "line", scanner.Text())
	}
}

// FrameSize blocks until the decoder has seen the stream header.
func (d *FfmpegDecoder) FrameSize() (uint32, uint32, error) {
	<-d.sizeReady
	if d.width == 0 || d.height == 0 {
		return 0, 0, fmt.Errorf("decoder produced no stream header")
	}
	return d.width, d.height, nil
}

// ReadFrame pairs the next decoded frame with its timing. A nil frame
// means the stream ended, by EOF or by a logged decoder failure.
func (d *FfmpegDecoder) ReadFrame() (FrameTiming, *Nv12Frame, error) {
	frame, ok := <-d.frames
	if !ok {
		return FrameTiming{}, nil, nil
	}
	timing := <-d.timings
	return timing, frame, nil
}

// Close shuts the decoder process down and unblocks the goroutines.
func (d *FfmpegDecoder) Close() error {
	d.closeOnce.Do(func() {
		close(d.quit)
		if d.cmd.Process != nil {
			d.cmd.Process.Kill()
		}
		go d.cmd.Wait()
	})
	return nil
}
