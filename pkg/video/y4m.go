package video

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// y4mDecoder parses the yuv4mpegpipe stream the decoder process
// emits. Only 4:2:0 subsampling is supported, which is what the
// movies use.
type y4mDecoder struct {
	r      *bufio.Reader
	width  uint32
	height uint32
}

func newY4mDecoder(r io.Reader) (*y4mDecoder, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	line, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading y4m header: %w", err)
	}
	fields := strings.Fields(strings.TrimSuffix(line, "\n"))
	if len(fields) == 0 || fields[0] != "YUV4MPEG2" {
		return nil, fmt.Errorf("not a y4m stream")
	}

	d := &y4mDecoder{r: br}
	for _, f := range fields[1:] {
		switch f[0] {
		case 'W':
			v, err := strconv.ParseUint(f[1:], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("bad y4m width %q: %w", f, err)
			}
			d.width = uint32(v)
		case 'H':
			v, err := strconv.ParseUint(f[1:], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("bad y4m height %q: %w", f, err)
			}
			d.height = uint32(v)
		case 'C':
			if !strings.HasPrefix(f[1:], "420") {
				return nil, fmt.Errorf("unsupported y4m colorspace %q", f[1:])
			}
		}
	}
	if d.width == 0 || d.height == 0 {
		return nil, fmt.Errorf("y4m header missing frame size")
	}
	return d, nil
}

// readFrame returns the next frame converted to NV12, or io.EOF after
// the last one.
func (d *y4mDecoder) readFrame() (*Nv12Frame, error) {
	line, err := d.r.ReadString('\n')
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading y4m frame marker: %w", err)
	}
	if !strings.HasPrefix(line, "FRAME") {
		return nil, fmt.Errorf("bad y4m frame marker %q", strings.TrimSuffix(line, "\n"))
	}

	w := int(d.width)
	h := int(d.height)
	cw := (w + 1) / 2
	ch := (h + 1) / 2

	luma := make([]byte, w*h)
	if _, err := io.ReadFull(d.r, luma); err != nil {
		return nil, fmt.Errorf("reading y4m luma plane: %w", err)
	}
	u := make([]byte, cw*ch)
	if _, err := io.ReadFull(d.r, u); err != nil {
		return nil, fmt.Errorf("reading y4m u plane: %w", err)
	}
	v := make([]byte, cw*ch)
	if _, err := io.ReadFull(d.r, v); err != nil {
		return nil, fmt.Errorf("reading y4m v plane: %w", err)
	}

	chroma := make([]byte, 2*cw*ch)
	for i := range u {
		chroma[2*i] = u[i]
		chroma[2*i+1] = v[i]
	}
	return &Nv12Frame{Width: d.width, Height: d.height, Luma: luma, Chroma: chroma}, nil
}
