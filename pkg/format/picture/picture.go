// Package picture decodes the PIC4 tiled picture format. A picture is
// a grid of independently compressed chunks, each carrying opacity
// meshes used by the renderer to skip transparent areas.
package picture

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/DCNick3/shin-sub001/pkg/format/lz77"
)

const (
	magic   = "PIC4"
	version = 3

	headerSize    = 36
	chunkDescSize = 12

	// Bits are stored inverted on disk.
	flagInlineAlpha  = 0x0001
	flagDictEncoding = 0x0002

	dictSize = 0x400
)

// Vertex is one quad of an opacity mesh, in chunk-local pixels.
type Vertex struct {
	FromX, FromY uint16
	ToX, ToY     uint16
}

// Chunk is one decoded tile.
type Chunk struct {
	OffsetX, OffsetY    int
	OpaqueVertices      []Vertex
	TransparentVertices []Vertex
	Image               *image.NRGBA
}

// Picture is a fully decoded PIC4 file with chunks merged into a
// single image.
type Picture struct {
	Image     *image.NRGBA
	OriginX   int
	OriginY   int
	PictureID uint32
}

type header struct {
	originX, originY                int16
	effectiveWidth, effectiveHeight uint16
	chunkCount                      uint32
	pictureID                       uint32
}

func parseHeader(data []byte) (header, error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return header{}, fmt.Errorf("not a PIC4 file")
	}
	le := binary.LittleEndian
	if v := le.Uint32(data[4:]); v != version {
		return header{}, fmt.Errorf("unsupported picture version %d", v)
	}
	if size := le.Uint32(data[8:]); size != uint32(len(data)) {
		return header{}, fmt.Errorf("picture size mismatch: header says %d, got %d", size, len(data))
	}
	if f := le.Uint32(data[20:]); f != 0 && f != 1 {
		return header{}, fmt.Errorf("unknown picture field_20 value %d", f)
	}
	if f := le.Uint32(data[32:]); f != 0x1000 {
		return header{}, fmt.Errorf("unknown picture field_32 value %#x", f)
	}
	return header{
		originX:         int16(le.Uint16(data[12:])),
		originY:         int16(le.Uint16(data[14:])),
		effectiveWidth:  le.Uint16(data[16:]),
		effectiveHeight: le.Uint16(data[18:]),
		chunkCount:      le.Uint32(data[24:]),
		pictureID:       le.Uint32(data[28:]),
	}, nil
}

// DecodeChunk decodes one compressed tile. An empty input produces an
// empty chunk, which some bustups contain.
func DecodeChunk(data []byte) (Chunk, error) {
	if len(data) == 0 {
		return Chunk{Image: image.NewNRGBA(image.Rect(0, 0, 0, 0))}, nil
	}
	if len(data) < 20 {
		return Chunk{}, fmt.Errorf("picture chunk too short: %d bytes", len(data))
	}
	le := binary.LittleEndian

	flags := le.Uint16(data[0:])
	opaqueCount := int(le.Uint16(data[2:]))
	transparentCount := int(le.Uint16(data[4:]))
	paddingWords := int(le.Uint16(data[6:]))
	offsetX := int(le.Uint16(data[8:]))
	offsetY := int(le.Uint16(data[10:]))
	width := int(le.Uint16(data[12:]))
	height := int(le.Uint16(data[14:]))
	compressedSize := int(le.Uint16(data[16:]))

	if flags&^uint16(flagInlineAlpha|flagDictEncoding) != 0 {
		return Chunk{}, fmt.Errorf("invalid chunk compression flags %#x", flags)
	}
	useInlineAlpha := flags&flagInlineAlpha != 0
	useDictEncoding := flags&flagDictEncoding != 0

	pos := 20
	readVertices := func(count int) ([]Vertex, error) {
		if len(data) < pos+count*8 {
			return nil, fmt.Errorf("picture chunk vertex table truncated")
		}
		vs := make([]Vertex, count)
		for i := range vs {
			vs[i] = Vertex{
				FromX: le.Uint16(data[pos:]),
				FromY: le.Uint16(data[pos+2:]),
				ToX:   le.Uint16(data[pos+4:]),
				ToY:   le.Uint16(data[pos+6:]),
			}
			pos += 8
		}
		return vs, nil
	}
	opaque, err := readVertices(opaqueCount)
	if err != nil {
		return Chunk{}, err
	}
	transparent, err := readVertices(transparentCount)
	if err != nil {
		return Chunk{}, err
	}
	pos += paddingWords * 2
	if pos > len(data) {
		return Chunk{}, fmt.Errorf("picture chunk padding runs past the data")
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if err := decodeTexture(data[pos:], compressedSize, img, useDictEncoding, useInlineAlpha); err != nil {
		return Chunk{}, err
	}

	return Chunk{
		OffsetX:             offsetX,
		OffsetY:             offsetY,
		OpaqueVertices:      opaque,
		TransparentVertices: transparent,
		Image:               img,
	}, nil
}

func decodeTexture(data []byte, compressedSize int, target *image.NRGBA, useDictEncoding, useInlineAlpha bool) error {
	width := target.Rect.Dx()
	height := target.Rect.Dy()

	// Rows are padded: 16 bytes for raw pixels, 4 for dictionary
	// indices.
	differentialStride := (width*4 + 0xf) &^ 0xf
	dictionaryStride := (width + 3) &^ 3

	if compressedSize != 0 {
		if compressedSize > len(data) {
			return fmt.Errorf("chunk compressed size %d exceeds data", compressedSize)
		}
		decompressedSize := differentialStride * height
		if useDictEncoding {
			decompressedSize = dictionaryStride * height
			if !useInlineAlpha {
				decompressedSize *= 2
			}
			decompressedSize += dictSize
		}
		out, err := lz77.Decompress(make([]byte, 0, decompressedSize), data[:compressedSize], 12)
		if err != nil {
			return fmt.Errorf("decompressing picture chunk: %w", err)
		}
		if len(out) != decompressedSize {
			return fmt.Errorf("chunk decompressed to %d bytes, want %d", len(out), decompressedSize)
		}
		data = out
	}

	if !useDictEncoding {
		// No known asset uses the differential layout.
		return fmt.Errorf("differential pixel encoding is not supported")
	}

	planeSize := dictionaryStride * height
	need := dictSize + planeSize
	if !useInlineAlpha {
		need += planeSize
	}
	if len(data) < need {
		return fmt.Errorf("chunk pixel data truncated: %d bytes, want %d", len(data), need)
	}
	dict := data[:dictSize]
	indices := data[dictSize : dictSize+planeSize]
	var alpha []byte
	if !useInlineAlpha {
		alpha = data[dictSize+planeSize : dictSize+2*planeSize]
	}
	decodeDict(target, dict, indices, alpha, width, dictionaryStride)
	return nil
}

func decodeDict(target *image.NRGBA, dict, indices, alpha []byte, width, stride int) {
	height := target.Rect.Dy()
	for y := 0; y < height; y++ {
		row := indices[y*stride:]
		dest := target.Pix[y*target.Stride:]
		for x := 0; x < width; x++ {
			entry := dict[int(row[x])*4:]
			dest[x*4+0] = entry[0]
			dest[x*4+1] = entry[1]
			dest[x*4+2] = entry[2]
			if alpha != nil {
				dest[x*4+3] = alpha[y*stride+x]
			} else {
				dest[x*4+3] = entry[3]
			}
		}
	}
}

func chunkDescs(data []byte, h header) ([]image.Point, [][]byte, error) {
	le := binary.LittleEndian
	positions := make([]image.Point, h.chunkCount)
	blobs := make([][]byte, h.chunkCount)
	for i := range blobs {
		desc := data[headerSize+i*chunkDescSize:]
		if len(desc) < chunkDescSize {
			return nil, nil, fmt.Errorf("picture chunk table truncated")
		}
		offset := le.Uint32(desc[4:])
		size := le.Uint32(desc[8:])
		if int(offset)+int(size) > len(data) {
			return nil, nil, fmt.Errorf("picture chunk %d outside the file", i)
		}
		positions[i] = image.Pt(int(le.Uint16(desc[0:])), int(le.Uint16(desc[2:])))
		blobs[i] = data[offset : offset+size]
	}
	return positions, blobs, nil
}

// DecodeChunks decodes every tile of a PIC4 file without merging them,
// keeping the opacity meshes available.
func DecodeChunks(data []byte) ([]image.Point, []Chunk, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, nil, err
	}
	positions, blobs, err := chunkDescs(data, h)
	if err != nil {
		return nil, nil, err
	}

	chunks := make([]Chunk, len(blobs))
	errs := make([]error, len(blobs))
	var wg sync.WaitGroup
	for i := range blobs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chunks[i], errs[i] = DecodeChunk(blobs[i])
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("picture chunk %d: %w", i, err)
		}
	}
	return positions, chunks, nil
}

// Info is the header of a PIC4 file.
type Info struct {
	OriginX, OriginY int
	Width, Height    int
	PictureID        uint32
}

// DecodeInfo reads just the header of a PIC4 file.
func DecodeInfo(data []byte) (Info, error) {
	h, err := parseHeader(data)
	if err != nil {
		return Info{}, err
	}
	return Info{
		OriginX:   int(h.originX),
		OriginY:   int(h.originY),
		Width:     int(h.effectiveWidth),
		Height:    int(h.effectiveHeight),
		PictureID: h.pictureID,
	}, nil
}

// Decode decodes a PIC4 file into a single merged image.
func Decode(data []byte) (*Picture, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	positions, chunks, err := DecodeChunks(data)
	if err != nil {
		return nil, err
	}

	merged := image.NewNRGBA(image.Rect(0, 0, int(h.effectiveWidth), int(h.effectiveHeight)))
	for i, chunk := range chunks {
		r := chunk.Image.Rect.Add(positions[i])
		draw.Draw(merged, r, chunk.Image, chunk.Image.Rect.Min, draw.Src)
	}
	return &Picture{
		Image:     merged,
		OriginX:   int(h.originX),
		OriginY:   int(h.originY),
		PictureID: h.pictureID,
	}, nil
}
