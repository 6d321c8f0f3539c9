// Package mask decodes the MSK4 format, an 8-bit grayscale texture
// used for wipe transitions. Region meshes classify the mask into
// fully black, fully white and mixed areas so the renderer can draw
// the cheap parts without sampling.
package mask

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/DCNick3/shin-sub001/pkg/format/lz77"
)

const (
	magic      = "MSK4"
	version    = 1
	headerSize = 36
)

// Vertex is one quad of a region mesh, in texture pixels.
type Vertex struct {
	FromX, FromY uint16
	ToX, ToY     uint16
}

// Region describes one class of mask area.
type Region struct {
	Vertices []Vertex
	// Area in 4x4 blocks.
	Area uint32
}

// Mask is a decoded MSK4 file.
type Mask struct {
	ID          uint32
	Black       Region
	White       Region
	Transparent Region
	Texels      *image.Gray
}

func decodeTexels(data []byte, width, height int) (*image.Gray, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("mask texel block too short")
	}
	compressedSize := int(binary.LittleEndian.Uint32(data))
	data = data[4:]

	stride := (width + 0xf) &^ 0xf
	decompressedSize := stride * height

	if compressedSize != 0 {
		if compressedSize > len(data) {
			return nil, fmt.Errorf("mask compressed size %d exceeds data", compressedSize)
		}
		out, err := lz77.Decompress(make([]byte, 0, decompressedSize), data[:compressedSize], 12)
		if err != nil {
			return nil, fmt.Errorf("decompressing mask texels: %w", err)
		}
		data = out
	}
	if len(data) != decompressedSize {
		return nil, fmt.Errorf("mask texel data is %d bytes, want %d", len(data), decompressedSize)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+width], data[y*stride:])
	}
	return img, nil
}

func decodeVertices(data []byte) (black, white, transparent Region, err error) {
	if len(data) < 24 {
		return black, white, transparent, fmt.Errorf("mask vertex block too short")
	}
	le := binary.LittleEndian
	counts := [3]uint32{le.Uint32(data[0:]), le.Uint32(data[8:]), le.Uint32(data[16:])}
	areas := [3]uint32{le.Uint32(data[4:]), le.Uint32(data[12:]), le.Uint32(data[20:])}

	total := int(counts[0]) + int(counts[1]) + int(counts[2])
	data = data[24:]
	if len(data) < total*8 {
		return black, white, transparent, fmt.Errorf("mask vertex table truncated")
	}

	readRegion := func(count, area uint32) Region {
		vs := make([]Vertex, count)
		for i := range vs {
			vs[i] = Vertex{
				FromX: le.Uint16(data[0:]),
				FromY: le.Uint16(data[2:]),
				ToX:   le.Uint16(data[4:]),
				ToY:   le.Uint16(data[6:]),
			}
			data = data[8:]
		}
		return Region{Vertices: vs, Area: area}
	}
	black = readRegion(counts[0], areas[0])
	white = readRegion(counts[1], areas[1])
	transparent = readRegion(counts[2], areas[2])
	return black, white, transparent, nil
}

// Decode parses an MSK4 file.
func Decode(data []byte) (*Mask, error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return nil, fmt.Errorf("not an MSK4 file")
	}
	le := binary.LittleEndian
	if v := le.Uint32(data[4:]); v != version {
		return nil, fmt.Errorf("unsupported mask version %d", v)
	}
	if size := le.Uint32(data[8:]); size != uint32(len(data)) {
		return nil, fmt.Errorf("mask size mismatch: header says %d, got %d", size, len(data))
	}

	maskID := le.Uint32(data[12:])
	width := int(le.Uint16(data[16:]))
	height := int(le.Uint16(data[18:]))
	dataOffset := le.Uint32(data[20:])
	dataSize := le.Uint32(data[24:])
	verticesOffset := le.Uint32(data[28:])
	verticesSize := le.Uint32(data[32:])

	if int(dataOffset)+int(dataSize) > len(data) {
		return nil, fmt.Errorf("mask texel block outside the file")
	}
	if int(verticesOffset)+int(verticesSize) > len(data) {
		return nil, fmt.Errorf("mask vertex block outside the file")
	}

	black, white, transparent, err := decodeVertices(data[verticesOffset : verticesOffset+verticesSize])
	if err != nil {
		return nil, err
	}
	texels, err := decodeTexels(data[dataOffset:dataOffset+dataSize], width, height)
	if err != nil {
		return nil, err
	}

	return &Mask{
		ID:          maskID,
		Black:       black,
		White:       white,
		Transparent: transparent,
		Texels:      texels,
	}, nil
}
