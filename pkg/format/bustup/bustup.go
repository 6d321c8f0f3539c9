// Package bustup decodes the BUP character sprite format. A bustup is
// a base portrait plus named expressions, each referencing face, mouth
// and eye overlay blocks. Expressions share block data freely, so the
// decoder deduplicates blocks by data offset and decodes each one
// exactly once.
package bustup

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/DCNick3/shin-sub001/pkg/format/picture"
	"github.com/DCNick3/shin-sub001/pkg/format/sjis"
)

const (
	magic   = "BUP4"
	version = 1

	headerSize = 32
)

// BlockID indexes a unique block within a skeleton. Descriptors with
// the same data offset resolve to the same id.
type BlockID int

// NoBlock marks an absent optional block.
const NoBlock BlockID = -1

// Expression is one named overlay set.
type Expression struct {
	Name   string
	Face1  BlockID
	Face2  BlockID
	Mouths []BlockID
	Eyes   []BlockID
}

// Skeleton is the parsed structure of a bustup file before any pixel
// data is decoded. Callers that only need a subset of blocks can
// decode them individually.
type Skeleton struct {
	OriginX, OriginY int
	Width, Height    int
	BustupID         uint32

	Base        []BlockID
	Expressions []Expression

	blocks []blockDesc
	data   []byte
}

type blockDesc struct {
	offset uint32
	size   uint32
}

// Bustup is a fully decoded file.
type Bustup struct {
	Image            *image.NRGBA
	OriginX, OriginY int
	BustupID         uint32
	Expressions      []DecodedExpression
}

// DecodedExpression carries the decoded overlay chunks of one
// expression.
type DecodedExpression struct {
	Name   string
	Face1  *picture.Chunk
	Face2  *picture.Chunk
	Mouths []picture.Chunk
	Eyes   []picture.Chunk
}

type skeletonReader struct {
	data []byte
	pos  int
	err  error
}

func (r *skeletonReader) u16() uint16 {
	if r.err != nil {
		return 0
	}
	if r.pos+2 > len(r.data) {
		r.err = fmt.Errorf("bustup file truncated at %d", r.pos)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *skeletonReader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.pos+4 > len(r.data) {
		r.err = fmt.Errorf("bustup file truncated at %d", r.pos)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *skeletonReader) str() string {
	if r.err != nil {
		return ""
	}
	size := int(r.u16())
	if r.err != nil {
		return ""
	}
	if r.pos+size > len(r.data) {
		r.err = fmt.Errorf("bustup name truncated at %d", r.pos)
		return ""
	}
	s, err := sjis.Decode(r.data[r.pos : r.pos+size])
	if err != nil {
		r.err = err
		return ""
	}
	r.pos += size
	return s
}

// intern maps a block descriptor to its unique id. A zero descriptor
// is a null reference.
func (s *Skeleton) intern(offset, size uint32) (BlockID, error) {
	if offset == 0 {
		return NoBlock, nil
	}
	for id, b := range s.blocks {
		if b.offset == offset {
			return BlockID(id), nil
		}
	}
	if int(offset)+int(size) > len(s.data) {
		return NoBlock, fmt.Errorf("bustup block at %#x outside the file", offset)
	}
	s.blocks = append(s.blocks, blockDesc{offset: offset, size: size})
	return BlockID(len(s.blocks) - 1), nil
}

func (s *Skeleton) internList(r *skeletonReader, count int) ([]BlockID, error) {
	ids := make([]BlockID, 0, count)
	for i := 0; i < count; i++ {
		offset, size := r.u32(), r.u32()
		if r.err != nil {
			return nil, r.err
		}
		id, err := s.intern(offset, size)
		if err != nil {
			return nil, err
		}
		if id != NoBlock {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Parse reads the bustup structure without decoding pixel data.
func Parse(data []byte) (*Skeleton, error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return nil, fmt.Errorf("not a BUP4 file")
	}
	le := binary.LittleEndian
	if v := le.Uint32(data[4:]); v != version {
		return nil, fmt.Errorf("unsupported bustup version %d", v)
	}
	if size := le.Uint32(data[8:]); size != uint32(len(data)) {
		return nil, fmt.Errorf("bustup size mismatch: header says %d, got %d", size, len(data))
	}

	s := &Skeleton{
		OriginX:  int(int16(le.Uint16(data[12:]))),
		OriginY:  int(int16(le.Uint16(data[14:]))),
		Width:    int(le.Uint16(data[16:])),
		Height:   int(le.Uint16(data[18:])),
		BustupID: le.Uint32(data[20:]),
		data:     data,
	}
	baseCount := int(le.Uint32(data[24:]))
	expressionCount := int(le.Uint32(data[28:]))

	r := &skeletonReader{data: data, pos: headerSize}
	base, err := s.internList(r, baseCount)
	if err != nil {
		return nil, err
	}
	s.Base = base

	for i := 0; i < expressionCount; i++ {
		name := r.str()
		face1Off, face1Size := r.u32(), r.u32()
		face2Off, face2Size := r.u32(), r.u32()
		mouthCount := int(r.u16())
		eyeCount := int(r.u16())
		if r.err != nil {
			return nil, r.err
		}
		face1, err := s.intern(face1Off, face1Size)
		if err != nil {
			return nil, err
		}
		face2, err := s.intern(face2Off, face2Size)
		if err != nil {
			return nil, err
		}
		mouths, err := s.internList(r, mouthCount)
		if err != nil {
			return nil, err
		}
		eyes, err := s.internList(r, eyeCount)
		if err != nil {
			return nil, err
		}
		s.Expressions = append(s.Expressions, Expression{
			Name:   name,
			Face1:  face1,
			Face2:  face2,
			Mouths: mouths,
			Eyes:   eyes,
		})
	}
	return s, nil
}

// BlockCount is the number of unique blocks in the file.
func (s *Skeleton) BlockCount() int {
	return len(s.blocks)
}

// DecodeBlock decodes one unique block. Pixels outside the block's
// opacity meshes are cleared, since shared blocks may carry stale data
// there.
func (s *Skeleton) DecodeBlock(id BlockID) (picture.Chunk, error) {
	if id < 0 || int(id) >= len(s.blocks) {
		return picture.Chunk{}, fmt.Errorf("bustup block id %d out of range", id)
	}
	b := s.blocks[id]
	chunk, err := picture.DecodeChunk(s.data[b.offset : b.offset+b.size])
	if err != nil {
		return picture.Chunk{}, fmt.Errorf("bustup block at %#x: %w", b.offset, err)
	}
	clearUnusedAreas(&chunk)
	return chunk, nil
}

// decodeAll decodes every unique block exactly once.
func (s *Skeleton) decodeAll() ([]picture.Chunk, error) {
	chunks := make([]picture.Chunk, len(s.blocks))
	errs := make([]error, len(s.blocks))
	var wg sync.WaitGroup
	for i := range s.blocks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chunks[i], errs[i] = s.DecodeBlock(BlockID(i))
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

// Decode parses a bustup and decodes all of its blocks, compositing
// the base image.
func Decode(data []byte) (*Bustup, error) {
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	chunks, err := s.decodeAll()
	if err != nil {
		return nil, err
	}

	base := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	for _, id := range s.Base {
		chunk := chunks[id]
		at := image.Pt(chunk.OffsetX, chunk.OffsetY)
		draw.Draw(base, chunk.Image.Rect.Add(at), chunk.Image, chunk.Image.Rect.Min, draw.Over)
	}

	pick := func(id BlockID) *picture.Chunk {
		if id == NoBlock {
			return nil
		}
		c := chunks[id]
		return &c
	}
	pickList := func(ids []BlockID) []picture.Chunk {
		out := make([]picture.Chunk, len(ids))
		for i, id := range ids {
			out[i] = chunks[id]
		}
		return out
	}

	expressions := make([]DecodedExpression, len(s.Expressions))
	for i, e := range s.Expressions {
		expressions[i] = DecodedExpression{
			Name:   e.Name,
			Face1:  pick(e.Face1),
			Face2:  pick(e.Face2),
			Mouths: pickList(e.Mouths),
			Eyes:   pickList(e.Eyes),
		}
	}

	return &Bustup{
		Image:       base,
		OriginX:     s.OriginX,
		OriginY:     s.OriginY,
		BustupID:    s.BustupID,
		Expressions: expressions,
	}, nil
}

// clearUnusedAreas zeroes pixels not covered by the opacity meshes.
func clearUnusedAreas(chunk *picture.Chunk) {
	img := chunk.Image
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	if width == 0 || height == 0 {
		return
	}

	covered := make([]bool, width*height)
	mark := func(vs []picture.Vertex) {
		for _, v := range vs {
			toX := min(int(v.ToX), width-1)
			toY := min(int(v.ToY), height-1)
			for y := int(v.FromY); y < toY; y++ {
				for x := int(v.FromX); x < toX; x++ {
					covered[y*width+x] = true
				}
			}
		}
	}
	mark(chunk.OpaqueVertices)
	mark(chunk.TransparentVertices)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !covered[y*width+x] {
				i := y*img.Stride + x*4
				img.Pix[i+0] = 0
				img.Pix[i+1] = 0
				img.Pix[i+2] = 0
				img.Pix[i+3] = 0
			}
		}
	}
}
