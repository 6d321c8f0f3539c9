package layer

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"

	"github.com/DCNick3/shin-sub001/pkg/format/picture"
	"github.com/DCNick3/shin-sub001/pkg/render"
)

// GpuPictureBlock is one uploaded picture tile with its opacity mesh
// baked into vertex data. Opaque rects come first so a pass can draw a
// contiguous slice.
type GpuPictureBlock struct {
	texture     *render.Texture
	positionX   float32
	positionY   float32
	vertices    []render.PosTexVertex
	opaqueCount int
}

// OpaqueVertexCount returns the vertex count of the opaque mesh part.
func (b *GpuPictureBlock) OpaqueVertexCount() int { return b.opaqueCount }

// TransparentVertexCount returns the vertex count of the transparent
// mesh part.
func (b *GpuPictureBlock) TransparentVertexCount() int { return len(b.vertices) - b.opaqueCount }

// GpuPicture is a PIC4 file uploaded to the GPU tile by tile, keeping
// the per-tile opacity meshes for two-pass rendering.
type GpuPicture struct {
	originX float32
	originY float32
	blocks  []*GpuPictureBlock
}

// NewGpuPicture decodes a PIC4 file and uploads every tile.
func NewGpuPicture(device hal.Device, queue hal.Queue, data []byte, label string) (*GpuPicture, error) {
	info, err := picture.DecodeInfo(data)
	if err != nil {
		return nil, err
	}
	positions, chunks, err := picture.DecodeChunks(data)
	if err != nil {
		return nil, err
	}

	pic := &GpuPicture{
		originX: float32(info.OriginX),
		originY: float32(info.OriginY),
	}
	for i, chunk := range chunks {
		block, err := newGpuPictureBlock(device, queue, chunk,
			fmt.Sprintf("%s/block%d", label, i))
		if err != nil {
			pic.Destroy(device)
			return nil, err
		}
		block.positionX = float32(positions[i].X)
		block.positionY = float32(positions[i].Y)
		pic.blocks = append(pic.blocks, block)
	}
	return pic, nil
}

// NewGpuPictureBlock uploads a single decoded tile.
func newGpuPictureBlock(device hal.Device, queue hal.Queue, chunk picture.Chunk, label string) (*GpuPictureBlock, error) {
	img := chunk.Image
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	tex, err := render.NewTextureFromRGBA(device, queue,
		uint32(w), uint32(h), packedRGBA(img), label)
	if err != nil {
		return nil, err
	}

	block := &GpuPictureBlock{texture: tex}
	for _, v := range chunk.OpaqueVertices {
		block.vertices = appendRectVertices(block.vertices, v, w, h)
	}
	block.opaqueCount = len(block.vertices)
	for _, v := range chunk.TransparentVertices {
		block.vertices = appendRectVertices(block.vertices, v, w, h)
	}
	return block, nil
}

// appendRectVertices emits one mesh rect as two triangles, positions in
// tile-local pixels and texture coordinates normalized.
func appendRectVertices(dst []render.PosTexVertex, v picture.Vertex, w, h int) []render.PosTexVertex {
	x1, y1 := float32(v.FromX), float32(v.FromY)
	x2, y2 := float32(v.ToX), float32(v.ToY)
	u1, v1 := x1/float32(w), y1/float32(h)
	u2, v2 := x2/float32(w), y2/float32(h)

	vertex := func(x, y, u, v float32) render.PosTexVertex {
		return render.PosTexVertex{
			Position:        mgl32.Vec3{x, y, 0},
			TexturePosition: mgl32.Vec2{u, v},
		}
	}
	return append(dst,
		vertex(x1, y1, u1, v1),
		vertex(x2, y1, u2, v1),
		vertex(x1, y2, u1, v2),
		vertex(x2, y1, u2, v1),
		vertex(x2, y2, u2, v2),
		vertex(x1, y2, u1, v2),
	)
}

// Destroy frees every tile texture.
func (p *GpuPicture) Destroy(device hal.Device) {
	for _, block := range p.blocks {
		block.texture.Destroy(device)
	}
	p.blocks = nil
}

// packedRGBA returns the pixel data with rows tightly packed.
func packedRGBA(img *image.NRGBA) []byte {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	if img.Stride == w*4 && len(img.Pix) == w*h*4 {
		return img.Pix
	}
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		copy(out[y*w*4:(y+1)*w*4], img.Pix[y*img.Stride:y*img.Stride+w*4])
	}
	return out
}
