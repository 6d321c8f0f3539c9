package render

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// VertexFormat names one of the closed set of vertex layouts.
type VertexFormat int

const (
	FormatPos VertexFormat = iota
	FormatPosCol
	FormatPosColTex
	FormatPosTex
	FormatText
	FormatMask
	FormatBlend
	FormatWindow
	FormatMovie
)

// Vertex is implemented by every vertex type: it can describe its GPU
// layout and append its data to a staging slice.
type Vertex interface {
	Format() VertexFormat
	append(dst []byte) []byte
}

// PosVertex carries only a position.
type PosVertex struct {
	Position mgl32.Vec3
}

// PosColVertex carries a position and a packed color.
type PosColVertex struct {
	Position mgl32.Vec3
	Color    UnormColor
}

// PosColTexVertex carries position, packed color and texture
// coordinates.
type PosColTexVertex struct {
	Position mgl32.Vec3
	Color    UnormColor
	TexturePosition mgl32.Vec2
}

// PosTexVertex carries a position and texture coordinates.
type PosTexVertex struct {
	Position        mgl32.Vec3
	TexturePosition mgl32.Vec2
}

// TextVertex is used by the font programs.
type TextVertex struct {
	Position        mgl32.Vec2
	TexturePosition mgl32.Vec2
	Color           mgl32.Vec3
}

// MaskVertex samples both the layer texture and the mask texture.
type MaskVertex struct {
	Position        mgl32.Vec2
	TexturePosition mgl32.Vec2
	MaskPosition    mgl32.Vec2
}

func (PosVertex) Format() VertexFormat       { return FormatPos }
func (PosColVertex) Format() VertexFormat    { return FormatPosCol }
func (PosColTexVertex) Format() VertexFormat { return FormatPosColTex }
func (PosTexVertex) Format() VertexFormat    { return FormatPosTex }
func (TextVertex) Format() VertexFormat      { return FormatText }
func (MaskVertex) Format() VertexFormat      { return FormatMask }

func appendF32(dst []byte, vs ...float32) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

func (v PosVertex) append(dst []byte) []byte {
	return appendF32(dst, v.Position.X(), v.Position.Y(), v.Position.Z())
}

func (v PosColVertex) append(dst []byte) []byte {
	dst = appendF32(dst, v.Position.X(), v.Position.Y(), v.Position.Z())
	return binary.LittleEndian.AppendUint32(dst, uint32(v.Color))
}

func (v PosColTexVertex) append(dst []byte) []byte {
	dst = appendF32(dst, v.Position.X(), v.Position.Y(), v.Position.Z())
	dst = binary.LittleEndian.AppendUint32(dst, uint32(v.Color))
	return appendF32(dst, v.TexturePosition.X(), v.TexturePosition.Y())
}

func (v PosTexVertex) append(dst []byte) []byte {
	dst = appendF32(dst, v.Position.X(), v.Position.Y(), v.Position.Z())
	return appendF32(dst, v.TexturePosition.X(), v.TexturePosition.Y())
}

func (v TextVertex) append(dst []byte) []byte {
	dst = appendF32(dst, v.Position.X(), v.Position.Y())
	dst = appendF32(dst, v.TexturePosition.X(), v.TexturePosition.Y())
	return appendF32(dst, v.Color.X(), v.Color.Y(), v.Color.Z())
}

func (v MaskVertex) append(dst []byte) []byte {
	dst = appendF32(dst, v.Position.X(), v.Position.Y())
	dst = appendF32(dst, v.TexturePosition.X(), v.TexturePosition.Y())
	return appendF32(dst, v.MaskPosition.X(), v.MaskPosition.Y())
}

// VertexSource is a slice of vertices for one draw.
type VertexSource[V Vertex] struct {
	Vertices []V
}

// VertexData wraps a vertex slice as a draw source.
func VertexData[V Vertex](vertices []V) VertexSource[V] {
	return VertexSource[V]{Vertices: vertices}
}

// Count returns the number of vertices.
func (s VertexSource[V]) Count() int { return len(s.Vertices) }

// Bytes encodes the vertices into a little-endian staging buffer.
func (s VertexSource[V]) Bytes() []byte {
	var zero V
	dst := make([]byte, 0, len(s.Vertices)*vertexStride(zero.Format()))
	for _, v := range s.Vertices {
		dst = v.append(dst)
	}
	return dst
}

func vertexStride(f VertexFormat) int {
	switch f {
	case FormatPos:
		return 12
	case FormatPosCol:
		return 16
	case FormatPosColTex:
		return 24
	case FormatPosTex:
		return 20
	case FormatText:
		return 28
	case FormatMask:
		return 24
	default:
		return 0
	}
}

// layout returns the GPU vertex buffer layout of a format.
func (f VertexFormat) layout() gputypes.VertexBufferLayout {
	attr := func(format gputypes.VertexFormat, offset uint64, location uint32) gputypes.VertexAttribute {
		return gputypes.VertexAttribute{Format: format, Offset: offset, ShaderLocation: location}
	}
	switch f {
	case FormatPos:
		return gputypes.VertexBufferLayout{
			ArrayStride: 12,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				attr(gputypes.VertexFormatFloat32x3, 0, 0),
			},
		}
	case FormatPosCol:
		return gputypes.VertexBufferLayout{
			ArrayStride: 16,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				attr(gputypes.VertexFormatFloat32x3, 0, 0),
				attr(gputypes.VertexFormatUnorm8x4, 12, 1),
			},
		}
	case FormatPosColTex:
		return gputypes.VertexBufferLayout{
			ArrayStride: 24,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				attr(gputypes.VertexFormatFloat32x3, 0, 0),
				attr(gputypes.VertexFormatUnorm8x4, 12, 1),
				attr(gputypes.VertexFormatFloat32x2, 16, 2),
			},
		}
	case FormatPosTex:
		return gputypes.VertexBufferLayout{
			ArrayStride: 20,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				attr(gputypes.VertexFormatFloat32x3, 0, 0),
				attr(gputypes.VertexFormatFloat32x2, 12, 1),
			},
		}
	case FormatText:
		return gputypes.VertexBufferLayout{
			ArrayStride: 28,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				attr(gputypes.VertexFormatFloat32x2, 0, 0),
				attr(gputypes.VertexFormatFloat32x2, 8, 1),
				attr(gputypes.VertexFormatFloat32x3, 16, 2),
			},
		}
	case FormatMask:
		return gputypes.VertexBufferLayout{
			ArrayStride: 24,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				attr(gputypes.VertexFormatFloat32x2, 0, 0),
				attr(gputypes.VertexFormatFloat32x2, 8, 1),
				attr(gputypes.VertexFormatFloat32x2, 16, 2),
			},
		}
	default:
		return gputypes.VertexBufferLayout{}
	}
}
