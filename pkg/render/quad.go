package render

import "github.com/go-gl/mathgl/mgl32"

// QuadVertices builds the four corners of an axis-aligned quad in the
// triangle-strip order the pipelines expect: top-left, top-right,
// bottom-left, bottom-right.
type QuadVertices struct {
	positions [4]mgl32.Vec2
	texCoords [4]mgl32.Vec2
}

// NewQuadVertices returns a unit quad covering [0, 1] in both position
// and texture space.
func NewQuadVertices() QuadVertices {
	unit := [4]mgl32.Vec2{
		{0, 0},
		{1, 0},
		{0, 1},
		{1, 1},
	}
	return QuadVertices{positions: unit, texCoords: unit}
}

// WithBox places the quad corners at the given position rectangle.
func (q QuadVertices) WithBox(x1, y1, x2, y2 float32) QuadVertices {
	q.positions = [4]mgl32.Vec2{
		{x1, y1},
		{x2, y1},
		{x1, y2},
		{x2, y2},
	}
	return q
}

// WithTexBox places the texture coordinates at the given rectangle.
func (q QuadVertices) WithTexBox(x1, y1, x2, y2 float32) QuadVertices {
	q.texCoords = [4]mgl32.Vec2{
		{x1, y1},
		{x2, y1},
		{x1, y2},
		{x2, y2},
	}
	return q
}

// IntoPosTex converts the quad into textured strip vertices.
func (q QuadVertices) IntoPosTex() []PosTexVertex {
	out := make([]PosTexVertex, 4)
	for i := range out {
		out[i] = PosTexVertex{
			Position:        mgl32.Vec3{q.positions[i].X(), q.positions[i].Y(), 0},
			TexturePosition: q.texCoords[i],
		}
	}
	return out
}

// IntoPosCol converts the quad into flat-colored strip vertices.
func (q QuadVertices) IntoPosCol(color UnormColor) []PosColVertex {
	out := make([]PosColVertex, 4)
	for i := range out {
		out[i] = PosColVertex{
			Position: mgl32.Vec3{q.positions[i].X(), q.positions[i].Y(), 0},
			Color:    color,
		}
	}
	return out
}

// IntoPosColTex converts the quad into textured, flat-colored strip
// vertices for the sprite program.
func (q QuadVertices) IntoPosColTex(color UnormColor) []PosColTexVertex {
	out := make([]PosColTexVertex, 4)
	for i := range out {
		out[i] = PosColTexVertex{
			Position:        mgl32.Vec3{q.positions[i].X(), q.positions[i].Y(), 0},
			Color:           color,
			TexturePosition: q.texCoords[i],
		}
	}
	return out
}

// IntoPos converts the quad into bare strip vertices.
func (q QuadVertices) IntoPos() []PosVertex {
	out := make([]PosVertex, 4)
	for i := range out {
		out[i] = PosVertex{Position: mgl32.Vec3{q.positions[i].X(), q.positions[i].Y(), 0}}
	}
	return out
}

// IntoMask converts the quad into mask vertices, reusing the texture
// coordinates for the mask texture.
func (q QuadVertices) IntoMask() []MaskVertex {
	out := make([]MaskVertex, 4)
	for i := range out {
		out[i] = MaskVertex{
			Position:        q.positions[i],
			TexturePosition: q.texCoords[i],
			MaskPosition:    q.texCoords[i],
		}
	}
	return out
}
