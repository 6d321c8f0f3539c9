package render

import "github.com/go-gl/mathgl/mgl32"

// FloatColor4 is a straight-alpha RGBA color with float channels.
type FloatColor4 struct {
	R, G, B, A float32
}

var (
	ColorWhite = FloatColor4{1, 1, 1, 1}
	ColorBlack = FloatColor4{0, 0, 0, 1}
)

// ColorFromVec4 builds a color from an (r, g, b, a) vector.
func ColorFromVec4(v mgl32.Vec4) FloatColor4 {
	return FloatColor4{R: v.X(), G: v.Y(), B: v.Z(), A: v.W()}
}

// Vec4 returns the color as an (r, g, b, a) vector.
func (c FloatColor4) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// Mul multiplies two colors channel-wise.
func (c FloatColor4) Mul(o FloatColor4) FloatColor4 {
	return FloatColor4{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}

// Premultiply folds the alpha into the color channels.
func (c FloatColor4) Premultiply() FloatColor4 {
	return FloatColor4{c.R * c.A, c.G * c.A, c.B * c.A, c.A}
}

// Unorm packs the color into 8-bit RGBA, clamping each channel.
func (c FloatColor4) Unorm() UnormColor {
	pack := func(v float32) uint32 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint32(v*255 + 0.5)
	}
	return UnormColor(pack(c.R) | pack(c.G)<<8 | pack(c.B)<<16 | pack(c.A)<<24)
}

// UnormColor is a packed 8-bit RGBA color, red in the low byte.
type UnormColor uint32

const (
	UnormWhite UnormColor = 0xffffffff
	UnormBlack UnormColor = 0xff000000
)

// Float returns the unpacked straight-alpha color.
func (c UnormColor) Float() FloatColor4 {
	return FloatColor4{
		R: float32(c&0xff) / 255,
		G: float32(c>>8&0xff) / 255,
		B: float32(c>>16&0xff) / 255,
		A: float32(c>>24&0xff) / 255,
	}
}

// UnormColorFromProperty decodes the 4bpp tile color property: one hex
// digit per channel in ARGB order, each scaled to 8 bits.
func UnormColorFromProperty(v int32) UnormColor {
	expand := func(nibble int32) uint32 {
		n := uint32(nibble & 0xf)
		return n<<4 | n
	}
	return UnormColor(
		expand(v>>8) |
			expand(v>>4)<<8 |
			expand(v)<<16 |
			expand(v>>12)<<24)
}
