// Package render is the engine's abstraction over the GPU: typed render
// requests, a blend-type table, stencil bookkeeping for the two-pass
// compositor and a dynamic buffer for per-draw uniform data.
package render

import (
	"github.com/gogpu/gputypes"
)

// Formats shared by every render target.
const (
	TextureFormat      = gputypes.TextureFormatRGBA8Unorm
	DepthStencilFormat = gputypes.TextureFormatDepth24PlusStencil8
)

// Virtual canvas coordinate space. The game positions everything on a
// 1920x1080 canvas with the origin in the center and Y going down.
const (
	VirtualCanvasWidth  = 1920.0
	VirtualCanvasHeight = 1080.0
)

// PassKind tells which of the two main passes a draw belongs to.
type PassKind int

const (
	PassOpaque PassKind = iota
	PassTransparent
)

func (k PassKind) String() string {
	if k == PassOpaque {
		return "Opaque"
	}
	return "Transparent"
}

// LayerShaderOutputKind selects how the layer shader emits alpha.
type LayerShaderOutputKind uint32

const (
	LayerOutputPlain LayerShaderOutputKind = iota
	LayerOutputPremultiply
	LayerOutputDiscard
)

// LayerBlendType is the blend tag carried by layer properties.
type LayerBlendType int

const (
	LayerBlendType1 LayerBlendType = iota
	LayerBlendType2
	LayerBlendType3
)

// ColorBlendType selects an entry of the fixed blend table.
type ColorBlendType int

const (
	BlendNoColor ColorBlendType = iota
	BlendOpaque
	BlendLayer1
	BlendLayer2
	BlendLayer3
	BlendLayerPremultiplied1
	BlendLayerPremultiplied2
	BlendLayerPremultiplied3
)

// BlendFromRegularLayer maps a layer blend tag to the straight-alpha
// blend table entries.
func BlendFromRegularLayer(t LayerBlendType) ColorBlendType {
	switch t {
	case LayerBlendType2:
		return BlendLayer2
	case LayerBlendType3:
		return BlendLayer3
	default:
		return BlendLayer1
	}
}

// BlendFromPremultipliedLayer maps a layer blend tag to the
// premultiplied-alpha blend table entries.
func BlendFromPremultipliedLayer(t LayerBlendType) ColorBlendType {
	switch t {
	case LayerBlendType2:
		return BlendLayerPremultiplied2
	case LayerBlendType3:
		return BlendLayerPremultiplied3
	default:
		return BlendLayerPremultiplied1
	}
}

// CullFace selects which triangle faces get culled.
type CullFace int

const (
	CullNone CullFace = iota
	CullBack
	CullFront
)

// DrawPrimitive is the draw topology of a request.
type DrawPrimitive int

const (
	PrimitiveTriangles DrawPrimitive = iota
	PrimitiveTrianglesStrip
)

// WiperKind selects the transition effect shader family.
type WiperKind int

const (
	WiperDefault WiperKind = iota
	WiperMask
	WiperWave
	WiperRipple
	WiperWhirl
	WiperGlass
)
