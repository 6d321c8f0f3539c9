package render

// RenderRequest is one fully-described draw handed to a render pass.
type RenderRequest struct {
	DepthStencil DepthStencilState
	ColorBlend   ColorBlendType
	CullFace     CullFace
	Primitive    DrawPrimitive
	Invocation   ProgramInvocation
}

// RenderRequestBuilder accumulates the fixed-function state of a draw
// before the program is attached. The zero value is not useful; start
// from NewRenderRequestBuilder.
type RenderRequestBuilder struct {
	depthStencil DepthStencilState
	colorBlend   ColorBlendType
	cullFace     CullFace
}

// NewRenderRequestBuilder returns a builder with no depth or stencil
// testing, opaque color output and no culling.
func NewRenderRequestBuilder() RenderRequestBuilder {
	return RenderRequestBuilder{
		depthStencil: DefaultDepthStencilState(),
		colorBlend:   BlendOpaque,
		cullFace:     CullNone,
	}
}

// DepthStencil replaces the depth-stencil state.
func (b RenderRequestBuilder) DepthStencil(state DepthStencilState) RenderRequestBuilder {
	b.depthStencil = state
	return b
}

// DepthStencilShorthand applies the compositor's standard stencil
// setup, see DepthStencilShorthand.
func (b RenderRequestBuilder) DepthStencilShorthand(stencilRef uint8, allowEqStencil, testDepth bool) RenderRequestBuilder {
	b.depthStencil = DepthStencilShorthand(stencilRef, allowEqStencil, testDepth)
	return b
}

// ColorBlendType sets the blend table entry directly.
func (b RenderRequestBuilder) ColorBlendType(t ColorBlendType) RenderRequestBuilder {
	b.colorBlend = t
	return b
}

// LayerColorBlend maps a layer blend property value to its
// straight-alpha blend entry.
func (b RenderRequestBuilder) LayerColorBlend(t LayerBlendType) RenderRequestBuilder {
	b.colorBlend = BlendFromRegularLayer(t)
	return b
}

// LayerColorBlendPremultiplied maps a layer blend property value to its
// premultiplied-alpha blend entry.
func (b RenderRequestBuilder) LayerColorBlendPremultiplied(t LayerBlendType) RenderRequestBuilder {
	b.colorBlend = BlendFromPremultipliedLayer(t)
	return b
}

// CullFaces sets which faces are culled.
func (b RenderRequestBuilder) CullFaces(f CullFace) RenderRequestBuilder {
	b.cullFace = f
	return b
}

// Build attaches a program invocation and primitive and produces the
// final request.
func (b RenderRequestBuilder) Build(invocation ProgramInvocation, primitive DrawPrimitive) RenderRequest {
	return RenderRequest{
		DepthStencil: b.depthStencil,
		ColorBlend:   b.colorBlend,
		CullFace:     b.cullFace,
		Primitive:    primitive,
		Invocation:   invocation,
	}
}
