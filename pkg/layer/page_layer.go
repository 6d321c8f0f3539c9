package layer

import (
	"fmt"

	"github.com/DCNick3/shin-sub001/pkg/render"
)

// PlaneCount is the number of independent layer planes a page holds.
const PlaneCount = 4

// PageLayer stacks the four layer planes scripts draw into. Plane 0 is
// the bottom.
type PageLayer struct {
	props  *Properties
	state  DrawableState
	planes [PlaneCount]*LayerGroup
}

func NewPageLayer() *PageLayer {
	p := &PageLayer{
		props: NewProperties(),
		state: NewDrawableState(),
	}
	for i := range p.planes {
		p.planes[i] = NewLayerGroup(fmt.Sprintf("plane%d", i))
	}
	return p
}

// Plane returns the layer group of one plane.
func (p *PageLayer) Plane(index int) *LayerGroup {
	return p.planes[index]
}

func (p *PageLayer) children() []Layer {
	children := make([]Layer, PlaneCount)
	for i, plane := range p.planes {
		children[i] = plane
	}
	return children
}

func (p *PageLayer) Properties() *Properties { return p.props }

func (p *PageLayer) Update(ctx *UpdateContext) {
	p.props.Update(ctx.Delta)
	for _, plane := range p.planes {
		plane.Update(ctx)
	}
}

func (p *PageLayer) FastForward() {
	p.props.FastForward()
	for _, plane := range p.planes {
		plane.FastForward()
	}
}

func (p *PageLayer) PreRender(ctx *PreRenderContext, parent *TransformParams) error {
	selfTransform := p.props.ComposedTransformParams(parent)
	for _, plane := range p.planes {
		if err := plane.PreRender(ctx, &selfTransform); err != nil {
			return err
		}
	}
	return p.state.PreRender(ctx, p.props, p, parent)
}

func (p *PageLayer) Render(pass *render.RenderPass, parent *TransformParams,
	stencilRef uint8, passKind render.PassKind) error {
	return p.state.Render(p.props, p, pass, parent, stencilRef, passKind)
}

func (p *PageLayer) StencilBump() uint8 {
	var bump uint8 = 1
	for _, plane := range p.planes {
		bump = saturatingAddU8(bump, plane.StencilBump())
	}
	return bump
}

func (p *PageLayer) RenderClone() Layer {
	c := &PageLayer{
		props: p.props.Clone(),
		state: NewDrawableState(),
	}
	for i, plane := range p.planes {
		c.planes[i] = plane.RenderClone().(*LayerGroup)
	}
	return c
}

func (p *PageLayer) NeedsSeparatePass(props *Properties) bool {
	return props.ClipModeValue() != ClipNone ||
		props.IsFragmentShaderNontrivial() ||
		props.IsBlendingNontrivial()
}

func (p *PageLayer) RenderIndirect(ctx *PreRenderContext, props *Properties,
	target render.TextureTarget, transform *TransformParams) (render.PassKind, error) {
	return renderIndirectDirectDraws(ctx, props, p, target, transform, "page_layer")
}

func (p *PageLayer) RenderDirect(pass *render.RenderPass, transform *TransformParams,
	_ *DrawableParams, clip *ClipParams, stencilRef uint8, passKind render.PassKind) error {
	if clip.Mode != ClipNone {
		return errClipUnsupported
	}
	return renderChildPhases(pass, transform, p.children(), stencilRef, passKind)
}

// renderChildPhases issues one phase of the two-pass walk over ordered
// children: front to back for the opaque phase, back to front for the
// transparent one.
func renderChildPhases(pass *render.RenderPass, transform *TransformParams,
	children []Layer, base uint8, passKind render.PassKind) error {
	refs := stencilRefs(base, children)
	if passKind == render.PassOpaque {
		for i := len(children) - 1; i >= 0; i-- {
			if err := children[i].Render(pass, transform, refs[i], passKind); err != nil {
				return err
			}
		}
		return nil
	}
	for i, l := range children {
		if err := l.Render(pass, transform, refs[i], passKind); err != nil {
			return err
		}
	}
	return nil
}
