package layer

import (
	"github.com/DCNick3/shin-sub001/pkg/render"
)

// NullLayer occupies a layerbank slot without drawing anything. Scripts
// use it as a placeholder and as a property animation target.
type NullLayer struct {
	props *Properties
}

func NewNullLayer() *NullLayer {
	return &NullLayer{props: NewProperties()}
}

func (l *NullLayer) Properties() *Properties { return l.props }

func (l *NullLayer) Update(ctx *UpdateContext) {
	l.props.Update(ctx.Delta)
}

func (l *NullLayer) FastForward() {
	l.props.FastForward()
}

func (l *NullLayer) PreRender(_ *PreRenderContext, _ *TransformParams) error {
	return nil
}

func (l *NullLayer) Render(_ *render.RenderPass, _ *TransformParams, _ uint8, _ render.PassKind) error {
	return nil
}

func (l *NullLayer) StencilBump() uint8 { return 1 }

func (l *NullLayer) RenderClone() Layer {
	return &NullLayer{props: l.props.Clone()}
}
