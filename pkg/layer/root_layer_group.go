package layer

import (
	"github.com/DCNick3/shin-sub001/pkg/render"
)

// RootLayerGroup is the top of the scene graph: the screen layer with
// all user layers below it and the message layer on top.
type RootLayerGroup struct {
	props   *Properties
	screen  *ScreenLayer
	message *MessageLayer
}

func NewRootLayerGroup(screen *ScreenLayer, message *MessageLayer) *RootLayerGroup {
	return &RootLayerGroup{
		props:   NewProperties(),
		screen:  screen,
		message: message,
	}
}

func (g *RootLayerGroup) Screen() *ScreenLayer   { return g.screen }
func (g *RootLayerGroup) Message() *MessageLayer { return g.message }

func (g *RootLayerGroup) Properties() *Properties { return g.props }

func (g *RootLayerGroup) Update(ctx *UpdateContext) {
	g.props.Update(ctx.Delta)
	g.screen.Update(ctx)
	g.message.Update(ctx)
}

func (g *RootLayerGroup) FastForward() {
	g.props.FastForward()
	g.screen.FastForward()
	g.message.FastForward()
}

func (g *RootLayerGroup) PreRender(ctx *PreRenderContext, parent *TransformParams) error {
	selfTransform := g.props.ComposedTransformParams(parent)
	if err := g.screen.PreRender(ctx, &selfTransform); err != nil {
		return err
	}
	return g.message.PreRender(ctx, &selfTransform)
}

func (g *RootLayerGroup) Render(pass *render.RenderPass, parent *TransformParams,
	stencilRef uint8, passKind render.PassKind) error {
	selfTransform := g.props.ComposedTransformParams(parent)
	return renderChildPhases(pass, &selfTransform,
		[]Layer{g.screen, g.message}, stencilRef, passKind)
}

func (g *RootLayerGroup) StencilBump() uint8 {
	bump := saturatingAddU8(1, g.screen.StencilBump())
	return saturatingAddU8(bump, g.message.StencilBump())
}

// RenderClone exists to satisfy Layer; the root is never snapshotted,
// transitions happen below it at the screen layer.
func (g *RootLayerGroup) RenderClone() Layer {
	return &RootLayerGroup{
		props:   g.props.Clone(),
		screen:  g.screen.RenderClone().(*ScreenLayer),
		message: g.message.RenderClone().(*MessageLayer),
	}
}
