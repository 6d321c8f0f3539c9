package layer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/DCNick3/shin-sub001/pkg/render"
)

// TileLayer fills a rectangle with a flat color. Scripts use it for
// fades, flashes and solid backgrounds.
type TileLayer struct {
	props *Properties
	state DrawableState
	color render.FloatColor4
	// x, y is the top left corner; z, w is width and height.
	rect mgl32.Vec4
}

func NewTileLayer(color render.FloatColor4, rect mgl32.Vec4) *TileLayer {
	return &TileLayer{
		props: NewProperties(),
		state: NewDrawableState(),
		color: color,
		rect:  rect,
	}
}

func (l *TileLayer) Properties() *Properties { return l.props }

func (l *TileLayer) Update(ctx *UpdateContext) {
	l.props.Update(ctx.Delta)
}

func (l *TileLayer) FastForward() {
	l.props.FastForward()
}

func (l *TileLayer) PreRender(ctx *PreRenderContext, parent *TransformParams) error {
	return l.state.PreRender(ctx, l.props, l, parent)
}

func (l *TileLayer) Render(pass *render.RenderPass, parent *TransformParams,
	stencilRef uint8, passKind render.PassKind) error {
	return l.state.Render(l.props, l, pass, parent, stencilRef, passKind)
}

func (l *TileLayer) StencilBump() uint8 { return 1 }

func (l *TileLayer) RenderClone() Layer {
	return &TileLayer{
		props: l.props.Clone(),
		state: NewDrawableState(),
		color: l.color,
		rect:  l.rect,
	}
}

func (l *TileLayer) NeedsSeparatePass(_ *Properties) bool { return false }

func (l *TileLayer) RenderIndirect(ctx *PreRenderContext, props *Properties,
	target render.TextureTarget, transform *TransformParams) (render.PassKind, error) {
	return renderIndirectDirectDraws(ctx, props, l, target, transform, "tile_layer")
}

func (l *TileLayer) RenderDirect(pass *render.RenderPass, transform *TransformParams,
	drawable *DrawableParams, clip *ClipParams, stencilRef uint8, passKind render.PassKind) error {
	tinted := drawable.ColorMultiplier.Mul(l.color)
	fragmentShader := drawable.FragmentShader.Simplify(drawable.ShaderParam)

	if tinted.A <= 0 {
		return nil
	}

	targetPass := render.PassTransparent
	if drawable.BlendType == render.LayerBlendType1 && tinted.A >= 1 {
		targetPass = render.PassOpaque
	}
	if passKind != targetPass {
		return nil
	}

	if clip.Mode != ClipNone {
		return errClipUnsupported
	}

	blend := render.BlendOpaque
	if passKind == render.PassTransparent {
		blend = render.BlendFromRegularLayer(drawable.BlendType)
	}

	color := fragmentShader.Evaluate(tinted, drawable.ShaderParam).Unorm()

	quad := render.NewQuadVertices().
		WithBox(l.rect.X(), l.rect.Y(), l.rect.X()+l.rect.Z(), l.rect.Y()+l.rect.W())

	req := render.NewRenderRequestBuilder().
		DepthStencilShorthand(stencilRef, false, false).
		ColorBlendType(blend).
		Build(render.ProgramInvocation{
			Program: render.ProgramFill,
			Fill: &render.FillProgram{
				Vertices:  render.VertexData(quad.IntoPosCol(color)),
				Transform: transform.FinalTransform(),
			},
		}, render.PrimitiveTrianglesStrip)
	return pass.Run(req)
}
