package layer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/DCNick3/shin-sub001/pkg/render"
	"github.com/DCNick3/shin-sub001/pkg/tick"
)

// MovieFrame is one decoded video frame ready to draw: planar YUV
// textures plus the colorspace conversion for the movie program.
type MovieFrame struct {
	Luma   render.TextureSource
	Chroma render.TextureSource
	Width  float32
	Height float32

	ColorBias      mgl32.Vec4
	ColorTransform [3]mgl32.Vec4
}

// FrameSource feeds decoded frames to a movie layer. The video player
// implements it; playback and decoding run on their own goroutines.
type FrameSource interface {
	// Update advances the playback clock and uploads a new frame when
	// one is due.
	Update(delta tick.Ticks)
	// CurrentFrame returns the frame to draw, if one is available yet.
	CurrentFrame() (MovieFrame, bool)
	IsFinished() bool
}

// MovieTransparency is how a movie's alpha is interpreted.
type MovieTransparency int

const (
	MovieOpaque MovieTransparency = iota
	MovieTransparent
)

// MovieLayer draws video frames, converting YUV to RGB in the main
// pass.
type MovieLayer struct {
	props        *Properties
	state        DrawableState
	source       FrameSource
	label        string
	transparency MovieTransparency
}

func NewMovieLayer(source FrameSource, name string, transparency MovieTransparency) *MovieLayer {
	if name == "" {
		name = "unnamed"
	}
	return &MovieLayer{
		props:        NewProperties(),
		state:        NewDrawableState(),
		source:       source,
		label:        name,
		transparency: transparency,
	}
}

// IsFinished reports whether playback has reached the end.
func (l *MovieLayer) IsFinished() bool { return l.source.IsFinished() }

func (l *MovieLayer) Properties() *Properties { return l.props }

func (l *MovieLayer) Update(ctx *UpdateContext) {
	l.props.Update(ctx.Delta)
	l.source.Update(ctx.Delta)
}

func (l *MovieLayer) FastForward() {
	l.props.FastForward()
}

func (l *MovieLayer) PreRender(ctx *PreRenderContext, parent *TransformParams) error {
	return l.state.PreRender(ctx, l.props, l, parent)
}

func (l *MovieLayer) Render(pass *render.RenderPass, parent *TransformParams,
	stencilRef uint8, passKind render.PassKind) error {
	return l.state.Render(l.props, l, pass, parent, stencilRef, passKind)
}

func (l *MovieLayer) StencilBump() uint8 { return 1 }

func (l *MovieLayer) RenderClone() Layer {
	return &MovieLayer{
		props:        l.props.Clone(),
		state:        NewDrawableState(),
		source:       l.source,
		label:        l.label,
		transparency: l.transparency,
	}
}

// NeedsSeparatePass forces an offscreen pass when the movie quad needs
// effects the movie program cannot express.
func (l *MovieLayer) NeedsSeparatePass(props *Properties) bool {
	return props.ClipModeValue() != ClipNone ||
		props.IsFragmentShaderNontrivial() ||
		props.IsBlendingNontrivial()
}

func (l *MovieLayer) RenderIndirect(ctx *PreRenderContext, props *Properties,
	target render.TextureTarget, transform *TransformParams) (render.PassKind, error) {
	return renderIndirectDirectDraws(ctx, props, l, target, transform, "movie_layer")
}

func (l *MovieLayer) RenderDirect(pass *render.RenderPass, transform *TransformParams,
	drawable *DrawableParams, _ *ClipParams, stencilRef uint8, passKind render.PassKind) error {
	targetPass := render.PassOpaque
	if l.transparency != MovieOpaque ||
		drawable.BlendType != render.LayerBlendType1 ||
		drawable.ColorMultiplier.A < 1 {
		targetPass = render.PassTransparent
	}
	if passKind != targetPass {
		return nil
	}

	frame, ok := l.source.CurrentFrame()
	if !ok {
		return nil
	}

	blend := render.BlendOpaque
	if passKind == render.PassTransparent {
		blend = render.BlendFromRegularLayer(drawable.BlendType)
	}

	finalTransform := transform.FinalTransform().
		Mul4(mgl32.Translate3D(-render.VirtualCanvasWidth/2, -render.VirtualCanvasHeight/2, 0))

	quad := render.NewQuadVertices().WithBox(0, 0, frame.Width, frame.Height)
	req := render.NewRenderRequestBuilder().
		DepthStencilShorthand(stencilRef, false, false).
		ColorBlendType(blend).
		Build(render.ProgramInvocation{
			Program: render.ProgramMovie,
			Movie: &render.MovieProgram{
				Vertices:       render.VertexData(quad.IntoPosTex()),
				TextureLuma:    frame.Luma,
				TextureChroma:  frame.Chroma,
				Transform:      finalTransform,
				ColorBias:      frame.ColorBias,
				ColorTransform: frame.ColorTransform,
			},
		}, render.PrimitiveTrianglesStrip)
	return pass.Run(req)
}
