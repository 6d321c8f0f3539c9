package layer

import (
	"errors"

	"github.com/DCNick3/shin-sub001/pkg/render"
)

// Clipped drawing needs a scissor path the renderer does not have yet.
var errClipUnsupported = errors.New("layer: clip rendering is not supported")

// Drawable is the capability set of a leaf layer: a direct draw into
// the current pass, and optionally an indirect draw into an offscreen
// target when effects or clipping require one.
type Drawable interface {
	// NeedsSeparatePass reports whether the layer must render through
	// an offscreen target even without active effects.
	NeedsSeparatePass(props *Properties) bool
	// RenderDirect issues draws for one pass kind.
	RenderDirect(pass *render.RenderPass, transform *TransformParams,
		drawable *DrawableParams, clip *ClipParams, stencilRef uint8, passKind render.PassKind) error
	// RenderIndirect draws the layer into an offscreen target and
	// returns the pass kind its composite quad belongs to.
	RenderIndirect(ctx *PreRenderContext, props *Properties,
		target render.TextureTarget, transform *TransformParams) (render.PassKind, error)
}

// DrawableState carries the offscreen targets a drawable layer uses
// when it cannot render directly.
type DrawableState struct {
	renderTextureSrc       *render.RenderTexture
	renderTexturePrevFrame *render.RenderTexture
	targetPass             render.PassKind
}

// NewDrawableState starts with no offscreen targets.
func NewDrawableState() DrawableState {
	return DrawableState{targetPass: render.PassTransparent}
}

// PrerenderedTexture returns the offscreen result of the pre-render
// walk, if the layer rendered indirectly.
func (s *DrawableState) PrerenderedTexture() (*render.RenderTexture, render.PassKind, bool) {
	if s.renderTextureSrc == nil {
		return nil, 0, false
	}
	return s.renderTextureSrc, s.targetPass, true
}

// IsRenderedOpaquely reports whether the layer's composite lands in
// the opaque pass.
func (s *DrawableState) IsRenderedOpaquely(props *Properties, delegate Drawable) bool {
	_, pass, ok := s.PrerenderedTexture()
	if !ok {
		return true
	}
	if delegate.NeedsSeparatePass(props) {
		return false
	}
	return pass == render.PassOpaque
}

func (s *DrawableState) releaseTargets(pool *RenderTexturePool) {
	pool.Release(s.renderTextureSrc)
	s.renderTextureSrc = nil
	pool.Release(s.renderTexturePrevFrame)
	s.renderTexturePrevFrame = nil
}

// PreRender resolves whether the layer needs an offscreen pass this
// frame and runs it.
func (s *DrawableState) PreRender(ctx *PreRenderContext, props *Properties, delegate Drawable, transform *TransformParams) error {
	if !props.IsVisible() {
		return nil
	}

	blurRadius := props.Value(BlurRadius) * 0.001
	blurFalloff := props.Value(BlurFalloff) * 0.001
	mosaicSize := int32(props.Value(MosaicSize))
	rasterH := props.Value(RasterHorizontalAmplitude)
	rasterV := props.Value(RasterVerticalAmplitude)
	ripple := props.Value(RippleAmplitude)
	dissolve := props.Value(DissolveIntensity) * 0.001
	ghosting := props.Value(GhostingAlpha) * 0.001

	if abs32(blurRadius) < epsilon &&
		blurFalloff < epsilon &&
		mosaicSize <= 0 &&
		abs32(rasterH) < epsilon &&
		abs32(rasterV) < epsilon &&
		abs32(ripple) < epsilon &&
		dissolve <= 0 &&
		ghosting <= 0 &&
		!delegate.NeedsSeparatePass(props) {
		s.releaseTargets(ctx.Pool)
		return nil
	}

	if ghosting <= 0 {
		ctx.Pool.Release(s.renderTexturePrevFrame)
		s.renderTexturePrevFrame = nil
	} else {
		s.renderTexturePrevFrame, s.renderTextureSrc = s.renderTextureSrc, s.renderTexturePrevFrame
	}

	if s.renderTextureSrc == nil {
		tex, err := ctx.Pool.Acquire()
		if err != nil {
			return err
		}
		s.renderTextureSrc = tex
	}

	targetPass, err := delegate.RenderIndirect(ctx, props, s.renderTextureSrc.Target(), transform)
	if err != nil {
		return err
	}
	s.targetPass = targetPass

	if ghosting > 0 && s.renderTexturePrevFrame != nil {
		return applyGhosting(ctx, props, s.renderTextureSrc, s.renderTexturePrevFrame, ghosting)
	}
	if s.renderTexturePrevFrame != nil {
		ctx.Pool.Release(s.renderTexturePrevFrame)
		s.renderTexturePrevFrame = nil
	}
	return nil
}

// TryFinishIndirectRender composites the prerendered texture into the
// main pass. Returns false when the layer did not render indirectly.
func (s *DrawableState) TryFinishIndirectRender(props *Properties, pass *render.RenderPass,
	stencilRef uint8, passKind render.PassKind) (bool, error) {
	tex, targetPass, ok := s.PrerenderedTexture()
	if !ok {
		return false, nil
	}
	if passKind != targetPass {
		return true, nil
	}

	colorMultiplier := props.ColorMultiplier().Premultiply()
	blendType := props.BlendTypeValue()
	fragmentShader := props.FragmentShaderValue()
	fragmentShaderParam := props.FragmentShaderParam()

	builder := render.NewRenderRequestBuilder().
		DepthStencilShorthand(stencilRef, false, false)
	outputKind := render.LayerOutputDiscard
	if passKind == render.PassOpaque {
		builder = builder.ColorBlendType(render.BlendOpaque)
		outputKind = render.LayerOutputPlain
	} else {
		builder = builder.LayerColorBlendPremultiplied(blendType)
	}

	req := builder.Build(render.ProgramInvocation{
		Program: render.ProgramLayer,
		Layer: &render.LayerProgram{
			OutputKind:          outputKind,
			FragmentShader:      fragmentShader,
			Vertices:            fullscreenQuad(),
			Texture:             tex.Source(),
			Transform:           render.TopLeftProjection(),
			ColorMultiplier:     colorMultiplier.Vec4(),
			FragmentShaderParam: fragmentShaderParam,
		},
	}, render.PrimitiveTrianglesStrip)
	return true, pass.Run(req)
}

// Render runs the main-pass draws for a drawable layer.
func (s *DrawableState) Render(props *Properties, delegate Drawable, pass *render.RenderPass,
	transform *TransformParams, stencilRef uint8, passKind render.PassKind) error {
	if !props.IsVisible() {
		return nil
	}

	done, err := s.TryFinishIndirectRender(props, pass, stencilRef, passKind)
	if err != nil || done {
		return err
	}

	selfTransform := props.ComposedTransformParams(transform)
	drawable := props.DrawableParamsValue()
	clip := props.ClipParamsValue()
	return delegate.RenderDirect(pass, &selfTransform, &drawable, &clip, stencilRef, passKind)
}

// Release hands the offscreen targets back to the pool.
func (s *DrawableState) Release(pool *RenderTexturePool) {
	s.releaseTargets(pool)
}

// applyGhosting blends the previous frame over the fresh render with
// the ghosting alpha and transform.
func applyGhosting(ctx *PreRenderContext, props *Properties,
	src, prevFrame *render.RenderTexture, alpha float32) error {
	pass := ctx.BeginPass(src.Target(), "ghosting")

	color := render.FloatColor4{R: 1, G: 1, B: 1, A: alpha}.Premultiply()
	req := render.NewRenderRequestBuilder().
		ColorBlendType(render.BlendLayerPremultiplied1).
		Build(render.ProgramInvocation{
			Program: render.ProgramLayer,
			Layer: &render.LayerProgram{
				OutputKind:     render.LayerOutputPlain,
				FragmentShader: render.FragmentDefault,
				Vertices:       centeredQuad(),
				Texture:        prevFrame.Source(),
				Transform:      render.CanvasProjection().Mul4(props.GhostingTransform()),
				ColorMultiplier: color.Vec4(),
			},
		}, render.PrimitiveTrianglesStrip)
	if err := pass.Run(req); err != nil {
		return err
	}
	return ctx.EndPass(pass)
}

// renderIndirectDirectDraws runs a layer's direct draws into an
// offscreen target, both pass kinds into the same pass. Used by layers
// without a dedicated offscreen path.
func renderIndirectDirectDraws(ctx *PreRenderContext, props *Properties, d Drawable,
	target render.TextureTarget, transform *TransformParams, label string) (render.PassKind, error) {
	pass := ctx.BeginPass(target, label)

	clearColor := render.FloatColor4{}
	clearDepth := float32(0)
	clearStencil := uint8(0)
	if err := pass.Clear(&clearColor, &clearDepth, &clearStencil); err != nil {
		return 0, err
	}

	selfTransform := props.ComposedTransformParams(transform)
	drawable := props.DrawableParamsValue()
	clip := props.ClipParamsValue()
	if err := d.RenderDirect(pass, &selfTransform, &drawable, &clip, 1, render.PassOpaque); err != nil {
		return 0, err
	}
	if err := d.RenderDirect(pass, &selfTransform, &drawable, &clip, 1, render.PassTransparent); err != nil {
		return 0, err
	}
	return render.PassTransparent, ctx.EndPass(pass)
}

const epsilon = 1.1920929e-07

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// fullscreenQuad covers the canvas in top-left coordinates.
func fullscreenQuad() render.VertexSource[render.PosTexVertex] {
	quad := render.NewQuadVertices().
		WithBox(0, 0, render.VirtualCanvasWidth, render.VirtualCanvasHeight)
	return render.VertexData(quad.IntoPosTex())
}

// centeredQuad covers the canvas in centered coordinates.
func centeredQuad() render.VertexSource[render.PosTexVertex] {
	quad := render.NewQuadVertices().
		WithBox(-render.VirtualCanvasWidth/2, -render.VirtualCanvasHeight/2,
			render.VirtualCanvasWidth/2, render.VirtualCanvasHeight/2)
	return render.VertexData(quad.IntoPosTex())
}
