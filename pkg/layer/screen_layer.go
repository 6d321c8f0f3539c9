package layer

import (
	"image"

	"github.com/gogpu/wgpu/hal"

	"github.com/DCNick3/shin-sub001/pkg/format/mask"
	"github.com/DCNick3/shin-sub001/pkg/render"
	"github.com/DCNick3/shin-sub001/pkg/tick"
)

// NewMaskTexture uploads the grayscale texels of a MSK4 wipe mask.
func NewMaskTexture(device hal.Device, queue hal.Queue, m *mask.Mask, label string) (*render.Texture, error) {
	return render.NewTextureFromRGBA(device, queue,
		uint32(m.Texels.Rect.Dx()), uint32(m.Texels.Rect.Dy()),
		grayToRGBA(m.Texels), label)
}

func grayToRGBA(img *image.Gray) []byte {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x, v := range row {
			i := (y*w + x) * 4
			out[i] = v
			out[i+1] = v
			out[i+2] = v
			out[i+3] = 0xff
		}
	}
	return out
}

// wiper is an in-flight page transition: a frozen snapshot of the old
// page crossfading into the live one.
type wiper struct {
	frozen   Layer
	mask     *render.Texture
	vague    float32
	progress tick.Tweener

	sourceTex *render.RenderTexture
	targetTex *render.RenderTexture
}

// ScreenLayer owns the page and runs page transitions. Outside a
// transition the page renders in place; during one, both the frozen
// and the live page render offscreen and a wiper draw mixes them.
type ScreenLayer struct {
	props *Properties
	page  *PageLayer
	wiper *wiper
}

func NewScreenLayer() *ScreenLayer {
	return &ScreenLayer{
		props: NewProperties(),
		page:  NewPageLayer(),
	}
}

// Page returns the live page.
func (s *ScreenLayer) Page() *PageLayer { return s.page }

// PageBack snapshots the current page so the next transition wipes
// from it. A snapshot taken during a transition replaces the previous
// one and completes it instantly.
func (s *ScreenLayer) PageBack() {
	frozen := s.page.RenderClone()
	s.dropWiper(nil)
	s.wiper = &wiper{
		frozen:   frozen,
		progress: tick.NewTweener(0),
	}
}

// StartTransition begins the wipe from the last PageBack snapshot.
// A nil maskTexture crossfades uniformly; vague widens the mask's
// transition band. Without a snapshot the call is a no-op.
func (s *ScreenLayer) StartTransition(maskTexture *render.Texture, vague float32, duration tick.Ticks) {
	if s.wiper == nil {
		return
	}
	s.wiper.mask = maskTexture
	s.wiper.vague = vague
	if duration <= 0 {
		s.wiper.progress.FastForwardTo(1)
		return
	}
	s.wiper.progress.EnqueueNow(1, tick.Linear(duration))
}

// IsTransitioning reports whether a wipe is still running.
func (s *ScreenLayer) IsTransitioning() bool {
	return s.wiper != nil && !(s.wiper.progress.IsIdle() && s.wiper.progress.Value() >= 1)
}

func (s *ScreenLayer) dropWiper(pool *RenderTexturePool) {
	if s.wiper == nil {
		return
	}
	if pool != nil {
		pool.Release(s.wiper.sourceTex)
		pool.Release(s.wiper.targetTex)
	}
	s.wiper.sourceTex = nil
	s.wiper.targetTex = nil
	s.wiper = nil
}

func (s *ScreenLayer) Properties() *Properties { return s.props }

func (s *ScreenLayer) Update(ctx *UpdateContext) {
	s.props.Update(ctx.Delta)
	s.page.Update(ctx)
	if s.wiper != nil {
		s.wiper.progress.Update(ctx.Delta)
		s.wiper.frozen.Update(ctx)
	}
}

func (s *ScreenLayer) FastForward() {
	s.props.FastForward()
	s.page.FastForward()
	if s.wiper != nil {
		s.wiper.progress.FastForward()
	}
}

func (s *ScreenLayer) PreRender(ctx *PreRenderContext, parent *TransformParams) error {
	selfTransform := s.props.ComposedTransformParams(parent)

	if s.wiper != nil && !s.IsTransitioning() {
		s.dropWiper(ctx.Pool)
	}
	if s.wiper == nil {
		return s.page.PreRender(ctx, &selfTransform)
	}

	if err := s.wiper.frozen.PreRender(ctx, &selfTransform); err != nil {
		return err
	}
	if err := s.page.PreRender(ctx, &selfTransform); err != nil {
		return err
	}

	var err error
	if s.wiper.sourceTex == nil {
		if s.wiper.sourceTex, err = ctx.Pool.Acquire(); err != nil {
			return err
		}
	}
	if s.wiper.targetTex == nil {
		if s.wiper.targetTex, err = ctx.Pool.Acquire(); err != nil {
			return err
		}
	}

	if err := renderSubtreeOffscreen(ctx, s.wiper.frozen, &selfTransform,
		s.wiper.sourceTex, "transition_source"); err != nil {
		return err
	}
	return renderSubtreeOffscreen(ctx, s.page, &selfTransform,
		s.wiper.targetTex, "transition_target")
}

func (s *ScreenLayer) Render(pass *render.RenderPass, parent *TransformParams,
	stencilRef uint8, passKind render.PassKind) error {
	selfTransform := s.props.ComposedTransformParams(parent)
	if s.wiper == nil {
		return s.page.Render(pass, &selfTransform, stencilRef, passKind)
	}

	// The wiper output covers the canvas and is opaque.
	if passKind != render.PassOpaque {
		return nil
	}
	return s.renderWiper(pass, stencilRef)
}

func (s *ScreenLayer) renderWiper(pass *render.RenderPass, stencilRef uint8) error {
	w := s.wiper
	if w.sourceTex == nil || w.targetTex == nil {
		return nil
	}
	progress := w.progress.Value()

	builder := render.NewRenderRequestBuilder().
		DepthStencilShorthand(stencilRef, false, false).
		ColorBlendType(render.BlendOpaque)
	vertices := fullscreenQuad()
	transform := render.TopLeftProjection()

	var invocation render.ProgramInvocation
	if w.mask == nil {
		invocation = render.ProgramInvocation{
			Program: render.ProgramWiperDefault,
			WiperDefault: &render.WiperDefaultProgram{
				Vertices:      vertices,
				TextureSource: w.sourceTex.Source(),
				TextureTarget: w.targetTex.Source(),
				Transform:     transform,
				Alpha:         progress,
			},
		}
	} else {
		// The mask value window slides with progress; vague widens the
		// band so edges fade instead of cutting.
		minValue := progress*(1+w.vague) - w.vague
		maxValue := progress * (1 + w.vague)
		invocation = render.ProgramInvocation{
			Program: render.ProgramWiperMask,
			WiperMask: &render.WiperMaskProgram{
				Vertices:      vertices,
				TextureSource: w.sourceTex.Source(),
				TextureTarget: w.targetTex.Source(),
				TextureMask:   w.mask.Source(),
				Transform:     transform,
				MinValue:      minValue,
				MaxValue:      maxValue,
			},
		}
	}
	return pass.Run(builder.Build(invocation, render.PrimitiveTrianglesStrip))
}

func (s *ScreenLayer) StencilBump() uint8 {
	return saturatingAddU8(1, s.page.StencilBump())
}

func (s *ScreenLayer) RenderClone() Layer {
	// Transitions are not carried into snapshots; the clone starts
	// from the live page.
	return &ScreenLayer{
		props: s.props.Clone(),
		page:  s.page.RenderClone().(*PageLayer),
	}
}

// renderSubtreeOffscreen runs a full two-phase render of one subtree
// into an offscreen target.
func renderSubtreeOffscreen(ctx *PreRenderContext, l Layer, transform *TransformParams,
	tex *render.RenderTexture, label string) error {
	pass := ctx.BeginPass(tex.Target(), label)

	clearColor := render.FloatColor4{A: 1}
	clearDepth := float32(0)
	clearStencil := uint8(0)
	if err := pass.Clear(&clearColor, &clearDepth, &clearStencil); err != nil {
		return err
	}
	if err := l.Render(pass, transform, 1, render.PassOpaque); err != nil {
		return err
	}
	if err := l.Render(pass, transform, 1, render.PassTransparent); err != nil {
		return err
	}
	return ctx.EndPass(pass)
}
