package layer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/DCNick3/shin-sub001/pkg/render"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// flip property bits
const (
	flipHorizontal = 0b01
	flipVertical   = 0b10
)

// Properties is the animated parameter vector every scene node
// carries: one tweener per property plus six wobblers.
type Properties struct {
	layerID         vm.LayerID
	loadCounter     uint32
	properties      [PropertyCount]tick.Tweener
	wobblerX        Wobbler
	wobblerY        Wobbler
	wobblerAlpha    Wobbler
	wobblerRotation Wobbler
	wobblerScaleX   Wobbler
	wobblerScaleY   Wobbler
}

// NewProperties returns a property vector at its initial values.
func NewProperties() *Properties {
	p := &Properties{}
	for i := range p.properties {
		p.properties[i] = tick.NewTweener(float32(Property(i).InitialValue()))
	}
	return p
}

// Value returns the current animated value of a property.
func (p *Properties) Value(prop Property) float32 {
	return p.properties[prop].Value()
}

// Tweener gives mutable access to one property's tween queue.
func (p *Properties) Tweener(prop Property) *tick.Tweener {
	return &p.properties[prop]
}

// Init snaps every property back to its initial value, dropping any
// queued tweens.
func (p *Properties) Init() {
	for i := range p.properties {
		p.properties[i].FastForwardTo(float32(Property(i).InitialValue()))
	}
}

// Clone returns an independently animatable copy of the property set.
func (p *Properties) Clone() *Properties {
	c := *p
	for i := range c.properties {
		c.properties[i] = p.properties[i].Clone()
	}
	return &c
}

// FastForward completes all queued tweens immediately.
func (p *Properties) FastForward() {
	for i := range p.properties {
		p.properties[i].FastForward()
	}
}

func (p *Properties) LayerID() vm.LayerID      { return p.layerID }
func (p *Properties) SetLayerID(id vm.LayerID) { p.layerID = id }

func (p *Properties) SetLoadCounter(c uint32) { p.loadCounter = c }

// Update advances every tweener and wobbler by dt.
func (p *Properties) Update(dt tick.Ticks) {
	for i := range p.properties {
		p.properties[i].Update(dt)
	}

	wobble := func(w *Wobbler, mode, period Property) {
		w.Update(dt, p.Value(mode), tick.Ticks(p.Value(period)))
	}
	wobble(&p.wobblerX, WobbleXMode, WobbleXPeriod)
	wobble(&p.wobblerY, WobbleYMode, WobbleYPeriod)
	wobble(&p.wobblerAlpha, WobbleAlphaMode, WobbleAlphaPeriod)
	wobble(&p.wobblerRotation, WobbleRotationMode, WobbleRotationPeriod)
	wobble(&p.wobblerScaleX, WobbleScaleXMode, WobbleScaleXPeriod)
	wobble(&p.wobblerScaleY, WobbleScaleYMode, WobbleScaleYPeriod)
}

func (p *Properties) evaluateWobbler(w *Wobbler, amplitude, bias Property, scale, fallback float32) float32 {
	if v, ok := w.ValueOpt(); ok {
		return (v*p.Value(amplitude) + p.Value(bias)) * scale
	}
	return fallback
}

func (p *Properties) effectiveAlpha() float32 {
	base := p.Value(MulColorAlpha) * 0.001
	return base * p.evaluateWobbler(&p.wobblerAlpha, WobbleAlphaAmplitude, WobbleAlphaBias, 0.001, 1)
}

// IsVisible reports whether the layer contributes any pixels.
func (p *Properties) IsVisible() bool {
	if int32(p.Value(ShowLayer)) == 0 ||
		int32(p.Value(ScaleX)) == 0 ||
		int32(p.Value(ScaleY)) == 0 {
		return false
	}
	return p.effectiveAlpha() > 0
}

// ColorMultiplier evaluates the per-layer tint. Color channels span
// [0, 2] with 1000 meaning neutral; alpha spans [0, 1].
func (p *Properties) ColorMultiplier() render.FloatColor4 {
	// scale by half first so the clamp below admits values up to 2000,
	// then restore the range
	clamp01 := func(v float32) float32 {
		return float32(math.Min(math.Max(float64(v), 0), 1))
	}
	return render.FloatColor4{
		R: clamp01(p.Value(MulColorRed)*0.0005) * 2,
		G: clamp01(p.Value(MulColorGreen)*0.0005) * 2,
		B: clamp01(p.Value(MulColorBlue)*0.0005) * 2,
		A: clamp01(p.effectiveAlpha()),
	}
}

// BlendTypeValue returns the layer blend tag.
func (p *Properties) BlendTypeValue() render.LayerBlendType {
	switch int32(p.Value(BlendType)) {
	case 1:
		return render.LayerBlendType2
	case 2:
		return render.LayerBlendType3
	default:
		return render.LayerBlendType1
	}
}

// FragmentShaderValue returns the per-layer fragment operation.
func (p *Properties) FragmentShaderValue() render.LayerFragmentShader {
	v := int32(p.Value(FragmentShader))
	if v >= int32(render.FragmentDefault) && v <= int32(render.FragmentGamma) {
		return render.LayerFragmentShader(v)
	}
	return render.FragmentDefault
}

// FragmentShaderParam returns the shader parameter vector.
func (p *Properties) FragmentShaderParam() mgl32.Vec4 {
	return mgl32.Vec4{
		p.Value(ShaderParamX) * 0.001,
		p.Value(ShaderParamY) * 0.001,
		p.Value(ShaderParamZ) * 0.001,
		p.Value(ShaderParamW) * 0.001,
	}
}

// IsFragmentShaderNontrivial reports whether rendering this layer
// needs more than a plain textured draw.
func (p *Properties) IsFragmentShaderNontrivial() bool {
	if p.ColorMultiplier() != render.ColorWhite {
		return true
	}
	return !p.FragmentShaderValue().IsEquivalentToDefault(p.FragmentShaderParam())
}

// IsBlendingNontrivial reports whether the layer blends with what is
// below it. Wobbler alpha is deliberately not considered, matching
// engine behavior.
func (p *Properties) IsBlendingNontrivial() bool {
	return p.Value(MulColorAlpha)*0.001 < 1 ||
		p.BlendTypeValue() != render.LayerBlendType1
}

// DrawableParamsValue bundles the color state for a draw.
func (p *Properties) DrawableParamsValue() DrawableParams {
	return DrawableParams{
		ColorMultiplier: p.ColorMultiplier(),
		BlendType:       p.BlendTypeValue(),
		FragmentShader:  p.FragmentShaderValue(),
		ShaderParam:     p.FragmentShaderParam(),
	}
}

// ClipModeValue returns the clip rectangle interpretation.
func (p *Properties) ClipModeValue() DrawableClipMode {
	switch int32(p.Value(ClipMode)) {
	case 1:
		return Clip
	case 2:
		return ClipIgnoreTransform
	default:
		return ClipNone
	}
}

// ClipParamsValue normalizes the clip rectangle so width and height
// are non-negative.
func (p *Properties) ClipParamsValue() ClipParams {
	fromX, toX := p.Value(ClipFromX), p.Value(ClipToX)
	if fromX > toX {
		fromX, toX = toX, fromX
	}
	fromY, toY := p.Value(ClipFromY), p.Value(ClipToY)
	if fromY > toY {
		fromY, toY = toY, fromY
	}
	return ClipParams{
		Mode: p.ClipModeValue(),
		Area: mgl32.Vec4{fromX, fromY, toX - fromX, toY - fromY},
	}
}

func (p *Properties) transform() mgl32.Mat4 {
	flip := int32(p.Value(Flip))
	flipX, flipY := float32(1), float32(1)
	if flip&flipHorizontal != 0 {
		flipX = -1
	}
	if flip&flipVertical != 0 {
		flipY = -1
	}

	scaleOriginX := p.Value(ScaleOriginX)
	scaleOriginY := p.Value(ScaleOriginY)

	scaleX := p.Value(ScaleX) * 0.001 * p.Value(ScaleX2) * 0.001 *
		p.evaluateWobbler(&p.wobblerScaleX, WobbleScaleXAmplitude, WobbleScaleXBias, 0.001, 1) * flipX
	scaleY := p.Value(ScaleY) * 0.001 * p.Value(ScaleY2) * 0.001 *
		p.evaluateWobbler(&p.wobblerScaleY, WobbleScaleYAmplitude, WobbleScaleYBias, 0.001, 1) * flipY

	rotationOriginX := p.Value(RotationOriginX)
	rotationOriginY := p.Value(RotationOriginY)

	// rotation properties are in thousandths of a full turn
	rotation := (p.Value(Rotation)*0.001 + p.Value(Rotation2)*0.001 +
		p.evaluateWobbler(&p.wobblerRotation, WobbleRotationAmplitude, WobbleRotationBias, 0.001, 0)) *
		2 * math.Pi

	translateX := p.Value(TranslateX) + p.Value(TranslateX2) - p.Value(NegatedTranslationX)
	translateY := p.Value(TranslateY) + p.Value(TranslateY2) - p.Value(NegatedTranslationY)
	translateZ := p.Value(TranslateZ)

	result := mgl32.Translate3D(-scaleOriginX, -scaleOriginY, 0)
	result = mgl32.Scale3D(scaleX, scaleY, 1).Mul4(result)
	result = mgl32.Translate3D(scaleOriginX-rotationOriginX, scaleOriginY-rotationOriginY, 0).Mul4(result)
	result = mgl32.HomogRotate3DZ(rotation).Mul4(result)
	result = mgl32.Translate3D(translateX+rotationOriginX, translateY+rotationOriginY, translateZ).Mul4(result)
	return result
}

// WobbleTranslation is the positional wobbler offset, inherited by
// children unless masked by compose flags.
func (p *Properties) WobbleTranslation() mgl32.Vec2 {
	return mgl32.Vec2{
		p.evaluateWobbler(&p.wobblerX, WobbleXAmplitude, WobbleXBias, 1, 0),
		p.evaluateWobbler(&p.wobblerY, WobbleYAmplitude, WobbleYBias, 1, 0),
	}
}

// TransformParamsValue captures the node's transform state before
// composition with the parent.
func (p *Properties) TransformParamsValue() TransformParams {
	return TransformParams{
		Transform: p.transform(),
		CameraPosition: mgl32.Vec3{
			p.Value(CameraPositionX),
			p.Value(CameraPositionY),
			p.Value(CameraPositionZ),
		},
		UnconditionallyInheritedTranslation: mgl32.Vec2{
			p.Value(UnconditionallyInheritedTranslationX),
			p.Value(UnconditionallyInheritedTranslationY),
		},
		WobbleTranslation: p.WobbleTranslation(),
	}
}

// ComposeFlagsValue returns the transform inheritance flags.
func (p *Properties) ComposeFlagsValue() ComposeFlags {
	return ComposeFlags(int32(p.Value(ComposeFlagsProperty)))
}

// ComposedTransformParams composes this node's transform with the
// inherited one.
func (p *Properties) ComposedTransformParams(parent *TransformParams) TransformParams {
	params := p.TransformParamsValue()
	params.ComposeWith(parent, p.ComposeFlagsValue())
	return params
}

// GhostingTransform is the extra transform applied to the previous
// frame during the ghosting effect: a zoom around the canvas center
// plus a translation.
func (p *Properties) GhostingTransform() mgl32.Mat4 {
	zoom := p.Value(GhostingZoom) * 0.001
	return mgl32.Translate3D(p.Value(GhostingTranslateX), p.Value(GhostingTranslateY), 0).
		Mul4(mgl32.Scale3D(zoom, zoom, 1))
}

// Snapshot stores only the target property values, enough to rebuild
// the scene from a save.
type Snapshot struct {
	Properties [PropertyCount]int32
}

// NewSnapshot returns a snapshot at the initial values.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.Init()
	return s
}

// Init resets every property to its initial value.
func (s *Snapshot) Init() {
	for i := range s.Properties {
		s.Properties[i] = Property(i).InitialValue()
	}
}

// Get returns a stored property value.
func (s *Snapshot) Get(prop Property) int32 {
	return s.Properties[prop]
}

// Set stores a property value.
func (s *Snapshot) Set(prop Property, value int32) {
	s.Properties[prop] = value
}
