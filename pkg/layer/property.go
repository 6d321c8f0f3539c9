// Package layer implements the scene graph: animated per-layer
// properties, the drawable layer kinds, grouping nodes and the message
// layer. Rendering goes through pkg/render requests; the renderer
// walks the graph twice per frame (pre-render for offscreen passes,
// then the opaque and transparent main phases).
package layer

// Property identifies one animated layer parameter. Values are set by
// the scenario as integers and tweened as float32; most scale factors
// use thousandths (1000 means 1.0).
type Property int

const (
	TranslateX Property = iota
	TranslateY
	TranslateZ
	TranslateX2
	TranslateY2
	RenderPosition

	MulColorRed
	MulColorGreen
	MulColorBlue
	MulColorAlpha

	ScaleOriginX
	ScaleOriginY
	ScaleX
	ScaleY
	ScaleX2
	ScaleY2

	RotationOriginX
	RotationOriginY
	Rotation
	Rotation2

	NegatedTranslationX
	NegatedTranslationY

	ShowLayer

	BlendType
	FragmentShader
	ClipMode
	Flip
	Prop27

	ShaderParamX
	ShaderParamY
	ShaderParamZ
	ShaderParamW

	WobbleXMode
	WobbleXPeriod
	WobbleXAmplitude
	WobbleXBias

	WobbleYMode
	WobbleYPeriod
	WobbleYAmplitude
	WobbleYBias

	WobbleAlphaMode
	WobbleAlphaPeriod
	WobbleAlphaAmplitude
	WobbleAlphaBias

	WobbleScaleXMode
	WobbleScaleXPeriod
	WobbleScaleXAmplitude
	WobbleScaleXBias

	WobbleScaleYMode
	WobbleScaleYPeriod
	WobbleScaleYAmplitude
	WobbleScaleYBias

	WobbleRotationMode
	WobbleRotationPeriod
	WobbleRotationAmplitude
	WobbleRotationBias

	GhostingAlpha
	GhostingZoom
	GhostingTranslateX
	GhostingTranslateY
	Prop60

	CameraPositionX
	CameraPositionY
	CameraPositionZ

	UnconditionallyInheritedTranslationX
	UnconditionallyInheritedTranslationY

	ComposeFlagsProperty

	ClipFromX
	ClipToX
	ClipFromY
	ClipToY

	BlurRadius
	BlurFalloff
	Prop73
	Prop74
	Prop75

	MosaicSize

	RasterHorizontalAmplitude
	RasterVerticalAmplitude
	RasterHorizontalPeriod
	RasterVerticalPeriod
	RasterPhase

	RippleAmplitude
	RipplePeriod
	RipplePhase

	DissolveIntensity

	Prop86
	Prop87
	Prop88
	Prop89
	Prop90

	PropertyCount
)

// InitialValue returns the value a property holds after LAYERINIT.
func (p Property) InitialValue() int32 {
	switch p {
	case TranslateZ, RenderPosition,
		MulColorRed, MulColorGreen, MulColorBlue, MulColorAlpha,
		ScaleX, ScaleY, ScaleX2, ScaleY2,
		ShaderParamX, ShaderParamY, ShaderParamZ, ShaderParamW,
		WobbleAlphaBias, WobbleScaleXBias, WobbleScaleYBias,
		GhostingZoom, Prop73, Prop75:
		return 1000
	case ShowLayer, Prop27:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether an integer from the scenario names a
// property.
func (p Property) IsValid() bool {
	return p >= 0 && p < PropertyCount
}
