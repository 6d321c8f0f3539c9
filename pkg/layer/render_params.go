package layer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/DCNick3/shin-sub001/pkg/render"
)

// ComposeFlags control how a node's transform combines with the
// inherited one.
type ComposeFlags int32

const (
	IgnoreCameraPosition ComposeFlags = 1 << iota
	DontInheritTransform
	DontInheritWobble
)

func (f ComposeFlags) Has(flag ComposeFlags) bool {
	return f&flag != 0
}

// TransformParams is the transform state passed down the scene graph
// during rendering.
type TransformParams struct {
	Transform mgl32.Mat4
	// Perspective origin for the z-distance scale.
	CameraPosition mgl32.Vec3
	// Always inherited by children, never applied to the layer itself.
	UnconditionallyInheritedTranslation mgl32.Vec2
	// Translation from the parent's wobbler; inheritance is gated by
	// DontInheritWobble.
	WobbleTranslation mgl32.Vec2
}

// NewTransformParams returns the identity state the root starts with.
func NewTransformParams() TransformParams {
	return TransformParams{Transform: mgl32.Ident4()}
}

// ComposeWith folds the parent's transform state into this one.
func (p *TransformParams) ComposeWith(parent *TransformParams, flags ComposeFlags) {
	origin := p.CameraPosition
	if flags.Has(IgnoreCameraPosition) {
		origin = mgl32.Vec3{}
	}

	// scale by the distance from the camera along z
	zDistance := (p.Transform.At(2, 3) - origin.Z()) * 0.001

	var distanceScale float32
	if zDistance > 0 {
		p.Transform = mgl32.Translate3D(-origin.X(), -origin.Y(), 1).Mul4(p.Transform)
		distanceScale = 1 / zDistance
	}

	p.Transform = mgl32.Scale3D(distanceScale, distanceScale, 1).Mul4(p.Transform)
	// the z translation has served its purpose
	p.Transform.Set(2, 3, 0)

	if !flags.Has(DontInheritTransform) {
		p.Transform = parent.Transform.Mul4(p.Transform)
	}
	if !flags.Has(DontInheritWobble) {
		w := parent.WobbleTranslation
		p.Transform = mgl32.Translate3D(w.X(), w.Y(), 0).Mul4(p.Transform)
	}

	u := p.UnconditionallyInheritedTranslation
	p.Transform = mgl32.Translate3D(u.X(), u.Y(), 0).Mul4(p.Transform)
}

// FinalTransform produces the clip-space matrix for draw calls. The
// game uses a Y-down coordinate system, so the projection flips Y.
func (p *TransformParams) FinalTransform() mgl32.Mat4 {
	w := p.WobbleTranslation
	return render.CanvasProjection().
		Mul4(mgl32.Translate3D(w.X(), w.Y(), 0)).
		Mul4(p.Transform)
}

// DrawableParams is the color state a drawable layer renders with.
type DrawableParams struct {
	ColorMultiplier render.FloatColor4
	BlendType       render.LayerBlendType
	FragmentShader  render.LayerFragmentShader
	ShaderParam     mgl32.Vec4
}

// DrawableClipMode selects how the clip rectangle is interpreted.
type DrawableClipMode int32

const (
	ClipNone DrawableClipMode = iota
	// Clip in layer coordinates, transformed along with the layer.
	Clip
	// Clip in screen coordinates, ignoring the layer transform.
	ClipIgnoreTransform
)

// ClipParams is the clip rectangle state of a drawable layer.
type ClipParams struct {
	Mode DrawableClipMode
	// x, y is the top left corner; z, w is width and height.
	Area mgl32.Vec4
}
