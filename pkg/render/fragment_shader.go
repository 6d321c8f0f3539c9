package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LayerFragmentShader selects the per-fragment color operation of the
// generic layer and mask programs.
type LayerFragmentShader uint32

const (
	FragmentDefault LayerFragmentShader = iota
	FragmentMono
	FragmentFill
	FragmentFill2
	FragmentNegative
	FragmentGamma
)

// IsEquivalentToDefault reports whether the operation with the given
// parameter is an identity and can be replaced by the default shader.
func (s LayerFragmentShader) IsEquivalentToDefault(param mgl32.Vec4) bool {
	switch s {
	case FragmentDefault:
		return true
	case FragmentMono:
		return param == mgl32.Vec4{1, 1, 1, 0}
	case FragmentFill:
		return param.W() == 0
	case FragmentFill2:
		return param.Vec3() == mgl32.Vec3{}
	case FragmentNegative:
		return false
	case FragmentGamma:
		return param.Vec3() == mgl32.Vec3{1, 1, 1}
	default:
		return false
	}
}

// Simplify downgrades identity-parameter operations to the default
// shader so equal draws select equal pipelines.
func (s LayerFragmentShader) Simplify(param mgl32.Vec4) LayerFragmentShader {
	if s.IsEquivalentToDefault(param) {
		return FragmentDefault
	}
	return s
}

// Evaluate applies the operation to a flat color on the CPU. Used for
// untextured draws where no fragment shader runs.
func (s LayerFragmentShader) Evaluate(color FloatColor4, param mgl32.Vec4) FloatColor4 {
	switch s {
	case FragmentMono:
		luma := color.R*0.299 + color.G*0.587 + color.B*0.114
		return FloatColor4{
			R: luma * param.X(),
			G: luma * param.Y(),
			B: luma * param.Z(),
			A: color.A,
		}
	case FragmentFill:
		t := param.W()
		return FloatColor4{
			R: color.R + (param.X()-color.R)*t,
			G: color.G + (param.Y()-color.G)*t,
			B: color.B + (param.Z()-color.B)*t,
			A: color.A,
		}
	case FragmentFill2:
		return FloatColor4{
			R: color.R + param.X()*(1-color.R),
			G: color.G + param.Y()*(1-color.G),
			B: color.B + param.Z()*(1-color.B),
			A: color.A,
		}
	case FragmentNegative:
		return FloatColor4{R: 1 - color.R, G: 1 - color.G, B: 1 - color.B, A: color.A}
	case FragmentGamma:
		pow := func(v, g float32) float32 {
			if v <= 0 {
				return 0
			}
			return float32(math.Pow(float64(v), float64(g)))
		}
		return FloatColor4{
			R: pow(color.R, param.X()),
			G: pow(color.G, param.Y()),
			B: pow(color.B, param.Z()),
			A: color.A,
		}
	default:
		return color
	}
}
