package render

import "github.com/gogpu/gputypes"

// layerAlphaBlend accumulates coverage into the destination alpha: the
// target keeps 1-dstAlpha of the incoming alpha, so repeated layer
// draws converge on full opacity.
var layerAlphaBlend = gputypes.BlendComponent{
	SrcFactor: gputypes.BlendFactorOneMinusDstAlpha,
	DstFactor: gputypes.BlendFactorOne,
	Operation: gputypes.BlendOperationAdd,
}

var replaceBlend = gputypes.BlendComponent{
	SrcFactor: gputypes.BlendFactorOne,
	DstFactor: gputypes.BlendFactorZero,
	Operation: gputypes.BlendOperationAdd,
}

// BlendState returns the fixed-function blend configuration for a blend
// table entry.
func (t ColorBlendType) BlendState() gputypes.BlendState {
	color := replaceBlend
	alpha := layerAlphaBlend

	switch t {
	case BlendNoColor, BlendOpaque:
		alpha = replaceBlend
	case BlendLayer1:
		color = gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		}
	case BlendLayer2:
		color = gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		}
	case BlendLayer3:
		color = gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationSubtract,
		}
	case BlendLayerPremultiplied1:
		color = gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		}
	case BlendLayerPremultiplied2:
		color = gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		}
	case BlendLayerPremultiplied3:
		color = gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationReverseSubtract,
		}
	}

	return gputypes.BlendState{Color: color, Alpha: alpha}
}

// WriteMask reports which color channels the blend entry writes.
func (t ColorBlendType) WriteMask() gputypes.ColorWriteMask {
	if t == BlendNoColor {
		return gputypes.ColorWriteMaskNone
	}
	return gputypes.ColorWriteMaskAll
}

func (p DrawPrimitive) topology() gputypes.PrimitiveTopology {
	if p == PrimitiveTrianglesStrip {
		return gputypes.PrimitiveTopologyTriangleStrip
	}
	return gputypes.PrimitiveTopologyTriangleList
}

func (f CullFace) cullMode() gputypes.CullMode {
	switch f {
	case CullBack:
		return gputypes.CullModeBack
	case CullFront:
		return gputypes.CullModeFront
	default:
		return gputypes.CullModeNone
	}
}

func (f DepthFunction) compare() gputypes.CompareFunction {
	switch f {
	case DepthNever:
		return gputypes.CompareFunctionNever
	case DepthLess:
		return gputypes.CompareFunctionLess
	case DepthEqual:
		return gputypes.CompareFunctionEqual
	case DepthLessOrEqual:
		return gputypes.CompareFunctionLessEqual
	case DepthGreater:
		return gputypes.CompareFunctionGreater
	case DepthNotEqual:
		return gputypes.CompareFunctionNotEqual
	case DepthGreaterOrEqual:
		return gputypes.CompareFunctionGreaterEqual
	default:
		return gputypes.CompareFunctionAlways
	}
}

func (f StencilFunction) compare() gputypes.CompareFunction {
	switch f {
	case StencilNever:
		return gputypes.CompareFunctionNever
	case StencilLess:
		return gputypes.CompareFunctionLess
	case StencilEqual:
		return gputypes.CompareFunctionEqual
	case StencilLessOrEqual:
		return gputypes.CompareFunctionLessEqual
	case StencilGreater:
		return gputypes.CompareFunctionGreater
	case StencilNotEqual:
		return gputypes.CompareFunctionNotEqual
	case StencilGreaterOrEqual:
		return gputypes.CompareFunctionGreaterEqual
	default:
		return gputypes.CompareFunctionAlways
	}
}
