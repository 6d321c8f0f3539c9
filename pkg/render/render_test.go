package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

func TestBlendStateTable(t *testing.T) {
	tests := []struct {
		name  string
		blend ColorBlendType
		color gputypes.BlendComponent
		alpha gputypes.BlendComponent
	}{
		{
			"opaque", BlendOpaque,
			gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorZero, Operation: gputypes.BlendOperationAdd},
			gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorZero, Operation: gputypes.BlendOperationAdd},
		},
		{
			"layer1", BlendLayer1,
			gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorOneMinusSrcAlpha, Operation: gputypes.BlendOperationAdd},
			layerAlphaBlend,
		},
		{
			"layer2", BlendLayer2,
			gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationAdd},
			layerAlphaBlend,
		},
		{
			"layer3", BlendLayer3,
			gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationSubtract},
			layerAlphaBlend,
		},
		{
			"premultiplied1", BlendLayerPremultiplied1,
			gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOneMinusSrcAlpha, Operation: gputypes.BlendOperationAdd},
			layerAlphaBlend,
		},
		{
			"premultiplied2", BlendLayerPremultiplied2,
			gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationAdd},
			layerAlphaBlend,
		},
		{
			"premultiplied3", BlendLayerPremultiplied3,
			gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationReverseSubtract},
			layerAlphaBlend,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.blend.BlendState()
			if got.Color != tt.color {
				t.Errorf("color blend = %+v, want %+v", got.Color, tt.color)
			}
			if got.Alpha != tt.alpha {
				t.Errorf("alpha blend = %+v, want %+v", got.Alpha, tt.alpha)
			}
		})
	}
}

func TestNoColorWriteMask(t *testing.T) {
	if got := BlendNoColor.WriteMask(); got != gputypes.ColorWriteMaskNone {
		t.Errorf("NoColor write mask = %v, want none", got)
	}
	if got := BlendLayer1.WriteMask(); got != gputypes.ColorWriteMaskAll {
		t.Errorf("Layer1 write mask = %v, want all", got)
	}
}

func TestBlendFromLayerProperty(t *testing.T) {
	if got := BlendFromRegularLayer(LayerBlendType3); got != BlendLayer3 {
		t.Errorf("regular type3 = %v, want BlendLayer3", got)
	}
	if got := BlendFromPremultipliedLayer(LayerBlendType2); got != BlendLayerPremultiplied2 {
		t.Errorf("premultiplied type2 = %v, want BlendLayerPremultiplied2", got)
	}
}

func TestDepthStencilShorthand(t *testing.T) {
	s := DepthStencilShorthand(42, false, true)
	if s.Depth.Function != DepthLess || s.Depth.WriteEnable {
		t.Errorf("depth = %+v, want Less without write", s.Depth)
	}
	if s.Stencil.Pipeline.Function != StencilGreater {
		t.Errorf("stencil function = %v, want Greater", s.Stencil.Pipeline.Function)
	}
	if s.Stencil.Pipeline.PassOperation != StencilReplace {
		t.Errorf("pass op = %v, want Replace", s.Stencil.Pipeline.PassOperation)
	}
	if s.Stencil.Reference != 42 {
		t.Errorf("reference = %v, want 42", s.Stencil.Reference)
	}

	eq := DepthStencilShorthand(1, true, false)
	if eq.Stencil.Pipeline.Function != StencilGreaterOrEqual {
		t.Errorf("allow-eq stencil function = %v, want GreaterOrEqual", eq.Stencil.Pipeline.Function)
	}
	if eq.Depth.Function != DepthAlways {
		t.Errorf("depth function = %v, want Always", eq.Depth.Function)
	}
}

func TestPipelinePartsStripsReference(t *testing.T) {
	s := DepthStencilShorthand(7, false, false)
	pipeline, ref := s.PipelineParts()
	if ref != 7 {
		t.Errorf("ref = %v, want 7", ref)
	}
	other, _ := DepthStencilShorthand(200, false, false).PipelineParts()
	if pipeline != other {
		t.Error("pipeline state should not depend on the stencil reference")
	}
}

func TestFragmentShaderIdentity(t *testing.T) {
	tests := []struct {
		name   string
		shader LayerFragmentShader
		param  mgl32.Vec4
		want   bool
	}{
		{"default", FragmentDefault, mgl32.Vec4{}, true},
		{"mono identity", FragmentMono, mgl32.Vec4{1, 1, 1, 0}, true},
		{"mono active", FragmentMono, mgl32.Vec4{1, 1, 1, 1}, false},
		{"fill identity", FragmentFill, mgl32.Vec4{1, 0, 0, 0}, true},
		{"fill active", FragmentFill, mgl32.Vec4{1, 0, 0, 0.5}, false},
		{"fill2 identity", FragmentFill2, mgl32.Vec4{0, 0, 0, 1}, true},
		{"negative never", FragmentNegative, mgl32.Vec4{}, false},
		{"gamma identity", FragmentGamma, mgl32.Vec4{1, 1, 1, 0}, true},
		{"gamma active", FragmentGamma, mgl32.Vec4{2.2, 2.2, 2.2, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shader.IsEquivalentToDefault(tt.param); got != tt.want {
				t.Errorf("IsEquivalentToDefault = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFragmentShaderSimplify(t *testing.T) {
	if got := FragmentMono.Simplify(mgl32.Vec4{1, 1, 1, 0}); got != FragmentDefault {
		t.Errorf("identity mono should simplify to default, got %v", got)
	}
	if got := FragmentNegative.Simplify(mgl32.Vec4{}); got != FragmentNegative {
		t.Errorf("negative should never simplify, got %v", got)
	}
}

func TestFragmentShaderEvaluate(t *testing.T) {
	c := FloatColor4{R: 0.5, G: 0.25, B: 1, A: 0.75}

	neg := FragmentNegative.Evaluate(c, mgl32.Vec4{})
	if neg.R != 0.5 || neg.G != 0.75 || neg.B != 0 || neg.A != 0.75 {
		t.Errorf("negative = %+v", neg)
	}

	fill := FragmentFill.Evaluate(c, mgl32.Vec4{1, 1, 1, 1})
	if fill.R != 1 || fill.G != 1 || fill.B != 1 || fill.A != 0.75 {
		t.Errorf("full fill = %+v", fill)
	}

	ident := FragmentDefault.Evaluate(c, mgl32.Vec4{})
	if ident != c {
		t.Errorf("default should pass through, got %+v", ident)
	}
}

func TestCanvasProjection(t *testing.T) {
	proj := CanvasProjection()

	center := proj.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if center.X() != 0 || center.Y() != 0 {
		t.Errorf("center maps to (%v, %v), want origin", center.X(), center.Y())
	}
	if center.Z() != 0.5 {
		t.Errorf("center depth = %v, want 0.5", center.Z())
	}

	corner := proj.Mul4x1(mgl32.Vec4{960, 540, 0, 1})
	if corner.X() != 1 || corner.Y() != 1 {
		t.Errorf("bottom-right maps to (%v, %v), want (1, 1)", corner.X(), corner.Y())
	}
}

func TestTopLeftProjection(t *testing.T) {
	proj := TopLeftProjection()
	center := proj.Mul4x1(mgl32.Vec4{VirtualCanvasWidth / 2, VirtualCanvasHeight / 2, 0, 1})
	if center.X() != 0 || center.Y() != 0 {
		t.Errorf("canvas center maps to (%v, %v), want origin", center.X(), center.Y())
	}
}

func TestUnormColorPacking(t *testing.T) {
	if got := ColorWhite.Unorm(); got != UnormWhite {
		t.Errorf("white = %#x, want %#x", got, UnormWhite)
	}
	if got := ColorBlack.Unorm(); got != UnormBlack {
		t.Errorf("black = %#x, want %#x", got, UnormBlack)
	}

	red := FloatColor4{R: 1, A: 1}.Unorm()
	if red != 0xff0000ff {
		t.Errorf("red = %#x, want 0xff0000ff", red)
	}
}

func TestUnormColorFromProperty(t *testing.T) {
	// 4 bits per channel, ARGB nibble order, each nibble doubled.
	if got := UnormColorFromProperty(0x7fff); got != UnormColor(0x77ffffff) {
		t.Errorf("0x7fff = %#x, want 0x77ffffff", got)
	}
	if got := UnormColorFromProperty(0xf000); got != UnormColor(0xff000000) {
		t.Errorf("0xf000 = %#x, want 0xff000000", got)
	}
}

func TestVertexEncoding(t *testing.T) {
	src := VertexData([]PosColVertex{
		{Position: mgl32.Vec3{1, 2, 3}, Color: UnormWhite},
		{Position: mgl32.Vec3{4, 5, 6}, Color: UnormBlack},
	})
	data := src.Bytes()
	if len(data) != 2*vertexStride(FormatPosCol) {
		t.Fatalf("encoded %d bytes, want %d", len(data), 2*vertexStride(FormatPosCol))
	}
	if data[12] != 0xff || data[13] != 0xff || data[14] != 0xff || data[15] != 0xff {
		t.Errorf("first color bytes = % x, want ff ff ff ff", data[12:16])
	}
}

func TestVertexLayoutsMatchStrides(t *testing.T) {
	formats := []VertexFormat{FormatPos, FormatPosCol, FormatPosColTex, FormatPosTex, FormatText, FormatMask}
	for _, f := range formats {
		layout := f.layout()
		if layout.ArrayStride != uint64(vertexStride(f)) {
			t.Errorf("format %d: layout stride %d != encoded stride %d", f, layout.ArrayStride, vertexStride(f))
		}
		var offset uint64
		for _, a := range layout.Attributes {
			if a.Offset < offset {
				t.Errorf("format %d: attribute offsets not monotonic", f)
			}
			offset = a.Offset
		}
	}
}

func TestQuadVertices(t *testing.T) {
	q := NewQuadVertices().WithBox(-960, -540, 960, 540)
	verts := q.IntoPosTex()
	if len(verts) != 4 {
		t.Fatalf("quad has %d vertices, want 4", len(verts))
	}
	// Strip order: top-left, top-right, bottom-left, bottom-right.
	if verts[0].Position.X() != -960 || verts[0].Position.Y() != -540 {
		t.Errorf("top-left = %v", verts[0].Position)
	}
	if verts[3].Position.X() != 960 || verts[3].Position.Y() != 540 {
		t.Errorf("bottom-right = %v", verts[3].Position)
	}
	if verts[1].TexturePosition != (mgl32.Vec2{1, 0}) {
		t.Errorf("top-right tex = %v, want (1, 0)", verts[1].TexturePosition)
	}
}

func TestRequestBuilderChaining(t *testing.T) {
	req := NewRenderRequestBuilder().
		DepthStencilShorthand(3, true, false).
		LayerColorBlend(LayerBlendType2).
		CullFaces(CullBack).
		Build(ProgramInvocation{
			Program: ProgramFill,
			Fill: &FillProgram{
				Vertices:  VertexData(NewQuadVertices().IntoPosCol(UnormWhite)),
				Transform: mgl32.Ident4(),
			},
		}, PrimitiveTrianglesStrip)

	if req.ColorBlend != BlendLayer2 {
		t.Errorf("blend = %v, want BlendLayer2", req.ColorBlend)
	}
	if req.CullFace != CullBack {
		t.Errorf("cull = %v, want back", req.CullFace)
	}
	if req.DepthStencil.Stencil.Reference != 3 {
		t.Errorf("stencil ref = %v, want 3", req.DepthStencil.Stencil.Reference)
	}
	if req.Invocation.VertexCount() != 4 {
		t.Errorf("vertex count = %v, want 4", req.Invocation.VertexCount())
	}
}

func TestEncodeInvocationLayer(t *testing.T) {
	inv := ProgramInvocation{
		Program: ProgramLayer,
		Layer: &LayerProgram{
			OutputKind:          LayerOutputPremultiply,
			FragmentShader:      FragmentNegative,
			Vertices:            VertexData(NewQuadVertices().IntoPosTex()),
			Transform:           mgl32.Ident4(),
			ColorMultiplier:     mgl32.Vec4{1, 1, 1, 1},
			FragmentShaderParam: mgl32.Vec4{},
		},
	}
	uniform, vertices, textures, err := encodeInvocation(&inv)
	if err != nil {
		t.Fatal(err)
	}
	if len(uniform) != 112 {
		t.Errorf("uniform size = %d, want 112", len(uniform))
	}
	if len(vertices) != 4*vertexStride(FormatPosTex) {
		t.Errorf("vertex bytes = %d, want %d", len(vertices), 4*vertexStride(FormatPosTex))
	}
	if len(textures) != 1 {
		t.Errorf("texture count = %d, want 1", len(textures))
	}
}

func TestAlignUp(t *testing.T) {
	if got := alignUp(0, 256); got != 0 {
		t.Errorf("alignUp(0) = %d", got)
	}
	if got := alignUp(1, 256); got != 256 {
		t.Errorf("alignUp(1) = %d", got)
	}
	if got := alignUp(256, 256); got != 256 {
		t.Errorf("alignUp(256) = %d", got)
	}
	if got := alignUp(257, 256); got != 512 {
		t.Errorf("alignUp(257) = %d", got)
	}
}

func TestDynamicBufferSliceExpiresAtRecall(t *testing.T) {
	b := &DynamicBuffer{}

	slice := BufferSlice{frame: b.frame}
	if !b.Holds(slice) {
		t.Error("fresh slice should belong to the current frame")
	}

	b.Recall()
	if b.Holds(slice) {
		t.Error("slice from before Recall should be expired")
	}

	next := BufferSlice{frame: b.frame}
	if !b.Holds(next) {
		t.Error("slice pushed after Recall should belong to the new frame")
	}
}
