package render

import "github.com/go-gl/mathgl/mgl32"

// RenderProgramID names a shader program of the closed pipeline set.
type RenderProgramID int

const (
	ProgramClear RenderProgramID = iota
	ProgramFill
	ProgramSprite
	ProgramFont
	ProgramFontBorder
	ProgramButton
	ProgramBlend
	ProgramWindow
	ProgramLayer
	ProgramMask
	ProgramDissolve
	ProgramTapEffect
	ProgramMovie
	ProgramWiperDefault
	ProgramWiperMask
	ProgramWiperWave
	ProgramWiperRipple
	ProgramWiperWhirl
	ProgramWiperGlass
	ProgramCharIcon
	ProgramMosaic
	ProgramBlur
	ProgramZoomBlur
	ProgramRaster
	ProgramRipple
	ProgramBreakup
	ProgramGlass
)

// ProgramInvocation carries one fully-specified draw: the program, its
// vertices and its uniform arguments. Exactly one of the typed argument
// fields is used, selected by Program.
type ProgramInvocation struct {
	Program RenderProgramID

	Clear        *ClearProgram
	Fill         *FillProgram
	Sprite       *SpriteProgram
	Font         *FontProgram
	FontBorder   *FontBorderProgram
	Button       *ButtonProgram
	Blend        *BlendProgram
	Layer        *LayerProgram
	Mask         *MaskProgram
	Movie        *MovieProgram
	WiperDefault *WiperDefaultProgram
	WiperMask    *WiperMaskProgram
}

// ClearProgram fills the covered area with a flat color.
type ClearProgram struct {
	Vertices VertexSource[PosVertex]
	Color    FloatColor4
}

// FillProgram draws vertex-colored geometry under a transform.
type FillProgram struct {
	Vertices  VertexSource[PosColVertex]
	Transform mgl32.Mat4
}

// SpriteProgram draws a textured, vertex-tinted quad.
type SpriteProgram struct {
	Vertices  VertexSource[PosColTexVertex]
	Sprite    TextureSource
	Transform mgl32.Mat4
}

// FontProgram draws glyph quads, mixing two colors by the glyph
// texture value.
type FontProgram struct {
	Vertices  VertexSource[TextVertex]
	Glyph     TextureSource
	Transform mgl32.Mat4
	Color1    mgl32.Vec4
	Color2    mgl32.Vec4
}

// FontBorderProgram draws glyph borders by sampling the glyph texture
// at eight offsets.
type FontBorderProgram struct {
	Vertices  VertexSource[TextVertex]
	Glyph     TextureSource
	Transform mgl32.Mat4
	Distances [8]mgl32.Vec2
	Color     mgl32.Vec4
}

// ButtonProgram draws UI button quads.
type ButtonProgram struct {
	Vertices  VertexSource[PosColTexVertex]
	Texture   TextureSource
	Transform mgl32.Mat4
}

// BlendProgram combines two textures by a vertex-provided factor.
type BlendProgram struct {
	Vertices  VertexSource[PosColTexVertex]
	Texture1  TextureSource
	Texture2  TextureSource
	Transform mgl32.Mat4
	BlendRate float32
}

// LayerProgram is the general textured layer draw with a selectable
// fragment operation and output kind.
type LayerProgram struct {
	OutputKind          LayerShaderOutputKind
	FragmentShader      LayerFragmentShader
	Vertices            VertexSource[PosTexVertex]
	Texture             TextureSource
	Transform           mgl32.Mat4
	ColorMultiplier     mgl32.Vec4
	FragmentShaderParam mgl32.Vec4
}

// MaskProgram is a layer draw gated by a second mask texture whose
// value is remapped into the [MinValue, MaxValue] window.
type MaskProgram struct {
	FragmentShader      LayerFragmentShader
	Vertices            VertexSource[MaskVertex]
	Texture             TextureSource
	Mask                TextureSource
	Transform           mgl32.Mat4
	ColorMultiplier     mgl32.Vec4
	FragmentShaderParam mgl32.Vec4
	MinValue            float32
	MaxValue            float32
}

// MovieProgram converts planar YUV frames to RGB on draw.
type MovieProgram struct {
	Vertices       VertexSource[PosTexVertex]
	TextureLuma    TextureSource
	TextureChroma  TextureSource
	Transform      mgl32.Mat4
	ColorBias      mgl32.Vec4
	ColorTransform [3]mgl32.Vec4
}

// WiperDefaultProgram crossfades a source and a target texture.
type WiperDefaultProgram struct {
	Vertices      VertexSource[PosTexVertex]
	TextureSource TextureSource
	TextureTarget TextureSource
	Transform     mgl32.Mat4
	Alpha         float32
}

// WiperMaskProgram crossfades through a mask texture, per pixel.
type WiperMaskProgram struct {
	Vertices      VertexSource[PosTexVertex]
	TextureSource TextureSource
	TextureTarget TextureSource
	TextureMask   TextureSource
	Transform     mgl32.Mat4
	MinValue      float32
	MaxValue      float32
}

// VertexCount returns the number of vertices the invocation draws.
func (p *ProgramInvocation) VertexCount() int {
	switch p.Program {
	case ProgramClear:
		return p.Clear.Vertices.Count()
	case ProgramFill:
		return p.Fill.Vertices.Count()
	case ProgramSprite:
		return p.Sprite.Vertices.Count()
	case ProgramFont:
		return p.Font.Vertices.Count()
	case ProgramFontBorder:
		return p.FontBorder.Vertices.Count()
	case ProgramButton:
		return p.Button.Vertices.Count()
	case ProgramBlend:
		return p.Blend.Vertices.Count()
	case ProgramLayer:
		return p.Layer.Vertices.Count()
	case ProgramMask:
		return p.Mask.Vertices.Count()
	case ProgramMovie:
		return p.Movie.Vertices.Count()
	case ProgramWiperDefault:
		return p.WiperDefault.Vertices.Count()
	case ProgramWiperMask:
		return p.WiperMask.Vertices.Count()
	default:
		return 0
	}
}
