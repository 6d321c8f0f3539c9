package layer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/DCNick3/shin-sub001/pkg/render"
)

// pictureBlockPass selects which part of a tile's opacity mesh a draw
// covers.
type pictureBlockPass int

const (
	pictureOpaqueOnly pictureBlockPass = iota
	pictureTransparentOnly
	pictureOpaqueAndTransparent
)

// pictureBlockParams is the resolved draw state shared by every tile of
// a picture in one pass.
type pictureBlockParams struct {
	passKind            pictureBlockPass
	colorMultiplier     render.FloatColor4
	blendType           render.LayerBlendType
	fragmentShader      render.LayerFragmentShader
	fragmentShaderParam mgl32.Vec4
}

// setupPictureBlockParams decides whether a picture draws anything in
// the given pass and with which mesh parts. With the default blend and
// full alpha the opaque mesh goes to the opaque pass and only the
// transparent fringe needs blending; otherwise everything blends in the
// transparent pass.
func setupPictureBlockParams(passKind render.PassKind, drawable *DrawableParams) (pictureBlockParams, bool) {
	var canRenderInTwoPasses bool
	if drawable.BlendType == render.LayerBlendType1 {
		everythingNeedsBlending := drawable.ColorMultiplier.A < 1
		canRenderInTwoPasses = !everythingNeedsBlending
		if passKind == render.PassOpaque && everythingNeedsBlending {
			return pictureBlockParams{}, false
		}
	} else {
		canRenderInTwoPasses = false
		if passKind == render.PassOpaque {
			return pictureBlockParams{}, false
		}
	}

	blockPass := pictureOpaqueOnly
	if passKind == render.PassTransparent {
		blockPass = pictureTransparentOnly
		if !canRenderInTwoPasses {
			blockPass = pictureOpaqueAndTransparent
		}
	}

	return pictureBlockParams{
		passKind:            blockPass,
		colorMultiplier:     drawable.ColorMultiplier,
		blendType:           drawable.BlendType,
		fragmentShader:      drawable.FragmentShader.Simplify(drawable.ShaderParam),
		fragmentShaderParam: drawable.ShaderParam,
	}, true
}

// renderPictureBlock draws the selected mesh slice of one tile.
func renderPictureBlock(block *GpuPictureBlock, pass *render.RenderPass,
	builder render.RenderRequestBuilder, params pictureBlockParams, transform mgl32.Mat4) error {
	var vertices []render.PosTexVertex
	switch params.passKind {
	case pictureOpaqueOnly:
		vertices = block.vertices[:block.opaqueCount]
	case pictureTransparentOnly:
		vertices = block.vertices[block.opaqueCount:]
	case pictureOpaqueAndTransparent:
		vertices = block.vertices
	}
	if len(vertices) == 0 {
		return nil
	}

	blend := render.BlendOpaque
	if params.passKind != pictureOpaqueOnly {
		blend = render.BlendFromPremultipliedLayer(params.blendType)
	}

	req := builder.ColorBlendType(blend).Build(render.ProgramInvocation{
		Program: render.ProgramLayer,
		Layer: &render.LayerProgram{
			OutputKind:          render.LayerOutputPremultiply,
			FragmentShader:      params.fragmentShader,
			Vertices:            render.VertexData(vertices),
			Texture:             block.texture.Source(),
			Transform:           transform,
			ColorMultiplier:     params.colorMultiplier.Vec4(),
			FragmentShaderParam: params.fragmentShaderParam,
		},
	}, render.PrimitiveTriangles)
	return pass.Run(req)
}

// PictureLayer draws a PIC4 picture, tile by tile, splitting the
// opacity mesh between the opaque and transparent passes.
type PictureLayer struct {
	props   *Properties
	state   DrawableState
	picture *GpuPicture
	label   string
}

func NewPictureLayer(picture *GpuPicture, name string) *PictureLayer {
	if name == "" {
		name = "unnamed"
	}
	return &PictureLayer{
		props:   NewProperties(),
		state:   NewDrawableState(),
		picture: picture,
		label:   name,
	}
}

// Picture returns the uploaded picture the layer draws.
func (l *PictureLayer) Picture() *GpuPicture { return l.picture }

func (l *PictureLayer) Properties() *Properties { return l.props }

func (l *PictureLayer) Update(ctx *UpdateContext) {
	l.props.Update(ctx.Delta)
}

func (l *PictureLayer) FastForward() {
	l.props.FastForward()
}

func (l *PictureLayer) PreRender(ctx *PreRenderContext, parent *TransformParams) error {
	return l.state.PreRender(ctx, l.props, l, parent)
}

func (l *PictureLayer) Render(pass *render.RenderPass, parent *TransformParams,
	stencilRef uint8, passKind render.PassKind) error {
	return l.state.Render(l.props, l, pass, parent, stencilRef, passKind)
}

func (l *PictureLayer) StencilBump() uint8 { return 1 }

func (l *PictureLayer) RenderClone() Layer {
	return &PictureLayer{
		props:   l.props.Clone(),
		state:   NewDrawableState(),
		picture: l.picture,
		label:   l.label,
	}
}

func (l *PictureLayer) NeedsSeparatePass(_ *Properties) bool { return false }

func (l *PictureLayer) RenderIndirect(ctx *PreRenderContext, props *Properties,
	target render.TextureTarget, transform *TransformParams) (render.PassKind, error) {
	return renderIndirectDirectDraws(ctx, props, l, target, transform, "picture_layer")
}

func (l *PictureLayer) RenderDirect(pass *render.RenderPass, transform *TransformParams,
	drawable *DrawableParams, clip *ClipParams, stencilRef uint8, passKind render.PassKind) error {
	params, ok := setupPictureBlockParams(passKind, drawable)
	if !ok {
		return nil
	}
	if clip.Mode != ClipNone {
		return errClipUnsupported
	}

	builder := render.NewRenderRequestBuilder().
		DepthStencilShorthand(stencilRef, false, false)

	base := transform.FinalTransform().
		Mul4(mgl32.Translate3D(-l.picture.originX, -l.picture.originY, 0))
	for _, block := range l.picture.blocks {
		blockTransform := base.Mul4(mgl32.Translate3D(block.positionX, block.positionY, 0))
		if err := renderPictureBlock(block, pass, builder, params, blockTransform); err != nil {
			return err
		}
	}
	return nil
}
