package layer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"

	"github.com/DCNick3/shin-sub001/pkg/format/bustup"
	"github.com/DCNick3/shin-sub001/pkg/render"
)

// GpuBustup is one expression of a bustup uploaded to the GPU: the
// shared base blocks plus the expression's face overlays and the mouth
// and eye variant sets.
type GpuBustup struct {
	originX float32
	originY float32

	base   []*GpuPictureBlock
	face1  *GpuPictureBlock
	face2  *GpuPictureBlock
	mouths []*GpuPictureBlock
	eyes   []*GpuPictureBlock

	// Blocks are shared between variant sets, deduplicated by id.
	byID map[bustup.BlockID]*GpuPictureBlock
}

// NewGpuBustup uploads the blocks needed to draw one expression.
func NewGpuBustup(device hal.Device, queue hal.Queue, skeleton *bustup.Skeleton,
	expressionName, label string) (*GpuBustup, error) {
	var expression *bustup.Expression
	for i := range skeleton.Expressions {
		if skeleton.Expressions[i].Name == expressionName {
			expression = &skeleton.Expressions[i]
			break
		}
	}
	if expression == nil {
		return nil, fmt.Errorf("bustup has no expression %q", expressionName)
	}

	b := &GpuBustup{
		originX: float32(skeleton.OriginX),
		originY: float32(skeleton.OriginY),
		byID:    make(map[bustup.BlockID]*GpuPictureBlock),
	}
	upload := func(id bustup.BlockID) (*GpuPictureBlock, error) {
		if id == bustup.NoBlock {
			return nil, nil
		}
		if block, ok := b.byID[id]; ok {
			return block, nil
		}
		chunk, err := skeleton.DecodeBlock(id)
		if err != nil {
			return nil, err
		}
		block, err := newGpuPictureBlock(device, queue, chunk,
			fmt.Sprintf("%s/block%d", label, id))
		if err != nil {
			return nil, err
		}
		block.positionX = float32(chunk.OffsetX)
		block.positionY = float32(chunk.OffsetY)
		b.byID[id] = block
		return block, nil
	}
	uploadList := func(ids []bustup.BlockID) ([]*GpuPictureBlock, error) {
		var blocks []*GpuPictureBlock
		for _, id := range ids {
			block, err := upload(id)
			if err != nil {
				return nil, err
			}
			if block != nil {
				blocks = append(blocks, block)
			}
		}
		return blocks, nil
	}

	err := func() error {
		var err error
		if b.base, err = uploadList(skeleton.Base); err != nil {
			return err
		}
		if b.face1, err = upload(expression.Face1); err != nil {
			return err
		}
		if b.face2, err = upload(expression.Face2); err != nil {
			return err
		}
		if b.mouths, err = uploadList(expression.Mouths); err != nil {
			return err
		}
		b.eyes, err = uploadList(expression.Eyes)
		return err
	}()
	if err != nil {
		b.Destroy(device)
		return nil, err
	}
	return b, nil
}

// MouthCount returns the number of mouth variants of the expression.
func (b *GpuBustup) MouthCount() int { return len(b.mouths) }

// EyeCount returns the number of eye variants of the expression.
func (b *GpuBustup) EyeCount() int { return len(b.eyes) }

// Destroy frees every uploaded block.
func (b *GpuBustup) Destroy(device hal.Device) {
	for _, block := range b.byID {
		block.texture.Destroy(device)
	}
	b.byID = nil
	b.base = nil
	b.face1 = nil
	b.face2 = nil
	b.mouths = nil
	b.eyes = nil
}

// BustupLayer draws a character sprite: the base image, the face
// overlays and the currently selected mouth and eye variants. Lipsync
// drives the mouth index from voice playback.
type BustupLayer struct {
	props  *Properties
	state  DrawableState
	bustup *GpuBustup
	label  string

	mouthIndex int
	eyeIndex   int
}

func NewBustupLayer(b *GpuBustup, name string) *BustupLayer {
	if name == "" {
		name = "unnamed"
	}
	return &BustupLayer{
		props:  NewProperties(),
		state:  NewDrawableState(),
		bustup: b,
		label:  name,
	}
}

// SetMouthIndex selects the mouth variant, clamped to the available
// set.
func (l *BustupLayer) SetMouthIndex(index int) {
	if index < 0 {
		index = 0
	}
	if n := len(l.bustup.mouths); index >= n {
		index = n - 1
	}
	l.mouthIndex = index
}

// SetEyeIndex selects the eye variant, clamped to the available set.
func (l *BustupLayer) SetEyeIndex(index int) {
	if index < 0 {
		index = 0
	}
	if n := len(l.bustup.eyes); index >= n {
		index = n - 1
	}
	l.eyeIndex = index
}

func (l *BustupLayer) Properties() *Properties { return l.props }

func (l *BustupLayer) Update(ctx *UpdateContext) {
	l.props.Update(ctx.Delta)
}

func (l *BustupLayer) FastForward() {
	l.props.FastForward()
}

func (l *BustupLayer) PreRender(ctx *PreRenderContext, parent *TransformParams) error {
	return l.state.PreRender(ctx, l.props, l, parent)
}

func (l *BustupLayer) Render(pass *render.RenderPass, parent *TransformParams,
	stencilRef uint8, passKind render.PassKind) error {
	return l.state.Render(l.props, l, pass, parent, stencilRef, passKind)
}

func (l *BustupLayer) StencilBump() uint8 { return 1 }

func (l *BustupLayer) RenderClone() Layer {
	return &BustupLayer{
		props:      l.props.Clone(),
		state:      NewDrawableState(),
		bustup:     l.bustup,
		label:      l.label,
		mouthIndex: l.mouthIndex,
		eyeIndex:   l.eyeIndex,
	}
}

func (l *BustupLayer) NeedsSeparatePass(_ *Properties) bool { return false }

func (l *BustupLayer) RenderIndirect(ctx *PreRenderContext, props *Properties,
	target render.TextureTarget, transform *TransformParams) (render.PassKind, error) {
	return renderIndirectDirectDraws(ctx, props, l, target, transform, "bustup_layer")
}

func (l *BustupLayer) RenderDirect(pass *render.RenderPass, transform *TransformParams,
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
		Mul4(mgl32.Translate3D(-l.bustup.originX, -l.bustup.originY, 0))

	draw := func(block *GpuPictureBlock) error {
		if block == nil {
			return nil
		}
		blockTransform := base.Mul4(mgl32.Translate3D(block.positionX, block.positionY, 0))
		return renderPictureBlock(block, pass, builder, params, blockTransform)
	}

	for _, block := range l.bustup.base {
		if err := draw(block); err != nil {
			return err
		}
	}
	if err := draw(l.bustup.face1); err != nil {
		return err
	}
	if err := draw(l.bustup.face2); err != nil {
		return err
	}
	if len(l.bustup.eyes) > 0 {
		if err := draw(l.bustup.eyes[l.eyeIndex]); err != nil {
			return err
		}
	}
	if len(l.bustup.mouths) > 0 {
		if err := draw(l.bustup.mouths[l.mouthIndex]); err != nil {
			return err
		}
	}
	return nil
}
