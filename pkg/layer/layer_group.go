package layer

import (
	"sort"

	"github.com/DCNick3/shin-sub001/pkg/render"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// LayerGroup is a composite node holding user layers addressed by
// LayerID. Children render back-to-front by their RenderPosition
// property, id breaking ties.
type LayerGroup struct {
	props  *Properties
	state  DrawableState
	layers map[vm.LayerID]Layer
	label  string
}

func NewLayerGroup(label string) *LayerGroup {
	return &LayerGroup{
		props:  NewProperties(),
		layers: make(map[vm.LayerID]Layer),
		state:  NewDrawableState(),
		label:  label,
	}
}

// AddLayer inserts or replaces the layer at id.
func (g *LayerGroup) AddLayer(id vm.LayerID, l Layer) {
	l.Properties().SetLayerID(id)
	g.layers[id] = l
}

// RemoveLayer drops the layer at id, if present.
func (g *LayerGroup) RemoveLayer(id vm.LayerID) {
	delete(g.layers, id)
}

// GetLayer returns the layer at id.
func (g *LayerGroup) GetLayer(id vm.LayerID) (Layer, bool) {
	l, ok := g.layers[id]
	return l, ok
}

// Clear removes every layer.
func (g *LayerGroup) Clear() {
	clear(g.layers)
}

// LayerIDs returns the used ids in ascending order.
func (g *LayerGroup) LayerIDs() []vm.LayerID {
	ids := make([]vm.LayerID, 0, len(g.layers))
	for id := range g.layers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ordered returns the children back-to-front.
func (g *LayerGroup) ordered() []Layer {
	type entry struct {
		id       vm.LayerID
		position float32
		layer    Layer
	}
	entries := make([]entry, 0, len(g.layers))
	for id, l := range g.layers {
		entries = append(entries, entry{
			id:       id,
			position: l.Properties().Value(RenderPosition),
			layer:    l,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].position != entries[j].position {
			return entries[i].position < entries[j].position
		}
		return entries[i].id < entries[j].id
	})
	ordered := make([]Layer, len(entries))
	for i, e := range entries {
		ordered[i] = e.layer
	}
	return ordered
}

// stencilRefs assigns each child its stencil reference by prefix sum,
// bottom child first.
func stencilRefs(base uint8, children []Layer) []uint8 {
	refs := make([]uint8, len(children))
	ref := base
	for i, l := range children {
		refs[i] = ref
		ref = saturatingAddU8(ref, l.StencilBump())
	}
	return refs
}

func saturatingAddU8(a, b uint8) uint8 {
	if sum := uint16(a) + uint16(b); sum <= 0xff {
		return uint8(sum)
	}
	return 0xff
}

func (g *LayerGroup) Properties() *Properties { return g.props }

func (g *LayerGroup) Update(ctx *UpdateContext) {
	g.props.Update(ctx.Delta)
	for _, l := range g.layers {
		l.Update(ctx)
	}
}

func (g *LayerGroup) FastForward() {
	g.props.FastForward()
	for _, l := range g.layers {
		l.FastForward()
	}
}

func (g *LayerGroup) PreRender(ctx *PreRenderContext, parent *TransformParams) error {
	selfTransform := g.props.ComposedTransformParams(parent)
	for _, l := range g.ordered() {
		if err := l.PreRender(ctx, &selfTransform); err != nil {
			return err
		}
	}
	return g.state.PreRender(ctx, g.props, g, parent)
}

func (g *LayerGroup) Render(pass *render.RenderPass, parent *TransformParams,
	stencilRef uint8, passKind render.PassKind) error {
	return g.state.Render(g.props, g, pass, parent, stencilRef, passKind)
}

func (g *LayerGroup) StencilBump() uint8 {
	var bump uint8 = 1
	for _, l := range g.layers {
		bump = saturatingAddU8(bump, l.StencilBump())
	}
	return bump
}

func (g *LayerGroup) RenderClone() Layer {
	layers := make(map[vm.LayerID]Layer, len(g.layers))
	for id, l := range g.layers {
		layers[id] = l.RenderClone()
	}
	return &LayerGroup{
		props:  g.props.Clone(),
		state:  NewDrawableState(),
		layers: layers,
		label:  g.label,
	}
}

// NeedsSeparatePass forces the group through an offscreen target when
// its own color state cannot be expressed on the individual children.
func (g *LayerGroup) NeedsSeparatePass(props *Properties) bool {
	return props.ClipModeValue() != ClipNone ||
		props.IsFragmentShaderNontrivial() ||
		props.IsBlendingNontrivial()
}

func (g *LayerGroup) RenderIndirect(ctx *PreRenderContext, props *Properties,
	target render.TextureTarget, transform *TransformParams) (render.PassKind, error) {
	return renderIndirectDirectDraws(ctx, props, g, target, transform, "layer_group")
}

// RenderDirect walks the children twice: the opaque phase front to
// back, the transparent phase back to front. Stencil references are
// assigned bottom-up so nearer layers win the opaque depth test.
func (g *LayerGroup) RenderDirect(pass *render.RenderPass, transform *TransformParams,
	_ *DrawableParams, clip *ClipParams, stencilRef uint8, passKind render.PassKind) error {
	if clip.Mode != ClipNone {
		return errClipUnsupported
	}

	return renderChildPhases(pass, transform, g.ordered(), stencilRef, passKind)
}
