package layer

import (
	"testing"

	"github.com/DCNick3/shin-sub001/pkg/vm"
)

func TestSaturatingAddU8(t *testing.T) {
	if got := saturatingAddU8(200, 55); got != 255 {
		t.Errorf("200+55 = %d", got)
	}
	if got := saturatingAddU8(200, 56); got != 255 {
		t.Errorf("200+56 should saturate, got %d", got)
	}
	if got := saturatingAddU8(255, 255); got != 255 {
		t.Errorf("255+255 should saturate, got %d", got)
	}
}

func TestStencilRefsPrefixSum(t *testing.T) {
	children := []Layer{NewNullLayer(), NewNullLayer(), NewNullLayer()}
	refs := stencilRefs(1, children)
	want := []uint8{1, 2, 3}
	for i, r := range refs {
		if r != want[i] {
			t.Errorf("refs[%d] = %d, want %d", i, r, want[i])
		}
	}

	// a nested group bumps by its whole subtree
	group := NewLayerGroup("test")
	group.AddLayer(0, NewNullLayer())
	group.AddLayer(1, NewNullLayer())
	refs = stencilRefs(1, []Layer{group, NewNullLayer()})
	if refs[0] != 1 || refs[1] != 4 {
		t.Errorf("refs = %v, want [1 4]", refs)
	}
}

func TestLayerGroupStencilBump(t *testing.T) {
	group := NewLayerGroup("test")
	if got := group.StencilBump(); got != 1 {
		t.Fatalf("empty group bump = %d", got)
	}
	group.AddLayer(0, NewNullLayer())
	group.AddLayer(1, NewNullLayer())
	if got := group.StencilBump(); got != 3 {
		t.Errorf("bump = %d, want 3", got)
	}
}

func TestLayerGroupOrdered(t *testing.T) {
	group := NewLayerGroup("test")

	back := NewNullLayer()
	front := NewNullLayer()
	front.Properties().Tweener(RenderPosition).FastForwardTo(10)
	tied := NewNullLayer()

	group.AddLayer(5, front)
	group.AddLayer(3, back)
	group.AddLayer(1, tied)

	ordered := group.ordered()
	if len(ordered) != 3 {
		t.Fatalf("len = %d", len(ordered))
	}
	// equal positions order by id, explicit positions render later
	if ordered[0] != Layer(tied) || ordered[1] != Layer(back) || ordered[2] != Layer(front) {
		t.Error("children not ordered by (position, id)")
	}
}

func TestLayerGroupAddRemove(t *testing.T) {
	group := NewLayerGroup("test")
	l := NewNullLayer()
	group.AddLayer(7, l)

	if l.Properties().LayerID() != 7 {
		t.Error("AddLayer did not stamp the layer id")
	}
	got, ok := group.GetLayer(7)
	if !ok || got != Layer(l) {
		t.Error("GetLayer did not return the added layer")
	}
	if ids := group.LayerIDs(); len(ids) != 1 || ids[0] != 7 {
		t.Errorf("LayerIDs = %v", ids)
	}

	group.RemoveLayer(7)
	if _, ok := group.GetLayer(7); ok {
		t.Error("layer still present after RemoveLayer")
	}
}

func TestLayerGroupRenderClone(t *testing.T) {
	group := NewLayerGroup("test")
	child := NewNullLayer()
	child.Properties().Tweener(TranslateX).FastForwardTo(11)
	group.AddLayer(vm.LayerID(2), child)

	clone := group.RenderClone().(*LayerGroup)
	cloneChild, ok := clone.GetLayer(2)
	if !ok {
		t.Fatal("clone lost the child")
	}
	if cloneChild == Layer(child) {
		t.Fatal("clone shares the child node")
	}
	if got := cloneChild.Properties().Value(TranslateX); got != 11 {
		t.Errorf("clone child TranslateX = %v", got)
	}

	child.Properties().Tweener(TranslateX).FastForwardTo(99)
	if got := cloneChild.Properties().Value(TranslateX); got != 11 {
		t.Errorf("clone child changed with the original: %v", got)
	}
}

func TestPageLayerPlanes(t *testing.T) {
	page := NewPageLayer()
	for i := 0; i < PlaneCount; i++ {
		if page.Plane(i) == nil {
			t.Fatalf("plane %d is nil", i)
		}
	}
	page.Plane(2).AddLayer(0, NewNullLayer())
	// page + 4 planes + 1 layer
	if got := page.StencilBump(); got != 6 {
		t.Errorf("bump = %d, want 6", got)
	}
}

func TestScreenLayerTransitionLifecycle(t *testing.T) {
	screen := NewScreenLayer()

	// without a snapshot the transition start is a no-op
	screen.StartTransition(nil, 0, 60)
	if screen.IsTransitioning() {
		t.Fatal("transitioning without a snapshot")
	}

	screen.PageBack()
	if !screen.IsTransitioning() {
		t.Fatal("snapshot should hold the wiper until the transition runs")
	}

	screen.StartTransition(nil, 0, 0)
	if screen.IsTransitioning() {
		t.Error("zero duration transition should complete instantly")
	}

	screen.PageBack()
	screen.StartTransition(nil, 0, 60)
	if !screen.IsTransitioning() {
		t.Fatal("transition did not start")
	}
	screen.Update(&UpdateContext{Delta: 30, AreAnimationsAllowed: true})
	if !screen.IsTransitioning() {
		t.Error("transition finished halfway through")
	}
	screen.Update(&UpdateContext{Delta: 31, AreAnimationsAllowed: true})
	if screen.IsTransitioning() {
		t.Error("transition still running after its duration")
	}
}

func TestRootLayerGroupStencilBump(t *testing.T) {
	message := NewMessageLayer(&MessageboxTextures{}, nil, nil, nil, nil)
	root := NewRootLayerGroup(NewScreenLayer(), message)

	// root(1) + screen(1 + page 5) + message(3)
	if got := root.StencilBump(); got != 10 {
		t.Errorf("bump = %d, want 10", got)
	}
}
