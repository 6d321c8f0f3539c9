package layer

import (
	"testing"

	"github.com/DCNick3/shin-sub001/pkg/render"
)

func TestPropertyInitialValues(t *testing.T) {
	cases := []struct {
		prop Property
		want int32
	}{
		{TranslateX, 0},
		{TranslateZ, 1000},
		{ShowLayer, 1},
		{MulColorAlpha, 1000},
		{ScaleX, 1000},
		{ScaleY2, 1000},
		{GhostingZoom, 1000},
		{GhostingAlpha, 0},
		{WobbleXMode, 0},
		{WobbleAlphaBias, 1000},
	}
	for _, tc := range cases {
		if got := tc.prop.InitialValue(); got != tc.want {
			t.Errorf("InitialValue(%d) = %d, want %d", tc.prop, got, tc.want)
		}
	}
}

func TestPropertyIsValid(t *testing.T) {
	if !Property(0).IsValid() || !Property(PropertyCount - 1).IsValid() {
		t.Error("in-range properties reported invalid")
	}
	if Property(-1).IsValid() || PropertyCount.IsValid() {
		t.Error("out-of-range properties reported valid")
	}
}

func TestPropertiesVisibility(t *testing.T) {
	p := NewProperties()
	if !p.IsVisible() {
		t.Fatal("fresh properties should be visible")
	}

	p.Tweener(MulColorAlpha).FastForwardTo(0)
	if p.IsVisible() {
		t.Error("visible with zero alpha")
	}
	p.Init()

	p.Tweener(ShowLayer).FastForwardTo(0)
	if p.IsVisible() {
		t.Error("visible with ShowLayer off")
	}
	p.Init()

	p.Tweener(ScaleX).FastForwardTo(0)
	if p.IsVisible() {
		t.Error("visible with zero x scale")
	}
}

func TestColorMultiplier(t *testing.T) {
	p := NewProperties()
	if got := p.ColorMultiplier(); got != render.ColorWhite {
		t.Fatalf("default color multiplier = %+v", got)
	}

	p.Tweener(MulColorRed).FastForwardTo(500)
	p.Tweener(MulColorAlpha).FastForwardTo(250)
	got := p.ColorMultiplier()
	if got.R != 0.5 {
		t.Errorf("R = %v, want 0.5", got.R)
	}
	if got.A != 0.25 {
		t.Errorf("A = %v, want 0.25", got.A)
	}

	// channels go up to 2x, then clamp
	p.Tweener(MulColorGreen).FastForwardTo(2000)
	p.Tweener(MulColorBlue).FastForwardTo(9000)
	got = p.ColorMultiplier()
	if got.G != 2 || got.B != 2 {
		t.Errorf("G, B = %v, %v, want 2, 2", got.G, got.B)
	}
}

func TestBlendAndShaderValues(t *testing.T) {
	p := NewProperties()
	if got := p.BlendTypeValue(); got != render.LayerBlendType1 {
		t.Errorf("default blend = %v", got)
	}
	p.Tweener(BlendType).FastForwardTo(1)
	if got := p.BlendTypeValue(); got != render.LayerBlendType2 {
		t.Errorf("blend 1 = %v, want LayerBlendType2", got)
	}
	p.Tweener(BlendType).FastForwardTo(7)
	if got := p.BlendTypeValue(); got != render.LayerBlendType1 {
		t.Errorf("unknown blend value should fall back to LayerBlendType1, got %v", got)
	}

	if p.IsFragmentShaderNontrivial() {
		t.Error("default fragment state reported nontrivial")
	}
	p.Tweener(MulColorRed).FastForwardTo(500)
	if !p.IsFragmentShaderNontrivial() {
		t.Error("tinted layer not reported nontrivial")
	}
}

func TestIsBlendingNontrivial(t *testing.T) {
	p := NewProperties()
	if p.IsBlendingNontrivial() {
		t.Error("opaque default reported blending")
	}
	p.Tweener(MulColorAlpha).FastForwardTo(999)
	if !p.IsBlendingNontrivial() {
		t.Error("translucent layer not reported blending")
	}
	p.Init()
	p.Tweener(BlendType).FastForwardTo(2)
	if !p.IsBlendingNontrivial() {
		t.Error("additive layer not reported blending")
	}
}

func TestClipParamsNormalized(t *testing.T) {
	p := NewProperties()
	p.Tweener(ClipMode).FastForwardTo(1)
	p.Tweener(ClipFromX).FastForwardTo(300)
	p.Tweener(ClipToX).FastForwardTo(100)
	p.Tweener(ClipFromY).FastForwardTo(10)
	p.Tweener(ClipToY).FastForwardTo(60)

	clip := p.ClipParamsValue()
	if clip.Mode != Clip {
		t.Fatalf("mode = %v", clip.Mode)
	}
	want := [4]float32{100, 10, 200, 50}
	for i, v := range want {
		if clip.Area[i] != v {
			t.Errorf("area[%d] = %v, want %v", i, clip.Area[i], v)
		}
	}
}

func TestPropertiesCloneIsIndependent(t *testing.T) {
	p := NewProperties()
	p.Tweener(TranslateX).FastForwardTo(100)

	c := p.Clone()
	p.Tweener(TranslateX).FastForwardTo(500)

	if got := c.Value(TranslateX); got != 100 {
		t.Errorf("clone value changed with original: %v", got)
	}
	c.Tweener(TranslateY).FastForwardTo(42)
	if got := p.Value(TranslateY); got != 0 {
		t.Errorf("original value changed with clone: %v", got)
	}
}

func TestSnapshotInit(t *testing.T) {
	s := NewSnapshot()
	if s.Get(MulColorAlpha) != 1000 || s.Get(ShowLayer) != 1 || s.Get(TranslateX) != 0 {
		t.Errorf("snapshot defaults wrong: %v %v %v",
			s.Get(MulColorAlpha), s.Get(ShowLayer), s.Get(TranslateX))
	}
	s.Set(TranslateX, 77)
	if s.Get(TranslateX) != 77 {
		t.Error("Set did not store the value")
	}
	s.Init()
	if s.Get(TranslateX) != 0 {
		t.Error("Init did not reset the value")
	}
}

func TestWobblerWaveforms(t *testing.T) {
	eval := func(mode WobbleMode, time float32) float32 {
		w := Wobbler{mode: mode, period: 60, time: time}
		return w.Value()
	}

	cases := []struct {
		name string
		mode WobbleMode
		time float32
		want float32
	}{
		{"sawtooth-start", WobbleSawtooth, 0, 0},
		{"sawtooth-middle", WobbleSawtooth, 0.5, 0.5},
		{"inv-sawtooth", WobbleInvSawtooth, 0.25, 0.75},
		{"square-low", WobbleSquare, 0.25, -1},
		{"square-high", WobbleSquare, 0.75, 1},
		{"triangular-up", WobbleTriangular, 0.125, 0.5},
		{"triangular-down", WobbleTriangular, 0.5, 0},
		{"triangular-end", WobbleTriangular, 0.875, -0.5},
		{"sine-quarter", WobbleSine, 0.25, 1},
		{"cosine-start", WobbleCosine, 0, 1},
	}
	for _, tc := range cases {
		if got := eval(tc.mode, tc.time); !nearlyEqual(got, tc.want) {
			t.Errorf("%s: value = %v, want %v", tc.name, got, tc.want)
		}
	}

	var disabled Wobbler
	if _, ok := disabled.ValueOpt(); ok {
		t.Error("disabled wobbler reported active")
	}
}

func TestWobbleRandIsDeterministic(t *testing.T) {
	a := wobbleRand(3, 17)
	b := wobbleRand(3, 17)
	if a != b {
		t.Fatalf("same period and seed gave %v and %v", a, b)
	}
	if a < -1 || a > 1 {
		t.Errorf("value %v out of [-1, 1]", a)
	}
	if wobbleRand(3, 17) == wobbleRand(4, 17) &&
		wobbleRand(5, 17) == wobbleRand(6, 17) {
		t.Error("consecutive periods produced identical values")
	}
}

func nearlyEqual(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-5
}
