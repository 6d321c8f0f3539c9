package adv

import (
	"testing"

	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

type fakeBgm struct {
	status   vm.AudioWaitStatus
	position uint32
	stopped  bool
}

func (f *fakeBgm) Play(*nxa.File, bool, float32, tick.Tween) {}
func (f *fakeBgm) SetVolume(float32, tick.Tween)             {}
func (f *fakeBgm) Stop(tick.Tween)                           { f.stopped = true }
func (f *fakeBgm) WaitStatus() vm.AudioWaitStatus            { return f.status }
func (f *fakeBgm) PositionMillis() uint32                    { return f.position }

type fakeSe struct {
	status [SeSlotCount]vm.AudioWaitStatus
}

func (f *fakeSe) Play(int32, *nxa.File, bool, float32, float32, tick.Tween) {}
func (f *fakeSe) SetVolume(int32, float32, tick.Tween)                      {}
func (f *fakeSe) SetPanning(int32, float32, tick.Tween)                     {}
func (f *fakeSe) Stop(int32, tick.Tween)                                    {}
func (f *fakeSe) StopAll(tick.Tween)                                        {}
func (f *fakeSe) WaitStatus(slot int32) vm.AudioWaitStatus                  { return f.status[slot] }

type fakeVoice struct {
	status vm.AudioWaitStatus
}

func (f *fakeVoice) Play(string, float32, bool, int32, int32) bool { return true }
func (f *fakeVoice) Stop()                                         {}
func (f *fakeVoice) WaitStatus() vm.AudioWaitStatus                { return f.status }

func newTestScene() *AdvState {
	root := layer.NewRootLayerGroup(
		layer.NewScreenLayer(),
		layer.NewMessageLayer(nil, nil, nil, nil, nil),
	)
	return NewAdvState(root, &fakeBgm{}, &fakeSe{}, &fakeVoice{})
}

// runStartable pushes a command through both phases the way the
// dispatcher does.
func runStartable(t *testing.T, command vm.Command, state *VmState, scene *AdvState) StartResult {
	t.Helper()
	startable, err := NewStartable(command)
	if err != nil {
		t.Fatalf("NewStartable(%T): %v", command, err)
	}
	startable.ApplyState(state)
	return startable.Start(&UpdateContext{}, state, scene)
}

func TestFormatDebugOut(t *testing.T) {
	for _, tc := range []struct {
		format string
		args   []int32
		want   string
	}{
		{"hello", nil, "hello"},
		{"x=%d y=%i", []int32{3, -4}, "x=3 y=-4"},
		{"100%%", nil, "100%"},
		{"%d %d", []int32{1}, "1 <missing>"},
		{"%s", []int32{1}, "%s"},
		{"trailing %", nil, "trailing %"},
	} {
		if got := formatDebugOut(tc.format, tc.args); got != tc.want {
			t.Errorf("formatDebugOut(%q, %v) = %q, want %q", tc.format, tc.args, got, tc.want)
		}
	}
}

func TestExecWaitCountsDown(t *testing.T) {
	w := &execWait{left: 3}
	ctx := &UpdateContext{Delta: 1}
	for i := 0; i < 2; i++ {
		if _, done := w.Update(ctx, nil, nil, false); done {
			t.Fatalf("wait finished after %d of 3 ticks", i+1)
		}
	}
	if _, done := w.Update(ctx, nil, nil, false); !done {
		t.Error("wait not finished after 3 ticks")
	}
}

func TestExecWaitFastForward(t *testing.T) {
	w := &execWait{left: 1000}
	if _, done := w.Update(&UpdateContext{Delta: 1}, nil, nil, true); !done {
		t.Error("fast forward did not cut the wait short")
	}
}

func TestSSetThenSGet(t *testing.T) {
	state := NewVmState()
	scene := newTestScene()

	runStartable(t, vm.SSetCommand{SlotNumber: 7, Value: 1234}, state, scene)
	res := runStartable(t, vm.SGetCommand{Dest: 0x10, SlotNumber: 7}, state, scene)

	if res.Executing() != nil || res.Exit() {
		t.Fatal("SGET did not finish synchronously")
	}
	if want := vm.ResultWrite(0x10, 1234); res.Result() != want {
		t.Errorf("SGET result = %+v, want %+v", res.Result(), want)
	}
}

func TestExitCommand(t *testing.T) {
	res := runStartable(t, vm.ExitCommand{}, NewVmState(), newTestScene())
	if !res.Exit() {
		t.Error("EXIT did not request shutdown")
	}
}

func TestLayerSelectReversedRange(t *testing.T) {
	state := NewVmState()
	runStartable(t, vm.LayerSelectCommand{SelectionStart: 9, SelectionEnd: 2}, state, newTestScene())
	want := LayerSelection{From: 2, To: 9}
	if state.Layers.Selection != want {
		t.Errorf("Selection = %+v, want %+v", state.Layers.Selection, want)
	}
}

func TestPlaneSelectRejectsOutOfRange(t *testing.T) {
	state := NewVmState()
	scene := newTestScene()
	runStartable(t, vm.PlaneSelectCommand{PlaneID: 2}, state, scene)
	runStartable(t, vm.PlaneSelectCommand{PlaneID: 7}, state, scene)
	if state.Layers.CurrentPlane != 2 {
		t.Errorf("CurrentPlane = %d, want 2", state.Layers.CurrentPlane)
	}
}

func TestPageBackOnlyOncePerWipe(t *testing.T) {
	state := NewVmState()

	first := &cmdPageBack{}
	first.ApplyState(state)
	if !first.needed {
		t.Error("first PAGEBACK was not needed")
	}

	second := &cmdPageBack{}
	second.ApplyState(state)
	if second.needed {
		t.Error("second PAGEBACK before a wipe was needed")
	}

	wipe := &cmdWipe{}
	wipe.ApplyState(state)
	if !wipe.needed {
		t.Error("wipe after PAGEBACK was not needed")
	}

	redundant := &cmdWipe{}
	redundant.ApplyState(state)
	if redundant.needed {
		t.Error("wipe without a PAGEBACK was needed")
	}

	again := &cmdPageBack{}
	again.ApplyState(state)
	if !again.needed {
		t.Error("PAGEBACK after a wipe was not needed")
	}
}

func TestExecSeWaitSingleSlot(t *testing.T) {
	scene := newTestScene()
	se := scene.Se.(*fakeSe)
	se.status[3] = vm.AudioStatusPlaying

	w := &execSeWait{slot: 3, unwanted: vm.AudioStatusPlaying}
	if _, done := w.Update(nil, nil, scene, false); done {
		t.Fatal("wait finished while the slot was playing")
	}
	se.status[3] = 0
	if _, done := w.Update(nil, nil, scene, false); !done {
		t.Error("wait did not finish after the slot stopped")
	}
}

func TestExecSeWaitAllSlots(t *testing.T) {
	scene := newTestScene()
	se := scene.Se.(*fakeSe)
	se.status[0] = vm.AudioStatusPlaying
	se.status[31] = vm.AudioStatusPlaying

	w := &execSeWait{slot: -1, unwanted: vm.AudioStatusPlaying}
	if _, done := w.Update(nil, nil, scene, false); done {
		t.Fatal("wait finished while slots were playing")
	}
	se.status[0] = 0
	if _, done := w.Update(nil, nil, scene, false); done {
		t.Fatal("wait finished while slot 31 was playing")
	}
	se.status[31] = 0
	if _, done := w.Update(nil, nil, scene, false); !done {
		t.Error("wait did not finish after all slots stopped")
	}
}

func TestExecBgmSync(t *testing.T) {
	scene := newTestScene()
	bgm := scene.Bgm.(*fakeBgm)
	bgm.status = vm.AudioStatusPlaying
	bgm.position = 500

	w := &execBgmSync{syncMillis: 1000}
	if _, done := w.Update(nil, nil, scene, false); done {
		t.Fatal("sync finished before the track reached the target")
	}
	bgm.position = 1000
	if _, done := w.Update(nil, nil, scene, false); !done {
		t.Error("sync did not finish at the target position")
	}

	bgm.position = 0
	bgm.status = 0
	w = &execBgmSync{syncMillis: 1000}
	if _, done := w.Update(nil, nil, scene, false); !done {
		t.Error("sync did not finish on a stopped track")
	}
}

func TestBgmPlayRecordsResumableState(t *testing.T) {
	state := NewVmState()

	repeat := &cmdBgmPlay{cmd: vm.BgmPlayCommand{BgmDataID: 3, Volume: 0.8}}
	repeat.ApplyState(state)
	if state.Audio.Bgm == nil || state.Audio.Bgm.BgmID != 3 {
		t.Fatalf("Bgm state = %+v, want id 3", state.Audio.Bgm)
	}

	oneShot := &cmdBgmPlay{cmd: vm.BgmPlayCommand{BgmDataID: 4, NoRepeat: true}}
	oneShot.ApplyState(state)
	if state.Audio.Bgm != nil {
		t.Errorf("one-shot track recorded as %+v", state.Audio.Bgm)
	}
}

func TestLayerCtrlWritesAggregateSnapshot(t *testing.T) {
	state := NewVmState()
	scene := newTestScene()

	runStartable(t, vm.LayerCtrlCommand{
		LayerID:    vm.VLayerPlaneGroup,
		PropertyID: int32(layer.TranslateX),
		Target:     320,
	}, state, scene)

	if got := state.Layers.Planes[0].Properties.Get(layer.TranslateX); got != 320 {
		t.Errorf("snapshot TranslateX = %d, want 320", got)
	}
}

func TestLayerCtrlTweensSceneProperties(t *testing.T) {
	state := NewVmState()
	scene := newTestScene()

	runStartable(t, vm.LayerCtrlCommand{
		LayerID:    vm.VLayerPlaneGroup,
		PropertyID: int32(layer.TranslateX),
		Target:     100,
		Time:       60,
	}, state, scene)

	props := scene.PlaneGroup(0).Properties()
	tweener := props.Tweener(layer.TranslateX)
	if tweener.IsIdle() {
		t.Fatal("no tween was enqueued")
	}
	if got := tweener.Target(); got != 100 {
		t.Errorf("tween target = %v, want 100", got)
	}

	wait := &execLayerWait{layerID: vm.VLayerPlaneGroup, props: []layer.Property{layer.TranslateX}}
	if _, done := wait.Update(nil, state, scene, false); done {
		t.Fatal("LAYERWAIT finished while the tween was running")
	}
	props.Update(60)
	if _, done := wait.Update(nil, state, scene, false); !done {
		t.Error("LAYERWAIT did not finish after the tween completed")
	}
}

func TestLayerCtrlInvalidPropertyIsIgnored(t *testing.T) {
	state := NewVmState()
	runStartable(t, vm.LayerCtrlCommand{
		LayerID:    vm.VLayerPlaneGroup,
		PropertyID: 10000,
		Target:     1,
	}, state, newTestScene())
}

func TestLayerUnloadFreesBanks(t *testing.T) {
	state := NewVmState()
	scene := newTestScene()
	layers := state.Layers

	bank, _ := layers.Allocator.Alloc(0, 5)
	layers.Layerbanks[bank].Loaded = true
	scene.PlaneGroup(0).AddLayer(5, layer.NewNullLayer())

	runStartable(t, vm.LayerUnloadCommand{LayerID: 5}, state, scene)

	if layers.Layerbanks[bank].Loaded {
		t.Error("layerbank still marked loaded")
	}
	if _, ok := layers.Allocator.Get(0, 5); ok {
		t.Error("layerbank not freed")
	}
	if _, ok := scene.GetLayer(0, 5); ok {
		t.Error("scene layer not removed")
	}
}

func TestLayerSwapMovesBanksAndLayers(t *testing.T) {
	state := NewVmState()
	scene := newTestScene()
	layers := state.Layers

	bank, _ := layers.Allocator.Alloc(0, 1)
	layers.Layerbanks[bank].Layer = 1
	l := layer.NewNullLayer()
	scene.PlaneGroup(0).AddLayer(1, l)

	runStartable(t, vm.LayerSwapCommand{Arg1: 1, Arg2: 2}, state, scene)

	if got, ok := layers.Allocator.Get(0, 2); !ok || got != bank {
		t.Errorf("layer 2 bank = (%d, %v), want (%d, true)", got, ok, bank)
	}
	if layers.Layerbanks[bank].Layer != 2 {
		t.Errorf("bank records layer %d, want 2", layers.Layerbanks[bank].Layer)
	}
	if got, ok := scene.GetLayer(0, 2); !ok || got != l {
		t.Error("scene layer did not move to id 2")
	}
	if _, ok := scene.GetLayer(0, 1); ok {
		t.Error("scene layer still present at id 1")
	}
}

func TestPlaneClearFreesEverythingOnThePlane(t *testing.T) {
	state := NewVmState()
	scene := newTestScene()
	layers := state.Layers

	for _, id := range []vm.LayerID{1, 2, 3} {
		bank, _ := layers.Allocator.Alloc(0, id)
		layers.Layerbanks[bank].Loaded = true
		scene.PlaneGroup(0).AddLayer(id, layer.NewNullLayer())
	}
	otherBank, _ := layers.Allocator.Alloc(1, 1)
	layers.Layerbanks[otherBank].Loaded = true
	layers.Planes[0].MaskID = 3

	runStartable(t, vm.PlaneClearCommand{}, state, scene)

	if got := layers.Allocator.AllocatedCount(); got != 1 {
		t.Errorf("AllocatedCount = %d, want 1 (the other plane)", got)
	}
	if layers.Planes[0].MaskID != -1 {
		t.Errorf("MaskID = %d, want -1", layers.Planes[0].MaskID)
	}
	if got := len(scene.PlaneGroup(0).LayerIDs()); got != 0 {
		t.Errorf("plane group still has %d layers", got)
	}
	if !layers.Layerbanks[otherBank].Loaded {
		t.Error("plane clear touched another plane's bank")
	}
}

func TestWipeWithoutPageBackFinishesImmediately(t *testing.T) {
	state := NewVmState()
	scene := newTestScene()

	res := runStartable(t, vm.WipeCommand{WipeTime: 60}, state, scene)
	if res.Executing() != nil {
		t.Error("redundant wipe yielded")
	}
	if scene.Screen().IsTransitioning() {
		t.Error("redundant wipe started a transition")
	}
}

func TestNewStartableUnknownCommand(t *testing.T) {
	if _, err := NewStartable(nil); err == nil {
		t.Error("expected an error for an unhandled command")
	}
}
