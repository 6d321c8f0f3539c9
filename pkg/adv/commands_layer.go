package adv

import (
	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/render"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

type cmdLayerSelect struct {
	cmd vm.LayerSelectCommand
}

func (c *cmdLayerSelect) ApplyState(state *VmState) {
	from, to := c.cmd.SelectionStart, c.cmd.SelectionEnd
	if from > to {
		logger.GetLogger().Warn("LAYERSELECT: selection range reversed", "from", from, "to", to)
		from, to = to, from
	}
	state.Layers.Selection = LayerSelection{From: from, To: to}
}

func (c *cmdLayerSelect) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return finish(vm.ResultNone())
}

type cmdPlaneSelect struct {
	cmd vm.PlaneSelectCommand
}

func (c *cmdPlaneSelect) ApplyState(state *VmState) {
	if c.cmd.PlaneID < 0 || c.cmd.PlaneID >= vm.PlaneCount {
		logger.GetLogger().Warn("PLANESELECT: plane id out of range", "plane", c.cmd.PlaneID)
		return
	}
	state.Layers.CurrentPlane = c.cmd.PlaneID
}

func (c *cmdPlaneSelect) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return finish(vm.ResultNone())
}

type cmdLayerInit struct {
	cmd     vm.LayerInitCommand
	targets []LayerOperationTarget
}

func (c *cmdLayerInit) ApplyState(state *VmState) {
	layers := state.Layers
	if snap := layers.snapshotFor(c.cmd.LayerID); snap != nil {
		snap.Init()
		return
	}
	c.targets = layers.targetsFor(c.cmd.LayerID)
	for _, target := range c.targets {
		layers.Layerbanks[target.Layerbank].Properties.Init()
	}
}

func (c *cmdLayerInit) Start(_ *UpdateContext, state *VmState, scene *AdvState) StartResult {
	for _, props := range scene.propertiesFor(state, c.cmd.LayerID, c.targets) {
		props.Init()
	}
	return finish(vm.ResultNone())
}

type cmdLayerUnload struct {
	cmd     vm.LayerUnloadCommand
	plane   int32
	targets []LayerOperationTarget
}

func (c *cmdLayerUnload) ApplyState(state *VmState) {
	layers := state.Layers
	c.plane = layers.CurrentPlane

	if layers.snapshotFor(c.cmd.LayerID) != nil {
		logger.GetLogger().Warn("LAYERUNLOAD: cannot unload an aggregate layer", "layer", int32(c.cmd.LayerID))
		return
	}
	// Free-ing changes the allocator, so keep our own copy.
	c.targets = append([]LayerOperationTarget(nil), layers.targetsFor(c.cmd.LayerID)...)
	for _, target := range c.targets {
		layers.Layerbanks[target.Layerbank].Loaded = false
		layers.Allocator.Free(c.plane, target.Layer)
	}
}

func (c *cmdLayerUnload) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	group := scene.PlaneGroup(c.plane)
	for _, target := range c.targets {
		group.RemoveLayer(target.Layer)
	}
	return finish(vm.ResultNone())
}

type cmdLayerCtrl struct {
	cmd     vm.LayerCtrlCommand
	targets []LayerOperationTarget
}

func (c *cmdLayerCtrl) ApplyState(state *VmState) {
	layers := state.Layers
	prop := layer.Property(c.cmd.PropertyID)
	if !prop.IsValid() {
		return
	}
	if snap := layers.snapshotFor(c.cmd.LayerID); snap != nil {
		snap.Set(prop, c.cmd.Target)
		return
	}
	c.targets = layers.targetsFor(c.cmd.LayerID)
	for _, target := range c.targets {
		layers.Layerbanks[target.Layerbank].Properties.Set(prop, c.cmd.Target)
	}
}

func layerCtrlEasing(flags vm.LayerCtrlFlags, easingArg int32) tick.Easing {
	switch flags.Easing() {
	case 0:
		return tick.EaseLinear{}
	case 1:
		return tick.EaseSineIn{}
	case 2:
		return tick.EaseSineOut{}
	case 3:
		return tick.EaseSineInOut{}
	case 4:
		return tick.EaseJump{}
	case 5:
		return tick.EasePower{Power: easingArg}
	default:
		logger.GetLogger().Warn("LAYERCTRL: unknown easing function", "easing", flags.Easing())
		return tick.EaseLinear{}
	}
}

func (c *cmdLayerCtrl) Start(_ *UpdateContext, state *VmState, scene *AdvState) StartResult {
	prop := layer.Property(c.cmd.PropertyID)
	if !prop.IsValid() {
		logger.GetLogger().Warn("LAYERCTRL: invalid property", "property", c.cmd.PropertyID)
		return finish(vm.ResultNone())
	}

	flags := c.cmd.Flags
	if flags.Delta() {
		logger.GetLogger().Warn("LAYERCTRL: delta targets are not supported")
	}
	if flags.ProhibitFastForward() {
		logger.GetLogger().Warn("LAYERCTRL: prohibit_fast_forward is not supported")
	}
	if flags.IgnoreWait() {
		logger.GetLogger().Warn("LAYERCTRL: ignore_wait is not supported")
	}
	easing := layerCtrlEasing(flags, c.cmd.EasingArg)

	for _, props := range scene.propertiesFor(state, c.cmd.LayerID, c.targets) {
		tweener := props.Tweener(prop)

		target := float32(c.cmd.Target)
		duration := c.cmd.Time
		if flags.ScaleTime() {
			// Duration is a change rate in value per tick here.
			change := target - tweener.Target()
			if change < 0 {
				change = -change
			}
			if duration > 0 {
				duration = tick.Ticks(change) / duration
			}
		}

		if flags.FastForwardToCurrent() {
			tweener.FastForwardTo(tweener.Value())
		}
		if flags.FastForwardToTarget() {
			tweener.FastForward()
		}
		tweener.Enqueue(target, tick.Tween{Duration: duration, Easing: easing})
	}
	return finish(vm.ResultNone())
}

type cmdLayerWait struct {
	cmd     vm.LayerWaitCommand
	targets []LayerOperationTarget
}

func (c *cmdLayerWait) ApplyState(state *VmState) {
	if state.Layers.snapshotFor(c.cmd.LayerID) == nil {
		c.targets = append([]LayerOperationTarget(nil), state.Layers.targetsFor(c.cmd.LayerID)...)
	}
}

func (c *cmdLayerWait) Start(_ *UpdateContext, _ *VmState, _ *AdvState) StartResult {
	props := make([]layer.Property, 0, len(c.cmd.WaitProperties))
	for _, id := range c.cmd.WaitProperties {
		if p := layer.Property(id); p.IsValid() {
			props = append(props, p)
		}
	}
	return yield(&execLayerWait{layerID: c.cmd.LayerID, targets: c.targets, props: props})
}

// execLayerWait blocks until every watched property tween has gone
// idle on every affected layer.
type execLayerWait struct {
	layerID vm.VLayerID
	targets []LayerOperationTarget
	props   []layer.Property
}

func (e *execLayerWait) Update(_ *UpdateContext, state *VmState, scene *AdvState, fastForward bool) (vm.CommandResult, bool) {
	propSets := scene.propertiesFor(state, e.layerID, e.targets)

	if fastForward {
		for _, props := range propSets {
			props.FastForward()
		}
		return vm.ResultNone(), true
	}

	for _, props := range propSets {
		for _, p := range e.props {
			if !props.Tweener(p).IsIdle() {
				return vm.CommandResult{}, false
			}
		}
	}
	return vm.ResultNone(), true
}

type cmdLayerSwap struct {
	cmd   vm.LayerSwapCommand
	plane int32
}

func (c *cmdLayerSwap) ApplyState(state *VmState) {
	layers := state.Layers
	c.plane = layers.CurrentPlane

	x, y := vm.LayerID(c.cmd.Arg1), vm.LayerID(c.cmd.Arg2)
	layers.Allocator.Swap(c.plane, x, y)
	if bank, ok := layers.Allocator.Get(c.plane, x); ok {
		layers.Layerbanks[bank].Layer = x
	}
	if bank, ok := layers.Allocator.Get(c.plane, y); ok {
		layers.Layerbanks[bank].Layer = y
	}
}

func (c *cmdLayerSwap) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	group := scene.PlaneGroup(c.plane)
	x, y := vm.LayerID(c.cmd.Arg1), vm.LayerID(c.cmd.Arg2)

	lx, okx := group.GetLayer(x)
	ly, oky := group.GetLayer(y)
	group.RemoveLayer(x)
	group.RemoveLayer(y)
	if okx {
		group.AddLayer(y, lx)
	}
	if oky {
		group.AddLayer(x, ly)
	}
	return finish(vm.ResultNone())
}

type cmdPlaneClear struct {
	plane int32
}

func (c *cmdPlaneClear) ApplyState(state *VmState) {
	layers := state.Layers
	c.plane = layers.CurrentPlane

	targets := append([]LayerOperationTarget(nil),
		layers.Allocator.LayersInRange(c.plane, 0, vm.LayerCount-1)...)
	for _, target := range targets {
		layers.Layerbanks[target.Layerbank].Loaded = false
		layers.Allocator.Free(c.plane, target.Layer)
	}
	layers.Planes[c.plane].MaskID = -1
}

func (c *cmdPlaneClear) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	scene.PlaneGroup(c.plane).Clear()
	scene.setPlaneMask(c.plane, nil)
	return finish(vm.ResultNone())
}

type cmdMaskLoad struct {
	cmd   vm.MaskLoadCommand
	plane int32
}

func (c *cmdMaskLoad) ApplyState(state *VmState) {
	layers := state.Layers
	c.plane = layers.CurrentPlane
	layers.Planes[c.plane].MaskID = c.cmd.MaskDataID
	layers.Planes[c.plane].MaskFlags = c.cmd.Flags
}

func (c *cmdMaskLoad) Start(ctx *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	if c.cmd.MaskDataID < 0 {
		scene.setPlaneMask(c.plane, nil)
		return finish(vm.ResultNone())
	}
	tex, ok := loadMaskTexture(ctx, c.cmd.MaskDataID)
	if !ok {
		return finish(vm.ResultNone())
	}
	scene.setPlaneMask(c.plane, tex)
	return finish(vm.ResultNone())
}

func loadMaskTexture(ctx *UpdateContext, maskID int32) (*render.Texture, bool) {
	tables := ctx.Scenario.InfoTables()
	if int(maskID) >= len(tables.MaskInfo) {
		logger.GetLogger().Warn("mask id out of range", "id", maskID)
		return nil, false
	}
	path := tables.MaskInfo[maskID].Path()
	m, err := ctx.Assets.LoadMask(path)
	if err != nil {
		logger.GetLogger().Warn("loading mask", "path", path, "error", err)
		return nil, false
	}
	tex, err := layer.NewMaskTexture(ctx.Device, ctx.Queue, m, path)
	if err != nil {
		logger.GetLogger().Warn("uploading mask", "path", path, "error", err)
		return nil, false
	}
	return tex, true
}

type cmdMaskUnload struct {
	plane int32
}

func (c *cmdMaskUnload) ApplyState(state *VmState) {
	c.plane = state.Layers.CurrentPlane
	state.Layers.Planes[c.plane].MaskID = -1
}

func (c *cmdMaskUnload) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	scene.setPlaneMask(c.plane, nil)
	return finish(vm.ResultNone())
}

type cmdPageBack struct {
	needed bool
}

func (c *cmdPageBack) ApplyState(state *VmState) {
	if !state.Layers.PageBackStarted {
		state.Layers.PageBackStarted = true
		c.needed = true
	}
}

func (c *cmdPageBack) Start(_ *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	if c.needed {
		scene.Screen().PageBack()
	}
	return finish(vm.ResultNone())
}

type cmdWipe struct {
	cmd    vm.WipeCommand
	needed bool
}

func (c *cmdWipe) ApplyState(state *VmState) {
	if state.Layers.PageBackStarted {
		state.Layers.PageBackStarted = false
		c.needed = true
	}
}

func (c *cmdWipe) Start(ctx *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	if !c.needed {
		return finish(vm.ResultNone())
	}
	flags := vm.WipeFlags(c.cmd.Arg2)

	// Wipe type 1 dissolves through a mask; everything else is a
	// uniform crossfade.
	var mask *render.Texture
	var vague float32
	if c.cmd.Arg1 == 1 {
		if tex, ok := loadMaskTexture(ctx, c.cmd.Params[0]); ok {
			mask = tex
			vague = float32(c.cmd.Params[1]) / 1000.0
		}
	}
	scene.Screen().StartTransition(mask, vague, c.cmd.WipeTime)

	if flags&vm.WipeDontWait != 0 {
		return finish(vm.ResultNone())
	}
	if flags&vm.WipeDontBlockAnimations == 0 {
		scene.AllowRunningAnimations = false
	}
	return yield(&execWipeWait{restoreAnimations: flags&vm.WipeDontBlockAnimations == 0})
}

type cmdWipeWait struct{}

func (c *cmdWipeWait) ApplyState(*VmState) {}

func (c *cmdWipeWait) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return yield(&execWipeWait{})
}

type execWipeWait struct {
	restoreAnimations bool
}

func (e *execWipeWait) Update(_ *UpdateContext, _ *VmState, scene *AdvState, fastForward bool) (vm.CommandResult, bool) {
	if fastForward {
		scene.Screen().FastForward()
	}
	if scene.Screen().IsTransitioning() {
		return vm.CommandResult{}, false
	}
	if e.restoreAnimations {
		scene.AllowRunningAnimations = true
	}
	return vm.ResultNone(), true
}

type cmdTransSet struct{}

func (c *cmdTransSet) ApplyState(*VmState) {}

func (c *cmdTransSet) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	logger.GetLogger().Warn("TRANSSET: plane transitions are not supported")
	return finish(vm.ResultNone())
}

type cmdTransWait struct{}

func (c *cmdTransWait) ApplyState(*VmState) {}

func (c *cmdTransWait) Start(*UpdateContext, *VmState, *AdvState) StartResult {
	return finish(vm.ResultNone())
}

type cmdMovieWait struct {
	cmd vm.MovieWaitCommand
}

func (c *cmdMovieWait) ApplyState(*VmState) {}

func (c *cmdMovieWait) Start(_ *UpdateContext, state *VmState, scene *AdvState) StartResult {
	if c.cmd.TargetStatus != 2 {
		logger.GetLogger().Warn("MOVIEWAIT: unknown target status", "status", c.cmd.TargetStatus)
	}
	plane := state.Layers.CurrentPlane
	if l, ok := scene.GetLayer(plane, c.cmd.LayerID); ok {
		if _, isMovie := l.(*layer.MovieLayer); isMovie {
			return yield(&execMovieWait{plane: plane, layerID: c.cmd.LayerID})
		}
	}
	logger.GetLogger().Warn("MOVIEWAIT: layer is not a movie layer", "layer", uint32(c.cmd.LayerID))
	return finish(vm.ResultNone())
}

type execMovieWait struct {
	plane   int32
	layerID vm.LayerID
}

func (e *execMovieWait) Update(_ *UpdateContext, _ *VmState, scene *AdvState, _ bool) (vm.CommandResult, bool) {
	l, ok := scene.GetLayer(e.plane, e.layerID)
	if !ok {
		return vm.ResultNone(), true
	}
	movie, ok := l.(*layer.MovieLayer)
	if !ok || movie.IsFinished() {
		return vm.ResultNone(), true
	}
	return vm.CommandResult{}, false
}
