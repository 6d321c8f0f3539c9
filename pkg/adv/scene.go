package adv

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/DCNick3/shin-sub001/pkg/asset"
	"github.com/DCNick3/shin-sub001/pkg/format/nxa"
	"github.com/DCNick3/shin-sub001/pkg/format/scenario"
	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/render"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// UpdateContext carries the per-tick environment into command
// execution.
type UpdateContext struct {
	Delta    tick.Ticks
	Device   hal.Device
	Queue    hal.Queue
	Assets   *asset.Server
	Scenario *scenario.Scenario
}

// BgmSink is the music player commands talk to.
type BgmSink interface {
	Play(file *nxa.File, repeat bool, volume float32, fadeIn tick.Tween)
	SetVolume(volume float32, tween tick.Tween)
	Stop(fadeOut tick.Tween)
	WaitStatus() vm.AudioWaitStatus
	PositionMillis() uint32
}

// SeSink is the sound effect player commands talk to.
type SeSink interface {
	Play(slot int32, file *nxa.File, repeat bool, volume, panning float32, fadeIn tick.Tween)
	SetVolume(slot int32, volume float32, tween tick.Tween)
	SetPanning(slot int32, panning float32, tween tick.Tween)
	Stop(slot int32, fadeOut tick.Tween)
	StopAll(fadeOut tick.Tween)
	WaitStatus(slot int32) vm.AudioWaitStatus
}

// VoiceSink is the voice player commands talk to.
type VoiceSink interface {
	Play(filename string, volume float32, lipsync bool, segmentStart, segmentDuration int32) bool
	Stop()
	WaitStatus() vm.AudioWaitStatus
}

// MovieOpener produces a frame source for a movie layer. Demuxing is
// the host's concern; the scene only needs decoded frames on time.
type MovieOpener interface {
	OpenMovie(name string) (layer.FrameSource, error)
}

// AdvState is the live scene side of the runtime: the layer tree and
// the audio players. Commands mutate it in their start phase, after
// the VM-visible state is already updated.
type AdvState struct {
	Root  *layer.RootLayerGroup
	Bgm   BgmSink
	Se    SeSink
	Voice VoiceSink
	// Optional; movie layers degrade to null layers without it.
	Movies MovieOpener

	planeMasks [vm.PlaneCount]*render.Texture

	// Cleared while a layer load or wipe prepares, so half-loaded
	// frames are not animated.
	AllowRunningAnimations bool
}

func NewAdvState(root *layer.RootLayerGroup, bgm BgmSink, se SeSink, voice VoiceSink) *AdvState {
	return &AdvState{
		Root:                   root,
		Bgm:                    bgm,
		Se:                     se,
		Voice:                  voice,
		AllowRunningAnimations: true,
	}
}

func (s *AdvState) Screen() *layer.ScreenLayer   { return s.Root.Screen() }
func (s *AdvState) Page() *layer.PageLayer       { return s.Root.Screen().Page() }
func (s *AdvState) Message() *layer.MessageLayer { return s.Root.Message() }

func (s *AdvState) PlaneGroup(p int32) *layer.LayerGroup {
	return s.Page().Plane(int(p))
}

// GetLayer finds a loaded layer on a plane.
func (s *AdvState) GetLayer(plane int32, id vm.LayerID) (layer.Layer, bool) {
	return s.PlaneGroup(plane).GetLayer(id)
}

// PlaneMask returns the transition mask loaded for a plane, nil when
// none is set.
func (s *AdvState) PlaneMask(plane int32) *render.Texture {
	return s.planeMasks[plane]
}

func (s *AdvState) setPlaneMask(plane int32, tex *render.Texture) {
	s.planeMasks[plane] = tex
}

// propertiesFor resolves a virtual layer target into the live
// property sets a command animates. Aggregate targets yield exactly
// one; real targets yield one per affected loaded layer.
func (s *AdvState) propertiesFor(state *VmState, id vm.VLayerID,
	targets []LayerOperationTarget) []*layer.Properties {

	switch id {
	case vm.VLayerRootGroup:
		return []*layer.Properties{s.Root.Properties()}
	case vm.VLayerScreen:
		return []*layer.Properties{s.Screen().Properties()}
	case vm.VLayerPage:
		return []*layer.Properties{s.Page().Properties()}
	case vm.VLayerPlaneGroup:
		return []*layer.Properties{s.PlaneGroup(state.Layers.CurrentPlane).Properties()}
	default:
		props := make([]*layer.Properties, 0, len(targets))
		for _, target := range targets {
			if l, ok := s.GetLayer(state.Layers.CurrentPlane, target.Layer); ok {
				props = append(props, l.Properties())
			}
		}
		return props
	}
}
