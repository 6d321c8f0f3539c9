package adv

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/render"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

type cmdLayerLoad struct {
	cmd vm.LayerLoadCommand

	plane       int32
	layerID     vm.LayerID
	skip        bool
	alreadySame bool
	keep        bool
}

func (c *cmdLayerLoad) ApplyState(state *VmState) {
	layers := state.Layers
	c.plane = layers.CurrentPlane
	c.keep = c.cmd.Flags&vm.LoadKeepPreviousProperties != 0

	real, ok := c.cmd.LayerID.Layer()
	if !ok {
		logger.GetLogger().Warn("LAYERLOAD: only real layers can be loaded", "layer", int32(c.cmd.LayerID))
		c.skip = true
		return
	}
	c.layerID = real

	bank, ok := layers.Allocator.Alloc(c.plane, real)
	if !ok {
		logger.GetLogger().Warn("LAYERLOAD: layerbank pool exhausted, skipping",
			"layer", uint32(real), "plane", c.plane)
		c.skip = true
		return
	}

	bankState := &layers.Layerbanks[bank]
	c.alreadySame = bankState.Loaded &&
		bankState.LayerType == c.cmd.LayerType &&
		bankState.Params == c.cmd.Params

	layers.LoadCounter++
	bankState.Loaded = true
	bankState.LayerType = c.cmd.LayerType
	bankState.Plane = c.plane
	bankState.Layer = real
	bankState.LoadCounter = layers.LoadCounter
	bankState.Params = c.cmd.Params
	if !c.keep {
		bankState.Properties.Init()
		layers.LoadWithInitCounter++
	}
}

func (c *cmdLayerLoad) Start(ctx *UpdateContext, _ *VmState, scene *AdvState) StartResult {
	if c.skip {
		return finish(vm.ResultNone())
	}
	if c.alreadySame {
		if !c.keep {
			if l, ok := scene.GetLayer(c.plane, c.layerID); ok {
				l.Properties().Init()
			}
		}
		return finish(vm.ResultNone())
	}

	done := make(chan userLayerLoad, 1)
	go func() {
		done <- loadUserLayerAssets(ctx, scene.Movies, c.cmd.LayerType, c.cmd.Params)
	}()

	restoreAnimations := c.cmd.Flags&vm.LoadDontBlockAnimations == 0
	if restoreAnimations {
		scene.AllowRunningAnimations = false
	}
	return yield(&execLayerLoad{
		plane:             c.plane,
		layerID:           c.layerID,
		keep:              c.keep,
		restoreAnimations: restoreAnimations,
		done:              done,
	})
}

// execLayerLoad waits for the asset work to finish off-thread, then
// creates the GPU resources and installs the layer on the game thread.
type execLayerLoad struct {
	plane             int32
	layerID           vm.LayerID
	keep              bool
	restoreAnimations bool
	done              chan userLayerLoad
}

func (e *execLayerLoad) Update(ctx *UpdateContext, _ *VmState, scene *AdvState, _ bool) (vm.CommandResult, bool) {
	var load userLayerLoad
	select {
	case load = <-e.done:
	default:
		return vm.CommandResult{}, false
	}

	newLayer := e.install(ctx, load)

	group := scene.PlaneGroup(e.plane)
	if prev, ok := group.GetLayer(e.layerID); ok && e.keep {
		*newLayer.Properties() = *prev.Properties().Clone()
	}
	group.AddLayer(e.layerID, newLayer)

	if e.restoreAnimations {
		scene.AllowRunningAnimations = true
	}
	return vm.ResultNone(), true
}

func (e *execLayerLoad) install(ctx *UpdateContext, load userLayerLoad) layer.Layer {
	if load.err != nil {
		logger.GetLogger().Warn("LAYERLOAD: asset load failed", "error", load.err)
		return layer.NewNullLayer()
	}
	l, err := load.install(ctx)
	if err != nil {
		logger.GetLogger().Warn("LAYERLOAD: layer creation failed", "error", err)
		return layer.NewNullLayer()
	}
	return l
}

// userLayerLoad is the off-thread part of a layer load: decoded asset
// data plus an install step that creates GPU resources on the game
// thread.
type userLayerLoad struct {
	install func(ctx *UpdateContext) (layer.Layer, error)
	err     error
}

func loadFailed(err error) userLayerLoad { return userLayerLoad{err: err} }

func loadReady(install func(ctx *UpdateContext) (layer.Layer, error)) userLayerLoad {
	return userLayerLoad{install: install}
}

func loadUserLayerAssets(ctx *UpdateContext, movies MovieOpener,
	layerType vm.LayerType, params [8]int32) userLayerLoad {

	switch layerType {
	case vm.LayerTypeNull:
		return loadReady(func(*UpdateContext) (layer.Layer, error) {
			return layer.NewNullLayer(), nil
		})

	case vm.LayerTypeTile:
		color := unpackTileColor(params[0])
		rect := mgl32.Vec4{
			float32(params[1]), float32(params[2]),
			float32(params[3]), float32(params[4]),
		}
		return loadReady(func(*UpdateContext) (layer.Layer, error) {
			return layer.NewTileLayer(color, rect), nil
		})

	case vm.LayerTypePicture:
		tables := ctx.Scenario.InfoTables()
		id := params[0]
		if id < 0 || int(id) >= len(tables.PictureInfo) {
			return loadFailed(fmt.Errorf("picture id out of range: %d", id))
		}
		info := tables.PictureInfo[id]
		raw, err := ctx.Assets.ReadRaw(info.Path())
		if err != nil {
			return loadFailed(err)
		}
		return loadReady(func(ctx *UpdateContext) (layer.Layer, error) {
			gp, err := layer.NewGpuPicture(ctx.Device, ctx.Queue, raw, info.Name)
			if err != nil {
				return nil, err
			}
			return layer.NewPictureLayer(gp, info.Name), nil
		})

	case vm.LayerTypeBustup:
		tables := ctx.Scenario.InfoTables()
		id := params[0]
		if id < 0 || int(id) >= len(tables.BustupInfo) {
			return loadFailed(fmt.Errorf("bustup id out of range: %d", id))
		}
		info := tables.BustupInfo[id]
		skeleton, err := ctx.Assets.LoadBustup(info.Path())
		if err != nil {
			return loadFailed(err)
		}
		return loadReady(func(ctx *UpdateContext) (layer.Layer, error) {
			gb, err := layer.NewGpuBustup(ctx.Device, ctx.Queue, skeleton, info.Emotion, info.Name)
			if err != nil {
				return nil, err
			}
			return layer.NewBustupLayer(gb, info.Name), nil
		})

	case vm.LayerTypeMovie:
		tables := ctx.Scenario.InfoTables()
		id := params[0]
		if id < 0 || int(id) >= len(tables.MovieInfo) {
			return loadFailed(fmt.Errorf("movie id out of range: %d", id))
		}
		if movies == nil {
			return loadFailed(fmt.Errorf("no movie backend configured"))
		}
		info := tables.MovieInfo[id]
		source, err := movies.OpenMovie(info.Name)
		if err != nil {
			return loadFailed(err)
		}
		return loadReady(func(*UpdateContext) (layer.Layer, error) {
			return layer.NewMovieLayer(source, info.Name, layer.MovieOpaque), nil
		})

	default:
		logger.GetLogger().Warn("LAYERLOAD: layer type not implemented", "type", layerType.String())
		return loadReady(func(*UpdateContext) (layer.Layer, error) {
			return layer.NewNullLayer(), nil
		})
	}
}

// unpackTileColor decodes the packed 0xAARRGGBB tile color.
func unpackTileColor(packed int32) render.FloatColor4 {
	u := uint32(packed)
	return render.FloatColor4{
		R: float32(u>>16&0xff) / 255.0,
		G: float32(u>>8&0xff) / 255.0,
		B: float32(u&0xff) / 255.0,
		A: float32(u>>24&0xff) / 255.0,
	}
}
