package app

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/DCNick3/shin-sub001/pkg/adv"
	"github.com/DCNick3/shin-sub001/pkg/audio"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/render"
)

// game is the windowed host. Each ebiten tick is one engine tick: the
// scenario advances, then the layer tree is rendered offscreen and the
// frame is copied into the window.
type game struct {
	rt      *runtime
	gpu     *GpuContext
	manager *audio.Manager
	driver  *adv.Adv
	scene   *adv.AdvState

	frame    *ebiten.Image
	deadline time.Time
}

func newGame(rt *runtime, gpu *GpuContext, manager *audio.Manager,
	driver *adv.Adv, scene *adv.AdvState, timeout time.Duration) *game {

	g := &game{
		rt:      rt,
		gpu:     gpu,
		manager: manager,
		driver:  driver,
		scene:   scene,
		frame:   ebiten.NewImage(render.VirtualCanvasWidth, render.VirtualCanvasHeight),
	}
	if timeout > 0 {
		g.deadline = time.Now().Add(timeout)
	}
	return g
}

func (g *game) Update() error {
	if !g.deadline.IsZero() && time.Now().After(g.deadline) {
		logger.GetLogger().Info("timeout reached, terminating")
		return ebiten.Termination
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) ||
		inpututil.IsKeyJustPressed(ebiten.KeyEnter) ||
		inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.scene.Message().TryAdvance()
	}
	fastForward := ebiten.IsKeyPressed(ebiten.KeyControl)

	running, err := g.driver.Update(&adv.UpdateContext{
		Delta:    1,
		Device:   g.gpu.Device,
		Queue:    g.gpu.Queue,
		Assets:   g.rt.assets,
		Scenario: g.rt.scenario,
	}, fastForward)
	if err != nil {
		return err
	}

	g.manager.Update()

	if !running {
		logger.GetLogger().Info("scenario finished")
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	pixels, err := g.gpu.RenderFrame(g.scene.Root)
	if err != nil {
		logger.GetLogger().Error("rendering frame", "error", err)
		return
	}
	g.frame.WritePixels(pixels)
	screen.DrawImage(g.frame, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return render.VirtualCanvasWidth, render.VirtualCanvasHeight
}
