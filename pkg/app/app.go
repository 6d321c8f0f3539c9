// Package app wires the engine together: command line, assets, save
// data, audio, the scenario driver and the window or headless host.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/DCNick3/shin-sub001/pkg/adv"
	"github.com/DCNick3/shin-sub001/pkg/asset"
	"github.com/DCNick3/shin-sub001/pkg/audio"
	"github.com/DCNick3/shin-sub001/pkg/cli"
	"github.com/DCNick3/shin-sub001/pkg/format/scenario"
	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/render"
)

const (
	scenarioPath   = "/main.snr"
	fontNormalPath = "/newrodin-medium.fnt"
	fontBoldPath   = "/newrodin-bold.fnt"
)

// Application is the game binary's main logic.
type Application struct {
	config *cli.Config
	log    *slog.Logger
}

func New() *Application {
	return &Application{}
}

// Run parses arguments, loads the game data and runs the scenario
// until it exits, the window is closed or the timeout fires.
func (app *Application) Run(args []string) error {
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("application started", "headless", app.config.Headless)

	rt, err := app.loadRuntime()
	if err != nil {
		return err
	}

	started := time.Now()
	if app.config.Headless {
		err = app.runHeadless(rt)
	} else {
		err = app.runWindow(rt)
	}
	if err != nil {
		return err
	}

	if saveErr := rt.saves.Store(rt.state, time.Since(started)); saveErr != nil {
		app.log.Warn("writing save data failed", "error", saveErr)
	}

	app.log.Info("application terminated normally")
	return nil
}

func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// runtime is the host-independent part of a running game: the loaded
// data and the VM-visible state.
type runtime struct {
	assets   *asset.Server
	scenario *scenario.Scenario
	saves    *saveStore
	state    *adv.VmState
}

func (app *Application) loadRuntime() (*runtime, error) {
	io, err := asset.Locate(app.config.AssetsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to locate game data: %w", err)
	}
	app.log.Info("game data found", "backend", io.Describe())

	assets := asset.NewServer(io)
	scn, err := assets.LoadScenario(scenarioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	app.log.Info("scenario loaded",
		"entrypoint", scn.Entrypoint(),
		"pictures", len(scn.InfoTables().PictureInfo),
		"bgm_tracks", len(scn.InfoTables().BgmInfo))

	saves := openSaveStore(app.log)
	state := adv.NewVmState()
	saves.Seed(state)

	return &runtime{
		assets:   assets,
		scenario: scn,
		saves:    saves,
		state:    state,
	}, nil
}

// runHeadless drives the scenario without a window or GPU, one tick
// per iteration. Layer loads degrade to null layers and audio is
// discarded; what remains is the full control flow of the scenario,
// which is what the mode is for.
func (app *Application) runHeadless(rt *runtime) error {
	message := layer.NewMessageLayer(nil, nil, nil, nil, nil)
	root := layer.NewRootLayerGroup(layer.NewScreenLayer(), message)
	scene := adv.NewAdvState(root, nullBgm{}, nullSe{}, nullVoice{})

	driver := adv.NewAdv(rt.scenario, 0, randomSeed(), rt.state, scene)
	ctx := &adv.UpdateContext{
		Delta:    1,
		Assets:   rt.assets,
		Scenario: rt.scenario,
	}

	maxFrames := -1
	if app.config.Timeout > 0 {
		maxFrames = int(app.config.Timeout.Seconds() * 60)
	}

	for frame := 0; ; frame++ {
		running, err := driver.Update(ctx, true)
		if err != nil {
			return fmt.Errorf("scenario failed at %v: %w", driver.Position(), err)
		}
		if !running {
			app.log.Info("scenario finished", "frames", frame)
			return nil
		}
		if maxFrames >= 0 && frame >= maxFrames {
			app.log.Info("timeout reached, terminating", "position", driver.Position())
			return nil
		}
	}
}

// runWindow runs the game with a window, a GPU renderer and audio.
func (app *Application) runWindow(rt *runtime) error {
	gpu, err := NewGpuContext()
	if err != nil {
		return fmt.Errorf("failed to initialize GPU: %w", err)
	}
	defer gpu.Destroy()

	fontNormal, err := rt.assets.LoadFont(fontNormalPath)
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	fontBold, err := rt.assets.LoadFont(fontBoldPath)
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}

	manager := audio.NewManager()
	bgm := audio.NewBgmPlayer(manager)
	se := audio.NewSePlayer(manager)
	voice := audio.NewVoicePlayer(manager, rt.assets.LoadAudio)

	message := layer.NewMessageLayer(nil,
		layer.NewGpuFont(gpu.Device, gpu.Queue, fontNormal, "font_normal"),
		layer.NewGpuFont(gpu.Device, gpu.Queue, fontBold, "font_bold"),
		voice, nil)
	root := layer.NewRootLayerGroup(layer.NewScreenLayer(), message)
	scene := adv.NewAdvState(root, bgm, se, voice)
	scene.Movies = &movieOpener{
		assets: rt.assets,
		device: gpu.Device,
		queue:  gpu.Queue,
	}

	driver := adv.NewAdv(rt.scenario, 0, randomSeed(), rt.state, scene)

	game := newGame(rt, gpu, manager, driver, scene, app.config.Timeout)

	ebiten.SetWindowSize(render.VirtualCanvasWidth*2/3, render.VirtualCanvasHeight*2/3)
	ebiten.SetWindowTitle("shin")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("game loop failed: %w", err)
	}
	return nil
}

func randomSeed() uint32 {
	return uint32(time.Now().UnixNano())
}
