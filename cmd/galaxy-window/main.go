// Command galaxy-window shows a generated galaxy in a desktop window.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/litescript/ls-galaxy/internal/config"
	"github.com/litescript/ls-galaxy/internal/galaxy"
	"github.com/litescript/ls-galaxy/internal/logging"
	"github.com/litescript/ls-galaxy/internal/render"
	"github.com/litescript/ls-galaxy/internal/state"
)

// The frame is rendered at half the window size and scaled up.
const (
	SCALE = 2

	orbitPerPixel = 0.01
	orbitStep     = 0.04
	zoomStep      = 1.1
)

// generated carries a background generation result to the game loop.
type generated struct {
	cloud    *galaxy.Cloud
	preset   string
	duration time.Duration
	err      error
}

// Viewer implements ebiten.Game.
type Viewer struct {
	state  *state.Manager
	frame  *render.Frame
	logger *logging.Logger

	preset  string
	config  galaxy.Config
	seed    uint64
	results chan generated
	busy    bool

	start      time.Time
	paused     bool
	pausedAt   time.Duration
	dragging   bool
	lastX      int
	lastY      int
	drawn      int
	renderTime float64
}

func newViewer(preset string, cfg galaxy.Config, seed uint64, w, h int, logger *logging.Logger) *Viewer {
	return &Viewer{
		state:   state.NewManager(state.DefaultConfig()),
		frame:   render.NewFrame(w, h),
		logger:  logger,
		preset:  preset,
		config:  cfg,
		seed:    seed,
		results: make(chan generated, 1),
		start:   time.Now(),
	}
}

// generate runs the generator off the game loop. Seed 0 draws a fresh one.
func (v *Viewer) generate() {
	if v.busy {
		return
	}
	v.busy = true
	cfg, preset, seed := v.config, v.preset, v.seed
	opts := []galaxy.GeneratorOption{galaxy.WithLogger(v.logger)}
	if seed != 0 {
		opts = append(opts, galaxy.WithSeed(seed))
	}
	go func() {
		start := time.Now()
		cloud, err := galaxy.NewGenerator(opts...).Generate(cfg)
		v.results <- generated{cloud: cloud, preset: preset, duration: time.Since(start), err: err}
	}()
}

func (v *Viewer) elapsed() time.Duration {
	if v.paused {
		return v.pausedAt
	}
	return time.Since(v.start)
}

func (v *Viewer) Update() error {
	select {
	case res := <-v.results:
		v.busy = false
		v.state.Update(res.cloud, res.preset, res.duration, res.err)
		if res.err != nil {
			v.logger.Warn("Rejected config: %v", res.err)
		} else {
			v.seed = res.cloud.Seed
		}
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	v.handleKeys()
	v.handleMouse()
	v.state.StepPointer()
	return nil
}

func (v *Viewer) handleKeys() {
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	tweak := func(fn func(*render.Settings)) { v.state.UpdateSettings(fn) }

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		v.seed = 0
		v.generate()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		names := galaxy.PresetNames()
		next := names[0]
		for i, name := range names {
			if name == v.preset {
				next = names[(i+1)%len(names)]
				break
			}
		}
		cfg, _ := galaxy.Preset(next)
		cfg.StarCount, cfg.ArmCount = v.config.StarCount, v.config.ArmCount
		v.preset, v.config = next, cfg
		v.generate()
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		if arms := v.config.ArmCount + sign(shift); arms >= 1 && arms <= 8 {
			v.config.ArmCount = arms
			v.generate()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		tweak(func(s *render.Settings) { s.ShowGas = !s.ShowGas })
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		tweak(func(s *render.Settings) { s.Bloom.Enabled = !s.Bloom.Enabled })
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		tweak(func(s *render.Settings) { s.Twinkle = !s.Twinkle })
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		tweak(func(s *render.Settings) { s.Disk = !s.Disk })
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		tweak(func(s *render.Settings) { s.Exposure += 0.05 * float64(sign(shift)) })
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		tweak(func(s *render.Settings) { s.Bloom.Strength += 0.1 * float64(sign(shift)) })
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		tweak(func(s *render.Settings) { s.Bloom.Threshold += 0.02 * float64(sign(shift)) })
	case inpututil.IsKeyJustPressed(ebiten.KeyU):
		tweak(func(s *render.Settings) { s.Tint += 0.01 * float64(sign(shift)) })
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft):
		tweak(func(s *render.Settings) { s.ParticleSize -= 0.05 })
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketRight):
		tweak(func(s *render.Settings) { s.ParticleSize += 0.05 })
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit0):
		v.state.ResetView()
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if v.paused {
			v.start = time.Now().Add(-v.pausedAt)
		} else {
			v.pausedAt = time.Since(v.start)
		}
		v.paused = !v.paused
	}

	orbit := func(dAz, dPolar float32) {
		v.state.UpdateCamera(func(c render.Camera) render.Camera { return c.Orbit(dAz, dPolar) })
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		orbit(-orbitStep, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		orbit(orbitStep, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		orbit(0, -orbitStep)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		orbit(0, orbitStep)
	}
}

func (v *Viewer) handleMouse() {
	x, y := ebiten.CursorPosition()

	if _, wy := ebiten.Wheel(); wy != 0 {
		factor := float32(zoomStep)
		if wy > 0 {
			factor = 1 / factor
		}
		v.state.UpdateCamera(func(c render.Camera) render.Camera { return c.Zoom(factor) })
	}

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		v.dragging = true
		v.lastX, v.lastY = x, y
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		v.dragging = false
	case v.dragging:
		dx, dy := float32(x-v.lastX), float32(y-v.lastY)
		v.state.UpdateCamera(func(c render.Camera) render.Camera {
			return c.Orbit(-dx*orbitPerPixel, -dy*orbitPerPixel)
		})
		v.lastX, v.lastY = x, y
	}

	w, h := v.frame.W, v.frame.H
	if x < 0 || y < 0 || x >= w || y >= h {
		v.state.ClearPointer()
		return
	}
	ndcX, ndcY := render.PixelToNDC(float64(x)+0.5, float64(y)+0.5, w, h)
	if hit, ok := v.state.Camera().PointerOnPlane(ndcX, ndcY, float32(w)/float32(h)); ok {
		v.state.SetPointerTarget(hit)
	} else {
		v.state.ClearPointer()
	}
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	start := time.Now()
	v.drawn = render.Render(v.frame, v.state.Scene(v.elapsed()))
	v.renderTime = v.renderTime*0.9 + time.Since(start).Seconds()*1000*0.1
	screen.WritePixels(v.frame.RGBA())

	snap := v.state.Snapshot()
	debugInfo := fmt.Sprintf("FPS: %0.4g\n", ebiten.ActualFPS())
	debugInfo += fmt.Sprintf("Render time: %0.1f ms, %d points\n", v.renderTime, v.drawn)
	if c := snap.Cloud; c != nil {
		debugInfo += fmt.Sprintf("%s seed %d\n%d stars, %d gas, %d arms\n", snap.Preset, c.Seed, len(c.Stars), len(c.Gas), c.Config.ArmCount)
	}
	if v.busy {
		debugInfo += "generating...\n"
	}
	if snap.LastError != nil {
		debugInfo += fmt.Sprintf("rejected: %v\n", snap.LastError)
	}
	s := snap.Settings
	debugInfo += fmt.Sprintf("exposure %.2f bloom %.2f/%.3f gas %v\n", s.Exposure, s.Bloom.Strength, s.Bloom.Threshold, s.ShowGas)
	ebitenutil.DebugPrint(screen, debugInfo)
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.frame.W, v.frame.H
}

func sign(negative bool) int {
	if negative {
		return -1
	}
	return 1
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	preset := flag.String("preset", cfg.Galaxy.Preset, "Scene preset (arms, classic, full, nebula)")
	seed := flag.Uint64("seed", cfg.Galaxy.Seed, "Random seed (0 draws a fresh one)")
	stars := flag.Int("stars", cfg.Galaxy.Stars, "Star count (0 keeps the preset's)")
	width := flag.Int("width", 1280, "Window width")
	height := flag.Int("height", 720, "Window height")
	flag.Parse()

	cfg.Galaxy.Preset = *preset
	cfg.Galaxy.Stars = *stars
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level)).With("window")

	v := newViewer(*preset, cfg.GeneratorConfig(), *seed, *width/SCALE, *height/SCALE, logger)
	v.generate()

	ebiten.SetWindowSize(v.frame.W*SCALE, v.frame.H*SCALE)
	ebiten.SetWindowTitle("ls-galaxy")
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
