// Command ls-galaxy generates procedural barred spiral galaxies and shows
// them in a terminal viewer, or writes them out headless.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-galaxy/internal/config"
	"github.com/litescript/ls-galaxy/internal/export"
	"github.com/litescript/ls-galaxy/internal/galaxy"
	"github.com/litescript/ls-galaxy/internal/logging"
	"github.com/litescript/ls-galaxy/internal/render"
	"github.com/litescript/ls-galaxy/internal/state"
	"github.com/litescript/ls-galaxy/internal/ui"
)

// CLI flags for headless mode
var (
	summaryMode bool
	snapshotOut string
	buffersOut  string
	miniMapMode bool
	mapScale    string
	renderOut   string
)

const (
	defaultFPS = 30
	minFPS     = 1
	maxFPS     = 60

	maxMiniMapWidth = 96

	renderWidth  = 960
	renderHeight = 540
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Environment values are the flag defaults
	preset := flag.String("preset", cfg.Galaxy.Preset, "Scene preset (arms, classic, full, nebula)")
	seed := flag.Uint64("seed", cfg.Galaxy.Seed, "Random seed (0 draws a fresh one)")
	stars := flag.Int("stars", cfg.Galaxy.Stars, "Star count (0 keeps the preset's)")
	arms := flag.Int("arms", cfg.Galaxy.Arms, "Arm count (0 keeps the preset's)")
	gas := flag.String("gas", cfg.Galaxy.Gas, "Force gas clouds on or off")
	logLevel := flag.String("log-level", cfg.Logging.Level, "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", cfg.Logging.File, "Append logs to this file")
	fps := flag.Int("fps", defaultFPS, "Viewer frame rate")
	flag.BoolVar(&summaryMode, "summary", false, "Print text summary instead of TUI")
	flag.StringVar(&snapshotOut, "snapshot-path", "", "Export JSON snapshot to file (use - for stdout)")
	flag.StringVar(&buffersOut, "buffers-path", "", "Export binary point buffers to file (use - for stdout)")
	flag.BoolVar(&miniMapMode, "mini-map", false, "Show ASCII top-down density map")
	flag.StringVar(&mapScale, "map-scale", "linear", "Mini map radial scale (linear, log)")
	flag.StringVar(&renderOut, "render-path", "", "Render one frame to a PNG file")
	flag.Parse()

	cfg.Galaxy.Preset = *preset
	cfg.Galaxy.Seed = *seed
	cfg.Galaxy.Stars = *stars
	cfg.Galaxy.Arms = *arms
	cfg.Galaxy.Gas = *gas
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	*fps = min(max(*fps, minFPS), maxFPS)

	// Set up logging
	logger := logging.New(logging.ParseLevel(*logLevel))
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stateCfg := state.DefaultConfig()
	stateCfg.FrameInterval = time.Second / time.Duration(*fps)
	stateMgr := state.NewManager(stateCfg)

	genCfg := cfg.GeneratorConfig()

	headless := summaryMode || snapshotOut != "" || buffersOut != "" || miniMapMode || renderOut != ""
	if headless {
		if err := runHeadless(stateMgr, genCfg, cfg.Galaxy, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Logs would tear the alt screen
	if *logFile == "" {
		logger.SetOutput(io.Discard)
	}

	opts := ui.Options{
		Preset:   cfg.Galaxy.Preset,
		Config:   genCfg,
		Logger:   logger,
		MaxStars: cfg.Galaxy.MaxStarCount,
	}
	if cfg.Galaxy.Seed != 0 {
		s := cfg.Galaxy.Seed
		opts.Seed = &s
	}

	p := tea.NewProgram(ui.New(stateMgr, opts),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// runHeadless generates one cloud and writes every requested output.
func runHeadless(stateMgr *state.Manager, genCfg galaxy.Config, gc config.GalaxyConfig, logger *logging.Logger) error {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	opts := []galaxy.GeneratorOption{galaxy.WithLogger(logger.With("generator"))}
	if gc.Seed != 0 {
		opts = append(opts, galaxy.WithSeed(gc.Seed))
	}

	start := time.Now()
	cloud, err := galaxy.NewGenerator(opts...).Generate(genCfg)
	stateMgr.Update(cloud, gc.Preset, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	snap := stateMgr.Snapshot()
	logger.Info("Generated %s galaxy: %d stars, %d gas (seed=%d) in %v",
		snap.Preset, len(cloud.Stars), len(cloud.Gas), cloud.Seed, snap.GenDuration)

	// Export JSON if requested
	if snapshotOut != "" {
		snapshot := export.ExportSnapshot(cloud, snap.LastGenerate)
		if err := writeOutput(snapshotOut, snapshot.WriteJSON); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}

	// Binary buffers
	if buffersOut != "" {
		if buffersOut == "-" && isTTY {
			return errors.New("refusing to write binary buffers to a terminal")
		}
		write := func(w io.Writer) error { return export.WriteBuffers(w, cloud) }
		if err := writeOutput(buffersOut, write); err != nil {
			return fmt.Errorf("write buffers: %w", err)
		}
	}

	// Print summary table if requested
	if summaryMode {
		export.WriteSummaryTable(os.Stdout, cloud, snap.LastGenerate)
	}

	// Mini map
	if miniMapMode {
		mapCfg := export.DefaultMiniMapConfig()
		mode, ok := render.ParseScaleMode(mapScale)
		if !ok {
			return fmt.Errorf("unknown map scale %q", mapScale)
		}
		mapCfg.Mode = mode
		mapCfg.Gas = cloud.Config.Gas
		if isTTY {
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 4 {
				mapCfg.Width = min(w-2, maxMiniMapWidth)
				mapCfg.Height = mapCfg.Width / 2
			}
		}
		if summaryMode {
			fmt.Println()
		}
		export.WriteMiniMap(os.Stdout, cloud, mapCfg)
	}

	// Still frame
	if renderOut != "" {
		frame := render.NewFrame(renderWidth, renderHeight)
		drawn := render.Render(frame, stateMgr.Scene(0))
		write := func(w io.Writer) error { return png.Encode(w, frame.Image()) }
		if err := writeOutput(renderOut, write); err != nil {
			return fmt.Errorf("write render: %w", err)
		}
		logger.Info("Rendered %d points to %s", drawn, renderOut)
	}

	return nil
}

// writeOutput writes to stdout for "-" and to a new file otherwise.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
