package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/litescript/ls-galaxy/internal/galaxy"
	"github.com/litescript/ls-galaxy/internal/render"
)

// densityRamp maps cell occupancy to glyphs, sparse to dense.
const densityRamp = " .:-=+*#%@"

// MiniMapConfig configures the ASCII top-down map.
type MiniMapConfig struct {
	Width  int
	Height int
	Mode   render.ScaleMode
	Gas    bool // include gas clouds in the density count
}

// DefaultMiniMapConfig returns a terminal-friendly map size. Character cells
// are roughly twice as tall as wide, so the width is doubled.
func DefaultMiniMapConfig() MiniMapConfig {
	return MiniMapConfig{
		Width:  48,
		Height: 24,
		Mode:   render.ScaleLinear,
	}
}

// WriteMiniMap writes a top-down density map of the cloud.
func WriteMiniMap(w io.Writer, cloud *galaxy.Cloud, cfg MiniMapConfig) {
	if cloud == nil || len(cloud.Stars) == 0 {
		fmt.Fprintln(w, "No stars to map")
		return
	}
	if cfg.Width < 4 {
		cfg.Width = 4
	}
	if cfg.Height < 2 {
		cfg.Height = 2
	}

	grid := densityGrid(cloud, cfg)
	peak := 0
	for _, n := range grid {
		peak = max(peak, n)
	}

	fmt.Fprintf(w, "┌%s┐\n", strings.Repeat("─", cfg.Width))
	var line strings.Builder
	for row := 0; row < cfg.Height; row++ {
		line.Reset()
		for col := 0; col < cfg.Width; col++ {
			line.WriteByte(densityGlyph(grid[row*cfg.Width+col], peak))
		}
		fmt.Fprintf(w, "│%s│\n", line.String())
	}
	fmt.Fprintf(w, "└%s┘\n", strings.Repeat("─", cfg.Width))

	// Legend
	fmt.Fprintf(w, "%d stars", len(cloud.Stars))
	if cfg.Gas {
		fmt.Fprintf(w, ", %d gas", len(cloud.Gas))
	}
	fmt.Fprintf(w, "  extent %.0f  scale %s  peak %d/cell\n",
		cloud.Config.GalaxyRadius(), cfg.Mode, peak)
}

// densityGrid counts points per map cell. Row 0 is the top (+Y).
func densityGrid(cloud *galaxy.Cloud, cfg MiniMapConfig) []int {
	proj := render.DefaultProjectionConfig(cloud.Config.GalaxyRadius())
	proj.Mode = cfg.Mode

	grid := make([]int, cfg.Width*cfg.Height)
	plot := func(pp render.ProjectedPoint) {
		col := int((pp.X + 1) / 2 * float64(cfg.Width))
		row := int((1 - pp.Y) / 2 * float64(cfg.Height))
		if col < 0 || col >= cfg.Width || row < 0 || row >= cfg.Height {
			return
		}
		grid[row*cfg.Width+col]++
	}

	for i := range cloud.Stars {
		plot(render.ProjectTopDown(cloud.Stars[i].Position, proj))
	}
	if cfg.Gas {
		for i := range cloud.Gas {
			plot(render.ProjectTopDown(cloud.Gas[i].Position, proj))
		}
	}
	return grid
}

// densityGlyph picks a ramp glyph on a square-root scale so sparse arms
// stay visible next to the dense core.
func densityGlyph(n, peak int) byte {
	if n <= 0 || peak <= 0 {
		return densityRamp[0]
	}
	last := len(densityRamp) - 1
	f := float64(n) / float64(peak)
	idx := 1 + int(math.Sqrt(f)*float64(last-1)+0.5)
	if idx > last {
		idx = last
	}
	return densityRamp[idx]
}
