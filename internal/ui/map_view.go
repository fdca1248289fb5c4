package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-galaxy/internal/galaxy"
	"github.com/litescript/ls-galaxy/internal/render"
	"github.com/litescript/ls-galaxy/internal/state"
)

const (
	// Map glyphs by cell density, sparse to dense
	glyphMapSparse = '·'
	glyphMapLow    = ':'
	glyphMapMedium = '✸'
	glyphMapDense  = '✶'

	colorMapBackground = "#181818"
	colorMapCentre     = "229" // bright gold
)

// mapCell accumulates the points that fall into one map cell.
type mapCell struct {
	n       int
	r, g, b float64
}

// MapViewModel renders a top-down density map of the cloud, coloured by
// the mean colour of the stars in each cell.
type MapViewModel struct {
	width  int
	height int

	cloud   *galaxy.Cloud
	showGas bool
	mode    render.ScaleMode
}

// NewMapViewModel creates a map view in linear scale.
func NewMapViewModel() MapViewModel {
	return MapViewModel{mode: render.ScaleLinear}
}

// SetSize updates the view dimensions.
func (m MapViewModel) SetSize(width, height int) MapViewModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the view with new state data.
func (m MapViewModel) UpdateData(snapshot state.Snapshot) MapViewModel {
	m.cloud = snapshot.Cloud
	m.showGas = snapshot.Settings.ShowGas
	return m
}

// Update handles map keys.
func (m MapViewModel) Update(msg tea.Msg) (MapViewModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "l" {
		if m.mode == render.ScaleLinear {
			m.mode = render.ScaleLog
		} else {
			m.mode = render.ScaleLinear
		}
	}
	return m, nil
}

// View renders the map.
func (m MapViewModel) View() string {
	if m.width < 20 || m.height < 8 {
		return "Map view requires larger terminal"
	}
	if m.cloud == nil || len(m.cloud.Stars) == 0 {
		return "No galaxy yet"
	}

	// Cells are about twice as tall as wide; keep the map round.
	rows := m.height - 2
	cols := min(m.width, 2*rows)
	rows = cols / 2
	pad := strings.Repeat(" ", (m.width-cols)/2)

	cells, peak := m.densityCells(cols, rows)

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	for y := 0; y < rows; y++ {
		b.WriteString(pad)
		for x := 0; x < cols; x++ {
			glyph, color := cellGlyph(cells[y*cols+x], peak)
			if x == cols/2 && y == rows/2 && cells[y*cols+x].n == 0 {
				glyph, color = '+', colorMapCentre
			}
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(glyph)))
		}
		if y < rows-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(m.renderLegend(peak))
	return b.String()
}

func (m MapViewModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	gas := "Gas: hidden"
	if m.showGas {
		gas = "Gas: shown"
	}
	return fmt.Sprintf("%s | %s | %s",
		titleStyle.Render("Top-down Map"),
		dimStyle.Render("Scale: "+m.mode.String()),
		dimStyle.Render(gas))
}

func (m MapViewModel) renderLegend(peak int) string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	return dimStyle.Render(fmt.Sprintf("  extent %.0f | peak %d per cell | %c sparse  %c  %c  %c dense",
		m.cloud.Config.GalaxyRadius(), peak,
		glyphMapSparse, glyphMapLow, glyphMapMedium, glyphMapDense))
}

// densityCells bins the cloud into a cols x rows grid, row 0 at +Y.
func (m MapViewModel) densityCells(cols, rows int) ([]mapCell, int) {
	proj := render.DefaultProjectionConfig(m.cloud.Config.GalaxyRadius())
	proj.Mode = m.mode

	cells := make([]mapCell, cols*rows)
	plot := func(p r3.Vec, c galaxy.RGB) {
		pp := render.ProjectTopDown(p, proj)
		x := int((pp.X + 1) / 2 * float64(cols))
		y := int((1 - pp.Y) / 2 * float64(rows))
		if x < 0 || x >= cols || y < 0 || y >= rows {
			return
		}
		cell := &cells[y*cols+x]
		cell.n++
		cell.r += c.R
		cell.g += c.G
		cell.b += c.B
	}

	for i := range m.cloud.Stars {
		plot(m.cloud.Stars[i].Position, m.cloud.Stars[i].Color)
	}
	if m.showGas {
		for i := range m.cloud.Gas {
			plot(m.cloud.Gas[i].Position, m.cloud.Gas[i].Color)
		}
	}

	peak := 0
	for _, c := range cells {
		peak = max(peak, c.n)
	}
	return cells, peak
}

// cellGlyph picks a glyph by density on a square-root scale and fades the
// cell's mean colour in from the background.
func cellGlyph(c mapCell, peak int) (rune, lipgloss.Color) {
	if c.n == 0 || peak == 0 {
		return ' ', colorMapBackground
	}
	f := math.Sqrt(float64(c.n) / float64(peak))

	var glyph rune
	switch {
	case f < 0.25:
		glyph = glyphMapSparse
	case f < 0.5:
		glyph = glyphMapLow
	case f < 0.75:
		glyph = glyphMapMedium
	default:
		glyph = glyphMapDense
	}

	n := float64(c.n)
	mean := colorful.Color{R: c.r / n, G: c.g / n, B: c.b / n}.Clamped()
	bg, _ := colorful.Hex(colorMapBackground)
	return glyph, lipgloss.Color(bg.BlendRgb(mean, 0.35+0.65*f).Hex())
}
