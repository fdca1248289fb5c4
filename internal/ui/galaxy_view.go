package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-galaxy/internal/render"
	"github.com/litescript/ls-galaxy/internal/state"
)

// Camera control steps.
const (
	orbitStep    = 0.08 // radians per key press
	orbitPerCell = 0.03 // radians per dragged cell
	zoomStep     = 1.15
)

// settingKeys map tweak keys to live setting changes. The state manager
// clamps every result.
var settingKeys = map[string]func(*render.Settings){
	"B": func(s *render.Settings) { s.Bloom.Enabled = !s.Bloom.Enabled },
	"t": func(s *render.Settings) { s.Twinkle = !s.Twinkle },
	"d": func(s *render.Settings) { s.Disk = !s.Disk },
	"w": func(s *render.Settings) { s.PointerGlow = !s.PointerGlow },
	"e": func(s *render.Settings) { s.Exposure -= 0.05 },
	"E": func(s *render.Settings) { s.Exposure += 0.05 },
	"u": func(s *render.Settings) { s.Tint -= 0.01 },
	"U": func(s *render.Settings) { s.Tint += 0.01 },
	"[": func(s *render.Settings) { s.ParticleSize -= 0.05 },
	"]": func(s *render.Settings) { s.ParticleSize += 0.05 },
	"{": func(s *render.Settings) { s.GasParticleSize -= 2 },
	"}": func(s *render.Settings) { s.GasParticleSize += 2 },
	"s": func(s *render.Settings) { s.Bloom.Strength -= 0.1 },
	"S": func(s *render.Settings) { s.Bloom.Strength += 0.1 },
	"v": func(s *render.Settings) { s.Bloom.Radius -= 0.01 },
	"V": func(s *render.Settings) { s.Bloom.Radius += 0.01 },
	"h": func(s *render.Settings) { s.Bloom.Threshold -= 0.02 },
	"H": func(s *render.Settings) { s.Bloom.Threshold += 0.02 },
}

// GalaxyViewModel draws the cloud with the software renderer at two pixels
// per terminal cell.
type GalaxyViewModel struct {
	state *state.Manager

	width  int
	height int

	frame    *render.Frame
	rendered string
	drawn    int

	// Mouse drag
	dragging bool
	lastX    int
	lastY    int
}

// NewGalaxyViewModel creates a galaxy view driven by the given state.
func NewGalaxyViewModel(st *state.Manager) GalaxyViewModel {
	return GalaxyViewModel{
		state: st,
		frame: render.NewFrame(1, 2),
	}
}

// SetSize updates the view dimensions in cells.
func (m GalaxyViewModel) SetSize(width, height int) GalaxyViewModel {
	m.width = width
	m.height = height
	m.frame.Resize(width, 2*height)
	return m
}

// Render draws a scene and caches the cell output.
func (m GalaxyViewModel) Render(s render.Scene) GalaxyViewModel {
	if m.width <= 0 || m.height <= 0 {
		return m
	}
	m.drawn = render.Render(m.frame, s)
	m.rendered = halfBlocks(m.frame)
	return m
}

// Update handles camera keys, setting tweaks and the mouse.
func (m GalaxyViewModel) Update(msg tea.Msg) (GalaxyViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if fn, ok := settingKeys[key]; ok {
			m.state.UpdateSettings(fn)
			return m, nil
		}
		switch key {
		case "left":
			m.orbit(-orbitStep, 0)
		case "right":
			m.orbit(orbitStep, 0)
		case "up":
			m.orbit(0, -orbitStep)
		case "down":
			m.orbit(0, orbitStep)
		case "+", "=":
			m.zoom(1 / zoomStep)
		case "-":
			m.zoom(zoomStep)
		case "0":
			m.state.ResetView()
		}

	case tea.MouseMsg:
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.zoom(1 / zoomStep)
		case msg.Button == tea.MouseButtonWheelDown:
			m.zoom(zoomStep)
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			m.dragging = true
			m.lastX, m.lastY = msg.X, msg.Y
		case msg.Action == tea.MouseActionRelease:
			m.dragging = false
		case msg.Action == tea.MouseActionMotion:
			if m.dragging {
				dx := float32(msg.X - m.lastX)
				dy := float32(msg.Y - m.lastY)
				// cells are twice as tall as wide
				m.orbit(-dx*orbitPerCell, -2*dy*orbitPerCell)
				m.lastX, m.lastY = msg.X, msg.Y
			}
			m.trackPointer(msg.X, msg.Y)
		}
	}
	return m, nil
}

func (m GalaxyViewModel) orbit(dAz, dPolar float32) {
	m.state.UpdateCamera(func(c render.Camera) render.Camera {
		return c.Orbit(dAz, dPolar)
	})
}

func (m GalaxyViewModel) zoom(factor float32) {
	m.state.UpdateCamera(func(c render.Camera) render.Camera {
		return c.Zoom(factor)
	})
}

// trackPointer casts the cell under the mouse onto the galaxy plane.
func (m GalaxyViewModel) trackPointer(x, y int) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		m.state.ClearPointer()
		return
	}
	w, h := m.frame.W, m.frame.H
	ndcX, ndcY := render.PixelToNDC(float64(x)+0.5, float64(2*y)+1, w, h)
	hit, ok := m.state.Camera().PointerOnPlane(ndcX, ndcY, float32(w)/float32(h))
	if !ok {
		m.state.ClearPointer()
		return
	}
	m.state.SetPointerTarget(hit)
}

// View renders the last drawn frame.
func (m GalaxyViewModel) View() string {
	if m.width < 10 || m.height < 5 {
		return "Galaxy view requires larger terminal"
	}
	if m.rendered == "" {
		return "Rendering..."
	}
	return m.rendered
}

// halfBlocks encodes a frame as rows of upper half blocks: the foreground
// is the top pixel, the background the one below. Runs of identical cells
// share one style.
func halfBlocks(f *render.Frame) string {
	var b strings.Builder
	for row := 0; row+1 < f.H; row += 2 {
		if row > 0 {
			b.WriteByte('\n')
		}

		var fg, bg string
		run := 0
		flush := func() {
			if run == 0 {
				return
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(fg)).
				Background(lipgloss.Color(bg))
			b.WriteString(style.Render(strings.Repeat("▀", run)))
			run = 0
		}

		for x := 0; x < f.W; x++ {
			top := pixelHex(f, x, row)
			bottom := pixelHex(f, x, row+1)
			if run > 0 && (top != fg || bottom != bg) {
				flush()
			}
			fg, bg = top, bottom
			run++
		}
		flush()
	}
	return b.String()
}

func pixelHex(f *render.Frame, x, y int) string {
	r, g, b := f.At(x, y)
	return colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}.Hex()
}
