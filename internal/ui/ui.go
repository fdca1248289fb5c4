// Package ui provides the terminal galaxy viewer using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-galaxy/internal/galaxy"
	"github.com/litescript/ls-galaxy/internal/logging"
	"github.com/litescript/ls-galaxy/internal/render"
	"github.com/litescript/ls-galaxy/internal/state"
	"github.com/litescript/ls-galaxy/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewGalaxy ViewMode = iota
	ViewMap
	ViewStats
)

const viewCount = 3

// Chrome around the active view: one tab line on top, one status line below.
const (
	headerLines = 1
	footerLines = 1

	// maxFrameStep caps the animation step after a stall.
	maxFrameStep = 100 * time.Millisecond

	minArms  = 1
	maxArms  = 8
	minStars = 1000
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic snapshot refreshes.
	TickMsg time.Time

	// FrameMsg triggers an animation frame.
	FrameMsg time.Time

	// CloudReadyMsg carries the result of a background generation run.
	CloudReadyMsg struct {
		Cloud    *galaxy.Cloud
		Preset   string
		Config   galaxy.Config
		Duration time.Duration
		Err      error
	}
)

// Options configure the viewer's first generation run.
type Options struct {
	Preset string
	Config galaxy.Config
	// Seed fixes the first run's seed. Nil draws a random one.
	Seed   *uint64
	Logger *logging.Logger
	// MaxStars bounds the star count the n key can reach.
	MaxStars int
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	state  *state.Manager
	logger *logging.Logger

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int

	// Generation
	preset     string
	config     galaxy.Config
	seed       *uint64
	maxStars   int
	generating bool
	revisit    int // history index being regenerated by b, or -1

	// Animation clock
	paused    bool
	elapsed   time.Duration
	lastFrame time.Time

	// Sub-models
	galaxyView GalaxyViewModel
	mapView    MapViewModel
	statsView  StatsViewModel

	snapshot state.Snapshot
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	preset := opts.Preset
	if preset == "" {
		preset = galaxy.PresetFull
	}
	maxStars := opts.MaxStars
	if maxStars <= 0 {
		maxStars = 500000
	}
	return Model{
		state:      stateMgr,
		logger:     logger.With("ui"),
		viewMode:   ViewGalaxy,
		preset:     preset,
		config:     opts.Config,
		seed:       opts.Seed,
		maxStars:   maxStars,
		generating: true, // Init starts the first run
		revisit:    -1,
		galaxyView: NewGalaxyViewModel(stateMgr),
		mapView:    NewMapViewModel(),
		statsView:  NewStatsViewModel(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		frameCmd(m.state.FrameInterval()),
		generateCmd(m.config, m.preset, m.seed, m.logger),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1":
			m.viewMode = ViewGalaxy
		case "2":
			m.viewMode = ViewMap
		case "3":
			m.viewMode = ViewStats
		case "tab":
			m.viewMode = (m.viewMode + 1) % viewCount

		case " ":
			m.paused = !m.paused
		case "g":
			m.state.UpdateSettings(func(s *render.Settings) { s.ShowGas = !s.ShowGas })
			m.snapshot = m.state.Snapshot()
			m.mapView = m.mapView.UpdateData(m.snapshot)

		case "r":
			if !m.generating {
				m.seed = nil
				cmds = append(cmds, m.regenerate())
			}
		case "b":
			cmds = append(cmds, m.previous())
		case "p":
			cmds = append(cmds, m.cyclePreset())
		case "a":
			cmds = append(cmds, m.adjustArms(-1))
		case "A":
			cmds = append(cmds, m.adjustArms(1))
		case "n":
			cmds = append(cmds, m.scaleStars(0.5))
		case "N":
			cmds = append(cmds, m.scaleStars(2))

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.MouseMsg:
		if m.viewMode == ViewGalaxy {
			msg.Y -= headerLines
			var cmd tea.Cmd
			m.galaxyView, cmd = m.galaxyView.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentHeight := msg.Height - headerLines - footerLines
		m.galaxyView = m.galaxyView.SetSize(msg.Width, contentHeight)
		m.mapView = m.mapView.SetSize(msg.Width, contentHeight)
		m.statsView = m.statsView.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		m.animTick++
		m.snapshot = m.state.Snapshot()
		m.mapView = m.mapView.UpdateData(m.snapshot)
		m.statsView = m.statsView.UpdateData(m.snapshot).SetEvents(m.state.RecentEvents(maxStatsEvents))

	case FrameMsg:
		cmds = append(cmds, frameCmd(m.state.FrameInterval()))
		m = m.stepFrame(time.Time(msg))

	case CloudReadyMsg:
		m = m.applyCloud(msg)

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewGalaxy:
		m.galaxyView, cmd = m.galaxyView.Update(msg)
	case ViewMap:
		m.mapView, cmd = m.mapView.Update(msg)
	case ViewStats:
		m.statsView, cmd = m.statsView.Update(msg)
	}
	return cmd
}

// stepFrame advances the animation clock and the smoothed pointer, then
// redraws the galaxy view if it is on screen.
func (m Model) stepFrame(now time.Time) Model {
	if !m.lastFrame.IsZero() && !m.paused {
		dt := now.Sub(m.lastFrame)
		if dt > maxFrameStep {
			dt = maxFrameStep
		}
		if dt > 0 {
			m.elapsed += dt
		}
	}
	m.lastFrame = now

	m.state.StepPointer()
	if m.viewMode == ViewGalaxy && m.ready && m.state.HasData() {
		m.galaxyView = m.galaxyView.Render(m.state.Scene(m.elapsed))
	}
	return m
}

// applyCloud stores a finished generation run. A rejected config leaves the
// previous cloud and its config in place.
func (m Model) applyCloud(msg CloudReadyMsg) Model {
	m.generating = false
	if m.revisit >= 0 && msg.Err == nil && msg.Cloud != nil {
		m.state.Revisit(m.revisit, msg.Cloud, msg.Preset, msg.Duration)
	} else {
		m.state.Update(msg.Cloud, msg.Preset, msg.Duration, msg.Err)
	}
	m.revisit = -1

	if msg.Err != nil {
		m.statusMsg = fmt.Sprintf("Rejected: %v", msg.Err)
		if cur := m.state.Snapshot().Cloud; cur != nil {
			m.config = cur.Config
		}
	} else {
		m.statusMsg = ""
		m.preset = msg.Preset
		m.config = msg.Config
		seed := msg.Cloud.Seed
		m.seed = &seed
	}

	m.snapshot = m.state.Snapshot()
	m.mapView = m.mapView.UpdateData(m.snapshot)
	m.statsView = m.statsView.UpdateData(m.snapshot).SetEvents(m.state.RecentEvents(maxStatsEvents))
	return m
}

// regenerate starts a run with the current preset, config and seed.
func (m *Model) regenerate() tea.Cmd {
	if m.generating {
		return nil
	}
	m.revisit = -1
	return m.start()
}

func (m *Model) start() tea.Cmd {
	m.generating = true
	return generateCmd(m.config, m.preset, m.seed, m.logger)
}

// previous steps back one entry in the history. Repeated presses keep
// walking back rather than swapping between the last two galaxies.
func (m *Model) previous() tea.Cmd {
	if m.generating {
		return nil
	}
	prev, i, ok := m.state.Previous()
	if !ok {
		m.statusMsg = "No earlier galaxy"
		return nil
	}
	m.preset = prev.Preset
	m.config = prev.Config
	seed := prev.Seed
	m.seed = &seed
	m.revisit = i
	return m.start()
}

// cyclePreset moves to the next built-in preset, keeping the star and arm
// counts and the seed.
func (m *Model) cyclePreset() tea.Cmd {
	names := galaxy.PresetNames()
	next := names[0]
	for i, name := range names {
		if name == m.preset {
			next = names[(i+1)%len(names)]
			break
		}
	}
	cfg, _ := galaxy.Preset(next)
	cfg.StarCount = m.config.StarCount
	cfg.ArmCount = m.config.ArmCount
	m.preset = next
	m.config = cfg
	return m.regenerate()
}

func (m *Model) adjustArms(delta int) tea.Cmd {
	arms := m.config.ArmCount + delta
	if arms < minArms || arms > maxArms {
		return nil
	}
	m.config.ArmCount = arms
	return m.regenerate()
}

func (m *Model) scaleStars(factor float64) tea.Cmd {
	stars := int(float64(m.config.StarCount) * factor)
	stars = min(max(stars, minStars), m.maxStars)
	if stars == m.config.StarCount {
		return nil
	}
	m.config.StarCount = stars
	return m.regenerate()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewGalaxy:
		content = m.galaxyView.View()
	case ViewMap:
		content = m.mapView.View()
	case ViewStats:
		content = m.statsView.View()
	}

	return m.renderTabs() + "\n" + content + "\n" + m.renderFooter()
}

// Logo rows for the stats view.
var logo = []string{
	`  ██╗     ███████╗       ██████╗  █████╗ ██╗      █████╗ ██╗  ██╗██╗   ██╗`,
	`  ██║     ██╔════╝      ██╔════╝ ██╔══██╗██║     ██╔══██╗╚██╗██╔╝╚██╗ ██╔╝`,
	`  ██║     ███████╗█████╗██║  ███╗███████║██║     ███████║ ╚███╔╝  ╚████╔╝ `,
	`  ██║     ╚════██║╚════╝██║   ██║██╔══██║██║     ██╔══██║ ██╔██╗   ╚██╔╝  `,
	`  ███████╗███████║      ╚██████╔╝██║  ██║███████╗██║  ██║██╔╝ ██╗   ██║   `,
	`  ╚══════╝╚══════╝       ╚═════╝ ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   `,
}

// renderLogo draws the logo with a truecolor gradient, plus tagline and
// version line.
func renderLogo() string {
	var b strings.Builder

	for row, line := range logo {
		runes := []rune(line)
		for col, r := range runes {
			color := gradientColor(col, row, len(runes), len(logo))
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			b.WriteString(style.Render(string(r)))
		}
		b.WriteString("\n")
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render("  Procedural Barred Spiral · Point Cloud Viewer"))
	b.WriteString("\n")
	b.WriteString(muted.Render(fmt.Sprintf("  (c) 2025 litescript.net | v%s", version.Version)))
	b.WriteString("\n")

	return b.String()
}

// gradientColor returns a hex color for a position in the logo gradient:
// the galaxy's own palette, core orange through to outer blue.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	// #eb3700 -> #c77dff -> #99edf7
	var r, g, b float64
	if xRatio < 0.5 {
		t := xRatio / 0.5
		r = 235 + t*(199-235)
		g = 55 + t*(125-55)
		b = 0 + t*(255-0)
	} else {
		t := (xRatio - 0.5) / 0.5
		r = 199 + t*(153-199)
		g = 125 + t*(237-125)
		b = 255 + t*(247-255)
	}

	// Brighter at top
	brightness := 1.0 - yRatio*0.5
	ri := min(max(int(r*brightness), 0), 255)
	gi := min(max(int(g*brightness), 0), 255)
	bi := min(max(int(b*brightness), 0), 255)

	return fmt.Sprintf("#%02X%02X%02X", ri, gi, bi)
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Galaxy", "[2] Map", "[3] Stats"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.statusMsg != "":
		status = errorStyle.Render(m.statusMsg)
	case m.generating || m.snapshot.Cloud == nil:
		status = accentStyle.Render(spinner) + dimStyle.Render(" generating...")
	default:
		c := m.snapshot.Cloud
		status = accentStyle.Render(m.preset) + dimStyle.Render(fmt.Sprintf(
			" seed %d | %d stars, %d gas | %d arms | %v",
			c.Seed, len(c.Stars), len(c.Gas), c.Config.ArmCount,
			m.snapshot.GenDuration.Round(time.Millisecond)))
		if m.paused {
			status += dimStyle.Render(" | paused")
		}
	}

	var help string
	switch m.viewMode {
	case ViewGalaxy:
		help = "drag/arrows: orbit | wheel/+-: zoom | g: gas | B: bloom | e/E: exposure | r: reseed | p: preset"
	case ViewMap:
		help = "l: log scale | g: gas | r: reseed | p: preset"
	default:
		help = "a/A: arms | n/N: stars | b: back | tab: switch view"
	}

	return "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func frameCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// generateCmd runs the generator off the update loop.
func generateCmd(cfg galaxy.Config, preset string, seed *uint64, logger *logging.Logger) tea.Cmd {
	var opts []galaxy.GeneratorOption
	opts = append(opts, galaxy.WithLogger(logger))
	if seed != nil {
		opts = append(opts, galaxy.WithSeed(*seed))
	}
	return func() tea.Msg {
		start := time.Now()
		cloud, err := galaxy.NewGenerator(opts...).Generate(cfg)
		return CloudReadyMsg{
			Cloud:    cloud,
			Preset:   preset,
			Config:   cfg,
			Duration: time.Since(start),
			Err:      err,
		}
	}
}
