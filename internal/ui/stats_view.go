package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-galaxy/internal/galaxy"
	"github.com/litescript/ls-galaxy/internal/state"
)

const maxStatsEvents = 8

// StatsViewModel shows counts and distribution figures for the current
// cloud, plus generation history and events.
type StatsViewModel struct {
	width  int
	height int
	scroll int

	snapshot state.Snapshot
	events   []state.Event
	stats    *galaxy.Stats
}

// NewStatsViewModel creates an empty stats view.
func NewStatsViewModel() StatsViewModel {
	return StatsViewModel{}
}

// SetSize updates the view dimensions.
func (m StatsViewModel) SetSize(width, height int) StatsViewModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the view with new state data. Stats are only
// recomputed when the cloud changes.
func (m StatsViewModel) UpdateData(snapshot state.Snapshot) StatsViewModel {
	if snapshot.Cloud != m.snapshot.Cloud || m.stats == nil {
		if snapshot.Cloud != nil {
			st := galaxy.Summarize(snapshot.Cloud)
			m.stats = &st
		} else {
			m.stats = nil
		}
	}
	m.snapshot = snapshot
	return m
}

// SetEvents replaces the events listed at the bottom of the page.
func (m StatsViewModel) SetEvents(events []state.Event) StatsViewModel {
	m.events = events
	return m
}

// Update handles scrolling.
func (m StatsViewModel) Update(msg tea.Msg) (StatsViewModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "j", "down":
			if m.scroll < m.maxScroll() {
				m.scroll++
			}
		case "k", "up":
			if m.scroll > 0 {
				m.scroll--
			}
		}
	}
	return m, nil
}

// View renders the stats page.
func (m StatsViewModel) View() string {
	lines := m.lines()
	if m.height > 0 && len(lines) > m.height {
		start := min(m.scroll, len(lines)-m.height)
		lines = lines[start : start+m.height]
	}
	return strings.Join(lines, "\n")
}

func (m StatsViewModel) lines() []string {
	return strings.Split(strings.TrimRight(renderLogo()+"\n"+m.renderBody(), "\n"), "\n")
}

// maxScroll is the last offset that still fills the view.
func (m StatsViewModel) maxScroll() int {
	if m.height <= 0 {
		return 0
	}
	return max(0, len(m.lines())-m.height)
}

func (m StatsViewModel) renderBody() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))

	if m.stats == nil {
		if m.snapshot.LastError != nil {
			return errorStyle.Render("  " + m.snapshot.LastError.Error())
		}
		return dimStyle.Render("  Waiting for first galaxy...")
	}

	c := m.snapshot.Cloud
	st := m.stats
	var b strings.Builder

	b.WriteString(titleStyle.Render("  Galaxy"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Preset %-8s Seed %d\n", m.snapshot.Preset, c.Seed)
	fmt.Fprintf(&b, "  Arms %d  Tightness %.2f  Radius %.0f  Core %.0f  Gas radius %.0f\n",
		c.Config.ArmCount, c.Config.SpiralTightness,
		c.Config.GalaxyRadius(), c.Config.CoreRadius(), c.Config.GasMaxRadius())
	fmt.Fprintf(&b, "  %d stars, %d gas clouds in %v\n",
		st.Stars, st.Gas, m.snapshot.GenDuration.Round(time.Microsecond))
	if m.snapshot.LastError != nil {
		b.WriteString(errorStyle.Render("  Last run rejected: " + m.snapshot.LastError.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("  Zones"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-12s %8s %9s %9s %9s %9s",
		"Zone", "Stars", "Mean X", "Mean Y", "σ X", "σ Y")))
	b.WriteString("\n")
	for _, z := range st.Zones {
		fmt.Fprintf(&b, "  %-12s %8d %9.1f %9.1f %9.1f %9.1f\n",
			z.Zone, z.Count, z.MeanX, z.MeanY, z.StdDevX, z.StdDevY)
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("  Arms"))
	b.WriteString("\n")
	for j := range st.PerArm {
		fmt.Fprintf(&b, "  arm %-2d %8d stars %6d gas  %s\n",
			j, st.PerArm[j], st.GasPerArm[j], bar(st.PerArm[j], st.Stars, 20))
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("  Colour classes"))
	b.WriteString("\n")
	for _, cls := range []galaxy.ColorClass{galaxy.ClassNone, galaxy.ClassNormal, galaxy.ClassRedGiant, galaxy.ClassWhiteDwarf} {
		if n := st.Classes[cls]; n > 0 {
			fmt.Fprintf(&b, "  %-12s %8d  %s\n", cls, n, bar(n, st.Stars, 20))
		}
	}
	b.WriteString("\n")

	if len(m.snapshot.History) > 0 {
		b.WriteString(titleStyle.Render("  History"))
		b.WriteString("\n")
		for i := len(m.snapshot.History) - 1; i >= 0; i-- {
			h := m.snapshot.History[i]
			mark := " "
			if i == m.snapshot.Cursor {
				mark = "▸"
			}
			fmt.Fprintf(&b, " %s%s  %-8s seed %-20d %7d stars %2d arms\n",
				mark, h.Timestamp.Format("15:04:05"), h.Preset, h.Seed, h.Stars, h.Config.ArmCount)
		}
		b.WriteString("\n")
	}

	if len(m.events) > 0 {
		b.WriteString(titleStyle.Render("  Events"))
		b.WriteString("\n")
		for _, e := range m.events {
			line := fmt.Sprintf("  %s  %-9s %s", e.Timestamp.Format("15:04:05"), e.Type, eventDetail(e))
			b.WriteString(dimStyle.Render(line))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func eventDetail(e state.Event) string {
	switch e.Type {
	case state.EventGenerated, state.EventRevisited:
		return fmt.Sprintf("%s seed %d, %d stars, %d gas", e.Preset, e.Seed, e.Stars, e.Gas)
	default:
		return e.Message
	}
}

// bar draws a proportional bar of up to width cells.
func bar(n, total, width int) string {
	if total <= 0 || n <= 0 {
		return ""
	}
	filled := n * width / total
	if filled == 0 {
		filled = 1
	}
	return strings.Repeat("█", min(filled, width))
}
