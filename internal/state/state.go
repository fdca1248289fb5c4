// Package state provides thread-safe runtime state for the galaxy viewers.
package state

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-galaxy/internal/galaxy"
	"github.com/litescript/ls-galaxy/internal/render"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventGenerated EventType = "GENERATED"
	EventRejected  EventType = "REJECTED"
	EventSettings  EventType = "SETTINGS"
	EventReset     EventType = "RESET"
	EventRevisited EventType = "REVISITED"
)

// Event represents a change to the viewer state.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Preset    string    `json:"preset,omitempty"`
	Seed      uint64    `json:"seed,omitempty"`
	Stars     int       `json:"stars,omitempty"`
	Gas       int       `json:"gas,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// HistoryEntry records one successful generation.
type HistoryEntry struct {
	Timestamp time.Time
	Preset    string
	Seed      uint64
	Config    galaxy.Config
	Stars     int
	Gas       int
	Duration  time.Duration
}

// pointerLerp is the fraction of the remaining distance the pointer moves
// toward its target on each step.
const pointerLerp = 0.5

// Manager handles all shared viewer state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current cloud
	current      *galaxy.Cloud
	preset       string
	lastGenerate time.Time
	lastError    error
	genDuration  time.Duration

	// View
	settings      render.Settings
	camera        render.Camera
	pointer       r3.Vec
	pointerTarget r3.Vec
	pointerActive bool

	// History buffer; cursor indexes the entry on screen
	history       []HistoryEntry
	maxHistoryLen int
	cursor        int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	// Configuration
	frameInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxHistoryLen int
	MaxEvents     int
	FrameInterval time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistoryLen: 20,
		MaxEvents:     50,
		FrameInterval: time.Second / 30,
	}
}

// NewManager creates a new state manager with default render settings and
// camera.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		settings:      render.DefaultSettings(),
		camera:        render.DefaultCamera(),
		maxHistoryLen: cfg.MaxHistoryLen,
		maxEvents:     maxEvents,
		events:        make([]Event, 0, maxEvents),
		frameInterval: cfg.FrameInterval,
	}
}

// Update records the result of a generation run. A nil cloud keeps the
// previous one on screen and only records the error.
func (m *Manager) Update(cloud *galaxy.Cloud, preset string, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastGenerate = now
	m.lastError = err
	m.genDuration = d

	if cloud == nil {
		if err != nil {
			m.addEvent(Event{Type: EventRejected, Timestamp: now, Preset: preset, Message: err.Error()})
		}
		return
	}

	m.show(cloud, preset)
	m.addEvent(Event{
		Type:      EventGenerated,
		Timestamp: now,
		Preset:    preset,
		Seed:      cloud.Seed,
		Stars:     len(cloud.Stars),
		Gas:       len(cloud.Gas),
	})

	m.history = append(m.history, HistoryEntry{
		Timestamp: now,
		Preset:    preset,
		Seed:      cloud.Seed,
		Config:    cloud.Config,
		Stars:     len(cloud.Stars),
		Gas:       len(cloud.Gas),
		Duration:  d,
	})
	if m.maxHistoryLen > 0 && len(m.history) > m.maxHistoryLen {
		m.history = m.history[1:]
	}
	m.cursor = len(m.history) - 1
}

// Revisit puts a regenerated history entry back on screen without adding
// a new entry, so stepping back repeatedly walks further into the past.
// If entry i no longer matches the cloud it is recorded as a fresh run.
func (m *Manager) Revisit(i int, cloud *galaxy.Cloud, preset string, d time.Duration) {
	m.mu.Lock()
	if i < 0 || i >= len(m.history) || m.history[i].Seed != cloud.Seed || m.history[i].Preset != preset {
		m.mu.Unlock()
		m.Update(cloud, preset, d, nil)
		return
	}
	defer m.mu.Unlock()

	now := time.Now()
	m.lastGenerate = now
	m.lastError = nil
	m.genDuration = d
	m.show(cloud, preset)
	m.cursor = i
	m.addEvent(Event{
		Type:      EventRevisited,
		Timestamp: now,
		Preset:    preset,
		Seed:      cloud.Seed,
		Stars:     len(cloud.Stars),
		Gas:       len(cloud.Gas),
	})
}

// show makes cloud current. The gas sprite size follows the cloud's config
// whenever it differs from the one on screen, leaving user tweaks alone
// otherwise.
func (m *Manager) show(cloud *galaxy.Cloud, preset string) {
	if m.current == nil || m.current.Config.GasParticleSize != cloud.Config.GasParticleSize {
		m.settings = m.settings.ForCloud(cloud.Config)
	}
	m.current = cloud
	m.preset = preset
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Settings returns the current render settings.
func (m *Manager) Settings() render.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// UpdateSettings applies fn to a copy of the render settings, clamps the
// result and stores it.
func (m *Manager) UpdateSettings(fn func(*render.Settings)) render.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.settings
	fn(&s)
	s = s.Clamp()
	if s != m.settings {
		m.addEvent(Event{Type: EventSettings, Timestamp: time.Now()})
	}
	m.settings = s
	return s
}

// ResetView restores the default settings and camera.
func (m *Manager) ResetView() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = render.DefaultSettings()
	if m.current != nil {
		m.settings = m.settings.ForCloud(m.current.Config)
	}
	m.camera = render.DefaultCamera()
	m.pointerActive = false
	m.addEvent(Event{Type: EventReset, Timestamp: time.Now()})
}

// Camera returns the current camera.
func (m *Manager) Camera() render.Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.camera
}

// UpdateCamera replaces the camera with fn's result.
func (m *Manager) UpdateCamera(fn func(render.Camera) render.Camera) render.Camera {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.camera = fn(m.camera)
	return m.camera
}

// SetPointerTarget sets where the pointer glow is heading. The first target
// after the pointer was cleared is taken immediately.
func (m *Manager) SetPointerTarget(p r3.Vec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pointerActive {
		m.pointer = p
	}
	m.pointerTarget = p
	m.pointerActive = true
}

// ClearPointer removes the pointer glow, e.g. when the cursor leaves the
// galaxy plane.
func (m *Manager) ClearPointer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointerActive = false
}

// StepPointer moves the pointer halfway toward its target and returns the
// new position, or nil when no pointer is active.
func (m *Manager) StepPointer() *r3.Vec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pointerActive {
		return nil
	}
	m.pointer = r3.Add(m.pointer, r3.Scale(pointerLerp, r3.Sub(m.pointerTarget, m.pointer)))
	p := m.pointer
	return &p
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Cloud        *galaxy.Cloud
	Preset       string
	LastGenerate time.Time
	LastError    error
	GenDuration  time.Duration
	Settings     render.Settings
	Camera       render.Camera
	Pointer      *r3.Vec
	History      []HistoryEntry
	Cursor       int
}

// Snapshot returns a consistent snapshot of current state. The cloud is
// shared: clouds are never modified after generation.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pointer *r3.Vec
	if m.pointerActive {
		p := m.pointer
		pointer = &p
	}

	hist := make([]HistoryEntry, len(m.history))
	copy(hist, m.history)

	return Snapshot{
		Cloud:        m.current,
		Preset:       m.preset,
		LastGenerate: m.lastGenerate,
		LastError:    m.lastError,
		GenDuration:  m.genDuration,
		Settings:     m.settings,
		Camera:       m.camera,
		Pointer:      pointer,
		History:      hist,
		Cursor:       m.cursor,
	}
}

// Scene builds a render scene from the current state.
func (m *Manager) Scene(elapsed time.Duration) render.Scene {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := render.Scene{
		Cloud:    m.current,
		Camera:   m.camera,
		Settings: m.settings,
		Elapsed:  elapsed,
	}
	if m.pointerActive {
		p := m.pointer
		s.Pointer = &p
	}
	return s
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		result[i] = m.events[(m.eventWriteAt+i)%m.maxEvents]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// Previous returns the history entry before the one on screen and its
// index, for handing back to Revisit once it has been regenerated.
func (m *Manager) Previous() (HistoryEntry, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.cursor - 1
	if i < 0 || i >= len(m.history) {
		return HistoryEntry{}, -1, false
	}
	return m.history[i], i, true
}

// FrameInterval returns the configured animation frame interval.
func (m *Manager) FrameInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frameInterval
}

// HasData returns true once a cloud has been generated.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}
