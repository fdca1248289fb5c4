// Package store persists named generator presets.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/litescript/ls-galaxy/internal/galaxy"
)

// Store errors.
var (
	ErrNotFound     = errors.New("preset not found")
	ErrReservedName = errors.New("preset name is reserved")
	ErrInvalidName  = errors.New("invalid preset name")
)

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,39}$`)

// Preset is a named generator config.
type Preset struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Config      galaxy.Config `json:"config"`
	BuiltIn     bool          `json:"built_in"`
	CreatedAt   time.Time     `json:"created_at,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at,omitempty"`
}

// Store reads and writes user presets. Built-in presets are not stored.
type Store interface {
	List(ctx context.Context) ([]Preset, error)
	Get(ctx context.Context, name string) (*Preset, error)
	Save(ctx context.Context, p Preset) (*Preset, error)
	Ping(ctx context.Context) error
	Close() error
}

// ValidateName checks a user preset name. Built-in names cannot be reused.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q (lowercase letters, digits, '-' and '_', at most 40)", ErrInvalidName, name)
	}
	if _, ok := galaxy.Preset(name); ok {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	return nil
}

// BuiltIns returns the built-in presets in name order.
func BuiltIns() []Preset {
	names := galaxy.PresetNames()
	out := make([]Preset, 0, len(names))
	for _, name := range names {
		cfg, _ := galaxy.Preset(name)
		out = append(out, Preset{Name: name, Config: cfg, BuiltIn: true})
	}
	return out
}

// Lookup resolves a preset name against the built-ins first, then s. A nil
// store only knows the built-ins.
func Lookup(ctx context.Context, s Store, name string) (*Preset, error) {
	if cfg, ok := galaxy.Preset(name); ok {
		return &Preset{Name: name, Config: cfg, BuiltIn: true}, nil
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s.Get(ctx, name)
}

// Memory is a Store kept in process memory.
type Memory struct {
	mu      sync.RWMutex
	presets map[string]Preset
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{presets: make(map[string]Preset), now: time.Now}
}

func (m *Memory) List(context.Context) ([]Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Preset, 0, len(m.presets))
	for _, p := range m.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Get(_ context.Context, name string) (*Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return &p, nil
}

func (m *Memory) Save(_ context.Context, p Preset) (*Preset, error) {
	if err := ValidateName(p.Name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	p.BuiltIn = false
	p.CreatedAt = now
	if prev, ok := m.presets[p.Name]; ok {
		p.CreatedAt = prev.CreatedAt
	}
	p.UpdatedAt = now
	m.presets[p.Name] = p
	return &p, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
