// Package cache stores encoded clouds keyed by a fingerprint of the config
// and seed that produced them.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"github.com/litescript/ls-galaxy/internal/config"
	"github.com/litescript/ls-galaxy/internal/galaxy"
	"github.com/litescript/ls-galaxy/internal/logging"
)

// keyVersion is bumped whenever the encoded formats change.
const keyVersion = "v1"

// Cache is a byte store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Key fingerprints a generation request. Generation is deterministic in
// (config, seed), so equal keys always hold equal clouds.
func Key(kind string, cfg galaxy.Config, seed uint64) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	h := xxhash.New()
	_, _ = h.Write(data)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], seed)
	_, _ = h.Write(b[:])
	return "galaxy:" + keyVersion + ":" + kind + ":" + strconv.FormatUint(h.Sum64(), 16), nil
}

// Redis is a Cache backed by a Redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// Connect opens a Redis connection and pings it. It returns nil and no error
// when Redis is disabled.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *logging.Logger) (*Redis, error) {
	logger = logger.With("redis")
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory cache")
		return nil, nil
	}

	var opts *redis.Options
	if cfg.URL != "" {
		logger.Debug("Connecting to Redis using URL")
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse Redis URL: %w", err)
		}
		opts = parsed
	} else {
		addr := cfg.Addr()
		logger.Debug("Connecting to Redis at %s", addr)
		opts = &redis.Options{
			Addr:         addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping Redis: %w", err)
	}

	logger.Info("Redis connection established")
	return NewRedis(rdb, cfg.TTL, logger), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	r.logger.Debug("Cache hit %s (%d bytes)", key, len(data))
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Memory is an in-process Cache capped by entry count and total value
// bytes. Expired entries read as misses; entries beyond either cap are
// dropped oldest first. A value larger than the byte cap is not stored.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	order      []string
	size       int64
	ttl        time.Duration
	maxEntries int
	maxBytes   int64
	now        func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemory creates an in-memory cache.
func NewMemory(ttl time.Duration, maxEntries int, maxBytes int64) *Memory {
	if maxEntries <= 0 {
		maxEntries = 32
	}
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	return &Memory{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.ttl > 0 && !m.now().Before(e.expires) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if int64(len(value)) > m.maxBytes {
		m.remove(key)
		return nil
	}

	if prev, exists := m.entries[key]; exists {
		m.size -= int64(len(prev.value))
	} else {
		m.order = append(m.order, key)
	}
	m.entries[key] = memoryEntry{value: value, expires: m.now().Add(m.ttl)}
	m.size += int64(len(value))

	for (len(m.entries) > m.maxEntries || m.size > m.maxBytes) && len(m.order) > 0 {
		m.remove(m.order[0])
	}
	return nil
}

// remove drops key from the entries and the eviction order.
func (m *Memory) remove(key string) {
	e, ok := m.entries[key]
	if !ok {
		return
	}
	m.size -= int64(len(e.value))
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Size returns the total bytes of stored values.
func (m *Memory) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
