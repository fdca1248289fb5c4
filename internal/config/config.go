// Package config loads application settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/litescript/ls-galaxy/internal/galaxy"
)

// Config holds the application settings shared by the CLI, the window viewer
// and the HTTP server.
type Config struct {
	Server    ServerConfig
	Frontend  FrontendConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Galaxy    GalaxyConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration

	// MemoryMaxBytes caps the in-process cache used when Redis is disabled.
	MemoryMaxBytes int64
}

// DatabaseConfig points at the Postgres preset store. An empty URL keeps
// presets in memory.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type LoggingConfig struct {
	Level string
	File  string
}

// GalaxyConfig holds the generation defaults and limits.
type GalaxyConfig struct {
	Preset       string
	Seed         uint64 // 0 draws a fresh seed per run
	Stars        int    // 0 keeps the preset's count
	Arms         int    // 0 keeps the preset's count
	Gas          string // "", "on" or "off"
	MaxStarCount int
	MaxArmCount  int
	MaxGasCount  int // gas instances after reduction
}

// Load reads .env files (missing files are ignored) and then the process
// environment. Unparseable numbers fall back to their defaults.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		Server:    loadServerConfig(),
		Frontend:  loadFrontendConfig(),
		RateLimit: loadRateLimitConfig(),
		Redis:     loadRedisConfig(),
		Database:  loadDatabaseConfig(),
		Logging:   loadLoggingConfig(),
		Galaxy:    loadGalaxyConfig(),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:         getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getSeconds("SERVER_READ_TIMEOUT_SECONDS", 15),
		WriteTimeout: getSeconds("SERVER_WRITE_TIMEOUT_SECONDS", 30),
		IdleTimeout:  getSeconds("SERVER_IDLE_TIMEOUT_SECONDS", 60),
	}
}

func loadFrontendConfig() FrontendConfig {
	return FrontendConfig{
		URL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: getBool("CORS_DEBUG", false),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           getBool("RATE_LIMIT_ENABLED", true),
		RequestsPerSecond: getFloat("RATE_LIMIT_REQUESTS_PER_SECOND", 5),
		BurstSize:         getInt("RATE_LIMIT_BURST_SIZE", 10),
		TrustProxy:        getBool("RATE_LIMIT_TRUST_PROXY", false),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:  getBool("REDIS_ENABLED", false),
		URL:      getEnv("REDIS_URL", ""),
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getInt("REDIS_DB", 0),
		TTL:      getSeconds("CACHE_TTL_SECONDS", 3600),

		MemoryMaxBytes: int64(getInt("CACHE_MEMORY_MAX_MB", 256)) << 20,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:          getEnv("DATABASE_URL", ""),
		MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 2),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level: getEnv("LOG_LEVEL", "info"),
		File:  getEnv("LOG_FILE", ""),
	}
}

func loadGalaxyConfig() GalaxyConfig {
	seed, err := strconv.ParseUint(getEnv("GALAXY_SEED", "0"), 10, 64)
	if err != nil {
		seed = 0
	}
	return GalaxyConfig{
		Preset:       getEnv("GALAXY_PRESET", galaxy.PresetFull),
		Seed:         seed,
		Stars:        getInt("GALAXY_STARS", 0),
		Arms:         getInt("GALAXY_ARMS", 0),
		Gas:          getEnv("GALAXY_GAS", ""),
		MaxStarCount: getInt("MAX_STAR_COUNT", 500000),
		MaxArmCount:  getInt("MAX_ARM_COUNT", 8),
		MaxGasCount:  getInt("MAX_GAS_COUNT", 10000),
	}
}

// Validate checks the settings that have no safe fallback.
func (c Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT %q is not a valid port", c.Server.Port))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_REQUESTS_PER_SECOND must be positive"))
		}
		if c.RateLimit.BurstSize < 1 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST_SIZE must be at least 1"))
		}
	}
	if c.Redis.TTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL_SECONDS must be positive"))
	}
	if c.Redis.MemoryMaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_MEMORY_MAX_MB must be positive"))
	}
	if _, ok := galaxy.Preset(c.Galaxy.Preset); !ok {
		errs = append(errs, fmt.Errorf("GALAXY_PRESET %q is not one of %v", c.Galaxy.Preset, galaxy.PresetNames()))
	}
	switch c.Galaxy.Gas {
	case "", "on", "off":
	default:
		errs = append(errs, fmt.Errorf("GALAXY_GAS must be on or off, got %q", c.Galaxy.Gas))
	}
	if c.Galaxy.MaxStarCount < 4 {
		errs = append(errs, fmt.Errorf("MAX_STAR_COUNT must be at least 4"))
	}
	if c.Galaxy.Stars < 0 || c.Galaxy.Stars > c.Galaxy.MaxStarCount {
		errs = append(errs, fmt.Errorf("GALAXY_STARS must be between 0 and %d", c.Galaxy.MaxStarCount))
	}
	if c.Galaxy.MaxArmCount < 1 {
		errs = append(errs, fmt.Errorf("MAX_ARM_COUNT must be at least 1"))
	}
	if c.Galaxy.MaxGasCount < 0 {
		errs = append(errs, fmt.Errorf("MAX_GAS_COUNT must not be negative"))
	}
	if c.Galaxy.Arms < 0 || c.Galaxy.Arms > c.Galaxy.MaxArmCount {
		errs = append(errs, fmt.Errorf("GALAXY_ARMS must be between 0 and %d", c.Galaxy.MaxArmCount))
	}

	return errors.Join(errs...)
}

// GeneratorConfig returns the generator config selected by the Galaxy
// settings. The result is validated by the generator, not here.
func (c Config) GeneratorConfig() galaxy.Config {
	cfg, ok := galaxy.Preset(c.Galaxy.Preset)
	if !ok {
		cfg = galaxy.DefaultConfig()
	}
	if c.Galaxy.Stars > 0 {
		cfg.StarCount = c.Galaxy.Stars
	}
	if c.Galaxy.Arms > 0 {
		cfg.ArmCount = c.Galaxy.Arms
	}
	switch c.Galaxy.Gas {
	case "on":
		cfg.Gas = true
	case "off":
		cfg.Gas = false
	}
	return cfg
}

// CheckLimits rejects generator configs larger than the configured maxima.
// Gas is checked whether or not it is enabled, since a stored preset can be
// requested later with gas switched on.
func (g GalaxyConfig) CheckLimits(cfg galaxy.Config) error {
	var errs []error
	if cfg.StarCount > g.MaxStarCount {
		errs = append(errs, fmt.Errorf("star_count must be at most %d", g.MaxStarCount))
	}
	if cfg.ArmCount > g.MaxArmCount {
		errs = append(errs, fmt.Errorf("arm_count must be at most %d", g.MaxArmCount))
	}
	if gas := float64(cfg.GasCount) * cfg.GasReduction; gas > float64(g.MaxGasCount) {
		errs = append(errs, fmt.Errorf("gas_count * gas_reduction must be at most %d", g.MaxGasCount))
	}
	return errors.Join(errs...)
}

// Addr returns host:port for the Redis connection.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getSeconds(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Second
}
