// Package server exposes galaxy generation over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"

	"github.com/litescript/ls-galaxy/internal/apperr"
	"github.com/litescript/ls-galaxy/internal/cache"
	"github.com/litescript/ls-galaxy/internal/config"
	"github.com/litescript/ls-galaxy/internal/export"
	"github.com/litescript/ls-galaxy/internal/galaxy"
	"github.com/litescript/ls-galaxy/internal/logging"
	"github.com/litescript/ls-galaxy/internal/store"
	"github.com/litescript/ls-galaxy/internal/version"
)

// maxPresetBody caps POST /api/presets request bodies.
const maxPresetBody = 64 << 10

// Encoded response kinds, also used as cache key prefixes.
const (
	kindSnapshot = "snapshot"
	kindBuffers  = "buffers"
	kindSummary  = "summary"
)

// Server serves generated galaxies. Cache and store may be nil.
type Server struct {
	cfg     config.Config
	cache   cache.Cache
	store   store.Store
	limiter *RateLimiter
	logger  *logging.Logger
	now     func() time.Time
}

// New creates a server.
func New(cfg config.Config, c cache.Cache, s store.Store, logger *logging.Logger) *Server {
	logger = logger.With("server")
	return &Server{
		cfg:     cfg,
		cache:   c,
		store:   s,
		limiter: NewRateLimiter(cfg.RateLimit, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// Handler returns the routed handler wrapped in CORS, rate limiting and
// request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/galaxy", s.handleGalaxy(kindSnapshot))
	mux.HandleFunc("GET /api/galaxy/buffers", s.handleGalaxy(kindBuffers))
	mux.HandleFunc("GET /api/galaxy/summary", s.handleGalaxy(kindSummary))
	mux.HandleFunc("GET /api/presets", s.handleListPresets)
	mux.HandleFunc("POST /api/presets", s.handleSavePreset)
	mux.HandleFunc("GET /api/presets/{name}", s.handleGetPreset)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{s.cfg.Frontend.URL},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Galaxy-Seed", "X-Cache"},
		Debug:          s.cfg.Frontend.CORSDebug,
	})

	s.logger.Info("Routes configured; CORS origin %s, rate limit %v (%.1f/s burst %d)",
		s.cfg.Frontend.URL, s.cfg.RateLimit.Enabled, s.cfg.RateLimit.RequestsPerSecond, s.cfg.RateLimit.BurstSize)

	return s.logRequests(c.Handler(s.limiter.Middleware(mux)))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	go s.sweepLimiter(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Sweep(); n > 0 {
				s.logger.Debug("Forgot %d idle clients", n)
			}
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("%s %s %d (%v)", r.Method, r.URL.RequestURI(), rec.status, s.now().Sub(start))
	})
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Cache     string `json:"cache"`
	Store     string `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   version.Version,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Cache:     "disabled",
		Store:     "disabled",
	}
	if s.cache != nil {
		resp.Cache = "connected"
		if err := s.cache.Ping(r.Context()); err != nil {
			s.logger.Warn("Cache ping failed: %v", err)
			resp.Cache = "disconnected"
			resp.Status = "degraded"
		}
	}
	if s.store != nil {
		resp.Store = "connected"
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("Store ping failed: %v", err)
			resp.Store = "disconnected"
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// galaxyRequest is a resolved generation request.
type galaxyRequest struct {
	preset string
	config galaxy.Config
	seed   uint64
}

// parseGalaxyRequest resolves preset, seed and overrides from the query.
func (s *Server) parseGalaxyRequest(r *http.Request) (galaxyRequest, error) {
	q := r.URL.Query()
	req := galaxyRequest{preset: q.Get("preset")}
	if req.preset == "" {
		req.preset = s.cfg.Galaxy.Preset
	}

	p, err := store.Lookup(r.Context(), s.store, req.preset)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return req, apperr.NotFoundf("unknown preset %q", req.preset)
		}
		return req, apperr.WrapExternal("preset store unavailable", err)
	}
	req.config = p.Config

	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return req, apperr.Validationf("seed must be an unsigned integer, got %q", v)
		}
		req.seed = seed
	} else if s.cfg.Galaxy.Seed != 0 {
		req.seed = s.cfg.Galaxy.Seed
	} else {
		_, req.seed = galaxy.NewRandomSource()
	}

	intParam := func(name string, dst *int) error {
		v := q.Get(name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperr.Validationf("%s must be an integer, got %q", name, v)
		}
		*dst = n
		return nil
	}
	boolParam := func(name string, dst *bool) error {
		v := q.Get(name)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apperr.Validationf("%s must be a boolean, got %q", name, v)
		}
		*dst = b
		return nil
	}
	if err := intParam("stars", &req.config.StarCount); err != nil {
		return req, err
	}
	if err := intParam("arms", &req.config.ArmCount); err != nil {
		return req, err
	}
	if err := boolParam("gas", &req.config.Gas); err != nil {
		return req, err
	}
	if err := boolParam("classes", &req.config.ColorClasses); err != nil {
		return req, err
	}

	if err := req.config.Validate(); err != nil {
		return req, apperr.WrapValidation("invalid galaxy config", err)
	}
	if err := s.cfg.Galaxy.CheckLimits(req.config); err != nil {
		return req, apperr.WrapValidation("galaxy exceeds server limits", err)
	}
	return req, nil
}

func (s *Server) handleGalaxy(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := s.parseGalaxyRequest(r)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}

		body, hit, err := s.encoded(r.Context(), kind, req)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}

		contentType := "application/json"
		if kind == kindBuffers {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("X-Galaxy-Seed", strconv.FormatUint(req.seed, 10))
		if hit {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// encoded returns the encoded response for req, from the cache when
// possible. Cache failures are logged and otherwise ignored.
func (s *Server) encoded(ctx context.Context, kind string, req galaxyRequest) ([]byte, bool, error) {
	key, err := cache.Key(kind, req.config, req.seed)
	if err != nil {
		return nil, false, apperr.WrapInternal("fingerprint config", err)
	}

	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("Cache read failed: %v", err)
		} else if ok {
			return data, true, nil
		}
	}

	start := s.now()
	cloud, err := galaxy.Generate(req.config, galaxy.NewSource(req.seed))
	if err != nil {
		return nil, false, apperr.WrapValidation("invalid galaxy config", err)
	}
	cloud.Seed = req.seed
	s.logger.Info("Generated %s seed %d: %d stars, %d gas in %v",
		req.preset, req.seed, len(cloud.Stars), len(cloud.Gas), s.now().Sub(start))

	var buf bytes.Buffer
	switch kind {
	case kindBuffers:
		err = export.WriteBuffers(&buf, cloud)
	case kindSummary:
		err = json.NewEncoder(&buf).Encode(SummaryResponse{
			Preset: req.preset,
			Seed:   req.seed,
			Stats:  galaxy.Summarize(cloud),
		})
	default:
		err = export.ExportSnapshot(cloud, s.now().UTC()).WriteJSON(&buf)
	}
	if err != nil {
		return nil, false, apperr.WrapInternal("encode "+kind, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, buf.Bytes()); err != nil {
			s.logger.Warn("Cache write failed: %v", err)
		}
	}
	return buf.Bytes(), false, nil
}

// SummaryResponse is the body of GET /api/galaxy/summary.
type SummaryResponse struct {
	Preset string       `json:"preset"`
	Seed   uint64       `json:"seed"`
	Stats  galaxy.Stats `json:"stats"`
}

// PresetsResponse is the body of GET /api/presets.
type PresetsResponse struct {
	Presets []store.Preset `json:"presets"`
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets := store.BuiltIns()
	if s.store != nil {
		stored, err := s.store.List(r.Context())
		if err != nil {
			writeError(w, r, s.logger, apperr.WrapExternal("preset store unavailable", err))
			return
		}
		presets = append(presets, stored...)
	}
	writeJSON(w, http.StatusOK, PresetsResponse{Presets: presets})
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	p, err := store.Lookup(r.Context(), s.store, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = apperr.NotFoundf("unknown preset %q", name)
		} else {
			err = apperr.WrapExternal("preset store unavailable", err)
		}
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SavePresetRequest is the body of POST /api/presets.
type SavePresetRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Base        string          `json:"base"`
	Config      json.RawMessage `json:"config"`
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, s.logger, apperr.WrapExternal("preset store unavailable", errors.New("no store configured")))
		return
	}

	var req SavePresetRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPresetBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, s.logger, apperr.WrapValidation("invalid request body", err))
		return
	}

	// Fields missing from the config keep the base preset's values.
	base := req.Base
	if base == "" {
		base = galaxy.PresetFull
	}
	cfg, ok := galaxy.Preset(base)
	if !ok {
		writeError(w, r, s.logger, apperr.Validationf("unknown base preset %q", base))
		return
	}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeError(w, r, s.logger, apperr.WrapValidation("invalid config", err))
			return
		}
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, r, s.logger, apperr.WrapValidation("invalid galaxy config", err))
		return
	}
	if err := s.cfg.Galaxy.CheckLimits(cfg); err != nil {
		writeError(w, r, s.logger, apperr.WrapValidation("galaxy exceeds server limits", err))
		return
	}

	saved, err := s.store.Save(r.Context(), store.Preset{Name: req.Name, Description: req.Description, Config: cfg})
	switch {
	case errors.Is(err, store.ErrInvalidName):
		writeError(w, r, s.logger, apperr.WrapValidation("invalid preset name", err))
		return
	case errors.Is(err, store.ErrReservedName):
		writeError(w, r, s.logger, apperr.WrapConflict("preset name taken", err))
		return
	case err != nil:
		writeError(w, r, s.logger, apperr.WrapExternal("preset store unavailable", err))
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
