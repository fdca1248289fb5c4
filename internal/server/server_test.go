package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/litescript/ls-galaxy/internal/cache"
	"github.com/litescript/ls-galaxy/internal/config"
	"github.com/litescript/ls-galaxy/internal/export"
	"github.com/litescript/ls-galaxy/internal/galaxy"
	"github.com/litescript/ls-galaxy/internal/logging"
	"github.com/litescript/ls-galaxy/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		Server:    config.ServerConfig{Port: "8080"},
		Frontend:  config.FrontendConfig{URL: "http://localhost:3000"},
		RateLimit: config.RateLimitConfig{Enabled: false, RequestsPerSecond: 5, BurstSize: 10},
		Galaxy:    config.GalaxyConfig{Preset: galaxy.PresetFull, MaxStarCount: 5000, MaxArmCount: 8, MaxGasCount: 1000},
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *cache.Memory, *store.Memory) {
	t.Helper()
	c := cache.NewMemory(0, 16, 1<<20)
	s := store.NewMemory()
	return New(cfg, c, s, logging.Discard()), c, s
}

func do(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body %q is not JSON: %v", w.Body.String(), err)
	}
	return e
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())
	w := do(t, srv.Handler(), http.MethodGet, "/api/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Cache != "connected" || resp.Store != "connected" {
		t.Errorf("health = %+v", resp)
	}

	bare := New(testConfig(), nil, nil, logging.Discard())
	w = do(t, bare.Handler(), http.MethodGet, "/api/health", "")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Cache != "disabled" || resp.Store != "disabled" {
		t.Errorf("health without backends = %+v", resp)
	}
}

func TestGalaxySnapshot(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())
	w := do(t, srv.Handler(), http.MethodGet, "/api/galaxy?preset=arms&seed=9&stars=400", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Galaxy-Seed"); got != "9" {
		t.Errorf("X-Galaxy-Seed = %q, want 9", got)
	}
	snap, err := export.ReadSnapshot(w.Body)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if snap.Seed != 9 || snap.Counts.Stars != 400 || snap.Counts.Gas != 0 {
		t.Errorf("snapshot seed %d counts %+v, want 9 / 400 stars / 0 gas", snap.Seed, snap.Counts)
	}
	if !snap.Config.ColorClasses || snap.Config.Gas {
		t.Errorf("arms preset config = classes %v gas %v", snap.Config.ColorClasses, snap.Config.Gas)
	}
}

func TestGalaxy_CacheHit(t *testing.T) {
	srv, c, _ := newTestServer(t, testConfig())
	h := srv.Handler()

	first := do(t, h, http.MethodGet, "/api/galaxy?seed=3&stars=200", "")
	second := do(t, h, http.MethodGet, "/api/galaxy?seed=3&stars=200", "")

	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q then %q, want MISS then HIT",
			first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached body differs from the generated one")
	}
	if c.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", c.Len())
	}

	// A different seed is a different entry.
	do(t, h, http.MethodGet, "/api/galaxy?seed=4&stars=200", "")
	if c.Len() != 2 {
		t.Errorf("cache entries = %d, want 2", c.Len())
	}
}

func TestGalaxy_SameSeedSameCloudWithoutCache(t *testing.T) {
	srv := New(testConfig(), nil, nil, logging.Discard())
	h := srv.Handler()
	a := do(t, h, http.MethodGet, "/api/galaxy/buffers?seed=5&stars=100", "")
	b := do(t, h, http.MethodGet, "/api/galaxy/buffers?seed=5&stars=100", "")
	if !bytes.Equal(a.Body.Bytes(), b.Body.Bytes()) {
		t.Error("same seed produced different buffers")
	}
}

func TestGalaxyBuffers(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())
	w := do(t, srv.Handler(), http.MethodGet, "/api/galaxy/buffers?seed=1&stars=400&gas=true", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	stars, gas, err := export.ReadBuffers(w.Body)
	if err != nil {
		t.Fatalf("ReadBuffers: %v", err)
	}
	if stars.Len() != 400 {
		t.Errorf("stars = %d, want 400", stars.Len())
	}
	cfg := galaxy.DefaultConfig()
	if gas.Len() != cfg.GasInstanceCount() {
		t.Errorf("gas = %d, want %d", gas.Len(), cfg.GasInstanceCount())
	}
}

func TestGalaxySummary(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())
	w := do(t, srv.Handler(), http.MethodGet, "/api/galaxy/summary?seed=2&stars=800&arms=4", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Seed  uint64 `json:"seed"`
		Stats struct {
			Stars  int   `json:"stars"`
			PerArm []int `json:"per_arm"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Seed != 2 || resp.Stats.Stars != 800 || len(resp.Stats.PerArm) != 4 {
		t.Errorf("summary = %+v", resp)
	}
}

func TestGalaxy_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantType   string
	}{
		{"unknown preset", "/api/galaxy?preset=elliptical", http.StatusNotFound, "not_found"},
		{"bad seed", "/api/galaxy?seed=-1", http.StatusBadRequest, "validation"},
		{"bad stars", "/api/galaxy?stars=many", http.StatusBadRequest, "validation"},
		{"zero stars", "/api/galaxy?stars=0", http.StatusBadRequest, "validation"},
		{"too many stars", "/api/galaxy?stars=5001", http.StatusBadRequest, "validation"},
		{"zero arms", "/api/galaxy?stars=100&arms=0", http.StatusBadRequest, "validation"},
		{"too many arms", "/api/galaxy/summary?stars=4&seed=1&arms=20000000", http.StatusBadRequest, "validation"},
		{"arms over limit", "/api/galaxy/buffers?stars=100&arms=9", http.StatusBadRequest, "validation"},
		{"bad gas", "/api/galaxy?gas=sometimes", http.StatusBadRequest, "validation"},
	}
	srv, _, _ := newTestServer(t, testConfig())
	h := srv.Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.target, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			e := decodeError(t, w)
			if e.Error != tt.wantType || e.Code != tt.wantStatus {
				t.Errorf("error = %+v, want type %s", e, tt.wantType)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())
	h := srv.Handler()

	body := `{"name":"tight-four","description":"four tight arms","base":"classic","config":{"arm_count":4,"spiral_tightness":5}}`
	w := do(t, h, http.MethodPost, "/api/presets", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", w.Code, w.Body.String())
	}
	var saved store.Preset
	_ = json.Unmarshal(w.Body.Bytes(), &saved)
	if saved.Config.ArmCount != 4 || saved.Config.SpiralTightness != 5 {
		t.Errorf("saved config arms %d tightness %v", saved.Config.ArmCount, saved.Config.SpiralTightness)
	}
	// Unspecified fields come from the base preset.
	if saved.Config.Gas || saved.Config.StarCount != 50000 {
		t.Errorf("saved config gas %v stars %d, want classic base", saved.Config.Gas, saved.Config.StarCount)
	}

	w = do(t, h, http.MethodGet, "/api/presets/tight-four", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/presets", "")
	var list PresetsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Presets) != len(galaxy.PresetNames())+1 {
		t.Errorf("listed %d presets, want built-ins + 1", len(list.Presets))
	}

	// The stored preset drives generation.
	w = do(t, h, http.MethodGet, "/api/galaxy/summary?preset=tight-four&stars=400&seed=1", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"preset":"tight-four"`) {
		t.Errorf("generate from stored preset: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/presets/classic", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"built_in":true`) {
		t.Errorf("GET built-in: %d %s", w.Code, w.Body.String())
	}
}

func TestSavePreset_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"not json", `{`, http.StatusBadRequest},
		{"bad name", `{"name":"Bad Name"}`, http.StatusBadRequest},
		{"reserved name", `{"name":"full"}`, http.StatusConflict},
		{"invalid config", `{"name":"broken","config":{"arm_count":0}}`, http.StatusBadRequest},
		{"too many stars", `{"name":"huge","config":{"star_count":10000}}`, http.StatusBadRequest},
		{"too many arms", `{"name":"spiky","config":{"arm_count":2000000000}}`, http.StatusBadRequest},
		{"too much gas", `{"name":"foggy","config":{"gas_count":2000000000}}`, http.StatusBadRequest},
		{"too much gas while off", `{"name":"foggy","base":"classic","config":{"gas_count":2000000000}}`, http.StatusBadRequest},
		{"unknown base", `{"name":"ok","base":"other"}`, http.StatusBadRequest},
	}
	srv, _, _ := newTestServer(t, testConfig())
	h := srv.Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/presets", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	bare := New(testConfig(), nil, nil, logging.Discard())
	w := do(t, bare.Handler(), http.MethodPost, "/api/presets", `{"name":"x"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("POST without store = %d, want 503", w.Code)
	}
	w = do(t, bare.Handler(), http.MethodGet, "/api/presets/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("GET missing = %d, want 404", w.Code)
	}
}

func TestGalaxy_StoredPresetOverLimits(t *testing.T) {
	srv, _, st := newTestServer(t, testConfig())
	h := srv.Handler()

	// Presets saved before the limits were lowered are still refused.
	cfg := galaxy.DefaultConfig()
	cfg.StarCount = 400
	cfg.GasCount = 2000000000
	if _, err := st.Save(context.Background(), store.Preset{Name: "old-fog", Config: cfg}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	cfg.GasCount = 500
	cfg.ArmCount = 64
	if _, err := st.Save(context.Background(), store.Preset{Name: "old-spikes", Config: cfg}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	for _, target := range []string{
		"/api/galaxy?preset=old-fog&seed=1",
		"/api/galaxy/summary?preset=old-spikes&seed=1",
	} {
		w := do(t, h, http.MethodGet, target, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400 (body %s)", target, w.Code, w.Body.String())
			continue
		}
		if e := decodeError(t, w); e.Error != "validation" {
			t.Errorf("GET %s error = %+v, want validation", target, e)
		}
	}

	// Overrides bring a stored preset back within limits.
	w := do(t, h, http.MethodGet, "/api/galaxy/summary?preset=old-spikes&arms=3&seed=1", "")
	if w.Code != http.StatusOK {
		t.Errorf("GET with arms override = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, BurstSize: 2}
	srv, _, _ := newTestServer(t, cfg)
	h := srv.Handler()

	for i := 0; i < 2; i++ {
		if w := do(t, h, http.MethodGet, "/api/health", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
	w := do(t, h, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 should set Retry-After")
	}
	if e := decodeError(t, w); e.Error != "rate_limited" {
		t.Errorf("error type = %q, want rate_limited", e.Error)
	}

	// Another client is unaffected.
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.RemoteAddr = "10.0.0.9:1234"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", w.Code)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, BurstSize: 1}, logging.Discard())
	rl.getLimiter("a").Allow()
	rl.getLimiter("b")
	if rl.Clients() != 2 {
		t.Fatalf("Clients() = %d, want 2", rl.Clients())
	}
	// b never spent a token, a did.
	if n := rl.Sweep(); n != 1 || rl.Clients() != 1 {
		t.Errorf("Sweep() = %d, Clients() = %d, want 1, 1", n, rl.Clients())
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		realIP     string
		trustProxy bool
		want       string
	}{
		{"remote addr", "192.168.1.1:12345", "", "", false, "192.168.1.1"},
		{"no port", "192.168.1.1", "", "", false, "192.168.1.1"},
		{"xff ignored", "192.168.1.1:1", "1.2.3.4", "", false, "192.168.1.1"},
		{"xff trusted", "192.168.1.1:1", "1.2.3.4, 5.6.7.8", "", true, "1.2.3.4"},
		{"real ip", "192.168.1.1:1", "", "9.9.9.9", true, "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())
	h := srv.Handler()

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want frontend URL", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for foreign origin = %q, want empty", got)
	}
}
