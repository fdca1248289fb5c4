package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/litescript/ls-galaxy/internal/apperr"
	"github.com/litescript/ls-galaxy/internal/config"
	"github.com/litescript/ls-galaxy/internal/logging"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	config  config.RateLimitConfig
	clients map[string]*rate.Limiter
	mu      sync.Mutex
	logger  *logging.Logger
	now     func() time.Time
}

// NewRateLimiter creates a limiter. Call Sweep periodically to forget idle
// clients.
func NewRateLimiter(cfg config.RateLimitConfig, logger *logging.Logger) *RateLimiter {
	return &RateLimiter{
		config:  cfg,
		clients: make(map[string]*rate.Limiter),
		logger:  logger.With("ratelimit"),
		now:     time.Now,
	}
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.clients[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)
		rl.clients[ip] = limiter
	}
	return limiter
}

// Sweep drops clients whose bucket has refilled, i.e. that have been idle.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for ip, limiter := range rl.clients {
		if limiter.TokensAt(now) >= float64(rl.config.BurstSize) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r, rl.config.TrustProxy)
		if !rl.getLimiter(ip).AllowN(rl.now(), 1) {
			rl.logger.Warn("Rate limit exceeded for %s %s %s", ip, r.Method, r.URL.Path)
			w.Header().Set("Retry-After", "1")
			writeError(w, r, rl.logger, apperr.RateLimited("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// First entry is the client
			if i := strings.IndexByte(xff, ','); i != -1 {
				return strings.TrimSpace(xff[:i])
			}
			return strings.TrimSpace(xff)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
