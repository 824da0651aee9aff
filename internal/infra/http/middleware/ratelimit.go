package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/incidenthq/api/internal/config"
	"github.com/incidenthq/api/pkg/apierror"
	"github.com/incidenthq/api/pkg/logger"
)

// visitorTTL is how long an idle visitor entry survives before the
// cleanup loop drops it.
const visitorTTL = 3 * time.Minute

// cleanupInterval is how often idle visitor entries are swept.
const cleanupInterval = time.Minute

// ipRateLimiter tracks a token-bucket limiter per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	logger   *logger.Logger

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(requestsPerMinute, burst int, log *logger.Logger) *ipRateLimiter {
	rl := &ipRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
		logger:   log.With("middleware", "ratelimit"),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go rl.cleanupLoop()
	return rl
}

func (rl *ipRateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()

	return v.limiter.Allow()
}

func (rl *ipRateLimiter) cleanupLoop() {
	defer close(rl.stopped)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > visitorTTL {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *ipRateLimiter) stop() {
	rl.stopOnce.Do(func() {
		close(rl.done)
		<-rl.stopped
	})
}

// RateLimitWithStop returns a per-IP rate limiting middleware and a
// stop function that halts the background cleanup goroutine. When
// rate limiting is disabled in config the middleware is a no-op.
func RateLimitWithStop(cfg *config.RateLimitConfig, log *logger.Logger) (func(http.Handler) http.Handler, func()) {
	if !cfg.Enabled {
		noop := func(next http.Handler) http.Handler { return next }
		return noop, func() {}
	}

	rl := newIPRateLimiter(cfg.RequestsPerMinute, cfg.Burst, log)

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			if !rl.allow(ip) {
				rl.logger.Debug("request rate limited", "ip", ip, "path", r.URL.Path)

				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))
				w.Header().Set("Retry-After", "60")
				apierror.RateLimitExceeded().WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}

	return mw, rl.stop
}

// getClientIP extracts the client IP, preferring proxy headers over
// the raw remote address.
func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx != -1 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
