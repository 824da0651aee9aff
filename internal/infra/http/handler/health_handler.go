package handler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Pinger is a health-checkable dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// HealthHandlerOption configures the health handler.
type HealthHandlerOption func(*HealthHandler)

// WithDatabase adds a database readiness check.
func WithDatabase(db Pinger) HealthHandlerOption {
	return func(h *HealthHandler) { h.db = db }
}

// WithRedis adds a Redis readiness check.
func WithRedis(redis Pinger) HealthHandlerOption {
	return func(h *HealthHandler) { h.redis = redis }
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(opts ...HealthHandlerOption) *HealthHandler {
	h := &HealthHandler{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthResponse is the liveness probe response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health is the liveness probe; it answers as long as the process
// serves requests.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// CheckResult is a single dependency check outcome.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse is the readiness probe response.
type ReadyResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Ready is the readiness probe; it pings the database and Redis in
// parallel and reports per-dependency results.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	type namedPinger struct {
		name   string
		pinger Pinger
	}

	pingers := []namedPinger{}
	if h.db != nil {
		pingers = append(pingers, namedPinger{"database", h.db})
	}
	if h.redis != nil {
		pingers = append(pingers, namedPinger{"redis", h.redis})
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(pingers))
		ready  = true
	)

	for _, p := range pingers {
		wg.Add(1)
		go func(p namedPinger) {
			defer wg.Done()

			result := CheckResult{Status: "ok"}
			if err := p.pinger.Ping(ctx); err != nil {
				result = CheckResult{Status: "failed", Error: err.Error()}
			}

			mu.Lock()
			checks[p.name] = result
			if result.Status != "ok" {
				ready = false
			}
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	status := http.StatusOK
	statusText := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		statusText = "not ready"
	}

	respondJSON(w, status, ReadyResponse{
		Status:    statusText,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}
