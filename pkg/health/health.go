// Package health serves liveness and readiness probes.
//
// Checks run periodically in the background and flip state only after a
// number of consecutive results, so a single slow ping does not pull the
// server out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Probe selects which endpoint a check contributes to.
type Probe int

const (
	// Liveness checks back /livez: failing means the process should restart.
	Liveness Probe = iota
	// Readiness checks back /readyz: failing means stop sending traffic.
	Readiness
)

func (p Probe) String() string {
	if p == Liveness {
		return "liveness"
	}
	return "readiness"
}

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Check describes one registered check.
type Check struct {
	Name    string
	Timeout time.Duration
	Run     CheckFunc
	// FailAfter consecutive failures mark the check unhealthy. Defaults to 3.
	FailAfter int
	// RecoverAfter consecutive successes mark it healthy again. Defaults to 1.
	RecoverAfter int
}

type state struct {
	Check
	probe Probe

	mu      sync.Mutex
	healthy bool
	lastErr error
	fails   int
	oks     int
}

func (s *state) status() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy, s.lastErr
}

// observe runs the check once and returns true when health flipped.
func (s *state) observe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	err := s.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	was := s.healthy
	if err != nil {
		s.oks = 0
		s.fails++
		if s.fails >= s.FailAfter {
			s.healthy = false
		}
	} else {
		s.fails = 0
		s.oks++
		if s.oks >= s.RecoverAfter {
			s.healthy = true
		}
	}
	return was != s.healthy
}

// Health aggregates checks and the manual readiness gate.
type Health struct {
	mu     sync.RWMutex
	ready  bool
	checks []*state
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Health that reports not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// Register adds a check to probe. Checks start healthy.
func (h *Health) Register(probe Probe, c Check) {
	if c.FailAfter <= 0 {
		c.FailAfter = 3
	}
	if c.RecoverAfter <= 0 {
		c.RecoverAfter = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, &state{Check: c, probe: probe, healthy: true})
}

// Start runs every check immediately and then every interval until Stop or
// ctx cancellation. Health transitions are logged through the ctx logger.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := append([]*state(nil), h.checks...)
	h.mu.Unlock()

	lg := zctx.From(ctx)
	for _, s := range checks {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			t := time.NewTicker(interval)
			defer t.Stop()
			for {
				if s.observe(ctx) {
					healthy, err := s.status()
					lg.Warn("Health check changed",
						zap.String("check", s.Name),
						zap.Stringer("probe", s.probe),
						zap.Bool("healthy", healthy),
						zap.Error(err),
					)
				}
				select {
				case <-ctx.Done():
					return
				case <-t.C:
				}
			}
		}()
	}
}

// Stop cancels the background checks and waits for them. Safe to call twice.
func (h *Health) Stop() {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	h.wg.Wait()
}

// SetReady toggles the manual readiness gate, used during startup and drain.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// failures returns the unhealthy checks of probe keyed by name.
func (h *Health) failures(probe Probe) map[string]string {
	h.mu.RLock()
	checks := append([]*state(nil), h.checks...)
	ready := h.ready
	h.mu.RUnlock()

	out := make(map[string]string)
	for _, s := range checks {
		if s.probe != probe {
			continue
		}
		if healthy, err := s.status(); !healthy {
			msg := "check is unhealthy"
			if err != nil {
				msg = err.Error()
			}
			out[s.Name] = msg
		}
	}
	if probe == Readiness && !ready {
		out["_readiness"] = "service is not ready"
	}
	return out
}

// IsReady reports whether the gate is open and every readiness check passes.
func (h *Health) IsReady() bool {
	return len(h.failures(Readiness)) == 0
}

type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves probe state: 200 {"status":"ok"} or 503 with failures.
func (h *Health) Handler(probe Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := response{Status: "ok"}
		code := http.StatusOK
		if failed := h.failures(probe); len(failed) > 0 {
			resp = response{Status: "unhealthy", Checks: failed}
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Mount registers /livez and /readyz on mux.
func (h *Health) Mount(mux *http.ServeMux) {
	mux.Handle("GET /livez", h.Handler(Liveness))
	mux.Handle("GET /readyz", h.Handler(Readiness))
}
