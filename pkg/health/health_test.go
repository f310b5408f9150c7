package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func probe(t *testing.T, h *Health, p Probe) (int, response) {
	t.Helper()
	w := httptest.NewRecorder()
	h.Handler(p).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func drive(h *Health, name string, times int) {
	for _, s := range h.checks {
		if s.Name == name {
			for range times {
				s.observe(context.Background())
			}
		}
	}
}

func TestLiveness(t *testing.T) {
	tests := []struct {
		name     string
		runs     int
		wantCode int
	}{
		{name: "starts healthy", runs: 0, wantCode: http.StatusOK},
		{name: "below failure threshold", runs: 2, wantCode: http.StatusOK},
		{name: "at failure threshold", runs: 3, wantCode: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			h.Register(Liveness, Check{Name: "db", Run: failing("connection refused")})
			drive(h, "db", tt.runs)

			code, body := probe(t, h, Liveness)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantCode != http.StatusOK {
				assert.Equal(t, "unhealthy", body.Status)
				assert.Equal(t, "connection refused", body.Checks["db"])
			} else {
				assert.Equal(t, "ok", body.Status)
			}
		})
	}
}

func TestReadinessGate(t *testing.T) {
	h := New()
	h.Register(Readiness, Check{Name: "postgres", Run: PingCheck(fakePinger{})})

	code, body := probe(t, h, Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "_readiness")
	assert.False(t, h.IsReady())

	h.SetReady(true)
	code, _ = probe(t, h, Readiness)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestReadinessIgnoresLivenessChecks(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.Register(Liveness, Check{Name: "goroutines", Run: failing("leak")})
	h.Register(Readiness, Check{Name: "postgres", Run: PingCheck(fakePinger{})})
	h.Register(Readiness, Check{Name: "cache", Run: failing("cold")})
	drive(h, "goroutines", 3)
	drive(h, "cache", 3)

	code, body := probe(t, h, Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "cache")
	assert.NotContains(t, body.Checks, "postgres")
	assert.NotContains(t, body.Checks, "goroutines")
}

func TestCheckRecovers(t *testing.T) {
	down := true
	h := New()
	h.Register(Liveness, Check{Name: "flaky", RecoverAfter: 2, Run: func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	}})
	s := h.checks[0]

	drive(h, "flaky", 3)
	healthy, err := s.status()
	assert.False(t, healthy)
	assert.EqualError(t, err, "down")

	down = false
	assert.False(t, s.observe(context.Background()), "one success is not enough")
	assert.True(t, s.observe(context.Background()))
	healthy, err = s.status()
	assert.True(t, healthy)
	assert.NoError(t, err)
}

func TestMount(t *testing.T) {
	h := New()
	h.SetReady(true)
	mux := http.NewServeMux()
	h.Mount(mux)

	for _, path := range []string{"/livez", "/readyz"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestStartStop(t *testing.T) {
	h := New()
	h.Register(Liveness, Check{Name: "failing", Run: failing("err"), FailAfter: 1})
	h.Register(Readiness, Check{Name: "passing", Run: passing})
	h.SetReady(true)

	h.Start(context.Background(), 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				w := httptest.NewRecorder()
				h.Handler(Liveness).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(h.failures(Liveness)) == 1
	}, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, GoroutineCheck(100000)(ctx))
	assert.ErrorContains(t, GoroutineCheck(0)(ctx), "limit 0")
	assert.NoError(t, GCPauseCheck(time.Hour)(ctx))

	assert.NoError(t, PingCheck(fakePinger{})(ctx))
	assert.ErrorContains(t, PingCheck(fakePinger{err: errors.New("refused")})(ctx), "ping: refused")
}
