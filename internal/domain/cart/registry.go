package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ErrTooManyTerminals is returned when a new terminal would exceed the
// registry limit.
var ErrTooManyTerminals = errors.New("too many active terminals")

// RegistryConfig bounds the terminals a Registry keeps in memory.
type RegistryConfig struct {
	// MaxTerminals caps live carts. Zero means no cap.
	MaxTerminals int
	// IdleTTL is how long an unused terminal is kept. Zero keeps terminals
	// forever.
	IdleTTL time.Duration
}

// Registry holds one independent cart per terminal. Each cart has its own
// lock, so terminals never wait on each other.
type Registry struct {
	max  int
	idle time.Duration
	now  func() time.Time

	mu        sync.Mutex
	terminals map[string]*terminal
}

type terminal struct {
	mu   sync.Mutex
	cart Cart

	// Guarded by Registry.mu.
	refs int
	used time.Time
}

// NewRegistry returns an empty Registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		max:       cfg.MaxTerminals,
		idle:      cfg.IdleTTL,
		now:       time.Now,
		terminals: make(map[string]*terminal),
	}
}

func (r *Registry) acquire(id string) (*terminal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.terminals[id]
	if !ok {
		if r.max > 0 && len(r.terminals) >= r.max {
			return nil, ErrTooManyTerminals
		}
		t = &terminal{}
		r.terminals[id] = t
	}
	t.refs++
	t.used = r.now()
	return t, nil
}

func (r *Registry) release(t *terminal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.refs--
	t.used = r.now()
}

// Do runs fn with exclusive access to the terminal's cart, creating an empty
// cart on first use. fn must not retain the pointer.
func (r *Registry) Do(terminalID string, fn func(c *Cart) error) error {
	t, err := r.acquire(terminalID)
	if err != nil {
		return err
	}
	defer r.release(t)

	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(&t.cart)
}

// Len returns the number of terminals held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.terminals)
}

// Evict drops terminals that are not in use and were last touched at least
// IdleTTL before now. Their carts are discarded.
func (r *Registry) Evict(now time.Time) int {
	if r.idle <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for id, t := range r.terminals {
		if t.refs == 0 && now.Sub(t.used) >= r.idle {
			delete(r.terminals, id)
			n++
		}
	}
	return n
}

// Run evicts idle terminals every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.idle <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := r.Evict(now); n > 0 {
				zctx.From(ctx).Info("Evicted idle terminals", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}
