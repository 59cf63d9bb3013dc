package cart

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/primefit/storefront/pkg/logger"
)

const (
	EndReasonExplicit = "ended"
	EndReasonIdle     = "idle"
)

// SessionObserver receives registry lifecycle events. pkg/metrics.CartMetrics
// satisfies it.
type SessionObserver interface {
	SetActiveSessions(n int)
	IncSessionEnded(reason string)
}

// JobObserver records sweep runs. pkg/metrics.JobMetrics satisfies it.
type JobObserver interface {
	ObserveDuration(job string, d time.Duration)
	IncSuccess(job string)
}

// RegistryConfig tunes session lifetime.
type RegistryConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// Registry owns one Store per browser session. Stores are created on first
// use and discarded when the session ends or sits idle past the TTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Store
	cfg      RegistryConfig
	now      func() time.Time
	logg     *logger.Logger
	observer SessionObserver
	jobs     JobObserver
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithRegistryClock overrides the time source for the registry and its stores.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSessionObserver wires session metrics.
func WithSessionObserver(o SessionObserver) RegistryOption {
	return func(r *Registry) { r.observer = o }
}

// WithJobObserver wires sweep metrics.
func WithJobObserver(o JobObserver) RegistryOption {
	return func(r *Registry) { r.jobs = o }
}

// WithLogger attaches a logger for sweep output.
func WithLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) { r.logg = l }
}

const sweepJob = "cart_session_sweep"

func NewRegistry(cfg RegistryConfig, opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Store),
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the session's Store, creating an empty one on first use.
func (r *Registry) Get(sessionID string) *Store {
	sessionID = strings.TrimSpace(sessionID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.sessions[sessionID]; ok {
		return store
	}
	store := NewStore(WithClock(r.now))
	r.sessions[sessionID] = store
	r.reportActive()
	return store
}

// Lookup returns the session's Store without creating one.
func (r *Registry) Lookup(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.sessions[strings.TrimSpace(sessionID)]
	return store, ok
}

// End discards the session's cart. Unknown sessions are ignored.
func (r *Registry) End(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endLocked(strings.TrimSpace(sessionID), EndReasonExplicit)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep ends every session idle for longer than the TTL and returns how many
// were dropped. Sessions with an open event stream are kept.
func (r *Registry) Sweep() int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	ended := 0
	for id, store := range r.sessions {
		if store.Notifier().Subscribers() > 0 {
			continue
		}
		if store.idleSince().Before(cutoff) {
			r.endLocked(id, EndReasonIdle)
			ended++
		}
	}
	return ended
}

// Run sweeps on the configured interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	interval := r.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			ended := r.Sweep()
			if r.jobs != nil {
				r.jobs.ObserveDuration(sweepJob, time.Since(start))
				r.jobs.IncSuccess(sweepJob)
			}
			if ended > 0 && r.logg != nil {
				r.logg.Info(r.logg.WithFields(ctx, map[string]any{
					"ended":  ended,
					"active": r.Len(),
				}), "idle cart sessions swept")
			}
		}
	}
}

func (r *Registry) endLocked(sessionID, reason string) {
	store, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)
	store.Notifier().closeAll()
	if r.observer != nil {
		r.observer.IncSessionEnded(reason)
	}
	r.reportActive()
}

func (r *Registry) reportActive() {
	if r.observer != nil {
		r.observer.SetActiveSessions(len(r.sessions))
	}
}
