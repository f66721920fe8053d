package solver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/katalvlaran/fragtree/metrics"
)

type entry struct {
	name    string
	factory Factory
	state   State
	err     error
	backend Backend       // the probed instance, wrapped for concurrent use
	probing chan struct{} // closed when the running probe settles
}

// Registry tracks backends and their probe state and resolves the backend
// that answers a solve.
//
// Every backend moves configured → probed → available | unavailable once;
// concurrent callers wait for a running probe. Reset sends all of them back
// to configured. Probe failures are logged at
// warn level and never returned from Resolve or Chain, which simply skip the
// backend.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*entry
	order    []string // registration order
	priority []string
	poolSize int
	log      *zap.Logger
	metrics  *metrics.Collector
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:  make(map[string]*entry),
		priority: append([]string(nil), DefaultPriority...),
		poolSize: 1,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a backend factory under name.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateBackend, name)
	}
	r.entries[name] = &entry{name: name, factory: f}
	r.order = append(r.order, name)
	return nil
}

// Probe probes the named backends, or every configured backend when no name
// is given. Already probed backends keep their state.
func (r *Registry) Probe(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		r.mu.Lock()
		names = append([]string(nil), r.order...)
		r.mu.Unlock()
	}
	for _, name := range names {
		if _, err := r.probe(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// probe runs the state machine of one backend and returns its entry once
// it is settled; callers arriving during a probe wait for it. Only unknown
// names and the end of ctx produce an error.
func (r *Registry) probe(ctx context.Context, name string) (*entry, error) {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	switch e.state {
	case StateConfigured:
	case StateProbed:
		wait := e.probing
		r.mu.Unlock()
		select {
		case <-wait:
			return r.probe(ctx, name)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	default:
		r.mu.Unlock()
		return e, nil
	}
	done := make(chan struct{})
	e.state, e.probing = StateProbed, done
	r.mu.Unlock()
	defer close(done)

	b, err := r.instantiate(ctx, e.factory)
	var wrapped Backend
	if err == nil {
		wrapped, err = r.concurrent(b, e.factory)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e.probing != done {
		// Reset while probing.
		return e, nil
	}
	e.probing = nil
	if err != nil {
		e.state, e.err = StateUnavailable, err
		r.log.Warn("backend unavailable", zap.String("backend", name), zap.Error(err))
		r.metrics.SetAvailable(name, false)
		return e, nil
	}
	e.state, e.err = StateAvailable, nil
	e.backend = instrument(wrapped, r.log, r.metrics)
	r.log.Debug("backend available", zap.String("backend", name), zap.Bool("thread_safe", b.ThreadSafe()))
	r.metrics.SetAvailable(name, true)
	return e, nil
}

// instantiate builds an instance and probes it when it can be probed.
func (r *Registry) instantiate(ctx context.Context, f Factory) (Backend, error) {
	b, err := f()
	if err != nil {
		return nil, err
	}
	if p, ok := b.(Prober); ok {
		if err := p.Probe(ctx); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// concurrent makes b safe for concurrent use: thread-safe backends are used
// as is, others go behind a pool of poolSize instances (the first one being
// b) or a mutex when the pool has one slot.
func (r *Registry) concurrent(b Backend, f Factory) (Backend, error) {
	if b.ThreadSafe() {
		return b, nil
	}
	if r.poolSize == 1 {
		return Serialized(b), nil
	}
	first := true
	return NewPool(func() (Backend, error) {
		if first {
			first = false
			return b, nil
		}
		return f()
	}, r.poolSize)
}

// Reset returns every backend to the configured state.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		e.state, e.err, e.backend, e.probing = StateConfigured, nil, nil, nil
	}
}

// State returns the state of name; unknown names report StateUnavailable.
func (r *Registry) State(name string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		return e.state
	}
	return StateUnavailable
}

// BackendStatus is one line of Status.
type BackendStatus struct {
	Name     string
	State    State
	Err      error
	Priority int // position in the priority list, -1 when not listed
}

// Status lists every backend, priority order first, then the unlisted ones
// in registration order.
func (r *Registry) Status() []BackendStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	rank := make(map[string]int, len(r.priority))
	for i, n := range r.priority {
		if _, dup := rank[n]; !dup {
			rank[n] = i
		}
	}
	out := make([]BackendStatus, 0, len(r.order))
	for _, n := range r.order {
		e := r.entries[n]
		p, ok := rank[n]
		if !ok {
			p = -1
		}
		out = append(out, BackendStatus{Name: n, State: e.state, Err: e.err, Priority: p})
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Priority, out[j].Priority
		switch {
		case pi < 0 && pj < 0:
			return false
		case pi < 0:
			return false
		case pj < 0:
			return true
		}
		return pi < pj
	})
	return out
}

// Get probes name if needed and returns it, or ErrUnavailable.
func (r *Registry) Get(ctx context.Context, name string) (Backend, error) {
	e, err := r.probe(ctx, name)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.state != StateAvailable {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, e.err)
	}
	return e.backend, nil
}

// Resolve walks the priority list, probing lazily, and returns the first
// available backend.
func (r *Registry) Resolve(ctx context.Context) (Backend, error) {
	bs, err := r.available(ctx, true)
	if err != nil {
		return nil, err
	}
	return bs[0], nil
}

// Chain returns a backend that tries every available backend in priority
// order, moving on when one cannot handle the graph (see Chain).
func (r *Registry) Chain(ctx context.Context) (Backend, error) {
	bs, err := r.available(ctx, false)
	if err != nil {
		return nil, err
	}
	return &Chain{backends: bs, log: r.log, metrics: r.metrics}, nil
}

// available returns the available backends in priority order, stopping at
// the first one when first is set.
func (r *Registry) available(ctx context.Context, first bool) ([]Backend, error) {
	r.mu.Lock()
	priority := append([]string(nil), r.priority...)
	r.mu.Unlock()

	var out []Backend
	for _, name := range priority {
		e, err := r.probe(ctx, name)
		if errors.Is(err, ErrUnknownBackend) {
			r.log.Warn("priority lists an unregistered backend", zap.String("backend", name))
			continue
		}
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if e.state == StateAvailable {
			out = append(out, e.backend)
		}
		r.mu.Unlock()
		if first && len(out) > 0 {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: tried %v", ErrNoBackend, priority)
	}
	return out, nil
}
