package solver

import (
	"context"
	"fmt"
	"sync"

	"github.com/katalvlaran/fragtree/core"
)

// serialized lets one goroutine at a time into a backend.
type serialized struct {
	mu sync.Mutex
	b  Backend
}

// Serialized wraps b behind a mutex. Thread-safe backends are returned as
// they are.
func Serialized(b Backend) Backend {
	if b.ThreadSafe() {
		return b
	}
	return &serialized{b: b}
}

func (s *serialized) Name() string     { return s.b.Name() }
func (s *serialized) ThreadSafe() bool { return true }

func (s *serialized) ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.ComputeTree(ctx, g, opts)
}

func (s *serialized) ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.ComputeMultipleTrees(ctx, g, k, opts)
}

// Pool hands each computation an instance of its own. Instances are created
// on first use, at most size of them; callers beyond that wait for a free
// one or for their context.
type Pool struct {
	name    string
	factory Factory
	slots   chan struct{} // one token per instance that may still be created
	idle    chan Backend
}

// NewPool creates a pool of at most size instances. The first instance is
// created immediately to learn the backend name and surface factory errors.
func NewPool(factory Factory, size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrBadPoolSize, size)
	}
	first, err := factory()
	if err != nil {
		return nil, err
	}
	p := &Pool{
		name:    first.Name(),
		factory: factory,
		slots:   make(chan struct{}, size-1),
		idle:    make(chan Backend, size),
	}
	for i := 1; i < size; i++ {
		p.slots <- struct{}{}
	}
	p.idle <- first
	return p, nil
}

// Name returns the name of the pooled backend.
func (p *Pool) Name() string { return p.name }

// ThreadSafe is always true.
func (p *Pool) ThreadSafe() bool { return true }

func (p *Pool) acquire(ctx context.Context) (Backend, error) {
	select {
	case b := <-p.idle:
		return b, nil
	default:
	}
	select {
	case b := <-p.idle:
		return b, nil
	case <-p.slots:
		b, err := p.factory()
		if err != nil {
			p.slots <- struct{}{}
			return nil, err
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) release(b Backend) { p.idle <- b }

// waited is the result of a caller whose context ended before an instance
// became free: a timeout without incumbent.
func (p *Pool) waited() core.Result {
	return core.Result{Backend: p.name, Outcome: core.OutcomeTimedOut}
}

// ComputeTree runs on a free instance.
func (p *Pool) ComputeTree(ctx context.Context, g *core.Graph, opts core.Options) (core.Result, error) {
	b, err := p.acquire(ctx)
	if ctx.Err() != nil && err == ctx.Err() {
		return p.waited(), nil
	}
	if err != nil {
		return core.Result{Backend: p.name, Outcome: core.OutcomeInfeasible}, err
	}
	defer p.release(b)
	return b.ComputeTree(ctx, g, opts)
}

// ComputeMultipleTrees runs on a free instance.
func (p *Pool) ComputeMultipleTrees(ctx context.Context, g *core.Graph, k int, opts core.Options) ([]core.Result, error) {
	b, err := p.acquire(ctx)
	if ctx.Err() != nil && err == ctx.Err() {
		return []core.Result{p.waited()}, nil
	}
	if err != nil {
		return nil, err
	}
	defer p.release(b)
	return b.ComputeMultipleTrees(ctx, g, k, opts)
}
