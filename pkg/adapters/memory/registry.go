package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/ports"
)

// Counter is a process-local HandleAllocator starting at 1.
type Counter struct {
	n atomic.Int64
}

// Next returns the next handle.
func (c *Counter) Next(ctx context.Context) (domain.Handle, error) {
	return domain.Handle(c.n.Add(1)), nil
}

// Registry implements ports.FunctionRegistry and keeps the functions so a
// host can later resolve a handle.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	alloc ports.HandleAllocator
	fns   map[domain.Handle]any
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithAllocator replaces the default process-local counter.
func WithAllocator(alloc ports.HandleAllocator) RegistryOption {
	return func(r *Registry) {
		r.alloc = alloc
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		alloc: &Counter{},
		fns:   make(map[domain.Handle]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterFunction stores fn under a fresh handle.
// Every call yields a new handle, even for a function registered before.
func (r *Registry) RegisterFunction(fn any) (domain.Handle, error) {
	if fn == nil || reflect.ValueOf(fn).Kind() != reflect.Func {
		return 0, fmt.Errorf("expected a function, got %T", fn)
	}

	h, err := r.alloc.Next(context.Background())
	if err != nil {
		return 0, fmt.Errorf("allocate handle: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.fns[h]; taken {
		return 0, fmt.Errorf("allocator returned handle %d twice", h)
	}
	r.fns[h] = fn
	return h, nil
}

// Lookup returns the function registered under h.
func (r *Registry) Lookup(h domain.Handle) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[h]
	return fn, ok
}

// Release forgets a handle, e.g. once the tree that carried it was replaced.
func (r *Registry) Release(h domain.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.fns, h)
}

// Len reports how many handles are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fns)
}
