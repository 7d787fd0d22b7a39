package benchmark

import (
	"fmt"
	"sort"
	"sync"

	errs "reqbench/pkg/errors"
)

// Registry makes running profilers discoverable by name. It is safe for concurrent use;
// the profilers it holds are not, and belong to their own execution.
type Registry struct {
	mu        sync.RWMutex
	profilers map[string]*Profiler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{profilers: make(map[string]*Profiler)}
}

// Register adds p under name. Names must be non-empty and unused.
func (r *Registry) Register(name string, p *Profiler) error {
	if name == "" {
		return errs.New(errs.ErrorTypeRegistry, "profiler name is empty")
	}
	if p == nil {
		return errs.New(errs.ErrorTypeRegistry, fmt.Sprintf("profiler %q is nil", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profilers[name]; exists {
		return errs.New(errs.ErrorTypeRegistry, fmt.Sprintf("profiler %q already registered", name))
	}
	r.profilers[name] = p
	return nil
}

// Lookup returns the profiler registered under name
func (r *Registry) Lookup(name string) (*Profiler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profilers[name]
	return p, ok
}

// Remove drops name from the registry
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profilers, name)
}

// Len returns the number of registered profilers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profilers)
}

// Names returns the registered names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.profilers))
	for name := range r.profilers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Enable creates a profiler and, if it is enabled, registers it under name.
// A disabled profiler is returned unregistered.
func Enable(r *Registry, name string, opts Options) (*Profiler, error) {
	p := New(opts)
	if !p.IsEnabled() {
		return p, nil
	}
	if err := r.Register(name, p); err != nil {
		return nil, err
	}
	return p, nil
}
