package providers

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrBackendNotFound is returned when no backend is registered for a method.
	ErrBackendNotFound = errors.New("backend not found")

	// ErrBackendExists is returned when trying to register a duplicate backend.
	ErrBackendExists = errors.New("backend already exists")
)

// Registry maps each method to the backend that implements it.
type Registry struct {
	mu       sync.RWMutex
	backends map[Method]Backend
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[Method]Backend),
	}
}

// Register adds a backend under its method.
func (r *Registry) Register(b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[b.Method()]; exists {
		return ErrBackendExists
	}

	r.backends[b.Method()] = b
	return nil
}

// Get returns the backend for a method.
func (r *Registry) Get(m Method) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.backends[m]
	if !exists {
		return nil, ErrBackendNotFound
	}

	return b, nil
}

// Wrap replaces every registered backend with wrap(backend).
// Used to apply decorators after registration.
func (r *Registry) Wrap(wrap func(Backend) Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for m, b := range r.backends {
		r.backends[m] = wrap(b)
	}
}

// Methods returns the registered methods in sorted order.
func (r *Registry) Methods() []Method {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]Method, 0, len(r.backends))
	for m := range r.backends {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}
