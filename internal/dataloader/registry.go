package dataloader

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Registry holds the loaders of one execution, keyed by loader name.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]*Loader
}

func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]*Loader)}
}

// Register adds l. Names must be unique within a registry.
func (r *Registry) Register(l *Loader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loaders[l.Name()]; ok {
		return fmt.Errorf("dataloader: loader %s is already registered", l.Name())
	}
	r.loaders[l.Name()] = l
	return nil
}

// LoadOrStore returns the loader registered under l's name, registering l
// when there is none.
func (r *Registry) LoadOrStore(l *Loader) *Loader {
	r.mu.Lock()
	defer r.mu.Unlock()
	if got, ok := r.loaders[l.Name()]; ok {
		return got
	}
	r.loaders[l.Name()] = l
	return l
}

func (r *Registry) Get(name string) (*Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[name]
	return l, ok
}

// Names returns the registered loader names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loaders))
	for n := range r.loaders {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

type registryKey struct{}

func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

func RegistryFrom(ctx context.Context) (*Registry, bool) {
	r, ok := ctx.Value(registryKey{}).(*Registry)
	return r, ok
}
