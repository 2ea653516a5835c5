// Package lookup supplies the resolver instances bound operations are
// invoked on.
package lookup

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hanpama/graphbind/internal/index"
)

var ErrNoProvider = errors.New("lookup: no provider")

// Service returns the instance of a declaring type.
type Service interface {
	Instance(id index.TypeID) (any, error)
}

// Provider constructs an instance on first use.
type Provider func() (any, error)

// Registry is a Service that caches one instance per type. Types without a
// registered instance or provider are constructed as a pointer to their zero
// value when the index knows their reflect type.
type Registry struct {
	idx index.Index

	mu        sync.RWMutex
	providers map[index.TypeID]Provider
	instances map[index.TypeID]any
	group     singleflight.Group
}

func New(idx index.Index) *Registry {
	return &Registry{
		idx:       idx,
		providers: make(map[index.TypeID]Provider),
		instances: make(map[index.TypeID]any),
	}
}

// Provide registers v as the instance of its own type.
func (r *Registry) Provide(v any) *Registry {
	id := index.IDOf(reflect.TypeOf(v))
	r.mu.Lock()
	r.instances[id] = v
	r.mu.Unlock()
	return r
}

// ProvideFunc registers a provider for id. It runs at most once.
func (r *Registry) ProvideFunc(id index.TypeID, p Provider) *Registry {
	r.mu.Lock()
	r.providers[id] = p
	r.mu.Unlock()
	return r
}

func (r *Registry) Instance(id index.TypeID) (any, error) {
	r.mu.RLock()
	v, ok := r.instances[id]
	r.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err, _ := r.group.Do(string(id), func() (any, error) {
		r.mu.RLock()
		v, ok := r.instances[id]
		p := r.providers[id]
		r.mu.RUnlock()
		if ok {
			return v, nil
		}
		var err error
		if p != nil {
			v, err = p()
		} else {
			v, err = r.zero(id)
		}
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.instances[id] = v
		r.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (r *Registry) zero(id index.TypeID) (any, error) {
	if r.idx == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoProvider, id)
	}
	info, ok := r.idx.Lookup(id)
	if !ok || info.Type == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoProvider, id)
	}
	if info.Type.Kind() == reflect.Interface {
		return nil, fmt.Errorf("%w for interface %s", ErrNoProvider, id)
	}
	return reflect.New(info.Type).Interface(), nil
}
