// Package dataloader batches and deduplicates loads of source-keyed values.
//
// A Loader wraps a BatchFunc. LoadMany collapses repeated keys, runs the
// batch function once for the keys it has not seen, and hands back exactly
// one Result per requested key in request order. Loaders are meant to live
// for one execution; a Registry holds the loaders of one execution and
// travels in its context.Context.
package dataloader

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
)

// BatchFunc loads the values of keys. It must return one value per key, in
// key order. A returned error fails every key of the call.
type BatchFunc func(ctx context.Context, keys []any) ([]any, error)

type Result struct {
	Value any
	Err   error
}

type Option func(*Loader)

// WithCache keeps results across LoadMany calls on the same Loader.
func WithCache(enabled bool) Option {
	return func(l *Loader) { l.cache = enabled }
}

type Loader struct {
	name  string
	fn    BatchFunc
	cache bool

	mu      sync.Mutex
	results map[any]Result
}

func New(name string, fn BatchFunc, opts ...Option) *Loader {
	l := &Loader{name: name, fn: fn, results: make(map[any]Result)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) Name() string { return l.name }

// Fork returns an empty loader named name that shares l's batch function and
// cache setting.
func (l *Loader) Fork(name string) *Loader {
	return New(name, l.fn, WithCache(l.cache))
}

// Load loads a single key.
func (l *Loader) Load(ctx context.Context, key any) (any, error) {
	r := l.LoadMany(ctx, []any{key})[0]
	return r.Value, r.Err
}

// LoadMany loads keys, calling the batch function at most once. Keys that are
// not comparable are never merged. The batch function runs on its own
// goroutine; if ctx is done before it returns, the pending keys fail with
// ctx.Err().
func (l *Loader) LoadMany(ctx context.Context, keys []any) []Result {
	out := make([]Result, len(keys))
	if len(keys) == 0 {
		return out
	}

	// slot[i] is the position of keys[i] in unique, or -1 when served from cache
	slot := make([]int, len(keys))
	var unique []any
	seen := make(map[any]int)

	l.mu.Lock()
	for i, k := range keys {
		if mergeable(k) {
			if r, ok := l.results[k]; ok && l.cache {
				out[i] = r
				slot[i] = -1
				continue
			}
			if j, ok := seen[k]; ok {
				slot[i] = j
				continue
			}
			seen[k] = len(unique)
		}
		slot[i] = len(unique)
		unique = append(unique, k)
	}
	l.mu.Unlock()

	if len(unique) == 0 {
		return out
	}

	loaded := l.dispatch(ctx, unique)

	if l.cache {
		l.mu.Lock()
		for j, k := range unique {
			if mergeable(k) && loaded[j].Err == nil {
				l.results[k] = loaded[j]
			}
		}
		l.mu.Unlock()
	}

	for i, j := range slot {
		if j >= 0 {
			out[i] = loaded[j]
		}
	}
	return out
}

// Clear forgets cached results.
func (l *Loader) Clear() {
	l.mu.Lock()
	l.results = make(map[any]Result)
	l.mu.Unlock()
}

func (l *Loader) dispatch(ctx context.Context, keys []any) []Result {
	done := make(chan []Result, 1)
	go func() {
		done <- l.call(ctx, keys)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return failAll(len(keys), ctx.Err())
	}
}

func (l *Loader) call(ctx context.Context, keys []any) (res []Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failAll(len(keys), fmt.Errorf("dataloader %s: panic: %v\n%s", l.name, r, debug.Stack()))
		}
	}()

	values, err := l.fn(ctx, keys)
	if err != nil {
		return failAll(len(keys), err)
	}
	if len(values) != len(keys) {
		return failAll(len(keys), fmt.Errorf("dataloader %s: batch returned %d values for %d keys", l.name, len(values), len(keys)))
	}
	res = make([]Result, len(keys))
	for i, v := range values {
		if e, ok := v.(error); ok {
			res[i] = Result{Err: e}
			continue
		}
		res[i] = Result{Value: v}
	}
	return res
}

func failAll(n int, err error) []Result {
	out := make([]Result, n)
	for i := range out {
		out[i] = Result{Err: err}
	}
	return out
}

func mergeable(k any) bool {
	if k == nil {
		return true
	}
	return reflect.TypeOf(k).Comparable() && !containsIncomparable(reflect.ValueOf(k))
}

// containsIncomparable reports interface-typed fields holding values that
// would panic when used as a map key.
func containsIncomparable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return false
		}
		e := v.Elem()
		return !e.Type().Comparable() || containsIncomparable(e)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if containsIncomparable(v.Field(i)) {
				return true
			}
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if containsIncomparable(v.Index(i)) {
				return true
			}
		}
	}
	return false
}
