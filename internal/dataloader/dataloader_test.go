package dataloader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var letters = map[int]string{1: "a", 2: "b", 3: "c"}

func letterLoader(calls *[][]any) BatchFunc {
	return func(ctx context.Context, keys []any) ([]any, error) {
		*calls = append(*calls, keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = letters[k.(int)]
		}
		return out, nil
	}
}

func values(rs []Result) []any {
	out := make([]any, len(rs))
	for i, r := range rs {
		out[i] = r.Value
	}
	return out
}

func TestLoadManyKeepsKeyOrder(t *testing.T) {
	var calls [][]any
	l := New("letters", letterLoader(&calls))

	got := l.LoadMany(context.Background(), []any{3, 1, 2})
	if diff := cmp.Diff([]any{"c", "a", "b"}, values(got)); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, calls, 1)
}

func TestLoadManyDeduplicates(t *testing.T) {
	var calls [][]any
	l := New("letters", letterLoader(&calls))

	got := l.LoadMany(context.Background(), []any{2, 1, 2, 2, 1})
	require.Equal(t, []any{"b", "a", "b", "b", "a"}, values(got))
	if diff := cmp.Diff([][]any{{2, 1}}, calls); diff != "" {
		t.Fatalf("batch calls mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadManyIncomparableKeys(t *testing.T) {
	var seen int
	l := New("maps", func(ctx context.Context, keys []any) ([]any, error) {
		seen = len(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k.(map[string]any)["v"]
		}
		return out, nil
	})
	key := map[string]any{"v": 1}
	got := l.LoadMany(context.Background(), []any{key, key})
	require.Equal(t, []any{1, 1}, values(got))
	require.Equal(t, 2, seen)
}

func TestCache(t *testing.T) {
	var calls [][]any
	cached := New("letters", letterLoader(&calls), WithCache(true))
	cached.LoadMany(context.Background(), []any{1, 2})
	v, err := cached.Load(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "a", v)
	cached.LoadMany(context.Background(), []any{2, 3})
	if diff := cmp.Diff([][]any{{1, 2}, {3}}, calls); diff != "" {
		t.Fatalf("batch calls mismatch (-want +got):\n%s", diff)
	}

	cached.Clear()
	cached.Load(context.Background(), 1)
	require.Len(t, calls, 3)

	calls = nil
	uncached := New("letters", letterLoader(&calls))
	uncached.LoadMany(context.Background(), []any{1})
	uncached.LoadMany(context.Background(), []any{1})
	require.Len(t, calls, 2)
}

func TestBatchErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("whole batch", func(t *testing.T) {
		l := New("fail", func(ctx context.Context, keys []any) ([]any, error) { return nil, boom })
		for _, r := range l.LoadMany(context.Background(), []any{1, 2}) {
			require.ErrorIs(t, r.Err, boom)
		}
	})

	t.Run("per key", func(t *testing.T) {
		l := New("mixed", func(ctx context.Context, keys []any) ([]any, error) {
			return []any{"ok", boom}, nil
		})
		got := l.LoadMany(context.Background(), []any{1, 2})
		require.NoError(t, got[0].Err)
		require.Equal(t, "ok", got[0].Value)
		require.ErrorIs(t, got[1].Err, boom)
	})

	t.Run("length mismatch", func(t *testing.T) {
		l := New("short", func(ctx context.Context, keys []any) ([]any, error) { return []any{"x"}, nil })
		got := l.LoadMany(context.Background(), []any{1, 2})
		require.ErrorContains(t, got[1].Err, "batch returned 1 values for 2 keys")
	})

	t.Run("panic", func(t *testing.T) {
		l := New("panics", func(ctx context.Context, keys []any) ([]any, error) { panic("kaput") })
		_, err := l.Load(context.Background(), 1)
		require.ErrorContains(t, err, "dataloader panics: panic: kaput")
	})
}

func TestCancelWhileWaiting(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool
	l := New("slow", func(ctx context.Context, keys []any) ([]any, error) {
		<-release
		finished.Store(true)
		return []any{"late"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Load(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.Eventually(t, finished.Load, time.Second, time.Millisecond)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("b", nil)))
	require.NoError(t, r.Register(New("a", nil)))
	require.ErrorContains(t, r.Register(New("a", nil)), "loader a is already registered")
	require.Equal(t, []string{"a", "b"}, r.Names())

	ctx := WithRegistry(context.Background(), r)
	got, ok := RegistryFrom(ctx)
	require.True(t, ok)
	require.Same(t, r, got)

	l, ok := got.Get("a")
	require.True(t, ok)
	require.Equal(t, "a", l.Name())

	_, ok = RegistryFrom(context.Background())
	require.False(t, ok)
}

func TestForkKeepsItsOwnCache(t *testing.T) {
	var calls [][]any
	r := NewRegistry()
	base := New("letters", letterLoader(&calls), WithCache(true))
	require.NoError(t, r.Register(base))

	fork := r.LoadOrStore(base.Fork("letters{\"upper\":true}"))
	require.Equal(t, `letters{"upper":true}`, fork.Name())
	require.Same(t, fork, r.LoadOrStore(base.Fork("letters{\"upper\":true}")))
	require.Same(t, base, r.LoadOrStore(New("letters", nil)))

	base.Load(context.Background(), 1)
	fork.Load(context.Background(), 1)
	fork.Load(context.Background(), 1)
	if diff := cmp.Diff([][]any{{1}, {1}}, calls); diff != "" {
		t.Fatalf("batch calls mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"letters", `letters{"upper":true}`}, r.Names())
}
