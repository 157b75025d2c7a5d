package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// PlanKey identifies a cached path: the problem's incidence Signature and
// the name of the optimizer that produced the path. Optimizers never share
// entries.
type PlanKey struct {
	Signature string
	Optimizer string
}

// PathCache stores contraction paths by PlanKey.
type PathCache interface {
	LoadPath(ctx context.Context, key PlanKey) (Path, bool, error)
	SavePath(ctx context.Context, key PlanKey, path Path) error
}

// Cached memoizes an optimizer under its Name. A cached path is
// re-validated against the problem before use; an invalid entry is
// recomputed and overwritten.
type Cached struct {
	inner Optimizer
	cache PathCache
}

// NewCached wraps inner with cache.
func NewCached(inner Optimizer, cache PathCache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

// Name implements Optimizer. A cache is transparent: it reports the name
// of the optimizer it wraps.
func (c *Cached) Name() string { return c.inner.Name() }

// Optimize implements Optimizer.
func (c *Cached) Optimize(ctx context.Context, p Problem) (Path, error) {
	sig, err := Signature(p)
	if err != nil {
		return nil, err
	}
	key := PlanKey{Signature: sig, Optimizer: c.inner.Name()}

	path, ok, err := c.cache.LoadPath(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load cached path: %w", err)
	}
	if ok {
		if _, err := Annotate(p, path); err == nil {
			return path, nil
		}
		slog.Warn("discarding invalid cached path", "signature", sig, "optimizer", key.Optimizer)
	}

	path, err = c.inner.Optimize(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SavePath(ctx, key, path); err != nil {
		return nil, fmt.Errorf("save cached path: %w", err)
	}
	return path, nil
}

// MemoryCache is an in-process PathCache.
// Thread-safety: all methods are safe for concurrent use.
type MemoryCache struct {
	mu     sync.RWMutex
	paths  map[PlanKey]Path
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{paths: make(map[PlanKey]Path)}
}

// LoadPath implements PathCache.
func (m *MemoryCache) LoadPath(_ context.Context, key PlanKey) (Path, bool, error) {
	m.mu.RLock()
	p, ok := m.paths[key]
	m.mu.RUnlock()
	if ok {
		m.hits.Add(1)
		return clonePath(p), true, nil
	}
	m.misses.Add(1)
	return nil, false, nil
}

// SavePath implements PathCache.
func (m *MemoryCache) SavePath(_ context.Context, key PlanKey, path Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[key] = clonePath(path)
	return nil
}

// Hits returns the number of successful lookups.
func (m *MemoryCache) Hits() int64 { return m.hits.Load() }

// Misses returns the number of failed lookups.
func (m *MemoryCache) Misses() int64 { return m.misses.Load() }

func clonePath(p Path) Path {
	out := make(Path, len(p))
	for i, s := range p {
		out[i] = append([]int(nil), s...)
	}
	return out
}
