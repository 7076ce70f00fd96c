package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ReconcileCache holds validated indices of both snapshots.
type ReconcileCache struct {
	// Old is the index of the stored snapshot.
	Old *Index

	// New is the index of the current snapshot.
	New *Index

	// Built is the timestamp when this cache was built.
	Built time.Time

	// TTL is the time-to-live for this cache.
	TTL time.Duration
}

// IsExpired returns true if this cache has expired based on its TTL.
func (c *ReconcileCache) IsExpired() bool {
	if c.TTL == 0 {
		return true // No caching
	}
	return time.Since(c.Built) > c.TTL
}

// cacheStore holds all reconcile caches keyed by spec cache key.
type cacheStore struct {
	mu     sync.RWMutex
	caches map[string]*ReconcileCache
	sf     singleflight.Group
}

var globalCacheStore = &cacheStore{
	caches: make(map[string]*ReconcileCache),
}

// BuildCache loads both snapshots concurrently and indexes them.
// The old snapshot is validated before the new one.
// This function does NOT store the cache; use GetOrBuildCache or StoreCache for that.
func BuildCache(ctx context.Context, spec *Spec) (*ReconcileCache, error) {
	if spec.Old == nil || spec.New == nil {
		return nil, fmt.Errorf("reconcile %s: both snapshot sources are required", spec.Name)
	}

	var oldSnap, newSnap Snapshot
	fields := spec.Fields()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := spec.Old.Snapshot(gctx, spec.IdentifierField, fields)
		if err != nil {
			return fmt.Errorf("load old snapshot: %w", err)
		}
		oldSnap = s
		return nil
	})
	g.Go(func() error {
		s, err := spec.New.Snapshot(gctx, spec.IdentifierField, fields)
		if err != nil {
			return fmt.Errorf("load new snapshot: %w", err)
		}
		newSnap = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	oldIdx, err := NewIndex(SideOld, oldSnap, spec.IdentifierField)
	if err != nil {
		return nil, err
	}
	newIdx, err := NewIndex(SideNew, newSnap, spec.IdentifierField)
	if err != nil {
		return nil, err
	}

	return &ReconcileCache{
		Old:   oldIdx,
		New:   newIdx,
		Built: time.Now(),
		TTL:   spec.CacheTTL,
	}, nil
}

// GetOrBuildCache retrieves a cache for the given spec from the store,
// or builds a new one if it doesn't exist or has expired.
// Uses singleflight to prevent cache stampedes.
func GetOrBuildCache(ctx context.Context, spec *Spec) (*ReconcileCache, error) {
	cacheKey := spec.CacheKey()

	globalCacheStore.mu.RLock()
	cache, exists := globalCacheStore.caches[cacheKey]
	globalCacheStore.mu.RUnlock()

	if exists && !cache.IsExpired() {
		return cache, nil
	}

	result, err, _ := globalCacheStore.sf.Do(cacheKey, func() (interface{}, error) {
		globalCacheStore.mu.RLock()
		cache, exists := globalCacheStore.caches[cacheKey]
		globalCacheStore.mu.RUnlock()

		if exists && !cache.IsExpired() {
			return cache, nil
		}

		newCache, err := BuildCache(ctx, spec)
		if err != nil {
			return nil, err
		}

		StoreCache(spec, newCache)
		return newCache, nil
	})

	if err != nil {
		return nil, err
	}

	return result.(*ReconcileCache), nil
}

// StoreCache replaces the cached indices for the spec. It is a no-op when
// caching is disabled.
func StoreCache(spec *Spec, cache *ReconcileCache) {
	if spec.CacheTTL <= 0 {
		return
	}
	globalCacheStore.mu.Lock()
	globalCacheStore.caches[spec.CacheKey()] = cache
	globalCacheStore.mu.Unlock()
}

// InvalidateCache removes the cache for the given spec from the store.
// Call it after applying a plan so the next lookup sees the written rows.
func InvalidateCache(spec *Spec) {
	cacheKey := spec.CacheKey()
	globalCacheStore.mu.Lock()
	delete(globalCacheStore.caches, cacheKey)
	globalCacheStore.mu.Unlock()
}

// InvalidateDataset removes every cache of the named dataset, whatever its
// source. Use it after writing to a store that all sources are compared with.
func InvalidateDataset(name string) {
	prefix := name + "|"
	globalCacheStore.mu.Lock()
	for key := range globalCacheStore.caches {
		if strings.HasPrefix(key, prefix) {
			delete(globalCacheStore.caches, key)
		}
	}
	globalCacheStore.mu.Unlock()
}
