// Package symbolindex implements the per-scope, time-bounded symbol
// cache of spec.md C8, grounded on the teacher's
// internal/orders.OrderService pattern of a patrickmn/go-cache instance
// with a 5-minute expiry and a 10-minute cleanup interval.
package symbolindex

import (
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/islero/historyvault/internal/glob"
	"github.com/islero/historyvault/internal/interval"
	"github.com/islero/historyvault/internal/pathresolver"
)

const (
	expiration      = 5 * time.Minute
	cleanupInterval = 10 * time.Minute
	symbolsKey      = "symbols"
)

// Index caches the set of symbols per scope, refreshing from the
// filesystem on expiry or explicit invalidation.
type Index struct {
	resolver *pathresolver.Resolver
	caches   map[pathresolver.Scope]*cache.Cache
}

// New builds an Index backed by resolver for directory discovery.
func New(resolver *pathresolver.Resolver) *Index {
	return &Index{
		resolver: resolver,
		caches: map[pathresolver.Scope]*cache.Cache{
			pathresolver.Local:  cache.New(expiration, cleanupInterval),
			pathresolver.Global: cache.New(expiration, cleanupInterval),
		},
	}
}

func (idx *Index) cacheFor(scope pathresolver.Scope) *cache.Cache {
	return idx.caches[scope]
}

// symbols returns the cached symbol set for scope, repopulating it from
// the filesystem if the cache entry has expired or was never populated.
func (idx *Index) symbols(scope pathresolver.Scope) (map[string]struct{}, error) {
	c := idx.cacheFor(scope)
	if cached, ok := c.Get(symbolsKey); ok {
		return cached.(map[string]struct{}), nil
	}
	names, err := idx.resolver.ListSymbols(scope)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	c.Set(symbolsKey, set, cache.DefaultExpiration)
	return set, nil
}

// Invalidate clears the cached symbol set for scope, forcing the next
// read to rescan the filesystem.
func (idx *Index) Invalidate(scope pathresolver.Scope) {
	idx.cacheFor(scope).Delete(symbolsKey)
}

// AddToCache inserts symbol into a populated cache for scope. It is a
// no-op if the cache is currently empty; the next read repopulates it
// (and will naturally pick up symbol, since it rescans the filesystem).
func (idx *Index) AddToCache(scope pathresolver.Scope, symbol string) {
	c := idx.cacheFor(scope)
	cached, ok := c.Get(symbolsKey)
	if !ok {
		return
	}
	set := cached.(map[string]struct{})
	set[symbol] = struct{}{}
}

// Matching returns the symbols in scope that match pattern.
//
// An empty pattern or "*" returns the full set. A pattern containing
// neither '*' nor '?' returns the singleton if present, else none.
// Otherwise glob.Match is applied (case-insensitive, '*'/'?' only).
func (idx *Index) Matching(scope pathresolver.Scope, pattern string) ([]string, error) {
	set, err := idx.symbols(scope)
	if err != nil {
		return nil, err
	}

	if pattern == "" || pattern == "*" {
		out := make([]string, 0, len(set))
		for s := range set {
			out = append(out, s)
		}
		return out, nil
	}

	if !containsWildcard(pattern) {
		for s := range set {
			if s == pattern {
				return []string{s}, nil
			}
		}
		return nil, nil
	}

	var out []string
	for s := range set {
		if glob.Match(pattern, s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func containsWildcard(pattern string) bool {
	for _, r := range pattern {
		if r == '*' || r == '?' {
			return true
		}
	}
	return false
}

// AvailableTimeframes delegates to the path resolver's directory
// enumeration, returning the intervals whose short code directories
// exist under symbol.
func (idx *Index) AvailableTimeframes(scope pathresolver.Scope, symbol string) ([]interval.Interval, error) {
	return idx.resolver.ListIntervals(scope, symbol)
}
