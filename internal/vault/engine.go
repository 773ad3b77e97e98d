// Package vault implements the orchestration engine of spec.md C9: save,
// load, merge, delete, per-symbol write serialization, and bounded
// parallel read fanout. Its shape is grounded on the teacher's
// internal/eventsourcing/snapshot.SnapshotManager (semaphore-bounded
// concurrent work, a nil-safe zap logger, context-based lifecycle) and
// internal/architecture/fx/workerpool.WorkerPoolFactory (a named
// panjf2000/ants pool with panic-handling logging).
package vault

import (
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/islero/historyvault/internal/pathresolver"
	"github.com/islero/historyvault/internal/symbolindex"
	"github.com/islero/historyvault/internal/vaulterrors"
)

var structValidator = validator.New()

// Engine orchestrates save/load/merge/delete over a month-partitioned
// on-disk layout, as described by spec.md C9.
type Engine struct {
	opts     EngineOptions
	resolver *pathresolver.Resolver
	index    *symbolindex.Index
	fs       fileSystem
	pool     *ants.Pool
	logger   *zap.Logger

	writeLocks sync.Map // map[string]*sync.Mutex, lock-free insert-if-absent

	closed   bool
	closedMu sync.Mutex

	counters statCounters
}

type statCounters struct {
	saves             int64
	loads             int64
	cacheHits         int64
	cacheMisses       int64
	bytesCompressed   int64
	bytesDecompressed int64
}

// New validates opts and builds an Engine. Options are validated with
// go-playground/validator, mirroring the teacher's
// internal/validation.Validator wrapper (there applied to HTTP request
// DTOs, here to the engine's own option structs).
func New(opts EngineOptions) (*Engine, error) {
	opts = opts.withDefaults()
	if err := structValidator.Struct(opts); err != nil {
		return nil, vaulterrors.ErrInvalidArgument
	}

	resolver := pathresolver.New(opts.BasePathOverride)
	pool, err := ants.NewPool(opts.MaxParallelism, ants.WithPanicHandler(func(i any) {
		opts.Logger.Error("vault: read fanout task panicked", zap.Any("panic", i))
	}))
	if err != nil {
		return nil, err
	}

	return &Engine{
		opts:     opts,
		resolver: resolver,
		index:    symbolindex.New(resolver),
		fs:       osFileSystem{},
		pool:     pool,
		logger:   opts.Logger,
	}, nil
}

// Close releases the engine's read-fanout pool. Afterwards every other
// Engine method except Stats returns vaulterrors.ErrEngineClosed; a
// second Close is a no-op.
func (e *Engine) Close() error {
	e.closedMu.Lock()
	defer e.closedMu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.pool.Release()
	return nil
}

func (e *Engine) checkOpen() error {
	e.closedMu.Lock()
	defer e.closedMu.Unlock()
	if e.closed {
		return vaulterrors.ErrEngineClosed
	}
	return nil
}

// lockFor returns the per-symbol write semaphore for symbol, creating it
// on first use via sync.Map's lock-free LoadOrStore.
func (e *Engine) lockFor(symbol string) *sync.Mutex {
	actual, _ := e.writeLocks.LoadOrStore(symbol, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// resolveScope returns the caller's explicit scope if set, else the
// engine's configured default.
func (e *Engine) resolveScope(scope *pathresolver.Scope) pathresolver.Scope {
	if scope != nil {
		return *scope
	}
	return e.opts.DefaultScope
}

// Stats is a lightweight, lock-free snapshot of engine activity
// (SPEC_FULL.md §4.9 expansion). It is not wired to a metrics server; see
// DESIGN.md for why prometheus/client_golang is not adopted here.
type Stats struct {
	Saves int64
	Loads int64
	// CacheHits and CacheMisses are not incremented anywhere in the
	// engine; they are always zero.
	CacheHits         int64
	CacheMisses       int64
	BytesCompressed   int64
	BytesDecompressed int64
}

// Stats returns a point-in-time snapshot of the engine's activity
// counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Saves:             atomic.LoadInt64(&e.counters.saves),
		Loads:             atomic.LoadInt64(&e.counters.loads),
		CacheHits:         atomic.LoadInt64(&e.counters.cacheHits),
		CacheMisses:       atomic.LoadInt64(&e.counters.cacheMisses),
		BytesCompressed:   atomic.LoadInt64(&e.counters.bytesCompressed),
		BytesDecompressed: atomic.LoadInt64(&e.counters.bytesDecompressed),
	}
}
