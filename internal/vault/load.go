package vault

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/islero/historyvault/internal/aggregator"
	"github.com/islero/historyvault/internal/availability"
	"github.com/islero/historyvault/internal/candle"
	"github.com/islero/historyvault/internal/codec"
	"github.com/islero/historyvault/internal/compress"
	"github.com/islero/historyvault/internal/daterange"
	"github.com/islero/historyvault/internal/interval"
	"github.com/islero/historyvault/internal/pathresolver"
)

// Load wraps LoadMultiple, returning its first result (spec.md §4.9
// "load"). It returns nil, nil if no symbol matched or every matching
// symbol's bundle list was empty.
func (e *Engine) Load(ctx context.Context, opts LoadOptions) (*candle.SymbolData, error) {
	results, err := e.LoadMultiple(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// LoadMultiple expands opts.Symbol as a glob pattern via the symbol
// index, then loads every matching symbol with a bounded parallel
// fanout through the engine's worker pool (spec.md §4.9 "load_multiple").
func (e *Engine) LoadMultiple(ctx context.Context, opts LoadOptions) ([]candle.SymbolData, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if err := structValidator.Struct(opts); err != nil {
		return nil, err
	}

	scope := e.resolveScope(opts.Scope)
	symbols, err := e.index.Matching(scope, opts.Symbol)
	if err != nil {
		return nil, err
	}

	results := make([]*candle.SymbolData, len(symbols))
	errs := make([]error, len(symbols))

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		i, symbol := i, symbol
		wg.Add(1)
		submitErr := e.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			data, err := e.loadSymbolData(ctx, scope, symbol, opts)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = data
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := make([]candle.SymbolData, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	atomic.AddInt64(&e.counters.loads, 1)
	return out, nil
}

// loadSymbolData implements spec.md §4.9's "Per-symbol load".
func (e *Engine) loadSymbolData(ctx context.Context, scope pathresolver.Scope, symbol string, opts LoadOptions) (*candle.SymbolData, error) {
	timeframes := opts.Timeframes
	if len(timeframes) == 0 {
		available, err := e.index.AvailableTimeframes(scope, symbol)
		if err != nil {
			return nil, err
		}
		timeframes = available
	}

	var bundles []candle.Bundle
	for _, tf := range timeframes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candles, err := e.loadTimeframeData(scope, symbol, tf, opts.Start, opts.End, opts.WarmupCount)
		if err != nil {
			return nil, err
		}

		if len(candles) == 0 && opts.AllowAggregation {
			aggregated, err := e.tryAggregateTimeframe(scope, symbol, tf, opts)
			if err != nil {
				return nil, err
			}
			candles = aggregated
		}

		if len(candles) > 0 {
			bundles = append(bundles, candle.Bundle{Interval: tf, Candles: candles})
		}
	}

	if len(bundles) == 0 {
		return nil, nil
	}
	return &candle.SymbolData{Symbol: symbol, Bundles: bundles}, nil
}

// loadTimeframeData implements spec.md §4.9's `load_timeframe_data`.
func (e *Engine) loadTimeframeData(scope pathresolver.Scope, symbol string, tf interval.Interval, start, end *time.Time, warmupCount int) ([]candle.Candle, error) {
	effectiveStart := effectiveLoadStart(tf, start, warmupCount)
	effectiveEnd := effectiveLoadEnd(end)

	startYear, startMonth := monthOf(effectiveStart)
	endYear, endMonth := monthOf(effectiveEnd)

	files, err := e.resolver.ListFilesInRange(scope, symbol, tf, startYear, startMonth, endYear, endMonth)
	if err != nil {
		return nil, err
	}

	var out []candle.Candle
	for _, f := range files {
		data, err := e.fs.ReadFile(f.Path)
		if err != nil {
			return nil, err
		}
		if f.Compressed {
			decompressed, err := compress.Decompress(data)
			if err != nil {
				return nil, err
			}
			atomic.AddInt64(&e.counters.bytesDecompressed, int64(len(decompressed)))
			data = decompressed
		}
		candles, _, err := codec.Decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, candles...)
	}

	filtered := out[:0]
	for _, c := range out {
		if !c.OpenTime.Before(effectiveStart) && !c.OpenTime.After(effectiveEnd) {
			filtered = append(filtered, c)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].OpenTime.Before(filtered[j].OpenTime) })
	return filtered, nil
}

// effectiveLoadStart applies warmup per spec.md §4.9 step 1.
func effectiveLoadStart(tf interval.Interval, start *time.Time, warmupCount int) time.Time {
	if start == nil {
		return time.Time{}
	}
	if warmupCount <= 0 || tf == interval.Tick {
		return *start
	}
	d, err := interval.Duration(tf)
	if err != nil {
		return *start
	}
	return start.Add(-time.Duration(warmupCount) * d)
}

// effectiveLoadEnd extends a caller-specified end to the end of that
// calendar day, per spec.md §4.9 step 2 (the mandatory end-of-day
// extension, per DESIGN.md's resolution of the source's two
// competing variants).
func effectiveLoadEnd(end *time.Time) time.Time {
	if end == nil {
		return time.Unix(1<<62, 0).UTC()
	}
	year, month, day := end.Date()
	startOfDay := time.Date(year, month, day, 0, 0, 0, 0, end.Location())
	return startOfDay.Add(24*time.Hour - daterange.Tick)
}

func monthOf(t time.Time) (int, int) {
	return t.Year(), int(t.Month())
}

// tryAggregateTimeframe implements spec.md §4.9's `try_aggregate_timeframe`
// fallback: pick the smallest available source timeframe that can be
// aggregated into target, load it with a scaled warmup, and aggregate.
func (e *Engine) tryAggregateTimeframe(scope pathresolver.Scope, symbol string, target interval.Interval, opts LoadOptions) ([]candle.Candle, error) {
	available, err := e.index.AvailableTimeframes(scope, symbol)
	if err != nil {
		return nil, err
	}

	var source interval.Interval
	var sourceSeconds int64
	found := false
	for _, candidate := range available {
		if !interval.CanAggregate(candidate, target) {
			continue
		}
		secs, err := interval.Seconds(candidate)
		if err != nil {
			continue
		}
		if !found || secs < sourceSeconds {
			source = candidate
			sourceSeconds = secs
			found = true
		}
	}
	if !found {
		return nil, nil
	}

	factor, err := interval.Factor(source, target)
	if err != nil {
		return nil, err
	}
	scaledWarmup := opts.WarmupCount * int(factor)

	sourceCandles, err := e.loadTimeframeData(scope, symbol, source, opts.Start, opts.End, scaledWarmup)
	if err != nil {
		return nil, err
	}
	if len(sourceCandles) == 0 {
		return nil, nil
	}
	return aggregator.Aggregate(sourceCandles, source, target)
}

// CheckAvailability delegates to the header-only availability scan
// (spec.md C7), via the engine's resolver.
func (e *Engine) CheckAvailability(symbol string, tf interval.Interval, start, end time.Time, scope pathresolver.Scope) (availability.Report, error) {
	if err := e.checkOpen(); err != nil {
		return availability.Report{}, err
	}
	return availability.Check(e.resolver, scope, symbol, tf, start, end)
}

// DataBounds delegates to the availability scan's header-only bounds
// query.
func (e *Engine) DataBounds(symbol string, tf interval.Interval, scope pathresolver.Scope) (start, end time.Time, ok bool, err error) {
	if err := e.checkOpen(); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return availability.Bounds(e.resolver, scope, symbol, tf)
}

// HasData reports whether any file exists for (symbol, tf, scope).
func (e *Engine) HasData(symbol string, tf interval.Interval, scope pathresolver.Scope) (bool, error) {
	if err := e.checkOpen(); err != nil {
		return false, err
	}
	files, err := e.resolver.ListFiles(scope, symbol, tf)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// MatchingSymbols delegates to the symbol index (C8).
func (e *Engine) MatchingSymbols(pattern string, scope pathresolver.Scope) ([]string, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return e.index.Matching(scope, pattern)
}

// AvailableTimeframes delegates to the symbol index (C8).
func (e *Engine) AvailableTimeframes(symbol string, scope pathresolver.Scope) ([]interval.Interval, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return e.index.AvailableTimeframes(scope, symbol)
}

// DeleteSymbol recursively removes every timeframe's data for symbol and
// invalidates the symbol index cache for scope, reporting whether
// anything was removed.
func (e *Engine) DeleteSymbol(symbol string, scope pathresolver.Scope) (bool, error) {
	if err := e.checkOpen(); err != nil {
		return false, err
	}
	lock := e.lockFor(symbol)
	lock.Lock()
	defer lock.Unlock()

	dir := e.resolver.SymbolDir(scope, symbol)
	existed := e.fs.Exists(dir)
	if err := e.fs.RemoveAll(dir); err != nil {
		return false, err
	}
	e.index.Invalidate(scope)
	return existed, nil
}

// DeleteTimeframe removes one timeframe's data for symbol and
// invalidates the symbol index cache for scope, reporting whether
// anything was removed.
func (e *Engine) DeleteTimeframe(symbol string, tf interval.Interval, scope pathresolver.Scope) (bool, error) {
	if err := e.checkOpen(); err != nil {
		return false, err
	}
	lock := e.lockFor(symbol)
	lock.Lock()
	defer lock.Unlock()

	dir := e.resolver.IntervalDir(scope, symbol, tf)
	existed := e.fs.Exists(dir)
	if err := e.fs.RemoveAll(dir); err != nil {
		return false, err
	}
	e.index.Invalidate(scope)
	return existed, nil
}
