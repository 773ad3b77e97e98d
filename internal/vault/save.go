package vault

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/islero/historyvault/internal/aggregator"
	"github.com/islero/historyvault/internal/candle"
	"github.com/islero/historyvault/internal/codec"
	"github.com/islero/historyvault/internal/compress"
	"github.com/islero/historyvault/internal/interval"
	"github.com/islero/historyvault/internal/pathresolver"
)

// Save writes data under options, serialized per-symbol via the engine's
// write-lock map (spec.md §4.9 "save").
func (e *Engine) Save(ctx context.Context, data candle.SymbolData, opts SaveOptions) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	opts = mergeSaveOptions(opts)
	if err := structValidator.Struct(opts); err != nil {
		return err
	}

	lock := e.lockFor(data.Symbol)
	lock.Lock()
	defer lock.Unlock()

	scope := e.resolveScope(opts.Scope)

	// Bundles that share an interval are concatenated (and re-sorted by
	// OpenTime) so their candles land in the same month groups instead of
	// overwriting each other's monthly files.
	bundles := make([]candle.Bundle, 0, len(data.Bundles))
	byInterval := make(map[interval.Interval]int, len(data.Bundles))
	for _, b := range data.Bundles {
		if i, ok := byInterval[b.Interval]; ok {
			prev := bundles[i].Candles
			merged := append(prev[:len(prev):len(prev)], b.Candles...)
			sort.SliceStable(merged, func(x, y int) bool { return merged[x].OpenTime.Before(merged[y].OpenTime) })
			bundles[i].Candles = merged
			continue
		}
		byInterval[b.Interval] = len(bundles)
		bundles = append(bundles, b)
	}

	for _, bundle := range bundles {
		if err := ctx.Err(); err != nil {
			return err
		}
		targets := deriveTargetTimeframes(bundle.Interval, opts, e.opts.DefaultTimeframes)

		for _, target := range targets {
			if err := ctx.Err(); err != nil {
				return err
			}

			candles := bundle.Candles
			if target != bundle.Interval {
				aggregated, err := aggregator.Aggregate(candles, bundle.Interval, target)
				if err != nil {
					return err
				}
				candles = aggregated
			}

			if err := e.saveTimeframe(ctx, scope, data.Symbol, target, candles, opts); err != nil {
				return err
			}
		}
	}

	e.index.AddToCache(scope, data.Symbol)
	atomic.AddInt64(&e.counters.saves, 1)
	return nil
}

// mergeSaveOptions overlays opts onto defaultSaveOptions() so a caller
// who leaves UseCompression and CompressionLevel at their zero values
// (a bare SaveOptions{}) gets spec.md §6's stated defaults
// (UseCompression: true, CompressionLevel: Optimal) rather than the
// zero values of bool/Level.
func mergeSaveOptions(opts SaveOptions) SaveOptions {
	defaults := defaultSaveOptions()
	if !opts.UseCompression {
		opts.UseCompression = defaults.UseCompression
	}
	if opts.CompressionLevel == compress.Fastest && opts.UseCompression {
		opts.CompressionLevel = defaults.CompressionLevel
	}
	return opts
}

// deriveTargetTimeframes implements the four-case derivation rule of
// spec.md §4.9 "Target-timeframe derivation at save".
func deriveTargetTimeframes(source interval.Interval, opts SaveOptions, engineDefaults []interval.Interval) []interval.Interval {
	switch {
	case len(opts.TargetTimeframes) > 0 && !opts.AggregateFromSmallest:
		return dedupeIntervals(opts.TargetTimeframes)
	case len(opts.TargetTimeframes) > 0 && opts.AggregateFromSmallest:
		set := map[interval.Interval]struct{}{source: {}}
		for _, t := range opts.TargetTimeframes {
			if interval.CanAggregate(source, t) {
				set[t] = struct{}{}
			}
		}
		out := make([]interval.Interval, 0, len(set))
		for iv := range set {
			out = append(out, iv)
		}
		return out
	case len(engineDefaults) > 0:
		return dedupeIntervals(engineDefaults)
	default:
		return []interval.Interval{source}
	}
}

func dedupeIntervals(ivs []interval.Interval) []interval.Interval {
	seen := make(map[interval.Interval]struct{}, len(ivs))
	out := make([]interval.Interval, 0, len(ivs))
	for _, iv := range ivs {
		if _, ok := seen[iv]; ok {
			continue
		}
		seen[iv] = struct{}{}
		out = append(out, iv)
	}
	return out
}

// saveTimeframe groups candles by (year, month), merges with existing
// on-disk data when configured, and writes each group's monthly file.
func (e *Engine) saveTimeframe(ctx context.Context, scope pathresolver.Scope, symbol string, iv interval.Interval, candles []candle.Candle, opts SaveOptions) error {
	groups := groupByMonth(candles)

	for key, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		sort.Slice(group, func(i, j int) bool { return group[i].OpenTime.Before(group[j].OpenTime) })

		out := group
		if opts.AllowPartialOverwrite {
			merged, err := e.mergeWithExisting(scope, symbol, iv, key.year, key.month, group)
			if err != nil {
				return err
			}
			out = merged
		}

		if err := e.writeMonth(scope, symbol, iv, key.year, key.month, out, opts); err != nil {
			return err
		}
	}
	return nil
}

type monthKey struct {
	year  int
	month int
}

func groupByMonth(candles []candle.Candle) map[monthKey][]candle.Candle {
	groups := make(map[monthKey][]candle.Candle)
	for _, c := range candles {
		key := monthKey{year: c.OpenTime.Year(), month: int(c.OpenTime.Month())}
		groups[key] = append(groups[key], c)
	}
	return groups
}

// mergeWithExisting implements spec.md §4.9's "Per-month merge".
func (e *Engine) mergeWithExisting(scope pathresolver.Scope, symbol string, iv interval.Interval, year, month int, incoming []candle.Candle) ([]candle.Candle, error) {
	existing, found, err := e.readMonth(scope, symbol, iv, year, month)
	if err != nil {
		return nil, err
	}
	if !found {
		return incoming, nil
	}
	return mergeMonth(existing, incoming), nil
}

// readMonth loads the candles of an existing monthly file, preferring
// the compressed variant when both exist (spec.md §4.9 step 1).
func (e *Engine) readMonth(scope pathresolver.Scope, symbol string, iv interval.Interval, year, month int) ([]candle.Candle, bool, error) {
	for _, compressed := range [2]bool{true, false} {
		path := e.resolver.MonthPath(scope, symbol, iv, year, month, compressed)
		if !e.fs.Exists(path) {
			continue
		}
		data, err := e.fs.ReadFile(path)
		if err != nil {
			return nil, false, err
		}
		if compressed {
			decompressed, err := compress.Decompress(data)
			if err != nil {
				return nil, false, err
			}
			atomic.AddInt64(&e.counters.bytesDecompressed, int64(len(decompressed)))
			data = decompressed
		}
		candles, _, err := codec.Decode(data)
		if err != nil {
			return nil, false, err
		}
		return candles, true, nil
	}
	return nil, false, nil
}

// writeMonth encodes, optionally compresses, and atomically writes one
// monthly group, then deletes the stale alternative-compression file
// (spec.md §4.9 step "write the group...delete the alternative-
// compression file").
func (e *Engine) writeMonth(scope pathresolver.Scope, symbol string, iv interval.Interval, year, month int, candles []candle.Candle, opts SaveOptions) error {
	buf, err := codec.Encode(candles, iv, opts.UseCompression)
	if err != nil {
		return err
	}
	defer buf.Release()

	payload := buf.Bytes()
	if opts.UseCompression {
		compressed, err := compress.Compress(payload, opts.CompressionLevel)
		if err != nil {
			return err
		}
		atomic.AddInt64(&e.counters.bytesCompressed, int64(len(compressed)))
		payload = compressed
	}

	path := e.resolver.MonthPath(scope, symbol, iv, year, month, opts.UseCompression)
	if err := e.fs.WriteFileAtomic(path, payload, *e.opts.AutoCreateDirectories); err != nil {
		return err
	}

	altPath := e.resolver.MonthPath(scope, symbol, iv, year, month, !opts.UseCompression)
	if e.fs.Exists(altPath) {
		if err := e.fs.Remove(altPath); err != nil {
			return err
		}
	}
	return nil
}
