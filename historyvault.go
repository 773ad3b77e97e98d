// Package historyvault is a thin root package wrapping the internal
// implementation packages of an embedded OHLCV candlestick store:
// codec, compression, path resolution, aggregation, availability
// scanning, symbol indexing, and the orchestrating vault engine.
//
// Engine is the sole entry point. Construct one with New, Save data to
// it, and Load it back; the engine handles month-partitioning,
// optional compression, per-symbol write serialization, and timeframe
// aggregation internally.
package historyvault

import (
	"context"
	"time"

	"github.com/islero/historyvault/internal/availability"
	"github.com/islero/historyvault/internal/candle"
	"github.com/islero/historyvault/internal/compress"
	"github.com/islero/historyvault/internal/interval"
	"github.com/islero/historyvault/internal/pathresolver"
	"github.com/islero/historyvault/internal/vault"
)

// Re-exported value types.
type (
	Candle             = candle.Candle
	Bundle             = candle.Bundle
	SymbolData         = candle.SymbolData
	Interval           = interval.Interval
	Scope              = pathresolver.Scope
	CompressionLevel   = compress.Level
	EngineOptions      = vault.EngineOptions
	SaveOptions        = vault.SaveOptions
	LoadOptions        = vault.LoadOptions
	Stats              = vault.Stats
	AvailabilityReport = availability.Report
)

// Re-exported scope constants.
const (
	Local  = pathresolver.Local
	Global = pathresolver.Global
)

// Re-exported interval constants.
const (
	Tick     = interval.Tick
	Second   = interval.Second
	Minute1  = interval.Minute1
	Minute3  = interval.Minute3
	Minute5  = interval.Minute5
	Minute10 = interval.Minute10
	Minute15 = interval.Minute15
	Minute30 = interval.Minute30
	Hour1    = interval.Hour1
	Hour2    = interval.Hour2
	Hour4    = interval.Hour4
	Hour6    = interval.Hour6
	Hour8    = interval.Hour8
	Hour12   = interval.Hour12
	Day1     = interval.Day1
	Day3     = interval.Day3
	Week1    = interval.Week1
	Month1   = interval.Month1
	Custom   = interval.Custom
)

// Re-exported compression level constants.
const (
	Fastest      = compress.Fastest
	Optimal      = compress.Optimal
	SmallestSize = compress.SmallestSize
)

// Engine is the public handle onto a history vault rooted at a
// configured base directory (or the OS-appropriate default per scope).
type Engine struct {
	inner *vault.Engine
}

// New builds an Engine from opts.
func New(opts EngineOptions) (*Engine, error) {
	inner, err := vault.New(opts)
	if err != nil {
		return nil, err
	}
	return &Engine{inner: inner}, nil
}

// Close releases the engine's internal worker pool. After Close, every
// other method except Stats returns an engine-closed error; calling Close
// again is a no-op.
func (e *Engine) Close() error {
	return e.inner.Close()
}

// Save writes data under opts, serialized per symbol.
func (e *Engine) Save(ctx context.Context, data SymbolData, opts SaveOptions) error {
	return e.inner.Save(ctx, data, opts)
}

// Load returns the first symbol's data matching opts, or nil if nothing
// matched.
func (e *Engine) Load(ctx context.Context, opts LoadOptions) (*SymbolData, error) {
	return e.inner.Load(ctx, opts)
}

// LoadMultiple expands opts.Symbol as a glob pattern and loads every
// matching symbol with a bounded parallel fanout.
func (e *Engine) LoadMultiple(ctx context.Context, opts LoadOptions) ([]SymbolData, error) {
	return e.inner.LoadMultiple(ctx, opts)
}

// CheckAvailability reports covered and missing sub-ranges for
// (symbol, tf) over [start, end].
func (e *Engine) CheckAvailability(symbol string, tf Interval, start, end time.Time, scope Scope) (AvailabilityReport, error) {
	return e.inner.CheckAvailability(symbol, tf, start, end, scope)
}

// DataBounds reports the earliest and latest timestamps stored for
// (symbol, tf).
func (e *Engine) DataBounds(symbol string, tf Interval, scope Scope) (start, end time.Time, ok bool, err error) {
	return e.inner.DataBounds(symbol, tf, scope)
}

// HasData reports whether any file exists for (symbol, tf).
func (e *Engine) HasData(symbol string, tf Interval, scope Scope) (bool, error) {
	return e.inner.HasData(symbol, tf, scope)
}

// MatchingSymbols returns the symbols in scope matching pattern.
func (e *Engine) MatchingSymbols(pattern string, scope Scope) ([]string, error) {
	return e.inner.MatchingSymbols(pattern, scope)
}

// AvailableTimeframes returns the timeframes stored for symbol.
func (e *Engine) AvailableTimeframes(symbol string, scope Scope) ([]Interval, error) {
	return e.inner.AvailableTimeframes(symbol, scope)
}

// DeleteSymbol removes every timeframe's data for symbol, reporting
// whether anything was removed.
func (e *Engine) DeleteSymbol(symbol string, scope Scope) (bool, error) {
	return e.inner.DeleteSymbol(symbol, scope)
}

// DeleteTimeframe removes one timeframe's data for symbol, reporting
// whether anything was removed.
func (e *Engine) DeleteTimeframe(symbol string, tf Interval, scope Scope) (bool, error) {
	return e.inner.DeleteTimeframe(symbol, tf, scope)
}

// Stats returns a point-in-time snapshot of the engine's activity
// counters.
func (e *Engine) Stats() Stats {
	return e.inner.Stats()
}
