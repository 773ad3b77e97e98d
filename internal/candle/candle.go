// Package candle defines the shared OHLCV value types used by every
// history-vault component (spec.md §3): Candle, the interval+candle-list
// Bundle, and the per-symbol SymbolData aggregate.
package candle

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/islero/historyvault/internal/interval"
	"github.com/islero/historyvault/internal/vaulterrors"
)

// Candle is one OHLCV record covering the half-open period
// [OpenTime, CloseTime], with CloseTime = OpenTime + duration - 1 tick
// for aligned candles.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Validate checks the §3 invariants: low <= min(open,close) <=
// max(open,close) <= high, and volume >= 0. The codec and storage engine
// do not call this automatically (they preserve whatever they are
// given); it exists for callers that want to validate their own ingestion.
func (c Candle) Validate() error {
	minOC := decimal.Min(c.Open, c.Close)
	maxOC := decimal.Max(c.Open, c.Close)
	if c.Low.GreaterThan(minOC) || minOC.GreaterThan(maxOC) || maxOC.GreaterThan(c.High) {
		return vaulterrors.ErrInvalidArgument
	}
	if c.Volume.IsNegative() {
		return vaulterrors.ErrInvalidArgument
	}
	return nil
}

// Bundle pairs an interval with its ordered-by-OpenTime candle list; the
// list may be empty.
type Bundle struct {
	Interval interval.Interval
	Candles  []Candle
}

// SymbolData pairs a symbol with zero or more timeframe bundles. Input
// may carry multiple bundles for the same interval; callers that build
// SymbolData for Save should not assume bundles are deduplicated by
// interval (the save path concatenates them per spec.md §3).
type SymbolData struct {
	Symbol  string
	Bundles []Bundle
}
