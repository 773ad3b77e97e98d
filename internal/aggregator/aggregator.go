// Package aggregator implements the streaming OHLCV reducer of spec.md
// C6: grouping a fine-grained, sorted candle sequence into aligned
// coarser periods.
package aggregator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/islero/historyvault/internal/candle"
	"github.com/islero/historyvault/internal/daterange"
	"github.com/islero/historyvault/internal/interval"
	"github.com/islero/historyvault/internal/vaulterrors"
)

// jitterTolerance is the "within one second" tolerance spec.md §4.6
// allows when deciding whether to preserve a group's last close-time
// verbatim instead of the aligned boundary.
const jitterTolerance = time.Second

// Aggregate groups candles (assumed sorted ascending by OpenTime, in
// sourceInterval) into targetInterval-aligned bars. It returns
// vaulterrors.ErrAggregationIncompatible if the interval pair is not
// aggregation-compatible.
func Aggregate(candles []candle.Candle, sourceInterval, targetInterval interval.Interval) ([]candle.Candle, error) {
	if !interval.CanAggregate(sourceInterval, targetInterval) {
		return nil, vaulterrors.ErrAggregationIncompatible
	}
	if len(candles) == 0 {
		return nil, nil
	}

	var out []candle.Candle
	var group []candle.Candle
	var currentPeriod time.Time
	havePeriod := false

	flush := func() {
		if len(group) == 0 {
			return
		}
		out = append(out, reduceGroup(group, targetInterval))
		group = group[:0]
	}

	for _, c := range candles {
		period, err := interval.Align(targetInterval, c.OpenTime)
		if err != nil {
			return nil, err
		}
		if havePeriod && !period.Equal(currentPeriod) {
			flush()
		}
		currentPeriod = period
		havePeriod = true
		group = append(group, c)
	}
	flush()

	return out, nil
}

// reduceGroup folds one aligned group of source candles into a single
// target-interval bar, per spec.md §4.6 step 3.
func reduceGroup(group []candle.Candle, targetInterval interval.Interval) candle.Candle {
	first := group[0]
	last := group[len(group)-1]

	targetDuration, _ := interval.Duration(targetInterval)
	alignedClose := first.OpenTime.Add(targetDuration).Add(-daterange.Tick)

	closeTime := alignedClose
	if diff := last.CloseTime.Sub(alignedClose); diff >= -jitterTolerance && diff <= jitterTolerance {
		closeTime = last.CloseTime
	}

	result := candle.Candle{
		OpenTime:  first.OpenTime,
		CloseTime: closeTime,
		Open:      first.Open,
		Close:     last.Close,
		High:      first.High,
		Low:       first.Low,
		Volume:    decimal.Zero,
	}
	for _, c := range group {
		result.High = decimal.Max(result.High, c.High)
		result.Low = decimal.Min(result.Low, c.Low)
		result.Volume = result.Volume.Add(c.Volume)
	}
	return result
}

// AggregateToSingle produces exactly one candle from a non-empty input,
// taking OpenTime/Open from the first candle and CloseTime/Close from
// the last, with min/max/sum over the rest.
func AggregateToSingle(candles []candle.Candle) (candle.Candle, error) {
	if len(candles) == 0 {
		return candle.Candle{}, vaulterrors.ErrEmptySequence
	}
	first := candles[0]
	last := candles[len(candles)-1]

	result := candle.Candle{
		OpenTime:  first.OpenTime,
		CloseTime: last.CloseTime,
		Open:      first.Open,
		Close:     last.Close,
		High:      first.High,
		Low:       first.Low,
		Volume:    decimal.Zero,
	}
	for _, c := range candles {
		result.High = decimal.Max(result.High, c.High)
		result.Low = decimal.Min(result.Low, c.Low)
		result.Volume = result.Volume.Add(c.Volume)
	}
	return result, nil
}

// Target pairs an interval with nothing else; AggregateToMultiple takes
// a plain []interval.Interval, this alias exists only for readability at
// call sites that build the target list alongside other metadata.
type Target = interval.Interval

// AggregateToMultiple aggregates candles (in sourceInterval) into every
// interval in targets, sorting targets ascending by duration and
// progressively reusing the previously aggregated intermediate result
// when the next target is compatible with it. This is a size
// optimization only: every returned bundle is byte-identical to
// aggregating directly from source.
func AggregateToMultiple(candles []candle.Candle, source interval.Interval, targets []interval.Interval) (map[interval.Interval][]candle.Candle, error) {
	sorted := make([]interval.Interval, len(targets))
	copy(sorted, targets)
	sortIntervalsByDuration(sorted)

	out := make(map[interval.Interval][]candle.Candle, len(sorted))
	intermediate := candles
	intermediateInterval := source

	for _, target := range sorted {
		if target == source {
			out[target] = candles
			continue
		}
		if interval.CanAggregate(intermediateInterval, target) {
			result, err := Aggregate(intermediate, intermediateInterval, target)
			if err != nil {
				return nil, err
			}
			out[target] = result
			intermediate = result
			intermediateInterval = target
			continue
		}
		// Fall back to aggregating directly from source.
		result, err := Aggregate(candles, source, target)
		if err != nil {
			return nil, err
		}
		out[target] = result
		intermediate = result
		intermediateInterval = target
	}
	return out, nil
}

func sortIntervalsByDuration(ivs []interval.Interval) {
	for i := 1; i < len(ivs); i++ {
		for j := i; j > 0; j-- {
			si, _ := interval.Seconds(ivs[j])
			sj, _ := interval.Seconds(ivs[j-1])
			if si < sj {
				ivs[j], ivs[j-1] = ivs[j-1], ivs[j]
			} else {
				break
			}
		}
	}
}

// ValidateSequence checks that candles is monotonic non-decreasing by
// OpenTime and that each non-terminal candle's duration matches
// expectedInterval within one second of tolerance. It reports a human
// reason alongside the boolean so callers can log why validation failed.
func ValidateSequence(candles []candle.Candle, expectedInterval interval.Interval) (bool, string) {
	if len(candles) < 2 {
		return true, ""
	}
	expectedDuration, err := interval.Duration(expectedInterval)
	if err != nil {
		expectedDuration = 0
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].OpenTime.Before(candles[i-1].OpenTime) {
			return false, "open_time is not monotonic non-decreasing"
		}
	}
	for i := 0; i < len(candles)-1; i++ {
		actual := candles[i].CloseTime.Sub(candles[i].OpenTime)
		diff := actual - expectedDuration
		if diff < -jitterTolerance || diff > jitterTolerance {
			return false, "candle duration does not match the expected interval"
		}
	}
	return true, ""
}
