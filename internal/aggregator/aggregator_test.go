package aggregator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islero/historyvault/internal/candle"
	"github.com/islero/historyvault/internal/daterange"
	"github.com/islero/historyvault/internal/interval"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func minuteCandles(t *testing.T, start time.Time, n int, volume string) []candle.Candle {
	t.Helper()
	out := make([]candle.Candle, n)
	for i := 0; i < n; i++ {
		open := start.Add(time.Duration(i) * time.Minute)
		out[i] = candle.Candle{
			OpenTime:  open,
			CloseTime: open.Add(time.Minute).Add(-daterange.Tick),
			Open:      d("100"),
			High:      d("101"),
			Low:       d("99"),
			Close:     d("100.5"),
			Volume:    d(volume),
		}
	}
	return out
}

// TestAggregate_FallbackOnLoad mirrors scenario S4: 60 aligned M1
// candles aggregate to one H1 bar spanning open[0]..close[59].
func TestAggregate_FallbackOnLoad(t *testing.T) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	candles := minuteCandles(t, start, 60, "1")

	result, err := Aggregate(candles, interval.Minute1, interval.Hour1)
	require.NoError(t, err)
	require.Len(t, result, 1)

	bar := result[0]
	assert.True(t, bar.OpenTime.Equal(candles[0].OpenTime))
	assert.True(t, bar.Open.Equal(candles[0].Open))
	assert.True(t, bar.Close.Equal(candles[59].Close))
	assert.True(t, bar.Volume.Equal(d("60")))
}

func TestAggregate_IncompatiblePairFails(t *testing.T) {
	_, err := Aggregate(nil, interval.Hour1, interval.Minute1)
	assert.Error(t, err)
}

func TestAggregate_EmptyInputIsEmptyOutput(t *testing.T) {
	result, err := Aggregate(nil, interval.Minute1, interval.Hour1)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestAggregateToSingle(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := minuteCandles(t, start, 5, "10")

	result, err := AggregateToSingle(candles)
	require.NoError(t, err)
	assert.True(t, result.OpenTime.Equal(candles[0].OpenTime))
	assert.True(t, result.CloseTime.Equal(candles[4].CloseTime))
	assert.True(t, result.Volume.Equal(d("50")))
}

func TestAggregateToSingle_EmptyFails(t *testing.T) {
	_, err := AggregateToSingle(nil)
	assert.Error(t, err)
}

func TestAggregateToMultiple_ReusesIntermediate(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := minuteCandles(t, start, 120, "1")

	results, err := AggregateToMultiple(candles, interval.Minute1, []interval.Interval{interval.Hour1, interval.Minute5})
	require.NoError(t, err)

	h1, ok := results[interval.Hour1]
	require.True(t, ok)
	assert.Len(t, h1, 2)

	m5, ok := results[interval.Minute5]
	require.True(t, ok)
	assert.Len(t, m5, 24)
}

func TestValidateSequence_DetectsNonMonotonic(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := minuteCandles(t, start, 3, "1")
	candles[1], candles[2] = candles[2], candles[1]

	ok, reason := ValidateSequence(candles, interval.Minute1)
	assert.False(t, ok)
	assert.NotEmpty(t, reason)
}

func TestValidateSequence_AcceptsWellFormedSequence(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := minuteCandles(t, start, 10, "1")

	ok, reason := ValidateSequence(candles, interval.Minute1)
	assert.True(t, ok)
	assert.Empty(t, reason)
}
