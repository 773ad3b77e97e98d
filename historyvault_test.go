package historyvault

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(EngineOptions{BasePathOverride: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func dec(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func hourCandle(open time.Time, volume string) Candle {
	return Candle{
		OpenTime:  open,
		CloseTime: open.Add(time.Hour).Add(-100 * time.Nanosecond),
		Open:      dec("100"),
		High:      dec("105"),
		Low:       dec("95"),
		Close:     dec("102"),
		Volume:    dec(volume),
	}
}

// TestEngine_SaveLoadRoundTrip exercises the public surface end to end:
// construct an Engine, Save a bundle, Load it back, confirm the single
// candle and its volume survived the round trip through the real codec
// and filesystem.
func TestEngine_SaveLoadRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	open := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	data := SymbolData{
		Symbol:  "PUB",
		Bundles: []Bundle{{Interval: Hour1, Candles: []Candle{hourCandle(open, "42")}}},
	}
	require.NoError(t, e.Save(ctx, data, SaveOptions{UseCompression: true}))

	loaded, err := e.Load(ctx, LoadOptions{Symbol: "PUB", Timeframes: []Interval{Hour1}})
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Bundles, 1)
	require.Len(t, loaded.Bundles[0].Candles, 1)
	assert.True(t, loaded.Bundles[0].Candles[0].Volume.Equal(dec("42")))
}

func TestEngine_MatchingSymbolsAndAvailableTimeframes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	open := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	for _, symbol := range []string{"FOO.A", "FOO.B", "BAR.A"} {
		data := SymbolData{
			Symbol:  symbol,
			Bundles: []Bundle{{Interval: Minute1, Candles: []Candle{hourCandle(open, "1")}}},
		}
		require.NoError(t, e.Save(ctx, data, SaveOptions{UseCompression: false}))
	}

	matches, err := e.MatchingSymbols("FOO.*", Local)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"FOO.A", "FOO.B"}, matches)

	timeframes, err := e.AvailableTimeframes("FOO.A", Local)
	require.NoError(t, err)
	assert.Contains(t, timeframes, Minute1)
}

func TestEngine_DataBoundsAndHasData(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	open := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	data := SymbolData{
		Symbol:  "BND",
		Bundles: []Bundle{{Interval: Hour1, Candles: []Candle{hourCandle(open, "1")}}},
	}
	require.NoError(t, e.Save(ctx, data, SaveOptions{UseCompression: false}))

	has, err := e.HasData("BND", Hour1, Local)
	require.NoError(t, err)
	assert.True(t, has)

	start, end, ok, err := e.DataBounds("BND", Hour1, Local)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, start.Equal(open) || start.Before(open.Add(time.Second)))
	assert.True(t, end.After(start) || end.Equal(start))
}

func TestEngine_DeleteTimeframe(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	open := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	data := SymbolData{
		Symbol:  "DELTF",
		Bundles: []Bundle{{Interval: Hour1, Candles: []Candle{hourCandle(open, "1")}}},
	}
	require.NoError(t, e.Save(ctx, data, SaveOptions{UseCompression: false}))

	removed, err := e.DeleteTimeframe("DELTF", Hour1, Local)
	require.NoError(t, err)
	assert.True(t, removed)

	has, err := e.HasData("DELTF", Hour1, Local)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestEngine_CheckAvailabilityReportsCoverage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	open := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	data := SymbolData{
		Symbol:  "COV",
		Bundles: []Bundle{{Interval: Hour1, Candles: []Candle{hourCandle(open, "1")}}},
	}
	require.NoError(t, e.Save(ctx, data, SaveOptions{UseCompression: false}))

	report, err := e.CheckAvailability("COV", Hour1, open, open.Add(time.Hour), Local)
	require.NoError(t, err)
	assert.Greater(t, report.Coverage, 0.0)
}

func TestEngine_StatsTracksActivity(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	open := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	data := SymbolData{
		Symbol:  "STAT",
		Bundles: []Bundle{{Interval: Hour1, Candles: []Candle{hourCandle(open, "1")}}},
	}
	require.NoError(t, e.Save(ctx, data, SaveOptions{UseCompression: false}))
	_, err := e.Load(ctx, LoadOptions{Symbol: "STAT", Timeframes: []Interval{Hour1}})
	require.NoError(t, err)

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.Saves)
	assert.Equal(t, int64(1), stats.Loads)
}
