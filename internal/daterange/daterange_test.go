package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjacentTo_MonthBoundaryOneTickGap(t *testing.T) {
	june := Range{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 30, 23, 59, 59, 999999900, time.UTC),
	}
	july := Range{
		Start: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 31, 23, 59, 59, 999999900, time.UTC),
	}

	assert.True(t, june.AdjacentTo(july))
	assert.True(t, july.AdjacentTo(june))
}

func TestAdjacentTo_RealGapIsNotAdjacent(t *testing.T) {
	jan := Range{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 31, 23, 59, 59, 999999900, time.UTC),
	}
	mar := Range{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 31, 23, 59, 59, 999999900, time.UTC),
	}
	assert.False(t, jan.AdjacentTo(mar))
}

func TestMerge_AdjacentRangesCombine(t *testing.T) {
	june := Range{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 30, 23, 59, 59, 999999900, time.UTC),
	}
	july := Range{
		Start: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 31, 23, 59, 59, 999999900, time.UTC),
	}
	merged, err := june.Merge(july)
	require.NoError(t, err)
	assert.Equal(t, june.Start, merged.Start)
	assert.Equal(t, july.End, merged.End)
}

func TestMerge_NonAdjacentFails(t *testing.T) {
	jan := Range{Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)}
	mar := Range{Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)}
	_, err := jan.Merge(mar)
	assert.Error(t, err)
}

func TestMergeAll_AndGaps_MonthBoundaryIsNoGap(t *testing.T) {
	june := Range{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 30, 23, 59, 59, 999999900, time.UTC),
	}
	july := Range{
		Start: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 31, 23, 59, 59, 999999900, time.UTC),
	}
	bounds := Range{Start: june.Start, End: july.End}

	merged := MergeAll([]Range{july, june})
	require.Len(t, merged, 1)
	assert.Equal(t, june.Start, merged[0].Start)
	assert.Equal(t, july.End, merged[0].End)

	gaps := Gaps(bounds, merged)
	assert.Empty(t, gaps)
}

func TestGaps_RealGapCoversFebruary(t *testing.T) {
	jan := Range{Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 1, 31, 23, 59, 59, 999999900, time.UTC)}
	mar := Range{Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 3, 31, 23, 59, 59, 999999900, time.UTC)}
	bounds := Range{Start: jan.Start, End: mar.End}

	merged := MergeAll([]Range{jan, mar})
	require.Len(t, merged, 2)

	gaps := Gaps(bounds, merged)
	require.Len(t, gaps, 1)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), gaps[0].Start)
	assert.Equal(t, time.Date(2025, 2, 28, 23, 59, 59, 999999900, time.UTC), gaps[0].End)
}

func TestIntersect(t *testing.T) {
	a := Range{Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}
	b := Range{Start: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)}
	clipped, ok := a.Intersect(b)
	require.True(t, ok)
	assert.Equal(t, b.Start, clipped.Start)
	assert.Equal(t, a.End, clipped.End)

	c := Range{Start: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)}
	_, ok = a.Intersect(c)
	assert.False(t, ok)
}
