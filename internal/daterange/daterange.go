// Package daterange implements the closed date-range primitive (spec.md
// C2): overlap, adjacency, intersection and merge over wall-clock
// instants, with the ±1-tick adjacency tolerance the month-boundary
// scenarios of spec.md §4.7/§8 depend on.
package daterange

import (
	"sort"
	"time"

	"github.com/islero/historyvault/internal/vaulterrors"
)

// Tick is the 100-nanosecond quantum used throughout the record format
// for close-time arithmetic and adjacency checks.
const Tick = 100 * time.Nanosecond

// Range is a closed interval [Start, End] of instants.
type Range struct {
	Start time.Time
	End   time.Time
}

// New builds a Range from start and end. It does not check that end is
// not before start.
func New(start, end time.Time) Range {
	return Range{Start: start, End: end}
}

// Contains reports whether t falls within the closed range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Overlaps reports whether r and other share at least one instant.
func (r Range) Overlaps(other Range) bool {
	return !r.End.Before(other.Start) && !other.End.Before(r.Start)
}

// AdjacentTo reports whether the gap between r and other, in either
// direction, is 0 or 1 tick. This tolerant rule (not strict adjacency) is
// load-bearing: monthly files end at 23:59:59.9999999 and the next
// begins at 00:00:00.0000000, exactly one tick apart.
func (r Range) AdjacentTo(other Range) bool {
	if r.Overlaps(other) {
		return true
	}
	var gap time.Duration
	if r.End.Before(other.Start) {
		gap = other.Start.Sub(r.End)
	} else {
		gap = r.Start.Sub(other.End)
	}
	return gap >= 0 && gap <= Tick
}

// Intersect returns the overlapping sub-range of r and other, and false
// if they do not overlap.
func (r Range) Intersect(other Range) (Range, bool) {
	if !r.Overlaps(other) {
		return Range{}, false
	}
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	return Range{Start: start, End: end}, true
}

// Merge returns the union of r and other as a single range, taking the
// min start and max end. It fails if the two ranges neither overlap nor
// are adjacent.
func (r Range) Merge(other Range) (Range, error) {
	if !r.Overlaps(other) && !r.AdjacentTo(other) {
		return Range{}, vaulterrors.ErrRangeNotMergeable
	}
	start := r.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := r.End
	if other.End.After(end) {
		end = other.End
	}
	return Range{Start: start, End: end}, nil
}

// Duration returns the wall-clock span covered by r.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// MergeAll sorts ranges by Start and folds every overlapping or adjacent
// run into a single merged range, returning the result sorted
// ascending by Start. The input slice is not mutated.
func MergeAll(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := make([]Range, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if combined, err := current.Merge(next); err == nil {
			current = combined
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)
	return merged
}

// Gaps returns the complement of the merged available ranges within
// bounds: the prefix gap (if any), inter-run gaps whose tick distance
// exceeds one tick, and the suffix gap (if any). available is assumed
// already merged and sorted (as produced by MergeAll).
func Gaps(bounds Range, available []Range) []Range {
	var gaps []Range
	cursor := bounds.Start
	for _, r := range available {
		clipped, ok := r.Intersect(bounds)
		if !ok {
			continue
		}
		if clipped.Start.Sub(cursor) >= Tick {
			gaps = append(gaps, Range{Start: cursor, End: clipped.Start.Add(-Tick)})
		}
		if clipped.End.After(cursor) {
			cursor = clipped.End.Add(Tick)
		}
	}
	if !cursor.After(bounds.End) {
		gaps = append(gaps, Range{Start: cursor, End: bounds.End})
	}
	return gaps
}
