// Package interval implements the candle interval catalog (spec.md C1):
// the nineteen interval variants, their durations, short codes,
// alignment rule, and aggregation-compatibility rule.
package interval

import (
	"time"

	"github.com/islero/historyvault/internal/vaulterrors"
)

// Interval is a tagged enumeration of candle spans. The zero value is
// Tick, a zero-duration sentinel.
type Interval int

const (
	Tick Interval = iota
	Second
	Minute1
	Minute3
	Minute5
	Minute10
	Minute15
	Minute30
	Hour1
	Hour2
	Hour4
	Hour6
	Hour8
	Hour12
	Day1
	Day3
	Week1
	Month1
	Custom
)

// seconds holds the fixed duration, in seconds, of every standard
// interval. Tick and Custom have no fixed duration and are never read
// from this table directly (see Seconds).
var seconds = map[Interval]int64{
	Second:   1,
	Minute1:  60,
	Minute3:  180,
	Minute5:  300,
	Minute10: 600,
	Minute15: 900,
	Minute30: 1800,
	Hour1:    3600,
	Hour2:    7200,
	Hour4:    14400,
	Hour6:    21600,
	Hour8:    28800,
	Hour12:   43200,
	Day1:     86400,
	Day3:     259200,
	Week1:    604800,
	Month1:   2592000,
}

// shortCodes is the case-sensitive, bidirectional symbol-directory-name
// table of spec.md §6. Minute1 ("1m") and Month1 ("1M") differ only in
// case and must never be resolved with a case-insensitive compare.
var shortCodes = map[Interval]string{
	Tick:     "tick",
	Second:   "1s",
	Minute1:  "1m",
	Minute3:  "3m",
	Minute5:  "5m",
	Minute10: "10m",
	Minute15: "15m",
	Minute30: "30m",
	Hour1:    "1h",
	Hour2:    "2h",
	Hour4:    "4h",
	Hour6:    "6h",
	Hour8:    "8h",
	Hour12:   "12h",
	Day1:     "1d",
	Day3:     "3d",
	Week1:    "1w",
	Month1:   "1M",
	Custom:   "custom",
}

var codeToInterval = func() map[string]Interval {
	m := make(map[string]Interval, len(shortCodes))
	for iv, code := range shortCodes {
		m[code] = iv
	}
	return m
}()

// standardOrder lists the seventeen standard intervals (excluding Tick
// and Custom) smallest-duration first.
var standardOrder = []Interval{
	Second, Minute1, Minute3, Minute5, Minute10, Minute15, Minute30,
	Hour1, Hour2, Hour4, Hour6, Hour8, Hour12, Day1, Day3, Week1, Month1,
}

// Standard returns the ordered slice of standard intervals, smallest
// first. The returned slice is a copy; callers may mutate it freely.
func Standard() []Interval {
	out := make([]Interval, len(standardOrder))
	copy(out, standardOrder)
	return out
}

// ShortCode returns the case-sensitive directory-name code for iv, and
// false if iv is not a known variant.
func ShortCode(iv Interval) (string, bool) {
	code, ok := shortCodes[iv]
	return code, ok
}

// String implements fmt.Stringer using the short code, or "unknown" for
// an out-of-range value.
func (iv Interval) String() string {
	if code, ok := shortCodes[iv]; ok {
		return code
	}
	return "unknown"
}

// ParseShortCode is the case-sensitive inverse of ShortCode.
func ParseShortCode(code string) (Interval, bool) {
	iv, ok := codeToInterval[code]
	return iv, ok
}

// isStandard reports whether iv has a fixed, table-driven duration.
func isStandard(iv Interval) bool {
	_, ok := seconds[iv]
	return ok
}

// Seconds returns the fixed duration of iv in seconds. Tick and Custom
// return vaulterrors.ErrNotDurationBased.
func Seconds(iv Interval) (int64, error) {
	if s, ok := seconds[iv]; ok {
		return s, nil
	}
	return 0, vaulterrors.ErrNotDurationBased
}

// Duration is Seconds as a time.Duration.
func Duration(iv Interval) (time.Duration, error) {
	s, err := Seconds(iv)
	if err != nil {
		return 0, err
	}
	return time.Duration(s) * time.Second, nil
}

// Align rounds t down to the nearest multiple of iv's duration measured
// from the Unix epoch.
func Align(iv Interval, t time.Time) (time.Time, error) {
	d, err := Duration(iv)
	if err != nil {
		return time.Time{}, err
	}
	unixNanos := t.UnixNano()
	dNanos := d.Nanoseconds()
	aligned := (unixNanos / dNanos) * dNanos
	if unixNanos < 0 && unixNanos%dNanos != 0 {
		aligned -= dNanos
	}
	return time.Unix(0, aligned).UTC(), nil
}

// CanAggregate reports whether a finer interval a can be aggregated into
// a coarser interval b: both must be standard, a's duration must be
// strictly less than b's, and b's duration must be an exact multiple of
// a's.
func CanAggregate(a, b Interval) bool {
	if !isStandard(a) || !isStandard(b) {
		return false
	}
	sa, sb := seconds[a], seconds[b]
	if sa >= sb {
		return false
	}
	return sb%sa == 0
}

// Factor returns duration(b)/duration(a) for an aggregation-compatible
// pair, or 0 with an error if the pair is incompatible.
func Factor(a, b Interval) (int64, error) {
	if !CanAggregate(a, b) {
		return 0, vaulterrors.ErrAggregationIncompatible
	}
	return seconds[b] / seconds[a], nil
}

// ExpectedCount returns ceil((end-start) seconds / duration(iv) seconds).
// Tick and Custom have no fixed duration and yield
// vaulterrors.ErrNotDurationBased.
func ExpectedCount(iv Interval, start, end time.Time) (int64, error) {
	d, err := Duration(iv)
	if err != nil {
		return 0, err
	}
	if !end.After(start) {
		return 0, nil
	}
	diff := end.Sub(start).Nanoseconds()
	step := d.Nanoseconds()
	return (diff + step - 1) / step, nil
}
