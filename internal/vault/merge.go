package vault

import "github.com/islero/historyvault/internal/candle"

// mergeMonth linearly merges two open_time-sorted candle sequences per
// spec.md §4.9's authoritative per-month merge rule: when both sequences
// have a candle at the same OpenTime, the incoming candle wins; all
// other candles from either side pass through unchanged. Both existing
// and incoming must already be sorted ascending by OpenTime; the result
// is sorted ascending by OpenTime with unique timestamps.
func mergeMonth(existing, incoming []candle.Candle) []candle.Candle {
	out := make([]candle.Candle, 0, len(existing)+len(incoming))
	i, j := 0, 0
	for i < len(existing) && j < len(incoming) {
		e := existing[i]
		n := incoming[j]
		switch {
		case e.OpenTime.Before(n.OpenTime):
			out = append(out, e)
			i++
		case n.OpenTime.Before(e.OpenTime):
			out = append(out, n)
			j++
		default:
			out = append(out, n)
			i++
			j++
		}
	}
	out = append(out, existing[i:]...)
	out = append(out, incoming[j:]...)
	return out
}
