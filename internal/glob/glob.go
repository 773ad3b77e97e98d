// Package glob implements the small case-insensitive glob matcher used
// by the symbol index (spec.md §4.8/§6): '*' matches zero or more
// characters, '?' matches exactly one, everything else matches itself
// case-insensitively.
package glob

import "unicode"

// Match reports whether s matches pattern under the rules above, using
// standard backtracking-on-star semantics.
func Match(pattern, s string) bool {
	p := []rune(pattern)
	t := []rune(s)
	return match(p, t)
}

func match(p, t []rune) bool {
	var pIdx, tIdx int
	var starIdx = -1
	var matchIdx int

	for tIdx < len(t) {
		switch {
		case pIdx < len(p) && (p[pIdx] == '?' || equalFold(p[pIdx], t[tIdx])):
			pIdx++
			tIdx++
		case pIdx < len(p) && p[pIdx] == '*':
			starIdx = pIdx
			matchIdx = tIdx
			pIdx++
		case starIdx != -1:
			pIdx = starIdx + 1
			matchIdx++
			tIdx = matchIdx
		default:
			return false
		}
	}
	for pIdx < len(p) && p[pIdx] == '*' {
		pIdx++
	}
	return pIdx == len(p)
}

func equalFold(a, b rune) bool {
	return unicode.ToLower(a) == unicode.ToLower(b)
}
