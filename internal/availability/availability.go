// Package availability implements the header-only metadata scan of
// spec.md C7: covered ranges, gaps, data bounds, and coverage ratio,
// computed by reading only file headers.
package availability

import (
	"math"
	"os"
	"time"

	"github.com/islero/historyvault/internal/codec"
	"github.com/islero/historyvault/internal/compress"
	"github.com/islero/historyvault/internal/daterange"
	"github.com/islero/historyvault/internal/interval"
	"github.com/islero/historyvault/internal/pathresolver"
)

// headerReader is the file-I/O abstraction seam sanctioned by spec.md
// §9: tests substitute a fake instead of touching the real filesystem.
type headerReader interface {
	ReadHeader(path string, compressed bool) (codec.Header, error)
}

// osHeaderReader reads a file's header from the real filesystem,
// decompressing first when required (spec.md §4.7: "reading headers
// from compressed files requires a full decompression of the payload").
type osHeaderReader struct{}

func (osHeaderReader) ReadHeader(path string, compressed bool) (codec.Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return codec.Header{}, err
	}
	if compressed {
		data, err = compress.Decompress(data)
		if err != nil {
			return codec.Header{}, err
		}
	}
	return codec.DecodeHeaderOnly(data)
}

// Bounds reports the earliest first-timestamp and latest last-timestamp
// across every existing file for (symbol, interval, scope), read from
// only the chronologically-first and chronologically-last files. It
// returns ok=false if no files exist or both headers turn out empty.
func Bounds(resolver *pathresolver.Resolver, scope pathresolver.Scope, symbol string, iv interval.Interval) (start, end time.Time, ok bool, err error) {
	return bounds(osHeaderReader{}, resolver, scope, symbol, iv)
}

func bounds(reader headerReader, resolver *pathresolver.Resolver, scope pathresolver.Scope, symbol string, iv interval.Interval) (time.Time, time.Time, bool, error) {
	files, err := resolver.ListFiles(scope, symbol, iv)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if len(files) == 0 {
		return time.Time{}, time.Time{}, false, nil
	}

	first := files[0]
	last := files[len(files)-1]

	firstHeader, err := reader.ReadHeader(first.Path, first.Compressed)
	if err != nil {
		firstHeader = codec.Header{}
	}
	lastHeader := firstHeader
	if last.Path != first.Path {
		lastHeader, err = reader.ReadHeader(last.Path, last.Compressed)
		if err != nil {
			lastHeader = codec.Header{}
		}
	}

	if firstHeader.RecordCount == 0 && lastHeader.RecordCount == 0 {
		return time.Time{}, time.Time{}, false, nil
	}
	return firstHeader.FirstOpenTime(), lastHeader.LastCloseTime(), true, nil
}

// Report is the availability report of spec.md §3: query bounds,
// covered sub-ranges (merged), missing sub-ranges (the complement within
// the query), estimated candle count, and expected candle count.
type Report struct {
	Query           daterange.Range
	Available       []daterange.Range
	Missing         []daterange.Range
	EstimatedCount  int64
	ExpectedCount   int64
	Coverage        float64
}

// Check computes the availability report for (symbol, interval, scope)
// over [start, end], per spec.md §4.7.
func Check(resolver *pathresolver.Resolver, scope pathresolver.Scope, symbol string, iv interval.Interval, start, end time.Time) (Report, error) {
	return check(osHeaderReader{}, resolver, scope, symbol, iv, start, end)
}

func check(reader headerReader, resolver *pathresolver.Resolver, scope pathresolver.Scope, symbol string, iv interval.Interval, start, end time.Time) (Report, error) {
	query := daterange.Range{Start: start, End: end}

	files, err := resolver.ListFilesInRange(scope, symbol, iv, start.Year(), int(start.Month()), end.Year(), int(end.Month()))
	if err != nil {
		return Report{}, err
	}

	var available []daterange.Range
	var estimated int64

	for _, f := range files {
		header, err := reader.ReadHeader(f.Path, f.Compressed)
		if err != nil {
			// Propagation policy: header-only reads swallow errors and
			// treat the file as having no usable header; the scan
			// continues across other files.
			continue
		}
		if header.RecordCount == 0 {
			continue
		}

		fileRange := daterange.Range{Start: header.FirstOpenTime(), End: header.LastCloseTime()}
		clipped, ok := fileRange.Intersect(query)
		if !ok {
			continue
		}
		available = append(available, clipped)

		originalDuration := fileRange.Duration().Seconds()
		clippedDuration := clipped.Duration().Seconds()
		if originalDuration > 0 {
			estimated += int64(math.Ceil(float64(header.RecordCount) * clippedDuration / originalDuration))
		} else {
			estimated += header.RecordCount
		}
	}

	merged := daterange.MergeAll(available)
	missing := daterange.Gaps(query, merged)

	var expected int64
	if exp, err := interval.ExpectedCount(iv, start, end); err == nil {
		expected = exp
	}

	var coverage float64
	if end.After(start) {
		var coveredSeconds float64
		for _, r := range merged {
			coveredSeconds += r.Duration().Seconds()
		}
		coverage = coveredSeconds / query.Duration().Seconds()
		if coverage > 1 {
			coverage = 1
		}
		if coverage < 0 {
			coverage = 0
		}
	}

	return Report{
		Query:          query,
		Available:      merged,
		Missing:        missing,
		EstimatedCount: estimated,
		ExpectedCount:  expected,
		Coverage:       coverage,
	}, nil
}
