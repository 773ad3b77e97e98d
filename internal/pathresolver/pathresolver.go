// Package pathresolver implements the filesystem layout of spec.md
// C5/§6: mapping (scope, symbol, timeframe, year, month, compressed?) to
// a path, and enumerating existing monthly files.
package pathresolver

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/islero/historyvault/internal/interval"
)

// Scope selects which base directory a symbol's files live under.
type Scope int

const (
	Local Scope = iota
	Global
)

const vaultDirName = "HistoryVault"

// Resolver maps logical (scope, symbol, interval, year, month) keys to
// filesystem paths. A zero Resolver resolves Local to
// "./data/history-vault" and Global to the OS temp directory joined with
// "HistoryVault"; BasePathOverride, if set, supersedes both scopes.
type Resolver struct {
	BasePathOverride string
}

// New builds a Resolver with an optional base-path override (empty
// string means "no override").
func New(basePathOverride string) *Resolver {
	return &Resolver{BasePathOverride: basePathOverride}
}

// BaseDir resolves the base directory for scope, honoring
// BasePathOverride.
func (r *Resolver) BaseDir(scope Scope) string {
	if r.BasePathOverride != "" {
		return r.BasePathOverride
	}
	switch scope {
	case Global:
		return filepath.Join(os.TempDir(), vaultDirName)
	default:
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		return filepath.Join(cwd, "data", "history-vault")
	}
}

// illegalChars is the host filesystem's set of path-illegal filename
// characters. Windows forbids a wider set than POSIX (including every
// control character below 0x20, which Sanitize checks separately); both
// are replaced with '_' to keep a symbol usable as a single path element
// on any host.
var illegalChars = func() map[rune]struct{} {
	chars := "/\x00"
	if runtime.GOOS == "windows" {
		chars = "<>:\"/\\|?*\x00"
	}
	set := make(map[rune]struct{}, len(chars))
	for _, c := range chars {
		set[c] = struct{}{}
	}
	return set
}()

// Sanitize replaces every host-filesystem-illegal character in s with
// '_'. Characters outside the illegal set pass through verbatim.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if _, bad := illegalChars[r]; bad || (runtime.GOOS == "windows" && r < 0x20) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// extension returns the filename extension for a monthly file.
func extension(compressed bool) string {
	if compressed {
		return ".bin.gz"
	}
	return ".bin"
}

// SymbolDir returns the directory holding every interval's data for symbol.
func (r *Resolver) SymbolDir(scope Scope, symbol string) string {
	return filepath.Join(r.BaseDir(scope), Sanitize(symbol))
}

// IntervalDir returns the directory holding every monthly file for
// (symbol, interval).
func (r *Resolver) IntervalDir(scope Scope, symbol string, iv interval.Interval) string {
	code, _ := interval.ShortCode(iv)
	return filepath.Join(r.SymbolDir(scope, symbol), code)
}

// MonthPath returns the path for (symbol, interval, year, month) with
// the given compression setting.
func (r *Resolver) MonthPath(scope Scope, symbol string, iv interval.Interval, year, month int, compressed bool) string {
	filename := fmt.Sprintf("%02d%s", month, extension(compressed))
	return filepath.Join(r.IntervalDir(scope, symbol, iv), fmt.Sprintf("%04d", year), filename)
}

// FileRef describes one existing monthly file.
type FileRef struct {
	Year       int
	Month      int
	Compressed bool
	Path       string
}

// ListFiles enumerates every monthly file for (symbol, interval), sorted
// chronologically by (year, month). If both a compressed and
// uncompressed file exist for the same month (a transient state left by
// a crash between "write new" and "delete old", per spec.md §7), the
// compressed file is preferred deterministically.
func (r *Resolver) ListFiles(scope Scope, symbol string, iv interval.Interval) ([]FileRef, error) {
	dir := r.IntervalDir(scope, symbol, iv)
	years, err := readDirNames(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	byMonth := make(map[[2]int]FileRef)
	for _, yearName := range years {
		year, ok := parseYear(yearName)
		if !ok {
			continue
		}
		monthFiles, err := readDirNames(filepath.Join(dir, yearName))
		if err != nil {
			continue
		}
		for _, name := range monthFiles {
			month, compressed, ok := parseMonthFilename(name)
			if !ok {
				continue
			}
			key := [2]int{year, month}
			ref := FileRef{Year: year, Month: month, Compressed: compressed, Path: filepath.Join(dir, yearName, name)}
			if existing, found := byMonth[key]; !found || (compressed && !existing.Compressed) {
				byMonth[key] = ref
			}
		}
	}

	return sortedRefs(byMonth), nil
}

// ListFilesInRange enumerates only files whose (year, month) lies
// chronologically between (startYear, startMonth) and (endYear,
// endMonth), both inclusive.
func (r *Resolver) ListFilesInRange(scope Scope, symbol string, iv interval.Interval, startYear, startMonth, endYear, endMonth int) ([]FileRef, error) {
	all, err := r.ListFiles(scope, symbol, iv)
	if err != nil {
		return nil, err
	}
	var out []FileRef
	for _, ref := range all {
		if inMonthRange(ref.Year, ref.Month, startYear, startMonth, endYear, endMonth) {
			out = append(out, ref)
		}
	}
	return out, nil
}

func inMonthRange(year, month, startYear, startMonth, endYear, endMonth int) bool {
	ym := year*12 + month
	startYM := startYear*12 + startMonth
	endYM := endYear*12 + endMonth
	return ym >= startYM && ym <= endYM
}

// ListSymbols lists the top-level child directories of scope's base
// directory.
func (r *Resolver) ListSymbols(scope Scope) ([]string, error) {
	names, err := readDirNames(r.BaseDir(scope))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// ListIntervals lists the child directory names under a symbol's
// directory that successfully parse as a short code.
func (r *Resolver) ListIntervals(scope Scope, symbol string) ([]interval.Interval, error) {
	names, err := readDirNames(r.SymbolDir(scope, symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []interval.Interval
	for _, name := range names {
		if iv, ok := interval.ParseShortCode(name); ok {
			out = append(out, iv)
		}
	}
	return out, nil
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func parseYear(name string) (int, bool) {
	if len(name) != 4 {
		return 0, false
	}
	var year int
	if _, err := fmt.Sscanf(name, "%04d", &year); err != nil {
		return 0, false
	}
	return year, true
}

func parseMonthFilename(name string) (month int, compressed bool, ok bool) {
	base := name
	switch {
	case strings.HasSuffix(base, ".bin.gz"):
		compressed = true
		base = strings.TrimSuffix(base, ".bin.gz")
	case strings.HasSuffix(base, ".bin"):
		base = strings.TrimSuffix(base, ".bin")
	default:
		return 0, false, false
	}
	if len(base) != 2 {
		return 0, false, false
	}
	if _, err := fmt.Sscanf(base, "%02d", &month); err != nil {
		return 0, false, false
	}
	if month < 1 || month > 12 {
		return 0, false, false
	}
	return month, compressed, true
}

func sortedRefs(byMonth map[[2]int]FileRef) []FileRef {
	out := make([]FileRef, 0, len(byMonth))
	for _, ref := range byMonth {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
