// Package vaulterrors collects the sentinel errors surfaced by every
// history-vault component, following the flat var-block-of-sentinels
// style used across the codebase's service packages.
package vaulterrors

import (
	"errors"
	"io/fs"
	"os"
)

var (
	// ErrInvalidArgument is returned by vault.New for engine options that
	// fail validation, by Candle.Validate, and by the codec for a decimal
	// whose magnitude does not fit in 96 bits. Save and Load report
	// option validation failures with the validator's own error, Save
	// does not reject an empty symbol, and incompatible aggregation pairs
	// yield ErrAggregationIncompatible instead.
	ErrInvalidArgument = errors.New("historyvault: invalid argument")

	// Decode failures (record codec, §4.3).
	ErrBadMagic           = errors.New("historyvault: bad magic bytes")
	ErrUnsupportedVersion = errors.New("historyvault: unsupported version")
	ErrTruncated          = errors.New("historyvault: truncated record data")
	ErrNegativeCount      = errors.New("historyvault: negative record count")

	// ErrFilesystem is the sentinel for host I/O failures. The engine
	// returns the os package's own errors unwrapped; IsFilesystemError
	// recognises both.
	ErrFilesystem = errors.New("historyvault: filesystem error")

	// ErrDirectoryMissing is returned by WriteFileAtomic when the target
	// directory does not exist and EngineOptions.AutoCreateDirectories
	// is false.
	ErrDirectoryMissing = errors.New("historyvault: target directory does not exist")

	// ErrCancelled names the cooperative-cancellation failure kind. The
	// engine itself does not return it: at its cancellation checks it
	// returns the context's own error (context.Canceled or
	// context.DeadlineExceeded).
	ErrCancelled = errors.New("historyvault: operation cancelled")

	// ErrAggregationIncompatible is returned when interval.CanAggregate
	// reports false for a requested source/target pair.
	ErrAggregationIncompatible = errors.New("historyvault: intervals are not aggregation-compatible")

	// ErrNotDurationBased is returned by duration-based Interval
	// operations on Tick/Custom.
	ErrNotDurationBased = errors.New("historyvault: interval has no fixed duration")

	// ErrEmptySequence is returned by operations that require at least
	// one candle (e.g. AggregateToSingle).
	ErrEmptySequence = errors.New("historyvault: candle sequence is empty")

	// ErrRangeNotMergeable is returned by Range.Merge when the two
	// ranges neither overlap nor are adjacent.
	ErrRangeNotMergeable = errors.New("historyvault: ranges are not overlapping or adjacent")

	// ErrEngineClosed is returned by every Engine method other than Stats
	// (which keeps returning the counters) when invoked after Close; per
	// spec.md §5 this state is technically undefined, but we surface a
	// stable sentinel rather than panicking or racing.
	ErrEngineClosed = errors.New("historyvault: engine is closed")
)

// IsDecodeError reports whether err is one of the unrecoverable record
// decode failures defined by §4.3/§7.
func IsDecodeError(err error) bool {
	switch {
	case errors.Is(err, ErrBadMagic),
		errors.Is(err, ErrUnsupportedVersion),
		errors.Is(err, ErrTruncated),
		errors.Is(err, ErrNegativeCount):
		return true
	default:
		return false
	}
}

// IsFilesystemError reports whether err originates from a host I/O
// failure (as opposed to a validation or decode failure).
func IsFilesystemError(err error) bool {
	if errors.Is(err, ErrFilesystem) {
		return true
	}
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	var sysErr *os.SyscallError
	return errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.As(err, &sysErr)
}
