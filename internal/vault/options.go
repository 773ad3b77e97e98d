package vault

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/islero/historyvault/internal/compress"
	"github.com/islero/historyvault/internal/interval"
	"github.com/islero/historyvault/internal/pathresolver"
)

// defaultBufferSize is the advisory encode-buffer size hint of spec.md
// §6 (80 KiB).
const defaultBufferSize = 80 * 1024

// EngineOptions configures a new Engine (spec.md §6 "Engine" options).
// AutoCreateDirectories is a pointer so that "unset" (default true) is
// distinguishable from an explicit opt-out (false), the same tri-state
// treatment SaveOptions.Scope and LoadOptions.Scope already get.
type EngineOptions struct {
	DefaultScope          pathresolver.Scope `validate:"oneof=0 1"`
	BasePathOverride      string
	MaxParallelism        int `validate:"gte=0"`
	BufferSize            int `validate:"gte=0"`
	AutoCreateDirectories *bool
	DefaultTimeframes     []interval.Interval
	Logger                *zap.Logger
}

// withDefaults fills in zero-valued fields with the spec-mandated
// defaults, in the style of the teacher's *Config.withDefaults helpers.
func (o EngineOptions) withDefaults() EngineOptions {
	out := o
	if out.MaxParallelism <= 0 {
		out.MaxParallelism = runtime.NumCPU()
	}
	if out.BufferSize <= 0 {
		out.BufferSize = defaultBufferSize
	}
	if out.AutoCreateDirectories == nil {
		autoCreate := true
		out.AutoCreateDirectories = &autoCreate
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}

// SaveOptions configures one Save call (spec.md §6 "Save" options).
// Scope is a pointer so that "unset" (use the engine's DefaultScope)
// is distinguishable from an explicit choice of Local, the zero value.
type SaveOptions struct {
	UseCompression        bool
	CompressionLevel      compress.Level
	AllowPartialOverwrite bool
	Scope                 *pathresolver.Scope `validate:"omitempty,oneof=0 1"`
	TargetTimeframes      []interval.Interval
	AggregateFromSmallest bool
	BatchSize             int
}

// defaultSaveOptions mirrors spec.md §6's stated defaults
// (UseCompression: true, CompressionLevel: Optimal).
func defaultSaveOptions() SaveOptions {
	return SaveOptions{
		UseCompression:   true,
		CompressionLevel: compress.DefaultLevel,
	}
}

// LoadOptions configures one Load/LoadMultiple call (spec.md §6 "Load"
// options). Start/End/Scope are pointers because all three are optional
// per spec; a nil Scope defers to the engine's DefaultScope.
type LoadOptions struct {
	Symbol                string `validate:"required"`
	Start                 *time.Time
	End                   *time.Time
	Timeframes            []interval.Interval
	WarmupCount           int `validate:"gte=0"`
	Scope                 *pathresolver.Scope `validate:"omitempty,oneof=0 1"`
	AllowAggregation      bool
	IncludePartialCandles bool
}
