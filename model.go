// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import "time"

// Default engine tuning values.
const (
	// DefaultMaxWorkers bounds build-side parallelism when the caller leaves
	// MaxWorkers unset: clamp(cpuCount-1, 1, 8).
	DefaultMaxWorkers = 8
	// DefaultRetryAttempts is the suggested per-file retry ceiling.
	DefaultRetryAttempts = 3
	// DefaultRetryBackoff is the fixed pause between retry attempts.
	DefaultRetryBackoff = 200 * time.Millisecond
	// DefaultProgressPollInterval is how often the build-side counter poller wakes.
	DefaultProgressPollInterval = 2 * time.Second
)

// libRoot is the archive-relative directory whose contents encode per-file
// delta operations. Everything outside it is carried through verbatim.
const libRoot = "lib/"

// Classification describes how one file compares between base and new trees.
type Classification uint8

// Per-file classifications assigned during build.
const (
	// ClassificationUnknown is the zero value.
	ClassificationUnknown Classification = iota
	// ClassificationNew means the file has no counterpart in the base tree.
	ClassificationNew
	// ClassificationSame means the file is byte-identical to its base counterpart.
	ClassificationSame
	// ClassificationChanged means the file differs from its base counterpart.
	ClassificationChanged
)

// String renders the classification for logging and inspection output.
func (c Classification) String() string {
	switch c {
	case ClassificationNew:
		return "new"
	case ClassificationSame:
		return "same"
	case ClassificationChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// WorkItem is the transient per-file build unit dispatched to one worker.
type WorkItem struct {
	// RelativePath is the file's path relative to the lib/ root, slash-separated.
	RelativePath string
	// NewAbsPath is the absolute path of the file inside the new scratch tree.
	NewAbsPath string
	// BaseAbsPath is the absolute path of the matching base-tree file. Build
	// leaves it empty; workers look the base file up in the base index.
	BaseAbsPath string
	// Classification is not set by Build and stays ClassificationUnknown;
	// per-file outcomes are tallied in BuildCounters and BuildResult.
	Classification Classification
}

// BuildCounters tracks build-side progress atomically; a poller reads it on
// a timer and emits a line only when Processed has advanced since the last read.
type BuildCounters struct {
	Processed int64
	New       int64
	Changed   int64
	Same      int64
	Removed   int64
	Warnings  int64
}

// BuildResult summarizes a completed Build call.
type BuildResult struct {
	// NewCount is the number of files present only in the new tree.
	NewCount int64
	// ChangedCount is the number of files patched via a sidecar diff.
	ChangedCount int64
	// SameCount is the number of files identical between base and new.
	SameCount int64
	// RemovedCount is the number of base-tree files absent from the new tree (informational only).
	RemovedCount int64
	// Warnings is the number of per-file retries performed: each failed attempt
	// that was followed by another attempt counts once.
	Warnings int64
	// Duration is wall-clock time spent inside Build.
	Duration time.Duration
}

// BuildOptions configures DeltaBuilder.Build.
type BuildOptions struct {
	// OnProgress receives a counter snapshot at most once per poll interval,
	// and only when Processed has advanced since the previous call.
	OnProgress func(BuildCounters)
	// MaxWorkers bounds per-file parallelism. Zero selects clamp(cpuCount-1, 1, 8).
	MaxWorkers int
	// RetryAttempts bounds per-file retry attempts. Zero selects DefaultRetryAttempts.
	RetryAttempts int
	// RetryBackoff is the fixed pause between retry attempts. Zero selects DefaultRetryBackoff.
	RetryBackoff time.Duration
	// ProgressPollInterval overrides the counter poll cadence. Zero selects DefaultProgressPollInterval.
	ProgressPollInterval time.Duration
}

// applyDefaults fills zero-valued build options with defaults.
func (opts *BuildOptions) applyDefaults() {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = clampInt(defaultCPUParallelism(), 1, DefaultMaxWorkers)
	}

	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = DefaultRetryAttempts
	}

	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}

	if opts.ProgressPollInterval <= 0 {
		opts.ProgressPollInterval = DefaultProgressPollInterval
	}
}

// ApplyOptions configures DeltaApplier.Apply.
type ApplyOptions struct {
	// OnProgress receives a monotonically non-decreasing percent in [0,100].
	OnProgress func(percent int)
}

// clampInt clamps v to the inclusive range [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
