// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DeltaBuilder produces a delta archive from a base+new release archive
// pair. The zero value is ready to use.
type DeltaBuilder struct {
	// Metrics records build outcomes and durations when non-nil.
	Metrics *Metrics
	// Logger receives per-file warnings and a text-diff preview for
	// changed files that look text-like. Nil selects slog.Default().
	Logger *slog.Logger
}

// logger returns b.Logger, falling back to slog.Default().
func (b *DeltaBuilder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}

	return slog.Default()
}

// Build extracts baseArchivePath and newArchivePath into disjoint scratch
// trees, diffs every lib/-rooted file in the new tree against its base
// counterpart, and repacks the result into outPath. basePackageVersion must
// be ≤ newPackageVersion per loose SemVer ordering, and outPath must not
// already exist.
func (b *DeltaBuilder) Build(
	ctx context.Context,
	basePackageVersion, newPackageVersion Version,
	baseArchivePath, newArchivePath, outPath string,
	opts BuildOptions,
) (*BuildResult, error) {
	start := time.Now()

	if !LessOrEqual(basePackageVersion, newPackageVersion) {
		return nil, fmt.Errorf("%w: base=%s new=%s", ErrNonmonotonicVersion, basePackageVersion, newPackageVersion)
	}

	if _, err := os.Stat(outPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrOutputExists, outPath)
	}

	opts.applyDefaults()

	result, err := b.buildInto(ctx, baseArchivePath, newArchivePath, outPath, opts)
	outcome := "success"
	if err != nil {
		outcome = "failed"
	}
	b.Metrics.incBuildOutcome(outcome)
	b.Metrics.observeBuildDuration(time.Since(start))

	if err == nil {
		result.Duration = time.Since(start)
	}

	return result, err
}

// buildInto runs the build algorithm, aborting and removing any partially
// written output on failure. Both scratch trees are acquired through
// scopedExpand, nested, so a panic unwinding out of either the diff or the
// repack step still removes both scratch directories before propagating.
func (b *DeltaBuilder) buildInto(
	ctx context.Context,
	baseArchivePath, newArchivePath, outPath string,
	opts BuildOptions,
) (result *BuildResult, err error) {
	defer func() {
		if err != nil {
			_ = os.Remove(outPath)
		}
	}()

	err = scopedExpand(ctx, baseArchivePath, func(baseDir string) error {
		return scopedExpand(ctx, newArchivePath, func(newDir string) error {
			r, innerErr := b.diffAndRepack(ctx, baseDir, newDir, outPath, opts)
			if innerErr != nil {
				return innerErr
			}

			result = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// diffAndRepack runs the per-file classification pass over baseDir/newDir
// and repacks newDir into outPath.
func (b *DeltaBuilder) diffAndRepack(ctx context.Context, baseDir, newDir, outPath string, opts BuildOptions) (*BuildResult, error) {
	baseLibRoot := filepath.Join(baseDir, "lib")
	newLibRoot := filepath.Join(newDir, "lib")

	index, err := newBaseIndex(baseLibRoot)
	if err != nil {
		return nil, err
	}

	items, err := collectNewWorkItems(newLibRoot)
	if err != nil {
		return nil, err
	}

	counters := &atomicCounters{}
	poller := newCounterPoller(counters, opts.ProgressPollInterval, opts.OnProgress)

	pollCtx, cancelPoll := context.WithCancel(ctx)
	var pollWg sync.WaitGroup
	pollWg.Add(1)
	go func() {
		defer pollWg.Done()
		poller.run(pollCtx)
	}()

	buildErr := b.runWorkerPool(ctx, items, index, baseLibRoot, newLibRoot, counters, opts)
	cancelPoll()
	pollWg.Wait()

	if buildErr != nil {
		return nil, buildErr
	}

	snapshot := counters.snapshot()
	removedCount := int64(index.len())
	snapshot.Removed = removedCount

	if err := augmentContentTypes(newDir); err != nil {
		return nil, err
	}

	if err := Repack(ctx, newDir, outPath); err != nil {
		return nil, err
	}

	return &BuildResult{
		NewCount:     snapshot.New,
		ChangedCount: snapshot.Changed,
		SameCount:    snapshot.Same,
		RemovedCount: removedCount,
		Warnings:     snapshot.Warnings,
	}, nil
}

// runWorkerPool dispatches every work item to a bounded pool of workers and
// returns the first error encountered, if any, after draining the pool.
func (b *DeltaBuilder) runWorkerPool(
	ctx context.Context,
	items []WorkItem,
	index *baseIndex,
	baseLibRoot, newLibRoot string,
	counters *atomicCounters,
	opts BuildOptions,
) error {
	if len(items) == 0 {
		return nil
	}

	taskCh := make(chan WorkItem, len(items))
	errCh := make(chan error, len(items))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < opts.MaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for task := range taskCh {
				attempt := 0
				err := withRetry(ctx, opts.RetryAttempts, opts.RetryBackoff, func() error {
					if attempt > 0 {
						counters.incWarnings()
						b.Metrics.incFileRetry()
					}
					attempt++
					return b.processWorkItem(task, index, counters)
				})
				cancelled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
				if err != nil && !cancelled {
					b.Metrics.incRetryExhausted()
					b.logger().Warn("delta build: file operation failed after retries",
						"path", task.RelativePath, "error", err)
				}

				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
			close(taskCh)
			wg.Wait()
			return ctx.Err()
		case taskCh <- item:
		}
	}

	close(taskCh)
	wg.Wait()
	close(errCh)

	var first error
	for err := range errCh {
		if err != nil && first == nil {
			first = err
		}
	}

	return first
}

// processWorkItem classifies one file against the base index and writes
// whatever sidecars its classification requires. On any failure it cleans
// up partial sidecars for this path before returning, so a retry starts clean.
func (b *DeltaBuilder) processWorkItem(item WorkItem, index *baseIndex, counters *atomicCounters) (err error) {
	defer func() {
		if err != nil {
			removePartialSidecars(item.NewAbsPath)
		}
	}()

	baseAbsPath, found := index.lookup(item.RelativePath)
	if !found {
		counters.incNew()
		counters.incProcessed()
		b.Metrics.incFileResult(ClassificationNew)
		return nil
	}

	newBytes, err := os.ReadFile(item.NewAbsPath)
	if err != nil {
		return fmt.Errorf("%w: read new %s: %v", ErrIOFailed, item.RelativePath, err)
	}

	baseBytes, err := os.ReadFile(baseAbsPath)
	if err != nil {
		return fmt.Errorf("%w: read base %s: %v", ErrIOFailed, item.RelativePath, err)
	}

	if bytes.Equal(newBytes, baseBytes) {
		if err := writeSameMarkers(item.NewAbsPath); err != nil {
			return err
		}

		index.removeIfPresent(item.RelativePath)
		counters.incSame()
		counters.incProcessed()
		b.Metrics.incFileResult(ClassificationSame)
		return nil
	}

	if err := writeChangedSidecars(item.NewAbsPath, item.RelativePath, baseBytes, newBytes); err != nil {
		return err
	}

	if isTextLikePreviewCandidate(baseBytes) && isTextLikePreviewCandidate(newBytes) {
		if preview := unifiedDiffPreview(item.RelativePath, baseBytes, newBytes); preview != "" {
			b.logger().Debug("delta build: changed file preview",
				"path", item.RelativePath, "diff", preview)
		}
	}

	index.removeIfPresent(item.RelativePath)
	counters.incChanged()
	counters.incProcessed()
	b.Metrics.incFileResult(ClassificationChanged)
	return nil
}

// writeSameMarkers writes empty .diff and .shasum sidecars and deletes the
// source payload.
func writeSameMarkers(newAbsPath string) error {
	if err := os.WriteFile(newAbsPath+suffixDiff, nil, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailed, newAbsPath+suffixDiff, err)
	}
	if err := os.WriteFile(newAbsPath+suffixShasum, nil, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailed, newAbsPath+suffixShasum, err)
	}
	if err := os.Remove(newAbsPath); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrIOFailed, newAbsPath, err)
	}

	return nil
}

// writeChangedSidecars writes the bsdiff patch and ReleaseEntry shasum of
// the new bytes, then deletes the source payload.
func writeChangedSidecars(newAbsPath, relativePath string, baseBytes, newBytes []byte) error {
	patch, err := createBSDiffPatch(baseBytes, newBytes)
	if err != nil {
		return &PatchError{RelPath: relativePath, Algorithm: "bsdiff", Err: err}
	}

	if err := os.WriteFile(newAbsPath+suffixBSDiff, patch, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailed, newAbsPath+suffixBSDiff, err)
	}

	entry, err := GenerateReleaseEntry(bytes.NewReader(newBytes), filepath.Base(relativePath))
	if err != nil {
		return err
	}

	if err := os.WriteFile(newAbsPath+suffixShasum, []byte(entry.Serialize()), 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailed, newAbsPath+suffixShasum, err)
	}

	if err := os.Remove(newAbsPath); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrIOFailed, newAbsPath, err)
	}

	return nil
}

// removePartialSidecars best-effort removes any sidecar files this worker
// may have started writing for newAbsPath before failing.
func removePartialSidecars(newAbsPath string) {
	for _, suffix := range []string{suffixBSDiff, suffixDiff, suffixShasum} {
		_ = os.Remove(newAbsPath + suffix)
	}
}

// collectNewWorkItems walks newLibRoot and builds one WorkItem per regular
// file found beneath it.
func collectNewWorkItems(newLibRoot string) ([]WorkItem, error) {
	var items []WorkItem

	err := walkRegularFiles(newLibRoot, func(absPath, relSlash string) error {
		items = append(items, WorkItem{
			RelativePath: relSlash,
			NewAbsPath:   absPath,
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}
