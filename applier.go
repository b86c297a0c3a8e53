// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DeltaApplier reconstructs a full archive by applying a delta onto a base
// archive, verifying each patched file. The zero value is ready to use.
type DeltaApplier struct {
	// Metrics records apply outcomes and durations when non-nil.
	Metrics *Metrics
	// Logger receives checksum-failure warnings. Nil selects slog.Default().
	Logger *slog.Logger
}

// logger returns a.Logger, falling back to slog.Default().
func (a *DeltaApplier) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}

	return slog.Default()
}

// Apply reconstructs outPath from baseArchivePath and deltaArchivePath.
// outPath must not already exist.
func (a *DeltaApplier) Apply(ctx context.Context, baseArchivePath, deltaArchivePath, outPath string, opts ApplyOptions) (err error) {
	start := time.Now()

	if _, statErr := os.Stat(outPath); statErr == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, outPath)
	}

	reporter := newProgressReporter(opts.OnProgress)

	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failed"
			_ = os.Remove(outPath)
		}
		a.Metrics.incApplyOutcome(outcome)
		a.Metrics.observeApplyDuration(time.Since(start))
	}()

	err = scopedExpand(ctx, deltaArchivePath, func(deltaDir string) error {
		reporter.report(25)

		return scopedExpand(ctx, baseArchivePath, func(workDir string) error {
			reporter.report(50)
			return a.applyWithinScratch(ctx, deltaDir, workDir, outPath, reporter)
		})
	})

	return err
}

// applyWithinScratch runs the classify/patch/repack sequence once both the
// delta and base archives have been expanded into scratch directories.
// workDir is mutated in place (patches applied, unvisited files deleted)
// and then repacked into outPath.
func (a *DeltaApplier) applyWithinScratch(ctx context.Context, deltaDir, workDir, outPath string, reporter *progressReporter) error {
	relPaths, err := listAllRelativePaths(deltaDir)
	if err != nil {
		return err
	}

	bsdiffCanonical := make(map[string]struct{})
	for _, r := range relPaths {
		if !isUnderLibRoot(r) {
			continue
		}
		kind, canonical := classifySidecar(r)
		if kind == sidecarKindBSDiff {
			bsdiffCanonical[canonical] = struct{}{}
		}
	}

	visited := make(map[string]struct{})
	for _, r := range relPaths {
		if !isUnderLibRoot(r) {
			continue
		}

		kind, canonical := classifySidecar(r)
		if kind == sidecarKindShasum {
			continue
		}
		if kind == sidecarKindDiff {
			if _, hasBSDiff := bsdiffCanonical[canonical]; hasBSDiff {
				continue
			}
		}

		visited[canonical] = struct{}{}

		if err := a.applyLibEntry(ctx, deltaDir, workDir, r, kind, canonical); err != nil {
			return err
		}
	}
	reporter.report(75)

	if err := deleteUnvisitedLibFiles(workDir, visited); err != nil {
		return err
	}
	reporter.report(80)

	for _, r := range relPaths {
		if isUnderLibRoot(r) {
			continue
		}

		if err := copyMetadataFile(deltaDir, workDir, r); err != nil {
			return err
		}
	}

	if err := Repack(ctx, workDir, outPath); err != nil {
		return err
	}
	reporter.report(100)

	return nil
}

// applyLibEntry dispatches one lib/ delta entry to the copy or patch path.
func (a *DeltaApplier) applyLibEntry(ctx context.Context, deltaDir, workDir, relPath string, kind sidecarKind, canonical string) error {
	// canonical is lowercased for visited-set bookkeeping only; filesystem
	// operations use the entry's own casing with the patch suffix stripped.
	relTarget := relPath
	switch kind {
	case sidecarKindBSDiff:
		relTarget = strings.TrimSuffix(relPath, suffixBSDiff)
	case sidecarKindDiff:
		relTarget = strings.TrimSuffix(relPath, suffixDiff)
	}

	deltaAbsPath := filepath.Join(deltaDir, filepath.FromSlash(relPath))
	targetAbsPath := filepath.Join(workDir, filepath.FromSlash(relTarget))

	if kind == sidecarKindPlain {
		if err := os.MkdirAll(filepath.Dir(targetAbsPath), 0o750); err != nil {
			return fmt.Errorf("%w: create dir for %s: %v", ErrIOFailed, canonical, err)
		}

		return copyFileAtomic(deltaAbsPath, targetAbsPath)
	}

	info, err := os.Stat(deltaAbsPath)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrIOFailed, deltaAbsPath, err)
	}

	if info.Size() == 0 {
		return nil
	}

	tmpPath := targetAbsPath + ".deltapkg-tmp"
	if err := applyPatchBySuffix(kind, deltaAbsPath, targetAbsPath, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := verifyPatchedFile(deltaDir, relTarget, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		a.Metrics.incChecksumFailure()
		a.logger().Warn("delta apply: checksum verification failed", "path", canonical, "error", err)
		return err
	}

	if err := os.Rename(tmpPath, targetAbsPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: install patched %s: %v", ErrIOFailed, canonical, err)
	}

	return nil
}

// verifyPatchedFile reads the companion .shasum sidecar from deltaDir,
// computes a ReleaseEntry over tmpPath, and compares size and sha1.
func verifyPatchedFile(deltaDir, canonical, tmpPath string) error {
	shasumPath := filepath.Join(deltaDir, filepath.FromSlash(shasumPathFor(canonical)))

	raw, err := os.ReadFile(shasumPath)
	if err != nil {
		return fmt.Errorf("%w: read shasum for %s: %v", ErrIOFailed, canonical, err)
	}

	expected, err := ParseReleaseEntry(strings.TrimSpace(string(raw)))
	if err != nil {
		return err
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: open patched %s: %v", ErrIOFailed, canonical, err)
	}
	defer func() { _ = f.Close() }()

	actual, err := GenerateReleaseEntry(f, expected.Filename)
	if err != nil {
		return err
	}

	if actual.Size != expected.Size || !strings.EqualFold(actual.SHA1, expected.SHA1) {
		return &ChecksumError{RelPath: canonical}
	}

	return nil
}

// copyFileAtomic copies src to dst via a temp file then rename, so dst
// either fully exists with new contents or is untouched.
func copyFileAtomic(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrIOFailed, src, err)
	}

	tmp := dst + ".deltapkg-tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailed, tmp, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: install %s: %v", ErrIOFailed, dst, err)
	}

	return nil
}

// copyMetadataFile copies a non-lib/ delta entry over the working tree,
// overwriting and creating parent directories as needed.
func copyMetadataFile(deltaDir, workDir, relPath string) error {
	srcPath := filepath.Join(deltaDir, filepath.FromSlash(relPath))
	dstPath := filepath.Join(workDir, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o750); err != nil {
		return fmt.Errorf("%w: create dir for %s: %v", ErrIOFailed, relPath, err)
	}

	return copyFileAtomic(srcPath, dstPath)
}

// deleteUnvisitedLibFiles walks workDir's lib/ tree and removes any file
// whose lowercased relative path is not in visited.
func deleteUnvisitedLibFiles(workDir string, visited map[string]struct{}) error {
	libRootAbs := filepath.Join(workDir, "lib")

	return walkRegularFiles(libRootAbs, func(absPath, relSlash string) error {
		canonical := strings.ToLower("lib/" + relSlash)
		if _, ok := visited[canonical]; ok {
			return nil
		}

		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: remove %s: %v", ErrIOFailed, absPath, err)
		}

		return nil
	})
}

// listAllRelativePaths returns every regular file under root as a
// slash-separated path relative to root.
func listAllRelativePaths(root string) ([]string, error) {
	var out []string
	err := walkRegularFiles(root, func(_, relSlash string) error {
		out = append(out, relSlash)
		return nil
	})

	return out, err
}
