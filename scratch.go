// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
)

const scratchExtractCopyBufferSize = 64 * 1024

// registerZipCompressor binds zw's Deflate method to klauspost/compress's
// flate implementation, scoped to this writer (the package-level
// zip.RegisterCompressor hook panics on Go toolchains that pre-register
// Deflate's built-in codec).
func registerZipCompressor(zw *zip.Writer) {
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})
}

// registerZipDecompressor binds zr's Deflate method to klauspost/compress's
// flate implementation, scoped to this reader.
func registerZipDecompressor(zr *zip.Reader) {
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
}

// Expand extracts a zip-compatible archive into a fresh, uniquely-named
// scratch directory rooted under os.TempDir. The returned cleanup func
// removes the tree unconditionally and must be deferred immediately on a
// non-error return; on any extraction error, Expand itself has already
// removed the partial tree before returning.
func Expand(ctx context.Context, archivePath string) (dir string, cleanup func(), err error) {
	if strings.TrimSpace(archivePath) == "" {
		return "", nil, ErrNilArchivePath
	}

	if _, statErr := os.Stat(archivePath); statErr != nil {
		if os.IsNotExist(statErr) {
			return "", nil, fmt.Errorf("%w: %s", ErrMissingInput, archivePath)
		}

		return "", nil, fmt.Errorf("%w: stat %s: %v", ErrIOFailed, archivePath, statErr)
	}

	scratchRoot, err := os.MkdirTemp("", "deltapkg-"+uuid.NewString())
	if err != nil {
		return "", nil, fmt.Errorf("%w: create scratch dir: %v", ErrIOFailed, err)
	}

	cleanupFn := func() { _ = os.RemoveAll(scratchRoot) }

	if err := expandInto(ctx, archivePath, scratchRoot); err != nil {
		cleanupFn()
		return "", nil, err
	}

	return scratchRoot, cleanupFn, nil
}

// expandInto extracts every entry of archivePath into dir, validating each
// entry path against traversal, absolute-path, and NUL injection before
// writing, parallelized across a bounded worker pool.
func expandInto(ctx context.Context, archivePath, dir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIOFailed, archivePath, err)
	}
	defer func() { _ = zr.Close() }()
	registerZipDecompressor(&zr.Reader)

	type prepared struct {
		file    *zip.File
		relPath string
	}

	prep := make([]prepared, 0, len(zr.File))
	dirsToMake := make(map[string]struct{})
	for _, f := range zr.File {
		relPath, normErr := normalizeExtractEntryPath(f.Name)
		if normErr != nil {
			return normErr
		}

		if f.FileInfo().IsDir() {
			dirsToMake[filepath.Join(dir, filepath.FromSlash(relPath))] = struct{}{}
			continue
		}

		prep = append(prep, prepared{file: f, relPath: relPath})
		dirsToMake[filepath.Dir(filepath.Join(dir, filepath.FromSlash(relPath)))] = struct{}{}
	}

	for d := range dirsToMake {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return fmt.Errorf("%w: create dir %s: %v", ErrIOFailed, d, err)
		}
	}

	workers := clampInt(defaultCPUParallelism(), 1, DefaultMaxWorkers)

	taskCh := make(chan prepared, len(prep))
	errCh := make(chan error, len(prep))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			buf := make([]byte, scratchExtractCopyBufferSize)
			for task := range taskCh {
				select {
				case errCh <- extractOneEntry(dir, task.file, task.relPath, buf):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, task := range prep {
		select {
		case <-ctx.Done():
			close(taskCh)
			wg.Wait()
			return ctx.Err()
		case taskCh <- task:
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

// extractOneEntry writes one zip entry to dir/relPath, guarding against the
// resolved path escaping dir.
func extractOneEntry(dir string, f *zip.File, relPath string, buf []byte) error {
	outPath := filepath.Join(dir, filepath.FromSlash(relPath))

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%w: resolve scratch root: %v", ErrIOFailed, err)
	}
	absOut, err := filepath.Abs(outPath)
	if err != nil {
		return fmt.Errorf("%w: resolve entry path: %v", ErrIOFailed, err)
	}
	if absOut != absDir && !strings.HasPrefix(absOut, absDir+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrExtractPathOutsideRoot, relPath)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open entry %s: %v", ErrIOFailed, f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIOFailed, outPath, err)
	}

	if _, err := io.CopyBuffer(out, rc, buf); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: write %s: %v", ErrIOFailed, outPath, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIOFailed, outPath, err)
	}

	return nil
}

// Repack walks dir in sorted order and writes a fresh zip archive to
// outPath: the archive is built at a temp file beside outPath, then renamed
// into place, so outPath either fully exists or doesn't.
func Repack(ctx context.Context, dir, outPath string) error {
	if _, err := os.Stat(outPath); err == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, outPath)
	}

	tmpPath := outPath + ".tmp-" + uuid.NewString()
	tmpFile, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("%w: create temp archive: %v", ErrIOFailed, err)
	}

	if err := repackInto(ctx, dir, tmpFile); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: sync temp archive: %v", ErrIOFailed, err)
	}

	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp archive: %v", ErrIOFailed, err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename into place: %v", ErrIOFailed, err)
	}

	return nil
}

// repackInto writes every file under dir into a zip stream on w, in
// deterministic sorted-path order.
func repackInto(ctx context.Context, dir string, w io.Writer) error {
	var relPaths []string
	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}

		relPaths = append(relPaths, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("%w: walk %s: %v", ErrIOFailed, dir, walkErr)
	}

	sort.Strings(relPaths)

	store, err := newStoreMatcher()
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	registerZipCompressor(zw)
	buf := make([]byte, scratchExtractCopyBufferSize)
	for _, rel := range relPaths {
		select {
		case <-ctx.Done():
			_ = zw.Close()
			return ctx.Err()
		default:
		}

		if err := repackOneEntry(zw, dir, rel, buf, store); err != nil {
			_ = zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finalize archive: %v", ErrIOFailed, err)
	}

	return nil
}

// repackOneEntry streams one local file into the zip writer as entry rel,
// choosing zip.Store over zip.Deflate per store's policy.
func repackOneEntry(zw *zip.Writer, dir, rel string, buf []byte, store *storeMatcher) error {
	srcPath := filepath.Join(dir, filepath.FromSlash(rel))
	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrIOFailed, srcPath, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("%w: build header for %s: %v", ErrIOFailed, rel, err)
	}
	header.Name = rel
	header.Method = zip.Deflate
	if store.shouldStore(rel, info.Size()) {
		header.Method = zip.Store
	}

	entryWriter, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("%w: create entry %s: %v", ErrIOFailed, rel, err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIOFailed, srcPath, err)
	}
	defer func() { _ = src.Close() }()

	if _, err := io.CopyBuffer(entryWriter, src, buf); err != nil {
		return fmt.Errorf("%w: write entry %s: %v", ErrIOFailed, rel, err)
	}

	return nil
}

// scopedExpand acquires an Expand scratch directory and guarantees its
// removal on every exit path, including a panicking callback, before
// re-panicking. Modeled on the acquire/release symmetry the teacher's
// editor.go backup/rollback flow uses for its own transactional resource.
func scopedExpand(ctx context.Context, archivePath string, fn func(dir string) error) (err error) {
	dir, cleanup, err := Expand(ctx, archivePath)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			cleanup()
			panic(r)
		}
	}()
	defer cleanup()

	return fn(dir)
}

// defaultCPUParallelism returns clamp(cpuCount-1, 1, cpuCount).
func defaultCPUParallelism() int {
	n := runtime.GOMAXPROCS(0) - 1
	if n < 1 {
		return 1
	}

	return n
}
