// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// baseIndex maps a case-normalized lib/-relative path to the base tree's
// absolute file path. It supports concurrent lookup and remove-if-present;
// each key is touched at most once by a worker, so a single mutex over a
// plain map is sufficient (per the concurrency notes: contention is low).
type baseIndex struct {
	mu      sync.Mutex
	entries map[string]string
}

// newBaseIndex walks baseLibRoot and indexes every regular file beneath it,
// keyed by its slash-separated path relative to baseLibRoot, case-folded.
func newBaseIndex(baseLibRoot string) (*baseIndex, error) {
	idx := &baseIndex{entries: make(map[string]string)}

	err := walkRegularFiles(baseLibRoot, func(absPath, relSlash string) error {
		idx.entries[strings.ToLower(relSlash)] = absPath
		return nil
	})
	if err != nil {
		return nil, err
	}

	return idx, nil
}

// lookup returns the base tree's absolute path for relSlash, if present.
func (idx *baseIndex) lookup(relSlash string) (string, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	absPath, ok := idx.entries[strings.ToLower(relSlash)]
	return absPath, ok
}

// removeIfPresent deletes relSlash from the index if present, reporting
// whether it was there.
func (idx *baseIndex) removeIfPresent(relSlash string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := strings.ToLower(relSlash)
	if _, ok := idx.entries[key]; !ok {
		return false
	}

	delete(idx.entries, key)
	return true
}

// remaining returns a snapshot of paths still present in the index — the
// removed set once the build worker pool has drained.
func (idx *baseIndex) remaining() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		out = append(out, k)
	}

	return out
}

// len reports the number of entries currently indexed.
func (idx *baseIndex) len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return len(idx.entries)
}

// walkRegularFiles walks root and invokes fn for every regular file found,
// with fn receiving the absolute path and its slash-separated path relative
// to root. Missing root is treated as an empty tree, not an error.
func walkRegularFiles(root string, fn func(absPath, relSlash string) error) error {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("%w: stat %s: %v", ErrIOFailed, root, err)
	}

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: walk %s: %v", ErrIOFailed, path, err)
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fmt.Errorf("%w: relativize %s: %v", ErrIOFailed, path, relErr)
		}

		return fn(path, filepath.ToSlash(rel))
	})
}
