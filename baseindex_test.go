// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func TestBaseIndexLookupAndRemove(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "net45", "app.dll"), "data")
	mustWriteFile(t, filepath.Join(root, "net45", "helper.dll"), "data2")

	idx, err := newBaseIndex(root)
	if err != nil {
		t.Fatalf("newBaseIndex: %v", err)
	}

	if idx.len() != 2 {
		t.Fatalf("len=%d, want 2", idx.len())
	}

	if _, ok := idx.lookup("NET45/APP.DLL"); !ok {
		t.Fatalf("expected case-insensitive lookup to find entry")
	}

	if !idx.removeIfPresent("net45/app.dll") {
		t.Fatalf("expected removeIfPresent to report true")
	}
	if idx.removeIfPresent("net45/app.dll") {
		t.Fatalf("expected second removeIfPresent to report false")
	}

	remaining := idx.remaining()
	if len(remaining) != 1 || remaining[0] != "net45/helper.dll" {
		t.Fatalf("remaining=%v, want [net45/helper.dll]", remaining)
	}
}

func TestBaseIndexConcurrentAccess(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	paths := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		rel := filepath.Join("pkg", "file"+strconv.Itoa(i)+".bin")
		mustWriteFile(t, filepath.Join(root, rel), "x")
		paths = append(paths, filepath.ToSlash(rel))
	}

	idx, err := newBaseIndex(root)
	if err != nil {
		t.Fatalf("newBaseIndex: %v", err)
	}

	var wg sync.WaitGroup
	for _, p := range paths {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx.removeIfPresent(p)
		}()
	}
	wg.Wait()

	if idx.len() != 0 {
		t.Fatalf("len=%d, want 0 after draining all keys", idx.len())
	}
}

func TestBaseIndexMissingRoot(t *testing.T) {
	t.Parallel()

	idx, err := newBaseIndex(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("newBaseIndex: %v", err)
	}
	if idx.len() != 0 {
		t.Fatalf("len=%d, want 0 for missing root", idx.len())
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
