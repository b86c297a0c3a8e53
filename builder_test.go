// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

// buildTestArchive writes a zip archive at path whose entries come from
// files, a map of archive-relative path to file content.
func buildTestArchive(t *testing.T, path string, files map[string][]byte) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
}

func TestDeltaBuilderBuildClassifiesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.zip")
	newPath := filepath.Join(dir, "new.zip")
	outPath := filepath.Join(dir, "delta.zip")

	buildTestArchive(t, basePath, map[string][]byte{
		"lib/net45/App.dll":     []byte("old contents of app dll, quite a bit longer than the new one to force a diff"),
		"lib/net45/Removed.dll": []byte("this file will not exist in the new tree"),
		"lib/net45/Same.dll":    []byte("identical bytes"),
	})
	buildTestArchive(t, newPath, map[string][]byte{
		"lib/net45/App.dll":  []byte("new contents of app dll, changed"),
		"lib/net45/Same.dll": []byte("identical bytes"),
		"lib/net45/New.dll":  []byte("brand new file"),
	})

	base, err := Parse("1.0.0")
	if err != nil {
		t.Fatalf("parse base version: %v", err)
	}
	next, err := Parse("1.1.0")
	if err != nil {
		t.Fatalf("parse new version: %v", err)
	}

	builder := &DeltaBuilder{}
	result, err := builder.Build(context.Background(), base, next, basePath, newPath, outPath, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if result.NewCount != 1 {
		t.Errorf("NewCount = %d, want 1", result.NewCount)
	}
	if result.ChangedCount != 1 {
		t.Errorf("ChangedCount = %d, want 1", result.ChangedCount)
	}
	if result.SameCount != 1 {
		t.Errorf("SameCount = %d, want 1", result.SameCount)
	}
	if result.RemovedCount != 1 {
		t.Errorf("RemovedCount = %d, want 1", result.RemovedCount)
	}

	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("expected output archive at %s: %v", outPath, err)
	}
}

func TestDeltaBuilderRejectsNonmonotonicVersions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.zip")
	newPath := filepath.Join(dir, "new.zip")
	outPath := filepath.Join(dir, "delta.zip")

	buildTestArchive(t, basePath, map[string][]byte{"lib/a.txt": []byte("a")})
	buildTestArchive(t, newPath, map[string][]byte{"lib/a.txt": []byte("b")})

	base, _ := Parse("2.0.0")
	next, _ := Parse("1.0.0")

	builder := &DeltaBuilder{}
	_, err := builder.Build(context.Background(), base, next, basePath, newPath, outPath, BuildOptions{})
	if err == nil {
		t.Fatal("expected error for nonmonotonic versions")
	}
}

func TestDeltaBuilderRejectsExistingOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.zip")
	newPath := filepath.Join(dir, "new.zip")
	outPath := filepath.Join(dir, "delta.zip")

	buildTestArchive(t, basePath, map[string][]byte{"lib/a.txt": []byte("a")})
	buildTestArchive(t, newPath, map[string][]byte{"lib/a.txt": []byte("b")})
	if err := os.WriteFile(outPath, []byte("already here"), 0o600); err != nil {
		t.Fatalf("seed outPath: %v", err)
	}

	base, _ := Parse("1.0.0")
	next, _ := Parse("1.1.0")

	builder := &DeltaBuilder{}
	_, err := builder.Build(context.Background(), base, next, basePath, newPath, outPath, BuildOptions{})
	if err == nil {
		t.Fatal("expected error for pre-existing output")
	}
}
