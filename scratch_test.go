// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTestZip(t *testing.T, path string, files map[string]string) {
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
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func TestExpandAndRepackRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "src.zip")
	writeTestZip(t, archivePath, map[string]string{
		"lib/net45/app.dll": "payload one",
		"README.txt":        "metadata file",
	})

	ctx := context.Background()
	scratchDir, cleanup, err := Expand(ctx, archivePath)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	defer cleanup()

	data, err := os.ReadFile(filepath.Join(scratchDir, "lib", "net45", "app.dll"))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(data) != "payload one" {
		t.Fatalf("got %q, want %q", data, "payload one")
	}

	outPath := filepath.Join(dir, "out.zip")
	if err := Repack(ctx, scratchDir, outPath); err != nil {
		t.Fatalf("Repack: %v", err)
	}

	zr, err := zip.OpenReader(outPath)
	if err != nil {
		t.Fatalf("open repacked archive: %v", err)
	}
	defer func() { _ = zr.Close() }()

	if len(zr.File) != 2 {
		t.Fatalf("got %d entries, want 2", len(zr.File))
	}
}

func TestExpandMissingArchive(t *testing.T) {
	t.Parallel()

	_, _, err := Expand(context.Background(), filepath.Join(t.TempDir(), "missing.zip"))
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestExpandRejectsTraversal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")

	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("../escape.txt")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	_, _ = w.Write([]byte("evil"))
	_ = zw.Close()
	_ = f.Close()

	_, _, err = Expand(context.Background(), archivePath)
	if !errors.Is(err, ErrInvalidExtractPath) {
		t.Fatalf("expected ErrInvalidExtractPath, got %v", err)
	}
}

func TestRepackRefusesExistingOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	scratchDir := filepath.Join(dir, "scratch")
	if err := os.MkdirAll(scratchDir, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	outPath := filepath.Join(dir, "out.zip")
	if err := os.WriteFile(outPath, []byte("existing"), 0o600); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	err := Repack(context.Background(), scratchDir, outPath)
	if !errors.Is(err, ErrOutputExists) {
		t.Fatalf("expected ErrOutputExists, got %v", err)
	}
}
