// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestBSDiffCreateApplyRoundTrip(t *testing.T) {
	t.Parallel()

	oldBytes := bytes.Repeat([]byte{0x00}, 4096)
	newBytes := append([]byte(nil), oldBytes...)
	newBytes[1000] = 0xFF
	newBytes = append(newBytes, []byte("trailing bytes appended in the new revision")...)

	patch, err := createBSDiffPatch(oldBytes, newBytes)
	if err != nil {
		t.Fatalf("createBSDiffPatch: %v", err)
	}

	reconstructed, err := applyBSDiffPatch(oldBytes, patch)
	if err != nil {
		t.Fatalf("applyBSDiffPatch: %v", err)
	}

	if !bytes.Equal(reconstructed, newBytes) {
		t.Fatalf("reconstructed bytes did not match new bytes")
	}
}

func TestApplyPatchBySuffixBSDiff(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	oldBytes := []byte("the quick brown fox jumps over the lazy dog")
	newBytes := []byte("the quick brown fox leaps over the lazy dog")

	oldPath := filepath.Join(dir, "old.bin")
	patchPath := filepath.Join(dir, "patch.bsdiff")
	outPath := filepath.Join(dir, "out.bin")

	if err := os.WriteFile(oldPath, oldBytes, 0o600); err != nil {
		t.Fatalf("write old: %v", err)
	}

	patch, err := createBSDiffPatch(oldBytes, newBytes)
	if err != nil {
		t.Fatalf("createBSDiffPatch: %v", err)
	}
	if err := os.WriteFile(patchPath, patch, 0o600); err != nil {
		t.Fatalf("write patch: %v", err)
	}

	if err := applyPatchBySuffix(sidecarKindBSDiff, patchPath, oldPath, outPath); err != nil {
		t.Fatalf("applyPatchBySuffix: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read out: %v", err)
	}

	if !bytes.Equal(got, newBytes) {
		t.Fatalf("got %q, want %q", got, newBytes)
	}
}
