// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"fmt"
	"os"

	bsdiffpkg "github.com/gabstv/go-bsdiff/pkg/bsdiff"
	"github.com/gabstv/go-bsdiff/pkg/bspatch"
)

// createBSDiffPatch computes a bsdiff patch turning oldBytes into newBytes.
// Deterministic given the same inputs.
func createBSDiffPatch(oldBytes, newBytes []byte) ([]byte, error) {
	patch, err := bsdiffpkg.Bytes(oldBytes, newBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: bsdiff create: %v", ErrPatchFailed, err)
	}

	return patch, nil
}

// applyBSDiffPatch reconstructs the new payload from oldBytes and a bsdiff patch.
func applyBSDiffPatch(oldBytes, patchBytes []byte) ([]byte, error) {
	out, err := bspatch.Bytes(oldBytes, patchBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: bsdiff apply: %v", ErrPatchFailed, err)
	}

	return out, nil
}

// applyMSDeltaPatch applies an OS-provided MSDelta patch to oldPath, writing
// the reconstructed bytes to outPath. On platforms without MSDelta support
// it fails with ErrMSDeltaUnsupported.
func applyMSDeltaPatch(patchPath, oldPath, outPath string) error {
	return applyMSDeltaPatchPlatform(patchPath, oldPath, outPath)
}

// applyPatchBySuffix dispatches to the codec selected by a lib/ entry's
// sidecar suffix. patchPath is the on-disk sidecar file (already extracted
// from the delta scratch tree); oldPath is the base-tree file being patched;
// outPath is a temp file the caller will verify then atomically install.
func applyPatchBySuffix(kind sidecarKind, patchPath, oldPath, outPath string) error {
	switch kind {
	case sidecarKindBSDiff:
		oldBytes, err := os.ReadFile(oldPath)
		if err != nil {
			return fmt.Errorf("%w: read base %s: %v", ErrIOFailed, oldPath, err)
		}

		patchBytes, err := os.ReadFile(patchPath)
		if err != nil {
			return fmt.Errorf("%w: read patch %s: %v", ErrIOFailed, patchPath, err)
		}

		newBytes, err := applyBSDiffPatch(oldBytes, patchBytes)
		if err != nil {
			return err
		}

		if err := os.WriteFile(outPath, newBytes, 0o600); err != nil {
			return fmt.Errorf("%w: write %s: %v", ErrIOFailed, outPath, err)
		}

		return nil

	case sidecarKindDiff:
		return applyMSDeltaPatch(patchPath, oldPath, outPath)

	default:
		return fmt.Errorf("%w: unsupported sidecar kind for patch apply", ErrPatchFailed)
	}
}
