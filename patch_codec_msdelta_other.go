// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

//go:build !windows

package deltapkg

import "fmt"

// applyMSDeltaPatchPlatform reports ErrMSDeltaUnsupported on every platform
// other than Windows: no MSDelta OS routine exists there, and this engine
// never carries a userspace reimplementation of it. Build-side production
// of .diff payloads is out of scope on every platform (see PatchCodec); this
// stub only governs whether a delta produced elsewhere can still be applied.
func applyMSDeltaPatchPlatform(patchPath, oldPath, outPath string) error {
	return fmt.Errorf("%w: platform has no MSDelta routine", ErrMSDeltaUnsupported)
}
