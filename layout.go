// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import "strings"

// Sidecar suffixes recognized inside the lib/ root of a delta archive.
const (
	suffixBSDiff = ".bsdiff"
	suffixDiff   = ".diff"
	suffixShasum = ".shasum"
)

// sidecarKind identifies how one lib/ entry participates in apply dispatch.
type sidecarKind uint8

const (
	// sidecarKindPlain is a full-bytes new file, copied verbatim.
	sidecarKindPlain sidecarKind = iota
	// sidecarKindBSDiff selects bsdiff-apply.
	sidecarKindBSDiff
	// sidecarKindDiff selects msdelta-apply.
	sidecarKindDiff
	// sidecarKindShasum is a verification artifact, never applied directly.
	sidecarKindShasum
)

// isUnderLibRoot reports whether an archive-relative path (forward-slash,
// already normalized) falls under the lib/ root, case-insensitively on the
// "lib" segment.
func isUnderLibRoot(relPath string) bool {
	return len(relPath) > len(libRoot) && strings.EqualFold(relPath[:len(libRoot)], libRoot)
}

// classifySidecar inspects an archive-relative path and reports its sidecar
// kind plus the canonical path (suffix stripped, lowercased) used for
// visited-set bookkeeping and cross-file matching.
func classifySidecar(relPath string) (kind sidecarKind, canonical string) {
	switch {
	case strings.HasSuffix(relPath, suffixShasum):
		return sidecarKindShasum, strings.ToLower(strings.TrimSuffix(relPath, suffixShasum))
	case strings.HasSuffix(relPath, suffixBSDiff):
		return sidecarKindBSDiff, strings.ToLower(strings.TrimSuffix(relPath, suffixBSDiff))
	case strings.HasSuffix(relPath, suffixDiff):
		return sidecarKindDiff, strings.ToLower(strings.TrimSuffix(relPath, suffixDiff))
	default:
		return sidecarKindPlain, strings.ToLower(relPath)
	}
}

// shasumPathFor returns the .shasum sidecar path for a lib/ path whose patch
// suffix has been stripped.
func shasumPathFor(canonical string) string {
	return canonical + suffixShasum
}
