// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import "errors"

// Sentinel errors for delta build/apply operations. Use errors.Is in callers.
var (
	// ErrMalformedVersion means a version string did not match the loose grammar.
	ErrMalformedVersion = errors.New("malformed version string")
	// ErrMalformedEntry means a ReleaseEntry line did not match the expected shape.
	ErrMalformedEntry = errors.New("malformed release entry")
	// ErrNonmonotonicVersion means the base package version is greater than the new package version.
	ErrNonmonotonicVersion = errors.New("base version is not less than or equal to new version")
	// ErrMissingInput means a required archive path does not exist.
	ErrMissingInput = errors.New("required input archive does not exist")
	// ErrOutputExists means the output path already exists and will not be overwritten.
	ErrOutputExists = errors.New("output path already exists")
	// ErrPatchFailed means a per-file patch creation or application failed.
	ErrPatchFailed = errors.New("patch operation failed")
	// ErrChecksumFailed means apply-side verification of a patched file failed.
	ErrChecksumFailed = errors.New("checksum verification failed")
	// ErrIOFailed wraps a filesystem error encountered after local cleanup.
	ErrIOFailed = errors.New("io operation failed")
	// ErrMSDeltaUnsupported means a .diff (MSDelta) payload was encountered on a
	// platform without the MSDelta OS routine available.
	ErrMSDeltaUnsupported = errors.New("msdelta apply is not supported on this platform")
	// ErrInvalidExtractPath means an archive entry path is invalid for extraction.
	ErrInvalidExtractPath = errors.New("invalid archive entry path")
	// ErrExtractPathOutsideRoot means a resolved extraction path escapes the scratch root.
	ErrExtractPathOutsideRoot = errors.New("extract path escapes scratch root")
	// ErrNilArchivePath means an empty or whitespace-only archive path was supplied.
	ErrNilArchivePath = errors.New("archive path is empty")
)

// ChecksumError carries the relative path whose post-patch content failed
// verification against its companion shasum.
type ChecksumError struct {
	// RelPath is the archive-relative path (inside lib/), in the delta entry's
	// own casing, that failed verification.
	RelPath string
	// Err is the underlying comparison failure, if any (size/sha1 mismatch detail).
	Err error
}

func (e *ChecksumError) Error() string {
	if e.Err != nil {
		return "checksum verification failed for " + e.RelPath + ": " + e.Err.Error()
	}

	return "checksum verification failed for " + e.RelPath
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumFailed
}

// PatchError carries the relative path and algorithm whose patch operation failed.
type PatchError struct {
	// RelPath is the path, relative to the lib/ root, the patch operation targeted.
	RelPath string
	// Algorithm names the codec involved ("bsdiff" or "msdelta").
	Algorithm string
	// Err is the underlying failure.
	Err error
}

func (e *PatchError) Error() string {
	return "patch (" + e.Algorithm + ") failed for " + e.RelPath + ": " + e.Err.Error()
}

func (e *PatchError) Unwrap() error {
	return ErrPatchFailed
}
