// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"crypto/sha1" //nolint:gosec // Verification format requires SHA1, not a cryptographic guarantee.
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReleaseEntry is a file's size + SHA1 identity record, used by the applier
// to verify a patched file matches the target bytes.
type ReleaseEntry struct {
	Filename string
	SHA1     string
	Size     uint64
}

// GenerateReleaseEntry computes a ReleaseEntry over the bytes read from r,
// labeling the result with filename.
func GenerateReleaseEntry(r io.Reader, filename string) (ReleaseEntry, error) {
	h := sha1.New() //nolint:gosec // Verification format requires SHA1.
	size, err := io.Copy(h, r)
	if err != nil {
		return ReleaseEntry{}, fmt.Errorf("%w: hash %s: %v", ErrIOFailed, filename, err)
	}

	return ReleaseEntry{
		Filename: filename,
		Size:     uint64(size),
		SHA1:     strings.ToUpper(hex.EncodeToString(h.Sum(nil))),
	}, nil
}

// Serialize renders the entry as a single line "SHA1 FILENAME SIZE".
func (e ReleaseEntry) Serialize() string {
	return fmt.Sprintf("%s %s %d", e.SHA1, e.Filename, e.Size)
}

// ParseReleaseEntry parses the inverse of Serialize; malformed input fails
// with ErrMalformedEntry.
func ParseReleaseEntry(line string) (ReleaseEntry, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return ReleaseEntry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}

	sha1Hex := fields[0]
	if len(sha1Hex) != 40 {
		return ReleaseEntry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}
	if _, err := hex.DecodeString(sha1Hex); err != nil {
		return ReleaseEntry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}

	size, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return ReleaseEntry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}

	return ReleaseEntry{
		SHA1:     strings.ToUpper(sha1Hex),
		Filename: fields[1],
		Size:     size,
	}, nil
}

// Equal reports whether two entries carry the same identity, comparing SHA1
// case-insensitively.
func (e ReleaseEntry) Equal(other ReleaseEntry) bool {
	return e.Filename == other.Filename &&
		e.Size == other.Size &&
		strings.EqualFold(e.SHA1, other.SHA1)
}
