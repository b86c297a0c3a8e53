// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"path"
	"strings"
)

// NormalizePath converts an archive-relative path to normalized slash-separated
// form. It trims spaces, accepts both "/" and "\", removes leading "./" and "/",
// and cleans "." segments. It never resolves ".." above the root.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(rawPath string) string {
	rawPath = strings.TrimSpace(rawPath)
	rawPath = strings.ReplaceAll(rawPath, `\`, "/")
	rawPath = strings.TrimPrefix(rawPath, "./")
	return rawPath
}

// normalizeExtractEntryPath normalizes an archive entry path, rejects
// absolute paths, NUL bytes, and parent-directory traversal, and enforces
// this format's own structural rule: a sidecar suffix (.bsdiff/.diff/.shasum)
// is only meaningful under the lib/ root (see layout.go's classifySidecar).
// An entry claiming one of those suffixes outside lib/ is rejected here
// rather than silently extracted and misclassified later — the zip-slip
// guard and the lib/-root-aware structural guard share this one pass over
// the path so a malformed entry fails before a single byte is written.
func normalizeExtractEntryPath(entryPath string) (string, error) {
	raw := strings.TrimSpace(entryPath)
	if raw == "" {
		return "", ErrInvalidExtractPath
	}
	if strings.ContainsRune(raw, 0) {
		return "", ErrInvalidExtractPath
	}
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, `\`) {
		return "", ErrInvalidExtractPath
	}

	raw = strings.ReplaceAll(raw, `\`, "/")
	if hasWindowsAbsDrivePrefix(raw) {
		return "", ErrInvalidExtractPath
	}

	parts := strings.Split(raw, "/")
	cleanParts := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidExtractPath
		default:
			cleanParts = append(cleanParts, part)
		}
	}
	if len(cleanParts) == 0 {
		return "", ErrInvalidExtractPath
	}

	clean := strings.Join(cleanParts, "/")
	if hasSidecarSuffix(clean) && !isUnderLibRoot(clean) {
		return "", ErrInvalidExtractPath
	}

	return clean, nil
}

// hasSidecarSuffix reports whether relPath ends in one of this format's
// sidecar suffixes, regardless of where it sits in the archive.
func hasSidecarSuffix(relPath string) bool {
	return strings.HasSuffix(relPath, suffixBSDiff) ||
		strings.HasSuffix(relPath, suffixDiff) ||
		strings.HasSuffix(relPath, suffixShasum)
}

// hasWindowsAbsDrivePrefix reports whether path starts with a drive-root prefix like C:/.
func hasWindowsAbsDrivePrefix(path string) bool {
	if len(path) < 3 {
		return false
	}

	return isASCIIAlpha(path[0]) && path[1] == ':' && path[2] == '/'
}

// isASCIIAlpha reports whether byte is an ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
