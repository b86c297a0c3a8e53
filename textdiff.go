// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"bytes"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// maxTextDiffPreviewBytes bounds how large a file can be before skipping
// the diagnostic unified-diff preview — it is for human eyeballs, not for
// diffing multi-megabyte binaries that merely happen to be valid UTF-8.
const maxTextDiffPreviewBytes = 256 * 1024

// isTextLikePreviewCandidate reports whether data is small enough and
// looks enough like text (valid UTF-8, no NUL bytes) to be worth a
// unified-diff preview in a debug log.
func isTextLikePreviewCandidate(data []byte) bool {
	if len(data) == 0 || len(data) > maxTextDiffPreviewBytes {
		return false
	}

	if bytes.IndexByte(data, 0) >= 0 {
		return false
	}

	return utf8.Valid(data)
}

// unifiedDiffPreview renders a unified diff between old and new, which the
// builder logs at debug level for a changed file so a human sees what
// changed rather than just that a file was reclassified. Returns "" on any
// rendering failure.
func unifiedDiffPreview(relPath string, old, new []byte) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(old)),
		B:        difflib.SplitLines(string(new)),
		FromFile: relPath + " (base)",
		ToFile:   relPath + " (new)",
		Context:  2,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}

	return text
}
