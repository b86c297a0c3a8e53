// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// storeRules is the default Store-vs-Deflate policy for Repack: entries that
// are already dense binary diffs (.bsdiff), one-line .shasum records, or
// zero-length unchanged markers waste cycles under DEFLATE and are written
// with zip.Store instead. Everything else (plain copied files, metadata) is
// eligible for Deflate. Grounded on the teacher's own PackOptions.Compress allow-list
// matcher, generalized here from an allow-list of compression candidates to
// an allow-list of Store candidates.
var storeRules = []pathrules.Rule{
	{Action: pathrules.ActionInclude, Pattern: "**/*" + suffixBSDiff},
	{Action: pathrules.ActionInclude, Pattern: "**/*" + suffixShasum},
}

var storeMatcherOptions = pathrules.MatcherOptions{
	CaseInsensitive: true,
	DefaultAction:   pathrules.ActionExclude,
}

// storeMatcher wraps a compiled pathrules.Matcher deciding which archive
// entries Repack writes with zip.Store rather than zip.Deflate.
type storeMatcher struct {
	matcher *pathrules.Matcher
}

// newStoreMatcher compiles storeRules once for reuse across an entire Repack call.
func newStoreMatcher() (*storeMatcher, error) {
	matcher, err := pathrules.NewMatcher(storeRules, storeMatcherOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: compile store rules: %v", ErrIOFailed, err)
	}

	return &storeMatcher{matcher: matcher}, nil
}

// shouldStore reports whether relPath should be written with zip.Store.
// A zero-length entry always qualifies regardless of path, since DEFLATE
// adds framing overhead with nothing to compress.
func (m *storeMatcher) shouldStore(relPath string, size int64) bool {
	if size == 0 {
		return true
	}

	if m == nil || m.matcher == nil {
		return false
	}

	return m.matcher.Included(relPath, false)
}
