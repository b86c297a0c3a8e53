// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
)

// looseVersionPattern accepts 1-4 numeric components with optional internal
// whitespace, plus an optional special tag. Strict parsing additionally
// requires exactly three numeric components (see ParseStrict).
var looseVersionPattern = regexp.MustCompile(`(?i)^(\d+(?:\s*\.\s*\d+){0,3})\s*(-[a-z][0-9a-z-]*)?$`)

// specialTailPattern splits a special tag into an alphabetic prefix and a
// trailing run of digits, used by Compare's numeric-tail tie-break.
var specialTailPattern = regexp.MustCompile(`(?i)^([a-z]+)([0-9]+)$`)

// Version is an ordered 4-tuple (major, minor, build, revision) of
// non-negative integers plus an optional special tag. OriginalString is
// retained for display only and never affects equality, ordering, or hashing.
type Version struct {
	OriginalString string
	Special        string
	Major          int
	Minor          int
	Build          int
	Revision       int
}

// Parse parses a loose version string: 1-4 numeric components separated by
// dots, with optional whitespace around the dots, and an optional
// "-special" tag whose first character must be a letter. Missing trailing
// numeric components normalize to 0.
func Parse(raw string) (Version, error) {
	return parseVersion(raw, false)
}

// ParseStrict parses like Parse but additionally requires exactly three
// numeric components (major.minor.build), matching the narrower grammar
// some callers require for canonical release strings.
func ParseStrict(raw string) (Version, error) {
	return parseVersion(raw, true)
}

func parseVersion(raw string, strict bool) (Version, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Version{}, fmt.Errorf("%w: empty version string", ErrMalformedVersion)
	}

	match := looseVersionPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, raw)
	}

	parts := strings.Split(match[1], ".")
	components := make([]int, 0, 4)
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, raw)
		}

		components = append(components, n)
	}

	if strict && len(components) != 3 {
		return Version{}, fmt.Errorf("%w: %q requires exactly 3 numeric components", ErrMalformedVersion, raw)
	}

	for len(components) < 4 {
		components = append(components, 0)
	}

	special := strings.TrimPrefix(match[2], "-")

	return Version{
		Major:          components[0],
		Minor:          components[1],
		Build:          components[2],
		Revision:       components[3],
		Special:        special,
		OriginalString: raw,
	}, nil
}

// String renders the version's original input verbatim. Round-tripping
// Parse -> String is idempotent for inputs already in canonical form.
func (v Version) String() string {
	if v.OriginalString != "" {
		return v.OriginalString
	}

	return v.canonicalString()
}

// canonicalString renders the normalized four-component canonical form.
func (v Version) canonicalString() string {
	base := fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
	if v.Special == "" {
		return base
	}

	return base + "-" + v.Special
}

// Equal reports tuple equality on the normalized 4-tuple plus
// case-insensitive equality on Special. OriginalString is excluded.
func (v Version) Equal(other Version) bool {
	return v.Major == other.Major &&
		v.Minor == other.Minor &&
		v.Build == other.Build &&
		v.Revision == other.Revision &&
		strings.EqualFold(v.Special, other.Special)
}

// Hash returns a hash consistent with Equal: equal versions hash equal.
func (v Version) Hash() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d.%d.%d.%d-%s", v.Major, v.Minor, v.Build, v.Revision, strings.ToLower(v.Special))

	return h.Sum64()
}

// Compare returns -1, 0, or +1 establishing a total order over versions:
//  1. lexicographic over (major, minor, build, revision);
//  2. if the numeric parts tie, a version without a special tag is greater
//     than one with a tag (pre-release precedes release);
//  3. if both have tags, split each as prefix+trailingDigits; if both split
//     and the prefixes compare equal case-insensitively, order by the signed
//     difference of the trailing integers;
//  4. otherwise compare tags as case-insensitive ordinal strings.
func Compare(a, b Version) int {
	if c := compareInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := compareInt(a.Build, b.Build); c != 0 {
		return c
	}
	if c := compareInt(a.Revision, b.Revision); c != 0 {
		return c
	}

	return compareSpecial(a.Special, b.Special)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareSpecial(a, b string) int {
	if a == "" && b == "" {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}

	aMatch := specialTailPattern.FindStringSubmatch(a)
	bMatch := specialTailPattern.FindStringSubmatch(b)
	if aMatch != nil && bMatch != nil && strings.EqualFold(aMatch[1], bMatch[1]) {
		aNum, errA := strconv.Atoi(aMatch[2])
		bNum, errB := strconv.Atoi(bMatch[2])
		if errA == nil && errB == nil {
			return compareInt(aNum, bNum)
		}
	}

	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// LessOrEqual reports whether a orders before or equal to b under Compare.
func LessOrEqual(a, b Version) bool {
	return Compare(a, b) <= 0
}
