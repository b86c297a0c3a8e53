// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import "testing"

func TestClassifySidecar(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in         string
		wantKind   sidecarKind
		wantCanon  string
	}{
		{in: "lib/net45/App.dll", wantKind: sidecarKindPlain, wantCanon: "lib/net45/app.dll"},
		{in: "lib/net45/App.dll.bsdiff", wantKind: sidecarKindBSDiff, wantCanon: "lib/net45/app.dll"},
		{in: "lib/net45/App.dll.diff", wantKind: sidecarKindDiff, wantCanon: "lib/net45/app.dll"},
		{in: "lib/net45/App.dll.shasum", wantKind: sidecarKindShasum, wantCanon: "lib/net45/app.dll"},
	}

	for _, tc := range testCases {
		kind, canonical := classifySidecar(tc.in)
		if kind != tc.wantKind {
			t.Errorf("classifySidecar(%q) kind=%v, want %v", tc.in, kind, tc.wantKind)
		}
		if canonical != tc.wantCanon {
			t.Errorf("classifySidecar(%q) canonical=%q, want %q", tc.in, canonical, tc.wantCanon)
		}
	}
}

func TestIsUnderLibRoot(t *testing.T) {
	t.Parallel()

	if !isUnderLibRoot("lib/net45/app.dll") {
		t.Fatalf("expected lib/net45/app.dll to be under lib root")
	}
	if isUnderLibRoot("README.txt") {
		t.Fatalf("expected README.txt to not be under lib root")
	}
	if isUnderLibRoot("lib/") {
		t.Fatalf("expected bare lib/ to not be under lib root (no file name)")
	}
}
