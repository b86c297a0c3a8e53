// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"errors"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "slash", in: "/", want: ""},
		{name: "clean", in: "lib/net45/app.dll", want: "lib/net45/app.dll"},
		{name: "windows", in: `.\lib\net45\app.dll`, want: "lib/net45/app.dll"},
		{name: "dot segments", in: "./a/../b//c.txt", want: "b/c.txt"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := NormalizePath(tc.in)
			if got != tc.want {
				t.Fatalf("NormalizePath(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeExtractEntryPath(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		got, err := normalizeExtractEntryPath(`.\lib/net45\app.dll`)
		if err != nil {
			t.Fatalf("normalizeExtractEntryPath: %v", err)
		}

		want := "lib/net45/app.dll"
		if got != want {
			t.Fatalf("normalizeExtractEntryPath=%q, want %q", got, want)
		}
	})

	t.Run("rejects root", func(t *testing.T) {
		t.Parallel()

		_, err := normalizeExtractEntryPath("/")
		if !errors.Is(err, ErrInvalidExtractPath) {
			t.Fatalf("expected ErrInvalidExtractPath, got %v", err)
		}
	})

	t.Run("rejects traversal", func(t *testing.T) {
		t.Parallel()

		_, err := normalizeExtractEntryPath("../../etc/passwd")
		if !errors.Is(err, ErrInvalidExtractPath) {
			t.Fatalf("expected ErrInvalidExtractPath, got %v", err)
		}
	})

	t.Run("rejects windows drive prefix", func(t *testing.T) {
		t.Parallel()

		_, err := normalizeExtractEntryPath(`C:/Windows/system.ini`)
		if !errors.Is(err, ErrInvalidExtractPath) {
			t.Fatalf("expected ErrInvalidExtractPath, got %v", err)
		}
	})

	t.Run("rejects sidecar suffix outside lib root", func(t *testing.T) {
		t.Parallel()

		_, err := normalizeExtractEntryPath("README.txt.shasum")
		if !errors.Is(err, ErrInvalidExtractPath) {
			t.Fatalf("expected ErrInvalidExtractPath, got %v", err)
		}
	})

	t.Run("accepts sidecar suffix under lib root", func(t *testing.T) {
		t.Parallel()

		got, err := normalizeExtractEntryPath("lib/net45/App.dll.bsdiff")
		if err != nil {
			t.Fatalf("normalizeExtractEntryPath: %v", err)
		}

		want := "lib/net45/App.dll.bsdiff"
		if got != want {
			t.Fatalf("normalizeExtractEntryPath=%q, want %q", got, want)
		}
	})
}
