// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // test only
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestGenerateReleaseEntry(t *testing.T) {
	t.Parallel()

	payload := []byte("hello delta world")
	entry, err := GenerateReleaseEntry(bytes.NewReader(payload), "lib/x.dll")
	if err != nil {
		t.Fatalf("GenerateReleaseEntry: %v", err)
	}

	h := sha1.New() //nolint:gosec // test only
	h.Write(payload)
	want := strings.ToUpper(hex.EncodeToString(h.Sum(nil)))

	if entry.SHA1 != want {
		t.Fatalf("SHA1=%s, want %s", entry.SHA1, want)
	}
	if entry.Size != uint64(len(payload)) {
		t.Fatalf("Size=%d, want %d", entry.Size, len(payload))
	}
	if entry.Filename != "lib/x.dll" {
		t.Fatalf("Filename=%s, want lib/x.dll", entry.Filename)
	}
}

func TestReleaseEntryRoundTrip(t *testing.T) {
	t.Parallel()

	entry, err := GenerateReleaseEntry(strings.NewReader("payload bytes"), "lib/y.dll")
	if err != nil {
		t.Fatalf("GenerateReleaseEntry: %v", err)
	}

	parsed, err := ParseReleaseEntry(entry.Serialize())
	if err != nil {
		t.Fatalf("ParseReleaseEntry: %v", err)
	}

	if !parsed.Equal(entry) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, entry)
	}
}

func TestParseReleaseEntryMalformed(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"", "onlyonefield", "not-hex FILE 10", "AABB FILE notanumber"} {
		if _, err := ParseReleaseEntry(line); !errors.Is(err, ErrMalformedEntry) {
			t.Fatalf("ParseReleaseEntry(%q): expected ErrMalformedEntry, got %v", line, err)
		}
	}
}
