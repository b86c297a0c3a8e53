// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"archive/zip"
	"fmt"
	"os"
)

// DeltaEntrySummary describes one lib/-rooted entry found in a delta
// archive's table of contents.
type DeltaEntrySummary struct {
	CanonicalPath  string
	Classification Classification
	SidecarSize    int64
}

// DeltaInspection is the read-only summary Inspect produces from a delta
// archive's table of contents alone.
type DeltaInspection struct {
	Entries               []DeltaEntrySummary
	NewCount              int
	SameCount             int
	ChangedCount          int
	VerificationOnlyCount int
}

// Inspect opens a delta archive's table of contents only — no extraction,
// no scratch directory — and classifies each lib/-rooted entry per the
// same suffix dispatch rule the applier uses, including the .bsdiff-over-
// .diff tie-break. Callers use this to report "N changed, M added, K
// unchanged" before committing to DeltaApplier.Apply. Removed files are not
// counted: a delta carries no entry for them. Mirrors ReadHeaders and
// ListEntries's fast-path: parse metadata only, never read payload bytes.
func Inspect(deltaPath string) (*DeltaInspection, error) {
	zr, err := zip.OpenReader(deltaPath)
	if err != nil {
		if _, statErr := os.Stat(deltaPath); statErr != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, deltaPath)
		}

		return nil, fmt.Errorf("%w: open %s: %v", ErrIOFailed, deltaPath, err)
	}
	defer func() { _ = zr.Close() }()

	bsdiffCanonical := make(map[string]struct{})
	for _, f := range zr.File {
		relPath, normErr := normalizeExtractEntryPath(f.Name)
		if normErr != nil {
			continue
		}
		if !isUnderLibRoot(relPath) {
			continue
		}

		kind, canonical := classifySidecar(relPath)
		if kind == sidecarKindBSDiff {
			bsdiffCanonical[canonical] = struct{}{}
		}
	}

	inspection := &DeltaInspection{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		relPath, normErr := normalizeExtractEntryPath(f.Name)
		if normErr != nil {
			continue
		}
		if !isUnderLibRoot(relPath) {
			continue
		}

		kind, canonical := classifySidecar(relPath)
		switch kind {
		case sidecarKindShasum:
			inspection.VerificationOnlyCount++
			continue
		case sidecarKindDiff:
			if _, hasBSDiff := bsdiffCanonical[canonical]; hasBSDiff {
				continue
			}
		}

		summary := DeltaEntrySummary{
			CanonicalPath: canonical,
			SidecarSize:   int64(f.UncompressedSize64),
		}

		switch {
		case kind == sidecarKindPlain:
			summary.Classification = ClassificationNew
			inspection.NewCount++
		case f.UncompressedSize64 == 0:
			summary.Classification = ClassificationSame
			inspection.SameCount++
		default:
			summary.Classification = ClassificationChanged
			inspection.ChangedCount++
		}

		inspection.Entries = append(inspection.Entries, summary)
	}

	return inspection, nil
}
