// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

/*
Package deltapkg builds and applies binary delta packages between two
versioned release archives. It is designed for app-updater pipelines:
DeltaBuilder diffs a base and a new zip-compatible release archive file by
file, writing bsdiff patches and checksums for changed files and leaving new
files untouched; DeltaApplier reverses the process, reconstructing the new
archive from a base archive plus a delta.

# Versions

Parse loose or strict SemVer-like version strings and order them:

	base, err := deltapkg.Parse("1.2.3")
	next, err := deltapkg.Parse("1.3.0-beta2")
	if deltapkg.Compare(base, next) > 0 {
	    // base is newer than next
	}

# Building a delta

	builder := &deltapkg.DeltaBuilder{Metrics: deltapkg.NewMetrics(nil)}
	result, err := builder.Build(ctx, base, next, "app-1.2.3.zip", "app-1.3.0.zip", "delta-1.2.3-1.3.0.zip", deltapkg.BuildOptions{
	    OnProgress: func(c deltapkg.BuildCounters) {
	        // counter-based progress
	    },
	})

# Applying a delta

	applier := &deltapkg.DeltaApplier{Metrics: deltapkg.NewMetrics(nil)}
	err := applier.Apply(ctx, "app-1.2.3.zip", "delta-1.2.3-1.3.0.zip", "app-1.3.0.zip", deltapkg.ApplyOptions{
	    OnProgress: func(percent int) {
	        // percent-based progress, monotonically non-decreasing
	    },
	})

# Inspecting without extracting

	inspection, err := deltapkg.Inspect("delta-1.2.3-1.3.0.zip")
	if err != nil {
	    return err
	}
	for _, e := range inspection.Entries {
	    // e.CanonicalPath, e.Classification
	}

# Release entries

GenerateReleaseEntry and ParseReleaseEntry produce and parse the
SHA1/filename/size lines used by the .shasum sidecars and by release
manifests:

	entry, err := deltapkg.GenerateReleaseEntry(f, "App.dll")
	line := entry.Serialize()
	parsed, err := deltapkg.ParseReleaseEntry(line)
*/
package deltapkg
