// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// contentTypesFileName is the OPC-family manifest entry name (NuGet .nupkg,
// OOXML packages) carried at the archive root.
const contentTypesFileName = "[Content_Types].xml"

// sidecarContentType is the media type declared for every sidecar extension
// this engine introduces.
const sidecarContentType = "application/octet-stream"

// contentTypesDoc mirrors the OPC content-types schema closely enough to
// round-trip a source archive's existing declarations while adding this
// engine's own.
type contentTypesDoc struct {
	XMLName  xml.Name                `xml:"Types"`
	Xmlns    string                  `xml:"xmlns,attr,omitempty"`
	Defaults []contentTypesDefaultEl `xml:"Default"`
	Overrides []contentTypesOverride `xml:"Override"`
}

type contentTypesDefaultEl struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentTypesOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// defaultContentTypesXmlns matches the namespace used by OPC-family packages.
const defaultContentTypesXmlns = "http://schemas.openxmlformats.org/package/2006/content-types"

// requiredSidecarExtensions are the file-extension declarations this engine
// guarantees are present after augmentation.
var requiredSidecarExtensions = []string{"bsdiff", "diff", "shasum"}

// augmentContentTypes reads dir/[Content_Types].xml if present, merges in
// this engine's sidecar extension declarations, and writes the result back.
// A missing manifest is created fresh; a malformed one is treated as absent
// rather than failing the build (the manifest is a courtesy for OPC-aware
// consumers, not load-bearing for apply correctness).
func augmentContentTypes(dir string) error {
	path := filepath.Join(dir, contentTypesFileName)

	doc, err := loadContentTypesDoc(path)
	if err != nil {
		return err
	}

	existing := make(map[string]struct{}, len(doc.Defaults))
	for _, d := range doc.Defaults {
		existing[asciiLowerFold(d.Extension)] = struct{}{}
	}

	changed := false
	for _, ext := range requiredSidecarExtensions {
		if _, ok := existing[ext]; ok {
			continue
		}

		doc.Defaults = append(doc.Defaults, contentTypesDefaultEl{
			Extension:   ext,
			ContentType: sidecarContentType,
		})
		changed = true
	}

	if !changed {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil
		}
	}

	sort.Slice(doc.Defaults, func(i, j int) bool { return doc.Defaults[i].Extension < doc.Defaults[j].Extension })

	if doc.Xmlns == "" {
		doc.Xmlns = defaultContentTypesXmlns
	}

	return writeContentTypesDoc(path, doc)
}

// loadContentTypesDoc loads an existing manifest, or returns an empty one
// when absent or unparsable.
func loadContentTypesDoc(path string) (contentTypesDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return contentTypesDoc{Xmlns: defaultContentTypesXmlns}, nil
		}

		return contentTypesDoc{}, fmt.Errorf("%w: read %s: %v", ErrIOFailed, path, err)
	}

	var doc contentTypesDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return contentTypesDoc{Xmlns: defaultContentTypesXmlns}, nil
	}

	return doc, nil
}

// writeContentTypesDoc serializes doc to path.
func writeContentTypesDoc(path string, doc contentTypesDoc) error {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", contentTypesFileName, err)
	}

	full := append([]byte(xml.Header), out...)
	if err := os.WriteFile(path, full, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailed, path, err)
	}

	return nil
}

// asciiLowerFold lowercases ASCII letters only, matching extension comparison rules.
func asciiLowerFold(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}

	return string(b)
}
