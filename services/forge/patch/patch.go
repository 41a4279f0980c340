// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patch applies search-and-replace edits to file content.
//
// # Description
//
// The engine tolerates a generator whose search text may have drifted from
// the real file through reformatting. Matching degrades in three steps:
//
//  1. exact first-occurrence splice
//  2. whitespace-normalized match (runs of whitespace collapse to one space)
//  3. on a normalized hit, a trimmed literal replace on the original content
//
// Step 3 deliberately trades precision for safety: computing exact offsets
// back in normalized space risks corrupting indentation, so the engine
// accepts a coarser trimmed-substring replacement instead. When nothing
// matches, the engine reports ErrPatchNotFound and never guesses.
//
// Ambiguous matches are not an error. First-occurrence semantics apply
// throughout; callers disambiguate via the patch's Context field, which is
// carried but not consulted today.
package patch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
)

// ErrPatchNotFound reports that a patch's search text could not be located,
// even after whitespace normalization. It is a sentinel, not a panic: a
// missed patch must surface to the caller, never be silently dropped.
var ErrPatchNotFound = errors.New("patch: search text not found in content")

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalize collapses every run of whitespace to a single space so that
// reformatting-only drift between generator output and file content does
// not defeat matching.
func normalize(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

// Apply applies one patch to content, replacing exactly the first occurrence
// of the search text. Returns ErrPatchNotFound when the search text cannot
// be located by any strategy; the content is returned unchanged in that case.
func Apply(content string, p datatypes.SearchReplacePatch) (string, error) {
	if p.Search == "" {
		return content, fmt.Errorf("empty search string: %w", ErrPatchNotFound)
	}

	if idx := strings.Index(content, p.Search); idx >= 0 {
		return content[:idx] + p.Replace + content[idx+len(p.Search):], nil
	}

	// Reformatting-only drift: retry against whitespace-normalized copies.
	if strings.Contains(normalize(content), normalize(p.Search)) {
		trimmedSearch := strings.TrimSpace(p.Search)
		if trimmedSearch != "" {
			if idx := strings.Index(content, trimmedSearch); idx >= 0 {
				replacement := strings.TrimSpace(p.Replace)
				return content[:idx] + replacement + content[idx+len(trimmedSearch):], nil
			}
		}
	}

	return content, ErrPatchNotFound
}

// ApplyAll applies patches strictly in order and aborts at the first failure.
//
// The operation is all-or-nothing: on failure the original content is
// returned with an error wrapping ErrPatchNotFound, regardless of how many
// earlier patches would have succeeded. Callers must treat a batch failure
// as "fall back to full-file replacement" rather than trusting a
// half-patched file.
func ApplyAll(content string, patches []datatypes.SearchReplacePatch) (string, error) {
	result := content
	for i, p := range patches {
		next, err := Apply(result, p)
		if err != nil {
			return content, fmt.Errorf("patch %d of %d: %w", i+1, len(patches), err)
		}
		result = next
	}
	return result, nil
}
