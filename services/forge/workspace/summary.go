// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workspace

import (
	"sort"
	"strings"
)

// EmptySummary is the fixed digest for a project with no files.
const EmptySummary = "The project has no files yet."

const (
	// previewBytes bounds each file preview in the summary.
	previewBytes = 200

	// maxPreviewFiles bounds how many high-signal files get a preview.
	maxPreviewFiles = 5
)

// highSignalSuffixes mark the files whose content most shapes generation:
// pages, layout components, global styles, and the application entry point.
var highSignalSuffixes = []string{
	"page.tsx",
	"page.jsx",
	"layout.tsx",
	"layout.jsx",
	"globals.css",
	"App.tsx",
	"App.jsx",
	"main.tsx",
	"index.tsx",
}

// Summary produces the compact project digest that is re-embedded into
// generation prompts every turn.
//
// The output is deterministic for a given file set: paths are listed in
// lexicographic order and previews follow that same order, so repeated
// calls are byte-identical regardless of map insertion order. Instability
// here would make generation behavior impossible to reproduce.
func (w *Workspace) Summary() string {
	paths := w.Paths()
	if len(paths) == 0 {
		return EmptySummary
	}

	var b strings.Builder
	b.WriteString("Files in the project:\n")
	for _, p := range paths {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteByte('\n')
	}

	previews := 0
	for _, p := range paths {
		if previews >= maxPreviewFiles {
			break
		}
		if !isHighSignal(p) {
			continue
		}
		f, ok := w.Get(p)
		if !ok {
			continue
		}
		b.WriteString("\n")
		b.WriteString(p)
		b.WriteString(" (preview):\n")
		b.WriteString(preview(f.Content))
		b.WriteByte('\n')
		previews++
	}
	return b.String()
}

func isHighSignal(path string) bool {
	for _, suffix := range highSignalSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// preview returns the first previewBytes characters with newlines collapsed
// to spaces, keeping each preview on one line of the digest.
func preview(content string) string {
	flat := strings.ReplaceAll(content, "\n", " ")
	runes := []rune(flat)
	if len(runes) > previewBytes {
		return string(runes[:previewBytes])
	}
	return flat
}

// Routes derives the application routes from app-router page files:
// app/page.tsx is "/", app/about/page.tsx is "/about", and dynamic
// segments pass through verbatim. Routes are returned sorted.
func (w *Workspace) Routes() []string {
	var routes []string
	for _, p := range w.Paths() {
		rest, ok := strings.CutPrefix(p, "app/")
		if !ok {
			continue
		}
		dir, ok := cutPageSuffix(rest)
		if !ok {
			continue
		}
		if dir == "" {
			routes = append(routes, "/")
		} else {
			routes = append(routes, "/"+dir)
		}
	}
	sort.Strings(routes)
	return routes
}

func cutPageSuffix(p string) (string, bool) {
	for _, name := range []string{"page.tsx", "page.jsx", "page.ts", "page.js"} {
		if p == name {
			return "", true
		}
		if dir, ok := strings.CutSuffix(p, "/"+name); ok {
			return dir, true
		}
	}
	return "", false
}
