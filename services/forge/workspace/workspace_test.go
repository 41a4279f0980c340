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
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/AleutianAI/AleutianForge/services/forge/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_CreateUpdateDelete(t *testing.T) {
	w := New()

	require.NoError(t, w.Apply(datatypes.FileCommand{
		Kind: datatypes.CommandCreateFile, Path: "app/page.tsx", Content: "v1",
	}))
	f, ok := w.Get("app/page.tsx")
	require.True(t, ok)
	assert.Equal(t, "v1", f.Content)
	assert.Equal(t, datatypes.LanguageTSX, f.Language)

	require.NoError(t, w.Apply(datatypes.FileCommand{
		Kind: datatypes.CommandUpdateFile, Path: "app/page.tsx", Content: "v2",
	}))
	f, _ = w.Get("app/page.tsx")
	assert.Equal(t, "v2", f.Content)

	require.NoError(t, w.Apply(datatypes.FileCommand{
		Kind: datatypes.CommandDeleteFile, Path: "app/page.tsx",
	}))
	assert.False(t, w.Has("app/page.tsx"))
}

func TestApply_DeleteUnknownPath(t *testing.T) {
	w := New()
	err := w.Apply(datatypes.FileCommand{
		Kind: datatypes.CommandDeleteFile, Path: "ghost.ts",
	})
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestApply_PatchSuccess(t *testing.T) {
	w := New()
	w.Put(datatypes.NewProjectFile("lib/math.ts", "export const x = 1;"))

	err := w.Apply(datatypes.FileCommand{
		Kind: datatypes.CommandPatchFile, Path: "lib/math.ts",
		Patches: []datatypes.SearchReplacePatch{{Search: "x = 1", Replace: "x = 2"}},
	})
	require.NoError(t, err)
	f, _ := w.Get("lib/math.ts")
	assert.Equal(t, "export const x = 2;", f.Content)
}

// TestApply_PatchMissLeavesFileUntouched verifies that a failed patch batch
// never corrupts the existing file.
func TestApply_PatchMissLeavesFileUntouched(t *testing.T) {
	w := New()
	original := "export const x = 1;"
	w.Put(datatypes.NewProjectFile("lib/math.ts", original))

	err := w.Apply(datatypes.FileCommand{
		Kind: datatypes.CommandPatchFile, Path: "lib/math.ts",
		Patches: []datatypes.SearchReplacePatch{
			{Search: "x = 1", Replace: "x = 2"},
			{Search: "not present", Replace: "y"},
		},
	})
	assert.ErrorIs(t, err, patch.ErrPatchNotFound)
	f, _ := w.Get("lib/math.ts")
	assert.Equal(t, original, f.Content)
}

func TestApply_PatchUnknownPath(t *testing.T) {
	w := New()
	err := w.Apply(datatypes.FileCommand{
		Kind: datatypes.CommandPatchFile, Path: "ghost.ts",
		Patches: []datatypes.SearchReplacePatch{{Search: "a", Replace: "b"}},
	})
	assert.ErrorIs(t, err, ErrUnknownPath)
}

// =============================================================================
// Test: Context summary
// =============================================================================

func TestSummary_EmptyProject(t *testing.T) {
	assert.Equal(t, EmptySummary, New().Summary())
}

// TestSummary_Deterministic verifies byte-identical output regardless of
// insertion order, since the digest is re-embedded into prompts every turn.
func TestSummary_Deterministic(t *testing.T) {
	files := []datatypes.ProjectFile{
		datatypes.NewProjectFile("components/Nav.tsx", "export const Nav = () => null"),
		datatypes.NewProjectFile("app/page.tsx", "export default function Home() {}"),
		datatypes.NewProjectFile("app/globals.css", "body { margin: 0 }"),
	}

	a := New()
	for _, f := range files {
		a.Put(f)
	}
	b := New()
	for i := len(files) - 1; i >= 0; i-- {
		b.Put(files[i])
	}

	assert.Equal(t, a.Summary(), b.Summary())
}

func TestSummary_SortedPathsAndPreviews(t *testing.T) {
	w := New()
	w.Put(datatypes.NewProjectFile("app/page.tsx", "line one\nline two"))
	w.Put(datatypes.NewProjectFile("lib/util.ts", "export {}"))

	s := w.Summary()
	assert.Less(t, strings.Index(s, "app/page.tsx"), strings.Index(s, "lib/util.ts"))
	assert.Contains(t, s, "line one line two", "preview newlines collapse to spaces")
	assert.NotContains(t, s, "lib/util.ts (preview)", "only high-signal files get previews")
}

func TestSummary_PreviewTruncatesAt200Chars(t *testing.T) {
	w := New()
	w.Put(datatypes.NewProjectFile("app/page.tsx", strings.Repeat("a", 500)))

	s := w.Summary()
	assert.Contains(t, s, strings.Repeat("a", 200))
	assert.NotContains(t, s, strings.Repeat("a", 201))
}

func TestSummary_PreviewSubsetBounded(t *testing.T) {
	w := New()
	for _, p := range []string{
		"app/a/page.tsx", "app/b/page.tsx", "app/c/page.tsx",
		"app/d/page.tsx", "app/e/page.tsx", "app/f/page.tsx", "app/g/page.tsx",
	} {
		w.Put(datatypes.NewProjectFile(p, "content"))
	}
	assert.Equal(t, 5, strings.Count(w.Summary(), "(preview)"))
}

// =============================================================================
// Test: Route derivation
// =============================================================================

func TestRoutes(t *testing.T) {
	w := New()
	w.Put(datatypes.NewProjectFile("app/page.tsx", ""))
	w.Put(datatypes.NewProjectFile("app/about/page.tsx", ""))
	w.Put(datatypes.NewProjectFile("app/blog/[slug]/page.tsx", ""))
	w.Put(datatypes.NewProjectFile("components/Nav.tsx", ""))
	w.Put(datatypes.NewProjectFile("app/layout.tsx", ""))

	assert.Equal(t, []string{"/", "/about", "/blog/[slug]"}, w.Routes())
}

func TestTree_RegeneratedFromFileSet(t *testing.T) {
	w := New()
	w.Put(datatypes.NewProjectFile("app/page.tsx", ""))
	w.Put(datatypes.NewProjectFile("app/about/page.tsx", ""))

	root := w.Tree()
	app := root.Child("app")
	require.NotNil(t, app)
	assert.NotNil(t, app.Child("about"))
	assert.NotNil(t, app.Child("page.tsx"))
}
