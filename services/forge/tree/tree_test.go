// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tree

import (
	"testing"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOrCreatePath_CreatesIntermediateFolders(t *testing.T) {
	r := NewResolver(ConflictReuse)
	root := NewRoot()

	leaf, err := r.ResolveOrCreatePath(root, "components/ui/Button.tsx")
	require.NoError(t, err)

	assert.Equal(t, datatypes.NodeFile, leaf.Type)
	assert.Equal(t, "components/ui/Button.tsx", leaf.Path)

	components := root.Child("components")
	require.NotNil(t, components)
	assert.Equal(t, datatypes.NodeFolder, components.Type)
	ui := components.Child("ui")
	require.NotNil(t, ui)
	assert.Equal(t, "components/ui", ui.Path)
}

// TestResolveOrCreatePath_Idempotent verifies that resolving the same path
// twice produces no duplicate nodes.
func TestResolveOrCreatePath_Idempotent(t *testing.T) {
	r := NewResolver(ConflictReuse)
	root := NewRoot()

	first, err := r.ResolveOrCreatePath(root, "app/page.tsx")
	require.NoError(t, err)
	second, err := r.ResolveOrCreatePath(root, "app/page.tsx")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, root.Children, 1)
	assert.Len(t, root.Child("app").Children, 1)
}

func TestResolveOrCreatePath_SiblingsShareFolders(t *testing.T) {
	r := NewResolver(ConflictReuse)
	root := NewRoot()

	_, err := r.ResolveOrCreatePath(root, "app/page.tsx")
	require.NoError(t, err)
	_, err = r.ResolveOrCreatePath(root, "app/layout.tsx")
	require.NoError(t, err)

	app := root.Child("app")
	require.NotNil(t, app)
	assert.Len(t, app.Children, 2)
}

func TestResolveOrCreatePath_ConflictReuse(t *testing.T) {
	r := NewResolver(ConflictReuse)
	root := NewRoot()

	_, err := r.ResolveOrCreatePath(root, "config")
	require.NoError(t, err)

	// "config" now exists as a file; resolving through it as a folder reuses
	// the node rather than erroring or duplicating.
	leaf, err := r.ResolveOrCreatePath(root, "config/app.ts")
	require.NoError(t, err)
	assert.Equal(t, "config/app.ts", leaf.Path)
	assert.Len(t, root.Children, 1)
}

func TestResolveOrCreatePath_ConflictError(t *testing.T) {
	r := NewResolver(ConflictError)
	root := NewRoot()

	_, err := r.ResolveOrCreatePath(root, "config")
	require.NoError(t, err)

	_, err = r.ResolveOrCreatePath(root, "config/app.ts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"config"`)
}

func TestResolveOrCreatePath_RejectsEmptySegments(t *testing.T) {
	r := NewResolver(ConflictReuse)
	_, err := r.ResolveOrCreatePath(NewRoot(), "app//page.tsx")
	assert.Error(t, err)
}

func TestBuild_DeterministicAcrossMapOrder(t *testing.T) {
	r := NewResolver(ConflictReuse)
	files := map[string]datatypes.ProjectFile{
		"b/two.ts":  datatypes.NewProjectFile("b/two.ts", ""),
		"a/one.ts":  datatypes.NewProjectFile("a/one.ts", ""),
		"a/zero.ts": datatypes.NewProjectFile("a/zero.ts", ""),
	}

	root, err := r.Build(files)
	require.NoError(t, err)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "a", root.Children[0].Name)
	assert.Equal(t, "b", root.Children[1].Name)
	assert.Equal(t, "one.ts", root.Children[0].Children[0].Name)
}
