// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace owns the in-memory project state for one editing
// session: the flat path-to-file mapping, the derived tree view, and the
// compact project digest fed back to the generator each turn.
package workspace

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/AleutianAI/AleutianForge/services/forge/patch"
	"github.com/AleutianAI/AleutianForge/services/forge/tree"
)

// ErrUnknownPath reports a PATCH or DELETE against a path the workspace does
// not hold.
var ErrUnknownPath = errors.New("workspace: no file at path")

// Workspace is the mutable project state for one session.
//
// # Thread Safety
//
// Safe for concurrent use. A single pipeline invocation mutates it from one
// goroutine, but concurrent invocations for different sessions each get
// their own Workspace and share nothing.
type Workspace struct {
	mu    sync.RWMutex
	files map[string]datatypes.ProjectFile
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{files: make(map[string]datatypes.ProjectFile)}
}

// NewFromFiles seeds a workspace from an existing file set. The map is
// copied; the caller keeps ownership of its argument.
func NewFromFiles(files map[string]datatypes.ProjectFile) *Workspace {
	w := New()
	for p, f := range files {
		f.Path = p
		if f.Language == "" {
			f.Language = datatypes.LanguageForPath(p)
		}
		w.files[p] = f
	}
	return w
}

// Get returns the file at path and whether it exists.
func (w *Workspace) Get(path string) (datatypes.ProjectFile, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	f, ok := w.files[path]
	return f, ok
}

// Has reports whether a file exists at path.
func (w *Workspace) Has(path string) bool {
	_, ok := w.Get(path)
	return ok
}

// Put inserts or supersedes a file in place.
func (w *Workspace) Put(f datatypes.ProjectFile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if f.Language == "" {
		f.Language = datatypes.LanguageForPath(f.Path)
	}
	w.files[f.Path] = f
}

// Len returns the number of files.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.files)
}

// Paths returns all paths in lexicographic order.
func (w *Workspace) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Files returns a copy of the file mapping.
func (w *Workspace) Files() map[string]datatypes.ProjectFile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]datatypes.ProjectFile, len(w.files))
	for p, f := range w.files {
		out[p] = f
	}
	return out
}

// Apply executes one validated file command against the workspace.
//
// CREATE and UPDATE supersede the file in place. DELETE removes it; deleting
// an unknown path is an error so the caller can surface it. PATCH applies
// the command's patches all-or-nothing via the patch engine: on any patch
// miss the file is left untouched and the error (wrapping
// patch.ErrPatchNotFound) propagates so the caller can fall back or report
// instead of trusting a half-patched file.
//
// Apply assumes the command already passed FileCommand.Validate and the
// path guard; it enforces neither.
func (w *Workspace) Apply(cmd datatypes.FileCommand) error {
	switch cmd.Kind {
	case datatypes.CommandCreateFile, datatypes.CommandUpdateFile:
		w.Put(datatypes.NewProjectFile(cmd.Path, cmd.Content))
		return nil

	case datatypes.CommandDeleteFile:
		w.mu.Lock()
		defer w.mu.Unlock()
		if _, ok := w.files[cmd.Path]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPath, cmd.Path)
		}
		delete(w.files, cmd.Path)
		return nil

	case datatypes.CommandPatchFile:
		w.mu.Lock()
		defer w.mu.Unlock()
		f, ok := w.files[cmd.Path]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPath, cmd.Path)
		}
		patched, err := patch.ApplyAll(f.Content, cmd.Patches)
		if err != nil {
			return fmt.Errorf("patching %s: %w", cmd.Path, err)
		}
		f.Content = patched
		w.files[cmd.Path] = f
		return nil

	default:
		return fmt.Errorf("workspace: unknown command kind %q", cmd.Kind)
	}
}

// Tree regenerates the hierarchical view of the current file set.
func (w *Workspace) Tree() *datatypes.TreeNode {
	root, _ := tree.NewResolver(tree.ConflictReuse).Build(w.Files())
	return root
}
