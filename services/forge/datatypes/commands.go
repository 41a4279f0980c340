// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire-level and in-memory data model shared
// across the forge synthesis service: file mutation commands, project files,
// tree nodes, pipeline results, and the streaming event protocol.
package datatypes

import (
	"errors"
	"fmt"
)

// =============================================================================
// Command Protocol
// =============================================================================

// CommandKind identifies a file mutation intent produced by the code phase.
type CommandKind string

const (
	// CommandCreateFile creates a new file with full content.
	CommandCreateFile CommandKind = "CREATE_FILE"

	// CommandUpdateFile replaces the full content of an existing file.
	CommandUpdateFile CommandKind = "UPDATE_FILE"

	// CommandDeleteFile removes a file from the project.
	CommandDeleteFile CommandKind = "DELETE_FILE"

	// CommandPatchFile applies search-and-replace patches to an existing file.
	CommandPatchFile CommandKind = "PATCH_FILE"
)

// Sentinel errors for command invariant violations.
var (
	ErrEmptyPath      = errors.New("file command has an empty path")
	ErrEmptySearch    = errors.New("search-replace patch has an empty search string")
	ErrContentOnPatch = errors.New("PATCH_FILE commands must not carry full content")
	ErrPatchesOnWrite = errors.New("CREATE_FILE/UPDATE_FILE commands must not carry patches")
)

// SearchReplacePatch is a single fine-grained edit against existing content.
//
// Search must be non-empty. Context is carried through parsing and the wire
// protocol as a disambiguation hint but is not consulted by the matching
// algorithm today; it is a reserved extension point.
type SearchReplacePatch struct {
	Search  string `json:"search"`
	Replace string `json:"replace"`
	Context string `json:"context,omitempty"`
}

// FileCommand is a typed instruction to create, update, delete, or patch one
// project file. Commands are created transiently per generation turn and
// consumed immediately by the sync engine; they are never persisted as-is.
type FileCommand struct {
	Kind    CommandKind          `json:"kind"`
	Path    string               `json:"path"`
	Content string               `json:"content,omitempty"`
	Patches []SearchReplacePatch `json:"patches,omitempty"`
}

// Validate enforces the shape invariants of the command protocol:
// PATCH commands carry patches and no full content, CREATE/UPDATE carry
// content and no patches, and every patch has a non-empty search string.
//
// Path safety (traversal, absolute paths, protected locations) is the
// pathguard package's concern, not Validate's.
func (c FileCommand) Validate() error {
	if c.Path == "" {
		return ErrEmptyPath
	}
	switch c.Kind {
	case CommandCreateFile, CommandUpdateFile:
		if len(c.Patches) > 0 {
			return fmt.Errorf("%s %q: %w", c.Kind, c.Path, ErrPatchesOnWrite)
		}
	case CommandPatchFile:
		if c.Content != "" {
			return fmt.Errorf("%s %q: %w", c.Kind, c.Path, ErrContentOnPatch)
		}
		for i, p := range c.Patches {
			if p.Search == "" {
				return fmt.Errorf("%s %q patch %d: %w", c.Kind, c.Path, i, ErrEmptySearch)
			}
		}
	case CommandDeleteFile:
		// Nothing beyond the path to check.
	default:
		return fmt.Errorf("unknown command kind %q for %q", c.Kind, c.Path)
	}
	return nil
}
