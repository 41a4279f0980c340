// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tree maintains the hierarchical folder/file view derived from the
// project's flat path set, creating missing intermediate folders on demand.
//
// The tree is regenerated from scratch whenever the file set changes rather
// than incrementally diffed; project sizes are tens to low hundreds of files
// and a rebuild keeps the resolver trivially correct.
package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
)

// ConflictPolicy decides what the resolver does when a path segment finds an
// existing node with the right name but the wrong type (a file where a
// folder is expected, or vice versa).
type ConflictPolicy int

const (
	// ConflictReuse reuses the mismatched node instead of creating a
	// duplicate. This tolerates ambiguous generator output (a file and a
	// folder sharing a name) at the cost of accepting an ambiguous tree.
	ConflictReuse ConflictPolicy = iota

	// ConflictError rejects the resolution with an error naming the
	// conflicting node, for callers that prefer to surface the ambiguity.
	ConflictError
)

// Resolver walks and mutates file trees under a fixed conflict policy.
type Resolver struct {
	policy ConflictPolicy
}

// NewResolver creates a resolver. ConflictReuse matches the default
// behavior of the synthesis pipeline.
func NewResolver(policy ConflictPolicy) *Resolver {
	return &Resolver{policy: policy}
}

// NewRoot creates an empty tree root.
func NewRoot() *datatypes.TreeNode {
	return &datatypes.TreeNode{Name: "", Type: datatypes.NodeFolder, Path: ""}
}

// ResolveOrCreatePath walks root level by level along filePath, creating any
// missing folder for intermediate segments and a file node for the last
// segment. The tree is mutated in place; the returned node is the leaf.
//
// The operation is idempotent: resolving the same path twice yields the
// same tree with no duplicate nodes.
func (r *Resolver) ResolveOrCreatePath(root *datatypes.TreeNode, filePath string) (*datatypes.TreeNode, error) {
	segments := strings.Split(filePath, "/")
	node := root
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("tree: path %q has an empty segment", filePath)
		}
		last := i == len(segments)-1
		expected := datatypes.NodeFolder
		if last {
			expected = datatypes.NodeFile
		}

		child := node.Child(seg)
		if child == nil {
			child = &datatypes.TreeNode{
				Name: seg,
				Type: expected,
				Path: joinPath(node.Path, seg),
			}
			node.Children = append(node.Children, child)
		} else if child.Type != expected && r.policy == ConflictError {
			return nil, fmt.Errorf("tree: node %q is a %s but path %q needs a %s",
				child.Path, child.Type, filePath, expected)
		}
		node = child
	}
	return node, nil
}

// Build regenerates a whole tree from the flat file set. Paths are inserted
// in lexicographic order so the result is deterministic regardless of map
// iteration order. Paths that fail to resolve under ConflictError are
// skipped and reported together in the returned error; the tree still
// contains every resolvable path.
func (r *Resolver) Build(files map[string]datatypes.ProjectFile) (*datatypes.TreeNode, error) {
	root := NewRoot()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var conflicts []string
	for _, p := range paths {
		if _, err := r.ResolveOrCreatePath(root, p); err != nil {
			conflicts = append(conflicts, err.Error())
		}
	}
	if len(conflicts) > 0 {
		return root, fmt.Errorf("tree: %s", strings.Join(conflicts, "; "))
	}
	return root, nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
