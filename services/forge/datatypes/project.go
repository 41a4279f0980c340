// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"path"
	"strings"
)

// =============================================================================
// Project Files
// =============================================================================

// Language classifies a project file by its extension.
type Language string

const (
	LanguageTypeScript Language = "typescript"
	LanguageTSX        Language = "tsx"
	LanguageJavaScript Language = "javascript"
	LanguageJSX        Language = "jsx"
	LanguageCSS        Language = "css"
	LanguageHTML       Language = "html"
	LanguageJSON       Language = "json"
	LanguageMarkdown   Language = "markdown"
	LanguageOther      Language = "other"
)

// LanguageForPath infers the language from the file extension.
func LanguageForPath(p string) Language {
	switch strings.ToLower(path.Ext(p)) {
	case ".ts":
		return LanguageTypeScript
	case ".tsx":
		return LanguageTSX
	case ".js", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".jsx":
		return LanguageJSX
	case ".css", ".scss":
		return LanguageCSS
	case ".html", ".htm":
		return LanguageHTML
	case ".json":
		return LanguageJSON
	case ".md", ".mdx":
		return LanguageMarkdown
	default:
		return LanguageOther
	}
}

// ProjectFile is one file of the in-memory project state, keyed uniquely by
// Path. Entries live for the duration of an editing session: superseded in
// place on UPDATE/PATCH and removed on DELETE. Persisted copies are the
// snapshot store's concern.
type ProjectFile struct {
	Path     string   `json:"path"`
	Content  string   `json:"content"`
	Language Language `json:"language,omitempty"`
}

// NewProjectFile builds a ProjectFile with its language inferred from the path.
func NewProjectFile(p, content string) ProjectFile {
	return ProjectFile{Path: p, Content: content, Language: LanguageForPath(p)}
}

// =============================================================================
// File Tree
// =============================================================================

// NodeType discriminates tree nodes into files and folders.
type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

// TreeNode is one node of the hierarchical view derived from the flat path
// set. The tree is regenerated from scratch whenever the file set changes;
// project sizes are small enough that incremental diffing is not worth the
// bookkeeping.
type TreeNode struct {
	Name     string      `json:"name"`
	Type     NodeType    `json:"type"`
	Path     string      `json:"path"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Child returns the direct child with the given name, or nil.
func (n *TreeNode) Child(name string) *TreeNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}
