// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package inspect

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
)

// Package-level compiled regexes for the heuristic checks (compiled once).
var (
	exportRe      = regexp.MustCompile(`(?m)^\s*export[\s{]`)
	aliasImportRe = regexp.MustCompile(`^\s*import\s+(?:[^'"]*?from\s+)?['"](@/[^'"]+)['"]`)
)

// =============================================================================
// Structural Check
// =============================================================================

type bracketPair struct {
	open, close byte
	name        string
}

var bracketPairs = []bracketPair{
	{'{', '}', "braces"},
	{'(', ')', "parentheses"},
	{'[', ']', "brackets"},
}

// checkBalance counts opening and closing brackets of each kind. A count
// mismatch is an error. The count is textual: brackets inside strings and
// comments are counted too, which keeps the check cheap and occasionally
// wrong in the conservative direction.
func checkBalance(p, content string) []string {
	var errs []string
	for _, pair := range bracketPairs {
		open := strings.Count(content, string(pair.open))
		closed := strings.Count(content, string(pair.close))
		if open != closed {
			errs = append(errs, fmt.Sprintf("%s: unbalanced %s (%d open, %d close)",
				p, pair.name, open, closed))
		}
	}
	return errs
}

// =============================================================================
// Heuristic Quality Checks
// =============================================================================

func checkDebugStatements(p, content string) []string {
	var warns []string
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(trimmed, "console.log(") || trimmed == "debugger;" || trimmed == "debugger" {
			warns = append(warns, fmt.Sprintf("%s:%d: debug statement", p, i+1))
		}
	}
	return warns
}

func checkExplicitAny(p, content string) []string {
	var warns []string
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(line, ": any") || strings.Contains(line, "as any") ||
			strings.Contains(line, "<any>") {
			warns = append(warns, fmt.Sprintf("%s:%d: explicit any defeats type checking", p, i+1))
		}
	}
	return warns
}

// =============================================================================
// Aliased Import Check
// =============================================================================

// aliasImportVariants lists the candidate on-disk names for an "@/"-aliased
// import specifier, in resolution order: exact, extension variants, index
// files.
var aliasImportVariants = []string{
	"", ".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.tsx",
}

// checkAliasImports verifies each project-relative aliased import resolves
// to a known file. Unresolved imports are warnings, not errors: the file may
// be created later in the same turn.
func checkAliasImports(p, content string, all map[string]datatypes.ProjectFile) []string {
	var warns []string
	for i, line := range strings.Split(content, "\n") {
		m := aliasImportRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		target := strings.TrimPrefix(m[1], "@/")
		if !resolvesInProject(target, all) {
			warns = append(warns, fmt.Sprintf("%s:%d: unresolved import %q", p, i+1, m[1]))
		}
	}
	return warns
}

func resolvesInProject(target string, all map[string]datatypes.ProjectFile) bool {
	for _, variant := range aliasImportVariants {
		candidate := target + variant
		if _, ok := all[candidate]; ok {
			return true
		}
		// Projects that root the alias at src/ resolve there too.
		if _, ok := all["src/"+candidate]; ok {
			return true
		}
	}
	return false
}

// =============================================================================
// Repair Pass
// =============================================================================

// repairReactImport injects the default React import into a view file that
// lacks any react import. The injection is purely additive: one line is
// prepended, nothing is reformatted.
func repairReactImport(p string, f datatypes.ProjectFile) (datatypes.ProjectFile, string, bool) {
	ext := strings.ToLower(path.Ext(p))
	if ext != ".tsx" && ext != ".jsx" {
		return f, "", false
	}
	if strings.Contains(f.Content, "from 'react'") ||
		strings.Contains(f.Content, `from "react"`) ||
		strings.Contains(f.Content, "import React") {
		return f, "", false
	}
	f.Content = "import React from 'react';\n" + f.Content
	return f, "injected missing default React import", true
}
