// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parser extracts typed file commands from the generator's free-text
// output.
//
// # Description
//
// Three extraction strategies run in strict priority order, each tried only
// if every prior strategy yielded zero results:
//
//  1. fenced blocks tagged ```language:path, the format the generator is
//     instructed to use
//  2. a "File:"/"Path:" label or bolded path immediately before a fence
//  3. a synthetic path inferred from an exported identifier inside an
//     untagged block
//
// This graceful degradation trades precision for resilience against model
// format drift. All of the matching here is heuristic text scraping, not
// structural parsing; it is best-effort and callers must treat an empty
// result as a valid "no changes" outcome, not an error.
//
// Extracted commands default to CREATE_FILE; the pipeline reclassifies them
// to UPDATE_FILE when the path already exists in the workspace.
package parser

import (
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
)

// Package-level compiled regexes for code-block extraction (compiled once).
var (
	// ```ts:src/a.ts\n...```
	taggedFenceRe = regexp.MustCompile(
		"(?s)```([a-zA-Z0-9_+#-]+):([^\\s`]+)[ \t]*\r?\n(.*?)```")

	// File: src/a.ts  /  Path: src/a.ts  /  **src/a.ts**  followed by a fence.
	labeledFenceRe = regexp.MustCompile(
		"(?s)(?:(?:File|Path|Filename):[ \t]*|\\*\\*)([A-Za-z0-9_./\\[\\]-]+\\.[A-Za-z0-9]+)(?:\\*\\*)?[ \t]*\r?\n+```[a-zA-Z0-9_+#-]*[ \t]*\r?\n(.*?)```")

	// Any fenced block, tagged with a bare language or nothing at all.
	untaggedFenceRe = regexp.MustCompile(
		"(?s)```[a-zA-Z0-9_+#-]*[ \t]*\r?\n(.*?)```")

	// First exported identifier of a block, used to synthesize a path.
	exportedIdentRe = regexp.MustCompile(
		`export\s+(?:default\s+)?(?:async\s+)?(?:function|const|class)\s+([A-Za-z_][A-Za-z0-9_]*)`)

	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// ExtractFileOperations parses the generator's text into file commands, in
// document order. All commands come back as CREATE_FILE with full content;
// kind reclassification and path safety are the caller's concern.
func ExtractFileOperations(text string) []datatypes.FileCommand {
	if cmds := extractTagged(text); len(cmds) > 0 {
		return cmds
	}
	if cmds := extractLabeled(text); len(cmds) > 0 {
		return cmds
	}
	return extractInferred(text)
}

func extractTagged(text string) []datatypes.FileCommand {
	var cmds []datatypes.FileCommand
	for _, m := range taggedFenceRe.FindAllStringSubmatch(text, -1) {
		cmds = append(cmds, datatypes.FileCommand{
			Kind:    datatypes.CommandCreateFile,
			Path:    m[2],
			Content: trimBlock(m[3]),
		})
	}
	return cmds
}

func extractLabeled(text string) []datatypes.FileCommand {
	var cmds []datatypes.FileCommand
	for _, m := range labeledFenceRe.FindAllStringSubmatch(text, -1) {
		cmds = append(cmds, datatypes.FileCommand{
			Kind:    datatypes.CommandCreateFile,
			Path:    m[1],
			Content: trimBlock(m[2]),
		})
	}
	return cmds
}

// extractInferred is the last resort: untagged blocks that look like
// components get a synthetic components/<Name>.tsx path derived from the
// first exported identifier. Blocks without an export are skipped; there is
// nothing safe to name them after.
func extractInferred(text string) []datatypes.FileCommand {
	var cmds []datatypes.FileCommand
	for _, m := range untaggedFenceRe.FindAllStringSubmatch(text, -1) {
		body := trimBlock(m[1])
		ident := exportedIdentRe.FindStringSubmatch(body)
		if ident == nil {
			continue
		}
		cmds = append(cmds, datatypes.FileCommand{
			Kind:    datatypes.CommandCreateFile,
			Path:    "components/" + ident[1] + ".tsx",
			Content: body,
		})
	}
	return cmds
}

// trimBlock strips the single trailing newline the fence capture includes.
func trimBlock(s string) string {
	return strings.TrimSuffix(s, "\n")
}

// StripFileBlocks removes every recognized code-block form from the text,
// leaving the human-readable chat message. A remainder with no real prose
// left collapses to the empty string rather than whitespace noise.
func StripFileBlocks(text string) string {
	out := taggedFenceRe.ReplaceAllString(text, "")
	out = labeledFenceRe.ReplaceAllString(out, "")
	out = untaggedFenceRe.ReplaceAllStringFunc(out, func(block string) string {
		if exportedIdentRe.MatchString(block) {
			return ""
		}
		return block
	})

	out = blankRunRe.ReplaceAllString(out, "\n\n")
	out = strings.TrimSpace(out)
	if len(out) < 10 {
		return ""
	}
	return out
}
