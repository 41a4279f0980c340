// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/AleutianAI/AleutianForge/services/llm"
)

// =============================================================================
// Phase Prompts
// =============================================================================

const architectSystemPrompt = `You are a senior software architect planning a
Next.js application change. Reply with a single JSON object and nothing else:

{"summary": "<one sentence>", "steps": [{"title": "...", "detail": "...", "files": ["..."]}]}

Plan only what the user asked for. Keep the step list short and concrete.`

const codeSystemPrompt = `You are an expert Next.js and TypeScript engineer.
Execute the build plan exactly. Emit every file change through the provided
tools: write_file for new or fully rewritten files, patch_file for targeted
edits to existing files, delete_file for removals. Use project-relative paths.
After the tool calls, reply with a short message for the user describing what
you built.`

const reviewSystemPrompt = `You are a meticulous code reviewer. You are given
validation errors found in generated files. For each error, suggest the
smallest concrete fix. Reply in plain prose, one line per error.`

func buildArchitectPrompt(userPrompt, projectSummary string) string {
	var b strings.Builder
	b.WriteString(architectSystemPrompt)
	b.WriteString("\n\n## Current project\n\n")
	b.WriteString(projectSummary)
	b.WriteString("\n\n## Request\n\n")
	b.WriteString(userPrompt)
	return b.String()
}

// buildCodeMessages assembles the code-phase conversation: the plan verbatim,
// the project digest, up to maxFiles full file bodies, then the user request.
func buildCodeMessages(userPrompt string, plan *Plan, projectSummary string,
	files map[string]datatypes.ProjectFile, paths []string, maxFiles int) []llm.Message {

	var b strings.Builder
	b.WriteString("## Build plan\n\n")
	b.WriteString(plan.JSON())
	b.WriteString("\n\n## Current project\n\n")
	b.WriteString(projectSummary)

	inlined := 0
	for _, p := range paths {
		if inlined >= maxFiles {
			break
		}
		f, ok := files[p]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n\n### %s\n```\n%s\n```", p, f.Content)
		inlined++
	}

	b.WriteString("\n\n## Request\n\n")
	b.WriteString(userPrompt)
	return []llm.Message{{Role: "user", Content: b.String()}}
}

func buildReviewPrompt(errors []string, projectSummary string) string {
	var b strings.Builder
	b.WriteString(reviewSystemPrompt)
	b.WriteString("\n\n## Validation errors\n\n")
	for _, e := range errors {
		b.WriteString("- ")
		b.WriteString(e)
		b.WriteByte('\n')
	}
	b.WriteString("\n## Current project\n\n")
	b.WriteString(projectSummary)
	return b.String()
}

// =============================================================================
// Code-Phase Tools
// =============================================================================

func codeTools() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        "write_file",
			Description: "Create a new file or fully replace an existing one.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path":    map[string]any{"type": "string", "description": "Project-relative path"},
					"content": map[string]any{"type": "string", "description": "Complete file content"},
				},
				"required": []string{"path", "content"},
			},
		},
		{
			Name:        "patch_file",
			Description: "Apply targeted search/replace edits to an existing file.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string", "description": "Project-relative path"},
					"patches": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"search":  map[string]any{"type": "string"},
								"replace": map[string]any{"type": "string"},
							},
							"required": []string{"search", "replace"},
						},
					},
				},
				"required": []string{"path", "patches"},
			},
		},
		{
			Name:        "delete_file",
			Description: "Remove a file from the project.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string", "description": "Project-relative path"},
				},
				"required": []string{"path"},
			},
		},
	}
}

// commandFromToolCall decodes one model tool call into a typed file command.
// Unknown tool names are an error; the tool list is closed.
func commandFromToolCall(tc llm.ToolCall) (datatypes.FileCommand, error) {
	var args struct {
		Path    string                         `json:"path"`
		Content string                         `json:"content"`
		Patches []datatypes.SearchReplacePatch `json:"patches"`
	}
	if err := json.Unmarshal(tc.Arguments, &args); err != nil {
		return datatypes.FileCommand{}, fmt.Errorf("tool %s: bad arguments: %w", tc.Name, err)
	}

	var cmd datatypes.FileCommand
	switch tc.Name {
	case "write_file":
		cmd = datatypes.FileCommand{Kind: datatypes.CommandCreateFile, Path: args.Path, Content: args.Content}
	case "patch_file":
		cmd = datatypes.FileCommand{Kind: datatypes.CommandPatchFile, Path: args.Path, Patches: args.Patches}
	case "delete_file":
		cmd = datatypes.FileCommand{Kind: datatypes.CommandDeleteFile, Path: args.Path}
	default:
		return datatypes.FileCommand{}, fmt.Errorf("unknown tool %q", tc.Name)
	}
	if err := cmd.Validate(); err != nil {
		return datatypes.FileCommand{}, fmt.Errorf("tool %s: %w", tc.Name, err)
	}
	return cmd, nil
}
