// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parser

import (
	"testing"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFileOperations_TaggedFences(t *testing.T) {
	text := "Here are the files.\n\n" +
		"```ts:src/a.ts\nexport const a = 1;\n```\n\n" +
		"And the second one:\n\n" +
		"```ts:src/b.ts\nexport const b = 2;\n```\n"

	cmds := ExtractFileOperations(text)
	require.Len(t, cmds, 2)
	assert.Equal(t, "src/a.ts", cmds[0].Path)
	assert.Equal(t, "src/b.ts", cmds[1].Path)
	assert.Equal(t, datatypes.CommandCreateFile, cmds[0].Kind)
	assert.Equal(t, "export const a = 1;", cmds[0].Content)
	assert.Equal(t, "export const b = 2;", cmds[1].Content)
}

func TestExtractFileOperations_LabeledFallback(t *testing.T) {
	text := "File: app/page.tsx\n```tsx\nexport default function Home() {}\n```\n"

	cmds := ExtractFileOperations(text)
	require.Len(t, cmds, 1)
	assert.Equal(t, "app/page.tsx", cmds[0].Path)
	assert.Contains(t, cmds[0].Content, "function Home")
}

func TestExtractFileOperations_BoldedPathFallback(t *testing.T) {
	text := "**components/Nav.tsx**\n```tsx\nexport const Nav = () => null;\n```\n"

	cmds := ExtractFileOperations(text)
	require.Len(t, cmds, 1)
	assert.Equal(t, "components/Nav.tsx", cmds[0].Path)
}

func TestExtractFileOperations_InferredFromExport(t *testing.T) {
	text := "Try this component:\n```\nexport function PricingCard() { return null; }\n```\n"

	cmds := ExtractFileOperations(text)
	require.Len(t, cmds, 1)
	assert.Equal(t, "components/PricingCard.tsx", cmds[0].Path)
}

// TestExtractFileOperations_StrategyPriority verifies that a later strategy
// never runs when an earlier one produced results.
func TestExtractFileOperations_StrategyPriority(t *testing.T) {
	text := "```ts:src/real.ts\nexport const real = 1;\n```\n" +
		"File: src/decoy.ts\n```ts\nexport const decoy = 2;\n```\n"

	cmds := ExtractFileOperations(text)
	require.Len(t, cmds, 1)
	assert.Equal(t, "src/real.ts", cmds[0].Path)
}

func TestExtractFileOperations_NoCommands(t *testing.T) {
	assert.Empty(t, ExtractFileOperations("Just prose, no code at all."))
	assert.Empty(t, ExtractFileOperations("```\nconsole.log('no export');\n```"),
		"untagged block without an export cannot be named")
}

func TestExtractFileOperations_MultilineContent(t *testing.T) {
	text := "```tsx:app/layout.tsx\nimport './globals.css';\n\n" +
		"export default function Layout({ children }) {\n  return children;\n}\n```"

	cmds := ExtractFileOperations(text)
	require.Len(t, cmds, 1)
	assert.Contains(t, cmds[0].Content, "import './globals.css';")
	assert.Contains(t, cmds[0].Content, "return children;")
}

// =============================================================================
// Test: StripFileBlocks
// =============================================================================

func TestStripFileBlocks_LeavesProse(t *testing.T) {
	text := "I created the homepage for you.\n\n" +
		"```tsx:app/page.tsx\nexport default function Home() {}\n```\n\n" +
		"Let me know if you want changes."

	got := StripFileBlocks(text)
	assert.Contains(t, got, "I created the homepage")
	assert.Contains(t, got, "Let me know")
	assert.NotContains(t, got, "function Home")
}

func TestStripFileBlocks_NearEmptyRemainder(t *testing.T) {
	text := "```tsx:app/page.tsx\nexport default function Home() {}\n```\n"
	assert.Equal(t, "", StripFileBlocks(text))
}

func TestStripFileBlocks_KeepsIllustrativeSnippets(t *testing.T) {
	// An untagged block with no export is illustrative, not a file; it stays.
	text := "Run this in your terminal for reference purposes:\n\n```\nnpm run dev\n```\n"
	got := StripFileBlocks(text)
	assert.Contains(t, got, "npm run dev")
}
