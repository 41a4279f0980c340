// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pathguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_Validate_TraversalAndAbsolute(t *testing.T) {
	v := New(nil)

	tests := []struct {
		name  string
		path  string
		valid bool
	}{
		{"plain relative path", "app/page.tsx", true},
		{"nested component", "components/ui/Button.tsx", true},
		{"parent traversal", "../../etc/passwd", false},
		{"embedded traversal", "src/../../etc/passwd", false},
		{"windows-style traversal", "src\\..\\secrets.txt", false},
		{"absolute path", "/etc/passwd", false},
		{"empty path", "", false},
		{"dot segments that are not traversal", "src/..foo/file.ts", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.path)
			assert.Equal(t, tt.valid, res.Valid, "reason: %s", res.Reason)
			if !tt.valid {
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestValidator_Validate_ProtectedLocations(t *testing.T) {
	v := New(nil)

	tests := []struct {
		name  string
		path  string
		valid bool
	}{
		{"manifest at root", "package.json", false},
		{"lockfile", "pnpm-lock.yaml", false},
		{"framework config", "next.config.ts", false},
		{"env file", ".env.local", false},
		{"inside node_modules", "node_modules/react/index.js", false},
		{"inside version control", ".git/config", false},
		{"inside build output", ".next/static/chunk.js", false},
		{"credential directory", "supabase/client.ts", false},
		{"name collision in a subdirectory", "docs/package.json", false},
		{"similarly named but unprotected", "app/packages.ts", true},
		{"app source file", "app/layout.tsx", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.path)
			assert.Equal(t, tt.valid, res.Valid, "reason: %s", res.Reason)
		})
	}
}

// TestValidator_Validate_CustomConfig verifies that the deny-list is
// configuration, not hidden process-wide state.
func TestValidator_Validate_CustomConfig(t *testing.T) {
	v := New(&Config{Patterns: []string{"secrets/", "Makefile"}})

	assert.False(t, v.Validate("secrets/token.txt").Valid)
	assert.False(t, v.Validate("Makefile").Valid)
	// Defaults must not leak in.
	assert.True(t, v.Validate("package.json").Valid)
}
