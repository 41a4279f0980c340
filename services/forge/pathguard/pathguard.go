// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pathguard rejects file writes to reserved or unsafe locations.
//
// # Description
//
// The guard runs before any content is written, regardless of which
// component produced the path. It is a pure function over a compiled
// configuration: no filesystem access, no side effects. Failing the check
// is a hard rejection of the specific command, never of the whole batch,
// and rejected paths are never auto-corrected.
//
// # Thread Safety
//
// Validator is immutable after construction and safe for concurrent use.
package pathguard

import "strings"

// =============================================================================
// Configuration
// =============================================================================

// Config enumerates the protected locations.
//
// A pattern ending in "/" protects a directory: the path is rejected if any
// of its leading segments name that directory. Any other pattern protects a
// file: the path is rejected if its base name or full relative path equals
// the pattern.
type Config struct {
	Patterns []string
}

// DefaultConfig protects the build, dependency, configuration, credential,
// and version-control locations of a generated web project.
func DefaultConfig() *Config {
	return &Config{Patterns: []string{
		// Dependency manifests and lockfiles.
		"package.json",
		"package-lock.json",
		"yarn.lock",
		"pnpm-lock.yaml",
		"bun.lockb",
		// Framework and toolchain config.
		"next.config.js",
		"next.config.mjs",
		"next.config.ts",
		"tsconfig.json",
		"postcss.config.js",
		"postcss.config.mjs",
		"tailwind.config.js",
		"tailwind.config.ts",
		"components.json",
		// Credentials and environment.
		".env",
		".env.local",
		".env.production",
		// Integration client directories.
		"supabase/",
		// Build output and dependencies on disk.
		"node_modules/",
		".next/",
		"dist/",
		"build/",
		// Version control.
		".git/",
	}}
}

// =============================================================================
// Validator
// =============================================================================

// Result is the outcome of a single path check. Reason is empty when Valid.
type Result struct {
	Valid  bool
	Reason string
}

// Validator checks project-relative paths against the protected set.
type Validator struct {
	dirs  map[string]struct{}
	files map[string]struct{}
}

// New compiles the configuration into a Validator. A nil config uses
// DefaultConfig.
func New(cfg *Config) *Validator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	v := &Validator{
		dirs:  make(map[string]struct{}),
		files: make(map[string]struct{}),
	}
	for _, p := range cfg.Patterns {
		if name, ok := strings.CutSuffix(p, "/"); ok {
			v.dirs[name] = struct{}{}
			continue
		}
		v.files[p] = struct{}{}
	}
	return v
}

// Validate checks one path. Rejection reasons, in priority order:
//
//  1. empty path
//  2. a parent-directory traversal segment (either separator style)
//  3. an absolute path (leading separator)
//  4. a match against the protected deny-list
func (v *Validator) Validate(path string) Result {
	if path == "" {
		return Result{Reason: "path is empty"}
	}

	normalized := strings.ReplaceAll(path, "\\", "/")
	segments := strings.Split(normalized, "/")
	for _, seg := range segments {
		if seg == ".." {
			return Result{Reason: "path contains a parent-directory traversal segment"}
		}
	}

	if strings.HasPrefix(normalized, "/") {
		return Result{Reason: "path is absolute; only project-relative paths are allowed"}
	}

	// Directory patterns match any leading segment so nested writes such as
	// node_modules/foo/index.js are caught, not just the directory itself.
	for _, seg := range segments[:len(segments)-1] {
		if _, ok := v.dirs[seg]; ok {
			return Result{Reason: "path is inside the protected directory " + seg + "/"}
		}
	}
	last := segments[len(segments)-1]
	if _, ok := v.dirs[last]; ok {
		return Result{Reason: "path names the protected directory " + last + "/"}
	}

	if _, ok := v.files[normalized]; ok {
		return Result{Reason: normalized + " is a protected file"}
	}
	if _, ok := v.files[last]; ok {
		return Result{Reason: last + " is a protected file"}
	}

	return Result{Valid: true}
}
