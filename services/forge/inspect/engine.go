// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package inspect statically checks generated files and applies a narrow,
// explicitly enumerated set of automatic repairs.
//
// # Description
//
// The engine operates only on recognized code/style/config extensions;
// everything else is skipped. Checks are line-level heuristics, documented
// as such: they scrape text, they do not parse syntax trees. Guessing a fix
// risks worse corruption than reporting, so everything outside the repair
// list surfaces as an error or warning instead of being touched.
//
// Validity is derived: a file set is valid exactly when the error list is
// empty. Warnings never block validity.
package inspect

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Configuration
// =============================================================================

// Config toggles individual checks and the repair pass.
type Config struct {
	// Concurrency bounds how many files are checked in parallel.
	Concurrency int

	CheckDebugStatements bool
	CheckExplicitAny     bool
	CheckExports         bool
	CheckImports         bool

	// RepairReactImport injects a missing default React import into view
	// files (.tsx/.jsx). This is the entire auto-repair list today; repairs
	// are additive, never reformatting.
	RepairReactImport bool
}

// DefaultConfig enables every check and the repair pass.
func DefaultConfig() *Config {
	return &Config{
		Concurrency:          4,
		CheckDebugStatements: true,
		CheckExplicitAny:     true,
		CheckExports:         true,
		CheckImports:         true,
		RepairReactImport:    true,
	}
}

// =============================================================================
// Report
// =============================================================================

// Repair records one automatically applied fix with a human-readable reason.
type Repair struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report aggregates findings across a validated file set.
type Report struct {
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
	Repairs     []Repair `json:"repairs"`
}

// Valid reports whether the file set passed: no errors. Recomputed from the
// list on every call so the flag can never drift.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// Result converts the report to the wire-level ValidationResult.
func (r *Report) Result() datatypes.ValidationResult {
	return datatypes.ValidationResult{
		Errors:      append([]string{}, r.Errors...),
		Warnings:    append([]string{}, r.Warnings...),
		Suggestions: append([]string{}, r.Suggestions...),
	}
}

// =============================================================================
// Engine
// =============================================================================

// Engine runs the checks over a file set.
//
// # Thread Safety
//
// Safe for concurrent use; the engine is stateless after construction.
type Engine struct {
	cfg *Config
}

// New creates an engine. A nil config uses DefaultConfig.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Engine{cfg: cfg}
}

// checkableExtensions are the code/style/config extensions the engine
// recognizes. Other files are skipped entirely.
var checkableExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".css": true, ".json": true,
}

// fileFindings collects one file's results before deterministic merging.
type fileFindings struct {
	errors   []string
	warnings []string
	repaired *datatypes.ProjectFile
	repairs  []Repair
}

// Validate checks every recognized file and applies the repair pass.
//
// Files are independent, so checks run concurrently under a bounded group;
// findings are merged in lexicographic path order afterwards so the report
// is deterministic. The returned map holds only files the repair pass
// changed, for the caller to write back.
func (e *Engine) Validate(ctx context.Context, files map[string]datatypes.ProjectFile) (*Report, map[string]datatypes.ProjectFile) {
	paths := make([]string, 0, len(files))
	for p := range files {
		if checkableExtensions[strings.ToLower(path.Ext(p))] {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	findings := make([]fileFindings, len(paths))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ff := e.checkFile(p, files[p], files)
			mu.Lock()
			findings[i] = ff
			mu.Unlock()
			return nil
		})
	}
	// Per-file checks never fail; the only group error is cancellation, and
	// a partially checked set still merges into a best-effort report.
	_ = g.Wait()

	report := &Report{}
	repaired := make(map[string]datatypes.ProjectFile)
	for _, ff := range findings {
		report.Errors = append(report.Errors, ff.errors...)
		report.Warnings = append(report.Warnings, ff.warnings...)
		report.Repairs = append(report.Repairs, ff.repairs...)
		if ff.repaired != nil {
			repaired[ff.repaired.Path] = *ff.repaired
		}
	}
	report.Suggestions = e.suggestions(report)
	return report, repaired
}

func (e *Engine) checkFile(p string, f datatypes.ProjectFile, all map[string]datatypes.ProjectFile) fileFindings {
	var ff fileFindings
	ext := strings.ToLower(path.Ext(p))
	isCode := ext == ".ts" || ext == ".tsx" || ext == ".js" || ext == ".jsx"

	ff.errors = append(ff.errors, checkBalance(p, f.Content)...)

	if isCode {
		if e.cfg.CheckDebugStatements {
			ff.warnings = append(ff.warnings, checkDebugStatements(p, f.Content)...)
		}
		if e.cfg.CheckExplicitAny && (ext == ".ts" || ext == ".tsx") {
			ff.warnings = append(ff.warnings, checkExplicitAny(p, f.Content)...)
		}
		if e.cfg.CheckExports && strings.HasPrefix(p, "components/") && !exportRe.MatchString(f.Content) {
			ff.errors = append(ff.errors,
				fmt.Sprintf("%s: component file has no export statement", p))
		}
		if e.cfg.CheckImports {
			ff.warnings = append(ff.warnings, checkAliasImports(p, f.Content, all)...)
		}
	}

	if e.cfg.RepairReactImport {
		if fixed, reason, ok := repairReactImport(p, f); ok {
			ff.repaired = &fixed
			ff.repairs = append(ff.repairs, Repair{Path: p, Reason: reason})
		}
	}
	return ff
}

func (e *Engine) suggestions(r *Report) []string {
	var out []string
	for _, w := range r.Warnings {
		if strings.Contains(w, "debug statement") {
			out = append(out, "Remove debug statements before shipping.")
			break
		}
	}
	for _, w := range r.Warnings {
		if strings.Contains(w, "explicit any") {
			out = append(out, "Replace explicit any with precise types.")
			break
		}
	}
	for _, w := range r.Warnings {
		if strings.Contains(w, "unresolved import") {
			out = append(out, "Unresolved imports may refer to files generated later in this turn.")
			break
		}
	}
	return out
}
