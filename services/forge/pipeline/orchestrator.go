// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline drives the three-phase generation pipeline: architect
// plans, code executes the plan through tool calls, validate inspects and
// repairs the result.
//
// # Description
//
// Phases run strictly in order and a phase failure terminates the run; later
// phases never see partial input from a failed predecessor. The batch and
// streaming entry points share one core loop, so their semantics cannot
// drift: streaming is the same run with events observed as they happen.
//
// Every stream emits exactly one terminal event (complete or error). Stage
// and file events always precede it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/AleutianAI/AleutianForge/services/forge/inspect"
	"github.com/AleutianAI/AleutianForge/services/forge/parser"
	"github.com/AleutianAI/AleutianForge/services/forge/pathguard"
	"github.com/AleutianAI/AleutianForge/services/forge/workspace"
	"github.com/AleutianAI/AleutianForge/services/llm"
	"github.com/google/uuid"
)

// Request is one pipeline invocation: the user's prompt applied to the
// session's current file set.
type Request struct {
	ProjectID string                           `json:"project_id"`
	Prompt    string                           `json:"prompt"`
	Files     map[string]datatypes.ProjectFile `json:"files,omitempty"`
}

// Orchestrator runs pipelines. Construct once and share; it is stateless
// across runs, each run gets its own workspace.
type Orchestrator struct {
	llm       llm.LLMClient
	cfg       *Config
	guard     *pathguard.Validator
	inspector *inspect.Engine
}

// New creates an orchestrator. Nil cfg, guard or inspector fall back to
// defaults.
func New(client llm.LLMClient, cfg *Config, guard *pathguard.Validator, inspector *inspect.Engine) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.normalize()
	if guard == nil {
		guard = pathguard.New(pathguard.DefaultConfig())
	}
	if inspector == nil {
		inspector = inspect.New(nil)
	}
	return &Orchestrator{llm: client, cfg: cfg, guard: guard, inspector: inspector}
}

// Run executes the pipeline in batch mode. Phase failures are encoded in the
// result (Success false, Message set), not returned as an error; the second
// return value is the file set after all applied commands and repairs.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*datatypes.PipelineResult, map[string]datatypes.ProjectFile) {
	result, ws := o.run(ctx, req, func(datatypes.SyncEvent) {})
	return result, ws.Files()
}

// RunStream executes the pipeline and emits its events on the returned
// channel. The channel is closed after the terminal event; a canceled
// context stops emission and the run.
func (o *Orchestrator) RunStream(ctx context.Context, req Request) <-chan datatypes.SyncEvent {
	ch := make(chan datatypes.SyncEvent, 16)
	go func() {
		defer close(ch)
		o.run(ctx, req, func(ev datatypes.SyncEvent) {
			select {
			case ch <- ev:
			case <-ctx.Done():
			}
		})
	}()
	return ch
}

// run is the single implementation behind Run and RunStream.
func (o *Orchestrator) run(ctx context.Context, req Request, emit func(datatypes.SyncEvent)) (*datatypes.PipelineResult, *workspace.Workspace) {
	result := &datatypes.PipelineResult{RunID: uuid.NewString()}
	ws := workspace.NewFromFiles(req.Files)

	log := slog.With("run_id", result.RunID, "project_id", req.ProjectID)
	log.Info("Pipeline run starting", "files", ws.Len())

	// -------------------------------------------------------------------------
	// Phase 1: architect
	// -------------------------------------------------------------------------
	emit(datatypes.NewStageEvent(datatypes.PhaseArchitect, datatypes.StageStart))
	start := time.Now()

	planText, err := o.llm.Generate(ctx, buildArchitectPrompt(req.Prompt, ws.Summary()),
		llm.GenerationParams{Model: o.cfg.ArchitectModel})
	if err != nil {
		o.failPhase(result, datatypes.PhaseArchitect, o.cfg.ArchitectModel, start,
			fmt.Sprintf("architect phase failed: %v", err), emit, log)
		return result, ws
	}
	plan, err := ParsePlan(planText)
	if err != nil {
		// A malformed plan is rejected outright; executing a guessed plan
		// produces worse output than reporting the failure.
		o.failPhase(result, datatypes.PhaseArchitect, o.cfg.ArchitectModel, start,
			fmt.Sprintf("architect produced an invalid plan: %v", err), emit, log)
		return result, ws
	}

	o.passPhase(result, datatypes.PhaseArchitect, o.cfg.ArchitectModel, start, plan.Summary)
	emit(datatypes.NewStageEvent(datatypes.PhaseArchitect, datatypes.StageComplete).
		WithMessage(plan.Summary).
		WithData(map[string]any{"steps": len(plan.Steps)}))

	// -------------------------------------------------------------------------
	// Phase 2: code
	// -------------------------------------------------------------------------
	emit(datatypes.NewStageEvent(datatypes.PhaseCode, datatypes.StageStart))
	start = time.Now()

	resp, err := o.llm.GenerateWithTools(ctx, codeSystemPrompt,
		buildCodeMessages(req.Prompt, plan, ws.Summary(), ws.Files(), ws.Paths(), o.cfg.MaxContextFiles),
		codeTools(), llm.GenerationParams{Model: o.cfg.CodeModel})
	if err != nil {
		o.failPhase(result, datatypes.PhaseCode, o.cfg.CodeModel, start,
			fmt.Sprintf("code phase failed: %v", err), emit, log)
		return result, ws
	}

	var warnings []string
	commands := make([]datatypes.FileCommand, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		cmd, err := commandFromToolCall(tc)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		commands = append(commands, cmd)
	}
	if len(commands) == 0 {
		// Models sometimes ignore the tools and answer with fenced blocks;
		// fall back to scraping the text.
		commands = parser.ExtractFileOperations(resp.Text)
		log.Info("No usable tool calls, fell back to text extraction", "commands", len(commands))
	}

	var touched []string
	for _, cmd := range commands {
		if cmd.Kind == datatypes.CommandCreateFile && ws.Has(cmd.Path) {
			cmd.Kind = datatypes.CommandUpdateFile
		}
		if verdict := o.guard.Validate(cmd.Path); !verdict.Valid {
			warnings = append(warnings,
				fmt.Sprintf("skipped %s %s: %s", cmd.Kind, cmd.Path, verdict.Reason))
			log.Warn("Command rejected by path guard", "path", cmd.Path, "reason", verdict.Reason)
			continue
		}
		if err := ws.Apply(cmd); err != nil {
			// A missed patch leaves the file untouched; report and move on.
			warnings = append(warnings, fmt.Sprintf("skipped %s %s: %v", cmd.Kind, cmd.Path, err))
			log.Warn("Command failed to apply", "path", cmd.Path, "error", err)
			continue
		}

		result.Commands = append(result.Commands, cmd)
		touched = append(touched, cmd.Path)
		emit(datatypes.NewFileEvent(cmd))
		if cmd.Kind == datatypes.CommandCreateFile || cmd.Kind == datatypes.CommandUpdateFile {
			for i, piece := range chunkContent(cmd.Content, o.cfg.ChunkSize) {
				emit(datatypes.NewChunkEvent(cmd.Path, piece, i+1))
			}
		}
	}

	o.passPhase(result, datatypes.PhaseCode, o.cfg.CodeModel, start,
		fmt.Sprintf("applied %d of %d commands", len(result.Commands), len(commands)))
	emit(datatypes.NewStageEvent(datatypes.PhaseCode, datatypes.StageComplete).
		WithData(map[string]any{"files": len(result.Commands)}))

	// -------------------------------------------------------------------------
	// Phase 3: validate
	// -------------------------------------------------------------------------
	emit(datatypes.NewStageEvent(datatypes.PhaseValidate, datatypes.StageStart))
	start = time.Now()

	report, repaired := o.inspector.Validate(ctx, ws.Files())
	for _, f := range repaired {
		ws.Put(f)
	}
	result.RepairAttempts = len(report.Repairs)
	result.Validation = report.Result()
	result.Validation.Warnings = append(result.Validation.Warnings, warnings...)

	if !report.Valid() {
		// The static checks found real errors; ask the review model for
		// targeted fixes. The review call is an upstream call like any other
		// phase call: a failure stops the pipeline rather than guessing.
		review, err := o.llm.Generate(ctx, buildReviewPrompt(report.Errors, ws.Summary()),
			llm.GenerationParams{Model: o.cfg.ValidateModel})
		if err != nil {
			o.failPhase(result, datatypes.PhaseValidate, o.cfg.ValidateModel, start,
				fmt.Sprintf("validate phase failed: review request: %v", err), emit, log)
			return result, ws
		}
		// Review findings land in the same warning list as the local checks;
		// suggestions stay reserved for the engine's own hints.
		for _, line := range strings.Split(strings.TrimSpace(review), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				result.Validation.Warnings = append(result.Validation.Warnings, line)
			}
		}
	}

	o.passPhase(result, datatypes.PhaseValidate, o.cfg.ValidateModel, start,
		fmt.Sprintf("%d errors, %d warnings, %d repairs",
			len(result.Validation.Errors), len(result.Validation.Warnings), result.RepairAttempts))
	emit(datatypes.NewStageEvent(datatypes.PhaseValidate, datatypes.StageComplete).
		WithData(map[string]any{"valid": report.Valid()}))

	// -------------------------------------------------------------------------
	// Finish
	// -------------------------------------------------------------------------
	result.Success = true
	result.Message = fmt.Sprintf("generated %d files", len(touched))
	result.AIMessage = parser.StripFileBlocks(resp.Text)
	result.Routes = ws.Routes()
	result.Suggestions = result.Validation.Suggestions
	result.ModelsUsed = o.modelsUsed(result)

	emit(datatypes.NewCompleteEvent(*result, touched))
	log.Info("Pipeline run finished",
		"files", len(touched), "valid", result.Validation.IsValid(),
		"repairs", result.RepairAttempts)
	return result, ws
}

func (o *Orchestrator) passPhase(result *datatypes.PipelineResult, phase datatypes.PhaseName,
	model string, start time.Time, summary string) {
	result.Phases = append(result.Phases, datatypes.PhaseResult{
		Phase:      phase,
		Model:      model,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    true,
		Summary:    summary,
	})
}

// failPhase records the failed phase, marks the run failed and emits the
// stream's single terminal error event.
func (o *Orchestrator) failPhase(result *datatypes.PipelineResult, phase datatypes.PhaseName,
	model string, start time.Time, msg string, emit func(datatypes.SyncEvent), log *slog.Logger) {
	result.Phases = append(result.Phases, datatypes.PhaseResult{
		Phase:      phase,
		Model:      model,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    false,
		Summary:    msg,
	})
	result.Success = false
	result.Message = msg
	log.Error("Pipeline phase failed", "phase", phase, "error", msg)
	emit(datatypes.NewStageEvent(phase, datatypes.StageError).WithMessage(msg))
	emit(datatypes.NewErrorEvent(msg, phase))
}

func (o *Orchestrator) modelsUsed(result *datatypes.PipelineResult) []string {
	var models []string
	seen := make(map[string]bool)
	for _, ph := range result.Phases {
		if ph.Model != "" && !seen[ph.Model] {
			seen[ph.Model] = true
			models = append(models, ph.Model)
		}
	}
	return models
}

// chunkContent splits content into rune-safe pieces of at most size bytes.
func chunkContent(content string, size int) []string {
	if content == "" {
		return nil
	}
	var chunks []string
	var b strings.Builder
	for _, r := range content {
		if b.Len()+len(string(r)) > size && b.Len() > 0 {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
