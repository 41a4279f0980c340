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

import "encoding/json"

// =============================================================================
// Pipeline Phases
// =============================================================================

// PhaseName identifies one sequential stage of the generation pipeline.
type PhaseName string

const (
	PhaseArchitect PhaseName = "architect"
	PhaseCode      PhaseName = "code"
	PhaseValidate  PhaseName = "validate"
)

// PhaseResult records the outcome of one completed phase. Results are
// appended to the pipeline's phase list and never mutated afterwards.
type PhaseResult struct {
	Phase      PhaseName `json:"phase"`
	Model      string    `json:"model"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Summary    string    `json:"summary"`
}

// =============================================================================
// Validation Result
// =============================================================================

// ValidationResult aggregates findings of the validation phase.
//
// Validity is a pure function of the error list: there is deliberately no
// stored flag that could drift out of sync with Errors. Warnings and
// suggestions never block validity.
type ValidationResult struct {
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// IsValid reports whether the validated file set has no errors.
func (v ValidationResult) IsValid() bool {
	return len(v.Errors) == 0
}

// MarshalJSON emits the derived is_valid flag alongside the lists so wire
// consumers do not have to re-derive it.
func (v ValidationResult) MarshalJSON() ([]byte, error) {
	type alias ValidationResult
	return json.Marshal(struct {
		IsValid bool `json:"is_valid"`
		alias
	}{IsValid: v.IsValid(), alias: alias(v)})
}

// =============================================================================
// Pipeline Result
// =============================================================================

// PipelineResult is the aggregated outcome of one batch pipeline invocation.
//
// On early termination the phase list holds every phase that completed (or
// failed) before the pipeline stopped; later phases are simply absent.
type PipelineResult struct {
	RunID          string           `json:"run_id"`
	Success        bool             `json:"success"`
	Message        string           `json:"message,omitempty"`
	Phases         []PhaseResult    `json:"phases"`
	Commands       []FileCommand    `json:"commands"`
	Validation     ValidationResult `json:"validation"`
	AIMessage      string           `json:"ai_message,omitempty"`
	Routes         []string         `json:"routes,omitempty"`
	Suggestions    []string         `json:"suggestions,omitempty"`
	ModelsUsed     []string         `json:"models_used,omitempty"`
	RepairAttempts int              `json:"repair_attempts"`
}
