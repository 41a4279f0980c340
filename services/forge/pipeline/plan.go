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
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Plan is the architect phase's output: an ordered build plan the code phase
// executes verbatim. The schema is enforced, not assumed; a plan that fails
// validation fails the architect phase instead of silently degrading the
// later phases.
type Plan struct {
	Summary string     `json:"summary" validate:"required"`
	Steps   []PlanStep `json:"steps" validate:"required,min=1,dive"`
}

// PlanStep is one unit of work in the plan.
type PlanStep struct {
	Title  string   `json:"title" validate:"required"`
	Detail string   `json:"detail"`
	Files  []string `json:"files"`
}

var (
	planValidate = validator.New()

	jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?[ \t]*\r?\n(.*?)```")
)

// ParsePlan extracts and validates the plan from the architect's raw reply.
// The reply may wrap the JSON in a fenced block or surround it with prose;
// both are tolerated. Anything that does not decode into the schema is an
// error.
func ParsePlan(text string) (*Plan, error) {
	payload := text
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		payload = m[1]
	} else if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			payload = text[start : end+1]
		}
	}

	var plan Plan
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &plan); err != nil {
		return nil, fmt.Errorf("plan is not valid JSON: %w", err)
	}
	if err := planValidate.Struct(&plan); err != nil {
		return nil, fmt.Errorf("plan failed schema validation: %w", err)
	}
	return &plan, nil
}

// JSON renders the plan back to canonical JSON for embedding into the
// code-phase prompt.
func (p *Plan) JSON() string {
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}
