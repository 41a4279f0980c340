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
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/AleutianAI/AleutianForge/services/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM scripts both interface methods per test.
type fakeLLM struct {
	generateFn func(prompt string, params llm.GenerationParams) (string, error)
	toolsFn    func(messages []llm.Message, params llm.GenerationParams) (*llm.ToolResponse, error)
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, params llm.GenerationParams) (string, error) {
	return f.generateFn(prompt, params)
}

func (f *fakeLLM) GenerateWithTools(_ context.Context, _ string, messages []llm.Message,
	_ []llm.ToolDefinition, params llm.GenerationParams) (*llm.ToolResponse, error) {
	return f.toolsFn(messages, params)
}

const validPlan = `{"summary":"Build the homepage","steps":[{"title":"Create page","files":["app/page.tsx"]}]}`

const pageContent = "import React from 'react';\nexport default function Home() { return <div>hi</div>; }"

func writeFileCall(t *testing.T, path, content string) llm.ToolCall {
	t.Helper()
	args, err := json.Marshal(map[string]string{"path": path, "content": content})
	require.NoError(t, err)
	return llm.ToolCall{Name: "write_file", Arguments: args}
}

func happyLLM(t *testing.T) *fakeLLM {
	return &fakeLLM{
		generateFn: func(string, llm.GenerationParams) (string, error) {
			return validPlan, nil
		},
		toolsFn: func([]llm.Message, llm.GenerationParams) (*llm.ToolResponse, error) {
			return &llm.ToolResponse{
				Text:      "I created the homepage for you.",
				ToolCalls: []llm.ToolCall{writeFileCall(t, "app/page.tsx", pageContent)},
			}, nil
		},
	}
}

// =============================================================================
// Test: Batch Run
// =============================================================================

func TestRun_HappyPath(t *testing.T) {
	o := New(happyLLM(t), nil, nil, nil)
	result, files := o.Run(context.Background(), Request{ProjectID: "p1", Prompt: "build a homepage"})

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, result.Phases, 3)
	for _, ph := range result.Phases {
		assert.True(t, ph.Success, "phase %s", ph.Phase)
	}
	assert.Equal(t, datatypes.PhaseArchitect, result.Phases[0].Phase)
	assert.Equal(t, datatypes.PhaseCode, result.Phases[1].Phase)
	assert.Equal(t, datatypes.PhaseValidate, result.Phases[2].Phase)

	require.Len(t, result.Commands, 1)
	assert.Equal(t, datatypes.CommandCreateFile, result.Commands[0].Kind)
	assert.Equal(t, "app/page.tsx", result.Commands[0].Path)

	require.Contains(t, files, "app/page.tsx")
	assert.Equal(t, pageContent, files["app/page.tsx"].Content)

	assert.True(t, result.Validation.IsValid())
	assert.Equal(t, []string{"/"}, result.Routes)
	assert.Equal(t, "I created the homepage for you.", result.AIMessage)
}

func TestRun_PerPhaseModels(t *testing.T) {
	var architectModel, codeModel string
	client := &fakeLLM{
		generateFn: func(_ string, params llm.GenerationParams) (string, error) {
			architectModel = params.Model
			return validPlan, nil
		},
		toolsFn: func(_ []llm.Message, params llm.GenerationParams) (*llm.ToolResponse, error) {
			codeModel = params.Model
			return &llm.ToolResponse{ToolCalls: []llm.ToolCall{writeFileCall(t, "app/page.tsx", pageContent)}}, nil
		},
	}
	cfg := DefaultConfig()
	cfg.ArchitectModel = "planner-1"
	cfg.CodeModel = "coder-1"

	result, _ := New(client, cfg, nil, nil).Run(context.Background(), Request{Prompt: "go"})

	assert.Equal(t, "planner-1", architectModel)
	assert.Equal(t, "coder-1", codeModel)
	assert.ElementsMatch(t, []string{"planner-1", "coder-1"}, result.ModelsUsed)
}

func TestRun_InvalidPlanFailsArchitectPhase(t *testing.T) {
	client := happyLLM(t)
	client.generateFn = func(string, llm.GenerationParams) (string, error) {
		return "Sure! Here is my thinking about the plan...", nil
	}

	result, _ := New(client, nil, nil, nil).Run(context.Background(), Request{Prompt: "go"})

	assert.False(t, result.Success)
	require.Len(t, result.Phases, 1)
	assert.Equal(t, datatypes.PhaseArchitect, result.Phases[0].Phase)
	assert.False(t, result.Phases[0].Success)
	assert.Contains(t, result.Message, "invalid plan")
	assert.Empty(t, result.Commands, "code phase must not run after a failed plan")
}

func TestRun_ProtectedPathSkipped(t *testing.T) {
	client := happyLLM(t)
	client.toolsFn = func([]llm.Message, llm.GenerationParams) (*llm.ToolResponse, error) {
		return &llm.ToolResponse{ToolCalls: []llm.ToolCall{
			writeFileCall(t, "package.json", "{}"),
			writeFileCall(t, "app/page.tsx", pageContent),
		}}, nil
	}

	result, files := New(client, nil, nil, nil).Run(context.Background(), Request{Prompt: "go"})

	assert.True(t, result.Success, "a skipped command degrades, it does not fail the run")
	require.Len(t, result.Commands, 1)
	assert.Equal(t, "app/page.tsx", result.Commands[0].Path)
	assert.NotContains(t, files, "package.json")

	found := false
	for _, w := range result.Validation.Warnings {
		if strings.Contains(w, "package.json") {
			found = true
		}
	}
	assert.True(t, found, "expected a skip warning, got %v", result.Validation.Warnings)
}

func TestRun_CreateReclassifiedToUpdate(t *testing.T) {
	o := New(happyLLM(t), nil, nil, nil)
	result, _ := o.Run(context.Background(), Request{
		Prompt: "tweak the homepage",
		Files: map[string]datatypes.ProjectFile{
			"app/page.tsx": datatypes.NewProjectFile("app/page.tsx", "old"),
		},
	})

	require.Len(t, result.Commands, 1)
	assert.Equal(t, datatypes.CommandUpdateFile, result.Commands[0].Kind)
}

func TestRun_PatchMissLeavesFileUntouched(t *testing.T) {
	patchArgs, _ := json.Marshal(map[string]any{
		"path":    "app/page.tsx",
		"patches": []map[string]string{{"search": "not in the file", "replace": "x"}},
	})
	client := happyLLM(t)
	client.toolsFn = func([]llm.Message, llm.GenerationParams) (*llm.ToolResponse, error) {
		return &llm.ToolResponse{ToolCalls: []llm.ToolCall{{Name: "patch_file", Arguments: patchArgs}}}, nil
	}

	original := "import React from 'react';\nexport default function Home() { return null; }"
	result, files := New(client, nil, nil, nil).Run(context.Background(), Request{
		Prompt: "go",
		Files: map[string]datatypes.ProjectFile{
			"app/page.tsx": datatypes.NewProjectFile("app/page.tsx", original),
		},
	})

	assert.True(t, result.Success)
	assert.Empty(t, result.Commands)
	assert.Equal(t, original, files["app/page.tsx"].Content)
	assert.NotEmpty(t, result.Validation.Warnings)
}

func TestRun_TextExtractionFallback(t *testing.T) {
	client := happyLLM(t)
	client.toolsFn = func([]llm.Message, llm.GenerationParams) (*llm.ToolResponse, error) {
		return &llm.ToolResponse{
			Text: "Here you go.\n\n```tsx:app/page.tsx\n" + pageContent + "\n```\n",
		}, nil
	}

	result, files := New(client, nil, nil, nil).Run(context.Background(), Request{Prompt: "go"})

	require.Len(t, result.Commands, 1)
	assert.Equal(t, "app/page.tsx", result.Commands[0].Path)
	assert.Equal(t, pageContent, files["app/page.tsx"].Content)
	assert.Equal(t, "Here you go.", result.AIMessage)
}

func TestRun_ValidationErrorsReviewedButRunCompletes(t *testing.T) {
	broken := "import React from 'react';\nexport default function Home() { return <div>hi</div>; "
	reviewCalled := false
	client := happyLLM(t)
	client.generateFn = func(prompt string, _ llm.GenerationParams) (string, error) {
		if strings.Contains(prompt, "Validation errors") {
			reviewCalled = true
			return "Close the function body brace in app/page.tsx.", nil
		}
		return validPlan, nil
	}
	client.toolsFn = func([]llm.Message, llm.GenerationParams) (*llm.ToolResponse, error) {
		return &llm.ToolResponse{ToolCalls: []llm.ToolCall{writeFileCall(t, "app/page.tsx", broken)}}, nil
	}

	result, _ := New(client, nil, nil, nil).Run(context.Background(), Request{Prompt: "go"})

	assert.True(t, result.Success)
	assert.False(t, result.Validation.IsValid())
	assert.True(t, reviewCalled)
	// Review findings merge into the shared warning list alongside the local
	// checks, not into a side channel.
	assert.Contains(t, result.Validation.Warnings, "Close the function body brace in app/page.tsx.")
}

func TestRun_ReviewCallFailureFailsValidatePhase(t *testing.T) {
	broken := "import React from 'react';\nexport default function Home() { return <div>hi</div>; "
	client := happyLLM(t)
	client.generateFn = func(prompt string, _ llm.GenerationParams) (string, error) {
		if strings.Contains(prompt, "Validation errors") {
			return "", errors.New("rate limited")
		}
		return validPlan, nil
	}
	client.toolsFn = func([]llm.Message, llm.GenerationParams) (*llm.ToolResponse, error) {
		return &llm.ToolResponse{ToolCalls: []llm.ToolCall{writeFileCall(t, "app/page.tsx", broken)}}, nil
	}

	result, _ := New(client, nil, nil, nil).Run(context.Background(), Request{Prompt: "go"})

	assert.False(t, result.Success, "an upstream failure in the review call stops the pipeline")
	assert.Contains(t, result.Message, "rate limited")
	require.Len(t, result.Phases, 3)
	assert.False(t, result.Phases[2].Success)
	assert.Equal(t, datatypes.PhaseValidate, result.Phases[2].Phase)
}

// =============================================================================
// Test: Streaming
// =============================================================================

func collect(t *testing.T, ch <-chan datatypes.SyncEvent) []datatypes.SyncEvent {
	t.Helper()
	var events []datatypes.SyncEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestRunStream_EventOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkSize = 16 // force multiple chunks
	o := New(happyLLM(t), cfg, nil, nil)

	events := collect(t, o.RunStream(context.Background(), Request{Prompt: "go"}))
	require.NotEmpty(t, events)

	assert.Equal(t, datatypes.NewStageEvent(datatypes.PhaseArchitect, datatypes.StageStart), events[0])

	last := events[len(events)-1]
	assert.Equal(t, datatypes.EventComplete, last.Type)
	terminals := 0
	for _, ev := range events {
		if ev.Terminal() {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals, "exactly one terminal event per stream")

	// The announcing file event carries the command but no content; content
	// follows as numbered chunks.
	var fileEvents, chunkEvents []datatypes.SyncEvent
	for _, ev := range events {
		if ev.Type != datatypes.EventFile {
			continue
		}
		if ev.Chunk > 0 {
			chunkEvents = append(chunkEvents, ev)
		} else {
			fileEvents = append(fileEvents, ev)
		}
	}
	require.Len(t, fileEvents, 1)
	assert.Equal(t, datatypes.CommandCreateFile, fileEvents[0].Command)
	assert.Empty(t, fileEvents[0].Content)

	require.NotEmpty(t, chunkEvents)
	assert.Greater(t, len(chunkEvents), 1)
	var reassembled string
	for i, ev := range chunkEvents {
		assert.Equal(t, i+1, ev.Chunk, "chunks are 1-based and ordered")
		reassembled += ev.Content
	}
	assert.Equal(t, pageContent, reassembled)

	require.True(t, *last.ValidationPassed)
	assert.Equal(t, []string{"app/page.tsx"}, last.FilePaths)
	assert.Equal(t, 1, last.FilesGenerated)
}

func TestRunStream_CodePhaseFailure(t *testing.T) {
	client := happyLLM(t)
	client.toolsFn = func([]llm.Message, llm.GenerationParams) (*llm.ToolResponse, error) {
		return nil, errors.New("model overloaded")
	}

	o := New(client, nil, nil, nil)
	events := collect(t, o.RunStream(context.Background(), Request{Prompt: "go"}))

	var types []datatypes.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
		assert.NotEqual(t, datatypes.PhaseValidate, ev.Stage, "no validate events after a code failure")
	}

	last := events[len(events)-1]
	assert.Equal(t, datatypes.EventError, last.Type)
	assert.Equal(t, datatypes.PhaseCode, last.Stage)
	assert.Contains(t, last.Message, "model overloaded")

	errorEvents := 0
	for _, typ := range types {
		if typ == datatypes.EventError {
			errorEvents++
		}
	}
	assert.Equal(t, 1, errorEvents)

	// architect start/complete and code start precede the failure
	assert.Equal(t, datatypes.StageStart, events[0].Status)
	assert.Equal(t, datatypes.PhaseArchitect, events[0].Stage)
}

func TestRunStream_ReviewCallFailureEmitsTerminalError(t *testing.T) {
	broken := "export default function Home() { return <div>hi</div>; "
	client := happyLLM(t)
	client.generateFn = func(prompt string, _ llm.GenerationParams) (string, error) {
		if strings.Contains(prompt, "Validation errors") {
			return "", errors.New("review backend down")
		}
		return validPlan, nil
	}
	client.toolsFn = func([]llm.Message, llm.GenerationParams) (*llm.ToolResponse, error) {
		return &llm.ToolResponse{ToolCalls: []llm.ToolCall{writeFileCall(t, "app/page.tsx", broken)}}, nil
	}

	events := collect(t, New(client, nil, nil, nil).RunStream(context.Background(), Request{Prompt: "go"}))
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, datatypes.EventError, last.Type)
	assert.Equal(t, datatypes.PhaseValidate, last.Stage)
	assert.Contains(t, last.Message, "review backend down")

	terminals := 0
	for _, ev := range events {
		if ev.Terminal() {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestRunStream_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(happyLLM(t), nil, nil, nil)
	ch := o.RunStream(ctx, Request{Prompt: "go"})

	// The channel must close even though nothing consumes the events.
	for range ch {
	}
}

// =============================================================================
// Test: Plan parsing
// =============================================================================

func TestParsePlan_FencedJSON(t *testing.T) {
	plan, err := ParsePlan("Here is the plan:\n```json\n" + validPlan + "\n```\nGood luck!")
	require.NoError(t, err)
	assert.Equal(t, "Build the homepage", plan.Summary)
	require.Len(t, plan.Steps, 1)
}

func TestParsePlan_BareJSONWithProse(t *testing.T) {
	plan, err := ParsePlan("Sure: " + validPlan + " done.")
	require.NoError(t, err)
	assert.Equal(t, "Build the homepage", plan.Summary)
}

func TestParsePlan_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"no steps":      `{"summary":"x","steps":[]}`,
		"no summary":    `{"steps":[{"title":"a"}]}`,
		"untitled step": `{"summary":"x","steps":[{"detail":"no title"}]}`,
		"not json":      `the plan is to wing it`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlan(text)
			assert.Error(t, err)
		})
	}
}

