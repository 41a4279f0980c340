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

// =============================================================================
// Streaming Event Protocol
// =============================================================================

// EventType discriminates the streaming wire protocol's tagged union.
type EventType string

const (
	// EventStage marks a phase transition (start/complete/error).
	EventStage EventType = "stage"

	// EventFile announces one file command, or carries a content chunk of a
	// previously announced file when Chunk is set.
	EventFile EventType = "file"

	// EventComplete is the successful terminal event of a stream.
	EventComplete EventType = "complete"

	// EventError is the failure terminal event of a stream. Exactly one
	// terminal event is emitted per stream.
	EventError EventType = "error"
)

// StageStatus qualifies an EventStage event.
type StageStatus string

const (
	StageStart    StageStatus = "start"
	StageComplete StageStatus = "complete"
	StageError    StageStatus = "error"
)

// StreamTerminator is the sentinel line written after the final event of a
// newline-delimited stream. A consumer that sees the stream end without a
// terminal event followed by this line must treat the run as abnormally
// terminated.
const StreamTerminator = "[DONE]"

// SyncEvent is one newline-delimited JSON event of the synthesis stream.
//
// Each variant carries only the fields relevant to its Type tag:
//
//	{type:"stage", stage, status, message?, data?}
//	{type:"file", command, path, content?, patches?, chunk?}
//	{type:"complete", filesGenerated, filePaths, aiMessage, routes,
//	                  suggestions, modelsUsed, validationPassed, repairAttempts}
//	{type:"error", message, stage?}
//
// Large file content is not inlined on the announcing file event; it follows
// as file events with Chunk set (1-based), so a consumer can render progress
// without waiting for the whole file.
//
// Seq and CreatedAt are populated by the stream writer, not the producer.
type SyncEvent struct {
	Type EventType `json:"type"`

	// Writer-populated envelope fields.
	ID        string `json:"id,omitempty"`
	Seq       int64  `json:"seq,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`

	// Stage variant.
	Stage   PhaseName      `json:"stage,omitempty"`
	Status  StageStatus    `json:"status,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`

	// File variant.
	Command CommandKind          `json:"command,omitempty"`
	Path    string               `json:"path,omitempty"`
	Content string               `json:"content,omitempty"`
	Patches []SearchReplacePatch `json:"patches,omitempty"`
	Chunk   int                  `json:"chunk,omitempty"`

	// Complete variant. The counters are serialized unconditionally so a
	// zero-file run is distinguishable from an absent field.
	FilesGenerated   int      `json:"filesGenerated"`
	FilePaths        []string `json:"filePaths"`
	AIMessage        string   `json:"aiMessage,omitempty"`
	Routes           []string `json:"routes,omitempty"`
	Suggestions      []string `json:"suggestions,omitempty"`
	ModelsUsed       []string `json:"modelsUsed,omitempty"`
	ValidationPassed *bool    `json:"validationPassed,omitempty"`
	RepairAttempts   int      `json:"repairAttempts,omitempty"`
}

// NewStageEvent builds a stage transition event.
func NewStageEvent(stage PhaseName, status StageStatus) SyncEvent {
	return SyncEvent{Type: EventStage, Stage: stage, Status: status}
}

// NewFileEvent announces a file command. Content is intentionally left off;
// it follows as chunk events for CREATE/UPDATE commands.
func NewFileEvent(cmd FileCommand) SyncEvent {
	return SyncEvent{
		Type:    EventFile,
		Command: cmd.Kind,
		Path:    cmd.Path,
		Patches: cmd.Patches,
	}
}

// NewChunkEvent carries one fixed-size piece of a file's content.
// Chunk numbering starts at 1.
func NewChunkEvent(path, content string, chunk int) SyncEvent {
	return SyncEvent{Type: EventFile, Path: path, Content: content, Chunk: chunk}
}

// NewCompleteEvent builds the successful terminal event from a batch result.
// A zero-file run reports an empty path list, not a null one.
func NewCompleteEvent(result PipelineResult, filePaths []string) SyncEvent {
	passed := result.Validation.IsValid()
	if filePaths == nil {
		filePaths = []string{}
	}
	return SyncEvent{
		Type:             EventComplete,
		FilesGenerated:   len(filePaths),
		FilePaths:        filePaths,
		AIMessage:        result.AIMessage,
		Routes:           result.Routes,
		Suggestions:      result.Suggestions,
		ModelsUsed:       result.ModelsUsed,
		ValidationPassed: &passed,
		RepairAttempts:   result.RepairAttempts,
	}
}

// NewErrorEvent builds the failure terminal event. Stage may be empty when
// the failure is not attributable to a single phase.
func NewErrorEvent(message string, stage PhaseName) SyncEvent {
	return SyncEvent{Type: EventError, Message: message, Stage: stage}
}

// WithMessage sets the human-readable message and returns the event for
// chaining.
func (e SyncEvent) WithMessage(message string) SyncEvent {
	e.Message = message
	return e
}

// WithData attaches structured payload data and returns the event for
// chaining.
func (e SyncEvent) WithData(data map[string]any) SyncEvent {
	e.Data = data
	return e
}

// Terminal reports whether the event ends the stream.
func (e SyncEvent) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
