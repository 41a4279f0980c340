// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// StreamWriter defines the contract for writing newline-delimited JSON
// events to HTTP responses.
//
// # Description
//
// StreamWriter abstracts event serialization and writing, enabling
// testability and separation from HTTP response mechanics. Each event is
// automatically assigned:
//   - ID: UUID v4 for deduplication
//   - Seq: monotonically increasing sequence number within the stream
//   - CreatedAt: Unix timestamp in milliseconds
//
// # Thread Safety
//
// Implementations must be safe for concurrent use by multiple goroutines.
//
// # Assumptions
//
//   - Caller has set Content-Type: application/x-ndjson before writing
//   - Caller has disabled buffering (X-Accel-Buffering: no)
type StreamWriter interface {
	// WriteEvent populates the event's envelope fields, serializes it to one
	// JSON line and flushes immediately.
	WriteEvent(event datatypes.SyncEvent) error

	// WriteTerminator writes the stream-end sentinel line after the terminal
	// event. Should be called exactly once, last.
	WriteTerminator() error
}

// =============================================================================
// Implementation
// =============================================================================

// ndjsonWriter implements StreamWriter on an http.ResponseWriter.
//
// # Thread Safety
//
// Thread-safe via mutex; the sequence counter is advanced under the same
// lock as the write, so Seq order always matches wire order.
type ndjsonWriter struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	seq     int64
	mu      sync.Mutex
}

// NewStreamWriter creates a StreamWriter for the given ResponseWriter.
// Fails if the writer cannot flush; a buffered stream defeats the point.
func NewStreamWriter(w http.ResponseWriter) (StreamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	return &ndjsonWriter{writer: w, flusher: flusher}, nil
}

func (w *ndjsonWriter) WriteEvent(event datatypes.SyncEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	event.ID = uuid.NewString()
	event.Seq = w.seq
	event.CreatedAt = time.Now().UnixMilli()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling stream event: %w", err)
	}
	if _, err := w.writer.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("writing stream event: %w", err)
	}
	w.flusher.Flush()
	return nil
}

func (w *ndjsonWriter) WriteTerminator() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.writer.Write([]byte(datatypes.StreamTerminator + "\n")); err != nil {
		return fmt.Errorf("writing stream terminator: %w", err)
	}
	w.flusher.Flush()
	return nil
}
