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
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/AleutianAI/AleutianForge/services/forge/observability"
	"github.com/AleutianAI/AleutianForge/services/forge/store"
	"github.com/gin-gonic/gin"
)

// SynthesizeStream handles POST /v1/synthesis/stream: the pipeline run as a
// newline-delimited JSON event stream.
//
// # Description
//
// The handler relays the orchestrator's events verbatim, one JSON object per
// line, and appends the terminator sentinel after the terminal event. A
// client disconnect cancels the run through the request context; a failed
// write is treated as a disconnect and nothing further is written.
//
// The final workspace is not persisted here: streaming consumers hold the
// authoritative file state from the chunk events and save through the batch
// endpoint or their own sync. Keeping the stream side effect free also means
// an abandoned stream never half-updates a snapshot.
func SynthesizeStream(orch Runner, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SynthesisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		writer, err := NewStreamWriter(c.Writer)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
			return
		}

		c.Header("Content-Type", "application/x-ndjson")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		ctx := c.Request.Context()
		resolveFiles(ctx, &req, st)

		m := observability.DefaultMetrics
		if m != nil {
			m.StreamStarted()
			defer m.StreamEnded()
		}

		log := slog.With("project_id", req.ProjectID)
		log.Info("Synthesis stream starting")

		success := false
		for event := range orch.RunStream(ctx, req.toPipeline()) {
			if event.Type == datatypes.EventComplete {
				success = true
			}
			if err := writer.WriteEvent(event); err != nil {
				log.Warn("Client disconnected mid-stream", "error", err)
				if m != nil {
					m.RecordClientDisconnect()
				}
				return
			}
		}

		if err := writer.WriteTerminator(); err != nil {
			log.Warn("Failed to write stream terminator", "error", err)
		}
		if m != nil {
			m.RecordRun(observability.EndpointStream, success)
		}
		log.Info("Synthesis stream finished", "success", success)
	}
}
