// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers wires the synthesis pipeline to HTTP.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/AleutianAI/AleutianForge/services/forge/observability"
	"github.com/AleutianAI/AleutianForge/services/forge/pipeline"
	"github.com/AleutianAI/AleutianForge/services/forge/store"
	"github.com/gin-gonic/gin"
)

// Runner is the slice of the orchestrator the handlers depend on.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*datatypes.PipelineResult, map[string]datatypes.ProjectFile)
	RunStream(ctx context.Context, req pipeline.Request) <-chan datatypes.SyncEvent
}

// SynthesisRequest is the request body of both synthesis endpoints.
//
// Files is the client's view of the project. When omitted, the last
// persisted snapshot for the project is used instead, so stateless clients
// can continue a session.
type SynthesisRequest struct {
	ProjectID string                           `json:"project_id" binding:"required"`
	Prompt    string                           `json:"prompt" binding:"required"`
	Files     map[string]datatypes.ProjectFile `json:"files"`
}

func (r *SynthesisRequest) toPipeline() pipeline.Request {
	return pipeline.Request{ProjectID: r.ProjectID, Prompt: r.Prompt, Files: r.Files}
}

// resolveFiles fills in the request's file set from the snapshot store when
// the client sent none. A missing snapshot means a fresh project.
func resolveFiles(ctx context.Context, req *SynthesisRequest, st store.Store) {
	if req.Files != nil || st == nil {
		return
	}
	snap, err := st.Load(ctx, req.ProjectID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("Snapshot load failed, starting empty", "project_id", req.ProjectID, "error", err)
		}
		return
	}
	req.Files = snap.Files
}

func persistFiles(ctx context.Context, st store.Store, projectID string, files map[string]datatypes.ProjectFile) {
	if st == nil {
		return
	}
	if err := st.Save(ctx, projectID, files); err != nil {
		slog.Error("Snapshot save failed", "project_id", projectID, "error", err)
	}
}

// Synthesize handles POST /v1/synthesis: one batch pipeline run.
//
// Phase failures are reported in the body with Success false and HTTP 200;
// the run itself is the resource, and it completed in the sense that its
// outcome is known. Only malformed requests get a 4xx.
func Synthesize(orch Runner, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SynthesisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		resolveFiles(ctx, &req, st)

		result, files := orch.Run(ctx, req.toPipeline())

		if m := observability.DefaultMetrics; m != nil {
			m.RecordRun(observability.EndpointBatch, result.Success)
			for _, ph := range result.Phases {
				m.RecordPhase(string(ph.Phase), float64(ph.DurationMs)/1000)
			}
			for _, cmd := range result.Commands {
				m.RecordCommand(string(cmd.Kind))
			}
			m.RecordRepairs(result.RepairAttempts)
			if result.Success && !result.Validation.IsValid() {
				m.RecordValidationFailure()
			}
		}

		if result.Success {
			persistFiles(ctx, st, req.ProjectID, files)
		}
		c.JSON(http.StatusOK, result)
	}
}

// GetProject handles GET /v1/projects/:id: the stored snapshot.
func GetProject(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := st.Load(c.Request.Context(), c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot for project"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// DeleteProject handles DELETE /v1/projects/:id.
func DeleteProject(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := st.Delete(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HealthCheck handles GET /healthz.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
