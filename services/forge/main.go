// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianForge/services/forge/observability"
	"github.com/AleutianAI/AleutianForge/services/forge/pipeline"
	"github.com/AleutianAI/AleutianForge/services/forge/routes"
	"github.com/AleutianAI/AleutianForge/services/forge/store"
	"github.com/AleutianAI/AleutianForge/services/llm"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "forge-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("forge-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func pipelineConfigFromEnv() *pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.ArchitectModel = os.Getenv("FORGE_ARCHITECT_MODEL")
	cfg.CodeModel = os.Getenv("FORGE_CODE_MODEL")
	cfg.ValidateModel = os.Getenv("FORGE_VALIDATE_MODEL")
	return cfg
}

func main() {
	port := os.Getenv("FORGE_PORT")
	if port == "" {
		port = "12230"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	log.Println("Configuring the LLM Client")
	llmClient, err := llm.NewClientFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	dataDir := os.Getenv("FORGE_DATA_DIR")
	if dataDir == "" {
		dataDir = "/var/lib/forge"
	}
	snapshots, err := store.Open(store.DefaultConfig(dataDir))
	if err != nil {
		log.Fatalf("Failed to open the snapshot store: %v", err)
	}
	defer snapshots.Close()

	orch := pipeline.New(llmClient, pipelineConfigFromEnv(), nil, nil)

	router := gin.Default()
	router.Use(otelgin.Middleware("forge-service"))

	routes.SetupRoutes(router, orch, snapshots)

	log.Println("Starting the forge server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
