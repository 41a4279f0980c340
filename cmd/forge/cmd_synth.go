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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianForge/cmd/forge/config"
	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	synthProject string // Project identifier for session continuity
	synthBatch   bool   // Use the batch endpoint instead of streaming
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// synthCmd runs one synthesis pipeline against the forge service.
//
// # Description
//
// Streams the run by default, printing phase transitions and file paths as
// the service emits them. With --batch the command blocks for the full
// result and prints a summary.
//
// # Examples
//
//	forge synth "build a pricing page"
//	forge synth -p my-site "add a contact form"
//	forge synth --batch "restyle the navbar"
var synthCmd = &cobra.Command{
	Use:   "synth [prompt]",
	Short: "Run a code synthesis pipeline",
	Args:  cobra.MinimumNArgs(1),
	Run:   runSynthCommand,
}

func init() {
	synthCmd.Flags().StringVarP(&synthProject, "project", "p", "default",
		"Project id; runs against the same project share a session")
	synthCmd.Flags().BoolVar(&synthBatch, "batch", false,
		"Wait for the full result instead of streaming")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

type synthRequest struct {
	ProjectID string `json:"project_id"`
	Prompt    string `json:"prompt"`
}

func newHTTPClient() *http.Client {
	timeout := time.Duration(config.Global.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}

func runSynthCommand(cmd *cobra.Command, args []string) {
	prompt := strings.Join(args, " ")
	payload, err := json.Marshal(synthRequest{ProjectID: synthProject, Prompt: prompt})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding request: %v\n", err)
		os.Exit(1)
	}

	if synthBatch {
		runSynthBatch(payload)
		return
	}
	runSynthStream(payload)
}

func runSynthBatch(payload []byte) {
	url := config.Global.Server.URL + "/v1/synthesis"
	resp, err := newHTTPClient().Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var result datatypes.PipelineResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding response: %v\n", err)
		os.Exit(1)
	}
	printResult(result)
	if !result.Success {
		os.Exit(1)
	}
}

func runSynthStream(payload []byte) {
	url := config.Global.Server.URL + "/v1/synthesis/stream"
	resp, err := newHTTPClient().Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	terminated := false
	failed := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == datatypes.StreamTerminator {
			terminated = true
			break
		}
		var event datatypes.SyncEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			logger.Warn("Skipping malformed stream line", "error", err)
			continue
		}
		if event.Type == datatypes.EventError {
			failed = true
		}
		printEvent(event)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Stream read failed: %v\n", err)
		os.Exit(1)
	}
	if !terminated {
		fmt.Fprintln(os.Stderr, "Stream ended without terminator; the run may have been cut off")
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}

func printEvent(event datatypes.SyncEvent) {
	switch event.Type {
	case datatypes.EventStage:
		switch event.Status {
		case datatypes.StageStart:
			fmt.Printf("==> %s\n", event.Stage)
		case datatypes.StageComplete:
			if event.Message != "" {
				fmt.Printf("    %s done: %s\n", event.Stage, event.Message)
			} else {
				fmt.Printf("    %s done\n", event.Stage)
			}
		case datatypes.StageError:
			fmt.Printf("    %s failed: %s\n", event.Stage, event.Message)
		}
	case datatypes.EventFile:
		// Chunk events carry content; only announcements are worth a line.
		if event.Chunk == 0 {
			fmt.Printf("    %s %s\n", event.Command, event.Path)
		}
	case datatypes.EventComplete:
		fmt.Printf("\nGenerated %d files", event.FilesGenerated)
		if event.ValidationPassed != nil && !*event.ValidationPassed {
			fmt.Print(" (validation found issues)")
		}
		fmt.Println()
		if event.AIMessage != "" {
			fmt.Println(event.AIMessage)
		}
		for _, s := range event.Suggestions {
			fmt.Printf("  hint: %s\n", s)
		}
	case datatypes.EventError:
		fmt.Fprintf(os.Stderr, "Run failed: %s\n", event.Message)
	}
}

func printResult(result datatypes.PipelineResult) {
	if !result.Success {
		fmt.Fprintf(os.Stderr, "Run failed: %s\n", result.Message)
		return
	}
	fmt.Println(result.Message)
	for _, cmd := range result.Commands {
		fmt.Printf("    %s %s\n", cmd.Kind, cmd.Path)
	}
	if result.AIMessage != "" {
		fmt.Println(result.AIMessage)
	}
	if !result.Validation.IsValid() {
		fmt.Println("Validation errors:")
		for _, e := range result.Validation.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}
