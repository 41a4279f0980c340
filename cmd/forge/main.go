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
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianForge/cmd/forge/config"
	"github.com/AleutianAI/AleutianForge/pkg/logging"
)

var logger *logging.Logger

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "Client for the AleutianForge synthesis service",
	Long: `forge drives the AleutianForge code synthesis service from the terminal.

Examples:
  forge synth "build a pricing page"         # Stream a generation run
  forge synth --batch "add a contact form"   # Single-response run
  forge health                               # Check the service`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if err := config.Load(); err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		logger = logging.New(logging.Config{
			Level:   parseLevel(config.Global.Logging.Level),
			LogDir:  config.Global.Logging.Dir,
			Service: "cli",
			Quiet:   true, // CLI output goes through stdout, not log lines
		})
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	}

	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(healthCmd)
}

func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
