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
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianForge/cmd/forge/config"
)

var healthJSONOutput bool // Output as JSON

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the forge service is up",
	Run:   runHealthCommand,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSONOutput, "json", false,
		"Output as JSON for scripting")
}

func runHealthCommand(cmd *cobra.Command, args []string) {
	client := &http.Client{Timeout: 5 * time.Second}
	url := config.Global.Server.URL + "/healthz"

	status := map[string]any{"url": url, "healthy": false}
	resp, err := client.Get(url)
	if err == nil {
		resp.Body.Close()
		status["healthy"] = resp.StatusCode == http.StatusOK
		status["status_code"] = resp.StatusCode
	} else {
		status["error"] = err.Error()
	}

	if healthJSONOutput {
		out, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(out))
	} else if status["healthy"] == true {
		fmt.Println("forge service is healthy")
	} else {
		fmt.Printf("forge service is unreachable at %s\n", url)
	}
	if status["healthy"] != true {
		os.Exit(1)
	}
}
