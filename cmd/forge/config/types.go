// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

type ForgeConfig struct {
	// Server: where the forge service listens
	Server ServerConfig `yaml:"server"`

	// Logging: CLI log destination
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	URL            string `yaml:"url"`             // e.g. http://localhost:12230
	TimeoutSeconds int    `yaml:"timeout_seconds"` // e.g. 600
}

type LoggingConfig struct {
	Dir   string `yaml:"dir"`   // e.g. ~/.aleutianforge/logs
	Level string `yaml:"level"` // debug, info, warn, error
}

func DefaultConfig() ForgeConfig {
	return ForgeConfig{
		Server: ServerConfig{
			URL:            "http://localhost:12230",
			TimeoutSeconds: 600,
		},
		Logging: LoggingConfig{
			Dir:   "~/.aleutianforge/logs",
			Level: "info",
		},
	}
}
