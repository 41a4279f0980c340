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

// Config carries every tunable of the pipeline. All knobs live here rather
// than in package globals so two orchestrators with different settings can
// coexist in one process.
type Config struct {
	// ArchitectModel, CodeModel and ValidateModel select the model per phase.
	// An empty value falls through to the LLM client's default model.
	ArchitectModel string `yaml:"architect_model"`
	CodeModel      string `yaml:"code_model"`
	ValidateModel  string `yaml:"validate_model"`

	// ChunkSize bounds the content carried by one streamed file chunk, in
	// bytes before rune adjustment.
	ChunkSize int `yaml:"chunk_size"`

	// MaxContextFiles bounds how many full file bodies are inlined into the
	// code-phase prompt; beyond it only the project digest is sent.
	MaxContextFiles int `yaml:"max_context_files"`
}

// DefaultConfig returns the settings used when the caller provides none.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:       2048,
		MaxContextFiles: 8,
	}
}

func (c *Config) normalize() {
	if c.ChunkSize < 1 {
		c.ChunkSize = 2048
	}
	if c.MaxContextFiles < 0 {
		c.MaxContextFiles = 0
	}
}
