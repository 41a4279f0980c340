// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "forge-test",
		Quiet:   true,
	})

	logger.Info("pipeline run finished", "run_id", "run-1", "files", 3)
	require.NoError(t, logger.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "forge-test_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry))
	assert.Equal(t, "pipeline run finished", entry["msg"])
	assert.Equal(t, "forge-test", entry["service"])
	assert.Equal(t, "run-1", entry["run_id"])
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Level: LevelWarn, LogDir: dir, Service: "filter", Quiet: true})

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	require.NoError(t, logger.Close())

	matches, _ := filepath.Glob(filepath.Join(dir, "filter_*.log"))
	require.Len(t, matches, 1)
	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "dropped")
	assert.Contains(t, string(raw), "kept")
}

func TestExporter(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: LevelInfo, Service: "export-test", Quiet: true, Exporter: exporter})

	logger.Info("snapshot saved", "project_id", "p1")
	logger.Debug("below level, not exported")
	require.NoError(t, logger.Close())

	entries := exporter.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "snapshot saved", entries[0].Message)
	assert.Equal(t, LevelInfo, entries[0].Level)
	assert.Equal(t, "export-test", entries[0].Service)
	assert.Equal(t, "p1", entries[0].Attrs["project_id"])
}

func TestWith(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Level: LevelInfo, LogDir: dir, Service: "with-test", Quiet: true})

	child := logger.With("request_id", "req-9")
	child.Info("handling request")
	require.NoError(t, logger.Close())

	matches, _ := filepath.Glob(filepath.Join(dir, "with-test_*.log"))
	require.Len(t, matches, 1)
	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "req-9")
}

func TestArgsToMap(t *testing.T) {
	attrs := argsToMap([]any{"a", 1, "b", "two", "dangling"})
	assert.Equal(t, 1, attrs["a"])
	assert.Equal(t, "two", attrs["b"])
	val, ok := attrs["dangling"]
	assert.True(t, ok)
	assert.Nil(t, val)

	assert.Nil(t, argsToMap(nil))
}
