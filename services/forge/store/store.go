// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists per-project workspace snapshots in an embedded
// BadgerDB, so a session survives a service restart.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianForge/services/forge/datatypes"
	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound reports a lookup for a project with no stored snapshot.
var ErrNotFound = errors.New("store: snapshot not found")

// Snapshot is one persisted workspace state.
type Snapshot struct {
	ProjectID string                           `json:"project_id"`
	Files     map[string]datatypes.ProjectFile `json:"files"`
	SavedAt   time.Time                        `json:"saved_at"`
}

// Store is the narrow persistence surface the handlers depend on.
type Store interface {
	Save(ctx context.Context, projectID string, files map[string]datatypes.ProjectFile) error
	Load(ctx context.Context, projectID string) (*Snapshot, error)
	Delete(ctx context.Context, projectID string) error
	Close() error
}

// Config holds configuration for the snapshot store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful for
	// testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool
}

// DefaultConfig returns production defaults.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore implements Store on an embedded BadgerDB.
//
// # Thread Safety
//
// Safe for concurrent use; Badger transactions provide isolation.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (or creates) the snapshot database.
func Open(cfg Config) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("store: path is required unless InMemory is set")
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("store: creating data dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: slog.Default().With("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: opening badger at %q: %w", cfg.Path, err)
	}
	slog.Info("Snapshot store opened", "path", cfg.Path, "in_memory", cfg.InMemory)
	return &BadgerStore{db: db}, nil
}

func sessionKey(projectID string) []byte {
	return []byte("session:" + projectID)
}

// Save persists the project's full file set, superseding any prior snapshot.
func (s *BadgerStore) Save(ctx context.Context, projectID string, files map[string]datatypes.ProjectFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(projectID) == "" {
		return errors.New("store: empty project id")
	}
	snap := Snapshot{ProjectID: projectID, Files: files, SavedAt: time.Now().UTC()}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshaling snapshot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(projectID), payload)
	})
}

// Load returns the project's latest snapshot, or ErrNotFound.
func (s *BadgerStore) Load(ctx context.Context, projectID string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var snap Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(projectID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, projectID)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Delete removes the project's snapshot. Deleting an absent snapshot is not
// an error.
func (s *BadgerStore) Delete(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(projectID))
	})
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
