//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

// Package sqlite provides a SQLite-backed checkpoint saver. Checkpoints
// survive process restarts, which is what makes cross-restart resume work.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"trpc.group/trpc-go/trpc-graph-go/graph"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS checkpoints (
	session_id TEXT NOT NULL,
	step       INTEGER NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (session_id, step)
);
`

// Saver is a SQLite implementation of graph.CheckpointSaver. Each checkpoint
// is one JSON row; the (session_id, step) primary key enforces append-only
// semantics, and the single-row insert makes Put atomic.
type Saver struct {
	db *sql.DB
	// ownsDB is set when the saver opened the handle itself; Close only
	// closes handles the saver owns.
	ownsDB bool
}

// NewSaver opens (or creates) the database at path and prepares the schema.
// Use ":memory:" for an ephemeral store.
func NewSaver(path string) (*Saver, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection sidesteps SQLITE_BUSY under concurrent sessions.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}
	return &Saver{db: db, ownsDB: true}, nil
}

// NewSaverFromDB wraps an existing database handle. The caller keeps
// ownership of the handle; Close becomes a no-op.
func NewSaverFromDB(db *sql.DB) (*Saver, error) {
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}
	return &Saver{db: db}, nil
}

// Put appends a checkpoint. A duplicate (session, step) is rejected by the
// primary key constraint.
func (s *Saver) Put(ctx context.Context, checkpoint *graph.Checkpoint) error {
	if checkpoint == nil {
		return fmt.Errorf("checkpoint cannot be nil")
	}
	if checkpoint.SessionID == "" {
		return graph.ErrSessionIDEmpty
	}
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO checkpoints (session_id, step, data) VALUES (?, ?, ?)",
		checkpoint.SessionID, checkpoint.Step, string(data))
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("checkpoint for session %s step %d already exists",
				checkpoint.SessionID, checkpoint.Step)
		}
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

// Latest returns the highest-step checkpoint for a session.
func (s *Saver) Latest(ctx context.Context, sessionID string) (*graph.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT data FROM checkpoints WHERE session_id = ? ORDER BY step DESC LIMIT 1",
		sessionID)
	return scanCheckpoint(row, sessionID)
}

// Get returns the checkpoint at a specific step.
func (s *Saver) Get(ctx context.Context, sessionID string, step int) (*graph.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT data FROM checkpoints WHERE session_id = ? AND step = ?",
		sessionID, step)
	return scanCheckpoint(row, sessionID)
}

// List returns all checkpoints of a session in ascending step order.
func (s *Saver) List(ctx context.Context, sessionID string) ([]*graph.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM checkpoints WHERE session_id = ? ORDER BY step ASC",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()
	var out []*graph.Checkpoint
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		var cp graph.Checkpoint
		if err := json.Unmarshal([]byte(data), &cp); err != nil {
			return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
		}
		out = append(out, &cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return out, nil
}

// DeleteSession removes all checkpoints for a session.
func (s *Saver) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM checkpoints WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("delete session checkpoints: %w", err)
	}
	return nil
}

// Close closes the underlying database when the saver opened it itself; for
// a handle wrapped via NewSaverFromDB it is a no-op and the caller keeps
// ownership.
func (s *Saver) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func scanCheckpoint(row *sql.Row, sessionID string) (*graph.Checkpoint, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, graph.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("scan checkpoint: %w", err)
	}
	var cp graph.Checkpoint
	if err := json.Unmarshal([]byte(data), &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// isConstraintError reports whether err is a unique constraint violation.
// The modernc driver surfaces SQLite error text rather than typed errors.
func isConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint")
}
