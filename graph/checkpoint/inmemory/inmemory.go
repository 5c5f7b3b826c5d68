//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory checkpoint saver, suitable for
// tests and single-process deployments without durability requirements.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"trpc.group/trpc-go/trpc-graph-go/graph"
)

// Saver is an in-memory implementation of graph.CheckpointSaver. It keeps
// the append-only checkpoint sequence of each session in process memory.
type Saver struct {
	mu       sync.RWMutex
	sessions map[string][]*graph.Checkpoint // ascending by step
}

// NewSaver creates a new in-memory checkpoint saver.
func NewSaver() *Saver {
	return &Saver{
		sessions: make(map[string][]*graph.Checkpoint),
	}
}

// Put appends a checkpoint. A duplicate (session, step) is rejected.
func (s *Saver) Put(ctx context.Context, checkpoint *graph.Checkpoint) error {
	if checkpoint == nil {
		return fmt.Errorf("checkpoint cannot be nil")
	}
	if checkpoint.SessionID == "" {
		return graph.ErrSessionIDEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.sessions[checkpoint.SessionID]
	for _, existing := range seq {
		if existing.Step == checkpoint.Step {
			return fmt.Errorf("checkpoint for session %s step %d already exists",
				checkpoint.SessionID, checkpoint.Step)
		}
	}
	s.sessions[checkpoint.SessionID] = insertOrdered(seq, checkpoint.Copy())
	return nil
}

// Latest returns the highest-step checkpoint for a session.
func (s *Saver) Latest(ctx context.Context, sessionID string) (*graph.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.sessions[sessionID]
	if len(seq) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, graph.ErrSessionNotFound)
	}
	return seq[len(seq)-1].Copy(), nil
}

// Get returns the checkpoint at a specific step.
func (s *Saver) Get(ctx context.Context, sessionID string, step int) (*graph.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cp := range s.sessions[sessionID] {
		if cp.Step == step {
			return cp.Copy(), nil
		}
	}
	return nil, fmt.Errorf("session %s step %d: %w", sessionID, step, graph.ErrSessionNotFound)
}

// List returns all checkpoints of a session in ascending step order.
func (s *Saver) List(ctx context.Context, sessionID string) ([]*graph.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.sessions[sessionID]
	out := make([]*graph.Checkpoint, 0, len(seq))
	for _, cp := range seq {
		out = append(out, cp.Copy())
	}
	return out, nil
}

// DeleteSession removes all checkpoints for a session.
func (s *Saver) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close releases resources. It is a no-op for the in-memory saver.
func (s *Saver) Close() error {
	return nil
}

// insertOrdered inserts a checkpoint keeping ascending step order. Appends
// are overwhelmingly at the tail since steps only grow.
func insertOrdered(seq []*graph.Checkpoint, cp *graph.Checkpoint) []*graph.Checkpoint {
	i := len(seq)
	for i > 0 && seq[i-1].Step > cp.Step {
		i--
	}
	seq = append(seq, nil)
	copy(seq[i+1:], seq[i:])
	seq[i] = cp
	return seq
}
