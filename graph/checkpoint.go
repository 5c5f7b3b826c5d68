//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CheckpointVersion is the current version of the checkpoint format.
const CheckpointVersion = 1

// Checkpoint is an immutable snapshot of a session at the end of a step:
// the channel values, the continuation pointer and any pending interrupt.
// Checkpoints are ordered by Step within a session; the store only appends.
type Checkpoint struct {
	// Version is the version of the checkpoint format.
	Version int `json:"v"`
	// ID is the unique identifier for this checkpoint.
	ID string `json:"id"`
	// SessionID groups the append-only checkpoint sequence.
	SessionID string `json:"session_id"`
	// Step is the position in the session's checkpoint sequence.
	Step int `json:"step"`
	// Values contains the channel values at checkpoint time.
	Values map[string]any `json:"values"`
	// NextNode is the node to execute next, or End when terminated.
	NextNode string `json:"next_node"`
	// Interrupt is set while the session awaits a resume value.
	Interrupt *InterruptState `json:"interrupt,omitempty"`
	// Timestamp is when the checkpoint was created.
	Timestamp time.Time `json:"ts"`
}

// InterruptState records a pending suspension.
type InterruptState struct {
	// NodeID is the node that requested suspension; resume re-executes it
	// from its beginning.
	NodeID string `json:"node_id"`
	// Payload is the value that was passed to Suspend.
	Payload any `json:"payload"`
}

// NewCheckpoint creates a checkpoint snapshot. The state values are deep
// copied so the saver can serialize them without racing node execution.
func NewCheckpoint(sessionID string, step int, state State, nextNode string) *Checkpoint {
	values := make(map[string]any, len(state))
	for k, v := range state {
		values[k] = deepCopyValue(v)
	}
	return &Checkpoint{
		Version:   CheckpointVersion,
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Step:      step,
		Values:    values,
		NextNode:  nextNode,
		Timestamp: time.Now().UTC(),
	}
}

// IsTerminal reports whether the session reached a terminal marker.
func (c *Checkpoint) IsTerminal() bool {
	return c.NextNode == End
}

// IsInterrupted reports whether the session is suspended awaiting resume.
func (c *Checkpoint) IsInterrupted() bool {
	return c.Interrupt != nil && c.Interrupt.NodeID != ""
}

// Copy creates a deep copy of the checkpoint.
func (c *Checkpoint) Copy() *Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Values = make(map[string]any, len(c.Values))
	for k, v := range c.Values {
		cp.Values[k] = deepCopyValue(v)
	}
	if c.Interrupt != nil {
		interrupt := *c.Interrupt
		cp.Interrupt = &interrupt
	}
	return &cp
}

// CheckpointSaver is the durable checkpoint store contract. Implementations
// must be safe for concurrent use across sessions and must append each
// checkpoint atomically: either the whole record is durably recorded or
// nothing is.
type CheckpointSaver interface {
	// Put appends a checkpoint. A duplicate (session, step) is rejected;
	// the store never overwrites.
	Put(ctx context.Context, checkpoint *Checkpoint) error
	// Latest returns the highest-step checkpoint for a session, or
	// ErrSessionNotFound when the session has none.
	Latest(ctx context.Context, sessionID string) (*Checkpoint, error)
	// Get returns a specific checkpoint, or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string, step int) (*Checkpoint, error)
	// List returns all checkpoints of a session in ascending step order.
	List(ctx context.Context, sessionID string) ([]*Checkpoint, error)
	// DeleteSession removes all checkpoints for a session. The engine never
	// calls it; retention is an external concern.
	DeleteSession(ctx context.Context, sessionID string) error
	// Close releases resources held by the saver.
	Close() error
}

// deepCopyValue copies a value via JSON so checkpoint contents cannot alias
// live state. Values that do not marshal are kept as-is.
func deepCopyValue(src any) any {
	if src == nil {
		return nil
	}
	data, err := json.Marshal(src)
	if err != nil {
		return src
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber() // Preserve number types as json.Number.
	var result any
	if err := decoder.Decode(&result); err != nil {
		return src
	}
	return result
}
