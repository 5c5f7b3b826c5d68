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
	"encoding/json"

	"trpc.group/trpc-go/trpc-graph-go/model"
)

// MergeMessages reconciles an incoming message list into an existing one by
// identity. Messages without an ID get a fresh one assigned on both sides.
// An incoming message whose ID is already present revises the existing entry
// in place; all other incoming messages are appended in their own order.
// The merge is idempotent for repeated delivery of the same ID.
func MergeMessages(existing, incoming []model.Message) []model.Message {
	merged := make([]model.Message, len(existing))
	index := make(map[string]int, len(existing))
	for i, m := range existing {
		m = m.EnsureID()
		merged[i] = m
		index[m.ID] = i
	}
	for _, m := range incoming {
		m = m.EnsureID()
		if pos, ok := index[m.ID]; ok {
			merged[pos] = m
			continue
		}
		index[m.ID] = len(merged)
		merged = append(merged, m)
	}
	return merged
}

// MessageReducer merges message updates into the messages channel using
// identity-based reconciliation. Updates may be a message, a message slice,
// or MessageOp values for atomic list surgery.
func MessageReducer(current, update any) any {
	existing := coerceMessages(current)
	switch u := update.(type) {
	case MessageOp:
		return u.Apply(existing)
	case []MessageOp:
		for _, op := range u {
			existing = op.Apply(existing)
		}
		return existing
	case model.Message:
		return MergeMessages(existing, []model.Message{u})
	case []model.Message:
		return MergeMessages(existing, u)
	default:
		if incoming := coerceMessages(update); incoming != nil {
			return MergeMessages(existing, incoming)
		}
		return update
	}
}

// MessagesFromState returns the conversation held in the messages channel,
// rehydrating entries restored from a serialized checkpoint.
func MessagesFromState(state State) []model.Message {
	return coerceMessages(state[StateKeyMessages])
}

// coerceMessages normalizes a state value to a message slice. Values restored
// from a serialized checkpoint arrive as []any of maps and are rehydrated
// through JSON.
func coerceMessages(v any) []model.Message {
	switch m := v.(type) {
	case nil:
		return nil
	case []model.Message:
		return m
	case model.Message:
		return []model.Message{m}
	case []any:
		data, err := json.Marshal(m)
		if err != nil {
			return nil
		}
		var msgs []model.Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil
		}
		return msgs
	default:
		return nil
	}
}

// MessageOp defines an operation applied to the messages channel.
// Ops combine atomically within one state update.
type MessageOp interface {
	Apply([]model.Message) []model.Message
}

// AppendMessages appends items without identity reconciliation.
type AppendMessages struct{ Items []model.Message }

// Apply implements the MessageOp interface.
func (op AppendMessages) Apply(dst []model.Message) []model.Message {
	out := make([]model.Message, 0, len(dst)+len(op.Items))
	out = append(out, dst...)
	for _, m := range op.Items {
		out = append(out, m.EnsureID())
	}
	return out
}

// ReplaceLastUser replaces the last user message in the history.
// If no user message is found, it falls back to appending a new one.
type ReplaceLastUser struct{ Content string }

// Apply implements the MessageOp interface.
func (op ReplaceLastUser) Apply(dst []model.Message) []model.Message {
	for i := len(dst) - 1; i >= 0; i-- {
		if dst[i].Role == model.RoleUser {
			dst[i].Content = op.Content
			return dst
		}
	}
	return append(dst, model.NewUserMessage(op.Content).EnsureID())
}

// RemoveAllMessages clears all messages for full rebuild scenarios.
type RemoveAllMessages struct{}

// Apply implements the MessageOp interface.
func (RemoveAllMessages) Apply(_ []model.Message) []model.Message { return nil }
