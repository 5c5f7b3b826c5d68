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
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuspendRaisesInterruptWithoutStagedValue(t *testing.T) {
	state := State{}
	_, err := Suspend(context.Background(), state, "need identifier")
	require.Error(t, err)

	interrupt, ok := AsInterrupt(err)
	require.True(t, ok)
	assert.Equal(t, "need identifier", interrupt.Payload)
}

func TestSuspendConsumesStagedResumeValue(t *testing.T) {
	state := State{ResumeChannel: 42}
	value, err := Suspend(context.Background(), state, "need identifier")
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.False(t, HasResumeValue(state), "resume value is consumed once")

	// A second suspension in the same node run starts a fresh interrupt.
	_, err = Suspend(context.Background(), state, "again")
	assert.Error(t, err)
}

func TestAsInterruptUnwrapsChains(t *testing.T) {
	wrapped := fmt.Errorf("node boom: %w", NewInterrupt("payload"))
	interrupt, ok := AsInterrupt(wrapped)
	require.True(t, ok)
	assert.Equal(t, "payload", interrupt.Payload)

	_, ok = AsInterrupt(errors.New("plain failure"))
	assert.False(t, ok)
}

func TestResumeValueTyped(t *testing.T) {
	state := State{ResumeChannel: "abc"}
	_, ok := ResumeValue[int](state)
	assert.False(t, ok, "type mismatch leaves the value staged")

	s, ok := ResumeValue[string](state)
	require.True(t, ok)
	assert.Equal(t, "abc", s)
}

func TestCheckpointDeepCopiesState(t *testing.T) {
	state := State{"meta": map[string]any{"k": "v"}}
	cp := NewCheckpoint("s1", 1, state, "next")

	state["meta"].(map[string]any)["k"] = "mutated"
	assert.Equal(t, "v", cp.Values["meta"].(map[string]any)["k"],
		"checkpoint values must not alias live state")

	copied := cp.Copy()
	copied.Values["meta"].(map[string]any)["k"] = "copied"
	assert.Equal(t, "v", cp.Values["meta"].(map[string]any)["k"])
}

func TestCheckpointPredicates(t *testing.T) {
	terminal := NewCheckpoint("s1", 1, State{}, End)
	assert.True(t, terminal.IsTerminal())
	assert.False(t, terminal.IsInterrupted())

	suspended := NewCheckpoint("s1", 2, State{}, "ask")
	suspended.Interrupt = &InterruptState{NodeID: "ask", Payload: "need identifier"}
	assert.True(t, suspended.IsInterrupted())
	assert.False(t, suspended.IsTerminal())
}
