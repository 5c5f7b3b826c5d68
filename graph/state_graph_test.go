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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopNode(ctx context.Context, state State) (any, error) {
	return nil, nil
}

func TestCompileValidGraph(t *testing.T) {
	g, err := NewStateGraph(NewStateSchema()).
		AddNode("a", noopNode).
		AddNode("b", noopNode).
		SetEntryPoint("a").
		AddEdge("a", "b").
		SetFinishPoint("b").
		Compile()
	require.NoError(t, err)
	assert.Equal(t, "a", g.EntryPoint())
	_, ok := g.Node("b")
	assert.True(t, ok)
}

func TestCompileValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		build func() *StateGraph
	}{
		{
			name: "no entry point",
			build: func() *StateGraph {
				return NewStateGraph(nil).
					AddNode("a", noopNode).
					SetFinishPoint("a")
			},
		},
		{
			name: "duplicate node",
			build: func() *StateGraph {
				return NewStateGraph(nil).
					AddNode("a", noopNode).
					AddNode("a", noopNode).
					SetEntryPoint("a").
					SetFinishPoint("a")
			},
		},
		{
			name: "reserved node id",
			build: func() *StateGraph {
				return NewStateGraph(nil).
					AddNode(End, noopNode).
					SetEntryPoint(End)
			},
		},
		{
			name: "edge to undeclared node",
			build: func() *StateGraph {
				return NewStateGraph(nil).
					AddNode("a", noopNode).
					SetEntryPoint("a").
					AddEdge("a", "ghost")
			},
		},
		{
			name: "undeclared entry point",
			build: func() *StateGraph {
				return NewStateGraph(nil).
					AddNode("a", noopNode).
					SetEntryPoint("ghost").
					SetFinishPoint("a")
			},
		},
		{
			name: "node without outgoing edge",
			build: func() *StateGraph {
				return NewStateGraph(nil).
					AddNode("a", noopNode).
					AddNode("stuck", noopNode).
					SetEntryPoint("a").
					AddEdge("a", "stuck")
			},
		},
		{
			name: "conditional label targets undeclared node",
			build: func() *StateGraph {
				return NewStateGraph(nil).
					AddNode("a", noopNode).
					SetEntryPoint("a").
					AddConditionalEdges("a",
						func(ctx context.Context, state State) (string, error) { return "x", nil },
						map[string]string{"x": "ghost"})
			},
		},
		{
			name: "conditional edge without labels",
			build: func() *StateGraph {
				return NewStateGraph(nil).
					AddNode("a", noopNode).
					SetEntryPoint("a").
					AddConditionalEdges("a",
						func(ctx context.Context, state State) (string, error) { return "x", nil },
						nil)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Compile()
			require.Error(t, err)
			var verr *GraphValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestCompileAllowsCycles(t *testing.T) {
	// Agent/tool loops are legitimate; termination is the step budget's job.
	_, err := NewStateGraph(nil).
		AddNode("a", noopNode).
		AddNode("b", noopNode).
		SetEntryPoint("a").
		AddEdge("a", "b").
		AddEdge("b", "a").
		Compile()
	assert.NoError(t, err)
}

func TestMustCompilePanicsOnInvalidGraph(t *testing.T) {
	assert.Panics(t, func() {
		NewStateGraph(nil).MustCompile()
	})
}
