//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

// Package graph provides a stateful, resumable graph-execution engine for
// multi-step conversational workflows: a directed graph of computation steps
// over reducer-merged state, conditional routing, an interrupt/resume
// protocol and durable per-session checkpointing.
package graph

import (
	"context"
)

// Special node identifiers for graph routing.
const (
	// Start represents the virtual start node for routing.
	Start = "__start__"
	// End represents the virtual end node for routing.
	End = "__end__"
)

// NodeFunc is the unit of computation: a function from current state to a
// partial state update or a Command. It may abort with an InterruptError to
// request suspension instead of returning.
type NodeFunc func(ctx context.Context, state State) (any, error)

// ConditionalFunc deterministically maps state to a routing label. The label
// set is declared at compile time through the conditional edge's path map.
type ConditionalFunc func(ctx context.Context, state State) (string, error)

// Node represents a node in the compiled graph.
type Node struct {
	ID          string
	Name        string
	Description string
	Function    NodeFunc
}

// Edge represents a deterministic edge between two nodes.
type Edge struct {
	From string
	To   string
}

// ConditionalEdge represents a conditional edge with routing logic.
// PathMap maps the routing function's labels to target nodes.
type ConditionalEdge struct {
	From      string
	Condition ConditionalFunc
	PathMap   map[string]string
}

// Command combines a state update with explicit routing.
type Command struct {
	Update State
	GoTo   string
}

// Graph is the immutable compiled runtime structure created by
// StateGraph.Compile. It is reused across sessions; execution state lives in
// per-session checkpoints, never in the graph.
type Graph struct {
	schema           *StateSchema
	nodes            map[string]*Node
	edges            map[string][]*Edge
	conditionalEdges map[string]*ConditionalEdge
	entryPoint       string
}

// newGraph creates a new empty graph with the given state schema.
func newGraph(schema *StateSchema) *Graph {
	if schema == nil {
		schema = NewStateSchema()
	}
	return &Graph{
		schema:           schema,
		nodes:            make(map[string]*Node),
		edges:            make(map[string][]*Edge),
		conditionalEdges: make(map[string]*ConditionalEdge),
	}
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Edges returns all outgoing deterministic edges from a node.
func (g *Graph) Edges(nodeID string) []*Edge {
	return g.edges[nodeID]
}

// ConditionalEdge returns the conditional edge from a node.
func (g *Graph) ConditionalEdge(nodeID string) (*ConditionalEdge, bool) {
	edge, exists := g.conditionalEdges[nodeID]
	return edge, exists
}

// EntryPoint returns the entry point node ID.
func (g *Graph) EntryPoint() string {
	return g.entryPoint
}

// Schema returns the state schema.
func (g *Graph) Schema() *StateSchema {
	return g.schema
}

// addNode adds a node to the graph.
func (g *Graph) addNode(node *Node) error {
	if node.ID == "" {
		return validationErrorf("node ID cannot be empty")
	}
	if node.ID == Start || node.ID == End {
		return validationErrorf("node ID %s is reserved", node.ID)
	}
	if _, exists := g.nodes[node.ID]; exists {
		return validationErrorf("node with ID %s already exists", node.ID)
	}
	g.nodes[node.ID] = node
	return nil
}

// addEdge adds a deterministic edge to the graph.
func (g *Graph) addEdge(edge *Edge) error {
	if edge.From == "" || edge.To == "" {
		return validationErrorf("edge from and to cannot be empty")
	}
	if edge.From != Start {
		if _, exists := g.nodes[edge.From]; !exists {
			return validationErrorf("edge source node %s does not exist", edge.From)
		}
	}
	if edge.To != End {
		if _, exists := g.nodes[edge.To]; !exists {
			return validationErrorf("edge target node %s does not exist", edge.To)
		}
	}
	g.edges[edge.From] = append(g.edges[edge.From], edge)
	return nil
}

// addConditionalEdge adds a conditional edge to the graph.
func (g *Graph) addConditionalEdge(condEdge *ConditionalEdge) error {
	if condEdge.From == "" {
		return validationErrorf("conditional edge source cannot be empty")
	}
	if condEdge.Condition == nil {
		return validationErrorf("conditional edge from %s has no routing function", condEdge.From)
	}
	if len(condEdge.PathMap) == 0 {
		return validationErrorf("conditional edge from %s declares no labels", condEdge.From)
	}
	if condEdge.From != Start {
		if _, exists := g.nodes[condEdge.From]; !exists {
			return validationErrorf("conditional edge source node %s does not exist", condEdge.From)
		}
	}
	for label, to := range condEdge.PathMap {
		if to == End {
			continue
		}
		if _, exists := g.nodes[to]; !exists {
			return validationErrorf("conditional edge label %q targets undeclared node %s", label, to)
		}
	}
	g.conditionalEdges[condEdge.From] = condEdge
	return nil
}

// setEntryPoint sets the entry point of the graph.
func (g *Graph) setEntryPoint(nodeID string) error {
	if nodeID != "" {
		if _, exists := g.nodes[nodeID]; !exists {
			return validationErrorf("entry point node %s does not exist", nodeID)
		}
	}
	g.entryPoint = nodeID
	return nil
}

// validate validates the compiled graph structure. Cycles are allowed by
// design (agent/tool loops); loop termination is bounded by the executor's
// step budget instead.
func (g *Graph) validate() error {
	if g.entryPoint == "" {
		return validationErrorf("graph must have an entry point")
	}
	if _, exists := g.nodes[g.entryPoint]; !exists {
		return validationErrorf("entry point node %s does not exist", g.entryPoint)
	}
	// Every node needs a way out: a deterministic edge or a conditional edge.
	// Routing functions are opaque, so label coverage beyond the declared
	// path map is checked at run time, not here.
	for id := range g.nodes {
		if len(g.edges[id]) == 0 {
			if _, ok := g.conditionalEdges[id]; !ok {
				return validationErrorf("node %s has no outgoing edges", id)
			}
		}
	}
	return nil
}
