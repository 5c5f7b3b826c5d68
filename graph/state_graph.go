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
	"encoding/json"
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-graph-go/model"
	"trpc.group/trpc-go/trpc-graph-go/tool"
)

// StateGraph provides a fluent interface for building graphs.
// This is the primary public API for creating executable graphs.
//
// Example usage:
//
//	schema := MessagesStateSchema()
//	g, err := NewStateGraph(schema).
//	  AddNode("chat", chatFunc).
//	  SetEntryPoint("chat").
//	  SetFinishPoint("chat").
//	  Compile()
//
// The compiled Graph can then be executed with NewExecutor(g, ...).
type StateGraph struct {
	graph *Graph
	err   error
}

// NewStateGraph creates a new graph builder with the given state schema.
func NewStateGraph(schema *StateSchema) *StateGraph {
	return &StateGraph{
		graph: newGraph(schema),
	}
}

// Option is a function that configures a Node.
type Option func(*Node)

// WithName sets the name of the node.
func WithName(name string) Option {
	return func(node *Node) {
		node.Name = name
	}
}

// WithDescription sets the description of the node.
func WithDescription(description string) Option {
	return func(node *Node) {
		node.Description = description
	}
}

// record keeps the first builder error for Compile to report.
func (sg *StateGraph) record(err error) {
	if sg.err == nil && err != nil {
		sg.err = err
	}
}

// AddNode adds a node with the given ID and function.
func (sg *StateGraph) AddNode(id string, function NodeFunc, opts ...Option) *StateGraph {
	node := &Node{
		ID:       id,
		Name:     id,
		Function: function,
	}
	for _, opt := range opts {
		opt(node)
	}
	sg.record(sg.graph.addNode(node))
	return sg
}

// AddLLMNode adds a node that invokes the model capability with the current
// conversation and merges the assistant reply into the messages channel.
func (sg *StateGraph) AddLLMNode(
	id string,
	llmModel model.Model,
	instruction string,
	tools map[string]tool.Tool,
	opts ...Option,
) *StateGraph {
	sg.AddNode(id, NewLLMNodeFunc(llmModel, instruction, tools), opts...)
	return sg
}

// AddToolsNode adds a node that executes the tool calls requested by the last
// assistant message and appends the tool results.
func (sg *StateGraph) AddToolsNode(
	id string,
	tools map[string]tool.CallableTool,
	opts ...Option,
) *StateGraph {
	sg.AddNode(id, NewToolsNodeFunc(tools), opts...)
	return sg
}

// AddEdge adds a deterministic edge between two nodes.
func (sg *StateGraph) AddEdge(from, to string) *StateGraph {
	sg.record(sg.graph.addEdge(&Edge{From: from, To: to}))
	return sg
}

// AddConditionalEdges adds conditional routing from a node. The path map
// declares the finite label set the routing function may produce; a label
// outside it fails at run time with UnknownRouteError.
func (sg *StateGraph) AddConditionalEdges(
	from string,
	condition ConditionalFunc,
	pathMap map[string]string,
) *StateGraph {
	sg.record(sg.graph.addConditionalEdge(&ConditionalEdge{
		From:      from,
		Condition: condition,
		PathMap:   pathMap,
	}))
	return sg
}

// SetEntryPoint sets the entry point of the graph.
// This is equivalent to AddEdge(Start, nodeID).
func (sg *StateGraph) SetEntryPoint(nodeID string) *StateGraph {
	sg.record(sg.graph.setEntryPoint(nodeID))
	sg.AddEdge(Start, nodeID)
	return sg
}

// SetFinishPoint adds an edge from the node to End.
// This is equivalent to AddEdge(nodeID, End).
func (sg *StateGraph) SetFinishPoint(nodeID string) *StateGraph {
	sg.AddEdge(nodeID, End)
	return sg
}

// Compile validates the graph and returns the immutable compiled form.
func (sg *StateGraph) Compile() (*Graph, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	if err := sg.graph.validate(); err != nil {
		return nil, err
	}
	return sg.graph, nil
}

// MustCompile compiles the graph or panics if invalid.
func (sg *StateGraph) MustCompile() *Graph {
	g, err := sg.Compile()
	if err != nil {
		panic(err)
	}
	return g
}

// NewLLMNodeFunc creates a NodeFunc that invokes the model capability.
// The returned update carries the assistant message (merged by identity into
// the messages channel) and the last response text.
func NewLLMNodeFunc(llmModel model.Model, instruction string, tools map[string]tool.Tool) NodeFunc {
	return func(ctx context.Context, state State) (any, error) {
		messages := coerceMessages(state[StateKeyMessages])
		// Prepend the system prompt when not already present.
		if instruction != "" && (len(messages) == 0 || messages[0].Role != model.RoleSystem) {
			messages = append([]model.Message{model.NewSystemMessage(instruction)}, messages...)
		}
		if input, ok := state[StateKeyUserInput].(string); ok && input != "" {
			messages = append(messages, model.NewUserMessage(input))
		}
		request := &model.Request{
			Messages: messages,
			Tools:    tools,
		}
		responseChan, err := llmModel.GenerateContent(ctx, request)
		if err != nil {
			return nil, fmt.Errorf("failed to generate content: %w", err)
		}
		var final *model.Response
		var toolCalls []model.ToolCall
		for response := range responseChan {
			if response.Error != nil {
				return nil, fmt.Errorf("model API error: %s", response.Error.Message)
			}
			if len(response.Choices) > 0 && len(response.Choices[0].Message.ToolCalls) > 0 {
				toolCalls = append(toolCalls, response.Choices[0].Message.ToolCalls...)
			}
			final = response
		}
		if final == nil || len(final.Choices) == 0 {
			return nil, errors.New("no response received from model")
		}
		reply := model.Message{
			Role:      model.RoleAssistant,
			Content:   final.Choices[0].Message.Content,
			ToolCalls: toolCalls,
		}.EnsureID()
		return State{
			StateKeyMessages:     []model.Message{reply},
			StateKeyLastResponse: reply.Content,
		}, nil
	}
}

// NewToolsNodeFunc creates a NodeFunc that executes the tool calls of the
// last assistant message and returns the tool result messages.
func NewToolsNodeFunc(tools map[string]tool.CallableTool) NodeFunc {
	return func(ctx context.Context, state State) (any, error) {
		messages := coerceMessages(state[StateKeyMessages])
		if len(messages) == 0 {
			return nil, errors.New("no messages in state")
		}
		last := messages[len(messages)-1]
		if last.Role != model.RoleAssistant {
			return nil, errors.New("last message is not an assistant message")
		}
		results := make([]model.Message, 0, len(last.ToolCalls))
		for _, call := range last.ToolCalls {
			id, name := call.ID, call.Function.Name
			t, ok := tools[name]
			if !ok {
				return nil, fmt.Errorf("tool %s not found", name)
			}
			result, err := t.Call(ctx, call.Function.Arguments)
			if err != nil {
				return nil, fmt.Errorf("tool %s call failed: %w", name, err)
			}
			content, err := json.Marshal(result)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool result: %w", err)
			}
			results = append(results, model.NewToolMessage(id, name, string(content)).EnsureID())
		}
		return State{
			StateKeyMessages: results,
		}, nil
	}
}
