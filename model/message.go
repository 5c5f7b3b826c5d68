//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

package model

import "github.com/google/uuid"

// Role represents the author of a message.
type Role string

// Message role constants.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// IsValid checks whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Message is one entry in a conversation. Identity is stable once assigned
// and is used for reconciliation when message lists are merged: an incoming
// message with a known ID revises the existing one in place.
type Message struct {
	// ID is the stable identity of the message. Empty IDs are assigned on
	// first merge into graph state.
	ID string `json:"id,omitempty"`
	// Role is the message author.
	Role Role `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
	// ToolID references the tool call this message responds to.
	ToolID string `json:"tool_id,omitempty"`
	// ToolName is the name of the tool that produced this message.
	ToolName string `json:"tool_name,omitempty"`
	// ToolCalls are tool invocations requested by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// EnsureID assigns a fresh globally-unique identity if the message has none
// and returns the message.
func (m Message) EnsureID() Message {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return m
}

// ToolCall represents a call to a tool requested by the model.
type ToolCall struct {
	// Type of the tool. Currently only `function` is supported.
	Type string `json:"type"`
	// Function holds the called function and its arguments.
	Function FunctionCall `json:"function,omitempty"`
	// ID is the tool call identifier returned by the model.
	ID string `json:"id,omitempty"`
}

// FunctionCall is the function part of a tool call.
type FunctionCall struct {
	// Name of the function to call.
	Name string `json:"name"`
	// Arguments to pass to the function, json-encoded.
	Arguments []byte `json:"arguments,omitempty"`
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a new tool result message responding to toolID.
func NewToolMessage(toolID, toolName, content string) Message {
	return Message{
		Role:     RoleTool,
		Content:  content,
		ToolID:   toolID,
		ToolName: toolName,
	}
}
