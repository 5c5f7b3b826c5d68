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
	"fmt"
	"reflect"
	"sync"

	"trpc.group/trpc-go/trpc-graph-go/model"
)

const (
	// StateKeyUserInput is the key of the user input.
	// Typically it remains constant across the graph.
	StateKeyUserInput = "user_input"
	// StateKeyLastResponse is the key of the last response.
	StateKeyLastResponse = "last_response"
	// StateKeyMessages is the key of the messages.
	// Typically it is used and updated by the LLM node.
	StateKeyMessages = "messages"
	// StateKeyMetadata is the key of the metadata.
	StateKeyMetadata = "metadata"
)

// ResumeChannel is the state key a staged resume value is delivered through.
// Suspend consumes it; node authors normally never touch it directly.
const ResumeChannel = "__resume__"

// State represents the execution state that flows through the graph.
// It is owned by exactly one session at a time and mutated only through the
// schema's reducer pipeline after a node returns.
type State map[string]any

// Clone creates a shallow copy of the state.
func (s State) Clone() State {
	clone := make(State, len(s))
	for k, v := range s {
		clone[k] = v
	}
	return clone
}

// StateReducer merges a node's update into the current channel value.
// Reducers must be pure functions of their two arguments.
type StateReducer func(current, update any) any

// StateField defines a channel in the state schema: its type, merge behavior
// and default value.
type StateField struct {
	Type     reflect.Type
	Reducer  StateReducer
	Default  func() any
	Required bool
}

// StateSchema defines the channels of graph state and how updates merge into
// them. A channel with no incoming update for a step is left unchanged.
type StateSchema struct {
	mu     sync.RWMutex
	Fields map[string]StateField
}

// NewStateSchema creates a new state schema.
func NewStateSchema() *StateSchema {
	return &StateSchema{
		Fields: make(map[string]StateField),
	}
}

// AddField adds a channel to the state schema. A nil reducer defaults to
// overwrite semantics.
func (s *StateSchema) AddField(name string, field StateField) *StateSchema {
	s.mu.Lock()
	defer s.mu.Unlock()
	if field.Reducer == nil {
		field.Reducer = OverwriteReducer
	}
	s.Fields[name] = field
	return s
}

// Initial returns a fresh state populated with every channel's default.
func (s *StateSchema) Initial() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := make(State, len(s.Fields))
	for name, field := range s.Fields {
		if field.Default != nil {
			state[name] = field.Default()
		}
	}
	return state
}

// ApplyUpdate applies a state update using the defined reducers.
func (s *StateSchema) ApplyUpdate(current State, update State) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := current.Clone()
	for key, updateValue := range update {
		field, exists := s.Fields[key]
		if !exists {
			// No channel declaration: overwrite.
			result[key] = updateValue
			continue
		}
		currentValue, hasCurrent := result[key]
		if !hasCurrent && field.Default != nil {
			currentValue = field.Default()
		}
		result[key] = field.Reducer(currentValue, updateValue)
	}
	return result
}

// Validate validates a state against the schema.
func (s *StateSchema) Validate(state State) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, field := range s.Fields {
		value, exists := state[name]
		if field.Required && !exists {
			return fmt.Errorf("required field %s is missing", name)
		}
		if exists && value != nil && field.Type != nil {
			valueType := reflect.TypeOf(value)
			if !valueType.AssignableTo(field.Type) {
				return fmt.Errorf("field %s has wrong type: expected %v, got %v",
					name, field.Type, valueType)
			}
		}
	}
	return nil
}

// Common reducer functions.

// OverwriteReducer replaces the current value with the update.
func OverwriteReducer(current, update any) any {
	return update
}

// AppendReducer appends the update to the current slice, preserving arrival
// order.
func AppendReducer(current, update any) any {
	if current == nil {
		current = []any{}
	}
	currentSlice, ok1 := current.([]any)
	updateSlice, ok2 := update.([]any)
	if !ok1 || !ok2 {
		// Fallback to overwrite if not slices.
		return update
	}
	merged := make([]any, 0, len(currentSlice)+len(updateSlice))
	merged = append(merged, currentSlice...)
	return append(merged, updateSlice...)
}

// StringSliceReducer appends string slices specifically.
func StringSliceReducer(current, update any) any {
	if current == nil {
		current = []string{}
	}
	currentSlice, ok1 := current.([]string)
	updateSlice, ok2 := update.([]string)
	if !ok1 || !ok2 {
		return update
	}
	merged := make([]string, 0, len(currentSlice)+len(updateSlice))
	merged = append(merged, currentSlice...)
	return append(merged, updateSlice...)
}

// MergeReducer merges the update map into the current map; update keys win.
func MergeReducer(current, update any) any {
	if current == nil {
		current = make(map[string]any)
	}
	currentMap, ok1 := current.(map[string]any)
	updateMap, ok2 := update.(map[string]any)
	if !ok1 || !ok2 {
		return update
	}
	result := make(map[string]any, len(currentMap)+len(updateMap))
	for k, v := range currentMap {
		result[k] = v
	}
	for k, v := range updateMap {
		result[k] = v
	}
	return result
}

// MessagesStateSchema creates a state schema for message-based workflows.
func MessagesStateSchema() *StateSchema {
	schema := NewStateSchema()
	schema.AddField(StateKeyMessages, StateField{
		Type:    reflect.TypeOf([]model.Message{}),
		Reducer: MessageReducer,
		Default: func() any { return []model.Message{} },
	})
	schema.AddField(StateKeyUserInput, StateField{
		Type:    reflect.TypeOf(""),
		Reducer: OverwriteReducer,
	})
	schema.AddField(StateKeyLastResponse, StateField{
		Type:    reflect.TypeOf(""),
		Reducer: OverwriteReducer,
	})
	schema.AddField(StateKeyMetadata, StateField{
		Type:    reflect.TypeOf(map[string]any{}),
		Reducer: MergeReducer,
		Default: func() any { return make(map[string]any) },
	})
	return schema
}
