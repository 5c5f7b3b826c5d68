//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

// Package model defines the message variant and the model-invocation
// capability consumed by graph nodes. The engine treats the model as an
// opaque collaborator: messages in, free-text or structured output out.
package model

import (
	"context"

	"trpc.group/trpc-go/trpc-graph-go/tool"
)

// GenerationConfig contains generation parameters forwarded to the backend.
type GenerationConfig struct {
	// Stream indicates whether partial responses should be delivered as they
	// are produced.
	Stream bool `json:"stream"`
	// Temperature controls randomness; nil uses the backend default.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens bounds the response length; nil uses the backend default.
	MaxTokens *int `json:"max_tokens,omitempty"`
}

// Request is a model invocation request.
type Request struct {
	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// GenerationConfig contains the generation parameters.
	GenerationConfig `json:",inline"`

	// Tools the model may call. Not serialized; forwarded as declarations.
	Tools map[string]tool.Tool `json:"-"`
}

// Choice is one completion choice.
type Choice struct {
	// Index is the index of the choice.
	Index int `json:"index"`
	// Message is the complete message content.
	Message Message `json:"message,omitempty"`
	// Delta is the partial message content for streaming responses.
	Delta Message `json:"delta,omitempty"`
}

// ResponseError is an API-level error carried inside a response.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// Response is a model invocation response. Streaming backends deliver several
// partial responses followed by one with Done set.
type Response struct {
	// ID is the unique identifier for this response.
	ID string `json:"id"`
	// Model is the model used to generate the response.
	Model string `json:"model,omitempty"`
	// Choices contains the completion choices.
	Choices []Choice `json:"choices"`
	// Error carries an API-level error, if any.
	Error *ResponseError `json:"error,omitempty"`
	// Done indicates this is the final response of the invocation.
	Done bool `json:"done"`
}

// Info contains basic information about a model.
type Info struct {
	Name string
}

// Model is the model-invocation capability.
type Model interface {
	// GenerateContent generates content from the given request.
	//
	// Returns a channel of Response objects (one or more for streaming
	// backends, the last with Done set) or an error for system-level
	// failures. Response objects may carry their own Error field for
	// API-level errors.
	GenerateContent(ctx context.Context, request *Request) (<-chan *Response, error)

	// Info returns basic information about the model.
	Info() Info
}
