//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

// Package function wraps plain Go functions as callable tools.
package function

import (
	"context"
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-graph-go/tool"
)

// Tool adapts a typed Go function to the tool.CallableTool contract.
// Arguments are json-decoded into I before the function is invoked.
type Tool[I, O any] struct {
	name        string
	description string
	schema      *tool.Schema
	fn          func(ctx context.Context, input I) (O, error)
}

// Option configures a function tool.
type Option func(*options)

type options struct {
	name        string
	description string
	schema      *tool.Schema
}

// WithName sets the tool name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithDescription sets the tool description.
func WithDescription(description string) Option {
	return func(o *options) { o.description = description }
}

// WithInputSchema sets the declared input schema.
func WithInputSchema(schema *tool.Schema) Option {
	return func(o *options) { o.schema = schema }
}

// New creates a callable tool from fn.
func New[I, O any](fn func(ctx context.Context, input I) (O, error), opts ...Option) *Tool[I, O] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Tool[I, O]{
		name:        o.name,
		description: o.description,
		schema:      o.schema,
		fn:          fn,
	}
}

// Declaration returns the metadata describing the tool.
func (t *Tool[I, O]) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:        t.name,
		Description: t.description,
		InputSchema: t.schema,
	}
}

// Call unmarshals jsonArgs into the input type and invokes the function.
func (t *Tool[I, O]) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	var input I
	if len(jsonArgs) > 0 {
		if err := json.Unmarshal(jsonArgs, &input); err != nil {
			return nil, fmt.Errorf("tool %s: invalid arguments: %w", t.name, err)
		}
	}
	return t.fn(ctx, input)
}
