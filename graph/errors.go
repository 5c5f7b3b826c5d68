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
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when resume or state inspection targets
	// a session with no checkpoints.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotSuspended is returned when resume targets a session whose latest
	// checkpoint has no pending interrupt.
	ErrNotSuspended = errors.New("session is not suspended")
	// ErrSessionIDEmpty is returned when an operation requires a session ID.
	ErrSessionIDEmpty = errors.New("session id cannot be empty")
)

// GraphValidationError reports a malformed graph at compile time.
type GraphValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *GraphValidationError) Error() string {
	return fmt.Sprintf("invalid graph: %s", e.Reason)
}

func validationErrorf(format string, args ...any) *GraphValidationError {
	return &GraphValidationError{Reason: fmt.Sprintf(format, args...)}
}

// UnknownRouteError reports a conditional edge label with no configured
// target. It is fatal for the run; the session's last checkpoint stands.
type UnknownRouteError struct {
	Node  string
	Label string
}

// Error implements the error interface.
func (e *UnknownRouteError) Error() string {
	return fmt.Sprintf("node %s: no route configured for label %q", e.Node, e.Label)
}

// RecursionLimitError reports step-budget exhaustion before reaching a
// terminal or suspension. The session's last checkpoint stands; the caller
// may re-invoke with a fresh budget.
type RecursionLimitError struct {
	Limit int
}

// Error implements the error interface.
func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("maximum execution steps (%d) exceeded", e.Limit)
}
