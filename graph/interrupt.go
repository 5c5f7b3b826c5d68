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
)

// InterruptError is the control-flow signal a node raises to suspend
// execution pending external input. It carries an arbitrary payload
// describing what is needed (e.g. "need identifier"). It is not a failure:
// the executor converts it into a suspended checkpoint and surfaces the
// payload to the caller.
type InterruptError struct {
	// Payload is the value that was passed to Suspend.
	Payload any
}

// Error implements the error interface.
func (e *InterruptError) Error() string {
	return fmt.Sprintf("graph execution suspended: %v", e.Payload)
}

// NewInterrupt creates an InterruptError with the given payload.
func NewInterrupt(payload any) *InterruptError {
	return &InterruptError{Payload: payload}
}

// AsInterrupt extracts an InterruptError from an error chain.
func AsInterrupt(err error) (*InterruptError, bool) {
	var ie *InterruptError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// Suspend pauses execution at the current node and surfaces the payload to
// the caller. On resume the same node is re-executed from its beginning and
// Suspend returns the resume value instead.
//
// Hard authoring rule: call Suspend before any non-idempotent work. Work a
// node performs before its suspension point runs again on every resume.
func Suspend(ctx context.Context, state State, payload any) (any, error) {
	if resumeValue, ok := state[ResumeChannel]; ok {
		// Consume the staged value so it is not reused.
		delete(state, ResumeChannel)
		return resumeValue, nil
	}
	return nil, NewInterrupt(payload)
}

// ResumeValue extracts a typed resume value from the state, consuming it.
func ResumeValue[T any](state State) (T, bool) {
	var zero T
	v, ok := state[ResumeChannel]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	delete(state, ResumeChannel)
	return typed, true
}

// HasResumeValue reports whether a resume value is staged in the state.
func HasResumeValue(state State) bool {
	_, ok := state[ResumeChannel]
	return ok
}
