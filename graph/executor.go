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
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"trpc.group/trpc-go/trpc-graph-go/log"
	"trpc.group/trpc-go/trpc-graph-go/telemetry/trace"
)

// DefaultMaxSteps is the default step budget per invocation.
const DefaultMaxSteps = 25

// Executor drives a compiled graph for many sessions. Execution is strictly
// sequential within one session; distinct sessions run concurrently and
// share nothing but the checkpoint saver.
type Executor struct {
	graph        *Graph
	saver        CheckpointSaver
	maxSteps     int
	sessionLocks sync.Map // session ID -> *sync.Mutex
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*ExecutorOptions)

// ExecutorOptions contains configuration options for creating an Executor.
type ExecutorOptions struct {
	// MaxSteps is the step budget per invocation. Each completed
	// (non-suspending) step consumes one unit; exhaustion fails the run
	// with RecursionLimitError.
	MaxSteps int
	// Saver is the durable checkpoint store.
	Saver CheckpointSaver
}

// WithMaxSteps sets the step budget per invocation.
func WithMaxSteps(maxSteps int) ExecutorOption {
	return func(opts *ExecutorOptions) {
		opts.MaxSteps = maxSteps
	}
}

// WithCheckpointSaver sets the checkpoint store.
func WithCheckpointSaver(saver CheckpointSaver) ExecutorOption {
	return func(opts *ExecutorOptions) {
		opts.Saver = saver
	}
}

// NewExecutor creates a new graph executor.
func NewExecutor(g *Graph, opts ...ExecutorOption) (*Executor, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	options := ExecutorOptions{
		MaxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Saver == nil {
		return nil, errors.New("checkpoint saver is required")
	}
	if options.MaxSteps <= 0 {
		return nil, fmt.Errorf("max steps must be positive, got %d", options.MaxSteps)
	}
	return &Executor{
		graph:    g,
		saver:    options.Saver,
		maxSteps: options.MaxSteps,
	}, nil
}

// InterruptDescriptor surfaces a suspension to the caller.
type InterruptDescriptor struct {
	// SessionID identifies the suspended session.
	SessionID string
	// NodeID is the node that requested suspension.
	NodeID string
	// Payload is the value passed to Suspend (e.g. "need identifier").
	Payload any
}

// Result is the outcome of Invoke or Resume: exactly one of Final and
// Interrupt is set. Suspension and termination are mutually exclusive.
type Result struct {
	// SessionID identifies the session (generated when Invoke was called
	// without one).
	SessionID string
	// Final is the final state when the run reached a terminal marker.
	Final State
	// Interrupt is set when the run suspended awaiting external input.
	Interrupt *InterruptDescriptor
}

// StateSnapshot is a read-only view of a session's latest checkpoint.
type StateSnapshot struct {
	SessionID string
	// Values are the channel values at the latest checkpoint.
	Values State
	// NextNode is the continuation pointer, End when terminated.
	NextNode string
	// Suspended reports a pending interrupt.
	Suspended bool
	// Terminated reports that the session reached a terminal marker.
	Terminated bool
}

// Invoke starts or continues a session with a fresh external input, merged
// into state through the normal reducers. An empty sessionID creates a new
// session. Invoking a terminated session starts the next conversational turn
// from the entry point over the accumulated state.
func (e *Executor) Invoke(ctx context.Context, sessionID string, input State) (*Result, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	mu := e.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	var (
		state   State
		current string
		step    int
	)
	cp, err := e.saver.Latest(ctx, sessionID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		state = e.graph.Schema().Initial()
		current = e.graph.EntryPoint()
	case err != nil:
		return nil, fmt.Errorf("load latest checkpoint: %w", err)
	default:
		state = restoreState(e.graph.Schema(), cp.Values)
		step = cp.Step
		if cp.IsTerminal() {
			current = e.graph.EntryPoint()
		} else {
			current = cp.NextNode
		}
	}
	if input != nil {
		state = e.graph.Schema().ApplyUpdate(state, input)
	}
	return e.run(ctx, sessionID, state, current, step)
}

// Resume continues a suspended session by re-invoking the suspending node
// from its beginning with resumeValue staged as the result of its Suspend
// call. It fails with ErrSessionNotFound for unknown sessions and
// ErrNotSuspended when the latest checkpoint has no pending interrupt.
func (e *Executor) Resume(ctx context.Context, sessionID string, resumeValue any) (*Result, error) {
	if sessionID == "" {
		return nil, ErrSessionIDEmpty
	}
	mu := e.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	cp, err := e.saver.Latest(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !cp.IsInterrupted() {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotSuspended)
	}
	state := restoreState(e.graph.Schema(), cp.Values)
	state[ResumeChannel] = resumeValue
	log.Debugf("session %s: resuming node %s", sessionID, cp.Interrupt.NodeID)
	return e.run(ctx, sessionID, state, cp.Interrupt.NodeID, cp.Step)
}

// GetState returns a read-only view of the session's latest checkpoint.
func (e *Executor) GetState(ctx context.Context, sessionID string) (*StateSnapshot, error) {
	if sessionID == "" {
		return nil, ErrSessionIDEmpty
	}
	cp, err := e.saver.Latest(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &StateSnapshot{
		SessionID:  sessionID,
		Values:     State(cp.Values),
		NextNode:   cp.NextNode,
		Suspended:  cp.IsInterrupted(),
		Terminated: cp.IsTerminal(),
	}, nil
}

// run is the step loop. It executes nodes from current, merging updates via
// the schema reducers, persisting one checkpoint per completed step, until a
// terminal marker, a suspension or budget exhaustion.
func (e *Executor) run(ctx context.Context, sessionID string, state State, current string, lastStep int) (*Result, error) {
	ctx, span := trace.Tracer.Start(ctx, "execute_graph")
	defer span.End()
	span.SetAttributes(attribute.String("trpc.go.graph.session_id", sessionID))

	remaining := e.maxSteps
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if current == End {
			return &Result{SessionID: sessionID, Final: state}, nil
		}
		// Budget is checked before invoking the next node.
		if remaining <= 0 {
			return nil, &RecursionLimitError{Limit: e.maxSteps}
		}
		node, ok := e.graph.Node(current)
		if !ok {
			return nil, fmt.Errorf("node %s not found", current)
		}
		result, err := e.executeNode(ctx, sessionID, node, state)
		if err != nil {
			interrupt, ok := AsInterrupt(err)
			if !ok {
				return nil, fmt.Errorf("node %s: %w", current, err)
			}
			// Suspension: checkpoint the un-advanced step with the pending
			// payload and the suspending node as the continuation pointer.
			// A staged resume value the node did not consume must not leak
			// into the checkpoint: the next resume stages its own.
			delete(state, ResumeChannel)
			lastStep++
			cp := NewCheckpoint(sessionID, lastStep, state, current)
			cp.Interrupt = &InterruptState{NodeID: current, Payload: interrupt.Payload}
			if err := e.saver.Put(ctx, cp); err != nil {
				return nil, fmt.Errorf("persist interrupt checkpoint: %w", err)
			}
			log.Debugf("session %s: suspended at node %s", sessionID, current)
			return &Result{
				SessionID: sessionID,
				Interrupt: &InterruptDescriptor{
					SessionID: sessionID,
					NodeID:    current,
					Payload:   interrupt.Payload,
				},
			}, nil
		}

		var goTo string
		switch update := result.(type) {
		case nil:
		case *Command:
			if update.Update != nil {
				state = e.graph.Schema().ApplyUpdate(state, update.Update)
			}
			if update.GoTo != "" && update.GoTo != End {
				if _, ok := e.graph.Node(update.GoTo); !ok {
					return nil, &UnknownRouteError{Node: current, Label: update.GoTo}
				}
			}
			goTo = update.GoTo
		case State:
			state = e.graph.Schema().ApplyUpdate(state, update)
		default:
			return nil, fmt.Errorf("node %s returned invalid result type: %T", current, result)
		}
		// One budget unit per completed (non-suspending) step.
		remaining--

		next := goTo
		if next == "" {
			next, err = e.route(ctx, current, state)
			if err != nil {
				// Fatal for the run; the last checkpoint stands untouched.
				return nil, err
			}
		}
		// A staged resume value never outlives the step it was delivered to.
		delete(state, ResumeChannel)

		lastStep++
		cp := NewCheckpoint(sessionID, lastStep, state, next)
		if err := e.saver.Put(ctx, cp); err != nil {
			return nil, fmt.Errorf("persist checkpoint: %w", err)
		}
		log.Debugf("session %s: step %d completed at node %s, next %s",
			sessionID, lastStep, current, next)
		if next == End {
			return &Result{SessionID: sessionID, Final: state}, nil
		}
		current = next
	}
}

// executeNode executes a single node function.
func (e *Executor) executeNode(ctx context.Context, sessionID string, node *Node, state State) (any, error) {
	ctx, span := trace.Tracer.Start(ctx, fmt.Sprintf("execute_node %s", node.ID))
	defer span.End()
	span.SetAttributes(
		attribute.String("trpc.go.graph.node_id", node.ID),
		attribute.String("trpc.go.graph.node_name", node.Name),
		attribute.String("trpc.go.graph.session_id", sessionID),
	)
	if node.Function == nil {
		return nil, nil
	}
	result, err := node.Function(ctx, state)
	if err != nil {
		if _, suspended := AsInterrupt(err); !suspended {
			span.SetAttributes(attribute.String("trpc.go.graph.error", err.Error()))
		}
	}
	return result, err
}

// route selects the next node after a completed step: the conditional edge's
// routing function when one is declared, otherwise the deterministic edge.
func (e *Executor) route(ctx context.Context, nodeID string, state State) (string, error) {
	if condEdge, ok := e.graph.ConditionalEdge(nodeID); ok {
		label, err := condEdge.Condition(ctx, state)
		if err != nil {
			return "", fmt.Errorf("node %s: conditional edge evaluation failed: %w", nodeID, err)
		}
		if next, ok := condEdge.PathMap[label]; ok {
			return next, nil
		}
		return "", &UnknownRouteError{Node: nodeID, Label: label}
	}
	edges := e.graph.Edges(nodeID)
	if len(edges) == 0 {
		return End, nil
	}
	return edges[0].To, nil
}

// sessionLock returns the mutex serializing execution for one session.
func (e *Executor) sessionLock(sessionID string) *sync.Mutex {
	v, _ := e.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// restoreState rebuilds execution state from checkpoint values on top of the
// schema defaults.
func restoreState(schema *StateSchema, values map[string]any) State {
	state := schema.Initial()
	for k, v := range values {
		state[k] = v
	}
	return state
}
