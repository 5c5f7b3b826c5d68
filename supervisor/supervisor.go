//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

// Package supervisor assembles the customer-support workflow graph: identity
// verification with human-in-the-loop suspension, a supervisor node routing
// between specialized delegate loops, and a long-term memory update before
// termination. All collaborators (model, tools, memory) are injected at
// assembly time.
package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"trpc.group/trpc-go/trpc-graph-go/graph"
	"trpc.group/trpc-go/trpc-graph-go/log"
	"trpc.group/trpc-go/trpc-graph-go/memory"
	"trpc.group/trpc-go/trpc-graph-go/model"
	"trpc.group/trpc-go/trpc-graph-go/tool"
)

// State keys specific to the support workflow.
const (
	// StateKeyCustomerID holds the verified customer identifier.
	StateKeyCustomerID = "customer_id"
	// StateKeyRouteDecision holds the supervisor's latest delegate choice.
	StateKeyRouteDecision = "route_decision"
)

// ReasonNeedIdentifier is the interrupt payload raised when the workflow
// cannot proceed without a verified customer identifier.
const ReasonNeedIdentifier = "need identifier"

// ProfileKey is the memory key the user profile is stored under.
const ProfileKey = "profile"

// Node identifiers of the assembled graph.
const (
	NodeVerify           = "verify"
	NodeSupervise        = "supervise"
	NodeMusicAssistant   = "music_assistant"
	NodeMusicTools       = "music_tools"
	NodeInvoiceAssistant = "invoice_assistant"
	NodeInvoiceTools     = "invoice_tools"
	NodeUpdateMemory     = "update_memory"
)

// Routing labels produced by the supervisor's routing function.
const (
	RouteMusic   = "music"
	RouteInvoice = "invoice"
	RouteDone    = "done"
)

// Delegate-internal routing labels.
const (
	routeTools = "tools"
	routeBack  = "supervisor"
)

var delegateNames = []string{RouteMusic, RouteInvoice}

// Config carries the injected collaborators of the workflow.
type Config struct {
	// AppName namespaces long-term memory entries.
	AppName string
	// Model is the model-invocation capability used by every reasoning node.
	Model model.Model
	// MusicTools are the catalog lookup tools of the music delegate.
	MusicTools map[string]tool.CallableTool
	// InvoiceTools are the billing lookup tools of the invoice delegate.
	InvoiceTools map[string]tool.CallableTool
	// Memory is the long-term memory store; nil disables the profile update.
	Memory memory.Service
}

// Workflow builds the support graph from an injected configuration.
type Workflow struct {
	cfg Config
}

// New creates a workflow from the configuration.
func New(cfg Config) (*Workflow, error) {
	if cfg.Model == nil {
		return nil, errors.New("model is required")
	}
	if cfg.AppName == "" {
		cfg.AppName = "support"
	}
	return &Workflow{cfg: cfg}, nil
}

// Schema returns the state schema of the support workflow: the message-based
// channels plus the verified customer id and the supervisor's route decision.
func Schema() *graph.StateSchema {
	schema := graph.MessagesStateSchema()
	schema.AddField(StateKeyCustomerID, graph.StateField{
		Reducer: graph.OverwriteReducer,
	})
	schema.AddField(StateKeyRouteDecision, graph.StateField{
		Type:    reflect.TypeOf(""),
		Reducer: graph.OverwriteReducer,
	})
	return schema
}

// BuildGraph assembles and compiles the workflow graph.
func (w *Workflow) BuildGraph() (*graph.Graph, error) {
	musicPrompt, err := renderDelegatePrompt(delegatePromptContext{Domain: "music"})
	if err != nil {
		return nil, fmt.Errorf("render music prompt: %w", err)
	}
	invoicePrompt, err := renderDelegatePrompt(delegatePromptContext{Domain: "invoice"})
	if err != nil {
		return nil, fmt.Errorf("render invoice prompt: %w", err)
	}
	sg := graph.NewStateGraph(Schema()).
		AddNode(NodeVerify, w.verify,
			graph.WithDescription("verifies the customer identity, suspending when absent")).
		AddNode(NodeSupervise, w.supervise,
			graph.WithDescription("chooses the next delegate or termination")).
		AddLLMNode(NodeMusicAssistant, w.cfg.Model, musicPrompt, declarations(w.cfg.MusicTools)).
		AddToolsNode(NodeMusicTools, w.cfg.MusicTools).
		AddLLMNode(NodeInvoiceAssistant, w.cfg.Model, invoicePrompt, declarations(w.cfg.InvoiceTools)).
		AddToolsNode(NodeInvoiceTools, w.cfg.InvoiceTools).
		AddNode(NodeUpdateMemory, w.updateMemory,
			graph.WithDescription("persists the updated user profile")).
		SetEntryPoint(NodeVerify).
		AddEdge(NodeVerify, NodeSupervise).
		AddConditionalEdges(NodeSupervise, routeSupervisor, map[string]string{
			RouteMusic:   NodeMusicAssistant,
			RouteInvoice: NodeInvoiceAssistant,
			RouteDone:    NodeUpdateMemory,
		}).
		AddConditionalEdges(NodeMusicAssistant, routeDelegate, map[string]string{
			routeTools: NodeMusicTools,
			routeBack:  NodeSupervise,
		}).
		AddEdge(NodeMusicTools, NodeMusicAssistant).
		AddConditionalEdges(NodeInvoiceAssistant, routeDelegate, map[string]string{
			routeTools: NodeInvoiceTools,
			routeBack:  NodeSupervise,
		}).
		AddEdge(NodeInvoiceTools, NodeInvoiceAssistant).
		SetFinishPoint(NodeUpdateMemory)
	return sg.Compile()
}

// verify folds the turn's user input into the conversation and ensures a
// verified customer id, suspending with ReasonNeedIdentifier otherwise.
// Suspension comes before any state change, so re-execution on resume is
// safe.
func (w *Workflow) verify(ctx context.Context, state graph.State) (any, error) {
	update := graph.State{}
	if input, ok := state[graph.StateKeyUserInput].(string); ok && input != "" {
		update[graph.StateKeyMessages] = []model.Message{model.NewUserMessage(input).EnsureID()}
		update[graph.StateKeyUserInput] = ""
	}
	if _, ok := customerID(state); ok {
		return update, nil
	}
	value, err := graph.Suspend(ctx, state, ReasonNeedIdentifier)
	if err != nil {
		return nil, err
	}
	id, err := parseCustomerID(value)
	if err != nil {
		// Not an identifier; ask again.
		return nil, graph.NewInterrupt(ReasonNeedIdentifier)
	}
	update[StateKeyCustomerID] = id
	return update, nil
}

// supervise asks the model which delegate should act next and records the
// decision. The routing itself happens in routeSupervisor so that it is a
// pure function of state.
func (w *Workflow) supervise(ctx context.Context, state graph.State) (any, error) {
	prompt, err := renderSupervisorPrompt(supervisorPromptContext{Delegates: delegateNames})
	if err != nil {
		return nil, fmt.Errorf("render supervisor prompt: %w", err)
	}
	messages := append([]model.Message{model.NewSystemMessage(prompt)},
		graph.MessagesFromState(state)...)
	decision, err := w.generateText(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("supervisor decision: %w", err)
	}
	return graph.State{
		StateKeyRouteDecision: strings.ToLower(strings.TrimSpace(decision)),
	}, nil
}

// routeSupervisor deterministically maps the recorded decision to a routing
// label. A decision naming no known delegate terminates the turn rather than
// failing the run.
func routeSupervisor(ctx context.Context, state graph.State) (string, error) {
	decision, _ := state[StateKeyRouteDecision].(string)
	switch {
	case strings.Contains(decision, RouteMusic):
		return RouteMusic, nil
	case strings.Contains(decision, RouteInvoice):
		return RouteInvoice, nil
	default:
		return RouteDone, nil
	}
}

// routeDelegate keeps a delegate looping through its tool node until the
// assistant responds without further tool calls, then hands control back.
func routeDelegate(ctx context.Context, state graph.State) (string, error) {
	messages := graph.MessagesFromState(state)
	if len(messages) > 0 {
		last := messages[len(messages)-1]
		if last.Role == model.RoleAssistant && len(last.ToolCalls) > 0 {
			return routeTools, nil
		}
	}
	return routeBack, nil
}

// updateMemory reads the prior profile (absent is an empty baseline), asks
// the model for an updated profile from the conversation, and writes it back
// under the same namespace and key. A model failure here is logged and
// swallowed: losing one profile refresh must not fail a completed turn.
func (w *Workflow) updateMemory(ctx context.Context, state graph.State) (any, error) {
	if w.cfg.Memory == nil {
		return nil, nil
	}
	id, ok := customerID(state)
	if !ok {
		return nil, nil
	}
	ns := memory.Namespace{AppName: w.cfg.AppName, UserID: strconv.FormatInt(id, 10)}
	prior, found, err := w.cfg.Memory.Get(ctx, ns, ProfileKey)
	if err != nil {
		return nil, fmt.Errorf("read prior profile: %w", err)
	}
	if !found {
		prior = json.RawMessage("{}")
	}
	prompt, err := renderMemoryPrompt(memoryPromptContext{
		Prior:        string(prior),
		Conversation: renderConversation(graph.MessagesFromState(state)),
	})
	if err != nil {
		return nil, fmt.Errorf("render memory prompt: %w", err)
	}
	profile, err := w.generateText(ctx, []model.Message{model.NewSystemMessage(prompt)})
	if err != nil {
		log.Warnf("profile update skipped: %v", err)
		return nil, nil
	}
	value := json.RawMessage(profile)
	if !json.Valid(value) {
		value, _ = json.Marshal(profile)
	}
	if err := w.cfg.Memory.Put(ctx, ns, ProfileKey, value); err != nil {
		return nil, fmt.Errorf("write profile: %w", err)
	}
	return nil, nil
}

// generateText runs one non-streaming model invocation and returns the final
// choice's content.
func (w *Workflow) generateText(ctx context.Context, messages []model.Message) (string, error) {
	responseChan, err := w.cfg.Model.GenerateContent(ctx, &model.Request{Messages: messages})
	if err != nil {
		return "", err
	}
	var final *model.Response
	for response := range responseChan {
		if response.Error != nil {
			return "", fmt.Errorf("model API error: %s", response.Error.Message)
		}
		final = response
	}
	if final == nil || len(final.Choices) == 0 {
		return "", errors.New("no response received from model")
	}
	return final.Choices[0].Message.Content, nil
}

// customerID reads the verified customer id from state, tolerating the
// numeric widening a JSON checkpoint round-trip introduces.
func customerID(state graph.State) (int64, bool) {
	v, ok := state[StateKeyCustomerID]
	if !ok || v == nil {
		return 0, false
	}
	id, err := parseCustomerID(v)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseCustomerID(v any) (int64, error) {
	switch id := v.(type) {
	case int:
		return int64(id), nil
	case int64:
		return id, nil
	case float64:
		return int64(id), nil
	case json.Number:
		return id.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	default:
		return 0, fmt.Errorf("value %v is not a numeric identifier", v)
	}
}

// declarations widens callable tools to the declaration-only view the model
// request carries.
func declarations(tools map[string]tool.CallableTool) map[string]tool.Tool {
	out := make(map[string]tool.Tool, len(tools))
	for name, t := range tools {
		out[name] = t
	}
	return out
}
