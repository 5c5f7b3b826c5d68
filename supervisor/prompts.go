//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

package supervisor

import (
	"strings"
	"text/template"

	"trpc.group/trpc-go/trpc-graph-go/model"
)

// Prompts are typed template functions over explicit context structs: a
// missing field fails template execution instead of silently rendering an
// empty substitution.

type supervisorPromptContext struct {
	Delegates []string
}

type delegatePromptContext struct {
	Domain string
}

type memoryPromptContext struct {
	Prior        string
	Conversation string
}

var supervisorPromptTmpl = template.Must(template.New("supervisor").Parse(
	`You are a supervisor coordinating specialized assistants.
Given the conversation so far, decide which assistant should act next.
Known assistants: {{range .Delegates}}{{.}} {{end}}.
Reply with exactly one assistant name, or "done" when the request is fully handled.`))

var delegatePromptTmpl = template.Must(template.New("delegate").Parse(
	`You are the {{.Domain}} assistant. Handle the user's {{.Domain}} request.
Use your tools to look up real data; do not invent results.
When the request is answered, reply without calling further tools.`))

var memoryPromptTmpl = template.Must(template.New("memory").Parse(
	`You maintain a long-term user profile as a JSON object.
Current profile:
{{.Prior}}

Conversation this turn:
{{.Conversation}}

Produce the updated profile JSON, carrying over prior fields that still hold.
Reply with the JSON object only.`))

func renderSupervisorPrompt(pc supervisorPromptContext) (string, error) {
	return render(supervisorPromptTmpl, pc)
}

func renderDelegatePrompt(pc delegatePromptContext) (string, error) {
	return render(delegatePromptTmpl, pc)
}

func renderMemoryPrompt(pc memoryPromptContext) (string, error) {
	return render(memoryPromptTmpl, pc)
}

func render(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// renderConversation flattens a message list into prompt text.
func renderConversation(messages []model.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
