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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-graph-go/model"
)

func TestRenderSupervisorPrompt(t *testing.T) {
	prompt, err := renderSupervisorPrompt(supervisorPromptContext{
		Delegates: []string{"music", "invoice"},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "music")
	assert.Contains(t, prompt, "invoice")
}

func TestRenderDelegatePrompt(t *testing.T) {
	prompt, err := renderDelegatePrompt(delegatePromptContext{Domain: "music"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "music assistant")
}

func TestRenderMemoryPrompt(t *testing.T) {
	prompt, err := renderMemoryPrompt(memoryPromptContext{
		Prior:        `{"interest":"jazz"}`,
		Conversation: "user: hi\n",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, `{"interest":"jazz"}`)
	assert.Contains(t, prompt, "user: hi")
}

func TestRenderConversationSkipsEmptyContent(t *testing.T) {
	text := renderConversation([]model.Message{
		model.NewUserMessage("hello"),
		{Role: model.RoleAssistant}, // tool-call only, no text
		model.NewAssistantMessage("hi"),
	})
	assert.Equal(t, "user: hello\nassistant: hi\n", text)
}
