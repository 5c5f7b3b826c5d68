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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-graph-go/model"
)

func TestMergeMessagesRevisesInPlace(t *testing.T) {
	existing := []model.Message{
		{ID: "1", Role: model.RoleAssistant, Content: "a"},
	}
	incoming := []model.Message{
		{ID: "1", Role: model.RoleAssistant, Content: "b"},
		{ID: "2", Role: model.RoleAssistant, Content: "c"},
	}
	merged := MergeMessages(existing, incoming)
	require.Len(t, merged, 2)
	assert.Equal(t, "1", merged[0].ID)
	assert.Equal(t, "b", merged[0].Content, "known ID revises the element in place")
	assert.Equal(t, "2", merged[1].ID)
	assert.Equal(t, "c", merged[1].Content)
}

func TestMergeMessagesWithoutIdentities(t *testing.T) {
	existing := []model.Message{
		model.NewUserMessage("l1"),
		model.NewUserMessage("l2"),
	}
	incoming := []model.Message{
		model.NewAssistantMessage("r1"),
		model.NewAssistantMessage("r2"),
	}
	merged := MergeMessages(existing, incoming)
	require.Len(t, merged, 4)
	contents := []string{merged[0].Content, merged[1].Content, merged[2].Content, merged[3].Content}
	assert.Equal(t, []string{"l1", "l2", "r1", "r2"}, contents,
		"all of incoming appends after all of existing, both orders preserved")
	seen := make(map[string]bool, 4)
	for _, m := range merged {
		assert.NotEmpty(t, m.ID, "identity-less messages get fresh ids")
		assert.False(t, seen[m.ID], "ids must be unique")
		seen[m.ID] = true
	}
}

func TestMergeMessagesIdempotentReplay(t *testing.T) {
	existing := []model.Message{{ID: "1", Role: model.RoleUser, Content: "hi"}}
	incoming := []model.Message{{ID: "2", Role: model.RoleAssistant, Content: "hello"}}
	once := MergeMessages(existing, incoming)
	twice := MergeMessages(once, incoming)
	assert.Equal(t, once, twice, "replaying the same identity converges")
}

func TestMessageReducerVariants(t *testing.T) {
	tests := []struct {
		name    string
		current any
		update  any
		want    []string
	}{
		{
			name:    "single message",
			current: []model.Message{{ID: "1", Role: model.RoleUser, Content: "a"}},
			update:  model.Message{ID: "2", Role: model.RoleAssistant, Content: "b"},
			want:    []string{"a", "b"},
		},
		{
			name:    "message slice",
			current: nil,
			update:  []model.Message{{ID: "1", Role: model.RoleUser, Content: "a"}},
			want:    []string{"a"},
		},
		{
			name:    "append op skips reconciliation",
			current: []model.Message{{ID: "1", Role: model.RoleUser, Content: "a"}},
			update:  AppendMessages{Items: []model.Message{{ID: "1", Role: model.RoleUser, Content: "dup"}}},
			want:    []string{"a", "dup"},
		},
		{
			name:    "remove all",
			current: []model.Message{{ID: "1", Role: model.RoleUser, Content: "a"}},
			update:  RemoveAllMessages{},
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, ok := MessageReducer(tt.current, tt.update).([]model.Message)
			if tt.want == nil {
				assert.Empty(t, merged)
				return
			}
			require.True(t, ok)
			require.Len(t, merged, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want, merged[i].Content)
			}
		})
	}
}

func TestMessageReducerReplaceLastUser(t *testing.T) {
	current := []model.Message{
		{ID: "1", Role: model.RoleUser, Content: "old"},
		{ID: "2", Role: model.RoleAssistant, Content: "reply"},
	}
	merged := MessageReducer(current, ReplaceLastUser{Content: "new"}).([]model.Message)
	require.Len(t, merged, 2)
	assert.Equal(t, "new", merged[0].Content)
}

func TestMessagesFromStateRehydratesSerializedValues(t *testing.T) {
	original := []model.Message{
		{ID: "1", Role: model.RoleUser, Content: "hi"},
		{ID: "2", Role: model.RoleAssistant, Content: "hello", ToolCalls: []model.ToolCall{
			{ID: "c1", Type: "function", Function: model.FunctionCall{Name: "lookup"}},
		}},
	}
	// Simulate a checkpoint round trip: messages come back as []any of maps.
	data, err := json.Marshal(original)
	require.NoError(t, err)
	var restored any
	require.NoError(t, json.Unmarshal(data, &restored))

	messages := MessagesFromState(State{StateKeyMessages: restored})
	require.Len(t, messages, 2)
	assert.Equal(t, original[0].Content, messages[0].Content)
	require.Len(t, messages[1].ToolCalls, 1)
	assert.Equal(t, "lookup", messages[1].ToolCalls[0].Function.Name)
}
