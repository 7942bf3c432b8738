//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_IsValid(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool} {
		assert.True(t, r.IsValid(), r.String())
	}
	assert.False(t, Role("").IsValid())
	assert.False(t, Role("model").IsValid())
	assert.Equal(t, "assistant", RoleAssistant.String())
}

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want Message
	}{
		{"system", NewSystemMessage("be brief"), Message{Role: RoleSystem, Content: "be brief"}},
		{"user", NewUserMessage("cases in France?"), Message{Role: RoleUser, Content: "cases in France?"}},
		{"assistant", NewAssistantMessage("about 1,000"), Message{Role: RoleAssistant, Content: "about 1,000"}},
		{
			"tool",
			NewToolMessage("call_1", "get_latest_summary", `{"status":"SUCCESS"}`),
			Message{Role: RoleTool, ToolID: "call_1", ToolName: "get_latest_summary", Content: `{"status":"SUCCESS"}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg)
		})
	}
}

func TestMessage_JSONOmitsEmptyToolFields(t *testing.T) {
	b, err := json.Marshal(NewUserMessage("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"hi"}`, string(b))
}

func TestRequest_JSONInlinesGenerationConfig(t *testing.T) {
	maxTokens := 256
	temperature := 0.2
	req := Request{
		Messages: []Message{NewUserMessage("hi")},
		GenerationConfig: GenerationConfig{
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		},
	}
	b, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded Request
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.NotNil(t, decoded.MaxTokens)
	assert.Equal(t, 256, *decoded.MaxTokens)
	require.NotNil(t, decoded.Temperature)
	assert.Equal(t, 0.2, *decoded.Temperature)
	assert.Nil(t, decoded.TopP)
	assert.Nil(t, decoded.Tools)
}

func TestToolCall_Arguments(t *testing.T) {
	call := ToolCall{
		Type: "function",
		ID:   "call_1",
		Function: FunctionDefinitionParam{
			Name:      "get_trend",
			Arguments: []byte(`{"country":"France","metric":"new_cases"}`),
		},
	}
	var args map[string]any
	require.NoError(t, json.Unmarshal(call.Function.Arguments, &args))
	assert.Equal(t, "France", args["country"])
	assert.Equal(t, "new_cases", args["metric"])
}
