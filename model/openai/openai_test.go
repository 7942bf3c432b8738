//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openaiopt "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/covid-agent/model"
	"trpc.group/trpc-go/covid-agent/tool"
	"trpc.group/trpc-go/covid-agent/tool/function"
)

type countryArgs struct {
	Country string `json:"country" jsonschema:"required"`
}

func newTestServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestModel(srv *httptest.Server) *Model {
	return New("test-model",
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL),
		WithOpenAIOptions(openaiopt.WithMaxRetries(0)),
	)
}

func generate(t *testing.T, m *Model, req *model.Request) *model.Response {
	t.Helper()
	ch, err := m.GenerateContent(context.Background(), req)
	require.NoError(t, err)
	var rsps []*model.Response
	for rsp := range ch {
		rsps = append(rsps, rsp)
	}
	require.Len(t, rsps, 1)
	return rsps[0]
}

func TestModel_Info(t *testing.T) {
	assert.Equal(t, "gpt-4o-mini", New("gpt-4o-mini").Info().Name)
}

func TestModel_GenerateContent_NilRequest(t *testing.T) {
	_, err := New("test-model").GenerateContent(context.Background(), nil)
	require.Error(t, err)
}

func TestModel_GenerateContent_Text(t *testing.T) {
	var seen map[string]any
	srv := newTestServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "test-model",
		"choices": [{"index": 0, "finish_reason": "stop",
			"message": {"role": "assistant", "content": "Hello there"}}],
		"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
	}`, &seen)

	maxTokens := 64
	temperature := 0.2
	rsp := generate(t, newTestModel(srv), &model.Request{
		Messages: []model.Message{
			model.NewSystemMessage("be brief"),
			model.NewUserMessage("hi"),
		},
		GenerationConfig: model.GenerationConfig{MaxTokens: &maxTokens, Temperature: &temperature},
	})

	require.Nil(t, rsp.Error)
	assert.True(t, rsp.Done)
	assert.Equal(t, "chatcmpl-1", rsp.ID)
	assert.Equal(t, "chat.completion", rsp.Object)
	assert.Equal(t, "Hello there", rsp.Content())
	require.NotNil(t, rsp.Choices[0].FinishReason)
	assert.Equal(t, "stop", *rsp.Choices[0].FinishReason)
	require.NotNil(t, rsp.Usage)
	assert.Equal(t, 5, rsp.Usage.TotalTokens)

	assert.Equal(t, "test-model", seen["model"])
	assert.EqualValues(t, 64, seen["max_completion_tokens"])
	assert.EqualValues(t, 0.2, seen["temperature"])
	msgs, ok := seen["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestModel_GenerateContent_ToolCalls(t *testing.T) {
	var seen map[string]any
	srv := newTestServer(t, http.StatusOK, `{
		"id": "chatcmpl-2",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "test-model",
		"choices": [{"index": 0, "finish_reason": "tool_calls",
			"message": {"role": "assistant", "content": "",
				"tool_calls": [{"id": "", "type": "function",
					"function": {"name": "get_latest_summary", "arguments": "{\"country\":\"Japan\"}"}}]}}]
	}`, &seen)

	summary := function.NewFunctionTool(
		func(_ context.Context, in countryArgs) (string, error) { return in.Country, nil },
		function.WithName("get_latest_summary"),
		function.WithDescription("Latest figures for a country."),
	)
	rsp := generate(t, newTestModel(srv), &model.Request{
		Messages: []model.Message{
			model.NewUserMessage("Japan?"),
			{
				Role: model.RoleAssistant,
				ToolCalls: []model.ToolCall{{
					ID:       "call_0",
					Type:     "function",
					Function: model.FunctionDefinitionParam{Name: "get_latest_summary", Arguments: []byte(`{"country":"Japan"}`)},
				}},
			},
			model.NewToolMessage("call_0", "get_latest_summary", `{"status":"SUCCESS"}`),
		},
		Tools: map[string]tool.Tool{"get_latest_summary": summary},
	})

	require.Nil(t, rsp.Error)
	require.True(t, rsp.IsToolCallResponse())
	call := rsp.Choices[0].Message.ToolCalls[0]
	assert.Equal(t, "auto_call_0", call.ID)
	assert.Equal(t, "get_latest_summary", call.Function.Name)
	assert.JSONEq(t, `{"country":"Japan"}`, string(call.Function.Arguments))

	tools, ok := seen["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "get_latest_summary", fn["name"])
	params := fn["parameters"].(map[string]any)
	assert.Equal(t, "object", params["type"])

	msgs := seen["messages"].([]any)
	require.Len(t, msgs, 3)
	toolMsg := msgs[2].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_0", toolMsg["tool_call_id"])
}

func TestModel_GenerateContent_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantType: model.ErrorTypeQuotaError},
		{name: "bad request", status: http.StatusBadRequest, wantType: model.ErrorTypeAPIError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, `{"error":{"message":"nope","type":"invalid_request_error"}}`, nil)
			rsp := generate(t, newTestModel(srv), &model.Request{
				Messages: []model.Message{model.NewUserMessage("hi")},
			})
			require.NotNil(t, rsp.Error)
			assert.Equal(t, tt.wantType, rsp.Error.Type)
			assert.True(t, rsp.Done)
			assert.True(t, rsp.IsFinalResponse())
		})
	}
}

func TestConvertTools_SortedByName(t *testing.T) {
	mk := func(name string) tool.Tool {
		return function.NewFunctionTool(
			func(_ context.Context, in countryArgs) (string, error) { return in.Country, nil },
			function.WithName(name),
		)
	}
	out := convertTools(map[string]tool.Tool{"b": mk("b"), "a": mk("a"), "c": mk("c")})
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Function.Name)
	assert.Equal(t, "b", out[1].Function.Name)
	assert.Equal(t, "c", out[2].Function.Name)
}
