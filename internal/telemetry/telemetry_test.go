//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"trpc.group/trpc-go/covid-agent/tool"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
}

func attrs(s sdktrace.ReadOnlySpan) map[string]string {
	out := map[string]string{}
	for _, kv := range s.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestToolSpanName(t *testing.T) {
	assert.Equal(t, "execute_tool get_trend", ToolSpanName("get_trend"))
}

func TestTraceToolCall(t *testing.T) {
	sr, tp := newRecorder()
	_, span := tp.Tracer("t").Start(context.Background(), ToolSpanName("get_trend"))
	TraceToolCall(span, &tool.Declaration{Name: "get_trend"}, "call_1", []byte(`{"country":"X"}`), map[string]string{"trend": "stable"}, nil)
	span.End()

	require.Len(t, sr.Ended(), 1)
	a := attrs(sr.Ended()[0])
	assert.Equal(t, "get_trend", a["gen_ai.tool.name"])
	assert.Equal(t, `{"country":"X"}`, a[KeyToolArgs])
	assert.Equal(t, `{"trend":"stable"}`, a[KeyToolResult])
}

func TestTraceToolCall_Error(t *testing.T) {
	sr, tp := newRecorder()
	_, span := tp.Tracer("t").Start(context.Background(), "x")
	TraceToolCall(span, &tool.Declaration{Name: "n"}, "c", nil, nil, errors.New("boom"))
	span.End()
	a := attrs(sr.Ended()[0])
	assert.Equal(t, "boom", a["error.message"])
	_, ok := a[KeyToolResult]
	assert.False(t, ok)
}

func TestTraceCallLLMAndDataset(t *testing.T) {
	sr, tp := newRecorder()
	_, span := tp.Tracer("t").Start(context.Background(), SpanNameCallLLM)
	TraceCallLLM(span, "inv", "sess", "gemini-1.5-flash", "evt", map[string]int{"a": 1}, func() {})
	TraceDatasetLoad(span, "file:///tmp/x.csv", 12)
	span.End()

	a := attrs(sr.Ended()[0])
	assert.Equal(t, "gemini-1.5-flash", a["gen_ai.request.model"])
	assert.Equal(t, `{"a":1}`, a[KeyLLMRequest])
	assert.Equal(t, "<not json serializable>", a[KeyLLMResponse])
	assert.Equal(t, "12", a[KeyDatasetRows])
}
