//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the names and span helpers shared by the tracing
// and metric packages.
package telemetry

import (
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"trpc.group/trpc-go/covid-agent/tool"
)

// telemetry service constants.
const (
	ServiceName      = "covid-agent"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-go-agent"
	InstrumentName   = "trpc.covid.agent"

	SpanNameCallLLM           = "call_llm"
	SpanNamePrefixExecuteTool = "execute_tool"
	SpanNameDatasetLoad       = "dataset.load"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// telemetry attribute keys.
var (
	KeyEventID      = "covid.agent.event_id"
	KeySessionID    = "covid.agent.session_id"
	KeyInvocationID = "covid.agent.invocation_id"
	KeyLLMRequest   = "covid.agent.llm_request"
	KeyLLMResponse  = "covid.agent.llm_response"
	KeyToolArgs     = "covid.agent.tool_call_args"
	KeyToolResult   = "covid.agent.tool_response"
	KeyDataset      = "covid.dataset.source"
	KeyDatasetRows  = "covid.dataset.rows"
)

// ToolSpanName returns the span name for executing the named tool.
func ToolSpanName(name string) string {
	return fmt.Sprintf("%s %s", SpanNamePrefixExecuteTool, name)
}

// TraceToolCall records a tool execution on span.
func TraceToolCall(span trace.Span, declaration *tool.Declaration, toolCallID string, args []byte, result any, err error) {
	span.SetAttributes(
		attribute.String("gen_ai.operation.name", "tool.execute"),
		attribute.String("gen_ai.tool.name", declaration.Name),
		attribute.String("gen_ai.tool.call.id", toolCallID),
		attribute.String(KeyToolArgs, string(args)),
	)
	if err != nil {
		span.SetAttributes(attribute.String("error.message", err.Error()))
		return
	}
	span.SetAttributes(attribute.String(KeyToolResult, marshalAttr(result)))
}

// TraceCallLLM records one model call on span.
func TraceCallLLM(span trace.Span, invocationID, sessionID, modelName, eventID string, req, rsp any) {
	span.SetAttributes(
		attribute.String(KeyInvocationID, invocationID),
		attribute.String(KeySessionID, sessionID),
		attribute.String(KeyEventID, eventID),
		attribute.String("gen_ai.request.model", modelName),
		attribute.String(KeyLLMRequest, marshalAttr(req)),
		attribute.String(KeyLLMResponse, marshalAttr(rsp)),
	)
}

// TraceDatasetLoad records a dataset load on span.
func TraceDatasetLoad(span trace.Span, source string, rows int) {
	span.SetAttributes(
		attribute.String(KeyDataset, source),
		attribute.Int(KeyDatasetRows, rows),
	)
}

func marshalAttr(v any) string {
	bts, err := json.Marshal(v)
	if err != nil {
		return "<not json serializable>"
	}
	return string(bts)
}

// NewGRPCConn creates a new gRPC client connection to the OpenTelemetry Collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
