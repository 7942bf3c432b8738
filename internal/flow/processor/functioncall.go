//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/event"
	itelemetry "trpc.group/trpc-go/covid-agent/internal/telemetry"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/model"
	"trpc.group/trpc-go/covid-agent/telemetry/metric"
	"trpc.group/trpc-go/covid-agent/telemetry/trace"
	"trpc.group/trpc-go/covid-agent/tool"
)

var (
	// ErrToolNotFound is reported to the model when it calls an unknown tool.
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolNotCallable is reported when a declared tool cannot be executed.
	ErrToolNotCallable = errors.New("tool is not callable")
)

// StatusFailed marks a tool result that carries an error instead of data.
const StatusFailed = "FAILED"

// FailedResult is the tool result sent to the model when a tool call fails
// before producing its own result.
type FailedResult struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// toolResult holds the result of a single tool execution.
type toolResult struct {
	message model.Message
	value   any
}

// FunctionCallResponseProcessor executes the tool calls requested by the model.
type FunctionCallResponseProcessor struct {
	enableParallelTools bool
}

// NewFunctionCallResponseProcessor creates a new function call response processor.
// With enableParallelTools the calls of one response run concurrently.
func NewFunctionCallResponseProcessor(enableParallelTools bool) *FunctionCallResponseProcessor {
	return &FunctionCallResponseProcessor{
		enableParallelTools: enableParallelTools,
	}
}

// ProcessResponse implements the flow.ResponseProcessor interface.
// Results are recorded on the invocation and emitted as one tool response event.
func (p *FunctionCallResponseProcessor) ProcessResponse(
	ctx context.Context,
	invocation *agent.Invocation,
	req *model.Request,
	rsp *model.Response,
	ch chan<- *event.Event,
) {
	if invocation == nil || !rsp.IsToolCallResponse() {
		return
	}
	var tools map[string]tool.Tool
	if req != nil {
		tools = req.Tools
	}
	toolCalls := rsp.Choices[0].Message.ToolCalls

	var results []toolResult
	if p.enableParallelTools && len(toolCalls) > 1 {
		results = p.executeParallel(ctx, invocation, toolCalls, tools)
	} else {
		results = make([]toolResult, 0, len(toolCalls))
		for _, tc := range toolCalls {
			results = append(results, p.executeToolCall(ctx, invocation, tc, tools))
		}
	}
	if err := ctx.Err(); err != nil {
		return
	}

	choices := make([]model.Choice, 0, len(results))
	values := make(map[string]any, len(results))
	messages := make([]model.Message, 0, len(results))
	for i, r := range results {
		choices = append(choices, model.Choice{Index: i, Message: r.message})
		messages = append(messages, r.message)
		if r.message.ToolID != "" {
			values[r.message.ToolID] = r.value
		}
	}
	invocation.AddMessages(messages...)

	evt := event.New(invocation.InvocationID, invocation.AgentName,
		event.WithResponse(&model.Response{
			ID:        rsp.ID,
			Object:    model.ObjectTypeToolResponse,
			Created:   time.Now().Unix(),
			Model:     rsp.Model,
			Choices:   choices,
			Timestamp: time.Now(),
		}),
		event.WithToolResults(values),
	)
	if err := agent.EmitEvent(ctx, ch, evt); err != nil {
		log.Debugf("Function call processor: context cancelled for agent %s", invocation.AgentName)
	}
}

func (p *FunctionCallResponseProcessor) executeParallel(
	ctx context.Context,
	invocation *agent.Invocation,
	toolCalls []model.ToolCall,
	tools map[string]tool.Tool,
) []toolResult {
	results := make([]toolResult, len(toolCalls))
	var wg sync.WaitGroup
	for i, tc := range toolCalls {
		wg.Add(1)
		go func(index int, tc model.ToolCall) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("Tool execution panic for %s (index: %d, ID: %s, agent: %s): %v",
						tc.Function.Name, index, tc.ID, invocation.AgentName, r)
					results[index] = failedResult(tc, fmt.Errorf("tool execution panic: %v", r))
				}
			}()
			results[index] = p.executeToolCall(ctx, invocation, tc, tools)
		}(i, tc)
	}
	wg.Wait()
	return results
}

// executeToolCall runs one tool call inside its own span.
func (p *FunctionCallResponseProcessor) executeToolCall(
	ctx context.Context,
	invocation *agent.Invocation,
	tc model.ToolCall,
	tools map[string]tool.Tool,
) toolResult {
	ctx, span := trace.Tracer.Start(ctx, itelemetry.ToolSpanName(tc.Function.Name))
	defer span.End()

	declaration := &tool.Declaration{Name: "<not found>", Description: "<not found>"}
	value, err := func() (any, error) {
		tl, ok := tools[tc.Function.Name]
		if !ok {
			log.Errorf("Tool %s not found (agent=%s)", tc.Function.Name, invocation.AgentName)
			return nil, fmt.Errorf("%w: %s", ErrToolNotFound, tc.Function.Name)
		}
		declaration = tl.Declaration()
		callable, ok := tl.(tool.CallableTool)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolNotCallable, tc.Function.Name)
		}
		log.Debugf("Executing tool %s with args: %s", tc.Function.Name, string(tc.Function.Arguments))
		return callable.Call(ctx, tc.Function.Arguments)
	}()
	itelemetry.TraceToolCall(span, declaration, tc.ID, tc.Function.Arguments, value, err)
	metric.IncToolCall(ctx, tc.Function.Name, err)
	if err != nil {
		log.Warnf("Tool %s failed: %v", tc.Function.Name, err)
		return failedResult(tc, err)
	}

	content, err := json.Marshal(value)
	if err != nil {
		log.Errorf("Failed to marshal tool result for %s: %v", tc.Function.Name, err)
		return failedResult(tc, fmt.Errorf("marshal tool result: %w", err))
	}
	return toolResult{
		message: model.NewToolMessage(tc.ID, tc.Function.Name, string(content)),
		value:   value,
	}
}

func failedResult(tc model.ToolCall, err error) toolResult {
	value := FailedResult{Status: StatusFailed, Error: err.Error()}
	content, _ := json.Marshal(value)
	return toolResult{
		message: model.NewToolMessage(tc.ID, tc.Function.Name, string(content)),
		value:   value,
	}
}
