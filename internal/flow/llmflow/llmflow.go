//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package llmflow provides an LLM-based flow implementation.
package llmflow

import (
	"context"
	"errors"
	"fmt"

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/event"
	"trpc.group/trpc-go/covid-agent/internal/flow"
	itelemetry "trpc.group/trpc-go/covid-agent/internal/telemetry"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/model"
	"trpc.group/trpc-go/covid-agent/telemetry/metric"
	"trpc.group/trpc-go/covid-agent/telemetry/trace"
	"trpc.group/trpc-go/covid-agent/tool"
)

const (
	defaultChannelBufferSize = 256
	defaultMaxLLMCalls       = 10
)

var (
	// ErrNoModel is returned when the invocation carries no model.
	ErrNoModel = errors.New("no model available for LLM call")
	// ErrMaxLLMCalls is returned when an invocation keeps requesting tools
	// past its model call budget.
	ErrMaxLLMCalls = errors.New("max LLM calls exceeded")
)

// Options contains configuration options for creating a Flow.
type Options struct {
	ChannelBufferSize int // Buffer size for event channels (default: 256)
	MaxLLMCalls       int // Model calls per invocation when RunOptions leave it unset (default: 10)
}

// Flow provides the basic flow implementation.
type Flow struct {
	requestProcessors  []flow.RequestProcessor
	responseProcessors []flow.ResponseProcessor
	channelBufferSize  int
	maxLLMCalls        int
}

// New creates a new basic flow instance with the provided processors.
// Processors are immutable after creation.
func New(
	requestProcessors []flow.RequestProcessor,
	responseProcessors []flow.ResponseProcessor,
	opts Options,
) *Flow {
	channelBufferSize := opts.ChannelBufferSize
	if channelBufferSize <= 0 {
		channelBufferSize = defaultChannelBufferSize
	}
	maxLLMCalls := opts.MaxLLMCalls
	if maxLLMCalls <= 0 {
		maxLLMCalls = defaultMaxLLMCalls
	}
	return &Flow{
		requestProcessors:  requestProcessors,
		responseProcessors: responseProcessors,
		channelBufferSize:  channelBufferSize,
		maxLLMCalls:        maxLLMCalls,
	}
}

// Run executes the flow in a loop until completion.
func (f *Flow) Run(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error) {
	if invocation == nil {
		return nil, errors.New("invocation is nil")
	}
	eventChan := make(chan *event.Event, f.channelBufferSize)

	go func() {
		defer close(eventChan)

		maxCalls := f.maxLLMCalls
		if invocation.RunOptions.MaxLLMCalls > 0 {
			maxCalls = invocation.RunOptions.MaxLLMCalls
		}

		for calls := 0; ; calls++ {
			if calls >= maxCalls {
				f.emitError(ctx, invocation, eventChan, fmt.Errorf("%w: %d", ErrMaxLLMCalls, maxCalls))
				return
			}

			// Run one step (one LLM call cycle).
			lastEvent, err := f.runOneStep(ctx, invocation, eventChan)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					log.Debugf("Flow context done for agent %s: %v", invocation.AgentName, err)
					return
				}
				log.Errorf("Flow step failed for agent %s: %v", invocation.AgentName, err)
				f.emitError(ctx, invocation, eventChan, err)
				return
			}

			// No events in this step is terminal; so is EndInvocation or a final response.
			if lastEvent == nil || invocation.EndInvocation || lastEvent.IsFinalResponse() {
				return
			}
		}
	}()

	return eventChan, nil
}

func (f *Flow) emitError(ctx context.Context, invocation *agent.Invocation, ch chan<- *event.Event, err error) {
	agent.EmitEvent(ctx, ch, event.NewErrorEvent(
		invocation.InvocationID,
		invocation.AgentName,
		model.ErrorTypeFlowError,
		err.Error(),
	))
}

// runOneStep executes one step of the flow (one LLM call cycle).
// Returns the last event generated, or nil if no events.
func (f *Flow) runOneStep(
	ctx context.Context,
	invocation *agent.Invocation,
	eventChan chan<- *event.Event,
) (*event.Event, error) {
	llmRequest := &model.Request{
		Tools: make(map[string]tool.Tool),
	}

	// 1. Preprocess (prepare request).
	f.preprocess(ctx, invocation, llmRequest, eventChan)
	if invocation.EndInvocation {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := trace.Tracer.Start(ctx, itelemetry.SpanNameCallLLM)
	defer span.End()

	// 2. Call LLM (get response channel).
	responseChan, err := f.callLLM(ctx, invocation, llmRequest)
	if err != nil {
		return nil, err
	}

	// 3. Process responses.
	var lastEvent *event.Event
	for response := range responseChan {
		if response == nil {
			continue
		}
		llmResponseEvent := event.New(invocation.InvocationID, invocation.AgentName, event.WithResponse(response))
		if err := agent.EmitEvent(ctx, eventChan, llmResponseEvent); err != nil {
			return lastEvent, err
		}
		lastEvent = llmResponseEvent

		sessionID := ""
		if invocation.Session != nil {
			sessionID = invocation.Session.ID
		}
		itelemetry.TraceCallLLM(span, invocation.InvocationID, sessionID, invocation.Model.Info().Name,
			llmResponseEvent.ID, llmRequest, response)

		if response.Error != nil {
			continue
		}
		for _, choice := range response.Choices {
			if choice.Message.Content != "" || len(choice.Message.ToolCalls) > 0 {
				invocation.AddMessages(choice.Message)
			}
		}

		// 4. Postprocess response.
		f.postprocess(ctx, invocation, llmRequest, response, eventChan)
		if err := ctx.Err(); err != nil {
			return lastEvent, err
		}
	}
	return lastEvent, nil
}

// preprocess handles pre-LLM call preparation using request processors.
func (f *Flow) preprocess(
	ctx context.Context,
	invocation *agent.Invocation,
	llmRequest *model.Request,
	eventChan chan<- *event.Event,
) {
	for _, processor := range f.requestProcessors {
		processor.ProcessRequest(ctx, invocation, llmRequest, eventChan)
	}

	// Add tools to the request.
	if invocation.Agent != nil {
		for _, t := range invocation.Agent.Tools() {
			llmRequest.Tools[t.Declaration().Name] = t
		}
	}
}

// callLLM performs the actual LLM call.
func (f *Flow) callLLM(
	ctx context.Context,
	invocation *agent.Invocation,
	llmRequest *model.Request,
) (<-chan *model.Response, error) {
	if invocation.Model == nil {
		return nil, ErrNoModel
	}
	log.Debugf("Calling LLM for agent %s", invocation.AgentName)
	metric.IncLLMCall(ctx, invocation.Model.Info().Name)

	responseChan, err := invocation.Model.GenerateContent(ctx, llmRequest)
	if err != nil {
		log.Errorf("LLM call failed for agent %s: %v", invocation.AgentName, err)
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return responseChan, nil
}

// postprocess handles post-LLM call processing using response processors.
func (f *Flow) postprocess(
	ctx context.Context,
	invocation *agent.Invocation,
	llmRequest *model.Request,
	llmResponse *model.Response,
	eventChan chan<- *event.Event,
) {
	for _, processor := range f.responseProcessors {
		processor.ProcessResponse(ctx, invocation, llmRequest, llmResponse, eventChan)
	}
}
