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

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/event"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/model"
)

// ContentRequestProcessor builds the conversation sent to the model: the
// session history of earlier turns, the current user message, and the
// messages produced so far in the current turn.
type ContentRequestProcessor struct {
	// MaxHistoryMessages bounds the number of history messages. Zero keeps all.
	MaxHistoryMessages int
}

// ContentOption configures the ContentRequestProcessor.
type ContentOption func(*ContentRequestProcessor)

// WithMaxHistoryMessages bounds the number of history messages sent to the model.
func WithMaxHistoryMessages(n int) ContentOption {
	return func(p *ContentRequestProcessor) {
		p.MaxHistoryMessages = n
	}
}

// NewContentRequestProcessor creates a new content request processor.
func NewContentRequestProcessor(opts ...ContentOption) *ContentRequestProcessor {
	p := &ContentRequestProcessor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessRequest implements the flow.RequestProcessor interface.
func (p *ContentRequestProcessor) ProcessRequest(
	ctx context.Context,
	invocation *agent.Invocation,
	req *model.Request,
	ch chan<- *event.Event,
) {
	if req == nil {
		log.Errorf("Content request processor: request is nil")
		return
	}
	if invocation == nil {
		return
	}

	req.Messages = append(req.Messages, p.history(invocation)...)
	if invocation.Message.Content != "" {
		req.Messages = append(req.Messages, invocation.Message)
	}
	req.Messages = append(req.Messages, invocation.Messages()...)
}

// history converts the session events of earlier invocations into messages.
func (p *ContentRequestProcessor) history(invocation *agent.Invocation) []model.Message {
	if invocation.Session == nil {
		return nil
	}
	var msgs []model.Message
	for _, evt := range invocation.Session.GetEvents() {
		if evt.InvocationID == invocation.InvocationID || !includeEvent(&evt) {
			continue
		}
		for _, choice := range evt.Choices {
			msg := choice.Message
			if msg.Content == "" && len(msg.ToolCalls) == 0 && msg.ToolID == "" {
				continue
			}
			msgs = append(msgs, msg)
		}
	}
	if p.MaxHistoryMessages > 0 && len(msgs) > p.MaxHistoryMessages {
		msgs = msgs[len(msgs)-p.MaxHistoryMessages:]
	}
	// A conversation must open with a user message; trimming may leave
	// orphaned assistant or tool messages at the front.
	for len(msgs) > 0 && msgs[0].Role != model.RoleUser {
		msgs = msgs[1:]
	}
	return msgs
}

func includeEvent(evt *event.Event) bool {
	if evt.Response == nil || evt.IsError() {
		return false
	}
	return evt.Object != model.ObjectTypeRunnerCompletion
}
