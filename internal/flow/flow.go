//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package flow provides the core flow functionality interfaces and types.
package flow

import (
	"context"

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/event"
	"trpc.group/trpc-go/covid-agent/model"
)

// Flow is the interface that all flows must implement.
type Flow interface {
	// Run executes the flow and yields events as they occur.
	// Returns the event channel and any setup error.
	Run(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error)
}

// RequestProcessor processes LLM requests before they are sent to the model.
type RequestProcessor interface {
	// ProcessRequest processes the request and sends events directly to the provided channel.
	ProcessRequest(ctx context.Context, invocation *agent.Invocation, req *model.Request, ch chan<- *event.Event)
}

// ResponseProcessor processes LLM responses after they are received from the model.
type ResponseProcessor interface {
	// ProcessResponse processes the response and sends events directly to the provided channel.
	ProcessResponse(
		ctx context.Context,
		invocation *agent.Invocation,
		req *model.Request,
		rsp *model.Response,
		ch chan<- *event.Event,
	)
}
