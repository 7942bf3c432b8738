//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package processor provides request and response processing functionality.
package processor

import (
	"context"

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/event"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/model"
)

// BasicRequestProcessor implements the basic request processing logic.
type BasicRequestProcessor struct {
	// GenerationConfig contains the default generation configuration.
	GenerationConfig model.GenerationConfig
}

// NewBasicRequestProcessor creates a new basic request processor with default settings.
func NewBasicRequestProcessor(opts ...BasicOption) *BasicRequestProcessor {
	processor := &BasicRequestProcessor{}
	for _, opt := range opts {
		opt(processor)
	}
	return processor
}

// BasicOption is a functional option for configuring the BasicRequestProcessor.
type BasicOption func(*BasicRequestProcessor)

// WithGenerationConfig sets the default generation configuration.
func WithGenerationConfig(config model.GenerationConfig) BasicOption {
	return func(p *BasicRequestProcessor) {
		p.GenerationConfig = config
	}
}

// ProcessRequest implements the flow.RequestProcessor interface.
// It handles setting generation parameters.
func (p *BasicRequestProcessor) ProcessRequest(
	ctx context.Context,
	invocation *agent.Invocation,
	req *model.Request,
	ch chan<- *event.Event,
) {
	if req == nil {
		log.Errorf("Basic request processor: request is nil")
		return
	}
	if invocation == nil {
		return
	}
	log.Debugf("Basic request processor: processing request for agent %s", invocation.AgentName)
	req.GenerationConfig = p.GenerationConfig
}
