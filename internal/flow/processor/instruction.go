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
	"strings"

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/event"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/model"
)

// InstructionRequestProcessor implements instruction processing logic.
type InstructionRequestProcessor struct {
	// Instruction is the instruction to add to requests.
	Instruction string
	// InstructionGetter, if provided, supplies the instruction each time a
	// request is processed and takes precedence over Instruction.
	InstructionGetter func() string
}

// InstructionRequestProcessorOption configures the instruction request processor.
type InstructionRequestProcessorOption func(*InstructionRequestProcessor)

// WithInstructionGetter configures a dynamic getter for instruction content.
func WithInstructionGetter(getter func() string) InstructionRequestProcessorOption {
	return func(p *InstructionRequestProcessor) {
		p.InstructionGetter = getter
	}
}

// NewInstructionRequestProcessor creates a new instruction request processor.
func NewInstructionRequestProcessor(
	instruction string,
	opts ...InstructionRequestProcessorOption,
) *InstructionRequestProcessor {
	p := &InstructionRequestProcessor{Instruction: instruction}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessRequest implements the flow.RequestProcessor interface.
// The instruction becomes the leading system message of the request. An
// existing leading system message is extended instead of duplicated.
func (p *InstructionRequestProcessor) ProcessRequest(
	ctx context.Context,
	invocation *agent.Invocation,
	req *model.Request,
	ch chan<- *event.Event,
) {
	if invocation == nil {
		return
	}
	if req == nil {
		log.Errorf("Instruction request processor: request is nil")
		return
	}

	instruction := p.Instruction
	if p.InstructionGetter != nil {
		instruction = p.InstructionGetter()
	}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return
	}
	log.Debugf("Instruction request processor: processing request for agent %s", invocation.AgentName)

	if len(req.Messages) > 0 && req.Messages[0].Role == model.RoleSystem {
		if !strings.Contains(req.Messages[0].Content, instruction) {
			req.Messages[0].Content += "\n\n" + instruction
		}
		return
	}
	req.Messages = append([]model.Message{model.NewSystemMessage(instruction)}, req.Messages...)
}
