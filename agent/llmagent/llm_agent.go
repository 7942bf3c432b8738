//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package llmagent provides an LLM agent implementation.
package llmagent

import (
	"context"

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/event"
	"trpc.group/trpc-go/covid-agent/internal/flow"
	"trpc.group/trpc-go/covid-agent/internal/flow/llmflow"
	"trpc.group/trpc-go/covid-agent/internal/flow/processor"
	"trpc.group/trpc-go/covid-agent/model"
	"trpc.group/trpc-go/covid-agent/tool"
)

var defaultChannelBufferSize = 256

// Option is a function that configures an LLMAgent.
type Option func(*Options)

// WithModel sets the model to use.
func WithModel(model model.Model) Option {
	return func(opts *Options) {
		opts.Model = model
	}
}

// WithDescription sets the description of the agent.
func WithDescription(description string) Option {
	return func(opts *Options) {
		opts.Description = description
	}
}

// WithInstruction sets the instruction of the agent.
func WithInstruction(instruction string) Option {
	return func(opts *Options) {
		opts.Instruction = instruction
	}
}

// WithGenerationConfig sets the generation configuration.
func WithGenerationConfig(config model.GenerationConfig) Option {
	return func(opts *Options) {
		opts.GenerationConfig = config
	}
}

// WithChannelBufferSize sets the buffer size for event channels.
func WithChannelBufferSize(size int) Option {
	return func(opts *Options) {
		opts.ChannelBufferSize = size
	}
}

// WithTools sets the list of tools available to the agent.
func WithTools(tools []tool.Tool) Option {
	return func(opts *Options) {
		opts.Tools = tools
	}
}

// WithEnableParallelTools runs the tool calls of one model response concurrently.
func WithEnableParallelTools(enable bool) Option {
	return func(opts *Options) {
		opts.EnableParallelTools = enable
	}
}

// WithMaxHistoryMessages bounds how much session history is sent to the model.
func WithMaxHistoryMessages(n int) Option {
	return func(opts *Options) {
		opts.MaxHistoryMessages = n
	}
}

// WithMaxLLMCalls bounds the number of model calls per invocation.
func WithMaxLLMCalls(n int) Option {
	return func(opts *Options) {
		opts.MaxLLMCalls = n
	}
}

// Options contains configuration options for creating an LLMAgent.
type Options struct {
	// Model is the model to use for generating responses.
	Model model.Model
	// Description is a description of the agent.
	Description string
	// Instruction is the instruction for the agent.
	Instruction string
	// GenerationConfig contains the generation configuration.
	GenerationConfig model.GenerationConfig
	// ChannelBufferSize is the buffer size for event channels (default: 256).
	ChannelBufferSize int
	// Tools is the list of tools available to the agent.
	Tools []tool.Tool
	// EnableParallelTools enables parallel tool execution if true.
	// If false (default), tools will execute serially.
	EnableParallelTools bool
	// MaxHistoryMessages bounds the session history sent to the model. Zero keeps all.
	MaxHistoryMessages int
	// MaxLLMCalls bounds the model calls per invocation. Zero uses the flow default.
	MaxLLMCalls int
}

// LLMAgent is an agent that uses an LLM to generate responses.
type LLMAgent struct {
	name        string
	model       model.Model
	description string
	flow        flow.Flow
	tools       []tool.Tool
}

// New creates a new LLMAgent with the given options.
func New(name string, opts ...Option) *LLMAgent {
	options := Options{ChannelBufferSize: defaultChannelBufferSize}
	for _, opt := range opts {
		opt(&options)
	}

	requestProcessors := []flow.RequestProcessor{
		processor.NewBasicRequestProcessor(processor.WithGenerationConfig(options.GenerationConfig)),
		processor.NewInstructionRequestProcessor(options.Instruction),
		processor.NewContentRequestProcessor(processor.WithMaxHistoryMessages(options.MaxHistoryMessages)),
	}
	responseProcessors := []flow.ResponseProcessor{
		processor.NewFunctionCallResponseProcessor(options.EnableParallelTools),
	}

	return &LLMAgent{
		name:        name,
		model:       options.Model,
		description: options.Description,
		tools:       options.Tools,
		flow: llmflow.New(requestProcessors, responseProcessors, llmflow.Options{
			ChannelBufferSize: options.ChannelBufferSize,
			MaxLLMCalls:       options.MaxLLMCalls,
		}),
	}
}

// Run implements the agent.Agent interface.
// It executes the LLM agent flow and returns a channel of events.
func (a *LLMAgent) Run(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error) {
	if invocation.Model == nil && a.model != nil {
		invocation.Model = a.model
	}
	if invocation.Agent == nil {
		invocation.Agent = a
	}
	if invocation.AgentName == "" {
		invocation.AgentName = a.name
	}
	return a.flow.Run(ctx, invocation)
}

// Info implements the agent.Agent interface.
func (a *LLMAgent) Info() agent.Info {
	return agent.Info{
		Name:        a.name,
		Description: a.description,
	}
}

// Tools implements the agent.Agent interface.
func (a *LLMAgent) Tools() []tool.Tool {
	return a.tools
}
