//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"trpc.group/trpc-go/covid-agent/event"

	"trpc.group/trpc-go/covid-agent/model"
	"trpc.group/trpc-go/covid-agent/session"
)

// Invocation represents the context for a flow execution.
type Invocation struct {
	// Agent is the agent that is being invoked.
	Agent Agent
	// AgentName is the name of the agent that is being invoked.
	AgentName string
	// InvocationID is the ID of the invocation.
	InvocationID string
	// EndInvocation is a flag that indicates if the invocation is complete.
	EndInvocation bool
	// Session is the session that is being used for the invocation.
	Session *session.Session
	// Model is the model that is being used for the invocation.
	Model model.Model
	// Message is the message that is being sent to the agent.
	Message model.Message
	// RunOptions is the options for the Run method.
	RunOptions RunOptions

	// turn holds the messages produced by this invocation so far: assistant
	// replies and tool results, in order.
	turnMu sync.Mutex
	turn   []model.Message
}

// AddMessages records messages produced during this invocation.
func (inv *Invocation) AddMessages(msgs ...model.Message) {
	inv.turnMu.Lock()
	defer inv.turnMu.Unlock()
	inv.turn = append(inv.turn, msgs...)
}

// Messages returns a copy of the messages produced during this invocation.
func (inv *Invocation) Messages() []model.Message {
	inv.turnMu.Lock()
	defer inv.turnMu.Unlock()
	out := make([]model.Message, len(inv.turn))
	copy(out, inv.turn)
	return out
}

// EmitEvent sends evt on ch unless ctx is done first.
func EmitEvent(ctx context.Context, ch chan<- *event.Event, evt *event.Event) error {
	if evt == nil {
		return nil
	}
	select {
	case ch <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewInvocation creates an invocation with a fresh ID.
func NewInvocation(opts ...InvocationOptions) *Invocation {
	inv := &Invocation{InvocationID: uuid.New().String()}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// RunOption is a function that configures a RunOptions.
type RunOption func(*RunOptions)

// RunOptions is the options for the Run method.
type RunOptions struct {
	// MaxLLMCalls bounds the number of model calls in one invocation.
	// Zero means the flow default.
	MaxLLMCalls int
}

// WithMaxLLMCalls bounds the number of model calls in one invocation.
func WithMaxLLMCalls(n int) RunOption {
	return func(opts *RunOptions) {
		opts.MaxLLMCalls = n
	}
}
