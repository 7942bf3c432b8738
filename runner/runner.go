//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package runner binds an agent to a session service and drives invocations.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/event"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/model"
	"trpc.group/trpc-go/covid-agent/session"
	"trpc.group/trpc-go/covid-agent/session/inmemory"
)

const (
	authorUser = "user"
)

// ErrNoReply is returned by Reply when the agent finished without a final answer.
var ErrNoReply = errors.New("agent produced no reply")

// Option is a function that configures a Runner.
type Option func(*Options)

// WithSessionService sets the session service to use.
func WithSessionService(service session.Service) Option {
	return func(opts *Options) {
		opts.sessionService = service
	}
}

// Runner is the interface for running agents.
type Runner interface {
	Run(
		ctx context.Context,
		userID string,
		sessionID string,
		message model.Message,
		runOpts ...agent.RunOption,
	) (<-chan *event.Event, error)
}

type runner struct {
	appName        string
	agent          agent.Agent
	sessionService session.Service
}

// Options is the options for the Runner.
type Options struct {
	sessionService session.Service
}

// NewRunner creates a new Runner. Sessions are kept in memory unless a
// session service is given.
func NewRunner(appName string, agent agent.Agent, opts ...Option) Runner {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	if options.sessionService == nil {
		options.sessionService = inmemory.NewSessionService()
	}
	return &runner{
		appName:        appName,
		agent:          agent,
		sessionService: options.sessionService,
	}
}

// Run runs the agent on message within the given session. The session is
// created on first use. Events are appended to the session as they are
// forwarded, and the channel ends with a runner completion event.
func (r *runner) Run(
	ctx context.Context,
	userID string,
	sessionID string,
	message model.Message,
	runOpts ...agent.RunOption,
) (<-chan *event.Event, error) {
	sessionKey := session.Key{
		AppName:   r.appName,
		UserID:    userID,
		SessionID: sessionID,
	}

	sess, err := r.sessionService.GetSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		if sess, err = r.sessionService.CreateSession(ctx, sessionKey); err != nil {
			return nil, err
		}
	}

	var ro agent.RunOptions
	for _, opt := range runOpts {
		opt(&ro)
	}
	invocation := agent.NewInvocation(
		agent.WithInvocationSession(sess),
		agent.WithInvocationMessage(message),
		agent.WithInvocationAgent(r.agent),
		agent.WithInvocationRunOptions(ro),
	)

	// The content processor skips events of the running invocation, so the
	// user message recorded here is sent to the model only once.
	if message.Content != "" {
		userEvent := event.New(invocation.InvocationID, authorUser, event.WithResponse(&model.Response{
			Choices: []model.Choice{{Index: 0, Message: message}},
		}))
		if err := r.sessionService.AppendEvent(ctx, sess, userEvent); err != nil {
			return nil, err
		}
	}

	agentEventCh, err := r.agent.Run(ctx, invocation)
	if err != nil {
		return nil, err
	}

	processedEventCh := make(chan *event.Event)
	go func() {
		defer close(processedEventCh)

		for agentEvent := range agentEventCh {
			if agentEvent.Response != nil && (agentEvent.Choices != nil || agentEvent.Error != nil) {
				if err := r.sessionService.AppendEvent(ctx, sess, agentEvent); err != nil {
					log.Errorf("Failed to append event to session: %v", err)
				}
			}
			if err := agent.EmitEvent(ctx, processedEventCh, agentEvent); err != nil {
				return
			}
		}

		completion := event.New(invocation.InvocationID, r.appName, event.WithResponse(&model.Response{
			ID:      "runner-completion-" + uuid.New().String(),
			Object:  model.ObjectTypeRunnerCompletion,
			Created: time.Now().Unix(),
			Done:    true,
		}))
		agent.EmitEvent(ctx, processedEventCh, completion)
	}()

	return processedEventCh, nil
}

// Reply runs text as one user turn and returns the agent's final answer.
// Error events end the turn with their *model.ResponseError.
func Reply(
	ctx context.Context,
	r Runner,
	userID string,
	sessionID string,
	text string,
	runOpts ...agent.RunOption,
) (string, error) {
	ch, err := r.Run(ctx, userID, sessionID, model.NewUserMessage(text), runOpts...)
	if err != nil {
		return "", err
	}
	var (
		reply    string
		replyErr error
	)
	for evt := range ch {
		switch {
		case evt.IsError():
			if replyErr == nil {
				replyErr = evt.Error
			}
		case evt.Object == model.ObjectTypeRunnerCompletion:
		case evt.IsFinalResponse() && evt.Content() != "":
			reply = evt.Content()
		}
	}
	if replyErr != nil {
		return "", replyErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if reply == "" {
		return "", ErrNoReply
	}
	return reply, nil
}
