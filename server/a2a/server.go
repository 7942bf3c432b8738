//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package a2a serves an agent over the A2A protocol.
package a2a

import (
	"context"
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	a2a "trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/runner"
	"trpc.group/trpc-go/covid-agent/session/inmemory"
)

var (
	errNoAgent   = errors.New("agent is required")
	errNoHost    = errors.New("host is required")
	errNoUser    = errors.New("userID is required")
	errNoContext = errors.New("context id not exists")
	errNoText    = errors.New("message has no text")
)

// New creates a new a2a server.
func New(opts ...Option) (*a2a.A2AServer, error) {
	options := &options{host: defaultHost}
	for _, opt := range opts {
		opt(options)
	}
	if options.agent == nil {
		return nil, errNoAgent
	}
	if options.host == "" {
		return nil, errNoHost
	}
	if options.sessionService == nil {
		options.sessionService = inmemory.NewSessionService()
	}

	taskManager, err := taskmanager.NewMemoryTaskManager(newProcessor(options))
	if err != nil {
		return nil, fmt.Errorf("failed to create task manager: %w", err)
	}
	serverOpts := []a2a.Option{
		a2a.WithAuthProvider(&defaultAuthProvider{}),
	}
	// A custom AuthProvider in extraOptions replaces the default one.
	serverOpts = append(serverOpts, options.extraOptions...)
	server, err := a2a.NewA2AServer(buildAgentCard(options), taskManager, serverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create a2a server: %w", err)
	}
	return server, nil
}

func buildAgentCard(options *options) a2a.AgentCard {
	if options.agentCard != nil {
		return *options.agentCard
	}
	info := options.agent.Info()
	streaming := false
	return a2a.AgentCard{
		Name:        info.Name,
		Description: info.Description,
		URL:         fmt.Sprintf("http://%s", options.host),
		Capabilities: a2a.AgentCapabilities{
			Streaming: &streaming,
		},
		Skills:             buildSkills(options.agent),
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
	}
}

// buildSkills lists the agent itself followed by one skill per tool.
func buildSkills(ag agent.Agent) []a2a.AgentSkill {
	info := ag.Info()
	desc := info.Description
	skills := []a2a.AgentSkill{{
		Name:        info.Name,
		Description: &desc,
		InputModes:  []string{"text"},
		OutputModes: []string{"text"},
		Tags:        []string{"default"},
	}}
	for _, t := range ag.Tools() {
		decl := t.Declaration()
		if decl == nil {
			continue
		}
		toolDesc := decl.Description
		skills = append(skills, a2a.AgentSkill{
			Name:        decl.Name,
			Description: &toolDesc,
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
			Tags:        []string{"tool"},
		})
	}
	return skills
}

// messageProcessor answers each A2A message with one agent turn. The A2A
// context ID is used as the session ID, so a context keeps its history.
type messageProcessor struct {
	runner runner.Runner
}

func newProcessor(options *options) *messageProcessor {
	appName := options.appName
	if appName == "" {
		appName = options.agent.Info().Name
	}
	return &messageProcessor{
		runner: runner.NewRunner(appName, options.agent, runner.WithSessionService(options.sessionService)),
	}
}

// ProcessMessage implements taskmanager.MessageProcessor.
func (m *messageProcessor) ProcessMessage(
	ctx context.Context,
	message protocol.Message,
	_ taskmanager.ProcessOptions,
	_ taskmanager.TaskHandler,
) (*taskmanager.MessageProcessingResult, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, errNoUser
	}
	if message.ContextID == nil {
		return nil, errNoContext
	}
	text := messageText(message)
	if text == "" {
		return nil, errNoText
	}

	reply, err := runner.Reply(ctx, m.runner, userID, *message.ContextID, text)
	if err != nil {
		log.Errorf("a2a: agent run for %s failed: %v", userID, err)
		return nil, fmt.Errorf("failed to run agent: %w", err)
	}
	msg := protocol.NewMessage(protocol.MessageRoleAgent, []protocol.Part{protocol.NewTextPart(reply)})
	msg.ContextID = message.ContextID
	return &taskmanager.MessageProcessingResult{
		Result: &msg,
	}, nil
}
