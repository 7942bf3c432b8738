//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package a2a

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"trpc.group/trpc-go/trpc-a2a-go/auth"
	a2a "trpc.group/trpc-go/trpc-a2a-go/server"

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/session"
)

const (
	userIDHeader = "X-User-ID"
	defaultHost  = "localhost:8888"
)

// UserIDFromContext returns the user ID from the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	user, ok := ctx.Value(auth.AuthUserKey).(*auth.User)
	if !ok || user == nil {
		return "", false
	}
	return user.ID, true
}

// NewContextWithUserID returns a new context with the user ID.
func NewContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, auth.AuthUserKey, &auth.User{ID: userID})
}

// defaultAuthProvider trusts the X-User-ID header and falls back to a fresh
// anonymous ID.
type defaultAuthProvider struct{}

func (d *defaultAuthProvider) Authenticate(r *http.Request) (*auth.User, error) {
	if r == nil {
		return nil, errors.New("request is nil")
	}
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		log.Debugf("a2a: %s not set, using an anonymous user", userIDHeader)
		userID = uuid.NewString()
	}
	return &auth.User{ID: userID}, nil
}

type options struct {
	sessionService session.Service
	agent          agent.Agent
	agentCard      *a2a.AgentCard
	appName        string
	host           string
	extraOptions   []a2a.Option
}

// Option is a function that configures a Server.
type Option func(*options)

// WithSessionService sets the session service to use.
func WithSessionService(service session.Service) Option {
	return func(opts *options) {
		opts.sessionService = service
	}
}

// WithAgent sets the agent to use.
func WithAgent(agent agent.Agent) Option {
	return func(opts *options) {
		opts.agent = agent
	}
}

// WithAppName sets the session app name. It defaults to the agent name.
func WithAppName(name string) Option {
	return func(opts *options) {
		opts.appName = name
	}
}

// WithAgentCard replaces the generated agent card.
func WithAgentCard(agentCard a2a.AgentCard) Option {
	return func(opts *options) {
		opts.agentCard = &agentCard
	}
}

// WithHost sets the host advertised in the agent card.
func WithHost(host string) Option {
	return func(opts *options) {
		opts.host = host
	}
}

// WithExtraA2AOptions sets the extra options to use.
func WithExtraA2AOptions(opts ...a2a.Option) Option {
	return func(options *options) {
		options.extraOptions = append(options.extraOptions, opts...)
	}
}
