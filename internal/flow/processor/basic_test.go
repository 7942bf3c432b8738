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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/covid-agent/agent"
	"trpc.group/trpc-go/covid-agent/event"
	"trpc.group/trpc-go/covid-agent/model"
)

func TestBasicRequestProcessor(t *testing.T) {
	maxTokens := 256
	temperature := 0.2
	p := NewBasicRequestProcessor(WithGenerationConfig(model.GenerationConfig{
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}))

	req := &model.Request{}
	ch := make(chan *event.Event, 1)
	p.ProcessRequest(context.Background(), agent.NewInvocation(), req, ch)

	require.NotNil(t, req.MaxTokens)
	assert.Equal(t, 256, *req.MaxTokens)
	assert.Equal(t, 0.2, *req.Temperature)
	assert.Len(t, ch, 0, "no preprocessing events are emitted")
}

func TestBasicRequestProcessor_NilInputs(t *testing.T) {
	p := NewBasicRequestProcessor()
	assert.NotPanics(t, func() {
		p.ProcessRequest(context.Background(), agent.NewInvocation(), nil, nil)
		p.ProcessRequest(context.Background(), nil, &model.Request{}, nil)
	})
}
