//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"trpc.group/trpc-go/covid-agent/model"
)

// Option is a function that can be used to configure the Event.
type Option func(*Event)

// WithResponse sets the response for the event.
func WithResponse(response *model.Response) Option {
	return func(e *Event) {
		if response == nil {
			response = &model.Response{}
		}
		e.Response = response
	}
}

// WithObject sets the object for the event.
func WithObject(o string) Option {
	return func(e *Event) {
		e.Object = o
	}
}

// WithToolResults attaches typed tool results to the event.
func WithToolResults(results map[string]any) Option {
	return func(e *Event) {
		e.ToolResults = results
	}
}
