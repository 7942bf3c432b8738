//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package function wraps typed Go functions as callable tools.
package function

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"

	itool "trpc.group/trpc-go/covid-agent/internal/tool"
	"trpc.group/trpc-go/covid-agent/tool"
)

// ErrInvalidArguments is returned by Call when the arguments do not match the
// tool's input schema. The wrapped function is not invoked in that case.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// FunctionTool implements the CallableTool interface for executing functions with arguments.
// Arguments are validated against the JSON schema generated from I before
// they are decoded.
type FunctionTool[I, O any] struct {
	name         string
	description  string
	inputSchema  *tool.Schema
	outputSchema *tool.Schema
	validator    *openapi3.Schema
	fn           func(context.Context, I) (O, error)
	unmarshaler  unmarshaler
}

// Option is a function that configures a FunctionTool.
type Option func(*functionToolOptions)

type functionToolOptions struct {
	name        string
	description string
	unmarshaler unmarshaler
	validate    bool
}

// WithName sets the name of the function tool.
func WithName(name string) Option {
	return func(opts *functionToolOptions) {
		opts.name = name
	}
}

// WithDescription sets the description of the function tool.
func WithDescription(description string) Option {
	return func(opts *functionToolOptions) {
		opts.description = description
	}
}

// WithSchemaValidation toggles argument validation. It is on by default.
func WithSchemaValidation(enabled bool) Option {
	return func(opts *functionToolOptions) {
		opts.validate = enabled
	}
}

// NewFunctionTool creates a FunctionTool around fn.
func NewFunctionTool[I, O any](fn func(context.Context, I) (O, error), opts ...Option) *FunctionTool[I, O] {
	options := &functionToolOptions{
		unmarshaler: &jsonUnmarshaler{},
		validate:    true,
	}
	for _, opt := range opts {
		opt(options)
	}

	var (
		emptyI I
		emptyO O
	)
	iSchema := itool.GenerateJSONSchema(reflect.TypeOf(emptyI))
	oSchema := itool.GenerateJSONSchema(reflect.TypeOf(emptyO))

	ft := &FunctionTool[I, O]{
		name:         options.name,
		description:  options.description,
		fn:           fn,
		unmarshaler:  options.unmarshaler,
		inputSchema:  iSchema,
		outputSchema: oSchema,
	}
	if options.validate {
		// A schema produced by the generator always converts; a failure here
		// only disables validation for this tool.
		ft.validator, _ = toOpenAPISchema(iSchema)
	}
	return ft
}

// Call validates and decodes jsonArgs, then calls the wrapped function.
func (ft *FunctionTool[I, O]) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	if len(jsonArgs) == 0 {
		jsonArgs = []byte("{}")
	}
	if ft.validator != nil {
		var raw any
		if err := json.Unmarshal(jsonArgs, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
		if err := ft.validator.VisitJSON(raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
	}
	var input I
	if err := ft.unmarshaler.Unmarshal(jsonArgs, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return ft.fn(ctx, input)
}

// Declaration returns the tool's declaration information.
func (ft *FunctionTool[I, O]) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:         ft.name,
		Description:  ft.description,
		InputSchema:  ft.inputSchema,
		OutputSchema: ft.outputSchema,
	}
}

// toOpenAPISchema converts a tool schema into a kin-openapi schema through
// its JSON form, which both sides share.
func toOpenAPISchema(s *tool.Schema) (*openapi3.Schema, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	out := openapi3.NewSchema()
	if err := json.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

type unmarshaler interface {
	Unmarshal([]byte, any) error
}

type jsonUnmarshaler struct{}

// Unmarshal unmarshals JSON data into the provided interface.
func (j *jsonUnmarshaler) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
