//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package tool provides tool interfaces for the agent system.
package tool

import (
	"context"
)

// Tool is anything the model can be told about.
type Tool interface {
	// Declaration returns the metadata describing the tool.
	Declaration() *Declaration
}

// CallableTool defines the interface for tools that support calling operations.
type CallableTool interface {
	// Call calls the tool with the provided context and arguments.
	// Returns the result of execution or an error if the operation fails.
	Call(ctx context.Context, jsonArgs []byte) (any, error)

	Tool
}

// Declaration describes the metadata of a tool, such as its name, description, and expected arguments.
type Declaration struct {
	// Name is the unique identifier of the tool
	Name string `json:"name"`

	// Description explains the tool's purpose and functionality
	Description string `json:"description"`

	// InputSchema defines the expected input for the tool in JSON schema format.
	InputSchema *Schema `json:"inputSchema"`

	// OutputSchema defines the expected output for the tool in JSON schema format.
	OutputSchema *Schema `json:"outputSchema,omitempty"`
}

// Schema represents the subset of JSON Schema used for tool arguments and results.
// It is translated into each provider's native function declaration format
// and used to validate arguments before a tool runs.
type Schema struct {
	// Type specifies the data type ("object", "array", "string", "number", "integer", "boolean").
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of an object, each with its own schema.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items defines the schema of array elements.
	Items *Schema `json:"items,omitempty"`
	// Enum restricts a string to a fixed set of values.
	Enum []string `json:"enum,omitempty"`
	// Minimum is the inclusive lower bound for numbers.
	Minimum *float64 `json:"minimum,omitempty"`
	// MinItems is the minimum length of an array.
	MinItems *int `json:"minItems,omitempty"`
	// Default documents the value used when the property is omitted.
	Default any `json:"default,omitempty"`
	// AdditionalProperties controls whether properties not defined in Properties are allowed.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
}

// Names returns the declared names of ts in order.
func Names(ts []Tool) []string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		if d := t.Declaration(); d != nil {
			names = append(names, d.Name)
		}
	}
	return names
}
