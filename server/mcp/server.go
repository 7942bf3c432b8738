//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package mcp serves the COVID-19 query tools over the Model Context
// Protocol on stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/covid-agent/covid"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/tool"
)

// Defaults reported to MCP clients.
const (
	DefaultName    = "covid-agent"
	DefaultVersion = "1.0.0"
)

type handlerFunc = func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Server exposes callable tools to MCP clients.
type Server struct {
	stdio    *mcp.StdioServer
	handlers map[string]handlerFunc
}

type options struct {
	name    string
	version string
}

// Option configures the Server.
type Option func(*options)

// WithName sets the server name reported to clients.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithVersion sets the server version reported to clients.
func WithVersion(version string) Option {
	return func(o *options) { o.version = version }
}

// New registers every callable tool in tools. Tools that cannot be called
// are skipped.
func New(tools []tool.Tool, opts ...Option) (*Server, error) {
	o := &options{name: DefaultName, version: DefaultVersion}
	for _, opt := range opts {
		opt(o)
	}
	s := &Server{
		stdio: mcp.NewStdioServer(o.name, o.version,
			mcp.WithStdioServerLogger(mcp.GetDefaultLogger()),
		),
		handlers: make(map[string]handlerFunc),
	}
	for _, t := range tools {
		callable, ok := t.(tool.CallableTool)
		if !ok {
			log.Warnf("mcp: skipping tool %s, it is not callable", t.Declaration().Name)
			continue
		}
		mcpTool, err := toMCPTool(callable.Declaration())
		if err != nil {
			return nil, err
		}
		h := newHandler(callable)
		s.handlers[mcpTool.Name] = h
		s.stdio.RegisterTool(mcpTool, h)
	}
	return s, nil
}

// Start serves requests on stdin and stdout until the input closes.
func (s *Server) Start() error {
	return s.stdio.Start()
}

// toMCPTool carries the tool's JSON schema over to the MCP declaration.
func toMCPTool(decl *tool.Declaration) (*mcp.Tool, error) {
	t := mcp.NewTool(decl.Name, mcp.WithDescription(decl.Description))
	if decl.InputSchema == nil {
		return t, nil
	}
	raw, err := json.Marshal(decl.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal input schema of %s: %w", decl.Name, err)
	}
	if err := json.Unmarshal(raw, &t.InputSchema); err != nil {
		return nil, fmt.Errorf("convert input schema of %s: %w", decl.Name, err)
	}
	return t, nil
}

// newHandler runs the tool with the request arguments. Query outcomes such as
// an unknown country come back as error results, not protocol errors.
func newHandler(callable tool.CallableTool) handlerFunc {
	name := callable.Declaration().Name
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if args == nil {
			args = map[string]any{}
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return mcp.NewErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		out, err := callable.Call(ctx, raw)
		if err != nil {
			log.Errorf("mcp: tool %s failed: %v", name, err)
			return mcp.NewErrorResult(err.Error()), nil
		}
		res, ok := out.(covid.Result)
		if !ok {
			text, err := json.Marshal(out)
			if err != nil {
				return mcp.NewErrorResult(err.Error()), nil
			}
			return mcp.NewTextResult(string(text)), nil
		}
		if res.Status != covid.StatusSuccess {
			return mcp.NewErrorResult(res.Error), nil
		}
		return mcp.NewTextResult(res.Text), nil
	}
}
