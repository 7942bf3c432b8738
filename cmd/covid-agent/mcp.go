//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"github.com/spf13/cobra"

	"trpc.group/trpc-go/covid-agent/covid"
	"trpc.group/trpc-go/covid-agent/server/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the query tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stopTelemetry, err := a.startTelemetry(cmd.Context())
			if err != nil {
				return err
			}
			defer stopTelemetry()

			srv, err := mcp.New(covid.NewTools(a.service()),
				mcp.WithName(appName),
				mcp.WithVersion(version),
			)
			if err != nil {
				return err
			}
			return srv.Start()
		},
	}
}
