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
	"context"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/server/a2a"
)

func newA2ACmd(a *app) *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "a2a",
		Short: "Serve the agent over the A2A protocol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			stopTelemetry, err := a.startTelemetry(ctx)
			if err != nil {
				return err
			}
			defer stopTelemetry()

			ag, err := a.agent()
			if err != nil {
				return err
			}
			if host == "" {
				host = a.cfg.A2A.Host
			}
			srv, err := a2a.New(
				a2a.WithAgent(ag),
				a2a.WithAppName(appName),
				a2a.WithHost(host),
			)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				log.Infof("A2A server listening on %s", host)
				errCh <- srv.Start(host)
			}()
			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Stop(stopCtx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen address (default from a2a.host)")
	return cmd
}
