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
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/runner"
	"trpc.group/trpc-go/covid-agent/server/api"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr   string
		noChat bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP query API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			stopTelemetry, err := a.startTelemetry(ctx)
			if err != nil {
				return err
			}
			defer stopTelemetry()

			var opts []api.Option
			if !noChat {
				ag, err := a.agent()
				if err != nil {
					return err
				}
				opts = append(opts, api.WithRunner(runner.NewRunner(appName, ag)))
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.New(a.service(), opts...).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serveUntilDone(ctx, srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	cmd.Flags().BoolVar(&noChat, "no-chat", false, "serve queries only, without a model")
	return cmd
}

// serveUntilDone runs srv until it fails or ctx is done, then shuts it down.
func serveUntilDone(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP API listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
