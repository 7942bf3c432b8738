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

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"trpc.group/trpc-go/covid-agent/internal/repl"
	"trpc.group/trpc-go/covid-agent/runner"
)

const chatUserID = "local"

func newChatCmd(a *app) *cobra.Command {
	var noAnimation bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with the COVID-19 data agent",
		Long: `Start an interactive chat with the COVID-19 data agent.

Type 'exit' to quit. Ctrl+D also works.`,
		Args: cobra.NoArgs,
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
			r := runner.NewRunner(appName, ag)
			sessionID := uuid.NewString()

			if !noAnimation {
				if err := repl.PlayAnimation(ctx, cmd.OutOrStdout(), repl.FrameDelay); err != nil {
					return err
				}
			}
			return repl.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), func(ctx context.Context, text string) (string, error) {
				return runner.Reply(ctx, r, chatUserID, sessionID, text)
			})
		},
	}
	cmd.Flags().BoolVar(&noAnimation, "no-animation", false, "skip the boot animation")
	return cmd
}
