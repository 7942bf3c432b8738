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
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/covid-agent/covid"
	"trpc.group/trpc-go/covid-agent/covid/query"
)

func newQueryCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query against the dataset without the model",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print the record as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "summary <country>",
		Short: "Latest new cases, deaths and vaccinations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.service().LatestSummary(cmd.Context(), args[0])
			return printResult(cmd.OutOrStdout(), asJSON, s, err, covid.FormatSummary)
		},
	})

	var (
		metric string
		window int
	)
	trendCmd := &cobra.Command{
		Use:   "trend <country>",
		Short: "Moving average trend of a metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.service().Trend(cmd.Context(), args[0], metric, window)
			return printResult(cmd.OutOrStdout(), asJSON, t, err, covid.FormatTrend)
		},
	}
	trendCmd.Flags().StringVar(&metric, "metric", query.MetricNewCases, "metric column")
	trendCmd.Flags().IntVar(&window, "window", query.DefaultWindow, "moving average window in days")

	var compareMetric string
	compareCmd := &cobra.Command{
		Use:   "compare <country>...",
		Short: "Latest value of a metric across countries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.service().Compare(cmd.Context(), args, compareMetric)
			return printResult(cmd.OutOrStdout(), asJSON, c, err, covid.FormatComparison)
		},
	}
	compareCmd.Flags().StringVar(&compareMetric, "metric", query.MetricNewCases, "metric column")

	cmd.AddCommand(trendCmd, compareCmd, &cobra.Command{
		Use:     "vaccinations <country>",
		Aliases: []string{"vaccination"},
		Short:   "Vaccination progress with population shares",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.service().VaccinationProgress(cmd.Context(), args[0])
			return printResult(cmd.OutOrStdout(), asJSON, v, err, covid.FormatVaccination)
		},
	})
	return cmd
}

func printResult[T any](w io.Writer, asJSON bool, v T, err error, render func(T) string) error {
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err = fmt.Fprintln(w, render(v))
	return err
}
