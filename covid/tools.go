//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package covid wires the COVID-19 queries into an LLM agent: function
// tools, the agent instruction, and text rendering of query records.
package covid

import (
	"context"
	"errors"

	"trpc.group/trpc-go/covid-agent/covid/query"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/tool"
	"trpc.group/trpc-go/covid-agent/tool/function"
)

// Tool names.
const (
	ToolLatestSummary       = "get_latest_summary"
	ToolTrend               = "get_trend"
	ToolCompareCountries    = "compare_countries"
	ToolVaccinationProgress = "get_vaccination_progress"
)

// Result statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Result is what every tool returns to the model.
type Result struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CountryInput names one country.
type CountryInput struct {
	Country string `json:"country" jsonschema:"description=Country name as used by Our World in Data such as United States"`
}

// TrendInput selects a metric trend.
type TrendInput struct {
	Country string `json:"country" jsonschema:"description=Country name as used by Our World in Data"`
	Metric  string `json:"metric" jsonschema:"description=Metric column such as new_cases or new_deaths"`
	Window  *int   `json:"window,omitempty" jsonschema:"description=Moving average window in days,minimum=1,default=7"`
}

// CompareInput selects a metric across countries.
type CompareInput struct {
	Countries []string `json:"countries" jsonschema:"description=Countries to compare in reporting order,minItems=1"`
	Metric    string   `json:"metric" jsonschema:"description=Metric column such as new_cases"`
}

// domainErrors are reported to the model as FAILED results.
var domainErrors = []error{
	query.ErrNotFound,
	query.ErrNoMetricData,
	query.ErrInsufficientData,
	query.ErrInvalidWindow,
	query.ErrUnknownMetric,
	query.ErrNoCountries,
}

// IsDomainError reports whether err is a query outcome rather than a failure
// of the service itself.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func result[T any](v T, err error, render func(T) string) (Result, error) {
	if err != nil {
		if IsDomainError(err) {
			return Result{Status: StatusFailed, Error: err.Error()}, nil
		}
		log.Errorf("covid query failed: %v", err)
		return Result{}, err
	}
	return Result{Status: StatusSuccess, Data: v, Text: render(v)}, nil
}

// NewTools returns the four query tools backed by svc.
func NewTools(svc *query.Service) []tool.Tool {
	return []tool.Tool{
		function.NewFunctionTool(
			func(ctx context.Context, in CountryInput) (Result, error) {
				s, err := svc.LatestSummary(ctx, in.Country)
				return result(s, err, FormatSummary)
			},
			function.WithName(ToolLatestSummary),
			function.WithDescription("Returns the latest new cases, new deaths and new vaccinations "+
				"for a country, each with the date it was recorded."),
		),
		function.NewFunctionTool(
			func(ctx context.Context, in TrendInput) (Result, error) {
				window := query.DefaultWindow
				if in.Window != nil {
					window = *in.Window
				}
				t, err := svc.Trend(ctx, in.Country, in.Metric, window)
				return result(t, err, FormatTrend)
			},
			function.WithName(ToolTrend),
			function.WithDescription("Classifies a metric for a country as increasing, decreasing or stable "+
				"by comparing the last two values of its moving average."),
		),
		function.NewFunctionTool(
			func(ctx context.Context, in CompareInput) (Result, error) {
				c, err := svc.Compare(ctx, in.Countries, in.Metric)
				return result(c, err, FormatComparison)
			},
			function.WithName(ToolCompareCountries),
			function.WithDescription("Compares the latest value of a metric across countries."),
		),
		function.NewFunctionTool(
			func(ctx context.Context, in CountryInput) (Result, error) {
				v, err := svc.VaccinationProgress(ctx, in.Country)
				return result(v, err, FormatVaccination)
			},
			function.WithName(ToolVaccinationProgress),
			function.WithDescription("Returns people vaccinated, people fully vaccinated and total boosters "+
				"for a country, with their share of the population."),
		),
	}
}
