//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package covid

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/covid-agent/covid/dataset"
	"trpc.group/trpc-go/covid-agent/covid/query"
	"trpc.group/trpc-go/covid-agent/tool"
	"trpc.group/trpc-go/covid-agent/tool/function"
)

const testCSV = `country,date,population,new_cases,new_deaths,new_vaccinations,people_vaccinated,people_fully_vaccinated,total_boosters
Testland,2021-01-01,1000,3,1,10,100,50,
Testland,2021-01-02,1000,5,2,,200,,10
Otherland,2021-01-02,500,9,,,,,
`

type stringSource struct {
	csv   string
	err   error
	loads int
}

func (s *stringSource) Load(context.Context) (*dataset.Dataset, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return dataset.Parse(strings.NewReader(s.csv))
}

func toolsByName(t *testing.T, src dataset.Source) map[string]tool.CallableTool {
	t.Helper()
	out := make(map[string]tool.CallableTool)
	for _, tl := range NewTools(query.NewService(src)) {
		callable, ok := tl.(tool.CallableTool)
		require.True(t, ok)
		out[tl.Declaration().Name] = callable
	}
	return out
}

func call(t *testing.T, tl tool.CallableTool, args string) Result {
	t.Helper()
	out, err := tl.Call(context.Background(), []byte(args))
	require.NoError(t, err)
	res, ok := out.(Result)
	require.True(t, ok)
	return res
}

func TestNewTools_Declarations(t *testing.T) {
	tools := NewTools(query.NewService(&stringSource{csv: testCSV}))
	assert.Equal(t, []string{ToolLatestSummary, ToolTrend, ToolCompareCountries, ToolVaccinationProgress},
		tool.Names(tools))

	for _, tl := range tools {
		decl := tl.Declaration()
		assert.NotEmpty(t, decl.Description, decl.Name)
		assert.Equal(t, "object", decl.InputSchema.Type, decl.Name)
	}

	trend := tools[1].Declaration().InputSchema
	assert.ElementsMatch(t, []string{"country", "metric"}, trend.Required)
	window := trend.Properties["window"]
	require.NotNil(t, window)
	assert.Equal(t, "integer", window.Type)
	require.NotNil(t, window.Minimum)
	assert.Equal(t, 1.0, *window.Minimum)
	assert.EqualValues(t, 7, window.Default)

	countries := tools[2].Declaration().InputSchema.Properties["countries"]
	require.NotNil(t, countries.MinItems)
	assert.Equal(t, 1, *countries.MinItems)
}

func TestLatestSummaryTool(t *testing.T) {
	tools := toolsByName(t, &stringSource{csv: testCSV})
	res := call(t, tools[ToolLatestSummary], `{"country":"Testland"}`)
	assert.Equal(t, StatusSuccess, res.Status)
	summary, ok := res.Data.(*query.Summary)
	require.True(t, ok)
	assert.Equal(t, 5.0, summary.NewCases.Value)
	assert.Contains(t, res.Text, "New Cases: 5 (2021-01-02)")
}

func TestTrendTool_DefaultWindow(t *testing.T) {
	tools := toolsByName(t, &stringSource{csv: testCSV})

	// Two rows cannot fill the default window of seven.
	res := call(t, tools[ToolTrend], `{"country":"Testland","metric":"new_cases"}`)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, query.ErrInsufficientData.Error())

	res = call(t, tools[ToolTrend], `{"country":"Testland","metric":"new cases","window":1}`)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, query.TrendIncreasing, res.Data.(*query.Trend).Trend)
}

func TestCompareTool(t *testing.T) {
	tools := toolsByName(t, &stringSource{csv: testCSV})
	res := call(t, tools[ToolCompareCountries], `{"countries":["Otherland","Nowhere","Testland"],"metric":"new_cases"}`)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "New Cases by country:\n  Otherland: 9 (2021-01-02)\n  Nowhere: country not found: Nowhere\n"+
		"  Testland: 5 (2021-01-02)", res.Text)
}

func TestVaccinationTool(t *testing.T) {
	tools := toolsByName(t, &stringSource{csv: testCSV})
	res := call(t, tools[ToolVaccinationProgress], `{"country":"testland"}`)
	assert.Equal(t, StatusSuccess, res.Status)
	v := res.Data.(*query.Vaccination)
	assert.Equal(t, "20.00%", v.PeopleVaccinated.Percent)
	assert.Equal(t, "5.00%", v.PeopleFullyVaccinated.Percent)
	assert.Equal(t, "1.00%", v.TotalBoosters.Percent)
}

func TestTools_NotFoundIsFailedResult(t *testing.T) {
	tools := toolsByName(t, &stringSource{csv: testCSV})
	for _, name := range []string{ToolLatestSummary, ToolVaccinationProgress} {
		res := call(t, tools[name], `{"country":"Nowhere"}`)
		assert.Equal(t, StatusFailed, res.Status, name)
		assert.Equal(t, "country not found: Nowhere", res.Error, name)
		assert.Nil(t, res.Data, name)
	}
}

func TestTools_InvalidArgumentsNeverQuery(t *testing.T) {
	src := &stringSource{csv: testCSV}
	tools := toolsByName(t, src)
	tests := []struct {
		tool string
		args string
	}{
		{ToolLatestSummary, `{}`},
		{ToolLatestSummary, `{"country":42}`},
		{ToolTrend, `{"country":"Testland","metric":"new_cases","window":0}`},
		{ToolTrend, `{"country":"Testland","metric":"new_cases","window":1.5}`},
		{ToolCompareCountries, `{"countries":[],"metric":"new_cases"}`},
		{ToolCompareCountries, `{"countries":"Testland","metric":"new_cases"}`},
		{ToolVaccinationProgress, `not json`},
	}
	for _, tt := range tests {
		_, err := tools[tt.tool].Call(context.Background(), []byte(tt.args))
		assert.ErrorIs(t, err, function.ErrInvalidArguments, "%s %s", tt.tool, tt.args)
	}
	assert.Zero(t, src.loads)
}

func TestTools_LoadFailureIsError(t *testing.T) {
	boom := errors.New("offline")
	tools := toolsByName(t, &stringSource{err: boom})
	_, err := tools[ToolLatestSummary].Call(context.Background(), []byte(`{"country":"Testland"}`))
	require.ErrorIs(t, err, boom)
	assert.False(t, IsDomainError(err))
}
