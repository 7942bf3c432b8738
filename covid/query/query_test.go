//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/covid-agent/covid/dataset"
)

// csvSource parses a fixed CSV on every load and counts loads.
type csvSource struct {
	csv   string
	loads int
	err   error
}

func (s *csvSource) Load(context.Context) (*dataset.Dataset, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return dataset.Parse(strings.NewReader(s.csv))
}

const header = "country,date,population,new_cases,new_deaths,new_vaccinations," +
	"people_vaccinated,people_fully_vaccinated,total_boosters\n"

func newService(body string) (*Service, *csvSource) {
	src := &csvSource{csv: header + body}
	return NewService(src), src
}

func TestLatestSummary(t *testing.T) {
	s, src := newService(`Testland,2021-01-01,1000,3,1,10,,,
Testland,2021-01-03,1000,7,,,,,
Testland,2021-01-02,1000,5,2,,,,
`)
	got, err := s.LatestSummary(context.Background(), "testland")
	require.NoError(t, err)
	assert.Equal(t, &Summary{
		Country:         "Testland",
		NewCases:        &DatedValue{Value: 7, Date: "2021-01-03"},
		NewDeaths:       &DatedValue{Value: 2, Date: "2021-01-02"},
		NewVaccinations: &DatedValue{Value: 10, Date: "2021-01-01"},
	}, got)
	assert.Equal(t, 1, src.loads)
}

func TestLatestSummary_MissingMetricOmitted(t *testing.T) {
	s, _ := newService("Testland,2021-01-01,1000,3,,,,,\n")
	got, err := s.LatestSummary(context.Background(), "Testland")
	require.NoError(t, err)
	assert.NotNil(t, got.NewCases)
	assert.Nil(t, got.NewDeaths, "a fully missing metric is never reported as zero")
	assert.Nil(t, got.NewVaccinations)
}

func TestLatestSummary_TieKeepsFirstRow(t *testing.T) {
	s, _ := newService(`Testland,2021-01-02,1000,4,,,,,
Testland,2021-01-02,1000,9,,,,,
`)
	got, err := s.LatestSummary(context.Background(), "Testland")
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.NewCases.Value)
}

func TestNotFound(t *testing.T) {
	s, _ := newService("Testland,2021-01-01,1000,3,1,10,5,4,1\n")
	ctx := context.Background()

	_, err := s.LatestSummary(ctx, "Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Trend(ctx, "Nowhere", "new_cases", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.VaccinationProgress(ctx, "Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)

	cmp, err := s.Compare(ctx, []string{"Nowhere"}, "new_cases")
	require.NoError(t, err)
	require.Len(t, cmp.Comparison, 1)
	assert.ErrorIs(t, cmp.Comparison[0].Err, ErrNotFound)
	assert.Nil(t, cmp.Comparison[0].Value)
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		metric string
		window int
		want   string
	}{
		{
			name:   "increasing",
			body:   "Testland,2021-01-01,1000,1,,,,,\nTestland,2021-01-02,1000,2,,,,,\n",
			metric: "new_cases",
			window: 1,
			want:   TrendIncreasing,
		},
		{
			name:   "stable",
			body:   "Testland,2021-01-01,1000,2,,,,,\nTestland,2021-01-02,1000,2,,,,,\n",
			metric: "new_cases",
			window: 1,
			want:   TrendStable,
		},
		{
			name:   "decreasing after sorting by date",
			body:   "Testland,2021-01-02,1000,1,,,,,\nTestland,2021-01-01,1000,5,,,,,\n",
			metric: "new_cases",
			window: 1,
			want:   TrendDecreasing,
		},
		{
			name: "window of three",
			body: "Testland,2021-01-01,1000,9,,,,,\nTestland,2021-01-02,1000,1,,,,,\n" +
				"Testland,2021-01-03,1000,1,,,,,\nTestland,2021-01-04,1000,2,,,,,\n",
			metric: "New Cases",
			window: 3,
			want:   TrendDecreasing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newService(tt.body)
			got, err := s.Trend(context.Background(), "Testland", tt.metric, tt.window)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Trend)
			assert.Equal(t, "new_cases", got.Metric)
			assert.Equal(t, tt.window, got.Window)
		})
	}
}

func TestTrend_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		metric  string
		window  int
		wantErr error
	}{
		{"invalid window", "Testland,2021-01-01,1000,1,,,,,\n", "new_cases", 0, ErrInvalidWindow},
		{"unknown metric", "Testland,2021-01-01,1000,1,,,,,\n", "hospital_beds", 1, ErrUnknownMetric},
		{"date is not a metric", "Testland,2021-01-01,1000,1,,,,,\n", "date", 1, ErrUnknownMetric},
		{"no metric data", "Testland,2021-01-01,1000,,,,,,\nTestland,2021-01-02,1000,,,,,,\n", "new_cases", 1, ErrNoMetricData},
		{"single row", "Testland,2021-01-01,1000,1,,,,,\n", "new_cases", 1, ErrInsufficientData},
		{"window too large", "Testland,2021-01-01,1000,1,,,,,\nTestland,2021-01-02,1000,2,,,,,\n", "new_cases", 2, ErrInsufficientData},
		{"missing sample", "Testland,2021-01-01,1000,1,,,,,\nTestland,2021-01-02,1000,,,,,,\n", "new_cases", 1, ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newService(tt.body)
			_, err := s.Trend(context.Background(), "Testland", tt.metric, tt.window)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCompare(t *testing.T) {
	s, _ := newService(`Testland,2021-01-01,1000,3,,,,,
Testland,2021-01-02,1000,8,,,,,
Otherland,2021-01-01,500,,,,,,
Thirdland,2021-01-05,100,1,,,,,
`)
	got, err := s.Compare(context.Background(),
		[]string{"Thirdland", "Nowhere", "testland", "Otherland", "Thirdland"}, "new cases")
	require.NoError(t, err)
	assert.Equal(t, "new_cases", got.Metric)
	require.Len(t, got.Comparison, 5)

	var countries []string
	for _, e := range got.Comparison {
		countries = append(countries, e.Country)
	}
	assert.Equal(t, []string{"Thirdland", "Nowhere", "Testland", "Otherland", "Thirdland"}, countries)

	require.NotNil(t, got.Comparison[0].Value)
	assert.Equal(t, 1.0, *got.Comparison[0].Value)
	assert.ErrorIs(t, got.Comparison[1].Err, ErrNotFound)
	assert.NotEmpty(t, got.Comparison[1].Error)
	assert.Equal(t, 8.0, *got.Comparison[2].Value)
	assert.Equal(t, "2021-01-02", got.Comparison[2].Date)
	assert.ErrorIs(t, got.Comparison[3].Err, ErrNoMetricData)
	assert.Equal(t, got.Comparison[0], got.Comparison[4])
}

func TestCompare_Errors(t *testing.T) {
	s, _ := newService("Testland,2021-01-01,1000,3,,,,,\n")
	_, err := s.Compare(context.Background(), nil, "new_cases")
	assert.ErrorIs(t, err, ErrNoCountries)
	_, err = s.Compare(context.Background(), []string{"Testland"}, "stringency_index")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestVaccinationProgress(t *testing.T) {
	s, _ := newService(`Testland,2021-01-01,1000,,,,100,50,
Testland,2021-01-02,2000,,,,300,,
Testland,2021-01-03,,,,,,,25
`)
	got, err := s.VaccinationProgress(context.Background(), "Testland")
	require.NoError(t, err)
	assert.Equal(t, &DatedValue{Value: 2000, Date: "2021-01-02"}, got.Population)
	assert.Equal(t, &VaccinationValue{Value: 300, Date: "2021-01-02", Percent: "15.00%"}, got.PeopleVaccinated)
	assert.Equal(t, &VaccinationValue{Value: 50, Date: "2021-01-01", Percent: "2.50%"}, got.PeopleFullyVaccinated)
	assert.Equal(t, &VaccinationValue{Value: 25, Date: "2021-01-03", Percent: "1.25%"}, got.TotalBoosters)
}

func TestVaccinationProgress_NoPopulation(t *testing.T) {
	s, _ := newService("Testland,2021-01-01,,,,,100,,\n")
	got, err := s.VaccinationProgress(context.Background(), "Testland")
	require.NoError(t, err)
	assert.Nil(t, got.Population)
	assert.Equal(t, &VaccinationValue{Value: 100, Date: "2021-01-01"}, got.PeopleVaccinated)
	assert.Nil(t, got.PeopleFullyVaccinated)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "33.33%", Percent(1, 3))
	assert.Equal(t, "100.00%", Percent(5, 5))
}

func TestNormalizeMetric(t *testing.T) {
	assert.Equal(t, "people_fully_vaccinated", NormalizeMetric(" People Fully Vaccinated "))
}

func TestLoadError(t *testing.T) {
	boom := errors.New("offline")
	s := NewService(&csvSource{err: boom})
	_, err := s.LatestSummary(context.Background(), "Testland")
	require.ErrorIs(t, err, boom)
}

func TestReloadsEveryCall(t *testing.T) {
	s, src := newService("Testland,2021-01-01,1000,3,,,,,\n")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.LatestSummary(ctx, "Testland")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.loads)
}
