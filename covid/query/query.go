//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package query answers the four COVID-19 questions over a dataset.
//
// Every call loads a fresh snapshot from the configured source. The latest
// value of a metric for a country is the value at the greatest date among
// the rows where that metric is present; when several rows share that date
// the first one in file order wins.
package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"trpc.group/trpc-go/covid-agent/covid/dataset"
)

// Metric names used by the fixed queries.
const (
	MetricNewCases              = "new_cases"
	MetricNewDeaths             = "new_deaths"
	MetricNewVaccinations       = "new_vaccinations"
	MetricPeopleVaccinated      = "people_vaccinated"
	MetricPeopleFullyVaccinated = "people_fully_vaccinated"
	MetricTotalBoosters         = "total_boosters"
	MetricPopulation            = dataset.ColumnPopulation
)

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// DefaultWindow is the moving average window used when none is given.
const DefaultWindow = 7

var (
	// ErrNotFound means the country has no rows in the dataset.
	ErrNotFound = errors.New("country not found")
	// ErrNoMetricData means the metric is missing on every row of the country.
	ErrNoMetricData = errors.New("no data for metric")
	// ErrInsufficientData means there are too few samples to compute a trend.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidWindow means the moving average window is smaller than one.
	ErrInvalidWindow = errors.New("window must be at least 1")
	// ErrUnknownMetric means the dataset has no such metric column.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrNoCountries means a comparison was requested without countries.
	ErrNoCountries = errors.New("no countries given")
)

// DatedValue is a metric value and the date it was recorded.
type DatedValue struct {
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}

// Summary is the latest case, death and vaccination figures of a country.
// Metrics without any data are nil.
type Summary struct {
	Country         string      `json:"country"`
	NewCases        *DatedValue `json:"new_cases,omitempty"`
	NewDeaths       *DatedValue `json:"new_deaths,omitempty"`
	NewVaccinations *DatedValue `json:"new_vaccinations,omitempty"`
}

// Trend is the direction of a metric's moving average.
type Trend struct {
	Country  string  `json:"country"`
	Metric   string  `json:"metric"`
	Window   int     `json:"window"`
	Trend    string  `json:"trend"`
	Latest   float64 `json:"latest_average"`
	Previous float64 `json:"previous_average"`
	Date     string  `json:"date"`
}

// ComparisonEntry is one country of a comparison. Exactly one of Value and
// Error is set.
type ComparisonEntry struct {
	Country string   `json:"country"`
	Value   *float64 `json:"value,omitempty"`
	Date    string   `json:"latest_date,omitempty"`
	Error   string   `json:"error,omitempty"`

	// Err is the failure behind Error.
	Err error `json:"-"`
}

// Comparison is the latest value of one metric across countries, in the
// order the countries were given.
type Comparison struct {
	Metric     string            `json:"metric"`
	Comparison []ComparisonEntry `json:"comparison"`
}

// VaccinationValue is a vaccination count with its share of the population.
type VaccinationValue struct {
	Value   float64 `json:"value"`
	Date    string  `json:"date"`
	Percent string  `json:"percent,omitempty"`
}

// Vaccination is the latest vaccination progress of a country. Percentages
// are omitted when the country has no population figure.
type Vaccination struct {
	Country               string            `json:"country"`
	Population            *DatedValue       `json:"population,omitempty"`
	PeopleVaccinated      *VaccinationValue `json:"people_vaccinated,omitempty"`
	PeopleFullyVaccinated *VaccinationValue `json:"people_fully_vaccinated,omitempty"`
	TotalBoosters         *VaccinationValue `json:"total_boosters,omitempty"`
}

// Service runs queries against a dataset source.
type Service struct {
	source dataset.Source
}

// NewService creates a Service reading from source.
func NewService(source dataset.Source) *Service {
	return &Service{source: source}
}

// NormalizeMetric lower-cases a metric name and replaces spaces with underscores.
func NormalizeMetric(metric string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(metric)), " ", "_")
}

// LatestSummary returns the latest new cases, deaths and vaccinations of country.
func (s *Service) LatestSummary(ctx context.Context, country string) (*Summary, error) {
	d, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := countryRows(d, country)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Country:         rows[0].Country,
		NewCases:        latest(rows, MetricNewCases),
		NewDeaths:       latest(rows, MetricNewDeaths),
		NewVaccinations: latest(rows, MetricNewVaccinations),
	}, nil
}

// Trend classifies the last step of the trailing moving average of metric.
func (s *Service) Trend(ctx context.Context, country, metric string, window int) (*Trend, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, window)
	}
	metric = NormalizeMetric(metric)
	d, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := countryRows(d, country)
	if err != nil {
		return nil, err
	}
	if !isMetric(d, metric) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	if latest(rows, metric) == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoMetricData, metric, rows[0].Country)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s has %d dated rows", ErrInsufficientData, rows[0].Country, len(rows))
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	n := len(rows)
	cur := movingAverage(rows, metric, n-1, window)
	prev := movingAverage(rows, metric, n-2, window)
	if math.IsNaN(cur) || math.IsNaN(prev) {
		return nil, fmt.Errorf("%w: the last two %d-row windows of %s are incomplete",
			ErrInsufficientData, window, metric)
	}

	direction := TrendStable
	switch {
	case cur > prev:
		direction = TrendIncreasing
	case cur < prev:
		direction = TrendDecreasing
	}
	return &Trend{
		Country:  rows[0].Country,
		Metric:   metric,
		Window:   window,
		Trend:    direction,
		Latest:   cur,
		Previous: prev,
		Date:     rows[n-1].Date.Format(dataset.DateLayout),
	}, nil
}

// Compare returns the latest value of metric for each country. A country
// that fails gets an entry error and does not abort the comparison.
func (s *Service) Compare(ctx context.Context, countries []string, metric string) (*Comparison, error) {
	if len(countries) == 0 {
		return nil, ErrNoCountries
	}
	metric = NormalizeMetric(metric)
	d, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if !isMetric(d, metric) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}

	out := &Comparison{Metric: metric, Comparison: make([]ComparisonEntry, 0, len(countries))}
	for _, country := range countries {
		entry := ComparisonEntry{Country: country}
		rows, err := countryRows(d, country)
		if err == nil {
			entry.Country = rows[0].Country
			if v := latest(rows, metric); v != nil {
				value := v.Value
				entry.Value, entry.Date = &value, v.Date
			} else {
				err = fmt.Errorf("%w: %s in %s", ErrNoMetricData, metric, entry.Country)
			}
		}
		if err != nil {
			entry.Err, entry.Error = err, err.Error()
		}
		out.Comparison = append(out.Comparison, entry)
	}
	return out, nil
}

// VaccinationProgress returns the latest vaccination counts of country and
// their share of its latest population.
func (s *Service) VaccinationProgress(ctx context.Context, country string) (*Vaccination, error) {
	d, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := countryRows(d, country)
	if err != nil {
		return nil, err
	}
	population := latest(rows, MetricPopulation)
	progress := func(metric string) *VaccinationValue {
		v := latest(rows, metric)
		if v == nil {
			return nil
		}
		out := &VaccinationValue{Value: v.Value, Date: v.Date}
		if population != nil && population.Value > 0 {
			out.Percent = Percent(v.Value, population.Value)
		}
		return out
	}
	return &Vaccination{
		Country:               rows[0].Country,
		Population:            population,
		PeopleVaccinated:      progress(MetricPeopleVaccinated),
		PeopleFullyVaccinated: progress(MetricPeopleFullyVaccinated),
		TotalBoosters:         progress(MetricTotalBoosters),
	}, nil
}

// Percent renders part/whole as a percentage with two decimals, e.g. "12.34%".
func Percent(part, whole float64) string {
	return fmt.Sprintf("%.2f%%", part/whole*100)
}

func (s *Service) load(ctx context.Context) (*dataset.Dataset, error) {
	d, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return d, nil
}

func countryRows(d *dataset.Dataset, country string) ([]dataset.Row, error) {
	rows := d.Country(country)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(country))
	}
	return rows, nil
}

func isMetric(d *dataset.Dataset, metric string) bool {
	if metric == dataset.ColumnCountry || metric == dataset.ColumnDate {
		return false
	}
	return d.HasColumn(metric)
}

// latest returns the value at the greatest date where metric is present.
func latest(rows []dataset.Row, metric string) *DatedValue {
	var (
		best  *dataset.Row
		value float64
	)
	for i := range rows {
		v, ok := rows[i].Value(metric)
		if !ok {
			continue
		}
		if best == nil || rows[i].Date.After(best.Date) {
			best, value = &rows[i], v
		}
	}
	if best == nil {
		return nil
	}
	return &DatedValue{Value: value, Date: best.Date.Format(dataset.DateLayout)}
}

// movingAverage is the mean of metric over the window rows ending at end.
// It is NaN when the window does not fit or a sample is missing.
func movingAverage(rows []dataset.Row, metric string, end, window int) float64 {
	start := end - window + 1
	if start < 0 {
		return math.NaN()
	}
	var sum float64
	for i := start; i <= end; i++ {
		v, ok := rows[i].Value(metric)
		if !ok {
			return math.NaN()
		}
		sum += v
	}
	return sum / float64(window)
}
