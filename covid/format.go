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
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"trpc.group/trpc-go/covid-agent/covid/query"
)

const noData = "no data"

// MetricLabel turns a metric column name into a display label,
// e.g. "new_cases" becomes "New Cases".
func MetricLabel(metric string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(metric, "_", " "))
}

// formatCount renders a count with thousands separators. Fractions are kept
// to two decimals.
func formatCount(v float64) string {
	printer := message.NewPrinter(language.English)
	if v == float64(int64(v)) {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

func formatDated(v *query.DatedValue) string {
	if v == nil {
		return noData
	}
	return fmt.Sprintf("%s (%s)", formatCount(v.Value), v.Date)
}

// FormatSummary renders a latest summary as a text block.
func FormatSummary(s *query.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Latest COVID-19 summary for %s:\n", s.Country)
	fmt.Fprintf(&b, "  %s: %s\n", MetricLabel(query.MetricNewCases), formatDated(s.NewCases))
	fmt.Fprintf(&b, "  %s: %s\n", MetricLabel(query.MetricNewDeaths), formatDated(s.NewDeaths))
	fmt.Fprintf(&b, "  %s: %s", MetricLabel(query.MetricNewVaccinations), formatDated(s.NewVaccinations))
	return b.String()
}

// FormatTrend renders a trend as a text block.
func FormatTrend(t *query.Trend) string {
	return fmt.Sprintf("%s in %s is %s.\n  %d-day average: %s (previous %s), as of %s",
		MetricLabel(t.Metric), t.Country, t.Trend, t.Window,
		formatCount(t.Latest), formatCount(t.Previous), t.Date)
}

// FormatComparison renders a comparison as a text block, one line per country.
func FormatComparison(c *query.Comparison) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s by country:", MetricLabel(c.Metric))
	for _, e := range c.Comparison {
		if e.Value == nil {
			fmt.Fprintf(&b, "\n  %s: %s", e.Country, e.Error)
			continue
		}
		fmt.Fprintf(&b, "\n  %s: %s (%s)", e.Country, formatCount(*e.Value), e.Date)
	}
	return b.String()
}

// FormatVaccination renders vaccination progress as a text block.
func FormatVaccination(v *query.Vaccination) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vaccination progress for %s", v.Country)
	if v.Population != nil {
		fmt.Fprintf(&b, " (population %s)", formatCount(v.Population.Value))
	}
	b.WriteString(":")
	for _, item := range []struct {
		metric string
		value  *query.VaccinationValue
	}{
		{query.MetricPeopleVaccinated, v.PeopleVaccinated},
		{query.MetricPeopleFullyVaccinated, v.PeopleFullyVaccinated},
		{query.MetricTotalBoosters, v.TotalBoosters},
	} {
		fmt.Fprintf(&b, "\n  %s: ", MetricLabel(item.metric))
		switch {
		case item.value == nil:
			b.WriteString(noData)
		case item.value.Percent != "":
			fmt.Fprintf(&b, "%s (%s of population, %s)",
				formatCount(item.value.Value), item.value.Percent, item.value.Date)
		default:
			fmt.Fprintf(&b, "%s (%s)", formatCount(item.value.Value), item.value.Date)
		}
	}
	return b.String()
}
