//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package dataset loads the Our World in Data COVID-19 table.
//
// The table is a flat CSV with one row per country and date. Besides the
// country and date columns every column is treated as a numeric metric;
// cells that are empty or not numbers are missing values.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"trpc.group/trpc-go/covid-agent/log"
)

// Column names with a fixed meaning.
const (
	ColumnCountry    = "country"
	ColumnDate       = "date"
	ColumnPopulation = "population"
)

// DateLayout is the layout of the date column.
const DateLayout = "2006-01-02"

// ErrMissingColumn is returned when the header lacks the country or date column.
var ErrMissingColumn = errors.New("dataset: missing required column")

// Row is one country on one date. A metric absent from Values is missing.
type Row struct {
	Country string
	Date    time.Time
	Values  map[string]float64
}

// Value returns the metric value and whether it is present.
func (r Row) Value(metric string) (float64, bool) {
	v, ok := r.Values[metric]
	return v, ok
}

// Dataset is an ordered collection of rows, in file order.
type Dataset struct {
	Rows    []Row
	Columns []string

	byCountry map[string][]int
	columns   map[string]struct{}
}

// countryKey case-folds a country name. Casers are not safe for concurrent use.
func countryKey(fold cases.Caser, name string) string {
	return fold.String(strings.TrimSpace(name))
}

// New builds a dataset from rows and the header columns.
func New(rows []Row, columns []string) *Dataset {
	d := &Dataset{
		Rows:      rows,
		Columns:   columns,
		byCountry: make(map[string][]int),
		columns:   make(map[string]struct{}, len(columns)),
	}
	for _, c := range columns {
		d.columns[c] = struct{}{}
	}
	fold := cases.Fold()
	for i, r := range rows {
		k := countryKey(fold, r.Country)
		d.byCountry[k] = append(d.byCountry[k], i)
	}
	return d
}

// Country returns the rows of one country in file order. The lookup ignores
// case and surrounding whitespace.
func (d *Dataset) Country(name string) []Row {
	idx := d.byCountry[countryKey(cases.Fold(), name)]
	if len(idx) == 0 {
		return nil
	}
	rows := make([]Row, 0, len(idx))
	for _, i := range idx {
		rows = append(rows, d.Rows[i])
	}
	return rows
}

// HasColumn reports whether the header contained the column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Countries returns the distinct country names in order of first appearance.
func (d *Dataset) Countries() []string {
	seen := make(map[string]struct{}, len(d.byCountry))
	var out []string
	fold := cases.Fold()
	for _, r := range d.Rows {
		k := countryKey(fold, r.Country)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r.Country)
	}
	return out
}

// Parse reads a CSV table. Rows with a malformed record, an empty country or
// an unparseable date are skipped.
func Parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make([]string, len(header))
	countryIdx, dateIdx := -1, -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		columns[i] = name
		switch name {
		case ColumnCountry:
			countryIdx = i
		case ColumnDate:
			dateIdx = i
		}
	}
	if countryIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnCountry)
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnDate)
	}

	var (
		rows    []Row
		skipped int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if len(record) <= countryIdx || len(record) <= dateIdx {
			skipped++
			continue
		}
		country := strings.TrimSpace(record[countryIdx])
		date, err := time.Parse(DateLayout, strings.TrimSpace(record[dateIdx]))
		if country == "" || err != nil {
			skipped++
			continue
		}

		row := Row{Country: country, Date: date, Values: make(map[string]float64)}
		for i, cell := range record {
			if i == countryIdx || i == dateIdx || i >= len(columns) {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if v, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
				row.Values[columns[i]] = v
			}
		}
		rows = append(rows, row)
	}
	if skipped > 0 {
		log.Debugf("dataset: skipped %d malformed rows", skipped)
	}
	return New(rows, columns), nil
}
