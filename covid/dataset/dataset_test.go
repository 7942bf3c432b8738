//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `country,date,continent,population,new_cases,new_deaths
Testland,2021-01-02,Europe,1000,5,
Testland,2021-01-01,Europe,1000,3,1
Otherland,2021-01-01,Asia,,NaN,0
,2021-01-01,Asia,10,1,1
Badland,not-a-date,Asia,10,1,1
`

func TestParse(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"country", "date", "continent", "population", "new_cases", "new_deaths"}, d.Columns)
	require.Len(t, d.Rows, 3, "rows with empty country or bad date are skipped")

	first := d.Rows[0]
	assert.Equal(t, "Testland", first.Country)
	assert.Equal(t, time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, map[string]float64{"population": 1000, "new_cases": 5}, first.Values)

	v, ok := first.Value("new_deaths")
	assert.False(t, ok)
	assert.Zero(t, v)

	// Non-numeric and NaN cells are missing values.
	other := d.Rows[2]
	assert.Equal(t, map[string]float64{"new_deaths": 0}, other.Values)
}

func TestParse_HeaderNormalization(t *testing.T) {
	d, err := Parse(strings.NewReader("\ufeffCountry, Date ,New_Cases\nTestland,2021-01-01,4\n"))
	require.NoError(t, err)
	assert.True(t, d.HasColumn("new_cases"))
	require.Len(t, d.Rows, 1)
	assert.Equal(t, 4.0, d.Rows[0].Values["new_cases"])
}

func TestParse_MissingColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("country,new_cases\nTestland,1\n"))
	require.ErrorIs(t, err, ErrMissingColumn)

	_, err = Parse(strings.NewReader("date,new_cases\n2021-01-01,1\n"))
	require.ErrorIs(t, err, ErrMissingColumn)

	_, err = Parse(strings.NewReader(""))
	require.Error(t, err)
}

func TestParse_SkipsShortRecords(t *testing.T) {
	d, err := Parse(strings.NewReader("country,date,new_cases\nTestland,2021-01-01,1\nTestland\nTestland,2021-01-02,2\n"))
	require.NoError(t, err)
	require.Len(t, d.Rows, 2)
	assert.Equal(t, 2.0, d.Rows[1].Values["new_cases"])
}

func TestDataset_Country(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	rows := d.Country("  testLAND ")
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Date.Day(), "file order is kept")
	assert.Equal(t, 1, rows[1].Date.Day())

	assert.Nil(t, d.Country("Nowhere"))
	assert.Equal(t, []string{"Testland", "Otherland"}, d.Countries())
	assert.False(t, d.HasColumn("people_vaccinated"))
}
