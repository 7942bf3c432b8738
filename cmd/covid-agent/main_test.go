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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/covid-agent/config"
	"trpc.group/trpc-go/covid-agent/internal/repl"
	"trpc.group/trpc-go/covid-agent/model"
	"trpc.group/trpc-go/covid-agent/model/gemini"
	"trpc.group/trpc-go/covid-agent/model/openai"
)

const testCSV = `country,date,population,new_cases,new_deaths,new_vaccinations,people_vaccinated,people_fully_vaccinated,total_boosters
Testland,2021-01-01,1000,3,1,10,100,50,
Testland,2021-01-02,1000,5,2,,200,,10
Otherland,2021-01-02,500,9,,,,,
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "owid.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o600))
	return path
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, a *app, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("COVID_AGENT_MODEL_PROVIDER", "")
	t.Setenv(config.EnvConfigFile, "")
	root := newRootCmd(a)
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQuery_Text(t *testing.T) {
	csv := writeCSV(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"summary", []string{"query", "summary", "Testland"}, "Testland"},
		{"trend", []string{"query", "trend", "Testland", "--window", "1"}, "increasing"},
		{"compare", []string{"query", "compare", "Otherland", "Testland", "--metric", "new_cases"}, "Otherland"},
		{"vaccinations", []string{"query", "vaccinations", "testland"}, "20.00%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, newApp(), "", append(tt.args, "--dataset-file", csv)...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestQuery_JSON(t *testing.T) {
	out, err := run(t, newApp(), "", "query", "summary", "Testland", "--json", "--dataset-file", writeCSV(t))
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "Testland", rec["country"])
	cases, ok := rec["new_cases"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 5.0, cases["value"])
	assert.Equal(t, "2021-01-02", cases["date"])
}

func TestQuery_NotFound(t *testing.T) {
	_, err := run(t, newApp(), "", "query", "summary", "Nowhere", "--dataset-file", writeCSV(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// cannedModel answers every request with the same text.
type cannedModel struct{ text string }

func (m *cannedModel) Info() model.Info { return model.Info{Name: "canned"} }

func (m *cannedModel) GenerateContent(context.Context, *model.Request) (<-chan *model.Response, error) {
	ch := make(chan *model.Response, 1)
	ch <- &model.Response{Done: true, Choices: []model.Choice{{Message: model.NewAssistantMessage(m.text)}}}
	close(ch)
	return ch, nil
}

func TestChat(t *testing.T) {
	a := newApp()
	a.newModel = func(config.ModelConfig) (model.Model, error) {
		return &cannedModel{text: "Cases are rising."}, nil
	}
	out, err := run(t, a, "How is Testland?\nexit\n", "chat", "--no-animation", "--dataset-file", writeCSV(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, repl.WelcomeMessage))
	assert.Contains(t, out, "Agent: Cases are rising.")
	assert.NotContains(t, out, "BOOTING UP")
}

func TestLoad_FlagOverrides(t *testing.T) {
	a := newApp()
	_, err := run(t, a, "", "query", "summary", "Testland",
		"--dataset-file", writeCSV(t), "--model", "gemini-2.0-flash", "--log-level", "warn")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", a.cfg.Model.Name)
	assert.Equal(t, "warn", a.cfg.Log.Level)
}

func TestBuildModel(t *testing.T) {
	t.Setenv(gemini.GoogleAPIKeyEnv, "")

	m, err := buildModel(config.ModelConfig{Provider: config.ProviderGemini, Name: "g", APIKeys: []string{"k"}})
	require.NoError(t, err)
	assert.IsType(t, &gemini.Model{}, m)

	_, err = buildModel(config.ModelConfig{Provider: config.ProviderGemini, Name: "g"})
	require.ErrorIs(t, err, gemini.ErrNoAPIKey)

	m, err = buildModel(config.ModelConfig{Provider: config.ProviderOpenAI, Name: "o", APIKeys: []string{"k"}})
	require.NoError(t, err)
	assert.IsType(t, &openai.Model{}, m)

	_, err = buildModel(config.ModelConfig{Provider: "llama"})
	require.ErrorIs(t, err, config.ErrUnknownProvider)
}
