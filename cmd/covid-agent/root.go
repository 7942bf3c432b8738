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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/covid-agent/agent/llmagent"
	"trpc.group/trpc-go/covid-agent/config"
	"trpc.group/trpc-go/covid-agent/covid"
	"trpc.group/trpc-go/covid-agent/covid/dataset"
	"trpc.group/trpc-go/covid-agent/covid/query"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/model"
	"trpc.group/trpc-go/covid-agent/model/gemini"
	"trpc.group/trpc-go/covid-agent/model/openai"
	"trpc.group/trpc-go/covid-agent/telemetry/metric"
	"trpc.group/trpc-go/covid-agent/telemetry/trace"
)

const (
	appName = "covid-agent"
	version = "0.1.0"
)

// app carries the resolved configuration shared by all subcommands.
type app struct {
	configFile  string
	logLevel    string
	datasetFile string
	datasetURL  string
	modelName   string

	cfg *config.Config
	// newModel builds the chat model. It is replaced in tests.
	newModel func(cfg config.ModelConfig) (model.Model, error)
}

func newApp() *app {
	return &app{newModel: buildModel}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Ask questions about COVID-19 data",
		Long:          "covid-agent answers questions about the Our World in Data COVID-19 dataset.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "YAML config file (env "+config.EnvConfigFile+")")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.datasetFile, "dataset-file", "", "read the dataset from a local CSV file")
	flags.StringVar(&a.datasetURL, "dataset-url", "", "download the dataset from this URL")
	flags.StringVar(&a.modelName, "model", "", "model name")

	root.AddCommand(
		newChatCmd(a),
		newQueryCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newA2ACmd(a),
	)
	return root
}

// load resolves the configuration and applies command line overrides.
func (a *app) load() error {
	cfg, err := config.Load(config.WithFile(a.configFile))
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.datasetFile != "" {
		cfg.Dataset.File = a.datasetFile
	}
	if a.datasetURL != "" {
		cfg.Dataset.URL = a.datasetURL
	}
	if a.modelName != "" {
		cfg.Model.Name = a.modelName
	}
	log.SetLevel(cfg.Log.Level)
	a.cfg = cfg
	return nil
}

func (a *app) source() dataset.Source {
	if a.cfg.Dataset.File != "" {
		return dataset.NewFileSource(a.cfg.Dataset.File)
	}
	return dataset.NewHTTPSource(
		dataset.WithURL(a.cfg.Dataset.URL),
		dataset.WithTimeout(a.cfg.Dataset.Timeout),
	)
}

func (a *app) service() *query.Service {
	return query.NewService(a.source())
}

func (a *app) agent() (*llmagent.LLMAgent, error) {
	m, err := a.newModel(a.cfg.Model)
	if err != nil {
		return nil, err
	}
	return covid.NewAgent(m, a.service(), llmagent.WithGenerationConfig(model.GenerationConfig{
		MaxTokens:   a.cfg.Model.MaxTokens,
		Temperature: a.cfg.Model.Temperature,
	})), nil
}

// startTelemetry starts OTLP export when enabled. The returned function
// flushes and stops the exporters.
func (a *app) startTelemetry(ctx context.Context) (func(), error) {
	tc := a.cfg.Telemetry
	if !tc.Enabled {
		return func() {}, nil
	}
	cleanTrace, err := trace.Start(ctx,
		trace.WithEndpoint(tc.Endpoint),
		trace.WithProtocol(tc.Protocol),
		trace.WithServiceVersion(version),
	)
	if err != nil {
		return nil, fmt.Errorf("start tracing: %w", err)
	}
	cleanMetric, err := metric.Start(ctx,
		metric.WithEndpoint(tc.Endpoint),
		metric.WithProtocol(tc.Protocol),
	)
	if err != nil {
		_ = cleanTrace()
		return nil, fmt.Errorf("start metrics: %w", err)
	}
	return func() {
		if err := errors.Join(cleanMetric(), cleanTrace()); err != nil {
			log.Warnf("telemetry shutdown: %v", err)
		}
	}, nil
}

func buildModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		opts := []gemini.Option{gemini.WithAPIKeys(cfg.APIKeys...)}
		if cfg.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
		}
		return gemini.New(cfg.Name, opts...)
	case config.ProviderOpenAI:
		var opts []openai.Option
		if len(cfg.APIKeys) > 0 {
			opts = append(opts, openai.WithAPIKey(cfg.APIKeys[0]))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(cfg.Name, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
}
