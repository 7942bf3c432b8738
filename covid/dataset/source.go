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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel/codes"

	itelemetry "trpc.group/trpc-go/covid-agent/internal/telemetry"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/telemetry/metric"
	"trpc.group/trpc-go/covid-agent/telemetry/trace"
)

// DefaultURL is the published OWID compact COVID-19 table.
const DefaultURL = "https://catalog.ourworldindata.org/garden/covid/latest/compact/compact.csv"

const defaultTimeout = 60 * time.Second

// ErrUnexpectedStatus is returned when the dataset server answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("dataset: unexpected HTTP status")

// Source loads a fresh dataset snapshot on every call.
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
}

// HTTPSource downloads the table over HTTP.
type HTTPSource struct {
	url    string
	client *http.Client
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithURL overrides DefaultURL.
func WithURL(url string) HTTPOption {
	return func(s *HTTPSource) {
		if url != "" {
			s.url = url
		}
	}
}

// WithTimeout bounds each download.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// NewHTTPSource creates an HTTPSource for DefaultURL.
func NewHTTPSource(opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:    DefaultURL,
		client: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the address the source downloads from.
func (s *HTTPSource) URL() string { return s.url }

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context) (*Dataset, error) {
	return load(ctx, "http", s.url, func(ctx context.Context) (*Dataset, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create dataset request: %w", err)
		}
		rsp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download dataset: %w", err)
		}
		defer rsp.Body.Close()
		if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
			io.Copy(io.Discard, io.LimitReader(rsp.Body, 4096))
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, rsp.Status)
		}
		return Parse(rsp.Body)
	})
}

// FileSource reads the table from a local file.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (*Dataset, error) {
	return load(ctx, "file", s.path, func(context.Context) (*Dataset, error) {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
		defer f.Close()
		return Parse(f)
	})
}

func load(
	ctx context.Context,
	kind, location string,
	fn func(context.Context) (*Dataset, error),
) (*Dataset, error) {
	ctx, span := trace.Tracer.Start(ctx, itelemetry.SpanNameDatasetLoad)
	defer span.End()

	start := time.Now()
	d, err := fn(ctx)
	metric.IncDatasetLoad(ctx, kind, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	itelemetry.TraceDatasetLoad(span, location, len(d.Rows))
	log.Debugf("dataset: loaded %d rows from %s in %s", len(d.Rows), location, time.Since(start))
	return d, nil
}
