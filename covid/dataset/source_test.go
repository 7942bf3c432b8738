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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_LoadsEveryCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	src := NewHTTPSource(WithURL(srv.URL), WithTimeout(time.Second))
	assert.Equal(t, srv.URL, src.URL())

	for i := 0; i < 2; i++ {
		d, err := src.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, d.Rows, 3)
	}
	assert.Equal(t, int32(2), hits.Load(), "no caching between loads")
}

func TestHTTPSource_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(WithURL(srv.URL), WithHTTPClient(srv.Client())).Load(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestHTTPSource_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPSource(WithURL(srv.URL)).Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSource_Defaults(t *testing.T) {
	src := NewHTTPSource(WithURL(""), WithTimeout(0), WithHTTPClient(nil))
	assert.Equal(t, DefaultURL, src.URL())
	assert.Equal(t, defaultTimeout, src.client.Timeout)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compact.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	d, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, d.Country("Testland"), 2)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).Load(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}
