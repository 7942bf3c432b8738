//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel(LevelInfo)
	cases := []struct {
		in       string
		expected zapcore.Level
	}{
		{LevelDebug, zapcore.DebugLevel},
		{LevelInfo, zapcore.InfoLevel},
		{LevelWarn, zapcore.WarnLevel},
		{LevelError, zapcore.ErrorLevel},
		{LevelFatal, zapcore.FatalLevel},
		{" DEBUG ", zapcore.DebugLevel},
		{"unknown", zapcore.InfoLevel},
	}
	for _, c := range cases {
		SetLevel(c.in)
		assert.Equal(t, c.expected, zapLevel.Level(), "SetLevel(%q)", c.in)
	}
}

func TestNew_HonorsSharedLevel(t *testing.T) {
	defer SetLevel(LevelInfo)
	var buf bytes.Buffer
	l := New(&buf)

	SetLevel(LevelWarn)
	l.Infof("dropped %d", 1)
	require.Empty(t, buf.String())

	l.Warnf("kept %d", 2)
	require.Contains(t, buf.String(), "kept 2")
	require.Contains(t, buf.String(), "WARN")

	SetLevel(LevelDebug)
	l.Debug("now visible")
	require.Contains(t, buf.String(), "now visible")
	assert.Equal(t, "debug", Level())
}

func TestPackageFunctionsUseDefault(t *testing.T) {
	var buf bytes.Buffer
	old := Default
	Default = New(&buf)
	defer func() { Default = old }()

	Infof("loaded %d rows", 3)
	Error("boom")
	assert.Contains(t, buf.String(), "loaded 3 rows")
	assert.Contains(t, buf.String(), "boom")
}
