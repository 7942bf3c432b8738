//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/covid-agent/model"
)

func TestRun_Conversation(t *testing.T) {
	var asked []string
	ask := func(_ context.Context, text string) (string, error) {
		asked = append(asked, text)
		return "answer to " + text, nil
	}
	var out bytes.Buffer
	in := strings.NewReader("How is Chile?\n\n  \nEXIT\nnever read\n")

	require.NoError(t, Run(context.Background(), in, &out, ask))

	assert.Equal(t, []string{"How is Chile?"}, asked)
	want := WelcomeMessage + "\n" + UsageMessage + "\n" + ExitHintMessage + "\n" +
		Prompt + "Agent: answer to How is Chile?\n" +
		Prompt + Prompt + Prompt
	assert.Equal(t, want, out.String())
}

func TestRun_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), strings.NewReader(""), &out, func(context.Context, string) (string, error) {
		t.Fatal("ask must not be called")
		return "", nil
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.String(), Prompt+"\n"))
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "quota",
			err:  &model.ResponseError{Type: model.ErrorTypeQuotaError, Message: "all keys exhausted"},
			want: []string{QuotaMessage},
		},
		{
			name: "resource exhausted text",
			err:  errors.New("rpc error: code = ResourceExhausted"),
			want: []string{QuotaMessage},
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: []string{"Agent: I'm sorry, I had trouble understanding that. Error: boom", RephraseMessage},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			ask := func(context.Context, string) (string, error) {
				calls++
				return "", tt.err
			}
			var out bytes.Buffer
			require.NoError(t, Run(context.Background(), strings.NewReader("q1\nq2\nexit\n"), &out, ask))
			assert.Equal(t, 2, calls, "the loop continues after an error")
			for _, line := range tt.want {
				assert.Equal(t, 2, strings.Count(out.String(), line))
			}
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ask := func(context.Context, string) (string, error) {
		cancel()
		return "", context.Canceled
	}
	var out bytes.Buffer
	require.NoError(t, Run(ctx, strings.NewReader("q1\nq2\n"), &out, ask))
	assert.NotContains(t, out.String(), "trouble understanding")
}

func TestPlayAnimation(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, PlayAnimation(context.Background(), &out, 0))
	assert.Equal(t, len(Frames), strings.Count(out.String(), clearScreen))
	assert.Contains(t, out.String(), "[========]")
	assert.True(t, strings.HasSuffix(out.String(), "COVID-19 DATA AGENT\n"))
}

func TestPlayAnimation_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := PlayAnimation(ctx, &out, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, strings.Count(out.String(), clearScreen))
}
