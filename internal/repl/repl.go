//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package repl implements the interactive chat loop of the covid-agent CLI.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/model"
)

// Lines printed by the loop.
const (
	Prompt          = "You: "
	ExitCommand     = "exit"
	WelcomeMessage  = "Agent: Welcome to the COVID-19 Data Agent!"
	UsageMessage    = "Agent: You can ask me questions about COVID-19 data."
	ExitHintMessage = "Agent: Type 'exit' to quit."
	QuotaMessage    = "Agent: I'm sorry, I've hit my request limit for the day. Please try again tomorrow."
	RephraseMessage = "Agent: Please try rephrasing your question."
)

// AskFunc answers one user line.
type AskFunc func(ctx context.Context, text string) (string, error)

// Run greets the user and answers lines from in until "exit", end of input
// or cancellation of ctx. Errors from ask are reported and the loop goes on.
func Run(ctx context.Context, in io.Reader, out io.Writer, ask AskFunc) error {
	w := bufio.NewWriter(out)
	say := func(s string) {
		fmt.Fprintln(w, s)
	}
	say(WelcomeMessage)
	say(UsageMessage)
	say(ExitHintMessage)

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return w.Flush()
		}
		fmt.Fprint(w, Prompt)
		if err := w.Flush(); err != nil {
			return err
		}
		if !scanner.Scan() {
			// End of input ends the session like "exit".
			fmt.Fprintln(w)
			if err := w.Flush(); err != nil {
				return err
			}
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, ExitCommand) {
			return w.Flush()
		}
		if line == "" {
			continue
		}

		reply, err := ask(ctx, line)
		switch {
		case err == nil:
			say("Agent: " + reply)
		case ctx.Err() != nil:
			return w.Flush()
		case model.IsQuotaExhausted(err):
			log.Warnf("model quota exhausted: %v", err)
			say(QuotaMessage)
		default:
			say(fmt.Sprintf("Agent: I'm sorry, I had trouble understanding that. Error: %v", err))
			say(RephraseMessage)
		}
	}
}
