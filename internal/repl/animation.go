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
	"context"
	"fmt"
	"io"
	"time"
)

// FrameDelay is the pause between boot animation frames.
const FrameDelay = 200 * time.Millisecond

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[2J"

// Frames is the boot animation.
var Frames = []string{
	"[        ]",
	"[=       ]",
	"[==      ]",
	"[===     ]",
	"[====    ]",
	"[=====   ]",
	"[======  ]",
	"[======= ]",
	"[========]",
	"BOOTING UP...",
	"COVID-19 DATA AGENT",
}

// PlayAnimation draws each frame on a cleared screen, waiting delay after
// each one. It stops early when ctx is done.
func PlayAnimation(ctx context.Context, w io.Writer, delay time.Duration) error {
	for _, frame := range Frames {
		if _, err := fmt.Fprintf(w, "%s\n        %s\n", clearScreen, frame); err != nil {
			return err
		}
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
