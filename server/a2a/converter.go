//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package a2a

import (
	"encoding/json"
	"strings"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"trpc.group/trpc-go/covid-agent/log"
)

// messageText joins the text and data parts of an A2A message into one user
// utterance. File parts are ignored.
func messageText(message protocol.Message) string {
	var texts []string
	for _, part := range message.Parts {
		switch p := part.(type) {
		case *protocol.TextPart:
			if s := strings.TrimSpace(p.Text); s != "" {
				texts = append(texts, s)
			}
		case *protocol.DataPart:
			raw, err := json.Marshal(p.Data)
			if err != nil {
				log.Warnf("a2a: skipping data part: %v", err)
				continue
			}
			texts = append(texts, string(raw))
		default:
			log.Debugf("a2a: skipping %s part", part.GetKind())
		}
	}
	return strings.Join(texts, "\n")
}
