//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package covid

import (
	"trpc.group/trpc-go/covid-agent/agent/llmagent"
	"trpc.group/trpc-go/covid-agent/covid/query"
	"trpc.group/trpc-go/covid-agent/model"
)

// AgentName is the name of the COVID-19 agent.
const AgentName = "covid_agent"

// Description describes the agent to users and peers.
const Description = "An agent that can answer questions about COVID-19 data."

// Instruction is the agent's system instruction.
const Instruction = "You are a helpful agent who can answer user questions about COVID-19 data. " +
	"Use the provided tools to answer the user's questions. " +
	"If the user's query is off-topic (not related to COVID-19 data), " +
	"politely decline the request and remind them of your purpose."

// NewAgent creates the COVID-19 agent on m with the query tools of svc.
// Extra options are applied after the defaults.
func NewAgent(m model.Model, svc *query.Service, opts ...llmagent.Option) *llmagent.LLMAgent {
	base := []llmagent.Option{
		llmagent.WithModel(m),
		llmagent.WithDescription(Description),
		llmagent.WithInstruction(Instruction),
		llmagent.WithTools(NewTools(svc)),
	}
	return llmagent.New(AgentName, append(base, opts...)...)
}
