// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration_test

import (
	"testing"

	"github.com/loomrun/engine/pkg/modelpool"
	"github.com/loomrun/engine/pkg/orchestration"
	"github.com/loomrun/engine/pkg/provider"
	"github.com/loomrun/engine/pkg/provider/fake"
	"github.com/loomrun/engine/pkg/spec"
	"github.com/loomrun/engine/pkg/tool"
)

// newTestRuntime builds a Runtime wired to one fake.Client per agent id,
// keyed by a distinct model id so concurrent executors (parallel,
// workflow) never share a call counter across agents.
func newTestRuntime(t *testing.T, clients map[string]*fake.Client) *orchestration.Runtime {
	t.Helper()
	factory := fake.NewFactory()
	agents := make(map[string]spec.AgentSpec, len(clients))
	for id, client := range clients {
		key := provider.HandleKey{Provider: "fake", Model: "model-" + id}
		factory.Register(key, client)
		agents[id] = spec.AgentSpec{ID: id, Prompt: "You are " + id, ModelID: "model-" + id}
	}
	s := &spec.Spec{
		Runtime: spec.Runtime{Provider: "fake", ModelID: "unused"},
		Agents:  agents,
	}
	pool := modelpool.New(factory)
	return orchestration.New(s, pool, tool.NewRegistry(), nil, "run-1", map[string]any{}, nil, nil)
}

func scripted(texts ...string) *fake.Client {
	resps := make([]provider.Response, len(texts))
	for i, text := range texts {
		resps[i] = provider.Response{Text: text, TokensInput: 1, TokensOutput: 1}
	}
	return &fake.Client{Responses: resps}
}
