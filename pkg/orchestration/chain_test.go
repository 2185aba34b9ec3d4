// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration_test

import (
	"context"
	"testing"

	"github.com/loomrun/engine/pkg/orchestration"
	"github.com/loomrun/engine/pkg/provider/fake"
	"github.com/loomrun/engine/pkg/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteChainThreadsStepsThroughRoot(t *testing.T) {
	rt := newTestRuntime(t, map[string]*fake.Client{
		"drafter": scripted("draft one"),
		"editor":  scripted("edited draft"),
	})
	cfg := &spec.ChainConfig{Steps: []spec.StepConfig{
		{Agent: "drafter", Input: "write something"},
		{Agent: "editor", Input: "polish: {{ steps[0].response }}"},
	}}

	root, err := orchestration.ExecuteChain(context.Background(), rt, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "edited draft", root["last_response"])
	steps := root["steps"].([]any)
	require.Len(t, steps, 2)
	assert.Equal(t, "draft one", steps[0].(map[string]any)["response"])

	require.Len(t, rt.Notes.Records, 2)
	assert.Equal(t, "steps[0]", rt.Notes.Records[0].StepOrNodeID)
	assert.Equal(t, "drafter", rt.Notes.Records[0].AgentID)
	assert.Equal(t, "steps[1]", rt.Notes.Records[1].StepOrNodeID)
}

func TestExecuteChainAbortsOnFirstFailure(t *testing.T) {
	rt := newTestRuntime(t, map[string]*fake.Client{
		"only": {Responses: nil},
	})
	cfg := &spec.ChainConfig{Steps: []spec.StepConfig{{Agent: "only", Input: "x"}}}

	_, err := orchestration.ExecuteChain(context.Background(), rt, cfg, nil)
	require.Error(t, err)
}

func TestExecuteChainSeedIsVisibleToFirstStep(t *testing.T) {
	rt := newTestRuntime(t, map[string]*fake.Client{
		"agent": scripted("ok"),
	})
	cfg := &spec.ChainConfig{Steps: []spec.StepConfig{{Agent: "agent", Input: "class={{ classification }}"}}}

	root, err := orchestration.ExecuteChain(context.Background(), rt, cfg, map[string]any{"classification": "billing"})
	require.NoError(t, err)
	assert.Equal(t, "billing", root["classification"])
}
