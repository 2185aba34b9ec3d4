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

func TestExecuteParallelRunsAllBranches(t *testing.T) {
	rt := newTestRuntime(t, map[string]*fake.Client{
		"pros": scripted("pros: fast"),
		"cons": scripted("cons: costly"),
	})
	cfg := &spec.ParallelConfig{
		Branches: []spec.BranchConfig{
			{ID: "pros", Chain: spec.ChainConfig{Steps: []spec.StepConfig{{Agent: "pros", Input: "list pros"}}}},
			{ID: "cons", Chain: spec.ChainConfig{Steps: []spec.StepConfig{{Agent: "cons", Input: "list cons"}}}},
		},
	}

	root, err := orchestration.ExecuteParallel(context.Background(), rt, cfg)
	require.NoError(t, err)
	branches := root["branches"].(map[string]any)
	assert.Equal(t, "pros: fast", branches["pros"].(map[string]any)["response"])
	assert.Equal(t, "cons: costly", branches["cons"].(map[string]any)["response"])

	var labels []string
	for _, rec := range rt.Notes.Records {
		labels = append(labels, rec.StepOrNodeID)
	}
	assert.ElementsMatch(t, []string{"branches.pros.steps[0]", "branches.cons.steps[0]"}, labels)
}

func TestExecuteParallelRunsReduceOverBranchResults(t *testing.T) {
	rt := newTestRuntime(t, map[string]*fake.Client{
		"pros":    scripted("pros: fast"),
		"cons":    scripted("cons: costly"),
		"reducer": scripted("balanced summary"),
	})
	cfg := &spec.ParallelConfig{
		Branches: []spec.BranchConfig{
			{ID: "pros", Chain: spec.ChainConfig{Steps: []spec.StepConfig{{Agent: "pros", Input: "list pros"}}}},
			{ID: "cons", Chain: spec.ChainConfig{Steps: []spec.StepConfig{{Agent: "cons", Input: "list cons"}}}},
		},
		Reduce: &spec.StepConfig{Agent: "reducer", Input: "combine {{ branches.pros.response }} and {{ branches.cons.response }}"},
	}

	root, err := orchestration.ExecuteParallel(context.Background(), rt, cfg)
	require.NoError(t, err)
	assert.Equal(t, "balanced summary", root["reduce"].(map[string]any)["response"])
}

func TestExecuteParallelFailFastOnBranchFailure(t *testing.T) {
	rt := newTestRuntime(t, map[string]*fake.Client{
		"ok":  scripted("fine"),
		"bad": {Responses: nil},
	})
	cfg := &spec.ParallelConfig{
		Branches: []spec.BranchConfig{
			{ID: "ok", Chain: spec.ChainConfig{Steps: []spec.StepConfig{{Agent: "ok", Input: "x"}}}},
			{ID: "bad", Chain: spec.ChainConfig{Steps: []spec.StepConfig{{Agent: "bad", Input: "x"}}}},
		},
	}

	_, err := orchestration.ExecuteParallel(context.Background(), rt, cfg)
	require.Error(t, err)
}
