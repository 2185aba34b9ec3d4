// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package capability_test

import (
	"testing"

	"github.com/loomrun/engine/pkg/capability"
	"github.com/loomrun/engine/pkg/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSpec() *spec.Spec {
	return &spec.Spec{
		Agents: map[string]spec.AgentSpec{
			"writer": {ID: "writer", SecretFrom: "env:OPENAI_API_KEY"},
		},
		Pattern: spec.Pattern{Type: spec.PatternChain, Chain: &spec.ChainConfig{}},
	}
}

func TestGateAcceptsCleanSpec(t *testing.T) {
	g := capability.NewGate()
	rpt := g.Check(baseSpec())
	assert.False(t, rpt.Blocking())
}

func TestGateRejectsUnsupportedSecretSource(t *testing.T) {
	s := baseSpec()
	s.Agents["writer"] = spec.AgentSpec{ID: "writer", SecretFrom: "vault:secret/path"}

	g := capability.NewGate()
	rpt := g.Check(s)
	require.True(t, rpt.Blocking())
	assert.Equal(t, "/spec/agents/writer/secret_from", rpt.Issues[0].Pointer)
}

func TestGateRejectsMultiRoundOrchestration(t *testing.T) {
	s := baseSpec()
	s.Pattern = spec.Pattern{
		Type: spec.PatternOrchestratorWorkers,
		OrchestratorWorkers: &spec.OrchestratorWorkersConfig{
			Orchestrator: "lead",
			MaxRounds:    3,
		},
	}

	g := capability.NewGate()
	rpt := g.Check(s)
	require.True(t, rpt.Blocking())
}

func TestGateFlagsMultiTargetEdgeAsWarning(t *testing.T) {
	s := baseSpec()
	s.Pattern = spec.Pattern{
		Type: spec.PatternGraph,
		Graph: &spec.GraphConfig{
			StartNode: "a",
			Nodes: []spec.NodeConfig{
				{ID: "a", Edges: []spec.EdgeConfig{{Targets: []string{"b", "c"}}}},
				{ID: "b"},
				{ID: "c"},
			},
		},
	}

	g := capability.NewGate()
	rpt := g.Check(s)
	assert.False(t, rpt.Blocking())
	require.Len(t, rpt.Issues, 1)
	assert.Equal(t, capability.SeverityWarn, rpt.Issues[0].Severity)
}

func TestGateRejectsDanglingEdgeTarget(t *testing.T) {
	s := baseSpec()
	s.Pattern = spec.Pattern{
		Type: spec.PatternGraph,
		Graph: &spec.GraphConfig{
			StartNode: "a",
			Nodes: []spec.NodeConfig{
				{ID: "a", Edges: []spec.EdgeConfig{{Targets: []string{"missing"}}}},
			},
		},
	}

	g := capability.NewGate()
	rpt := g.Check(s)
	assert.True(t, rpt.Blocking())
}

func TestGateAcceptsValidCronSchedule(t *testing.T) {
	s := baseSpec()
	s.Schedule = "0 9 * * 1-5"

	g := capability.NewGate()
	rpt := g.Check(s)
	assert.False(t, rpt.Blocking())
}

func TestGateRejectsMalformedCronSchedule(t *testing.T) {
	s := baseSpec()
	s.Schedule = "not a cron expression"

	g := capability.NewGate()
	rpt := g.Check(s)
	require.True(t, rpt.Blocking())
	assert.Equal(t, "/spec/schedule", rpt.Issues[0].Pointer)
}
