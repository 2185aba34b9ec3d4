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

func routingConfig() *spec.RoutingConfig {
	return &spec.RoutingConfig{
		RouterAgent: "router",
		Input:       "classify this",
		Routes: []spec.RouteConfig{
			{Name: "billing", Condition: `classification == "billing"`, Chain: spec.ChainConfig{
				Steps: []spec.StepConfig{{Agent: "billing_agent", Input: "handle billing"}},
			}},
			{Name: "tech", Condition: `classification == "tech"`, Chain: spec.ChainConfig{
				Steps: []spec.StepConfig{{Agent: "tech_agent", Input: "handle tech"}},
			}},
		},
		Default: &spec.ChainConfig{Steps: []spec.StepConfig{{Agent: "fallback_agent", Input: "handle other"}}},
	}
}

func TestExecuteRoutingSelectsFirstMatchingRoute(t *testing.T) {
	rt := newTestRuntime(t, map[string]*fake.Client{
		"router":         scripted("billing"),
		"billing_agent":  scripted("billing handled"),
		"tech_agent":     scripted("unused"),
		"fallback_agent": scripted("unused"),
	})

	root, err := orchestration.ExecuteRouting(context.Background(), rt, routingConfig())
	require.NoError(t, err)
	assert.Equal(t, "billing", root["selected_route"])
	assert.Equal(t, "billing handled", root["route_output"])
}

func TestExecuteRoutingFallsBackToDefault(t *testing.T) {
	rt := newTestRuntime(t, map[string]*fake.Client{
		"router":         scripted("unknown-category"),
		"billing_agent":  scripted("unused"),
		"tech_agent":     scripted("unused"),
		"fallback_agent": scripted("handled by default"),
	})

	root, err := orchestration.ExecuteRouting(context.Background(), rt, routingConfig())
	require.NoError(t, err)
	assert.Equal(t, "default", root["selected_route"])
	assert.Equal(t, "handled by default", root["route_output"])
}

func TestExecuteRoutingNoDefaultReturnsErrNoRouteMatched(t *testing.T) {
	cfg := routingConfig()
	cfg.Default = nil
	rt := newTestRuntime(t, map[string]*fake.Client{
		"router":        scripted("unmatched"),
		"billing_agent": scripted("unused"),
		"tech_agent":    scripted("unused"),
	})

	_, err := orchestration.ExecuteRouting(context.Background(), rt, cfg)
	require.ErrorIs(t, err, orchestration.ErrNoRouteMatched)
}
