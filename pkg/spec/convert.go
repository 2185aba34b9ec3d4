// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package spec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// convertPattern dispatches on the pattern type discriminator and decodes
// the untyped config payload into the matching tagged variant. This is the
// "convert untyped maps into typed, tagged values once, at the boundary"
// rule from spec §9 — everything downstream matches on Pattern.Type, never
// on raw maps.
func convertPattern(p patternYAML) (Pattern, error) {
	out := Pattern{Type: PatternType(p.Type)}

	switch out.Type {
	case PatternChain:
		var cfg ChainConfig
		if err := decodeInto(p.Config, &cfg); err != nil {
			return out, fmt.Errorf("%w: pattern.config (chain): %v", ErrInvalidSpec, err)
		}
		out.Chain = &cfg
	case PatternRouting:
		var cfg RoutingConfig
		if err := decodeInto(p.Config, &cfg); err != nil {
			return out, fmt.Errorf("%w: pattern.config (routing): %v", ErrInvalidSpec, err)
		}
		out.Routing = &cfg
	case PatternParallel:
		var cfg ParallelConfig
		if err := decodeInto(p.Config, &cfg); err != nil {
			return out, fmt.Errorf("%w: pattern.config (parallel): %v", ErrInvalidSpec, err)
		}
		out.Parallel = &cfg
	case PatternWorkflow:
		var cfg WorkflowConfig
		if err := decodeInto(p.Config, &cfg); err != nil {
			return out, fmt.Errorf("%w: pattern.config (workflow): %v", ErrInvalidSpec, err)
		}
		out.Workflow = &cfg
	case PatternGraph:
		var cfg GraphConfig
		if err := decodeInto(p.Config, &cfg); err != nil {
			return out, fmt.Errorf("%w: pattern.config (graph): %v", ErrInvalidSpec, err)
		}
		out.Graph = &cfg
	case PatternEvaluatorOptimizer:
		var cfg EvaluatorOptimizerConfig
		if err := decodeInto(p.Config, &cfg); err != nil {
			return out, fmt.Errorf("%w: pattern.config (evaluator_optimizer): %v", ErrInvalidSpec, err)
		}
		out.EvaluatorOptimizer = &cfg
	case PatternOrchestratorWorkers:
		var cfg OrchestratorWorkersConfig
		if err := decodeInto(p.Config, &cfg); err != nil {
			return out, fmt.Errorf("%w: pattern.config (orchestrator_workers): %v", ErrInvalidSpec, err)
		}
		out.OrchestratorWorkers = &cfg
	default:
		return out, fmt.Errorf("%w: unknown pattern type %q", ErrInvalidSpec, p.Type)
	}

	return out, nil
}

// decodeInto round-trips an untyped map through YAML into a typed struct.
// The pattern config payload already went through one YAML decode into
// map[string]any; this is a second, narrow decode into the concrete
// per-pattern shape, avoiding a reflection-heavy mapstructure dependency
// for what is otherwise a one-shot conversion.
func decodeInto(raw map[string]any, out any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}
