// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration

import (
	"context"
	"fmt"

	"github.com/loomrun/engine/pkg/spec"
)

// Dispatch runs pattern p against rt, selecting among the seven
// executor functions by p.Type. Exactly one of p's variant fields is
// expected to be populated, matching the discriminated-union shape
// spec.Pattern carries.
func Dispatch(ctx context.Context, rt *Runtime, p *spec.Pattern) (map[string]any, error) {
	switch p.Type {
	case spec.PatternChain:
		if p.Chain == nil {
			return nil, fmt.Errorf("orchestration: pattern type %q missing chain config", p.Type)
		}
		return ExecuteChain(ctx, rt, p.Chain, nil)
	case spec.PatternRouting:
		if p.Routing == nil {
			return nil, fmt.Errorf("orchestration: pattern type %q missing routing config", p.Type)
		}
		return ExecuteRouting(ctx, rt, p.Routing)
	case spec.PatternParallel:
		if p.Parallel == nil {
			return nil, fmt.Errorf("orchestration: pattern type %q missing parallel config", p.Type)
		}
		return ExecuteParallel(ctx, rt, p.Parallel)
	case spec.PatternWorkflow:
		if p.Workflow == nil {
			return nil, fmt.Errorf("orchestration: pattern type %q missing workflow config", p.Type)
		}
		return ExecuteWorkflow(ctx, rt, p.Workflow)
	case spec.PatternGraph:
		if p.Graph == nil {
			return nil, fmt.Errorf("orchestration: pattern type %q missing graph config", p.Type)
		}
		return ExecuteGraph(ctx, rt, p.Graph)
	case spec.PatternEvaluatorOptimizer:
		if p.EvaluatorOptimizer == nil {
			return nil, fmt.Errorf("orchestration: pattern type %q missing evaluator_optimizer config", p.Type)
		}
		return ExecuteEvaluatorOptimizer(ctx, rt, p.EvaluatorOptimizer)
	case spec.PatternOrchestratorWorkers:
		if p.OrchestratorWorkers == nil {
			return nil, fmt.Errorf("orchestration: pattern type %q missing orchestrator_workers config", p.Type)
		}
		return ExecuteOrchestratorWorkers(ctx, rt, p.OrchestratorWorkers)
	default:
		return nil, fmt.Errorf("orchestration: unknown pattern type %q", p.Type)
	}
}
