// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/loomrun/engine/pkg/spec"
)

// best tracks the highest-scoring output seen across iterations. Ties
// keep the earliest (§4.8.6): a later equal score never replaces it.
type best struct {
	set      bool
	output   string
	score    float64
	iteration int
}

func (b *best) consider(output string, score float64, iteration int) {
	if !b.set || score > b.score {
		*b = best{set: true, output: output, score: score, iteration: iteration}
	}
}

// ExecuteEvaluatorOptimizer runs the producer/evaluator/optimizer loop
// (§4.8.6). Iteration 0 has the producer generate current_output;
// later iterations have the optimizer revise it using the prior
// evaluation. Termination is success once score >= quality_threshold,
// or the best-ever output once max_iterations is reached.
func ExecuteEvaluatorOptimizer(ctx context.Context, rt *Runtime, cfg *spec.EvaluatorOptimizerConfig) (map[string]any, error) {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 1
	}

	var currentOutput string
	var evaluation map[string]any
	var b best

	for iteration := 0; iteration < maxIter; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		root := map[string]any{"iteration": iteration, "current_output": currentOutput, "evaluation": evaluation}
		rendered, err := rt.render(cfg.Input, root)
		if err != nil {
			return nil, fmt.Errorf("orchestration: evaluator-optimizer input: %w", err)
		}

		genAgent := cfg.Producer
		if iteration > 0 {
			genAgent = cfg.Optimizer
		}
		rt.emit("eo.generate", map[string]any{"agent": genAgent, "iteration": iteration})
		genRes, err := rt.invoke(ctx, fmt.Sprintf("iteration[%d].generate", iteration), genAgent, rendered)
		if err != nil {
			return nil, fmt.Errorf("orchestration: generation agent %q: %w", genAgent, err)
		}
		currentOutput = genRes.Response

		rt.emit("eo.evaluate", map[string]any{"agent": cfg.Evaluator, "iteration": iteration})
		evalRes, err := rt.invoke(ctx, fmt.Sprintf("iteration[%d].evaluate", iteration), cfg.Evaluator, currentOutput)
		if err != nil {
			return nil, fmt.Errorf("orchestration: evaluator agent %q: %w", cfg.Evaluator, err)
		}

		evaluation = map[string]any{}
		if err := json.Unmarshal([]byte(evalRes.Response), &evaluation); err != nil {
			evaluation = map[string]any{"raw": evalRes.Response}
		}

		scoreRoot := map[string]any{"evaluation": evaluation}
		scoreVal, ok, err := rt.evalExpr(cfg.ScorePath, scoreRoot)
		if err != nil {
			return nil, fmt.Errorf("orchestration: score_path %q: %w", cfg.ScorePath, err)
		}
		score, _ := asFloat(scoreVal, ok)
		b.consider(currentOutput, score, iteration)

		rt.emit("eo.scored", map[string]any{"iteration": iteration, "score": score})

		if score >= cfg.QualityThreshold {
			return map[string]any{
				"iteration": iteration, "current_output": currentOutput, "evaluation": evaluation,
				"score": score, "best": map[string]any{"output": b.output, "score": b.score, "iteration": b.iteration},
				"terminated": "quality_threshold",
			}, nil
		}
	}

	return map[string]any{
		"iteration": maxIter - 1, "current_output": currentOutput, "evaluation": evaluation,
		"best": map[string]any{"output": b.output, "score": b.score, "iteration": b.iteration},
		"terminated": "max_iterations",
	}, nil
}

func asFloat(v any, ok bool) (float64, bool) {
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
