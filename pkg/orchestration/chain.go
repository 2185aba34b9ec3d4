// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/loomrun/engine/pkg/budget"
	"github.com/loomrun/engine/pkg/spec"
)

// ExecuteChain runs an ordered list of steps (§4.8.1). Step i's rendered
// input may reference steps[0..i-1] via the template root's "steps"
// slice. Abort on first step failure. seed pre-populates the root (e.g.
// routing's "classification" entry) before the first step runs; pass
// nil for a bare chain.
func ExecuteChain(ctx context.Context, rt *Runtime, cfg *spec.ChainConfig, seed map[string]any) (map[string]any, error) {
	return executeChainLabeled(ctx, rt, cfg, seed, "")
}

// executeChainLabeled is ExecuteChain with an explicit notes-journal label
// prefix, so a chain running as one of several concurrent Parallel branches
// doesn't collide with its siblings under the shared "steps[i]" label.
func executeChainLabeled(ctx context.Context, rt *Runtime, cfg *spec.ChainConfig, seed map[string]any, labelPrefix string) (map[string]any, error) {
	steps := make([]any, 0, len(cfg.Steps))
	root := make(map[string]any, len(seed)+1)
	for k, v := range seed {
		root[k] = v
	}
	root["steps"] = steps

	for i, step := range cfg.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rendered, err := rt.render(step.Input, root)
		if err != nil {
			return nil, fmt.Errorf("orchestration: chain step %d: %w", i, err)
		}

		rt.emit("step.started", map[string]any{"index": i, "agent": step.Agent})
		res, err := rt.invoke(ctx, fmt.Sprintf("%ssteps[%d]", labelPrefix, i), step.Agent, rendered)
		if err != nil {
			rt.emit("step.failed", map[string]any{"index": i, "agent": step.Agent, "error": err.Error()})
			if errors.Is(err, budget.ErrBudgetExceeded) {
				// The breaching step's own response still counts (§8 S6):
				// steps holds every attempt up to and including the one
				// that tripped the budget; no further step is attempted.
				entry := map[string]any{"response": res.Response, "tokens": res.Tokens, "metadata": res.Metadata}
				steps = append(steps, entry)
				root["steps"] = steps
				root["last_response"] = res.Response
				return root, fmt.Errorf("orchestration: chain step %d (agent %s): %w", i, step.Agent, err)
			}
			return nil, fmt.Errorf("orchestration: chain step %d (agent %s): %w", i, step.Agent, err)
		}
		rt.emit("step.finished", map[string]any{"index": i, "agent": step.Agent})

		entry := map[string]any{"response": res.Response, "tokens": res.Tokens, "metadata": res.Metadata}
		steps = append(steps, entry)
		root["steps"] = steps
		root["last_response"] = res.Response
	}

	return root, nil
}
