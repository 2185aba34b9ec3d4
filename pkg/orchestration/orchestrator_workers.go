// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/loomrun/engine/pkg/execctx"
	"github.com/loomrun/engine/pkg/spec"
	"golang.org/x/sync/errgroup"
)

// assignment is one unit of work the orchestrator agent hands to a
// worker: a caller-assigned task id, which declared worker agent runs
// it, and its rendered input.
type assignment struct {
	ID     string `json:"id"`
	Worker string `json:"worker"`
	Input  string `json:"input"`
}

// ExecuteOrchestratorWorkers has an orchestrator agent plan a set of
// worker assignments, then runs them concurrently bounded by
// MaxParallel, else runtime.max_parallel; with both unset the workers
// run without a concurrency limit (§4.8.7). The orchestrator's response must be a JSON
// array of {"id","worker","input"} objects naming one of cfg.Workers
// each, with a task id unique across the plan; worker_results is keyed
// by that id, not by position. Only a single planning round is
// supported; the capability gate rejects specs that declare
// MaxRounds > 1 before this ever runs.
func ExecuteOrchestratorWorkers(ctx context.Context, rt *Runtime, cfg *spec.OrchestratorWorkersConfig) (map[string]any, error) {
	allowed := make(map[string]bool, len(cfg.Workers))
	for _, w := range cfg.Workers {
		allowed[w] = true
	}

	rendered, err := rt.render(cfg.Input, nil)
	if err != nil {
		return nil, fmt.Errorf("orchestration: orchestrator input: %w", err)
	}

	rt.emit("orchestrator.planning", map[string]any{"agent": cfg.Orchestrator})
	planRes, err := rt.invoke(ctx, "orchestrator.plan", cfg.Orchestrator, rendered)
	if err != nil {
		return nil, fmt.Errorf("orchestration: orchestrator agent %q: %w", cfg.Orchestrator, err)
	}

	var plan []assignment
	if err := json.Unmarshal([]byte(planRes.Response), &plan); err != nil {
		return nil, fmt.Errorf("orchestration: orchestrator plan is not a JSON array of assignments: %w", err)
	}
	seenIDs := make(map[string]bool, len(plan))
	for _, a := range plan {
		if !allowed[a.Worker] {
			return nil, fmt.Errorf("orchestration: plan assigns undeclared worker %q", a.Worker)
		}
		if a.ID == "" {
			return nil, fmt.Errorf("orchestration: plan assignment for worker %q is missing an id", a.Worker)
		}
		if seenIDs[a.ID] {
			return nil, fmt.Errorf("orchestration: plan assigns duplicate task id %q", a.ID)
		}
		seenIDs[a.ID] = true
	}

	ec := execctx.New()
	g, gctx := errgroup.WithContext(ctx)
	limit := cfg.MaxParallel
	if limit <= 0 {
		limit = rt.Spec.Runtime.MaxParallel
	}
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, a := range plan {
		a := a
		g.Go(func() error {
			rt.emit("worker.started", map[string]any{"worker": a.Worker, "task": a.ID})
			res, err := rt.invoke(gctx, "tasks."+a.ID, a.Worker, a.Input)
			if err != nil {
				rt.emit("worker.failed", map[string]any{"worker": a.Worker, "task": a.ID, "error": err.Error()})
				return fmt.Errorf("orchestration: worker %q (task %q): %w", a.Worker, a.ID, err)
			}
			entry := map[string]any{"worker": a.Worker, "input": a.Input, "response": res.Response, "tokens": res.Tokens}
			if err := ec.Set(a.ID, entry); err != nil {
				return fmt.Errorf("orchestration: worker %q (task %q): %w", a.Worker, a.ID, err)
			}
			rt.emit("worker.finished", map[string]any{"worker": a.Worker, "task": a.ID})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	root := map[string]any{"plan": plan, "worker_results": ec.Snapshot()}

	if cfg.Reduce != nil {
		rendered, err := rt.render(cfg.Reduce.Input, root)
		if err != nil {
			return nil, fmt.Errorf("orchestration: reduce input: %w", err)
		}
		res, err := rt.invoke(ctx, "orchestrator.reduce", cfg.Reduce.Agent, rendered)
		if err != nil {
			return nil, fmt.Errorf("orchestration: reduce agent %q: %w", cfg.Reduce.Agent, err)
		}
		root["reduced"] = map[string]any{"response": res.Response, "tokens": res.Tokens}
	}

	return root, nil
}
