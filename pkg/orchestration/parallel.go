// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration

import (
	"context"
	"fmt"

	"github.com/loomrun/engine/pkg/execctx"
	"github.com/loomrun/engine/pkg/spec"
	"golang.org/x/sync/errgroup"
)

// ExecuteParallel runs independent branches concurrently, bounded by
// MaxParallel (§4.8.3), else runtime.max_parallel, else 5. Failure model
// is fail-fast: the first branch
// failure cancels all pending branches via errgroup's built-in
// cancel-on-first-error behavior — a deliberate divergence from the
// teacher's hand-rolled WaitGroup+channel fan-out (pkg/orchestration/
// parallel_executor.go in the retrieved tree), which waits for every
// goroutine before inspecting errors. Partially completed branches
// remain recorded in the context even though the run aborts.
func ExecuteParallel(ctx context.Context, rt *Runtime, cfg *spec.ParallelConfig) (map[string]any, error) {
	ec := execctx.New()
	g, gctx := errgroup.WithContext(ctx)
	limit := cfg.MaxParallel
	if limit <= 0 {
		limit = rt.Spec.Runtime.MaxParallel
	}
	if limit <= 0 {
		limit = 5
	}
	g.SetLimit(limit)

	for _, branch := range cfg.Branches {
		branch := branch
		g.Go(func() error {
			rt.emit("branch.started", map[string]any{"branch": branch.ID})
			innerRoot, err := executeChainLabeled(gctx, rt, &branch.Chain, nil, "branches."+branch.ID+".")
			if err != nil {
				rt.emit("branch.failed", map[string]any{"branch": branch.ID, "error": err.Error()})
				return fmt.Errorf("orchestration: branch %q: %w", branch.ID, err)
			}
			entry := map[string]any{"response": innerRoot["last_response"], "steps": innerRoot["steps"]}
			if err := ec.Set(branch.ID, entry); err != nil {
				return fmt.Errorf("orchestration: branch %q: %w", branch.ID, err)
			}
			rt.emit("branch.finished", map[string]any{"branch": branch.ID})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return map[string]any{"branches": ec.Snapshot()}, err
	}

	root := map[string]any{"branches": ec.Snapshot()}

	if cfg.Reduce != nil {
		rendered, err := rt.render(cfg.Reduce.Input, root)
		if err != nil {
			return nil, fmt.Errorf("orchestration: reduce input: %w", err)
		}
		res, err := rt.invoke(ctx, "parallel.reduce", cfg.Reduce.Agent, rendered)
		if err != nil {
			return nil, fmt.Errorf("orchestration: reduce agent %q: %w", cfg.Reduce.Agent, err)
		}
		root["reduce"] = map[string]any{"response": res.Response, "tokens": res.Tokens}
	}

	return root, nil
}
