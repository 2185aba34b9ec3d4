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

// ErrCycle is returned during prepare when the DAG contains a cycle.
var ErrCycle = fmt.Errorf("orchestration: dependency cycle detected")

// layerTasks computes a topological layering of cfg.Tasks: layer[0]
// holds tasks with no dependencies, layer[1] holds tasks whose
// dependencies are all satisfied by layer[0], and so on. Detects cycles
// and duplicate/unknown task ids before any work begins (§3 invariant).
func layerTasks(cfg *spec.WorkflowConfig) ([][]spec.TaskConfig, error) {
	byID := make(map[string]spec.TaskConfig, len(cfg.Tasks))
	for _, t := range cfg.Tasks {
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("orchestration: duplicate task id %q", t.ID)
		}
		byID[t.ID] = t
	}
	for _, t := range cfg.Tasks {
		for _, dep := range t.DependsOn {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("orchestration: task %q depends on unknown task %q", t.ID, dep)
			}
		}
	}

	remaining := make(map[string]spec.TaskConfig, len(byID))
	for k, v := range byID {
		remaining[k] = v
	}

	var layers [][]spec.TaskConfig
	done := make(map[string]bool, len(byID))
	for len(remaining) > 0 {
		var layer []spec.TaskConfig
		for id, t := range remaining {
			ready := true
			for _, dep := range t.DependsOn {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, t)
			}
		}
		if len(layer) == 0 {
			return nil, ErrCycle
		}
		for _, t := range layer {
			delete(remaining, t.ID)
			done[t.ID] = true
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

// ExecuteWorkflow runs a DAG of tasks layer by layer, concurrently
// within a layer bounded by MaxParallel (§4.8.4), else
// runtime.max_parallel, else 10. No new layer starts
// after a failure in an earlier one; in-flight siblings in the failing
// layer are cancelled via errgroup, matching Parallel's fail-fast model.
func ExecuteWorkflow(ctx context.Context, rt *Runtime, cfg *spec.WorkflowConfig) (map[string]any, error) {
	layers, err := layerTasks(cfg)
	if err != nil {
		return nil, err
	}

	ec := execctx.New()
	for _, layer := range layers {
		g, gctx := errgroup.WithContext(ctx)
		limit := cfg.MaxParallel
		if limit <= 0 {
			limit = rt.Spec.Runtime.MaxParallel
		}
		if limit <= 0 {
			limit = 10
		}
		g.SetLimit(limit)

		tasksSnapshot := ec.Snapshot()
		for _, task := range layer {
			task := task
			g.Go(func() error {
				rendered, err := rt.render(task.Input, map[string]any{"tasks": tasksSnapshot})
				if err != nil {
					return fmt.Errorf("orchestration: task %q input: %w", task.ID, err)
				}
				rt.emit("task.started", map[string]any{"task": task.ID, "agent": task.Agent})
				res, err := rt.invoke(gctx, "tasks."+task.ID, task.Agent, rendered)
				if err != nil {
					rt.emit("task.failed", map[string]any{"task": task.ID, "error": err.Error()})
					return fmt.Errorf("orchestration: task %q (agent %s): %w", task.ID, task.Agent, err)
				}
				entry := map[string]any{"response": res.Response, "tokens": res.Tokens}
				if err := ec.Set(task.ID, entry); err != nil {
					return fmt.Errorf("orchestration: task %q: %w", task.ID, err)
				}
				rt.emit("task.finished", map[string]any{"task": task.ID})
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return map[string]any{"tasks": ec.Snapshot()}, nil
}
