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

// defaultMaxIterations is the mandatory safety bound spec §4.8.5
// requires when a graph does not declare one.
const defaultMaxIterations = 50

// ErrUnknownNode is returned when start_node or an edge target names a
// node that does not exist.
var ErrUnknownNode = fmt.Errorf("orchestration: unknown graph node")

// ExecuteGraph traverses a directed graph of agent nodes (§4.8.5). A
// node may be revisited (loops permitted), so nodes.<id> is a plain
// overwrite-on-revisit map rather than execctx's append-once store;
// execution_path is the append-only record of the traversal itself.
func ExecuteGraph(ctx context.Context, rt *Runtime, cfg *spec.GraphConfig) (map[string]any, error) {
	byID := make(map[string]spec.NodeConfig, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		byID[n.ID] = n
	}
	if _, ok := byID[cfg.StartNode]; !ok {
		return nil, fmt.Errorf("%w: start_node %q", ErrUnknownNode, cfg.StartNode)
	}
	endNodes := make(map[string]bool, len(cfg.EndNodes))
	for _, e := range cfg.EndNodes {
		endNodes[e] = true
	}

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	nodes := map[string]any{}
	var executionPath []string
	current := cfg.StartNode

	for iteration := 0; iteration < maxIter; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node, ok := byID[current]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, current)
		}

		root := map[string]any{"nodes": nodes, "execution_path": executionPath, "iteration": iteration}
		rendered, err := rt.render(node.Input, root)
		if err != nil {
			return nil, fmt.Errorf("orchestration: node %q input: %w", node.ID, err)
		}

		rt.emit("node.visited", map[string]any{"node": node.ID, "iteration": iteration})
		res, err := rt.invoke(ctx, fmt.Sprintf("nodes.%s[%d]", node.ID, iteration), node.Agent, rendered)
		if err != nil {
			return nil, fmt.Errorf("orchestration: node %q (agent %s): %w", node.ID, node.Agent, err)
		}

		nodes[node.ID] = map[string]any{"response": res.Response, "tokens": res.Tokens}
		executionPath = append(executionPath, node.ID)

		if endNodes[node.ID] {
			return map[string]any{"nodes": nodes, "execution_path": executionPath, "iteration": iteration, "reason": "end_node"}, nil
		}

		next, satisfied, err := selectEdge(rt, node, map[string]any{"nodes": nodes, "execution_path": executionPath, "iteration": iteration})
		if err != nil {
			return nil, err
		}
		if !satisfied {
			return map[string]any{"nodes": nodes, "execution_path": executionPath, "iteration": iteration, "reason": "stalled"}, nil
		}
		if _, ok := byID[next]; !ok {
			return nil, fmt.Errorf("%w: edge target %q", ErrUnknownNode, next)
		}
		current = next
	}

	return map[string]any{"nodes": nodes, "execution_path": executionPath, "iteration": maxIter, "reason": "max_iterations"}, nil
}

// selectEdge evaluates node's outgoing edges in spec order and returns
// the first satisfied target. Only Targets[0] is ever taken for a
// multi-target edge (spec §9 open-question resolution); the capability
// gate is responsible for warning about the unused remainder.
func selectEdge(rt *Runtime, node spec.NodeConfig, root map[string]any) (string, bool, error) {
	for _, edge := range node.Edges {
		if edge.Condition != "" {
			ok, err := rt.evalBool(edge.Condition, root)
			if err != nil {
				return "", false, fmt.Errorf("orchestration: node %q edge condition: %w", node.ID, err)
			}
			if !ok {
				continue
			}
		}
		if len(edge.Targets) == 0 {
			continue
		}
		return edge.Targets[0], true, nil
	}
	return "", false, nil
}
