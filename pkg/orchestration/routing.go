// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/loomrun/engine/pkg/spec"
)

// ErrNoRouteMatched is returned when no route condition matches and no
// default route is declared (§4.8.2).
var ErrNoRouteMatched = errors.New("orchestration: no route matched")

// ExecuteRouting invokes a router agent, then selects the first route
// whose condition is true (spec order; first match wins). The selected
// route runs as an inner chain; its output is recorded as route_output.
func ExecuteRouting(ctx context.Context, rt *Runtime, cfg *spec.RoutingConfig) (map[string]any, error) {
	rendered, err := rt.render(cfg.Input, nil)
	if err != nil {
		return nil, fmt.Errorf("orchestration: routing input: %w", err)
	}

	rt.emit("router.invoked", map[string]any{"agent": cfg.RouterAgent})
	res, err := rt.invoke(ctx, "router", cfg.RouterAgent, rendered)
	if err != nil {
		return nil, fmt.Errorf("orchestration: router agent %q: %w", cfg.RouterAgent, err)
	}

	root := map[string]any{"classification": res.Response}

	var selected *spec.ChainConfig
	var selectedName string
	for _, route := range cfg.Routes {
		ok, err := rt.evalBool(route.Condition, root)
		if err != nil {
			return nil, fmt.Errorf("orchestration: route %q condition: %w", route.Name, err)
		}
		if ok {
			chain := route.Chain
			selected = &chain
			selectedName = route.Name
			break
		}
	}
	if selected == nil {
		if cfg.Default == nil {
			return nil, fmt.Errorf("%w: classification %q matched no route", ErrNoRouteMatched, res.Response)
		}
		selected = cfg.Default
		selectedName = "default"
	}

	root["selected_route"] = selectedName
	rt.emit("route.selected", map[string]any{"route": selectedName})

	innerRoot, err := ExecuteChain(ctx, rt, selected, map[string]any{"classification": res.Response})
	if err != nil {
		return nil, fmt.Errorf("orchestration: route %q: %w", selectedName, err)
	}

	root["route_output"] = innerRoot["last_response"]
	root["steps"] = innerRoot["steps"]
	return root, nil
}
