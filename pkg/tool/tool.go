// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package tool defines the core's boundary with tool implementations.
// Tool bodies (HTTP fetch, file read, calculator) are out of scope for
// this system (spec §1); the core only consumes a registry, grounded on
// the teacher's pkg/shuttle.Registry/Tool shape narrowed to one method.
package tool

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Registry.Lookup when no tool is registered
// under the given name.
var ErrNotFound = errors.New("tool: not found")

// Tool is a single callable capability named in an agent spec.
type Tool interface {
	Call(ctx context.Context, input map[string]any) (map[string]any, error)
}

// Func adapts a plain function to Tool.
type Func func(ctx context.Context, input map[string]any) (map[string]any, error)

// Call implements Tool.
func (f Func) Call(ctx context.Context, input map[string]any) (map[string]any, error) {
	return f(ctx, input)
}

// Registry resolves tool names to implementations.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool under name, overwriting any prior registration.
func (r *Registry) Register(name string, t Tool) {
	r.tools[name] = t
}

// Lookup resolves name to a Tool, or ErrNotFound.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}
