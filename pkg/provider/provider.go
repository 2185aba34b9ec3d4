// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package provider defines the core's boundary with model-provider
// clients. Concrete HTTP/SDK adapters are out of scope for this system
// (spec §1); the core only depends on this two-method contract plus a
// handle-keyed factory, grounded on the teacher's pkg/types.LLMProvider
// interface (Chat/Name/Model) narrowed to the exact shape spec §6 names.
package provider

import "context"

// HandleKey identifies a model client: (provider, model, endpoint/region).
// It is the identity key for the Model Pool (pkg/modelpool).
type HandleKey struct {
	Provider string
	Model    string
	Endpoint string
}

// ToolCall is one tool invocation a provider response asked for.
type ToolCall struct {
	Name  string
	Input map[string]any
}

// Message is one turn of conversation history passed to Invoke.
type Message struct {
	Role    string // "system", "user", "assistant", "tool"
	Content string
}

// Response is the result of one provider invocation.
type Response struct {
	Text         string
	TokensInput  int
	TokensOutput int
	ToolCalls    []ToolCall
}

// Client is a bound model handle. Implementations are owned by the Model
// Pool; callers never call Close directly.
type Client interface {
	Invoke(ctx context.Context, prompt string, history []Message, tools []string) (Response, error)
	Close() error
}

// Factory builds a Client for a given handle key. Implementations are
// registered per provider name with the Model Pool.
type Factory interface {
	CreateClient(ctx context.Context, key HandleKey) (Client, error)
}

// FactoryFunc adapts a plain function to Factory.
type FactoryFunc func(ctx context.Context, key HandleKey) (Client, error)

// CreateClient implements Factory.
func (f FactoryFunc) CreateClient(ctx context.Context, key HandleKey) (Client, error) {
	return f(ctx, key)
}
