// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package fake is a scripted in-memory provider.Client for tests. It is
// the only provider implementation this repository ships, matching spec
// §1's "concrete model-provider clients ... out of scope" line — tests
// exercise the core against this fake rather than a live vendor SDK.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/loomrun/engine/pkg/provider"
)

// Client replays scripted responses in call order: each call to Invoke
// consumes the next entry in Responses, whatever the prompt. Not safe to
// reuse Responses concurrently
// without a distinct Client per agent in a test — mirrors how the
// teacher's own tests stand up one fake client per scenario.
type Client struct {
	mu        sync.Mutex
	Responses []provider.Response
	Errors    []error // parallel to Responses; non-nil entry returned instead
	calls     int
	Delay     func(call int) // optional per-call artificial delay hook
	Closed    bool
	histories [][]provider.Message
}

// Invoke returns the next scripted response or error.
func (c *Client) Invoke(ctx context.Context, prompt string, history []provider.Message, tools []string) (provider.Response, error) {
	c.mu.Lock()
	idx := c.calls
	c.calls++
	c.histories = append(c.histories, history)
	c.mu.Unlock()

	if c.Delay != nil {
		c.Delay(idx)
	}

	select {
	case <-ctx.Done():
		return provider.Response{}, ctx.Err()
	default:
	}

	if idx < len(c.Errors) && c.Errors[idx] != nil {
		return provider.Response{}, c.Errors[idx]
	}
	if idx >= len(c.Responses) {
		return provider.Response{}, fmt.Errorf("fake: no scripted response for call %d", idx)
	}
	return c.Responses[idx], nil
}

// Close marks the client closed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// Calls reports how many times Invoke was called.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// SeenHistories returns the history slice passed to each Invoke call, in
// call order, for asserting what the caller handed the model.
func (c *Client) SeenHistories() [][]provider.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.histories
}

// Factory hands out the Client registered for each handle key (see
// Register); a key with no registered Client is an error. Opened records
// the handle key of every CreateClient call, in call order, for asserting
// Model Pool invariant 4 (one client per unique handle key).
type Factory struct {
	mu      sync.Mutex
	Clients map[provider.HandleKey]*Client
	Opened  []provider.HandleKey
}

// NewFactory builds a Factory with an empty Clients map; add clients
// with Register.
func NewFactory() *Factory {
	return &Factory{Clients: make(map[provider.HandleKey]*Client)}
}

// CreateClient implements provider.Factory.
func (f *Factory) CreateClient(ctx context.Context, key provider.HandleKey) (provider.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Opened = append(f.Opened, key)
	c, ok := f.Clients[key]
	if !ok {
		return nil, fmt.Errorf("fake: no client registered for handle key %+v", key)
	}
	return c, nil
}

// Register associates a Client with a handle key.
func (f *Factory) Register(key provider.HandleKey, c *Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Clients[key] = c
}
