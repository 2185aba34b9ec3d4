// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package modelpool is the process-wide, handle-key-keyed provider
// client cache. Grounded on the teacher's per-backend
// globalRateLimiterOnce pattern (pkg/llm/openai, pkg/llm/anthropic,
// etc.) — a single shared resource guarded by a mutex rather than
// reopened per call — generalized from "one global rate limiter" to
// "one client per (provider, model, endpoint) tuple."
package modelpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/loomrun/engine/pkg/provider"
)

// Pool is a process-wide cache of provider clients keyed by handle key.
// Clients are owned by the Pool; callers never close them directly.
type Pool struct {
	mu      sync.Mutex
	factory provider.Factory
	clients map[provider.HandleKey]provider.Client
	order   []provider.HandleKey // insertion order, for LIFO Close
}

// New builds a Pool backed by factory for cache misses.
func New(factory provider.Factory) *Pool {
	return &Pool{
		factory: factory,
		clients: make(map[provider.HandleKey]provider.Client),
	}
}

// Get returns the shared client for key, building it via the factory on
// first request. Concurrent Get calls for the same key never build two
// clients: the second caller blocks on the mutex and observes the first
// caller's cached result.
func (p *Pool) Get(ctx context.Context, key provider.HandleKey) (provider.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[key]; ok {
		return c, nil
	}
	c, err := p.factory.CreateClient(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("modelpool: create client for %+v: %w", key, err)
	}
	p.clients[key] = c
	p.order = append(p.order, key)
	return c, nil
}

// Close releases every client the pool has opened, in LIFO order (§4.6:
// "Close-on-run-end releases all clients in LIFO order"). It collects
// and joins every close error rather than stopping at the first.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for i := len(p.order) - 1; i >= 0; i-- {
		key := p.order[i]
		if c, ok := p.clients[key]; ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("modelpool: close %+v: %w", key, err))
			}
		}
	}
	p.order = nil
	p.clients = make(map[provider.HandleKey]provider.Client)
	return errors.Join(errs...)
}

// Size reports the number of distinct clients currently cached.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
