// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package agentcache is the per-run assembled-agent cache keyed by a
// stable configuration fingerprint. Grounded on modelpool's mutex-guarded
// map shape, narrowed to per-run lifetime and fingerprint identity
// instead of a handle-key tuple.
package agentcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/loomrun/engine/pkg/provider"
	"github.com/loomrun/engine/pkg/spec"
)

// Agent is an assembled, ready-to-invoke persona: its effective system
// prompt, bound tool names, model handle key, and inference parameters.
// Immutable once built (§3 invariant: "An agent in the cache is immutable
// once built; configuration changes yield a new entry").
type Agent struct {
	ID         string
	Prompt     string
	Tools      []string
	HandleKey  provider.HandleKey
	Inference  map[string]any
	Fingerprint string
}

// Fingerprint computes the stable digest spec §3 names: a hash of
// (agent-id, effective system prompt, tool list, effective model handle
// key, inference parameters). Map iteration order is not stable in Go,
// so inference keys are sorted before hashing.
func Fingerprint(a spec.AgentSpec, handleKey provider.HandleKey) string {
	h := sha256.New()
	fmt.Fprintf(h, "id=%s\nprompt=%s\ntools=%v\nhandle=%+v\n", a.ID, a.Prompt, a.Tools, handleKey)

	keys := make([]string, 0, len(a.Inference))
	for k := range a.Inference {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "inference.%s=%v\n", k, a.Inference[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache is a per-run cache: the same agent id with an identical effective
// fingerprint must return the same *Agent instance within the run.
type Cache struct {
	mu    sync.Mutex
	byFP  map[string]*Agent
}

// New returns an empty, per-run Cache.
func New() *Cache {
	return &Cache{byFP: make(map[string]*Agent)}
}

// GetOrBuild returns the cached agent for fingerprint fp, building it via
// build on a cache miss. build is only ever invoked once per fingerprint,
// even under concurrent callers.
func (c *Cache) GetOrBuild(fp string, build func() (*Agent, error)) (*Agent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.byFP[fp]; ok {
		return a, nil
	}
	a, err := build()
	if err != nil {
		return nil, err
	}
	a.Fingerprint = fp
	c.byFP[fp] = a
	return a, nil
}

// Size reports the number of distinct assembled agents currently cached.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byFP)
}
