// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agentcache_test

import (
	"sync"
	"testing"

	"github.com/loomrun/engine/pkg/agentcache"
	"github.com/loomrun/engine/pkg/provider"
	"github.com/loomrun/engine/pkg/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintStableForIdenticalConfig(t *testing.T) {
	a := spec.AgentSpec{ID: "writer", Prompt: "be terse", Tools: []string{"echo"}, Inference: map[string]any{"temperature": 0.2}}
	key := provider.HandleKey{Provider: "openai", Model: "gpt-5"}

	fp1 := agentcache.Fingerprint(a, key)
	fp2 := agentcache.Fingerprint(a, key)
	assert.Equal(t, fp1, fp2)
}

func TestFingerprintChangesWithPrompt(t *testing.T) {
	key := provider.HandleKey{Provider: "openai", Model: "gpt-5"}
	a1 := spec.AgentSpec{ID: "writer", Prompt: "be terse"}
	a2 := spec.AgentSpec{ID: "writer", Prompt: "be verbose"}

	assert.NotEqual(t, agentcache.Fingerprint(a1, key), agentcache.Fingerprint(a2, key))
}

func TestGetOrBuildReturnsSameInstance(t *testing.T) {
	c := agentcache.New()
	builds := 0
	build := func() (*agentcache.Agent, error) {
		builds++
		return &agentcache.Agent{ID: "writer"}, nil
	}

	a1, err := c.GetOrBuild("fp1", build)
	require.NoError(t, err)
	a2, err := c.GetOrBuild("fp1", build)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.Equal(t, 1, builds)
	assert.Equal(t, 1, c.Size())
}

func TestGetOrBuildConcurrentBuildsOnce(t *testing.T) {
	c := agentcache.New()
	var builds int
	var mu sync.Mutex
	build := func() (*agentcache.Agent, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		return &agentcache.Agent{ID: "writer"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.GetOrBuild("fp-shared", build)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, builds)
}
