// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package execctx_test

import (
	"sync"
	"testing"

	"github.com/loomrun/engine/pkg/execctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetThenGet(t *testing.T) {
	c := execctx.New()
	require.NoError(t, c.Set("steps.0", execctx.StepResult{Response: "hi"}))

	v, ok := c.Get("steps.0")
	require.True(t, ok)
	assert.Equal(t, execctx.StepResult{Response: "hi"}, v)
}

func TestSetRejectsDuplicateKey(t *testing.T) {
	c := execctx.New()
	require.NoError(t, c.Set("nodes.a", "first"))

	err := c.Set("nodes.a", "second")
	require.Error(t, err)
	var dup execctx.ErrDuplicateWrite
	require.ErrorAs(t, err, &dup)

	v, _ := c.Get("nodes.a")
	assert.Equal(t, "first", v)
}

func TestConcurrentWritesToDisjointKeys(t *testing.T) {
	c := execctx.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "branches." + string(rune('a'+i%26)) + string(rune('0'+i/26))
			_ = c.Set(key, i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}

func TestSnapshotIsACopy(t *testing.T) {
	c := execctx.New()
	require.NoError(t, c.Set("tasks.fetch", "done"))

	snap := c.Snapshot()
	snap["tasks.fetch"] = "mutated"

	v, _ := c.Get("tasks.fetch")
	assert.Equal(t, "done", v)
}

func TestKeysPreservesWriteOrder(t *testing.T) {
	c := execctx.New()
	require.NoError(t, c.Set("steps.0", "a"))
	require.NoError(t, c.Set("steps.1", "b"))
	require.NoError(t, c.Set("steps.2", "c"))

	assert.Equal(t, []string{"steps.0", "steps.1", "steps.2"}, c.Keys())
}
