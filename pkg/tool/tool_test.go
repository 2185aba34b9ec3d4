// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package tool_test

import (
	"context"
	"testing"

	"github.com/loomrun/engine/pkg/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r := tool.NewRegistry()
	r.Register("echo", tool.Echo())

	got, err := r.Lookup("echo")
	require.NoError(t, err)

	out, err := got.Call(context.Background(), map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1}, out["output"])
}

func TestRegistryLookupNotFound(t *testing.T) {
	r := tool.NewRegistry()
	_, err := r.Lookup("missing")
	require.ErrorIs(t, err, tool.ErrNotFound)
}

func TestConstant(t *testing.T) {
	c := tool.Constant(map[string]any{"answer": 42})
	out, err := c.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 42, out["answer"])
}
