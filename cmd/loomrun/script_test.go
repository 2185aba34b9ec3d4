// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/loomrun/engine/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScriptFactoryBuildsRegisteredClients(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"clients": {
			"fake/writer-model": {
				"responses": [{"text": "hello", "tokens_input": 3, "tokens_output": 1}]
			}
		}
	}`), 0o644))

	factory, err := loadScriptFactory(path)
	require.NoError(t, err)

	client, err := factory.CreateClient(context.Background(), provider.HandleKey{Provider: "fake", Model: "writer-model"})
	require.NoError(t, err)

	resp, err := client.Invoke(context.Background(), "anything", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, 3, resp.TokensInput)
}

func TestLoadScriptFactoryRejectsMalformedHandleKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"clients": {"no-slash-here": {"responses": []}}}`), 0o644))

	_, err := loadScriptFactory(path)
	require.Error(t, err)
}

func TestLoadScriptFactoryPropagatesScriptedErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"clients": {
			"fake/flaky-model": {
				"responses": [{"error": "rate limited"}, {"text": "ok"}]
			}
		}
	}`), 0o644))

	factory, err := loadScriptFactory(path)
	require.NoError(t, err)

	client, err := factory.CreateClient(context.Background(), provider.HandleKey{Provider: "fake", Model: "flaky-model"})
	require.NoError(t, err)

	_, err = client.Invoke(context.Background(), "x", nil, nil)
	require.Error(t, err)

	resp, err := client.Invoke(context.Background(), "x", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

func TestSplitHandleKey(t *testing.T) {
	p, m, err := splitHandleKey("anthropic/claude-sonnet-4-5")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p)
	assert.Equal(t, "claude-sonnet-4-5", m)

	_, _, err = splitHandleKey("malformed")
	require.Error(t, err)
}
