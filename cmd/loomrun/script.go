// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/loomrun/engine/pkg/provider"
	"github.com/loomrun/engine/pkg/provider/fake"
)

// scriptDoc is the on-disk shape of a --script file: one scripted
// response list per "provider/model" handle key. This repository ships
// no concrete provider adapters (pkg/provider/fake is the only one), so
// loomrun run always executes against a script rather than a live
// vendor SDK.
type scriptDoc struct {
	Clients map[string]scriptedClient `json:"clients"`
}

type scriptedClient struct {
	Responses []scriptedResponse `json:"responses"`
}

type scriptedResponse struct {
	Text         string `json:"text"`
	TokensInput  int    `json:"tokens_input"`
	TokensOutput int    `json:"tokens_output"`
	Error        string `json:"error"`
}

// loadScriptFactory reads path and builds a fake.Factory pre-registered
// with one fake.Client per declared handle key.
func loadScriptFactory(path string) (*fake.Factory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: read %s: %w", path, err)
	}

	var doc scriptDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("script: parse %s: %w", path, err)
	}

	factory := fake.NewFactory()
	for keyStr, sc := range doc.Clients {
		provName, model, err := splitHandleKey(keyStr)
		if err != nil {
			return nil, fmt.Errorf("script: %w", err)
		}

		client := &fake.Client{}
		for _, r := range sc.Responses {
			if r.Error != "" {
				client.Errors = append(client.Errors, fmt.Errorf("%s", r.Error))
				client.Responses = append(client.Responses, provider.Response{})
				continue
			}
			client.Errors = append(client.Errors, nil)
			client.Responses = append(client.Responses, provider.Response{
				Text:         r.Text,
				TokensInput:  r.TokensInput,
				TokensOutput: r.TokensOutput,
			})
		}

		factory.Register(provider.HandleKey{Provider: provName, Model: model}, client)
	}

	return factory, nil
}

func splitHandleKey(s string) (providerName string, model string, err error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return s[:i], s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("invalid handle key %q, want \"provider/model\"", s)
}
