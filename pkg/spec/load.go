// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package spec

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for the load/validate pipeline, matching the teacher's
// workflow_config.go convention of one sentinel per failure class.
var (
	ErrFileNotFound    = errors.New("spec: file not found")
	ErrInvalidYAML     = errors.New("spec: invalid yaml")
	ErrInvalidSpec     = errors.New("spec: invalid specification")
	ErrUnsupportedKind = errors.New("spec: unsupported document kind")
)

// document is the Kubernetes-shaped on-disk document, matching the
// teacher's WorkflowConfig (apiVersion/kind/metadata/spec) convention.
type document struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   metadataYAML `yaml:"metadata"`
	Spec       specYAML     `yaml:"spec"`
}

type metadataYAML struct {
	Name string `yaml:"name"`
}

type specYAML struct {
	Version int                    `yaml:"version"`
	Runtime runtimeYAML            `yaml:"runtime"`
	Agents  map[string]agentYAML   `yaml:"agents"`
	Pattern patternYAML            `yaml:"pattern"`
	Inputs  inputsYAML             `yaml:"inputs"`
	Outputs outputsYAML            `yaml:"outputs"`
	Context contextYAML            `yaml:"context_policy"`
	Schedule string                `yaml:"schedule"`
}

type runtimeYAML struct {
	Provider      string            `yaml:"provider"`
	ModelID       string            `yaml:"model_id"`
	Budgets       budgetsYAML       `yaml:"budgets"`
	FailurePolicy failurePolicyYAML `yaml:"failure_policy"`
	MaxParallel   int               `yaml:"max_parallel"`
}

type budgetsYAML struct {
	MaxTokens     int     `yaml:"max_tokens"`
	MaxSteps      int     `yaml:"max_steps"`
	MaxDurationS  int     `yaml:"max_duration_s"`
	WarnThreshold float64 `yaml:"warn_threshold"`
}

type failurePolicyYAML struct {
	Retries int    `yaml:"retries"`
	Backoff string `yaml:"backoff"`
	WaitMin string `yaml:"wait_min"`
	WaitMax string `yaml:"wait_max"`
}

type agentYAML struct {
	Prompt     string         `yaml:"prompt"`
	Tools      []string       `yaml:"tools"`
	ModelID    string         `yaml:"model_id"`
	Inference  map[string]any `yaml:"inference"`
	SecretFrom string         `yaml:"secret_from"`
}

type patternYAML struct {
	Type   string `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

type inputsYAML struct {
	Values map[string]any `yaml:"values"`
}

type outputsYAML struct {
	Artifacts []artifactYAML `yaml:"artifacts"`
}

type artifactYAML struct {
	Path  string `yaml:"path"`
	From  string `yaml:"from"`
	Force bool   `yaml:"force"`
}

type contextYAML struct {
	Compaction compactionYAML `yaml:"compaction"`
}

type compactionYAML struct {
	Enabled                bool    `yaml:"enabled"`
	WhenTokensOver         int     `yaml:"when_tokens_over"`
	SummaryRatio           float64 `yaml:"summary_ratio"`
	PreserveRecentMessages int     `yaml:"preserve_recent_messages"`
	SummarizationModel     string  `yaml:"summarization_model"`
}

// LoadFile reads and parses a workflow specification from a YAML file.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("spec: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document into a Spec, converting untyped maps into
// this package's tagged, typed values.
func Parse(data []byte) (*Spec, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if doc.Kind != "" && doc.Kind != "Workflow" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, doc.Kind)
	}
	if doc.Metadata.Name == "" {
		return nil, fmt.Errorf("%w: metadata.name is required", ErrInvalidSpec)
	}

	s := &Spec{
		Version: doc.Spec.Version,
		Name:    doc.Metadata.Name,
		Schedule: doc.Spec.Schedule,
	}

	s.Runtime = Runtime{
		Provider:    doc.Spec.Runtime.Provider,
		ModelID:     doc.Spec.Runtime.ModelID,
		MaxParallel: doc.Spec.Runtime.MaxParallel,
		Budgets: Budgets{
			MaxTokens:     doc.Spec.Runtime.Budgets.MaxTokens,
			MaxSteps:      doc.Spec.Runtime.Budgets.MaxSteps,
			MaxDurationS:  doc.Spec.Runtime.Budgets.MaxDurationS,
			WarnThreshold: doc.Spec.Runtime.Budgets.WarnThreshold,
		},
	}
	if s.Runtime.Budgets.WarnThreshold == 0 {
		s.Runtime.Budgets.WarnThreshold = 0.8
	}

	fp := doc.Spec.Runtime.FailurePolicy
	waitMin, err := parseDurationOrDefault(fp.WaitMin, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: wait_min: %v", ErrInvalidSpec, err)
	}
	waitMax, err := parseDurationOrDefault(fp.WaitMax, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: wait_max: %v", ErrInvalidSpec, err)
	}
	backoff := BackoffMode(fp.Backoff)
	if backoff == "" {
		backoff = BackoffExponential
	}
	s.Runtime.FailurePolicy = FailurePolicy{
		Retries: fp.Retries,
		Backoff: backoff,
		WaitMin: waitMin,
		WaitMax: waitMax,
	}

	s.Agents = make(map[string]AgentSpec, len(doc.Spec.Agents))
	for id, a := range doc.Spec.Agents {
		s.Agents[id] = AgentSpec{
			ID:         id,
			Prompt:     a.Prompt,
			Tools:      a.Tools,
			ModelID:    a.ModelID,
			Inference:  a.Inference,
			SecretFrom: a.SecretFrom,
		}
	}

	pattern, err := convertPattern(doc.Spec.Pattern)
	if err != nil {
		return nil, err
	}
	s.Pattern = pattern

	s.Inputs = doc.Spec.Inputs.Values

	for _, a := range doc.Spec.Outputs.Artifacts {
		s.Outputs = append(s.Outputs, ArtifactSpec{Path: a.Path, From: a.From, Force: a.Force})
	}

	s.Context = ContextPolicy{Compaction: CompactionConfig{
		Enabled:                doc.Spec.Context.Compaction.Enabled,
		WhenTokensOver:         doc.Spec.Context.Compaction.WhenTokensOver,
		SummaryRatio:           doc.Spec.Context.Compaction.SummaryRatio,
		PreserveRecentMessages: doc.Spec.Context.Compaction.PreserveRecentMessages,
		SummarizationModel:     doc.Spec.Context.Compaction.SummarizationModel,
	}}

	return s, nil
}

func parseDurationOrDefault(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
