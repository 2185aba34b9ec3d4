// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package capability walks a loaded spec before dispatch and flags
// features this implementation does not support. ValidatePatternConfig,
// modeled on the teacher's pkg/mcp/protocol schema-validation style
// (gojsonschema over a Go-native value), checks one pattern config
// payload against a caller-supplied schema; Gate.Check does not call it
// and ships no per-pattern schema.
package capability

import (
	"fmt"

	"github.com/loomrun/engine/pkg/schedule"
	"github.com/loomrun/engine/pkg/spec"
	"github.com/xeipuuv/gojsonschema"
)

// Severity distinguishes issues that block the run from ones that are
// merely noteworthy.
type Severity string

const (
	// SeverityHard terminates the run before any side effects.
	SeverityHard Severity = "hard"
	// SeverityWarn is recorded in the report but does not block.
	SeverityWarn Severity = "warn"
)

// Issue is one entry of the remediation report: a json-pointer into the
// spec document, a human-readable reason, and a suggested fix.
type Issue struct {
	Pointer      string
	Reason       string
	SuggestedFix string
	Severity     Severity
}

// Report is the outcome of a Gate.Check call.
type Report struct {
	Issues []Issue
}

// Blocking reports whether the report contains any hard issue.
func (r Report) Blocking() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityHard {
			return true
		}
	}
	return false
}

// Gate validates a spec against this implementation's supported feature
// surface before executor dispatch.
type Gate struct {
	// MaxOrchestratorRounds bounds orchestrator-workers re-planning;
	// specs asking for more than one round are flagged hard.
	MaxOrchestratorRounds int
	// AllowedSecretSources restricts AgentSpec.SecretFrom prefixes
	// (e.g. "env:"). Anything else is flagged hard.
	AllowedSecretSources []string
}

// NewGate returns a Gate configured with this implementation's defaults.
func NewGate() *Gate {
	return &Gate{
		MaxOrchestratorRounds: 1,
		AllowedSecretSources:  []string{"env:"},
	}
}

// Check walks s and returns a remediation report. Callers must treat a
// Blocking report as a terminal condition: the run must not start.
func (g *Gate) Check(s *spec.Spec) Report {
	var rpt Report

	rpt.Issues = append(rpt.Issues, g.checkSecrets(s)...)
	rpt.Issues = append(rpt.Issues, g.checkPattern(s)...)
	rpt.Issues = append(rpt.Issues, g.checkCompaction(s)...)
	rpt.Issues = append(rpt.Issues, g.checkSchedule(s)...)

	return rpt
}

func (g *Gate) checkSchedule(s *spec.Spec) []Issue {
	if s.Schedule == "" {
		return nil
	}
	if _, err := schedule.Parse(s.Schedule); err != nil {
		return []Issue{{
			Pointer:      "/spec/schedule",
			Reason:       err.Error(),
			SuggestedFix: "use a standard 5-field cron expression",
			Severity:     SeverityHard,
		}}
	}
	return nil
}

func (g *Gate) checkSecrets(s *spec.Spec) []Issue {
	var issues []Issue
	for id, a := range s.Agents {
		if a.SecretFrom == "" {
			continue
		}
		ok := false
		for _, prefix := range g.AllowedSecretSources {
			if hasPrefix(a.SecretFrom, prefix) {
				ok = true
				break
			}
		}
		if !ok {
			issues = append(issues, Issue{
				Pointer:      fmt.Sprintf("/spec/agents/%s/secret_from", id),
				Reason:       fmt.Sprintf("unsupported secret source %q", a.SecretFrom),
				SuggestedFix: "use an env: secret source",
				Severity:     SeverityHard,
			})
		}
	}
	return issues
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func (g *Gate) checkPattern(s *spec.Spec) []Issue {
	var issues []Issue
	switch s.Pattern.Type {
	case spec.PatternOrchestratorWorkers:
		if s.Pattern.OrchestratorWorkers != nil && s.Pattern.OrchestratorWorkers.MaxRounds > g.MaxOrchestratorRounds {
			issues = append(issues, Issue{
				Pointer:      "/spec/pattern/config/max_rounds",
				Reason:       fmt.Sprintf("multi-round orchestration (%d rounds) exceeds supported maximum (%d)", s.Pattern.OrchestratorWorkers.MaxRounds, g.MaxOrchestratorRounds),
				SuggestedFix: fmt.Sprintf("set max_rounds <= %d", g.MaxOrchestratorRounds),
				Severity:     SeverityHard,
			})
		}
	case spec.PatternGraph:
		if s.Pattern.Graph != nil {
			issues = append(issues, g.checkGraph(s.Pattern.Graph)...)
		}
	}
	return issues
}

func (g *Gate) checkGraph(gc *spec.GraphConfig) []Issue {
	var issues []Issue
	nodes := make(map[string]bool, len(gc.Nodes))
	for _, n := range gc.Nodes {
		nodes[n.ID] = true
	}
	for _, n := range gc.Nodes {
		for _, e := range n.Edges {
			if len(e.Targets) > 1 {
				issues = append(issues, Issue{
					Pointer:      fmt.Sprintf("/spec/pattern/config/nodes/%s/edges", n.ID),
					Reason:       "edge declares multiple targets; only the first is taken",
					SuggestedFix: "declare one target per edge, or accept single-target traversal",
					Severity:     SeverityWarn,
				})
			}
			for _, t := range e.Targets {
				if !nodes[t] && t != "" {
					issues = append(issues, Issue{
						Pointer:      fmt.Sprintf("/spec/pattern/config/nodes/%s/edges", n.ID),
						Reason:       fmt.Sprintf("edge target %q does not exist", t),
						SuggestedFix: "fix the edge target or add the missing node",
						Severity:     SeverityHard,
					})
				}
			}
		}
	}
	return issues
}

func (g *Gate) checkCompaction(s *spec.Spec) []Issue {
	var issues []Issue
	if s.Context.Compaction.Enabled && s.Context.Compaction.SummaryRatio <= 0 {
		issues = append(issues, Issue{
			Pointer:      "/spec/context/compaction/summary_ratio",
			Reason:       "compaction enabled but summary_ratio is zero",
			SuggestedFix: "set summary_ratio in (0, 1]",
			Severity:     SeverityHard,
		})
	}
	return issues
}

// ValidatePatternConfig structurally validates a pattern's raw config
// payload against schema before it is decoded into a typed struct —
// catching malformed documents with a precise json-pointer instead of a
// generic decode error.
func ValidatePatternConfig(schema map[string]any, payload map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	docLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("capability: schema validation failed: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			msgs[i] = e.String()
		}
		return fmt.Errorf("capability: invalid pattern config: %v", msgs)
	}
	return nil
}
