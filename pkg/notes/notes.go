// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package notes is the per-step Notes Hook (§4.5): it appends structured
// records to an execution journal (step/node id, agent id, input/output
// digests, token usage) and can render a unified diff between two
// journal snapshots. Diff rendering is grounded on the teacher's
// pkg/evals/golden.go generateDiff, which drives
// github.com/sergi/go-diff/diffmatchpatch the same way: DiffMain +
// DiffCleanupSemantic, then a +/- line render.
package notes

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Record is one semantic journal entry. Serialization to Markdown or
// JSON is a presentation choice layered on top (see RenderMarkdown /
// RenderJSON); Record itself is the fixed format spec §4.5 names.
type Record struct {
	StepOrNodeID string    `json:"step_or_node_id"`
	AgentID      string    `json:"agent_id"`
	InputDigest  string    `json:"input_digest"`
	OutputDigest string    `json:"output_digest"`
	TokensInput  int       `json:"tokens_input"`
	TokensOutput int       `json:"tokens_output"`
	Timestamp    time.Time `json:"timestamp"`
}

// Digest returns a short, stable digest of s, suitable for a brief
// input/output record without storing full (possibly sensitive) content.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

// Journal is an append-only sequence of Records for one run.
type Journal struct {
	Records []Record
}

// Append records one invocation. Safe to call repeatedly across steps;
// it never mutates a prior entry.
func (j *Journal) Append(r Record) {
	j.Records = append(j.Records, r)
}

// RenderMarkdown renders the journal as a human-readable Markdown table.
func (j *Journal) RenderMarkdown() string {
	var b strings.Builder
	b.WriteString("| step/node | agent | tokens_in | tokens_out |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range j.Records {
		b.WriteString("| ")
		b.WriteString(r.StepOrNodeID)
		b.WriteString(" | ")
		b.WriteString(r.AgentID)
		b.WriteString(" | ")
		b.WriteString(itoa(r.TokensInput))
		b.WriteString(" | ")
		b.WriteString(itoa(r.TokensOutput))
		b.WriteString(" |\n")
	}
	return b.String()
}

// RenderJSON renders the journal as indented JSON.
func (j *Journal) RenderJSON() (string, error) {
	b, err := json.MarshalIndent(j.Records, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// DiffMarkdown renders a unified, human-readable diff between two
// journal Markdown snapshots — used to show how a run's notes changed
// across retries or re-runs of the same spec.
func DiffMarkdown(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	b.WriteString("--- before\n+++ after\n")
	for _, d := range diffs {
		text := d.Text
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString("+ " + strings.ReplaceAll(text, "\n", "\n+ ") + "\n")
		case diffmatchpatch.DiffDelete:
			b.WriteString("- " + strings.ReplaceAll(text, "\n", "\n- ") + "\n")
		case diffmatchpatch.DiffEqual:
			lines := strings.Split(text, "\n")
			for _, l := range lines {
				if l != "" {
					b.WriteString("  " + l + "\n")
				}
			}
		}
	}
	return b.String()
}
