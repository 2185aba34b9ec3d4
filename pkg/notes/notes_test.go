// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package notes_test

import (
	"strings"
	"testing"

	"github.com/loomrun/engine/pkg/notes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendIsOrderPreservingAndAppendOnly(t *testing.T) {
	j := &notes.Journal{}
	j.Append(notes.Record{StepOrNodeID: "steps[0]", AgentID: "writer", TokensInput: 10, TokensOutput: 5})
	j.Append(notes.Record{StepOrNodeID: "steps[1]", AgentID: "reviewer", TokensInput: 8, TokensOutput: 3})

	require.Len(t, j.Records, 2)
	assert.Equal(t, "steps[0]", j.Records[0].StepOrNodeID)
	assert.Equal(t, "steps[1]", j.Records[1].StepOrNodeID)
}

func TestDigestIsStable(t *testing.T) {
	assert.Equal(t, notes.Digest("hello"), notes.Digest("hello"))
	assert.NotEqual(t, notes.Digest("hello"), notes.Digest("world"))
}

func TestRenderMarkdownIncludesEachRecord(t *testing.T) {
	j := &notes.Journal{}
	j.Append(notes.Record{StepOrNodeID: "steps[0]", AgentID: "writer", TokensInput: 10, TokensOutput: 5})

	md := j.RenderMarkdown()
	assert.True(t, strings.Contains(md, "steps[0]"))
	assert.True(t, strings.Contains(md, "writer"))
}

func TestRenderJSONRoundTrips(t *testing.T) {
	j := &notes.Journal{}
	j.Append(notes.Record{StepOrNodeID: "nodes[a]", AgentID: "classifier"})

	out, err := j.RenderJSON()
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "nodes[a]"))
}

func TestDiffMarkdownMarksChanges(t *testing.T) {
	before := "| steps[0] | writer | 10 | 5 |\n"
	after := "| steps[0] | writer | 12 | 6 |\n"

	diff := notes.DiffMarkdown(before, after)
	assert.True(t, strings.Contains(diff, "+"))
	assert.True(t, strings.Contains(diff, "-"))
}
