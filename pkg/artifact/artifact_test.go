// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package artifact_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/loomrun/engine/pkg/artifact"
	"github.com/loomrun/engine/pkg/spec"
	"github.com/loomrun/engine/pkg/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRendersPathAndContent(t *testing.T) {
	dir := t.TempDir()
	r := artifact.New(dir, template.New(), nil)
	root := map[string]any{"name": "report", "body": "hello world"}

	err := r.Write(spec.ArtifactSpec{Path: "out/{{ name }}.txt", From: "{{ body }}"}, root)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "out", "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
}

func TestWriteRejectsAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	r := artifact.New(dir, template.New(), nil)

	err := r.Write(spec.ArtifactSpec{Path: "/etc/passwd", From: "x"}, nil)
	require.ErrorIs(t, err, artifact.ErrAbsolutePath)
}

func TestWriteRejectsPathEscapingRoot(t *testing.T) {
	dir := t.TempDir()
	r := artifact.New(dir, template.New(), nil)

	err := r.Write(spec.ArtifactSpec{Path: "../escape.txt", From: "x"}, nil)
	require.ErrorIs(t, err, artifact.ErrPathEscapesRoot)
}

func TestWriteWithoutForceFailsOnExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.txt"), []byte("old"), 0o644))
	r := artifact.New(dir, template.New(), nil)

	err := r.Write(spec.ArtifactSpec{Path: "report.txt", From: "new"}, nil)
	require.ErrorIs(t, err, artifact.ErrExists)
}

func TestWriteWithForceOverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.txt"), []byte("old"), 0o644))
	r := artifact.New(dir, template.New(), nil)

	err := r.Write(spec.ArtifactSpec{Path: "report.txt", From: "new", Force: true}, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}
