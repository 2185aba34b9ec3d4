// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package artifact writes a run's declared output files: a path
// template and a content template, both expanded against the final
// Execution Context snapshot.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomrun/engine/pkg/spec"
	"github.com/loomrun/engine/pkg/template"
	"go.uber.org/zap"
)

// ErrAbsolutePath is returned when a rendered artifact path is absolute.
var ErrAbsolutePath = errors.New("artifact: path must be relative")

// ErrPathEscapesRoot is returned when a rendered artifact path climbs
// above the output root via "..".
var ErrPathEscapesRoot = errors.New("artifact: path escapes output root")

// ErrExists is returned when an artifact's target file already exists
// and Force was not set (spec §9 open-question resolution: the
// overwrite policy is uniform across every artifact, not per-call).
var ErrExists = errors.New("artifact: file exists")

// Renderer expands and writes a run's declared artifacts.
type Renderer struct {
	Root   string
	Tmpl   *template.Engine
	Logger *zap.Logger
}

// New builds a Renderer rooted at root. All artifact paths are resolved
// relative to root and must not escape it.
func New(root string, tmpl *template.Engine, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{Root: root, Tmpl: tmpl, Logger: logger}
}

// WriteAll renders and writes every artifact in specs against root,
// stopping at the first failure.
func (r *Renderer) WriteAll(specs []spec.ArtifactSpec, root map[string]any) error {
	for _, a := range specs {
		if err := r.Write(a, root); err != nil {
			return err
		}
	}
	return nil
}

// Write renders one artifact's path and content templates and writes
// the result atomically (write to a sibling temp file, then rename).
func (r *Renderer) Write(a spec.ArtifactSpec, root map[string]any) error {
	relPath, err := r.Tmpl.Render(a.Path, root)
	if err != nil {
		return fmt.Errorf("artifact: render path %q: %w", a.Path, err)
	}
	if filepath.IsAbs(relPath) {
		return fmt.Errorf("%w: %q", ErrAbsolutePath, relPath)
	}

	full := filepath.Join(r.Root, relPath)
	rel, err := filepath.Rel(r.Root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %q", ErrPathEscapesRoot, relPath)
	}

	content, err := r.Tmpl.Render(a.From, root)
	if err != nil {
		return fmt.Errorf("artifact: render content for %q: %w", relPath, err)
	}

	if !a.Force {
		if _, err := os.Stat(full); err == nil {
			return fmt.Errorf("%w: %q", ErrExists, relPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("artifact: stat %q: %w", relPath, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir for %q: %w", relPath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".artifact-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp for %q: %w", relPath, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: write temp for %q: %w", relPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: close temp for %q: %w", relPath, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("artifact: rename into place for %q: %w", relPath, err)
	}

	r.Logger.Info("artifact written", zap.String("path", relPath), zap.Bool("force", a.Force))
	return nil
}
