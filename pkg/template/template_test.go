// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package template_test

import (
	"testing"

	"github.com/loomrun/engine/pkg/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVariableSubstitution(t *testing.T) {
	e := template.New()
	out, err := e.Render("hello {{ name }}", map[string]any{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestRenderDottedAndIndexedPath(t *testing.T) {
	e := template.New()
	root := map[string]any{
		"steps": []any{
			map[string]any{"response": "first"},
			map[string]any{"response": "second"},
		},
	}
	out, err := e.Render("{{ steps[1].response }}", root)
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestRenderUndefinedIsNonFatal(t *testing.T) {
	var undefined string
	e := template.New()
	e.Undefined = func(expr string) { undefined = expr }
	out, err := e.Render("[{{ missing.field }}]", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
	assert.Equal(t, "missing.field", undefined)
}

func TestRenderStrictUndefinedErrors(t *testing.T) {
	e := template.New()
	e.Strict = true
	_, err := e.Render("{{ missing }}", map[string]any{})
	require.ErrorIs(t, err, template.ErrSyntax)
}

func TestRenderIfElse(t *testing.T) {
	e := template.New()
	tmpl := "{% if ready %}go{% else %}wait{% endif %}"
	out, err := e.Render(tmpl, map[string]any{"ready": true})
	require.NoError(t, err)
	assert.Equal(t, "go", out)

	out, err = e.Render(tmpl, map[string]any{"ready": false})
	require.NoError(t, err)
	assert.Equal(t, "wait", out)
}

func TestRenderIfComparison(t *testing.T) {
	e := template.New()
	tmpl := `{% if score >= 0.8 %}pass{% else %}fail{% endif %}`
	out, err := e.Render(tmpl, map[string]any{"score": 0.9})
	require.NoError(t, err)
	assert.Equal(t, "pass", out)

	out, err = e.Render(tmpl, map[string]any{"score": 0.5})
	require.NoError(t, err)
	assert.Equal(t, "fail", out)
}

func TestRenderForLoop(t *testing.T) {
	e := template.New()
	tmpl := "{% for branch in branches %}({{ branch.name }}){% endfor %}"
	root := map[string]any{
		"branches": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b"},
		},
	}
	out, err := e.Render(tmpl, root)
	require.NoError(t, err)
	assert.Equal(t, "(a)(b)", out)
}

func TestFilterLowercaseUpper(t *testing.T) {
	e := template.New()
	out, err := e.Render("{{ name | upper }}-{{ name | lowercase }}", map[string]any{"name": "MiXeD"})
	require.NoError(t, err)
	assert.Equal(t, "MIXED-mixed", out)
}

func TestFilterDefault(t *testing.T) {
	e := template.New()
	out, err := e.Render(`{{ missing | default:"fallback" }}`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", out)
}

func TestFilterTruncate(t *testing.T) {
	e := template.New()
	out, err := e.Render("{{ text | truncate:5 }}", map[string]any{"text": "hello world"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestFilterLength(t *testing.T) {
	e := template.New()
	out, err := e.Render("{{ items | length }}", map[string]any{"items": []any{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, "3", out)
}

func TestFilterJSON(t *testing.T) {
	e := template.New()
	out, err := e.Render("{{ payload | json }}", map[string]any{"payload": map[string]any{"a": float64(1)}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestUnknownFilterIsSandboxError(t *testing.T) {
	e := template.New()
	_, err := e.Render("{{ name | exec }}", map[string]any{"name": "x"})
	require.ErrorIs(t, err, template.ErrSandbox)
}

func TestBooleanOperators(t *testing.T) {
	e := template.New()
	tmpl := `{% if a && !b %}yes{% else %}no{% endif %}`
	out, err := e.Render(tmpl, map[string]any{"a": true, "b": false})
	require.NoError(t, err)
	assert.Equal(t, "yes", out)

	out, err = e.Render(tmpl, map[string]any{"a": true, "b": true})
	require.NoError(t, err)
	assert.Equal(t, "no", out)
}
