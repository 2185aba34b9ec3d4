// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package template is a narrow, sandboxed renderer: a fixed expression
// grammar (identifier, dotted/indexed path, boolean comparisons), a fixed
// filter whitelist, and one sandbox boundary. Spec §9 is explicit that a
// reimplementation must NOT reuse an open-ended general-purpose templating
// library unsandboxed — this engine is hand-built for exactly that reason,
// not because the ecosystem lacks template libraries in general.
package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is returned for malformed template syntax.
var ErrSyntax = errors.New("template: syntax error")

// ErrSandbox is returned when an expression attempts to escape the
// sandbox: no identifier outside the virtual root, no method calls, no
// filesystem access, no arbitrary code execution.
var ErrSandbox = errors.New("template: sandbox violation")

// UndefinedFunc is called whenever an expression resolves to an undefined
// reference. It is not fatal (spec §4.1): the reference renders as empty
// string and this hook fires for the caller to emit a template.undefined
// event, unless Strict is set on the Engine.
type UndefinedFunc func(expr string)

// filterWhitelist is the fixed set of text filters spec §4.1 names.
// Expanding this list is a protocol change, not a bug fix.
var filterWhitelist = map[string]func(any) (any, error){
	"lowercase": func(v any) (any, error) { return strings.ToLower(toString(v)), nil },
	"upper":     func(v any) (any, error) { return strings.ToUpper(toString(v)), nil },
	"json":      jsonFilter,
	"length":    lengthFilter,
	"truncate":  nil, // truncate takes an argument; handled specially in applyFilter
	"default":   nil, // default takes an argument; handled specially in applyFilter
}

// Engine renders templates against a virtual root value. Strict mode turns
// undefined references into an error wrapping ErrSyntax instead of empty
// string.
type Engine struct {
	Strict    bool
	Undefined UndefinedFunc
}

// New builds a default, non-strict Engine.
func New() *Engine {
	return &Engine{}
}

// EvalBool evaluates a standalone boolean expression (a routing
// condition or a graph edge condition) against root, using the same
// grammar {% if %} tags use.
func (e *Engine) EvalBool(expr string, root map[string]any) (bool, error) {
	return e.evalBool(expr, root)
}

// EvalExpr evaluates a standalone output expression (e.g. a
// score_path) against root, returning the resolved value and whether it
// was defined.
func (e *Engine) EvalExpr(expr string, root map[string]any) (any, bool, error) {
	return e.evalExpr(expr, root)
}

// Render renders template against the supplied root context. Pure and
// deterministic given the same (template, root) pair.
func (e *Engine) Render(tmpl string, root map[string]any) (string, error) {
	nodes, err := parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	var buf strings.Builder
	if err := e.execNodes(nodes, root, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Engine) execNodes(nodes []node, root map[string]any, buf *strings.Builder) error {
	for _, n := range nodes {
		if err := e.execNode(n, root, buf); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) execNode(n node, root map[string]any, buf *strings.Builder) error {
	switch t := n.(type) {
	case textNode:
		buf.WriteString(string(t))
		return nil
	case exprNode:
		v, ok, err := e.evalExpr(t.expr, root)
		if err != nil {
			return err
		}
		if !ok {
			if e.Strict {
				return fmt.Errorf("%w: undefined reference %q", ErrSyntax, t.expr)
			}
			if e.Undefined != nil {
				e.Undefined(t.expr)
			}
			return nil
		}
		buf.WriteString(toString(v))
		return nil
	case ifNode:
		cond, err := e.evalBool(t.cond, root)
		if err != nil {
			return err
		}
		if cond {
			return e.execNodes(t.body, root, buf)
		}
		return e.execNodes(t.elseBody, root, buf)
	case forNode:
		seq, ok, err := e.evalExpr(t.source, root)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		items, err := toSlice(seq)
		if err != nil {
			return fmt.Errorf("%w: for %s: %v", ErrSyntax, t.varName, err)
		}
		for _, item := range items {
			loopRoot := make(map[string]any, len(root)+1)
			for k, v := range root {
				loopRoot[k] = v
			}
			loopRoot[t.varName] = item
			if err := e.execNodes(t.body, loopRoot, buf); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown node type %T", ErrSyntax, n)
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toSlice(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("value is not a sequence: %T", v)
	}
}

func jsonFilter(v any) (any, error) {
	return marshalJSON(v)
}

func lengthFilter(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return strconv.Itoa(len([]rune(t))), nil
	case []any:
		return strconv.Itoa(len(t)), nil
	case map[string]any:
		return strconv.Itoa(len(t)), nil
	case nil:
		return "0", nil
	default:
		return "", fmt.Errorf("length: unsupported type %T", v)
	}
}
