// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package template

import (
	"fmt"
	"strconv"
	"strings"
)

// evalExpr evaluates expr (an output expression, e.g. "steps[0].response"
// or "last_response | upper") against root. The second return reports
// whether the reference resolved; false + nil error means "undefined",
// which the caller renders as empty string (spec §4.1), not an error.
func (e *Engine) evalExpr(expr string, root map[string]any) (any, bool, error) {
	p := &exprParser{tokens: tokenizeExpr(expr)}
	v, ok, err := p.parsePipeline(root)
	if err != nil {
		return nil, false, err
	}
	if !p.atEnd() {
		return nil, false, fmt.Errorf("%w: trailing input in expression %q", ErrSyntax, expr)
	}
	return v, ok, nil
}

// evalBool evaluates a boolean condition expression (route conditions,
// {% if %} tags, graph edge conditions). Undefined identifiers evaluate to
// a zero value (empty string / false / 0) rather than failing the whole
// expression, matching spec §4.1's "undefined renders as empty" spirit
// extended to boolean contexts.
func (e *Engine) evalBool(expr string, root map[string]any) (bool, error) {
	p := &exprParser{tokens: tokenizeExpr(expr)}
	v, err := p.parseOr(root)
	if err != nil {
		return false, err
	}
	if !p.atEnd() {
		return false, fmt.Errorf("%w: trailing input in condition %q", ErrSyntax, expr)
	}
	return truthy(v), nil
}

type exprParser struct {
	tokens []string
	pos    int
}

func (p *exprParser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *exprParser) peek() string {
	if p.atEnd() {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *exprParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

// parsePipeline parses a path/literal followed by zero or more `| filter`
// stages — the grammar an output expression uses.
func (p *exprParser) parsePipeline(root map[string]any) (any, bool, error) {
	v, ok, err := p.parsePrimary(root)
	if err != nil {
		return nil, false, err
	}
	for p.peek() == "|" {
		p.next()
		name := p.next()
		var arg string
		hasArg := false
		if p.peek() == ":" {
			p.next()
			arg = p.next()
			hasArg = true
		}
		v, ok, err = applyFilter(name, v, ok, arg, hasArg)
		if err != nil {
			return nil, false, err
		}
	}
	return v, ok, nil
}

func applyFilter(name string, v any, ok bool, arg string, hasArg bool) (any, bool, error) {
	if !ok {
		v = ""
	}
	switch name {
	case "lowercase":
		out, err := filterWhitelist["lowercase"](v)
		return out, true, err
	case "upper":
		out, err := filterWhitelist["upper"](v)
		return out, true, err
	case "json":
		out, err := jsonFilter(v)
		return out, true, err
	case "length":
		out, err := lengthFilter(v)
		return out, true, err
	case "default":
		if !ok || isEmptyValue(v) {
			return unquoteLiteral(arg), true, nil
		}
		return v, true, nil
	case "truncate":
		n := 0
		if hasArg {
			n, _ = strconv.Atoi(arg)
		}
		s := toString(v)
		r := []rune(s)
		if n > 0 && len(r) > n {
			s = string(r[:n])
		}
		return s, true, nil
	default:
		return nil, false, fmt.Errorf("%w: unknown filter %q", ErrSandbox, name)
	}
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case nil:
		return true
	default:
		return false
	}
}

func unquoteLiteral(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// parsePrimary parses a string/number/bool literal or a dotted/indexed
// path rooted at one of the virtual-root names.
func (p *exprParser) parsePrimary(root map[string]any) (any, bool, error) {
	tok := p.peek()
	if tok == "" {
		return nil, false, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	if tok == "(" {
		p.next()
		v, ok, err := p.parsePipeline(root)
		if err != nil {
			return nil, false, err
		}
		if p.next() != ")" {
			return nil, false, fmt.Errorf("%w: expected )", ErrSyntax)
		}
		return v, ok, nil
	}
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		p.next()
		return tok[1 : len(tok)-1], true, nil
	}
	if tok == "true" || tok == "false" {
		p.next()
		return tok == "true", true, nil
	}
	if n, err := strconv.ParseFloat(tok, 64); err == nil && isNumberToken(tok) {
		p.next()
		return n, true, nil
	}
	return p.parsePath(root)
}

func isNumberToken(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || (r == '-' && i == 0) {
			continue
		}
		return false
	}
	return true
}

func (p *exprParser) parsePath(root map[string]any) (any, bool, error) {
	ident := p.next()
	if !isIdent(ident) {
		return nil, false, fmt.Errorf("%w: unexpected token %q", ErrSyntax, ident)
	}
	cur, ok := root[ident]
	if !ok {
		cur = nil
	}
	resolved := ok
	for {
		switch p.peek() {
		case ".":
			p.next()
			field := p.next()
			if !isIdent(field) {
				return nil, false, fmt.Errorf("%w: unexpected token %q", ErrSyntax, field)
			}
			cur, resolved = lookupField(cur, field)
		case "[":
			p.next()
			idxTok := p.next()
			if p.next() != "]" {
				return nil, false, fmt.Errorf("%w: expected ]", ErrSyntax)
			}
			cur, resolved = lookupIndex(cur, idxTok)
		default:
			return cur, resolved, nil
		}
		if !resolved {
			// keep consuming the rest of the path so callers see a clean
			// "undefined" rather than a parse error on an unreached field
			for p.peek() == "." || p.peek() == "[" {
				if p.peek() == "." {
					p.next()
					p.next()
				} else {
					p.next()
					p.next()
					p.next()
				}
			}
			return nil, false, nil
		}
	}
}

func lookupField(cur any, field string) (any, bool) {
	m, ok := cur.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[field]
	return v, ok
}

func lookupIndex(cur any, idxTok string) (any, bool) {
	if len(idxTok) >= 2 && idxTok[0] == '"' && idxTok[len(idxTok)-1] == '"' {
		return lookupField(cur, idxTok[1:len(idxTok)-1])
	}
	idx, err := strconv.Atoi(idxTok)
	if err != nil {
		return nil, false
	}
	arr, ok := cur.([]any)
	if !ok || idx < 0 || idx >= len(arr) {
		return nil, false
	}
	return arr[idx], true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_' {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

// --- boolean/comparison grammar ---

func (p *exprParser) parseOr(root map[string]any) (bool, error) {
	v, err := p.parseAnd(root)
	if err != nil {
		return false, err
	}
	for p.peek() == "||" {
		p.next()
		rhs, err := p.parseAnd(root)
		if err != nil {
			return false, err
		}
		v = v || rhs
	}
	return v, nil
}

func (p *exprParser) parseAnd(root map[string]any) (bool, error) {
	v, err := p.parseNot(root)
	if err != nil {
		return false, err
	}
	for p.peek() == "&&" {
		p.next()
		rhs, err := p.parseNot(root)
		if err != nil {
			return false, err
		}
		v = v && rhs
	}
	return v, nil
}

func (p *exprParser) parseNot(root map[string]any) (bool, error) {
	if p.peek() == "!" {
		p.next()
		v, err := p.parseNot(root)
		return !v, err
	}
	return p.parseComparison(root)
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *exprParser) parseComparison(root map[string]any) (bool, error) {
	save := p.pos
	lhs, lhsOK, err := p.parsePipeline(root)
	if err != nil {
		p.pos = save
		return false, err
	}
	if comparisonOps[p.peek()] {
		op := p.next()
		rhs, rhsOK, err := p.parsePipeline(root)
		if err != nil {
			return false, err
		}
		return compare(op, lhs, lhsOK, rhs, rhsOK), nil
	}
	return truthy(lhs), nil
}

func compare(op string, lhs any, lhsOK bool, rhs any, rhsOK bool) bool {
	if !lhsOK {
		lhs = ""
	}
	if !rhsOK {
		rhs = ""
	}
	if lf, lok := asFloat(lhs); lok {
		if rf, rok := asFloat(rhs); rok {
			switch op {
			case "==":
				return lf == rf
			case "!=":
				return lf != rf
			case "<":
				return lf < rf
			case "<=":
				return lf <= rf
			case ">":
				return lf > rf
			case ">=":
				return lf >= rf
			}
		}
	}
	ls, rs := toString(lhs), toString(rhs)
	switch op {
	case "==":
		return ls == rs
	case "!=":
		return ls != rs
	case "<":
		return ls < rs
	case "<=":
		return ls <= rs
	case ">":
		return ls > rs
	case ">=":
		return ls >= rs
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case nil:
		return false
	default:
		return true
	}
}

// tokenizeExpr splits an expression into tokens: identifiers, numbers,
// quoted strings, and the fixed set of punctuation/operators the grammar
// uses. This is a closed grammar — no identifier resolves outside the
// root map passed to evalExpr/evalBool (the sandbox boundary), and no
// token triggers code execution.
func tokenizeExpr(s string) []string {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '"':
			j := i + 1
			for j < len(s) && s[j] != '"' {
				j++
			}
			if j < len(s) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		case strings.ContainsRune("()[].|:!", rune(c)):
			if (c == '&' || c == '|') && i+1 < len(s) && s[i+1] == c {
				toks = append(toks, s[i:i+2])
				i += 2
				continue
			}
			if c == '!' && i+1 < len(s) && s[i+1] == '=' {
				toks = append(toks, "!=")
				i += 2
				continue
			}
			toks = append(toks, string(c))
			i++
		case c == '&' || c == '|':
			if i+1 < len(s) && s[i+1] == c {
				toks = append(toks, s[i:i+2])
				i += 2
			} else {
				toks = append(toks, string(c))
				i++
			}
		case c == '=' || c == '<' || c == '>':
			if i+1 < len(s) && s[i+1] == '=' {
				toks = append(toks, s[i:i+2])
				i += 2
			} else {
				toks = append(toks, string(c))
				i++
			}
		default:
			j := i
			for j < len(s) && (!strings.ContainsRune(" \t()[].|:!&=<>", rune(s[j])) ||
				// a numeric literal keeps its single decimal point ("0.8")
				(s[j] == '.' && isNumberToken(s[i:j]) && !strings.Contains(s[i:j], "."))) {
				j++
			}
			if j == i {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}
