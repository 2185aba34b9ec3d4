// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package template

import (
	"fmt"
	"strings"
)

// node is one piece of a parsed template: literal text, an output
// expression, or a block (if/for).
type node any

type textNode string

type exprNode struct{ expr string }

type ifNode struct {
	cond     string
	body     []node
	elseBody []node
}

type forNode struct {
	varName string
	source  string
	body    []node
}

// rawTag is an intermediate token produced by the outer text/tag splitter,
// before block structure (if/for nesting) is resolved.
type rawTag struct {
	kind    string // "text", "expr", "tag"
	text    string
	tagName string // for kind=="tag": if/else/endif/for/endfor
	tagRest string
}

// parse splits tmpl into text/{{expr}}/{%tag%} tokens, then builds a tree
// resolving if/for block nesting. This is the engine's only entry point
// into template syntax — no other package parses template strings.
func parse(tmpl string) ([]node, error) {
	tags, err := tokenize(tmpl)
	if err != nil {
		return nil, err
	}
	nodes, rest, err := buildBlock(tags, "")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("unexpected trailing tag %q", rest[0].tagName)
	}
	return nodes, nil
}

func tokenize(tmpl string) ([]rawTag, error) {
	var tags []rawTag
	i := 0
	for i < len(tmpl) {
		nextExpr := strings.Index(tmpl[i:], "{{")
		nextTag := strings.Index(tmpl[i:], "{%")
		var start, kind int
		const (
			kNone = iota
			kExpr
			kTag
		)
		switch {
		case nextExpr == -1 && nextTag == -1:
			tags = append(tags, rawTag{kind: "text", text: tmpl[i:]})
			return tags, nil
		case nextTag == -1 || (nextExpr != -1 && nextExpr < nextTag):
			start, kind = nextExpr, kExpr
		default:
			start, kind = nextTag, kTag
		}
		if start > 0 {
			tags = append(tags, rawTag{kind: "text", text: tmpl[i : i+start]})
		}
		i += start
		if kind == kExpr {
			end := strings.Index(tmpl[i:], "}}")
			if end == -1 {
				return nil, fmt.Errorf("unterminated {{ at offset %d", i)
			}
			tags = append(tags, rawTag{kind: "expr", text: strings.TrimSpace(tmpl[i+2 : i+end])})
			i += end + 2
		} else {
			end := strings.Index(tmpl[i:], "%}")
			if end == -1 {
				return nil, fmt.Errorf("unterminated {%% at offset %d", i)
			}
			body := strings.TrimSpace(tmpl[i+2 : i+end])
			name, rest, _ := strings.Cut(body, " ")
			tags = append(tags, rawTag{kind: "tag", tagName: name, tagRest: strings.TrimSpace(rest)})
			i += end + 2
		}
	}
	return tags, nil
}

// buildBlock consumes tags until it sees a tag in stopAt (or end of
// input), returning the built nodes and the unconsumed remainder
// (including the stopping tag, so the caller can inspect which one it was).
func buildBlock(tags []rawTag, stopAt string) ([]node, []rawTag, error) {
	var nodes []node
	for len(tags) > 0 {
		t := tags[0]
		switch t.kind {
		case "text":
			nodes = append(nodes, textNode(t.text))
			tags = tags[1:]
		case "expr":
			nodes = append(nodes, exprNode{expr: t.text})
			tags = tags[1:]
		case "tag":
			if t.tagName == stopAt || (stopAt == "if" && t.tagName == "else") {
				return nodes, tags, nil
			}
			switch t.tagName {
			case "if":
				body, rest, err := buildBlock(tags[1:], "if")
				if err != nil {
					return nil, nil, err
				}
				var elseBody []node
				if len(rest) > 0 && rest[0].tagName == "else" {
					elseBody, rest, err = buildBlock(rest[1:], "if")
					if err != nil {
						return nil, nil, err
					}
				}
				if len(rest) == 0 || rest[0].tagName != "endif" {
					return nil, nil, fmt.Errorf("if without matching endif")
				}
				nodes = append(nodes, ifNode{cond: t.tagRest, body: body, elseBody: elseBody})
				tags = rest[1:]
			case "for":
				varName, source, ok := strings.Cut(t.tagRest, " in ")
				if !ok {
					return nil, nil, fmt.Errorf("malformed for tag: %q", t.tagRest)
				}
				body, rest, err := buildBlock(tags[1:], "endfor")
				if err != nil {
					return nil, nil, err
				}
				if len(rest) == 0 || rest[0].tagName != "endfor" {
					return nil, nil, fmt.Errorf("for without matching endfor")
				}
				nodes = append(nodes, forNode{varName: strings.TrimSpace(varName), source: strings.TrimSpace(source), body: body})
				tags = rest[1:]
			default:
				return nil, nil, fmt.Errorf("unexpected tag %q", t.tagName)
			}
		}
	}
	return nodes, nil, nil
}
