// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package orchestration holds the dispatcher and the seven pattern
// executors (§4.8): chain, routing, parallel, workflow/DAG, graph,
// evaluator-optimizer, orchestrator-workers. Each executor is a plain
// function over a shared Runtime, not a method on a class hierarchy —
// the tagged-variant Pattern dispatches to exactly one of seven
// executor functions (spec §9's explicit design note), mirroring how
// the teacher's own orchestration package dispatches by
// loomv1.Pattern.PatternType (see orchestrator.go in the retrieved
// tree) generalized from a oneof-in-protobuf discriminator to a
// Go string-typed one.
package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/loomrun/engine/pkg/agentcache"
	"github.com/loomrun/engine/pkg/budget"
	"github.com/loomrun/engine/pkg/compaction"
	"github.com/loomrun/engine/pkg/events"
	"github.com/loomrun/engine/pkg/modelpool"
	"github.com/loomrun/engine/pkg/notes"
	"github.com/loomrun/engine/pkg/provider"
	"github.com/loomrun/engine/pkg/spec"
	"github.com/loomrun/engine/pkg/template"
	"github.com/loomrun/engine/pkg/tool"
	"go.uber.org/zap"
)

// maxToolRounds bounds how many tool-call/re-invoke round trips one
// agent invocation may take before it's treated as non-terminating.
const maxToolRounds = 5

// Runtime bundles everything a pattern executor needs: the validated
// spec, the shared caches/pools, the template engine, the tool
// registry, and the event sink. One Runtime serves exactly one run.
type Runtime struct {
	Spec     *spec.Spec
	Pool     *modelpool.Pool
	Cache    *agentcache.Cache
	Tools    *tool.Registry
	Tmpl     *template.Engine
	Emitter  events.Emitter
	RunID    string
	Ledger   *budget.Ledger
	Inputs   map[string]any
	Logger   *zap.Logger
	Now      func() time.Time
	Notes    *notes.Journal
	compactor *compaction.Compactor
	notesMu   sync.Mutex
}

// New builds a Runtime. summarize backs the compaction hook (see
// pkg/compaction); pass nil if s.Context.Compaction.Enabled is false.
func New(s *spec.Spec, pool *modelpool.Pool, tools *tool.Registry, emitter events.Emitter, runID string, inputs map[string]any, summarize compaction.Summarizer, logger *zap.Logger) *Runtime {
	if emitter == nil {
		emitter = events.NoOpEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{
		Spec:      s,
		Pool:      pool,
		Cache:     agentcache.New(),
		Tools:     tools,
		Tmpl:      template.New(),
		Emitter:   emitter,
		RunID:     runID,
		Ledger:    budget.NewLedger(),
		Inputs:    inputs,
		Logger:    logger,
		Now:       time.Now,
		Notes:     &notes.Journal{},
		compactor: compaction.New(s.Context.Compaction, summarize),
	}
}

// recordNote appends one Notes Hook entry. Safe for concurrent callers
// (parallel/workflow/orchestrator-workers executors invoke agents
// concurrently), unlike notes.Journal.Append on its own.
func (rt *Runtime) recordNote(stepOrNodeID, agentID, input, output string, tokensIn, tokensOut int) {
	rt.notesMu.Lock()
	defer rt.notesMu.Unlock()
	rt.Notes.Append(notes.Record{
		StepOrNodeID: stepOrNodeID,
		AgentID:      agentID,
		InputDigest:  notes.Digest(input),
		OutputDigest: notes.Digest(output),
		TokensInput:  tokensIn,
		TokensOutput: tokensOut,
		Timestamp:    rt.Now(),
	})
}

func (rt *Runtime) emit(name string, attrs map[string]any) {
	rt.Emitter.Emit(events.Event{Name: name, RunID: rt.RunID, Attributes: attrs, Timestamp: rt.Now()})
}

// render expands tmpl against root merged with rt.Inputs under "inputs".
func (rt *Runtime) render(tmpl string, root map[string]any) (string, error) {
	full := make(map[string]any, len(root)+1)
	for k, v := range root {
		full[k] = v
	}
	full["inputs"] = rt.Inputs
	rendered, err := rt.Tmpl.Render(tmpl, full)
	if err != nil {
		return "", fmt.Errorf("orchestration: render %q: %w", tmpl, err)
	}
	return rendered, nil
}

func (rt *Runtime) evalBool(cond string, root map[string]any) (bool, error) {
	full := make(map[string]any, len(root)+1)
	for k, v := range root {
		full[k] = v
	}
	full["inputs"] = rt.Inputs
	return rt.Tmpl.EvalBool(cond, full)
}

// evalExpr evaluates a standalone output expression (e.g. score_path)
// against root merged with rt.Inputs.
func (rt *Runtime) evalExpr(expr string, root map[string]any) (any, bool, error) {
	full := make(map[string]any, len(root)+1)
	for k, v := range root {
		full[k] = v
	}
	full["inputs"] = rt.Inputs
	return rt.Tmpl.EvalExpr(expr, full)
}

// invokeResult is one agent invocation outcome, in the shape §3 calls
// for: {response, tokens, metadata}.
type invokeResult struct {
	Response string
	Tokens   int
	Metadata map[string]any
}

// invoke resolves agentID's effective config, fetches its model client
// and assembled agent (via cache), renders its prompt, and invokes it
// through the retry/budget substrate. When the response carries tool
// calls, invoke resolves each through rt.Tools, appends the results to
// history, and re-invokes the same substrate call until the model stops
// asking for tools or maxToolRounds is reached — the core, not the
// provider, drives this loop (§5's tool-execution suspension point).
// Each round's history comes back from the substrate already carrying
// the assistant's turn and already compacted (§4.3's attempt-then-
// compact ordering); invoke only has to fold in the tool results before
// the next round.
// stepLabel identifies the calling step/node/task/branch for the Notes
// Hook journal (e.g. "steps[0]", "tasks.b", "nodes.draft[0]",
// "branches.b1.steps[0]", "router", "orchestrator.plan").
func (rt *Runtime) invoke(ctx context.Context, stepLabel, agentID, renderedInput string) (invokeResult, error) {
	agentSpec, ok := rt.Spec.Agents[agentID]
	if !ok {
		return invokeResult{}, fmt.Errorf("orchestration: unknown agent %q", agentID)
	}

	modelID := agentSpec.ModelID
	if modelID == "" {
		modelID = rt.Spec.Runtime.ModelID
	}
	handleKey := provider.HandleKey{Provider: rt.Spec.Runtime.Provider, Model: modelID}

	fp := agentcache.Fingerprint(agentSpec, handleKey)
	asm, err := rt.Cache.GetOrBuild(fp, func() (*agentcache.Agent, error) {
		return &agentcache.Agent{
			ID:        agentSpec.ID,
			Prompt:    agentSpec.Prompt,
			Tools:     agentSpec.Tools,
			HandleKey: handleKey,
			Inference: agentSpec.Inference,
		}, nil
	})
	if err != nil {
		return invokeResult{}, fmt.Errorf("orchestration: assemble agent %q: %w", agentID, err)
	}

	client, err := rt.Pool.Get(ctx, handleKey)
	if err != nil {
		return invokeResult{}, fmt.Errorf("orchestration: acquire model client for %q: %w", agentID, err)
	}

	sub := budget.New(rt.Spec.Runtime.Budgets, rt.Spec.Runtime.FailurePolicy, rt.compactor, rt.Ledger)
	sub.OnWarning = func(event string, fields map[string]any) { rt.emit(event, fields) }

	history := []provider.Message{{Role: "system", Content: asm.Prompt}}
	prompt := renderedInput
	totalTokensIn, totalTokensOut := 0, 0

	var resp provider.Response
	for round := 0; ; round++ {
		var err error
		resp, history, err = sub.Invoke(ctx, client, prompt, history, asm.Tools)
		totalTokensIn += resp.TokensInput
		totalTokensOut += resp.TokensOutput
		if err != nil {
			// A budget breach still carries the response that tripped it
			// (§8 S6): record and surface it rather than discarding resp.
			if errors.Is(err, budget.ErrBudgetExceeded) {
				rt.recordNote(stepLabel, agentID, renderedInput, resp.Text, totalTokensIn, totalTokensOut)
				return invokeResult{
					Response: resp.Text,
					Tokens:   totalTokensIn + totalTokensOut,
					Metadata: map[string]any{"agent_id": agentID},
				}, err
			}
			return invokeResult{}, err
		}

		if len(resp.ToolCalls) == 0 {
			break
		}
		if round >= maxToolRounds {
			return invokeResult{}, fmt.Errorf("orchestration: agent %q exceeded %d tool-call rounds", agentID, maxToolRounds)
		}

		for _, call := range resp.ToolCalls {
			t, lookupErr := rt.Tools.Lookup(call.Name)
			if lookupErr != nil {
				return invokeResult{}, fmt.Errorf("orchestration: agent %q tool %q: %w", agentID, call.Name, lookupErr)
			}
			result, callErr := t.Call(ctx, call.Input)
			if callErr != nil {
				return invokeResult{}, fmt.Errorf("orchestration: agent %q tool %q call: %w", agentID, call.Name, callErr)
			}
			encoded, _ := json.Marshal(result)
			history = append(history, provider.Message{Role: "tool", Content: string(encoded)})
		}
		// The tool results are now in history; the next round carries no
		// new user-turn prompt of its own.
		prompt = ""
	}

	rt.recordNote(stepLabel, agentID, renderedInput, resp.Text, totalTokensIn, totalTokensOut)

	return invokeResult{
		Response: resp.Text,
		Tokens:   totalTokensIn + totalTokensOut,
		Metadata: map[string]any{"agent_id": agentID},
	}, nil
}
