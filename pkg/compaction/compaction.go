// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package compaction implements the per-agent Compaction Hook (§4.4):
// when conversation history would push an invocation above
// when_tokens_over, the oldest portion is replaced with one summary
// message. Token counting is grounded on the tiktoken-go adapter pattern
// used elsewhere in the retrieved corpus (BaSui01-agentflow's
// llm/tokenizer package): a lazily-initialized encoding, cached once per
// model.
package compaction

import (
	"context"
	"fmt"
	"sync"

	"github.com/loomrun/engine/pkg/provider"
	"github.com/loomrun/engine/pkg/spec"
	"github.com/pkoukk/tiktoken-go"
)

// Summarizer produces a single summary message from a slice of messages
// slated for compaction, typically by invoking a cheaper model.
type Summarizer func(ctx context.Context, messages []provider.Message) (provider.Message, error)

// Compactor applies spec.CompactionConfig to a message history. It is
// idempotent: calling Compact on an already-compacted (short) history is
// a no-op.
type Compactor struct {
	cfg        spec.CompactionConfig
	summarize  Summarizer
	encOnce    sync.Once
	enc        *tiktoken.Tiktoken
	encErr     error
}

// New builds a Compactor. summarize is invoked only when history
// actually exceeds WhenTokensOver; a disabled config makes Compact a
// pass-through.
func New(cfg spec.CompactionConfig, summarize Summarizer) *Compactor {
	return &Compactor{cfg: cfg, summarize: summarize}
}

func (c *Compactor) encoding() (*tiktoken.Tiktoken, error) {
	c.encOnce.Do(func() {
		c.enc, c.encErr = tiktoken.GetEncoding("cl100k_base")
	})
	return c.enc, c.encErr
}

// EstimateTokens returns an approximate token count for history,
// including a small fixed per-message overhead.
func (c *Compactor) EstimateTokens(history []provider.Message) (int, error) {
	enc, err := c.encoding()
	if err != nil {
		return 0, fmt.Errorf("compaction: tokenizer init: %w", err)
	}
	total := 0
	for _, m := range history {
		total += 4 + len(enc.Encode(m.Content, nil, nil)) + len(enc.Encode(m.Role, nil, nil))
	}
	return total, nil
}

// Compact replaces the oldest SummaryRatio fraction of history with a
// single summary message, preserving the last PreserveRecentMessages
// messages verbatim, if and only if history's estimated token count
// exceeds WhenTokensOver. Otherwise history is returned unchanged.
func (c *Compactor) Compact(ctx context.Context, history []provider.Message) ([]provider.Message, error) {
	if !c.cfg.Enabled || len(history) == 0 {
		return history, nil
	}

	tokens, err := c.EstimateTokens(history)
	if err != nil {
		return nil, err
	}
	if tokens <= c.cfg.WhenTokensOver {
		return history, nil
	}

	preserve := c.cfg.PreserveRecentMessages
	if preserve < 0 {
		preserve = 0
	}
	if preserve >= len(history) {
		return history, nil // nothing left to summarize
	}

	eligible := history[:len(history)-preserve]
	ratio := c.cfg.SummaryRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	cut := int(float64(len(eligible)) * ratio)
	if cut <= 0 {
		return history, nil
	}
	if cut > len(eligible) {
		cut = len(eligible)
	}

	toSummarize := eligible[:cut]
	rest := eligible[cut:]

	summary, err := c.summarize(ctx, toSummarize)
	if err != nil {
		return nil, fmt.Errorf("compaction: summarize: %w", err)
	}

	out := make([]provider.Message, 0, 1+len(rest)+preserve)
	out = append(out, summary)
	out = append(out, rest...)
	out = append(out, history[len(history)-preserve:]...)
	return out, nil
}
