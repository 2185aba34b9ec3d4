// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package budget is the single choke point every agent invocation flows
// through: retry with backoff, token/step/duration accounting, and
// terminal abort on budget breach. Grounded on the teacher's
// pkg/agent/llm_retry.go chatWithRetry loop (exponential backoff,
// context-cancellation short-circuit, zap logging on retry/exhaustion),
// generalized to the three configured backoff modes and extended with
// token/step/duration ledger enforcement that the teacher's retry loop
// does not itself perform.
package budget

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/loomrun/engine/pkg/compaction"
	"github.com/loomrun/engine/pkg/provider"
	"github.com/loomrun/engine/pkg/spec"
	"go.uber.org/zap"
)

// ErrBudgetExceeded is terminal: it propagates to the pattern executor
// and aborts the run (§4.3).
var ErrBudgetExceeded = errors.New("budget: exceeded")

// WarningFunc is invoked when the ledger crosses the configured warn
// threshold, and on every retry attempt.
type WarningFunc func(event string, fields map[string]any)

// Ledger holds the running counters spec §3 names, updated atomically by
// every invocation.
type Ledger struct {
	mu           sync.Mutex
	TokensInput  int64
	TokensOutput int64
	Steps        int64
	start        time.Time
}

// NewLedger starts a ledger with its wall-clock origin at now.
func NewLedger() *Ledger {
	return &Ledger{start: time.Now()}
}

func (l *Ledger) record(in, out int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.TokensInput += in
	l.TokensOutput += out
	l.Steps++
}

func (l *Ledger) snapshot() (tokens int64, steps int64, wall time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.TokensInput + l.TokensOutput, l.Steps, time.Since(l.start)
}

// Substrate wraps agent invocations with retry, compaction, and budget
// enforcement, per spec §4.3's mandated ordering: attempt, then
// compaction, then budget check, then context update. Substrate runs
// the first three steps itself and returns the compacted history
// alongside the response; folding that into the caller's own context
// (the fourth step) is the caller's responsibility.
type Substrate struct {
	Budgets    spec.Budgets
	Policy     spec.FailurePolicy
	Compactor  *compaction.Compactor
	OnWarning  WarningFunc
	Ledger     *Ledger
	Now        func() time.Time
	RandSource *rand.Rand
}

// New builds a Substrate for one agent invocation chokepoint. ledger is
// shared across every invocation in a run so budgets accumulate
// correctly across steps/branches/nodes.
func New(budgets spec.Budgets, policy spec.FailurePolicy, compactor *compaction.Compactor, ledger *Ledger) *Substrate {
	if budgets.WarnThreshold <= 0 {
		budgets.WarnThreshold = 0.8
	}
	return &Substrate{
		Budgets:    budgets,
		Policy:     policy,
		Compactor:  compactor,
		Ledger:     ledger,
		Now:        time.Now,
		RandSource: rand.New(rand.NewSource(1)),
	}
}

// Invoke calls client.Invoke with retry/budget semantics applied, in the
// order spec §4.3/§9 mandate: attempt, then compaction, then budget
// score, then context update. Compaction runs on the post-attempt
// history (the given history plus the assistant's reply), not on the
// history handed in — so it's the caller's next round, not this one,
// that sees a shorter transcript. Invoke returns that updated history
// alongside the response; the caller owns folding in anything beyond
// the assistant turn (e.g. tool results) before its own next call.
func (s *Substrate) Invoke(ctx context.Context, client provider.Client, prompt string, history []provider.Message, tools []string) (provider.Response, []provider.Message, error) {
	if err := s.checkStepAndDuration(); err != nil {
		return provider.Response{}, history, err
	}

	maxAttempts := s.Policy.Retries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := s.Policy.WaitMin
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := client.Invoke(ctx, prompt, history, tools)
		if err == nil {
			s.Ledger.record(int64(resp.TokensInput), int64(resp.TokensOutput))

			updated := history
			if resp.Text != "" {
				updated = make([]provider.Message, len(history), len(history)+1)
				copy(updated, history)
				updated = append(updated, provider.Message{Role: "assistant", Content: resp.Text})
			}
			if s.Compactor != nil {
				var cErr error
				updated, cErr = s.Compactor.Compact(ctx, updated)
				if cErr != nil {
					return provider.Response{}, history, fmt.Errorf("budget: compaction: %w", cErr)
				}
			}

			if warnErr := s.checkTokenBudget(); warnErr != nil {
				return resp, updated, warnErr
			}
			return resp, updated, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return provider.Response{}, history, fmt.Errorf("budget: invocation cancelled (attempt %d/%d): %w", attempt+1, maxAttempts, ctx.Err())
		}
		if !provider.IsTransient(err) {
			return provider.Response{}, history, fmt.Errorf("budget: non-transient failure: %w", err)
		}
		if attempt == maxAttempts-1 {
			break
		}

		s.warn("retry.attempt", map[string]any{"attempt": attempt + 1, "max_attempts": maxAttempts, "delay_ms": delay.Milliseconds()})
		zap.L().Warn("agent invocation failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return provider.Response{}, history, fmt.Errorf("budget: cancelled during backoff: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay = s.nextDelay(delay)
	}

	zap.L().Error("agent invocation exhausted retries", zap.Int("max_attempts", maxAttempts), zap.Error(lastErr))
	return provider.Response{}, history, fmt.Errorf("budget: invocation failed after %d attempts: %w", maxAttempts, lastErr)
}

func (s *Substrate) nextDelay(cur time.Duration) time.Duration {
	var next time.Duration
	switch s.Policy.Backoff {
	case spec.BackoffConstant:
		next = cur
	case spec.BackoffExponentialJittered:
		next = cur * 2
		jitter := time.Duration(s.RandSource.Int63n(int64(next) + 1))
		next = next/2 + jitter/2
	default: // exponential
		next = cur * 2
	}
	if s.Policy.WaitMax > 0 && next > s.Policy.WaitMax {
		next = s.Policy.WaitMax
	}
	return next
}

func (s *Substrate) checkTokenBudget() error {
	if s.Budgets.MaxTokens <= 0 {
		return nil
	}
	tokens, _, _ := s.Ledger.snapshot()
	warnAt := float64(s.Budgets.MaxTokens) * s.Budgets.WarnThreshold
	if float64(tokens) >= warnAt && float64(tokens) < float64(s.Budgets.MaxTokens) {
		s.warn("budget.warning", map[string]any{"tokens": tokens, "max_tokens": s.Budgets.MaxTokens})
	}
	if tokens > int64(s.Budgets.MaxTokens) {
		return fmt.Errorf("%w: tokens %d exceeds max_tokens %d", ErrBudgetExceeded, tokens, s.Budgets.MaxTokens)
	}
	return nil
}

func (s *Substrate) checkStepAndDuration() error {
	_, steps, wall := s.Ledger.snapshot()
	if s.Budgets.MaxSteps > 0 && steps >= int64(s.Budgets.MaxSteps) {
		return fmt.Errorf("%w: steps %d reached max_steps %d", ErrBudgetExceeded, steps, s.Budgets.MaxSteps)
	}
	if s.Budgets.MaxDurationS > 0 && wall >= time.Duration(s.Budgets.MaxDurationS)*time.Second {
		return fmt.Errorf("%w: wall clock %s reached max_duration_s %d", ErrBudgetExceeded, wall, s.Budgets.MaxDurationS)
	}
	return nil
}

func (s *Substrate) warn(event string, fields map[string]any) {
	if s.OnWarning != nil {
		s.OnWarning(event, fields)
	}
}
