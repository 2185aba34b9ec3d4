// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package schedule parses a workflow's cron expression and answers
// "when does this run next". It is a pure parsing/query utility, not a
// standing scheduler daemon: no process owns a long-lived cron engine
// here, a host process polls Next and re-invokes the run itself.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule wraps one parsed standard 5-field cron expression.
type Schedule struct {
	expr string
	cron cron.Schedule
}

// Parse validates expr as a standard 5-field cron expression.
func Parse(expr string) (*Schedule, error) {
	parsed, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("schedule: invalid cron expression %q: %w", expr, err)
	}
	return &Schedule{expr: expr, cron: parsed}, nil
}

// Next returns the next activation time strictly after t.
func (s *Schedule) Next(t time.Time) time.Time {
	return s.cron.Next(t)
}

// String returns the original cron expression.
func (s *Schedule) String() string {
	return s.expr
}
