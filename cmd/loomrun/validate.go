// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/loomrun/engine/pkg/capability"
	"github.com/loomrun/engine/pkg/schedule"
	"github.com/loomrun/engine/pkg/spec"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [spec.yaml]",
	Short: "Load a spec and report unsupported features without executing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := spec.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	report := capability.NewGate().Check(s)
	if len(report.Issues) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is valid; no unsupported features\n", args[0])
		if s.Schedule != "" {
			if sch, err := schedule.Parse(s.Schedule); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  next scheduled run: %s\n", sch.Next(time.Now()).Format(time.RFC3339))
			}
		}
		return nil
	}

	for _, issue := range report.Issues {
		marker := "⚠️ "
		if issue.Severity == capability.SeverityHard {
			marker = "❌"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s (fix: %s)\n", marker, issue.Pointer, issue.Reason, issue.SuggestedFix)
	}

	if report.Blocking() {
		os.Exit(1)
	}
	return nil
}
