// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	hostconfig "github.com/loomrun/engine/internal/config"
	"github.com/loomrun/engine/internal/log"
	"github.com/loomrun/engine/pkg/artifact"
	"github.com/loomrun/engine/pkg/capability"
	"github.com/loomrun/engine/pkg/compaction"
	"github.com/loomrun/engine/pkg/events"
	"github.com/loomrun/engine/pkg/events/grpcsink"
	"github.com/loomrun/engine/pkg/events/ssesink"
	"github.com/loomrun/engine/pkg/lifecycle"
	"github.com/loomrun/engine/pkg/modelpool"
	"github.com/loomrun/engine/pkg/orchestration"
	"github.com/loomrun/engine/pkg/provider"
	"github.com/loomrun/engine/pkg/spec"
	"github.com/loomrun/engine/pkg/template"
	"github.com/loomrun/engine/pkg/tool"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	scriptPath string
	outputRoot string
	eventsAddr string
)

var runCmd = &cobra.Command{
	Use:   "run [spec.yaml]",
	Short: "Load, gate, execute, and render artifacts for a workflow spec",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&scriptPath, "script", "", "JSON file of scripted provider responses (required; this build ships no live provider adapters)")
	runCmd.Flags().StringVar(&outputRoot, "out", ".", "directory artifacts are written relative to")
	runCmd.Flags().StringVar(&eventsAddr, "events-addr", "", "override the host config's event sink target")
	_ = runCmd.MarkFlagRequired("script")
}

func runRun(cmd *cobra.Command, args []string) error {
	hostCfg, err := hostconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading host config: %w", err)
	}
	log.SetLogger(newLogger(hostCfg.LogLevel))
	defer log.Sync()

	s, err := spec.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	report := capability.NewGate().Check(s)
	for _, issue := range report.Issues {
		log.Warn("capability issue", zap.String("pointer", issue.Pointer), zap.String("reason", issue.Reason))
	}
	if report.Blocking() {
		return fmt.Errorf("spec %s uses unsupported features; run 'loomrun validate' for details", args[0])
	}

	factory, err := loadScriptFactory(scriptPath)
	if err != nil {
		return err
	}
	pool := modelpool.New(factory)

	lc := lifecycle.New()
	lc.AddFunc(pool.Close)

	if eventsAddr != "" {
		hostCfg.EventSink.Target = eventsAddr
	}
	emitter, err := buildEmitter(hostCfg.EventSink, lc)
	if err != nil {
		return err
	}

	tools := tool.NewRegistry()
	tools.Register("echo", tool.Echo())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		<-sigCh
		log.Info("interrupt received, cancelling run")
		cancel()
	}()

	runID := uuid.NewString()
	var summarize compaction.Summarizer
	if s.Context.Compaction.Enabled {
		summarize = newPoolSummarizer(pool, s.Runtime.Provider, s.Context.Compaction.SummarizationModel)
	}

	rt := orchestration.New(s, pool, tools, emitter, runID, s.Inputs, summarize, log.WithRun(runID))

	result, err := orchestration.Dispatch(ctx, rt, &s.Pattern)
	closeErr := lc.Close()
	if err != nil {
		return fmt.Errorf("executing %s: %w", s.Pattern.Type, err)
	}
	if closeErr != nil {
		log.Warn("resource teardown reported errors", zap.Error(closeErr))
	}

	root := make(map[string]any, len(result)+1)
	for k, v := range result {
		root[k] = v
	}
	root["inputs"] = s.Inputs

	renderer := artifact.New(outputRoot, template.New(), log.Logger())
	if err := renderer.WriteAll(s.Outputs, root); err != nil {
		return fmt.Errorf("rendering artifacts: %w", err)
	}

	journal, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(journal))
	fmt.Fprintln(cmd.OutOrStdout(), "\n"+rt.Notes.RenderMarkdown())
	return nil
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	_ = cfg.Level.UnmarshalText([]byte(level))
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func buildEmitter(cfg hostconfig.EventSinkConfig, lc *lifecycle.Coordinator) (events.Emitter, error) {
	switch cfg.Kind {
	case "", "noop":
		return events.NoOpEmitter{}, nil
	case "sse":
		sink := ssesink.New()
		lc.Add(sink)
		return sink, nil
	case "grpc":
		conn, err := grpc.NewClient(cfg.Target, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("dialing event sink %s: %w", cfg.Target, err)
		}
		lc.AddFunc(conn.Close)
		return grpcsink.New(conn), nil
	default:
		return nil, fmt.Errorf("unknown event sink kind %q", cfg.Kind)
	}
}

func newPoolSummarizer(pool *modelpool.Pool, providerName, modelID string) compaction.Summarizer {
	return func(ctx context.Context, messages []provider.Message) (provider.Message, error) {
		client, err := pool.Get(ctx, provider.HandleKey{Provider: providerName, Model: modelID})
		if err != nil {
			return provider.Message{}, fmt.Errorf("summarizer: acquire client: %w", err)
		}

		var prompt string
		for _, m := range messages {
			prompt += m.Role + ": " + m.Content + "\n"
		}

		resp, err := client.Invoke(ctx, "Summarize the following conversation history concisely:\n"+prompt, nil, nil)
		if err != nil {
			return provider.Message{}, fmt.Errorf("summarizer: invoke: %w", err)
		}
		return provider.Message{Role: "system", Content: resp.Text}, nil
	}
}
