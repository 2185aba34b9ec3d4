// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config loads the host process's own settings — default
// budgets, retry backoff, and log level — layered environment variables >
// config file > defaults, using the viper idiom of the teacher's
// cmd/looms/config.go. No CLI flag is bound into this layering. A run's
// own YAML spec (pkg/spec)
// is a separate, unrelated document; this package never touches it.
package config

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/loomrun/engine/pkg/spec"
)

// Config holds the host process's own settings.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	DefaultProvider string `mapstructure:"default_provider"`
	DefaultModelID  string `mapstructure:"default_model_id"`

	Budgets spec.Budgets       `mapstructure:"budgets"`
	Retry   spec.FailurePolicy `mapstructure:"retry"`

	EventSink EventSinkConfig `mapstructure:"event_sink"`
}

// EventSinkConfig selects and configures the Event Emitter sink.
type EventSinkConfig struct {
	Kind     string `mapstructure:"kind"` // "noop", "grpc", "sse"
	Target   string `mapstructure:"target"`
	SSEAddr  string `mapstructure:"sse_addr"`
	BufferSz int    `mapstructure:"buffer_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("default_provider", "anthropic")
	v.SetDefault("default_model_id", "claude-sonnet-4-5")
	v.SetDefault("budgets.warnthreshold", 0.8)
	v.SetDefault("retry.retries", 2)
	v.SetDefault("retry.backoff", string(spec.BackoffExponentialJittered))
	v.SetDefault("event_sink.kind", "noop")
	v.SetDefault("event_sink.buffer_size", 256)
}

// Load reads the host config from cfgFile (if non-empty), the current
// directory, and /etc/loomrun/, then the defaults above; a
// LOOMRUN_-prefixed environment variable overrides the file's value for
// the same key. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("loomrun")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/loomrun/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix("LOOMRUN")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// WatchFunc is called with the reloaded Config whenever the underlying
// config file changes on disk.
type WatchFunc func(*Config)

// Watch installs an fsnotify watch on cfgFile and invokes onChange with
// a freshly reloaded Config after each write. Returns a stop function.
// A no-op if cfgFile does not exist (nothing to watch).
func Watch(cfgFile string, onChange WatchFunc) (func() error, error) {
	if _, err := os.Stat(cfgFile); err != nil {
		return func() error { return nil }, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: new watcher: %w", err)
	}
	if err := watcher.Add(cfgFile); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", cfgFile, err)
	}

	go func() {
		for event := range watcher.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(cfgFile)
			if err != nil {
				continue
			}
			onChange(cfg)
		}
	}()

	return watcher.Close, nil
}
