// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package tool

import "context"

// Echo returns its input unchanged under the "output" key. Used in tests
// as the simplest possible Tool implementation.
func Echo() Tool {
	return Func(func(ctx context.Context, input map[string]any) (map[string]any, error) {
		return map[string]any{"output": input}, nil
	})
}

// Constant always returns the same value, regardless of input. Used in
// tests to stub out a deterministic tool result.
func Constant(value map[string]any) Tool {
	return Func(func(ctx context.Context, input map[string]any) (map[string]any, error) {
		return value, nil
	})
}
