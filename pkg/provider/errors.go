// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package provider

import "errors"

// TransientError wraps a provider failure the retry substrate should
// retry: network errors, provider 5xx, rate-limiting. Deterministic
// failures (bad auth, invalid request, model not found) are returned
// unwrapped and never retried, per spec §4.3/§7.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or something it wraps) is a
// TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
