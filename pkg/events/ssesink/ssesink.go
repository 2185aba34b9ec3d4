// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package ssesink publishes Events over Server-Sent Events, for a
// browser or CLI to watch a run live. Grounded on the teacher's
// pkg/mcp/transport http.go, which drives github.com/r3labs/sse/v2 on
// the client side; this sink drives the same package's server side
// (sse.Server) to publish instead of consume.
package ssesink

import (
	"encoding/json"
	"net/http"

	"github.com/loomrun/engine/pkg/events"
	"github.com/r3labs/sse/v2"
)

// StreamID is the single SSE stream this sink publishes every run's
// events onto; subscribers filter by the event's RunID field.
const StreamID = "runs"

// Sink publishes Events onto an SSE stream and exposes an http.Handler
// for subscribers to connect to.
type Sink struct {
	server *sse.Server
}

// New builds a Sink with its stream already created.
func New() *Sink {
	s := sse.New()
	s.CreateStream(StreamID)
	return &Sink{server: s}
}

// Emit implements events.Emitter. Marshal failures are dropped rather
// than propagated — observability must never abort a run.
func (s *Sink) Emit(e events.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.server.Publish(StreamID, &sse.Event{Event: []byte(e.Name), Data: b})
}

// Handler returns the http.Handler subscribers connect to for the live
// event stream.
func (s *Sink) Handler() http.Handler {
	return s.server
}

// Close tears down the underlying SSE stream.
func (s *Sink) Close() error {
	s.server.Close()
	return nil
}
