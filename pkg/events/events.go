// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package events is the Event Emitter (§4's "structured span events for
// observability"). Grounded on the teacher's pkg/observability Tracer
// shape (StartSpan/EndSpan/SetAttribute), narrowed from an OTEL-style
// span tree to the flat structured-event stream this implementation's
// executors need: one Emit call per notable occurrence (step started,
// step finished, budget warning, route selected, iteration advanced).
package events

import "time"

// Event is one structured occurrence emitted during a run.
type Event struct {
	Name       string
	RunID      string
	Attributes map[string]any
	Timestamp  time.Time
}

// Emitter receives Events. Implementations must not block the caller for
// long: a slow sink should buffer or drop, never stall pattern execution.
type Emitter interface {
	Emit(Event)
}

// NoOpEmitter discards every event. The default when no sink is
// configured.
type NoOpEmitter struct{}

// Emit implements Emitter.
func (NoOpEmitter) Emit(Event) {}

// ChannelEmitter forwards events onto a buffered channel for a consumer
// (CLI progress output, a test assertion, a bridging sink) to drain.
// Emit never blocks: once the channel is full, events are dropped rather
// than stalling the run.
type ChannelEmitter struct {
	ch      chan Event
	Dropped int
}

// NewChannelEmitter returns a ChannelEmitter with the given buffer size.
func NewChannelEmitter(buffer int) *ChannelEmitter {
	return &ChannelEmitter{ch: make(chan Event, buffer)}
}

// Emit implements Emitter.
func (c *ChannelEmitter) Emit(e Event) {
	select {
	case c.ch <- e:
	default:
		c.Dropped++
	}
}

// Events exposes the receive side of the channel for a consumer.
func (c *ChannelEmitter) Events() <-chan Event {
	return c.ch
}

// Close closes the channel; callers must stop calling Emit first.
func (c *ChannelEmitter) Close() {
	close(c.ch)
}

// MultiEmitter fans one event out to several sinks (e.g. a channel for
// the CLI plus a gRPC sink for remote observers).
type MultiEmitter struct {
	Emitters []Emitter
}

// Emit implements Emitter.
func (m MultiEmitter) Emit(e Event) {
	for _, em := range m.Emitters {
		em.Emit(e)
	}
}
