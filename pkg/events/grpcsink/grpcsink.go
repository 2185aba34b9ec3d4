// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package grpcsink forwards Events to a remote collector over gRPC. The
// teacher's own gRPC surface (pkg/server) is built against its generated
// loomv1 service stubs, which this project does not carry forward (see
// the module's design notes on the missing generated package). Rather
// than fabricate a replacement generated package, this sink calls a
// fixed unary RPC method directly through grpc.ClientConn.Invoke using
// google.golang.org/protobuf's structpb.Struct as the wire message — a
// supported, codegen-free way to drive a gRPC call that still exercises
// the real grpc and protobuf libraries end-to-end.
package grpcsink

import (
	"context"
	"fmt"

	"github.com/loomrun/engine/pkg/events"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Method is the fixed RPC method path this sink invokes. A real
// deployment registers a matching unary handler on the collector side;
// this project ships only the client half.
const Method = "/loomrun.events.v1.EventService/Emit"

// Sink emits Events by calling Method on conn.
type Sink struct {
	conn *grpc.ClientConn
}

// New wraps an established gRPC connection as an events.Emitter.
func New(conn *grpc.ClientConn) *Sink {
	return &Sink{conn: conn}
}

// Emit implements events.Emitter. Call failures are swallowed; use
// EmitContext to observe them — observability must never abort a run.
func (s *Sink) Emit(e events.Event) {
	_ = s.emit(context.Background(), e)
}

// EmitContext is like Emit but propagates ctx (e.g. for deadline
// inheritance from the run) and returns the RPC error.
func (s *Sink) EmitContext(ctx context.Context, e events.Event) error {
	return s.emit(ctx, e)
}

func (s *Sink) emit(ctx context.Context, e events.Event) error {
	fields := make(map[string]any, len(e.Attributes)+2)
	for k, v := range e.Attributes {
		fields[k] = v
	}
	fields["name"] = e.Name
	fields["run_id"] = e.RunID

	payload, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("grpcsink: build payload: %w", err)
	}

	var resp emptypb.Empty
	if err := s.conn.Invoke(ctx, Method, payload, &resp); err != nil {
		return fmt.Errorf("grpcsink: invoke %s: %w", Method, err)
	}
	return nil
}
