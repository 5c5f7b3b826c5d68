//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

// Package trace provides tracing hooks for graph execution.
// It integrates with OpenTelemetry; by default all spans are no-ops until a
// tracer provider is installed.
package trace

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// instrumentationName identifies spans produced by this module.
const instrumentationName = "trpc.graph"

// TracerProvider is the global tracer provider for graph execution spans.
var TracerProvider trace.TracerProvider = noop.NewTracerProvider()

// Tracer is the global tracer instance used by the executor.
var Tracer trace.Tracer = TracerProvider.Tracer(instrumentationName)

// SetTracerProvider installs the provider used for graph execution spans.
// Passing nil restores the no-op provider.
func SetTracerProvider(tp trace.TracerProvider) {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	TracerProvider = tp
	Tracer = tp.Tracer(instrumentationName)
}

// UseGlobal adopts the process-wide OpenTelemetry tracer provider registered
// through the otel package. Call it after configuring exporters.
func UseGlobal() {
	SetTracerProvider(otel.GetTracerProvider())
}
