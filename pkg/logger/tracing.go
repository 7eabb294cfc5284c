/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logger

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/trace"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	// RunSpanName names the root span that lives as long as the poller.
	RunSpanName = "sqlpoller.run"
	// CycleSpanName names the span of one scheduler pass over all commands.
	CycleSpanName = "sqlpoller.cycle"

	pollSpanPrefix = "sqlpoller.poll"
)

// TracingConfig configures the trace pipeline.
type TracingConfig struct {
	Resource Resource
	Logger   Logger
	// OTel enables span export when it is set, enabled and has an endpoint.
	OTel *OTelConfig
}

// PollSpanName names the span of one command poll, e.g.
// "sqlpoller.poll MySQL/connections".
func PollSpanName(provider, command string) string {
	return pollSpanPrefix + " " + provider + "/" + command
}

// InitializeTracing installs the global TracerProvider and starts the run span.
// Spans are only exported when config.OTel is active; otherwise they are
// recorded and dropped. The caller ends the span and shuts the provider down.
func InitializeTracing(ctx context.Context, config TracingConfig) (*trace.TracerProvider, context.Context, otelTrace.Span, error) {
	res, err := config.Resource.build(ctx)
	if err != nil {
		return nil, ctx, nil, err
	}

	tpOptions := []trace.TracerProviderOption{trace.WithResource(res)}

	if config.OTel.active() {
		exporter, err := createTraceExporter(ctx, config.OTel)
		if err != nil {
			return nil, ctx, nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

		tpOptions = append(tpOptions, trace.WithBatcher(exporter))
	}

	tp := trace.NewTracerProvider(tpOptions...)
	otel.SetTracerProvider(tp)

	ctx, span := tp.Tracer(defaultServiceName).Start(ctx, RunSpanName)

	if config.Logger != nil {
		sc := span.SpanContext()
		config.Logger.Debug().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Bool("exporting", config.OTel.active()).
			Msg("Initialized tracing")
	}

	return tp, ctx, span, nil
}

// GetTracer returns a tracer from the global provider. Tracers obtained
// before InitializeTracing follow the provider once it is installed.
func GetTracer(name string) otelTrace.Tracer {
	return otel.Tracer(name)
}

func createTraceExporter(ctx context.Context, config *OTelConfig) (trace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.Endpoint)}

	creds, err := transportCredentials(config)
	if err != nil {
		return nil, err
	}

	switch {
	case config.Insecure:
		opts = append(opts, otlptracegrpc.WithInsecure())
	case creds != nil:
		opts = append(opts, otlptracegrpc.WithTLSCredentials(creds))
	}

	if len(config.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(config.Headers))
	}

	return otlptracegrpc.New(ctx, opts...)
}
