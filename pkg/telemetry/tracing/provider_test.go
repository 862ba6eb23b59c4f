package tracing

import (
	"context"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/curator/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.TracingConfig
		wantErr     bool
		wantEnabled bool
	}{
		{name: "nil config", wantErr: true},
		{name: "disabled", config: &config.TracingConfig{ServiceName: "curator"}},
		{
			name: "otlp with ratio sampler",
			config: &config.TracingConfig{
				Enabled:     true,
				Sampler:     SamplerRatio,
				SampleRatio: 0.5,
				Endpoint:    "localhost:4317",
				ServiceName: "curator",
				OTLP:        config.OTLPConfig{Insecure: true, Timeout: time.Second},
			},
			wantEnabled: true,
		},
		{
			name:    "unknown sampler",
			config:  &config.TracingConfig{Enabled: true, Sampler: "sometimes", Endpoint: "localhost:4317"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer tracer.Shutdown(context.Background())

			if tracer.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.wantEnabled)
			}
		})
	}
}

func TestNew_DisabledIsNoop(t *testing.T) {
	tracer, err := New(&config.TracingConfig{}, "test")
	if err != nil {
		t.Fatal(err)
	}

	ctx, span := tracer.Start(context.Background(), "retention.run")
	span.End()

	if TraceID(ctx) != "" {
		t.Error("noop tracer produced a trace ID")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestFromProvider(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	tracer := FromProvider(tp)
	if tracer.Enabled() {
		t.Error("a caller-owned provider should not report Enabled")
	}

	ctx, run := tracer.Start(context.Background(), "retention.run")
	_, sel := tracer.Start(ctx, "retention.select")
	sel.End()
	run.End()

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("select span not parented to run span")
	}
	if got := spans[1].InstrumentationScope().Name; got != InstrumentationName {
		t.Errorf("scope = %q, want %q", got, InstrumentationName)
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		want     string
		wantErr  bool
	}{
		{strategy: SamplerAlways, want: "ParentBased{root:AlwaysOnSampler"},
		{strategy: SamplerNever, want: "ParentBased{root:AlwaysOffSampler"},
		{strategy: SamplerRatio, ratio: 0.25, want: "ParentBased{root:TraceIDRatioBased{0.25}"},
		{strategy: SamplerRatio, ratio: 0, want: "ParentBased{root:TraceIDRatioBased{0}"},
		{strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{strategy: SamplerRatio, ratio: -0.1, wantErr: true},
		{strategy: "sometimes", wantErr: true},
		{strategy: "", wantErr: true},
	}

	for _, tt := range tests {
		sampler, err := newSampler(tt.strategy, tt.ratio)
		if (err != nil) != tt.wantErr {
			t.Errorf("newSampler(%q, %g) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
			continue
		}
		if err == nil && !strings.HasPrefix(sampler.Description(), tt.want) {
			t.Errorf("newSampler(%q, %g) = %q, want prefix %q", tt.strategy, tt.ratio, sampler.Description(), tt.want)
		}
	}
}
