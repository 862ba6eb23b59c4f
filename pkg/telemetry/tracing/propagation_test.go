package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const testTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func withTraceContextPropagator(t *testing.T) {
	t.Helper()
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })
}

func TestExtractInject(t *testing.T) {
	withTraceContextPropagator(t)

	in := http.Header{}
	in.Set("traceparent", testTraceParent)

	ctx := Extract(context.Background(), in)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		t.Fatal("Extract() did not find a valid span context")
	}
	if got := sc.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace ID = %s", got)
	}

	out := http.Header{}
	Inject(ctx, out)
	if got := out.Get("traceparent"); got != testTraceParent {
		t.Errorf("Inject() traceparent = %q, want %q", got, testTraceParent)
	}
}

func TestExtract_NoHeaders(t *testing.T) {
	withTraceContextPropagator(t)

	ctx := Extract(context.Background(), http.Header{})
	if trace.SpanContextFromContext(ctx).IsValid() {
		t.Error("Extract() without headers should not yield a span context")
	}
}

func TestHTTPMiddleware(t *testing.T) {
	withTraceContextPropagator(t)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	var handlerTraceID string
	handler := HTTPMiddleware(FromProvider(tp))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerTraceID = TraceID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/retention/run", nil)
	req.Header.Set("traceparent", testTraceParent)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if handlerTraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("handler trace ID = %q, want the propagated one", handlerTraceID)
	}
	if got := rec.Header().Get(TraceIDHeader); got != handlerTraceID {
		t.Errorf("X-Trace-ID = %q, want %q", got, handlerTraceID)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name() != "POST /api/v1/retention/run" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", spans[0].SpanKind())
	}
	if spans[0].Parent().SpanID().String() != "00f067aa0ba902b7" {
		t.Errorf("span parent = %s, want remote parent", spans[0].Parent().SpanID())
	}
}

func TestHTTPMiddleware_Unsampled(t *testing.T) {
	withTraceContextPropagator(t)

	handler := HTTPMiddleware(FromProvider(noop.NewTracerProvider()))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/retention/status", nil))

	if got := rec.Header().Get(TraceIDHeader); got != "" {
		t.Errorf("%s = %q, want no header without a span", TraceIDHeader, got)
	}
}
