package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupExporter(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	shutdown := Init(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		_ = shutdown(context.Background())
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
	})
	return exporter
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestMiddleware_NamesSpanAfterRoute(t *testing.T) {
	exporter := setupExporter(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /favorites/check", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/favorites/check?url=x", nil)
	rr := httptest.NewRecorder()
	Middleware(mux).ServeHTTP(rr, req)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "GET /favorites/check" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	if v, ok := attrValue(spans[0].Attributes, "http.status_code"); !ok || v.AsInt64() != 200 {
		t.Errorf("http.status_code = %v (found=%v)", v, ok)
	}
	if v, _ := attrValue(spans[0].Attributes, "http.route"); v.AsString() != "GET /favorites/check" {
		t.Errorf("http.route = %q", v.AsString())
	}
}

func TestMiddleware_AddsTraceIDToResponse(t *testing.T) {
	exporter := setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/news", nil))

	traceID := rr.Header().Get("X-Trace-Id")
	if len(traceID) != 32 {
		t.Fatalf("expected 32-char trace id, got %q", traceID)
	}
	if got := exporter.GetSpans()[0].SpanContext.TraceID().String(); got != traceID {
		t.Errorf("header %q does not match span %q", traceID, got)
	}
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter := setupExporter(t)

	const parent = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/news", nil)
	req.Header.Set("traceparent", "00-"+parent+"-00f067aa0ba902b7-01")

	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(r.Context(), carrier)
		seen = carrier["traceparent"]
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got := exporter.GetSpans()[0].SpanContext.TraceID().String(); got != parent {
		t.Errorf("trace id = %s, want %s", got, parent)
	}
	if seen == "" {
		t.Error("handler context lost the trace")
	}
}

func TestMiddleware_MarksErrorSpansFor5xx(t *testing.T) {
	exporter := setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/favorites/toggle", nil))

	if got := exporter.GetSpans()[0].Status.Code; got != codes.Error {
		t.Errorf("status = %v, want Error", got)
	}
}

func TestMiddleware_NoErrorFor4xx(t *testing.T) {
	exporter := setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/news/article", nil))

	if got := exporter.GetSpans()[0].Status.Code; got == codes.Error {
		t.Error("4xx must not mark the span as failed")
	}
}

func TestStartSpanAndRecordError(t *testing.T) {
	exporter := setupExporter(t)

	_, span := StartSpan(context.Background(), "news.Refresh", attribute.Int("categories", 4))
	RecordError(span, nil)
	RecordError(span, errors.New("all categories failed"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v", spans[0].Status.Code)
	}
	if len(spans[0].Events) != 1 {
		t.Errorf("expected one exception event, got %d", len(spans[0].Events))
	}
}
