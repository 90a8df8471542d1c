package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddleware_CorrelationIDGenerated(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get("/api/state")

	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("X-Correlation-ID header missing")
	}
}

func TestMiddleware_CorrelationIDPropagated(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var seen string

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.New(core)))
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		seen = correlationID(r.Context())
		requestLogger(r, zap.NewNop()).Info("inside handler")
	})

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Correlation-ID", "client-provided-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Correlation-ID"); got != "client-provided-id" {
		t.Errorf("X-Correlation-ID = %q, want client-provided-id", got)
	}
	if seen != "client-provided-id" {
		t.Errorf("context correlation_id = %q", seen)
	}
	entries := logs.FilterMessage("inside handler").All()
	if len(entries) != 1 || entries[0].ContextMap()["correlation_id"] != "client-provided-id" {
		t.Errorf("request logger should carry correlation_id, got %+v", entries)
	}
}

func TestMiddleware_MetricsTracksInFlight(t *testing.T) {
	var during int64
	router := mux.NewRouter()
	router.Use(MetricsMiddleware)
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		during = InFlightCount()
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

	if during < 1 {
		t.Errorf("InFlightCount() during request = %d, want >= 1", during)
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d", w.Code)
	}
}

func TestGetRoute_UsesTemplate(t *testing.T) {
	var got string
	router := mux.NewRouter()
	router.HandleFunc("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		got = getRoute(r)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/items/42", nil))

	if got != "/items/{id}" {
		t.Errorf("getRoute() = %q, want /items/{id}", got)
	}
	if r := getRoute(httptest.NewRequest("GET", "/nowhere", nil)); r != "unmatched" {
		t.Errorf("getRoute() without route = %q, want unmatched", r)
	}
}

func TestStatusCodeString(t *testing.T) {
	tests := map[int]string{200: "2xx", 303: "3xx", 404: "4xx", 503: "5xx"}
	for code, want := range tests {
		if got := statusCodeString(code); got != want {
			t.Errorf("statusCodeString(%d) = %q, want %q", code, got, want)
		}
	}
}

// TestLookupTimeoutMiddleware verifies the handler context ignores client
// cancellation but still carries the configured deadline.
func TestLookupTimeoutMiddleware(t *testing.T) {
	var ctxErr error
	var hasDeadline bool
	handler := LookupTimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
		ctxErr = r.Context().Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("POST", "/search", nil).WithContext(ctx)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if ctxErr != nil {
		t.Errorf("ctx.Err() = %v, want nil after client cancellation", ctxErr)
	}
	if !hasDeadline {
		t.Error("context should carry a deadline")
	}
}
