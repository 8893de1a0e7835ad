package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Pavankumar07s/Pict-call/internal/observability/metrics"
)

func TestHandler(t *testing.T) {
	ready := false
	h := Handler(func() bool { return ready })

	tests := []struct {
		path   string
		ready  bool
		status int
		body   string
	}{
		{"/healthz", false, http.StatusOK, "ok"},
		{"/readyz", false, http.StatusServiceUnavailable, "not ready"},
		{"/readyz", true, http.StatusOK, "ready"},
		{"/metrics", true, http.StatusOK, "pict_call_"},
	}

	for _, tt := range tests {
		ready = tt.ready
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rec.Code != tt.status {
			t.Errorf("%s (ready=%v): expected status %d, got %d", tt.path, tt.ready, tt.status, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tt.body) {
			t.Errorf("%s: body %q does not contain %q", tt.path, rec.Body.String(), tt.body)
		}
	}
}

func TestHandler_NilReady(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestStreamServerInterceptor_PassesThroughError(t *testing.T) {
	want := status.Error(codes.InvalidArgument, "bad frame")
	interceptor := StreamServerInterceptor(metrics.DefaultMetrics)

	called := false
	err := interceptor(nil, nil, &grpc.StreamServerInfo{FullMethod: "/test/Stream"}, func(any, grpc.ServerStream) error {
		called = true
		return want
	})

	if !called {
		t.Fatal("expected handler to be called")
	}
	if !errors.Is(err, want) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestUnaryServerInterceptor(t *testing.T) {
	interceptor := UnaryServerInterceptor(metrics.DefaultMetrics)

	resp, err := interceptor(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/test/Unary"},
		func(_ context.Context, req any) (any, error) {
			return req.(string) + "-resp", nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "req-resp" {
		t.Errorf("expected handler response, got %v", resp)
	}
}
