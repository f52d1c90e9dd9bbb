package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/lifecycle-service/internal/config"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

func assistConfig(endpoint string) config.AssistConfig {
	return config.AssistConfig{
		APIKey:         "test-key",
		Endpoint:       endpoint,
		Model:          "test-model",
		MaxTokens:      256,
		TimeoutSeconds: 5,
	}
}

func TestAskRejectsMissingFields(t *testing.T) {
	t.Parallel()
	svc := NewAssistService(assistConfig("http://127.0.0.1:1"), zap.NewNop())

	if _, err := svc.Ask(context.Background(), "", "kb"); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Errorf("missing question err = %v, want VALIDATION_FAILED", err)
	}
	if _, err := svc.Ask(context.Background(), "q", "  "); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Errorf("missing knowledge base err = %v, want VALIDATION_FAILED", err)
	}
}

func TestAskForwardsAndReturnsAnswer(t *testing.T) {
	t.Parallel()

	var gotKey, gotVersion string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"text":"Restart the print spooler."}]}`))
	}))
	defer upstream.Close()

	svc := NewAssistService(assistConfig(upstream.URL), zap.NewNop())
	answer, err := svc.Ask(context.Background(), "Printer is stuck", "Restart the spooler when jobs hang.")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "Restart the print spooler." {
		t.Errorf("answer = %q", answer)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q, want test-key", gotKey)
	}
	if gotVersion == "" {
		t.Error("anthropic-version header missing")
	}
}

func TestAskMapsUpstreamFailures(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"overloaded_error","message":"busy"}}`))
	}))
	defer upstream.Close()

	svc := NewAssistService(assistConfig(upstream.URL), zap.NewNop())
	if _, err := svc.Ask(context.Background(), "q", "kb"); !apperrors.IsCode(err, "UPSTREAM_ERROR") {
		t.Errorf("err = %v, want UPSTREAM_ERROR", err)
	}
}

func TestAskEmptyAnswerIsUpstreamError(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer upstream.Close()

	svc := NewAssistService(assistConfig(upstream.URL), zap.NewNop())
	if _, err := svc.Ask(context.Background(), "q", "kb"); !apperrors.IsCode(err, "UPSTREAM_ERROR") {
		t.Errorf("err = %v, want UPSTREAM_ERROR", err)
	}
}
