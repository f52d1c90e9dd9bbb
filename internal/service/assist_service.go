package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/lifecycle-service/internal/config"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

const assistPreamble = "You are a helpdesk assistant. Answer the question using only the " +
	"provided knowledge base. If the knowledge base does not cover the " +
	"question, say so instead of guessing."

// AssistService forwards helpdesk questions to the configured LLM
// provider. The API key never leaves the server; clients only ever see
// the answer text.
type AssistService struct {
	cfg    config.AssistConfig
	client *http.Client
	logger *zap.Logger
}

// NewAssistService constructs the service with a dedicated HTTP client.
func NewAssistService(cfg config.AssistConfig, logger *zap.Logger) *AssistService {
	return &AssistService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
		logger: logger,
	}
}

type assistUpstreamRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []assistMessage `json:"messages"`
}

type assistMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type assistUpstreamResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Ask validates the question and knowledge base, forwards the prompt
// upstream and returns the first text block of the answer.
func (s *AssistService) Ask(ctx context.Context, question, knowledgeBase string) (string, error) {
	question = strings.TrimSpace(question)
	knowledgeBase = strings.TrimSpace(knowledgeBase)
	if question == "" || knowledgeBase == "" {
		return "", apperrors.NewValidationError("question and knowledge_base required", nil)
	}
	if s.cfg.APIKey == "" {
		return "", apperrors.NewInternalError(fmt.Errorf("assist api key not configured"))
	}

	prompt := fmt.Sprintf("%s\n\nKnowledge base:\n%s\n\nQuestion: %s", assistPreamble, knowledgeBase, question)
	body, err := json.Marshal(assistUpstreamRequest{
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.MaxTokens,
		Messages:  []assistMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("assist upstream call failed", zap.Error(err))
		return "", apperrors.NewUpstreamError("assistant unavailable", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.NewUpstreamError("assistant response unreadable", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("assist upstream returned error",
			zap.Int("status", resp.StatusCode),
			zap.Int("body_len", len(payload)))
		return "", apperrors.NewUpstreamError("assistant unavailable", fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	var parsed assistUpstreamResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", apperrors.NewUpstreamError("assistant response malformed", err)
	}
	if parsed.Error != nil {
		return "", apperrors.NewUpstreamError("assistant unavailable", fmt.Errorf("upstream error: %s", parsed.Error.Type))
	}
	if len(parsed.Content) == 0 || strings.TrimSpace(parsed.Content[0].Text) == "" {
		return "", apperrors.NewUpstreamError("assistant returned no answer", nil)
	}
	return parsed.Content[0].Text, nil
}
