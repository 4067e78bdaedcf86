package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dotcommander/agentflow/internal/models"
)

// HTTPProvider implements Gateway over an OpenAI-compatible chat completion
// API. It works with OpenAI, OpenRouter, and other compatible endpoints.
type HTTPProvider struct {
	apiKey     string
	apiBase    string
	model      string
	httpClient *http.Client
}

// NewHTTPProvider creates an OpenAI-compatible gateway. The client timeout
// is a transport ceiling; per-call deadlines come from ctx.
func NewHTTPProvider(apiKey, apiBase, model string, timeout time.Duration) *HTTPProvider {
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HTTPProvider{
		apiKey:  apiKey,
		apiBase: strings.TrimSuffix(apiBase, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name identifies the gateway in provider errors.
func (p *HTTPProvider) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Analyze sends the analysis prompt as a chat completion and parses the
// JSON reply.
func (p *HTTPProvider) Analyze(ctx context.Context, req *AnalysisRequest) (*models.Analysis, error) {
	prompt := buildAnalysisPrompt(req)
	if err := validatePrompt(prompt); err != nil {
		return nil, &models.ProviderError{Provider: p.Name(), Reason: err.Error()}
	}

	body := map[string]any{
		"model": p.model,
		"messages": []chatMessage{
			{Role: "user", Content: prompt},
		},
		"temperature": 0.2,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, &models.ProviderError{Provider: p.Name(), Reason: fmt.Sprintf("marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &models.ProviderError{Provider: p.Name(), Reason: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &models.ProviderError{Provider: p.Name(), Reason: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &models.ProviderError{Provider: p.Name(), Reason: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.ProviderError{
			Provider: p.Name(),
			Reason:   fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(respBody), 256)),
		}
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, &models.ProviderError{Provider: p.Name(), Reason: fmt.Sprintf("decode response: %v", err)}
	}
	if chat.Error != nil {
		return nil, &models.ProviderError{Provider: p.Name(), Reason: chat.Error.Message}
	}
	if len(chat.Choices) == 0 {
		return nil, &models.ProviderError{Provider: p.Name(), Reason: "no choices in response"}
	}

	analysis, err := ParseAnalysis(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, &models.ProviderError{Provider: p.Name(), Reason: err.Error()}
	}
	return analysis, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
