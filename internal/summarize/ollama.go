package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaGenerator talks to a local Ollama runtime over its /api/chat endpoint
// (non-streaming). One request per summary; no retries.
type OllamaGenerator struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
}

// NewOllamaGenerator creates a generator targeting the given endpoint
// (e.g. http://127.0.0.1:11434).
func NewOllamaGenerator(endpoint string, timeout time.Duration) *OllamaGenerator {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:11434"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaGenerator{
		// Timeout is enforced per request via context so callers can cancel
		// earlier; the client itself stays unbounded.
		httpClient: &http.Client{},
		endpoint:   endpoint,
		timeout:    timeout,
	}
}

// Structures aligned with Ollama /api/chat (non-streaming).
type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Generate implements Generator.
func (g *OllamaGenerator) Generate(ctx context.Context, content []byte, model string) (string, error) {
	if model == "" {
		return "", &GenerationError{Endpoint: g.endpoint, Reason: "response", Err: errors.New("model cannot be empty")}
	}

	req := ollamaChatRequest{
		Model: model,
		Messages: []ollamaChatMessage{
			{Role: "user", Content: buildPrompt(content)},
		},
		Stream: false,
		Options: map[string]any{
			// Previews should be stable between regenerations of similar
			// text, and a few sentences at most.
			"temperature": 0.2,
			"num_predict": 256,
		},
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", &GenerationError{Endpoint: g.endpoint, Model: model, Reason: "response", Err: fmt.Errorf("marshal request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", &GenerationError{Endpoint: g.endpoint, Model: model, Reason: "response", Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		reason := "unreachable"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return "", &GenerationError{Endpoint: g.endpoint, Model: model, Reason: reason, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		msg := extractErrorMessage(body)
		if msg == "" {
			msg = resp.Status
		}
		return "", &GenerationError{Endpoint: g.endpoint, Model: model, Reason: "status", Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)}
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &GenerationError{Endpoint: g.endpoint, Model: model, Reason: "response", Err: fmt.Errorf("decode response: %w", err)}
	}

	summary := cleanResponse(out.Message.Content)
	if summary == "" {
		return "", &GenerationError{Endpoint: g.endpoint, Model: model, Reason: "response", Err: errors.New("backend returned an empty summary")}
	}
	return summary, nil
}

// extractErrorMessage pulls a human message out of an Ollama error body.
func extractErrorMessage(body []byte) string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return ""
	}
	if msg, ok := raw["error"].(string); ok {
		return msg
	}
	if msg, ok := raw["message"].(string); ok {
		return msg
	}
	return ""
}
