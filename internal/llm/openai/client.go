package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ats-resume-checker/internal/llm"
	"ats-resume-checker/internal/shared/telemetry"
)

const (
	providerName    = "openai"
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	maxErrorBody    = 2048
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	endpoint    string
	httpClient  *http.Client
}

// NewClient constructs a new OpenAI client from an explicit configuration.
func NewClient(cfg llm.Config, httpClient *http.Client) (*Client, error) {
	cfg = cfg.WithDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	endpoint := strings.TrimSpace(cfg.BaseURL)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxOutputTokens,
		temperature: cfg.Temperature,
		endpoint:    endpoint,
		httpClient:  httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete returns the trimmed model reply for prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: llm.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", &llm.UpstreamError{Provider: providerName, Message: "request timeout", Err: err}
		}
		return "", &llm.UpstreamError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.UpstreamError{Provider: providerName, StatusCode: resp.StatusCode, Err: err}
	}

	var parsed chatResponse
	parseErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode >= 400 || parsed.Error != nil {
		msg := ""
		if parseErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		} else {
			msg = truncate(strings.TrimSpace(string(body)), maxErrorBody)
		}
		return "", &llm.UpstreamError{Provider: providerName, StatusCode: resp.StatusCode, Message: msg}
	}
	if parseErr != nil {
		return "", &llm.UpstreamError{Provider: providerName, StatusCode: resp.StatusCode, Message: "response parse failed", Err: parseErr}
	}
	if len(parsed.Choices) == 0 {
		return "", &llm.UpstreamError{Provider: providerName, StatusCode: resp.StatusCode, Message: "response missing choices"}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", &llm.UpstreamError{Provider: providerName, StatusCode: resp.StatusCode, Message: "response empty content"}
	}
	logUsage(c.model, parsed)
	return content, nil
}

func logUsage(model string, parsed chatResponse) {
	fields := map[string]any{
		"provider":      providerName,
		"model":         model,
		"finish_reason": parsed.Choices[0].FinishReason,
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ llm.Client = (*Client)(nil)
