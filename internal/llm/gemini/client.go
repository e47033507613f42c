package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"ats-resume-checker/internal/llm"
	"ats-resume-checker/internal/shared/telemetry"
)

const providerName = "gemini"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Client using the Google GenAI SDK.
type Client struct {
	models      contentGenerator
	model       string
	maxTokens   int32
	temperature float32
}

// NewClient creates a Client configured for the Gemini API backend.
func NewClient(ctx context.Context, cfg llm.Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	timeout := cfg.Timeout
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: strings.TrimSpace(cfg.BaseURL),
			Timeout: &timeout,
		},
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newWithGenerator(client.Models, cfg), nil
}

func newWithGenerator(models contentGenerator, cfg llm.Config) *Client {
	return &Client{
		models:      models,
		model:       cfg.Model,
		maxTokens:   int32(cfg.MaxOutputTokens),
		temperature: float32(cfg.Temperature),
	}
}

// Complete sends prompt with the fixed system instruction and returns the trimmed reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.models == nil {
		return "", &llm.UpstreamError{Provider: providerName, Message: "client is not initialized"}
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(llm.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
		MaxOutputTokens:   c.maxTokens,
		ResponseMIMEType:  "application/json",
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", toUpstreamError(err)
	}

	output := strings.TrimSpace(responseText(resp))
	if output == "" {
		return "", &llm.UpstreamError{Provider: providerName, Message: "empty response"}
	}
	logUsage(c.model, resp)
	return output, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought || part.Text == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
		// Only the first candidate is requested.
		break
	}
	return builder.String()
}

func toUpstreamError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.UpstreamError{Provider: providerName, StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	return &llm.UpstreamError{Provider: providerName, Err: err}
}

func logUsage(model string, resp *genai.GenerateContentResponse) {
	fields := map[string]any{
		"provider": providerName,
		"model":    model,
	}
	if resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.Client = (*Client)(nil)
