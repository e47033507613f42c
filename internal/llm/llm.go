package llm

import (
	"context"
	"strings"
	"time"
)

// Client sends a rendered prompt to a text-generation service and returns the raw reply.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// SystemPrompt is the fixed system role sent with every analysis request.
const SystemPrompt = "You are an expert ATS (Applicant Tracking System) analyzer. You analyze resumes and provide detailed, actionable feedback. Always respond with valid JSON only, no additional text."

const (
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultMaxOutputTokens = 2000
	DefaultTemperature     = 0.7
	DefaultTimeout         = 120 * time.Second
)

// Config carries everything a provider client needs. It is passed explicitly to constructors.
type Config struct {
	Provider        string
	APIKey          string
	Model           string
	MaxOutputTokens int
	Temperature     float64
	Timeout         time.Duration
	// BaseURL overrides the provider endpoint; empty uses the public API.
	BaseURL string
}

// WithDefaults fills zero values with the package defaults for the configured provider.
func (c Config) WithDefaults() Config {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		switch c.Provider {
		case ProviderGemini:
			c.Model = DefaultGeminiModel
		default:
			c.Model = DefaultOpenAIModel
		}
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
