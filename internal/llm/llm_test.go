package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestBuildAnalysisPromptEmbedsInputs(t *testing.T) {
	prompt := BuildAnalysisPrompt("Built payment APIs in Go.", "IT/Software")

	if !strings.Contains(prompt, "Built payment APIs in Go.") {
		t.Fatalf("expected resume text in prompt")
	}
	if !strings.Contains(prompt, "for the IT/Software industry") {
		t.Fatalf("expected industry in prompt")
	}
	if strings.Contains(prompt, "{{") {
		t.Fatalf("expected all placeholders replaced:\n%s", prompt)
	}
	for _, field := range []string{"score", "keywordMatch", "missingKeywords", "skillsFound", "skillsMissing", "formatIssues", "suggestions", "improvedBullets"} {
		if !strings.Contains(prompt, `"`+field+`"`) {
			t.Fatalf("expected field %s in prompt", field)
		}
	}
	for _, guidance := range []string{"5-8", "3-5", "No bullet points"} {
		if !strings.Contains(prompt, guidance) {
			t.Fatalf("expected guidance %q in prompt", guidance)
		}
	}
}

func TestBuildAnalysisPromptDoesNotReexpandResumeText(t *testing.T) {
	prompt := BuildAnalysisPrompt("Literal {{industry}} token", "Finance")
	if !strings.Contains(prompt, "Literal {{industry}} token") {
		t.Fatalf("expected resume placeholder text kept verbatim")
	}
}

func TestBuildAnalysisPromptDeterministic(t *testing.T) {
	a := BuildAnalysisPrompt("resume", "Healthcare")
	b := BuildAnalysisPrompt("resume", "Healthcare")
	if a != b || PromptHash(a) != PromptHash(b) {
		t.Fatalf("expected deterministic prompt and hash")
	}
	if PromptHash(a) == PromptHash(BuildAnalysisPrompt("resume", "Finance")) {
		t.Fatalf("expected hash to change with industry")
	}
	if len(PromptHash(a)) != 64 {
		t.Fatalf("expected 64 hex chars")
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Provider: " Gemini ", Temperature: -1}.WithDefaults()
	if cfg.Provider != ProviderGemini || cfg.Model != DefaultGeminiModel {
		t.Fatalf("unexpected provider/model: %+v", cfg)
	}
	if cfg.MaxOutputTokens != DefaultMaxOutputTokens || cfg.Temperature != DefaultTemperature || cfg.Timeout != DefaultTimeout {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	cfg = Config{}.WithDefaults()
	if cfg.Provider != ProviderOpenAI || cfg.Model != DefaultOpenAIModel {
		t.Fatalf("unexpected openai defaults: %+v", cfg)
	}
}

func TestUpstreamErrorMatching(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("complete: %w", &UpstreamError{Provider: "openai", StatusCode: 401, Message: "Incorrect API key provided", Err: cause})

	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream match")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved")
	}
	if !strings.Contains(err.Error(), "Incorrect API key provided") || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("expected service message in error: %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &UpstreamError{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &UpstreamError{StatusCode: http.StatusBadGateway}, true},
		{"auth", &UpstreamError{StatusCode: http.StatusUnauthorized}, false},
		{"deadline", &UpstreamError{Err: context.DeadlineExceeded}, true},
		{"reset", &UpstreamError{Err: errors.New("read: connection reset by peer")}, true},
		{"plain", errors.New("bad prompt"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestWithRetryZeroIsSingleAttempt(t *testing.T) {
	calls := 0
	base := ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", &UpstreamError{Provider: "openai", StatusCode: http.StatusServiceUnavailable}
	})

	client := WithRetry(base, 0, time.Millisecond)
	if _, err := client.Complete(context.Background(), "p"); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestWithRetryRetriesTransientOnly(t *testing.T) {
	calls := 0
	base := ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "", &UpstreamError{Provider: "openai", StatusCode: http.StatusTooManyRequests}
		}
		return "{}", nil
	})
	client := WithRetry(base, 2, time.Millisecond).(*retryingClient)
	var slept []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	out, err := client.Complete(context.Background(), "p")
	if err != nil || out != "{}" {
		t.Fatalf("expected success after retries, got %q %v", out, err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(slept) != 2 || slept[1] != 2*slept[0] {
		t.Fatalf("expected doubling backoff, got %v", slept)
	}

	calls = 0
	auth := WithRetry(ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", &UpstreamError{Provider: "openai", StatusCode: http.StatusUnauthorized}
	}), 3, time.Millisecond)
	if _, err := auth.Complete(context.Background(), "p"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected non-transient error not retried, got %d calls", calls)
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	base := ClientFunc(func(context.Context, string) (string, error) {
		cancel()
		return "", &UpstreamError{Provider: "gemini", StatusCode: http.StatusInternalServerError}
	})

	_, err := WithRetry(base, 5, time.Hour).Complete(ctx, "p")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
