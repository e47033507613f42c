package llm

import (
	"context"
	"time"

	"ats-resume-checker/internal/shared/telemetry"
)

// DefaultRetryBaseDelay is the wait before the first retry; later waits double.
const DefaultRetryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base      Client
	retries   int
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps base so transient upstream failures are retried up to retries extra times.
// With retries <= 0 the base client is returned unchanged and every call is a single attempt.
func WithRetry(base Client, retries int, baseDelay time.Duration) Client {
	if base == nil || retries <= 0 {
		return base
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBaseDelay
	}
	return &retryingClient{base: base, retries: retries, baseDelay: baseDelay, sleep: sleepContext}
}

func (r *retryingClient) Complete(ctx context.Context, prompt string) (string, error) {
	delay := r.baseDelay
	for attempt := 0; ; attempt++ {
		out, err := r.base.Complete(ctx, prompt)
		if err == nil || attempt >= r.retries || !IsTransient(err) {
			return out, err
		}
		telemetry.Warn("llm.retry", map[string]any{
			"attempt":  attempt + 1,
			"delay_ms": delay.Milliseconds(),
			"err":      err,
		})
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
