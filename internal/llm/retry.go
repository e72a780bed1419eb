package llm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
)

// RetryConfig holds retry configuration. Retry policy belongs to the caller:
// the gateway retries nothing unless MaxRetries is set.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns a conservative retry configuration for callers
// that opt in.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// shouldRetry determines if a status code marks a transient failure.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// calculateBackoff calculates exponential backoff duration.
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}

// InvokeWithRetry wraps Invoke with exponential backoff on throttling and
// server errors. Auth failures and other non-transient statuses return
// immediately.
func (c *Client) InvokeWithRetry(ctx context.Context, req domain.ExtractionRequest, cfg RetryConfig) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		text, err := c.Invoke(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var de *domain.DomainError
		if !errors.As(err, &de) || !shouldRetry(de.Status) {
			return "", err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		backoff := calculateBackoff(attempt, cfg)
		c.logger.Warn().
			Int("attempt", attempt+1).
			Int("max_retries", cfg.MaxRetries).
			Dur("backoff", backoff).
			Err(err).
			Msg("inference call failed, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", lastErr
}
