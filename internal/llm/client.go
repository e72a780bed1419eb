// Package llm is the model gateway: it hides per-family request/response
// shape differences behind a single Invoke call.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
)

const defaultEndpoint = "https://bedrock-runtime.us-east-1.amazonaws.com"

// Client invokes the hosted inference service. It performs no caching; every
// call re-invokes the remote service.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a gateway client. An empty endpoint selects the default
// inference endpoint.
func NewClient(endpoint, apiKey string, logger zerolog.Logger) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     logger.With().Str("component", "llm").Logger(),
	}
}

// Invoke sends the request with the envelope shape of the model's family and
// returns the unwrapped plain-text response. Network, auth, and throttling
// failures propagate as model invocation errors carrying the underlying
// status; they are never swallowed.
func (c *Client) Invoke(ctx context.Context, req domain.ExtractionRequest) (string, error) {
	family := FamilyFor(req.ModelID)
	codec := codecs[family]

	body, err := codec.BuildEnvelope(req)
	if err != nil {
		return "", domain.ModelInvocationError("failed to build request envelope", 0, err)
	}

	invokeURL := fmt.Sprintf("%s/model/%s/invoke", c.endpoint, url.PathEscape(req.ModelID))

	c.logger.Info().
		Str("model", req.ModelID).
		Str("family", string(family)).
		Int("prompt_chars", len([]rune(req.Prompt))).
		Msg("invoking inference service")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, invokeURL, bytes.NewReader(body))
	if err != nil {
		return "", domain.ModelInvocationError("failed to create request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", domain.ModelInvocationError("request to inference service failed", 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.ModelInvocationError("failed to read inference response", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", domain.ModelInvocationError(
			fmt.Sprintf("inference service returned status %d", resp.StatusCode),
			resp.StatusCode,
			errors.New(strings.TrimSpace(string(respBody))),
		)
	}

	text, err := codec.ExtractText(respBody)
	if err != nil {
		return "", domain.ModelInvocationError("failed to unwrap inference response", resp.StatusCode, err)
	}

	c.logger.Info().Str("model", req.ModelID).Int("response_chars", len([]rune(text))).
		Msg("received response from inference service")

	return text, nil
}
