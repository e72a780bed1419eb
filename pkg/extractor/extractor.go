// Package extractor is the public entry point for the terminology
// extraction library.
package extractor

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/wilsonlichina/pdf-term-extractor/internal/config"
	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
	"github.com/wilsonlichina/pdf-term-extractor/internal/extract"
	"github.com/wilsonlichina/pdf-term-extractor/internal/llm"
	"github.com/wilsonlichina/pdf-term-extractor/internal/observability"
	"github.com/wilsonlichina/pdf-term-extractor/internal/pdf"
	"github.com/wilsonlichina/pdf-term-extractor/internal/prompt"
	"github.com/wilsonlichina/pdf-term-extractor/internal/registry"
)

// Re-export event and result types for the public API
type (
	StreamEvent = domain.StreamEvent
	EventType   = domain.EventType
	Stage       = domain.Stage
	RunResult   = domain.RunResult
	IDMode      = domain.IDMode
)

// Event type constants
const (
	EventRunStart      = domain.EventRunStart
	EventStageStart    = domain.EventStageStart
	EventStageComplete = domain.EventStageComplete
	EventError         = domain.EventError
	EventRunComplete   = domain.EventRunComplete
)

// ID assignment modes
const (
	IDModeSequential  = domain.IDModeSequential
	IDModeRandomToken = domain.IDModeRandomToken
)

// Request names the two source documents for one extraction run.
type Request struct {
	ChinesePDF string
	EnglishPDF string
	OutputPath string
}

// Client is the main entry point for the terminology extractor library.
type Client struct {
	service *extract.Service
	cfg     *config.Config
}

// NewClient creates a client from the environment: a .env file when present,
// an optional YAML config named by CONFIG_PATH, and the usual environment
// overrides on top.
func NewClient() (*Client, error) {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, err
	}
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client from an explicit configuration.
func NewClientWithConfig(cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "term-extractor",
	})

	body, err := cfg.TemplateBody()
	if err != nil {
		return nil, err
	}

	reader := pdf.NewReader(cfg.Pipeline.MaxChars, logger)
	builder := prompt.NewBuilder(cfg.Model.ID, body, domain.GenerationParams{
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
	})
	client := llm.NewClient(cfg.Model.Endpoint, cfg.Model.APIKey, logger)

	var gateway domain.Gateway = client
	if cfg.Model.MaxRetries > 0 {
		retryCfg := llm.DefaultRetryConfig()
		retryCfg.MaxRetries = cfg.Model.MaxRetries
		gateway = &retryGateway{client: client, cfg: retryCfg}
	}

	reg := registry.New(logger)
	service := extract.NewService(reader, builder, gateway, reg, logger)

	return &Client{service: service, cfg: cfg}, nil
}

// Config returns the effective configuration.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// Process runs one extraction and returns a channel that streams events as
// the pipeline progresses. The channel is closed when the run ends.
func (c *Client) Process(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	if req.ChinesePDF == "" || req.EnglishPDF == "" {
		return nil, domain.ValidationError("both a Chinese and an English PDF are required", nil)
	}
	if req.OutputPath == "" {
		return nil, domain.ValidationError("output path is required", nil)
	}

	eventCh := make(chan StreamEvent, 100)

	go func() {
		defer close(eventCh)
		// Run emits an EventError for the failed stage before returning.
		_, _ = c.service.Run(ctx, extract.RunInput{
			ChinesePDF: req.ChinesePDF,
			EnglishPDF: req.EnglishPDF,
			OutputPath: req.OutputPath,
			IDMode:     domain.IDMode(c.cfg.Output.IDMode),
		}, eventCh)
	}()

	return eventCh, nil
}

// Run executes one extraction synchronously and returns the result.
func (c *Client) Run(ctx context.Context, req Request, eventCh chan<- StreamEvent) (*RunResult, error) {
	return c.service.Run(ctx, extract.RunInput{
		ChinesePDF: req.ChinesePDF,
		EnglishPDF: req.EnglishPDF,
		OutputPath: req.OutputPath,
		IDMode:     domain.IDMode(c.cfg.Output.IDMode),
	}, eventCh)
}

// retryGateway invokes the model with the configured retry policy.
type retryGateway struct {
	client *llm.Client
	cfg    llm.RetryConfig
}

func (g *retryGateway) Invoke(ctx context.Context, req domain.ExtractionRequest) (string, error) {
	return g.client.InvokeWithRetry(ctx, req, g.cfg)
}
