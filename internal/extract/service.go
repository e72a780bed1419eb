// Package extract orchestrates the term-extraction pipeline: text
// acquisition for both documents, prompt building, one model round trip,
// response parsing, and registry output.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
	"github.com/wilsonlichina/pdf-term-extractor/internal/parse"
	"github.com/wilsonlichina/pdf-term-extractor/internal/prompt"
	"github.com/wilsonlichina/pdf-term-extractor/internal/registry"
)

// Service runs the pipeline. Each run is strictly sequential and shares no
// mutable state with other runs.
type Service struct {
	reader   domain.TextReader
	builder  *prompt.Builder
	gateway  domain.Gateway
	registry *registry.Registry
	logger   zerolog.Logger
}

// NewService wires the pipeline stages together.
func NewService(reader domain.TextReader, builder *prompt.Builder, gateway domain.Gateway, reg *registry.Registry, logger zerolog.Logger) *Service {
	return &Service{
		reader:   reader,
		builder:  builder,
		gateway:  gateway,
		registry: reg,
		logger:   logger.With().Str("component", "extract").Logger(),
	}
}

// RunInput identifies the two source documents and the output destination.
type RunInput struct {
	ChinesePDF string
	EnglishPDF string
	OutputPath string
	IDMode     domain.IDMode
}

// ParsedPayload is the EventStageComplete payload for the parse stage.
type ParsedPayload struct {
	TermCount int `json:"term_count"`
}

// Run executes the pipeline and emits stage events on eventCh (which may be
// nil). The template is validated before any text is read so
// misconfiguration surfaces before the expensive network call. No partial
// term set is ever written: the output file is produced only after the whole
// response parsed successfully.
func (s *Service) Run(ctx context.Context, in RunInput, eventCh chan<- domain.StreamEvent) (*domain.RunResult, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With().Str("run_id", runID).Logger()

	s.emit(eventCh, domain.StreamEvent{
		Type:      domain.EventRunStart,
		Payload:   fmt.Sprintf("starting extraction run %s", runID),
		Timestamp: time.Now(),
	})

	if err := s.builder.Validate(); err != nil {
		return nil, s.fail(eventCh, logger, domain.StageBuildRequest, err)
	}

	zhText, err := s.acquire(ctx, eventCh, logger, domain.StageAcquireChinese, in.ChinesePDF)
	if err != nil {
		return nil, err
	}
	enText, err := s.acquire(ctx, eventCh, logger, domain.StageAcquireEnglish, in.EnglishPDF)
	if err != nil {
		return nil, err
	}

	s.stageStart(eventCh, domain.StageBuildRequest)
	req, err := s.builder.Build(zhText, enText)
	if err != nil {
		return nil, s.fail(eventCh, logger, domain.StageBuildRequest, err)
	}
	logger.Info().Str("model", req.ModelID).Int("prompt_chars", len([]rune(req.Prompt))).
		Msg("extraction request built")
	s.stageComplete(eventCh, domain.StageBuildRequest, nil)

	s.stageStart(eventCh, domain.StageInvokeModel)
	raw, err := s.gateway.Invoke(ctx, req)
	if err != nil {
		return nil, s.fail(eventCh, logger, domain.StageInvokeModel, err)
	}
	s.stageComplete(eventCh, domain.StageInvokeModel, nil)

	s.stageStart(eventCh, domain.StageParseResponse)
	candidates, err := parse.Parse(raw)
	if err != nil {
		return nil, s.fail(eventCh, logger, domain.StageParseResponse, err)
	}
	logger.Info().Int("candidates", len(candidates)).Msg("parsed model response")
	s.stageComplete(eventCh, domain.StageParseResponse, ParsedPayload{TermCount: len(candidates)})

	s.stageStart(eventCh, domain.StageRegisterTerms)
	set := s.registry.Register(candidates)
	rows, err := s.registry.AssignIDs(set, in.IDMode)
	if err != nil {
		return nil, s.fail(eventCh, logger, domain.StageRegisterTerms, err)
	}
	s.stageComplete(eventCh, domain.StageRegisterTerms, ParsedPayload{TermCount: len(rows)})

	s.stageStart(eventCh, domain.StageWriteOutput)
	if err := s.registry.WriteCSV(rows, in.OutputPath); err != nil {
		return nil, s.fail(eventCh, logger, domain.StageWriteOutput, err)
	}
	s.stageComplete(eventCh, domain.StageWriteOutput, in.OutputPath)

	result := &domain.RunResult{
		RunID:      runID,
		OutputPath: in.OutputPath,
		TermCount:  len(rows),
		Duration:   time.Since(started),
	}

	logger.Info().Int("terms", result.TermCount).Dur("duration", result.Duration).
		Str("output", result.OutputPath).Msg("extraction run complete")

	s.emit(eventCh, domain.StreamEvent{
		Type:      domain.EventRunComplete,
		Payload:   result,
		Timestamp: time.Now(),
	})

	return result, nil
}

// acquire runs one text-acquisition stage.
func (s *Service) acquire(ctx context.Context, eventCh chan<- domain.StreamEvent, logger zerolog.Logger, stage domain.Stage, path string) (string, error) {
	s.stageStart(eventCh, stage)
	text, err := s.reader.ExtractText(ctx, path)
	if err != nil {
		return "", s.fail(eventCh, logger, stage, err)
	}
	s.stageComplete(eventCh, stage, nil)
	return text, nil
}

// fail logs, emits, and stage-annotates one stage error.
func (s *Service) fail(eventCh chan<- domain.StreamEvent, logger zerolog.Logger, stage domain.Stage, err error) error {
	err = domain.Staged(err, stage)
	logger.Error().Str("stage", string(stage)).Err(err).Msg("pipeline stage failed")
	s.emit(eventCh, domain.StreamEvent{
		Type:      domain.EventError,
		Stage:     stage,
		Payload:   err.Error(),
		Timestamp: time.Now(),
	})
	return err
}

func (s *Service) stageStart(eventCh chan<- domain.StreamEvent, stage domain.Stage) {
	s.emit(eventCh, domain.StreamEvent{
		Type:      domain.EventStageStart,
		Stage:     stage,
		Timestamp: time.Now(),
	})
}

func (s *Service) stageComplete(eventCh chan<- domain.StreamEvent, stage domain.Stage, payload interface{}) {
	s.emit(eventCh, domain.StreamEvent{
		Type:      domain.EventStageComplete,
		Stage:     stage,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

// emit safely emits an event to the channel.
func (s *Service) emit(eventCh chan<- domain.StreamEvent, event domain.StreamEvent) {
	if eventCh == nil {
		return
	}
	select {
	case eventCh <- event:
	default:
		s.logger.Warn().Str("event", string(event.Type)).Msg("event channel full, dropping event")
	}
}
