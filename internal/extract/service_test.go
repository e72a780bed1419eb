package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
	"github.com/wilsonlichina/pdf-term-extractor/internal/observability"
	"github.com/wilsonlichina/pdf-term-extractor/internal/prompt"
	"github.com/wilsonlichina/pdf-term-extractor/internal/registry"
)

type fakeReader struct {
	texts map[string]string
	err   error
	calls []string
}

func (f *fakeReader) ExtractText(ctx context.Context, path string) (string, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return "", f.err
	}
	return f.texts[path], nil
}

type fakeGateway struct {
	response string
	err      error
	calls    int
	lastReq  domain.ExtractionRequest
}

func (f *fakeGateway) Invoke(ctx context.Context, req domain.ExtractionRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testService(reader domain.TextReader, gateway domain.Gateway, body string) *Service {
	builder := prompt.NewBuilder("test-model", body, domain.GenerationParams{MaxTokens: 100, Temperature: 0})
	reg := registry.New(observability.Nop())
	return NewService(reader, builder, gateway, reg, observability.Nop())
}

func drainEvents(ch chan domain.StreamEvent) []domain.StreamEvent {
	close(ch)
	var events []domain.StreamEvent
	for e := range ch {
		events = append(events, e)
	}
	return events
}

func TestRun_Success(t *testing.T) {
	reader := &fakeReader{texts: map[string]string{
		"zh.pdf": "中文内容",
		"en.pdf": "english content",
	}}
	gateway := &fakeGateway{response: "1 | 数据库 | database\n2 | 缓存 | cache\n1 | 数据库 | database\n"}
	svc := testService(reader, gateway, "")

	outputPath := filepath.Join(t.TempDir(), "glossary.csv")
	eventCh := make(chan domain.StreamEvent, 64)

	result, err := svc.Run(context.Background(), RunInput{
		ChinesePDF: "zh.pdf",
		EnglishPDF: "en.pdf",
		OutputPath: outputPath,
		IDMode:     domain.IDModeSequential,
	}, eventCh)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, outputPath, result.OutputPath)
	assert.Equal(t, 2, result.TermCount)
	assert.Positive(t, result.Duration)

	assert.Equal(t, []string{"zh.pdf", "en.pdf"}, reader.calls)
	assert.Equal(t, 1, gateway.calls)
	assert.Contains(t, gateway.lastReq.Prompt, "中文内容")
	assert.Contains(t, gateway.lastReq.Prompt, "english content")

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "数据库")

	events := drainEvents(eventCh)
	var types []domain.EventType
	var stages []domain.Stage
	for _, e := range events {
		types = append(types, e.Type)
		if e.Type == domain.EventStageStart {
			stages = append(stages, e.Stage)
		}
	}
	assert.Equal(t, domain.EventRunStart, types[0])
	assert.Equal(t, domain.EventRunComplete, types[len(types)-1])
	assert.Equal(t, []domain.Stage{
		domain.StageAcquireChinese,
		domain.StageAcquireEnglish,
		domain.StageBuildRequest,
		domain.StageInvokeModel,
		domain.StageParseResponse,
		domain.StageRegisterTerms,
		domain.StageWriteOutput,
	}, stages)
	for _, e := range events {
		assert.NotEqual(t, domain.EventError, e.Type)
	}
}

func TestRun_NilEventChannel(t *testing.T) {
	reader := &fakeReader{texts: map[string]string{"zh.pdf": "中", "en.pdf": "en"}}
	gateway := &fakeGateway{response: "1 | 术语 | term\n"}
	svc := testService(reader, gateway, "")

	result, err := svc.Run(context.Background(), RunInput{
		ChinesePDF: "zh.pdf",
		EnglishPDF: "en.pdf",
		OutputPath: filepath.Join(t.TempDir(), "out.csv"),
		IDMode:     domain.IDModeSequential,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.TermCount)
}

func TestRun_InvalidTemplateStopsBeforeReading(t *testing.T) {
	reader := &fakeReader{texts: map[string]string{}}
	gateway := &fakeGateway{response: "unused"}
	svc := testService(reader, gateway, "a template without markers")

	_, err := svc.Run(context.Background(), RunInput{
		ChinesePDF: "zh.pdf",
		EnglishPDF: "en.pdf",
		OutputPath: filepath.Join(t.TempDir(), "out.csv"),
		IDMode:     domain.IDModeSequential,
	}, nil)

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeInvalidTemplate))
	assert.Empty(t, reader.calls)
	assert.Zero(t, gateway.calls)
}

func TestRun_ReaderFailureAnnotatedWithStage(t *testing.T) {
	reader := &fakeReader{err: domain.UnreadablePDFError("file does not exist", nil)}
	gateway := &fakeGateway{}
	svc := testService(reader, gateway, "")

	eventCh := make(chan domain.StreamEvent, 64)
	_, err := svc.Run(context.Background(), RunInput{
		ChinesePDF: "zh.pdf",
		EnglishPDF: "en.pdf",
		OutputPath: filepath.Join(t.TempDir(), "out.csv"),
		IDMode:     domain.IDModeSequential,
	}, eventCh)

	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrorTypeUnreadablePDF, de.Type)
	assert.Equal(t, domain.StageAcquireChinese, de.Stage)
	assert.Zero(t, gateway.calls)

	events := drainEvents(eventCh)
	last := events[len(events)-1]
	assert.Equal(t, domain.EventError, last.Type)
	assert.Equal(t, domain.StageAcquireChinese, last.Stage)
}

func TestRun_GatewayFailureWritesNothing(t *testing.T) {
	reader := &fakeReader{texts: map[string]string{"zh.pdf": "中", "en.pdf": "en"}}
	gateway := &fakeGateway{err: domain.ModelInvocationError("inference service returned status 429", 429, errors.New("throttled"))}
	svc := testService(reader, gateway, "")

	outputPath := filepath.Join(t.TempDir(), "out.csv")
	_, err := svc.Run(context.Background(), RunInput{
		ChinesePDF: "zh.pdf",
		EnglishPDF: "en.pdf",
		OutputPath: outputPath,
		IDMode:     domain.IDModeSequential,
	}, nil)

	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrorTypeModelInvocation, de.Type)
	assert.Equal(t, domain.StageInvokeModel, de.Stage)
	assert.Equal(t, 429, de.Status)

	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr), "no output file may exist after a failed run")
}

func TestRun_EmptyResponseWritesNothing(t *testing.T) {
	reader := &fakeReader{texts: map[string]string{"zh.pdf": "中", "en.pdf": "en"}}
	gateway := &fakeGateway{response: "I could not find any terminology."}
	svc := testService(reader, gateway, "")

	outputPath := filepath.Join(t.TempDir(), "out.csv")
	_, err := svc.Run(context.Background(), RunInput{
		ChinesePDF: "zh.pdf",
		EnglishPDF: "en.pdf",
		OutputPath: outputPath,
		IDMode:     domain.IDModeSequential,
	}, nil)

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeEmptyExtraction))

	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_RandomTokenMode(t *testing.T) {
	reader := &fakeReader{texts: map[string]string{"zh.pdf": "中", "en.pdf": "en"}}
	gateway := &fakeGateway{response: "1 | 甲 | alpha\n2 | 乙 | beta\n"}
	svc := testService(reader, gateway, "")

	outputPath := filepath.Join(t.TempDir(), "out.csv")
	result, err := svc.Run(context.Background(), RunInput{
		ChinesePDF: "zh.pdf",
		EnglishPDF: "en.pdf",
		OutputPath: outputPath,
		IDMode:     domain.IDModeRandomToken,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, result.TermCount)
}
