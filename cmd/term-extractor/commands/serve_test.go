package commands

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilsonlichina/pdf-term-extractor/internal/config"
	"github.com/wilsonlichina/pdf-term-extractor/internal/observability"
	"github.com/wilsonlichina/pdf-term-extractor/pkg/extractor"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()
	client, err := extractor.NewClientWithConfig(cfg)
	require.NoError(t, err)
	return newRouter(observability.Nop(), cfg, client)
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestExtractEndpoint_MissingUploads(t *testing.T) {
	router := testRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation", resp["type"])
}

func TestExtractEndpoint_RejectsNonPDFUpload(t *testing.T) {
	router := testRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	zh, err := mw.CreateFormFile("zh", "doc.txt")
	require.NoError(t, err)
	zh.Write([]byte("not a pdf"))
	en, err := mw.CreateFormFile("en", "doc.pdf")
	require.NoError(t, err)
	en.Write([]byte("%PDF-1.7"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be a .pdf file")
}

func TestExtractEndpoint_InvalidTemplateOverride(t *testing.T) {
	router := testRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	zh, err := mw.CreateFormFile("zh", "zh.pdf")
	require.NoError(t, err)
	zh.Write([]byte("%PDF-1.7"))
	en, err := mw.CreateFormFile("en", "en.pdf")
	require.NoError(t, err)
	en.Write([]byte("%PDF-1.7"))
	require.NoError(t, mw.WriteField("template", "a template without markers"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Template validation runs before either PDF is opened.
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_template", resp["type"])
}

func TestTimestampedOutputPath(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	got := TimestampedOutputPath("glossary_files", now)

	assert.Equal(t, "glossary_files/terminology_20250314_150926.csv", got)
}
