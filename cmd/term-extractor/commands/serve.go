package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wilsonlichina/pdf-term-extractor/internal/config"
	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
	"github.com/wilsonlichina/pdf-term-extractor/internal/observability"
	"github.com/wilsonlichina/pdf-term-extractor/pkg/extractor"
)

const maxUploadBytes = 64 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the extraction HTTP API",
	Long: `Serve starts an HTTP server exposing the extraction pipeline. Clients POST
two PDFs as multipart form fields "zh" and "en" and receive the glossary
location and term count as JSON.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "term-extractor-api",
	})

	client, err := extractor.NewClientWithConfig(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return domain.OutputWriteError("create output directory", err)
	}

	router := newRouter(logger, cfg, client)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
	return nil
}

// newRouter builds the API router.
func newRouter(logger zerolog.Logger, cfg *config.Config, client *extractor.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"term-extractor"}`))
	})

	h := &extractHandler{logger: logger, cfg: cfg, client: client}
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/extract", h.Extract)
	})

	return r
}

type extractHandler struct {
	logger zerolog.Logger
	cfg    *config.Config
	client *extractor.Client
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
	Stage string `json:"stage,omitempty"`
}

// Extract accepts two uploaded PDFs, runs the pipeline synchronously, and
// responds with the glossary CSV.
func (h *extractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, domain.ValidationError("parse multipart form", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	tmpDir, err := os.MkdirTemp("", "term-extractor-*")
	if err != nil {
		h.writeError(w, domain.OutputWriteError("create upload directory", err))
		return
	}
	defer os.RemoveAll(tmpDir)

	zhPath, err := h.saveUpload(r, "zh", tmpDir)
	if err != nil {
		h.writeError(w, err)
		return
	}
	enPath, err := h.saveUpload(r, "en", tmpDir)
	if err != nil {
		h.writeError(w, err)
		return
	}

	client, err := h.requestClient(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	outputPath := TimestampedOutputPath(h.cfg.Output.Dir, time.Now())

	result, err := client.Run(r.Context(), extractor.Request{
		ChinesePDF: zhPath,
		EnglishPDF: enPath,
		OutputPath: outputPath,
	}, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info().Str("run_id", result.RunID).Int("terms", result.TermCount).
		Msg("extraction request served")

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(result.OutputPath)))
	w.Header().Set("X-Run-Id", result.RunID)
	w.Header().Set("X-Term-Count", strconv.Itoa(result.TermCount))
	http.ServeFile(w, r, result.OutputPath)
}

// requestClient returns the shared client, or a per-request one when the form
// carries a model or template override.
func (h *extractHandler) requestClient(r *http.Request) (*extractor.Client, error) {
	modelID := r.FormValue("model")
	template := r.FormValue("template")
	if modelID == "" && template == "" {
		return h.client, nil
	}
	cfg := *h.cfg
	if modelID != "" {
		cfg.Model.ID = modelID
	}
	if template != "" {
		cfg.Pipeline.Template = template
		cfg.Pipeline.TemplateFile = ""
	}
	return extractor.NewClientWithConfig(&cfg)
}

// saveUpload copies one multipart PDF field to disk and returns its path.
func (h *extractHandler) saveUpload(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", domain.ValidationError(fmt.Sprintf("missing %q PDF upload", field), err)
	}
	defer file.Close()

	if filepath.Ext(header.Filename) != ".pdf" {
		return "", domain.ValidationError(fmt.Sprintf("%q upload must be a .pdf file", field), nil)
	}

	path := filepath.Join(dir, field+".pdf")
	if err := copyUpload(file, path); err != nil {
		return "", domain.OutputWriteError(fmt.Sprintf("store %q upload", field), err)
	}
	return path, nil
}

func copyUpload(src multipart.File, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

// writeError maps domain error types to HTTP status codes.
func (h *extractHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}

	var de *domain.DomainError
	if errors.As(err, &de) {
		resp.Type = string(de.Type)
		resp.Stage = string(de.Stage)
		switch de.Type {
		case domain.ErrorTypeValidation, domain.ErrorTypeInvalidTemplate, domain.ErrorTypeUnreadablePDF:
			status = http.StatusBadRequest
		case domain.ErrorTypeEmptyExtraction:
			status = http.StatusUnprocessableEntity
		case domain.ErrorTypeModelInvocation:
			status = http.StatusBadGateway
		}
	}

	h.logger.Error().Err(err).Int("status", status).Msg("extraction request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
