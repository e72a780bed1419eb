// Package pdf acquires raw text from PDF documents using go-fitz.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
)

// pageSeparator joins page texts so term boundaries never straddle a page
// break silently.
const pageSeparator = "\n\n"

// Reader extracts page text from PDF files and enforces the character budget.
type Reader struct {
	maxChars int
	logger   zerolog.Logger
}

// NewReader creates a new PDF reader with the given character budget.
func NewReader(maxChars int, logger zerolog.Logger) *Reader {
	return &Reader{
		maxChars: maxChars,
		logger:   logger.With().Str("component", "pdf").Logger(),
	}
}

// ExtractText reads all pages of the PDF at path and returns their text
// joined in page order. The result is truncated to the configured maximum;
// truncation is lossy but deliberate, so it logs a warning rather than fail.
func (r *Reader) ExtractText(ctx context.Context, path string) (string, error) {
	validator := NewValidator()
	if err := validator.ValidatePDFPath(path); err != nil {
		return "", err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return "", domain.UnreadablePDFError(fmt.Sprintf("failed to open PDF %s", path), err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return "", domain.UnreadablePDFError(fmt.Sprintf("PDF has no pages: %s", path), nil)
	}

	var b strings.Builder
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		text, err := doc.Text(pageNum)
		if err != nil {
			return "", domain.UnreadablePDFError(fmt.Sprintf("failed to read page %d", pageNum+1), err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString(pageSeparator)
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		r.logger.Warn().Str("path", path).Msg("no text content extracted, document may be image-only")
	}

	r.logger.Info().Str("path", path).Int("pages", pageCount).Int("chars", len([]rune(text))).
		Msg("extracted text from PDF")

	return r.Truncate(text), nil
}

// Truncate enforces the character budget. Input below the budget passes
// through unchanged; anything longer is cut to the prefix and logged, since
// downstream extraction quality degrades silently otherwise.
func (r *Reader) Truncate(text string) string {
	if r.maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= r.maxChars {
		return text
	}
	r.logger.Warn().
		Int("chars", len(runes)).
		Int("max_chars", r.maxChars).
		Msg("source text exceeds character budget, truncating")
	return string(runes[:r.maxChars])
}
