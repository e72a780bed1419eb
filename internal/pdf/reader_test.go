package pdf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
	"github.com/wilsonlichina/pdf-term-extractor/internal/observability"
)

func TestTruncate(t *testing.T) {
	r := NewReader(10, observability.Nop())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"under budget", "short", "short"},
		{"exactly budget", "exactly10!", "exactly10!"},
		{"over budget", "this is longer than ten", "this is lo"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Truncate(tt.in))
		})
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	r := NewReader(3, observability.Nop())

	got := r.Truncate("数据库系统")

	assert.Equal(t, "数据库", got)
	assert.True(t, strings.HasPrefix("数据库系统", got))
}

func TestTruncate_ZeroBudgetDisablesLimit(t *testing.T) {
	r := NewReader(0, observability.Nop())

	long := strings.Repeat("x", 100000)
	assert.Equal(t, long, r.Truncate(long))
}

func TestExtractText_EmptyPath(t *testing.T) {
	r := NewReader(1000, observability.Nop())

	_, err := r.ExtractText(context.Background(), "  ")

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestExtractText_MissingFile(t *testing.T) {
	r := NewReader(1000, observability.Nop())

	_, err := r.ExtractText(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnreadablePDF))
}

func TestExtractText_Directory(t *testing.T) {
	r := NewReader(1000, observability.Nop())

	_, err := r.ExtractText(context.Background(), t.TempDir())

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestExtractText_WrongExtension(t *testing.T) {
	r := NewReader(1000, observability.Nop())
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := r.ExtractText(context.Background(), path)

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestExtractText_CorruptPDF(t *testing.T) {
	r := NewReader(1000, observability.Nop())
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("garbage, not a document"), 0o644))

	_, err := r.ExtractText(context.Background(), path)

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnreadablePDF))
}

func TestValidatePDFPath_ValidFile(t *testing.T) {
	v := NewValidator()
	path := filepath.Join(t.TempDir(), "ok.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))

	assert.NoError(t, v.ValidatePDFPath(path))
}
