package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
)

var testParams = domain.GenerationParams{MaxTokens: 5000, Temperature: 0}

func TestNewBuilder_EmptyBodyUsesDefault(t *testing.T) {
	b := NewBuilder("model-x", "", testParams)

	require.NoError(t, b.Validate())

	req, err := b.Build("中文", "English")
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "中文")
	assert.Contains(t, req.Prompt, "English")
	assert.NotContains(t, req.Prompt, PlaceholderChinese)
	assert.NotContains(t, req.Prompt, PlaceholderEnglish)
}

func TestValidate_MissingPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing chinese", "Extract terms from: " + PlaceholderEnglish},
		{"missing english", "Extract terms from: " + PlaceholderChinese},
		{"missing both", "Extract terms from both texts."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder("model-x", tt.body, testParams)
			err := b.Validate()
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeInvalidTemplate))
		})
	}
}

func TestValidate_UnparsableTemplate(t *testing.T) {
	body := PlaceholderChinese + " " + PlaceholderEnglish + " {{.Broken"

	b := NewBuilder("model-x", body, testParams)

	err := b.Validate()
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeInvalidTemplate))
}

func TestBuild_SubstitutesBothTexts(t *testing.T) {
	body := "ZH:\n" + PlaceholderChinese + "\nEN:\n" + PlaceholderEnglish
	b := NewBuilder("model-x", body, testParams)

	zh := strings.Repeat("汉", 100)
	en := strings.Repeat("a", 200)
	req, err := b.Build(zh, en)

	require.NoError(t, err)
	assert.Contains(t, req.Prompt, zh)
	assert.Contains(t, req.Prompt, en)
	assert.Equal(t, "model-x", req.ModelID)
	assert.Equal(t, testParams, req.Params)

	// Prompt length is the boilerplate plus both texts exactly once.
	boilerplate := len("ZH:\n\nEN:\n")
	assert.Equal(t, boilerplate+len(zh)+len(en), len(req.Prompt))
}

func TestBuild_CustomTemplateOverridesDefault(t *testing.T) {
	body := "CUSTOM " + PlaceholderChinese + " " + PlaceholderEnglish
	b := NewBuilder("model-x", body, testParams)

	req, err := b.Build("甲", "alpha")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(req.Prompt, "CUSTOM "))
	assert.NotContains(t, req.Prompt, "professional terminology pairs")
}

func TestDefaultTemplate_CarriesBothPlaceholders(t *testing.T) {
	assert.Contains(t, DefaultTemplate, PlaceholderChinese)
	assert.Contains(t, DefaultTemplate, PlaceholderEnglish)
}
