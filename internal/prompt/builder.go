// Package prompt renders the extraction prompt from a configurable template.
package prompt

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
)

// Placeholder markers every template must carry. Validation happens before
// any network call so a misconfigured template never costs a model round trip.
const (
	PlaceholderChinese = "{{.ChineseText}}"
	PlaceholderEnglish = "{{.EnglishText}}"
)

// DefaultTemplate instructs the model to emit one pipe-delimited triple per
// line, which is what the response parser expects.
const DefaultTemplate = `As a professional translator and terminologist, extract professional terminology pairs from these parallel Chinese and English texts.

CHINESE TEXT:
{{.ChineseText}}

ENGLISH TEXT:
{{.EnglishText}}

Identify all specific professional terms and specialized vocabulary that appear in both texts.
Return one term pair per line, in exactly this format:

ordinal | Chinese term | English term

Example:
1 | 数据库 | database
2 | 云计算 | cloud computing

IMPORTANT GUIDELINES:
1. Focus on specialized terminology specific to this document's domain
2. Include only terms that appear in both texts
3. Extract ONLY professional/technical terms, not common words
4. Ensure accurate pairing between Chinese and English terms
5. Return ONLY the term lines without any other text`

// templateData carries the two texts into the template.
type templateData struct {
	ChineseText string
	EnglishText string
}

// Builder combines a template, the two language texts, and generation
// parameters into a single extraction request.
type Builder struct {
	modelID string
	body    string
	params  domain.GenerationParams
}

// NewBuilder creates a builder for the given model. An empty template body
// selects the default template.
func NewBuilder(modelID, body string, params domain.GenerationParams) *Builder {
	if body == "" {
		body = DefaultTemplate
	}
	return &Builder{
		modelID: modelID,
		body:    body,
		params:  params,
	}
}

// Validate checks that the template carries both placeholder markers and
// parses as a template.
func (b *Builder) Validate() error {
	if !strings.Contains(b.body, PlaceholderChinese) {
		return domain.InvalidTemplateError("template is missing the "+PlaceholderChinese+" placeholder", nil)
	}
	if !strings.Contains(b.body, PlaceholderEnglish) {
		return domain.InvalidTemplateError("template is missing the "+PlaceholderEnglish+" placeholder", nil)
	}
	if _, err := template.New("prompt").Parse(b.body); err != nil {
		return domain.InvalidTemplateError("template does not parse", err)
	}
	return nil
}

// Build substitutes the two texts into the template and returns the request.
func (b *Builder) Build(zhText, enText string) (domain.ExtractionRequest, error) {
	if err := b.Validate(); err != nil {
		return domain.ExtractionRequest{}, err
	}

	tpl, err := template.New("prompt").Parse(b.body)
	if err != nil {
		return domain.ExtractionRequest{}, domain.InvalidTemplateError("template does not parse", err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, templateData{ChineseText: zhText, EnglishText: enText}); err != nil {
		return domain.ExtractionRequest{}, domain.InvalidTemplateError("template execution failed", err)
	}

	return domain.ExtractionRequest{
		Prompt:  buf.String(),
		ModelID: b.modelID,
		Params:  b.params,
	}, nil
}
