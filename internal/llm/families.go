package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
)

// Family identifies a class of inference back ends sharing one
// request/response envelope shape.
type Family string

const (
	// FamilyChat covers models addressed with a structured message list.
	FamilyChat Family = "chat"
	// FamilyCompletion covers models addressed with a single prompt string.
	// Unknown model identifiers route here.
	FamilyCompletion Family = "completion"
)

// familyCodec pairs the request-envelope builder with the response unwrapper
// for one model family.
type familyCodec struct {
	BuildEnvelope func(req domain.ExtractionRequest) ([]byte, error)
	ExtractText   func(body []byte) (string, error)
}

// codecs is the closed dispatch table keyed by family.
var codecs = map[Family]familyCodec{
	FamilyChat: {
		BuildEnvelope: buildChatEnvelope,
		ExtractText:   extractChatText,
	},
	FamilyCompletion: {
		BuildEnvelope: buildCompletionEnvelope,
		ExtractText:   extractCompletionText,
	},
}

// chatFamilyPrefixes marks the identifiers served by the chat envelope.
var chatFamilyPrefixes = []string{
	"anthropic.claude",
}

// FamilyFor selects the envelope family for a model identifier. Identifiers
// that match no known prefix get the completion shape.
func FamilyFor(modelID string) Family {
	id := strings.ToLower(modelID)
	for _, p := range chatFamilyPrefixes {
		if strings.Contains(id, p) {
			return FamilyChat
		}
	}
	return FamilyCompletion
}

// ModelInfo describes a known model identifier for front ends.
type ModelInfo struct {
	ID     string
	Family Family
}

// KnownModels lists the identifiers the original deployment offered. Any
// other identifier still works; it is routed by FamilyFor.
var KnownModels = []ModelInfo{
	{ID: "us.anthropic.claude-3-5-sonnet-20241022-v2:0", Family: FamilyChat},
	{ID: "us.amazon.nova-lite-v1:0", Family: FamilyCompletion},
	{ID: "us.amazon.nova-pro-v1:0", Family: FamilyCompletion},
	{ID: "amazon.titan-text-express-v1", Family: FamilyCompletion},
}

// Chat family wire types. Content lives in a nested list of content blocks.

type chatRequest struct {
	AnthropicVersion string        `json:"anthropic_version"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	Messages         []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatResponse struct {
	Content []contentBlock `json:"content"`
}

func buildChatEnvelope(req domain.ExtractionRequest) ([]byte, error) {
	return json.Marshal(chatRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        req.Params.MaxTokens,
		Temperature:      req.Params.Temperature,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: req.Prompt}},
			},
		},
	})
}

func extractChatText(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	for _, block := range resp.Content {
		if block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("chat response carried no text content")
}

// Completion family wire types. Content lives in a flat results field.

type completionRequest struct {
	InputText            string               `json:"inputText"`
	TextGenerationConfig textGenerationConfig `json:"textGenerationConfig"`
}

type textGenerationConfig struct {
	MaxTokenCount int     `json:"maxTokenCount"`
	Temperature   float64 `json:"temperature"`
}

type completionResponse struct {
	Results []completionResult `json:"results"`
}

type completionResult struct {
	OutputText string `json:"outputText"`
}

func buildCompletionEnvelope(req domain.ExtractionRequest) ([]byte, error) {
	return json.Marshal(completionRequest{
		InputText: req.Prompt,
		TextGenerationConfig: textGenerationConfig{
			MaxTokenCount: req.Params.MaxTokens,
			Temperature:   req.Params.Temperature,
		},
	})
}

func extractCompletionText(body []byte) (string, error) {
	var resp completionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(resp.Results) == 0 || resp.Results[0].OutputText == "" {
		return "", fmt.Errorf("completion response carried no output text")
	}
	return resp.Results[0].OutputText, nil
}
