package domain

import (
	"strings"
	"time"
)

// GenerationParams holds the generation envelope sent with every model call
type GenerationParams struct {
	MaxTokens   int
	Temperature float64
}

// ExtractionRequest is the immutable request built once per pipeline run:
// the rendered prompt plus the model it is addressed to.
type ExtractionRequest struct {
	Prompt  string
	ModelID string
	Params  GenerationParams
}

// TermRecord is a single (ordinal, Chinese, English) triple recovered from
// the model response.
type TermRecord struct {
	Index  int
	Source string // Chinese term
	Target string // English term
}

// Valid reports whether both sides carry text after trimming.
func (r TermRecord) Valid() bool {
	return strings.TrimSpace(r.Source) != "" && strings.TrimSpace(r.Target) != ""
}

// Key identifies a record for deduplication purposes.
func (r TermRecord) Key() string {
	return r.Source + "\x00" + r.Target
}

// TermSet is an ordered collection of term records. Deduplication by
// (Source, Target) happens in the registry; the set itself holds no state
// across runs.
type TermSet []TermRecord

// IDMode selects how output row identifiers are assigned.
type IDMode string

const (
	IDModeSequential  IDMode = "sequential"
	IDModeRandomToken IDMode = "random_token"
)

// OutputRow is one serialized CSV row. IDs are not guaranteed unique across
// output files, only within one batch.
type OutputRow struct {
	ID string
	ZH string
	EN string
}

// Stage names the pipeline steps; they show up in events, logs and errors.
type Stage string

const (
	StageAcquireChinese Stage = "acquire_chinese_text"
	StageAcquireEnglish Stage = "acquire_english_text"
	StageBuildRequest   Stage = "build_request"
	StageInvokeModel    Stage = "invoke_model"
	StageParseResponse  Stage = "parse_response"
	StageRegisterTerms  Stage = "register_terms"
	StageWriteOutput    Stage = "write_output"
)

// EventType represents the type of stream event
type EventType string

const (
	EventRunStart      EventType = "run_start"
	EventStageStart    EventType = "stage_start"
	EventStageComplete EventType = "stage_complete"
	EventError         EventType = "error"
	EventRunComplete   EventType = "run_complete"
)

// StreamEvent represents an event emitted during a pipeline run. Front ends
// subscribe to the event channel; the pipeline never renders output itself.
type StreamEvent struct {
	Type      EventType   `json:"type"`
	Stage     Stage       `json:"stage,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// RunResult summarizes a completed pipeline run
type RunResult struct {
	RunID      string
	OutputPath string
	TermCount  int
	Duration   time.Duration
}
