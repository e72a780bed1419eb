package domain

import "context"

// TextReader defines the interface for acquiring raw text from a PDF
type TextReader interface {
	// ExtractText returns the concatenated page text of the PDF at path,
	// truncated to the configured character budget.
	ExtractText(ctx context.Context, path string) (string, error)
}

// Gateway defines the interface for invoking the inference service
type Gateway interface {
	// Invoke sends the request to the model and returns the raw response text.
	Invoke(ctx context.Context, req ExtractionRequest) (string, error)
}
