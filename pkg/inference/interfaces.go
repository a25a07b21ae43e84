// Package inference provides clients for external multimodal analysis
// providers. Each client submits one image plus a fixed instruction and
// returns the provider's generated pest report as free text.
package inference

import (
	"context"
	"encoding/json"
)

// Analysis is the raw outcome of one inference call, prior to normalization.
type Analysis struct {
	// Text is the provider's generated report, unmodified.
	Text string
	// Raw is the provider response payload as received.
	Raw json.RawMessage
}

// ImageAnalyzer defines the interface for multimodal pest analysis.
// Implementations issue exactly one network call per invocation: no retry,
// no backoff. Use this interface for dependency injection to enable mocking
// in tests.
type ImageAnalyzer interface {
	// AnalyzeImage submits the image bytes for analysis. mimeType defaults to
	// image/jpeg when empty; the bytes are not validated against it.
	// Failures are always a typed *Error.
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*Analysis, error)

	// Provider returns the configured provider name.
	Provider() string
}

// Ensure the concrete clients implement ImageAnalyzer at compile time.
var (
	_ ImageAnalyzer = (*GeminiClient)(nil)
	_ ImageAnalyzer = (*OpenAIClient)(nil)
	_ ImageAnalyzer = (*AnthropicClient)(nil)
	_ ImageAnalyzer = (*MockAnalyzer)(nil)
)
