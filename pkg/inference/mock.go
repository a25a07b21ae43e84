package inference

import (
	"context"
)

// MockAnalyzer is a configurable mock for testing analysis functionality.
// Set the function field to control behavior in tests.
type MockAnalyzer struct {
	// AnalyzeImageFunc is called when AnalyzeImage is invoked.
	// If nil, returns an empty Analysis and nil error.
	AnalyzeImageFunc func(ctx context.Context, image []byte, mimeType string) (*Analysis, error)

	// ProviderName is returned by Provider. Defaults to "mock".
	ProviderName string

	// Call tracking for verification
	AnalyzeImageCalls int
}

// NewMockAnalyzer creates a new mock with sensible defaults.
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{ProviderName: "mock"}
}

// AnalyzeImage implements ImageAnalyzer.
func (m *MockAnalyzer) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*Analysis, error) {
	m.AnalyzeImageCalls++
	if m.AnalyzeImageFunc != nil {
		return m.AnalyzeImageFunc(ctx, image, mimeType)
	}
	return &Analysis{}, nil
}

// Provider implements ImageAnalyzer.
func (m *MockAnalyzer) Provider() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}
