package inference

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cropmind/cropmind-engine/pkg/config"
)

// NewAnalyzer creates the image analyzer for the configured provider.
// The configuration is the single process-wide credential source; clients
// never read the API key from anywhere else.
func NewAnalyzer(cfg *config.InferenceConfig, logger *zap.Logger) (ImageAnalyzer, error) {
	clientCfg := &Config{
		Provider:  cfg.Provider,
		Endpoint:  cfg.Endpoint,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		MaxTokens: cfg.MaxTokens,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(clientCfg, logger)
	case config.ProviderOpenAI:
		return NewOpenAIClient(clientCfg, logger)
	case config.ProviderAnthropic:
		return NewAnthropicClient(clientCfg, logger)
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
}
