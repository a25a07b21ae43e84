package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient analyzes images through the Anthropic messages API with a
// base64 image content block.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewAnthropicClient creates an analyzer backed by the Anthropic messages API.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(cfg.APIKey),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    logger.Named("inference"),
	}, nil
}

// AnalyzeImage implements ImageAnalyzer.
func (c *AnthropicClient) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*Analysis, error) {
	prompt := analysisPrompt
	b64 := base64.StdEncoding.EncodeToString(image)

	c.logger.Debug("Inference request",
		zap.String("provider", c.Provider()),
		zap.String("model", c.model),
		zap.Int("image_bytes", len(image)))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "image", Source: &anthropic.MessageContentSource{
					Type:      "base64",
					MediaType: orDefaultMIME(mimeType),
					Data:      b64,
				}},
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		c.logger.Error("Inference request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, classifyAnthropicError(err)
	}

	text := extractAnthropicText(resp)
	if text == "" {
		return nil, newError(ErrorTypeResponse, "no generated text in response", nil)
	}

	raw, _ := json.Marshal(resp)

	c.logger.Info("Inference request completed",
		zap.String("model", c.model),
		zap.Int("report_len", len(text)),
		zap.Duration("elapsed", time.Since(start)))

	return &Analysis{Text: text, Raw: raw}, nil
}

// Provider implements ImageAnalyzer.
func (c *AnthropicClient) Provider() string {
	return "anthropic"
}

func extractAnthropicText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return strings.TrimSpace(*block.Text)
		}
	}
	return ""
}

func classifyAnthropicError(err error) *Error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Type:       classifyStatus(reqErr.StatusCode),
			Message:    "provider returned non-success status",
			StatusCode: reqErr.StatusCode,
			Cause:      err,
		}
	}

	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		errType := ErrorTypeEndpoint
		if apiErr.IsAuthenticationErr() {
			errType = ErrorTypeAuth
		}
		return &Error{
			Type:    errType,
			Message: "provider returned an API error",
			Body:    apiErr.Message,
			Cause:   err,
		}
	}

	return wrapTransportError(err, "inference request failed")
}
