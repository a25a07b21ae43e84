package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient analyzes images through an OpenAI-compatible chat completion
// endpoint with multimodal content parts.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient creates an analyzer backed by an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger.Named("inference"),
	}, nil
}

// AnalyzeImage implements ImageAnalyzer.
func (c *OpenAIClient) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*Analysis, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s",
		orDefaultMIME(mimeType), base64.StdEncoding.EncodeToString(image))

	c.logger.Debug("Inference request",
		zap.String("provider", c.Provider()),
		zap.String("model", c.model),
		zap.Int("image_bytes", len(image)))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: analysisPrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		c.logger.Error("Inference request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, newError(ErrorTypeResponse, "no generated text in response", nil)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	raw, _ := json.Marshal(resp)

	c.logger.Info("Inference request completed",
		zap.String("model", c.model),
		zap.Int("report_len", len(text)),
		zap.Duration("elapsed", time.Since(start)))

	return &Analysis{Text: text, Raw: raw}, nil
}

// Provider implements ImageAnalyzer.
func (c *OpenAIClient) Provider() string {
	return "openai"
}

func classifyOpenAIError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Type:       classifyStatus(apiErr.HTTPStatusCode),
			Message:    "provider returned non-success status",
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Cause:      err,
		}
	}
	return wrapTransportError(err, "inference request failed")
}
