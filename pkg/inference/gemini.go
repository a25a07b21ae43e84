package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds configuration for creating an image analyzer.
type Config struct {
	Provider  string        // "gemini", "openai" or "anthropic"
	Endpoint  string        // Provider base URL
	Model     string        // Model name, e.g. "gemini-1.5-flash"
	APIKey    string        // Provider credential
	MaxTokens int           // Generated report length bound where the provider requires one
	Timeout   time.Duration // Outbound HTTP timeout; 0 inherits the transport default
}

// GeminiClient talks to a generateContent-style multimodal REST endpoint.
// The request body inlines the image as base64 next to the fixed instruction;
// authentication is a key query parameter.
type GeminiClient struct {
	httpClient *http.Client
	endpoint   string
	model      string
	apiKey     string
	logger     *zap.Logger
}

// NewGeminiClient creates a client for the native generateContent REST API.
func NewGeminiClient(cfg *Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	return &GeminiClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		logger:     logger.Named("inference"),
	}, nil
}

// Wire types for the generateContent request/response. The response is
// provider-defined; only the generated-text fields are read.
type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// AnalyzeImage implements ImageAnalyzer. It issues a single generateContent
// call and fails fast on any transport or status error.
func (c *GeminiClient) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*Analysis, error) {
	body := generateContentRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: analysisPrompt},
				{InlineData: &geminiInlineData{
					MIMEType: orDefaultMIME(mimeType),
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, newError(ErrorTypeUnknown, "encode request", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		c.endpoint, c.model, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, newError(ErrorTypeUnknown, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Inference request",
		zap.String("provider", c.Provider()),
		zap.String("model", c.model),
		zap.Int("image_bytes", len(image)))

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Inference request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, wrapTransportError(err, "inference request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrorTypeEndpoint, "read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		infErr := &Error{
			Type:       classifyStatus(resp.StatusCode),
			Message:    "provider returned non-success status",
			StatusCode: resp.StatusCode,
			Body:       truncateBody(raw, 512),
		}
		c.logger.Error("Inference request rejected",
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("body", infErr.Body))
		return nil, infErr
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{
			Type:    ErrorTypeResponse,
			Message: "malformed provider response",
			Body:    truncateBody(raw, 512),
			Cause:   err,
		}
	}

	text := joinCandidateText(&parsed)
	if text == "" {
		return nil, &Error{
			Type:    ErrorTypeResponse,
			Message: "no generated text in response",
			Body:    truncateBody(raw, 512),
		}
	}

	c.logger.Info("Inference request completed",
		zap.String("model", c.model),
		zap.Int("report_len", len(text)),
		zap.Duration("elapsed", time.Since(start)))

	return &Analysis{Text: text, Raw: raw}, nil
}

// Provider implements ImageAnalyzer.
func (c *GeminiClient) Provider() string {
	return "gemini"
}

func joinCandidateText(resp *generateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}
