package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com"
	defaultAPIVersion = "v1beta"
)

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GenerateContent performs exactly one round trip. A response without
// candidates but with a block reason is reported as *BlockedError.
func (c *Client) GenerateContent(ctx context.Context, model string, req Request) (*Response, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("model is empty")
	}
	if len(req.Parts) == 0 {
		return nil, errors.New("request has no parts")
	}

	payload := generateContentRequest{
		Contents:         []Content{{Role: "user", Parts: req.Parts}},
		GenerationConfig: req.Config,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("gemini round trip",
		"model", model,
		"status", httpResp.StatusCode,
		"parts", len(req.Parts),
		"request_bytes", len(body),
		"response_bytes", len(rawBody),
		"dur_ms", time.Since(start).Milliseconds(),
	)

	if httpResp.StatusCode >= 400 {
		return nil, newAPIError(httpResp.StatusCode, httpResp.Status, rawBody)
	}

	var decoded Response
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(decoded.Candidates) == 0 && decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: decoded.PromptFeedback.BlockReason}
	}

	return &decoded, nil
}

type generateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig,omitempty"`
}
