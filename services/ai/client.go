package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds every upstream completion call. Requests are
	// never retried automatically.
	DefaultTimeout = 30 * time.Second

	// FallbackAnswer is returned when the upstream response carries no
	// recognizable content.
	FallbackAnswer = "No response from AI."
)

// ErrUpstreamUnavailable marks transport-level failures talking to the
// completion provider, as opposed to provider-reported errors.
var ErrUpstreamUnavailable = errors.New("upstream AI provider unavailable")

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Params are optional generation parameters forwarded upstream.
type Params struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// Config holds configuration for the completion client. Key, URL and model
// come from process configuration loaded at startup.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a new completion client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
}

// completionResponse covers the shapes the provider is known to return:
// the standard choices array, a top-level error object, or something else
// entirely (handled by the fallback).
type completionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Complete sends the conversation upstream and returns the assistant's text.
// Transport failures come back wrapped in ErrUpstreamUnavailable; an
// unrecognized response body yields FallbackAnswer rather than an error.
func (c *Client) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	reqBody := completionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var body completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrUpstreamUnavailable, err)
	}

	return normalize(&body), nil
}

// normalize is the single place the provider's heterogeneous response shapes
// are reduced to an answer string.
func normalize(body *completionResponse) string {
	if len(body.Choices) > 0 {
		return body.Choices[0].Message.Content
	}
	if body.Error != nil {
		return fmt.Sprintf("Error: %s", body.Error.Message)
	}
	return FallbackAnswer
}
