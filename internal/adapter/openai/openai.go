// Package openai implements app.Upstream with the OpenAI HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dashboard/internal/app"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Defaults fills request fields the caller left empty.
type Defaults struct {
	Model       string
	MaxTokens   int
	Temperature float64
	ImageSize   string
}

// Client calls the chat completion and image generation endpoints.
type Client struct {
	base     string
	apiKey   string
	defaults Defaults
	http     *http.Client
}

// New creates a client. An empty baseURL means DefaultBaseURL.
func New(baseURL, apiKey string, defaults Defaults, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		base:     strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		defaults: defaults,
		http:     &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []app.ChatMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message app.ChatMessage `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CompleteText returns the first choice of a chat completion.
func (c *Client) CompleteText(ctx context.Context, p app.TextParams) (string, error) {
	req := chatRequest{
		Model:       p.Model,
		Messages:    p.Messages,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	}
	if req.Model == "" {
		req.Model = c.defaults.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.defaults.MaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = c.defaults.Temperature
	}

	var out chatResponse
	if err := c.post(ctx, "/chat/completions", req, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}
	return out.Choices[0].Message.Content, nil
}

// CreateImage returns the URL of the first generated image.
func (c *Client) CreateImage(ctx context.Context, p app.ImageParams) (string, error) {
	req := imageRequest{Prompt: p.Prompt, N: p.N, Size: p.Size, ResponseFormat: p.ResponseFormat}
	if req.N == 0 {
		req.N = 1
	}
	if req.Size == "" {
		req.Size = c.defaults.ImageSize
	}
	if req.ResponseFormat == "" {
		req.ResponseFormat = "url"
	}

	var out imageResponse
	if err := c.post(ctx, "/images/generations", req, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 {
		return "", errors.New("openai: no images returned")
	}
	return out.Data[0].URL, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("openai: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("openai: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("openai: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("openai: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}
