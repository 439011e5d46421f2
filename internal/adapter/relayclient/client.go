// Package relayclient calls the relay server's JSON API.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dashboard/internal/domain"
)

// Generation defaults sent with every request.
const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
	DefaultImageSize   = "512x512"
)

// Client implements app.RelayClient over HTTP.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for baseURL, which includes the /api prefix.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool             `json:"success"`
	Token   string           `json:"token,omitempty"`
	User    *domain.UserView `json:"user,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type textRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type imageRequest struct {
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type resultResponse struct {
	Result string `json:"result"`
}

// Login posts credentials and returns the bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, domain.UserView, error) {
	var out authResponse
	if err := c.do(ctx, "login", http.MethodPost, "/login", "", loginRequest{username, password}, &out); err != nil {
		return "", domain.UserView{}, err
	}
	if !out.Success || out.Token == "" || out.User == nil {
		return "", domain.UserView{}, fmt.Errorf("%w: login: unsuccessful response", domain.ErrRelay)
	}
	return out.Token, *out.User, nil
}

// Logout revokes token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, "logout", http.MethodPost, "/logout", token, nil, nil)
}

// Verify returns the user behind token.
func (c *Client) Verify(ctx context.Context, token string) (domain.UserView, error) {
	var out authResponse
	if err := c.do(ctx, "verify", http.MethodGet, "/verify", token, nil, &out); err != nil {
		return domain.UserView{}, err
	}
	if !out.Success || out.User == nil {
		return domain.UserView{}, fmt.Errorf("%w: verify: unsuccessful response", domain.ErrRelay)
	}
	return *out.User, nil
}

// GenerateText asks the relay for a chat completion of prompt.
func (c *Client) GenerateText(ctx context.Context, token, prompt string) (string, error) {
	req := textRequest{
		Model:       DefaultModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
	var out resultResponse
	if err := c.do(ctx, "generate-text", http.MethodPost, "/openai/generate-text", token, req, &out); err != nil {
		return "", err
	}
	return out.Result, nil
}

// GenerateImage asks the relay for an image URL for prompt.
func (c *Client) GenerateImage(ctx context.Context, token, prompt string) (string, error) {
	req := imageRequest{Prompt: prompt, N: 1, Size: DefaultImageSize, ResponseFormat: "url"}
	var out resultResponse
	if err := c.do(ctx, "generate-image", http.MethodPost, "/openai/generate-image", token, req, &out); err != nil {
		return "", err
	}
	if out.Result == "" {
		return "", fmt.Errorf("%w: generate-image: empty result", domain.ErrRelay)
	}
	return out.Result, nil
}

// do sends one request. Non-2xx responses become *domain.RelayStatusError
// and undecodable bodies wrap domain.ErrRelay.
func (c *Client) do(ctx context.Context, op, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrRelay, op, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.RelayStatusError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", domain.ErrRelay, op, err)
	}
	return nil
}
