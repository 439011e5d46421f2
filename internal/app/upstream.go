package app

import (
	"context"
	"strings"

	"dashboard/internal/domain"
)

// ChatMessage is one message of a text generation request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextParams is a text generation request as the relay receives it.
type TextParams struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ImageParams is an image generation request as the relay receives it.
type ImageParams struct {
	Prompt         string
	N              int
	Size           string
	ResponseFormat string
}

// Upstream produces the relay's generation results.
type Upstream interface {
	CompleteText(ctx context.Context, p TextParams) (string, error)
	CreateImage(ctx context.Context, p ImageParams) (string, error)
}

// DemoUpstream answers generation requests from the example catalog.
type DemoUpstream struct {
	selector *Selector
}

// NewDemoUpstream creates a catalog-backed upstream.
func NewDemoUpstream(selector *Selector) *DemoUpstream {
	return &DemoUpstream{selector: selector}
}

// CompleteText answers the last user message with a text example or the
// fallback text.
func (u *DemoUpstream) CompleteText(_ context.Context, p TextParams) (string, error) {
	prompt := lastUserMessage(p.Messages)
	if strings.TrimSpace(prompt) == "" {
		return "", domain.NewValidationError(MsgPromptRequired)
	}
	if ex, ok := u.selector.Select(prompt, domain.ExampleText); ok {
		return strings.ReplaceAll(ex.Content, "{prompt}", prompt), nil
	}
	return FallbackText(prompt), nil
}

// CreateImage returns the path of a matching image example, or the
// sampling placeholder.
func (u *DemoUpstream) CreateImage(_ context.Context, p ImageParams) (string, error) {
	if strings.TrimSpace(p.Prompt) == "" {
		return "", domain.NewValidationError(MsgPromptRequired)
	}
	if ex, ok := u.selector.Select(p.Prompt, domain.ExampleImage); ok {
		return ex.ImagePath, nil
	}
	return SamplingPlaceholderURL, nil
}

func lastUserMessage(msgs []ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content
		}
	}
	return ""
}
