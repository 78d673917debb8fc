// Package llm extracts structured order drafts from email bodies using an
// OpenAI chat completion. Completions run at temperature zero so identical
// input produces as stable an answer as the model allows.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Completer is the completion endpoint contract the extractor depends on
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client wraps the OpenAI API as a Completer
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a new OpenAI-backed completion client
func NewClient(apiKey, model string, timeoutSeconds int) *Client {
	return &Client{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}
}

// Complete sends the prompt as a single user message and returns the raw
// completion text
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a helpful order parser."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
