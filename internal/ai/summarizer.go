// Package ai provides the summarization port used by the background AI
// queue, backed by an OpenAI-compatible chat-completions endpoint.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Summarizer produces a short plain-text summary of a titled body of text.
type Summarizer interface {
	Summarize(ctx context.Context, title, text string) (string, error)
}

var ErrDisabled = errors.New("ai summarization is not configured")

// Disabled is the no-op summarizer used when no API key is set.
type Disabled struct{}

func (Disabled) Summarize(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

// Client calls an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
}

func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

const systemPrompt = "You summarize US government contracting opportunities and solicitation documents " +
	"for capture teams. Respond with a concise plain-text summary covering scope, key dates and requirements."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) Summarize(ctx context.Context, title, text string) (string, error) {
	body := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Title: %s\n\n%s", title, text)},
		},
		Temperature: 0.2,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarization request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summarization request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode summarization response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("summarization provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("summarization response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
