// Package openaicompat implements the chat_completion provider contract
// against any OpenAI-compatible /v1/chat/completions endpoint.
package openaicompat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"zotreader/internal/domain"
	"zotreader/internal/ports"
)

type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	http    *resty.Client
	// stream has no client timeout: streaming lifetime is governed by the
	// caller's context deadline.
	stream *resty.Client
}

func New(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		// Chat-translation calls are slower than REST translators.
		http:   resty.New().SetTimeout(30 * time.Second),
		stream: resty.New(),
	}
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.BaseURL, "/") + "/v1/chat/completions"
}

// Complete performs a non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, msgs []ports.ChatTurn, temperature float64) (string, error) {
	body := map[string]any{
		"model":       c.Model,
		"messages":    msgs,
		"temperature": temperature,
		"stream":      false,
	}
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	r, err := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.APIKey).
		SetBody(body).SetResult(&resp).
		Post(c.endpoint())
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if r.StatusCode() == http.StatusTooManyRequests {
		return "", domain.ErrRateLimited
	}
	if r.IsError() {
		return "", domain.NewUpstreamError("chat provider", r.StatusCode(), r.String())
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrEmptyResult
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", domain.ErrEmptyResult
	}
	return content, nil
}

// Stream opens a streaming chat completion and returns the raw SSE body.
// The response is not parsed here; the conversation engine relays the bytes
// and accumulates a parsed copy. The caller must close the reader.
func (c *Client) Stream(ctx context.Context, msgs []ports.ChatTurn, temperature float64) (io.ReadCloser, error) {
	body := map[string]any{
		"model":       c.Model,
		"messages":    msgs,
		"temperature": temperature,
		"stream":      true,
	}
	r, err := c.stream.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.APIKey).
		SetHeader("Accept", "text/event-stream").
		SetBody(body).
		SetDoNotParseResponse(true).
		Post(c.endpoint())
	if err != nil {
		return nil, fmt.Errorf("chat stream: %w", err)
	}
	raw := r.RawBody()
	if r.StatusCode() == http.StatusTooManyRequests {
		_ = raw.Close()
		return nil, domain.ErrRateLimited
	}
	if r.StatusCode() < 200 || r.StatusCode() >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(raw, 512))
		_ = raw.Close()
		return nil, domain.NewUpstreamError("chat provider", r.StatusCode(), string(excerpt))
	}
	return raw, nil
}
