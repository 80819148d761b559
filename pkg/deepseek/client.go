// Package deepseek talks to OpenAI-compatible chat-completions endpoints.
package deepseek

import (
	"context"
	"net/http"

	"smelty/pkg/llm"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL = "https://api.deepseek.com/v1"
	DefaultModel   = "deepseek-chat"
)

// Config holds generation settings for the chat endpoint.
type Config struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
	HTTPClient  *http.Client
}

// Client is the primary provider.
type Client struct {
	client openai.Client
	cfg    Config
}

// NewClient returns nil when apiKey is empty so the dispatcher skips it.
func NewClient(apiKey string, cfg Config) *Client {
	if apiKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(apiKey),
		// The dispatcher owns fallback; the SDK must not retry behind its back.
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

func (c *Client) Name() string {
	return "deepseek"
}

// Complete sends one system and one user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = openai.Float(c.cfg.Temperature)
	}
	if c.cfg.TopP > 0 {
		params.TopP = openai.Float(c.cfg.TopP)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &llm.APIError{StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return "", errors.Wrap(err, "chat completion request")
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	content := llm.CleanOutput(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("empty completion content")
	}
	return content, nil
}
