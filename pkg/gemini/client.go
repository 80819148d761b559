// Package gemini exposes Google's Gemini models as a text-generation provider.
package gemini

import (
	"context"
	"strings"

	"smelty/pkg/llm"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-flash-lite-latest"

// Config holds generation settings.
type Config struct {
	Model       string
	BaseURL     string // optional, mostly for tests
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Client wraps a genai client for single-turn generation.
type Client struct {
	client *genai.Client
	cfg    Config
}

// NewClient returns (nil, nil) when apiKey is empty so the dispatcher skips it.
func NewClient(ctx context.Context, apiKey string, cfg Config) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GenAI client")
	}
	return &Client{client: client, cfg: cfg}, nil
}

func (c *Client) Name() string {
	return "gemini"
}

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	if c.cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(c.cfg.MaxTokens)
	}
	if c.cfg.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(float32(c.cfg.Temperature))
	}
	if c.cfg.TopP > 0 {
		genCfg.TopP = genai.Ptr(float32(c.cfg.TopP))
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(user), genCfg)
	if err != nil {
		return "", errors.Wrap(err, "generate content")
	}

	text := llm.CleanOutput(strings.TrimSpace(resp.Text()))
	if text == "" {
		return "", errors.New("empty response from gemini")
	}
	return text, nil
}
