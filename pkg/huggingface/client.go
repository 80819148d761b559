// Package huggingface calls the Inference API text-generation endpoint.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"smelty/pkg/llm"

	"github.com/pkg/errors"
)

const (
	DefaultURL = "https://api-inference.huggingface.co/models/deepseek-ai/deepseek-r1"

	assistantMarker = "<|assistant|>"
)

// Config holds sampling settings for text generation.
type Config struct {
	URL         string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Client is the fallback provider.
type Client struct {
	token  string
	client *http.Client
	cfg    Config
}

type Parameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
	DoSample     bool    `json:"do_sample"`
}

type Request struct {
	Inputs     string     `json:"inputs"`
	Parameters Parameters `json:"parameters"`
}

type Response []struct {
	GeneratedText string `json:"generated_text"`
}

// NewClient returns nil when token is empty so the dispatcher skips it.
func NewClient(token string, cfg Config) *Client {
	if token == "" {
		return nil
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	return &Client{
		token: token,
		// Per-call deadlines come from the dispatcher context; this is a backstop.
		client: &http.Client{Timeout: 30 * time.Second},
		cfg:    cfg,
	}
}

func (c *Client) Name() string {
	return "huggingface"
}

// BuildPrompt renders the chat template the model expects.
func BuildPrompt(system, user string) string {
	return "<|system|>" + system + "</s><|user|>" + user + "</s>" + assistantMarker
}

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	reqBody := Request{
		Inputs: BuildPrompt(system, user),
		Parameters: Parameters{
			MaxNewTokens: c.cfg.MaxTokens,
			Temperature:  c.cfg.Temperature,
			TopP:         c.cfg.TopP,
			DoSample:     true,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", &llm.APIError{
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
		}
	}

	var apiResp Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", errors.Wrap(err, "failed to decode response")
	}
	if len(apiResp) == 0 {
		return "", errors.New("no generations in response")
	}

	text := apiResp[0].GeneratedText
	if idx := strings.LastIndex(text, assistantMarker); idx >= 0 {
		text = text[idx+len(assistantMarker):]
	}

	text = llm.CleanOutput(text)
	if text == "" {
		return "", errors.New("empty generated text")
	}
	return text, nil
}
