package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "llava"
)

// Client runs vision prompts against a local Ollama server.
type Client struct {
	api   *api.Client
	model string
}

// New accepts either a bare server URL or one pointing at an endpoint such as
// /api/chat; only scheme and host are kept.
func New(serverURL, model string, httpClient *http.Client) (*Client, error) {
	if serverURL == "" {
		serverURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: scheme and host are required", serverURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &Client{api: api.NewClient(base, httpClient), model: model}, nil
}

func (c *Client) Name() string { return "ollama:" + c.model }

func (c *Client) QueryVision(ctx context.Context, imageData []byte, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imageData)},
			},
		},
		Stream:  &stream,
		Options: map[string]any{"temperature": 0.1},
	}

	var content string
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	return content, nil
}
