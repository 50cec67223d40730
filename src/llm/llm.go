package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	requestTimeout = 45 * time.Second
	maxTokens      = 2000
	temperature    = 0.1
)

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	Providers []string
	// HTTPClient overrides the default client; its transport is wrapped.
	HTTPClient *http.Client
}

// Client talks to an OpenRouter-compatible chat completions endpoint.
type Client struct {
	api   *openai.Client
	model string
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	if oc.BaseURL == "" {
		oc.BaseURL = DefaultBaseURL
	}

	base := http.DefaultTransport
	timeout := requestTimeout
	if cfg.HTTPClient != nil {
		if cfg.HTTPClient.Transport != nil {
			base = cfg.HTTPClient.Transport
		}
		if cfg.HTTPClient.Timeout > 0 {
			timeout = cfg.HTTPClient.Timeout
		}
	}
	oc.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: &routingTransport{base: base, providers: cfg.Providers},
	}

	return &Client{api: openai.NewClientWithConfig(oc), model: cfg.Model}, nil
}

func (c *Client) Name() string { return "openrouter:" + c.model }

// QueryVision sends a PNG with an instruction and returns the model's reply.
func (c *Client) QueryVision(ctx context.Context, imageData []byte, prompt string) (string, error) {
	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageData)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in API response")
	}
	return resp.Choices[0].Message.Content, nil
}

// routingTransport adds the OpenRouter attribution headers and, when
// providers are configured, pins routing to them without fallbacks.
type routingTransport struct {
	base      http.RoundTripper
	providers []string
}

type providerPreferences struct {
	Order          []string `json:"order,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

func (t *routingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", "https://github.com/screen-ui-agent/screen-ui-agent")
	req.Header.Set("X-Title", "Screen UI Agent")

	if len(t.providers) > 0 && req.Body != nil && strings.HasSuffix(req.URL.Path, "/chat/completions") {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = withProviders(body, t.providers)
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.ContentLength = int64(len(body))
	}
	return t.base.RoundTrip(req)
}

// withProviders merges the provider routing block into a JSON request body.
// Bodies that are not JSON objects are returned unchanged.
func withProviders(body []byte, providers []string) []byte {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return body
	}
	allowFallbacks := false
	prefs, err := json.Marshal(providerPreferences{Order: providers, AllowFallbacks: &allowFallbacks})
	if err != nil {
		return body
	}
	payload["provider"] = prefs
	out, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return out
}
