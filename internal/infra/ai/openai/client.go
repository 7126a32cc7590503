package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/codelens/internal/domain/ai"
)

const (
	DefaultModel     = "llama3.3:70b"
	DefaultBaseURL   = "http://host.docker.internal:3000/api"
	DefaultMaxTokens = 2000
)

// Config is the gateway configuration. It is copied into the client and
// never changed afterwards.
type Config struct {
	Model   string
	BaseURL string
	// Endpoint, when set, is the full chat URL every request is sent to
	// instead of {BaseURL}/chat/completions.
	Endpoint  string
	APIKey    string
	MaxTokens int
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// Client talks to an OpenAI compatible chat-completion endpoint at
// {BaseURL}/chat/completions, or at Endpoint when one is configured.
type Client struct {
	*openai.Client
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	logger = logger.With("component", "gateway")
	if cfg.Endpoint != "" {
		if u, err := url.Parse(cfg.Endpoint); err == nil && u.Scheme != "" && u.Host != "" {
			oc.HTTPClient = &http.Client{Transport: fixedEndpoint{target: u, next: http.DefaultTransport}}
		} else {
			logger.Warn("ignoring invalid chat endpoint", "endpoint", cfg.Endpoint)
			cfg.Endpoint = ""
		}
	}
	return &Client{
		Client: openai.NewClientWithConfig(oc),
		cfg:    cfg,
		logger: logger,
	}
}

// fixedEndpoint sends every request to target, keeping method, headers and body.
type fixedEndpoint struct {
	target *url.URL
	next   http.RoundTripper
}

func (f fixedEndpoint) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	u := *f.target
	r.URL = &u
	r.Host = u.Host
	return f.next.RoundTrip(r)
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config { return c.cfg }

// Invoke sends one system and one user message and returns the first
// choice verbatim. Every failure is returned as ai.Failure.
func (c *Client) Invoke(ctx context.Context, systemInstruction, userPrompt string) ai.Result {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.cfg.Model) {
		req.MaxCompletionTokens = c.cfg.MaxTokens
	} else {
		req.MaxTokens = c.cfg.MaxTokens
	}

	start := time.Now()
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		gerr := &ai.GatewayError{StatusCode: statusCode(err), Err: err}
		c.logger.Warn("chat completion failed", "model", c.cfg.Model, "status", gerr.StatusCode, "error", err)
		return ai.Failure(gerr)
	}
	if len(resp.Choices) == 0 {
		return ai.Failure(&ai.GatewayError{Err: ai.ErrNoChoices})
	}

	c.logger.Debug("chat completion done",
		"model", c.cfg.Model,
		"duration", time.Since(start),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return ai.Success(resp.Choices[0].Message.Content)
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
