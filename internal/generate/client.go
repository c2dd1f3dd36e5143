// Package generate talks to an OpenAI compatible chat completion endpoint.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinylittleshell/ghostwrite/internal/prompt"
	"github.com/atinylittleshell/ghostwrite/internal/settings"
	"github.com/atinylittleshell/ghostwrite/pkg/ghost"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrNoChoices is returned when the backend replies without any choice.
var ErrNoChoices = errors.New("model returned no choices")

// Client is a ghost.Generator backed by go-openai.
type Client struct {
	llmClient   *openai.Client
	logger      *zap.Logger
	modelId     string
	temperature *float64
	timeout     time.Duration
}

var _ ghost.Generator = (*Client)(nil)

// NewClient builds a client, filling provider defaults for ollama, openai and
// openrouter.
func NewClient(cfg settings.Generation, logger *zap.Logger) *Client {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = "ollama"
	}

	apiKey := cfg.APIKey
	baseURL := cfg.BaseURL
	switch provider {
	case "openai":
		if apiKey == "" {
			apiKey = "sk-"
		}
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
	case "openrouter":
		if apiKey == "" {
			apiKey = "sk-or-"
		}
		if baseURL == "" {
			baseURL = "https://openrouter.ai/api/v1"
		}
	default:
		if apiKey == "" {
			apiKey = "ollama"
		}
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
	}
	baseURL = strings.TrimRight(baseURL, "/")

	modelId := cfg.Model
	if modelId == "" {
		modelId = "qwen2.5"
	}

	headers := make(map[string]string, len(cfg.Headers)+2)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if provider == "openrouter" || strings.HasPrefix(strings.ToLower(baseURL), "https://openrouter.ai/") {
		headers["HTTP-Referer"] = "https://github.com/atinylittleshell/ghostwrite"
		headers["X-Title"] = "ghostwrite"
	}

	llmClientConfig := openai.DefaultConfig(apiKey)
	llmClientConfig.BaseURL = baseURL
	llmClientConfig.HTTPClient = newHTTPClient(headers)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = settings.Default().Generation.Timeout
	}

	return &Client{
		llmClient:   openai.NewClientWithConfig(llmClientConfig),
		logger:      logger,
		modelId:     modelId,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}
}

// Generate sends req as a single user message and returns the cleaned reply.
// Without a deadline on ctx the configured timeout applies.
func (c *Client) Generate(ctx context.Context, req ghost.Request) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	request := openai.ChatCompletionRequest{
		Model: c.modelId,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
	}
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = req.Temperature
	}
	if temperature != nil {
		request.Temperature = float32(*temperature)
	}

	c.logger.Debug("generating with LLM",
		zap.String("model", c.modelId),
		zap.Int("promptLength", len(req.Prompt)),
	)

	completion, err := c.llmClient.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrNoChoices
	}

	text := Clean(completion.Choices[0].Message.Content)
	c.logger.Debug("LLM generation response", zap.String("text", text))
	return text, nil
}

// Clean trims whitespace and cursor marks from a reply and drops block
// references with malformed ids.
func Clean(text string) string {
	text = strings.Trim(text, " \t\r\n█")
	return strings.TrimSpace(prompt.CleanReferences(text))
}
