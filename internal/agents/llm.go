// Package agents provides the assistant collaborator and the advisor pipeline
// that grounds its answers.
package agents

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	apperrors "vnstock-advisor/internal/errors"
)

// Fixed completion parameters.
const (
	Model           = openai.GPT4oMini
	Temperature     = 0.3
	MaxAnswerTokens = 2000
	DefaultTimeout  = 60 * time.Second
)

// LLMClient defines the interface for LLM interactions.
type LLMClient interface {
	// CompleteWithSystem sends a prompt with a system message.
	CompleteWithSystem(ctx context.Context, system, prompt string) (string, error)
}

// ClientOptions configures an OpenAIClient.
type ClientOptions struct {
	BaseURL string // OpenAI-compatible endpoint, empty for api.openai.com
	Timeout time.Duration
}

// OpenAIClient implements LLMClient using OpenAI API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient creates a new OpenAI LLM client.
func NewOpenAIClient(apiKey string, opts ClientOptions) *OpenAIClient {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   Model,
		timeout: opts.Timeout,
	}
}

// CompleteWithSystem sends a prompt with system message to the LLM.
// Failures wrap one of the assistant sentinels when they can be classified.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: Temperature,
		MaxTokens:   MaxAnswerTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", apperrors.NewAgentError("openai", "complete", classify(err))
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewAgentError("openai", "complete", apperrors.ErrAssistantEmpty)
	}
	return resp.Choices[0].Message.Content, nil
}

// GetModel returns the model name.
func (c *OpenAIClient) GetModel() string {
	return c.model
}

// classify wraps err with the matching assistant sentinel.
func classify(err error) error {
	if sentinel := sentinelFor(err); sentinel != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}

func sentinelFor(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.ErrAssistantTimeout
	}

	status := 0
	code := ""
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		if s, ok := apiErr.Code.(string); ok {
			code = s
		}
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden || code == "invalid_api_key":
		return apperrors.ErrAssistantAuth
	case status == http.StatusTooManyRequests || code == "insufficient_quota":
		return apperrors.ErrAssistantQuota
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		return apperrors.ErrAssistantTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return apperrors.ErrAssistantTimeout
		}
		return apperrors.ErrAssistantNetwork
	}
	if strings.Contains(strings.ToLower(err.Error()), "connection refused") {
		return apperrors.ErrAssistantNetwork
	}
	return nil
}
