package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

// ErrUnavailable is returned when no API key was configured
var ErrUnavailable = errors.New("llm: completion service is not available")

type Role string

const (
	RoleSystem    Role = openai.ChatMessageRoleSystem
	RoleUser      Role = openai.ChatMessageRoleUser
	RoleAssistant Role = openai.ChatMessageRoleAssistant
)

type Message struct {
	Role    Role
	Content string
}

// Options tune a single completion call. Zero values fall back to the
// client defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// Completer is the text-completion capability used by the agents
type Completer interface {
	Available() bool
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

type GroqConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

// GroqClient talks to Groq through its OpenAI-compatible endpoint
type GroqClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	logger      *zap.Logger
}

func NewGroqClient(cfg GroqConfig, logger *zap.Logger) *GroqClient {
	c := &GroqClient{
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		logger:      logger,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 1024
	}
	if c.temperature <= 0 {
		c.temperature = 0.7
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 3
	}
	if c.backoffBase <= 0 {
		c.backoffBase = time.Second
	}

	if cfg.APIKey == "" {
		logger.Warn("GROQ_API_KEY not set, AI features will be disabled")
		return c
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if clientCfg.BaseURL == "" {
		clientCfg.BaseURL = DefaultBaseURL
	}
	c.client = openai.NewClientWithConfig(clientCfg)
	return c
}

func (c *GroqClient) Available() bool {
	return c.client != nil
}

// Complete sends the conversation and returns the first choice's content.
// Each attempt is bounded by the timeout; failed attempts are retried with
// exponential backoff until the retry budget is spent.
func (c *GroqClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAI(messages),
		MaxTokens:   c.maxTokens,
		Temperature: float32(c.temperature),
		TopP:        1,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		req.Temperature = float32(opts.Temperature)
	}
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	retries := c.maxRetries
	if opts.MaxRetries > 0 {
		retries = opts.MaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		content, err := c.attempt(ctx, req, timeout)
		if err == nil {
			return content, nil
		}
		lastErr = err
		c.logger.Warn("Groq completion attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", retries))

		if attempt == retries {
			break
		}
		wait := c.backoffBase * time.Duration(1<<attempt)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	return "", fmt.Errorf("groq completion failed after %d attempts: %w", retries, lastErr)
}

func (c *GroqClient) attempt(ctx context.Context, req openai.ChatCompletionRequest, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAI(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}
