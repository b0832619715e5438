// Package inference sends one user utterance to an OpenAI-compatible chat
// completion endpoint and returns the assistant reply.
package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Ayoola1o/lara/internal/config"
	"github.com/Ayoola1o/lara/internal/turn"
)

const defaultSystemPrompt = "You are a helpful voice assistant. Reply in one to three short spoken sentences without markdown."

// Config holds one resolved provider setup.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
}

// FromConfig resolves provider defaults and reads the API key from the environment.
func FromConfig(cfg config.InferenceConfig) Config {
	out := Config{
		BaseURL:      cfg.ResolvedBaseURL(),
		Model:        cfg.ResolvedModel(),
		SystemPrompt: strings.TrimSpace(cfg.SystemPrompt),
		Temperature:  float32(cfg.Temperature),
		MaxTokens:    cfg.MaxTokens,
		Timeout:      time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}
	if env := cfg.ResolvedAPIKeyEnv(); env != "" {
		out.APIKey = strings.TrimSpace(os.Getenv(env))
	}
	return out
}

// Client is safe for concurrent use. Update swaps the provider for later calls.
type Client struct {
	logger *slog.Logger
	dump   io.Writer

	mu     sync.RWMutex
	cfg    Config
	client *openai.Client
	dumpMu sync.Mutex
}

// New builds a client for cfg. dump, when non-nil, receives one JSON line per exchange.
func New(cfg Config, logger *slog.Logger, dump io.Writer) *Client {
	c := &Client{logger: logger, dump: dump}
	c.Update(cfg)
	return c
}

// Update replaces the provider configuration. In-flight requests keep the old one.
func (c *Client) Update(cfg Config) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientConfig.BaseURL = strings.TrimRight(base, "/")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	c.client = openai.NewClientWithConfig(clientConfig)
}

func (c *Client) current() (Config, *openai.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg, c.client
}

// Send performs one chat completion. Failures wrap turn.ErrNetwork when the
// endpoint could not be reached and turn.ErrBackend otherwise.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	cfg, client := c.current()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return "", fmt.Errorf("%w: no inference endpoint configured", turn.ErrBackend)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	req := openai.ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		classified := classify(err)
		c.log(slog.LevelWarn, "inference request failed", "model", cfg.Model, "elapsed_ms", elapsed.Milliseconds(), "error", err.Error())
		return "", classified
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices", turn.ErrBackend)
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.writeDump(exchange{Model: cfg.Model, Prompt: text, Reply: reply, ElapsedMS: elapsed.Milliseconds(), FinishReason: string(resp.Choices[0].FinishReason)})
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", turn.ErrBackend)
	}

	c.log(slog.LevelInfo, "inference reply received",
		"model", cfg.Model,
		"elapsed_ms", elapsed.Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return reply, nil
}

// classify maps client errors onto the turn taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = apiErr.HTTPStatus
		}
		if apiErr.HTTPStatusCode > 0 {
			return fmt.Errorf("%w: %s (status %d)", turn.ErrBackend, msg, apiErr.HTTPStatusCode)
		}
		return fmt.Errorf("%w: %s", turn.ErrBackend, msg)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: status %d", turn.ErrBackend, reqErr.HTTPStatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", turn.ErrNetwork, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", turn.ErrNetwork, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", turn.ErrNetwork, err)
	}
	return fmt.Errorf("%w: %w", turn.ErrBackend, err)
}

func (c *Client) log(level slog.Level, msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Log(context.Background(), level, msg, args...)
}
