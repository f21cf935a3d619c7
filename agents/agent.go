package agents

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/components/systemprompt"
	"github.com/bububa/calorielens/schema"
)

const (
	// DefaultTimeout upper bound of one upload and generate exchange
	DefaultTimeout = 90 * time.Second
	// releaseTimeout upper bound of the best-effort remote file deletion
	releaseTimeout = 10 * time.Second
)

// Config represents general agents configuration
type Config struct {
	// client vision model the agent talks to
	client components.VisionModel
	//	systemPromptGenerator Component for generating system prompts.
	systemPromptGenerator systemprompt.Generator
	// model llm model
	model string
	// temperature nil keeps the provider default
	temperature *float32
	// maxTokens Maximum number of tokens allowed in the response
	maxTokens int
	// timeout per request timeout, DefaultTimeout when zero
	timeout time.Duration
	logger  *slog.Logger
	// name is Agent name presentation
	name string
}

func newConfig(options []Option) Config {
	var c Config
	for _, opt := range options {
		opt(&c)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

func (c Config) Name() string {
	return c.name
}

func (c Config) Model() string {
	return c.model
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

// Provider returns the configured provider name, empty without a client
func (c Config) Provider() components.Provider {
	if c.client == nil {
		return ""
	}
	return c.client.Name()
}

// SystemPrompt returns the system prompt
func (c Config) SystemPrompt(extra ...systemprompt.ContextProvider) string {
	return c.systemPromptGenerator.Generate(extra...)
}

func (c Config) checkReady() error {
	if c.client == nil {
		return components.NewConfigurationError("provider", "vision model is not configured")
	}
	if c.model == "" {
		return components.NewConfigurationError("model", "is not set")
	}
	return nil
}

// exchange uploads file once and issues exactly one generation request under the configured timeout.
// The uploaded file is released best-effort whatever the outcome.
func (c Config) exchange(ctx context.Context, file components.ImageFile, prompt string, target schema.Schema, resp *components.LLMResponse) (string, error) {
	if err := c.checkReady(); err != nil {
		return "", err
	}
	provider := c.client.Name()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	uploaded, err := c.client.Upload(ctx, file)
	if err != nil {
		return "", components.AsProviderError(provider, err)
	}
	defer c.release(ctx, uploaded)
	req := &components.GenerateRequest{
		Model:       c.model,
		Prompt:      prompt,
		File:        uploaded,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if target != nil {
		req.Schema = schema.Reflect(target)
		req.SchemaName = target.SchemaName()
	}
	txt, err := c.client.Generate(ctx, req, resp)
	if err != nil {
		return "", components.AsProviderError(provider, err)
	}
	if strings.TrimSpace(txt) == "" {
		return "", &components.ProviderError{Provider: provider, Err: components.ErrEmptyResponse}
	}
	return txt, nil
}

func (c Config) release(ctx context.Context, file *components.UploadedFile) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := c.client.Delete(ctx, file); err != nil {
		c.logger.WarnContext(ctx, "release uploaded file", slog.String("agent", c.name), slog.String("file", file.Name), slog.Any("error", err))
	}
}
