package agents

import (
	"log/slog"
	"time"

	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/components/systemprompt"
)

type Option func(c *Config)

func WithClient(clt components.VisionModel) Option {
	return func(c *Config) {
		c.client = clt
	}
}

func WithSystemPromptGenerator(g systemprompt.Generator) Option {
	return func(c *Config) {
		c.systemPromptGenerator = g
	}
}

func WithModel(model string) Option {
	return func(c *Config) {
		c.model = model
	}
}

func WithTemperature(temperature float32) Option {
	return func(c *Config) {
		c.temperature = &temperature
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(c *Config) {
		c.maxTokens = maxTokens
	}
}

// WithTimeout bounds the upload and generate exchange of one request
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.timeout = timeout
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.logger = l
	}
}

func WithName(name string) Option {
	return func(c *Config) {
		c.name = name
	}
}
