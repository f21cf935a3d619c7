package providers

import (
	"context"

	"google.golang.org/api/option"

	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/components/providers/anthropic"
	"github.com/bububa/calorielens/components/providers/gemini"
	"github.com/bububa/calorielens/components/providers/openai"
)

// Config selects and authenticates a vision provider
type Config struct {
	Provider components.Provider
	APIKey   string
	// BaseURL optional endpoint override
	BaseURL string
}

// DefaultModels model used per provider when none is configured
var DefaultModels = map[components.Provider]string{
	components.ProviderGemini:    "gemini-2.5-pro",
	components.ProviderOpenAI:    "gpt-4o-mini",
	components.ProviderAnthropic: "claude-3-5-sonnet-latest",
}

// New returns the VisionModel for cfg.Provider.
// A missing key or an unknown provider is a ConfigurationError and no client is created.
func New(ctx context.Context, cfg Config) (components.VisionModel, error) {
	switch cfg.Provider {
	case components.ProviderGemini, "":
		if cfg.BaseURL != "" {
			return gemini.New(ctx, cfg.APIKey, gemini.WithClientOptions(option.WithEndpoint(cfg.BaseURL)))
		}
		return gemini.New(ctx, cfg.APIKey)
	case components.ProviderOpenAI:
		return openai.New(cfg.APIKey, cfg.BaseURL)
	case components.ProviderAnthropic:
		return anthropic.New(cfg.APIKey, cfg.BaseURL)
	}
	return nil, components.NewConfigurationError("provider", "unsupported provider %q", cfg.Provider)
}

// Close releases client resources held by model, if any
func Close(model components.VisionModel) error {
	if closer, ok := model.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
