package providers

import (
	"context"
	"testing"

	"github.com/bububa/calorielens/components"
)

func TestNewRequiresKey(t *testing.T) {
	for _, provider := range []components.Provider{components.ProviderGemini, components.ProviderOpenAI, components.ProviderAnthropic} {
		model, err := New(context.Background(), Config{Provider: provider})
		if model != nil {
			t.Errorf("%s: expect no client without a key, but got %T", provider, model)
		}
		if kind := components.KindOf(err); kind != components.ConfigurationErrorKind {
			t.Errorf("%s: expect configuration error, but got %v", provider, err)
		}
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "llama", APIKey: "k"})
	if kind := components.KindOf(err); kind != components.ConfigurationErrorKind {
		t.Fatalf("expect configuration error, but got %v", err)
	}
}

func TestNewInline(t *testing.T) {
	for _, provider := range []components.Provider{components.ProviderOpenAI, components.ProviderAnthropic} {
		model, err := New(context.Background(), Config{Provider: provider, APIKey: "k"})
		if err != nil {
			t.Fatalf("%s: %v", provider, err)
		}
		if model.Name() != provider {
			t.Errorf("expect provider %s, but got %s", provider, model.Name())
		}
		if err := Close(model); err != nil {
			t.Errorf("%s: expect nil close error, but got %v", provider, err)
		}
	}
}

func TestNewGeminiEndpoint(t *testing.T) {
	model, err := New(context.Background(), Config{Provider: components.ProviderGemini, APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("expect client with a custom endpoint, but got %v", err)
	}
	defer Close(model)
	if model.Name() != components.ProviderGemini {
		t.Errorf("expect provider gemini, but got %s", model.Name())
	}
}
