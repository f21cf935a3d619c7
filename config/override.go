package config

import "strings"

// Override adjusts the configuration after the file and environment were applied, e.g. from command line flags
type Override func(*Config)

// WithProvider selects the vision provider, empty keeps the current one.
// Switching to another provider drops the key, endpoint and models set for the
// previous one, they are resolved again for the new provider.
func WithProvider(provider string) Override {
	return func(c *Config) {
		provider = strings.ToLower(strings.TrimSpace(provider))
		if provider == "" || provider == strings.ToLower(strings.TrimSpace(c.Provider)) {
			return
		}
		c.Provider = provider
		c.APIKey = ""
		c.BaseURL = ""
		c.Model = ""
		c.QueryModel = ""
	}
}

// WithModel selects the estimation model, empty keeps the current one
func WithModel(model string) Override {
	return func(c *Config) {
		if model != "" {
			c.Model = model
		}
	}
}

// WithMode selects structured or lookup mode, empty keeps the current one
func WithMode(mode string) Override {
	return func(c *Config) {
		if mode != "" {
			c.Mode = mode
		}
	}
}
