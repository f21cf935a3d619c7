// Package config loads calorielens settings from an optional YAML file and the environment
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bububa/calorielens/agents"
	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/components/ingest"
	"github.com/bububa/calorielens/components/providers"
	"github.com/bububa/calorielens/tools/calorieninjas"
)

// EnvPrefix prefix of the environment overrides, e.g. CALORIELENS_MODEL
const EnvPrefix = "CALORIELENS_"

// Duration a time.Duration written as "90s" in YAML and the environment
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// CalorieNinjas nutrition database settings used by lookup mode
type CalorieNinjas struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type Config struct {
	// Provider vision provider: gemini, openai or anthropic
	Provider components.Provider `yaml:"provider"`
	// Model used for structured estimation, provider default when empty
	Model string `yaml:"model"`
	// QueryModel used to write the food query in lookup mode, Model when empty
	QueryModel  string   `yaml:"query_model"`
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Timeout     Duration `yaml:"timeout"`
	Temperature *float32 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
	// Mode structured or lookup
	Mode           agents.Mode   `yaml:"mode"`
	CalorieNinjas  CalorieNinjas `yaml:"calorie_ninjas"`
	TempDir        string        `yaml:"temp_dir"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	LogLevel       string        `yaml:"log_level"`
	// Listen address of the web UI
	Listen string `yaml:"listen"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Provider:       components.ProviderGemini,
		Timeout:        Duration(agents.DefaultTimeout),
		Mode:           agents.ModeStructured,
		CalorieNinjas:  CalorieNinjas{BaseURL: calorieninjas.DefaultBaseURL},
		MaxUploadBytes: ingest.DefaultMaxBytes,
		LogLevel:       "info",
		Listen:         ":8080",
	}
}

// LoadEnvFile preloads variables from a dotenv file, a missing file is not an error.
// Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return components.NewConfigurationError("env_file", "%s: %v", path, err)
	}
	return nil
}

// Load reads path when given, then applies environment overrides, then overrides,
// and finally resolves provider keys and default models.
// The result is not validated, call Validate before use.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := Default()
	if path != "" {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, components.NewConfigurationError("config", "%v", err)
		}
		if err := cfg.parse(bs); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	cfg.fillDefaults(os.LookupEnv)
	return cfg, nil
}

func (c *Config) parse(bs []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return components.NewConfigurationError("config", "%v", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PROVIDER":                &c.Provider,
		"MODEL":                   &c.Model,
		"QUERY_MODEL":             &c.QueryModel,
		"API_KEY":                 &c.APIKey,
		"BASE_URL":                &c.BaseURL,
		"MODE":                    &c.Mode,
		"TEMP_DIR":                &c.TempDir,
		"LOG_LEVEL":               &c.LogLevel,
		"LISTEN":                  &c.Listen,
		"CALORIE_NINJAS_BASE_URL": &c.CalorieNinjas.BaseURL,
	}
	for key, ptr := range strs {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*ptr = v
		}
	}
	if v, ok := lookup(EnvPrefix + "TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return components.NewConfigurationError(EnvPrefix+"TIMEOUT", "%v", err)
		}
		c.Timeout = Duration(d)
	}
	if v, ok := lookup(EnvPrefix + "TEMPERATURE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return components.NewConfigurationError(EnvPrefix+"TEMPERATURE", "%v", err)
		}
		t := float32(f)
		c.Temperature = &t
	}
	if v, ok := lookup(EnvPrefix + "MAX_TOKENS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return components.NewConfigurationError(EnvPrefix+"MAX_TOKENS", "%v", err)
		}
		c.MaxTokens = n
	}
	if v, ok := lookup(EnvPrefix + "MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return components.NewConfigurationError(EnvPrefix+"MAX_UPLOAD_BYTES", "%v", err)
		}
		c.MaxUploadBytes = n
	}
	return nil
}

// fillDefaults normalizes names, resolves provider keys from lookup and fills provider default models
func (c *Config) fillDefaults(lookup func(string) (string, bool)) {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.APIKey == "" {
		if v, ok := lookup(APIKeyEnv(c.Provider)); ok {
			c.APIKey = v
		}
	}
	if c.CalorieNinjas.APIKey == "" {
		if v, ok := lookup(CalorieNinjasKeyEnv); ok {
			c.CalorieNinjas.APIKey = v
		}
	}
	if c.Model == "" {
		c.Model = providers.DefaultModels[c.Provider]
	}
	if c.QueryModel == "" {
		c.QueryModel = c.Model
	}
	if c.CalorieNinjas.BaseURL == "" {
		c.CalorieNinjas.BaseURL = calorieninjas.DefaultBaseURL
	}
}

// CalorieNinjasKeyEnv environment variable holding the CalorieNinjas key
const CalorieNinjasKeyEnv = "CALORIE_NINJAS_API_KEY"

// APIKeyEnv returns the environment variable holding the key of provider
func APIKeyEnv(provider components.Provider) string {
	switch provider {
	case components.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case components.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// Validate checks c for the mode it runs in. Every failure is a ConfigurationError.
func (c *Config) Validate() error {
	if _, ok := providers.DefaultModels[c.Provider]; !ok {
		return components.NewConfigurationError("provider", "unsupported provider %q", c.Provider)
	}
	if c.APIKey == "" {
		return components.NewConfigurationError(APIKeyEnv(c.Provider), "is not set")
	}
	if c.Model == "" {
		return components.NewConfigurationError("model", "is not set")
	}
	switch c.Mode {
	case agents.ModeStructured:
	case agents.ModeLookup:
		if c.CalorieNinjas.APIKey == "" {
			return components.NewConfigurationError(CalorieNinjasKeyEnv, "is required in lookup mode")
		}
	default:
		return components.NewConfigurationError("mode", "unsupported mode %q", c.Mode)
	}
	if c.Timeout <= 0 {
		return components.NewConfigurationError("timeout", "must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return components.NewConfigurationError("max_upload_bytes", "must be positive")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return components.NewConfigurationError("temperature", "must be between 0 and 2")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, components.NewConfigurationError("log_level", "%v", err)
	}
	return lvl, nil
}

// Logger returns a text logger writing to w at the configured level
func (c *Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// String renders c as YAML with secrets masked
func (c Config) String() string {
	c.APIKey = mask(c.APIKey)
	c.CalorieNinjas.APIKey = mask(c.CalorieNinjas.APIKey)
	bs, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", err)
	}
	return string(bs)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "******"
}
