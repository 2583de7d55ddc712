package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider  string `toml:"provider"`
	FastModel string `toml:"fast_model"`
	SlowModel string `toml:"slow_model"`
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
}

type ReasoningConfig struct {
	DefaultSamples     int     `toml:"default_samples"`
	DefaultSteps       int     `toml:"default_steps"`
	DefaultTemperature float64 `toml:"default_temperature"`
	MaxOutputTokens    int     `toml:"max_output_tokens"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

// ModelPricing holds USD rates per one million tokens.
type ModelPricing struct {
	PromptPerMillion     float64 `toml:"prompt_per_million"`
	CompletionPerMillion float64 `toml:"completion_per_million"`
}

type Config struct {
	LLM       LLMConfig               `toml:"llm"`
	Reasoning ReasoningConfig         `toml:"reasoning"`
	Server    ServerConfig            `toml:"server"`
	Pricing   map[string]ModelPricing `toml:"pricing"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "openai",
			FastModel: "gpt-4o-mini",
			SlowModel: "gpt-4o",
		},
		Reasoning: ReasoningConfig{
			DefaultSamples:     3,
			DefaultSteps:       1,
			DefaultTemperature: 0.7,
			MaxOutputTokens:    2048,
		},
		Server: ServerConfig{Port: "8080"},
		Pricing: map[string]ModelPricing{
			"gpt-4o-mini": {PromptPerMillion: 0.15, CompletionPerMillion: 0.60},
			"gpt-4o":      {PromptPerMillion: 2.50, CompletionPerMillion: 10.00},
		},
	}
}

// Load reads the TOML file at path over the built-in defaults. A missing
// file is not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays environment variables onto the loaded configuration.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("FAST_MODEL"); v != "" {
		c.LLM.FastModel = v
	}
	if v := os.Getenv("SLOW_MODEL"); v != "" {
		c.LLM.SlowModel = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
}

// ResolveModel maps the request's model tier to a concrete model identifier.
// Anything other than "slow" selects the fast model.
func (c *Config) ResolveModel(tier string) string {
	if strings.EqualFold(tier, "slow") {
		return c.LLM.SlowModel
	}
	return c.LLM.FastModel
}

// Validate checks that required settings are present for the selected
// provider. Ollama needs no key.
func (c *Config) Validate() error {
	provider := strings.ToLower(c.LLM.Provider)
	if provider != "ollama" && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY must be set for provider %q", provider)
	}
	return nil
}
