// Package config reads process configuration from the environment. It is a
// pure read; components receive the values they need as constructor
// arguments and never consult the environment themselves.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/lessonforge/coursegen/llmrouter"
)

// Config holds everything the generation service reads from the
// environment. Provider keys are optional; a missing key just makes that
// provider's models unresolvable.
type Config struct {
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`

	// DatabaseDSN selects the audit log database. A postgres DSN in
	// production; tests use in-memory sqlite directly.
	DatabaseDSN string `env:"COURSEGEN_DATABASE_DSN"`

	// RetentionWindow bounds how long raw prompts and model output are kept
	// before the sweeper redacts them.
	RetentionWindow time.Duration `env:"COURSEGEN_RETENTION_WINDOW" envDefault:"72h"`

	// Deadline bounds a single generation call including transport retries.
	Deadline time.Duration `env:"COURSEGEN_DEADLINE" envDefault:"120s"`
}

// Load parses the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Credentials maps the configured provider keys into the resolver's form,
// omitting providers without a key.
func (c *Config) Credentials() llmrouter.Credentials {
	creds := llmrouter.Credentials{}
	if c.OpenAIAPIKey != "" {
		creds["openai"] = c.OpenAIAPIKey
	}
	if c.AnthropicAPIKey != "" {
		creds["anthropic"] = c.AnthropicAPIKey
	}
	if c.GeminiAPIKey != "" {
		creds["gemini"] = c.GeminiAPIKey
	}
	return creds
}
