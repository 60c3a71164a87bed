// Package config loads justprompt settings from defaults, an optional YAML
// file, and JUST_PROMPT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jdgilhuly/just_prompt/pkg/registry"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "justprompt.yaml"

// Config holds the top-level justprompt configuration.
type Config struct {
	Providers     map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
	DefaultModels []string                  `yaml:"default_models" mapstructure:"default_models"`
	Concurrency   int                       `yaml:"concurrency" mapstructure:"concurrency"`
	Timeout       time.Duration             `yaml:"timeout" mapstructure:"timeout"`
	OutputDir     string                    `yaml:"output_dir" mapstructure:"output_dir"`
	Retry         RetryConfig               `yaml:"retry" mapstructure:"retry"`
	Server        ServerConfig              `yaml:"server" mapstructure:"server"`
	Log           LogConfig                 `yaml:"log" mapstructure:"log"`
}

// ProviderConfig holds connection settings for one provider, keyed by the
// provider's full name.
type ProviderConfig struct {
	APIKeyEnv string `yaml:"api_key_env,omitempty" mapstructure:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// RetryConfig holds adapter retry settings.
type RetryConfig struct {
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// defaultAPIKeyEnv maps each keyed provider to its conventional variable.
var defaultAPIKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"groq":      "GROQ_API_KEY",
	"deepseek":  "DEEPSEEK_API_KEY",
}

const defaultOllamaURL = "http://localhost:11434"

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	providers := make(map[string]ProviderConfig, len(defaultAPIKeyEnv)+1)
	for name, env := range defaultAPIKeyEnv {
		providers[name] = ProviderConfig{APIKeyEnv: env}
	}
	providers["ollama"] = ProviderConfig{BaseURL: defaultOllamaURL}

	return &Config{
		Providers:     providers,
		DefaultModels: []string{"o:gpt-4o-mini"},
		Concurrency:   4,
		Timeout:       60 * time.Second,
		OutputDir:     "responses/",
		Retry:         RetryConfig{MaxRetries: 3},
		Server:        ServerConfig{Addr: ":8080"},
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// LoadOrDefault loads config from the given path. If the file does not
// exist, defaults and environment overrides are used. Other errors (e.g.
// parse failures) are still returned.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	return Load(path)
}

// ResolveAPIKey reads the API key for the named provider from the environment
// variable specified in that provider's APIKeyEnv field.
func (c *Config) ResolveAPIKey(providerName string) (string, error) {
	p, ok := c.Providers[providerName]
	if !ok {
		return "", fmt.Errorf("provider %q not found in config", providerName)
	}
	if p.APIKeyEnv == "" {
		return "", fmt.Errorf("provider %q has no api_key_env configured", providerName)
	}
	key := os.Getenv(p.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s for provider %q is not set", p.APIKeyEnv, providerName)
	}
	return key, nil
}

// Validate checks the config for invalid values and returns every problem
// found, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be > 0, got %s", c.Timeout))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max_retries must be >= 0, got %d", c.Retry.MaxRetries))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	reg := registry.Default()
	for name := range c.Providers {
		if _, err := reg.Resolve(name); err != nil {
			errs = append(errs, fmt.Errorf("providers: %w", err))
		}
	}
	for _, ref := range c.DefaultModels {
		prov, model, ok := strings.Cut(ref, ":")
		if !ok || prov == "" || model == "" {
			errs = append(errs, fmt.Errorf("default_models: %q is not provider:model", ref))
			continue
		}
		if _, err := reg.Resolve(prov); err != nil {
			errs = append(errs, fmt.Errorf("default_models: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Save writes the config as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return &Error{Op: "marshal", Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &Error{Op: "write", Err: err}
	}
	return nil
}
