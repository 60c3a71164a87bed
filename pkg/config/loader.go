package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// JUST_PROMPT_CONCURRENCY or JUST_PROMPT_PROVIDERS_OPENAI_API_KEY_ENV.
const EnvPrefix = "JUST_PROMPT"

// Load reads configuration with precedence defaults < YAML file at path <
// environment. An empty path skips the file. The result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("providers.ollama.base_url", EnvPrefix+"_PROVIDERS_OLLAMA_BASE_URL", "OLLAMA_HOST"); err != nil {
		return nil, &Error{Op: "bind", Err: err}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{
				Op:  "read",
				Err: fmt.Errorf("reading config file %s: %w", path, err),
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{
			Op:  "unmarshal",
			Err: fmt.Errorf("parsing config: %w", err),
		}
	}

	if p, ok := cfg.Providers["ollama"]; ok {
		p.BaseURL = normalizeURL(p.BaseURL)
		cfg.Providers["ollama"] = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, &Error{Op: "validate", Err: err}
	}
	return &cfg, nil
}

// setDefaults registers every key from Default so environment overrides
// apply to all of them.
func setDefaults(v *viper.Viper) {
	d := Default()
	for name, p := range d.Providers {
		v.SetDefault("providers."+name+".api_key_env", p.APIKeyEnv)
		v.SetDefault("providers."+name+".base_url", p.BaseURL)
	}
	v.SetDefault("default_models", d.DefaultModels)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("retry.max_retries", d.Retry.MaxRetries)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// normalizeURL accepts OLLAMA_HOST style values such as "localhost:11434".
func normalizeURL(u string) string {
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	return "http://" + u
}
