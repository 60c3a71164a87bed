package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdgilhuly/just_prompt/pkg/config"
	"github.com/jdgilhuly/just_prompt/pkg/dispatch"
	"github.com/jdgilhuly/just_prompt/pkg/provider"
	"github.com/jdgilhuly/just_prompt/pkg/registry"
)

// parseLevel maps a config level name to a slog.Level, defaulting to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger creates a text or JSON logger writing to w and installs it as
// the slog default.
func setupLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// buildAdapters constructs one adapter per built-in provider. A missing API
// key does not fail construction; the adapter reports the provider as
// unavailable when called.
func buildAdapters(cfg *config.Config, logger *slog.Logger) map[registry.ID]provider.Provider {
	opts := func(name string) []provider.Option {
		o := []provider.Option{
			provider.WithTimeout(cfg.Timeout),
			provider.WithMaxRetries(cfg.Retry.MaxRetries),
			provider.WithLogger(logger),
		}
		if u := cfg.Providers[name].BaseURL; u != "" {
			o = append(o, provider.WithBaseURL(u))
		}
		return o
	}
	key := func(name string) string {
		k, err := cfg.ResolveAPIKey(name)
		if err != nil {
			logger.Debug("api key not configured", "provider", name, "error", err)
		}
		return k
	}

	return map[registry.ID]provider.Provider{
		registry.OpenAI:    provider.NewOpenAIProvider(key("openai"), opts("openai")...),
		registry.Anthropic: provider.NewAnthropicProvider(key("anthropic"), opts("anthropic")...),
		registry.Gemini:    provider.NewGeminiProvider(key("gemini"), opts("gemini")...),
		registry.Groq:      provider.NewGroqProvider(key("groq"), opts("groq")...),
		registry.DeepSeek:  provider.NewDeepSeekProvider(key("deepseek"), opts("deepseek")...),
		registry.Ollama:    provider.NewOllamaProvider(opts("ollama")...),
	}
}

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	d      *dispatch.Dispatcher
}

// loadApp reads the config named by --config, sets up logging, and builds
// the dispatcher.
func loadApp(cmd *cobra.Command, extra ...dispatch.Option) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		level = l
	}
	logger := setupLogger(cmd.ErrOrStderr(), level, cfg.Log.Format)

	opts := []dispatch.Option{
		dispatch.WithLogger(logger),
		dispatch.WithConcurrency(cfg.Concurrency),
		dispatch.WithDefaultModels(cfg.DefaultModels...),
		dispatch.WithTimeout(cfg.Timeout),
	}
	d, err := dispatch.New(registry.Default(), buildAdapters(cfg, logger), append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, d: d}, nil
}
