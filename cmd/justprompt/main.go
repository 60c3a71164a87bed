package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jdgilhuly/just_prompt/pkg/config"
	"github.com/jdgilhuly/just_prompt/pkg/prompt"
	"github.com/jdgilhuly/just_prompt/pkg/registry"
	"github.com/jdgilhuly/just_prompt/pkg/result"
	"github.com/jdgilhuly/just_prompt/pkg/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "justprompt",
	Short: "Send prompts to multiple LLM providers",
	Long: `A single front door to OpenAI, Anthropic, Gemini, Groq, DeepSeek and
Ollama. Providers are named by full name or short alias (o, a, g, q, d, l);
models are written provider:model, e.g. o:gpt-4o or l:gemma3:12b.

Use 'justprompt init' to write a config file, then 'justprompt providers'
to see what is available.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// --- providers command ---

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return renderProviders(cmd.OutOrStdout(), format, a.d.ListProviders())
	},
}

// --- models command ---

var modelsCmd = &cobra.Command{
	Use:   "models <provider>",
	Short: "List the models a provider offers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		models, err := a.d.ListModels(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return renderModels(cmd.OutOrStdout(), format, args[0], models)
	},
}

// --- prompt command ---

var promptCmd = &cobra.Command{
	Use:   "prompt <provider> <model> <text...>",
	Short: "Send a prompt to one model",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		out, err := a.d.SendPrompt(cmd.Context(), args[0], strings.Join(args[2:], " "), args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

// --- prompt-many command ---

var promptManyCmd = &cobra.Command{
	Use:   "prompt-many <text...>",
	Short: "Send a prompt to several models in parallel",
	Long: `Send the same prompt to every model given with --models (or the
configured default_models) and print the responses in that order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		models, _ := cmd.Flags().GetStringSlice("models")
		refs, err := modelRefs(a, models)
		if err != nil {
			return err
		}

		start := time.Now()
		text := strings.Join(args, " ")
		responses, err := a.d.Prompt(cmd.Context(), text, refs)
		if err != nil {
			return err
		}
		renderResponses(cmd.OutOrStdout(), refs, responses)

		if save, _ := cmd.Flags().GetBool("summary"); save {
			return saveSummary(cmd, a, "prompt", start, refs, responses)
		}
		return nil
	},
}

// --- prompt-file command ---

var promptFileCmd = &cobra.Command{
	Use:   "prompt-file <path>",
	Short: "Send a prompt file to several models",
	Long: `Read a prompt from a file and send it to every model given with
--models, the models listed in a YAML prompt file, or the configured
default_models.

With --save, each response is written to the output directory as
<file>_<provider>_<model>.md instead of being printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		models, _ := cmd.Flags().GetStringSlice("models")

		if save, _ := cmd.Flags().GetBool("save"); save {
			outDir, _ := cmd.Flags().GetString("out")
			if outDir == "" {
				outDir = a.cfg.OutputDir
			}
			paths, err := a.d.PromptFromFileToFile(cmd.Context(), args[0], models, outDir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "  wrote %s\n", p)
			}
			return nil
		}

		if len(models) == 0 {
			t, err := prompt.Load(args[0])
			if err != nil {
				return err
			}
			models = t.Models
		}
		refs, err := modelRefs(a, models)
		if err != nil {
			return err
		}
		responses, err := a.d.PromptFromFile(cmd.Context(), args[0], refs)
		if err != nil {
			return err
		}
		renderResponses(cmd.OutOrStdout(), refs, responses)
		return nil
	},
}

// modelRefs normalizes refs (or the defaults when empty) to provider:model.
func modelRefs(a *app, refs []string) ([]string, error) {
	parsed, err := a.d.ParseModelRefs(refs)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(parsed))
	for i, r := range parsed {
		out[i] = r.String()
	}
	return out, nil
}

func saveSummary(cmd *cobra.Command, a *app, name string, start time.Time, refs, responses []string) error {
	reg := registry.Default()
	items := make([]result.Response, len(refs))
	for i, ref := range refs {
		prov, model, _ := strings.Cut(ref, ":")
		if d, err := reg.Resolve(prov); err == nil {
			prov = d.FullName
		}
		items[i] = result.Response{Provider: prov, Model: model, Text: responses[i]}
	}

	s := result.NewSummary(name, start, items)
	path := result.DefaultPath(a.cfg.OutputDir, name, start)
	if err := s.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "summary saved to %s\n", path)
	return nil
}

// --- serve command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.cfg.Server.Addr
		}
		return server.New(a.d, server.WithLogger(a.logger)).Run(cmd.Context(), addr)
	},
}

// --- validate command ---

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		if _, err := config.LoadOrDefault(cfgPath); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config %q is valid.\n", cfgPath)
		return nil
	},
}

// --- init command ---

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a config file with every provider, its API key variable and
the default settings. An existing file is left untouched unless --force
is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(cfgPath); err == nil && !force {
		fmt.Fprintf(cmd.OutOrStdout(), "  skipped %s (already exists)\n", cfgPath)
		return nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if dir := filepath.Dir(cfgPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := config.Default().Save(cfgPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  created %s\n", cfgPath)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level: debug, info, warn, error")

	providersCmd.Flags().String("format", "table", "Output format: table, json, yaml")
	modelsCmd.Flags().String("format", "table", "Output format: table, json, yaml")

	promptManyCmd.Flags().StringSliceP("models", "m", nil, "Comma-separated provider:model list (default: config default_models)")
	promptManyCmd.Flags().Bool("summary", false, "Save a JSON summary of the run to the output directory")

	promptFileCmd.Flags().StringSliceP("models", "m", nil, "Comma-separated provider:model list")
	promptFileCmd.Flags().Bool("save", false, "Write each response to a file instead of printing it")
	promptFileCmd.Flags().StringP("out", "o", "", "Output directory for --save (default: config output_dir)")

	serveCmd.Flags().String("addr", "", "Listen address (default: config server.addr)")

	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(promptManyCmd)
	rootCmd.AddCommand(promptFileCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
}
