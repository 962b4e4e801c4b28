package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gptxt/internal/config"
	"gptxt/internal/logging"
	"gptxt/internal/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Task flags
	temperature float32
	maxTokens   int
	jsonify     bool
	jsonOneLine bool
	inputFile   string
	showLines   int
	showPrompt  bool
	language    string
	model       string
	editorCmd   string

	// Resolved in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// exitCode ends the process with a status after the message, if any, has
// already been printed.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gptxt <task>",
	Short: "Generate and run text-processing scripts from a task description",
	Long: `gptxt asks a language model for a small script that performs a text
processing task, shows it to you, and runs it against your input.

Input is read from --input or from piped stdin. The script sees the input in
the variable 'data' and leaves its answer in 'result', which is the only thing
written to stdout.

At the prompt press y to run, r to regenerate, e to edit, q to quit.

Example:
  cat access.log | gptxt "count requests per status code" --json`,
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}

		// First run: write the default file and stop unless the
		// environment already provides a key.
		created := false
		if !cmd.HasParent() {
			if err := config.Ensure(path); err != nil {
				if !errors.Is(err, config.ErrCreated) {
					return err
				}
				created = true
				printer := ui.NewPrinter(os.Stderr)
				printer.Success(fmt.Sprintf("Created a new configuration file at: %s", path))
				printer.Success("Set the 'llm.api_key' value in the file before using the program.")
			}
		}

		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)

		if created && cfg.LLM.APIKey == "" {
			return exitCode(1)
		}

		if err := logging.Initialize(logging.Options{
			DebugMode:  cfg.Logging.DebugMode || verbose,
			Level:      logLevel(cfg),
			File:       cfg.LogFile(path),
			JSONFormat: cfg.Logging.JSONFormat,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logging.Get(logging.CategoryBoot)
		logger.Debug("configuration loaded",
			zap.String("path", path),
			zap.String("model", cfg.LLM.Model),
			zap.String("language", cfg.Script.Language))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: runTask,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to the log file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/gptxt/config.yaml)")

	flags := rootCmd.Flags()
	flags.Float32VarP(&temperature, "temp", "t", 0.25, "Sampling temperature")
	flags.IntVarP(&maxTokens, "max-tokens", "m", 512, "Maximum tokens in the generated program")
	flags.BoolVarP(&jsonify, "json", "j", false, "Format the result as JSON (indented across lines with --lang go)")
	flags.BoolVar(&jsonOneLine, "json-one-line", false, "Format JSON on a single line (requires --json)")
	flags.StringVarP(&inputFile, "input", "i", "", "Read input from a file instead of stdin")
	flags.IntVarP(&showLines, "show-lines", "s", 0, "Show the first N input lines to the model")
	flags.BoolVarP(&showPrompt, "show-prompt", "p", false, "Print the prompt sent to the model")
	flags.StringVarP(&language, "lang", "l", "", "Script language: lua or go (default from config)")
	flags.StringVar(&model, "model", "", "Model name (default from config)")
	flags.StringVar(&editorCmd, "editor", "", "Editor command (default: config, $VISUAL, $EDITOR, vi)")

	rootCmd.AddCommand(configCmd)
}

func main() {
	err := rootCmd.Execute()
	logging.CloseAll()

	var code exitCode
	switch {
	case err == nil:
	case errors.As(err, &code):
		os.Exit(int(code))
	default:
		ui.NewPrinter(os.Stderr).Errorf("Error: %v", err)
		os.Exit(1)
	}
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("lang") {
		c.Script.Language = language
	}
	if flags.Changed("model") {
		c.LLM.Model = model
	}
	if flags.Changed("editor") {
		c.Script.Editor = editorCmd
	}
}

func logLevel(c *config.Config) string {
	if verbose {
		return "debug"
	}
	return c.Logging.Level
}

func elapsed(start time.Time) zap.Field {
	return zap.Duration("elapsed", time.Since(start))
}
