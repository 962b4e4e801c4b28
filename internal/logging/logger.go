// Package logging provides categorized zap loggers for gptxt.
// Logs are written to a file so the terminal's diagnostic stream stays
// readable. Logging is controlled by logging.debug_mode in the config file
// (or --verbose) - when off, every logger is a no-op.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config, input loading
	CategoryAPI     Category = "api"     // Completion API calls
	CategorySynth   Category = "synth"   // Prompt assembly and post-processing
	CategorySession Category = "session" // State machine transitions
	CategorySandbox Category = "sandbox" // Script compilation and execution
	CategoryEditor  Category = "editor"  // External editor runs
	CategoryKeys    Category = "keys"    // Raw keypress decoding
)

// Options mirrors the relevant parts of config.LoggingConfig
// to avoid circular imports
type Options struct {
	DebugMode  bool
	Level      string
	File       string
	JSONFormat bool
	Categories map[string]bool
}

var (
	root       = zap.NewNop()
	categories map[string]bool
	debugMode  bool
	mu         sync.RWMutex
)

// Initialize builds the root logger. Should be called once at startup.
func Initialize(opts Options) error {
	if !opts.DebugMode {
		reset()
		return nil
	}
	if opts.File == "" {
		return fmt.Errorf("log file path required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(opts.Level))
	cfg.Sampling = nil
	cfg.Encoding = "console"
	if opts.JSONFormat {
		cfg.Encoding = "json"
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{opts.File}
	cfg.ErrorOutputPaths = []string{opts.File}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	root = logger
	categories = opts.Categories
	debugMode = true
	mu.Unlock()

	root.Named(string(CategoryBoot)).Info("logging initialized",
		zap.String("file", opts.File),
		zap.String("level", cfg.Level.String()))
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// IsDebugMode returns whether logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()

	if !debugMode {
		return false
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true // Enable by default if not specified
	}
	return enabled
}

// Get returns the named logger for a category, or a no-op logger when the
// category is disabled.
func Get(category Category) *zap.Logger {
	if !IsCategoryEnabled(category) {
		return zap.NewNop()
	}
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(string(category))
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// CloseAll flushes and disables logging.
func CloseAll() {
	Sync()
	reset()
}

func reset() {
	mu.Lock()
	defer mu.Unlock()
	root = zap.NewNop()
	categories = nil
	debugMode = false
}
