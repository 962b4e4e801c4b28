package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gptxt/internal/editor"
	"gptxt/internal/keypress"
	"gptxt/internal/perception"
	"gptxt/internal/sandbox"
	"gptxt/internal/session"
	"gptxt/internal/synth"
	"gptxt/internal/ui"
	"gptxt/internal/usage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// validateFlags rejects flag combinations that make no sense together.
func validateFlags() error {
	if jsonOneLine && !jsonify {
		return errors.New("--json-one-line requires --json to be set")
	}
	if showLines < 0 {
		return fmt.Errorf("--show-lines must not be negative, got %d", showLines)
	}
	return nil
}

// buildParams assembles the fixed session parameters from the flags.
func buildParams(cmd *cobra.Command, task, input string) session.Params {
	params := session.NewParams(task, input)
	params.Temperature = temperature
	params.MaxTokens = maxTokens
	params.Jsonify = jsonify
	params.JSONOneLine = jsonOneLine
	params.ShowPrompt = showPrompt
	if cmd.Flags().Changed("show-lines") {
		n := showLines
		params.ShowLines = &n
	}
	return params
}

// runTask runs one interactive session for the task given as arguments.
func runTask(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	input, err := readInput(inputFile, os.Stdin)
	if err != nil {
		return err
	}

	dialect, err := sandbox.ParseDialect(cfg.Script.Language)
	if err != nil {
		return err
	}
	executor, err := sandbox.New(dialect)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := usage.NewTracker()
	ctx = usage.NewContext(ctx, tracker)
	defer logUsage(tracker)

	client, err := perception.NewGeminiClient(ctx, perception.GeminiConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.GetTimeout(),
	})
	if err != nil {
		return err
	}

	keyboard, closeKeyboard := openKeyboard()
	defer closeKeyboard()

	var printerOpts []ui.PrinterOption
	if cfg.UI.Highlight && isTerminal(os.Stderr) {
		printerOpts = append(printerOpts, ui.WithHighlight(string(dialect)))
	}
	printer := ui.NewPrinter(os.Stderr, printerOpts...)

	params := buildParams(cmd, strings.Join(args, " "), input)
	controller := session.NewController(params, session.Deps{
		Synthesizer: synth.New(client, cfg.LLM.Model, dialect),
		Executor:    executor,
		Editor:      newEditor(dialect, keyboard),
		Keys:        keypress.NewReader(keyboard, os.Stderr),
		Display:     printer,
		Busy:        ui.NewSpinner(os.Stderr, isTerminal(os.Stderr)),
		Out:         os.Stdout,
	})

	logger.Info("session started",
		zap.String("session", params.ID.String()),
		zap.String("dialect", string(dialect)),
		zap.Int("input_bytes", len(input)))

	return raceSignals(ctx, controller, printer)
}

// newEditor wires the editor to the keyboard terminal. A redirected stdout
// must not receive the alternate screen switch or the editor's drawing.
func newEditor(dialect sandbox.Dialect, keyboard *os.File) *editor.Editor {
	var stdout io.Writer = os.Stdout
	var primaryScreen io.Writer = os.Stdout
	if !isTerminal(os.Stdout) {
		stdout = keyboard
		primaryScreen = io.Discard
	}
	var diagScreen io.Writer = os.Stderr
	if !isTerminal(os.Stderr) {
		diagScreen = io.Discard
	}
	return editor.New(editor.Resolve(cfg.Script.Editor),
		editor.WithExtension(dialect.Extension()),
		editor.WithStreams(keyboard, stdout, os.Stderr),
		editor.WithScreens(primaryScreen, diagScreen),
	)
}

func logUsage(tracker *usage.Tracker) {
	stats := tracker.Stats()
	logger.Info("token usage",
		zap.Int("calls", stats.Calls),
		zap.Int64("input_tokens", stats.Total.Input),
		zap.Int64("output_tokens", stats.Total.Output),
		zap.Int64("regenerate_tokens", stats.ByOperation["regenerate"].Total))
}

type sessionResult struct {
	outcome session.Outcome
	err     error
}

// sessionRunner is the part of session.Controller raceSignals needs.
type sessionRunner interface {
	Run(ctx context.Context) (session.Outcome, error)
}

// raceSignals runs the session and an interrupt listener side by side; the
// first to finish decides how the process ends.
func raceSignals(ctx context.Context, runner sessionRunner, printer *ui.Printer) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return race(ctx, runner, printer, sigCh)
}

// signalLabel names a signal the way the user would have sent it.
func signalLabel(sig os.Signal) string {
	if sig == os.Interrupt {
		return "Ctrl+C"
	}
	if s, ok := sig.(syscall.Signal); ok && s == syscall.SIGTERM {
		return "SIGTERM"
	}
	return sig.String()
}

func race(ctx context.Context, runner sessionRunner, printer *ui.Printer, sigCh <-chan os.Signal) error {
	start := time.Now()
	done := make(chan sessionResult, 1)
	go func() {
		outcome, err := runner.Run(ctx)
		done <- sessionResult{outcome: outcome, err: err}
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal", zap.Stringer("signal", sig), elapsed(start))
		printer.Blank()
		printer.Errorf("Caught %s; exiting.", signalLabel(sig))
		return nil
	case res := <-done:
		var interrupt *keypress.InterruptError
		if errors.As(res.err, &interrupt) {
			logger.Info("interrupted at prompt", zap.String("combo", interrupt.Combo), elapsed(start))
			printer.Errorf("Caught %s; exiting.", interrupt.Combo)
			return nil
		}
		if res.err != nil {
			logger.Error("session failed", zap.Error(res.err), elapsed(start))
			return res.err
		}
		logger.Info("session finished", zap.Stringer("outcome", res.outcome), elapsed(start))
		return nil
	}
}
