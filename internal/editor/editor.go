// Package editor hands a script to the user's text editor and reads the
// edited text back.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"gptxt/internal/logging"

	"github.com/muesli/termenv"
	"go.uber.org/zap"
)

// DefaultCommand is used when neither the configuration nor the environment
// names an editor.
const DefaultCommand = "vi"

// EditError reports that the editor exited with a non-zero status.
type EditError struct {
	Status int
}

func (e *EditError) Error() string {
	return fmt.Sprintf("editor exited with status %d", e.Status)
}

// Resolve picks the editor command: the configured one, then $VISUAL, then
// $EDITOR, then vi.
func Resolve(configured string) string {
	for _, candidate := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return DefaultCommand
}

// Editor edits text through a temporary file and an external editor process.
type Editor struct {
	command   []string
	extension string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// screens receive the alternate screen switch.
	screens []io.Writer
}

// Option configures an Editor.
type Option func(*Editor)

// WithExtension sets the temp file extension so the editor can pick a syntax.
func WithExtension(ext string) Option {
	return func(e *Editor) { e.extension = ext }
}

// WithStreams sets the editor process streams. stdin should be the keyboard
// terminal. stdout and stderr also receive the alternate screen switch unless
// WithScreens is given.
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Editor) {
		e.stdin = stdin
		e.stdout = stdout
		e.stderr = stderr
		e.screens = []io.Writer{stdout, stderr}
	}
}

// WithScreens sets the streams that switch to the alternate screen while
// the editor runs.
func WithScreens(screens ...io.Writer) Option {
	return func(e *Editor) { e.screens = screens }
}

// New creates an Editor for command. A command with arguments ("code
// --wait") is split on whitespace; the file path is appended last.
func New(command string, opts ...Option) *Editor {
	e := &Editor{
		command: strings.Fields(command),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		screens: []io.Writer{os.Stdout, os.Stderr},
	}
	if len(e.command) == 0 {
		e.command = []string{DefaultCommand}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Edit writes text to a temporary file, runs the editor on it inside the
// alternate screen and returns the trimmed file contents. The screen is
// restored before any editor error is returned. On failure no partial edit
// is returned.
func (e *Editor) Edit(ctx context.Context, text string) (string, error) {
	log := logging.Get(logging.CategoryEditor)

	f, err := os.CreateTemp("", "gptxt-*"+e.extension)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	args := append(append([]string{}, e.command[1:]...), path)
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	cmd.Stdin = e.stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	log.Debug("launching editor", zap.Strings("command", e.command), zap.String("path", path))

	screens := make([]*termenv.Output, 0, len(e.screens))
	for _, w := range e.screens {
		screens = append(screens, termenv.NewOutput(w))
	}
	for _, s := range screens {
		s.AltScreen()
	}
	runErr := cmd.Run()
	for _, s := range screens {
		s.ExitAltScreen()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			log.Debug("editor failed", zap.Int("status", exitErr.ExitCode()))
			return "", &EditError{Status: exitErr.ExitCode()}
		}
		return "", fmt.Errorf("failed to run editor %q: %w", e.command[0], runErr)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}
	return strings.TrimSpace(string(edited)), nil
}
