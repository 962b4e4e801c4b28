// Package keypress reads single-key commands from the keyboard terminal.
package keypress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gptxt/internal/logging"

	"github.com/muesli/cancelreader"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Command is one entry of the single-key command alphabet.
type Command int

const (
	Run Command = iota + 1
	Quit
	Regenerate
	Edit
)

// Key returns the case-sensitive key bound to the command.
func (c Command) Key() byte {
	switch c {
	case Run:
		return 'y'
	case Quit:
		return 'q'
	case Regenerate:
		return 'r'
	case Edit:
		return 'e'
	default:
		return 0
	}
}

func (c Command) String() string {
	switch c {
	case Run:
		return "run"
	case Quit:
		return "quit"
	case Regenerate:
		return "regenerate"
	case Edit:
		return "edit"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

const (
	keyCtrlC         = 0x03
	keyCtrlBackslash = 0x1c
	keyEscape        = 0x1b
)

// ErrInterrupted matches any *InterruptError.
var ErrInterrupted = errors.New("interrupted")

// InterruptError reports that the user pressed an interrupt combination.
type InterruptError struct {
	Combo string
}

func (e *InterruptError) Error() string {
	return fmt.Sprintf("caught %s", e.Combo)
}

func (e *InterruptError) Is(target error) bool {
	return target == ErrInterrupted
}

// Reader decodes key presses from a keyboard input into commands.
type Reader struct {
	in  io.Reader
	out io.Writer
}

// NewReader creates a Reader that reads keys from in and writes prompts and
// echoes to out. When in is a terminal it is switched to raw mode while
// waiting for a key.
func NewReader(in io.Reader, out io.Writer) *Reader {
	return &Reader{in: in, out: out}
}

// ReadCommand prints prompt and blocks until a key bound to one of accepted
// is pressed. Other keys are ignored. The chosen key is echoed followed by a
// newline once the terminal is back in its normal mode.
func (r *Reader) ReadCommand(ctx context.Context, prompt string, accepted ...Command) (Command, error) {
	fmt.Fprint(r.out, prompt)

	cmd, err := r.readKey(ctx, accepted)
	if err != nil {
		fmt.Fprintln(r.out)
		return 0, err
	}
	fmt.Fprintf(r.out, "%c\n", cmd.Key())
	return cmd, nil
}

func (r *Reader) readKey(ctx context.Context, accepted []Command) (Command, error) {
	log := logging.Get(logging.CategoryKeys)

	if f, ok := r.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return 0, fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, state) }()
	}

	if f, ok := r.in.(*os.File); ok {
		cr, err := cancelreader.NewReader(f)
		if err != nil {
			// Not pollable, e.g. a redirected regular file.
			log.Debug("keyboard is not pollable; reading directly", zap.Error(err))
			return r.readDirect(ctx, f, accepted)
		}
		return r.readAsync(ctx, cr, cr.Cancel, func() { _ = cr.Close() }, accepted)
	}
	return r.readAsync(ctx, r.in, func() bool { return false }, func() {}, accepted)
}

// readAsync reads src from a goroutine so ctx can interrupt a blocked read.
// cancel stops a pending read and reports whether it did; the goroutine is
// then joined before readAsync returns. Readers that cannot be cancelled
// leave their goroutine to exit on the next byte or at EOF.
func (r *Reader) readAsync(ctx context.Context, src io.Reader, cancel func() bool, release func(), accepted []Command) (Command, error) {
	keys := make(chan byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		buf := make([]byte, 64)
		for {
			n, err := src.Read(buf)
			for _, b := range decodeKeys(buf[:n]) {
				select {
				case keys <- b:
				case <-done:
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	defer func() {
		close(done)
		if cancel() {
			<-finished
		}
		release()
	}()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case err := <-readErr:
			return 0, readFailure(err)
		case b := <-keys:
			if cmd, ok, err := match(b, accepted); ok || err != nil {
				return cmd, err
			}
		}
	}
}

// readDirect reads a file that cannot be polled one byte at a time on the
// calling goroutine. Such files never block, so no key past the chosen one is
// consumed and nothing outlives the call.
func (r *Reader) readDirect(ctx context.Context, f *os.File, accepted []Command) (Command, error) {
	buf := make([]byte, 1)
	next := func() (byte, error) {
		for {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			n, err := f.Read(buf)
			if n == 1 {
				return buf[0], nil
			}
			if err != nil {
				return 0, readFailure(err)
			}
		}
	}

	for {
		b, err := next()
		if err != nil {
			return 0, err
		}
		if b == keyEscape {
			if err := skipEscape(next); err != nil {
				return 0, err
			}
			continue
		}
		if cmd, ok, err := match(b, accepted); ok || err != nil {
			return cmd, err
		}
	}
}

// skipEscape consumes the rest of an escape sequence whose ESC was already read.
func skipEscape(next func() (byte, error)) error {
	b, err := next()
	if err != nil {
		return err
	}
	if b != '[' && b != 'O' {
		return nil
	}
	for {
		b, err := next()
		if err != nil {
			return err
		}
		if b >= 0x40 && b <= 0x7e {
			return nil
		}
	}
}

func readFailure(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("keyboard input closed before a command was chosen: %w", err)
	}
	return fmt.Errorf("failed to read key: %w", err)
}

// match maps a key to one of accepted. Interrupt combinations are reported
// as errors; other keys are ignored.
func match(b byte, accepted []Command) (Command, bool, error) {
	log := logging.Get(logging.CategoryKeys)
	switch b {
	case keyCtrlC:
		return 0, false, &InterruptError{Combo: "Ctrl+C"}
	case keyCtrlBackslash:
		return 0, false, &InterruptError{Combo: `Ctrl+\`}
	}
	for _, c := range accepted {
		if c.Key() == b {
			log.Debug("command accepted", zap.Stringer("command", c))
			return c, true, nil
		}
	}
	log.Debug("key ignored", zap.Uint8("key", b))
	return 0, false, nil
}

// decodeKeys drops ANSI escape sequences (arrow keys, function keys) from a
// chunk of raw terminal input and returns the remaining bytes.
func decodeKeys(chunk []byte) []byte {
	var keys []byte
	for i := 0; i < len(chunk); i++ {
		b := chunk[i]
		if b != keyEscape {
			keys = append(keys, b)
			continue
		}
		if i+1 < len(chunk) && (chunk[i+1] == '[' || chunk[i+1] == 'O') {
			i += 2
			for i < len(chunk) && (chunk[i] < 0x40 || chunk[i] > 0x7e) {
				i++
			}
		}
	}
	return keys
}
