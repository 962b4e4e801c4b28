package keypress

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var reviewSet = []Command{Run, Quit, Regenerate, Edit}
var recoverySet = []Command{Regenerate, Edit, Quit}

func TestReadCommand_SkipsUnboundKeys(t *testing.T) {
	var out bytes.Buffer
	r := NewReader(strings.NewReader("xY y"), &out)

	cmd, err := r.ReadCommand(context.Background(), "Run program? ", reviewSet...)
	require.NoError(t, err)
	assert.Equal(t, Run, cmd)
	assert.Equal(t, "Run program? y\n", out.String())
}

func TestReadCommand_RestrictedSet(t *testing.T) {
	var out bytes.Buffer
	r := NewReader(strings.NewReader("ye"), &out)

	cmd, err := r.ReadCommand(context.Background(), "> ", recoverySet...)
	require.NoError(t, err)
	assert.Equal(t, Edit, cmd)
	assert.Equal(t, "> e\n", out.String())
}

func TestReadCommand_Interrupts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		combo string
	}{
		{"ctrl-c", "x\x03y", "Ctrl+C"},
		{"ctrl-backslash", "\x1cy", `Ctrl+\`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := NewReader(strings.NewReader(tt.input), &out).ReadCommand(context.Background(), "> ", reviewSet...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInterrupted))

			var ie *InterruptError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.combo, ie.Combo)
			assert.NotContains(t, out.String(), "y")
		})
	}
}

func TestReadCommand_EOF(t *testing.T) {
	var out bytes.Buffer
	_, err := NewReader(strings.NewReader("abc"), &out).ReadCommand(context.Background(), "> ", reviewSet...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.EOF))
}

func TestReadCommand_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewReader(pr, io.Discard).ReadCommand(ctx, "> ", reviewSet...)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestReadCommand_FileIsReleased(t *testing.T) {
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	r := NewReader(pr, io.Discard)
	_, err = pw.WriteString("y")
	require.NoError(t, err)

	cmd, err := r.ReadCommand(context.Background(), "", reviewSet...)
	require.NoError(t, err)
	assert.Equal(t, Run, cmd)

	// The first reader was joined, so the next call owns the pipe.
	_, err = pw.WriteString("xq")
	require.NoError(t, err)
	cmd, err = r.ReadCommand(context.Background(), "", recoverySet...)
	require.NoError(t, err)
	assert.Equal(t, Quit, cmd)
}

func TestReadCommand_RegularFileKeepsLaterKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys")
	require.NoError(t, os.WriteFile(path, []byte("ry\x1b[Bq\x03"), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	ctx := context.Background()
	r := NewReader(f, io.Discard)

	cmd, err := r.ReadCommand(ctx, "> ", Run, Quit)
	require.NoError(t, err)
	assert.Equal(t, Run, cmd)

	cmd, err = r.ReadCommand(ctx, "> ", Quit)
	require.NoError(t, err)
	assert.Equal(t, Quit, cmd)

	_, err = r.ReadCommand(ctx, "> ", Quit)
	assert.ErrorIs(t, err, ErrInterrupted)

	_, err = r.ReadCommand(ctx, "> ", Quit)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadCommand_IgnoresEscapeSequences(t *testing.T) {
	// arrow up, then "q"
	cmd, err := NewReader(strings.NewReader("\x1b[A\x1b[1;5Cq"), io.Discard).ReadCommand(context.Background(), "", reviewSet...)
	require.NoError(t, err)
	assert.Equal(t, Quit, cmd)
}

func TestDecodeKeys(t *testing.T) {
	assert.Equal(t, []byte("ab"), decodeKeys([]byte("a\x1b[Bb")))
	assert.Equal(t, []byte("y"), decodeKeys([]byte("\x1bOPy")))
	assert.Nil(t, decodeKeys([]byte("\x1b")))
}

func TestCommandKeys(t *testing.T) {
	assert.Equal(t, byte('y'), Run.Key())
	assert.Equal(t, byte('q'), Quit.Key())
	assert.Equal(t, byte('r'), Regenerate.Key())
	assert.Equal(t, byte('e'), Edit.Key())
	assert.Equal(t, "regenerate", Regenerate.String())
}
