package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var errNoInput = errors.New("no input: pipe data into gptxt or use --input")

// readInput returns the contents of path, or of stdin when path is empty.
// An interactive stdin is refused since the script needs data to work on.
func readInput(path string, stdin *os.File) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("error reading input file: %w", err)
		}
		return string(data), nil
	}

	if term.IsTerminal(int(stdin.Fd())) {
		return "", errNoInput
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("error reading piped input: %w", err)
	}
	return string(data), nil
}

// openKeyboard returns the controlling terminal for key presses and editor
// I/O. Stdin usually carries the input data, so /dev/tty is preferred.
func openKeyboard() (*os.File, func()) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return os.Stdin, func() {}
	}
	return tty, func() { _ = tty.Close() }
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
