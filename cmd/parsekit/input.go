package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
)

// commandReader reads one line of source text at a time from some input
// source, blank lines skipped.
type commandReader interface {
	ReadCommand() (string, error)
	Close() error
}

// directReader reads lines directly from an io.Reader, with no editing or
// history support. Used when stdin isn't a tty, or --direct is given.
type directReader struct {
	r *bufio.Reader
}

func newDirectReader(r io.Reader) *directReader {
	return &directReader{r: bufio.NewReader(r)}
}

func (dr *directReader) ReadCommand() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
	}

	return line, nil
}

func (dr *directReader) Close() error {
	return nil
}

// interactiveReader reads lines from stdin via GNU-readline-style editing
// and history. Used when stdin is a tty and --direct wasn't given.
type interactiveReader struct {
	rl *readline.Instance
}

func newInteractiveReader() (*interactiveReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "parsekit> ",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}
	return &interactiveReader{rl: rl}, nil
}

func (ir *interactiveReader) ReadCommand() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = ir.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
	}

	return line, nil
}

func (ir *interactiveReader) Close() error {
	return ir.rl.Close()
}

func newCommandReader(direct bool) (commandReader, error) {
	if !direct && isatty.IsTerminal(os.Stdin.Fd()) {
		return newInteractiveReader()
	}
	return newDirectReader(os.Stdin), nil
}
