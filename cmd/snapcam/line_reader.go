package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/0xmhha/snapcam/pkg/config"
	"github.com/0xmhha/snapcam/pkg/permission"
	"github.com/chzyer/readline"
)

// sessionCommands are offered for completion at the prompt.
var sessionCommands = []string{
	"start", "capture", "switch", "teardown", "status", "gallery", "help", "quit",
}

// lineReader yields input lines until io.EOF.
type lineReader interface {
	ReadLine() (string, error)
	Close() error
}

// newLineReader returns a line editor with history and completion when
// both ends are terminals, and a plain scanner otherwise. The returned
// writer is where output must go so it does not garble the prompt.
func newLineReader(in, out *os.File) (lineReader, io.Writer) {
	if permission.Interactive(in) && permission.Interactive(out) {
		if r, err := newReadlineReader(); err == nil {
			return r, r.rl.Stdout()
		}
	}
	return newScanReader(in), out
}

type readlineReader struct {
	rl *readline.Instance
}

func newReadlineReader() (*readlineReader, error) {
	historyFile := filepath.Join(filepath.Dir(config.DefaultPath()), "history")
	if err := os.MkdirAll(filepath.Dir(historyFile), 0700); err != nil {
		historyFile = ""
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(sessionCommands))
	for _, cmd := range sessionCommands {
		items = append(items, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "snapcam> ",
		HistoryFile:       historyFile,
		AutoComplete:      readline.NewPrefixCompleter(items...),
		InterruptPrompt:   "^C",
		EOFPrompt:         "quit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, err
	}
	return &readlineReader{rl: rl}, nil
}

// ReadLine implements lineReader. Ctrl-C ends input like Ctrl-D.
func (r *readlineReader) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return line, err
}

func (r *readlineReader) Close() error {
	return r.rl.Close()
}

type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	return &scanReader{scanner: bufio.NewScanner(in)}
}

// ReadLine implements lineReader.
func (s *scanReader) ReadLine() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) Close() error {
	return nil
}
