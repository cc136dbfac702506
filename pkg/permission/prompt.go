package permission

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const question = "Allow snapcam to use the camera? [y/N] "

// Prompt asks on a terminal. The terminal's input is owned by the
// caller's line reader, which hands lines to Answer while Waiting
// reports true.
type Prompt struct {
	out io.Writer

	mu      sync.Mutex
	pending chan bool
}

// NewPrompt creates a prompt writing its question to out.
func NewPrompt(out io.Writer) *Prompt {
	return &Prompt{out: out}
}

// Request implements Provider.
func (p *Prompt) Request(ctx context.Context) (bool, error) {
	answer := make(chan bool, 1)

	p.mu.Lock()
	if p.pending != nil {
		p.mu.Unlock()
		return false, ErrPromptBusy
	}
	p.pending = answer
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.pending == answer {
			p.pending = nil
		}
		p.mu.Unlock()
	}()

	if _, err := fmt.Fprint(p.out, question); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	select {
	case granted := <-answer:
		return granted, nil
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false, ctx.Err()
	}
}

// Waiting reports whether a request is waiting for an answer.
func (p *Prompt) Waiting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// Answer resolves the waiting request with line. Only y and yes grant.
// It returns false if no request was waiting.
func (p *Prompt) Answer(line string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		p.pending <- true
	default:
		p.pending <- false
	}
	p.pending = nil
	return true
}

// Interactive reports whether f is a terminal.
func Interactive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
