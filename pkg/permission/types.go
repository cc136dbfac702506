// Package permission answers the camera access question.
//
// A Provider is asked once per permission request the session issues.
// Static answers from configuration, Prompt asks whoever is at the
// terminal, and Remembered stores the first answer of another Provider in
// BoltDB so the question is only asked once per machine.
package permission

import (
	"context"
	"time"
)

// Provider decides whether the camera may be used.
type Provider interface {
	// Request blocks until a decision is available or ctx is done.
	// An error means no decision was made; a refusal is (false, nil).
	Request(ctx context.Context) (bool, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (bool, error)

// Request implements Provider.
func (f ProviderFunc) Request(ctx context.Context) (bool, error) {
	return f(ctx)
}

// Mode selects how permission requests are answered.
type Mode string

const (
	// ModePrompt asks on the terminal.
	ModePrompt Mode = "prompt"

	// ModeGrant always grants.
	ModeGrant Mode = "grant"

	// ModeDeny always denies.
	ModeDeny Mode = "deny"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModePrompt, ModeGrant, ModeDeny:
		return true
	default:
		return false
	}
}

// Decision is a stored answer.
type Decision struct {
	Granted   bool      `json:"granted"`
	DecidedAt time.Time `json:"decided_at"`
}
