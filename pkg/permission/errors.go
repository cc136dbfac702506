package permission

import "errors"

var (
	// ErrNoTerminal is returned when prompting without an interactive terminal.
	ErrNoTerminal = errors.New("no terminal to prompt on")

	// ErrUnknownMode is returned for a mode other than prompt, grant or deny.
	ErrUnknownMode = errors.New("unknown permission mode")

	// ErrPromptBusy is returned when a second request arrives while the
	// prompt is still waiting for an answer.
	ErrPromptBusy = errors.New("permission prompt already open")
)
