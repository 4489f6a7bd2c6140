package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/zai-go/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitProvider   = 2
	ExitNetwork    = 3
)

// handleChatError reports err on stderr and maps it to an exit code.
func (a *App) handleChatError(err error) error {
	var provErr *core.ProviderError
	if errors.As(err, &provErr) {
		if a.jsonOutput {
			a.outputErrorJSON(provErr)
		} else {
			fmt.Fprintf(a.stderr, "Error: %s\n", provErr.Message)
			if provErr.RequestID != "" {
				fmt.Fprintf(a.stderr, "  Provider: %s, Request ID: %s\n", provErr.Provider, provErr.RequestID)
			}
		}
		return reportedExit(ExitProvider, err)
	}

	errType := "error"
	code := ExitProvider
	switch {
	case errors.Is(err, core.ErrNetwork):
		errType, code = "network_error", ExitNetwork
	case errors.Is(err, core.ErrTimeout):
		errType, code = "timeout", ExitNetwork
	case errors.Is(err, core.ErrModelRequired), errors.Is(err, core.ErrNoMessages),
		errors.Is(err, core.ErrEmptyMessage), errors.Is(err, core.ErrNotSupported):
		errType, code = "validation_error", ExitValidation
	case errors.Is(err, core.ErrDecode):
		errType = "decode_error"
	}

	if a.jsonOutput {
		a.outputSimpleErrorJSON(errType, err.Error())
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return reportedExit(code, err)
}

// report prints an error that no command handler has printed yet.
func (a *App) report(err error) {
	if a.jsonOutput {
		a.outputSimpleErrorJSON("error", err.Error())
		return
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
}

func (a *App) outputErrorJSON(provErr *core.ProviderError) {
	output := map[string]any{
		"error": map[string]any{
			"type":       provErr.Code,
			"message":    provErr.Message,
			"status":     provErr.Status,
			"provider":   provErr.Provider,
			"request_id": provErr.RequestID,
		},
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

func (a *App) outputSimpleErrorJSON(errType, message string) {
	output := map[string]any{
		"error": map[string]any{
			"type":    errType,
			"message": message,
		},
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

// exitError wraps an error with an exit code. reported is set once the
// error has been printed to stderr.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func reportedExit(code int, err error) error {
	return &exitError{code: code, err: err, reported: true}
}
