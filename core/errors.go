package core

import (
	"context"
	"errors"
	"fmt"
)

// ProviderError represents an error returned by the remote service with full context.
type ProviderError struct {
	Provider  string
	Status    int
	RequestID string
	Code      string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (status=%d, code=%s, request_id=%s)",
			e.Provider, e.Message, e.Status, e.Code, e.RequestID)
	}
	return fmt.Sprintf("%s: %s (status=%d, code=%s)",
		e.Provider, e.Message, e.Status, e.Code)
}

// Unwrap returns the underlying error for error chaining.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// TransportError describes a connection or I/O failure on a socket or HTTP body.
// It always matches ErrNetwork via errors.Is.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.URL != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports ErrNetwork so transport failures classify without unwrapping the cause.
func (e *TransportError) Is(target error) bool {
	return target == ErrNetwork
}

// DecodeError describes a malformed payload on the wire.
// It always matches ErrDecode via errors.Is.
type DecodeError struct {
	// What names the thing being decoded, e.g. "stream chunk" or "server event".
	What string
	// Payload is the offending bytes, truncated for display.
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Payload != "" {
		return fmt.Sprintf("decode %s: %v (payload=%q)", e.What, e.Err, e.Payload)
	}
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// NewDecodeError builds a DecodeError, truncating long payloads.
func NewDecodeError(what string, payload []byte, err error) error {
	const max = 256
	p := string(payload)
	if len(p) > max {
		p = p[:max] + "..."
	}
	return &DecodeError{What: what, Payload: p, Err: err}
}

// Sentinel errors for classification.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")
	ErrDecode       = errors.New("decode error")
	ErrNotSupported = errors.New("operation not supported")
)

// Tool execution errors.
var (
	ErrToolNotFound      = errors.New("tool not found")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrExecutionFailed   = errors.New("execution failed")
	ErrTimeout           = errors.New("timeout")
	ErrRegistration      = errors.New("registration error")
)

// Validation errors with actionable guidance.
var (
	ErrModelRequired = errors.New("model required: pass a model ID to Client.Chat(), e.g., client.Chat(\"glm-4.6\")")
	ErrNoMessages    = errors.New("no messages: add at least one message using .System(), .User(), or .Assistant()")
	ErrEmptyMessage  = errors.New("empty message: a message needs content or at least one tool call")
	ErrMaxIterations = errors.New("conversation exceeded maximum tool iterations")
)

// ContextError returns ctx.Err(). A passed deadline also matches ErrTimeout,
// so callers can classify it alongside tool and transport timeouts.
func ContextError(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
