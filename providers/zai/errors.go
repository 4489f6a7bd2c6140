package zai

import (
	"net/http"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/protocol"
)

// normalizeError converts an HTTP error response to a ProviderError with the appropriate sentinel.
func normalizeError(status int, body []byte, requestID string) error {
	var message, code string
	if env, ok := protocol.DecodeErrorEnvelope(body); ok {
		message = env.Error.Message
		code = string(env.Error.Code)
	}
	if message == "" {
		message = http.StatusText(status)
	}

	var sentinel error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = core.ErrUnauthorized
	case status == http.StatusTooManyRequests:
		sentinel = core.ErrRateLimited
	case status == http.StatusNotFound:
		sentinel = core.ErrNotFound
	case status >= 400 && status < 500:
		sentinel = core.ErrBadRequest
	default:
		sentinel = core.ErrServer
	}

	return &core.ProviderError{
		Provider:  "zai",
		Status:    status,
		RequestID: requestID,
		Code:      code,
		Message:   message,
		Err:       sentinel,
	}
}

// newNetworkError wraps a failure to reach the service or read its reply.
func newNetworkError(op, url string, err error) error {
	return &core.TransportError{Op: op, URL: url, Err: err}
}
