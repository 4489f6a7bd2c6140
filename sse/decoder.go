// Package sse decodes the server-sent event stream of a streamed chat
// completion into protocol.StreamChunk records.
package sse

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/protocol"
)

// Done is the payload that terminates a stream.
const Done = "[DONE]"

// Handler receives each decoded chunk. It runs on the reading goroutine and
// the next line is not read until it returns. A non-nil error stops decoding.
type Handler func(ctx context.Context, chunk protocol.StreamChunk) error

// Decode reads r until a [DONE] record, passing every data record to fn.
//
// A record that fails to parse is fatal and returns a *core.DecodeError.
// Reaching EOF without [DONE] returns a *core.TransportError wrapping
// io.ErrUnexpectedEOF. If ctx ends, ctx.Err() is returned; a passed
// deadline also matches core.ErrTimeout.
func Decode(ctx context.Context, r io.Reader, fn Handler) error {
	reader := bufio.NewReader(r)

	for {
		if err := core.ContextError(ctx); err != nil {
			return err
		}

		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			if err := core.ContextError(ctx); err != nil {
				return err
			}
			return &core.TransportError{Op: "read stream", Err: readErr}
		}

		if payload, ok := dataPayload(line); ok {
			if payload == Done {
				return nil
			}
			chunk, err := protocol.DecodeStreamChunk([]byte(payload))
			if err != nil {
				return err
			}
			if err := fn(ctx, chunk); err != nil {
				return err
			}
		}

		if readErr != nil {
			if err := core.ContextError(ctx); err != nil {
				return err
			}
			return &core.TransportError{Op: "read stream", Err: io.ErrUnexpectedEOF}
		}
	}
}

// dataPayload returns the trimmed value of a data field. Comments, blank
// lines and the other SSE fields are reported as not-data.
func dataPayload(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ":") {
		return "", false
	}
	rest, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", false
	}
	return rest, true
}
