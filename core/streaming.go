package core

import (
	"context"
	"io"
)

// StreamFunc receives streamed chunks in arrival order.
// Returning an error aborts the stream and the error is returned to the caller.
// The next chunk is not read until the function returns, so a slow consumer
// throttles the producer.
type StreamFunc func(ctx context.Context, chunk ChatChunk) error

// WriteContent returns a StreamFunc that copies content deltas to w.
func WriteContent(w io.Writer) StreamFunc {
	return func(_ context.Context, chunk ChatChunk) error {
		if chunk.Content == "" {
			return nil
		}
		_, err := io.WriteString(w, chunk.Content)
		return err
	}
}

// Tee returns a StreamFunc that invokes each fn in order, stopping at the first error.
func Tee(fns ...StreamFunc) StreamFunc {
	return func(ctx context.Context, chunk ChatChunk) error {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(ctx, chunk); err != nil {
				return err
			}
		}
		return nil
	}
}
