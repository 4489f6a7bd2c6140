package core

import (
	"context"
	"log/slog"
	"time"
)

// TelemetryHook receives notifications about request lifecycle events.
//
// Events carry operational metadata only (provider, model, timing, token
// counts). API keys, prompts and model output are never included, so hooks
// can forward events to external sinks without a redaction step.
type TelemetryHook interface {
	// OnRequestStart is called when a request to a provider begins.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called when a request to a provider completes.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	Provider string
	Model    ModelID
	Start    time.Time
}

// RequestEndEvent contains metadata about a completed request.
type RequestEndEvent struct {
	Provider string
	Model    ModelID
	Start    time.Time
	End      time.Time
	Usage    TokenUsage
	Err      error // nil on success
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

// SlogTelemetry logs request lifecycle events to a structured logger.
type SlogTelemetry struct {
	logger *slog.Logger
}

// NewSlogTelemetry returns a TelemetryHook backed by logger.
// A nil logger uses slog.Default().
func NewSlogTelemetry(logger *slog.Logger) *SlogTelemetry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTelemetry{logger: logger}
}

// OnRequestStart logs at debug level.
func (t *SlogTelemetry) OnRequestStart(e RequestStartEvent) {
	t.logger.Debug("chat request started",
		slog.String("provider", e.Provider),
		slog.String("model", string(e.Model)),
	)
}

// OnRequestEnd logs at info level on success and warn level on failure.
func (t *SlogTelemetry) OnRequestEnd(e RequestEndEvent) {
	attrs := []slog.Attr{
		slog.String("provider", e.Provider),
		slog.String("model", string(e.Model)),
		slog.Duration("duration", e.Duration()),
		slog.Int("prompt_tokens", e.Usage.PromptTokens),
		slog.Int("completion_tokens", e.Usage.CompletionTokens),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
		t.logger.LogAttrs(context.Background(), slog.LevelWarn, "chat request failed", attrs...)
		return
	}
	t.logger.LogAttrs(context.Background(), slog.LevelInfo, "chat request completed", attrs...)
}

var (
	_ TelemetryHook = NoopTelemetryHook{}
	_ TelemetryHook = (*SlogTelemetry)(nil)
)
