package core

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestRequestEndEventDuration(t *testing.T) {
	start := time.Now()
	e := RequestEndEvent{Start: start, End: start.Add(1500 * time.Millisecond)}
	if e.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", e.Duration())
	}
}

func TestNoopTelemetryHookDoesNotPanic(t *testing.T) {
	var hook TelemetryHook = NoopTelemetryHook{}
	hook.OnRequestStart(RequestStartEvent{Provider: "zai"})
	hook.OnRequestEnd(RequestEndEvent{Provider: "zai", Err: errors.New("x")})
}

func newBufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
}

func TestSlogTelemetrySuccess(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)
	hook := NewSlogTelemetry(logger)

	start := time.Now()
	hook.OnRequestStart(RequestStartEvent{Provider: "zai", Model: "glm-4.6", Start: start})
	hook.OnRequestEnd(RequestEndEvent{
		Provider: "zai",
		Model:    "glm-4.6",
		Start:    start,
		End:      start.Add(time.Second),
		Usage:    TokenUsage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
	})

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=\"chat request started\"",
		"level=INFO msg=\"chat request completed\"",
		"provider=zai",
		"model=glm-4.6",
		"prompt_tokens=12",
		"completion_tokens=3",
		"duration=1s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestSlogTelemetryFailure(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	hook := NewSlogTelemetry(logger)

	hook.OnRequestStart(RequestStartEvent{Provider: "zai"})
	hook.OnRequestEnd(RequestEndEvent{Provider: "zai", Err: ErrRateLimited})

	out := buf.String()
	if strings.Contains(out, "chat request started") {
		t.Errorf("debug start event logged at info level:\n%s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "error=\"rate limited\"") {
		t.Errorf("failure not logged as warning:\n%s", out)
	}
}

func TestNewSlogTelemetryNilLogger(t *testing.T) {
	if NewSlogTelemetry(nil).logger == nil {
		t.Error("nil logger should fall back to slog.Default()")
	}
}
