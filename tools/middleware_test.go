package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// stubTool is a test implementation of Tool.
type stubTool struct {
	name   string
	callFn func(ctx context.Context, args json.RawMessage) (any, error)
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub" }
func (t *stubTool) Schema() ToolSchema  { return ToolSchema{} }
func (t *stubTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	if t.callFn != nil {
		return t.callFn(ctx, args)
	}
	return "result", nil
}

type onceStub struct{ stubTool }

func (*onceStub) Idempotent() bool { return false }

func TestToolContextFromContext(t *testing.T) {
	if tc := ToolContextFromContext(context.Background()); tc != nil {
		t.Error("expected nil for context without ToolContext")
	}

	expected := &ToolContext{
		ToolName: "test_tool",
		CallID:   "call-123",
		Attempt:  2,
		Metadata: map[string]any{"key": "value"},
	}
	tc := ToolContextFromContext(ContextWithToolContext(context.Background(), expected))
	if tc == nil {
		t.Fatal("expected ToolContext, got nil")
	}
	if tc.ToolName != "test_tool" || tc.CallID != "call-123" || tc.Attempt != 2 {
		t.Errorf("ToolContext = %+v, want %+v", tc, expected)
	}
	if tc.Metadata["key"] != "value" {
		t.Errorf("Metadata[key] = %v, want %q", tc.Metadata["key"], "value")
	}
}

func recordingMiddleware(label string, order *[]string) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			*order = append(*order, label+"-before")
			result, err := next(ctx, args)
			*order = append(*order, label+"-after")
			return result, err
		}
	}
}

func TestChain(t *testing.T) {
	var order []string
	tool := func(ctx context.Context, args json.RawMessage) (any, error) {
		order = append(order, "tool")
		return "done", nil
	}

	wrapped := Chain(recordingMiddleware("m1", &order), recordingMiddleware("m2", &order))(tool)
	if _, err := wrapped(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"m1-before", "m2-before", "tool", "m2-after", "m1-after"}
	if strings.Join(order, ",") != strings.Join(expected, ",") {
		t.Errorf("order = %v, want %v", order, expected)
	}
}

func TestApplyMiddlewareInjectsToolContext(t *testing.T) {
	var seen string
	mw := func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			if tc := ToolContextFromContext(ctx); tc != nil {
				seen = tc.ToolName
			}
			return next(ctx, args)
		}
	}

	wrapped := ApplyMiddleware(&stubTool{name: "lookup"}, mw)
	if wrapped.Name() != "lookup" || wrapped.Description() != "stub" {
		t.Errorf("wrapped tool metadata = %q/%q", wrapped.Name(), wrapped.Description())
	}
	result, err := wrapped.Call(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if result != "result" {
		t.Errorf("Call() = %v, want result", result)
	}
	if seen != "lookup" {
		t.Errorf("middleware saw ToolName %q, want lookup", seen)
	}
}

func TestApplyMiddlewareNoopAndIdempotence(t *testing.T) {
	base := &stubTool{name: "plain"}
	if got := ApplyMiddleware(base); got != Tool(base) {
		t.Error("ApplyMiddleware() without middleware should return the tool unchanged")
	}

	noop := func(next ToolCallFunc) ToolCallFunc { return next }
	if ir := ApplyMiddleware(base, noop).(idempotenceReporter); !ir.Idempotent() {
		t.Error("wrapped plain tool reports non-idempotent")
	}
	once := &onceStub{stubTool{name: "once"}}
	if ir := ApplyMiddleware(once, noop).(idempotenceReporter); ir.Idempotent() {
		t.Error("wrapped tool lost its Idempotent() = false declaration")
	}
}

func TestForToolsAndExceptTools(t *testing.T) {
	var hits int
	counting := func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			hits++
			return next(ctx, args)
		}
	}
	call := func(mw Middleware, name string) {
		ctx := ContextWithToolContext(context.Background(), &ToolContext{ToolName: name})
		_, _ = mw(func(context.Context, json.RawMessage) (any, error) { return nil, nil })(ctx, nil)
	}

	only := ForTools([]string{"a"}, counting)
	call(only, "a")
	call(only, "b")
	if hits != 1 {
		t.Errorf("ForTools hits = %d, want 1", hits)
	}

	hits = 0
	except := ExceptTools([]string{"a"}, counting)
	call(except, "a")
	call(except, "b")
	call(except, "c")
	if hits != 2 {
		t.Errorf("ExceptTools hits = %d, want 2", hits)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ok := ApplyMiddleware(&stubTool{name: "fine"}, WithLogging(logger))
	if _, err := ok.Call(context.Background(), json.RawMessage(`{"secret":"x"}`)); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "tool call start") || !strings.Contains(out, "tool call succeeded") {
		t.Errorf("log output missing start/success lines:\n%s", out)
	}
	if !strings.Contains(out, "tool=fine") {
		t.Errorf("log output missing tool attr:\n%s", out)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("WithLogging leaked arguments:\n%s", out)
	}

	buf.Reset()
	failing := ApplyMiddleware(&stubTool{
		name:   "broken",
		callFn: func(context.Context, json.RawMessage) (any, error) { return nil, errors.New("boom") },
	}, WithLogging(logger))
	if _, err := failing.Call(context.Background(), nil); err == nil {
		t.Fatal("Call() error = nil, want boom")
	}
	if out := buf.String(); !strings.Contains(out, "level=WARN") || !strings.Contains(out, "boom") {
		t.Errorf("failure was not logged at WARN:\n%s", out)
	}
}

func TestWithDetailedLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tool := ApplyMiddleware(&stubTool{name: "echo"}, WithDetailedLogging(logger))
	if _, err := tool.Call(context.Background(), json.RawMessage(`{"q":"hello"}`)); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "hello") || !strings.Contains(out, `result="\"result\""`) {
		t.Errorf("detailed log missing args or result:\n%s", out)
	}
}

func TestDefaultCacheKeyCanonical(t *testing.T) {
	a := DefaultCacheKey("search", json.RawMessage(`{"b":1,"a":"x"}`))
	b := DefaultCacheKey("search", json.RawMessage(`{ "a" : "x", "b" : 1 }`))
	if a != b {
		t.Error("keys differ for arguments that differ only in order and whitespace")
	}
	if a == DefaultCacheKey("other", json.RawMessage(`{"a":"x","b":1}`)) {
		t.Error("keys collide across tool names")
	}
	if DefaultCacheKey("search", nil) != DefaultCacheKey("search", json.RawMessage(`{}`)) {
		t.Error("empty arguments should key like {}")
	}
}

func TestWithCache(t *testing.T) {
	var calls atomic.Int32
	tool := ApplyMiddleware(&stubTool{
		name: "expensive",
		callFn: func(context.Context, json.RawMessage) (any, error) {
			return int(calls.Add(1)), nil
		},
	}, WithCache(NewMemoryCache(10), time.Minute))

	first, _ := tool.Call(context.Background(), json.RawMessage(`{"q":1,"r":2}`))
	second, _ := tool.Call(context.Background(), json.RawMessage(`{"r":2,"q":1}`))
	if first != 1 || second != 1 {
		t.Errorf("results = %v, %v; want the cached 1 twice", first, second)
	}
	third, _ := tool.Call(context.Background(), json.RawMessage(`{"q":2}`))
	if third != 2 {
		t.Errorf("different args returned %v, want a fresh call", third)
	}
	if calls.Load() != 2 {
		t.Errorf("underlying calls = %d, want 2", calls.Load())
	}
}

func TestWithCacheSkipsErrors(t *testing.T) {
	var calls int
	tool := ApplyMiddleware(&stubTool{
		name: "flaky",
		callFn: func(context.Context, json.RawMessage) (any, error) {
			calls++
			return nil, errors.New("fail")
		},
	}, WithCache(NewMemoryCache(10), time.Minute))

	_, _ = tool.Call(context.Background(), nil)
	_, _ = tool.Call(context.Background(), nil)
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (errors must not be cached)", calls)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(10)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v", time.Second)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get() = %v, %v; want v, true", v, ok)
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("Get() returned an expired entry")
	}
	if n := c.Stats().Entries; n != 0 {
		t.Errorf("Entries = %d after expiry, want 0", n)
	}

	c.Set("d", "default", 0)
	now = now.Add(DefaultCacheTTL - time.Second)
	if _, ok := c.Get("d"); !ok {
		t.Error("zero TTL should select DefaultCacheTTL")
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	c := NewMemoryCache(2)
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Get("a")
	c.Set("c", 3, time.Minute)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry b was not evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry a was evicted")
	}

	stats := c.Stats()
	if stats.Entries != 2 || stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Stats() = %+v, want 2 entries, 2 hits, 1 miss", stats)
	}

	c.Clear()
	if c.Stats().Entries != 0 {
		t.Error("Clear() left entries behind")
	}
}
