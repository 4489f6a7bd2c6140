package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/jsonschema-go/jsonschema"
	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/zai-go/core"
)

// BackoffStrategy selects the delay between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier after each failure.
	BackoffExponential BackoffStrategy = iota
	// BackoffFixed waits InitialDelay between every attempt.
	BackoffFixed
)

// ExecutorConfig configures an Executor. Zero numeric fields take the
// defaults of DefaultExecutorConfig.
type ExecutorConfig struct {
	// Timeout bounds each attempt.
	Timeout time.Duration
	// MaxAttempts bounds the total number of calls to a tool's handler.
	// Set it to 1 to disable retries.
	MaxAttempts  int
	Backoff      BackoffStrategy
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// MaxParallel caps concurrent calls in ExecuteParallel. Zero is unlimited.
	MaxParallel int
	// ValidateParameters checks arguments against the tool's JSON Schema
	// before calling it.
	ValidateParameters bool
	// Middleware wraps every tool call, outermost first.
	Middleware []Middleware
	Logger     *slog.Logger
}

// DefaultExecutorConfig returns the default configuration.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Timeout:            30 * time.Second,
		MaxAttempts:        3,
		Backoff:            BackoffExponential,
		InitialDelay:       100 * time.Millisecond,
		MaxDelay:           30 * time.Second,
		Multiplier:         2,
		ValidateParameters: true,
	}
}

func (c ExecutorConfig) normalized() ExecutorConfig {
	d := DefaultExecutorConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Multiplier < 1 {
		c.Multiplier = d.Multiplier
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

func (c ExecutorConfig) backOff() backoff.BackOff {
	if c.Backoff == BackoffFixed {
		return backoff.NewConstantBackOff(c.InitialDelay)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialDelay
	b.MaxInterval = c.MaxDelay
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// Executor runs tool calls against a Registry with per-attempt timeouts
// and retries.
type Executor struct {
	registry *Registry
	cfg      ExecutorConfig
}

var _ core.ToolExecutor = (*Executor)(nil)

// NewExecutor creates an executor over registry.
func NewExecutor(registry *Registry, cfg ExecutorConfig) *Executor {
	return &Executor{registry: registry, cfg: cfg.normalized()}
}

// Registry returns the executor's registry.
func (e *Executor) Registry() *Registry { return e.registry }

// Declarations returns the enabled tools for a chat request.
func (e *Executor) Declarations() []core.ToolDeclaration {
	return e.registry.Declarations()
}

// Execute runs the named tool. It never returns an error: failures are
// reported in the result, with Err matching one of core.ErrToolNotFound,
// core.ErrInvalidParameters, core.ErrTimeout or core.ErrExecutionFailed.
//
// Unknown or disabled tools and invalid arguments fail without calling the
// handler. Timeouts and handler failures are retried up to MaxAttempts,
// except for tools marked NonIdempotent, which get a single attempt. A
// handler that panics fails its call with core.ErrExecutionFailed and is
// not retried.
func (e *Executor) Execute(ctx context.Context, name string, args json.RawMessage) core.ExecutionResult {
	return e.ExecuteCall(ctx, core.ToolCall{Name: name, Arguments: string(args)})
}

// ExecuteCall runs one model-issued tool call.
func (e *Executor) ExecuteCall(ctx context.Context, call core.ToolCall) core.ExecutionResult {
	start := time.Now()
	res := core.ExecutionResult{CallID: call.ID, ToolName: call.Name, Timestamp: start}

	finish := func(out json.RawMessage, err error) core.ExecutionResult {
		res.Duration = time.Since(start)
		if err != nil {
			res.Err = err
			res.Error = err.Error()
			e.cfg.Logger.LogAttrs(ctx, slog.LevelWarn, "tool execution failed",
				slog.String("tool", call.Name),
				slog.String("call_id", call.ID),
				slog.Int("retries", res.Retries),
				slog.Duration("duration", res.Duration),
				slog.Any("error", err))
			return res
		}
		res.Success = true
		res.Result = out
		e.cfg.Logger.LogAttrs(ctx, slog.LevelDebug, "tool execution succeeded",
			slog.String("tool", call.Name),
			slog.String("call_id", call.ID),
			slog.Int("retries", res.Retries),
			slog.Duration("duration", res.Duration))
		return res
	}

	tool, meta, ok := e.registry.Lookup(call.Name)
	if !ok || !meta.Enabled {
		return finish(nil, fmt.Errorf("%w: %s", core.ErrToolNotFound, call.Name))
	}
	if meta.Version != "" {
		res.Metadata = map[string]string{"version": meta.Version}
	}

	args := call.RawArguments()
	if err := core.ValidateArgumentsObject(args); err != nil {
		return finish(nil, err)
	}

	invoke := tool.Call
	if ft, ok := tool.(*functionTool); ok {
		// Schema failures are rejected before the first attempt.
		invoke = ft.call
		if e.cfg.ValidateParameters && ft.resolved != nil {
			if err := validateAgainst(ft.resolved, args); err != nil {
				return finish(nil, err)
			}
		}
	} else if e.cfg.ValidateParameters {
		if err := e.validateSchema(meta, args); err != nil {
			return finish(nil, err)
		}
	}
	if len(e.cfg.Middleware) > 0 {
		invoke = Chain(e.cfg.Middleware...)(invoke)
	}

	maxAttempts := e.cfg.MaxAttempts
	if meta.NonIdempotent {
		maxAttempts = 1
	}

	attempt := 0
	var lastErr error
	operation := func() (json.RawMessage, error) {
		attempt++
		out, err := e.attempt(ctx, invoke, call, args, attempt)
		if err == nil {
			return out, nil
		}
		res.Retries++
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			lastErr = perm.Err
			return nil, err
		}
		lastErr = err
		if !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(e.cfg.backOff()),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			e.cfg.Logger.LogAttrs(ctx, slog.LevelDebug, "retrying tool call",
				slog.String("tool", call.Name),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", next),
				slog.Any("error", err))
		}),
	)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return finish(nil, lastErr)
	}
	return finish(out, nil)
}

// attempt runs one handler call under its own timeout.
func (e *Executor) attempt(ctx context.Context, invoke ToolCallFunc, call core.ToolCall, args json.RawMessage, n int) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	attemptCtx = ContextWithToolContext(attemptCtx, &ToolContext{
		ToolName: call.Name,
		CallID:   call.ID,
		Attempt:  n,
		Metadata: make(map[string]any),
	})

	type outcome struct {
		value    any
		err      error
		panicked bool
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("%w: %s panicked: %v", core.ErrExecutionFailed, call.Name, r), panicked: true}
			}
		}()
		v, err := invoke(attemptCtx, args)
		ch <- outcome{v, err}
	}()

	select {
	case o := <-ch:
		if o.panicked {
			return nil, backoff.Permanent(o.err)
		}
		if o.err != nil {
			return nil, classify(o.err)
		}
		out, err := marshalResult(o.value)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: encode result: %v", core.ErrExecutionFailed, err))
		}
		return out, nil
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", core.ErrTimeout, call.Name, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s exceeded %v", core.ErrTimeout, call.Name, e.cfg.Timeout)
	}
}

// classify maps a handler error onto the executor taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, core.ErrInvalidParameters),
		errors.Is(err, core.ErrToolNotFound),
		errors.Is(err, core.ErrTimeout),
		errors.Is(err, core.ErrExecutionFailed):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", core.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", core.ErrExecutionFailed, err)
	}
}

func retryable(err error) bool {
	return errors.Is(err, core.ErrExecutionFailed) || errors.Is(err, core.ErrTimeout)
}

func marshalResult(v any) (json.RawMessage, error) {
	switch r := v.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case json.RawMessage:
		if !json.Valid(r) {
			return nil, errors.New("handler returned invalid JSON")
		}
		return r, nil
	default:
		return json.Marshal(v)
	}
}

func (e *Executor) validateSchema(meta Metadata, args json.RawMessage) error {
	raw := meta.Schema.JSONSchema
	if len(raw) == 0 {
		return nil
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		e.cfg.Logger.Warn("tool schema is not valid JSON Schema; skipping validation", "tool", meta.Name, "error", err)
		return nil
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		e.cfg.Logger.Warn("tool schema cannot be resolved; skipping validation", "tool", meta.Name, "error", err)
		return nil
	}
	return validateAgainst(resolved, args)
}

// ExecuteParallel runs calls concurrently, bounded by MaxParallel. Results
// are in input order and one failure does not affect the others.
func (e *Executor) ExecuteParallel(ctx context.Context, calls []core.ToolCall) []core.ExecutionResult {
	results := make([]core.ExecutionResult, len(calls))

	var g errgroup.Group
	if e.cfg.MaxParallel > 0 {
		g.SetLimit(e.cfg.MaxParallel)
	}
	for i, call := range calls {
		g.Go(func() error {
			results[i] = e.ExecuteCall(ctx, call)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ExecuteToolCalls runs calls in parallel and returns, alongside the
// results, one role=tool message per call in input order. A successful
// message carries the JSON result; a failed one carries
// {"error":{"type":...,"message":...}}.
func (e *Executor) ExecuteToolCalls(ctx context.Context, calls []core.ToolCall) ([]core.ExecutionResult, []core.Message) {
	results := e.ExecuteParallel(ctx, calls)
	messages := make([]core.Message, len(results))
	for i, r := range results {
		messages[i] = core.ToolMessage(calls[i].ID, resultContent(r))
	}
	return results, messages
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func resultContent(r core.ExecutionResult) string {
	if r.Success {
		return string(r.Result)
	}
	data, err := json.Marshal(errorBody{Error: errorDetail{Type: ErrorType(r.Err), Message: r.Error}})
	if err != nil {
		return `{"error":{"type":"execution_failed","message":"unencodable error"}}`
	}
	return string(data)
}

// ErrorType names the failure class of a tool error as reported to the model.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, core.ErrToolNotFound):
		return "tool_not_found"
	case errors.Is(err, core.ErrInvalidParameters):
		return "invalid_parameters"
	case errors.Is(err, core.ErrTimeout):
		return "timeout"
	default:
		return "execution_failed"
	}
}
