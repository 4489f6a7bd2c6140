package core

import (
	"context"
	"fmt"
	"time"
)

// Provider is the interface a chat completion backend implements.
// Providers SHOULD be safe for concurrent calls.
type Provider interface {
	// ID returns the provider identifier (e.g., "zai").
	ID() string

	// Models returns the capability table of known models.
	Models() []ModelInfo

	// Supports reports whether the provider supports the given feature.
	Supports(feature Feature) bool

	// Chat sends a non-streaming chat request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// StreamChat sends a streaming chat request. fn is invoked once per chunk,
	// in arrival order, and the body is not read further until fn returns.
	// The accumulated response is returned once the stream terminates.
	StreamChat(ctx context.Context, req *ChatRequest, fn StreamFunc) (*ChatResponse, error)
}

// Client is the main entry point for chat completions.
// Client is safe for concurrent use.
type Client struct {
	provider  Provider
	telemetry TelemetryHook
	retry     RetryConfig
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new Client with the given provider and options.
func NewClient(p Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:  p,
		telemetry: NoopTelemetryHook{},
		retry:     DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTelemetry sets the telemetry hook for the client.
func WithTelemetry(h TelemetryHook) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.telemetry = h
		}
	}
}

// WithRetry sets the retry configuration for non-streaming requests.
func WithRetry(cfg RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// ModelInfo looks a model up in the provider's capability table.
func (c *Client) ModelInfo(id ModelID) (ModelInfo, bool) {
	for _, m := range c.provider.Models() {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// Chat returns a ChatBuilder for constructing and executing a chat request.
func (c *Client) Chat(model ModelID) *ChatBuilder {
	return &ChatBuilder{
		client: c,
		req: ChatRequest{
			Model: model,
		},
	}
}

// Do validates and sends req, applying telemetry and retry.
func (c *Client) Do(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	start := time.Now()
	c.telemetry.OnRequestStart(RequestStartEvent{
		Provider: c.provider.ID(),
		Model:    req.Model,
		Start:    start,
	})

	resp, err := retry(ctx, c.retry, func() (*ChatResponse, error) {
		return c.provider.Chat(ctx, req)
	})

	c.end(req.Model, start, resp, err)
	return resp, err
}

// DoStream validates and streams req. Streams are never retried.
func (c *Client) DoStream(ctx context.Context, req *ChatRequest, fn StreamFunc) (*ChatResponse, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}
	if fn == nil {
		fn = func(context.Context, ChatChunk) error { return nil }
	}

	start := time.Now()
	c.telemetry.OnRequestStart(RequestStartEvent{
		Provider: c.provider.ID(),
		Model:    req.Model,
		Start:    start,
	})

	resp, err := c.provider.StreamChat(ctx, req, fn)

	c.end(req.Model, start, resp, err)
	return resp, err
}

func (c *Client) end(model ModelID, start time.Time, resp *ChatResponse, err error) {
	usage := TokenUsage{}
	if resp != nil {
		usage = resp.Usage
	}
	c.telemetry.OnRequestEnd(RequestEndEvent{
		Provider: c.provider.ID(),
		Model:    model,
		Start:    start,
		End:      time.Now(),
		Usage:    usage,
		Err:      err,
	})
}

// validate checks the request shape and the model's capabilities.
// Models missing from the capability table are passed through unchecked.
func (c *Client) validate(req *ChatRequest) error {
	if req.Model == "" {
		return ErrModelRequired
	}
	if len(req.Messages) == 0 {
		return ErrNoMessages
	}
	for i, msg := range req.Messages {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}

	info, ok := c.ModelInfo(req.Model)
	if !ok {
		return nil
	}
	if !info.HasCapability(FeatureChat) {
		return fmt.Errorf("%w: model %s does not support chat", ErrNotSupported, req.Model)
	}
	if len(req.Tools) > 0 && !info.HasCapability(FeatureToolCalling) {
		return fmt.Errorf("%w: model %s does not support tool calling", ErrNotSupported, req.Model)
	}
	for _, msg := range req.Messages {
		for _, part := range msg.Parts {
			if f, needs := requiredFeature(part); needs && !info.HasCapability(f) {
				return fmt.Errorf("%w: model %s does not accept %s content", ErrNotSupported, req.Model, part.ContentType())
			}
		}
	}
	return nil
}

// ChatBuilder provides a fluent API for building chat requests.
// ChatBuilder is NOT thread-safe and should not be shared across goroutines.
type ChatBuilder struct {
	client *Client
	req    ChatRequest
}

// System appends a system message.
func (b *ChatBuilder) System(s string) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, SystemMessage(s))
	return b
}

// User appends a user message.
func (b *ChatBuilder) User(s string) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, UserMessage(s))
	return b
}

// UserParts appends a multimodal user message.
func (b *ChatBuilder) UserParts(parts ...ContentPart) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, Message{Role: RoleUser, Parts: parts})
	return b
}

// Assistant appends an assistant message.
func (b *ChatBuilder) Assistant(s string) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, AssistantMessage(s))
	return b
}

// ToolResult appends a role=tool reply for callID.
func (b *ChatBuilder) ToolResult(callID, content string) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, ToolMessage(callID, content))
	return b
}

// Messages appends arbitrary messages.
func (b *ChatBuilder) Messages(msgs ...Message) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, msgs...)
	return b
}

// Temperature sets the temperature parameter.
func (b *ChatBuilder) Temperature(v float32) *ChatBuilder {
	b.req.Temperature = &v
	return b
}

// TopP sets the nucleus sampling parameter.
func (b *ChatBuilder) TopP(v float32) *ChatBuilder {
	b.req.TopP = &v
	return b
}

// MaxTokens sets the maximum tokens parameter.
func (b *ChatBuilder) MaxTokens(n int) *ChatBuilder {
	b.req.MaxTokens = &n
	return b
}

// Tools sets the tool declarations available for the request.
func (b *ChatBuilder) Tools(ts ...ToolDeclaration) *ChatBuilder {
	b.req.Tools = ts
	return b
}

// Thinking enables or disables deep-thinking output.
func (b *ChatBuilder) Thinking(enabled bool) *ChatBuilder {
	b.req.Thinking = &enabled
	return b
}

// Request returns a copy of the request built so far.
func (b *ChatBuilder) Request() ChatRequest {
	return b.req
}

// GetResponse executes the chat request and returns the response.
// It applies validation, telemetry, and retry logic.
func (b *ChatBuilder) GetResponse(ctx context.Context) (*ChatResponse, error) {
	return b.client.Do(ctx, &b.req)
}

// Stream executes the chat request, invoking fn for each chunk.
func (b *ChatBuilder) Stream(ctx context.Context, fn StreamFunc) (*ChatResponse, error) {
	return b.client.DoStream(ctx, &b.req, fn)
}
