package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ToolExecutor executes the tool calls a model requests.
// The tools package provides the standard implementation.
type ToolExecutor interface {
	// Declarations returns the tools to advertise to the model.
	Declarations() []ToolDeclaration

	// ExecuteToolCalls runs calls and returns one result and one role=tool
	// message per call, in input order. A failed call must not prevent the
	// others from completing.
	ExecuteToolCalls(ctx context.Context, calls []ToolCall) ([]ExecutionResult, []Message)
}

// ConversationHooks observes the orchestration loop. All fields are optional.
type ConversationHooks struct {
	// OnResponse is called after each model reply, before any tools run.
	OnResponse func(ctx context.Context, iteration int, resp *ChatResponse)

	// OnToolResult is called for every executed tool call.
	OnToolResult func(ctx context.Context, iteration int, result ExecutionResult)
}

// Turn reports the outcome of one Send or Stream call.
// It is returned alongside errors so callers can see partial progress.
type Turn struct {
	// Response is the last model reply received.
	Response *ChatResponse

	// ToolResults holds every tool execution in the order it ran.
	ToolResults []ExecutionResult

	// Iterations is the number of model requests issued.
	Iterations int

	// Usage sums token usage across iterations.
	Usage TokenUsage

	Duration time.Duration
}

// Succeeded returns the tool executions that succeeded.
func (t *Turn) Succeeded() []ExecutionResult {
	var out []ExecutionResult
	for _, r := range t.ToolResults {
		if r.Success {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the tool executions that failed.
func (t *Turn) Failed() []ExecutionResult {
	var out []ExecutionResult
	for _, r := range t.ToolResults {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}

// Conversation holds an ordered message history and drives the
// request → tool calls → tool results → request loop.
//
// Turns on one Conversation are serialized; use one Conversation per dialogue.
type Conversation struct {
	mu sync.Mutex

	memory        Memory
	client        *Client
	model         ModelID
	system        string
	executor      ToolExecutor
	maxIterations int
	temperature   *float32
	maxTokens     *int
	thinking      *bool
	hooks         ConversationHooks
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithSystemMessage sets a system message that heads the history.
func WithSystemMessage(system string) ConversationOption {
	return func(c *Conversation) {
		c.system = system
	}
}

// WithMemoryStore sets a custom memory store for the conversation.
func WithMemoryStore(memory Memory) ConversationOption {
	return func(c *Conversation) {
		if memory != nil {
			c.memory = memory
		}
	}
}

// WithExecutor enables tool calling through executor.
func WithExecutor(executor ToolExecutor) ConversationOption {
	return func(c *Conversation) {
		c.executor = executor
	}
}

// WithMaxIterations bounds the number of model requests per turn (default 10).
func WithMaxIterations(n int) ConversationOption {
	return func(c *Conversation) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithConversationTemperature sets the sampling temperature for every request.
func WithConversationTemperature(v float32) ConversationOption {
	return func(c *Conversation) {
		c.temperature = &v
	}
}

// WithConversationMaxTokens caps completion tokens for every request.
func WithConversationMaxTokens(n int) ConversationOption {
	return func(c *Conversation) {
		c.maxTokens = &n
	}
}

// WithConversationThinking toggles deep-thinking output for every request.
func WithConversationThinking(enabled bool) ConversationOption {
	return func(c *Conversation) {
		c.thinking = &enabled
	}
}

// WithHooks installs loop observers.
func WithHooks(h ConversationHooks) ConversationOption {
	return func(c *Conversation) {
		c.hooks = h
	}
}

// DefaultMaxIterations is the default bound on model requests per turn.
const DefaultMaxIterations = 10

// NewConversation creates a conversation bound to client and model.
func NewConversation(client *Client, model ModelID, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		memory:        NewInMemoryStore(),
		client:        client,
		model:         model,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.system != "" {
		c.memory.AddMessage(SystemMessage(c.system))
	}
	return c
}

// Send appends a user message and runs the loop until the model replies
// without tool calls.
func (c *Conversation) Send(ctx context.Context, userMessage string) (*Turn, error) {
	return c.run(ctx, UserMessage(userMessage), nil)
}

// SendMessage is Send for an arbitrary message such as a multimodal user turn.
func (c *Conversation) SendMessage(ctx context.Context, msg Message) (*Turn, error) {
	return c.run(ctx, msg, nil)
}

// Stream is Send with streamed replies. fn sees every chunk of every iteration.
// A deadline on ctx aborts the in-flight stream read.
func (c *Conversation) Stream(ctx context.Context, userMessage string, fn StreamFunc) (*Turn, error) {
	if fn == nil {
		fn = func(context.Context, ChatChunk) error { return nil }
	}
	return c.run(ctx, UserMessage(userMessage), fn)
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	return c.memory.GetHistory()
}

// Append adds messages to the history without issuing a request.
func (c *Conversation) Append(msgs ...Message) {
	c.memory.AddMessage(msgs...)
}

// Reset clears the history, keeping the system message if one was configured.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory.Clear()
	if c.system != "" {
		c.memory.AddMessage(SystemMessage(c.system))
	}
}

func (c *Conversation) run(ctx context.Context, msg Message, fn StreamFunc) (*Turn, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	turn := &Turn{}
	defer func() { turn.Duration = time.Since(start) }()

	c.memory.AddMessage(msg)

	for {
		if turn.Iterations >= c.maxIterations {
			return turn, fmt.Errorf("%w (%d)", ErrMaxIterations, c.maxIterations)
		}
		if err := ContextError(ctx); err != nil {
			return turn, err
		}
		turn.Iterations++

		req := c.request()
		var (
			resp *ChatResponse
			err  error
		)
		if fn != nil {
			resp, err = c.client.DoStream(ctx, req, fn)
		} else {
			resp, err = c.client.Do(ctx, req)
		}
		if err != nil {
			return turn, err
		}
		turn.Response = resp
		turn.Usage = addTokenUsage(turn.Usage, resp.Usage)

		if c.hooks.OnResponse != nil {
			c.hooks.OnResponse(ctx, turn.Iterations, resp)
		}

		if !resp.HasToolCalls() || c.executor == nil {
			if reply := resp.AssistantMessage(); reply.Validate() == nil {
				c.memory.AddMessage(reply)
			}
			return turn, nil
		}

		// The assistant turn carrying the calls precedes the tool replies.
		c.memory.AddMessage(resp.AssistantMessage())

		results, replies := c.executor.ExecuteToolCalls(ctx, resp.ToolCalls)
		turn.ToolResults = append(turn.ToolResults, results...)
		if c.hooks.OnToolResult != nil {
			for _, r := range results {
				c.hooks.OnToolResult(ctx, turn.Iterations, r)
			}
		}
		c.memory.AddMessage(replies...)
	}
}

func (c *Conversation) request() *ChatRequest {
	req := &ChatRequest{
		Model:       c.model,
		Messages:    c.memory.GetHistory(),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Thinking:    c.thinking,
	}
	if c.executor != nil {
		req.Tools = c.executor.Declarations()
	}
	return req
}

func addTokenUsage(a, b TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     a.PromptTokens + b.PromptTokens,
		CompletionTokens: a.CompletionTokens + b.CompletionTokens,
		TotalTokens:      a.TotalTokens + b.TotalTokens,
	}
}
