// Package protocol defines the JSON wire shapes of the chat completion and
// realtime APIs, and pure functions to encode and decode them.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ID is an identifier the service may send as a JSON string or number.
// It always encodes as a string.
type ID string

// UnmarshalJSON accepts a string, a number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// ChatCompletionRequest is the body of POST /chat/completions.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
	Temperature *float32  `json:"temperature,omitempty"`
	TopP        *float32  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
	Thinking    *Thinking `json:"thinking,omitempty"`
	DoSample    *bool     `json:"do_sample,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
}

// Thinking toggles deep-thinking output.
type Thinking struct {
	Type string `json:"type"` // "enabled" or "disabled"
}

// Message is one conversation turn on the wire.
type Message struct {
	Role             string     `json:"role"`
	Content          Content    `json:"content,omitzero"`
	ReasoningContent string     `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID       string     `json:"tool_call_id,omitempty"`
}

// Validate reports an empty message: one without content and without tool calls.
func (m Message) Validate() error {
	if m.Role == "" {
		return errors.New("message role is required")
	}
	if m.Content.IsEmpty() && len(m.ToolCalls) == 0 {
		return fmt.Errorf("%s message has neither content nor tool calls", m.Role)
	}
	return nil
}

// Content is either a plain string or a list of rich content parts.
type Content struct {
	Text  string
	Parts []ContentPart
}

// TextContent returns plain string content.
func TextContent(s string) Content { return Content{Text: s} }

// PartsContent returns rich content.
func PartsContent(parts ...ContentPart) Content { return Content{Parts: parts} }

// IsEmpty reports whether there is neither text nor any part.
func (c Content) IsEmpty() bool {
	return c.Text == "" && len(c.Parts) == 0
}

// IsZero lets omitzero drop empty content.
func (c Content) IsZero() bool { return c.IsEmpty() }

// MarshalJSON encodes parts as an array and text as a string.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.Parts) > 0 {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts a string, an array of parts, or null.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*c = Content{}
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '[':
		return json.Unmarshal(data, &c.Parts)
	default:
		return json.Unmarshal(data, &c.Text)
	}
}

// ContentPart is one element of rich content.
type ContentPart struct {
	Type     string  `json:"type"` // text, image_url, video_url, file_url
	Text     string  `json:"text,omitempty"`
	ImageURL *URLRef `json:"image_url,omitempty"`
	VideoURL *URLRef `json:"video_url,omitempty"`
	FileURL  *URLRef `json:"file_url,omitempty"`
}

// URLRef wraps a media URL.
type URLRef struct {
	URL string `json:"url"`
}

// ToolCall is a completed tool invocation as it appears in assistant messages.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the function and carries JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool declares a callable function to the model.
type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef is the declaration of one function.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Usage reports token counts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the non-streaming reply.
type ChatCompletionResponse struct {
	ID        ID       `json:"id"`
	RequestID string   `json:"request_id,omitempty"`
	Created   int64    `json:"created,omitempty"`
	Model     string   `json:"model"`
	Choices   []Choice `json:"choices"`
	Usage     *Usage   `json:"usage,omitempty"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// StreamChunk is one `data:` record of a streamed completion.
type StreamChunk struct {
	ID      ID             `json:"id"`
	Created int64          `json:"created,omitempty"`
	Model   string         `json:"model,omitempty"`
	Choices []StreamChoice `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"`
}

// StreamChoice carries the delta for one choice index.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Delta holds partial message fields.
type Delta struct {
	Role             string          `json:"role,omitempty"`
	Content          string          `json:"content,omitempty"`
	ReasoningContent string          `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta is a fragment of a tool call. Fragments with the same Index
// are concatenated in arrival order.
type ToolCallDelta struct {
	Index    int           `json:"index"`
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type,omitempty"`
	Function FunctionDelta `json:"function"`
}

// FunctionDelta holds partial name and argument text.
type FunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ErrorEnvelope is the error body returned with non-2xx statuses.
type ErrorEnvelope struct {
	Error struct {
		Code    FlexString `json:"code"`
		Message string     `json:"message"`
		Type    string     `json:"type,omitempty"`
	} `json:"error"`
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

// UnmarshalJSON accepts a string or number.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var id ID
	if err := id.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = FlexString(id)
	return nil
}
