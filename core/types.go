// Package core provides the zai-go client, conversation orchestrator and shared types.
package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Feature represents a capability that a model may support.
type Feature string

const (
	FeatureChat          Feature = "chat"
	FeatureChatStreaming Feature = "chat_streaming"
	FeatureToolCalling   Feature = "tool_calling"
	FeatureReasoning     Feature = "reasoning"
	FeatureVision        Feature = "vision"
	FeatureVideo         Feature = "video"
	FeatureAudio         Feature = "audio"
	FeatureRealtime      Feature = "realtime"
)

// ModelInfo describes a model available from a provider.
type ModelInfo struct {
	ID           ModelID   `json:"id"`
	DisplayName  string    `json:"display_name"`
	Capabilities []Feature `json:"capabilities"`
}

// HasCapability reports whether the model supports the given feature.
func (m ModelInfo) HasCapability(f Feature) bool {
	for _, cap := range m.Capabilities {
		if cap == f {
			return true
		}
	}
	return false
}

// ModelID is a string identifier for a model.
type ModelID string

// Role represents a message participant role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single turn in a conversation.
// For plain text use Content. For multimodal input use Parts; when Parts is
// non-empty, Content is ignored.
type Message struct {
	Role       Role          `json:"role"`
	Content    string        `json:"content,omitempty"`
	Parts      []ContentPart `json:"-"`
	Reasoning  string        `json:"reasoning,omitempty"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`   // assistant messages only
	ToolCallID string        `json:"tool_call_id,omitempty"` // tool messages only
}

// Validate rejects messages that would encode to an empty turn.
func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrEmptyMessage, m.Role)
	}
	if m.Content == "" && len(m.Parts) == 0 && len(m.ToolCalls) == 0 {
		return fmt.Errorf("%w (role=%s)", ErrEmptyMessage, m.Role)
	}
	return nil
}

// SystemMessage returns a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage returns a role=tool reply for the call with the given id.
func ToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content}
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolCall represents a tool invocation requested by the model.
// Arguments is the JSON-encoded object exactly as the model produced it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// RawArguments returns the arguments as raw JSON, treating an empty string as {}.
func (c ToolCall) RawArguments() json.RawMessage {
	if strings.TrimSpace(c.Arguments) == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(c.Arguments)
}

// ValidateArguments reports whether Arguments holds a JSON object.
func (c ToolCall) ValidateArguments() error {
	return ValidateArgumentsObject(c.RawArguments())
}

// ValidateArgumentsObject reports ErrInvalidParameters unless raw is a JSON object.
func ValidateArgumentsObject(raw json.RawMessage) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("%w: arguments must be a JSON object: %v", ErrInvalidParameters, err)
	}
	if obj == nil {
		return fmt.Errorf("%w: arguments must be a JSON object, got null", ErrInvalidParameters)
	}
	return nil
}

// ToolDeclaration is a function declaration exported to the model.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ChatRequest represents a request to a chat model.
type ChatRequest struct {
	Model       ModelID           `json:"model"`
	Messages    []Message         `json:"messages"`
	Temperature *float32          `json:"temperature,omitempty"`
	TopP        *float32          `json:"top_p,omitempty"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
	Stop        []string          `json:"stop,omitempty"`
	Tools       []ToolDeclaration `json:"tools,omitempty"`
	ToolChoice  string            `json:"tool_choice,omitempty"`
	// Thinking toggles GLM deep-thinking output. Nil leaves the server default.
	Thinking *bool  `json:"thinking,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// ChatResponse represents a completed reply from a chat model.
// Only the first choice is surfaced.
type ChatResponse struct {
	ID           string     `json:"id"`
	Model        ModelID    `json:"model"`
	Output       string     `json:"output"`
	Reasoning    string     `json:"reasoning,omitempty"`
	Usage        TokenUsage `json:"usage"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

// HasToolCalls reports whether the response contains any tool calls.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// AssistantMessage converts the response into the assistant turn that
// produced it, including any tool calls.
func (r *ChatResponse) AssistantMessage() Message {
	return Message{
		Role:      RoleAssistant,
		Content:   r.Output,
		ToolCalls: r.ToolCalls,
	}
}

// ChatChunk is one incremental streaming delta for the first choice.
type ChatChunk struct {
	ID           string             `json:"id,omitempty"`
	Content      string             `json:"content,omitempty"`
	Reasoning    string             `json:"reasoning,omitempty"`
	ToolCalls    []ToolCallFragment `json:"tool_calls,omitempty"`
	FinishReason string             `json:"finish_reason,omitempty"`
	Usage        *TokenUsage        `json:"usage,omitempty"`
}

// ToolCallFragment is a partial tool call carried by one chunk.
// Fragments sharing an Index belong to the same call.
type ToolCallFragment struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ExecutionResult is the outcome of a single tool invocation.
type ExecutionResult struct {
	CallID   string          `json:"call_id,omitempty"`
	ToolName string          `json:"tool_name"`
	Success  bool            `json:"success"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	Err      error           `json:"-"`
	Duration time.Duration   `json:"duration"`
	// Retries counts failed attempts.
	Retries   int               `json:"retries"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
