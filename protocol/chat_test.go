package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petal-labs/zai-go/core"
)

func TestContentMarshal(t *testing.T) {
	tests := []struct {
		name string
		in   Content
		want string
	}{
		{"text", TextContent("hello"), `"hello"`},
		{"parts", PartsContent(
			ContentPart{Type: "text", Text: "what is this?"},
			ContentPart{Type: "image_url", ImageURL: &URLRef{URL: "https://example.com/a.png"}},
		), `[{"type":"text","text":"what is this?"},{"type":"image_url","image_url":{"url":"https://example.com/a.png"}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestContentUnmarshal(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"plain"}`), &m))
	assert.Equal(t, "plain", m.Content.Text)
	assert.Empty(t, m.Content.Parts)

	m = Message{}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":[{"type":"video_url","video_url":{"url":"v.mp4"}}]}`), &m))
	require.Len(t, m.Content.Parts, 1)
	assert.Equal(t, "v.mp4", m.Content.Parts[0].VideoURL.URL)

	m = Message{}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":null,"tool_calls":[{"id":"c1","type":"function","function":{"name":"f","arguments":"{}"}}]}`), &m))
	assert.True(t, m.Content.IsEmpty())
	assert.Len(t, m.ToolCalls, 1)
}

func TestMessageOmitsEmptyContent(t *testing.T) {
	data, err := json.Marshal(Message{
		Role:      "assistant",
		ToolCalls: []ToolCall{{ID: "c1", Type: "function", Function: FunctionCall{Name: "f", Arguments: "{}"}}},
	})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"content"`)
}

func TestIDAcceptsNumber(t *testing.T) {
	var chunk StreamChunk
	require.NoError(t, json.Unmarshal([]byte(`{"id":20240101123,"choices":[]}`), &chunk))
	assert.Equal(t, ID("20240101123"), chunk.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"abc","choices":[]}`), &chunk))
	assert.Equal(t, ID("abc"), chunk.ID)

	require.Error(t, json.Unmarshal([]byte(`{"id":{"x":1}}`), &chunk))
}

func TestEncodeChatRequest(t *testing.T) {
	req := &ChatCompletionRequest{
		Model: "glm-4.6",
		Messages: []Message{
			{Role: "system", Content: TextContent("be terse")},
			{Role: "user", Content: TextContent("hi")},
		},
		Stream:   true,
		Thinking: &Thinking{Type: "enabled"},
	}
	data, err := EncodeChatRequest(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model":"glm-4.6",
		"messages":[{"role":"system","content":"be terse"},{"role":"user","content":"hi"}],
		"stream":true,
		"thinking":{"type":"enabled"}
	}`, string(data))
}

func TestEncodeChatRequestRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		req  ChatCompletionRequest
		want error
	}{
		{"no model", ChatCompletionRequest{Messages: []Message{{Role: "user", Content: TextContent("x")}}}, core.ErrModelRequired},
		{"no messages", ChatCompletionRequest{Model: "glm-4.6"}, core.ErrNoMessages},
		{"empty message", ChatCompletionRequest{Model: "glm-4.6", Messages: []Message{
			{Role: "user", Content: TextContent("x")},
			{Role: "assistant"},
		}}, core.ErrEmptyMessage},
		{"missing role", ChatCompletionRequest{Model: "glm-4.6", Messages: []Message{{Content: TextContent("x")}}}, core.ErrEmptyMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeChatRequest(&tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeStreamChunk(t *testing.T) {
	chunk, err := DecodeStreamChunk([]byte(`{"id":"1","choices":[{"index":0,"delta":{"content":"He","tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_weather","arguments":"{\"ci"}}]},"finish_reason":null}]}`))
	require.NoError(t, err)
	require.Len(t, chunk.Choices, 1)
	assert.Equal(t, "He", chunk.Choices[0].Delta.Content)
	assert.Nil(t, chunk.Choices[0].FinishReason)
	require.Len(t, chunk.Choices[0].Delta.ToolCalls, 1)
	assert.Equal(t, `{"ci`, chunk.Choices[0].Delta.ToolCalls[0].Function.Arguments)

	_, err = DecodeStreamChunk([]byte(`{"id":`))
	assert.ErrorIs(t, err, core.ErrDecode)
}

func TestDecodeChatResponse(t *testing.T) {
	resp, err := DecodeChatResponse([]byte(`{
		"id":"resp-1","model":"glm-4.6","created":1700000000,
		"choices":[{"index":0,"message":{"role":"assistant","content":"Hi","reasoning_content":"thinking"},"finish_reason":"stop"}],
		"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}
	}`))
	require.NoError(t, err)
	assert.Equal(t, ID("resp-1"), resp.ID)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "Hi", resp.Choices[0].Message.Content.Text)
	assert.Equal(t, "thinking", resp.Choices[0].Message.ReasoningContent)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestDecodeErrorEnvelope(t *testing.T) {
	env, ok := DecodeErrorEnvelope([]byte(`{"error":{"code":1113,"message":"insufficient balance"}}`))
	require.True(t, ok)
	assert.Equal(t, FlexString("1113"), env.Error.Code)
	assert.Equal(t, "insufficient balance", env.Error.Message)

	_, ok = DecodeErrorEnvelope([]byte(`<html>bad gateway</html>`))
	assert.False(t, ok)

	_, ok = DecodeErrorEnvelope([]byte(`{"choices":[]}`))
	assert.False(t, ok)
}
