package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/petal-labs/zai-go/core"
)

// EncodeChatRequest validates every message and marshals the request body.
// An empty message is rejected with core.ErrEmptyMessage.
func EncodeChatRequest(req *ChatCompletionRequest) ([]byte, error) {
	if req.Model == "" {
		return nil, core.ErrModelRequired
	}
	if len(req.Messages) == 0 {
		return nil, core.ErrNoMessages
	}
	for i, m := range req.Messages {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: message %d: %v", core.ErrEmptyMessage, i, err)
		}
	}
	return json.Marshal(req)
}

// DecodeStreamChunk decodes one SSE data payload.
func DecodeStreamChunk(data []byte) (StreamChunk, error) {
	var chunk StreamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return StreamChunk{}, core.NewDecodeError("stream chunk", data, err)
	}
	return chunk, nil
}

// DecodeChatResponse decodes a non-streaming completion body.
func DecodeChatResponse(data []byte) (*ChatCompletionResponse, error) {
	var resp ChatCompletionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, core.NewDecodeError("chat response", data, err)
	}
	return &resp, nil
}

// DecodeErrorEnvelope extracts the service error body. It returns false when
// data is not an error envelope.
func DecodeErrorEnvelope(data []byte) (ErrorEnvelope, bool) {
	var env ErrorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ErrorEnvelope{}, false
	}
	return env, env.Error.Message != "" || env.Error.Code != ""
}
