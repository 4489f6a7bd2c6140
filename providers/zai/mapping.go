package zai

import (
	"strings"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/protocol"
)

// mapMessages converts core messages to the wire format.
func mapMessages(msgs []core.Message) []protocol.Message {
	result := make([]protocol.Message, len(msgs))
	for i, msg := range msgs {
		m := protocol.Message{
			Role:             string(msg.Role),
			ReasoningContent: msg.Reasoning,
			ToolCallID:       msg.ToolCallID,
		}
		if len(msg.Parts) > 0 {
			m.Content = protocol.PartsContent(mapParts(msg.Parts)...)
		} else {
			m.Content = protocol.TextContent(msg.Content)
		}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, protocol.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: protocol.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.RawArguments()),
				},
			})
		}
		result[i] = m
	}
	return result
}

func mapParts(parts []core.ContentPart) []protocol.ContentPart {
	out := make([]protocol.ContentPart, 0, len(parts))
	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			out = append(out, protocol.ContentPart{Type: "text", Text: part.Text})
		case core.ImagePart:
			out = append(out, protocol.ContentPart{Type: "image_url", ImageURL: &protocol.URLRef{URL: part.URL}})
		case core.VideoPart:
			out = append(out, protocol.ContentPart{Type: "video_url", VideoURL: &protocol.URLRef{URL: part.URL}})
		case core.FilePart:
			out = append(out, protocol.ContentPart{Type: "file_url", FileURL: &protocol.URLRef{URL: part.URL}})
		}
	}
	return out
}

// mapTools converts declarations to the wire tool format.
func mapTools(decls []core.ToolDeclaration) []protocol.Tool {
	if len(decls) == 0 {
		return nil
	}
	result := make([]protocol.Tool, len(decls))
	for i, d := range decls {
		params := d.Parameters
		if len(params) == 0 {
			params = []byte(`{"type":"object","properties":{}}`)
		}
		result[i] = protocol.Tool{
			Type: "function",
			Function: protocol.FunctionDef{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		}
	}
	return result
}

// mapThinking converts the thinking toggle to the wire parameter.
func mapThinking(enabled *bool) *protocol.Thinking {
	if enabled == nil {
		return nil
	}
	if *enabled {
		return &protocol.Thinking{Type: "enabled"}
	}
	return &protocol.Thinking{Type: "disabled"}
}

// buildRequest creates a wire request from a core ChatRequest.
func buildRequest(req *core.ChatRequest, stream bool) *protocol.ChatCompletionRequest {
	out := &protocol.ChatCompletionRequest{
		Model:       string(req.Model),
		Messages:    mapMessages(req.Messages),
		Stream:      stream,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
		Thinking:    mapThinking(req.Thinking),
		UserID:      req.UserID,
	}

	if len(req.Tools) > 0 {
		out.Tools = mapTools(req.Tools)
		out.ToolChoice = req.ToolChoice
		if out.ToolChoice == "" {
			out.ToolChoice = "auto"
		}
	}

	return out
}

// mapResponse converts a wire response to a core ChatResponse.
// Only the first choice is surfaced.
func mapResponse(resp *protocol.ChatCompletionResponse) *core.ChatResponse {
	result := &core.ChatResponse{
		ID:    string(resp.ID),
		Model: core.ModelID(resp.Model),
	}
	if resp.Usage != nil {
		result.Usage = mapUsage(*resp.Usage)
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		result.Output = contentText(choice.Message.Content)
		result.Reasoning = choice.Message.ReasoningContent
		result.FinishReason = choice.FinishReason
		result.ToolCalls = mapToolCalls(choice.Message.ToolCalls)
	}

	return result
}

// contentText flattens content to its text. Replies from the service are
// plain strings; text parts are concatenated when parts are returned.
func contentText(c protocol.Content) string {
	if len(c.Parts) == 0 {
		return c.Text
	}
	var b strings.Builder
	for _, p := range c.Parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func mapUsage(u protocol.Usage) core.TokenUsage {
	return core.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// mapToolCalls converts wire tool calls. Arguments are kept verbatim;
// callers validate them before execution.
func mapToolCalls(calls []protocol.ToolCall) []core.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	result := make([]core.ToolCall, len(calls))
	for i, call := range calls {
		result[i] = core.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return result
}

// mapChunk converts the first choice of a stream chunk.
func mapChunk(chunk protocol.StreamChunk) core.ChatChunk {
	out := core.ChatChunk{ID: string(chunk.ID)}
	if chunk.Usage != nil {
		u := mapUsage(*chunk.Usage)
		out.Usage = &u
	}
	for _, c := range chunk.Choices {
		if c.Index != 0 {
			continue
		}
		out.Content = c.Delta.Content
		out.Reasoning = c.Delta.ReasoningContent
		if c.FinishReason != nil {
			out.FinishReason = *c.FinishReason
		}
		for _, tc := range c.Delta.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, core.ToolCallFragment{
				Index:     tc.Index,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return out
}
