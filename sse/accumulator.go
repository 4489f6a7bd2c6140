package sse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/protocol"
)

// Accumulator folds stream chunks into the equivalent non-streamed
// response. It is not safe for concurrent use.
type Accumulator struct {
	id      protocol.ID
	model   string
	created int64
	usage   *protocol.Usage
	choices map[int]*choiceState
}

type choiceState struct {
	role         string
	content      strings.Builder
	reasoning    strings.Builder
	finishReason string
	calls        map[int]*assemblingCall
}

type assemblingCall struct {
	id        string
	typ       string
	name      strings.Builder
	arguments strings.Builder
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{choices: make(map[int]*choiceState)}
}

// Add merges one chunk. Content, reasoning, tool-call names and arguments
// are concatenated in arrival order. A tool call's ID and type are taken
// from the first fragment that carries them.
func (a *Accumulator) Add(chunk protocol.StreamChunk) {
	if chunk.ID != "" {
		a.id = chunk.ID
	}
	if chunk.Model != "" {
		a.model = chunk.Model
	}
	if chunk.Created != 0 {
		a.created = chunk.Created
	}
	if chunk.Usage != nil {
		u := *chunk.Usage
		a.usage = &u
	}

	for _, c := range chunk.Choices {
		st := a.choice(c.Index)
		if c.Delta.Role != "" && st.role == "" {
			st.role = c.Delta.Role
		}
		st.content.WriteString(c.Delta.Content)
		st.reasoning.WriteString(c.Delta.ReasoningContent)
		if c.FinishReason != nil && *c.FinishReason != "" {
			st.finishReason = *c.FinishReason
		}
		for _, f := range c.Delta.ToolCalls {
			call, ok := st.calls[f.Index]
			if !ok {
				call = &assemblingCall{}
				st.calls[f.Index] = call
			}
			if call.id == "" {
				call.id = f.ID
			}
			if call.typ == "" {
				call.typ = f.Type
			}
			call.name.WriteString(f.Function.Name)
			call.arguments.WriteString(f.Function.Arguments)
		}
	}
}

func (a *Accumulator) choice(index int) *choiceState {
	st, ok := a.choices[index]
	if !ok {
		st = &choiceState{calls: make(map[int]*assemblingCall)}
		a.choices[index] = st
	}
	return st
}

// Content returns the accumulated text of a choice.
func (a *Accumulator) Content(choice int) string {
	if st, ok := a.choices[choice]; ok {
		return st.content.String()
	}
	return ""
}

// ToolCalls returns the assembled calls of a choice in index order.
func (a *Accumulator) ToolCalls(choice int) []protocol.ToolCall {
	st, ok := a.choices[choice]
	if !ok || len(st.calls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(st.calls))
	for idx := range st.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	out := make([]protocol.ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		call := st.calls[idx]
		typ := call.typ
		if typ == "" {
			typ = "function"
		}
		out = append(out, protocol.ToolCall{
			ID:   call.id,
			Type: typ,
			Function: protocol.FunctionCall{
				Name:      call.name.String(),
				Arguments: call.arguments.String(),
			},
		})
	}
	return out
}

// Validate reports the first assembled tool call whose arguments are not a
// JSON object. Empty arguments are accepted as {}.
func (a *Accumulator) Validate() error {
	for _, idx := range a.choiceIndexes() {
		for _, call := range a.ToolCalls(idx) {
			tc := core.ToolCall{ID: call.ID, Name: call.Function.Name, Arguments: call.Function.Arguments}
			if err := tc.ValidateArguments(); err != nil {
				return fmt.Errorf("tool call %q (%s): %w", call.Function.Name, call.ID, err)
			}
		}
	}
	return nil
}

// Response returns the accumulated reply.
func (a *Accumulator) Response() *protocol.ChatCompletionResponse {
	resp := &protocol.ChatCompletionResponse{
		ID:      a.id,
		Model:   a.model,
		Created: a.created,
	}
	if a.usage != nil {
		u := *a.usage
		resp.Usage = &u
	}
	for _, idx := range a.choiceIndexes() {
		st := a.choices[idx]
		role := st.role
		if role == "" {
			role = "assistant"
		}
		resp.Choices = append(resp.Choices, protocol.Choice{
			Index: idx,
			Message: protocol.Message{
				Role:             role,
				Content:          protocol.TextContent(st.content.String()),
				ReasoningContent: st.reasoning.String(),
				ToolCalls:        a.ToolCalls(idx),
			},
			FinishReason: st.finishReason,
		})
	}
	return resp
}

func (a *Accumulator) choiceIndexes() []int {
	out := make([]int, 0, len(a.choices))
	for idx := range a.choices {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
