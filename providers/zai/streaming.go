package zai

import (
	"context"
	"net/http"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/protocol"
	"github.com/petal-labs/zai-go/sse"
)

// doStreamChat performs a streaming chat completion request. Chunks are
// handed to fn as they are decoded; the assembled reply is returned after
// the [DONE] sentinel. Tool call arguments are passed through verbatim; a
// call whose arguments are not a JSON object is answered by the executor.
func (p *Zai) doStreamChat(ctx context.Context, req *core.ChatRequest, fn core.StreamFunc) (*core.ChatResponse, error) {
	body, err := protocol.EncodeChatRequest(buildRequest(req, true))
	if err != nil {
		return nil, err
	}

	resp, err := p.send(ctx, http.MethodPost, chatCompletionsPath, body, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	acc := sse.NewAccumulator()
	err = sse.Decode(ctx, resp.Body, func(ctx context.Context, chunk protocol.StreamChunk) error {
		acc.Add(chunk)
		if fn == nil {
			return nil
		}
		return fn(ctx, mapChunk(chunk))
	})
	if err != nil {
		return nil, err
	}
	return mapResponse(acc.Response()), nil
}
