package zai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/protocol"
)

// chatCompletionsPath is the API endpoint for chat completions.
const chatCompletionsPath = "/chat/completions"

// send issues a request and returns the response once the status line is
// read. Non-2xx replies are drained and converted to a *core.ProviderError.
func (p *Zai) send(ctx context.Context, method, path string, body []byte, stream bool) (*http.Response, error) {
	url := p.config.BaseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, newNetworkError("build request", url, err)
	}
	for key, values := range p.buildHeaders() {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := p.config.HTTPClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, core.ContextError(ctx)
		}
		return nil, newNetworkError(method, url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, normalizeError(resp.StatusCode, respBody, requestID(resp, respBody))
	}
	return resp, nil
}

// requestID prefers the response header and falls back to the request_id
// field Z.ai includes in JSON bodies.
func requestID(resp *http.Response, body []byte) string {
	if id := resp.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	var tmp struct {
		RequestID string `json:"request_id"`
	}
	_ = json.Unmarshal(body, &tmp)
	return tmp.RequestID
}

// Do sends a JSON request to path and decodes the JSON reply into out.
// in and out may be nil. It is the building block for endpoints that have
// no dedicated method.
//
//	var models struct {
//	    Data []struct{ ID string `json:"id"` } `json:"data"`
//	}
//	err := provider.Do(ctx, http.MethodGet, "/models", nil, &models)
func (p *Zai) Do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("zai: encode request: %w", err)
		}
	}

	respBody, err := p.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return core.NewDecodeError(path+" response", respBody, err)
	}
	return nil
}

// roundTrip sends a non-streaming request under the configured timeout and
// returns the full body.
func (p *Zai) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	resp, err := p.send(ctx, method, path, body, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, core.ContextError(ctx)
		}
		return nil, newNetworkError("read response", p.config.BaseURL+path, err)
	}
	return respBody, nil
}

// doChat performs a non-streaming chat completion request.
func (p *Zai) doChat(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	body, err := protocol.EncodeChatRequest(buildRequest(req, false))
	if err != nil {
		return nil, err
	}

	respBody, err := p.roundTrip(ctx, http.MethodPost, chatCompletionsPath, body)
	if err != nil {
		return nil, err
	}

	resp, err := protocol.DecodeChatResponse(respBody)
	if err != nil {
		return nil, err
	}
	return mapResponse(resp), nil
}
